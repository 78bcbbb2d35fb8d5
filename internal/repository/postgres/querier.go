package postgres

import (
	"context"
	"database/sql"
)

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txCtxKey struct{}

func withTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

func txFromCtx(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txCtxKey{}).(*sql.Tx)
	return tx, ok
}

// querierFromCtx returns the transaction carried by ctx, or db when there is none.
func querierFromCtx(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := txFromCtx(ctx); ok {
		return tx
	}
	return db
}
