package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/logger"
	"warehouse-lending-backend/internal/repository"
)

const eventColumns = `id, event_ulid, request_id, kind, processed_by, notes, created_on, published_on`

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

// Append inserts the event and its line deltas. Events are never updated afterwards
// except for published_on.
func (r *transactionRepository) Append(ctx context.Context, ev *domain.TransactionEvent) error {
	q := querierFromCtx(ctx, r.db)
	if ev.CreatedOn.IsZero() {
		ev.CreatedOn = time.Now()
	}

	query := `INSERT INTO transaction_events (event_ulid, request_id, kind, processed_by, notes, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	logger.DatabaseCall("INSERT", "transaction_events", "request_id", ev.RequestID, "kind", ev.Kind)
	err := q.QueryRowContext(ctx, query, ev.ULID, ev.RequestID, ev.Kind, ev.ProcessedBy, ev.Notes, ev.CreatedOn).Scan(&ev.ID)
	if err != nil {
		return mapError(err, "transaction event", ev.ULID)
	}

	lineQuery := `INSERT INTO transaction_event_lines (event_id, line_id, quantity) VALUES ($1, $2, $3)`
	for _, l := range ev.Lines {
		if _, err := q.ExecContext(ctx, lineQuery, ev.ID, l.LineID, l.Quantity); err != nil {
			return mapError(err, "transaction event line", l.LineID)
		}
	}
	return nil
}

func (r *transactionRepository) ListByRequest(ctx context.Context, requestID int32) ([]domain.TransactionEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM transaction_events WHERE request_id = $1 ORDER BY created_on, id`
	return r.list(ctx, query, requestID)
}

func (r *transactionRepository) ListUnpublished(ctx context.Context, limit int32) ([]domain.TransactionEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM transaction_events WHERE published_on IS NULL ORDER BY id LIMIT $1`
	return r.list(ctx, query, limit)
}

func (r *transactionRepository) MarkPublished(ctx context.Context, ids []int32, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE transaction_events SET published_on = $1 WHERE id = ANY($2) AND published_on IS NULL`
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx, query, at, pq.Array(ids))
	if err != nil {
		return mapError(err, "transaction events", ids)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE transaction_events", n, nil)
	return nil
}

func (r *transactionRepository) list(ctx context.Context, query string, args ...any) ([]domain.TransactionEvent, error) {
	q := querierFromCtx(ctx, r.db)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "transaction events", args)
	}
	defer rows.Close()

	var events []domain.TransactionEvent
	var ids []int32
	for rows.Next() {
		var ev domain.TransactionEvent
		if err := rows.Scan(&ev.ID, &ev.ULID, &ev.RequestID, &ev.Kind, &ev.ProcessedBy, &ev.Notes, &ev.CreatedOn, &ev.PublishedOn); err != nil {
			return nil, err
		}
		events = append(events, ev)
		ids = append(ids, ev.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return events, nil
	}

	lineRows, err := q.QueryContext(ctx, `SELECT event_id, line_id, quantity FROM transaction_event_lines WHERE event_id = ANY($1) ORDER BY event_id, line_id`, pq.Array(ids))
	if err != nil {
		return nil, mapError(err, "transaction event lines", ids)
	}
	defer lineRows.Close()

	byEvent := make(map[int32][]domain.LineDelta, len(ids))
	for lineRows.Next() {
		var eventID int32
		var d domain.LineDelta
		if err := lineRows.Scan(&eventID, &d.LineID, &d.Quantity); err != nil {
			return nil, err
		}
		byEvent[eventID] = append(byEvent[eventID], d)
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Lines = byEvent[events[i].ID]
	}
	return events, nil
}
