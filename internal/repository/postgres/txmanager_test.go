package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/repository/postgres"
)

func TestTxManager_RunInTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	tm := postgres.NewTxManager(db)
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		repo := postgres.NewRequestRepository(db)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE borrowing_requests SET").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := tm.RunInTx(ctx, func(ctx context.Context) error {
			return repo.Update(ctx, &domain.BorrowingRequest{ID: 1, Status: domain.RequestStatusApproved, Version: 1})
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback On Error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		tm := postgres.NewTxManager(db)

		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err = tm.RunInTx(ctx, func(ctx context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nested Joins Outer", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		tm := postgres.NewTxManager(db)

		mock.ExpectBegin()
		mock.ExpectCommit()

		calls := 0
		err = tm.RunInTx(ctx, func(ctx context.Context) error {
			return tm.RunInTx(ctx, func(ctx context.Context) error {
				calls++
				return nil
			})
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback On Cancelled Context", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		tm := postgres.NewTxManager(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		cctx, cancel := context.WithCancel(ctx)
		err = tm.RunInTx(cctx, func(ctx context.Context) error {
			cancel()
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Panic Rolls Back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		tm := postgres.NewTxManager(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = tm.RunInTx(ctx, func(ctx context.Context) error { panic("boom") })
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
