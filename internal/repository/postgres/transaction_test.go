package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/repository/postgres"
)

var eventCols = []string{"id", "event_ulid", "request_id", "kind", "processed_by", "notes", "created_on", "published_on"}

func TestTransactionRepository_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewTransactionRepository(db)
	ev := &domain.TransactionEvent{
		ULID:        "01HZX3V6Q4M2C9D5R7T8W1Y0AB",
		RequestID:   7,
		Kind:        domain.TransactionKindBorrow,
		ProcessedBy: 2,
		Lines:       []domain.LineDelta{{LineID: 21, Quantity: 3}},
	}

	mock.ExpectQuery("INSERT INTO transaction_events").
		WithArgs(ev.ULID, int32(7), domain.TransactionKindBorrow, int32(2), "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(40))
	mock.ExpectExec("INSERT INTO transaction_event_lines").
		WithArgs(int32(40), int32(21), int32(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Append(context.Background(), ev))
	assert.Equal(t, int32(40), ev.ID)
	assert.False(t, ev.CreatedOn.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_ListByRequest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewTransactionRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM transaction_events WHERE request_id = \\$1 ORDER BY created_on, id").
		WithArgs(int32(7)).
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow(40, "01HZX3V6Q4M2C9D5R7T8W1Y0AB", 7, "BORROW", 2, "", now, nil).
			AddRow(41, "01HZX3V6Q4M2C9D5R7T8W1Y0AC", 7, "PARTIAL_RETURN", 2, "one scratched", now.Add(time.Hour), now))
	mock.ExpectQuery("SELECT event_id, line_id, quantity FROM transaction_event_lines").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "line_id", "quantity"}).
			AddRow(40, 21, 3).
			AddRow(41, 21, 1))

	events, err := repo.ListByRequest(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.TransactionKindPartialReturn, events[1].Kind)
	assert.Equal(t, int32(3), events[0].TotalQuantity())
	assert.Nil(t, events[0].PublishedOn)
	assert.NotNil(t, events[1].PublishedOn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_MarkPublished(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewTransactionRepository(db)
	at := time.Now()

	mock.ExpectExec("UPDATE transaction_events SET published_on").
		WithArgs(at, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.MarkPublished(context.Background(), []int32{40, 41}, at))
	require.NoError(t, repo.MarkPublished(context.Background(), nil, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
