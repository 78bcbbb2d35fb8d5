package repository

import (
	"context"
	"errors"
	"time"

	"warehouse-lending-backend/internal/domain"
)

// ErrLockNotAvailable is returned by InventoryRepository.GetForUpdate when another
// transaction holds the row. Callers may retry.
var ErrLockNotAvailable = errors.New("row lock not available")

// TxManager runs fn inside a transaction carried by the returned context.
// Repositories called with that context join the transaction. A nested call joins the outer one.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CatalogRepository interface {
	GetItemType(ctx context.Context, id int32) (*domain.ItemType, error)
}

type InventoryRepository interface {
	Get(ctx context.Context, key domain.InventoryKey) (*domain.InventoryRecord, error)
	// GetForUpdate locks the row for the rest of the surrounding transaction.
	GetForUpdate(ctx context.Context, key domain.InventoryKey) (*domain.InventoryRecord, error)
	Create(ctx context.Context, rec *domain.InventoryRecord) error
	// Update writes quantities when rec.Version still matches, then bumps rec.Version.
	Update(ctx context.Context, rec *domain.InventoryRecord) error
	List(ctx context.Context, materialID, locationID *int32) ([]domain.InventoryRecord, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req *domain.BorrowingRequest) error
	GetByID(ctx context.Context, id int32) (*domain.BorrowingRequest, error)
	GetForUpdate(ctx context.Context, id int32) (*domain.BorrowingRequest, error)
	// Update writes status fields when req.Version still matches, then bumps req.Version.
	Update(ctx context.Context, req *domain.BorrowingRequest) error
	UpdateLines(ctx context.Context, lines []domain.RequestLine) error
	List(ctx context.Context, filter domain.RequestFilter) ([]domain.BorrowingRequest, int32, error)
	// FlagOverdue stamps overdue_flagged_on on active requests past required_by and returns the newly flagged ids.
	FlagOverdue(ctx context.Context, now time.Time) ([]int32, error)
}

type TransactionRepository interface {
	Append(ctx context.Context, ev *domain.TransactionEvent) error
	ListByRequest(ctx context.Context, requestID int32) ([]domain.TransactionEvent, error)
	ListUnpublished(ctx context.Context, limit int32) ([]domain.TransactionEvent, error)
	MarkPublished(ctx context.Context, ids []int32, at time.Time) error
}
