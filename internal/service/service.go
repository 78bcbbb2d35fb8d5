package service

import (
	"context"
	"time"

	"warehouse-lending-backend/internal/domain"
)

// InventoryLedger is the only writer of inventory records.
type InventoryLedger interface {
	Reserve(ctx context.Context, key domain.InventoryKey, qty int32) error
	Commit(ctx context.Context, key domain.InventoryKey, qty int32) error
	Release(ctx context.Context, key domain.InventoryKey, qty int32, fromReserved bool) error
	Receive(ctx context.Context, key domain.InventoryKey, qty int32) (*domain.InventoryRecord, error)
}

type ItemLineResolver interface {
	Resolve(ctx context.Context, inputs []LineInput) ([]domain.RequestLine, error)
	ReconcileApproval(req *domain.BorrowingRequest, quantities map[int32]int32) (map[int32]int32, error)
	ReconcileHandOut(req *domain.BorrowingRequest, quantities map[int32]int32) (map[int32]int32, error)
	ReconcileReturn(req *domain.BorrowingRequest, quantities map[int32]int32) (map[int32]int32, error)
	Outstanding(ctx context.Context, requestID int32) ([]domain.LineOutstanding, error)
}

type TransactionRecorder interface {
	Record(ctx context.Context, requestID int32, kind domain.TransactionKind, employeeID int32, deltas []domain.LineDelta, notes string) (*domain.TransactionEvent, error)
	History(ctx context.Context, requestID int32) ([]domain.TransactionEvent, error)
	SweepOverdue(ctx context.Context) ([]int32, error)
	PendingPublication(ctx context.Context, limit int32) ([]domain.TransactionEvent, error)
	MarkPublished(ctx context.Context, ids []int32) error
}

type RequestService interface {
	Submit(ctx context.Context, in SubmitInput) (*domain.BorrowingRequest, error)
	Approve(ctx context.Context, requestID, approverID int32, quantities map[int32]int32) (*domain.BorrowingRequest, error)
	Reject(ctx context.Context, requestID, approverID int32, reason string) (*domain.BorrowingRequest, error)
	Cancel(ctx context.Context, requestID, actorID int32, reason string) (*domain.BorrowingRequest, error)
	HandOut(ctx context.Context, requestID, employeeID int32, quantities map[int32]int32) (*domain.BorrowingRequest, *domain.TransactionEvent, error)
	Return(ctx context.Context, requestID, employeeID int32, quantities map[int32]int32, notes string) (*domain.BorrowingRequest, *domain.TransactionEvent, error)
	Get(ctx context.Context, requestID int32) (*domain.BorrowingRequest, error)
	History(ctx context.Context, requestID int32) ([]domain.TransactionEvent, error)
	List(ctx context.Context, filter domain.RequestFilter) ([]domain.BorrowingRequest, int32, error)
}

type ReportingService interface {
	GetInventory(ctx context.Context, key domain.InventoryKey) (*domain.InventoryRecord, error)
	ListInventory(ctx context.Context, materialID, locationID *int32) ([]domain.InventoryRecord, error)
	Outstanding(ctx context.Context, requestID int32) ([]domain.LineOutstanding, error)
	ListOverdue(ctx context.Context) ([]domain.BorrowingRequest, error)
}

type EmailService interface {
	SendOverdueDigest(ctx context.Context, to string, overdue []domain.BorrowingRequest, asOf time.Time) error
}

// LineInput is one submitted item line before validation.
type LineInput struct {
	ItemTypeID  *int32 `json:"item_type_id,omitempty"`
	Description string `json:"description"`
	Quantity    int32  `json:"quantity"`
}

type SubmitInput struct {
	RequesterID int32
	HandlerID   *int32
	LocationID  *int32
	Purpose     string
	RequiredBy  time.Time
	Notes       string
	Lines       []LineInput
}

// LendingPolicy holds the operator-level defaults the lifecycle applies.
type LendingPolicy struct {
	// DefaultHandlerID routes new requests that name no handler. 0 leaves them unassigned.
	DefaultHandlerID int32
	// DefaultLocationID is stored on a location-less request when it is approved.
	DefaultLocationID int32
	// OperationTimeout bounds a lifecycle call when the caller set no deadline.
	OperationTimeout time.Duration
}

// withTimeout applies d unless ctx already carries a deadline.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
