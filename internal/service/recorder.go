package service

import (
	"context"
	"fmt"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/logger"
	"warehouse-lending-backend/internal/repository"
)

type transactionRecorder struct {
	txRepo      repository.TransactionRepository
	requestRepo repository.RequestRepository
	ids         IDGenerator
	clock       Clock
}

func NewTransactionRecorder(txRepo repository.TransactionRepository, requestRepo repository.RequestRepository, ids IDGenerator, clock Clock) TransactionRecorder {
	return &transactionRecorder{
		txRepo:      txRepo,
		requestRepo: requestRepo,
		ids:         ids,
		clock:       clock,
	}
}

// Record appends one immutable event. Zero-quantity deltas are left out.
func (r *transactionRecorder) Record(ctx context.Context, requestID int32, kind domain.TransactionKind, employeeID int32, deltas []domain.LineDelta, notes string) (*domain.TransactionEvent, error) {
	if !kind.IsValid() {
		return nil, domain.NewValidationError("kind", fmt.Sprintf("unknown transaction kind %q", kind))
	}

	lines := make([]domain.LineDelta, 0, len(deltas))
	for _, d := range deltas {
		if d.Quantity < 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("lines[%d].quantity", d.LineID), "must not be negative")
		}
		if d.Quantity > 0 {
			lines = append(lines, d)
		}
	}
	if len(lines) == 0 {
		return nil, domain.NewValidationError("lines", "an event must move at least one unit")
	}

	id, err := r.ids.NewID()
	if err != nil {
		return nil, err
	}
	ev := &domain.TransactionEvent{
		ULID:        id,
		RequestID:   requestID,
		Kind:        kind,
		ProcessedBy: employeeID,
		Lines:       lines,
		Notes:       notes,
		CreatedOn:   r.clock.Now(),
	}
	if err := r.txRepo.Append(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *transactionRecorder) History(ctx context.Context, requestID int32) ([]domain.TransactionEvent, error) {
	return r.txRepo.ListByRequest(ctx, requestID)
}

// SweepOverdue flags active requests whose required-by date has passed. It changes no status
// and touches no inventory.
func (r *transactionRecorder) SweepOverdue(ctx context.Context) ([]int32, error) {
	ids, err := r.requestRepo.FlagOverdue(ctx, r.clock.Now())
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		logger.Info("Flagged overdue requests", "count", len(ids), "request_ids", ids)
	}
	return ids, nil
}

func (r *transactionRecorder) PendingPublication(ctx context.Context, limit int32) ([]domain.TransactionEvent, error) {
	return r.txRepo.ListUnpublished(ctx, limit)
}

func (r *transactionRecorder) MarkPublished(ctx context.Context, ids []int32) error {
	return r.txRepo.MarkPublished(ctx, ids, r.clock.Now())
}
