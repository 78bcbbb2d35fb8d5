package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/logger"
	"warehouse-lending-backend/internal/repository"
)

// LockRetryPolicy bounds how long the ledger waits for a busy inventory row.
type LockRetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultLockRetryPolicy() LockRetryPolicy {
	return LockRetryPolicy{MaxAttempts: 5, InitialInterval: 20 * time.Millisecond, MaxInterval: 250 * time.Millisecond}
}

func (p LockRetryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0
	attempts := max(p.MaxAttempts, 1)
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

type inventoryLedger struct {
	inventoryRepo repository.InventoryRepository
	txm           repository.TxManager
	retry         LockRetryPolicy
}

func NewInventoryLedger(inventoryRepo repository.InventoryRepository, txm repository.TxManager, retry LockRetryPolicy) InventoryLedger {
	return &inventoryLedger{
		inventoryRepo: inventoryRepo,
		txm:           txm,
		retry:         retry,
	}
}

func (l *inventoryLedger) Reserve(ctx context.Context, key domain.InventoryKey, qty int32) error {
	return l.apply(ctx, key, qty, func(rec *domain.InventoryRecord) error {
		return rec.Reserve(qty)
	})
}

func (l *inventoryLedger) Commit(ctx context.Context, key domain.InventoryKey, qty int32) error {
	return l.apply(ctx, key, qty, func(rec *domain.InventoryRecord) error {
		return rec.Commit(qty)
	})
}

func (l *inventoryLedger) Release(ctx context.Context, key domain.InventoryKey, qty int32, fromReserved bool) error {
	return l.apply(ctx, key, qty, func(rec *domain.InventoryRecord) error {
		return rec.Release(qty, fromReserved)
	})
}

// Receive stocks new units, creating the record on first receipt.
func (l *inventoryLedger) Receive(ctx context.Context, key domain.InventoryKey, qty int32) (*domain.InventoryRecord, error) {
	if qty <= 0 {
		return nil, domain.NewValidationError("quantity", "must be positive")
	}

	var out *domain.InventoryRecord
	err := l.txm.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := l.lock(ctx, key)
		if errors.Is(err, domain.ErrUnknownInventoryRecord) {
			rec = &domain.InventoryRecord{MaterialID: key.MaterialID, LocationID: key.LocationID, OnHand: qty}
			if err := l.inventoryRepo.Create(ctx, rec); err != nil {
				return err
			}
			out = rec
			return nil
		}
		if err != nil {
			return err
		}
		if err := rec.Receive(qty); err != nil {
			return err
		}
		if err := l.inventoryRepo.Update(ctx, rec); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Stock received", "material_id", key.MaterialID, "location_id", key.LocationID, "quantity", qty, "on_hand", out.OnHand)
	return out, nil
}

// apply locks the record, mutates it and writes it back in the caller's transaction
// (or its own). A zero quantity is a no-op and does not look the key up.
func (l *inventoryLedger) apply(ctx context.Context, key domain.InventoryKey, qty int32, mutate func(*domain.InventoryRecord) error) error {
	if qty == 0 {
		return nil
	}
	if qty < 0 {
		return domain.NewValidationError("quantity", fmt.Sprintf("must not be negative, got %d", qty))
	}

	return l.txm.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := l.lock(ctx, key)
		if err != nil {
			return err
		}
		if err := mutate(rec); err != nil {
			return err
		}
		return l.inventoryRepo.Update(ctx, rec)
	})
}

// lock takes the row lock, retrying with exponential backoff while another transaction holds it.
func (l *inventoryLedger) lock(ctx context.Context, key domain.InventoryKey) (*domain.InventoryRecord, error) {
	var rec *domain.InventoryRecord
	attempt := 0
	op := func() error {
		attempt++
		r, err := l.inventoryRepo.GetForUpdate(ctx, key)
		if err == nil {
			rec = r
			return nil
		}
		if errors.Is(err, repository.ErrLockNotAvailable) {
			logger.Debug("Inventory row busy, retrying", "key", key.String(), "attempt", attempt)
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(op, l.retry.newBackOff(ctx)); err != nil {
		switch {
		case errors.Is(err, repository.ErrLockNotAvailable):
			return nil, fmt.Errorf("%s after %d attempts: %w", key, attempt, domain.ErrInventoryContention)
		case errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", key, domain.ErrUnknownInventoryRecord)
		}
		return nil, err
	}
	return rec, nil
}
