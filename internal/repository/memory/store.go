// Package memory is an in-process implementation of every repository, used by
// service tests and by `database.type: memory` for local runs.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/repository"
)

type state struct {
	itemTypes map[int32]domain.ItemType
	inventory map[domain.InventoryKey]domain.InventoryRecord
	requests  map[int32]domain.BorrowingRequest
	events    []domain.TransactionEvent

	nextItemTypeID int32
	nextRequestID  int32
	nextLineID     int32
	nextEventID    int32
}

func newState() *state {
	return &state{
		itemTypes: map[int32]domain.ItemType{},
		inventory: map[domain.InventoryKey]domain.InventoryRecord{},
		requests:  map[int32]domain.BorrowingRequest{},
	}
}

// clone is shallow: stored values are never mutated in place, every read and write copies them.
func (s *state) clone() *state {
	c := *s
	c.itemTypes = maps.Clone(s.itemTypes)
	c.inventory = maps.Clone(s.inventory)
	c.requests = maps.Clone(s.requests)
	c.events = slices.Clone(s.events)
	return &c
}

type txKey struct{}

// Store serializes transactions behind one mutex. A transaction works on a copy of the
// committed state that replaces it only when the callback succeeds and the context is still live.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time

	repository.CatalogRepository
	repository.InventoryRepository
	repository.RequestRepository
	repository.TransactionRepository
}

func NewStore() *Store {
	s := &Store{state: newState(), now: time.Now}
	s.CatalogRepository = &catalogRepository{store: s}
	s.InventoryRepository = &inventoryRepository{store: s}
	s.RequestRepository = &requestRepository{store: s}
	s.TransactionRepository = &transactionRepository{store: s}
	return s
}

// WithClock replaces the clock used for created/updated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, work)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

// read runs fn against the transaction's working copy, or the committed state under the lock.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if st, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// write runs fn inside the caller's transaction or its own single-statement one.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		return fn(ctx.Value(txKey{}).(*state))
	})
}

// AddItemType seeds the catalog and returns the stored entry.
func (s *Store) AddItemType(it domain.ItemType) domain.ItemType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.ID == 0 {
		s.state.nextItemTypeID++
		it.ID = s.state.nextItemTypeID
	} else if it.ID > s.state.nextItemTypeID {
		s.state.nextItemTypeID = it.ID
	}
	s.state.itemTypes[it.ID] = it
	return it
}

// PutInventory seeds or overwrites a ledger row outside any transaction.
func (s *Store) PutInventory(rec domain.InventoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.UpdatedOn.IsZero() {
		rec.UpdatedOn = s.now()
	}
	s.state.inventory[rec.Key()] = rec
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneLine(l domain.RequestLine) domain.RequestLine {
	l.ItemTypeID = clonePtr(l.ItemTypeID)
	l.QuantityApproved = clonePtr(l.QuantityApproved)
	l.QuantityBorrowed = clonePtr(l.QuantityBorrowed)
	l.QuantityReturned = clonePtr(l.QuantityReturned)
	return l
}

func cloneRequest(r domain.BorrowingRequest) domain.BorrowingRequest {
	r.HandlerID = clonePtr(r.HandlerID)
	r.LocationID = clonePtr(r.LocationID)
	r.ApproverID = clonePtr(r.ApproverID)
	r.ApprovedOn = clonePtr(r.ApprovedOn)
	r.OverdueFlaggedOn = clonePtr(r.OverdueFlaggedOn)
	lines := make([]domain.RequestLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = cloneLine(l)
	}
	r.Lines = lines
	return r
}

func cloneEvent(e domain.TransactionEvent) domain.TransactionEvent {
	e.Lines = slices.Clone(e.Lines)
	e.PublishedOn = clonePtr(e.PublishedOn)
	return e
}
