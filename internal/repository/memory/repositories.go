package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"warehouse-lending-backend/internal/domain"
)

type catalogRepository struct {
	store *Store
}

func (r *catalogRepository) GetItemType(ctx context.Context, id int32) (*domain.ItemType, error) {
	var out *domain.ItemType
	err := r.store.read(ctx, func(st *state) error {
		it, ok := st.itemTypes[id]
		if !ok {
			return fmt.Errorf("item type %d: %w", id, domain.ErrNotFound)
		}
		out = &it
		return nil
	})
	return out, err
}

type inventoryRepository struct {
	store *Store
}

func (r *inventoryRepository) Get(ctx context.Context, key domain.InventoryKey) (*domain.InventoryRecord, error) {
	var out *domain.InventoryRecord
	err := r.store.read(ctx, func(st *state) error {
		rec, ok := st.inventory[key]
		if !ok {
			return fmt.Errorf("inventory %s: %w", key, domain.ErrNotFound)
		}
		out = &rec
		return nil
	})
	return out, err
}

// GetForUpdate needs no row lock here: transactions already run one at a time.
func (r *inventoryRepository) GetForUpdate(ctx context.Context, key domain.InventoryKey) (*domain.InventoryRecord, error) {
	return r.Get(ctx, key)
}

func (r *inventoryRepository) Create(ctx context.Context, rec *domain.InventoryRecord) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.inventory[rec.Key()]; ok {
			return fmt.Errorf("inventory %s already exists: %w", rec.Key(), domain.ErrConflict)
		}
		if err := rec.Validate(); err != nil {
			return err
		}
		rec.Version = 1
		rec.UpdatedOn = r.store.now()
		st.inventory[rec.Key()] = *rec
		return nil
	})
}

func (r *inventoryRepository) Update(ctx context.Context, rec *domain.InventoryRecord) error {
	return r.store.write(ctx, func(st *state) error {
		existing, ok := st.inventory[rec.Key()]
		if !ok {
			return fmt.Errorf("inventory %s: %w", rec.Key(), domain.ErrNotFound)
		}
		if existing.Version != rec.Version {
			return fmt.Errorf("inventory %s: %w", rec.Key(), domain.ErrConflict)
		}
		if err := rec.Validate(); err != nil {
			return err
		}
		rec.Version++
		rec.UpdatedOn = r.store.now()
		st.inventory[rec.Key()] = *rec
		return nil
	})
}

func (r *inventoryRepository) List(ctx context.Context, materialID, locationID *int32) ([]domain.InventoryRecord, error) {
	var out []domain.InventoryRecord
	err := r.store.read(ctx, func(st *state) error {
		for _, rec := range st.inventory {
			if materialID != nil && rec.MaterialID != *materialID {
				continue
			}
			if locationID != nil && rec.LocationID != *locationID {
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out, err
}

type requestRepository struct {
	store *Store
}

func (r *requestRepository) Create(ctx context.Context, req *domain.BorrowingRequest) error {
	return r.store.write(ctx, func(st *state) error {
		now := r.store.now()
		st.nextRequestID++
		req.ID = st.nextRequestID
		req.Version = 1
		req.CreatedOn = now
		req.UpdatedOn = now
		for i := range req.Lines {
			st.nextLineID++
			req.Lines[i].ID = st.nextLineID
			req.Lines[i].RequestID = req.ID
		}
		st.requests[req.ID] = cloneRequest(*req)
		return nil
	})
}

func (r *requestRepository) GetByID(ctx context.Context, id int32) (*domain.BorrowingRequest, error) {
	var out *domain.BorrowingRequest
	err := r.store.read(ctx, func(st *state) error {
		req, ok := st.requests[id]
		if !ok {
			return fmt.Errorf("borrowing request %d: %w", id, domain.ErrNotFound)
		}
		c := cloneRequest(req)
		out = &c
		return nil
	})
	return out, err
}

func (r *requestRepository) GetForUpdate(ctx context.Context, id int32) (*domain.BorrowingRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *requestRepository) Update(ctx context.Context, req *domain.BorrowingRequest) error {
	return r.store.write(ctx, func(st *state) error {
		existing, ok := st.requests[req.ID]
		if !ok {
			return fmt.Errorf("borrowing request %d: %w", req.ID, domain.ErrNotFound)
		}
		if existing.Version != req.Version {
			return fmt.Errorf("borrowing request %d: %w", req.ID, domain.ErrConflict)
		}
		existing.HandlerID = clonePtr(req.HandlerID)
		existing.LocationID = clonePtr(req.LocationID)
		existing.Status = req.Status
		existing.ApproverID = clonePtr(req.ApproverID)
		existing.ApprovedOn = clonePtr(req.ApprovedOn)
		existing.StatusReason = req.StatusReason
		existing.Version++
		existing.UpdatedOn = r.store.now()
		st.requests[req.ID] = existing

		req.Version = existing.Version
		req.UpdatedOn = existing.UpdatedOn
		return nil
	})
}

func (r *requestRepository) UpdateLines(ctx context.Context, lines []domain.RequestLine) error {
	return r.store.write(ctx, func(st *state) error {
		for _, l := range lines {
			req, ok := st.requests[l.RequestID]
			if !ok {
				return fmt.Errorf("borrowing request %d: %w", l.RequestID, domain.ErrNotFound)
			}
			req = cloneRequest(req)
			stored := req.Line(l.ID)
			if stored == nil {
				return fmt.Errorf("request line %d: %w", l.ID, domain.ErrNotFound)
			}
			stored.QuantityApproved = clonePtr(l.QuantityApproved)
			stored.QuantityBorrowed = clonePtr(l.QuantityBorrowed)
			stored.QuantityReturned = clonePtr(l.QuantityReturned)
			if err := stored.Validate(); err != nil {
				return err
			}
			st.requests[l.RequestID] = req
		}
		return nil
	})
}

func (r *requestRepository) List(ctx context.Context, filter domain.RequestFilter) ([]domain.BorrowingRequest, int32, error) {
	var matched []domain.BorrowingRequest
	err := r.store.read(ctx, func(st *state) error {
		for _, req := range st.requests {
			if filter.RequesterID != nil && req.RequesterID != *filter.RequesterID {
				continue
			}
			if filter.HandlerID != nil && (req.HandlerID == nil || *req.HandlerID != *filter.HandlerID) {
				continue
			}
			if filter.Status != "" && req.Status != filter.Status {
				continue
			}
			if filter.OverdueAt != nil && !req.IsOverdue(*filter.OverdueAt) {
				continue
			}
			matched = append(matched, cloneRequest(req))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedOn.Equal(matched[j].CreatedOn) {
			return matched[i].CreatedOn.After(matched[j].CreatedOn)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int32(len(matched))
	if filter.PageSize <= 0 {
		return matched, total, nil
	}
	page := max(filter.Page, 1)
	start := min((page-1)*filter.PageSize, total)
	end := min(start+filter.PageSize, total)
	return matched[start:end], total, nil
}

func (r *requestRepository) FlagOverdue(ctx context.Context, now time.Time) ([]int32, error) {
	var ids []int32
	err := r.store.write(ctx, func(st *state) error {
		for id, req := range st.requests {
			if !req.IsOverdue(now) || req.OverdueFlaggedOn != nil {
				continue
			}
			req = cloneRequest(req)
			flagged := now
			req.OverdueFlaggedOn = &flagged
			st.requests[id] = req
			ids = append(ids, id)
		}
		return nil
	})
	slices.Sort(ids)
	return ids, err
}

type transactionRepository struct {
	store *Store
}

func (r *transactionRepository) Append(ctx context.Context, ev *domain.TransactionEvent) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.requests[ev.RequestID]; !ok {
			return fmt.Errorf("borrowing request %d: %w", ev.RequestID, domain.ErrNotFound)
		}
		st.nextEventID++
		ev.ID = st.nextEventID
		if ev.CreatedOn.IsZero() {
			ev.CreatedOn = r.store.now()
		}
		st.events = append(st.events, cloneEvent(*ev))
		return nil
	})
}

func (r *transactionRepository) ListByRequest(ctx context.Context, requestID int32) ([]domain.TransactionEvent, error) {
	var out []domain.TransactionEvent
	err := r.store.read(ctx, func(st *state) error {
		for _, ev := range st.events {
			if ev.RequestID == requestID {
				out = append(out, cloneEvent(ev))
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedOn.Before(out[j].CreatedOn) })
	return out, err
}

func (r *transactionRepository) ListUnpublished(ctx context.Context, limit int32) ([]domain.TransactionEvent, error) {
	var out []domain.TransactionEvent
	err := r.store.read(ctx, func(st *state) error {
		for _, ev := range st.events {
			if ev.PublishedOn != nil {
				continue
			}
			out = append(out, cloneEvent(ev))
			if limit > 0 && int32(len(out)) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *transactionRepository) MarkPublished(ctx context.Context, ids []int32, at time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		for i, ev := range st.events {
			if ev.PublishedOn == nil && slices.Contains(ids, ev.ID) {
				published := at
				ev = cloneEvent(ev)
				ev.PublishedOn = &published
				st.events[i] = ev
			}
		}
		return nil
	})
}
