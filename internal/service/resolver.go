package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/repository"
)

type itemLineResolver struct {
	catalogRepo repository.CatalogRepository
	requestRepo repository.RequestRepository
}

func NewItemLineResolver(catalogRepo repository.CatalogRepository, requestRepo repository.RequestRepository) ItemLineResolver {
	return &itemLineResolver{catalogRepo: catalogRepo, requestRepo: requestRepo}
}

// Resolve validates submitted lines against the catalog and snapshots their value.
// Lines with neither a catalog type nor a quantity are dropped.
func (r *itemLineResolver) Resolve(ctx context.Context, inputs []LineInput) ([]domain.RequestLine, error) {
	verr := &domain.ValidationError{}
	lines := make([]domain.RequestLine, 0, len(inputs))

	for i, in := range inputs {
		field := fmt.Sprintf("lines[%d]", i)
		if in.ItemTypeID == nil && in.Quantity == 0 {
			continue
		}
		if in.Quantity <= 0 {
			verr.Add(field+".quantity", "must be positive")
			continue
		}

		line := domain.RequestLine{
			Description:       strings.TrimSpace(in.Description),
			QuantityRequested: in.Quantity,
			UnitValue:         decimal.Zero,
			EstimatedValue:    decimal.Zero,
		}

		if in.ItemTypeID == nil {
			if line.Description == "" {
				verr.Add(field+".description", "required for lines without an item type")
				continue
			}
			lines = append(lines, line)
			continue
		}

		it, err := r.catalogRepo.GetItemType(ctx, *in.ItemTypeID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				verr.Add(field+".item_type_id", fmt.Sprintf("item type %d does not exist", *in.ItemTypeID))
				continue
			}
			return nil, err
		}

		id := it.ID
		line.ItemTypeID = &id
		if line.Description == "" {
			line.Description = it.Name
		}
		line.UnitValue = it.UnitPrice
		line.EstimatedValue = it.UnitPrice.Mul(decimal.NewFromInt32(in.Quantity)).Round(2)
		lines = append(lines, line)
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.NewValidationError("lines", "at least one item line is required")
	}
	return lines, nil
}

// ReconcileApproval fills in the approved quantity of every line. Lines absent from
// quantities are approved in full; approving nothing at all is rejected.
func (r *itemLineResolver) ReconcileApproval(req *domain.BorrowingRequest, quantities map[int32]int32) (map[int32]int32, error) {
	out, err := reconcile(req, quantities, "approved", func(l *domain.RequestLine) (int32, int32) {
		return l.QuantityRequested, l.QuantityRequested
	})
	if err != nil {
		return nil, err
	}
	if total(out) == 0 {
		return nil, domain.NewValidationError("quantities", "nothing to approve, reject the request instead")
	}
	return out, nil
}

// ReconcileHandOut fills in the handed-out quantity of every line. Lines absent from
// quantities hand out everything approved.
func (r *itemLineResolver) ReconcileHandOut(req *domain.BorrowingRequest, quantities map[int32]int32) (map[int32]int32, error) {
	out, err := reconcile(req, quantities, "borrowed", func(l *domain.RequestLine) (int32, int32) {
		return l.Approved(), l.Approved()
	})
	if err != nil {
		return nil, err
	}
	if total(out) == 0 {
		return nil, domain.NewValidationError("quantities", "nothing to hand out")
	}
	return out, nil
}

// ReconcileReturn validates returned quantities against what is still outstanding.
// Lines absent from quantities return nothing; a return of nothing at all is rejected.
func (r *itemLineResolver) ReconcileReturn(req *domain.BorrowingRequest, quantities map[int32]int32) (map[int32]int32, error) {
	out, err := reconcile(req, quantities, "returned", func(l *domain.RequestLine) (int32, int32) {
		return 0, l.Outstanding()
	})
	if err != nil {
		return nil, err
	}
	if total(out) == 0 {
		return nil, domain.NewValidationError("quantities", "nothing to return")
	}
	return out, nil
}

func (r *itemLineResolver) Outstanding(ctx context.Context, requestID int32) ([]domain.LineOutstanding, error) {
	req, err := r.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LineOutstanding, 0, len(req.Lines))
	for _, l := range req.Lines {
		out = append(out, domain.LineOutstanding{
			LineID:      l.ID,
			ItemTypeID:  l.ItemTypeID,
			Description: l.Description,
			Borrowed:    l.Borrowed(),
			Returned:    l.Returned(),
			Outstanding: l.Outstanding(),
		})
	}
	return out, nil
}

// reconcile resolves one quantity per line. bounds gives the default for lines missing
// from quantities and the inclusive upper limit.
func reconcile(req *domain.BorrowingRequest, quantities map[int32]int32, what string, bounds func(*domain.RequestLine) (def, limit int32)) (map[int32]int32, error) {
	verr := &domain.ValidationError{}
	for lineID := range quantities {
		if req.Line(lineID) == nil {
			verr.Add(fmt.Sprintf("quantities[%d]", lineID), fmt.Sprintf("line does not belong to request %d", req.ID))
		}
	}

	out := make(map[int32]int32, len(req.Lines))
	for i := range req.Lines {
		l := &req.Lines[i]
		def, limit := bounds(l)
		qty, ok := quantities[l.ID]
		if !ok {
			out[l.ID] = def
			continue
		}
		if qty < 0 || qty > limit {
			verr.Add(fmt.Sprintf("quantities[%d]", l.ID), fmt.Sprintf("%s quantity %d must be between 0 and %d", what, qty, limit))
			continue
		}
		out[l.ID] = qty
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func total(quantities map[int32]int32) int32 {
	var sum int32
	for _, q := range quantities {
		sum += q
	}
	return sum
}
