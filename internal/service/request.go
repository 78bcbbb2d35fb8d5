package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/logger"
	"warehouse-lending-backend/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type requestService struct {
	txm         repository.TxManager
	requestRepo repository.RequestRepository
	resolver    ItemLineResolver
	ledger      InventoryLedger
	recorder    TransactionRecorder
	clock       Clock
	policy      LendingPolicy
}

func NewRequestService(
	txm repository.TxManager,
	requestRepo repository.RequestRepository,
	resolver ItemLineResolver,
	ledger InventoryLedger,
	recorder TransactionRecorder,
	clock Clock,
	policy LendingPolicy,
) RequestService {
	return &requestService{
		txm:         txm,
		requestRepo: requestRepo,
		resolver:    resolver,
		ledger:      ledger,
		recorder:    recorder,
		clock:       clock,
		policy:      policy,
	}
}

func (s *requestService) Submit(ctx context.Context, in SubmitInput) (*domain.BorrowingRequest, error) {
	logger.EnterMethod("requestService.Submit", "requesterID", in.RequesterID, "lines", len(in.Lines))
	ctx, cancel := withTimeout(ctx, s.policy.OperationTimeout)
	defer cancel()

	verr := &domain.ValidationError{}
	if in.RequesterID <= 0 {
		verr.Add("requester_id", "is required")
	}
	if !in.RequiredBy.After(s.clock.Now()) {
		verr.Add("required_by", "must be in the future")
	}
	if err := verr.OrNil(); err != nil {
		logger.ExitMethodWithError("requestService.Submit", err, "requesterID", in.RequesterID)
		return nil, err
	}

	lines, err := s.resolver.Resolve(ctx, in.Lines)
	if err != nil {
		logger.ExitMethodWithError("requestService.Submit", err, "requesterID", in.RequesterID)
		return nil, err
	}

	handlerID := in.HandlerID
	if handlerID == nil && s.policy.DefaultHandlerID != 0 {
		handlerID = domain.Int32Ptr(s.policy.DefaultHandlerID)
	}

	req := &domain.BorrowingRequest{
		RequesterID: in.RequesterID,
		HandlerID:   handlerID,
		LocationID:  in.LocationID,
		Purpose:     strings.TrimSpace(in.Purpose),
		RequiredBy:  in.RequiredBy,
		Notes:       in.Notes,
		Status:      domain.RequestStatusPending,
		Lines:       lines,
	}
	err = s.txm.RunInTx(ctx, func(ctx context.Context) error {
		return s.requestRepo.Create(ctx, req)
	})
	if err != nil {
		logger.ExitMethodWithError("requestService.Submit", err, "requesterID", in.RequesterID)
		return nil, err
	}

	logger.Info("Borrowing request submitted", "request_id", req.ID, "requester_id", req.RequesterID, "lines", len(req.Lines),
		"estimated_value", req.EstimatedValue().StringFixed(2))
	logger.ExitMethod("requestService.Submit", "requestID", req.ID)
	return req, nil
}

// Approve reserves stock for every catalog line. Any failing line aborts the whole approval.
func (s *requestService) Approve(ctx context.Context, requestID, approverID int32, quantities map[int32]int32) (*domain.BorrowingRequest, error) {
	return s.transition(ctx, requestID, domain.TransitionApprove, func(ctx context.Context, req *domain.BorrowingRequest) error {
		approved, err := s.resolver.ReconcileApproval(req, quantities)
		if err != nil {
			return err
		}
		if err := s.pinLocation(req, approved); err != nil {
			return err
		}

		moves, err := s.planMoves(req, approved, s.ledger.Reserve)
		if err != nil {
			return err
		}
		if err := runMoves(ctx, moves); err != nil {
			return err
		}

		for i := range req.Lines {
			req.Lines[i].QuantityApproved = domain.Int32Ptr(approved[req.Lines[i].ID])
		}
		if err := s.requestRepo.UpdateLines(ctx, req.Lines); err != nil {
			return err
		}

		now := s.clock.Now()
		req.Status = domain.RequestStatusApproved
		req.ApproverID = domain.Int32Ptr(approverID)
		req.ApprovedOn = &now
		return nil
	})
}

func (s *requestService) Reject(ctx context.Context, requestID, approverID int32, reason string) (*domain.BorrowingRequest, error) {
	return s.transition(ctx, requestID, domain.TransitionReject, func(ctx context.Context, req *domain.BorrowingRequest) error {
		req.Status = domain.RequestStatusRejected
		req.ApproverID = domain.Int32Ptr(approverID)
		req.StatusReason = strings.TrimSpace(reason)
		return nil
	})
}

// Cancel withdraws a pending or approved request. Reservations held by an approved request are released.
func (s *requestService) Cancel(ctx context.Context, requestID, actorID int32, reason string) (*domain.BorrowingRequest, error) {
	return s.transition(ctx, requestID, domain.TransitionCancel, func(ctx context.Context, req *domain.BorrowingRequest) error {
		if req.Status == domain.RequestStatusApproved {
			held := make(map[int32]int32, len(req.Lines))
			for _, l := range req.Lines {
				held[l.ID] = l.Approved()
			}
			moves, err := s.planMoves(req, held, s.releaseReserved)
			if err != nil {
				return err
			}
			if err := runMoves(ctx, moves); err != nil {
				return err
			}
		}

		req.Status = domain.RequestStatusCancelled
		req.StatusReason = strings.TrimSpace(reason)
		logger.Debug("Request cancelled", "request_id", req.ID, "actor_id", actorID)
		return nil
	})
}

// HandOut commits reservations for what physically leaves the warehouse and releases the
// approved-but-not-taken remainder in the same transaction.
func (s *requestService) HandOut(ctx context.Context, requestID, employeeID int32, quantities map[int32]int32) (*domain.BorrowingRequest, *domain.TransactionEvent, error) {
	var event *domain.TransactionEvent
	req, err := s.transition(ctx, requestID, domain.TransitionHandOut, func(ctx context.Context, req *domain.BorrowingRequest) error {
		borrowed, err := s.resolver.ReconcileHandOut(req, quantities)
		if err != nil {
			return err
		}

		remainder := make(map[int32]int32, len(req.Lines))
		for _, l := range req.Lines {
			remainder[l.ID] = l.Approved() - borrowed[l.ID]
		}
		commits, err := s.planMoves(req, borrowed, s.ledger.Commit)
		if err != nil {
			return err
		}
		releases, err := s.planMoves(req, remainder, s.releaseReserved)
		if err != nil {
			return err
		}
		if err := runMoves(ctx, mergeMoves(commits, releases)); err != nil {
			return err
		}

		deltas := make([]domain.LineDelta, 0, len(req.Lines))
		for i := range req.Lines {
			l := &req.Lines[i]
			l.QuantityBorrowed = domain.Int32Ptr(borrowed[l.ID])
			if borrowed[l.ID] > 0 {
				deltas = append(deltas, domain.LineDelta{LineID: l.ID, Quantity: borrowed[l.ID]})
			}
		}
		if err := s.requestRepo.UpdateLines(ctx, req.Lines); err != nil {
			return err
		}

		event, err = s.recorder.Record(ctx, req.ID, domain.TransactionKindBorrow, employeeID, deltas, "")
		if err != nil {
			return err
		}

		req.Status = domain.RequestStatusActive
		if req.HandlerID == nil {
			req.HandlerID = domain.Int32Ptr(employeeID)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return req, event, nil
}

// Return takes loaned units back into stock. The request becomes RETURNED once nothing is outstanding.
func (s *requestService) Return(ctx context.Context, requestID, employeeID int32, quantities map[int32]int32, notes string) (*domain.BorrowingRequest, *domain.TransactionEvent, error) {
	var event *domain.TransactionEvent
	req, err := s.transition(ctx, requestID, domain.TransitionReturn, func(ctx context.Context, req *domain.BorrowingRequest) error {
		returned, err := s.resolver.ReconcileReturn(req, quantities)
		if err != nil {
			return err
		}

		moves, err := s.planMoves(req, returned, s.releaseLoan)
		if err != nil {
			return err
		}
		if err := runMoves(ctx, moves); err != nil {
			return err
		}

		deltas := make([]domain.LineDelta, 0, len(returned))
		var changed []domain.RequestLine
		for i := range req.Lines {
			l := &req.Lines[i]
			q := returned[l.ID]
			if q == 0 {
				continue
			}
			l.QuantityReturned = domain.Int32Ptr(l.Returned() + q)
			deltas = append(deltas, domain.LineDelta{LineID: l.ID, Quantity: q})
			changed = append(changed, *l)
		}
		if err := s.requestRepo.UpdateLines(ctx, changed); err != nil {
			return err
		}

		kind := domain.TransactionKindPartialReturn
		if req.TotalOutstanding() == 0 {
			kind = domain.TransactionKindReturn
			req.Status = domain.RequestStatusReturned
		}
		event, err = s.recorder.Record(ctx, req.ID, kind, employeeID, deltas, notes)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return req, event, nil
}

func (s *requestService) Get(ctx context.Context, requestID int32) (*domain.BorrowingRequest, error) {
	return s.requestRepo.GetByID(ctx, requestID)
}

func (s *requestService) History(ctx context.Context, requestID int32) ([]domain.TransactionEvent, error) {
	if _, err := s.requestRepo.GetByID(ctx, requestID); err != nil {
		return nil, err
	}
	return s.recorder.History(ctx, requestID)
}

func (s *requestService) List(ctx context.Context, filter domain.RequestFilter) ([]domain.BorrowingRequest, int32, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, domain.NewValidationError("status", "unknown status "+string(filter.Status))
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	filter.PageSize = min(filter.PageSize, maxPageSize)
	return s.requestRepo.List(ctx, filter)
}

// transition runs apply on the row-locked request inside one transaction, after checking t is
// allowed from the current status, and persists the request with a version check.
func (s *requestService) transition(ctx context.Context, requestID int32, t domain.Transition, apply func(ctx context.Context, req *domain.BorrowingRequest) error) (*domain.BorrowingRequest, error) {
	method := "requestService." + string(t)
	logger.EnterMethod(method, "requestID", requestID)
	ctx, cancel := withTimeout(ctx, s.policy.OperationTimeout)
	defer cancel()

	var out *domain.BorrowingRequest
	var from domain.RequestStatus
	err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		req, err := s.requestRepo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := req.CheckTransition(t); err != nil {
			return err
		}
		from = req.Status
		if err := apply(ctx, req); err != nil {
			return err
		}
		if err := s.requestRepo.Update(ctx, req); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return &domain.TransitionError{RequestID: req.ID, Current: from, Attempted: t}
			}
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "requestID", requestID)
		return nil, err
	}

	logger.Info("Borrowing request transitioned", "request_id", out.ID, "from", from, "to", out.Status, "transition", t)
	logger.ExitMethod(method, "requestID", requestID)
	return out, nil
}

type ledgerOp func(ctx context.Context, key domain.InventoryKey, qty int32) error

type ledgerMove struct {
	lineID int32
	key    domain.InventoryKey
	qty    int32
	op     ledgerOp
}

func (s *requestService) releaseReserved(ctx context.Context, key domain.InventoryKey, qty int32) error {
	return s.ledger.Release(ctx, key, qty, true)
}

func (s *requestService) releaseLoan(ctx context.Context, key domain.InventoryKey, qty int32) error {
	return s.ledger.Release(ctx, key, qty, false)
}

// planMoves maps per-line quantities onto ledger keys. Ad-hoc lines and zero quantities produce no move.
func (s *requestService) planMoves(req *domain.BorrowingRequest, quantities map[int32]int32, op ledgerOp) ([]ledgerMove, error) {
	var moves []ledgerMove
	for _, l := range req.Lines {
		qty := quantities[l.ID]
		if !l.IsCatalogLinked() || qty == 0 {
			continue
		}
		loc, err := locationFor(req)
		if err != nil {
			return nil, err
		}
		moves = append(moves, ledgerMove{lineID: l.ID, key: l.InventoryKey(loc), qty: qty, op: op})
	}
	sortMoves(moves)
	return moves, nil
}

// pinLocation stores the default location on a location-less request that reserves catalog stock.
// Every later ledger move of the request uses the stored location, whatever the policy says then.
func (s *requestService) pinLocation(req *domain.BorrowingRequest, approved map[int32]int32) error {
	if req.LocationID != nil && *req.LocationID != 0 {
		return nil
	}
	for _, l := range req.Lines {
		if !l.IsCatalogLinked() || approved[l.ID] == 0 {
			continue
		}
		if s.policy.DefaultLocationID == 0 {
			return domain.NewValidationError("location_id", "catalog lines need a location and no default location is configured")
		}
		req.LocationID = domain.Int32Ptr(s.policy.DefaultLocationID)
		return nil
	}
	return nil
}

func locationFor(req *domain.BorrowingRequest) (int32, error) {
	if req.LocationID != nil && *req.LocationID != 0 {
		return *req.LocationID, nil
	}
	return 0, domain.NewValidationError("location_id", fmt.Sprintf("request %d has no inventory location", req.ID))
}

// sortMoves orders moves by inventory key so row locks are always taken in the same order.
func sortMoves(moves []ledgerMove) {
	sort.SliceStable(moves, func(i, j int) bool {
		if moves[i].key != moves[j].key {
			return moves[i].key.Less(moves[j].key)
		}
		return moves[i].lineID < moves[j].lineID
	})
}

func mergeMoves(a, b []ledgerMove) []ledgerMove {
	out := append(append(make([]ledgerMove, 0, len(a)+len(b)), a...), b...)
	sortMoves(out)
	return out
}

func runMoves(ctx context.Context, moves []ledgerMove) error {
	for _, m := range moves {
		if err := m.op(ctx, m.key, m.qty); err != nil {
			return &domain.LineError{LineID: m.lineID, Err: err}
		}
	}
	return nil
}
