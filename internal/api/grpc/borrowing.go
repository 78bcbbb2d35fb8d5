package grpc

import (
	"context"
	"fmt"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/service"
)

type BorrowingHandler struct {
	requests  service.RequestService
	reporting service.ReportingService
	ledger    service.InventoryLedger
	clock     service.Clock
}

func NewBorrowingHandler(requests service.RequestService, reporting service.ReportingService, ledger service.InventoryLedger, clock service.Clock) *BorrowingHandler {
	return &BorrowingHandler{requests: requests, reporting: reporting, ledger: ledger, clock: clock}
}

var _ BorrowingServiceServer = (*BorrowingHandler)(nil)

func (h *BorrowingHandler) SubmitRequest(ctx context.Context, req *SubmitRequestRequest) (*RequestResponse, error) {
	caller, err := GetIdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	requesterID := caller.UserID
	if req.RequesterID != 0 && req.RequesterID != caller.UserID {
		if !caller.IsStaff() {
			return nil, toStatus(ctx, "SubmitRequest", fmt.Errorf("customers can only submit requests for themselves: %w", domain.ErrPermissionDenied))
		}
		requesterID = req.RequesterID
	}

	br, err := h.requests.Submit(ctx, service.SubmitInput{
		RequesterID: requesterID,
		HandlerID:   req.HandlerID,
		LocationID:  req.LocationID,
		Purpose:     req.Purpose,
		RequiredBy:  req.RequiredBy,
		Notes:       req.Notes,
		Lines:       MapWireLinesToInput(req.Lines),
	})
	if err != nil {
		return nil, toStatus(ctx, "SubmitRequest", err)
	}
	return h.requestResponse(br), nil
}

func (h *BorrowingHandler) ApproveRequest(ctx context.Context, req *ApproveRequestRequest) (*RequestResponse, error) {
	caller, err := GetIdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	br, err := h.requests.Approve(ctx, req.RequestID, caller.UserID, req.Quantities)
	if err != nil {
		return nil, toStatus(ctx, "ApproveRequest", err)
	}
	return h.requestResponse(br), nil
}

func (h *BorrowingHandler) RejectRequest(ctx context.Context, req *RejectRequestRequest) (*RequestResponse, error) {
	caller, err := GetIdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	br, err := h.requests.Reject(ctx, req.RequestID, caller.UserID, req.Reason)
	if err != nil {
		return nil, toStatus(ctx, "RejectRequest", err)
	}
	return h.requestResponse(br), nil
}

func (h *BorrowingHandler) CancelRequest(ctx context.Context, req *CancelRequestRequest) (*RequestResponse, error) {
	caller, err := h.authorizeRequest(ctx, "CancelRequest", req.RequestID)
	if err != nil {
		return nil, err
	}
	br, err := h.requests.Cancel(ctx, req.RequestID, caller.UserID, req.Reason)
	if err != nil {
		return nil, toStatus(ctx, "CancelRequest", err)
	}
	return h.requestResponse(br), nil
}

func (h *BorrowingHandler) HandOut(ctx context.Context, req *HandOutRequest) (*TransactionResponse, error) {
	caller, err := GetIdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	br, ev, err := h.requests.HandOut(ctx, req.RequestID, caller.UserID, req.Quantities)
	if err != nil {
		return nil, toStatus(ctx, "HandOut", err)
	}
	return &TransactionResponse{Request: MapDomainRequestToWire(br, h.clock.Now()), Event: MapDomainEventToWire(ev)}, nil
}

func (h *BorrowingHandler) ReturnItems(ctx context.Context, req *ReturnItemsRequest) (*TransactionResponse, error) {
	caller, err := GetIdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	br, ev, err := h.requests.Return(ctx, req.RequestID, caller.UserID, req.Quantities, req.Notes)
	if err != nil {
		return nil, toStatus(ctx, "ReturnItems", err)
	}
	return &TransactionResponse{Request: MapDomainRequestToWire(br, h.clock.Now()), Event: MapDomainEventToWire(ev)}, nil
}

func (h *BorrowingHandler) GetRequest(ctx context.Context, req *GetRequestRequest) (*RequestResponse, error) {
	caller, err := GetIdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	br, err := h.requests.Get(ctx, req.RequestID)
	if err != nil {
		return nil, toStatus(ctx, "GetRequest", err)
	}
	if err := caller.Authorize(br); err != nil {
		return nil, toStatus(ctx, "GetRequest", err)
	}
	return h.requestResponse(br), nil
}

func (h *BorrowingHandler) GetHistory(ctx context.Context, req *GetHistoryRequest) (*GetHistoryResponse, error) {
	if _, err := h.authorizeRequest(ctx, "GetHistory", req.RequestID); err != nil {
		return nil, err
	}
	events, err := h.requests.History(ctx, req.RequestID)
	if err != nil {
		return nil, toStatus(ctx, "GetHistory", err)
	}
	out := make([]*TransactionEvent, len(events))
	for i := range events {
		out[i] = MapDomainEventToWire(&events[i])
	}
	return &GetHistoryResponse{Events: out}, nil
}

func (h *BorrowingHandler) ListRequests(ctx context.Context, req *ListRequestsRequest) (*ListRequestsResponse, error) {
	caller, err := GetIdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	filter := domain.RequestFilter{
		RequesterID: req.RequesterID,
		HandlerID:   req.HandlerID,
		Status:      domain.RequestStatus(req.Status),
		Page:        req.Page,
		PageSize:    req.PageSize,
	}
	if req.OverdueOnly {
		filter.OverdueAt = &now
	}
	if !caller.IsStaff() {
		filter.RequesterID = domain.Int32Ptr(caller.UserID)
	}

	reqs, total, err := h.requests.List(ctx, filter)
	if err != nil {
		return nil, toStatus(ctx, "ListRequests", err)
	}
	out := make([]*BorrowingRequest, len(reqs))
	for i := range reqs {
		out[i] = MapDomainRequestToWire(&reqs[i], now)
	}
	return &ListRequestsResponse{Requests: out, TotalCount: total}, nil
}

func (h *BorrowingHandler) GetOutstanding(ctx context.Context, req *GetOutstandingRequest) (*GetOutstandingResponse, error) {
	if _, err := h.authorizeRequest(ctx, "GetOutstanding", req.RequestID); err != nil {
		return nil, err
	}
	lines, err := h.reporting.Outstanding(ctx, req.RequestID)
	if err != nil {
		return nil, toStatus(ctx, "GetOutstanding", err)
	}
	return &GetOutstandingResponse{Lines: lines}, nil
}

func (h *BorrowingHandler) ReceiveStock(ctx context.Context, req *ReceiveStockRequest) (*InventoryResponse, error) {
	rec, err := h.ledger.Receive(ctx, domain.InventoryKey{MaterialID: req.MaterialID, LocationID: req.LocationID}, req.Quantity)
	if err != nil {
		return nil, toStatus(ctx, "ReceiveStock", err)
	}
	return &InventoryResponse{Record: MapDomainInventoryToWire(rec)}, nil
}

func (h *BorrowingHandler) GetInventory(ctx context.Context, req *GetInventoryRequest) (*InventoryResponse, error) {
	rec, err := h.reporting.GetInventory(ctx, domain.InventoryKey{MaterialID: req.MaterialID, LocationID: req.LocationID})
	if err != nil {
		return nil, toStatus(ctx, "GetInventory", err)
	}
	return &InventoryResponse{Record: MapDomainInventoryToWire(rec)}, nil
}

// authorizeRequest lets staff through and checks that a customer owns the request.
func (h *BorrowingHandler) authorizeRequest(ctx context.Context, method string, requestID int32) (domain.Identity, error) {
	caller, err := GetIdentityFromContext(ctx)
	if err != nil {
		return domain.Identity{}, err
	}
	if caller.IsStaff() {
		return caller, nil
	}
	br, err := h.requests.Get(ctx, requestID)
	if err != nil {
		return domain.Identity{}, toStatus(ctx, method, err)
	}
	if err := caller.Authorize(br); err != nil {
		return domain.Identity{}, toStatus(ctx, method, err)
	}
	return caller, nil
}

func (h *BorrowingHandler) requestResponse(br *domain.BorrowingRequest) *RequestResponse {
	return &RequestResponse{Request: MapDomainRequestToWire(br, h.clock.Now())}
}
