package grpc

import (
	"time"

	"warehouse-lending-backend/internal/domain"
)

// BorrowingRequest is the wire form of a request. Money is a fixed two-decimal string.
type BorrowingRequest struct {
	ID               int32          `json:"id"`
	RequesterID      int32          `json:"requester_id"`
	HandlerID        *int32         `json:"handler_id,omitempty"`
	LocationID       *int32         `json:"location_id,omitempty"`
	Purpose          string         `json:"purpose"`
	RequiredBy       string         `json:"required_by"`
	Notes            string         `json:"notes,omitempty"`
	Status           string         `json:"status"`
	StatusReason     string         `json:"status_reason,omitempty"`
	ApproverID       *int32         `json:"approver_id,omitempty"`
	ApprovedOn       string         `json:"approved_on,omitempty"`
	Overdue          bool           `json:"overdue"`
	OverdueFlaggedOn string         `json:"overdue_flagged_on,omitempty"`
	DaysOverdue      int32          `json:"days_overdue,omitempty"`
	EstimatedValue   string         `json:"estimated_value"`
	CreatedOn        string         `json:"created_on"`
	UpdatedOn        string         `json:"updated_on"`
	Lines            []*RequestLine `json:"lines"`
}

type RequestLine struct {
	ID                int32  `json:"id"`
	ItemTypeID        *int32 `json:"item_type_id,omitempty"`
	Description       string `json:"description"`
	QuantityRequested int32  `json:"quantity_requested"`
	QuantityApproved  *int32 `json:"quantity_approved,omitempty"`
	QuantityBorrowed  *int32 `json:"quantity_borrowed,omitempty"`
	QuantityReturned  *int32 `json:"quantity_returned,omitempty"`
	Outstanding       int32  `json:"outstanding"`
	UnitValue         string `json:"unit_value"`
	EstimatedValue    string `json:"estimated_value"`
}

type TransactionEvent struct {
	ID          int32              `json:"id"`
	ULID        string             `json:"ulid"`
	RequestID   int32              `json:"request_id"`
	Kind        string             `json:"kind"`
	ProcessedBy int32              `json:"processed_by"`
	Lines       []domain.LineDelta `json:"lines"`
	Notes       string             `json:"notes,omitempty"`
	CreatedOn   string             `json:"created_on"`
}

type InventoryRecord struct {
	MaterialID int32  `json:"material_id"`
	LocationID int32  `json:"location_id"`
	OnHand     int32  `json:"on_hand"`
	Reserved   int32  `json:"reserved"`
	OnLoan     int32  `json:"on_loan"`
	Available  int32  `json:"available"`
	UpdatedOn  string `json:"updated_on"`
}

type LineInput struct {
	ItemTypeID  *int32 `json:"item_type_id,omitempty"`
	Description string `json:"description,omitempty"`
	Quantity    int32  `json:"quantity"`
}

type SubmitRequestRequest struct {
	// RequesterID lets staff submit on behalf of someone. Customers always submit as themselves.
	RequesterID int32       `json:"requester_id,omitempty"`
	HandlerID   *int32      `json:"handler_id,omitempty"`
	LocationID  *int32      `json:"location_id,omitempty"`
	Purpose     string      `json:"purpose"`
	RequiredBy  time.Time   `json:"required_by"`
	Notes       string      `json:"notes,omitempty"`
	Lines       []LineInput `json:"lines"`
}

type RequestResponse struct {
	Request *BorrowingRequest `json:"request"`
}

type ApproveRequestRequest struct {
	RequestID  int32           `json:"request_id"`
	Quantities map[int32]int32 `json:"quantities,omitempty"`
}

type RejectRequestRequest struct {
	RequestID int32  `json:"request_id"`
	Reason    string `json:"reason,omitempty"`
}

type CancelRequestRequest struct {
	RequestID int32  `json:"request_id"`
	Reason    string `json:"reason,omitempty"`
}

type HandOutRequest struct {
	RequestID  int32           `json:"request_id"`
	Quantities map[int32]int32 `json:"quantities,omitempty"`
}

type ReturnItemsRequest struct {
	RequestID  int32           `json:"request_id"`
	Quantities map[int32]int32 `json:"quantities"`
	Notes      string          `json:"notes,omitempty"`
}

type TransactionResponse struct {
	Request *BorrowingRequest `json:"request"`
	Event   *TransactionEvent `json:"event"`
}

type GetRequestRequest struct {
	RequestID int32 `json:"request_id"`
}

type GetHistoryRequest struct {
	RequestID int32 `json:"request_id"`
}

type GetHistoryResponse struct {
	Events []*TransactionEvent `json:"events"`
}

type ListRequestsRequest struct {
	RequesterID *int32 `json:"requester_id,omitempty"`
	HandlerID   *int32 `json:"handler_id,omitempty"`
	Status      string `json:"status,omitempty"`
	OverdueOnly bool   `json:"overdue_only,omitempty"`
	Page        int32  `json:"page,omitempty"`
	PageSize    int32  `json:"page_size,omitempty"`
}

type ListRequestsResponse struct {
	Requests   []*BorrowingRequest `json:"requests"`
	TotalCount int32               `json:"total_count"`
}

type GetOutstandingRequest struct {
	RequestID int32 `json:"request_id"`
}

type GetOutstandingResponse struct {
	Lines []domain.LineOutstanding `json:"lines"`
}

type ReceiveStockRequest struct {
	MaterialID int32 `json:"material_id"`
	LocationID int32 `json:"location_id"`
	Quantity   int32 `json:"quantity"`
}

type GetInventoryRequest struct {
	MaterialID int32 `json:"material_id"`
	LocationID int32 `json:"location_id"`
}

type InventoryResponse struct {
	Record *InventoryRecord `json:"record"`
}
