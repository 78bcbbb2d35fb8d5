package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusApproved  RequestStatus = "APPROVED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusActive    RequestStatus = "ACTIVE"
	RequestStatusReturned  RequestStatus = "RETURNED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
)

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected,
		RequestStatusActive, RequestStatusReturned, RequestStatusCancelled:
		return true
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusRejected || s == RequestStatusReturned || s == RequestStatusCancelled
}

type Transition string

const (
	TransitionApprove Transition = "APPROVE"
	TransitionReject  Transition = "REJECT"
	TransitionHandOut Transition = "HAND_OUT"
	TransitionReturn  Transition = "RETURN"
	TransitionCancel  Transition = "CANCEL"
)

var transitionSources = map[Transition][]RequestStatus{
	TransitionApprove: {RequestStatusPending},
	TransitionReject:  {RequestStatusPending},
	TransitionHandOut: {RequestStatusApproved},
	TransitionReturn:  {RequestStatusActive},
	TransitionCancel:  {RequestStatusPending, RequestStatusApproved},
}

// CanTransition reports whether t may be applied to a request in status s.
func (s RequestStatus) CanTransition(t Transition) bool {
	return slices.Contains(transitionSources[t], s)
}

type BorrowingRequest struct {
	ID          int32         `json:"id"`
	RequesterID int32         `json:"requester_id"`
	HandlerID   *int32        `json:"handler_id,omitempty"`
	LocationID  *int32        `json:"location_id,omitempty"`
	Purpose     string        `json:"purpose"`
	RequiredBy  time.Time     `json:"required_by"`
	Notes       string        `json:"notes"`
	Status      RequestStatus `json:"status"`
	// ApproverID is the staff member who decided the request (approved or rejected it).
	ApproverID       *int32        `json:"approver_id,omitempty"`
	ApprovedOn       *time.Time    `json:"approved_on,omitempty"`
	StatusReason     string        `json:"status_reason"`
	OverdueFlaggedOn *time.Time    `json:"overdue_flagged_on,omitempty"`
	Version          int32         `json:"version"`
	CreatedOn        time.Time     `json:"created_on"`
	UpdatedOn        time.Time     `json:"updated_on"`
	Lines            []RequestLine `json:"lines"`
}

// CheckTransition returns a TransitionError when t is not allowed from the current status.
func (r *BorrowingRequest) CheckTransition(t Transition) error {
	if !r.Status.CanTransition(t) {
		return &TransitionError{RequestID: r.ID, Current: r.Status, Attempted: t}
	}
	return nil
}

// IsOverdue is derived: an active request whose required-by date has passed.
func (r *BorrowingRequest) IsOverdue(now time.Time) bool {
	return r.Status == RequestStatusActive && r.RequiredBy.Before(now)
}

func (r *BorrowingRequest) Line(id int32) *RequestLine {
	for i := range r.Lines {
		if r.Lines[i].ID == id {
			return &r.Lines[i]
		}
	}
	return nil
}

// TotalOutstanding sums borrowed-but-not-returned units over all lines.
func (r *BorrowingRequest) TotalOutstanding() int32 {
	var total int32
	for _, l := range r.Lines {
		total += l.Outstanding()
	}
	return total
}

func (r *BorrowingRequest) EstimatedValue() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lines {
		total = total.Add(l.EstimatedValue)
	}
	return total
}

type RequestLine struct {
	ID                int32           `json:"id"`
	RequestID         int32           `json:"request_id"`
	ItemTypeID        *int32          `json:"item_type_id,omitempty"`
	Description       string          `json:"description"`
	QuantityRequested int32           `json:"quantity_requested"`
	QuantityApproved  *int32          `json:"quantity_approved,omitempty"`
	QuantityBorrowed  *int32          `json:"quantity_borrowed,omitempty"`
	QuantityReturned  *int32          `json:"quantity_returned,omitempty"`
	UnitValue         decimal.Decimal `json:"unit_value"`
	EstimatedValue    decimal.Decimal `json:"estimated_value"`
}

// IsCatalogLinked reports whether the line draws from inventory. Ad-hoc lines never touch the ledger.
func (l *RequestLine) IsCatalogLinked() bool {
	return l.ItemTypeID != nil
}

func (l *RequestLine) Approved() int32 { return deref(l.QuantityApproved) }
func (l *RequestLine) Borrowed() int32 { return deref(l.QuantityBorrowed) }
func (l *RequestLine) Returned() int32 { return deref(l.QuantityReturned) }

func (l *RequestLine) Outstanding() int32 {
	return l.Borrowed() - l.Returned()
}

// InventoryKey returns the ledger key for a catalog line at the given location.
func (l *RequestLine) InventoryKey(locationID int32) InventoryKey {
	return InventoryKey{MaterialID: deref(l.ItemTypeID), LocationID: locationID}
}

// Validate checks the per-line quantity ordering requested ≥ approved ≥ borrowed ≥ returned.
func (l *RequestLine) Validate() error {
	if l.QuantityRequested <= 0 {
		return &LineError{LineID: l.ID, Err: NewValidationError("quantity_requested", "must be positive")}
	}
	if l.QuantityApproved != nil && (*l.QuantityApproved < 0 || *l.QuantityApproved > l.QuantityRequested) {
		return &LineError{LineID: l.ID, Err: NewValidationError("quantity_approved", "must be between 0 and the requested quantity")}
	}
	if l.QuantityBorrowed != nil && (*l.QuantityBorrowed < 0 || *l.QuantityBorrowed > l.Approved()) {
		return &LineError{LineID: l.ID, Err: NewValidationError("quantity_borrowed", "must be between 0 and the approved quantity")}
	}
	if l.QuantityReturned != nil && (*l.QuantityReturned < 0 || *l.QuantityReturned > l.Borrowed()) {
		return &LineError{LineID: l.ID, Err: NewValidationError("quantity_returned", "must be between 0 and the borrowed quantity")}
	}
	return nil
}

// LineOutstanding is the reporting view of one line's open loan.
type LineOutstanding struct {
	LineID      int32  `json:"line_id"`
	ItemTypeID  *int32 `json:"item_type_id,omitempty"`
	Description string `json:"description"`
	Borrowed    int32  `json:"borrowed"`
	Returned    int32  `json:"returned"`
	Outstanding int32  `json:"outstanding"`
}

// RequestFilter narrows ListRequests. Zero values mean "any".
type RequestFilter struct {
	RequesterID *int32
	HandlerID   *int32
	Status      RequestStatus
	OverdueAt   *time.Time
	Page        int32
	PageSize    int32
}

func deref(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}

// Int32Ptr returns a pointer to v.
func Int32Ptr(v int32) *int32 {
	return &v
}
