package grpc

import (
	"time"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/service"
	"warehouse-lending-backend/internal/utils"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func MapDomainRequestToWire(r *domain.BorrowingRequest, now time.Time) *BorrowingRequest {
	if r == nil {
		return nil
	}
	lines := make([]*RequestLine, len(r.Lines))
	for i := range r.Lines {
		lines[i] = MapDomainLineToWire(&r.Lines[i])
	}
	overdue := r.IsOverdue(now)
	var daysOverdue int32
	if overdue {
		daysOverdue = int32(utils.DaysLate(r.RequiredBy, now))
	}
	return &BorrowingRequest{
		ID:               r.ID,
		RequesterID:      r.RequesterID,
		HandlerID:        r.HandlerID,
		LocationID:       r.LocationID,
		Purpose:          r.Purpose,
		RequiredBy:       formatTime(r.RequiredBy),
		Notes:            r.Notes,
		Status:           string(r.Status),
		StatusReason:     r.StatusReason,
		ApproverID:       r.ApproverID,
		ApprovedOn:       formatTimePtr(r.ApprovedOn),
		Overdue:          overdue,
		OverdueFlaggedOn: formatTimePtr(r.OverdueFlaggedOn),
		DaysOverdue:      daysOverdue,
		EstimatedValue:   r.EstimatedValue().StringFixed(2),
		CreatedOn:        formatTime(r.CreatedOn),
		UpdatedOn:        formatTime(r.UpdatedOn),
		Lines:            lines,
	}
}

func MapDomainLineToWire(l *domain.RequestLine) *RequestLine {
	return &RequestLine{
		ID:                l.ID,
		ItemTypeID:        l.ItemTypeID,
		Description:       l.Description,
		QuantityRequested: l.QuantityRequested,
		QuantityApproved:  l.QuantityApproved,
		QuantityBorrowed:  l.QuantityBorrowed,
		QuantityReturned:  l.QuantityReturned,
		Outstanding:       l.Outstanding(),
		UnitValue:         l.UnitValue.StringFixed(2),
		EstimatedValue:    l.EstimatedValue.StringFixed(2),
	}
}

func MapDomainEventToWire(e *domain.TransactionEvent) *TransactionEvent {
	if e == nil {
		return nil
	}
	return &TransactionEvent{
		ID:          e.ID,
		ULID:        e.ULID,
		RequestID:   e.RequestID,
		Kind:        string(e.Kind),
		ProcessedBy: e.ProcessedBy,
		Lines:       e.Lines,
		Notes:       e.Notes,
		CreatedOn:   formatTime(e.CreatedOn),
	}
}

func MapDomainInventoryToWire(r *domain.InventoryRecord) *InventoryRecord {
	if r == nil {
		return nil
	}
	return &InventoryRecord{
		MaterialID: r.MaterialID,
		LocationID: r.LocationID,
		OnHand:     r.OnHand,
		Reserved:   r.Reserved,
		OnLoan:     r.OnLoan,
		Available:  r.Available(),
		UpdatedOn:  formatTime(r.UpdatedOn),
	}
}

func MapWireLinesToInput(lines []LineInput) []service.LineInput {
	out := make([]service.LineInput, len(lines))
	for i, l := range lines {
		out[i] = service.LineInput{ItemTypeID: l.ItemTypeID, Description: l.Description, Quantity: l.Quantity}
	}
	return out
}
