package domain

import "time"

type TransactionKind string

const (
	TransactionKindBorrow        TransactionKind = "BORROW"
	TransactionKindReturn        TransactionKind = "RETURN"
	TransactionKindPartialReturn TransactionKind = "PARTIAL_RETURN"
)

func (k TransactionKind) IsValid() bool {
	return k == TransactionKindBorrow || k == TransactionKindReturn || k == TransactionKindPartialReturn
}

// LineDelta is the quantity moved for one request line by one event.
type LineDelta struct {
	LineID   int32 `json:"line_id"`
	Quantity int32 `json:"quantity"`
}

// TransactionEvent is an immutable record of physical movement.
// PublishedOn is outbox bookkeeping and is the only column written after insert.
type TransactionEvent struct {
	ID          int32           `json:"id"`
	ULID        string          `json:"ulid"`
	RequestID   int32           `json:"request_id"`
	Kind        TransactionKind `json:"kind"`
	ProcessedBy int32           `json:"processed_by"`
	Lines       []LineDelta     `json:"lines"`
	Notes       string          `json:"notes"`
	CreatedOn   time.Time       `json:"created_on"`
	PublishedOn *time.Time      `json:"published_on,omitempty"`
}

func (e *TransactionEvent) TotalQuantity() int32 {
	var total int32
	for _, l := range e.Lines {
		total += l.Quantity
	}
	return total
}
