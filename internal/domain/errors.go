package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrReservationMismatch    = errors.New("reservation mismatch")
	ErrUnknownInventoryRecord = errors.New("unknown inventory record")
	ErrInventoryContention    = errors.New("inventory contention")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrConflict               = errors.New("concurrent modification")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field problem found in one input.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// OrNil returns nil when nothing was collected, so callers can write `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e == nil || !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// TransitionError is returned when a request is not in a state that allows the attempted transition.
type TransitionError struct {
	RequestID int32
	Current   RequestStatus
	Attempted Transition
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("request %d: cannot %s from status %s", e.RequestID, strings.ToLower(string(e.Attempted)), e.Current)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// StockError carries the quantities behind an InsufficientStock or ReservationMismatch failure.
type StockError struct {
	Key       InventoryKey
	Available int32
	Requested int32
	Kind      error
}

func (e *StockError) Error() string {
	if errors.Is(e.Kind, ErrReservationMismatch) {
		return fmt.Sprintf("%s: reservation mismatch: held %d, requested %d", e.Key, e.Available, e.Requested)
	}
	return fmt.Sprintf("%s: insufficient stock: available %d, requested %d", e.Key, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error {
	return e.Kind
}

// LineError attributes a failure to a single request line.
type LineError struct {
	LineID int32
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.LineID, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
