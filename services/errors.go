package services

import (
	"errors"
	"net/http"
)

// ErrorKind classifies every rejection the engine can hand back.
// Controllers map kinds to HTTP status codes and never invent their own.
type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "invalid_input"
	KindNotFound            ErrorKind = "not_found"
	KindCapacity            ErrorKind = "capacity_error"
	KindOutsideOpeningHours ErrorKind = "outside_opening_hours"
	KindSlotConflict        ErrorKind = "slot_conflict"
	KindNoAvailableTable    ErrorKind = "no_available_table"
	KindConflict            ErrorKind = "conflict"
	KindInvalidTransition   ErrorKind = "invalid_transition"
	KindValidation          ErrorKind = "validation_error"
)

// EngineError is a structured rejection. Details carries whatever the
// caller needs to render an actionable message (conflicting bookings,
// the day's hours, the offending capacity and so on).
type EngineError struct {
	Kind    ErrorKind              `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *EngineError) Error() string {
	return e.Message
}

func newError(kind ErrorKind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

func newErrorf(kind ErrorKind, message string, details map[string]interface{}) *EngineError {
	return &EngineError{Kind: kind, Message: message, Details: details}
}

// HTTPStatus maps an error to the status code the API layer should
// respond with. Unknown errors are treated as internal.
func HTTPStatus(err error) int {
	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		return http.StatusInternalServerError
	}
	switch engineErr.Kind {
	case KindInvalidInput, KindCapacity, KindOutsideOpeningHours, KindValidation, KindInvalidTransition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindSlotConflict, KindConflict, KindNoAvailableTable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AsEngineError unwraps err into an *EngineError if it is one.
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}
