package expense

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTableNotFound is returned by a Backend when no table has the requested name
var ErrTableNotFound = errors.New("table not found")

// ErrQuotaExceeded matches (via errors.Is) any error caused by the backend refusing to
// create the table for storage quota or permission reasons
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Reason classifies why caller input was rejected
type Reason string

const (
	ReasonWrongLineCount  Reason = "wrong_line_count"
	ReasonMissingFields   Reason = "missing_fields"
	ReasonEmptyField      Reason = "empty_field"
	ReasonInvalidField    Reason = "invalid_field"
	ReasonInvalidAmount   Reason = "invalid_amount"
	ReasonInvalidQuantity Reason = "invalid_quantity"
)

// Rejection is returned when caller input cannot become a Record
type Rejection struct {
	Reason Reason
	// Fields names the offending fields, using the caller's vocabulary
	// (field-map keys for maps, field names for lines)
	Fields []string
	// Got and Want are set for ReasonWrongLineCount
	Got  int
	Want int
}

func (r *Rejection) Error() string {
	switch r.Reason {
	case ReasonWrongLineCount:
		return fmt.Sprintf("expected %d lines, got %d", r.Want, r.Got)
	case ReasonMissingFields:
		return fmt.Sprintf("missing required fields: %s", strings.Join(r.Fields, ", "))
	default:
		return fmt.Sprintf("%s: %s", r.Reason, strings.Join(r.Fields, ", "))
	}
}

// SetupKind classifies table provisioning failures
type SetupKind int

const (
	// SetupOther is transient: the next ensure-ready call retries the whole sequence
	SetupOther SetupKind = iota
	// SetupQuotaExceeded is sticky until a forced re-probe
	SetupQuotaExceeded
)

// SetupError is returned when the backing table cannot be opened or created
type SetupError struct {
	Kind SetupKind
	Err  error
}

func (e *SetupError) Error() string {
	if e.Kind == SetupQuotaExceeded {
		return fmt.Sprintf("table setup: %v: %v", ErrQuotaExceeded, e.Err)
	}
	return fmt.Sprintf("table setup: %v", e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrQuotaExceeded) true for the quota kind
func (e *SetupError) Is(target error) bool {
	return target == ErrQuotaExceeded && e.Kind == SetupQuotaExceeded
}

// AppendKind classifies append failures
type AppendKind int

const (
	// AppendNotReady means no write was attempted because the table is not ready
	AppendNotReady AppendKind = iota
	// AppendWriteFailed means the remote write failed after provisioning succeeded
	AppendWriteFailed
)

// AppendError is returned by Service.Log when a record was not written
type AppendError struct {
	Kind AppendKind
	Err  error
}

func (e *AppendError) Error() string {
	if e.Kind == AppendNotReady {
		return fmt.Sprintf("table not ready: %v", e.Err)
	}
	return fmt.Sprintf("write failed: %v", e.Err)
}

func (e *AppendError) Unwrap() error {
	return e.Err
}

// IsQuotaExceeded reports whether err stems from the degraded quota state
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}
