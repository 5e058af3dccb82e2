package reconcile

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes reconciliation errors.
type ErrorCode string

const (
	// ErrCodePrecondition indicates the sheet layout is unusable. Fatal to the run.
	ErrCodePrecondition ErrorCode = "PRECONDITION"

	// ErrCodeArtifact indicates the QR code could not be rendered or read back.
	ErrCodeArtifact ErrorCode = "ARTIFACT"

	// ErrCodeStore indicates the ticket record could not be saved.
	ErrCodeStore ErrorCode = "STORE"

	// ErrCodeDelivery indicates the email could not be built or sent.
	ErrCodeDelivery ErrorCode = "DELIVERY"

	// ErrCodeMarker indicates the ticket was sent but the Sent cell could not
	// be written. The row will be issued again on the next run.
	ErrCodeMarker ErrorCode = "MARKER"

	// ErrCodeAnalytics indicates the analytics update failed. Never fatal.
	ErrCodeAnalytics ErrorCode = "ANALYTICS"
)

// Error is a reconciliation error with row context.
type Error struct {
	Code    ErrorCode
	Message string

	// Row is the 1-based sheet row, 0 for run-level errors.
	Row   int
	Email string

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Row > 0 {
		msg = fmt.Sprintf("%s (row=%d, email=%s)", msg, e.Row, e.Email)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newRowError(code ErrorCode, row int, email, message string, err error) *Error {
	return &Error{Code: code, Message: message, Row: row, Email: email, Err: err}
}

// NewPreconditionError creates a run-level error for an unusable sheet.
func NewPreconditionError(message string, err error) *Error {
	return &Error{Code: ErrCodePrecondition, Message: message, Err: err}
}

func hasCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsPreconditionError reports whether err is a fatal layout error.
func IsPreconditionError(err error) bool { return hasCode(err, ErrCodePrecondition) }

// IsArtifactError reports whether err is a QR render failure.
func IsArtifactError(err error) bool { return hasCode(err, ErrCodeArtifact) }

// IsDeliveryError reports whether err is an email failure.
func IsDeliveryError(err error) bool { return hasCode(err, ErrCodeDelivery) }

// IsAnalyticsError reports whether err is an analytics update failure.
func IsAnalyticsError(err error) bool { return hasCode(err, ErrCodeAnalytics) }
