package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure for retry decisions and reporting.
// Classification is carried as structured data so the orchestrator never has
// to match on error message text.
type ErrorKind string

const (
	// KindPrecondition marks input that should never reach the network
	// (e.g. a non-positive computed amount). Never retried.
	KindPrecondition ErrorKind = "precondition"

	// Aggregator failures.
	KindRateLimited       ErrorKind = "rate_limited"
	KindInvalidRequest    ErrorKind = "invalid_request"
	KindServiceError      ErrorKind = "service_error"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindBuildFailed       ErrorKind = "build_failed"

	// Chain failures.
	KindSubmitFailed    ErrorKind = "submit_failed"
	KindConfirmFailed   ErrorKind = "confirm_failed"
	KindExecutionFailed ErrorKind = "execution_failed"

	// Signer failures.
	KindSignerRejected    ErrorKind = "signer_rejected"
	KindSignerTimeout     ErrorKind = "signer_timeout"
	KindSignerUnavailable ErrorKind = "signer_unavailable"
	KindSigningFailed     ErrorKind = "signing_failed"

	// KindUnknown covers anything unclassified. Treated as retryable.
	KindUnknown ErrorKind = "unknown"
)

var retryable = map[ErrorKind]bool{
	KindPrecondition:      false,
	KindRateLimited:       true,
	KindInvalidRequest:    false,
	KindServiceError:      true,
	KindMalformedResponse: true,
	KindBuildFailed:       true,
	KindSubmitFailed:      true,
	KindConfirmFailed:     true,
	KindExecutionFailed:   true,
	KindSignerRejected:    false,
	KindSignerTimeout:     true,
	KindSignerUnavailable: true,
	KindSigningFailed:     true,
	KindUnknown:           true,
}

// Retryable reports whether another attempt may succeed for this kind.
func (k ErrorKind) Retryable() bool {
	return retryable[k]
}

// SwapError tags an underlying error with its classification.
type SwapError struct {
	Kind ErrorKind
	Err  error
}

// NewSwapError wraps err with a classification kind.
func NewSwapError(kind ErrorKind, err error) *SwapError {
	return &SwapError{Kind: kind, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind ErrorKind, format string, args ...interface{}) *SwapError {
	return &SwapError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *SwapError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SwapError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the orchestrator may retry after this error.
func (e *SwapError) Retryable() bool {
	return e.Kind.Retryable()
}

// KindOf extracts the classification from err, or KindUnknown if err was
// never classified.
func KindOf(err error) ErrorKind {
	var se *SwapError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
