package types

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the engine's error taxonomy. Callers classify
// failures with errors.Is; the concrete message carries entity context.
var (
	// ErrTemporalViolation indicates an operation would create or alter
	// structure in the past (e.g. materializing a plan before today).
	// Never retried; surfaced to the caller as a rejected request.
	ErrTemporalViolation = errors.New("temporal violation")

	// ErrDomainViolation indicates an operation would mutate state that
	// invariants forbid (e.g. completing a task on a closed day).
	ErrDomainViolation = errors.New("domain violation")

	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTransientStore indicates an underlying store timeout or
	// unavailability. Retryable at the calling boundary; the engine
	// itself performs no retry loops.
	ErrTransientStore = errors.New("transient store failure")
)

// TemporalViolationf returns a formatted error classified as a temporal violation.
func TemporalViolationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrTemporalViolation)...)
}

// DomainViolationf returns a formatted error classified as a domain violation.
func DomainViolationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrDomainViolation)...)
}

// NotFoundf returns a formatted error classified as not-found.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// TransientStoref returns a formatted error classified as a transient store failure.
func TransientStoref(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrTransientStore)...)
}

// IsRetryable reports whether err should be retried by the calling boundary.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStore)
}
