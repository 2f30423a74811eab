// Package apperr holds the error categories shared by the checkout workflow.
// Callers wrap one of these with context and test with errors.Is.
package apperr

import "errors"

var (
	// ErrInvalidArgument: empty user id, empty cart handed to the assembler, bad quantity.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound: unknown product, order or user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: the entity is not in a state that allows the operation.
	ErrInvalidState = errors.New("invalid state")
	// ErrPaymentDeclined labels the declined category only. Checkout reports
	// a decline as checkout.OutcomePaymentFailed, not as an error.
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrPersistence: store unavailable or a write failed. Retryable by the caller.
	ErrPersistence = errors.New("persistence failure")
	// ErrTimeout: payment resolution exceeded its deadline.
	ErrTimeout = errors.New("timeout")
)

// IsRetryable reports whether the caller may simply try again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrTimeout)
}
