package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrBusinessRule = errors.New("business rule violation")
	ErrSystem       = errors.New("system failure")
)

// Stable machine-readable error codes. Callers branch on the code; the
// message is for display only. Codes never change once released.
const (
	CodeJobNotFound            = "JOB_NOT_FOUND"
	CodeEscrowNotFound         = "ESCROW_NOT_FOUND"
	CodeOrderNotFound          = "ORDER_NOT_FOUND"
	CodeEscrowAlreadyExists    = "ESCROW_ALREADY_EXISTS"
	CodeInvalidJobStatus       = "INVALID_JOB_STATUS"
	CodeInvalidEscrowStatus    = "INVALID_ESCROW_STATUS"
	CodeInvalidOrderStatus     = "INVALID_ORDER_STATUS"
	CodeInvalidReleaseAmount   = "INVALID_RELEASE_AMOUNT"
	CodeInvalidRefundAmount    = "INVALID_REFUND_AMOUNT"
	CodeRejectionReasonMissing = "REJECTION_REASON_REQUIRED"
	CodeAcceptedOrderExists    = "ACCEPTED_ORDER_EXISTS"
	CodeInvalidContractSource  = "INVALID_CONTRACT_SOURCE"
	CodeInvalidContractTerms   = "INVALID_CONTRACT_TERMS"
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeInvalidPaymentMethod   = "INVALID_PAYMENT_METHOD"
	CodePaymentGatewayFailed   = "PAYMENT_GATEWAY_FAILED"
	CodeStoreFailure           = "STORE_FAILURE"
)

// Error pairs a stable code with a human-readable message and wraps one of
// the sentinel kinds above so callers can test with errors.Is.
type Error struct {
	kind    error
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return e.kind
}

// Is reports whether target matches this error's kind, so
// errors.Is(err, domain.ErrBusinessRule) holds even when a cause is wrapped.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

// NotFoundError builds an error for a missing job, escrow or order.
func NotFoundError(code, message string) *Error {
	return &Error{kind: ErrNotFound, Code: code, Message: message}
}

// BusinessError builds an error for a failed state-machine precondition.
// Safe to surface with its message.
func BusinessError(code, message string) *Error {
	return &Error{kind: ErrBusinessRule, Code: code, Message: message}
}

// ValidationFailure builds an error for malformed input rejected before any
// state-machine logic runs.
func ValidationFailure(code, message string) *Error {
	return &Error{kind: ErrInvalidInput, Code: code, Message: message}
}

// SystemError builds an error wrapping an unexpected store or gateway
// failure. The cause is logged server-side and never surfaced to callers.
func SystemError(code, message string, cause error) *Error {
	return &Error{kind: ErrSystem, Code: code, Message: message, cause: cause}
}

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
