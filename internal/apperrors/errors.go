package apperrors

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports malformed input or an illegal status transition.
// Fields maps a field name to a human-readable message.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// NewFieldError builds a ValidationError for a single field.
func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{
		Message: "validation failed",
		Fields:  map[string]string{field: message},
	}
}

// NotFoundError reports an unknown external id.
type NotFoundError struct {
	ExternalID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("payout %s not found", e.ExternalID)
}

// ConflictError reports an operation incompatible with the current record
// state, such as deleting a payout that is no longer pending.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// GatewayError reports a declined or failed external submission. It drives
// an orderly transition to the failed status rather than a retry.
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s", e.Message)
}

// UnexpectedError wraps anything that escapes the async pipeline. The
// dispatcher catches it, forces the record to failed and retries.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected pipeline error: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}
