// Package apperrors defines the error kinds shared by repositories, services and handlers.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind is the machine-readable category of a failure.
type Kind string

const (
	KindInternal          Kind = "internal"
	KindValidation        Kind = "validation"
	KindInsufficientStock Kind = "insufficient_stock"
	KindNotFound          Kind = "not_found"
	KindGateway           Kind = "gateway"
	KindAuthenticity      Kind = "authenticity"
	KindForbidden         Kind = "forbidden"
	KindConflict          Kind = "conflict"
)

// ValidationError reports malformed or missing input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// InsufficientStockError names the product that could not cover a requested quantity.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   string
	Available   string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %s, available: %s)", e.ProductName, e.Requested, e.Available)
}

// NotFoundError reports an unknown resource id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// GatewayError wraps a payment provider failure. Unavailable is set when the
// provider could not be reached or timed out.
type GatewayError struct {
	Op          string
	Unavailable bool
	Err         error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// AuthenticityError is returned when a webhook signature does not match.
type AuthenticityError struct {
	Reason string
}

func (e *AuthenticityError) Error() string {
	return "request authenticity check failed: " + e.Reason
}

// ForbiddenError is returned when the caller may not act on a resource.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return "forbidden: " + e.Reason }

// ConflictError reports a state that prevents the operation, e.g. an order that is already paid.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// KindOf resolves the Kind of err, looking through wrapped errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var (
		validationErr *ValidationError
		stockErr      *InsufficientStockError
		notFoundErr   *NotFoundError
		gatewayErr    *GatewayError
		authErr       *AuthenticityError
		forbiddenErr  *ForbiddenError
		conflictErr   *ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &stockErr):
		return KindInsufficientStock
	case errors.As(err, &notFoundErr):
		return KindNotFound
	case errors.As(err, &gatewayErr):
		return KindGateway
	case errors.As(err, &authErr):
		return KindAuthenticity
	case errors.As(err, &forbiddenErr):
		return KindForbidden
	case errors.As(err, &conflictErr):
		return KindConflict
	}
	return KindInternal
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
