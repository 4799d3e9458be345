// Package apierror provides standardized error structures for the API.
// Services return *Error values carrying a Kind and a stable machine-readable
// Code; handlers translate them into HTTP responses without leaking internal
// details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Code: CodeInvalidInput, Fields: fields}
}

// Kind classifies a domain error so callers can branch without string matching.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindBusiness     Kind = "business"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
)

// Stable codes returned to clients.
const (
	CodeInvalidInput       = "invalid_input"
	CodeTenantRequired     = "tenant_required"
	CodeNotFound           = "not_found"
	CodeProductNotFound    = "product_not_found"
	CodeOrderNotFound      = "order_not_found"
	CodeShopNotFound       = "shop_not_found"
	CodeUserNotFound       = "user_not_found"
	CodeInsufficientStock  = "insufficient_stock"
	CodeSlugInUse          = "slug_in_use"
	CodeEmailInUse         = "email_in_use"
	CodeDuplicateName      = "duplicate_name"
	CodeDuplicateProduct   = "duplicate_product_name"
	CodeInvalidTransition  = "invalid_status_transition"
	CodeAlreadyMember      = "already_member"
	CodeNotOwner           = "not_owner"
	CodeNotMember          = "not_member"
	CodeInvalidCredentials = "invalid_credentials"
)

// Error is a domain error with a kind and a stable code.
type Error struct {
	Kind   Kind
	Code   string
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func newErr(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Detail: fmt.Sprintf(format, args...)}
}

func Validation(code, format string, args ...any) *Error {
	return newErr(KindValidation, code, format, args...)
}

func NotFound(code, format string, args ...any) *Error {
	return newErr(KindNotFound, code, format, args...)
}

func Business(code, format string, args ...any) *Error {
	return newErr(KindBusiness, code, format, args...)
}

func Forbidden(code, format string, args ...any) *Error {
	return newErr(KindForbidden, code, format, args...)
}

func Unauthorized(code, format string, args ...any) *Error {
	return newErr(KindUnauthorized, code, format, args...)
}

// As extracts the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" for errors that are not domain errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// CodeOf returns the stable code of err, or "".
func CodeOf(err error) string {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}

// Status maps an error kind to its HTTP status; unknown errors are 500.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindBusiness:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
