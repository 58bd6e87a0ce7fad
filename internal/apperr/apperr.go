// Package apperr defines the closed error taxonomy shared by the chat service
// and the HTTP boundary.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindExternal     Kind = "external"
	KindInternal     Kind = "internal"
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Tag returns the machine-readable value of the "error" field in response bodies.
func (k Kind) Tag() string {
	switch k {
	case KindValidation:
		return "Validation"
	case KindUnauthorized:
		return "Unauthorized"
	case KindExternal:
		return "Upstream"
	default:
		return "Internal"
	}
}

// Error is an application error carrying its taxonomy kind.
type Error struct {
	Kind   Kind
	Detail string
	// Issues is set for validation failures built from an issue list.
	Issues []string
	Cause  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case KindValidation:
		return "Validation failed: " + e.Detail
	case KindUnauthorized:
		return "Unauthorized"
	case KindExternal:
		return "External API error: " + e.Detail
	default:
		if e.Detail == "" && e.Cause != nil {
			return "Internal error: " + e.Cause.Error()
		}
		return "Internal error: " + e.Detail
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Validation reports a client-caused failure.
func Validation(detail string) *Error {
	return &Error{Kind: KindValidation, Detail: detail}
}

// ValidationIssues reports every issue found for a request at once.
func ValidationIssues(issues []string) *Error {
	return &Error{
		Kind:   KindValidation,
		Detail: strings.Join(issues, ", "),
		Issues: append([]string(nil), issues...),
	}
}

// Unauthorized reports a caller that failed the API key gate.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized}
}

// External reports an upstream provider failure.
func External(detail string, cause error) *Error {
	return &Error{Kind: KindExternal, Detail: detail, Cause: cause}
}

// Internal reports an unexpected local failure or missing server configuration.
func Internal(detail string, cause error) *Error {
	return &Error{Kind: KindInternal, Detail: detail, Cause: cause}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the kind of err. Errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}

// Body is the JSON error shape returned to callers.
type Body struct {
	Error  string   `json:"error"`
	Detail string   `json:"detail,omitempty"`
	Issues []string `json:"issues,omitempty"`
}

// Response maps err to its HTTP status and body.
func Response(err error) (int, Body) {
	ae, ok := As(err)
	if !ok {
		detail := ""
		if err != nil {
			detail = err.Error()
		}
		return http.StatusInternalServerError, Body{Error: KindInternal.Tag(), Detail: detail}
	}

	body := Body{Error: ae.Kind.Tag(), Issues: ae.Issues}
	switch ae.Kind {
	case KindUnauthorized:
	case KindInternal:
		body.Detail = ae.Detail
		if body.Detail == "" && ae.Cause != nil {
			body.Detail = ae.Cause.Error()
		}
	default:
		body.Detail = ae.Detail
	}
	return ae.Kind.Status(), body
}
