// Package ragerr defines the closed error taxonomy used at every component
// boundary in the RAG engine. Every boundary call returns either a
// value or one of these typed errors; stack traces stay in logs, never cross
// the wire.
package ragerr

import "fmt"

// Code is a short machine-readable error code, stable across versions.
type Code string

const (
	CodeConfig          Code = "CONFIG_ERROR"
	CodePathTraversal   Code = "PATH_TRAVERSAL"
	CodeStore           Code = "STORE_ERROR"
	CodeExtractor       Code = "EXTRACTOR_ERROR"
	CodeBackend         Code = "BACKEND_ERROR"
	CodeBudgetExceeded  Code = "BUDGET_EXCEEDED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL"
	CodeIndexUnavailable Code = "INDEX_UNAVAILABLE"
)

// Error is the single error type for all boundary calls. Kind narrows Code
// further for errors that carry a failure-taxonomy sub-reason (backend calls).
type Error struct {
	Code    Code
	Kind    string // optional sub-reason, e.g. "timeout", "rate_limited"
	Message string
	Err     error // wrapped cause, for logs only
}

func (e *Error) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s(%s): %s", e.Code, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func new_(code Code, kind, msg string, cause error) *Error {
	return &Error{Code: code, Kind: kind, Message: msg, Err: cause}
}

func Config(msg string, cause error) *Error {
	return new_(CodeConfig, "", msg, cause)
}

func PathTraversal(msg string) *Error {
	return new_(CodePathTraversal, "", msg, nil)
}

func Store(msg string, cause error) *Error {
	return new_(CodeStore, "", msg, cause)
}

func Extractor(msg string, cause error) *Error {
	return new_(CodeExtractor, "", msg, cause)
}

// BackendKind enumerates the enrichment backend failure taxonomy.
type BackendKind string

const (
	BackendOK               BackendKind = "ok"
	BackendTimeout          BackendKind = "timeout"
	BackendTransportError   BackendKind = "transport_error"
	BackendRateLimited      BackendKind = "rate_limited"
	BackendAuthError        BackendKind = "auth_error"
	BackendValidationFailed BackendKind = "validation_failed"
	BackendOverloaded       BackendKind = "overloaded"
	BackendNonLatin1        BackendKind = "non_latin1_output"
)

func Backend(kind BackendKind, msg string, cause error) *Error {
	return new_(CodeBackend, string(kind), msg, cause)
}

func BudgetExceeded(msg string) *Error {
	return new_(CodeBudgetExceeded, "", msg, nil)
}

func NotFound(msg string) *Error {
	return new_(CodeNotFound, "", msg, nil)
}

func Internal(msg string, cause error) *Error {
	return new_(CodeInternal, "", msg, cause)
}

func IndexUnavailable(msg string) *Error {
	return new_(CodeIndexUnavailable, "", msg, nil)
}

// Is reports whether err is a *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if re, ok := err.(*Error); ok {
			e = re
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Code == code
}
