// Package errs defines the error taxonomy surfaced by the HTTP layer.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups errors by how they are reported to clients.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuthorization
	KindConflict
	KindExternal
)

// Code is a machine-readable error code.
type Code string

const (
	CodeInvalidID           Code = "INVALID_ID"
	CodeMissingFields       Code = "MISSING_FIELDS"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeInvalidStepSequence Code = "INVALID_STEP_SEQUENCE"
	CodeInvalidStep         Code = "INVALID_STEP"
	CodeTeamNotInitialized  Code = "TEAM_NOT_INITIALIZED"
	CodeEvidenceRequired    Code = "EVIDENCE_REQUIRED"
	CodeAlreadySupporting   Code = "ALREADY_SUPPORTING"
	CodeNotSupporting       Code = "NOT_SUPPORTING"
	CodeNotFound            Code = "NOT_FOUND"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeConflict            Code = "CONFLICT"
	CodeStorageFailed       Code = "STORAGE_FAILED"
	CodeTransactionAborted  Code = "TRANSACTION_ABORTED"
	CodeInternal            Code = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code Code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

func Validation(code Code, format string, args ...any) *Error {
	return New(KindValidation, code, fmt.Sprintf(format, args...))
}

func NotFound(what string) *Error {
	return New(KindNotFound, CodeNotFound, what+" not found")
}

func Internal(message string, cause error) *Error {
	return Wrap(KindInternal, CodeInternal, message, cause)
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidStepSequence = New(KindValidation, CodeInvalidStepSequence, "invalid step sequence")
	ErrInvalidStep         = New(KindValidation, CodeInvalidStep, "invalid step")
	ErrTeamNotInitialized  = New(KindValidation, CodeTeamNotInitialized, "campaign team has not been initialized")
	ErrEvidenceRequired    = New(KindValidation, CodeEvidenceRequired, "at least one piece of evidence is required")
	ErrAlreadySupporting   = New(KindValidation, CodeAlreadySupporting, "you are already supporting this campaign")
	ErrNotSupporting       = New(KindNotFound, CodeNotSupporting, "you are not supporting this campaign")
	ErrUnauthorized        = New(KindAuthorization, CodeUnauthorized, "only the campaign creator can update this campaign")
	ErrForbidden           = New(KindAuthorization, CodeForbidden, "not authorized to modify this campaign")
	ErrConflict            = New(KindConflict, CodeConflict, "campaign was modified concurrently, reload and retry")
)

// HTTPStatus maps an error to its response status. Unknown errors are 500.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a client.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal server error"
	}
	return e.Message
}
