package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindValidation   ErrorKind = "VALIDATION"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindUpstream     ErrorKind = "UPSTREAM"
	KindInternal     ErrorKind = "INTERNAL"
)

// Stable machine-readable codes returned to clients.
const (
	CodeTournamentNotFound    = "TOURNAMENT_NOT_FOUND"
	CodeAlreadyRegistered     = "TOURNAMENT_ALREADY_REGISTERED"
	CodeNotRegistered         = "TOURNAMENT_NOT_REGISTERED"
	CodeMaxParticipants       = "MAX_PARTICIPANTS_REACHED"
	CodeTournamentForbidden   = "TOURNAMENT_FORBIDDEN"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeNoTokenProvided       = "NO_TOKEN_PROVIDED"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeLocationNotFound      = "LOCATION_NOT_FOUND"
	CodeUpstreamUnavailable   = "UPSTREAM_UNAVAILABLE"
	CodeInternalError         = "INTERNAL_ERROR"
	CodeInvalidWebhookPayload = "INVALID_WEBHOOK"
)

// Error is the caller-visible failure of a service operation. Two Errors
// match under errors.Is when their codes are equal, so the sentinels below
// can be compared against wrapped or field-carrying copies.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Code + ": " + e.Message
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrTournamentNotFound  = &Error{Kind: KindNotFound, Code: CodeTournamentNotFound, Message: "tournament not found"}
	ErrAlreadyRegistered   = &Error{Kind: KindConflict, Code: CodeAlreadyRegistered, Message: "already registered"}
	ErrNotRegistered       = &Error{Kind: KindConflict, Code: CodeNotRegistered, Message: "not registered"}
	ErrMaxParticipants     = &Error{Kind: KindConflict, Code: CodeMaxParticipants, Message: "max participants reached"}
	ErrForbiddenOperation  = &Error{Kind: KindForbidden, Code: CodeTournamentForbidden, Message: "only the organizer can perform this action"}
	ErrValidationFailed    = &Error{Kind: KindValidation, Code: CodeValidationFailed, Message: "validation failed"}
	ErrNoTokenProvided     = &Error{Kind: KindUnauthorized, Code: CodeNoTokenProvided, Message: "no token provided"}
	ErrInvalidToken        = &Error{Kind: KindUnauthorized, Code: CodeInvalidToken, Message: "invalid token"}
	ErrLocationNotFound    = &Error{Kind: KindNotFound, Code: CodeLocationNotFound, Message: "location not found"}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstream, Code: CodeUpstreamUnavailable, Message: "upstream dependency failed"}
	ErrInternal            = &Error{Kind: KindInternal, Code: CodeInternalError, Message: "internal server error"}
	ErrInvalidWebhook      = &Error{Kind: KindValidation, Code: CodeInvalidWebhookPayload, Message: "invalid webhook"}
)

// validationErrors collects per-field messages.
type validationErrors map[string]string

func (v validationErrors) add(field, msg string) {
	if _, exists := v[field]; !exists {
		v[field] = msg
	}
}

func (v validationErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Code: CodeValidationFailed, Message: "validation failed", Fields: v}
}

func newValidationError(field, msg string) error {
	return validationErrors{field: msg}.err()
}

// upstreamError marks a collaborator failure. It never carries a NotFound or
// Conflict code even if the collaborator reported one.
func upstreamError(collaborator string, err error) error {
	return &Error{
		Kind:    KindUpstream,
		Code:    CodeUpstreamUnavailable,
		Message: fmt.Sprintf("%s unavailable", collaborator),
		Err:     err,
	}
}

func internalError(op string, err error) error {
	return &Error{Kind: KindInternal, Code: CodeInternalError, Message: "internal server error", Err: fmt.Errorf("%s: %w", op, err)}
}

// AsError extracts the service error from err, wrapping anything unknown as
// an internal error.
func AsError(err error) *Error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return &Error{Kind: KindInternal, Code: CodeInternalError, Message: "internal server error", Err: err}
}
