package apperror

import (
	"errors"
	"fmt"
)

// Kind groups failure reasons into the classes callers branch on.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindClosed           Kind = "closed"
	KindConflict         Kind = "conflict"
	KindValidation       Kind = "validation_error"
	KindUnauthenticated  Kind = "unauthenticated"
	KindUnauthorized     Kind = "unauthorized"
	KindExhaustedRetries Kind = "exhausted_retries"
	KindAlreadyVerified  Kind = "already_verified"
	KindNotPayable       Kind = "not_payable"
	KindUpstream         Kind = "upstream_error"
	KindInternal         Kind = "internal"
)

// Error is a stable, caller-visible failure. Code identifies the precise
// reason (e.g. "team_full"), Kind its class.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so wrapped or field-specific copies still match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newSentinel(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrEventNotFound        = newSentinel(KindNotFound, "event_not_found", "event not found")
	ErrTeamNotFound         = newSentinel(KindNotFound, "team_not_found", "no team found for this code")
	ErrRegistrationNotFound = newSentinel(KindNotFound, "registration_not_found", "registration not found")

	ErrClosed = newSentinel(KindClosed, "registration_closed", "registration is closed for this event")

	ErrTeamExists             = newSentinel(KindConflict, "team_exists", "you have already created a team for this event")
	ErrNotTeamEvent           = newSentinel(KindConflict, "not_team_event", "this event does not accept teams")
	ErrAlreadyRegistered      = newSentinel(KindConflict, "already_registered", "you are already registered for this event")
	ErrAlreadySoloRegistered  = newSentinel(KindConflict, "already_solo_registered", "you already hold an individual registration for this event")
	ErrAlreadyInAnotherTeam   = newSentinel(KindConflict, "already_in_another_team", "you are already a member of a team for this event")
	ErrAlreadyMember          = newSentinel(KindConflict, "already_member", "you are already a member of this team")
	ErrTeamFull               = newSentinel(KindConflict, "team_full", "team is full")
	ErrLeaderHasNotRegistered = newSentinel(KindConflict, "leader_not_registered", "team leader has not completed registration")
	ErrStatusFinalized        = newSentinel(KindConflict, "status_finalized", "status has already been finalized")
	ErrProofMissing           = newSentinel(KindConflict, "payment_not_submitted", "payment proof has not been submitted")

	ErrValidation = newSentinel(KindValidation, "validation_error", "invalid input")

	ErrUnauthenticated = newSentinel(KindUnauthenticated, "unauthenticated", "authentication required")
	ErrUnauthorized    = newSentinel(KindUnauthorized, "unauthorized", "you are not allowed to perform this action")

	ErrExhaustedRetries = newSentinel(KindExhaustedRetries, "exhausted_retries", "could not generate a unique join code")

	ErrAlreadyVerified = newSentinel(KindAlreadyVerified, "already_verified", "payment has already been submitted for this registration")
	ErrNotPayable      = newSentinel(KindNotPayable, "not_payable", "this event does not require payment")

	ErrUpstream = newSentinel(KindUpstream, "upstream_error", "an external service failed")
)

// Validation returns a validation error naming the offending field.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Code: ErrValidation.Code, Message: message, Field: field}
}

// Upstream wraps a collaborator failure (storage, mail, identity).
func Upstream(service string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: ErrUpstream.Code, Message: service + " failed", Err: err}
}

// Wrap attaches a cause to a sentinel while keeping its code.
func Wrap(sentinel *Error, err error) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: sentinel.Message, Field: sentinel.Field, Err: err}
}

// KindOf reports the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As extracts the *Error from err.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
