package internaltypes

import (
	"errors"
	"fmt"
)

// Error kinds for the booking engine. Every user-visible failure is one of
// these; the CLI prints the kind plus the remediation hint.
type Kind string

const (
	KindConfig         Kind = "config"
	KindUpstream       Kind = "upstream"
	KindNotFound       Kind = "not_found"
	KindStateConflict  Kind = "state_conflict"
	KindPartialFailure Kind = "partial_failure"
)

type Error struct {
	Kind Kind
	Msg  string
	Hint string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// ConfigError is fatal: missing or invalid credentials. Never retried.
func ConfigError(msg string) *Error {
	return &Error{Kind: KindConfig, Msg: msg, Hint: "run: oakley setup"}
}

// UpstreamError wraps a remote API failure after the single automatic retry.
// Carries the platform name and the raw error so the caller sees what came back.
func UpstreamError(platform string, err error) *Error {
	return &Error{Kind: KindUpstream, Msg: platform + " request failed", Hint: "try again shortly", Err: err}
}

func NotFoundError(what string) *Error {
	return &Error{Kind: KindNotFound, Msg: what + " not found", Hint: "check the id and retry"}
}

// StateConflictError means a concurrent writer already transitioned the record.
// Never resolved by last-writer-wins; the caller should refetch and decide.
func StateConflictError(msg string) *Error {
	return &Error{Kind: KindStateConflict, Msg: msg, Hint: "refetch the booking and retry deliberately"}
}

// PartialFailureError means a multi-leg mutation failed between legs.
func PartialFailureError(leg, msg string) *Error {
	return &Error{
		Kind: KindPartialFailure,
		Msg:  fmt.Sprintf("%s (failed leg: %s)", msg, leg),
		Hint: "booking left flagged; reconcile manually",
	}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsStateConflict(err error) bool { return KindOf(err) == KindStateConflict }
