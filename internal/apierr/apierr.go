// Package apierr defines the error taxonomy shared by every pipeline and
// the response envelope: a small typed error carrying a kind, a caller-safe
// message, and optional hints (usage example, suggestion).
package apierr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// BadRequest: a required parameter is missing or invalid. Reported
	// verbatim with a usage example, never retried.
	BadRequest Kind = iota
	// NotFound: resolution or search yielded nothing.
	NotFound
	// RateLimited: the daily quota is exhausted.
	RateLimited
	// UpstreamUnavailable: the sole upstream failed, or every upstream in
	// a fallback chain failed.
	UpstreamUnavailable
	// Internal: anything unanticipated. Callers see a generic message.
	Internal
)

func (k Kind) String() string {
	switch k {
	case BadRequest:
		return "bad_request"
	case NotFound:
		return "not_found"
	case RateLimited:
		return "rate_limited"
	case UpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	// Example shows a working request, attached to BadRequest errors.
	Example string
	// Examples replaces Example when several forms are valid.
	Examples []string
	// Suggestion accompanies NotFound errors.
	Suggestion string
	// Err is the underlying cause, logged internally and never exposed.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// BadRequestf builds a BadRequest error with a usage example.
func BadRequestf(example, format string, args ...any) *Error {
	return &Error{Kind: BadRequest, Message: fmt.Sprintf(format, args...), Example: example}
}

// NotFoundf builds a NotFound error with a suggestion for the caller.
func NotFoundf(suggestion, format string, args ...any) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...), Suggestion: suggestion}
}

// Upstreamf builds an UpstreamUnavailable error wrapping cause. cause may
// be nil when the upstream answered but the body was unusable.
func Upstreamf(cause error, format string, args ...any) *Error {
	return &Error{Kind: UpstreamUnavailable, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf classifies err, defaulting to Internal for anything that is not
// an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
