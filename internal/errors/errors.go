// Package errors provides the typed failure results returned by the
// hackathon core. Every failure carries a Kind (how a caller should react)
// and a Code (what exactly went wrong).
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure by how callers are expected to react to it.
type Kind string

const (
	KindUnknown            Kind = "UNKNOWN"
	KindValidation         Kind = "VALIDATION"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindWindow             Kind = "WINDOW"
	KindCapacity           Kind = "CAPACITY"
	KindAuthorization      Kind = "AUTHORIZATION"
	KindScheduleConflict   Kind = "SCHEDULE_CONFLICT"
	KindIncompleteJudging  Kind = "INCOMPLETE_JUDGING"
	KindStorageUnavailable Kind = "STORAGE_UNAVAILABLE"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Kind     Kind
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a kind, code and message.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// WithMetadata returns a copy of e carrying metadata. The copy still
// matches e under errors.Is.
func (e *Error) WithMetadata(kv ...string) *Error {
	md := make(map[string]string, len(e.Metadata)+len(kv)/2)
	for k, v := range e.Metadata {
		md[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		md[kv[i]] = kv[i+1]
	}
	out := *e
	out.Metadata = md
	return &out
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	out := *e
	out.Cause = cause
	return &out
}

// Unavailable wraps a persistence failure without leaking its type.
func Unavailable(op string, cause error) *Error {
	return &Error{
		Kind:     KindStorageUnavailable,
		Code:     CodeStorageUnavailable,
		Message:  "storage unavailable",
		Metadata: map[string]string{"op": op},
		Cause:    cause,
	}
}

// KindOf extracts the error kind. Returns KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf extracts the error code. Returns CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MetadataOf returns the metadata of a domain error, or nil.
func MetadataOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Metadata
	}
	return nil
}

// MissingVote names a judge who has not yet voted for a team.
type MissingVote struct {
	Judge string `json:"judge"`
	Team  string `json:"team"`
}

// IncompleteJudgingError reports the (judge, team) pairs that block ranking.
type IncompleteJudgingError struct {
	Hackathon string
	Missing   []MissingVote
}

func (e *IncompleteJudgingError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("hackathon %q has no accepted judges", e.Hackathon)
	}
	pairs := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		pairs[i] = m.Judge + "/" + m.Team
	}
	return fmt.Sprintf("hackathon %q is missing %d vote(s): %s", e.Hackathon, len(e.Missing), strings.Join(pairs, ", "))
}

// Unwrap lets KindOf/CodeOf and errors.Is see the sentinel.
func (e *IncompleteJudgingError) Unwrap() error {
	return ErrIncompleteJudging
}
