// Package fault provides the canonical error kinds shared by the runtime,
// the repository gateway, and the reasoning backends.
package fault

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure so callers can branch on it without string matching.
type Kind string

const (
	// KindRateLimited indicates the reasoning backend refused the request
	// because of rate limiting. Retryable with backoff.
	KindRateLimited Kind = "rate_limited"

	// KindConflict indicates a compare-and-swap write lost the race: the
	// remote digest advanced since it was last read. Never auto-retried.
	KindConflict Kind = "conflict"

	// KindNotFound indicates a missing path, repository, or branch.
	KindNotFound Kind = "not_found"

	// KindAuthMissing indicates no credential is bound to the current user.
	KindAuthMissing Kind = "auth_missing"

	// KindUnknownTool indicates the backend named an operation absent from
	// the catalog.
	KindUnknownTool Kind = "unknown_tool"

	// KindInvalidArguments indicates tool arguments failed schema validation.
	KindInvalidArguments Kind = "invalid_arguments"

	// KindDecodeFailure indicates binary or non-UTF-8 content where text was
	// expected.
	KindDecodeFailure Kind = "decode_failure"

	// KindUnavailable indicates a transport or upstream failure that fits no
	// other category.
	KindUnavailable Kind = "unavailable"
)

// Fault is a categorized error. It wraps an optional cause.
type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error { return f.Err }

// New creates a Fault with the given kind and message.
func New(kind Kind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a Fault that carries an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err if it is (or wraps) a Fault, or "" otherwise.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Convenience constructors for the common kinds.

func RateLimited(format string, args ...any) *Fault {
	return New(KindRateLimited, format, args...)
}

func Conflict(format string, args ...any) *Fault {
	return New(KindConflict, format, args...)
}

func NotFound(format string, args ...any) *Fault {
	return New(KindNotFound, format, args...)
}

func AuthMissing(format string, args ...any) *Fault {
	return New(KindAuthMissing, format, args...)
}

func UnknownTool(format string, args ...any) *Fault {
	return New(KindUnknownTool, format, args...)
}

func InvalidArguments(format string, args ...any) *Fault {
	return New(KindInvalidArguments, format, args...)
}

func DecodeFailure(format string, args ...any) *Fault {
	return New(KindDecodeFailure, format, args...)
}
