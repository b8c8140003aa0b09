// Package perr defines the error taxonomy shared by every platlayer component.
//
// Recoverable failures are returned as *Error values that match one of the
// sentinel kinds with errors.Is. Violations of irreversible invariants are
// reported by Violate, which logs and panics with a *PreconditionError.
package perr

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrPlatform means the backend refused an operation. Callers may retry
	// or fall back to another configuration.
	ErrPlatform = errors.New("platform error")
	// ErrStaleHandle means the operation named a retired window, context or
	// device id.
	ErrStaleHandle = errors.New("stale handle")
	// ErrUnsupportedFormat means no pixel format offered by the backend
	// satisfies the request.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
	// ErrContextBusy means the context is current on another thread.
	ErrContextBusy = errors.New("context busy")
	// ErrDeviceQueryFailed means a device could not be probed or classified.
	ErrDeviceQueryFailed = errors.New("device query failed")
	// ErrInvalidArgument means a request carried unrecognized or
	// out-of-range options.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error is a recoverable failure tagged with one of the sentinel kinds.
type Error struct {
	// Op is the operation that failed, e.g. "window.SetState".
	Op string
	// Kind is one of the package sentinels.
	Kind error
	// Subject identifies what the operation was about ("window 3"), if any.
	Subject string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Subject != "" {
		msg += " (" + e.Subject + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New returns an *Error of the given kind.
func New(op string, kind error, subject string, cause error) *Error {
	return &Error{Op: op, Kind: kind, Subject: subject, Err: cause}
}

// Platform wraps a backend failure.
func Platform(op string, cause error) error {
	return &Error{Op: op, Kind: ErrPlatform, Err: cause}
}

// Stale reports use of a retired id.
func Stale(op, subject string) error {
	return &Error{Op: op, Kind: ErrStaleHandle, Subject: subject}
}

// Invalid reports an unrecognized or out-of-range option.
func Invalid(op string, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrInvalidArgument, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the sentinel kind of err, or nil when err carries none.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrPlatform,
		ErrStaleHandle,
		ErrUnsupportedFormat,
		ErrContextBusy,
		ErrDeviceQueryFailed,
		ErrInvalidArgument,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// PreconditionError is the panic value used for fatal invariant violations.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition violated in " + e.Op + ": " + e.Reason
}

// Violate logs the violation and panics. Native APIs offer no recovery once
// these invariants are broken, so the failure is surfaced at the call site.
func Violate(logger *slog.Logger, op string, format string, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	err := &PreconditionError{Op: op, Reason: fmt.Sprintf(format, args...)}
	logger.Error("fatal precondition violation", "op", op, "reason", err.Reason)
	panic(err)
}
