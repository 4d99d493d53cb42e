package shared

import (
	"errors"
	"fmt"
)

type Error string

// Implement the error interface
func (e Error) Error() string { return string(e) }

//------------
// Definitions
//------------

// validation and lookup errors, returned before any external call
const (
	ErrInvalidInput   = Error("invalid input")
	ErrConflict       = Error("conflict")
	ErrNotFound       = Error("not found")
	ErrAlreadyRunning = Error("operation already running")
)

// authorization errors
const (
	ErrUnauthorized = Error("unauthorized")
	ErrForbidden    = Error("forbidden")
)

// ErrExternalProcess and ErrStorage are matched by ProcessError and StorageError.
const (
	ErrExternalProcess = Error("external process error")
	ErrStorage         = Error("storage error")
)

// Invalid wraps ErrInvalidInput with a field-specific message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ProcessError is returned when a toolset command exits non-zero or prints
// output that does not match the expected schema.
type ProcessError struct {
	Op         string // provision, destroy, resize, compact, scanUsage, scanFreshness
	Target     string // repository name, empty for fleet-wide scans
	Diagnostic string // stderr or the parse failure
	Err        error
}

func (e *ProcessError) Error() string {
	msg := "toolset " + e.Op
	if e.Target != "" {
		msg += " [" + e.Target + "]"
	}
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProcessError) Unwrap() error { return e.Err }

func (e *ProcessError) Is(target error) bool { return target == ErrExternalProcess }

// StorageError is returned when a collection cannot be durably written.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// IsProcessError reports whether err came from the external toolset.
func IsProcessError(err error) bool {
	var pe *ProcessError
	return errors.As(err, &pe)
}
