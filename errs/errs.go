// Package errs defines the stable error-code taxonomy the storage core
// returns to callers, per the error-handling design of the specification.
package errs

import (
	"github.com/pkg/errors"
)

// Code is a stable small integer identifying one error class. Callers may
// switch on Code(err) without depending on message text.
type Code int

const (
	// Structural / storage
	IOError Code = iota + 1
	OutOfFileSpace
	Corruption
	TablespaceDeleted

	// Transactional
	LockWait
	LockWaitTimeout
	Deadlock
	LockTableFull
	DuplicateKey
	RowIsReferenced
	NoReferencedRow

	// Operational
	OutOfMemory
	TooManyConcurrentTrxs
	MissingHistory
	Interrupted

	// Fatal
	Panic
)

var names = map[Code]string{
	IOError:               "IO_ERROR",
	OutOfFileSpace:        "OUT_OF_FILE_SPACE",
	Corruption:            "CORRUPTION",
	TablespaceDeleted:     "TABLESPACE_DELETED",
	LockWait:              "LOCK_WAIT",
	LockWaitTimeout:       "LOCK_WAIT_TIMEOUT",
	Deadlock:              "DEADLOCK",
	LockTableFull:         "LOCK_TABLE_FULL",
	DuplicateKey:          "DUPLICATE_KEY",
	RowIsReferenced:       "ROW_IS_REFERENCED",
	NoReferencedRow:       "NO_REFERENCED_ROW",
	OutOfMemory:           "OUT_OF_MEMORY",
	TooManyConcurrentTrxs: "TOO_MANY_CONCURRENT_TRXS",
	MissingHistory:        "MISSING_HISTORY",
	Interrupted:           "INTERRUPTED",
	Panic:                 "PANIC",
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "UNKNOWN"
}

// codedError pairs a Code with a wrapped cause so errors.Cause still unwraps
// to the underlying pkg/errors stack trace.
type codedError struct {
	code  Code
	cause error
}

func (e *codedError) Error() string { return e.code.String() + ": " + e.cause.Error() }
func (e *codedError) Cause() error  { return e.cause }
func (e *codedError) Unwrap() error { return e.cause }

// New creates a coded error from a message, capturing a stack trace.
func New(code Code, msg string) error {
	return &codedError{code: code, cause: errors.New(msg)}
}

// Wrap attaches a code to an existing error, capturing a stack trace at the
// wrap site if one isn't already present.
func Wrap(code Code, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, cause: errors.Wrap(err, msg)}
}

// Of extracts the Code from an error, or 0 if the error is not a codedError.
func Of(err error) Code {
	var ce *codedError
	for err != nil {
		if c, ok := err.(*codedError); ok {
			ce = c
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if ce == nil {
		return 0
	}
	return ce.code
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool { return Of(err) == code }

// PanicCallback is invoked for PANIC-class invariant violations instead of a
// bare Go panic, so the host process can decide how to shut down.
type PanicCallback func(error)

// PanicInvariant reports a PANIC-class invariant violation via cb, or via a Go
// panic if cb is nil.
func PanicInvariant(cb PanicCallback, msg string) {
	err := New(Panic, msg)
	if cb == nil {
		panic(err)
	}
	cb(err)
}
