package objfile

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a file could not be analyzed.
type ErrorKind int

const (
	// NotFound indicates the path, or the executable resolved from the search path, does not exist.
	NotFound ErrorKind = iota

	// ReadFailure indicates an I/O error while opening or reading the file.
	ReadFailure

	// UnsupportedFormat indicates a recognized object format other than ELF.
	UnsupportedFormat

	// MalformedInput indicates the bytes do not parse as any recognized object format.
	MalformedInput
)

// String returns a string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case ReadFailure:
		return "read_failure"
	case UnsupportedFormat:
		return "unsupported_format"
	case MalformedInput:
		return "malformed_input"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Sentinel errors matching each ErrorKind through errors.Is.
var (
	ErrNotFound          = errors.New("file not found")
	ErrReadFailure       = errors.New("read failure")
	ErrUnsupportedFormat = errors.New("unsupported object format")
	ErrMalformedInput    = errors.New("malformed object file")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case NotFound:
		return ErrNotFound
	case ReadFailure:
		return ErrReadFailure
	case UnsupportedFormat:
		return ErrUnsupportedFormat
	default:
		return ErrMalformedInput
	}
}

// Error is a per-file failure with the offending path attached.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return e.Path + ": " + e.Reason()
}

// Reason is the error message without the path.
func (e *Error) Reason() string {
	if e.Err == nil {
		return e.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind.sentinel(), e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// NewError returns an *Error of the given kind.
func NewError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// KindOf returns the ErrorKind of err and whether err carries one.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
