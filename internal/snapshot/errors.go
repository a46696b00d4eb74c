package snapshot

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindParseFailed
	KindIOFailed
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindParseFailed:
		return "parse_failed"
	case KindIOFailed:
		return "io_failed"
	case KindUnexpected:
		return "unexpected"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ReadError is the only error type Reader.Read returns.
type ReadError struct {
	Kind     ErrorKind
	Path     string
	Attempts int
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s reading %s after %d attempt(s): %v", e.Kind, e.Path, e.Attempts, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Message is the underlying failure text without the path and attempt decoration.
func (e *ReadError) Message() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// KindOf returns the ReadError kind carried by err, or KindUnexpected for foreign errors.
func KindOf(err error) ErrorKind {
	var readErr *ReadError
	if errors.As(err, &readErr) {
		return readErr.Kind
	}
	return KindUnexpected
}

func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}
