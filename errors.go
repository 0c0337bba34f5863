package remotefs

import (
	"errors"
	"fmt"
)

// Standard errors surfaced by the channel layer and client registry.
var (
	// Path resolution errors
	ErrInvalidPath       = errors.New("remotefs: invalid path detected")
	ErrNoClient          = errors.New("remotefs: no client registered for scheme")
	ErrAlreadyRegistered = errors.New("remotefs: scheme already registered")

	// Channel errors
	ErrUnavailable = errors.New("remotefs: file unavailable")
	ErrClosed      = errors.New("remotefs: channel already closed")
	ErrInvalid     = errors.New("remotefs: invalid argument")
)

// ReadError wraps a positional read or stat failure with the file it
// happened on. The underlying cause is available through Unwrap.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("remotefs: read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func newReadError(path string, err error) error {
	return &ReadError{Path: path, Err: err}
}
