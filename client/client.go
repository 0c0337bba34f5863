package client

import (
	"context"
	"errors"
)

// Errors every client implementation should surface at the read boundary.
var (
	ErrNotExist = errors.New("remotefs: file does not exist")
	ErrClosed   = errors.New("remotefs: reader already closed")
	ErrInvalid  = errors.New("remotefs: invalid read argument")
	ErrTooLarge = errors.New("remotefs: file exceeds client object size limit")
)

// Client is the filesystem collaborator a channel reads through. It covers
// opening positional readers and answering metadata queries; everything
// else about the remote store stays behind this boundary.
type Client interface {
	// Name returns the identifier name defined for this client.
	Name() string

	// Open is part of the lifecycle behaviour and gets called when the
	// client is registered.
	Open(ctx context.Context) error

	// Close is part of the lifecycle behaviour and gets called when the
	// client is unregistered or the filesystem shuts down.
	Close(ctx context.Context) error

	// OpenReader opens an independent positional reader for the object at
	// key. The bufferSize hint may be ignored by stores that serve ranged
	// reads directly.
	OpenReader(ctx context.Context, key string, bufferSize int) (Reader, error)

	// Stat returns the byte length of the object at key.
	Stat(ctx context.Context, key string) (int64, error)

	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// Reader is one open stream against a single object. A Reader carries no
// shared cursor: every read names its own offset, so concurrent ReadAt
// calls on the same Reader are safe if the underlying store is reentrant.
//
// ReadAt reads up to len(p) bytes starting at off. It may return fewer
// bytes than requested without an error; io.EOF signals the end of the
// object and is not a failure.
type Reader interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	Close() error
}
