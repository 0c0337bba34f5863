package remotefs

import "context"

// DefaultBufferSize is the buffer size hint used when a channel is opened
// without an explicit override.
const DefaultBufferSize = 65536

// Channel is the capability set every readable channel implementation
// exposes. Implementations must not expose a shared stream cursor: every
// read names its own offset, which is what keeps concurrent readers safe.
type Channel interface {
	// Size returns the byte length of the file.
	Size(ctx context.Context) (int64, error)

	// ReadAt reads up to len(p) bytes starting at position into p. A read
	// crossing the end of the file returns a short count, not an error.
	ReadAt(ctx context.Context, p []byte, position int64) (int, error)

	// FilePath returns the stable path identifying the file, suitable for
	// logging and equality checks.
	FilePath() string

	// Reopen replaces the underlying stream with a freshly opened one.
	// Implementations without reopen support treat this as a no-op.
	Reopen(ctx context.Context)
}
