package remotefs

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/mwantia/remotefs/client"
	"github.com/mwantia/remotefs/log"
	"github.com/mwantia/remotefs/refcount"
)

// maxChunkSize caps a single loop iteration when the remaining file bytes
// exceed what one read call can address.
const maxChunkSize = math.MaxInt32

// RemoteChannel is a reference-counted handle to one remote file. Many
// logical readers may share a handle through Retain/Close; the underlying
// reader is closed exactly once, when the last holder releases.
//
// A handle owns at most one open reader at a time. Because remote readers
// cannot be shared across independent callers, SharedCopy opens a second
// reader against the same file instead of sharing state.
type RemoteChannel struct {
	mu sync.RWMutex

	client client.Client
	path   string
	reader client.Reader

	bufferSize int
	cleanup    *cleanup
	ref        *refcount.Ref
	log        *log.Logger

	// length caches the file size, -1 until known. exists flips to true at
	// most once; a negative result is never cached.
	length atomic.Int64
	exists atomic.Bool
}

var _ Channel = (*RemoteChannel)(nil)

// NewInstance opens a channel for the file at path through the given
// client. The path is normalized, a reader is opened with the configured
// buffer size hint, and the file length is computed and cached eagerly.
// On failure no handle is produced; callers must check the error.
func NewInstance(ctx context.Context, cli client.Client, path string, opts ...ChannelOption) (*RemoteChannel, error) {
	options := newDefaultChannelOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	logger := options.Logger
	if logger == nil {
		logger = log.Discard()
	}

	path = cleanKey(path)
	if path == "" {
		return nil, ErrInvalidPath
	}

	reader, err := cli.OpenReader(ctx, path, options.BufferSize)
	if err != nil {
		logger.Error("Failed to open reader for file %s: %v", path, err)
		return nil, errors.Join(ErrUnavailable, err)
	}

	rc := &RemoteChannel{
		client:     cli,
		path:       path,
		reader:     reader,
		bufferSize: options.BufferSize,
		cleanup:    newCleanup(path, reader, logger),
		log:        logger,
	}
	rc.length.Store(-1)
	rc.ref = refcount.New(rc.cleanup)

	if _, err := rc.Size(ctx); err != nil {
		logger.Error("Failed to stat file %s: %v", path, err)
		rc.ref.Release()
		return nil, errors.Join(ErrUnavailable, err)
	}

	return rc, nil
}

// FilePath returns the canonical path of the file.
func (rc *RemoteChannel) FilePath() string {
	return rc.path
}

func (rc *RemoteChannel) String() string {
	return rc.path
}

// Size returns the cached file length, statting the file through the
// client on the first call. Stat failures surface as a ReadError.
func (rc *RemoteChannel) Size(ctx context.Context) (int64, error) {
	if length := rc.length.Load(); length != -1 {
		return length, nil
	}

	length, err := rc.client.Stat(ctx, rc.path)
	if err != nil {
		return 0, newReadError(rc.path, err)
	}

	rc.length.Store(length)
	return length, nil
}

// Exists reports whether the file is present. A positive result is cached
// for the lifetime of the handle; a negative or failed query is asked
// again on the next call.
func (rc *RemoteChannel) Exists(ctx context.Context) bool {
	if rc.exists.Load() {
		return true
	}

	ok, err := rc.client.Exists(ctx, rc.path)
	if err != nil {
		rc.log.Error("Failed to check existence of file %s: %v", rc.path, err)
		return false
	}

	if ok {
		rc.exists.Store(true)
	}

	return ok
}

// ReadAt reads up to len(p) bytes starting at position into p. The count
// is clamped to the cached file length: a read crossing the end of the
// file returns a short count and no error. Failures surface as ReadError.
func (rc *RemoteChannel) ReadAt(ctx context.Context, p []byte, position int64) (int, error) {
	n, err := rc.read(ctx, position, p, 0, len(p))
	if err != nil {
		return n, newReadError(rc.path, err)
	}

	return n, nil
}

// ReadBuffer fills buf starting at position. For an addressable buffer the
// read lands in the backing array at offset zero, the limit is reset to
// the capacity and the position to the bytes read. A non-addressable
// buffer is filled through a staging array put at its current position.
func (rc *RemoteChannel) ReadBuffer(ctx context.Context, buf *Buffer, position int64) (int, error) {
	if array, ok := buf.Array(); ok {
		n, err := rc.read(ctx, position, array, 0, buf.Limit())
		if err != nil {
			return n, newReadError(rc.path, err)
		}

		buf.SetLimit(buf.Capacity())
		buf.SetPosition(n)
		return n, nil
	}

	staging := make([]byte, buf.Capacity())
	n, err := rc.read(ctx, position, staging, 0, buf.Limit())
	if err != nil {
		return n, newReadError(rc.path, err)
	}

	buf.Put(staging[:n])
	return n, nil
}

// read is the positional read loop. One underlying call may return fewer
// bytes than requested, so the loop accumulates until length bytes were
// read, the cached file length is exhausted, or the reader signals EOF.
func (rc *RemoteChannel) read(ctx context.Context, position int64, p []byte, offset, length int) (int, error) {
	reader := rc.currentReader()
	readBytes := 0

	for readBytes < length {
		remaining := rc.length.Load() - position - int64(readBytes)
		if remaining > maxChunkSize {
			remaining = maxChunkSize
		}

		want := min(length-readBytes, int(remaining))
		if want <= 0 {
			return readBytes, nil
		}

		n, err := reader.ReadAt(ctx, p[offset+readBytes:offset+readBytes+want], position+int64(readBytes))
		readBytes += n

		if errors.Is(err, io.EOF) {
			return readBytes, nil
		}
		if err != nil {
			return readBytes, err
		}
		// A zero-byte result without an error or EOF would loop forever.
		if n == 0 {
			return readBytes, nil
		}
	}

	return readBytes, nil
}

// SharedCopy opens an independent handle for the same file: a brand-new
// reader with its own cleanup and ownership counter, so both handles read
// the same file without disturbing each other and close independently.
// Unlike Size and Exists the caller asked for a usable duplicate, so a
// failure to open the new reader is returned, not degraded.
func (rc *RemoteChannel) SharedCopy(ctx context.Context) (*RemoteChannel, error) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	reader, err := rc.client.OpenReader(ctx, rc.path, rc.bufferSize)
	if err != nil {
		rc.log.Error("Failed to open reader for copy of file %s: %v", rc.path, err)
		return nil, newReadError(rc.path, err)
	}

	dup := &RemoteChannel{
		client:     rc.client,
		path:       rc.path,
		reader:     reader,
		bufferSize: rc.bufferSize,
		cleanup:    newCleanup(rc.path, reader, rc.log),
		log:        rc.log,
	}
	dup.length.Store(rc.length.Load())
	if rc.exists.Load() {
		dup.exists.Store(true)
	}
	dup.ref = refcount.New(dup.cleanup)

	return dup, nil
}

// Reopen replaces the live reader with a freshly opened one and points the
// cleanup at it, so eventual cleanup closes the new reader. Close and open
// failures are logged and swallowed: reopen must make progress even under
// partial failure, and on an open failure the handle keeps its previous,
// now possibly broken, reader. Callers must drain in-flight reads first.
func (rc *RemoteChannel) Reopen(ctx context.Context) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if err := rc.reader.Close(); err != nil {
		rc.log.Warn("Failed to close stale reader for file %s: %v", rc.path, err)
	}

	reader, err := rc.client.OpenReader(ctx, rc.path, rc.bufferSize)
	if err != nil {
		rc.log.Error("Failed to reopen reader for file %s: %v", rc.path, err)
		return
	}

	rc.reader = reader
	rc.cleanup.swap(reader)
}

// Retain adds a holder to the handle. It fails with ErrClosed once the
// last holder already released.
func (rc *RemoteChannel) Retain() error {
	if err := rc.ref.Retain(); err != nil {
		return ErrClosed
	}

	return nil
}

// Close releases one holder. The reader is closed exactly once, by the
// release that drops the last holder; later calls fail with ErrClosed.
func (rc *RemoteChannel) Close() error {
	if err := rc.ref.Release(); err != nil {
		if errors.Is(err, refcount.ErrReleased) {
			return ErrClosed
		}
		return err
	}

	return nil
}

func (rc *RemoteChannel) currentReader() client.Reader {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	return rc.reader
}
