package local

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mwantia/remotefs/client"
)

// LocalClient serves positional reads from a directory on the local
// filesystem. Mostly useful for tests and for mixing local files into a
// registry of remote schemes.
type LocalClient struct {
	mu   sync.RWMutex
	root string
}

func NewLocalClient(root string) (*LocalClient, error) {
	return &LocalClient{
		root: filepath.Clean(root),
	}, nil
}

// Returns the identifier name defined for this client.
func (*LocalClient) Name() string {
	return "local"
}

// Open is part of the lifecycle behaviour and gets called when the client is registered.
func (lc *LocalClient) Open(ctx context.Context) error {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	info, err := os.Stat(lc.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return client.ErrNotExist
		}
		return err
	}

	if !info.IsDir() {
		return client.ErrInvalid
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when the client is unregistered.
func (lc *LocalClient) Close(ctx context.Context) error {
	// The underlying filesystem persists independently.
	return nil
}

// OpenReader opens an independent positional reader for the file at key.
// The bufferSize hint has no effect; the OS page cache covers buffering.
func (lc *LocalClient) OpenReader(ctx context.Context, key string, bufferSize int) (client.Reader, error) {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	file, err := os.Open(lc.resolvePath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, client.ErrNotExist
		}
		return nil, err
	}

	return &localReader{file: file}, nil
}

// Stat returns the byte length of the file at key.
func (lc *LocalClient) Stat(ctx context.Context, key string) (int64, error) {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	info, err := os.Stat(lc.resolvePath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, client.ErrNotExist
		}
		return 0, err
	}

	if info.IsDir() {
		return 0, client.ErrInvalid
	}

	return info.Size(), nil
}

// Exists reports whether a file is present at key.
func (lc *LocalClient) Exists(ctx context.Context, key string) (bool, error) {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	if _, err := os.Stat(lc.resolvePath(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// resolvePath joins the client root with the relative key.
func (lc *LocalClient) resolvePath(key string) string {
	return filepath.Join(lc.root, filepath.Clean("/"+key))
}

type localReader struct {
	mu     sync.Mutex
	file   *os.File
	closed bool
}

func (lr *localReader) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	lr.mu.Lock()
	if lr.closed {
		lr.mu.Unlock()
		return 0, client.ErrClosed
	}
	file := lr.file
	lr.mu.Unlock()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	return file.ReadAt(p, off)
}

func (lr *localReader) Close() error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if lr.closed {
		return client.ErrClosed
	}

	lr.closed = true
	return lr.file.Close()
}
