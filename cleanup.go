package remotefs

import (
	"sync"

	"github.com/mwantia/remotefs/client"
	"github.com/mwantia/remotefs/log"
)

// cleanup is the single finalizer bound to a channel's ownership counter.
// It closes the channel's current reader exactly once, when the last
// holder releases. The reader reference is swapped on reopen so cleanup
// always closes the live stream, never a stale one.
type cleanup struct {
	mu     sync.Mutex
	path   string
	reader client.Reader
	log    *log.Logger
}

func newCleanup(path string, reader client.Reader, logger *log.Logger) *cleanup {
	return &cleanup{
		path:   path,
		reader: reader,
		log:    logger,
	}
}

func (c *cleanup) Name() string {
	return c.path
}

// Tidy closes the current reader. Close failures are logged and never
// propagated; cleanup runs during teardown where no caller remains to
// observe a fault.
func (c *cleanup) Tidy() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reader == nil {
		return nil
	}

	c.log.Debug("Cleaning up channel for file %s", c.path)

	if err := c.reader.Close(); err != nil {
		c.log.Error("Failed to close reader for file %s: %v", c.path, err)
	}

	c.reader = nil
	return nil
}

// swap installs the reader opened by a reopen.
// Precondition: the previous reader was already closed by the caller.
func (c *cleanup) swap(reader client.Reader) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reader = reader
}
