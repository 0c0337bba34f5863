package memory

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/mwantia/remotefs/client"
	"github.com/tidwall/btree"
)

// MemoryClient keeps objects in memory. Readers snapshot the object they
// were opened against, so a later Put or Delete under the same key does
// not disturb an already open reader, matching the behaviour of a remote
// store where an open stream outlives the catalog entry.
type MemoryClient struct {
	mu sync.RWMutex

	keys    *btree.Map[string, string]
	objects map[string]*object

	maxRead int
	metrics map[string]uint64
}

type object struct {
	id   string
	data []byte
}

type Option func(*MemoryClient)

// WithMaxReadSize caps the bytes a single reader call returns, forcing
// short reads. Useful for exercising read loops in tests.
func WithMaxReadSize(size int) Option {
	return func(mc *MemoryClient) {
		mc.maxRead = size
	}
}

func NewMemoryClient(opts ...Option) *MemoryClient {
	mc := &MemoryClient{
		keys:    btree.NewMap[string, string](0),
		objects: make(map[string]*object),
		metrics: make(map[string]uint64),
	}

	for _, opt := range opts {
		opt(mc)
	}

	return mc
}

// Returns the identifier name defined for this client.
func (*MemoryClient) Name() string {
	return "memory"
}

// Open is part of the lifecycle behaviour and gets called when the client is registered.
func (mc *MemoryClient) Open(ctx context.Context) error {
	return nil
}

// Close is part of the lifecycle behaviour and gets called when the client is unregistered.
func (mc *MemoryClient) Close(ctx context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.keys.Clear()
	for k := range mc.objects {
		delete(mc.objects, k)
	}

	return nil
}

// Put stores data under key, replacing any previous object.
func (mc *MemoryClient) Put(key string, data []byte) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	obj := &object{
		id:   uuid.Must(uuid.NewV7()).String(),
		data: append([]byte(nil), data...),
	}

	if id, exists := mc.keys.Get(key); exists {
		delete(mc.objects, id)
	}

	mc.keys.Set(key, obj.id)
	mc.objects[obj.id] = obj
}

// Delete removes the object under key. Open readers keep their snapshot.
func (mc *MemoryClient) Delete(key string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if id, exists := mc.keys.Get(key); exists {
		mc.keys.Delete(key)
		delete(mc.objects, id)
	}
}

// OpenReader opens an independent positional reader for the object at key.
// The bufferSize hint has no effect for in-memory objects.
func (mc *MemoryClient) OpenReader(ctx context.Context, key string, bufferSize int) (client.Reader, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics["open_reader"]++

	obj, exists := mc.lookup(key)
	if !exists {
		return nil, client.ErrNotExist
	}

	return &memoryReader{client: mc, obj: obj}, nil
}

// Stat returns the byte length of the object at key.
func (mc *MemoryClient) Stat(ctx context.Context, key string) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics["stat"]++

	obj, exists := mc.lookup(key)
	if !exists {
		return 0, client.ErrNotExist
	}

	return int64(len(obj.data)), nil
}

// Exists reports whether an object is present at key.
func (mc *MemoryClient) Exists(ctx context.Context, key string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics["exists"]++

	_, exists := mc.lookup(key)
	return exists, nil
}

// Metrics returns the internal call counts since creation, keyed by
// operation. Relevant for testing and debugging.
func (mc *MemoryClient) Metrics() map[string]uint64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	metrics := make(map[string]uint64, len(mc.metrics))
	for k, v := range mc.metrics {
		metrics[k] = v
	}

	return metrics
}

// lookup resolves key to its live object. Must be called with lock held.
func (mc *MemoryClient) lookup(key string) (*object, bool) {
	id, exists := mc.keys.Get(key)
	if !exists {
		return nil, false
	}

	obj, exists := mc.objects[id]
	return obj, exists
}

func (mc *MemoryClient) count(metric string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics[metric]++
}

type memoryReader struct {
	mu     sync.Mutex
	client *MemoryClient
	obj    *object
	closed bool
}

// ReadAt copies up to len(p) bytes from the snapshot at off. The result is
// clamped to the client's max read size, producing a short read with no
// error while more data remains.
func (mr *memoryReader) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if mr.closed {
		return 0, client.ErrClosed
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	mr.client.count("read")

	size := int64(len(mr.obj.data))
	if off < 0 {
		return 0, client.ErrInvalid
	}
	if off >= size {
		return 0, io.EOF
	}

	want := int64(len(p))
	if mr.client.maxRead > 0 && want > int64(mr.client.maxRead) {
		want = int64(mr.client.maxRead)
	}
	if off+want > size {
		want = size - off
	}

	n := copy(p, mr.obj.data[off:off+want])
	if off+int64(n) >= size && n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (mr *memoryReader) Close() error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if mr.closed {
		return client.ErrClosed
	}

	mr.closed = true
	mr.client.count("close_reader")

	return nil
}
