package consul

import (
	"context"
	"io"
	"path"
	"sync"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/remotefs/client"
)

// maxValueSize is the Consul KV limit per value. Objects above it cannot
// be stored through this client.
const maxValueSize = 512 * 1024

// ConsulClient serves positional reads from the Consul KV store. Each
// object lives in a single KV entry, which bounds it to 512KB; the client
// suits configuration files and small assets, not bulk data.
type ConsulClient struct {
	mu     sync.RWMutex
	kv     *api.KV
	config *ConsulClientConfig
}

// ConsulClientConfig contains configuration options for the Consul client.
type ConsulClientConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Prefix applied to all keys in Consul KV (optional)
	Prefix string
}

func NewConsulClient(config *ConsulClientConfig) (*ConsulClient, error) {
	if config == nil {
		config = &ConsulClientConfig{}
	}

	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}

	c, err := api.NewClient(&api.Config{
		Address:    config.Address,
		Token:      config.Token,
		Datacenter: config.Datacenter,
	})
	if err != nil {
		return nil, err
	}

	return &ConsulClient{
		kv:     c.KV(),
		config: config,
	}, nil
}

// Returns the identifier name defined for this client.
func (*ConsulClient) Name() string {
	return "consul"
}

// Open is part of the lifecycle behaviour and gets called when the client is registered.
func (cc *ConsulClient) Open(ctx context.Context) error {
	// Probe the KV endpoint so misconfiguration fails at registration.
	_, _, err := cc.kv.Get(cc.resolveKey("."), (&api.QueryOptions{}).WithContext(ctx))
	return err
}

// Close is part of the lifecycle behaviour and gets called when the client is unregistered.
func (cc *ConsulClient) Close(ctx context.Context) error {
	return nil
}

// Put stores data under key, replacing any previous value.
func (cc *ConsulClient) Put(ctx context.Context, key string, data []byte) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if len(data) > maxValueSize {
		return client.ErrTooLarge
	}

	pair := &api.KVPair{
		Key:   cc.resolveKey(key),
		Value: data,
	}

	_, err := cc.kv.Put(pair, (&api.WriteOptions{}).WithContext(ctx))
	return err
}

// OpenReader opens an independent positional reader for the value at key.
// The reader snapshots the value at open, matching a remote stream whose
// contents do not shift under an open handle. The bufferSize hint has no
// effect.
func (cc *ConsulClient) OpenReader(ctx context.Context, key string, bufferSize int) (client.Reader, error) {
	value, err := cc.fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	return &consulReader{value: value}, nil
}

// Stat returns the byte length of the value at key.
func (cc *ConsulClient) Stat(ctx context.Context, key string) (int64, error) {
	value, err := cc.fetch(ctx, key)
	if err != nil {
		return 0, err
	}

	return int64(len(value)), nil
}

// Exists reports whether a value is present at key.
func (cc *ConsulClient) Exists(ctx context.Context, key string) (bool, error) {
	_, err := cc.fetch(ctx, key)
	if err == client.ErrNotExist {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (cc *ConsulClient) fetch(ctx context.Context, key string) ([]byte, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	pair, _, err := cc.kv.Get(cc.resolveKey(key), (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}

	if pair == nil {
		return nil, client.ErrNotExist
	}

	return pair.Value, nil
}

func (cc *ConsulClient) resolveKey(key string) string {
	if cc.config.Prefix == "" {
		return key
	}

	return path.Join(cc.config.Prefix, key)
}

type consulReader struct {
	mu     sync.Mutex
	value  []byte
	closed bool
}

func (cr *consulReader) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.closed {
		return 0, client.ErrClosed
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	if off < 0 {
		return 0, client.ErrInvalid
	}
	if off >= int64(len(cr.value)) {
		return 0, io.EOF
	}

	n := copy(p, cr.value[off:])
	if off+int64(n) >= int64(len(cr.value)) && n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (cr *consulReader) Close() error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.closed {
		return client.ErrClosed
	}

	cr.closed = true
	cr.value = nil

	return nil
}
