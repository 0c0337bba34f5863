package remotefs

import (
	"context"
	"fmt"
	"sync"

	"github.com/mwantia/remotefs/client"
	"github.com/mwantia/remotefs/data/errors"
	"github.com/mwantia/remotefs/log"
)

// RemoteFileSystem routes channel paths of the form "scheme://key" to the
// client registered for the scheme. It owns the client lifecycles and the
// shared logger; channels opened through it inherit both.
type RemoteFileSystem struct {
	mu      sync.RWMutex
	clients map[string]client.Client
	log     *log.Logger
}

// New creates a filesystem with no clients registered.
func New(opts ...Option) (*RemoteFileSystem, error) {
	options := newDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	return &RemoteFileSystem{
		clients: make(map[string]client.Client),
		log:     log.NewLogger("remotefs", options.LogLevel, options.LogFile, options.NoTerminalLog),
	}, nil
}

// Register attaches a client under the given scheme and runs its Open
// lifecycle hook. Registering an already claimed scheme fails.
func (r *RemoteFileSystem) Register(ctx context.Context, scheme string, cli client.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if scheme == "" {
		return ErrInvalidPath
	}

	if _, exists := r.clients[scheme]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, scheme)
	}

	if err := cli.Open(ctx); err != nil {
		return err
	}

	r.clients[scheme] = cli
	r.log.Info("Registered client '%s' for scheme %s://", cli.Name(), scheme)

	return nil
}

// Unregister detaches the client under the given scheme and runs its Close
// lifecycle hook. Channels already opened through it stay usable until the
// client's Close invalidates them.
func (r *RemoteFileSystem) Unregister(ctx context.Context, scheme string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cli, exists := r.clients[scheme]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNoClient, scheme)
	}

	delete(r.clients, scheme)
	r.log.Info("Unregistered client '%s' for scheme %s://", cli.Name(), scheme)

	return cli.Close(ctx)
}

// OpenChannel resolves the path's scheme to a registered client and opens
// a channel for the key. On failure no handle is produced; callers must
// check the error.
func (r *RemoteFileSystem) OpenChannel(ctx context.Context, path string, opts ...ChannelOption) (*RemoteChannel, error) {
	scheme, key, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	cli, err := r.resolve(scheme)
	if err != nil {
		return nil, err
	}

	opts = append([]ChannelOption{WithChannelLogger(r.log.Named(scheme))}, opts...)
	return NewInstance(ctx, cli, key, opts...)
}

// Shutdown closes every registered client and clears the registry. Close
// failures are collected; shutdown keeps going past them.
func (r *RemoteFileSystem) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	errs := errors.Errors{}
	for scheme, cli := range r.clients {
		if err := cli.Close(ctx); err != nil {
			r.log.Error("Failed to close client '%s' for scheme %s://: %v", cli.Name(), scheme, err)
			errs.Add(err)
		}
		delete(r.clients, scheme)
	}

	return errs.Errors()
}

func (r *RemoteFileSystem) resolve(scheme string) (client.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cli, exists := r.clients[scheme]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoClient, scheme)
	}

	return cli, nil
}
