package refcount

import (
	"errors"
	"sync/atomic"
)

// ErrReleased is returned when a Ref is retained or released after its
// count already reached zero.
var ErrReleased = errors.New("refcount: reference already released")

// Tidy is the single deferred cleanup action bound to a Ref. It runs at
// most once, on the release that drops the count to zero.
type Tidy interface {
	// Name returns an identifier for the guarded resource, used for logging.
	Name() string

	// Tidy releases the guarded resource.
	Tidy() error
}

// Ref tracks how many live holders share one logical resource.
// A new Ref starts with a count of one, held by the creator.
type Ref struct {
	count atomic.Int32
	tidy  Tidy
}

// New creates a Ref guarding tidy with an initial count of one.
func New(tidy Tidy) *Ref {
	r := &Ref{tidy: tidy}
	r.count.Store(1)
	return r
}

// Retain adds a holder. It fails with ErrReleased once the count has
// reached zero; a dead reference can never be revived.
func (r *Ref) Retain() error {
	for {
		c := r.count.Load()
		if c <= 0 {
			return ErrReleased
		}
		if r.count.CompareAndSwap(c, c+1) {
			return nil
		}
	}
}

// Release drops one holder. Exactly one releaser observes the transition
// to zero and runs the tidy; every later call fails with ErrReleased.
func (r *Ref) Release() error {
	for {
		c := r.count.Load()
		if c <= 0 {
			return ErrReleased
		}
		if r.count.CompareAndSwap(c, c-1) {
			if c == 1 && r.tidy != nil {
				return r.tidy.Tidy()
			}
			return nil
		}
	}
}

// Count returns the current number of holders.
func (r *Ref) Count() int32 {
	return r.count.Load()
}
