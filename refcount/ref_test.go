package refcount_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mwantia/remotefs/refcount"
)

type testTidy struct {
	runs atomic.Int32
	err  error
}

func (t *testTidy) Name() string {
	return "test"
}

func (t *testTidy) Tidy() error {
	t.runs.Add(1)
	return t.err
}

// TestRef_ReleaseRunsTidyOnce verifies the tidy fires on the last release
// and never again.
func TestRef_ReleaseRunsTidyOnce(t *testing.T) {
	tidy := &testTidy{}
	ref := refcount.New(tidy)

	if err := ref.Retain(); err != nil {
		t.Fatalf("Retain failed: %v", err)
	}

	if err := ref.Release(); err != nil {
		t.Fatalf("First release failed: %v", err)
	}
	if got := tidy.runs.Load(); got != 0 {
		t.Fatalf("Tidy ran with a live holder remaining, runs = %d", got)
	}

	if err := ref.Release(); err != nil {
		t.Fatalf("Last release failed: %v", err)
	}
	if got := tidy.runs.Load(); got != 1 {
		t.Fatalf("Expected exactly one tidy run, got %d", got)
	}

	if err := ref.Release(); !errors.Is(err, refcount.ErrReleased) {
		t.Errorf("Expected ErrReleased on over-release, got %v", err)
	}
	if got := tidy.runs.Load(); got != 1 {
		t.Errorf("Tidy ran again after over-release, runs = %d", got)
	}
}

// TestRef_RetainAfterRelease verifies a dead reference cannot be revived.
func TestRef_RetainAfterRelease(t *testing.T) {
	tidy := &testTidy{}
	ref := refcount.New(tidy)

	if err := ref.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if err := ref.Retain(); !errors.Is(err, refcount.ErrReleased) {
		t.Errorf("Expected ErrReleased on retain after zero, got %v", err)
	}
}

// TestRef_TidyError verifies the tidy's error reaches the final releaser.
func TestRef_TidyError(t *testing.T) {
	want := errors.New("close failed")
	tidy := &testTidy{err: want}
	ref := refcount.New(tidy)

	if err := ref.Release(); !errors.Is(err, want) {
		t.Errorf("Expected tidy error %v, got %v", want, err)
	}
}

// TestRef_ConcurrentRelease verifies exactly one releaser among many
// concurrent ones runs the tidy.
func TestRef_ConcurrentRelease(t *testing.T) {
	const holders = 128

	tidy := &testTidy{}
	ref := refcount.New(tidy)

	for range holders - 1 {
		if err := ref.Retain(); err != nil {
			t.Fatalf("Retain failed: %v", err)
		}
	}

	var wg sync.WaitGroup
	for range holders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ref.Release(); err != nil {
				t.Errorf("Release failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := tidy.runs.Load(); got != 1 {
		t.Errorf("Expected exactly one tidy run, got %d", got)
	}
	if got := ref.Count(); got != 0 {
		t.Errorf("Expected count 0, got %d", got)
	}
}

// TestRef_ConcurrentRetainRelease stresses mixed retain/release traffic.
func TestRef_ConcurrentRetainRelease(t *testing.T) {
	const workers = 64

	tidy := &testTidy{}
	ref := refcount.New(tidy)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if err := ref.Retain(); err != nil {
					t.Errorf("Retain failed: %v", err)
					return
				}
				if err := ref.Release(); err != nil {
					t.Errorf("Release failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := tidy.runs.Load(); got != 0 {
		t.Fatalf("Tidy ran while the creator still holds, runs = %d", got)
	}

	if err := ref.Release(); err != nil {
		t.Fatalf("Final release failed: %v", err)
	}
	if got := tidy.runs.Load(); got != 1 {
		t.Errorf("Expected exactly one tidy run, got %d", got)
	}
}
