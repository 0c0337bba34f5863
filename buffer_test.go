package remotefs_test

import (
	"bytes"
	"testing"

	"github.com/mwantia/remotefs"
)

func TestBuffer_Addressable(t *testing.T) {
	buf := remotefs.NewBuffer(8)

	array, ok := buf.Array()
	if !ok {
		t.Fatal("Expected an addressable backing array")
	}
	if len(array) != 8 {
		t.Fatalf("Expected backing array of 8 bytes, got %d", len(array))
	}

	if buf.Position() != 0 || buf.Limit() != 8 || buf.Capacity() != 8 {
		t.Errorf("Unexpected initial state: position %d, limit %d, capacity %d",
			buf.Position(), buf.Limit(), buf.Capacity())
	}
}

func TestBuffer_Direct(t *testing.T) {
	buf := remotefs.NewDirectBuffer(8)

	if _, ok := buf.Array(); ok {
		t.Fatal("Expected no addressable backing array for a direct buffer")
	}

	n := buf.Put([]byte("abcd"))
	if n != 4 {
		t.Fatalf("Expected 4 bytes put, got %d", n)
	}
	if buf.Position() != 4 || buf.Remaining() != 4 {
		t.Errorf("Expected position 4 and remaining 4, got %d and %d", buf.Position(), buf.Remaining())
	}
	if !bytes.Equal(buf.Bytes(), []byte("abcd")) {
		t.Errorf("Expected window %q, got %q", "abcd", buf.Bytes())
	}
}

func TestBuffer_PutBoundedByLimit(t *testing.T) {
	buf := remotefs.NewBuffer(8)
	buf.SetLimit(3)

	n := buf.Put([]byte("abcdef"))
	if n != 3 {
		t.Fatalf("Expected put bounded to 3 bytes, got %d", n)
	}
	if buf.Remaining() != 0 {
		t.Errorf("Expected no remaining space, got %d", buf.Remaining())
	}
}

func TestBuffer_SetLimitPullsPosition(t *testing.T) {
	buf := remotefs.NewBuffer(8)
	buf.SetPosition(6)
	buf.SetLimit(4)

	if buf.Position() != 4 {
		t.Errorf("Expected position pulled back to 4, got %d", buf.Position())
	}
}
