package local_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwantia/remotefs/client"
	"github.com/mwantia/remotefs/client/local"
)

func TestLocalClient_ReadAndStat(t *testing.T) {
	ctx := t.Context()
	root := t.TempDir()

	content := []byte("hello world")
	if err := os.WriteFile(filepath.Join(root, "test.txt"), content, 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	lc, err := local.NewLocalClient(root)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := lc.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer lc.Close(ctx)

	size, err := lc.Stat(ctx, "test.txt")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d", len(content), size)
	}

	reader, err := lc.OpenReader(ctx, "test.txt", 0)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer reader.Close()

	buf := make([]byte, 5)
	n, err := reader.ReadAt(ctx, buf, 6)
	if err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if n != 5 || !bytes.Equal(buf, []byte("world")) {
		t.Errorf("Expected %q, got %d bytes %q", "world", n, buf[:n])
	}
}

func TestLocalClient_Missing(t *testing.T) {
	ctx := t.Context()

	lc, err := local.NewLocalClient(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := lc.Stat(ctx, "missing.txt"); !errors.Is(err, client.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}

	exists, err := lc.Exists(ctx, "missing.txt")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Expected missing file to not exist")
	}

	if _, err := lc.OpenReader(ctx, "missing.txt", 0); !errors.Is(err, client.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
}
