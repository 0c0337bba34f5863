package remotefs_test

import (
	"errors"
	"testing"

	"github.com/mwantia/remotefs"
)

func TestSplitPath(t *testing.T) {
	cases := []struct {
		path   string
		scheme string
		key    string
		err    error
	}{
		{"s3://bucket/data/file.bin", "s3", "bucket/data/file.bin", nil},
		{"memory://a//b/../c", "memory", "a/c", nil},
		{"local:///leading/slash", "local", "leading/slash", nil},
		{"no-scheme/path", "", "", remotefs.ErrInvalidPath},
		{"://missing", "", "", remotefs.ErrInvalidPath},
		{"s3://", "", "", remotefs.ErrInvalidPath},
		{"s3://.", "", "", remotefs.ErrInvalidPath},
	}

	for _, c := range cases {
		scheme, key, err := remotefs.SplitPath(c.path)
		if !errors.Is(err, c.err) {
			t.Errorf("SplitPath(%q): expected error %v, got %v", c.path, c.err, err)
			continue
		}
		if scheme != c.scheme || key != c.key {
			t.Errorf("SplitPath(%q): expected (%q, %q), got (%q, %q)", c.path, c.scheme, c.key, scheme, key)
		}
	}
}
