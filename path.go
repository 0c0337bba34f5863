package remotefs

import (
	"path"
	"strings"
)

// SplitPath splits a "scheme://key" channel path into its scheme and the
// client-relative key. The key comes back normalized.
func SplitPath(p string) (string, string, error) {
	scheme, rest, found := strings.Cut(p, "://")
	if !found || scheme == "" {
		return "", "", ErrInvalidPath
	}

	key := cleanKey(rest)
	if key == "" {
		return "", "", ErrInvalidPath
	}

	return scheme, key, nil
}

// cleanKey collapses duplicate separators and dot segments and strips any
// leading slash, producing the canonical client-relative key.
func cleanKey(key string) string {
	key = path.Clean("/" + key)
	return strings.TrimPrefix(key, "/")
}
