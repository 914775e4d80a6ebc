// Package fileops is the narrow I/O surface of the catalog engine. The engine never opens
// files or sockets itself; it reads descriptors and templates, lists directories and writes
// documents through a FileOps supplied by the caller.
package fileops

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a path or URL does not exist.
var ErrNotFound = errors.New("not found")

// FileOps reads and writes bytes by path or URL.
type FileOps interface {
	// Load reads a local path or an http(s) URL.
	Load(ctx context.Context, pathOrURL string) ([]byte, error)
	// Save writes data to a local path, creating parent directories.
	Save(ctx context.Context, path string, data []byte) error
	IsDir(ctx context.Context, path string) bool
	IsFile(ctx context.Context, path string) bool
	// List returns the entry names of dir in lexical order.
	List(ctx context.Context, dir string) ([]string, error)
}

// IsURL reports whether s should be fetched over HTTP.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Join joins a directory or URL prefix with a forward-slash relative path.
func Join(base, rel string) string {
	if base == "" {
		return rel
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(rel, "/")
}
