package fileops

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/catalogbuilder/internal/util/sets"
)

// Memory is an in-memory FileOps keyed by forward-slash paths. Directories
// exist implicitly when a file lives below them.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory creates a Memory pre-populated with files (path -> content).
func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string][]byte, len(files))}
	for p, content := range files {
		m.files[clean(p)] = []byte(content)
	}
	return m
}

func clean(p string) string {
	c := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(c, "./")
}

// Load implements FileOps.
func (m *Memory) Load(_ context.Context, p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[clean(p)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Save implements FileOps.
func (m *Memory) Save(_ context.Context, p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[clean(p)] = append([]byte(nil), data...)
	return nil
}

// IsFile implements FileOps.
func (m *Memory) IsFile(_ context.Context, p string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[clean(p)]
	return ok
}

// IsDir implements FileOps.
func (m *Memory) IsDir(_ context.Context, p string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := dirPrefix(clean(p))
	for name := range m.files {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func dirPrefix(dir string) string {
	if dir == "." || dir == "" {
		return ""
	}
	return dir + "/"
}

// List implements FileOps.
func (m *Memory) List(_ context.Context, dir string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := dirPrefix(clean(dir))
	seen := sets.New[string]()
	for name := range m.files {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[:i]
		}
		seen.Add(rest)
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotFound)
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Files returns a snapshot of all stored files.
func (m *Memory) Files() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.files))
	for p, data := range m.files {
		out[p] = string(data)
	}
	return out
}
