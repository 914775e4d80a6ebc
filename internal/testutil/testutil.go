// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/require"
)

// WriteTree writes files, keyed by forward-slash relative path, below a fresh
// temporary directory and returns the directory.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return dir
}

// InitRepo initializes a git repository in dir. A non-empty originURL is
// added as the origin remote.
func InitRepo(t *testing.T, dir, originURL string) *git.Repository {
	t.Helper()
	repository, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	if originURL != "" {
		_, err = repository.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{originURL}})
		require.NoError(t, err)
	}
	return repository
}

// AssertFileContains fails unless the file at path exists and contains every want.
func AssertFileContains(t *testing.T, path string, want ...string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "expected file to exist: %s", path)
	for _, w := range want {
		require.Contains(t, string(data), w, "in %s", path)
	}
}

// AssertNotExists fails if anything exists at path.
func AssertNotExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "expected %s not to exist", path)
}
