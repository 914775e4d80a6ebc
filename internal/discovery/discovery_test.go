package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype/literal"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype/maven"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype/npm"
)

func registry() *filetype.Registry {
	return filetype.MustRegistry(maven.FileType(), npm.FileType(), literal.FileType())
}

func offsets(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.PathOffset + " " + string(m.FileType.SourceType)
	}
	return out
}

func TestDiscover(t *testing.T) {
	files := fileops.NewMemory(map[string]string{
		"repo/pom.xml":                         "",
		"repo/README.md":                       "",
		"repo/svc/pom.xml":                     "",
		"repo/svc/backstage.api.yaml":          "",
		"repo/svc/target/pom.xml":              "",
		"repo/web/package.json":                "",
		"repo/web/node_modules/x/package.json": "",
		"repo/.git/config":                     "",
		"repo/a/b/c/package.json":              "",
		"repo/build/generated/pom.xml":         "",
	})
	skip, err := NewSkipper([]string{"build/**"})
	require.NoError(t, err)

	matches, err := Discover(context.Background(), files, "repo", registry(), skip)
	require.NoError(t, err)
	require.Equal(t, []string{
		"pom.xml maven",
		"a/b/c/package.json npm",
		"svc/backstage.api.yaml backstageyaml",
		"svc/pom.xml maven",
		"web/package.json npm",
	}, offsets(matches))
}

func TestDiscoverOnDisk(t *testing.T) {
	root := t.TempDir()
	write := func(rel string) {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o600))
	}
	write("pkgs/a/package.json")
	write("pkgs/a/sub/package.json")
	write("node_modules/left-pad/package.json")
	write("docs/site/package.json")

	skip, err := NewSkipper([]string{"docs"})
	require.NoError(t, err)
	matches, err := Discover(context.Background(), fileops.NewOS(nil), root, registry(), skip)
	require.NoError(t, err)
	require.Equal(t, []string{"pkgs/a/package.json npm", "pkgs/a/sub/package.json npm"}, offsets(matches))
}

func TestDiscoverErrors(t *testing.T) {
	_, err := Discover(context.Background(), fileops.NewMemory(nil), "missing", registry(), nil)
	require.ErrorContains(t, err, "not a directory")

	_, err = NewSkipper([]string{"[unclosed"})
	require.ErrorContains(t, err, "invalid skip pattern")
}

func TestSkipper(t *testing.T) {
	var none *Skipper
	require.True(t, none.Skip("a/.git"))
	require.False(t, none.Skip("src"))

	s, err := NewSkipper([]string{"*/fixtures", "dist"})
	require.NoError(t, err)
	require.True(t, s.Skip("test/fixtures"))
	require.False(t, s.Skip("a/test/fixtures/deeper"))
	require.True(t, s.Skip("web/dist"))
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	files := fileops.NewMemory(map[string]string{
		"repo/a.yaml":     "",
		"repo/b/c.yaml":   "",
		"repo/target/x":   "",
		"repo/b/d/e.yaml": "",
	})

	var seen []string
	require.NoError(t, Walk(context.Background(), files, "repo", nil, func(rel string) error {
		seen = append(seen, rel)
		return nil
	}))
	require.Equal(t, []string{"a.yaml", "b/c.yaml", "b/d/e.yaml"}, seen)

	stop := errors.New("stop")
	err := Walk(context.Background(), files, "repo", nil, func(string) error { return stop })
	require.ErrorIs(t, err, stop)
}
