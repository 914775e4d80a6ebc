package npm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/catalogbuilder/internal/filetype"
	"git.home.luguber.info/inful/catalogbuilder/internal/module"
	"git.home.luguber.info/inful/catalogbuilder/internal/policy"
)

func load(t *testing.T, pathOffset, content string) (*module.Record, error) {
	t.Helper()
	return Load(filetype.Source{PathOffset: pathOffset, Content: []byte(content), Policy: policy.Default()})
}

func TestLoad(t *testing.T) {
	rec, err := load(t, "pkgs/a/package.json", `{
  "name": "@x/a",
  "version": "1.2.3",
  "description": "Package a",
  "repository": {"type": "git", "url": "https://example.com/x/mono.git", "directory": "pkgs/a"},
  "dependencies": {"react": "^18.0.0", "@x/b": "workspace:*"},
  "backstage": {"kind": "Website", "system": "shop", "tier": 2, "public": true}
}`)
	require.NoError(t, err)

	require.Equal(t, module.SourceNPM, rec.SourceType)
	require.Equal(t, "pkgs/a/catalog-info.npm.yaml", rec.CatalogName)
	require.Equal(t, module.Identity{GroupID: "@x", ArtifactID: "a", FullName: "@x/a", Version: "1.2.3"}, rec.Identity)
	require.True(t, rec.Parent.IsNone())
	require.Equal(t, "Package a", rec.Description)
	require.Equal(t, "https://example.com/x/mono.git", rec.SCM)
	require.Equal(t, "Website", rec.Kind)
	require.Equal(t, map[string]string{"kind": "Website", "system": "shop", "tier": "2", "public": "true"}, rec.Properties)
	require.False(t, rec.Ignore)
	require.Equal(t, []module.Identity{
		{GroupID: "@x", ArtifactID: "b", FullName: "@x/b", Version: "workspace:*"},
		{ArtifactID: "react", FullName: "react", Version: "^18.0.0"},
	}, rec.Deps)
}

func TestLoadSCM(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{name: "string repository", json: `{"name":"a","repository":"github:x/mono"}`, want: "github:x/mono"},
		{name: "directory only", json: `{"name":"a","repository":{"directory":"pkgs/a"}}`, want: "pkgs/a"},
		{name: "git field", json: `{"name":"a","repository":{"git":"git@example.com:x.git"}}`, want: "git@example.com:x.git"},
		{name: "none", json: `{"name":"a"}`, want: UnknownSCM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := load(t, "package.json", tt.json)
			require.NoError(t, err)
			require.Equal(t, tt.want, rec.SCM)
		})
	}
}

func TestLoadIgnore(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    bool
		wantErr bool
	}{
		{name: "no name", json: `{"version":"1.0.0"}`, want: true},
		{name: "boolean", json: `{"name":"a","backstage":{"ignore":true}}`, want: true},
		{name: "string", json: `{"name":"a","backstage":{"ignore":"false"}}`, want: false},
		{name: "absent", json: `{"name":"a"}`, want: false},
		{name: "number", json: `{"name":"a","backstage":{"ignore":1}}`, wantErr: true},
		{name: "word", json: `{"name":"a","backstage":{"ignore":"maybe"}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := load(t, "package.json", tt.json)
			if tt.wantErr {
				var kindErr *module.KindError
				require.True(t, errors.As(err, &kindErr))
				require.Equal(t, module.ErrorStructural, kindErr.Kind)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, rec.Ignore)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := load(t, "package.json", `{"name":`)
	var kindErr *module.KindError
	require.True(t, errors.As(err, &kindErr))
	require.Equal(t, module.ErrorLoad, kindErr.Kind)

	_, err = load(t, "package.json", `[1,2]`)
	require.ErrorContains(t, err, "does not hold a JSON object")

	_, err = load(t, "package.json", `{"name":"a","backstage":"x"}`)
	require.ErrorContains(t, err, "backstage in package.json must be an object")
}

func TestPathAncestry(t *testing.T) {
	a, err := load(t, "pkgs/a/package.json", `{"name":"a"}`)
	require.NoError(t, err)
	sub, err := load(t, "pkgs/a/sub/package.json", `{"name":"sub"}`)
	require.NoError(t, err)

	index := FileType().Hierarchical.BuildIndex([]*module.Record{sub, a})
	chain, err := index.Chain(sub)
	require.NoError(t, err)
	require.Equal(t, []*module.Record{a, sub}, chain)

	chain, err = index.Chain(a)
	require.NoError(t, err)
	require.Equal(t, []*module.Record{a}, chain)
}
