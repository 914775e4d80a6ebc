package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
	"git.home.luguber.info/inful/catalogbuilder/internal/templates"
)

func TestCatalogName(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		sourceType string
		dir        string
		want       string
		wantErr    string
	}{
		{name: "root", pattern: DefaultCatalogInfoPattern, sourceType: "maven", dir: ".", want: "catalog-info.maven.yaml"},
		{name: "nested", pattern: DefaultCatalogInfoPattern, sourceType: "npm", dir: "pkgs/a", want: "pkgs/a/catalog-info.npm.yaml"},
		{name: "empty dir", pattern: DefaultCatalogInfoPattern, sourceType: "npm", dir: "", want: "catalog-info.npm.yaml"},
		{name: "custom", pattern: "catalog/<<path>>/<<sourceType>>.yaml", sourceType: "maven", dir: "svc", want: "catalog/svc/maven.yaml"},
		{name: "unknown variable", pattern: "<<path>>/<<owner>>.yaml", sourceType: "maven", dir: "svc", wantErr: "owner"},
		{name: "escapes root", pattern: "../<<path>>/x.yaml", sourceType: "maven", dir: ".", wantErr: "escapes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			p.CatalogInfoPattern = tt.pattern
			got, err := p.CatalogName(tt.sourceType, tt.dir)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCatalogNameMissingVariable(t *testing.T) {
	p := Policy{CatalogInfoPattern: "<<nope>>"}
	_, err := p.CatalogName("maven", ".")
	require.ErrorIs(t, err, templates.ErrMissingVariable)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	files := fileops.NewMemory(map[string]string{
		"policy.json":  `{"name":"custom","catalogInfoPattern":"<<path>>/catalog-info.yaml"}`,
		"partial.json": `{"name":"partial"}`,
		"broken.json":  `{`,
	})

	p, err := Load(ctx, files, "")
	require.NoError(t, err)
	require.Equal(t, Default(), p)

	p, err = Load(ctx, files, "policy.json")
	require.NoError(t, err)
	require.Equal(t, "custom", p.Name)
	require.Equal(t, "Default policy", p.Description)
	name, err := p.CatalogName("maven", "svc")
	require.NoError(t, err)
	require.Equal(t, "svc/catalog-info.yaml", name)

	p, err = Load(ctx, files, "partial.json")
	require.NoError(t, err)
	require.Equal(t, DefaultCatalogInfoPattern, p.CatalogInfoPattern)

	_, err = Load(ctx, files, "broken.json")
	require.ErrorContains(t, err, "parse policy")

	_, err = Load(ctx, files, "missing.json")
	require.ErrorIs(t, err, fileops.ErrNotFound)
}
