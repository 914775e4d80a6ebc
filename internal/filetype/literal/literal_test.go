package literal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/catalogbuilder/internal/filetype"
	"git.home.luguber.info/inful/catalogbuilder/internal/module"
	"git.home.luguber.info/inful/catalogbuilder/internal/policy"
)

const apiYAML = `apiVersion: backstage.io/v1alpha1
kind: API
metadata:
  name: payments-api   # hand written
spec:
  type: openapi
`

func TestKindFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{name: "backstage.api.yaml", want: "API", ok: true},
		{name: "svc/backstage.system.yaml", want: "System", ok: true},
		{name: "my.backstage.component.yaml", want: "Component", ok: true},
		{name: "backstage.yaml", ok: false},
		{name: "backstage.a.b.yaml", ok: false},
		{name: "catalog-info.yaml", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KindFromFilename(tt.name)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLoadAndRenderPassThrough(t *testing.T) {
	ft := FileType()
	require.Equal(t, filetype.ShapeSimple, ft.Shape)
	require.True(t, ft.Match("backstage.api.yaml"))

	rec, err := ft.Load(filetype.Source{PathOffset: "svc/backstage.api.yaml", Content: []byte(apiYAML), Policy: policy.Default()})
	require.NoError(t, err)
	require.Equal(t, "svc/backstage.api.yaml", rec.CatalogName)
	require.Equal(t, "API", rec.Kind)
	require.False(t, rec.HasIdentity())

	doc, err := ft.Simple.Render(rec)
	require.NoError(t, err)
	require.Equal(t, apiYAML, doc.Value)
	require.Equal(t, module.SourceBackstageYAML, doc.SourceType)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	_, err := Load(filetype.Source{PathOffset: "backstage.api.yaml", Content: []byte("a: [1, 2\n")})
	require.ErrorContains(t, err, "parse backstage.api.yaml")
}
