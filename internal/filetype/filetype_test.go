package filetype_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype/literal"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype/maven"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype/npm"
	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
	"git.home.luguber.info/inful/catalogbuilder/internal/hierarchy"
	"git.home.luguber.info/inful/catalogbuilder/internal/module"
	"git.home.luguber.info/inful/catalogbuilder/internal/templates"
)

func TestRegistryOrdersByPrecedence(t *testing.T) {
	reg, err := filetype.NewRegistry(npm.FileType(), maven.FileType(), literal.FileType())
	require.NoError(t, err)
	require.Equal(t, []string{"backstageyaml", "maven", "npm"}, reg.Names())

	ft, ok := reg.Match("pom.xml")
	require.True(t, ok)
	require.Equal(t, module.SourceMaven, ft.SourceType)

	_, ok = reg.Match("README.md")
	require.False(t, ok)
}

func TestRegistryPrecedenceDecidesOverlaps(t *testing.T) {
	greedy := literal.FileType()
	greedy.SourceType = "greedy"
	greedy.Precedence = 5
	greedy.Match = func(string) bool { return true }

	reg, err := filetype.NewRegistry(maven.FileType(), greedy)
	require.NoError(t, err)
	ft, ok := reg.Match("pom.xml")
	require.True(t, ok)
	require.Equal(t, module.SourceType("greedy"), ft.SourceType)
}

func TestRegistryRejectsAmbiguity(t *testing.T) {
	_, err := filetype.NewRegistry(maven.FileType(), maven.FileType())
	require.ErrorContains(t, err, "registered twice")

	clash := npm.FileType()
	clash.SourceType = "yarn"
	clash.Precedence = maven.Precedence
	_, err = filetype.NewRegistry(maven.FileType(), clash)
	require.ErrorContains(t, err, "share precedence")
}

func TestRegistryRejectsMismatchedShape(t *testing.T) {
	broken := maven.FileType()
	broken.Shape = filetype.ShapeSimple
	_, err := filetype.NewRegistry(broken)
	require.ErrorContains(t, err, "simple shape")

	broken = literal.FileType()
	broken.Shape = filetype.Shape(0)
	_, err = filetype.NewRegistry(broken)
	require.ErrorContains(t, err, "unknown shape(0)")
}

func TestRegistryFilter(t *testing.T) {
	reg := filetype.MustRegistry(maven.FileType(), npm.FileType(), literal.FileType())

	same, err := reg.Filter(nil)
	require.NoError(t, err)
	require.Equal(t, reg.Names(), same.Names())

	only, err := reg.Filter([]string{"npm"})
	require.NoError(t, err)
	require.Equal(t, []string{"npm"}, only.Names())

	_, err = reg.Filter([]string{"gradle", "npm", "cargo"})
	require.ErrorIs(t, err, filetype.ErrUnknownFileType)
	require.EqualError(t, err, "unknown file types: gradle, cargo")
}

func TestRenderChain(t *testing.T) {
	files := fileops.NewMemory(map[string]string{
		"tpl/maven/default.template.yaml": "name: <<artifactId>>\nowner: <<owner>>\n<<dependsOn>>",
	})
	env := filetype.Env{
		Templates: templates.NewStore(files, "tpl"),
		Defaults:  map[string]string{"owner": "team"},
	}
	parent := &module.Record{SourceType: module.SourceMaven, Identity: module.NewIdentity("com.x", "parent", "1")}
	child := &module.Record{
		SourceType:  module.SourceMaven,
		PathOffset:  "parent/child/pom.xml",
		CatalogName: "parent/child/catalog-info.maven.yaml",
		Identity:    module.NewIdentity("com.x", "child", "1"),
		Kind:        "Unusual",
	}

	doc, err := filetype.RenderChain(context.Background(), env, []*module.Record{parent, child})
	require.NoError(t, err)
	require.Equal(t, "name: child\nowner: team\n", doc.Value)
	require.Equal(t, "parent/child/catalog-info.maven.yaml", doc.CatalogName)

	env.Defaults = nil
	_, err = filetype.RenderChain(context.Background(), env, []*module.Record{child})
	require.ErrorIs(t, err, templates.ErrMissingVariable)
	require.ErrorContains(t, err, "com.x.child")

	npmChild := *child
	npmChild.SourceType = module.SourceNPM
	_, err = filetype.RenderChain(context.Background(), env, []*module.Record{&npmChild})
	require.ErrorIs(t, err, templates.ErrTemplateNotFound)
}

func TestIndexReportsCycles(t *testing.T) {
	a := &module.Record{PathOffset: "a/pom.xml", Identity: module.NewIdentity("g", "a", "1")}
	b := &module.Record{PathOffset: "b/pom.xml", Identity: module.NewIdentity("g", "b", "1")}
	a.Parent = foundation.Some(b.Identity)
	b.Parent = foundation.Some(a.Identity)

	index := filetype.ReferenceIndex([]*module.Record{a, b})
	_, err := index.Chain(a)
	require.ErrorIs(t, err, hierarchy.ErrCyclicParentChain)

	wrapped := module.Wrap("chain", a.PathOffset, module.ErrorInternal)(err)
	require.Equal(t, module.ErrorResolution, wrapped.Kind)

	_, err = index.Chain(&module.Record{PathOffset: "elsewhere/pom.xml"})
	require.ErrorContains(t, err, "not indexed")
}
