package locations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
	"git.home.luguber.info/inful/catalogbuilder/internal/module"
	"git.home.luguber.info/inful/catalogbuilder/internal/templates"
)

func rec(pathOffset, catalogName, fullName string) *module.Record {
	return &module.Record{
		PathOffset:  pathOffset,
		CatalogName: catalogName,
		Identity:    module.Identity{ArtifactID: fullName, FullName: fullName},
	}
}

func plan(t *testing.T, in Input) ([]Location, []*module.ErrorRecord) {
	t.Helper()
	return foundation.Partition(Plan(in))
}

func TestPlanSingleTreeAtRoot(t *testing.T) {
	ignored := rec("svc/legacy/pom.xml", "svc/legacy/catalog-info.maven.yaml", "com.x.legacy")
	ignored.Ignore = true
	records := []*module.Record{
		rec("pom.xml", "catalog-info.maven.yaml", "com.x.parent"),
		rec("svc/pom.xml", "svc/catalog-info.maven.yaml", "com.x.svc"),
		rec("svc/backstage.api.yaml", "svc/backstage.api.yaml", ""),
		ignored,
		rec("web/package.json", "web/catalog-info.npm.yaml", "web"),
	}

	locs, errs := plan(t, Input{Records: records})
	require.Empty(t, errs)
	require.Equal(t, []Location{{
		Path: "catalog-info.yaml",
		Name: "com.x.parent",
		Targets: []string{
			"./catalog-info.maven.yaml",
			"./svc/catalog-info.maven.yaml",
			"./svc/backstage.api.yaml",
			"./web/catalog-info.npm.yaml",
		},
	}}, locs)

	locs, _ = plan(t, Input{Records: records, All: true})
	require.Contains(t, locs[0].Targets, "./svc/legacy/catalog-info.maven.yaml")
}

func TestPlanSeveralRootsGetSyntheticRoot(t *testing.T) {
	records := []*module.Record{
		rec("svc/pom.xml", "svc/catalog-info.maven.yaml", "com.x.svc"),
		rec("svc/core/pom.xml", "svc/core/catalog-info.maven.yaml", "com.x.core"),
		rec("web/package.json", "web/catalog-info.npm.yaml", "web"),
	}

	locs, errs := plan(t, Input{Records: records, DefaultName: "Mono repo"})
	require.Empty(t, errs)
	require.Equal(t, []Location{
		{Path: "svc/catalog-info.yaml", Name: "com.x.svc", Targets: []string{"./catalog-info.maven.yaml", "./core/catalog-info.maven.yaml"}},
		{Path: "web/catalog-info.yaml", Name: "web", Targets: []string{"./catalog-info.npm.yaml"}},
		{Path: "catalog-info.yaml", Name: "Mono repo", Targets: []string{"./svc/catalog-info.yaml", "./web/catalog-info.yaml"}},
	}, locs)

	locs, errs = plan(t, Input{Records: records})
	require.Len(t, locs, 2)
	require.Len(t, errs, 1)
	require.Equal(t, module.ErrorNaming, errs[0].Kind)
	require.EqualError(t, errs[0].Err, "no name for root")
}

func TestPlanRootWithoutIdentity(t *testing.T) {
	records := []*module.Record{rec("api/backstage.api.yaml", "api/backstage.api.yaml", "")}

	locs, errs := plan(t, Input{Records: records, DefaultName: "repo"})
	require.Empty(t, errs)
	require.Equal(t, "repo/api/backstage.api.yaml", locs[0].Name)

	_, errs = plan(t, Input{Records: records})
	require.Len(t, errs, 2)
	require.EqualError(t, errs[0].Err, "no name for api/backstage.api.yaml api/backstage.api.yaml")
	require.Equal(t, "api/backstage.api.yaml", errs[0].PathOffset)
}

func TestPlanHandAuthoredRoots(t *testing.T) {
	records := []*module.Record{
		rec("svc/pom.xml", "svc/catalog-info.maven.yaml", "com.x.svc"),
		rec("web/package.json", "web/catalog-info.npm.yaml", "web"),
	}

	locs, errs := plan(t, Input{
		Records:      records,
		DefaultName:  "repo",
		HandAuthored: func(dir string) bool { return dir == "svc" },
	})
	require.Empty(t, errs)
	require.Equal(t, []string{"web/catalog-info.yaml", "catalog-info.yaml"}, []string{locs[0].Path, locs[1].Path})
	require.Equal(t, []string{"./svc/catalog-info.yaml", "./web/catalog-info.yaml"}, locs[1].Targets)

	locs, errs = plan(t, Input{Records: records, HandAuthored: func(dir string) bool { return dir == "." }})
	require.Empty(t, errs)
	require.Len(t, locs, 2)
}

func TestPlanSkipsRootsWithoutTargets(t *testing.T) {
	only := rec("tools/package.json", "tools/catalog-info.npm.yaml", "tools")
	only.Ignore = true
	locs, errs := plan(t, Input{Records: []*module.Record{only}})
	require.Empty(t, locs)
	require.Empty(t, errs)
	require.Empty(t, Plan(Input{}))
}

func TestAssemble(t *testing.T) {
	tpl, err := templates.Parse("root.template.yaml", "name: <<name>>\ntargets:\n<<targets>>\n")
	require.NoError(t, err)

	out := Assemble(Input{
		Records:  []*module.Record{rec("pom.xml", "catalog-info.maven.yaml", "com.x.parent"), rec("a/pom.xml", "a/catalog-info.maven.yaml", "com.x.a")},
		Template: tpl,
	})
	docs, errs := foundation.Partition(out)
	require.Empty(t, errs)
	require.Len(t, docs, 1)
	require.Equal(t, module.SourceLocation, docs[0].SourceType)
	require.Equal(t, "catalog-info.yaml", docs[0].CatalogName)
	require.Equal(t, Marker+"\nname: com-x-parent\ntargets:\n    - ./catalog-info.maven.yaml\n    - ./a/catalog-info.maven.yaml\n", docs[0].Value)
	require.True(t, IsGenerated([]byte(docs[0].Value)))

	broken, err := templates.Parse("root.template.yaml", "<<owner>>")
	require.NoError(t, err)
	out = Assemble(Input{Records: []*module.Record{rec("pom.xml", "catalog-info.maven.yaml", "p")}, Template: broken})
	_, errs = foundation.Partition(out)
	require.Len(t, errs, 1)
	require.Equal(t, module.ErrorTemplate, errs[0].Kind)
	require.ErrorIs(t, errs[0], templates.ErrMissingVariable)
}

func TestHandAuthoredProbe(t *testing.T) {
	ctx := context.Background()
	files := fileops.NewMemory(map[string]string{
		"repo/svc/catalog-info.yaml": "apiVersion: backstage.io/v1alpha1\n",
		"repo/web/catalog-info.yaml": Marker + "\nkind: Location\n",
		"repo/web/package.json":      "{}",
	})
	probe := HandAuthoredProbe(ctx, files, "repo")
	require.True(t, probe("svc"))
	require.False(t, probe("web"))
	require.False(t, probe("."))
}

func TestPlanRootDocumentOccupiesLocationPath(t *testing.T) {
	records := []*module.Record{
		rec("a/pom.xml", "a/catalog-info.yaml", "com.x.a"),
		rec("a/c/pom.xml", "a/c/catalog-info.yaml", "com.x.c"),
		rec("b/pom.xml", "b/catalog-info.yaml", "com.x.b"),
	}

	locs, errs := plan(t, Input{Records: records, DefaultName: "mono"})
	require.Empty(t, errs)
	require.Equal(t, []Location{{
		Path: "catalog-info.yaml",
		Name: "mono",
		Targets: []string{
			"./a/catalog-info.yaml",
			"./b/catalog-info.yaml",
			"./a/c/catalog-info.yaml",
		},
	}}, locs)
}

func TestPlanDotRootDocumentOccupiesLocationPath(t *testing.T) {
	records := []*module.Record{
		rec("pom.xml", "catalog-info.yaml", "com.x.parent"),
		rec("svc/pom.xml", "svc/catalog-info.yaml", "com.x.svc"),
	}

	locs, errs := plan(t, Input{Records: records, DefaultName: "mono"})
	require.Empty(t, locs)
	require.Len(t, errs, 1)
	require.Equal(t, module.ErrorNaming, errs[0].Kind)
	require.Equal(t, "catalog-info.yaml", errs[0].PathOffset)
	require.ErrorContains(t, errs[0].Err, "catalog-info.yaml is the catalog file of pom.xml")

	locs, errs = plan(t, Input{Records: records[:1], DefaultName: "mono"})
	require.Empty(t, locs)
	require.Empty(t, errs)
}
