package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	ferrors "git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/catalogbuilder/internal/logfields"
	"git.home.luguber.info/inful/catalogbuilder/internal/metrics"
	"git.home.luguber.info/inful/catalogbuilder/internal/rollup"
)

// RollupCmd implements the 'rollup' command. Each --list flag stops after the
// corresponding stage and prints what it fetched.
type RollupCmd struct {
	Organisation string `arg:"" optional:"" help:"Azure DevOps organisation (default from azure.organisation)"`
	Project      string `arg:"" optional:"" help:"Project holding the projects file (default from azure.project)"`
	Repo         string `arg:"" optional:"" help:"Repository holding the projects file (default from azure.repo)"`

	TokenEnv       string `name:"token-env" short:"t" help:"Environment variable holding the personal access token"`
	ProjectsFile   string `name:"projects-file" help:"Name of the projects file"`
	ReposFile      string `name:"repos-file" help:"Name of the repos file in every project"`
	StatsFile      string `name:"stats-file" help:"Name of the stats file in every repository"`
	ProjectPattern string `name:"project-pattern" help:"URL pattern of the projects file"`
	ReposPattern   string `name:"repos-pattern" help:"URL pattern of a repos file"`
	StatsPattern   string `name:"stats-pattern" help:"URL pattern of a stats file"`
	OnlyProject    string `name:"only-project" help:"Roll up this project only, without reading the projects file"`
	Concurrency    int    `help:"Parallel requests" default:"4"`

	ListLines     bool `name:"list-lines" help:"Print the raw projects file"`
	ListProjects  bool `name:"list-projects" help:"Print the parsed projects"`
	ListRepos     bool `name:"list-repos" help:"Print the repos of every project"`
	ListStatFiles bool `name:"list-stat-files" help:"Print the stats file of every repository"`
	ListStats     bool `name:"list-stats" help:"Print every fetched stats document"`
}

func (r *RollupCmd) Run(g *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	azure := g.Config.Azure
	azure.Organisation = firstNonEmpty(r.Organisation, azure.Organisation)
	azure.Project = firstNonEmpty(r.Project, azure.Project)
	azure.Repo = firstNonEmpty(r.Repo, azure.Repo)
	azure.ProjectsFile = firstNonEmpty(r.ProjectsFile, azure.ProjectsFile)
	azure.ReposFile = firstNonEmpty(r.ReposFile, azure.ReposFile)
	azure.StatsFile = firstNonEmpty(r.StatsFile, azure.StatsFile)
	azure.ProjectPattern = firstNonEmpty(r.ProjectPattern, azure.ProjectPattern)
	azure.ReposPattern = firstNonEmpty(r.ReposPattern, azure.ReposPattern)
	azure.StatsPattern = firstNonEmpty(r.StatsPattern, azure.StatsPattern)
	azure.TokenEnv = firstNonEmpty(r.TokenEnv, azure.TokenEnv)

	token := os.Getenv(azure.TokenEnv)
	if token == "" {
		return ferrors.AuthError(fmt.Sprintf("no token found in environment variable %s", azure.TokenEnv)).
			WithContext("organisation", azure.Organisation).
			Build()
	}

	files := g.Files.WithHeaders(rollup.AuthHeaders(token))
	walker := rollup.NewWalker(files, azure, g.Retrier(metrics.NoopRecorder{}), r.Concurrency)

	projects, done, err := r.projects(ctx, g, walker)
	if err != nil || done {
		return err
	}
	if r.ListProjects {
		return printJSON(g.Out, projects)
	}

	repos := walker.Repos(ctx, projects)
	if r.ListRepos {
		return printJSON(g.Out, repos)
	}
	statFiles := walker.StatFiles(repos)
	if r.ListStatFiles {
		return printJSON(g.Out, statFiles)
	}
	stats := walker.Stats(ctx, statFiles)
	if r.ListStats {
		return printJSON(g.Out, stats)
	}

	result, bad := rollup.Rollup(stats)
	for _, s := range bad {
		g.Logger.Warn("Skipping stats", logfields.Project(s.Project), logfields.Repository(s.Repo), logfields.URL(s.URL), "error", s.Error)
	}
	g.Logger.Info("Rollup complete", logfields.Count(len(stats)), "failed", len(bad))
	return printJSON(g.Out, result)
}

// projects returns the projects to roll up. done reports that --list-lines
// already printed the output.
func (r *RollupCmd) projects(ctx context.Context, g *Global, walker *rollup.Walker) ([]rollup.Project, bool, error) {
	if r.OnlyProject != "" {
		project, err := walker.ProjectNamed(r.OnlyProject)
		if err != nil {
			return nil, false, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid repos pattern").Build()
		}
		return []rollup.Project{project}, false, nil
	}
	if r.ListLines {
		lines, err := walker.ProjectLines(ctx)
		if err != nil {
			return nil, false, azureError(err, walker)
		}
		_, err = fmt.Fprintln(g.Out, lines)
		return nil, true, err
	}
	projects, err := walker.Projects(ctx)
	if err != nil {
		return nil, false, azureError(err, walker)
	}
	return projects, false, nil
}

func azureError(err error, walker *rollup.Walker) error {
	url, _ := walker.RootURL()
	return ferrors.WrapError(err, ferrors.CategoryAzure, "failed to read projects file").
		WithContext("url", url).
		Build()
}
