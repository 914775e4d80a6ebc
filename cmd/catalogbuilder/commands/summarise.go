package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/catalogbuilder/internal/catalogs"
	"git.home.luguber.info/inful/catalogbuilder/internal/logfields"
)

// SummariseCmd implements the 'summarise' command.
type SummariseCmd struct {
	Directory string   `arg:"" optional:"" help:"Directory to summarise (defaults to --dir)"`
	Owner     string   `short:"o" help:"Owner of the repository, copied into the summary"`
	Project   string   `short:"p" help:"Project of the repository, copied into the summary"`
	Repo      string   `short:"r" help:"Name of the repository, copied into the summary"`
	Enabled   bool     `short:"e" help:"Mark the repository as enabled in the summary"`
	YAMLs     bool     `name:"yamls" short:"y" help:"Only list the YAML files found"`
	List      bool     `short:"l" help:"Only list the catalog files and the files that failed to parse"`
	Skip      []string `help:"Glob of directories to skip"`
}

func (s *SummariseCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	dir := firstNonEmpty(s.Directory, root.Dir)
	g.Logger.Debug("Summarising", logfields.Path(dir))

	files, err := scanCatalogs(ctx, g, dir, s.Skip)
	if err != nil {
		return err
	}
	if s.YAMLs {
		for _, f := range files {
			if _, err := fmt.Fprintln(g.Out, f.Path); err != nil {
				return err
			}
		}
		return nil
	}
	if s.List {
		for _, f := range catalogs.Relevant(files) {
			if _, err := fmt.Fprintln(g.Out, f.Path); err != nil {
				return err
			}
		}
		return nil
	}
	return printJSON(g.Out, catalogs.Summary{
		Owner:    s.Owner,
		Project:  s.Project,
		Repo:     s.Repo,
		Enabled:  s.Enabled,
		Catalogs: catalogs.Summarise(files),
	})
}
