package commands

import (
	"context"

	"git.home.luguber.info/inful/catalogbuilder/internal/discovery"
	"git.home.luguber.info/inful/catalogbuilder/internal/engine"
	ferrors "git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/catalogbuilder/internal/git"
	"git.home.luguber.info/inful/catalogbuilder/internal/metrics"
	"git.home.luguber.info/inful/catalogbuilder/internal/policy"
	"git.home.luguber.info/inful/catalogbuilder/internal/templates"
)

// GenerationFlags are shared by make and the debug commands. Flags win over
// the generation section of the config file.
type GenerationFlags struct {
	FileTypes   []string `name:"file-types" sep:"," help:"Only load these file types (${filetypes})"`
	Policy      string   `help:"Policy JSON file or URL"`
	Templates   string   `help:"Template directory or URL (defaults to the built-in templates)"`
	Owner       string   `help:"Default owner of generated entities"`
	Lifecycle   string   `help:"Default lifecycle of generated entities"`
	Name        string   `help:"Name of the root location document (defaults to the git origin)"`
	All         bool     `help:"List ignored modules in location documents too"`
	Skip        []string `help:"Glob of directories to skip, relative to --dir"`
	Concurrency int      `help:"Modules loaded and rendered in parallel"`
}

// Engine builds an engine for the scan directory of root.
func (f *GenerationFlags) Engine(ctx context.Context, g *Global, root *CLI, recorder metrics.Recorder) (*engine.Engine, error) {
	gen := g.Config.Generation

	registry := engine.DefaultRegistry()
	fileTypes := f.FileTypes
	if len(fileTypes) == 0 {
		fileTypes = gen.FileTypes
	}
	registry, err := registry.Filter(fileTypes)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid --file-types").
			WithContext("known", engine.DefaultRegistry().Names()).
			UserAction().
			Build()
	}

	pol, err := policy.Load(ctx, g.Files, firstNonEmpty(f.Policy, gen.Policy))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load policy").Build()
	}

	skip, err := discovery.NewSkipper(append(append([]string{}, gen.Skip...), f.Skip...))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid skip pattern").Build()
	}

	name := firstNonEmpty(f.Name, gen.Name)
	if name == "" {
		name = git.DefaultLocationName(root.Dir)
	}

	concurrency := f.Concurrency
	if concurrency <= 0 {
		concurrency = gen.Concurrency
	}

	return engine.New(g.Files, engine.Options{
		Root:      root.Dir,
		Registry:  registry,
		Policy:    pol,
		Templates: templates.NewStore(g.Files, firstNonEmpty(f.Templates, gen.Templates)),
		Defaults: map[string]string{
			"owner":     firstNonEmpty(f.Owner, gen.Owner),
			"lifecycle": firstNonEmpty(f.Lifecycle, gen.Lifecycle),
		},
		Name:        name,
		All:         f.All,
		Skip:        skip,
		Concurrency: concurrency,
		Recorder:    recorder,
	}), nil
}
