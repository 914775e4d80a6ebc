package commands

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/catalogbuilder/internal/cascade"
	"git.home.luguber.info/inful/catalogbuilder/internal/engine"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype"
	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
	ferrors "git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/catalogbuilder/internal/module"
)

// DebugCmd groups the commands that print one stage of generation.
type DebugCmd struct {
	Files     DebugFilesCmd     `cmd:"" help:"List the descriptor files found and their file type"`
	Raw       DebugRawCmd       `cmd:"" help:"Print the loaded module records as YAML"`
	Arrays    DebugArraysCmd    `cmd:"" help:"Print the ancestor chain of every module"`
	Data      DebugDataCmd      `cmd:"" help:"Print the dictionary every module is rendered with"`
	Locations DebugLocationsCmd `cmd:"" help:"Print the location documents only"`
}

type DebugFilesCmd struct {
	GenerationFlags `embed:""`
}

func (d *DebugFilesCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	eng, err := d.Engine(ctx, g, root, nil)
	if err != nil {
		return err
	}
	matches, err := eng.Discover(ctx)
	if err != nil {
		return scanError(err, root.Dir)
	}
	width := 0
	for _, m := range matches {
		width = max(width, len(m.PathOffset))
	}
	for _, m := range matches {
		if _, err := fmt.Fprintf(g.Out, "%-*s %s\n", width, m.PathOffset, m.FileType.SourceType); err != nil {
			return err
		}
	}
	return nil
}

type DebugRawCmd struct {
	GenerationFlags `embed:""`
}

// rawRecord is the YAML view of a module record.
type rawRecord struct {
	SourceType  module.SourceType `yaml:"sourceType"`
	PathOffset  string            `yaml:"pathOffset"`
	CatalogName string            `yaml:"catalogName"`
	Identity    module.Identity   `yaml:"identity"`
	Parent      *module.Identity  `yaml:"parent,omitempty"`
	SCM         string            `yaml:"scm,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Kind        string            `yaml:"kind"`
	Ignore      bool              `yaml:"ignore"`
	Properties  map[string]string `yaml:"properties,omitempty"`
	Deps        []module.Identity `yaml:"deps,omitempty"`
}

func newRawRecord(r *module.Record) rawRecord {
	raw := rawRecord{
		SourceType:  r.SourceType,
		PathOffset:  r.PathOffset,
		CatalogName: r.CatalogName,
		Identity:    r.Identity,
		SCM:         r.SCM,
		Description: r.Description,
		Kind:        r.Kind,
		Ignore:      r.Ignore,
		Properties:  r.Properties,
		Deps:        r.Deps,
	}
	if parent, ok := r.Parent.Get(); ok {
		raw.Parent = &parent
	}
	return raw
}

func (d *DebugRawCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	_, records, errs, err := loadAll(ctx, &d.GenerationFlags, g, root)
	if err != nil {
		return err
	}
	raws := make([]rawRecord, 0, len(records))
	for _, r := range records {
		raws = append(raws, newRawRecord(r))
	}
	if err := printYAML(g.Out, raws); err != nil {
		return err
	}
	return engine.ReportErrors(g.Err, errs)
}

type DebugArraysCmd struct {
	GenerationFlags `embed:""`
}

func (d *DebugArraysCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	eng, records, errs, err := loadAll(ctx, &d.GenerationFlags, g, root)
	if err != nil {
		return err
	}
	resolved, resolveErrs := foundation.Partition(eng.Resolve(records))
	chains := make(map[string][]string, len(resolved))
	for _, r := range resolved {
		offsets := make([]string, 0, len(r.Chain))
		for _, c := range r.Chain {
			offsets = append(offsets, c.PathOffset)
		}
		chains[r.Record.PathOffset] = offsets
	}
	if err := printYAML(g.Out, chains); err != nil {
		return err
	}
	return engine.ReportErrors(g.Err, append(errs, resolveErrs...))
}

type DebugDataCmd struct {
	GenerationFlags `embed:""`
}

func (d *DebugDataCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	eng, records, errs, err := loadAll(ctx, &d.GenerationFlags, g, root)
	if err != nil {
		return err
	}
	defaults := eng.Options().Defaults
	resolved, resolveErrs := foundation.Partition(eng.Resolve(records))
	errs = append(errs, resolveErrs...)
	data := make(map[string]map[string]string, len(resolved))
	for _, r := range resolved {
		if r.FileType.Shape != filetype.ShapeHierarchical {
			continue
		}
		dict, err := cascade.Fold(defaults, r.Chain)
		if err != nil {
			errs = append(errs, module.Wrap("fold "+r.Record.PathOffset, r.Record.PathOffset, module.ErrorTemplate)(err))
			continue
		}
		data[r.Record.PathOffset] = dict
	}
	if err := printYAML(g.Out, data); err != nil {
		return err
	}
	return engine.ReportErrors(g.Err, errs)
}

type DebugLocationsCmd struct {
	GenerationFlags `embed:""`
}

func (d *DebugLocationsCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	eng, records, errs, err := loadAll(ctx, &d.GenerationFlags, g, root)
	if err != nil {
		return err
	}
	docs, locErrs := foundation.Partition(eng.Locations(ctx, records))
	if err := engine.Report(g.Out, docs); err != nil {
		return err
	}
	return engine.ReportErrors(g.Err, append(errs, locErrs...))
}

// loadAll discovers and loads every descriptor below the scan directory.
func loadAll(ctx context.Context, f *GenerationFlags, g *Global, root *CLI) (*engine.Engine, []*module.Record, []*module.ErrorRecord, error) {
	eng, err := f.Engine(ctx, g, root, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	matches, err := eng.Discover(ctx)
	if err != nil {
		return nil, nil, nil, scanError(err, root.Dir)
	}
	records, errs := foundation.Partition(eng.Load(ctx, matches))
	return eng, records, errs, nil
}

func scanError(err error, dir string) error {
	return ferrors.WrapError(err, ferrors.CategoryDiscovery, "failed to scan directory").
		WithContext("dir", dir).
		Build()
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode YAML").Build()
	}
	return enc.Close()
}
