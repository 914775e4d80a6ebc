// Package engine drives a catalog generation run: discover descriptors, load them in
// parallel, resolve ancestor chains per file type, render documents in parallel and
// assemble location documents.
//
// Failures are per module. A module that fails at any stage becomes a
// module.ErrorRecord and every other module carries on. The caller gets all documents
// and all error records at the end of the run.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/catalogbuilder/internal/cascade"
	"git.home.luguber.info/inful/catalogbuilder/internal/discovery"
	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype/literal"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype/maven"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype/npm"
	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
	"git.home.luguber.info/inful/catalogbuilder/internal/locations"
	"git.home.luguber.info/inful/catalogbuilder/internal/logfields"
	"git.home.luguber.info/inful/catalogbuilder/internal/metrics"
	"git.home.luguber.info/inful/catalogbuilder/internal/module"
	"git.home.luguber.info/inful/catalogbuilder/internal/policy"
	"git.home.luguber.info/inful/catalogbuilder/internal/templates"
	"git.home.luguber.info/inful/catalogbuilder/internal/util/sets"
)

// DefaultConcurrency bounds parallel loads and renders when Options.Concurrency is unset.
const DefaultConcurrency = 8

// Stage names used in logs and metrics.
const (
	StageDiscover  = "discover"
	StageLoad      = "load"
	StageRender    = "render"
	StageLocations = "locations"
)

// DefaultRegistry returns every built-in file type.
func DefaultRegistry() *filetype.Registry {
	return filetype.MustRegistry(literal.FileType(), maven.FileType(), npm.FileType())
}

// Options configure a run.
type Options struct {
	// Root is the scan directory.
	Root      string
	Registry  *filetype.Registry
	Policy    policy.Policy
	Templates *templates.Store
	// Defaults seed every module dictionary (owner, lifecycle, ...).
	Defaults map[string]string
	// Name is the default name for location documents.
	Name string
	// All lists ignored modules in location documents.
	All         bool
	Skip        *discovery.Skipper
	Concurrency int
	Recorder    metrics.Recorder
}

// Result is the outcome of a run.
type Result struct {
	RunID string
	// Documents are sorted by CatalogName.
	Documents []*module.Document
	Errors    []*module.ErrorRecord
	// Ignored records were loaded but produce no document.
	Ignored []*module.Record
}

// Engine runs catalog generation over one FileOps.
type Engine struct {
	files fileops.FileOps
	opts  Options
}

// New creates an Engine, filling unset options with defaults.
func New(files fileops.FileOps, opts Options) *Engine {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Policy.CatalogInfoPattern == "" {
		opts.Policy = policy.Default()
	}
	if opts.Templates == nil {
		opts.Templates = templates.NewStore(files, "")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Engine{files: files, opts: opts}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Discover lists the descriptor files below the root.
func (e *Engine) Discover(ctx context.Context) ([]discovery.Match, error) {
	start := time.Now()
	matches, err := discovery.Discover(ctx, e.files, e.opts.Root, e.opts.Registry, e.opts.Skip)
	e.opts.Recorder.ObserveStageDuration(StageDiscover, time.Since(start))
	if err != nil {
		return nil, err
	}
	counts := map[module.SourceType]int{}
	for _, m := range matches {
		counts[m.FileType.SourceType]++
	}
	for st, n := range counts {
		e.opts.Recorder.AddDiscovered(string(st), n)
	}
	return matches, nil
}

// Load loads every match concurrently. The result at index i belongs to matches[i].
func (e *Engine) Load(ctx context.Context, matches []discovery.Match) []module.Loaded {
	start := time.Now()
	defer func() { e.opts.Recorder.ObserveStageDuration(StageLoad, time.Since(start)) }()

	out := make([]module.Loaded, len(matches))
	e.parallel(len(matches), func(i int) {
		m := matches[i]
		out[i] = foundation.Try(func() (*module.Record, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			data, err := e.files.Load(ctx, fileops.Join(e.opts.Root, m.PathOffset))
			if err != nil {
				return nil, module.WithKind(module.ErrorLoad, err)
			}
			return m.FileType.Load(filetype.Source{PathOffset: m.PathOffset, Content: data, Policy: e.opts.Policy})
		}, module.Wrap("load "+m.PathOffset, m.PathOffset, module.ErrorLoad))
	})
	return out
}

// Resolved is a module with its ancestor chain.
type Resolved struct {
	Record   *module.Record
	FileType filetype.FileType
	// Chain is root first and ends with Record. Simple types have a chain of one.
	Chain []*module.Record
}

// ResolvedResult is the outcome of resolving one module.
type ResolvedResult = foundation.Result[Resolved, *module.ErrorRecord]

// Resolve builds one index per hierarchical type and resolves the chain of every
// non-ignored record. Ignored records take part in indexes but are not resolved.
func (e *Engine) Resolve(records []*module.Record) []ResolvedResult {
	var out []ResolvedResult
	for _, ft := range e.opts.Registry.Types() {
		var ofType []*module.Record
		for _, r := range records {
			if r.SourceType == ft.SourceType {
				ofType = append(ofType, r)
			}
		}
		if len(ofType) == 0 {
			continue
		}
		switch ft.Shape {
		case filetype.ShapeSimple:
			for _, r := range ofType {
				if !r.Ignore {
					out = append(out, foundation.Ok[Resolved, *module.ErrorRecord](Resolved{Record: r, FileType: ft, Chain: []*module.Record{r}}))
				}
			}
		case filetype.ShapeHierarchical:
			local := cascade.LocalDeps(ofType)
			index := ft.Hierarchical.BuildIndex(local)
			for _, r := range local {
				if r.Ignore {
					continue
				}
				out = append(out, foundation.Try(func() (Resolved, error) {
					chain, err := index.Chain(r)
					if err != nil {
						return Resolved{}, err
					}
					return Resolved{Record: r, FileType: ft, Chain: chain}, nil
				}, module.Wrap("resolve "+r.PathOffset, r.PathOffset, module.ErrorResolution)))
			}
		default:
			panic("unhandled file type shape " + ft.Shape.String())
		}
	}
	return out
}

// Render renders every resolved module concurrently. The result at index i belongs to resolved[i].
func (e *Engine) Render(ctx context.Context, resolved []ResolvedResult) []module.Rendered {
	start := time.Now()
	defer func() { e.opts.Recorder.ObserveStageDuration(StageRender, time.Since(start)) }()

	env := filetype.Env{Templates: e.opts.Templates, Defaults: e.opts.Defaults}
	out := make([]module.Rendered, len(resolved))
	e.parallel(len(resolved), func(i int) {
		pathOffset := ""
		if r := resolved[i].UnwrapOr(Resolved{}); r.Record != nil {
			pathOffset = r.Record.PathOffset
		}
		out[i] = foundation.AndThen(resolved[i], func(r Resolved) (*module.Document, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			switch r.FileType.Shape {
			case filetype.ShapeSimple:
				return r.FileType.Simple.Render(r.Record)
			case filetype.ShapeHierarchical:
				return r.FileType.Hierarchical.Render(ctx, env, r.Chain)
			default:
				panic("unhandled file type shape " + r.FileType.Shape.String())
			}
		}, module.Wrap("render "+pathOffset, pathOffset, module.ErrorTemplate))
	})
	return out
}

// Locations assembles the location documents for records.
func (e *Engine) Locations(ctx context.Context, records []*module.Record) []module.Rendered {
	start := time.Now()
	defer func() { e.opts.Recorder.ObserveStageDuration(StageLocations, time.Since(start)) }()

	tpl, err := e.opts.Templates.Root(ctx)
	if err != nil {
		return []module.Rendered{foundation.Err[*module.Document](&module.ErrorRecord{
			Context:    "location templates",
			PathOffset: path.Join(e.opts.Templates.Dir(), "root.template.yaml"),
			Kind:       module.ErrorTemplate,
			Err:        err,
		})}
	}
	return locations.Assemble(locations.Input{
		Records:      records,
		Template:     tpl,
		DefaultName:  e.opts.Name,
		All:          e.opts.All,
		HandAuthored: locations.HandAuthoredProbe(ctx, e.files, e.opts.Root),
	})
}

// Run performs a full generation run. Only a failure to walk the root is returned
// as an error; module failures are part of the Result.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	log := slog.With(logfields.RunID(result.RunID))
	defer func() { e.opts.Recorder.ObserveRunDuration(time.Since(start)) }()

	matches, err := e.Discover(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Discovered descriptor files", logfields.Path(e.opts.Root), logfields.Count(len(matches)))

	records, loadErrs := foundation.Partition(e.Load(ctx, matches))
	result.Errors = append(result.Errors, loadErrs...)
	for _, r := range records {
		if r.Ignore {
			result.Ignored = append(result.Ignored, r)
		}
	}

	resolved := e.Resolve(records)
	docs, renderErrs := foundation.Partition(e.Render(ctx, resolved))
	result.Errors = append(result.Errors, renderErrs...)

	locs, locErrs := foundation.Partition(e.Locations(ctx, withoutFailed(records, renderErrs)))
	result.Errors = append(result.Errors, locErrs...)

	generated := make([]*module.Document, 0, len(docs)+len(locs))
	generated = append(append(generated, docs...), locs...)
	kept, clashErrs := claimCatalogNames(generated)
	result.Errors = append(result.Errors, clashErrs...)
	result.Documents = kept
	sort.SliceStable(result.Documents, func(i, j int) bool {
		return result.Documents[i].CatalogName < result.Documents[j].CatalogName
	})

	moduleErrs := make([]*module.ErrorRecord, 0, len(loadErrs)+len(renderErrs)+len(clashErrs))
	moduleErrs = append(append(append(moduleErrs, loadErrs...), renderErrs...), clashErrs...)
	e.recordOutcomes(matches, kept, result.Ignored, moduleErrs)
	log.Info("Generation finished",
		logfields.Count(len(result.Documents)),
		slog.Int("errors", len(result.Errors)),
		slog.Int("ignored", len(result.Ignored)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return result, nil
}

// withoutFailed drops records whose resolution or rendering failed so that location
// documents only reference files that exist.
func withoutFailed(records []*module.Record, errs []*module.ErrorRecord) []*module.Record {
	failed := sets.New[string]()
	for _, e := range errs {
		failed.Add(e.PathOffset)
	}
	out := make([]*module.Record, 0, len(records))
	for _, r := range records {
		if !failed.Has(r.PathOffset) {
			out = append(out, r)
		}
	}
	return out
}

// claimCatalogNames keeps the first document written to each catalog name. Every later
// document with the same name becomes a naming error instead of overwriting it.
func claimCatalogNames(docs []*module.Document) ([]*module.Document, []*module.ErrorRecord) {
	owners := make(map[string]*module.Document, len(docs))
	kept := make([]*module.Document, 0, len(docs))
	var errs []*module.ErrorRecord
	for _, d := range docs {
		if owner, taken := owners[d.CatalogName]; taken {
			errs = append(errs, &module.ErrorRecord{
				Context:    "write " + d.CatalogName,
				PathOffset: d.PathOffset,
				Kind:       module.ErrorNaming,
				Err: fmt.Errorf("%s %s and %s %s both produce %s",
					owner.SourceType, owner.PathOffset, d.SourceType, d.PathOffset, d.CatalogName),
			})
			continue
		}
		owners[d.CatalogName] = d
		kept = append(kept, d)
	}
	return kept, errs
}

func (e *Engine) recordOutcomes(matches []discovery.Match, docs []*module.Document, ignored []*module.Record, errs []*module.ErrorRecord) {
	sourceTypes := make(map[string]module.SourceType, len(matches))
	for _, m := range matches {
		sourceTypes[m.PathOffset] = m.FileType.SourceType
	}
	for _, d := range docs {
		if d.SourceType == module.SourceLocation {
			continue
		}
		e.opts.Recorder.IncOutcome(string(d.SourceType), metrics.OutcomeDocument)
	}
	for _, r := range ignored {
		e.opts.Recorder.IncOutcome(string(r.SourceType), metrics.OutcomeIgnored)
	}
	for _, er := range errs {
		if st, ok := sourceTypes[er.PathOffset]; ok {
			e.opts.Recorder.IncOutcome(string(st), metrics.OutcomeError)
		}
	}
}

func (e *Engine) parallel(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
