// Package locations assembles the aggregator documents that let a catalog discover every
// generated file from one entry point per hierarchy root.
package locations

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
	"git.home.luguber.info/inful/catalogbuilder/internal/hierarchy"
	"git.home.luguber.info/inful/catalogbuilder/internal/module"
	"git.home.luguber.info/inful/catalogbuilder/internal/templates"
)

// Marker is the first line of every generated location document. A catalog-info.yaml
// without it is hand-authored.
const Marker = "# generated by catalogbuilder"

// FileName is the name of a location document inside its directory.
const FileName = "catalog-info.yaml"

// Input is everything Assemble needs.
type Input struct {
	// Records are all successfully loaded records, ignored ones included.
	Records  []*module.Record
	Template *templates.Template
	// DefaultName names roots without an identity and the synthetic top-level location.
	DefaultName string
	// All lists ignored modules as targets too.
	All bool
	// HandAuthored reports whether dir already holds a hand-written catalog-info.yaml.
	HandAuthored func(dir string) bool
}

// Location describes one location document before rendering.
type Location struct {
	Path    string
	Name    string
	Targets []string
}

type group struct {
	dir     string
	records []*module.Record
}

// Plan computes the location documents without rendering them. Naming failures are
// returned as error records in place of their location.
func Plan(in Input) []foundation.Result[Location, *module.ErrorRecord] {
	handAuthored := in.HandAuthored
	if handAuthored == nil {
		handAuthored = func(string) bool { return false }
	}

	tree := hierarchy.ByPath(groupByDir(in.Records), func(g group) string { return g.dir })
	var (
		out        []foundation.Result[Location, *module.ErrorRecord]
		rootFiles  []string
		orphans    []string
		hasDotRoot bool
	)
	for _, r := range tree.Roots() {
		root := tree.Value(r)
		if root.dir == "." {
			hasDotRoot = true
		}
		loc := Location{Path: path.Join(root.dir, FileName)}
		var occupant *module.Record
		for _, id := range tree.Subtree(r) {
			for _, rec := range tree.Value(id).records {
				if rec.Ignore && !in.All {
					continue
				}
				if rec.CatalogName == loc.Path {
					occupant = rec
					continue
				}
				loc.Targets = append(loc.Targets, relativeTarget(root.dir, rec.CatalogName))
			}
		}
		if occupant != nil {
			// The root module's own document already sits where the location would go,
			// so its descendants are listed by the top-level location instead.
			rootFiles = append(rootFiles, module.PrefixWithDot(loc.Path))
			for _, t := range loc.Targets {
				orphans = append(orphans, module.PrefixWithDot(path.Join(root.dir, t)))
			}
			if root.dir == "." && len(loc.Targets) > 0 {
				out = append(out, foundation.Err[Location](occupiedError(loc, occupant)))
			}
			continue
		}
		if len(loc.Targets) == 0 {
			continue
		}
		rootFiles = append(rootFiles, module.PrefixWithDot(loc.Path))
		if handAuthored(root.dir) {
			continue
		}
		name, err := rootName(root, in.DefaultName)
		if err != nil {
			out = append(out, foundation.Err[Location](err))
			continue
		}
		loc.Name = name
		out = append(out, foundation.Ok[Location, *module.ErrorRecord](loc))
	}
	rootFiles = append(rootFiles, orphans...)

	if hasDotRoot || len(rootFiles) == 0 || handAuthored(".") {
		return out
	}
	if in.DefaultName == "" {
		return append(out, foundation.Err[Location](&module.ErrorRecord{
			Context:    "location " + FileName,
			PathOffset: FileName,
			Kind:       module.ErrorNaming,
			Err:        fmt.Errorf("no name for root"),
		}))
	}
	return append(out, foundation.Ok[Location, *module.ErrorRecord](Location{
		Path:    FileName,
		Name:    in.DefaultName,
		Targets: rootFiles,
	}))
}

// Assemble plans and renders every location document.
func Assemble(in Input) []module.Rendered {
	planned := Plan(in)
	out := make([]module.Rendered, 0, len(planned))
	for _, p := range planned {
		loc := p.UnwrapOr(Location{})
		out = append(out, foundation.AndThen(p, func(l Location) (*module.Document, error) {
			return Render(in.Template, l)
		}, module.Wrap("location "+loc.Path, loc.Path, module.ErrorTemplate)))
	}
	return out
}

// Render substitutes a location into the root template.
func Render(tpl *templates.Template, loc Location) (*module.Document, error) {
	lines := make([]string, len(loc.Targets))
	for i, t := range loc.Targets {
		lines[i] = "    - " + t
	}
	value, err := tpl.Execute(map[string]string{
		"name":    module.CleanName(loc.Name),
		"targets": strings.Join(lines, "\n"),
	})
	if err != nil {
		return nil, err
	}
	return &module.Document{
		SourceType:  module.SourceLocation,
		PathOffset:  loc.Path,
		CatalogName: loc.Path,
		Value:       Marker + "\n" + value,
	}, nil
}

func groupByDir(records []*module.Record) []group {
	index := map[string]int{}
	var groups []group
	for _, r := range records {
		dir := r.Dir()
		i, ok := index[dir]
		if !ok {
			i = len(groups)
			index[dir] = i
			groups = append(groups, group{dir: dir})
		}
		groups[i].records = append(groups[i].records, r)
	}
	return groups
}

func rootName(root group, defaultName string) (string, *module.ErrorRecord) {
	for _, r := range root.records {
		if r.HasIdentity() {
			return r.Identity.FullName, nil
		}
	}
	first := root.records[0]
	if defaultName != "" {
		return defaultName + "/" + first.PathOffset, nil
	}
	return "", &module.ErrorRecord{
		Context:    "location " + path.Join(root.dir, FileName),
		PathOffset: first.PathOffset,
		Kind:       module.ErrorNaming,
		Err:        fmt.Errorf("no name for %s %s", first.CatalogName, first.PathOffset),
	}
}

func occupiedError(loc Location, occupant *module.Record) *module.ErrorRecord {
	return &module.ErrorRecord{
		Context:    "location " + loc.Path,
		PathOffset: loc.Path,
		Kind:       module.ErrorNaming,
		Err: fmt.Errorf("%s is the catalog file of %s, %d descendant files have no location",
			loc.Path, occupant.PathOffset, len(loc.Targets)),
	}
}

// relativeTarget makes catalogName relative to dir with a "./" prefix.
func relativeTarget(dir, catalogName string) string {
	rel, err := filepath.Rel(filepath.FromSlash(dir), filepath.FromSlash(catalogName))
	if err != nil {
		return module.PrefixWithDot(catalogName)
	}
	return module.PrefixWithDot(filepath.ToSlash(rel))
}

// HandAuthoredProbe reports whether <root>/<dir>/catalog-info.yaml exists and was not
// written by this tool.
func HandAuthoredProbe(ctx context.Context, files fileops.FileOps, root string) func(dir string) bool {
	return func(dir string) bool {
		p := fileops.Join(root, path.Join(dir, FileName))
		if !files.IsFile(ctx, p) {
			return false
		}
		data, err := files.Load(ctx, p)
		if err != nil {
			return false
		}
		return !IsGenerated(data)
	}
}

// IsGenerated reports whether a document starts with Marker.
func IsGenerated(data []byte) bool {
	line, _, _ := bufio.NewReader(bytes.NewReader(data)).ReadLine()
	return strings.TrimSpace(string(line)) == Marker
}
