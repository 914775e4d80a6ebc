// Package filetype describes the descriptor formats the catalog engine understands.
//
// A FileType is a tagged variant. Every type can match a filename and load a descriptor
// into a module.Record. What happens next depends on its Shape:
//
//   - ShapeSimple types render a record on its own (literal override files).
//   - ShapeHierarchical types build an index over all records of the type, resolve each
//     record's ancestor chain and render from the whole chain (Maven, NPM).
package filetype

import (
	"context"
	"errors"
	"fmt"

	"git.home.luguber.info/inful/catalogbuilder/internal/cascade"
	"git.home.luguber.info/inful/catalogbuilder/internal/hierarchy"
	"git.home.luguber.info/inful/catalogbuilder/internal/module"
	"git.home.luguber.info/inful/catalogbuilder/internal/policy"
	"git.home.luguber.info/inful/catalogbuilder/internal/templates"
)

// Shape discriminates the two capability sets.
type Shape int

const (
	ShapeSimple Shape = iota + 1
	ShapeHierarchical
)

func (s Shape) String() string {
	switch s {
	case ShapeSimple:
		return "simple"
	case ShapeHierarchical:
		return "hierarchical"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Source is a descriptor handed to a loader.
type Source struct {
	PathOffset string
	Content    []byte
	Policy     policy.Policy
}

// Dir returns the directory of the descriptor relative to the scan root.
func (s Source) Dir() string { return module.Dir(s.PathOffset) }

// Env carries what rendering needs besides the records.
type Env struct {
	Templates *templates.Store
	Defaults  map[string]string
}

// Simple renders one record on its own.
type Simple struct {
	Render func(rec *module.Record) (*module.Document, error)
}

// Hierarchical renders a record from its ancestor chain.
type Hierarchical struct {
	BuildIndex func(records []*module.Record) *Index
	Render     func(ctx context.Context, env Env, chain []*module.Record) (*module.Document, error)
}

// FileType is one descriptor format. Exactly one of Simple and Hierarchical is set,
// as selected by Shape.
type FileType struct {
	SourceType module.SourceType
	// Precedence orders types when more than one claims a filename; lower wins.
	Precedence   int
	Match        func(filename string) bool
	Load         func(src Source) (*module.Record, error)
	Shape        Shape
	Simple       *Simple
	Hierarchical *Hierarchical
}

func (ft FileType) validate() error {
	if ft.SourceType == "" {
		return errors.New("file type without source type")
	}
	if ft.Match == nil || ft.Load == nil {
		return fmt.Errorf("file type %s: match and load are required", ft.SourceType)
	}
	switch ft.Shape {
	case ShapeSimple:
		if ft.Simple == nil || ft.Simple.Render == nil || ft.Hierarchical != nil {
			return fmt.Errorf("file type %s: simple shape needs only a simple render", ft.SourceType)
		}
	case ShapeHierarchical:
		h := ft.Hierarchical
		if h == nil || h.BuildIndex == nil || h.Render == nil || ft.Simple != nil {
			return fmt.Errorf("file type %s: hierarchical shape needs only index and render", ft.SourceType)
		}
	default:
		return fmt.Errorf("file type %s: unknown %s", ft.SourceType, ft.Shape)
	}
	return nil
}

// Index resolves ancestor chains over the records of one hierarchical type.
type Index struct {
	tree *hierarchy.Tree[*module.Record]
	ids  map[*module.Record]int
}

func newIndex(tree *hierarchy.Tree[*module.Record]) *Index {
	ids := make(map[*module.Record]int, tree.Len())
	for i := 0; i < tree.Len(); i++ {
		ids[tree.Value(i)] = i
	}
	return &Index{tree: tree, ids: ids}
}

// PathIndex links each record to the nearest enclosing directory holding another record.
func PathIndex(records []*module.Record) *Index {
	return newIndex(hierarchy.ByPath(records, (*module.Record).Dir))
}

// ReferenceIndex links each record to the record named by its declared parent.
func ReferenceIndex(records []*module.Record) *Index {
	return newIndex(hierarchy.ByReference(records,
		func(r *module.Record) string { return r.Identity.FullName },
		func(r *module.Record) (string, bool) {
			p, ok := r.Parent.Get()
			return p.FullName, ok && p.FullName != ""
		}))
}

// Chain returns the ancestors of rec root first, ending with rec.
func (x *Index) Chain(rec *module.Record) ([]*module.Record, error) {
	i, ok := x.ids[rec]
	if !ok {
		return nil, fmt.Errorf("%s is not indexed", rec.PathOffset)
	}
	chain, err := x.tree.ChainValues(i)
	if err != nil {
		return nil, module.WithKind(module.ErrorResolution, err)
	}
	return chain, nil
}

// Tree exposes the underlying hierarchy.
func (x *Index) Tree() *hierarchy.Tree[*module.Record] { return x.tree }

// RenderChain folds chain into a dictionary and renders the leaf's kind template.
func RenderChain(ctx context.Context, env Env, chain []*module.Record) (*module.Document, error) {
	if len(chain) == 0 {
		return nil, errors.New("empty ancestor chain")
	}
	leaf := chain[len(chain)-1]
	dict, err := cascade.Fold(env.Defaults, chain)
	if err != nil {
		return nil, err
	}
	tpl, err := env.Templates.ForKind(ctx, string(leaf.SourceType), dict[cascade.KeyKind])
	if err != nil {
		return nil, module.WithKind(module.ErrorTemplate, err)
	}
	value, err := tpl.Execute(dict)
	if err != nil {
		return nil, module.WithKind(module.ErrorTemplate, fmt.Errorf("making template for %s: %w", leaf.Identity.FullName, err))
	}
	return &module.Document{
		SourceType:  leaf.SourceType,
		PathOffset:  leaf.PathOffset,
		CatalogName: leaf.CatalogName,
		Ignore:      leaf.Ignore,
		Value:       value,
	}, nil
}

// CatalogName applies the naming policy to a descriptor, tagging failures as template errors.
func CatalogName(src Source, sourceType module.SourceType) (string, error) {
	name, err := src.Policy.CatalogName(string(sourceType), src.Dir())
	if err != nil {
		return "", module.WithKind(module.ErrorTemplate, err)
	}
	return name, nil
}
