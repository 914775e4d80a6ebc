// Package catalogs finds catalog YAML files below a directory, classifies them and
// summarises what a repository publishes.
package catalogs

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/catalogbuilder/internal/discovery"
	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
)

// Category is how a YAML file was classified.
type Category string

const (
	CategoryCatalog    Category = "catalog"
	CategoryNotCatalog Category = "valid yaml, but not a catalog"
	CategoryInvalid    Category = "invalid yaml"
)

// File is one scanned YAML file.
type File struct {
	Path     string
	Category Category
	Document map[string]any
	Err      error
}

// Classify parses data. A document with an apiVersion is a catalog entity.
func Classify(data []byte) (Category, map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return CategoryInvalid, nil, err
	}
	m, ok := doc.(map[string]any)
	if !ok || m["apiVersion"] == nil {
		return CategoryNotCatalog, m, nil
	}
	return CategoryCatalog, m, nil
}

// FindYAML lists the .yaml files below root relative to it.
func FindYAML(ctx context.Context, files fileops.FileOps, root string, skip *discovery.Skipper) ([]string, error) {
	var out []string
	err := discovery.Walk(ctx, files, root, skip, func(rel string) error {
		if strings.HasSuffix(rel, ".yaml") {
			out = append(out, rel)
		}
		return nil
	})
	return out, err
}

// Scan loads and classifies every YAML file below root.
func Scan(ctx context.Context, files fileops.FileOps, root string, skip *discovery.Skipper) ([]File, error) {
	paths, err := FindYAML(ctx, files, root, skip)
	if err != nil {
		return nil, err
	}
	out := make([]File, 0, len(paths))
	for _, p := range paths {
		data, err := files.Load(ctx, fileops.Join(root, p))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		category, doc, err := Classify(data)
		out = append(out, File{Path: p, Category: category, Document: doc, Err: err})
	}
	return out, nil
}

// Paths returns the paths of files in category, in scan order.
func Paths(files []File, category Category) []string {
	var out []string
	for _, f := range files {
		if f.Category == category {
			out = append(out, f.Path)
		}
	}
	return out
}
