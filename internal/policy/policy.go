// Package policy holds the naming policy for generated catalog files.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
	"git.home.luguber.info/inful/catalogbuilder/internal/templates"
)

// DefaultCatalogInfoPattern names generated files after the module's directory and source type.
const DefaultCatalogInfoPattern = "<<path>>/catalog-info.<<sourceType>>.yaml"

// Policy controls where generated catalog documents are written.
type Policy struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	Version            string `json:"version"`
	CatalogInfoPattern string `json:"catalogInfoPattern"`
}

// Default returns the built-in policy.
func Default() Policy {
	return Policy{
		Name:               "default",
		Description:        "Default policy",
		Version:            "0.0.1",
		CatalogInfoPattern: DefaultCatalogInfoPattern,
	}
}

// Load reads a JSON policy from a path or URL. An empty source returns Default.
// Fields missing from the document keep their default values.
func Load(ctx context.Context, files fileops.FileOps, source string) (Policy, error) {
	p := Default()
	if source == "" {
		return p, nil
	}
	data, err := files.Load(ctx, source)
	if err != nil {
		return Policy{}, fmt.Errorf("load policy %s: %w", source, err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy %s: %w", source, err)
	}
	if strings.TrimSpace(p.CatalogInfoPattern) == "" {
		p.CatalogInfoPattern = DefaultCatalogInfoPattern
	}
	if _, err := templates.Parse("catalogInfoPattern", p.CatalogInfoPattern); err != nil {
		return Policy{}, fmt.Errorf("policy %s: %w", source, err)
	}
	return p, nil
}

// CatalogName renders the catalog file path for a module of sourceType living in dir.
// The result is a clean forward-slash path relative to the scan root.
func (p Policy) CatalogName(sourceType, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	name, err := templates.Render("catalogInfoPattern", p.CatalogInfoPattern, map[string]string{
		"path":       dir,
		"sourceType": sourceType,
	})
	if err != nil {
		return "", fmt.Errorf("catalog name for %s: %w", dir, err)
	}
	name = path.Clean(name)
	if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
		return "", fmt.Errorf("catalog name %q escapes the scan root", name)
	}
	return name, nil
}
