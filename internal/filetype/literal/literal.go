// Package literal handles hand-written backstage.<kind>.yaml override files. Their
// content is already a catalog document and is emitted unchanged.
package literal

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/catalogbuilder/internal/filetype"
	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
	"git.home.luguber.info/inful/catalogbuilder/internal/module"
)

// Precedence of the literal override type; it is consulted before every other type.
const Precedence = 10

var filenamePattern = regexp.MustCompile(`^.*backstage\.([^.]+)\.yaml$`)

// Kinds whose catalog spelling is not plain title case.
var kindSpelling = map[string]string{"api": "API"}

var title = cases.Title(language.Und)

// FileType returns the literal override file type.
func FileType() filetype.FileType {
	return filetype.FileType{
		SourceType: module.SourceBackstageYAML,
		Precedence: Precedence,
		Match:      filenamePattern.MatchString,
		Load:       Load,
		Shape:      filetype.ShapeSimple,
		Simple:     &filetype.Simple{Render: Render},
	}
}

// KindFromFilename derives the catalog kind from backstage.<kind>.yaml.
func KindFromFilename(name string) (string, bool) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	if k, ok := kindSpelling[strings.ToLower(m[1])]; ok {
		return k, true
	}
	return title.String(m[1]), true
}

// Load keeps the file content and checks that it is YAML. The document is written
// where the override file lives.
func Load(src filetype.Source) (*module.Record, error) {
	var probe yaml.Node
	if err := yaml.Unmarshal(src.Content, &probe); err != nil {
		return nil, module.WithKind(module.ErrorLoad, fmt.Errorf("parse %s: %w", src.PathOffset, err))
	}
	kind, _ := KindFromFilename(src.PathOffset)
	return &module.Record{
		SourceType:  module.SourceBackstageYAML,
		PathOffset:  src.PathOffset,
		CatalogName: src.PathOffset,
		Parent:      foundation.None[module.Identity](),
		Kind:        kind,
		Content:     append([]byte(nil), src.Content...),
	}, nil
}

// Render passes the content through.
func Render(rec *module.Record) (*module.Document, error) {
	return &module.Document{
		SourceType:  rec.SourceType,
		PathOffset:  rec.PathOffset,
		CatalogName: rec.CatalogName,
		Ignore:      rec.Ignore,
		Value:       string(rec.Content),
	}, nil
}
