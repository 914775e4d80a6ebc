// Package templates loads and renders catalog templates. Placeholders are written
// as <<name>> and are resolved strictly against a flat string dictionary.
//
// Templates live in a directory (local path or http(s) URL) laid out as
//
//	<dir>/root.template.yaml
//	<dir>/<sourceType>/<kind>.template.yaml
//	<dir>/<sourceType>/default.template.yaml
//
// An empty directory selects the built-in set compiled into the binary.
package templates

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
)

// ErrTemplateNotFound is returned when neither the kind template nor the default exists.
var ErrTemplateNotFound = errors.New("template not found")

const (
	rootTemplate    = "root.template.yaml"
	defaultTemplate = "default.template.yaml"
	builtinRoot     = "builtin"
)

//go:embed builtin
var builtin embed.FS

// Store resolves templates below one directory.
type Store struct {
	files fileops.FileOps
	dir   string
}

// NewStore creates a Store reading from dir through files. An empty dir uses the built-in templates.
func NewStore(files fileops.FileOps, dir string) *Store {
	return &Store{files: files, dir: dir}
}

// Dir returns the configured directory, or "builtin" for the embedded set.
func (s *Store) Dir() string {
	if s.dir == "" {
		return builtinRoot
	}
	return s.dir
}

// ForKind returns the template for kind, falling back to the source type's default
// template when the kind template is missing or does not parse.
func (s *Store) ForKind(ctx context.Context, sourceType, kind string) (*Template, error) {
	kindErr := error(nil)
	if kind != "" {
		tpl, err := s.load(ctx, path.Join(sourceType, kind+".template.yaml"))
		if err == nil {
			return tpl, nil
		}
		kindErr = err
	}
	tpl, err := s.load(ctx, path.Join(sourceType, defaultTemplate))
	if err != nil {
		if kindErr != nil {
			return nil, fmt.Errorf("%w for %s kind %s: %w; %w", ErrTemplateNotFound, sourceType, kind, kindErr, err)
		}
		return nil, fmt.Errorf("%w for %s: %w", ErrTemplateNotFound, sourceType, err)
	}
	return tpl, nil
}

// Root returns the location/aggregator template.
func (s *Store) Root(ctx context.Context) (*Template, error) {
	tpl, err := s.load(ctx, rootTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateNotFound, err)
	}
	return tpl, nil
}

func (s *Store) load(ctx context.Context, rel string) (*Template, error) {
	name := fileops.Join(s.Dir(), rel)
	var (
		data []byte
		err  error
	)
	if s.dir == "" {
		data, err = fs.ReadFile(builtin, path.Join(builtinRoot, rel))
	} else {
		data, err = s.files.Load(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return Parse(name, string(data))
}
