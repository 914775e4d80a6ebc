// Package merge deep-merges YAML and JSON documents.
package merge

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"dario.cat/mergo"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
)

// ErrUnknownFileType is returned for files that are neither .yaml/.yml nor .json.
var ErrUnknownFileType = errors.New("unknown file type")

// Document is a loaded input file.
type Document struct {
	File     string         `json:"file"`
	Contents map[string]any `json:"contents,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Parse decodes data by the extension of file. The top level must be a mapping.
func Parse(file string, data []byte) (map[string]any, error) {
	var doc any
	switch strings.ToLower(path.Ext(file)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case ".json":
		parsed, err := oj.Parse(data)
		if err != nil {
			return nil, err
		}
		doc = parsed
	default:
		return nil, ErrUnknownFileType
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top level of %s is not an object", file)
	}
	return m, nil
}

// Load reads and parses every file. Failures are reported per document.
func Load(ctx context.Context, files fileops.FileOps, paths []string) []Document {
	out := make([]Document, len(paths))
	for i, p := range paths {
		out[i] = Document{File: p}
		data, err := files.Load(ctx, p)
		if err != nil {
			out[i].Error = err.Error()
			continue
		}
		contents, err := Parse(p, data)
		if err != nil {
			out[i].Error = err.Error()
			continue
		}
		out[i].Contents = contents
	}
	return out
}

// Failed returns the documents that could not be loaded.
func Failed(docs []Document) []Document {
	var out []Document
	for _, d := range docs {
		if d.Error != "" {
			out = append(out, d)
		}
	}
	return out
}

// Merge combines documents left to right. Nested mappings merge recursively;
// scalars and sequences from later documents replace earlier ones.
func Merge(docs []Document) (map[string]any, error) {
	result := map[string]any{}
	for _, d := range docs {
		if d.Error != "" {
			return nil, fmt.Errorf("%s: %s", d.File, d.Error)
		}
		if err := mergo.Merge(&result, d.Contents, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge %s: %w", d.File, err)
		}
	}
	return result, nil
}

// YAML renders v as YAML.
func YAML(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// JSON renders v as indented JSON with sorted keys.
func JSON(v any) string {
	return oj.JSON(v, &ojg.Options{Indent: 2, Sort: true})
}
