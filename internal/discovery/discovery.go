// Package discovery walks a scan root for descriptor files.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/gobwas/glob"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype"
	"git.home.luguber.info/inful/catalogbuilder/internal/logfields"
	"git.home.luguber.info/inful/catalogbuilder/internal/util/sets"
)

// SkippedDirs are never descended into.
var SkippedDirs = sets.New(".git", "node_modules", "target")

// Match is a discovered descriptor.
type Match struct {
	// PathOffset is relative to the scan root, forward slashes, no leading "./".
	PathOffset string
	FileType   filetype.FileType
}

// Skipper decides whether a directory (relative path) is excluded.
type Skipper struct {
	patterns []glob.Glob
	sources  []string
}

// NewSkipper compiles skip globs. Patterns match relative directory paths with '/'
// as separator, so "*" stays within one level and "**" crosses levels.
func NewSkipper(patterns []string) (*Skipper, error) {
	s := &Skipper{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid skip pattern %q: %w", p, err)
		}
		s.patterns = append(s.patterns, g)
		s.sources = append(s.sources, p)
	}
	return s, nil
}

// Skip reports whether rel (a directory relative to the root) is excluded.
func (s *Skipper) Skip(rel string) bool {
	if SkippedDirs.Has(path.Base(rel)) {
		return true
	}
	if s == nil {
		return false
	}
	for _, g := range s.patterns {
		if g.Match(rel) || g.Match(path.Base(rel)) {
			return true
		}
	}
	return false
}

// Discover walks root depth first, children in lexical order, and returns every file
// claimed by a registered type.
func Discover(ctx context.Context, files fileops.FileOps, root string, registry *filetype.Registry, skip *Skipper) ([]Match, error) {
	var matches []Match
	err := Walk(ctx, files, root, skip, func(rel string) error {
		if ft, ok := registry.Match(path.Base(rel)); ok {
			matches = append(matches, Match{PathOffset: rel, FileType: ft})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Walk calls fn for every file below root that is not in a skipped directory.
// Files of a directory are visited before its subdirectories, both in lexical order.
// rel is relative to root with forward slashes.
func Walk(ctx context.Context, files fileops.FileOps, root string, skip *Skipper, fn func(rel string) error) error {
	if !files.IsDir(ctx, root) {
		return fmt.Errorf("scan root %s is not a directory", root)
	}
	stack := []string{"."}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		names, err := files.List(ctx, join(root, cur))
		if err != nil {
			return fmt.Errorf("list %s: %w", cur, err)
		}
		var dirs []string
		for _, name := range names {
			rel := name
			if cur != "." {
				rel = cur + "/" + name
			}
			if files.IsDir(ctx, join(root, rel)) {
				if skip.Skip(rel) {
					slog.Debug("Skipping directory", logfields.Path(rel))
					continue
				}
				dirs = append(dirs, rel)
				continue
			}
			if err := fn(rel); err != nil {
				return err
			}
		}
		for i := len(dirs) - 1; i >= 0; i-- {
			stack = append(stack, dirs[i])
		}
	}
	return nil
}

func join(root, rel string) string {
	if rel == "." {
		return root
	}
	return fileops.Join(root, rel)
}
