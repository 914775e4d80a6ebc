// Package npm loads package.json descriptors. NPM packages find their ancestors by
// directory nesting.
package npm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"git.home.luguber.info/inful/catalogbuilder/internal/cascade"
	"git.home.luguber.info/inful/catalogbuilder/internal/filetype"
	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
	"git.home.luguber.info/inful/catalogbuilder/internal/module"
)

// Precedence of the NPM file type in the registry.
const Precedence = 30

// UnknownSCM is used when package.json has no repository information.
const UnknownSCM = cascade.UnknownSCM

var (
	namePath         = jp.MustParseString("$.name")
	versionPath      = jp.MustParseString("$.version")
	descriptionPath  = jp.MustParseString("$.description")
	dependenciesPath = jp.MustParseString("$.dependencies")
	backstagePath    = jp.MustParseString("$.backstage")
	repositoryPath   = jp.MustParseString("$.repository")
	// Tried in order when repository is an object.
	scmPaths = []jp.Expr{
		jp.MustParseString("$.repository.url"),
		jp.MustParseString("$.repository.directory"),
		jp.MustParseString("$.repository.git"),
	}
)

// FileType returns the NPM file type.
func FileType() filetype.FileType {
	return filetype.FileType{
		SourceType: module.SourceNPM,
		Precedence: Precedence,
		Match:      func(name string) bool { return name == "package.json" },
		Load:       Load,
		Shape:      filetype.ShapeHierarchical,
		Hierarchical: &filetype.Hierarchical{
			BuildIndex: filetype.PathIndex,
			Render:     filetype.RenderChain,
		},
	}
}

// Load parses a package.json into a record. A package without a name is loaded
// but ignored.
func Load(src filetype.Source) (*module.Record, error) {
	doc, err := oj.Parse(src.Content)
	if err != nil {
		return nil, module.WithKind(module.ErrorLoad, fmt.Errorf("parse %s: %w", src.PathOffset, err))
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, module.Structural("the file %s does not hold a JSON object", src.PathOffset)
	}

	name := stringAt(doc, namePath)
	version := stringAt(doc, versionPath)

	props, err := backstageProperties(doc, src.PathOffset)
	if err != nil {
		return nil, err
	}

	ignore := name == ""
	if !ignore {
		if ignore, err = module.ParseIgnoreValue(first(backstagePath.Get(doc), "ignore"), src.PathOffset); err != nil {
			return nil, err
		}
	}
	kind := props["kind"]
	if kind == "" {
		kind = module.DefaultKind
	}

	catalogName, err := filetype.CatalogName(src, module.SourceNPM)
	if err != nil {
		return nil, err
	}

	return &module.Record{
		SourceType:  module.SourceNPM,
		PathOffset:  src.PathOffset,
		CatalogName: catalogName,
		Identity:    identityFromName(name, version),
		Parent:      foundation.None[module.Identity](),
		SCM:         scmOf(doc),
		Description: stringAt(doc, descriptionPath),
		Kind:        kind,
		Ignore:      ignore,
		Properties:  props,
		Deps:        dependencies(doc),
	}, nil
}

// identityFromName splits scoped names (@scope/pkg) into group and artifact. The
// full name stays the package name.
func identityFromName(name, version string) module.Identity {
	id := module.Identity{ArtifactID: name, FullName: name, Version: version}
	if parts := strings.Split(name, "/"); len(parts) == 2 {
		id.GroupID, id.ArtifactID = parts[0], parts[1]
	}
	return id
}

func stringAt(doc any, path jp.Expr) string {
	if values := path.Get(doc); len(values) > 0 {
		if s, ok := values[0].(string); ok {
			return s
		}
	}
	return ""
}

func first(values []any, key string) any {
	if len(values) == 0 {
		return nil
	}
	if m, ok := values[0].(map[string]any); ok {
		return m[key]
	}
	return nil
}

func backstageProperties(doc any, pathOffset string) (map[string]string, error) {
	props := map[string]string{}
	values := backstagePath.Get(doc)
	if len(values) == 0 || values[0] == nil {
		return props, nil
	}
	obj, ok := values[0].(map[string]any)
	if !ok {
		return nil, module.Structural("backstage in %s must be an object", pathOffset)
	}
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			props[k] = val
		case bool:
			props[k] = strconv.FormatBool(val)
		case int64:
			props[k] = strconv.FormatInt(val, 10)
		case float64:
			props[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case nil:
		default:
			props[k] = oj.JSON(val)
		}
	}
	return props, nil
}

func scmOf(doc any) string {
	if s := stringAt(doc, repositoryPath); s != "" {
		return s
	}
	for _, p := range scmPaths {
		if s := stringAt(doc, p); s != "" {
			return s
		}
	}
	return UnknownSCM
}

// dependencies lists the runtime dependencies sorted by package name.
func dependencies(doc any) []module.Identity {
	values := dependenciesPath.Get(doc)
	if len(values) == 0 {
		return nil
	}
	deps, ok := values[0].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]module.Identity, 0, len(names))
	for _, name := range names {
		version, _ := deps[name].(string)
		out = append(out, identityFromName(name, version))
	}
	return out
}
