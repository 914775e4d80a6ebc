// Package cascade folds an ancestor chain into the flat dictionary a catalog template is rendered with.
package cascade

import (
	"errors"
	"maps"
	"strings"

	"git.home.luguber.info/inful/catalogbuilder/internal/module"
	"git.home.luguber.info/inful/catalogbuilder/internal/util/sets"
)

// Dictionary keys set by Fold.
const (
	KeyFullName    = "fullname"
	KeyGroupID     = "groupId"
	KeyArtifactID  = "artifactId"
	KeyVersion     = "version"
	KeyDescription = "description"
	KeySCM         = "scm"
	KeyKind        = "kind"
	KeyDependsOn   = "dependsOn"
)

// UnknownSCM fills scm when no module in the chain names its source repository.
const UnknownSCM = "Unknown scm"

// DefaultDescription is used when a module has no description of its own.
const DefaultDescription = `"..."`

// LocalDeps returns copies of records whose Deps only reference modules among records.
// Dependency order is preserved.
func LocalDeps(records []*module.Record) []*module.Record {
	local := sets.New[string]()
	for _, r := range records {
		if r.HasIdentity() {
			local.Add(r.Identity.FullName)
		}
	}
	out := make([]*module.Record, len(records))
	for i, r := range records {
		deps := make([]module.Identity, 0, len(r.Deps))
		for _, d := range r.Deps {
			if local.Has(d.FullName) {
				deps = append(deps, d)
			}
		}
		out[i] = r.WithDeps(deps)
	}
	return out
}

// Fold merges chain (root first, leaf last) over defaults. groupId, scm and kind are
// inherited unless a descendant supplies its own value. description is never inherited.
// fullname, artifactId and version come from the leaf only. Properties are spread after
// those fields on every step. Dependencies accumulate along the chain.
func Fold(defaults map[string]string, chain []*module.Record) (map[string]string, error) {
	if len(chain) == 0 {
		return nil, errors.New("empty ancestor chain")
	}
	leaf := chain[len(chain)-1]
	if leaf.Identity.ArtifactID == "" {
		return nil, module.Structural("artifactId is not defined for %s", leaf.PathOffset)
	}

	dict := make(map[string]string, len(defaults)+8)
	dict[KeySCM] = UnknownSCM
	maps.Copy(dict, defaults)

	var deps []string
	seen := sets.New[string]()
	for i, r := range chain {
		setIfPresent(dict, KeyGroupID, r.Identity.GroupID)
		setIfPresent(dict, KeySCM, r.SCM)
		setIfPresent(dict, KeyKind, r.Kind)
		dict[KeyDescription] = DefaultDescription
		if r.Description != "" {
			dict[KeyDescription] = r.Description
		}
		if i == len(chain)-1 {
			dict[KeyFullName] = r.Identity.FullName
			dict[KeyArtifactID] = r.Identity.ArtifactID
			dict[KeyVersion] = r.Identity.Version
		}
		maps.Copy(dict, r.Properties)

		for _, d := range r.Deps {
			if seen.Has(d.FullName) {
				continue
			}
			seen.Add(d.FullName)
			deps = append(deps, d.FullName)
		}
	}
	dict[KeyDependsOn] = DependsOn(deps)
	return dict, nil
}

// DependsOn renders the dependsOn block for fullNames, or "" when there are none.
func DependsOn(fullNames []string) string {
	if len(fullNames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("dependsOn:")
	for _, name := range fullNames {
		b.WriteString("\n    - component:")
		b.WriteString(name)
	}
	return b.String()
}

func setIfPresent(dict map[string]string, key, value string) {
	if value != "" {
		dict[key] = value
	}
}
