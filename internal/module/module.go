// Package module holds the normalized records the catalog engine works on: the module record
// loaded from a descriptor file, the catalog document rendered from it and the error record
// that replaces either when something fails.
package module

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
)

// SourceType names the file type that produced a record or document.
type SourceType string

const (
	SourceMaven         SourceType = "maven"
	SourceNPM           SourceType = "npm"
	SourceBackstageYAML SourceType = "backstageyaml"
	// SourceLocation marks generated aggregator documents. No file type loads it.
	SourceLocation SourceType = "location"
)

// DefaultKind is used when a descriptor does not declare a catalog kind.
const DefaultKind = "Component"

// Identity is the cross-reference key of a module.
type Identity struct {
	GroupID    string `yaml:"groupId,omitempty" json:"groupId,omitempty"`
	ArtifactID string `yaml:"artifactId,omitempty" json:"artifactId,omitempty"`
	FullName   string `yaml:"fullName" json:"fullName"`
	Version    string `yaml:"version,omitempty" json:"version,omitempty"`
}

// NewIdentity builds an identity whose FullName is groupId.artifactId, or just
// artifactId when there is no group. Without an artifactId the FullName is empty.
func NewIdentity(groupID, artifactID, version string) Identity {
	fullName := artifactID
	if groupID != "" && artifactID != "" {
		fullName = groupID + "." + artifactID
	}
	return Identity{GroupID: groupID, ArtifactID: artifactID, FullName: fullName, Version: version}
}

// Record is the normalized view of one discovered descriptor file.
// Records are not modified after loading; transformations return copies.
type Record struct {
	SourceType  SourceType
	PathOffset  string
	CatalogName string
	Identity    Identity
	Parent      foundation.Option[Identity]
	SCM         string
	Description string
	Kind        string
	Ignore      bool
	Properties  map[string]string
	Deps        []Identity
	// Content is the raw file body for literal override records.
	Content []byte
}

// Dir returns the directory holding the descriptor, "." for the scan root.
func (r *Record) Dir() string {
	return Dir(r.PathOffset)
}

// HasIdentity reports whether the record declares a module name.
func (r *Record) HasIdentity() bool {
	return r.Identity.FullName != ""
}

// WithDeps returns a shallow copy of the record carrying deps.
func (r *Record) WithDeps(deps []Identity) *Record {
	clone := *r
	clone.Deps = deps
	return &clone
}

// Document is a rendered catalog document ready to be written at CatalogName.
type Document struct {
	SourceType  SourceType
	PathOffset  string
	CatalogName string
	Ignore      bool
	Value       string
}

// Dir returns the forward-slash directory of a relative path, "." for top level files.
func Dir(p string) string {
	return path.Dir(strings.TrimPrefix(p, "./"))
}
