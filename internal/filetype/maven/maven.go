// Package maven loads pom.xml descriptors. Maven modules find their ancestors through
// the <parent> element.
package maven

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/catalogbuilder/internal/filetype"
	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
	"git.home.luguber.info/inful/catalogbuilder/internal/module"
)

// Precedence of the Maven file type in the registry.
const Precedence = 20

const propertyPrefix = "backstage."

// FileType returns the Maven file type.
func FileType() filetype.FileType {
	return filetype.FileType{
		SourceType: module.SourceMaven,
		Precedence: Precedence,
		Match:      func(name string) bool { return name == "pom.xml" },
		Load:       Load,
		Shape:      filetype.ShapeHierarchical,
		Hierarchical: &filetype.Hierarchical{
			BuildIndex: filetype.ReferenceIndex,
			Render:     filetype.RenderChain,
		},
	}
}

type artifact struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type scm struct {
	URL        string `xml:"url"`
	Connection string `xml:"connection"`
}

type project struct {
	XMLName      xml.Name
	GroupID      string     `xml:"groupId"`
	ArtifactID   string     `xml:"artifactId"`
	Version      string     `xml:"version"`
	Description  string     `xml:"description"`
	Parent       *artifact  `xml:"parent"`
	Dependencies []artifact `xml:"dependencies>dependency"`
	Properties   properties `xml:"properties"`
	SCM          *scm       `xml:"scm"`
}

// properties collects arbitrary <properties> children by element name.
type properties map[string]string

func (p *properties) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	props := properties{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			props[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			*p = props
			return nil
		}
	}
}

// Load parses a pom.xml into a record.
func Load(src filetype.Source) (*module.Record, error) {
	var pom project
	if err := xml.NewDecoder(bytes.NewReader(src.Content)).Decode(&pom); err != nil {
		return nil, module.WithKind(module.ErrorLoad, fmt.Errorf("parse %s: %w", src.PathOffset, err))
	}
	if pom.XMLName.Local != "project" {
		return nil, module.Structural("the file %s does not have a project element", src.PathOffset)
	}

	parent := foundation.None[module.Identity]()
	var inherited artifact
	if pom.Parent != nil {
		p, err := identityOf(src.PathOffset+"/parent", trimArtifact(*pom.Parent), artifact{})
		if err != nil {
			return nil, err
		}
		parent = foundation.Some(p)
		inherited = artifact{GroupID: p.GroupID, Version: p.Version}
	}

	self := trimArtifact(artifact{GroupID: pom.GroupID, ArtifactID: pom.ArtifactID, Version: pom.Version})
	identity, err := identityOf(src.PathOffset, self, inherited)
	if err != nil {
		return nil, err
	}

	props := backstageProperties(pom.Properties)
	ignore := false
	if raw, ok := props["ignore"]; ok {
		if ignore, err = module.ParseIgnore(raw, src.PathOffset); err != nil {
			return nil, err
		}
	}
	kind := props["kind"]
	if kind == "" {
		kind = module.DefaultKind
	}

	catalogName, err := filetype.CatalogName(src, module.SourceMaven)
	if err != nil {
		return nil, err
	}

	return &module.Record{
		SourceType:  module.SourceMaven,
		PathOffset:  src.PathOffset,
		CatalogName: catalogName,
		Identity:    identity,
		Parent:      parent,
		SCM:         scmURL(pom.SCM),
		Description: strings.TrimSpace(pom.Description),
		Kind:        kind,
		Ignore:      ignore,
		Properties:  props,
		Deps:        dependencies(pom.Dependencies, identity),
	}, nil
}

func trimArtifact(a artifact) artifact {
	return artifact{
		GroupID:    strings.TrimSpace(a.GroupID),
		ArtifactID: strings.TrimSpace(a.ArtifactID),
		Version:    strings.TrimSpace(a.Version),
	}
}

// identityOf fills groupId and version from inherited; both are required afterwards.
// A missing artifactId is left for rendering to report.
func identityOf(where string, a, inherited artifact) (module.Identity, error) {
	if a.GroupID == "" {
		a.GroupID = inherited.GroupID
	}
	if a.Version == "" {
		a.Version = inherited.Version
	}
	if a.GroupID == "" {
		return module.Identity{}, module.Structural("the groupId is not defined for %s", where)
	}
	if a.Version == "" {
		return module.Identity{}, module.Structural("the version is not defined for %s", where)
	}
	return module.NewIdentity(a.GroupID, a.ArtifactID, a.Version), nil
}

func backstageProperties(all properties) map[string]string {
	out := map[string]string{}
	for k, v := range all {
		if name, ok := strings.CutPrefix(k, propertyPrefix); ok && name != "" {
			out[name] = v
		}
	}
	return out
}

func scmURL(s *scm) string {
	if s == nil {
		return ""
	}
	if u := strings.TrimSpace(s.URL); u != "" {
		return u
	}
	return strings.TrimSpace(s.Connection)
}

func dependencies(deps []artifact, self module.Identity) []module.Identity {
	out := make([]module.Identity, 0, len(deps))
	for _, d := range deps {
		d = trimArtifact(d)
		if d.ArtifactID == "" {
			continue
		}
		group := expand(d.GroupID, self)
		out = append(out, module.NewIdentity(group, d.ArtifactID, expand(d.Version, self)))
	}
	return out
}

// expand resolves the project coordinates Maven modules commonly reference for siblings.
func expand(value string, self module.Identity) string {
	switch value {
	case "${project.groupId}", "${pom.groupId}":
		return self.GroupID
	case "${project.version}", "${pom.version}":
		return self.Version
	default:
		return value
	}
}
