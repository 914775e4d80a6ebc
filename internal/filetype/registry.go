package filetype

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/catalogbuilder/internal/util/sets"
)

// ErrUnknownFileType is returned when a requested source type is not registered.
var ErrUnknownFileType = errors.New("unknown file types")

// Registry is an ordered set of file types. Types are kept in ascending Precedence,
// which is the order Match consults them in.
type Registry struct {
	types []FileType
}

// NewRegistry validates types and orders them by Precedence. Duplicate source
// types or precedences are rejected so that matching is never ambiguous.
func NewRegistry(types ...FileType) (*Registry, error) {
	sourceTypes := sets.New[string]()
	precedences := map[int]string{}
	sorted := make([]FileType, 0, len(types))
	for _, ft := range types {
		if err := ft.validate(); err != nil {
			return nil, err
		}
		if sourceTypes.Has(string(ft.SourceType)) {
			return nil, fmt.Errorf("file type %s registered twice", ft.SourceType)
		}
		if other, dup := precedences[ft.Precedence]; dup {
			return nil, fmt.Errorf("file types %s and %s share precedence %d", other, ft.SourceType, ft.Precedence)
		}
		sourceTypes.Add(string(ft.SourceType))
		precedences[ft.Precedence] = string(ft.SourceType)
		sorted = append(sorted, ft)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Precedence < sorted[j].Precedence })
	return &Registry{types: sorted}, nil
}

// MustRegistry is NewRegistry panicking on error, for static registrations.
func MustRegistry(types ...FileType) *Registry {
	r, err := NewRegistry(types...)
	if err != nil {
		panic(err)
	}
	return r
}

// Types returns the registered types in precedence order.
func (r *Registry) Types() []FileType {
	return append([]FileType(nil), r.types...)
}

// Names returns the registered source types in precedence order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.types))
	for i, ft := range r.types {
		names[i] = string(ft.SourceType)
	}
	return names
}

// Match returns the first type, in precedence order, that claims filename.
func (r *Registry) Match(filename string) (FileType, bool) {
	for _, ft := range r.types {
		if ft.Match(filename) {
			return ft, true
		}
	}
	return FileType{}, false
}

// Lookup returns the type registered for sourceType.
func (r *Registry) Lookup(sourceType string) (FileType, bool) {
	for _, ft := range r.types {
		if string(ft.SourceType) == sourceType {
			return ft, true
		}
	}
	return FileType{}, false
}

// Filter restricts the registry to the named source types. No names keeps every type.
func (r *Registry) Filter(names []string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}
	wanted := sets.New[string]()
	var unknown []string
	for _, n := range names {
		if _, ok := r.Lookup(n); !ok {
			unknown = append(unknown, n)
			continue
		}
		wanted.Add(n)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFileType, strings.Join(unknown, ", "))
	}
	var kept []FileType
	for _, ft := range r.types {
		if wanted.Has(string(ft.SourceType)) {
			kept = append(kept, ft)
		}
	}
	return &Registry{types: kept}, nil
}
