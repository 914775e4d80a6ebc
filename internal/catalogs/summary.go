package catalogs

// Summary describes what a repository publishes to the catalog.
type Summary struct {
	Owner    string      `json:"owner,omitempty"`
	Project  string      `json:"project,omitempty"`
	Repo     string      `json:"repo,omitempty"`
	Enabled  bool        `json:"enabled"`
	Catalogs RepoSummary `json:"catalogs"`
}

// RepoSummary groups catalog files by what they declare.
type RepoSummary struct {
	All       []string    `json:"all"`
	APIs      []string    `json:"apis"`
	Errors    []FileError `json:"errors"`
	Libraries []string    `json:"libraries"`
	Services  []string    `json:"services"`
}

// FileError is a YAML file that failed to parse.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Relevant keeps catalogs and unparseable files; plain YAML is dropped.
func Relevant(files []File) []File {
	var out []File
	for _, f := range files {
		if f.Category != CategoryNotCatalog {
			out = append(out, f)
		}
	}
	return out
}

// Summarise classifies catalog files into libraries, services and APIs.
// A library is any entity with spec.type library, whatever its kind.
func Summarise(files []File) RepoSummary {
	s := RepoSummary{All: []string{}, APIs: []string{}, Errors: []FileError{}, Libraries: []string{}, Services: []string{}}
	for _, f := range Relevant(files) {
		s.All = append(s.All, f.Path)
		if f.Err != nil {
			s.Errors = append(s.Errors, FileError{File: f.Path, Error: f.Err.Error()})
			continue
		}
		spec, _ := f.Document["spec"].(map[string]any)
		switch {
		case spec["type"] == "library":
			s.Libraries = append(s.Libraries, f.Path)
		case f.Document["kind"] == "Service":
			s.Services = append(s.Services, f.Path)
		case f.Document["kind"] == "API":
			s.APIs = append(s.APIs, f.Path)
		}
	}
	return s
}
