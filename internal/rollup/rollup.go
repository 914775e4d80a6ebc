// Package rollup aggregates per-repository statistics published in Azure DevOps.
//
// A projects file lists "<project> <owner>" per line. Each project holds a repos
// file listing "<repo> <enabled>" per line. Each enabled repository holds a stats
// JSON document naming its project and repo. File URLs are built from patterns
// that reference ${organisation}, ${project}, ${repo}, ${projectsFile},
// ${reposFile} and ${statsFile}.
package rollup

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/catalogbuilder/internal/config"
	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
	"git.home.luguber.info/inful/catalogbuilder/internal/logfields"
	"git.home.luguber.info/inful/catalogbuilder/internal/retry"
)

const opFetch = "rollup_fetch"

var (
	projectPath = jp.MustParseString("$.project")
	repoPath    = jp.MustParseString("$.repo")
)

// AuthHeaders returns the Basic authorization header for an Azure PAT.
func AuthHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+token))}
}

// Expand substitutes ${name} references in pattern. Unknown names are an error.
func Expand(pattern string, vars map[string]string) (string, error) {
	var missing []string
	out := os.Expand(pattern, func(name string) string {
		value, ok := vars[name]
		if !ok {
			missing = append(missing, name)
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unknown variables %s in %s", strings.Join(missing, ", "), pattern)
	}
	return out, nil
}

// Pair is one "<thing> <second>" line.
type Pair struct {
	Thing  string `json:"thing"`
	Second string `json:"second"`
}

// ParsePairs parses non-blank lines of exactly two whitespace separated fields.
func ParsePairs(text string) ([]Pair, error) {
	var out []Pair
	index := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected 2 parts at line %d separated by whitespace, got %q which has %d parts", index, line, len(parts))
		}
		out = append(out, Pair{Thing: parts[0], Second: parts[1]})
		index++
	}
	return out, nil
}

// Project is a line of the projects file.
type Project struct {
	Project  string `json:"project"`
	Owner    string `json:"owner"`
	ReposURL string `json:"url"`
}

// ProjectRepos is the parsed repos file of a project.
type ProjectRepos struct {
	Project
	Repos []Pair `json:"repos,omitempty"`
	Error string `json:"error,omitempty"`
}

// StatFile locates the stats of one repository.
type StatFile struct {
	Project string `json:"project"`
	Repo    string `json:"repo"`
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Error   string `json:"error,omitempty"`
}

// Stats is a fetched stats document.
type Stats struct {
	StatFile
	JSON any `json:"json,omitempty"`
}

// Walker fetches the files of a rollup.
type Walker struct {
	files       fileops.FileOps
	azure       config.AzureConfig
	retrier     *retry.Retrier
	concurrency int
}

// NewWalker returns a walker. files should carry the authorization headers.
func NewWalker(files fileops.FileOps, azure config.AzureConfig, retrier *retry.Retrier, concurrency int) *Walker {
	if concurrency < 1 {
		concurrency = 4
	}
	if retrier == nil {
		retrier = retry.New(retry.DefaultPolicy(), nil)
	}
	return &Walker{files: files, azure: azure, retrier: retrier, concurrency: concurrency}
}

func (w *Walker) vars(project, repo string) map[string]string {
	return map[string]string{
		"organisation": w.azure.Organisation,
		"project":      project,
		"repo":         repo,
		"projectsFile": w.azure.ProjectsFile,
		"reposFile":    w.azure.ReposFile,
		"statsFile":    w.azure.StatsFile,
	}
}

// RootURL is the URL of the projects file.
func (w *Walker) RootURL() (string, error) {
	return Expand(w.azure.ProjectPattern, w.vars(w.azure.Project, w.azure.Repo))
}

func (w *Walker) fetch(ctx context.Context, url string) ([]byte, error) {
	return retry.Do(ctx, w.retrier, opFetch, func(ctx context.Context) ([]byte, error) {
		return w.files.Load(ctx, url)
	})
}

// ProjectLines returns the raw projects file.
func (w *Walker) ProjectLines(ctx context.Context) (string, error) {
	url, err := w.RootURL()
	if err != nil {
		return "", err
	}
	slog.Debug("Fetching projects file", logfields.URL(url))
	data, err := w.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Projects parses the projects file.
func (w *Walker) Projects(ctx context.Context) ([]Project, error) {
	lines, err := w.ProjectLines(ctx)
	if err != nil {
		return nil, err
	}
	pairs, err := ParsePairs(lines)
	if err != nil {
		return nil, fmt.Errorf("projects file: %w", err)
	}
	out := make([]Project, 0, len(pairs))
	for _, p := range pairs {
		project, err := w.project(p.Thing, p.Second)
		if err != nil {
			return nil, err
		}
		out = append(out, project)
	}
	return out, nil
}

// ProjectNamed describes a single project without consulting the projects file.
func (w *Walker) ProjectNamed(name string) (Project, error) {
	return w.project(name, "")
}

func (w *Walker) project(name, owner string) (Project, error) {
	vars := w.vars(name, w.azure.Repo)
	vars["owner"] = owner
	url, err := Expand(w.azure.ReposPattern, vars)
	if err != nil {
		return Project{}, err
	}
	return Project{Project: name, Owner: owner, ReposURL: url}, nil
}

// Repos fetches the repos file of every project. Failures are kept per project.
func (w *Walker) Repos(ctx context.Context, projects []Project) []ProjectRepos {
	out := make([]ProjectRepos, len(projects))
	w.each(ctx, len(projects), func(ctx context.Context, i int) {
		p := projects[i]
		out[i] = ProjectRepos{Project: p}
		data, err := w.fetch(ctx, p.ReposURL)
		if err != nil {
			out[i].Error = fmt.Sprintf("Error loading %s: %v", p.ReposURL, err)
			return
		}
		if out[i].Repos, err = ParsePairs(string(data)); err != nil {
			out[i].Error = fmt.Sprintf("Error parsing %s: %v", p.ReposURL, err)
		}
	})
	return out
}

// StatFiles lists the stats file of every repository, enabled or not.
func (w *Walker) StatFiles(repos []ProjectRepos) []StatFile {
	var out []StatFile
	for _, pr := range repos {
		if pr.Error != "" {
			out = append(out, StatFile{Project: pr.Project.Project, URL: pr.ReposURL, Error: pr.Error})
			continue
		}
		for _, r := range pr.Repos {
			sf := StatFile{Project: pr.Project.Project, Repo: r.Thing, Enabled: strings.EqualFold(r.Second, "true")}
			url, err := Expand(w.azure.StatsPattern, w.vars(pr.Project.Project, r.Thing))
			if err != nil {
				sf.Error = err.Error()
			}
			sf.URL = url
			out = append(out, sf)
		}
	}
	return out
}

// Stats fetches the stats of the enabled repositories.
func (w *Walker) Stats(ctx context.Context, files []StatFile) []Stats {
	var enabled []StatFile
	for _, f := range files {
		if f.Enabled && f.Error == "" {
			enabled = append(enabled, f)
		}
	}
	out := make([]Stats, len(enabled))
	w.each(ctx, len(enabled), func(ctx context.Context, i int) {
		f := enabled[i]
		out[i] = Stats{StatFile: f}
		data, err := w.fetch(ctx, f.URL)
		if err != nil {
			out[i].Error = fmt.Sprintf("Error loading %s: %v", f.URL, err)
			return
		}
		doc, err := oj.Parse(data)
		if err != nil {
			out[i].Error = fmt.Sprintf("Error parsing %s: %v", f.URL, err)
			return
		}
		out[i].JSON = doc
	})
	return out
}

func (w *Walker) each(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i := range n {
		g.Go(func() error {
			fn(gctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

// Rollup groups good stats by the project and repo they declare. Stats that
// failed or lack those fields are returned separately.
func Rollup(stats []Stats) (map[string]map[string]any, []Stats) {
	result := map[string]map[string]any{}
	var bad []Stats
	for _, s := range stats {
		if s.Error != "" || s.JSON == nil {
			bad = append(bad, s)
			continue
		}
		project, _ := first(projectPath.Get(s.JSON)).(string)
		repo, _ := first(repoPath.Get(s.JSON)).(string)
		if project == "" || repo == "" {
			s.Error = fmt.Sprintf("no project or repo defined in %s", s.URL)
			bad = append(bad, s)
			continue
		}
		if result[project] == nil {
			result[project] = map[string]any{}
		}
		result[project][repo] = s.JSON
	}
	return result, bad
}

func first(values []any) any {
	if len(values) == 0 {
		return nil
	}
	return values[0]
}
