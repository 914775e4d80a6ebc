package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"git.home.luguber.info/inful/catalogbuilder/internal/catalogapi"
	"git.home.luguber.info/inful/catalogbuilder/internal/catalogs"
	"git.home.luguber.info/inful/catalogbuilder/internal/config"
	"git.home.luguber.info/inful/catalogbuilder/internal/discovery"
	ferrors "git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/catalogbuilder/internal/logfields"
	"git.home.luguber.info/inful/catalogbuilder/internal/metrics"
)

// CatalogsCmd groups the commands working on existing catalog files.
type CatalogsCmd struct {
	List     CatalogsListCmd     `cmd:"" help:"List the catalog files below --dir"`
	Validate CatalogsValidateCmd `cmd:"" help:"Ask Backstage to validate every catalog file"`
	Register CatalogsRegisterCmd `cmd:"" help:"Register every catalog file with Backstage"`
}

type CatalogsListCmd struct {
	Details bool     `help:"List every YAML file with its classification and a total"`
	Skip    []string `help:"Glob of directories to skip, relative to --dir"`
}

func (c *CatalogsListCmd) Run(g *Global, root *CLI) error {
	files, err := scanCatalogs(context.Background(), g, root.Dir, c.Skip)
	if err != nil {
		return err
	}
	if !c.Details {
		for _, p := range catalogs.Paths(files, catalogs.CategoryCatalog) {
			if _, err := fmt.Fprintln(g.Out, p); err != nil {
				return err
			}
		}
		return nil
	}
	width := 0
	for _, f := range files {
		width = max(width, len(f.Path))
	}
	for _, f := range files {
		if _, err := fmt.Fprintf(g.Out, "%-*s %s\n", width, f.Path, f.Category); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(g.Out, "Total: %d\n", len(files))
	return err
}

// CatalogsPostFlags configure posting every catalog file below --dir to the
// Backstage locations API.
type CatalogsPostFlags struct {
	Backstage   string   `help:"Backstage base URL (default from catalog_api.url)"`
	FileAPI     string   `name:"file-api" help:"URL prefix under which Backstage reads the catalog files"`
	TokenEnv    string   `name:"token-env" help:"Environment variable holding the API token"`
	Auth        string   `help:"Authorization scheme for the token (bearer|basic)"`
	ErrorsOnly  bool     `name:"errors-only" help:"Only print the files that failed"`
	Print       bool     `help:"Print the requests instead of sending them"`
	Concurrency int      `help:"Parallel requests" default:"4"`
	Skip        []string `help:"Glob of directories to skip, relative to --dir"`
}

// CatalogsValidateCmd posts with dryRun set so Backstage only validates.
type CatalogsValidateCmd struct {
	CatalogsPostFlags `embed:""`
}

func (c *CatalogsValidateCmd) Run(g *Global, root *CLI) error {
	return c.post(g, root, true)
}

type CatalogsRegisterCmd struct {
	CatalogsPostFlags `embed:""`
}

func (c *CatalogsRegisterCmd) Run(g *Global, root *CLI) error {
	return c.post(g, root, false)
}

func (c *CatalogsPostFlags) post(g *Global, root *CLI, validate bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	api := g.Config.CatalogAPI
	tokenEnv := firstNonEmpty(c.TokenEnv, api.TokenEnv)
	token := ""
	if tokenEnv != "" {
		token = os.Getenv(tokenEnv)
	}
	if c.TokenEnv != "" && token == "" {
		return ferrors.AuthError(fmt.Sprintf("no token found in environment variable %s", tokenEnv)).Build()
	}

	auth := strings.ToLower(firstNonEmpty(c.Auth, api.Auth))
	if auth != config.AuthBearer && auth != config.AuthBasic {
		return ferrors.ValidationError("--auth must be bearer or basic").WithContext("auth", c.Auth).Build()
	}

	op := catalogapi.OpRegister
	if validate {
		op = catalogapi.OpValidate
	}
	client := catalogapi.New(catalogapi.Options{
		BaseURL:     firstNonEmpty(c.Backstage, api.URL),
		FileAPI:     firstNonEmpty(c.FileAPI, api.FileAPI),
		Token:       token,
		Bearer:      auth == config.AuthBearer,
		Concurrency: c.Concurrency,
		Retrier:     g.Retrier(metrics.NoopRecorder{}),
	})

	files, err := scanCatalogs(ctx, g, root.Dir, c.Skip)
	if err != nil {
		return err
	}
	paths := catalogs.Paths(files, catalogs.CategoryCatalog)

	if c.Print {
		return printPlannedPosts(g.Out, client, paths, validate)
	}

	g.Logger.Info("Posting catalog files", logfields.Count(len(paths)), logfields.URL(client.Endpoint(validate)), "operation", op)
	outcomes, postErr := client.PostAll(ctx, paths, validate)
	shown := outcomes
	if c.ErrorsOnly {
		shown = shown[:0:0]
		for _, o := range outcomes {
			if o.Failed() {
				shown = append(shown, o)
			}
		}
	}
	if err := printJSON(g.Out, shown); err != nil {
		return err
	}
	if postErr != nil {
		return ferrors.WrapError(postErr, ferrors.CategoryCatalogAPI, op+" failed").
			WithContext("url", client.Endpoint(validate)).
			Build()
	}
	return nil
}

type plannedPost struct {
	URL     string          `json:"url"`
	Headers []string        `json:"headers"`
	Body    json.RawMessage `json:"body"`
}

func printPlannedPosts(w io.Writer, client *catalogapi.Client, paths []string, validate bool) error {
	var headers []string
	for k, v := range client.Headers() {
		if k == "Authorization" {
			v = strings.SplitN(v, " ", 2)[0] + " ***"
		}
		headers = append(headers, k+": "+v)
	}
	sort.Strings(headers)
	planned := make([]plannedPost, 0, len(paths))
	for _, p := range paths {
		planned = append(planned, plannedPost{URL: client.Endpoint(validate), Headers: headers, Body: client.Body(p)})
	}
	return printJSON(w, planned)
}

func scanCatalogs(ctx context.Context, g *Global, dir string, skipGlobs []string) ([]catalogs.File, error) {
	skip, err := discovery.NewSkipper(append(append([]string{}, g.Config.Generation.Skip...), skipGlobs...))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid skip pattern").Build()
	}
	files, err := catalogs.Scan(ctx, g.Files, dir, skip)
	if err != nil {
		return nil, scanError(err, dir)
	}
	return files, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode JSON").Build()
	}
	return nil
}
