// Package catalogapi registers catalog files with a Backstage catalog by posting
// location entities to its locations endpoint.
package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
	ferrors "git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/catalogbuilder/internal/logfields"
	"git.home.luguber.info/inful/catalogbuilder/internal/metrics"
	"git.home.luguber.info/inful/catalogbuilder/internal/retry"
)

// LocationsPath is the locations endpoint relative to the Backstage base URL.
const LocationsPath = "api/catalog/locations"

// Operations posted to the catalog.
const (
	OpValidate = "validate"
	OpRegister = "register"
)

const maxResponseBytes = 1 << 20

// Options configures a Client.
type Options struct {
	BaseURL     string // Backstage base URL
	FileAPI     string // prefix turning a catalog path into a URL Backstage can read
	Token       string // optional
	Bearer      bool   // send Token as a Bearer token instead of Basic
	Concurrency int
	HTTPClient  *http.Client
	Retrier     *retry.Retrier
	Recorder    metrics.Recorder
}

// Client posts catalog locations.
type Client struct {
	opts Options
}

// Outcome is the result of posting one catalog file.
type Outcome struct {
	Catalog  string `json:"catalog"`
	Status   int    `json:"status"`
	Response any    `json:"response,omitempty"`
	Error    any    `json:"error,omitempty"`
}

// Failed reports whether the post did not succeed.
func (o Outcome) Failed() bool { return o.Status >= 400 }

// New returns a client.
func New(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = fileops.NewHTTPClient()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Retrier == nil {
		opts.Retrier = retry.New(retry.DefaultPolicy(), opts.Recorder)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	return &Client{opts: opts}
}

// Endpoint returns the URL posted to. Validation adds dryRun=true.
func (c *Client) Endpoint(dryRun bool) string {
	endpoint := strings.TrimSuffix(c.opts.BaseURL, "/") + "/" + LocationsPath
	if dryRun {
		endpoint += "?dryRun=true"
	}
	return endpoint
}

// Headers returns the request headers, including authorization when a token is set.
func (c *Client) Headers() map[string]string {
	headers := map[string]string{"Content-Type": "application/json"}
	if c.opts.Token != "" {
		scheme := "Basic"
		if c.opts.Bearer {
			scheme = "Bearer"
		}
		headers["Authorization"] = scheme + " " + c.opts.Token
	}
	return headers
}

// Body returns the location entity posted for catalog.
func (c *Client) Body(catalog string) []byte {
	body, _ := json.Marshal(map[string]string{"type": "url", "target": c.opts.FileAPI + catalog})
	return body
}

// PostAll posts every catalog concurrently. Outcomes keep the order of catalogs.
// The returned error aggregates the failed posts.
func (c *Client) PostAll(ctx context.Context, catalogs []string, dryRun bool) ([]Outcome, error) {
	outcomes := make([]Outcome, len(catalogs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, catalog := range catalogs {
		g.Go(func() error {
			outcomes[i] = c.Post(gctx, catalog, dryRun)
			return nil
		})
	}
	_ = g.Wait()

	var result *multierror.Error
	for _, o := range outcomes {
		if o.Failed() {
			result = multierror.Append(result, fmt.Errorf("%s: HTTP %d", o.Catalog, o.Status))
		}
	}
	return outcomes, result.ErrorOrNil()
}

// Post posts a single catalog file. Transport errors are reported as status 500.
func (c *Client) Post(ctx context.Context, catalog string, dryRun bool) Outcome {
	op := OpRegister
	if dryRun {
		op = OpValidate
	}
	var outcome Outcome
	_, err := retry.Do(ctx, c.opts.Retrier, op, func(ctx context.Context) (Outcome, error) {
		o, err := c.post(ctx, catalog, dryRun)
		outcome = o
		return o, err
	})
	if err != nil && outcome.Status == 0 {
		outcome = Outcome{Catalog: catalog, Status: http.StatusInternalServerError, Error: err.Error()}
	}
	result := metrics.ResultSuccess
	if outcome.Failed() {
		result = metrics.ResultFailed
		slog.Warn("Catalog post failed", logfields.CatalogName(catalog), logfields.Status(outcome.Status))
	}
	c.opts.Recorder.IncRequest(op, result)
	return outcome
}

func (c *Client) post(ctx context.Context, catalog string, dryRun bool) (Outcome, error) {
	endpoint := c.Endpoint(dryRun)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(c.Body(catalog)))
	if err != nil {
		return Outcome{}, ferrors.WrapError(err, ferrors.CategoryCatalogAPI, "build request").Build()
	}
	for k, v := range c.Headers() {
		req.Header.Set(k, v)
	}
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return Outcome{}, ferrors.WrapError(err, ferrors.CategoryNetwork, "post "+endpoint).Retryable().Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	text, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Outcome{}, ferrors.WrapError(err, ferrors.CategoryNetwork, "read response").Retryable().Build()
	}
	outcome := Outcome{Catalog: catalog, Status: resp.StatusCode}
	if resp.StatusCode >= 500 {
		outcome.Error = decode(text)
		return outcome, ferrors.CatalogAPIError(fmt.Sprintf("HTTP %d from %s", resp.StatusCode, endpoint)).
			WithContext("catalog", catalog).
			Retryable().
			Build()
	}
	if resp.StatusCode >= 400 {
		outcome.Error = decode(text)
		return outcome, nil
	}
	var response any
	if err := json.Unmarshal(text, &response); err != nil {
		outcome.Error = err.Error()
		return outcome, nil
	}
	outcome.Response = response
	return outcome, nil
}

// decode returns the body as JSON when it parses and as text otherwise.
func decode(text []byte) any {
	var v any
	if err := json.Unmarshal(text, &v); err == nil {
		return v
	}
	return string(text)
}
