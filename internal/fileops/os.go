package fileops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	ferrors "git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
)

const maxResponseBytes = 5 * 1024 * 1024

// NewHTTPClient creates an HTTP client with safe defaults: a timeout and no
// redirects to another host.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) == 0 {
				return nil
			}
			if req.URL.Host != via[0].URL.Host {
				return errors.New("redirect to different host blocked")
			}
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
}

// OS implements FileOps on the local filesystem, fetching URLs over HTTP.
type OS struct {
	client  *http.Client
	headers map[string]string
}

// NewOS creates a FileOps backed by the local filesystem. A nil client uses NewHTTPClient.
func NewOS(client *http.Client) *OS {
	if client == nil {
		client = NewHTTPClient()
	}
	return &OS{client: client, headers: map[string]string{}}
}

// WithHeaders returns a copy that sends the given headers on every URL load.
func (o *OS) WithHeaders(headers map[string]string) *OS {
	merged := make(map[string]string, len(o.headers)+len(headers))
	for k, v := range o.headers {
		merged[k] = v
	}
	for k, v := range headers {
		merged[k] = v
	}
	return &OS{client: o.client, headers: merged}
}

// Load implements FileOps.
func (o *OS) Load(ctx context.Context, pathOrURL string) ([]byte, error) {
	if IsURL(pathOrURL) {
		return o.fetch(ctx, pathOrURL)
	}
	// #nosec G304 -- reading caller supplied descriptor and template paths is the purpose of this type.
	data, err := os.ReadFile(pathOrURL)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", pathOrURL, ErrNotFound)
	}
	return data, err
}

func (o *OS) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "fetch "+url).Retryable().Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("fetch %s: %w", url, ErrNotFound)
	}
	if resp.StatusCode >= 500 {
		return nil, ferrors.NetworkError(fmt.Sprintf("fetch %s: HTTP %d", url, resp.StatusCode)).
			WithContext("status", resp.StatusCode).
			Build()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("fetch %s: response too large", url)
	}
	return data, nil
}

// Save implements FileOps.
func (o *OS) Save(_ context.Context, path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// IsDir implements FileOps.
func (o *OS) IsDir(_ context.Context, path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile implements FileOps.
func (o *OS) IsFile(_ context.Context, path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// List implements FileOps.
func (o *OS) List(_ context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
