package git

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/catalogbuilder/internal/logfields"
)

// OriginRemote is the remote consulted for the repository URL.
const OriginRemote = "origin"

// ErrNoOrigin is returned when the repository has no usable origin remote.
var ErrNoOrigin = errors.New("no origin remote")

// OriginURL returns the first URL of the origin remote of the repository
// containing dir. User information is removed from URL-shaped values.
func OriginURL(dir string) (string, error) {
	repository, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repository at %s: %w", dir, err)
	}
	remote, err := repository.Remote(OriginRemote)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", ErrNoOrigin
		}
		return "", fmt.Errorf("read remote %s: %w", OriginRemote, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 || strings.TrimSpace(urls[0]) == "" {
		return "", ErrNoOrigin
	}
	return RedactURL(strings.TrimSpace(urls[0])), nil
}

// RedactURL strips credentials from raw. Values that do not parse as a URL
// with a scheme, such as scp-style addresses, are returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	u.User = nil
	return u.String()
}

// DefaultLocationName names the top-level location after the origin remote.
// It returns an empty string when dir is not inside a repository with an origin.
func DefaultLocationName(dir string) string {
	origin, err := OriginURL(dir)
	if err != nil {
		slog.Debug("No default location name from git", logfields.Path(dir), logfields.Error(err))
		return ""
	}
	return "Mono repo at " + origin
}
