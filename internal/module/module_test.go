package module

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
)

func TestNewIdentity(t *testing.T) {
	require.Equal(t, Identity{GroupID: "com.x", ArtifactID: "child", FullName: "com.x.child", Version: "1.0"},
		NewIdentity("com.x", "child", "1.0"))
	require.Equal(t, "left-pad", NewIdentity("", "left-pad", "").FullName)
	require.Empty(t, NewIdentity("com.x", "", "1.0").FullName)
}

func TestDir(t *testing.T) {
	require.Equal(t, ".", Dir("pom.xml"))
	require.Equal(t, "pkgs/a", Dir("pkgs/a/package.json"))
	require.Equal(t, "a", Dir("./a/pom.xml"))
}

func TestCleanName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"com.x.child", "com-x-child"},
		{"@scope/pkg", "scope-pkg"},
		{"---", "a"},
		{"", "a"},
		{"Mono repo at https://github.com/x/y.git", "Mono-repo-at-https-github-com-x-y-git"},
		{strings.Repeat("b", 70), strings.Repeat("b", 63)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, CleanName(tc.in))
		})
	}
}

func TestPrefixWithDot(t *testing.T) {
	require.Equal(t, "./a/catalog-info.yaml", PrefixWithDot("a/catalog-info.yaml"))
	require.Equal(t, "./a", PrefixWithDot("./a"))
}

func TestParseIgnore(t *testing.T) {
	for _, raw := range []string{"true", "TRUE", " true "} {
		got, err := ParseIgnore(raw, "a/pom.xml")
		require.NoError(t, err)
		require.True(t, got)
	}
	got, err := ParseIgnore("false", "a/pom.xml")
	require.NoError(t, err)
	require.False(t, got)

	_, err = ParseIgnore("yes", "a/pom.xml")
	require.Error(t, err)
	var kindErr *KindError
	require.ErrorAs(t, err, &kindErr)
	require.Equal(t, ErrorStructural, kindErr.Kind)
	require.Contains(t, err.Error(), "a/pom.xml")
}

func TestParseIgnoreValue(t *testing.T) {
	got, err := ParseIgnoreValue(nil, "package.json")
	require.NoError(t, err)
	require.False(t, got)

	got, err = ParseIgnoreValue(true, "package.json")
	require.NoError(t, err)
	require.True(t, got)

	_, err = ParseIgnoreValue(int64(1), "package.json")
	require.Error(t, err)
	require.Contains(t, err.Error(), "int64")
}

func TestWrap(t *testing.T) {
	wrap := Wrap("loading a/pom.xml", "a/pom.xml", ErrorLoad)

	rec := wrap(errors.New("unexpected EOF"))
	require.Equal(t, ErrorLoad, rec.Kind)
	require.Equal(t, "loading a/pom.xml: unexpected EOF", rec.Error())

	rec = wrap(Structural("the version is not defined for %s", "a/pom.xml"))
	require.Equal(t, ErrorStructural, rec.Kind)

	existing := &ErrorRecord{Context: "first", Kind: ErrorTemplate, Err: errors.New("x")}
	require.Same(t, existing, wrap(fmt.Errorf("again: %w", existing)))
}

func TestWrapWithTry(t *testing.T) {
	res := foundation.Try(func() (*Record, error) {
		var r *Record
		return r.WithDeps(nil), nil
	}, Wrap("render", "a/pom.xml", ErrorTemplate))
	require.True(t, res.IsErr())
	require.Contains(t, res.UnwrapErr().Error(), "panic")
}
