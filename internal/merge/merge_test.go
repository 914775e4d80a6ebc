package merge

import (
	"context"
	"testing"

	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
)

func TestMerge(t *testing.T) {
	files := fileops.NewMemory(map[string]string{
		"base.yaml":     "metadata:\n  name: svc\n  tags: [a, b]\nspec:\n  owner: team-a\n  lifecycle: experimental\n",
		"override.json": `{"spec":{"owner":"team-b"},"metadata":{"tags":["c"]}}`,
		"extra.yml":     "spec:\n  system: payments\n",
	})

	docs := Load(context.Background(), files, []string{"base.yaml", "override.json", "extra.yml"})
	require.Empty(t, Failed(docs))

	merged, err := Merge(docs)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"metadata": map[string]any{"name": "svc", "tags": []any{"c"}},
		"spec":     map[string]any{"owner": "team-b", "lifecycle": "experimental", "system": "payments"},
	}, merged)

	out, err := YAML(merged)
	require.NoError(t, err)
	var roundTrip map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &roundTrip))
	require.Equal(t, "team-b", roundTrip["spec"].(map[string]any)["owner"])

	parsed, err := oj.ParseString(JSON(merged))
	require.NoError(t, err)
	require.Equal(t, "payments", parsed.(map[string]any)["spec"].(map[string]any)["system"])
}

func TestLoadFailures(t *testing.T) {
	files := fileops.NewMemory(map[string]string{
		"a.txt":      "x",
		"list.yaml":  "- a\n",
		"bad.json":   "{",
		"empty.yaml": "",
	})

	docs := Load(context.Background(), files, []string{"a.txt", "list.yaml", "bad.json", "missing.yaml", "empty.yaml"})
	failed := Failed(docs)
	require.Len(t, failed, 4)
	require.Equal(t, "unknown file type", failed[0].Error)
	require.Contains(t, failed[1].Error, "is not an object")
	require.Equal(t, map[string]any{}, docs[4].Contents)

	_, err := Merge(docs)
	require.ErrorContains(t, err, "a.txt: unknown file type")
}
