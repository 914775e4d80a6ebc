package templates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/catalogbuilder/internal/fileops"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		body string
		data map[string]string
		want string
	}{
		{
			name: "placeholders",
			body: "name: <<artifactId>>\nowner: <<owner>>\n",
			data: map[string]string{"artifactId": "child", "owner": "team"},
			want: "name: child\nowner: team\n",
		},
		{
			name: "go template delimiters are literal",
			body: "value: {{ .Title }} <<x>>}}",
			data: map[string]string{"x": "1"},
			want: "value: {{ .Title }} 1}}",
		},
		{
			name: "brace before placeholder",
			body: "{<<x>>}",
			data: map[string]string{"x": "a"},
			want: "{a}",
		},
		{
			name: "yaml merge key is not a placeholder",
			body: "<<: *defaults\nname: <<name>>",
			data: map[string]string{"name": "n"},
			want: "<<: *defaults\nname: n",
		},
		{
			name: "value is not re-expanded",
			body: "<<a>>",
			data: map[string]string{"a": "<<b>>"},
			want: "<<b>>",
		},
		{
			name: "empty body",
			body: "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render("test", tt.body, tt.data)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRenderMissingVariable(t *testing.T) {
	_, err := Render("maven/default.template.yaml", "owner: <<owner>>", map[string]string{})
	require.ErrorIs(t, err, ErrMissingVariable)
	require.ErrorContains(t, err, `"owner"`)
	require.ErrorContains(t, err, "maven/default.template.yaml")
}

func TestTemplateIsReusable(t *testing.T) {
	tpl, err := Parse("t", "<<a>>-<<b>>")
	require.NoError(t, err)
	first, err := tpl.Execute(map[string]string{"a": "1", "b": "2"})
	require.NoError(t, err)
	second, err := tpl.Execute(map[string]string{"a": "1", "b": "2"})
	require.NoError(t, err)
	require.Equal(t, "1-2", first)
	require.Equal(t, first, second)

	_, err = tpl.Execute(map[string]string{"a": "1"})
	require.ErrorIs(t, err, ErrMissingVariable)
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, []string{"a", "b.c"}, Placeholders("<<a>> <<b.c>> <<a>> <<: x"))
}

func TestStoreForKind(t *testing.T) {
	ctx := context.Background()
	files := fileops.NewMemory(map[string]string{
		"tpl/maven/default.template.yaml": "default <<kind>>",
		"tpl/maven/API.template.yaml":     "api <<kind>>",
		"tpl/root.template.yaml":          "root <<name>>",
	})
	store := NewStore(files, "tpl")

	tpl, err := store.ForKind(ctx, "maven", "API")
	require.NoError(t, err)
	require.Equal(t, "tpl/maven/API.template.yaml", tpl.Name())

	tpl, err = store.ForKind(ctx, "maven", "Unusual")
	require.NoError(t, err)
	require.Equal(t, "tpl/maven/default.template.yaml", tpl.Name())
	out, err := tpl.Execute(map[string]string{"kind": "Unusual"})
	require.NoError(t, err)
	require.Equal(t, "default Unusual", out)

	_, err = store.ForKind(ctx, "npm", "Unusual")
	require.ErrorIs(t, err, ErrTemplateNotFound)
	require.ErrorIs(t, err, fileops.ErrNotFound)

	root, err := store.Root(ctx)
	require.NoError(t, err)
	require.Equal(t, "tpl/root.template.yaml", root.Name())

	_, err = NewStore(files, "elsewhere").Root(ctx)
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestStoreBuiltin(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, "")
	require.Equal(t, "builtin", store.Dir())

	data := map[string]string{
		"kind": "Component", "artifactId": "child", "fullname": "com.x.child", "description": `"..."`,
		"scm": "https://example.com/repo", "groupId": "com.x", "version": "1.0",
		"lifecycle": "experimental", "owner": "team", "dependsOn": "",
	}
	for _, sourceType := range []string{"maven", "npm"} {
		tpl, err := store.ForKind(ctx, sourceType, "Component")
		require.NoError(t, err)
		out, err := tpl.Execute(data)
		require.NoError(t, err)
		require.Contains(t, out, "name: child")
	}

	api, err := store.ForKind(ctx, "maven", "API")
	require.NoError(t, err)
	require.Equal(t, "builtin/maven/API.template.yaml", api.Name())

	root, err := store.Root(ctx)
	require.NoError(t, err)
	out, err := root.Execute(map[string]string{"name": "repo", "targets": "    - ./catalog-info.maven.yaml"})
	require.NoError(t, err)
	require.Contains(t, out, "kind: Location")
	require.Contains(t, out, "    - ./catalog-info.maven.yaml")
}
