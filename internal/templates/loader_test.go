package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/qgen/internal/core"
)

func writeTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiscover_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "common.ts.tmpl", "common")
	writeTemplate(t, dir, "config.yml.tmpl", "config")
	writeTemplate(t, dir, "README.md", "not a template")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.tmpl"), 0o755))

	ld := New(Config{Sources: DirSources([]string{dir})})

	got := ld.Discover()
	require.Len(t, got, 2)

	assert.Equal(t, TemplateInfo{
		Name:      "common.ts",
		Path:      filepath.Join(dir, "common.ts.tmpl"),
		Directory: dir,
		Extension: ".tmpl",
	}, got[0])
	assert.Equal(t, "config.yml", got[1].Name)
}

func TestDiscover_IsCachedPerInstance(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.ts.tmpl", "a")

	ld := New(Config{Sources: DirSources([]string{dir})})

	first := ld.Discover()
	require.Len(t, first, 1)

	writeTemplate(t, dir, "b.ts.tmpl", "b")

	second := ld.Discover()
	require.Len(t, second, 1)
	assert.Same(t, &first[0], &second[0])

	fresh := New(Config{Sources: DirSources([]string{dir})}).Discover()
	assert.Len(t, fresh, 2)
}

func TestDiscover_MissingDirectorySkipped(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.ts.tmpl", "a")

	ld := New(Config{Sources: DirSources([]string{filepath.Join(dir, "missing"), dir})})

	got := ld.Discover()
	require.Len(t, got, 1)
	assert.Equal(t, dir, got[0].Directory)
}

func TestDiscover_SourceOrderPrecedence(t *testing.T) {
	project := t.TempDir()
	writeTemplate(t, project, "common.ts.tmpl", "project")

	builtin := Source{
		Dir: BuiltinDir,
		FS: fstest.MapFS{
			"common.ts.tmpl": {Data: []byte("builtin")},
			"queues.ts.tmpl": {Data: []byte("queues")},
		},
	}

	ld := New(Config{Sources: []Source{DirSource(project), builtin}})

	got := ld.Discover()
	require.Len(t, got, 3)
	assert.Equal(t, project, got[0].Directory)
	assert.False(t, got[0].IsBuiltin())
	assert.True(t, got[1].IsBuiltin())

	info, ok := ld.Find("common.ts")
	require.True(t, ok)
	assert.Equal(t, project, info.Directory)

	res, err := ld.RenderByName(context.Background(), "queues.ts", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "queues", res.Content)
	assert.False(t, res.Written)
}

func TestBuiltinSource(t *testing.T) {
	ld := New(Config{Sources: []Source{BuiltinSource()}})

	names := []string{}
	for _, info := range ld.Discover() {
		assert.True(t, info.IsBuiltin())
		names = append(names, info.Name)
	}

	assert.Equal(t, []string{"common.ts", "producers.ts", "queues.ts", "workers.ts"}, names)

	text, err := ld.LoadTemplate(filepath.Join(BuiltinDir, "common.ts.tmpl"))
	require.NoError(t, err)
	assert.Contains(t, text, "connectionFactory")
}

func TestLoadTemplate_Missing(t *testing.T) {
	ld := New(Config{})

	_, err := ld.LoadTemplate(filepath.Join(t.TempDir(), "nope.tmpl"))
	require.ErrorIs(t, err, core.ErrTemplateLoad)
}

func TestRenderByName_NotFound(t *testing.T) {
	dirs := []string{t.TempDir(), t.TempDir()}
	ld := New(Config{Sources: DirSources(dirs)})

	_, err := ld.RenderByName(context.Background(), "doesNotExist", nil, "")
	require.ErrorIs(t, err, core.ErrTemplateNotFound)

	var nf *core.TemplateNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "doesNotExist", nf.Name)
	assert.Equal(t, dirs, nf.Searched)
}

func TestRender_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "hello.ts.tmpl", "export const name = {{ tsString .Name }};\n")
	out := filepath.Join(dir, "out", "nested", "hello.ts")

	ld := New(Config{Sources: DirSources([]string{dir})})

	res, err := ld.Render(context.Background(), RenderOptions{
		TemplatePath: path,
		Context:      map[string]any{"Name": "<b>it's</b>"},
		OutputPath:   out,
	})
	require.NoError(t, err)
	assert.True(t, res.Written)

	// Output is raw source code, never HTML escaped.
	want := "export const name = '<b>it\\'s</b>';\n"
	assert.Equal(t, want, res.Content)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
}

func TestRender_SkipMkdir(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "a.tmpl", "a")

	ld := New(Config{})

	_, err := ld.Render(context.Background(), RenderOptions{
		TemplatePath: path,
		OutputPath:   filepath.Join(dir, "missing", "a"),
		SkipMkdir:    true,
	})
	require.ErrorIs(t, err, core.ErrTemplateWrite)
}

func TestRender_WriteError(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "a.tmpl", "a")
	blocker := writeTemplate(t, dir, "blocker", "file")

	ld := New(Config{})

	_, err := ld.Render(context.Background(), RenderOptions{
		TemplatePath: path,
		OutputPath:   filepath.Join(blocker, "a"),
	})
	require.ErrorIs(t, err, core.ErrTemplateWrite)
	assert.NotErrorIs(t, err, core.ErrTemplateRender)

	var werr *core.TemplateWriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, filepath.Join(blocker, "a"), werr.Path)
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
	}{
		{name: "missing key", content: "line one\n{{ .Missing }}\n", line: 2},
		{name: "unknown function", content: "{{ nope .Name }}", line: 1},
		{name: "unclosed action", content: "a\nb\n{{ .Name", line: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemplate(t, t.TempDir(), "broken.ts.tmpl", tt.content)
			out := filepath.Join(t.TempDir(), "broken.ts")

			ld := New(Config{})

			_, err := ld.Render(context.Background(), RenderOptions{
				TemplatePath: path,
				Context:      map[string]any{"Name": "x"},
				OutputPath:   out,
			})
			require.ErrorIs(t, err, core.ErrTemplateRender)

			var rerr *core.TemplateRenderError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, path, rerr.Path)
			assert.Equal(t, tt.line, rerr.Line)
			assert.NotEmpty(t, rerr.Context)
			assert.Contains(t, FormatRenderError(rerr), "Template Error")

			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr), "output must not be written on render failure")
		})
	}
}

func TestRender_CanceledContext(t *testing.T) {
	path := writeTemplate(t, t.TempDir(), "a.tmpl", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{}).Render(ctx, RenderOptions{TemplatePath: path})
	require.ErrorIs(t, err, context.Canceled)
}
