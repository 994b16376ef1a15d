// Package templates discovers, loads and renders the code generation
// templates.
package templates

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	"github.com/hay-kot/qgen/internal/core"
)

// DefaultExtension marks a file as a template. It is stripped from the file
// name to form the template name.
const DefaultExtension = ".tmpl"

// Source is a directory scanned for templates. FS overrides the filesystem
// the directory is read from; when nil the directory is read from disk.
type Source struct {
	Dir string
	FS  fs.FS
}

// DirSource returns a Source reading dir from disk.
func DirSource(dir string) Source {
	return Source{Dir: dir}
}

// DirSources returns a disk Source for each of dirs, preserving order.
func DirSources(dirs []string) []Source {
	sources := make([]Source, 0, len(dirs))
	for _, d := range dirs {
		sources = append(sources, DirSource(d))
	}
	return sources
}

// DefaultSources is the default search order: the project's templates
// directory followed by the built-in templates.
func DefaultSources(root string) []Source {
	return []Source{
		DirSource(filepath.Join(root, "templates")),
		BuiltinSource(),
	}
}

func (s Source) fsys() fs.FS {
	if s.FS != nil {
		return s.FS
	}
	return os.DirFS(s.Dir)
}

// TemplateInfo describes one discovered template file.
type TemplateInfo struct {
	// Name is the file name without the template extension, e.g. "common.ts".
	Name      string
	Path      string
	Directory string
	Extension string
}

// IsBuiltin reports whether the template was discovered in the built-in set.
func (t TemplateInfo) IsBuiltin() bool {
	return t.Directory == BuiltinDir
}

// Config configures a Loader.
type Config struct {
	// Sources are scanned in order. Earlier sources take precedence when two
	// contain a template of the same name.
	Sources []Source

	// Extensions recognized as templates. Defaults to DefaultExtension.
	Extensions []string

	// Engine renders template text. Defaults to a TextEngine.
	Engine Engine

	Logger zerolog.Logger
}

// Loader discovers and renders templates. Discovery is computed once per
// Loader; construct a new Loader to rescan the filesystem.
type Loader struct {
	cfg Config
	l   zerolog.Logger

	once       sync.Once
	discovered []TemplateInfo
}

func New(cfg Config) *Loader {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{DefaultExtension}
	}

	if cfg.Engine == nil {
		cfg.Engine = NewTextEngine(EngineOptions{
			Debug:  DevelopmentFromEnv(),
			Logger: cfg.Logger,
		})
	}

	return &Loader{cfg: cfg, l: cfg.Logger}
}

// Directories returns the configured source directories in search order.
func (ld *Loader) Directories() []string {
	dirs := make([]string, 0, len(ld.cfg.Sources))
	for _, s := range ld.cfg.Sources {
		dirs = append(dirs, s.Dir)
	}
	return dirs
}

// Discover returns the templates found across all sources, in source order
// and sorted by file name within a source. The result is cached and the same
// slice is returned on every call.
func (ld *Loader) Discover() []TemplateInfo {
	ld.once.Do(func() {
		perSource := iter.Map(ld.cfg.Sources, func(s *Source) []TemplateInfo {
			return ld.scan(*s)
		})

		discovered := []TemplateInfo{}
		for _, infos := range perSource {
			discovered = append(discovered, infos...)
		}

		ld.l.Debug().Int("count", len(discovered)).Strs("dirs", ld.Directories()).Msg("discovered templates")
		ld.discovered = discovered
	})

	return ld.discovered
}

func (ld *Loader) scan(s Source) []TemplateInfo {
	entries, err := fs.ReadDir(s.fsys(), ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			ld.l.Warn().Str("dir", s.Dir).Msg("template directory not found, skipping")
			return nil
		}

		lerr := &core.TemplateLoadError{Path: s.Dir, Cause: err}
		ld.l.Error().Err(lerr).Str("dir", s.Dir).Msg("failed to scan template directory")
		return nil
	}

	infos := []TemplateInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext, ok := ld.extensionOf(entry.Name())
		if !ok {
			continue
		}

		infos = append(infos, TemplateInfo{
			Name:      strings.TrimSuffix(entry.Name(), ext),
			Path:      filepath.Join(s.Dir, entry.Name()),
			Directory: s.Dir,
			Extension: ext,
		})
	}

	return infos
}

// extensionOf returns the longest recognized extension name ends with.
func (ld *Loader) extensionOf(name string) (string, bool) {
	best := ""
	for _, ext := range ld.cfg.Extensions {
		if strings.HasSuffix(name, ext) && len(name) > len(ext) && len(ext) > len(best) {
			best = ext
		}
	}
	return best, best != ""
}

// Find returns the first discovered template called name.
func (ld *Loader) Find(name string) (TemplateInfo, bool) {
	for _, t := range ld.Discover() {
		if t.Name == name {
			return t, true
		}
	}
	return TemplateInfo{}, false
}

// LoadTemplate reads the template at path. Paths inside a configured source
// are read through that source's filesystem.
func (ld *Loader) LoadTemplate(path string) (string, error) {
	dir, file := filepath.Dir(path), filepath.Base(path)

	for _, s := range ld.cfg.Sources {
		if filepath.Clean(s.Dir) != dir {
			continue
		}

		data, err := fs.ReadFile(s.fsys(), file)
		if err != nil {
			return "", &core.TemplateLoadError{Path: path, Cause: err}
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &core.TemplateLoadError{Path: path, Cause: err}
	}
	return string(data), nil
}

type RenderOptions struct {
	TemplatePath string
	Context      any

	// OutputPath, when set, receives the rendered content.
	OutputPath string

	// SkipMkdir disables creating the parent directories of OutputPath.
	SkipMkdir bool
}

type RenderResult struct {
	Content      string
	TemplatePath string
	OutputPath   string

	// Written is true only when OutputPath was set and the write succeeded.
	Written bool
}

// Render loads and renders a template, writing the result when
// opts.OutputPath is set.
func (ld *Loader) Render(ctx context.Context, opts RenderOptions) (*RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := ld.LoadTemplate(opts.TemplatePath)
	if err != nil {
		ld.l.Error().Err(err).Str("template", opts.TemplatePath).Msg("failed to load template")
		return nil, err
	}

	content, err := ld.cfg.Engine.Render(filepath.Base(opts.TemplatePath), text, opts.Context)
	if err != nil {
		rerr := newRenderError(opts.TemplatePath, text, err)
		ld.l.Error().
			Str("template", opts.TemplatePath).
			Int("line", rerr.Line).
			Str("message", rerr.Message).
			Msg("failed to render template")
		return nil, rerr
	}

	result := &RenderResult{
		Content:      content,
		TemplatePath: opts.TemplatePath,
		OutputPath:   opts.OutputPath,
	}

	if opts.OutputPath == "" {
		return result, nil
	}

	if err := writeOutput(opts.OutputPath, content, !opts.SkipMkdir); err != nil {
		ld.l.Error().Err(err).Str("output", opts.OutputPath).Msg("failed to write template output")
		return nil, err
	}

	result.Written = true
	ld.l.Debug().Str("template", opts.TemplatePath).Str("output", opts.OutputPath).Msg("wrote template output")

	return result, nil
}

// RenderByName renders the first discovered template called name.
func (ld *Loader) RenderByName(ctx context.Context, name string, data any, outputPath string) (*RenderResult, error) {
	info, ok := ld.Find(name)
	if !ok {
		err := &core.TemplateNotFoundError{Name: name, Searched: ld.Directories()}
		ld.l.Error().Str("template", name).Strs("searched", err.Searched).Msg("template not found")
		return nil, err
	}

	return ld.Render(ctx, RenderOptions{
		TemplatePath: info.Path,
		Context:      data,
		OutputPath:   outputPath,
	})
}

func writeOutput(path, content string, mkdir bool) error {
	if mkdir {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return &core.TemplateWriteError{Path: path, Cause: err}
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &core.TemplateWriteError{Path: path, Cause: err}
	}

	return nil
}
