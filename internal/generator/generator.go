// Package generator turns a queue configuration into generated source files.
package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/qgen/internal/config"
	"github.com/hay-kot/qgen/internal/core"
	"github.com/hay-kot/qgen/internal/templates"
)

// Options configure a Generator.
type Options struct {
	// ConfigPath is the configuration file, relative to ProjectRoot.
	// Defaults to config.DefaultPath.
	ConfigPath string

	// OutputPath overrides the configured output directory.
	OutputPath string

	// TemplateDirs replace the default template search order. The value
	// templates.BuiltinDir selects the built-in templates.
	TemplateDirs []string

	// ProjectRoot contains the configuration. Defaults to the working directory.
	ProjectRoot string

	// Filter is an expr-lang expression selecting templates to render.
	Filter string

	Registry *config.Registry
	Logger   zerolog.Logger

	// Now stamps Meta.Timestamp. Defaults to time.Now.
	Now func() time.Time

	// Reporter is called after each file is written.
	Reporter func(templates.RenderResult)

	// Strict fails when the configuration file does not exist.
	Strict bool

	// Engine overrides the template engine.
	Engine templates.Engine
}

// Generator renders the templates selected for a configuration.
type Generator struct {
	opts Options
	l    zerolog.Logger
}

// New returns a Generator for opts.
func New(opts Options) *Generator {
	return &Generator{opts: opts, l: opts.Logger}
}

// Target is a template and the file it renders to.
type Target struct {
	Template   templates.TemplateInfo
	OutputPath string
}

// Plan describes what a generation run would do.
type Plan struct {
	Config    *config.WithPath
	Context   TemplateContext
	OutputDir string

	// TemplateDirs are the searched template directories in precedence order.
	TemplateDirs []string

	Targets []Target

	// Shadowed templates share a name with an earlier template and are
	// never rendered.
	Shadowed []templates.TemplateInfo

	// Skipped templates were rejected by the filter.
	Skipped []templates.TemplateInfo

	loader *templates.Loader
}

// Plan loads the configuration and resolves the templates to render without
// writing anything.
func (g *Generator) Plan(ctx context.Context) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, &core.GenerationError{Op: "plan", Cause: err}
	}

	plan, err := g.prepare()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, &core.GenerationError{Op: "plan", Cause: err}
	}

	if err := g.discover(plan); err != nil {
		return nil, err
	}

	return plan, nil
}

// Generate renders every selected template into the output directory.
// Files are written one at a time in discovery order. Files written before a
// failure are left in place.
func (g *Generator) Generate(ctx context.Context) error {
	err := g.generate(ctx)
	if err != nil {
		g.l.Error().Err(err).Msg("code generation failed")
	}
	return err
}

func (g *Generator) generate(ctx context.Context) error {
	plan, err := g.prepare()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(plan.OutputDir, 0o755); err != nil {
		return &core.GenerationError{Op: "create output directory " + plan.OutputDir, Cause: err}
	}

	if err := g.discover(plan); err != nil {
		return err
	}

	loader := g.loader(plan)

	for _, target := range plan.Targets {
		if err := ctx.Err(); err != nil {
			return &core.GenerationError{Op: "generate", Cause: err}
		}

		g.l.Debug().Str("template", target.Template.Name).Str("output", target.OutputPath).Msg("generating file")

		result, err := loader.Render(ctx, templates.RenderOptions{
			TemplatePath: target.Template.Path,
			Context:      plan.Context,
			OutputPath:   target.OutputPath,
		})
		if err != nil {
			var (
				rerr *core.TemplateRenderError
				werr *core.TemplateWriteError
			)
			if errors.As(err, &rerr) || errors.As(err, &werr) {
				return err
			}
			return &core.TemplateWriteError{Path: target.OutputPath, Cause: err}
		}

		g.l.Debug().
			Str("template", target.Template.Name).
			Str("output", target.OutputPath).
			Int("content_length", len(result.Content)).
			Msg("file generated")

		if g.opts.Reporter != nil {
			g.opts.Reporter(*result)
		}
	}

	g.l.Info().Str("output_dir", plan.OutputDir).Int("files", len(plan.Targets)).Msg("code generation completed")
	return nil
}

// prepare loads the configuration and builds the template context.
func (g *Generator) prepare() (*Plan, error) {
	root, err := g.projectRoot()
	if err != nil {
		return nil, &core.GenerationError{Op: "resolve project root", Cause: err}
	}

	registry := g.opts.Registry
	if registry == nil {
		registry = config.NewRegistry()
	}

	g.l.Debug().Str("config", g.opts.ConfigPath).Str("root", root).Msg("loading configuration")

	cfg, err := config.Load(g.opts.ConfigPath, config.LoadOptions{
		ProjectRoot: root,
		Registry:    registry,
		Logger:      g.l,
		Strict:      g.opts.Strict,
	})
	if err != nil {
		return nil, err
	}

	if g.opts.OutputPath != "" {
		cfg.OutputPath = g.opts.OutputPath
		if !filepath.IsAbs(cfg.OutputPath) {
			cfg.OutputPath = filepath.Join(cfg.Root, cfg.OutputPath)
		}
	}

	tctx, err := NewTemplateContext(cfg, g.opts.Now)
	if err != nil {
		return nil, &core.GenerationError{Op: "build template context", Cause: err}
	}

	return &Plan{
		Config:    cfg,
		Context:   tctx,
		OutputDir: OutputDir(cfg),
	}, nil
}

// discover resolves the templates for plan, dropping shadowed and filtered
// templates.
func (g *Generator) discover(plan *Plan) error {
	filter, err := CompileFilter(g.opts.Filter)
	if err != nil {
		return &core.GenerationError{Op: "compile filter", Cause: err}
	}

	loader := g.loader(plan)
	plan.TemplateDirs = loader.Directories()

	seen := map[string]bool{}
	for _, info := range loader.Discover() {
		if seen[info.Name] {
			g.l.Debug().Str("template", info.Name).Str("path", info.Path).Msg("template shadowed by earlier directory")
			plan.Shadowed = append(plan.Shadowed, info)
			continue
		}
		seen[info.Name] = true

		ok, err := filter.Match(info)
		if err != nil {
			return &core.GenerationError{Op: "evaluate filter", Cause: err}
		}
		if !ok {
			g.l.Debug().Str("template", info.Name).Str("filter", filter.String()).Msg("template skipped by filter")
			plan.Skipped = append(plan.Skipped, info)
			continue
		}

		plan.Targets = append(plan.Targets, Target{
			Template:   info,
			OutputPath: filepath.Join(plan.OutputDir, info.Name),
		})
	}

	return nil
}

// loader returns the template loader for plan. A plan uses one loader so
// discovery happens once per run.
func (g *Generator) loader(plan *Plan) *templates.Loader {
	if plan.loader == nil {
		plan.loader = templates.New(templates.Config{
			Sources: g.sources(plan.Config),
			Engine:  g.opts.Engine,
			Logger:  g.l,
		})
	}
	return plan.loader
}

func (g *Generator) sources(cfg *config.WithPath) []templates.Source {
	if len(g.opts.TemplateDirs) > 0 {
		sources := make([]templates.Source, 0, len(g.opts.TemplateDirs))
		for _, dir := range g.opts.TemplateDirs {
			switch {
			case dir == templates.BuiltinDir:
				sources = append(sources, templates.BuiltinSource())
			case filepath.IsAbs(dir):
				sources = append(sources, templates.DirSource(dir))
			default:
				sources = append(sources, templates.DirSource(filepath.Join(cfg.Root, dir)))
			}
		}
		return sources
	}

	sources := templates.DefaultSources(cfg.Root)
	if cfg.TemplatePath != "" && cfg.TemplatePath != sources[0].Dir {
		sources = append([]templates.Source{templates.DirSource(cfg.TemplatePath)}, sources...)
	}
	return sources
}

func (g *Generator) projectRoot() (string, error) {
	if g.opts.ProjectRoot != "" {
		return filepath.Abs(g.opts.ProjectRoot)
	}
	return os.Getwd()
}
