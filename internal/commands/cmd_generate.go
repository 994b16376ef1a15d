package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/qgen/internal/config"
	"github.com/hay-kot/qgen/internal/core"
	"github.com/hay-kot/qgen/internal/generator"
	"github.com/hay-kot/qgen/internal/templates"
	"github.com/hay-kot/qgen/pkgs/printer"
	"github.com/hay-kot/qgen/pkgs/styles"
)

const watchDebounce = 250 * time.Millisecond

type GenerateCmd struct {
	coreFlags *core.Flags
	registry  *config.Registry

	flags struct {
		output    string
		templates []string
		verbose   bool
		only      string
		watch     bool
		strict    bool
	}
}

func NewGenerateCmd(coreFlags *core.Flags, registry *config.Registry) *GenerateCmd {
	return &GenerateCmd{coreFlags: coreFlags, registry: registry}
}

func (gc *GenerateCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate queue, worker and producer code from the configuration",
		Description: `Loads the queue configuration, builds the template context and renders every
discovered template into the output directory.

Templates are searched in ./templates first and then in the built-in set. A
project template with the same name as a built-in one replaces it. The output
file name is the template file name without the .tmpl extension.

Examples:
  qgen generate
  qgen generate -o ./src/generated
  qgen generate -t ./my-templates -t "<builtin>"
  qgen generate --only 'name endsWith ".ts" && !builtin'
  qgen generate --watch`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "override the configured output directory",
				Sources:     envvars("OUTPUT_PATH"),
				Destination: &gc.flags.output,
			},
			&cli.StringSliceFlag{
				Name:        "templates",
				Aliases:     []string{"t"},
				Usage:       "template directories, in precedence order (replaces the default search order)",
				Destination: &gc.flags.templates,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Aliases:     []string{"v"},
				Usage:       "enable debug logging",
				Destination: &gc.flags.verbose,
			},
			&cli.StringFlag{
				Name:        "only",
				Usage:       "expression selecting templates (name, path, directory, extension, builtin)",
				Destination: &gc.flags.only,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Aliases:     []string{"w"},
				Usage:       "regenerate when the configuration or templates change",
				Destination: &gc.flags.watch,
			},
			&cli.BoolFlag{
				Name:        "strict",
				Usage:       "fail when the configuration file does not exist",
				Sources:     envvars("STRICT"),
				Destination: &gc.flags.strict,
			},
		},
		Action: gc.generate,
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (gc *GenerateCmd) options() generator.Options {
	return generator.Options{
		ConfigPath:   gc.coreFlags.ConfigFilePath,
		OutputPath:   gc.flags.output,
		TemplateDirs: gc.flags.templates,
		ProjectRoot:  gc.coreFlags.ProjectRoot,
		Filter:       gc.flags.only,
		Registry:     gc.registry,
		Logger:       log.Logger,
		Strict:       gc.flags.strict,
	}
}

func (gc *GenerateCmd) generate(ctx context.Context, c *cli.Command) error {
	if gc.flags.verbose {
		log.Logger = log.Level(zerolog.DebugLevel)
	}

	if gc.flags.watch {
		return gc.watch(ctx)
	}

	return gc.run(ctx)
}

// run performs a single generation with a fresh generator so templates and
// configuration are rediscovered on every call.
func (gc *GenerateCmd) run(ctx context.Context) error {
	opts := gc.options()

	root, err := projectRoot(opts.ProjectRoot)
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)

	count := 0
	opts.Reporter = func(r templates.RenderResult) {
		count++
		printFileSuccess(p, root, r)
	}

	if err := generator.New(opts).Generate(ctx); err != nil {
		return err
	}

	printSummary(p, count)
	return nil
}

func (gc *GenerateCmd) watch(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// watch output is live, bypass the deferred writer
	ctx = printer.WithWriter(ctx, os.Stdout)
	p := printer.Ctx(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dirs, outputDir, err := gc.watchDirs(ctx)
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			log.Debug().Err(err).Str("dir", dir).Msg("unable to watch directory, skipping")
			continue
		}
		log.Debug().Str("dir", dir).Msg("watching directory")
	}

	gc.runAndReport(ctx)
	p.Print(styles.Muted("watching for changes, press ctrl+c to stop") + "\n")

	var (
		timer   *time.Timer
		trigger = make(chan struct{}, 1)
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event, outputDir) {
				continue
			}

			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("change detected")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("file watcher error")
		case <-trigger:
			p.LineBreak()
			gc.runAndReport(ctx)
		}
	}
}

// runAndReport runs one generation and prints failures instead of returning
// them so watching continues.
func (gc *GenerateCmd) runAndReport(ctx context.Context) {
	if err := gc.run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		PrintError(printer.New(os.Stderr), err)
	}
}

// watchDirs returns the directories holding the configuration and the
// templates, plus the output directory whose changes are ignored.
func (gc *GenerateCmd) watchDirs(ctx context.Context) ([]string, string, error) {
	opts := gc.options()

	root, err := projectRoot(opts.ProjectRoot)
	if err != nil {
		return nil, "", err
	}

	dirs := []string{root}

	plan, err := generator.New(opts).Plan(ctx)
	if err != nil {
		// Still watch the project root so fixing the configuration triggers a run.
		log.Debug().Err(err).Msg("unable to plan generation, watching project root only")
		return dirs, "", nil
	}

	dirs = append(dirs, plan.Config.Dir())
	for _, dir := range plan.TemplateDirs {
		if dir == templates.BuiltinDir {
			continue
		}
		dirs = append(dirs, dir)
	}

	slices.Sort(dirs)
	return slices.Compact(dirs), plan.OutputDir, nil
}

func isRelevant(event fsnotify.Event, outputDir string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	if outputDir != "" && filepath.Dir(event.Name) == outputDir {
		return false
	}

	switch filepath.Ext(event.Name) {
	case templates.DefaultExtension, ".yml", ".yaml", ".age":
		return true
	default:
		return false
	}
}

func printFileSuccess(p *printer.Printer, root string, r templates.RenderResult) {
	p.Print(fmt.Sprintf("%s %s %s %s\n",
		styles.Success(styles.Check),
		shortenPath(root, r.TemplatePath),
		styles.Muted(styles.Arrow),
		shortenPath(root, r.OutputPath),
	))
}

func printSummary(p *printer.Printer, count int) {
	if count == 0 {
		p.Print(styles.Muted("no templates selected") + "\n")
		return
	}

	verb := "files"
	if count == 1 {
		verb = "file"
	}

	p.Print(fmt.Sprintf("\n%d %s generated successfully\n", count, verb))
}

// shortenPath returns path relative to root when it lies inside it.
func shortenPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !filepath.IsAbs(rel) && !startsWithParent(rel) {
		return rel
	}
	return path
}

func startsWithParent(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}

func projectRoot(root string) (string, error) {
	if root == "" {
		return os.Getwd()
	}
	return filepath.Abs(root)
}
