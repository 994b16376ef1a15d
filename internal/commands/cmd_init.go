package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/go-openapi/inflect"
	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/qgen/internal/config"
	"github.com/hay-kot/qgen/internal/core"
)

const configHeader = "# qgen configuration. Run 'qgen generate' after editing.\n"

type InitCmd struct {
	coreFlags *core.Flags
	registry  *config.Registry

	flags struct {
		yes bool
	}
}

func NewInitCmd(coreFlags *core.Flags, registry *config.Registry) *InitCmd {
	return &InitCmd{coreFlags: coreFlags, registry: registry}
}

func (ic *InitCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:  "init",
		Usage: "create a starter configuration file",
		Description: `Writes a configuration with one queue and one job to the path given by
--config. An existing file is never overwritten.

When attached to a terminal the values are asked for interactively. Use --yes
to accept the defaults.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "accept the defaults without prompting",
				Destination: &ic.flags.yes,
			},
		},
		Action: ic.init,
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

// initAnswers are the values a starter configuration is built from.
type initAnswers struct {
	Queue             string
	Job               string
	ConnectionFactory string
	OutputPath        string
	TemplatesDir      bool
}

func defaultAnswers() initAnswers {
	return initAnswers{
		Queue:             "default",
		Job:               "send_email",
		ConnectionFactory: config.NoopFactoryName,
		OutputPath:        "./src/queues/generated",
	}
}

func (ic *InitCmd) init(ctx context.Context, c *cli.Command) error {
	root, err := projectRoot(ic.coreFlags.ProjectRoot)
	if err != nil {
		return err
	}

	configPath := ic.coreFlags.ConfigFilePath
	if configPath == "" {
		configPath = config.DefaultPath
	}

	path, err := core.SafeResolve(configPath, root)
	if err != nil {
		return err
	}

	if fileExists(path) {
		return fmt.Errorf("%s already exists", path)
	}

	answers := defaultAnswers()
	if !ic.flags.yes && isInteractive() {
		if err := ic.ask(&answers); err != nil {
			return err
		}
	}

	data, err := renderConfig(sampleConfig(answers))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	log.Info().Str("path", path).Msg("Created configuration")

	if answers.TemplatesDir {
		dir := filepath.Join(root, "templates")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create templates directory: %w", err)
		}
		log.Info().Str("path", dir).Msg("Created templates directory")
	}

	return nil
}

func (ic *InitCmd) ask(answers *initAnswers) error {
	factories := make([]huh.Option[string], 0)
	for _, name := range ic.registry.Names() {
		factories = append(factories, huh.NewOption(name, name))
	}

	notEmpty := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("value is required")
		}
		return nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Queue name").
				Value(&answers.Queue).
				Validate(notEmpty),
			huh.NewInput().
				Title("First job name").
				Value(&answers.Job).
				Validate(notEmpty),
			huh.NewSelect[string]().
				Title("Connection factory").
				Options(factories...).
				Value(&answers.ConnectionFactory),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Output directory").
				Description("Relative to the project root").
				Value(&answers.OutputPath),
			huh.NewConfirm().
				Title("Create a templates directory for custom templates?").
				Value(&answers.TemplatesDir),
		),
	)

	return form.Run()
}

// sampleConfig builds a starter configuration from answers.
func sampleConfig(answers initAnswers) config.Config {
	job := strings.TrimSpace(answers.Job)

	return config.Config{
		Queues: []config.QueueConfig{
			{
				Name:          strings.TrimSpace(answers.Queue),
				WorkerOptions: map[string]any{"concurrency": 1},
				Jobs: []config.JobConfig{
					{
						Name:          job,
						ProcessorPath: "./processors/" + inflect.Dasherize(job) + ".ts",
						Payload: config.PayloadConfig{
							Name: inflect.Camelize(job) + "Schema",
						},
					},
				},
			},
		},
		OutputPath:        answers.OutputPath,
		SchemasPath:       "./schemas.ts",
		ConnectionFactory: answers.ConnectionFactory,
	}
}

func renderConfig(cfg config.Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return append([]byte(configHeader), data...), nil
}
