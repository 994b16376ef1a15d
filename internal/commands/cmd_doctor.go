package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/qgen/internal/config"
	"github.com/hay-kot/qgen/internal/core"
	"github.com/hay-kot/qgen/internal/generator"
	"github.com/hay-kot/qgen/pkgs/printer"
)

type DoctorCmd struct {
	coreFlags *core.Flags
	registry  *config.Registry
}

func NewDoctorCmd(coreFlags *core.Flags, registry *config.Registry) *DoctorCmd {
	return &DoctorCmd{coreFlags: coreFlags, registry: registry}
}

func (dc *DoctorCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:  "doctor",
		Usage: "check the configuration and list the templates that would be rendered",
		Description: `Loads the configuration without falling back to defaults, evaluates the
connection factory and reports the templates generate would render, including
project templates that replace built-in ones.

Nothing is written.`,
		Action: dc.doctor,
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (dc *DoctorCmd) doctor(ctx context.Context, c *cli.Command) error {
	var (
		plan    *generator.Plan
		planErr error
	)

	err := withSpinner("Checking configuration", func() {
		plan, planErr = generator.New(generator.Options{
			ConfigPath:  dc.coreFlags.ConfigFilePath,
			ProjectRoot: dc.coreFlags.ProjectRoot,
			Registry:    dc.registry,
			Logger:      log.Logger,
			Strict:      true,
		}).Plan(ctx)
	})
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	width := terminalWidth()

	configPath := dc.coreFlags.ConfigFilePath
	if plan != nil {
		configPath = plan.Config.Path
	}

	p.Print(sectionHeader("CONFIG", configPath, width) + "\n")
	p.StatusList("Configuration", configStatus(plan, planErr))

	if planErr != nil {
		return planErr
	}

	p.LineBreak()
	p.Print(sectionHeader("TEMPLATES", plan.OutputDir, width) + "\n")
	p.ListTree("Templates", templateTree(plan))

	if len(plan.Shadowed) > 0 {
		shadowed := make([]string, 0, len(plan.Shadowed))
		for _, t := range plan.Shadowed {
			shadowed = append(shadowed, t.Path)
		}
		p.LineBreak()
		p.List("Replaced by a higher precedence template", shadowed)
	}

	return nil
}

func configStatus(plan *generator.Plan, err error) []printer.StatusListItem {
	if err != nil {
		var (
			nf *core.ConfigNotFoundError
			ve *core.ConfigValidationError
		)

		switch {
		case errors.As(err, &nf):
			return []printer.StatusListItem{{Ok: false, Status: "configuration file not found: " + nf.Path}}
		case errors.As(err, &ve):
			return []printer.StatusListItem{
				{Ok: true, Status: "configuration file found"},
				{Ok: false, Status: fmt.Sprintf("configuration has %d problem(s)", len(ve.Issues))},
			}
		default:
			return []printer.StatusListItem{{Ok: false, Status: err.Error()}}
		}
	}

	cfg := plan.Config
	items := []printer.StatusListItem{
		{Ok: true, Status: "configuration file found"},
		{Ok: true, Status: fmt.Sprintf("%d queue(s), %d job(s)", len(plan.Context.Queues), len(plan.Context.Jobs()))},
		{Ok: true, Status: fmt.Sprintf("connection factory %q evaluated", cfg.ConnectionFactory)},
	}

	plain, encrypted, err := cfg.SecretsFiles()
	switch {
	case err != nil:
		items = append(items, printer.StatusListItem{Ok: false, Status: err.Error()})
	case plain == "":
	case fileExists(plain):
		items = append(items, printer.StatusListItem{Ok: false, Status: "connection secrets stored in plain text: " + plain})
	case fileExists(encrypted):
		items = append(items, printer.StatusListItem{Ok: true, Status: "connection secrets encrypted"})
	default:
		items = append(items, printer.StatusListItem{Ok: false, Status: "connection secrets file missing: " + plain})
	}

	return items
}

// templateTree groups the rendered templates by the directory they were
// found in, preserving precedence order.
func templateTree(plan *generator.Plan) []printer.Tree {
	byDir := make(map[string][]printer.Tree, len(plan.TemplateDirs))
	for _, target := range plan.Targets {
		dir := target.Template.Directory
		byDir[dir] = append(byDir[dir], printer.Tree{
			Text: target.Template.Name + " -> " + filepath.Base(target.OutputPath),
		})
	}

	dirs := slices.Clone(plan.TemplateDirs)
	for _, target := range plan.Targets {
		if !slices.Contains(dirs, target.Template.Directory) {
			dirs = append(dirs, target.Template.Directory)
		}
	}

	tree := make([]printer.Tree, 0, len(dirs))
	for _, dir := range dirs {
		children, ok := byDir[dir]
		if !ok {
			continue
		}
		tree = append(tree, printer.Tree{Text: dir, Children: children})
	}

	return tree
}
