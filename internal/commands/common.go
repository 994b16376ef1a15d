package commands

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/hay-kot/qgen/internal/config"
	"github.com/hay-kot/qgen/internal/core"
	"github.com/hay-kot/qgen/internal/templates"
	"github.com/hay-kot/qgen/pkgs/cll"
	"github.com/hay-kot/qgen/pkgs/printer"
)

var envvars = cll.EnvWithPrefix(core.EnvPrefix)

// loadConfig loads the configuration named by the global flags.
func loadConfig(flags *core.Flags, registry *config.Registry, strict bool) (*config.WithPath, error) {
	root, err := projectRoot(flags.ProjectRoot)
	if err != nil {
		return nil, err
	}

	return config.Load(flags.ConfigFilePath, config.LoadOptions{
		ProjectRoot: root,
		Registry:    registry,
		Logger:      log.Logger,
		Strict:      strict,
	})
}

// PrintError writes err to p. Validation errors are grouped by field path and
// render errors are shown with the offending template lines.
func PrintError(p *printer.Printer, err error) {
	var verr *core.ConfigValidationError
	if errors.As(err, &verr) {
		byPath := verr.ErrorsByPath()

		items := make([]printer.KeyValueError, 0, len(byPath))
		for _, path := range verr.Paths() {
			items = append(items, printer.KeyValueError{Key: path, Errors: byPath[path]})
		}

		title := "Invalid configuration"
		if verr.Source != "" {
			title += " in " + verr.Source
		}

		p.LineBreak()
		p.KeyValueValidationError(title, items)
		return
	}

	var rerr *core.TemplateRenderError
	if errors.As(err, &rerr) && rerr.Line > 0 {
		p.LineBreak()
		p.Print(templates.FormatRenderError(rerr))
		return
	}

	p.FatalError(err)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
