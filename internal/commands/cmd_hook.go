package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/qgen/internal/config"
	"github.com/hay-kot/qgen/internal/core"
)

const (
	hookMarker    = "qgen pre-commit hook"
	hookCheckArgs = "encrypt --check"
)

type HookCmd struct {
	coreFlags *core.Flags
}

func NewHookCmd(coreFlags *core.Flags) *HookCmd {
	return &HookCmd{coreFlags: coreFlags}
}

func (hc *HookCmd) Register(app *cli.Command) *cli.Command {
	cmds := []*cli.Command{
		{
			Name:  "hook",
			Usage: "manage git hooks for qgen",
			Commands: []*cli.Command{
				{
					Name:  "install",
					Usage: "install a git pre-commit hook that rejects unencrypted connection secrets",
					Description: `Installs a pre-commit hook that prevents commits while the connection secrets
file exists in plain text.

The hook calls 'qgen encrypt --check' before each commit. If a pre-commit hook
already exists, the qgen check is appended to it.`,
					Action: hc.install,
				},
				{
					Name:  "uninstall",
					Usage: "remove the qgen pre-commit hook",
					Description: `Removes the qgen section from .git/hooks/pre-commit. The hook file is deleted
when nothing else remains in it.`,
					Action: hc.uninstall,
				},
			},
		},
	}

	app.Commands = append(app.Commands, cmds...)
	return app
}

func (hc *HookCmd) install(ctx context.Context, cmd *cli.Command) error {
	start, err := projectRoot(hc.coreFlags.ProjectRoot)
	if err != nil {
		return err
	}

	gitDir, err := findGitDir(start)
	if err != nil {
		return fmt.Errorf("failed to find .git directory: %w", err)
	}

	qgenPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get qgen executable path: %w", err)
	}

	// The hook runs from the git root.
	configPath := hc.coreFlags.ConfigFilePath
	if configPath == "" {
		configPath = config.DefaultPath
	}
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(start, configPath)
	}
	gitRoot := filepath.Dir(gitDir)
	if rel, err := filepath.Rel(gitRoot, configPath); err == nil && !strings.HasPrefix(rel, "..") {
		configPath = rel
	}

	section := fmt.Sprintf("\n# %s - check connection secrets are encrypted\n%s --root=\"%s\" --config=\"%s\" %s || exit 1\n",
		hookMarker, qgenPath, gitRoot, configPath, hookCheckArgs)

	hookPath := filepath.Join(gitDir, "hooks", "pre-commit")

	installed, err := installHook(hookPath, section)
	if err != nil {
		return err
	}

	if !installed {
		log.Info().Str("path", hookPath).Msg("qgen pre-commit hook already installed")
		return nil
	}

	log.Info().Str("path", hookPath).Msg("Installed pre-commit hook successfully")
	return nil
}

func (hc *HookCmd) uninstall(ctx context.Context, cmd *cli.Command) error {
	start, err := projectRoot(hc.coreFlags.ProjectRoot)
	if err != nil {
		return err
	}

	gitDir, err := findGitDir(start)
	if err != nil {
		return fmt.Errorf("failed to find .git directory: %w", err)
	}

	hookPath := filepath.Join(gitDir, "hooks", "pre-commit")

	removed, err := removeHook(hookPath)
	if err != nil {
		return err
	}

	if !removed {
		log.Info().Msg("qgen hook not found in pre-commit")
		return nil
	}

	log.Info().Str("path", hookPath).Msg("Removed qgen section from pre-commit hook")
	return nil
}

// installHook appends section to the hook at hookPath, creating the file
// when needed. It reports false when the qgen section is already present.
func installHook(hookPath, section string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
		return false, fmt.Errorf("failed to create hooks directory: %w", err)
	}

	var content string

	existing, err := os.ReadFile(hookPath)
	switch {
	case err == nil:
		if strings.Contains(string(existing), hookMarker) {
			return false, nil
		}
		content = string(existing) + section
		log.Debug().Str("path", hookPath).Msg("Appending qgen check to existing pre-commit hook")
	case errors.Is(err, fs.ErrNotExist):
		content = "#!/bin/sh\n" + section
		log.Debug().Str("path", hookPath).Msg("Creating new pre-commit hook with qgen check")
	default:
		return false, fmt.Errorf("failed to read pre-commit hook: %w", err)
	}

	if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
		return false, fmt.Errorf("failed to write pre-commit hook: %w", err)
	}

	return true, nil
}

// removeHook strips the qgen section from the hook at hookPath. A hook left
// with only a shebang is deleted. It reports false when there was nothing to
// remove.
func removeHook(hookPath string) (bool, error) {
	content, err := os.ReadFile(hookPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read pre-commit hook: %w", err)
	}

	if !strings.Contains(string(content), hookMarker) {
		return false, nil
	}

	var (
		lines     []string
		inSection bool
	)

	for line := range strings.Lines(string(content)) {
		switch {
		case strings.Contains(line, hookMarker):
			inSection = true
			// drop the blank line that introduced the section
			if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "" {
				lines = lines[:n-1]
			}
		case inSection && strings.Contains(line, hookCheckArgs):
			inSection = false
		case inSection:
			// unexpected content inside the section is kept
			lines = append(lines, line)
		default:
			lines = append(lines, line)
		}
	}

	newContent := strings.Join(lines, "")

	trimmed := strings.TrimSpace(newContent)
	if trimmed == "" || trimmed == "#!/bin/sh" {
		if err := os.Remove(hookPath); err != nil {
			return false, fmt.Errorf("failed to remove pre-commit hook: %w", err)
		}
		return true, nil
	}

	if err := os.WriteFile(hookPath, []byte(newContent), 0o755); err != nil {
		return false, fmt.Errorf("failed to write pre-commit hook: %w", err)
	}

	return true, nil
}

// findGitDir finds the .git directory by walking up from dir.
func findGitDir(dir string) (string, error) {
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return gitDir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a git repository")
		}
		dir = parent
	}
}
