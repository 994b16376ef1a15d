package core

import (
	"os"
	"path/filepath"
	"strings"
)

// PathResolver resolves paths written in the configuration file. Relative
// paths are taken from the configuration file's directory and a leading '~'
// expands to the user's home directory.
type PathResolver struct {
	baseDir string
}

// NewPathResolver returns a PathResolver rooted at baseDir. An empty baseDir
// falls back to the process working directory.
func NewPathResolver(baseDir string) PathResolver {
	return PathResolver{baseDir: baseDir}
}

// Resolve returns p as a clean absolute path.
func (pr PathResolver) Resolve(p string) (string, error) {
	p, err := expandHome(p)
	if err != nil {
		return "", err
	}

	switch {
	case filepath.IsAbs(p):
		return filepath.Clean(p), nil
	case pr.baseDir != "":
		return filepath.Join(pr.baseDir, p), nil
	default:
		return filepath.Abs(p)
	}
}

// RelativeTo resolves p and expresses it relative to dir with forward
// slashes, the form generated import statements use.
func (pr PathResolver) RelativeTo(dir, p string) (string, error) {
	abs, err := pr.Resolve(p)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(rel), nil
}

// expandHome replaces "~" and a leading "~/" with the home directory. Other
// uses of '~', such as "~user", are left alone.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
