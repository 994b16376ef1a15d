package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SafeResolve resolves inputPath against projectRoot and verifies the result
// stays inside projectRoot. Only path strings are inspected, the filesystem is
// never touched. A projectRoot of the filesystem root contains every absolute
// path.
func SafeResolve(inputPath, projectRoot string) (string, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", &PathValidationError{Path: inputPath, Root: projectRoot, Reason: err.Error()}
	}

	target := inputPath
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target = filepath.Clean(target)

	if err := ValidateWithinRoot(target, root); err != nil {
		return "", err
	}

	return target, nil
}

// ValidateWithinRoot returns a *PathValidationError when the absolute path
// target is not root itself or a descendant of root.
func ValidateWithinRoot(target, root string) error {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return &PathValidationError{Path: target, Root: root, Reason: err.Error()}
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return &PathValidationError{
			Path:   target,
			Root:   root,
			Reason: fmt.Sprintf("path is outside the project directory %q", root),
		}
	}

	if target != root && !strings.HasPrefix(target, withSeparator(root)) {
		return &PathValidationError{
			Path:   target,
			Root:   root,
			Reason: fmt.Sprintf("path is not within the project directory %q", root),
		}
	}

	return nil
}

func withSeparator(dir string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}
	return dir + string(filepath.Separator)
}
