package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors, one per failure kind. Every typed error below reports true
// for errors.Is against its sentinel.
var (
	ErrPathValidation   = errors.New("path validation failed")
	ErrConfigValidation = errors.New("config validation failed")
	ErrConfigLoad       = errors.New("config load failed")
	ErrConfigNotFound   = errors.New("config not found")
	ErrTemplateLoad     = errors.New("template load failed")
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateRender   = errors.New("template render failed")
	ErrTemplateWrite    = errors.New("template write failed")
	ErrGeneration       = errors.New("generation failed")
)

// PathValidationError is returned when a resolved path escapes the project root.
type PathValidationError struct {
	Path   string
	Root   string
	Reason string
}

func (e *PathValidationError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

func (e *PathValidationError) Is(target error) bool { return target == ErrPathValidation }

// Issue is a single schema violation at a field path.
type Issue struct {
	Path    string
	Message string
}

// ConfigValidationError holds every schema violation found in a configuration.
type ConfigValidationError struct {
	Source string
	Issues []Issue
}

func (e *ConfigValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed")
	if e.Source != "" {
		sb.WriteString(" for ")
		sb.WriteString(e.Source)
	}
	sb.WriteString(":")
	for _, issue := range e.Issues {
		sb.WriteString("\n")
		if issue.Path != "" {
			sb.WriteString(issue.Path)
			sb.WriteString(": ")
		}
		sb.WriteString(issue.Message)
	}
	return sb.String()
}

func (e *ConfigValidationError) Is(target error) bool { return target == ErrConfigValidation }

// ErrorsByPath groups the issue messages by field path.
func (e *ConfigValidationError) ErrorsByPath() map[string][]string {
	grouped := make(map[string][]string, len(e.Issues))
	for _, issue := range e.Issues {
		grouped[issue.Path] = append(grouped[issue.Path], issue.Message)
	}
	return grouped
}

// Paths returns the distinct issue paths in sorted order.
func (e *ConfigValidationError) Paths() []string {
	grouped := e.ErrorsByPath()
	paths := make([]string, 0, len(grouped))
	for p := range grouped {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ConfigLoadError is returned when a configuration source exists but cannot be
// loaded, or when its path fails the path guard.
type ConfigLoadError struct {
	Path  string
	Cause error
}

func (e *ConfigLoadError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("failed to load configuration from %s", e.Path)
	}
	return fmt.Sprintf("failed to load configuration from %s: %v", e.Path, e.Cause)
}

func (e *ConfigLoadError) Unwrap() error { return e.Cause }
func (e *ConfigLoadError) Is(target error) bool { return target == ErrConfigLoad }

// ConfigNotFoundError is returned by strict loads when the configuration file
// does not exist.
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s", e.Path)
}

func (e *ConfigNotFoundError) Is(target error) bool { return target == ErrConfigNotFound }

// TemplateLoadError is returned when a template file or directory cannot be read.
type TemplateLoadError struct {
	Path  string
	Cause error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("failed to load template from %s: %v", e.Path, e.Cause)
}

func (e *TemplateLoadError) Unwrap() error { return e.Cause }
func (e *TemplateLoadError) Is(target error) bool { return target == ErrTemplateLoad }

// TemplateNotFoundError is returned when a template name has no discovery match.
type TemplateNotFoundError struct {
	Name     string
	Searched []string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %q not found in: %s", e.Name, strings.Join(e.Searched, ", "))
}

func (e *TemplateNotFoundError) Is(target error) bool { return target == ErrTemplateNotFound }

// TemplateRenderError is returned when the template engine fails. Line, Column
// and Context are filled in when the engine error carries a position.
type TemplateRenderError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Context []string
	Cause   error
}

func (e *TemplateRenderError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("failed to render template %s: %s", e.Path, e.Message)
	}
	if e.Column == 0 {
		return fmt.Sprintf("failed to render template %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("failed to render template %s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
}

func (e *TemplateRenderError) Unwrap() error { return e.Cause }
func (e *TemplateRenderError) Is(target error) bool { return target == ErrTemplateRender }

// TemplateWriteError is returned when generated output cannot be written.
type TemplateWriteError struct {
	Path  string
	Cause error
}

func (e *TemplateWriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Cause)
}

func (e *TemplateWriteError) Unwrap() error { return e.Cause }
func (e *TemplateWriteError) Is(target error) bool { return target == ErrTemplateWrite }

// GenerationError wraps orchestration failures that are not otherwise classified.
type GenerationError struct {
	Op    string
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %s: %v", e.Op, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }
func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }
