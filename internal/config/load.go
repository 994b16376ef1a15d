package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/hay-kot/qgen/internal/core"
)

// LoadOptions control how Load resolves and validates a configuration.
type LoadOptions struct {
	// ProjectRoot is the directory the configuration must live in. Relative
	// config, output and template paths are resolved against it.
	ProjectRoot string

	// Registry resolves the connectionFactory name. Nil uses NewRegistry().
	Registry *Registry

	// Logger receives diagnostic events. The zero value discards them.
	Logger zerolog.Logger

	// Strict makes a missing configuration file a *core.ConfigNotFoundError
	// instead of falling back to the default configuration.
	Strict bool
}

// Dir returns the directory containing the configuration file.
func (c *WithPath) Dir() string {
	return filepath.Dir(c.Path)
}

// Load resolves path inside the project root, reads and validates it.
//
// The candidate configuration is either the whole YAML document or the value
// of its top-level "config" key. An empty candidate or a file that does not
// exist yields the default configuration; any other read or parse failure is
// a *core.ConfigLoadError. Schema violations are returned as a
// *core.ConfigValidationError.
func Load(path string, opts LoadOptions) (*WithPath, error) {
	if path == "" {
		path = DefaultPath
	}

	logger := opts.Logger

	root := opts.ProjectRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, &core.ConfigLoadError{Path: path, Cause: err}
		}
		root = wd
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, &core.ConfigLoadError{Path: path, Cause: err}
	}

	absolutePath, err := core.SafeResolve(path, root)
	if err != nil {
		logger.Error().Str("config", path).Err(err).Msg("config path validation failed")
		return nil, &core.ConfigLoadError{Path: path, Cause: err}
	}

	logger.Debug().Str("config", path).Str("resolved", absolutePath).Msg("config path validated and resolved")

	data, err := os.ReadFile(absolutePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if opts.Strict {
				logger.Error().Str("config", absolutePath).Msg("config file not found")
				return nil, &core.ConfigNotFoundError{Path: absolutePath}
			}

			logger.Warn().Str("config", absolutePath).Msg("config file not found, using defaults")
			return defaults(absolutePath, root), nil
		}

		logger.Error().Str("config", absolutePath).Err(err).Msg("failed to read configuration")
		return nil, &core.ConfigLoadError{Path: path, Cause: err}
	}

	candidate, err := parseCandidate(data)
	if err != nil {
		logger.Error().Str("config", absolutePath).Err(err).Msg("failed to parse configuration")
		return nil, &core.ConfigLoadError{Path: path, Cause: err}
	}

	if candidate == nil {
		logger.Warn().Str("config", absolutePath).Msg("no config found in file, using defaults")
		return defaults(absolutePath, root), nil
	}

	cfg, err := decodeNode(candidate, path)
	if err == nil {
		cfg, err = Validate(cfg, opts.Registry, path)
	}
	if err != nil {
		var verr *core.ConfigValidationError
		if errors.As(err, &verr) {
			logger.Error().
				Str("config", absolutePath).
				Interface("validation_errors", verr.ErrorsByPath()).
				Msg("configuration validation failed")
		}
		return nil, err
	}

	loaded := &WithPath{Config: *cfg, Path: absolutePath, Root: root}
	loaded.resolvePaths()

	secrets, err := readSecrets(loaded, logger)
	if err != nil {
		logger.Error().Str("config", absolutePath).Err(err).Msg("failed to load connection secrets")
		return nil, &core.ConfigLoadError{Path: path, Cause: err}
	}

	if secrets != nil {
		if issues := ValidateConnection(*secrets, "connectionSecrets"); len(issues) > 0 {
			return nil, &core.ConfigValidationError{Source: path, Issues: issues}
		}
		loaded.Connection = loaded.Connection.merge(*secrets)
	}

	logger.Info().Str("config", absolutePath).Int("queues", len(loaded.Queues)).Msg("configuration loaded")

	return loaded, nil
}

func defaults(path, root string) *WithPath {
	return &WithPath{Config: Default(root), Path: path, Root: root}
}

// resolvePaths makes relative output and template paths absolute against the
// project root.
func (c *WithPath) resolvePaths() {
	if c.OutputPath != "" && !filepath.IsAbs(c.OutputPath) {
		c.OutputPath = filepath.Join(c.Root, c.OutputPath)
	}
	if c.TemplatePath != "" && !filepath.IsAbs(c.TemplatePath) {
		c.TemplatePath = filepath.Join(c.Root, c.TemplatePath)
	}
}
