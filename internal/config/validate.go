package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/hay-kot/qgen/internal/core"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report field paths with the names used in the YAML document.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	return v
}

// Decode strictly decodes a YAML document into a Config, honouring a
// top-level "config" key. Syntax errors, type mismatches and unknown fields
// are reported as a *core.ConfigValidationError.
func Decode(data []byte, source string) (*Config, error) {
	node, err := parseCandidate(data)
	if err != nil {
		return nil, &core.ConfigValidationError{
			Source: source,
			Issues: []core.Issue{{Message: yaml.FormatError(err, false, false)}},
		}
	}

	if node == nil {
		return &Config{}, nil
	}

	return decodeNode(node, source)
}

// Validate checks cfg against the schema and evaluates its connection factory
// from registry. On success cfg.Connection holds the factory result. All
// violations are collected into a single *core.ConfigValidationError.
func Validate(cfg *Config, registry *Registry, source string) (*Config, error) {
	if registry == nil {
		registry = NewRegistry()
	}

	var issues []core.Issue

	if err := validate.Struct(cfg); err != nil {
		issues = append(issues, issuesFrom(err, "")...)
	}

	issues = append(issues, duplicateJobs(cfg)...)

	if cfg.ConnectionFactory != "" {
		opts, factoryIssues := evaluateFactory(cfg.ConnectionFactory, registry)
		issues = append(issues, factoryIssues...)
		if len(factoryIssues) == 0 {
			cfg.Connection = opts
		}
	}

	if len(issues) > 0 {
		return nil, &core.ConfigValidationError{Source: source, Issues: issues}
	}

	return cfg, nil
}

// duplicateJobs reports jobs whose name is already used by a job in an
// earlier queue. Generated producers and workers share one namespace across
// queues. Duplicates within a queue are left to the unique tag.
func duplicateJobs(cfg *Config) []core.Issue {
	var (
		issues []core.Issue
		owner  = map[string]string{}
	)

	for qi, q := range cfg.Queues {
		for ji, j := range q.Jobs {
			if j.Name == "" {
				continue
			}

			first, ok := owner[j.Name]
			if !ok {
				owner[j.Name] = q.Name
				continue
			}
			if first == q.Name {
				continue
			}

			issues = append(issues, core.Issue{
				Path:    fmt.Sprintf("queues[%d].jobs[%d].name", qi, ji),
				Message: fmt.Sprintf("job %q is already defined in queue %q", j.Name, first),
			})
		}
	}

	return issues
}

// ValidateConnection checks opts against the ConnectionOptions contract,
// reporting issues under prefix.
func ValidateConnection(opts ConnectionOptions, prefix string) []core.Issue {
	if err := validate.Struct(opts); err != nil {
		return issuesFrom(err, prefix)
	}
	return nil
}

func evaluateFactory(name string, registry *Registry) (opts ConnectionOptions, issues []core.Issue) {
	const path = "connectionFactory"

	factory, ok := registry.Lookup(name)
	if !ok {
		return opts, []core.Issue{{
			Path:    path,
			Message: fmt.Sprintf("no connection factory registered as %q (available: %s)", name, strings.Join(registry.Names(), ", ")),
		}}
	}

	opts, err := invoke(factory)
	if err != nil {
		return opts, []core.Issue{{Path: path, Message: fmt.Sprintf("connection factory %q failed: %v", name, err)}}
	}

	return opts, ValidateConnection(opts, path)
}

func invoke(factory Factory) (opts ConnectionOptions, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return factory()
}

func issuesFrom(err error, prefix string) []core.Issue {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []core.Issue{{Path: prefix, Message: err.Error()}}
	}

	issues := make([]core.Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, core.Issue{
			Path:    fieldPath(fe.Namespace(), prefix),
			Message: message(fe),
		})
	}
	return issues
}

// fieldPath drops the root struct name from a validator namespace
// ("Config.queues[0].name" -> "queues[0].name") and applies prefix.
func fieldPath(namespace, prefix string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		path = namespace
	}
	if prefix == "" {
		return path
	}
	return prefix + "." + path
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "unique":
		return "must not contain duplicate names"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}
