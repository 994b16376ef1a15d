package generator

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-openapi/inflect"

	"github.com/hay-kot/qgen/internal/config"
	"github.com/hay-kot/qgen/internal/core"
)

// GeneratedBy is stamped into every template context.
const GeneratedBy = "qgen"

// TimestampFormat is ISO-8601 in UTC with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// TemplateContext is the render-ready projection of a loaded configuration.
type TemplateContext struct {
	Queues []Queue
	Paths  Paths

	// Connection holds the evaluated connection options keyed by name.
	Connection        map[string]any
	ConnectionFactory string

	Meta Meta
}

// Paths locates the template and output directories.
type Paths struct {
	TemplatePath string
	OutputPath   string

	// Schemas is the import specifier of the payload schema module relative to
	// the output directory, or empty when no schema module is configured.
	Schemas string
}

// Meta describes the generation run.
type Meta struct {
	Timestamp   string
	GeneratedBy string
}

// Queue is one configured queue with its jobs.
type Queue struct {
	Name          string
	WorkerOptions map[string]any
	QueueOptions  map[string]any
	Jobs          []Job
}

// Job is one configured job with its derived identifiers.
type Job struct {
	Name    string
	Queue   string
	Payload config.PayloadConfig

	// ProcessorPath is relative to the output directory and slash separated.
	ProcessorPath string

	ProducerName  string
	ProcessorName string
	WorkerName    string
}

// Jobs returns every job across all queues in configuration order.
func (c TemplateContext) Jobs() []Job {
	jobs := []Job{}
	for _, q := range c.Queues {
		jobs = append(jobs, q.Jobs...)
	}
	return jobs
}

// PayloadSchemas returns the distinct payload schema names, sorted.
func (c TemplateContext) PayloadSchemas() []string {
	names := []string{}
	for _, j := range c.Jobs() {
		if j.Payload.Name != "" && !slices.Contains(names, j.Payload.Name) {
			names = append(names, j.Payload.Name)
		}
	}
	slices.Sort(names)
	return names
}

// ProducerName is the exported function enqueuing jobs called name.
func ProducerName(name string) string {
	return "addTo" + inflect.Camelize(name)
}

func ProcessorName(name string) string {
	return lowerCamel(name) + "Processor"
}

func WorkerName(name string) string {
	return lowerCamel(name) + "Worker"
}

func lowerCamel(name string) string {
	if name == "" {
		return ""
	}
	return inflect.CamelizeDownFirst(name)
}

// OutputDir returns the directory generated files are written to.
func OutputDir(cfg *config.WithPath) string {
	if cfg.OutputPath != "" {
		return cfg.OutputPath
	}
	return cfg.Root
}

// NewTemplateContext builds the template context for cfg. Processor and
// schema paths, relative to the configuration file, are rewritten relative to
// the output directory. A nil now uses time.Now.
func NewTemplateContext(cfg *config.WithPath, now func() time.Time) (TemplateContext, error) {
	if now == nil {
		now = time.Now
	}

	outputDir := OutputDir(cfg)
	resolver := core.NewPathResolver(cfg.Dir())

	tc := TemplateContext{
		Queues: make([]Queue, 0, len(cfg.Queues)),
		Paths: Paths{
			TemplatePath: cfg.TemplatePath,
			OutputPath:   outputDir,
		},
		Connection:        cfg.Connection.Map(),
		ConnectionFactory: cfg.ConnectionFactory,
		Meta: Meta{
			Timestamp:   now().UTC().Format(TimestampFormat),
			GeneratedBy: GeneratedBy,
		},
	}

	if cfg.SchemasPath != "" {
		rel, err := resolver.RelativeTo(outputDir, cfg.SchemasPath)
		if err != nil {
			return TemplateContext{}, fmt.Errorf("schemas path: %w", err)
		}
		if !strings.HasPrefix(rel, ".") {
			rel = "./" + rel
		}
		tc.Paths.Schemas = rel
	}

	for _, q := range cfg.Queues {
		queue := Queue{
			Name:          q.Name,
			WorkerOptions: q.WorkerOptions,
			QueueOptions:  q.QueueOptions,
			Jobs:          make([]Job, 0, len(q.Jobs)),
		}

		for _, j := range q.Jobs {
			processor, err := resolver.RelativeTo(outputDir, j.ProcessorPath)
			if err != nil {
				return TemplateContext{}, fmt.Errorf("processor path for job %s: %w", j.Name, err)
			}

			queue.Jobs = append(queue.Jobs, Job{
				Name:          j.Name,
				Queue:         q.Name,
				Payload:       j.Payload,
				ProcessorPath: processor,
				ProducerName:  ProducerName(j.Name),
				ProcessorName: ProcessorName(j.Name),
				WorkerName:    WorkerName(j.Name),
			})
		}

		tc.Queues = append(tc.Queues, queue)
	}

	return tc, nil
}
