// Package config loads and validates the queue generation configuration.
package config

// DefaultPath is the configuration file loaded when no path is given.
const DefaultPath = "./codegen.config.yml"

// Config is the declarative description of queues, their jobs and the
// connection used by the generated code.
type Config struct {
	Queues       []QueueConfig `yaml:"queues" validate:"required,unique=Name,dive"`
	TemplatePath string        `yaml:"templatePath,omitempty"`
	OutputPath   string        `yaml:"outputPath,omitempty"`

	// SchemasPath is the module exporting the payload schemas, relative to the
	// config file. Generated code imports payload schemas from it.
	SchemasPath string `yaml:"schemasPath,omitempty"`

	// ConnectionFactory names a factory in the connection Registry.
	ConnectionFactory string `yaml:"connectionFactory" validate:"required"`

	// ConnectionSecrets is an optional YAML file, relative to the config file,
	// whose ConnectionOptions are merged over the factory result. Files ending
	// in .age are decrypted with the Age identity.
	ConnectionSecrets string `yaml:"connectionSecrets,omitempty"`

	Age AgeConfig `yaml:"age,omitempty"`

	// Connection is the evaluated factory result, set by Validate.
	Connection ConnectionOptions `yaml:"-" validate:"-"`
}

// QueueConfig describes a single named queue.
type QueueConfig struct {
	Name          string         `yaml:"name" validate:"required"`
	WorkerOptions map[string]any `yaml:"workerOptions,omitempty"`
	QueueOptions  map[string]any `yaml:"queueOptions,omitempty"`
	Jobs          []JobConfig    `yaml:"jobs" validate:"required,unique=Name,dive"`
}

// JobConfig describes one job within a queue.
type JobConfig struct {
	Name    string        `yaml:"name" validate:"required"`
	Payload PayloadConfig `yaml:"payload"`

	// ProcessorPath is relative to the configuration file's directory.
	ProcessorPath string `yaml:"processorPath" validate:"required"`
}

// PayloadConfig names the schema describing a job payload.
type PayloadConfig struct {
	Schema map[string]any `yaml:"schema,omitempty"`
	Name   string         `yaml:"name" validate:"required"`
}

// AgeConfig holds the keys used for encrypted connection secrets.
type AgeConfig struct {
	Recipients   []string `yaml:"recipients,omitempty"`
	IdentityFile string   `yaml:"identity_file,omitempty"`
}

// WithPath is a validated Config annotated with the absolute path it was
// loaded from and the project root it was resolved against.
type WithPath struct {
	Config

	Path string
	Root string
}
