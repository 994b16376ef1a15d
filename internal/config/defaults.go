package config

import "path/filepath"

// Default returns the configuration used when no configuration is present:
// no queues, templates under <root>/templates/default, output in <root>/output
// and the noop connection factory.
func Default(root string) Config {
	return Config{
		Queues:            []QueueConfig{},
		TemplatePath:      filepath.Join(root, "templates", "default"),
		OutputPath:        filepath.Join(root, "output"),
		ConnectionFactory: NoopFactoryName,
	}
}
