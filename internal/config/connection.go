package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync"
)

// ConnectionOptions are the (partial) connection parameters handed to the
// generated queue and worker code. Every field is optional.
type ConnectionOptions struct {
	Host     string `yaml:"host,omitempty"     json:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"     json:"port,omitempty"     validate:"omitempty,min=1,max=65535"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"       json:"db,omitempty"       validate:"gte=0"`
}

// merge returns o with every non-zero field of overlay applied on top.
func (o ConnectionOptions) merge(overlay ConnectionOptions) ConnectionOptions {
	if overlay.Host != "" {
		o.Host = overlay.Host
	}
	if overlay.Port != 0 {
		o.Port = overlay.Port
	}
	if overlay.Username != "" {
		o.Username = overlay.Username
	}
	if overlay.Password != "" {
		o.Password = overlay.Password
	}
	if overlay.DB != 0 {
		o.DB = overlay.DB
	}
	return o
}

// Factory produces connection options. Factories are registered by name and
// referenced from the configuration's connectionFactory field.
type Factory func() (ConnectionOptions, error)

// NoopFactoryName is the factory used by the default configuration.
const NoopFactoryName = "noop"

// Registry maps factory names to factories. The host program populates it
// before loading configuration.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a Registry with the noop factory registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(NoopFactoryName, NoopFactory)
	return r
}

// Register adds or replaces the factory stored under name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered factory names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NoopFactory returns empty connection options.
func NoopFactory() (ConnectionOptions, error) {
	return ConnectionOptions{}, nil
}

// StaticFactory returns a factory that always yields opts.
func StaticFactory(opts ConnectionOptions) Factory {
	return func() (ConnectionOptions, error) {
		return opts, nil
	}
}

// EnvFactory returns a factory reading <prefix>HOST, <prefix>PORT,
// <prefix>USERNAME, <prefix>PASSWORD and <prefix>DB through lookup. A nil
// lookup uses os.LookupEnv.
func EnvFactory(prefix string, lookup func(string) (string, bool)) Factory {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	return func() (ConnectionOptions, error) {
		opts := ConnectionOptions{}

		if v, ok := lookup(prefix + "HOST"); ok {
			opts.Host = v
		}
		if v, ok := lookup(prefix + "USERNAME"); ok {
			opts.Username = v
		}
		if v, ok := lookup(prefix + "PASSWORD"); ok {
			opts.Password = v
		}

		if v, ok := lookup(prefix + "PORT"); ok && v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return opts, fmt.Errorf("invalid %sPORT %q: %w", prefix, v, err)
			}
			opts.Port = port
		}

		if v, ok := lookup(prefix + "DB"); ok && v != "" {
			db, err := strconv.Atoi(v)
			if err != nil {
				return opts, fmt.Errorf("invalid %sDB %q: %w", prefix, v, err)
			}
			opts.DB = db
		}

		return opts, nil
	}
}

// Map returns the non-zero options keyed by their YAML names.
func (o ConnectionOptions) Map() map[string]any {
	m := map[string]any{}
	if o.Host != "" {
		m["host"] = o.Host
	}
	if o.Port != 0 {
		m["port"] = o.Port
	}
	if o.Username != "" {
		m["username"] = o.Username
	}
	if o.Password != "" {
		m["password"] = o.Password
	}
	if o.DB != 0 {
		m["db"] = o.DB
	}
	return m
}
