package templates

import (
	"bytes"
	"os"
	"sync"
	"text/template"

	"github.com/rs/zerolog"
)

// DevEnvVar toggles development mode for the template engine when set to
// "development".
const DevEnvVar = "QGEN_ENV"

// DevelopmentFromEnv reports whether development mode is enabled.
func DevelopmentFromEnv() bool {
	return os.Getenv(DevEnvVar) == "development"
}

// Engine renders template text against data. Implementations must return raw
// output; generated files are source code and must never be HTML escaped.
type Engine interface {
	Render(name, text string, data any) (string, error)
}

type EngineOptions struct {
	// Debug disables the parsed template cache and logs every render.
	Debug bool

	// AllowMissingKeys renders missing map keys as "<no value>" instead of
	// failing the render.
	AllowMissingKeys bool

	// Funcs are merged over the default function map.
	Funcs template.FuncMap

	Logger zerolog.Logger
}

var _ Engine = &TextEngine{}

// TextEngine is an Engine backed by text/template.
type TextEngine struct {
	opts  EngineOptions
	funcs template.FuncMap

	mu    sync.Mutex
	cache map[string]*template.Template
}

func NewTextEngine(opts EngineOptions) *TextEngine {
	funcs := FuncMap()
	for k, v := range opts.Funcs {
		funcs[k] = v
	}

	return &TextEngine{
		opts:  opts,
		funcs: funcs,
		cache: map[string]*template.Template{},
	}
}

// Render implements Engine.
func (e *TextEngine) Render(name, text string, data any) (string, error) {
	tmpl, err := e.parse(name, text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	if e.opts.Debug {
		e.opts.Logger.Debug().
			Str("template", name).
			Int("template_size", len(text)).
			Int("output_size", buf.Len()).
			Msg("rendered template")
	}

	return buf.String(), nil
}

func (e *TextEngine) parse(name, text string) (*template.Template, error) {
	key := name + "\x00" + text

	if !e.opts.Debug {
		e.mu.Lock()
		cached, ok := e.cache[key]
		e.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	tmpl := template.New(name).Funcs(e.funcs)
	if !e.opts.AllowMissingKeys {
		tmpl = tmpl.Option("missingkey=error")
	}

	tmpl, err := tmpl.Parse(text)
	if err != nil {
		return nil, err
	}

	if !e.opts.Debug {
		e.mu.Lock()
		e.cache[key] = tmpl
		e.mu.Unlock()
	}

	return tmpl, nil
}
