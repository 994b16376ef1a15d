package generator

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/hay-kot/qgen/internal/templates"
)

// Filter selects which discovered templates are rendered. It wraps a boolean
// expr-lang expression evaluated against name, path, directory, extension and
// builtin.
type Filter struct {
	code    string
	program *vm.Program
}

// CompileFilter compiles code once for reuse. An empty expression matches
// every template.
func CompileFilter(code string) (*Filter, error) {
	src := code
	if src == "" {
		src = "true" // default: match everything
	}

	program, err := expr.Compile(src, expr.Env(filterEnv(templates.TemplateInfo{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression %q: %w", code, err)
	}

	return &Filter{code: code, program: program}, nil
}

func (f *Filter) String() string {
	return f.code
}

// Match reports whether info satisfies the filter.
func (f *Filter) Match(info templates.TemplateInfo) (bool, error) {
	output, err := expr.Run(f.program, filterEnv(info))
	if err != nil {
		return false, fmt.Errorf("filter evaluation failed for template %s: %w", info.Name, err)
	}

	// expr.AsBool() ensures output is always bool
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("filter did not evaluate to boolean, got %T", output)
	}

	return result, nil
}

func filterEnv(info templates.TemplateInfo) map[string]any {
	return map[string]any{
		"name":      info.Name,
		"path":      info.Path,
		"directory": info.Directory,
		"extension": info.Extension,
		"builtin":   info.IsBuiltin(),
	}
}
