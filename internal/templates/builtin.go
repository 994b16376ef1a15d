package templates

import (
	"embed"
	"io/fs"
)

// BuiltinDir is the Directory reported for templates shipped with qgen.
const BuiltinDir = "<builtin>"

//go:embed builtin/*.tmpl
var builtinFS embed.FS

// BuiltinSource returns the Source holding the built-in templates.
func BuiltinSource() Source {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		// fs.Sub only fails on an invalid path.
		panic(err)
	}
	return Source{Dir: BuiltinDir, FS: sub}
}
