// Package cll wires command groups onto a urfave/cli/v3 root command.
package cll

import "github.com/urfave/cli/v3"

// Registerable adds its commands or flags to a root command.
type Registerable interface {
	Register(*cli.Command) *cli.Command
}

// Register applies each Registerable to root in order.
//
//	root = cll.Register(root, commands.NewGenerateCmd(flags, registry), commands.NewDoctorCmd(flags, registry))
func Register(root *cli.Command, subs ...Registerable) *cli.Command {
	for _, s := range subs {
		root = s.Register(root)
	}

	return root
}

// EnvWithPrefix returns a constructor for environment variable sources that
// share prefix.
//
//	env := cll.EnvWithPrefix("QGEN_")
//	env("CONFIG_PATH") // reads QGEN_CONFIG_PATH
func EnvWithPrefix(prefix string) func(names ...string) cli.ValueSourceChain {
	return func(names ...string) cli.ValueSourceChain {
		prefixed := make([]string, len(names))
		for i, name := range names {
			prefixed[i] = prefix + name
		}

		return cli.EnvVars(prefixed...)
	}
}
