package cll

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

type namedCmd string

func (n namedCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{Name: string(n)})
	return root
}

func TestRegister_PreservesOrder(t *testing.T) {
	root := Register(&cli.Command{Name: "qgen"}, namedCmd("generate"), namedCmd("doctor"))

	require.Len(t, root.Commands, 2)
	assert.Equal(t, "generate", root.Commands[0].Name)
	assert.Equal(t, "doctor", root.Commands[1].Name)
}

func TestEnvWithPrefix(t *testing.T) {
	t.Setenv("QGEN_OUTPUT_PATH", "./generated")

	var output string
	cmd := &cli.Command{
		Name: "qgen",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Sources:     EnvWithPrefix("QGEN_")("OUTPUT_PATH"),
				Destination: &output,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error { return nil },
	}

	require.NoError(t, cmd.Run(context.Background(), []string{"qgen"}))
	assert.Equal(t, "./generated", output)
}
