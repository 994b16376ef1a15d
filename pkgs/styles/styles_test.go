package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorBox_MultiLine(t *testing.T) {
	box := ErrorBox("Error", "invalid configuration\nqueues: is required\n")

	lines := strings.Split(box, "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Error")
	assert.Contains(t, lines[1], "invalid configuration")
	assert.Contains(t, lines[2], "queues: is required")
}
