package core

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeResolve(t *testing.T) {
	root := filepath.FromSlash("/proj/app")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "dot relative", input: "./inside", want: filepath.FromSlash("/proj/app/inside")},
		{name: "nested relative", input: "a/b/c.yml", want: filepath.FromSlash("/proj/app/a/b/c.yml")},
		{name: "root itself", input: ".", want: root},
		{name: "absolute inside", input: filepath.FromSlash("/proj/app/x.yml"), want: filepath.FromSlash("/proj/app/x.yml")},
		{name: "traversal back inside", input: "sub/../x.yml", want: filepath.FromSlash("/proj/app/x.yml")},
		{name: "parent traversal", input: "../outside", wantErr: true},
		{name: "parent only", input: "..", wantErr: true},
		{name: "deep traversal", input: "a/../../b", wantErr: true},
		{name: "absolute outside", input: filepath.FromSlash("/etc/passwd"), wantErr: true},
		{name: "sibling with shared prefix", input: filepath.FromSlash("/proj/application/x.yml"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeResolve(tt.input, root)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrPathValidation))

				var pve *PathValidationError
				require.ErrorAs(t, err, &pve)
				assert.Equal(t, root, pve.Root)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, strings.HasPrefix(got, root))
		})
	}
}

func TestSafeResolve_OutsideForAnyRoot(t *testing.T) {
	roots := []string{
		filepath.FromSlash("/"),
		filepath.FromSlash("/a"),
		filepath.FromSlash("/a/b/c"),
		t.TempDir(),
	}

	for _, root := range roots {
		t.Run(root, func(t *testing.T) {
			_, err := SafeResolve("../outside", root)
			if root == filepath.FromSlash("/") {
				// nothing sits above the filesystem root, "/../outside" is "/outside"
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrPathValidation)
		})
	}
}

func TestSafeResolve_FileWithDotDotPrefixIsInside(t *testing.T) {
	root := filepath.FromSlash("/proj")

	got, err := SafeResolve("..hidden", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/proj/..hidden"), got)
}
