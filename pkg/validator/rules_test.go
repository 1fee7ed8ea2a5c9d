package validator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgate-dev/agentgate/pkg/boundary"
)

func approvedRoot(t *testing.T) (string, boundary.Roots) {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	roots, err := boundary.NewRoots(dir)
	require.NoError(t, err)
	return dir, roots
}

func TestCheckCommandBoundary(t *testing.T) {
	wd, roots := approvedRoot(t)
	require.NoError(t, os.MkdirAll(filepath.Join(wd, "backup"), 0o755))

	tests := []struct {
		name    string
		command string
		ok      bool
	}{
		{
			name:    "copy within root",
			command: "cp notes.txt ./backup/notes.bak",
			ok:      true,
		},
		{
			name:    "copy escaping root",
			command: "cp notes.txt ../../etc/cron.d/evil",
			ok:      false,
		},
		{
			name:    "remove inside root",
			command: "rm -f scratch.txt",
			ok:      true,
		},
		{
			name:    "remove absolute outside",
			command: "rm /etc/passwd",
			ok:      false,
		},
		{
			name:    "read-only command is exempt",
			command: "cat /etc/passwd",
			ok:      true,
		},
		{
			name:    "read-only with path prefix",
			command: "/bin/ls /etc",
			ok:      true,
		},
		{
			name:    "find without mutating action",
			command: "find . -name '*.py'",
			ok:      true,
		},
		{
			name:    "find with delete outside root",
			command: "find /var/log -delete",
			ok:      false,
		},
		{
			name:    "find with exec inside root",
			command: "find . -exec chmod 600 {} +",
			ok:      true,
		},
		{
			name:    "unknown command is not path-checked",
			command: "gcc -o /tmp/a.out main.c",
			ok:      true,
		},
		{
			name:    "mkdir outside root",
			command: "mkdir /opt/payload",
			ok:      false,
		},
		{
			name:    "flags are skipped",
			command: "mkdir -p nested/dir",
			ok:      true,
		},
		{
			name:    "empty command",
			command: "",
			ok:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, detail := CheckCommandBoundary(tt.command, wd, roots)
			assert.Equal(t, tt.ok, ok, detail)
			if !tt.ok {
				assert.Contains(t, detail, "directory boundary violation")
			}
		})
	}
}

func TestCheckCommandBoundarySubdirectoryWorkingDir(t *testing.T) {
	root, roots := approvedRoot(t)
	wd := filepath.Join(root, "app")
	require.NoError(t, os.MkdirAll(filepath.Join(wd, "backup"), 0o755))

	// Escapes the root through traversal from the subdirectory.
	ok, detail := CheckCommandBoundary("cp notes.txt ../../etc/cron.d/x", wd, roots)
	assert.False(t, ok)
	assert.Contains(t, detail, "directory boundary violation")

	// Stays inside the root.
	ok, _ = CheckCommandBoundary("cp notes.txt ./backup/notes.bak", wd, roots)
	assert.True(t, ok)
}

func TestCheckCommandBoundaryFailsOpenOnUnparsable(t *testing.T) {
	wd, roots := approvedRoot(t)

	ok, detail := CheckCommandBoundary(`rm "/etc/unterminated`, wd, roots)
	assert.True(t, ok)
	assert.Empty(t, detail)
}

func TestCheckCommandBoundaryEmptyRoots(t *testing.T) {
	wd, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	empty, err := boundary.NewRoots()
	require.NoError(t, err)

	// With no approved roots every fs-modifying path is out of bounds.
	ok, _ := CheckCommandBoundary("rm scratch.txt", wd, empty)
	assert.False(t, ok)

	// Read-only commands stay exempt.
	ok, _ = CheckCommandBoundary("cat scratch.txt", wd, empty)
	assert.True(t, ok)
}
