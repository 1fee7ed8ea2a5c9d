package shell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{
			name:    "simple",
			command: "rm -f notes.txt",
			want:    []string{"rm", "-f", "notes.txt"},
		},
		{
			name:    "single quotes keep glob",
			command: "find . -name '*.py'",
			want:    []string{"find", ".", "-name", "*.py"},
		},
		{
			name:    "double quotes keep spaces",
			command: `cp "my file.txt" backup/`,
			want:    []string{"cp", "my file.txt", "backup/"},
		},
		{
			name:    "escaped space",
			command: `touch my\ file`,
			want:    []string{"touch", "my file"},
		},
		{
			name:    "empty",
			command: "",
			want:    []string{},
		},
		{
			name:    "blank",
			command: "   ",
			want:    []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.command)
			require.NoError(t, err)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSplitUnparsable(t *testing.T) {
	for _, command := range []string{
		`rm "unterminated`,
		`echo 'still open`,
		`touch trailing\`,
	} {
		_, err := Split(command)
		require.Error(t, err, command)
		assert.True(t, errors.Is(err, ErrUnparsable), command)
	}
}
