package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderIDs(t *testing.T) {
	id := NewPlaceholderID()
	assert.True(t, IsPlaceholderID(id))
	assert.NotEqual(t, id, NewPlaceholderID())

	assert.False(t, IsPlaceholderID("550e8400-e29b-41d4-a716-446655440000"))
	assert.False(t, IsPlaceholderID(""))
}

func TestNewPlaceholder(t *testing.T) {
	now := time.Now()
	s := NewPlaceholder(42, "/work/project", now)

	assert.True(t, s.IsPlaceholder())
	assert.True(t, s.IsNewSession)
	assert.Equal(t, int64(42), s.UserID)
	assert.Equal(t, "/work/project", s.ProjectPath)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, now, s.LastUsed)
	assert.NotNil(t, s.ToolsUsed)
}

func TestExpiredAt(t *testing.T) {
	now := time.Now()
	s := &Session{LastUsed: now.Add(-24 * time.Hour)}

	// Exactly at the timeout is not yet expired.
	assert.False(t, s.ExpiredAt(now, 24*time.Hour))
	assert.True(t, s.ExpiredAt(now.Add(time.Second), 24*time.Hour))
	assert.False(t, s.ExpiredAt(now, 25*time.Hour))
}

func TestToolCountsUnion(t *testing.T) {
	counts := ToolCounts{"Read": 2}
	counts.Union([]string{"Read", "Bash", "Bash"})

	assert.Equal(t, ToolCounts{"Read": 3, "Bash": 2}, counts)
}

func TestToolCountsValueScan(t *testing.T) {
	counts := ToolCounts{"Edit": 1, "Bash": 3}
	val, err := counts.Value()
	require.NoError(t, err)

	var decoded ToolCounts
	require.NoError(t, decoded.Scan(val))
	assert.Equal(t, counts, decoded)

	var fromNil ToolCounts
	require.NoError(t, fromNil.Scan(nil))
	assert.Equal(t, ToolCounts{}, fromNil)

	val, err = ToolCounts(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", val)
}
