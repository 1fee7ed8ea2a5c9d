// Package session tracks the conversational sessions an agent operates
// inside of, so multi-turn work can be resumed, expired, or safely
// restarted. Persistence goes through the Store interface; business rules
// (expiry, resumable selection, placeholder ids) live in Manager.
package session

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlaceholderPrefix marks locally generated session ids standing in for a
// session before the agent engine has assigned its own durable id.
// Placeholder sessions are never offered as resume candidates.
const PlaceholderPrefix = "temp-"

// IsPlaceholderID reports whether id is a locally generated placeholder.
// All placeholder checks go through here (or Session.IsPlaceholder) so no
// call site does its own prefix test.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}

// NewPlaceholderID generates a fresh placeholder session id.
func NewPlaceholderID() string {
	return PlaceholderPrefix + uuid.New().String()
}

// ToolCounts is a multiset of tool names seen in a session, serialized as
// JSON in the store.
type ToolCounts map[string]int

// Union adds the given tool names into the multiset.
func (t ToolCounts) Union(names []string) {
	for _, n := range names {
		t[n]++
	}
}

// Value implements driver.Valuer.
func (t ToolCounts) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (t *ToolCounts) Scan(src interface{}) error {
	if src == nil {
		*t = ToolCounts{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported tool counts column type %T", src)
	}
	if len(data) == 0 {
		*t = ToolCounts{}
		return nil
	}
	return json.Unmarshal(data, t)
}

// Session is one conversational session, scoped to a user and a project
// directory. At most one record exists per (user, project, session id);
// a user+project pair may accumulate many historical sessions.
type Session struct {
	RowID        uint       `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID    string     `gorm:"uniqueIndex:idx_owner;not null" json:"session_id"`
	UserID       int64      `gorm:"uniqueIndex:idx_owner;index:idx_user" json:"user_id"`
	ProjectPath  string     `gorm:"uniqueIndex:idx_owner" json:"project_path"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsed     time.Time  `json:"last_used"`
	TotalCost    float64    `json:"total_cost"`
	MessageCount int        `json:"message_count"`
	ToolsUsed    ToolCounts `gorm:"type:text" json:"tools_used"`

	// IsNewSession is true only for the in-memory instance created this
	// call when no existing session matched. Never persisted as true.
	IsNewSession bool `gorm:"-" json:"-"`
}

// NewPlaceholder creates a fresh session with a placeholder id for a user
// and project directory.
func NewPlaceholder(userID int64, projectPath string, now time.Time) *Session {
	return &Session{
		SessionID:    NewPlaceholderID(),
		UserID:       userID,
		ProjectPath:  projectPath,
		CreatedAt:    now,
		LastUsed:     now,
		ToolsUsed:    ToolCounts{},
		IsNewSession: true,
	}
}

// IsPlaceholder reports whether the session still carries a locally
// generated id.
func (s *Session) IsPlaceholder() bool {
	return IsPlaceholderID(s.SessionID)
}

// ExpiredAt reports whether the session is expired at the given instant:
// more than timeout has passed since it was last used.
func (s *Session) ExpiredAt(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastUsed) > timeout
}

// TurnResult carries the per-turn fields the manager folds into a session
// after a completed agent turn.
type TurnResult struct {
	// SessionID is the id the agent engine assigned, if any. A placeholder
	// session adopts it on update.
	SessionID string
	Cost      float64
	ToolsUsed []string
}
