package session

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"

	"github.com/agentgate-dev/agentgate/pkg/apperrors"
)

// Manager applies the session lifecycle rules on top of a Store:
// get-or-create, expiry, resumable candidate selection, per-turn updates,
// and the bulk expiry sweep. The sweep is driven by an external caller;
// the manager never schedules anything itself.
type Manager struct {
	store   Store
	timeout time.Duration
	log     logr.Logger

	// now is stubbed in tests.
	now func() time.Time
}

// NewManager creates a Manager. timeout is the idle duration after which a
// session is considered expired.
func NewManager(store Store, timeout time.Duration, log logr.Logger) *Manager {
	return &Manager{
		store:   store,
		timeout: timeout,
		log:     log.WithName("sessions"),
		now:     time.Now,
	}
}

// Timeout returns the configured expiry timeout.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// GetOrCreate resolves the session a new turn operates in.
//
// An explicit non-placeholder id is loaded from the store; if the store has
// no match a lightweight shell record is fabricated and persisted, treating
// the turn as "continue anyway". Without an explicit id the most recent
// resumable session is used unless forceNew is set. Otherwise a fresh
// placeholder session is created with IsNewSession=true.
func (m *Manager) GetOrCreate(ctx context.Context, userID int64, projectPath, explicitID string, forceNew bool) (*Session, error) {
	if explicitID != "" && !IsPlaceholderID(explicitID) {
		s, err := m.store.Get(ctx, explicitID)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		now := m.now()
		shell := &Session{
			SessionID:   explicitID,
			UserID:      userID,
			ProjectPath: projectPath,
			CreatedAt:   now,
			LastUsed:    now,
			ToolsUsed:   ToolCounts{},
		}
		if err := m.store.Create(ctx, shell); err != nil {
			return nil, err
		}
		m.log.Info("continuing unknown session id with a fabricated record",
			"sessionID", explicitID, "user", userID)
		return shell, nil
	}

	if !forceNew {
		resumable, err := m.FindResumable(ctx, userID, projectPath)
		if err != nil {
			return nil, err
		}
		if resumable != nil {
			m.log.Info("auto-resuming session",
				"sessionID", resumable.SessionID, "projectPath", projectPath, "user", userID)
			return resumable, nil
		}
	}

	fresh := NewPlaceholder(userID, projectPath, m.now())
	if err := m.store.Create(ctx, fresh); err != nil {
		return nil, err
	}
	m.log.Info("created new session",
		"sessionID", fresh.SessionID, "projectPath", projectPath, "user", userID)
	return fresh, nil
}

// FindResumable returns the most recently used non-expired, non-placeholder
// session for a user and project directory, or nil when none qualifies.
// Ties on LastUsed break deterministically on the highest row id.
func (m *Manager) FindResumable(ctx context.Context, userID int64, projectPath string) (*Session, error) {
	sessions, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	var best *Session
	for _, s := range sessions {
		if s.ProjectPath != projectPath || s.IsPlaceholder() || s.ExpiredAt(now, m.timeout) {
			continue
		}
		if best == nil ||
			s.LastUsed.After(best.LastUsed) ||
			(s.LastUsed.Equal(best.LastUsed) && s.RowID > best.RowID) {
			best = s
		}
	}
	return best, nil
}

// UpdateSession folds a completed turn into the session: increments the
// message count, accumulates cost, unions the tools used, and bumps
// LastUsed. A placeholder session adopts the engine-assigned id from the
// result.
//
// Callers must invoke this exactly once per completed turn; calling it
// twice double-counts cost. That contract is the caller's, not enforced
// here.
func (m *Manager) UpdateSession(ctx context.Context, sessionID string, result TurnResult) (*Session, error) {
	s, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.IsPlaceholder() && result.SessionID != "" && !IsPlaceholderID(result.SessionID) {
		m.log.Info("session id finalized",
			"placeholder", s.SessionID, "sessionID", result.SessionID)
		s.SessionID = result.SessionID
	}

	s.MessageCount++
	s.TotalCost += result.Cost
	if s.ToolsUsed == nil {
		s.ToolsUsed = ToolCounts{}
	}
	s.ToolsUsed.Union(result.ToolsUsed)
	s.LastUsed = m.now()

	if err := m.store.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// RemoveSession hard-deletes a session. Used when a resume attempt against
// the remote engine fails as stale.
func (m *Manager) RemoveSession(ctx context.Context, sessionID string) error {
	m.log.Info("removing session", "sessionID", sessionID)
	return m.store.Delete(ctx, sessionID)
}

// SessionInfo returns a single session record.
func (m *Manager) SessionInfo(ctx context.Context, sessionID string) (*Session, error) {
	return m.store.Get(ctx, sessionID)
}

// UserSessions returns all sessions owned by a user, most recently used
// first.
func (m *Manager) UserSessions(ctx context.Context, userID int64) ([]*Session, error) {
	return m.store.ListByUser(ctx, userID)
}

// CleanupExpired removes every expired session and returns the count.
// Intended to be run periodically by an external caller.
func (m *Manager) CleanupExpired(ctx context.Context) (int64, error) {
	cutoff := m.now().Add(-m.timeout)
	n, err := m.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, apperrors.New(apperrors.ErrCodeSessionDelete, "cleanup sweep failed", err)
	}
	if n > 0 {
		m.log.Info("cleaned up expired sessions", "count", n)
	}
	return n, nil
}
