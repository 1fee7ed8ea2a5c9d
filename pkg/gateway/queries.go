package gateway

import (
	"context"

	"github.com/agentgate-dev/agentgate/pkg/session"
	"github.com/agentgate-dev/agentgate/pkg/validator"
)

// QuickQuery executes a one-shot prompt without session management and
// returns the response content.
func (g *Gateway) QuickQuery(ctx context.Context, prompt, workingDirectory string) (string, error) {
	result, err := g.engine.Execute(ctx, ExecuteRequest{
		Prompt:           prompt,
		WorkingDirectory: workingDirectory,
		Continue:         false,
	})
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// ContinueSession resumes the most recent resumable session for a user and
// directory. Returns nil when there is nothing to resume. The engine
// requires a prompt, so a neutral one is substituted when none is given.
func (g *Gateway) ContinueSession(ctx context.Context, userID int64, workingDirectory, prompt string, onStream func(StreamEvent)) (*Response, error) {
	latest, err := g.sessions.FindResumable(ctx, userID, workingDirectory)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		g.log.Info("no resumable session found", "user", userID, "workingDirectory", workingDirectory)
		return nil, nil
	}

	if prompt == "" {
		prompt = "Please continue where we left off"
	}
	return g.Run(ctx, Request{
		Prompt:           prompt,
		UserID:           userID,
		WorkingDirectory: workingDirectory,
		SessionID:        latest.SessionID,
		OnStream:         onStream,
	})
}

// SessionInfo returns a single session record.
func (g *Gateway) SessionInfo(ctx context.Context, sessionID string) (*session.Session, error) {
	return g.sessions.SessionInfo(ctx, sessionID)
}

// UserSessions returns all sessions for a user, most recently used first.
func (g *Gateway) UserSessions(ctx context.Context, userID int64) ([]*session.Session, error) {
	return g.sessions.UserSessions(ctx, userID)
}

// CleanupExpiredSessions removes expired sessions and returns the count.
// Driven by an external periodic caller.
func (g *Gateway) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return g.sessions.CleanupExpired(ctx)
}

// ToolStats returns the validator's usage statistics.
func (g *Gateway) ToolStats() validator.Stats {
	return g.validator.State().Snapshot()
}

// UserSummary returns per-user violation statistics.
func (g *Gateway) UserSummary(userID int64) validator.UserStats {
	return g.validator.State().UserSummary(userID)
}

// Shutdown runs a final expiry sweep. The engine's own shutdown semantics
// are the engine's responsibility.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.log.Info("shutting down gateway")
	_, err := g.sessions.CleanupExpired(ctx)
	return err
}
