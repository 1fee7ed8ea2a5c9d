package gateway

import "context"

// EventToolCall is one tool invocation surfaced in a stream event.
type EventToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// StreamEvent is a single streaming update from the execution engine.
type StreamEvent struct {
	// Type is "assistant", "user", "system" or "result".
	Type      string
	Content   string
	ToolCalls []EventToolCall
}

// EventCallback observes stream events during execution. A non-nil return
// aborts the turn: the engine must stop and surface that error from Execute.
type EventCallback func(StreamEvent) error

// ExecuteRequest is the input to one engine turn.
type ExecuteRequest struct {
	Prompt           string
	WorkingDirectory string
	// SessionID is the engine-side session to continue; empty starts fresh.
	SessionID string
	// Continue must be true only when SessionID is a real engine session.
	Continue bool
	OnEvent  EventCallback
}

// EngineResult is the outcome of a completed engine turn.
type EngineResult struct {
	Content    string
	SessionID  string
	Cost       float64
	DurationMS int64
	NumTurns   int
	ToolsUsed  []string
}

// Engine is the opaque agent-execution collaborator. Failures are typed:
// TimeoutError, ProcessError, DecodeError, StaleSessionError (see faults.go).
// Engines that can only surface text for staleness are matched through
// IsStaleSession.
type Engine interface {
	Execute(ctx context.Context, req ExecuteRequest) (*EngineResult, error)
}

// Enricher builds the final prompt text from the caller's prompt plus
// external context (memory, profile, time). Failures are non-fatal; the
// gateway degrades to the unenriched prompt.
type Enricher interface {
	Enrich(ctx context.Context, userID int64, prompt, sessionID string) (string, error)
}
