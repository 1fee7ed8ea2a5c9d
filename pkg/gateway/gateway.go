// Package gateway is the orchestrating facade of the tool-security gateway:
// it resolves which session a prompt continues, executes the agent turn with
// a validating stream interceptor, transparently restarts a fresh session
// when the engine reports staleness, and finalizes the session identity.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"github.com/agentgate-dev/agentgate/pkg/session"
	"github.com/agentgate-dev/agentgate/pkg/validator"
)

// ErrorTypeToolValidation marks responses whose turn completed but had
// non-critical tool calls blocked.
const ErrorTypeToolValidation = "tool_validation_failed"

// Request is one inbound turn.
type Request struct {
	Prompt           string
	UserID           int64
	WorkingDirectory string
	// SessionID optionally names the session to continue. Placeholder ids
	// are treated as absent.
	SessionID string
	// ForceNew skips auto-resume and starts a fresh session.
	ForceNew bool
	// OnStream optionally observes stream events after validation. Errors
	// in the observer never abort the turn.
	OnStream func(StreamEvent)
}

// Response is the outcome of a completed turn. SessionID is either a real
// engine-assigned id or empty, never a placeholder.
type Response struct {
	Content    string
	SessionID  string
	Cost       float64
	DurationMS int64
	NumTurns   int
	ToolsUsed  []string
	// IsError marks soft tool-validation failures folded into the
	// response. Hard aborts are returned as errors instead.
	IsError   bool
	ErrorType string
}

// Gateway composes the session manager, the tool validator and the opaque
// execution engine.
type Gateway struct {
	engine    Engine
	sessions  *session.Manager
	validator *validator.Validator
	enricher  Enricher
	locks     *keyedMutex
	log       logr.Logger
}

// New creates a Gateway. enricher may be nil, in which case prompts pass
// through unmodified.
func New(engine Engine, sessions *session.Manager, v *validator.Validator, enricher Enricher, log logr.Logger) *Gateway {
	return &Gateway{
		engine:    engine,
		sessions:  sessions,
		validator: v,
		enricher:  enricher,
		locks:     newKeyedMutex(),
		log:       log.WithName("gateway"),
	}
}

// turnState accumulates validation outcomes across one turn's stream
// events. Guarded by mu: the engine may invoke the callback from its own
// goroutines.
type turnState struct {
	mu           sync.Mutex
	blockedTools []string
	blockedSeen  map[string]bool
	softReasons  []string
}

func (t *turnState) recordBlocked(tool, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.blockedSeen[tool] {
		t.blockedSeen[tool] = true
		t.blockedTools = append(t.blockedTools, tool)
	}
	t.softReasons = append(t.softReasons, reason)
}

func (t *turnState) snapshot() ([]string, []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.blockedTools...), append([]string(nil), t.softReasons...)
}

// Run executes one agent turn: RESOLVE the session, ENRICH the prompt,
// EXECUTE with a validating interceptor, RETRY_FRESH once on staleness,
// FINALIZE the session identity, and return the response.
//
// The whole span holds a per-(user, directory) lock so concurrent turns for
// the same project cannot race on session resolution or the final update.
func (g *Gateway) Run(ctx context.Context, req Request) (*Response, error) {
	if req.Prompt == "" {
		return nil, &ProcessError{Message: "prompt is required"}
	}
	if req.WorkingDirectory == "" {
		return nil, &ProcessError{Message: "working directory is required"}
	}

	unlock, err := g.locks.Lock(ctx, fmt.Sprintf("%d|%s", req.UserID, req.WorkingDirectory))
	if err != nil {
		return nil, err
	}
	defer unlock()

	g.log.Info("running agent turn",
		"user", req.UserID,
		"workingDirectory", req.WorkingDirectory,
		"sessionID", req.SessionID,
		"forceNew", req.ForceNew,
		"promptLength", len(req.Prompt))

	// RESOLVE. Placeholder ids from the caller are treated as absent.
	explicitID := req.SessionID
	if session.IsPlaceholderID(explicitID) {
		explicitID = ""
	}
	sess, err := g.sessions.GetOrCreate(ctx, req.UserID, req.WorkingDirectory, explicitID, req.ForceNew)
	if err != nil {
		return nil, err
	}

	// ENRICH. Enrichment failures degrade to the base prompt.
	prompt := req.Prompt
	if g.enricher != nil {
		enrichID := ""
		if !sess.IsPlaceholder() {
			enrichID = sess.SessionID
		}
		enriched, enrichErr := g.enricher.Enrich(ctx, req.UserID, req.Prompt, enrichID)
		if enrichErr != nil {
			g.log.Error(enrichErr, "prompt enrichment failed; using base prompt", "user", req.UserID)
		} else {
			prompt = enriched
		}
	}

	state := &turnState{blockedSeen: make(map[string]bool)}
	onEvent := g.interceptor(req, state)

	// EXECUTE. Continue only with a real, pre-existing session id.
	hasReal := !sess.IsNewSession && !sess.IsPlaceholder()
	engineSessionID := ""
	if hasReal {
		engineSessionID = sess.SessionID
	}

	result, err := g.engine.Execute(ctx, ExecuteRequest{
		Prompt:           prompt,
		WorkingDirectory: req.WorkingDirectory,
		SessionID:        engineSessionID,
		Continue:         hasReal,
		OnEvent:          onEvent,
	})

	if err != nil {
		var validationErr *ToolValidationError
		if errors.As(err, &validationErr) {
			return nil, err
		}

		if !hasReal || !IsStaleSession(err) {
			// Timeouts, process and decode faults propagate verbatim.
			return nil, err
		}

		// RETRY_FRESH: the engine lost the conversation. Drop the stale
		// record, start over with a fresh placeholder, and re-run exactly
		// once.
		g.log.Info("session resume failed; starting fresh session",
			"staleSessionID", sess.SessionID, "error", err.Error())
		if removeErr := g.sessions.RemoveSession(ctx, sess.SessionID); removeErr != nil {
			g.log.Error(removeErr, "failed to remove stale session", "sessionID", sess.SessionID)
		}

		sess, err = g.sessions.GetOrCreate(ctx, req.UserID, req.WorkingDirectory, "", true)
		if err != nil {
			return nil, err
		}

		result, err = g.engine.Execute(ctx, ExecuteRequest{
			Prompt:           prompt,
			WorkingDirectory: req.WorkingDirectory,
			SessionID:        "",
			Continue:         false,
			OnEvent:          onEvent,
		})
		if err != nil {
			if errors.As(err, &validationErr) {
				return nil, err
			}
			return nil, &ProcessError{Message: "fresh-session retry failed", Err: err}
		}
	}

	resp := &Response{
		Content:    result.Content,
		Cost:       result.Cost,
		DurationMS: result.DurationMS,
		NumTurns:   result.NumTurns,
		ToolsUsed:  append([]string(nil), result.ToolsUsed...),
	}

	// Soft failures: the turn completed, but some non-critical tools were
	// blocked. Fold them into the response instead of failing the turn.
	if blocked, reasons := state.snapshot(); len(reasons) > 0 {
		g.log.Info("turn completed with blocked tool calls",
			"blockedTools", blocked, "failures", len(reasons))
		resp.IsError = true
		resp.ErrorType = ErrorTypeToolValidation
		resp.Content = blockedToolsMessage(blocked, reasons, g.validator.AllowedTools())
	}

	// FINALIZE. Exactly one update per completed turn; a placeholder
	// session adopts the engine-assigned id here.
	if _, err := g.sessions.UpdateSession(ctx, sess.SessionID, session.TurnResult{
		SessionID: result.SessionID,
		Cost:      result.Cost,
		ToolsUsed: result.ToolsUsed,
	}); err != nil {
		return nil, err
	}

	finalID := sess.SessionID
	if sess.IsNewSession && result.SessionID != "" {
		finalID = result.SessionID
	}
	// A placeholder id must never reach the caller: it is not resumable,
	// and persisting it caller-side would suppress the next auto-resume.
	if session.IsPlaceholderID(finalID) {
		finalID = ""
	}
	resp.SessionID = finalID

	if resp.SessionID == "" {
		g.log.Info("no session id after execution; session cannot be resumed", "user", req.UserID)
	}

	g.log.Info("agent turn completed",
		"sessionID", resp.SessionID,
		"cost", resp.Cost,
		"durationMS", resp.DurationMS,
		"numTurns", resp.NumTurns,
		"isError", resp.IsError)

	return resp, nil
}

// interceptor wraps the caller's stream observer with tool validation. A
// blocked critical tool aborts the turn by returning a ToolValidationError
// from the callback; non-critical blocks are recorded as soft failures.
func (g *Gateway) interceptor(req Request, state *turnState) EventCallback {
	return func(ev StreamEvent) error {
		for _, tc := range ev.ToolCalls {
			outcome := g.validator.Validate(validator.ToolCall{
				Name:             tc.Name,
				Input:            tc.Input,
				WorkingDirectory: req.WorkingDirectory,
				UserID:           req.UserID,
			})
			if outcome.Allowed {
				continue
			}

			state.recordBlocked(tc.Name, outcome.Reason)

			if g.validator.IsCritical(tc.Name) {
				blocked, reasons := state.snapshot()
				return &ToolValidationError{
					BlockedTools: blocked,
					AllowedTools: g.validator.AllowedTools(),
					Reasons:      reasons,
				}
			}
		}

		if req.OnStream != nil {
			req.OnStream(ev)
		}
		return nil
	}
}

// blockedToolsMessage builds the user-facing explanation for a turn whose
// tool calls were partially blocked.
func blockedToolsMessage(blockedTools, reasons, allowedTools []string) string {
	var b strings.Builder
	b.WriteString("Tool access blocked.\n\n")

	if len(blockedTools) > 0 {
		b.WriteString("The agent tried to use tools that are not allowed: ")
		b.WriteString(strings.Join(blockedTools, ", "))
		b.WriteString("\n\nContact the administrator to request access, or rephrase the request to use a different approach.\n")
	} else {
		b.WriteString("Tool calls failed security validation: ")
		b.WriteString(strings.Join(reasons, "; "))
		b.WriteString("\n")
	}

	if len(allowedTools) > 0 {
		b.WriteString("\nCurrently allowed tools: ")
		b.WriteString(strings.Join(allowedTools, ", "))
	}
	return b.String()
}
