package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// staleSessionMarker is matched case-insensitively against error text from
// engines that do not return a typed StaleSessionError. The exact wording is
// collaborator-defined, so the match is deliberately loose.
const staleSessionMarker = "no conversation found"

// TimeoutError indicates the engine gave up after its configured timeout.
// Propagated unchanged; never retried by the gateway.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("engine timed out after %v", e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ProcessError indicates the engine process failed.
type ProcessError struct {
	Message string
	Err     error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine process failed: %s: %v", e.Message, e.Err)
	}
	return "engine process failed: " + e.Message
}

func (e *ProcessError) Unwrap() error { return e.Err }

// DecodeError indicates the engine's wire protocol could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("engine protocol decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StaleSessionError indicates the engine no longer recognizes a session id,
// typically because it expired or was invalidated remotely.
type StaleSessionError struct {
	SessionID string
	Err       error
}

func (e *StaleSessionError) Error() string {
	return fmt.Sprintf("stale session %s: no conversation found", e.SessionID)
}

func (e *StaleSessionError) Unwrap() error { return e.Err }

// IsStaleSession reports whether err means the engine lost the conversation.
// Typed StaleSessionError wins; the substring match on the error text is a
// fallback for engines that only surface a message.
func IsStaleSession(err error) bool {
	if err == nil {
		return false
	}
	var stale *StaleSessionError
	if errors.As(err, &stale) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), staleSessionMarker)
}

// ToolValidationError aborts a turn when a critical tool is blocked. It
// carries the full list of blocked tool names and the currently configured
// allow list so callers can surface an exact explanation.
type ToolValidationError struct {
	BlockedTools []string
	AllowedTools []string
	Reasons      []string
}

func (e *ToolValidationError) Error() string {
	msg := "tool access blocked: " + strings.Join(e.BlockedTools, ", ")
	if len(e.AllowedTools) > 0 {
		msg += " (currently allowed: " + strings.Join(e.AllowedTools, ", ") + ")"
	}
	return msg
}
