// Package validator inspects every tool call an agent attempts and decides
// whether it may proceed. It combines an allow/disallow tool-name policy,
// a dangerous-pattern blacklist for shell commands, and a filesystem
// boundary check on both file-tool paths and shell-command arguments.
//
// This is a policy layer that checks intent before dispatch, not a
// kernel-level enforcement mechanism.
package validator

import (
	"strings"

	"github.com/go-logr/logr"

	"github.com/agentgate-dev/agentgate/pkg/boundary"
)

// ToolCall is a single tool invocation to validate. It is ephemeral:
// consumed synchronously and discarded.
type ToolCall struct {
	Name             string
	Input            map[string]interface{}
	WorkingDirectory string
	UserID           int64
}

// Outcome is the validation result for one tool call.
type Outcome struct {
	Allowed bool
	// Reason explains a blocked outcome in terms the caller can surface.
	Reason string
	// ViolationType is one of the Violation* constants when blocked.
	ViolationType string
}

func allowed() Outcome {
	return Outcome{Allowed: true}
}

func blocked(violationType, reason string) Outcome {
	return Outcome{Allowed: false, Reason: reason, ViolationType: violationType}
}

// Validator validates tool calls against a fixed policy and approved roots.
// Validation is per-call and stateless across calls except for the shared
// State counters, so a single Validator is safe for concurrent use.
type Validator struct {
	policy compiledPolicy
	roots  boundary.Roots
	state  *State
	log    logr.Logger
}

// New creates a Validator. state may be shared with other consumers; log
// follows the logr convention of being handed in by the caller.
func New(policy Policy, roots boundary.Roots, state *State, log logr.Logger) *Validator {
	if state == nil {
		state = NewState()
	}
	return &Validator{
		policy: compilePolicy(policy),
		roots:  roots,
		state:  state,
		log:    log.WithName("validator"),
	}
}

// State returns the shared counter/violation state.
func (v *Validator) State() *State {
	return v.state
}

// AllowedTools returns the configured allow list (nil when none).
func (v *Validator) AllowedTools() []string {
	return append([]string(nil), v.policy.allowedList...)
}

// IsCritical reports whether a blocked use of this tool should abort the
// whole turn.
func (v *Validator) IsCritical(toolName string) bool {
	return v.policy.criticalTools[toolName]
}

// Validate classifies a tool call as allowed or blocked. Every blocked
// outcome is appended to the violation log before returning; allowed calls
// increment the per-tool usage counter.
func (v *Validator) Validate(call ToolCall) Outcome {
	v.log.V(1).Info("validating tool call",
		"tool", call.Name, "workingDirectory", call.WorkingDirectory, "user", call.UserID)

	// Name checks. DisableNameChecks bypasses only these two; path and
	// command safety validation stay active.
	if !v.policy.disableNameChecks {
		if v.policy.allowed != nil && !v.policy.allowed[call.Name] {
			return v.reject(call, ViolationDisallowedTool, "tool not allowed: "+call.Name)
		}
		if v.policy.disallowed[call.Name] {
			return v.reject(call, ViolationExplicitDisallowed, "tool explicitly disallowed: "+call.Name)
		}
	}

	if v.policy.fileTools[call.Name] {
		if out := v.validateFileTool(call); !out.Allowed {
			return out
		}
	}

	if v.policy.shellTools[call.Name] {
		if out := v.validateShellTool(call); !out.Allowed {
			return out
		}
	}

	v.state.countUsage(call.Name)
	return allowed()
}

// validateFileTool boundary-checks the path argument of a read/write/edit
// family tool.
func (v *Validator) validateFileTool(call ToolCall) Outcome {
	path := stringInput(call.Input, "path")
	if path == "" {
		path = stringInput(call.Input, "file_path")
	}
	if path == "" {
		return v.reject(call, ViolationInvalidFilePath, "file path required")
	}

	resolved, err := boundary.Resolve(call.WorkingDirectory, path)
	if err != nil {
		return v.reject(call, ViolationInvalidFilePath, "invalid file path: "+err.Error())
	}
	if !v.roots.ContainsPath(resolved) {
		return v.reject(call, ViolationInvalidFilePath,
			"invalid file path: "+path+" is outside approved directories")
	}
	return allowed()
}

// validateShellTool applies the dangerous-pattern blacklist (unless relaxed
// mode) and the directory boundary check to a shell command.
func (v *Validator) validateShellTool(call ToolCall) Outcome {
	command := stringInput(call.Input, "command")

	if !v.policy.relaxedMode {
		lowered := strings.ToLower(command)
		for _, pattern := range v.policy.dangerousPatterns {
			if strings.Contains(lowered, pattern) {
				return v.reject(call, ViolationDangerousCommand,
					"dangerous command pattern detected: "+pattern)
			}
		}
	}

	if ok, detail := CheckCommandBoundary(command, call.WorkingDirectory, v.roots); !ok {
		return v.reject(call, ViolationBoundary, detail)
	}

	return allowed()
}

func (v *Validator) reject(call ToolCall, violationType, reason string) Outcome {
	v.state.recordViolation(ViolationRecord{
		Type:             violationType,
		ToolName:         call.Name,
		UserID:           call.UserID,
		WorkingDirectory: call.WorkingDirectory,
		Detail:           reason,
	})
	v.log.Info("tool call blocked",
		"tool", call.Name, "type", violationType, "reason", reason, "user", call.UserID)
	return blocked(violationType, reason)
}

func stringInput(input map[string]interface{}, key string) string {
	if input == nil {
		return ""
	}
	s, _ := input[key].(string)
	return s
}
