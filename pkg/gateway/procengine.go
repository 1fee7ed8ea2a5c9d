package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-logr/logr"
)

// ProcEngineConfig configures a subprocess-backed execution engine.
type ProcEngineConfig struct {
	// Binary is the engine executable. Resolved through LookupEngineBinary
	// when empty.
	Binary string
	// ExtraArgs are appended after the built-in flags.
	ExtraArgs []string
	// Timeout bounds a single turn. Zero means no limit beyond ctx.
	Timeout time.Duration
	// MaxTurns caps agent turns per execution; zero leaves the engine default.
	MaxTurns int
}

// ProcEngine runs an agent engine binary in headless mode and decodes its
// newline-delimited JSON event stream. It is the stock Engine used by the
// CLI; servers embedding the gateway can supply their own.
type ProcEngine struct {
	cfg ProcEngineConfig
	log logr.Logger
}

// NewProcEngine creates a subprocess engine adapter.
func NewProcEngine(cfg ProcEngineConfig, log logr.Logger) (*ProcEngine, error) {
	if cfg.Binary == "" {
		bin, err := LookupEngineBinary()
		if err != nil {
			return nil, err
		}
		cfg.Binary = bin
	}
	return &ProcEngine{cfg: cfg, log: log.WithName("proc-engine")}, nil
}

// LookupEngineBinary finds the engine executable in PATH and a few common
// install locations.
func LookupEngineBinary() (string, error) {
	if p, err := exec.LookPath("claude"); err == nil {
		return p, nil
	}
	for _, pattern := range []string{
		"~/.nvm/versions/node/*/bin/claude",
		"~/.npm-global/bin/claude",
		"/usr/local/bin/claude",
		"/usr/bin/claude",
	} {
		matches, _ := filepath.Glob(expandHome(pattern))
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", &ProcessError{Message: "engine binary not found in PATH"}
}

// streamLine is one newline-delimited JSON message from the engine process.
type streamLine struct {
	Type    string `json:"type"`
	Message struct {
		Content []struct {
			Type  string                 `json:"type"`
			Text  string                 `json:"text"`
			ID    string                 `json:"id"`
			Name  string                 `json:"name"`
			Input map[string]interface{} `json:"input"`
		} `json:"content"`
	} `json:"message"`
	// Result-message fields.
	SessionID    string  `json:"session_id"`
	Result       string  `json:"result"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	DurationMS   int64   `json:"duration_ms"`
	NumTurns     int     `json:"num_turns"`
	IsError      bool    `json:"is_error"`
}

// Execute runs one turn of the engine binary and streams its events through
// req.OnEvent.
func (e *ProcEngine) Execute(ctx context.Context, req ExecuteRequest) (*EngineResult, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	args := []string{"--print", "--output-format", "stream-json", "--verbose"}
	if e.cfg.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(e.cfg.MaxTurns))
	}
	if req.Continue && req.SessionID != "" {
		args = append(args, "--resume", req.SessionID)
	}
	args = append(args, e.cfg.ExtraArgs...)
	args = append(args, req.Prompt)

	e.log.V(1).Info("starting engine turn",
		"workingDirectory", req.WorkingDirectory, "continue", req.Continue)

	cmd := exec.CommandContext(ctx, e.cfg.Binary, args...)
	cmd.Dir = req.WorkingDirectory

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &ProcessError{Message: "failed to open engine stdout", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &ProcessError{Message: "failed to start engine process", Err: err}
	}

	result, streamErr := e.consumeStream(stdout, req.OnEvent)
	if streamErr != nil {
		// Stop a still-running engine before collecting its exit status.
		_ = cmd.Process.Kill()
	}

	waitErr := cmd.Wait()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, &TimeoutError{Timeout: e.cfg.Timeout}
	}
	if streamErr != nil {
		return nil, streamErr
	}
	if waitErr != nil {
		return nil, &ProcessError{Message: "engine process failed", Err: waitErr}
	}
	if result == nil {
		return nil, &DecodeError{Err: errors.New("engine stream ended without a result message")}
	}
	return result, nil
}

func (e *ProcEngine) consumeStream(r io.Reader, onEvent EventCallback) (*EngineResult, error) {
	var result *EngineResult
	toolsSeen := map[string]struct{}{}
	var toolsUsed []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var line streamLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, &DecodeError{Err: fmt.Errorf("invalid engine stream line: %w", err)}
		}

		switch line.Type {
		case "assistant":
			ev := StreamEvent{Type: "assistant"}
			for _, block := range line.Message.Content {
				switch block.Type {
				case "text":
					if ev.Content != "" {
						ev.Content += "\n"
					}
					ev.Content += block.Text
				case "tool_use":
					ev.ToolCalls = append(ev.ToolCalls, EventToolCall{
						ID:    block.ID,
						Name:  block.Name,
						Input: block.Input,
					})
					if _, ok := toolsSeen[block.Name]; !ok {
						toolsSeen[block.Name] = struct{}{}
						toolsUsed = append(toolsUsed, block.Name)
					}
				}
			}
			if onEvent != nil {
				if err := onEvent(ev); err != nil {
					return nil, err
				}
			}
		case "result":
			if line.IsError && result == nil {
				return nil, &ProcessError{Message: line.Result}
			}
			result = &EngineResult{
				Content:    line.Result,
				SessionID:  line.SessionID,
				Cost:       line.TotalCostUSD,
				DurationMS: line.DurationMS,
				NumTurns:   line.NumTurns,
				ToolsUsed:  toolsUsed,
			}
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return result, nil
		}
		return nil, &ProcessError{Message: "reading engine stream", Err: err}
	}
	return result, nil
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
