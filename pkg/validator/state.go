package validator

import (
	"sync"
	"time"
)

// Violation types recorded in the violation log.
const (
	ViolationDisallowedTool     = "disallowed_tool"
	ViolationExplicitDisallowed = "explicitly_disallowed_tool"
	ViolationInvalidFilePath    = "invalid_file_path"
	ViolationDangerousCommand   = "dangerous_command"
	ViolationBoundary           = "directory_boundary_violation"
)

// ViolationRecord describes a blocked tool call. The validator exclusively
// appends; readers get copies.
type ViolationRecord struct {
	Type             string
	ToolName         string
	UserID           int64
	WorkingDirectory string
	Detail           string
	Time             time.Time
}

// Stats is an immutable snapshot of usage counters.
type Stats struct {
	TotalCalls  int
	ByTool      map[string]int
	UniqueTools int
	Violations  int
}

// UserStats summarizes violations for a single user.
type UserStats struct {
	UserID         int64
	Violations     int
	ViolationTypes []string
}

// State holds the validator's shared counters and violation log. It is an
// explicit object rather than package-level globals so callers control its
// lifetime and tests never need a reset hook. Safe for concurrent use.
type State struct {
	mu         sync.Mutex
	usage      map[string]int
	violations []ViolationRecord
	metrics    *Metrics
}

// NewState creates an empty State.
func NewState() *State {
	return &State{usage: make(map[string]int)}
}

// NewStateWithMetrics creates a State that also increments the given
// prometheus collectors.
func NewStateWithMetrics(m *Metrics) *State {
	s := NewState()
	s.metrics = m
	return s
}

func (s *State) countUsage(tool string) {
	s.mu.Lock()
	s.usage[tool]++
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.toolCalls.WithLabelValues(tool).Inc()
	}
}

func (s *State) recordViolation(v ViolationRecord) {
	if v.Time.IsZero() {
		v.Time = time.Now()
	}

	s.mu.Lock()
	s.violations = append(s.violations, v)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.violations.WithLabelValues(v.Type, v.ToolName).Inc()
	}
}

// Snapshot returns current usage statistics.
func (s *State) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	byTool := make(map[string]int, len(s.usage))
	total := 0
	for tool, n := range s.usage {
		byTool[tool] = n
		total += n
	}
	return Stats{
		TotalCalls:  total,
		ByTool:      byTool,
		UniqueTools: len(byTool),
		Violations:  len(s.violations),
	}
}

// Violations returns a copy of the violation log.
func (s *State) Violations() []ViolationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ViolationRecord, len(s.violations))
	copy(out, s.violations)
	return out
}

// UserSummary returns violation statistics for one user.
func (s *State) UserSummary(userID int64) UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	count := 0
	for _, v := range s.violations {
		if v.UserID != userID {
			continue
		}
		count++
		seen[v.Type] = true
	}

	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	return UserStats{UserID: userID, Violations: count, ViolationTypes: types}
}

// Reset clears counters and the violation log. Prometheus counters are
// monotonic and are left untouched.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = make(map[string]int)
	s.violations = nil
}
