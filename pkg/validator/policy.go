package validator

// Policy configures tool validation. All fields are supplied at construction
// time by external configuration loading; the validator never mutates them.
type Policy struct {
	// AllowedTools is the tool-name allow list. Empty means no allow list
	// is enforced.
	AllowedTools []string

	// DisallowedTools are explicitly denied tool names. Deny always wins
	// over the allow list.
	DisallowedTools []string

	// DisableNameChecks bypasses only the allow/disallow name checks. Path
	// and command safety validation stay active.
	DisableNameChecks bool

	// RelaxedMode skips the dangerous-pattern blacklist for shell commands.
	// Intended for deployments where the agent engine runs inside its own
	// sandbox, which is assumed to cover that mode.
	RelaxedMode bool

	// DangerousPatterns are substrings that block a shell command outright
	// (privilege escalation, redirection, piping, subshells, network fetch).
	DangerousPatterns []string

	// FileTools are tool names of the read/write/edit family; their "path"
	// or "file_path" input is boundary-checked.
	FileTools []string

	// ShellTools are tool names that execute shell commands; their
	// "command" input is pattern-scanned and boundary-checked.
	ShellTools []string

	// CriticalTools are tools whose blocked use aborts the whole turn
	// rather than degrading to a soft error. Consumed by the gateway.
	CriticalTools []string
}

// DefaultDangerousPatterns matches the stock blacklist. Command text is
// lowercased before matching.
func DefaultDangerousPatterns() []string {
	return []string{
		"rm -rf",
		"sudo",
		"chmod 777",
		"curl",
		"wget",
		"nc ",
		"netcat",
		">",
		">>",
		"|",
		"&",
		";",
		"$(",
		"`",
	}
}

// DefaultFileTools lists the stock file-oriented tool names.
func DefaultFileTools() []string {
	return []string{"create_file", "edit_file", "read_file", "Write", "Edit", "Read"}
}

// DefaultShellTools lists the stock shell-execution tool names.
func DefaultShellTools() []string {
	return []string{"bash", "shell", "Bash"}
}

// DefaultCriticalTools lists the tools whose blocked use aborts a turn.
func DefaultCriticalTools() []string {
	return []string{"Task", "Read", "Write", "Edit", "Bash"}
}

// compiledPolicy is the set-based form used on the validation path.
type compiledPolicy struct {
	allowed           map[string]bool // nil when no allow list
	disallowed        map[string]bool
	disableNameChecks bool
	relaxedMode       bool
	dangerousPatterns []string
	fileTools         map[string]bool
	shellTools        map[string]bool
	criticalTools     map[string]bool
	allowedList       []string
}

func compilePolicy(p Policy) compiledPolicy {
	c := compiledPolicy{
		disallowed:        toSet(p.DisallowedTools),
		disableNameChecks: p.DisableNameChecks,
		relaxedMode:       p.RelaxedMode,
		dangerousPatterns: p.DangerousPatterns,
		fileTools:         toSet(p.FileTools),
		shellTools:        toSet(p.ShellTools),
		criticalTools:     toSet(p.CriticalTools),
		allowedList:       append([]string(nil), p.AllowedTools...),
	}
	if len(p.AllowedTools) > 0 {
		c.allowed = toSet(p.AllowedTools)
	}
	if c.dangerousPatterns == nil {
		c.dangerousPatterns = DefaultDangerousPatterns()
	}
	if len(c.fileTools) == 0 {
		c.fileTools = toSet(DefaultFileTools())
	}
	if len(c.shellTools) == 0 {
		c.shellTools = toSet(DefaultShellTools())
	}
	if len(c.criticalTools) == 0 {
		c.criticalTools = toSet(DefaultCriticalTools())
	}
	return c
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
