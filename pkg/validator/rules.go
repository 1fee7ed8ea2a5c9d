package validator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentgate-dev/agentgate/pkg/boundary"
	"github.com/agentgate-dev/agentgate/pkg/shell"
)

// fsModifyingCommands are base commands that write to the filesystem and
// therefore have their path arguments boundary-checked.
var fsModifyingCommands = map[string]bool{
	"mkdir":   true,
	"touch":   true,
	"cp":      true,
	"mv":      true,
	"rm":      true,
	"rmdir":   true,
	"ln":      true,
	"install": true,
	"tee":     true,
}

// readOnlyCommands are base commands that do not mutate the filesystem.
// They are exempt from boundary checking even when their arguments point
// outside the approved roots.
var readOnlyCommands = map[string]bool{
	"cat":      true,
	"ls":       true,
	"head":     true,
	"tail":     true,
	"less":     true,
	"more":     true,
	"which":    true,
	"whoami":   true,
	"pwd":      true,
	"echo":     true,
	"printf":   true,
	"env":      true,
	"printenv": true,
	"date":     true,
	"wc":       true,
	"sort":     true,
	"uniq":     true,
	"diff":     true,
	"file":     true,
	"stat":     true,
	"du":       true,
	"df":       true,
	"tree":     true,
	"realpath": true,
	"dirname":  true,
	"basename": true,
}

// findMutatingActions are find(1) expressions that turn it into a
// filesystem-modifying command.
var findMutatingActions = map[string]bool{
	"-delete":  true,
	"-exec":    true,
	"-execdir": true,
	"-ok":      true,
	"-okdir":   true,
}

// CheckCommandBoundary verifies that a shell command's path arguments stay
// within the approved roots. It returns (true, "") when the command is safe
// and (false, detail) on the first token that escapes every root.
//
// Unparsable commands pass this check: boundary checking on an
// un-tokenizable string cannot be done safely, so responsibility is deferred
// to the OS-level sandbox. Other policy layers still apply.
func CheckCommandBoundary(command, workingDir string, roots boundary.Roots) (bool, string) {
	tokens, err := shell.Split(command)
	if err != nil {
		return true, ""
	}
	if len(tokens) == 0 {
		return true, ""
	}

	base := filepath.Base(tokens[0])

	if readOnlyCommands[base] {
		return true, ""
	}

	// find is only dangerous when it carries a mutating action.
	if base == "find" {
		mutating := false
		for _, t := range tokens[1:] {
			if findMutatingActions[t] {
				mutating = true
				break
			}
		}
		if !mutating {
			return true, ""
		}
	} else if !fsModifyingCommands[base] {
		return true, ""
	}

	for _, token := range tokens[1:] {
		if strings.HasPrefix(token, "-") {
			continue
		}

		resolved, err := boundary.Resolve(workingDir, token)
		if err != nil {
			return false, fmt.Sprintf("directory boundary violation: %q cannot resolve %q: %v", base, token, err)
		}
		if !roots.ContainsPath(resolved) {
			return false, fmt.Sprintf(
				"directory boundary violation: %q targets %q which is outside approved directories", base, token)
		}
	}

	return true, ""
}
