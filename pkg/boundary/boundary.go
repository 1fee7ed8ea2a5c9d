// Package boundary resolves candidate filesystem paths and tests containment
// against a set of approved root directories. Resolution always canonicalizes
// (symlinks and ".." eliminated) before any containment test; containment is
// never a string-prefix check on unresolved input.
package boundary

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/agentgate-dev/agentgate/pkg/apperrors"
)

// Resolve canonicalizes a path token against a working directory. Absolute
// tokens are resolved as-is; relative tokens (including traversal sequences
// like "../../etc") are joined to workingDir first. Both branches run the
// same canonicalization, so the result is always the true absolute form.
//
// Nonexistent paths are handled gracefully: the nearest existing ancestor is
// resolved through symlinks and the remainder is appended lexically. This
// allows boundary checks on files a command is about to create.
func Resolve(workingDir, token string) (string, error) {
	if token == "" {
		return "", apperrors.New(apperrors.ErrCodePathResolution, "empty path", nil)
	}

	var candidate string
	if filepath.IsAbs(token) {
		candidate = token
	} else {
		candidate = filepath.Join(workingDir, token)
	}

	return canonicalize(filepath.Clean(candidate))
}

// canonicalize resolves symlinks in path. If the path (or part of it) does
// not exist, the missing suffix is re-joined lexically onto the resolved
// portion so new files still get a well-defined absolute form.
func canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", apperrors.New(apperrors.ErrCodePathResolution, "cannot resolve "+path, err)
	}

	parent := filepath.Dir(path)
	if parent == path {
		// Filesystem root; nothing left to resolve.
		return path, nil
	}

	resolvedParent, err := canonicalize(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

// Contains reports whether candidate is equal to or inside root. Both paths
// must already be resolved. A separator-aware prefix test is used so that
// /work-evil is not treated as being within /work.
func Contains(root, candidate string) bool {
	if candidate == root {
		return true
	}
	return strings.HasPrefix(candidate, root+string(filepath.Separator))
}

// Roots is an ordered set of approved root directories, canonicalized once
// at construction.
type Roots struct {
	dirs []string
}

// NewRoots canonicalizes each directory and returns the approved set.
// Directories that do not exist yet are kept in lexical form.
func NewRoots(dirs ...string) (Roots, error) {
	resolved := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "" {
			continue
		}
		abs := d
		if !filepath.IsAbs(abs) {
			var err error
			abs, err = filepath.Abs(abs)
			if err != nil {
				return Roots{}, apperrors.New(apperrors.ErrCodePathResolution, "cannot absolutize root "+d, err)
			}
		}
		canon, err := canonicalize(filepath.Clean(abs))
		if err != nil {
			return Roots{}, err
		}
		resolved = append(resolved, canon)
	}
	return Roots{dirs: resolved}, nil
}

// ContainsPath reports whether candidate (already resolved) lies within any
// approved root.
func (r Roots) ContainsPath(candidate string) bool {
	for _, root := range r.dirs {
		if Contains(root, candidate) {
			return true
		}
	}
	return false
}

// Dirs returns the canonicalized root directories.
func (r Roots) Dirs() []string {
	out := make([]string, len(r.dirs))
	copy(out, r.dirs)
	return out
}

// Empty reports whether no roots are configured.
func (r Roots) Empty() bool {
	return len(r.dirs) == 0
}
