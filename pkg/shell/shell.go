// Package shell tokenizes command strings using POSIX-like quoting and
// escaping rules.
//
// Tokenization can fail on adversarial input (for example an unterminated
// quote). Callers that use tokens for boundary checking must consciously
// decide what an unparsable command means for them; the validator treats it
// as "defer to the OS-level sandbox" — a documented trust gap, not a fault.
package shell

import (
	"errors"
	"fmt"

	"github.com/google/shlex"
)

// ErrUnparsable is returned when a command cannot be lexed under POSIX
// quoting rules.
var ErrUnparsable = errors.New("command is not parsable as shell input")

// Split lexes a command string into tokens. An empty or blank command yields
// an empty slice and no error. Lexer failures are reported as a wrapped
// ErrUnparsable.
func Split(command string) ([]string, error) {
	tokens, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return tokens, nil
}
