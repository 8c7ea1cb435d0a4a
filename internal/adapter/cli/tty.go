package cli

import (
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal.
// This is useful for detecting whether output goes to a user's
// terminal or to a pipe (e.g. a CI log or a shell redirection).
//
// Example:
//
//	if IsTTY(os.Stdout.Fd()) {
//	    // Align tabular output for human eyes
//	} else {
//	    // Emit plain tab-separated rows for scripts
//	}
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsOutputTerminal checks if stdout is a TTY, indicating that output
// is being displayed directly to a user's terminal rather than being
// piped or redirected. The history command uses this to decide whether
// to align its table columns.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}
