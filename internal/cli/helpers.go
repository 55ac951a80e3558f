// Package cli implements the workflows behind the espalier command line:
// one-shot dispatch, the interactive dispatch loop, and contract listings.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/espalier/internal/logging"
	"golang.org/x/term"
)

// newLogger builds the CLI logger from the --log-level flag value.
// Logs go to stderr so stdout stays clean for flow output and NDJSON.
func newLogger(level string) *slog.Logger {
	return logging.New(logging.ParseLevel(level))
}

// printSystemMessage prints a standardized system message to stdout.
func printSystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
