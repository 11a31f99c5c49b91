// Package output renders CLI output in the format selected by --output.
//
// Terminals get styled text; pipes and scripts get markdown unless a
// machine format (json, csv, yaml) is requested explicitly.
package output

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Mode is an output format.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
	ModeCSV      Mode = "csv"
	ModeYAML     Mode = "yaml"
	ModeTable    Mode = "table"
)

// ParseMode maps user input to a mode. "md" is accepted for markdown and
// an empty string means auto.
func ParseMode(s string) Mode {
	switch s {
	case "", "auto":
		return ModeAuto
	case "md":
		return ModeMarkdown
	default:
		return Mode(s)
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
