// Package output carries the global JSON/quiet/verbose output mode and the
// process exit-code vocabulary, set once by the root command's
// PersistentPreRunE and read everywhere else.
package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// Exit codes, per spec §6.
const (
	ExitSuccess            = 0
	ExitArgumentOrInitError = 1
	ExitInterrupted         = 130
	ExitInterposerResolve   = 127
)

var (
	flagJSON    bool
	flagQuiet   bool
	flagVerbose bool
)

// SetFlags is called by the root command's PersistentPreRunE to propagate
// flag values to the rest of the process.
func SetFlags(jsonMode, quiet, verbose bool) {
	flagJSON = jsonMode
	flagQuiet = quiet
	flagVerbose = verbose
}

// IsJSON returns true when --json mode is active.
func IsJSON() bool { return flagJSON }

// IsQuiet returns true when --quiet mode is active.
func IsQuiet() bool { return flagQuiet }

// IsVerbose returns true when --verbose mode is active.
func IsVerbose() bool { return flagVerbose }

// PrintJSON marshals v as JSON and writes it to w.
func PrintJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// PrintError writes a JSON error envelope to w.
func PrintError(w io.Writer, code string, message string) error {
	return PrintJSON(w, map[string]string{
		"error":   code,
		"message": message,
	})
}

// Summary is the final run report, printed as JSON in --json mode or as a
// plain-text summary otherwise.
type Summary struct {
	Binary     string `json:"binary"`
	Seed       string `json:"seed"`
	Format     string `json:"format"`
	Iterations int    `json:"iterations"`
	Crashes    int    `json:"crashes"`
	Hangs      int    `json:"hangs"`
	ElapsedSec float64 `json:"elapsed_seconds"`
}

// Print writes the summary in the active mode.
func (s Summary) Print(w io.Writer) error {
	if IsJSON() {
		return PrintJSON(w, s)
	}
	if IsQuiet() {
		return nil
	}
	_, err := fmt.Fprintf(w, "forkfuzz: %s iterations=%d crashes=%d hangs=%d elapsed=%.1fs\n",
		s.Format, s.Iterations, s.Crashes, s.Hangs, s.ElapsedSec)
	return err
}
