// Package archive persists crash and hang payloads under the naming
// convention bad_<basename>.txt / hang_<basename>.txt, falling back to the
// current directory when the well-known output directory is unavailable.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OutputDir is the well-known directory archives are written under when it
// exists and is a directory; writability is not checked. Left as a var (not
// const) so tests can redirect it.
var OutputDir = "/fuzzer_outputs"

// signalNames mirrors save_result.c's recognised set; anything else is
// reported as UNKNOWN.
var signalNames = map[int]string{
	4:  "SIGILL",
	6:  "SIGABRT",
	7:  "SIGBUS",
	8:  "SIGFPE",
	11: "SIGSEGV",
}

// Archiver appends crash/hang records for a single fuzzer run. A run ID
// distinguishes interleaved runs against the same target binary sharing an
// output directory.
type Archiver struct {
	log   *logrus.Entry
	runID string
}

// New constructs an Archiver tagged with a fresh run ID.
func New(log *logrus.Entry) *Archiver {
	return &Archiver{log: log, runID: uuid.NewString()}
}

func signalName(sig int) string {
	if name, ok := signalNames[sig]; ok {
		return name
	}
	return "UNKNOWN"
}

func basenameFrom(programPath string) string {
	return filepath.Base(programPath)
}

// resolvePath tries OutputDir first, then the current directory. It never
// returns an error; a failure to use OutputDir is silently downgraded.
func resolvePath(a *Archiver, prefix, base string) string {
	name := fmt.Sprintf("%s_%s.txt", prefix, base)
	if st, err := os.Stat(OutputDir); err == nil && st.IsDir() {
		return filepath.Join(OutputDir, name)
	}
	return name
}

func (a *Archiver) append(path string, iteration int, sig int, data []byte) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		if a.log != nil {
			a.log.WithError(err).WithField("path", path).Warn("[!] archive: open failed")
		}
		return
	}
	defer f.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "=== Iteration %d (run %s) ===\n", iteration, a.runID)
	fmt.Fprintf(&b, "Signal: %d (%s)\n\n", sig, signalName(sig))
	b.WriteString("--- crash input ---\n")
	b.Write(data)
	b.WriteString("\n--- end input ---\n\n")

	if _, err := f.WriteString(b.String()); err != nil && a.log != nil {
		a.log.WithError(err).Warn("[!] archive: write failed")
	}
}

// SaveBad records a fatal-signal crash.
func (a *Archiver) SaveBad(programPath string, data []byte, iteration int, sig int) {
	path := resolvePath(a, "bad", basenameFrom(programPath))
	a.append(path, iteration, sig, data)
	if a.log != nil {
		a.log.WithFields(logrus.Fields{"iteration": iteration, "signal": sig}).Info("[!] crash recorded")
	}
}

// SaveHang records a timeout-injected kill. The sentinel signal reported in
// the record is informational only (the wait status carries 0x7FFFFFFF, not
// a real signal number) so it is written verbatim as "hang".
func (a *Archiver) SaveHang(programPath string, data []byte, iteration int) {
	path := resolvePath(a, "hang", basenameFrom(programPath))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		if a.log != nil {
			a.log.WithError(err).WithField("path", path).Warn("[!] archive: open failed")
		}
		return
	}
	defer f.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "=== Iteration %d (run %s) ===\n", iteration, a.runID)
	b.WriteString("Signal: hang (timeout)\n\n")
	b.WriteString("--- crash input ---\n")
	b.Write(data)
	b.WriteString("\n--- end input ---\n\n")

	if _, err := f.WriteString(b.String()); err != nil && a.log != nil {
		a.log.WithError(err).Warn("[!] archive: write failed")
	}
	if a.log != nil {
		a.log.WithField("iteration", iteration).Info("[!] hang recorded")
	}
}
