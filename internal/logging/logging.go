// Package logging configures the process-wide logrus logger with a
// formatter that reproduces the reference fuzzer's bracketed-tag console
// style ("[*]", "[+]", "[!]") while still emitting structured fields.
package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// tagFormatter renders level as a bracket tag prefix and appends any
// structured fields as key=value pairs, matching the shape of the original
// C program's printf-style progress lines.
type tagFormatter struct{}

func tagFor(level logrus.Level) string {
	switch level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return "[!]"
	case logrus.WarnLevel:
		return "[!]"
	case logrus.InfoLevel:
		return "[+]"
	default:
		return "[*]"
	}
}

func (tagFormatter) Format(e *logrus.Entry) ([]byte, error) {
	out := fmt.Sprintf("%s %s", tagFor(e.Level), e.Message)
	for k, v := range e.Data {
		out += fmt.Sprintf(" %s=%v", k, v)
	}
	out += "\n"
	return []byte(out), nil
}

// New builds a logger at the given verbosity. verbose enables debug-level
// output; quiet raises the floor to warnings only.
func New(verbose, quiet bool) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(tagFormatter{})
	switch {
	case quiet:
		log.SetLevel(logrus.WarnLevel)
	case verbose:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// NewJSON builds a logger using logrus's built-in JSON formatter, for
// --json mode where downstream tooling parses log lines.
func NewJSON(verbose, quiet bool) *logrus.Logger {
	log := New(verbose, quiet)
	log.SetFormatter(&logrus.JSONFormatter{})
	return log
}
