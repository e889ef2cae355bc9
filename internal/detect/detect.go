// Package detect identifies the format of a fuzzing seed: a thin MIME sniff
// plus the CSV heuristic override described in spec §4.C.
package detect

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format is the detector's output tag, one per spec §4.C mapping rule.
type Format int

const (
	Plain Format = iota
	CSV
	JSON
	XML
	JPEG
	ELF
	PDF
)

func (f Format) String() string {
	switch f {
	case CSV:
		return "csv"
	case JSON:
		return "json"
	case XML:
		return "xml"
	case JPEG:
		return "jpeg"
	case ELF:
		return "elf"
	case PDF:
		return "pdf"
	default:
		return "plain"
	}
}

// mimeToFormat applies the first-match substring rules from spec §4.C to
// the detected leaf MIME string, standing in for libmagic's MIME-string
// output.
func mimeToFormat(mimeType string) Format {
	switch {
	case strings.Contains(mimeType, "json"):
		return JSON
	case strings.Contains(mimeType, "xml"):
		return XML
	case strings.Contains(mimeType, "csv"):
		return CSV
	case strings.Contains(mimeType, "jpeg"), strings.Contains(mimeType, "jpg"):
		return JPEG
	case strings.Contains(mimeType, "x-executable"),
		strings.Contains(mimeType, "x-sharedlib"),
		strings.Contains(mimeType, "x-object"):
		return ELF
	case strings.Contains(mimeType, "pdf"):
		return PDF
	case strings.Contains(mimeType, "text/"):
		return Plain
	default:
		return Plain
	}
}

// Detect returns the format tag for buf. An empty buffer reports Plain
// (the orchestrator's stub handler path), matching the "application/
// octet-stream" boundary behaviour in spec §8.
func Detect(buf []byte) Format {
	if len(buf) == 0 {
		return Plain
	}

	m := mimetype.Detect(buf)
	format := mimeToFormat(m.String())

	if format == Plain && looksLikeCSV(buf) {
		return CSV
	}
	return format
}

// looksLikeCSV implements the CSV heuristic override verbatim: a pure
// function of the first 512 bytes, counting commas/newlines across up to
// the first ten lines and requiring at least half of the non-first lines to
// share the first line's comma count.
func looksLikeCSV(buf []byte) bool {
	n := len(buf)
	if n > 512 {
		n = 512
	}
	window := buf[:n]

	// Only newline-terminated lines count (matching looks_like_csv's
	// current_line, incremented solely on '\n'): an unterminated trailing
	// fragment must not be able to supply the second line needed to clear
	// the len(lineCommaCounts) >= 2 promotion gate below.
	var lineCommaCounts []int
	commaCount, newlineCount := 0, 0
	cur := 0
	lines := 0
	for _, b := range window {
		if b == ',' {
			commaCount++
			cur++
		} else if b == '\n' {
			newlineCount++
			lineCommaCounts = append(lineCommaCounts, cur)
			cur = 0
			lines++
			if lines >= 10 {
				break
			}
		}
	}

	if commaCount < 2 || newlineCount < 1 || len(lineCommaCounts) < 2 {
		return false
	}

	first := lineCommaCounts[0]
	matching := 0
	rest := lineCommaCounts[1:]
	for _, c := range rest {
		if c == first {
			matching++
		}
	}
	return matching*2 >= len(rest)
}
