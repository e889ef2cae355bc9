package csvfuzz

import (
	"strings"

	"github.com/lz0104132490/forkfuzz/internal/engine"
	"github.com/lz0104132490/forkfuzz/internal/mutate"
)

const overflowCellLen = 800

// badNumInts is the JSON integer boundary table plus the two extra entries
// spec §4.H adds for CSV.
var badNumInts = []string{
	"-128", "-1", "0", "1", "16", "32", "64", "100", "127",
	"-32768", "-129", "128", "255", "256", "512", "1000", "1024", "4096", "32767",
	"-2147483648", "-100663046", "-32769", "32768", "65535", "65536", "100663045",
	"2147483647", "1337",
	"2147483648", "-2147483649",
}

// badNumFloats is the JSON float boundary table plus CSV's two extra
// magnitude entries, written as their %.15g text (NaN and the infinities
// as literal words); 0.1 and 0.1000000 both format to "0.1".
var badNumFloats = []string{
	"0", "-0", "0.33333333333333", "3.14159265358979",
	"0.1", "0.1", "-1", "1",
	"Infinity", "-Infinity", "NaN",
	"1e+308", "-1e+308",
}

var csvInjectionPayloads = []string{
	"=1+1", "=A1+A2", "=SUM(A1:A10)", "=cmd|' /C calc'!'A1'",
	"=HYPERLINK(\"http://evil\",\"click\")", "@SUM(1+1)", "+1+1", "-1+1",
	"=1+1+cmd|' /C calc'!'A1'",
}

var specialCharsPayloads = []string{
	"\"", "\"\"", "\\\"", "\n", "\r\n", "\\", "'", ",", "\x00",
}

var csvStructuralBytes = []byte{',', '\n', '"', '\\', '\r'}

// bufferOverflow swaps every cell's content for an 800-byte run of 'A', one
// cell at a time, restoring afterward; at the end it reverts the corpus as
// a safety net against any accumulated added state.
func (e *Engine) bufferOverflow(r *engine.Runner, c *Corpus) error {
	overflow := []byte(strings.Repeat("A", overflowCellLen))
	for _, h := range c.AllCells() {
		orig := append([]byte(nil), c.Get(h)...)
		c.Set(h, overflow)
		if err := r.Try(c.Dump()); err != nil {
			return err
		}
		c.Set(h, orig)
	}
	c.Revert()
	return nil
}

// badNums substitutes every cell, in turn, with each entry of the integer
// and float boundary tables.
func (e *Engine) badNums(r *engine.Runner, c *Corpus) error {
	all := append(append([]string{}, badNumInts...), badNumFloats...)
	for _, h := range c.AllCells() {
		orig := append([]byte(nil), c.Get(h)...)
		for _, lit := range all {
			c.Set(h, []byte(lit))
			if err := r.Try(c.Dump()); err != nil {
				c.Set(h, orig)
				return err
			}
		}
		c.Set(h, orig)
	}
	return nil
}

// csvInjection substitutes every cell with each spreadsheet-formula
// payload, restoring after each.
func (e *Engine) csvInjection(r *engine.Runner, c *Corpus) error {
	for _, h := range c.AllCells() {
		orig := append([]byte(nil), c.Get(h)...)
		for _, payload := range csvInjectionPayloads {
			c.Set(h, []byte(payload))
			if err := r.Try(c.Dump()); err != nil {
				c.Set(h, orig)
				return err
			}
		}
		c.Set(h, orig)
	}
	return nil
}

// specialChars substitutes every cell with each quote/escape/newline
// variant, restoring after each.
func (e *Engine) specialChars(r *engine.Runner, c *Corpus) error {
	for _, h := range c.AllCells() {
		orig := append([]byte(nil), c.Get(h)...)
		for _, payload := range specialCharsPayloads {
			c.Set(h, []byte(payload))
			if err := r.Try(c.Dump()); err != nil {
				c.Set(h, orig)
				return err
			}
		}
		c.Set(h, orig)
	}
	return nil
}

// emptyCells blanks every cell, one at a time, restoring after each; at the
// end it reverts the corpus.
func (e *Engine) emptyCells(r *engine.Runner, c *Corpus) error {
	for _, h := range c.AllCells() {
		orig := append([]byte(nil), c.Get(h)...)
		c.Set(h, nil)
		if err := r.Try(c.Dump()); err != nil {
			c.Set(h, orig)
			return err
		}
		c.Set(h, orig)
	}
	c.Revert()
	return nil
}

// bitFlip locates every structural byte in the dumped corpus, picks one at
// random, shifts a nearby byte left by a random bit count, and deploys the
// result once. This operates on the serialised bytes only; the corpus
// itself is untouched.
func (e *Engine) bitFlip(r *engine.Runner, c *Corpus) error {
	buf := c.Dump()
	var positions []int
	for i, b := range buf {
		for _, s := range csvStructuralBytes {
			if b == s {
				positions = append(positions, i)
				break
			}
		}
	}
	if len(positions) == 0 {
		return nil
	}
	pos := positions[e.rng.Range(0, len(positions)-1)]
	offset := e.rng.Range(0, 5)
	idx := pos + offset
	if idx >= len(buf) {
		idx = len(buf) - 1
	}
	shift := uint(e.rng.Range(1, 7))
	buf[idx] = buf[idx] << shift
	return r.Try(buf)
}

// addRows appends a duplicate of the last row, flagged added, and deploys
// the corpus without reverting — per spec §4.H, rows accumulate until a
// non-additive strategy calls Revert.
func (e *Engine) addRows(r *engine.Runner, c *Corpus) error {
	c.AddRow()
	return r.Try(c.Dump())
}

// addColumns picks a random cell from the first row as a template and
// appends a copy of it as a new cell on every row, flagged added, then
// deploys without reverting.
func (e *Engine) addColumns(r *engine.Runner, c *Corpus) error {
	first := c.FirstRowCells()
	if len(first) == 0 {
		return nil
	}
	h := first[e.rng.Range(0, len(first)-1)]
	c.AddColumn(c.Get(h))
	return r.Try(c.Dump())
}

// genericMutation applies one adaptive-selector mutation primitive to the
// serialised corpus bytes, tagging the selector with the "csv" context.
func (e *Engine) genericMutation(r *engine.Runner, c *Corpus) error {
	kind := e.sel.Pick(e.rng, "csv")
	m := mutate.Apply(e.rng, e.sel, c.Dump(), kind)
	if len(m.Data) == 0 {
		return nil
	}
	return r.Try(m.Data)
}
