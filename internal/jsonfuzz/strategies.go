package jsonfuzz

import (
	"bytes"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/lz0104132490/forkfuzz/internal/engine"
	"github.com/lz0104132490/forkfuzz/internal/mutate"
)

// badNumInts is the exact integer boundary table from spec §4.G, kept as
// literal text since JSON numbers are written verbatim and fastjson's Arena
// can splice raw numeric text without reformatting it.
var badNumInts = []string{
	"-128", "-1", "0", "1", "16", "32", "64", "100", "127",
	"-32768", "-129", "128", "255", "256", "512", "1000", "1024", "4096", "32767",
	"-2147483648", "-100663046", "-32769", "32768", "65535", "65536", "100663045",
	"2147483647", "1337",
}

// badNumFloats is spec §4.G's float boundary table, including the
// non-standard literals (+Infinity, -Infinity, NaN) a strict JSON parser
// would reject — exactly the point of exercising them.
var badNumFloats = []string{
	"0.0", "-0.0", "0.33333333333333", "3.14159265358979",
	"0.1", "0.1000000", "-1.0", "1.0",
	"Infinity", "-Infinity", "NaN",
}

// fmtStrPayloads is spec §4.G's format-string probe set: positional
// specifiers, a repeated %s run, and a repeated %n run.
var fmtStrPayloads = []string{
	"%1$s", "%2$s", "%3$s", "%4$s", "%5$s", "%6$s", "%7$s", "%8$s", "%9$s",
	"%s%s%s%s%s",
	"%n%n%n%n%n",
}

const overflowKeyLen = 800

// runMutated serialises tree and deploys it as one test case.
func (e *Engine) runMutated(r *engine.Runner, tree *fastjson.Value) error {
	payload := tree.MarshalTo(nil)
	return r.Try(payload)
}

// extraObjects duplicates the seed bytes 100 times inside a wrapping array,
// a byte-level strategy per spec §4.G — it does not need a valid tree at
// all, just the raw seed repeated.
func (e *Engine) extraObjects(r *engine.Runner) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < 100; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(e.seed)
	}
	buf.WriteByte(']')
	return r.Try(buf.Bytes())
}

// bufferOverflow renames every object key, one at a time, to an 800-byte
// run of 'A' and deploys the result — spec §4.G's key-buffer-overflow probe.
func (e *Engine) bufferOverflow(r *engine.Runner) error {
	overflow := strings.Repeat("A", overflowKeyLen)
	base, err := e.freshTree()
	if err != nil {
		return err
	}
	for _, ent := range collectEntries(base) {
		ent.owner.Del(ent.key)
		ent.owner.Set(overflow, ent.val)
		if err := e.runMutated(r, base); err != nil {
			return err
		}
		ent.owner.Del(overflow)
		ent.owner.Set(ent.key, ent.val)
	}
	return nil
}

// badNums substitutes every number-valued object entry with each entry of
// the integer and float boundary tables in turn, restoring the original
// value after each test case. Numbers that are array elements are not
// visited.
func (e *Engine) badNums(r *engine.Runner) error {
	var arena fastjson.Arena
	for _, lit := range append(append([]string{}, badNumInts...), badNumFloats...) {
		base, err := e.freshTree()
		if err != nil {
			return err
		}
		for _, ent := range collectEntries(base) {
			if ent.val.Type() != fastjson.TypeNumber {
				continue
			}
			repl := arena.NewNumberString(lit)
			ent.owner.Set(ent.key, repl)
			if err := e.runMutated(r, base); err != nil {
				return err
			}
			ent.owner.Set(ent.key, ent.val)
		}
		arena.Reset()
	}
	return nil
}

// fmtStr substitutes every string-valued entry with each format-string
// payload in turn, restoring the original value after each test case.
func (e *Engine) fmtStr(r *engine.Runner) error {
	var arena fastjson.Arena
	for _, payload := range fmtStrPayloads {
		base, err := e.freshTree()
		if err != nil {
			return err
		}
		for _, ent := range collectEntries(base) {
			if ent.val.Type() != fastjson.TypeString {
				continue
			}
			repl := arena.NewString(payload)
			ent.owner.Set(ent.key, repl)
			if err := e.runMutated(r, base); err != nil {
				return err
			}
			ent.owner.Set(ent.key, ent.val)
		}
		arena.Reset()
	}
	return nil
}

// empty renames every object key to the empty string, one at a time.
func (e *Engine) empty(r *engine.Runner) error {
	base, err := e.freshTree()
	if err != nil {
		return err
	}
	for _, ent := range collectEntries(base) {
		ent.owner.Del(ent.key)
		ent.owner.Set("", ent.val)
		if err := e.runMutated(r, base); err != nil {
			return err
		}
		ent.owner.Del("")
		ent.owner.Set(ent.key, ent.val)
	}
	return nil
}

// extraEntries splices 100 identical "extra":"extra_value" fields into the
// serialised root object and deploys once (spec §4.G). These are meant as a
// duplicate-key probe, not 100 distinct keys, so this operates on the raw
// serialised bytes rather than through the tree's Set (which dedupes
// same-key writes) — the same byte-level approach extraObjects and
// appendObjects use elsewhere in this file. Arrays and scalar roots have no
// key space to extend, so the strategy is a silent no-op for those seeds.
func (e *Engine) extraEntries(r *engine.Runner) error {
	base, err := e.freshTree()
	if err != nil {
		return err
	}
	if base.Type() != fastjson.TypeObject {
		return nil
	}
	serialized := base.MarshalTo(nil)
	idx := bytes.IndexByte(serialized, '{')
	if idx < 0 {
		return nil
	}
	rest := serialized[idx+1:]

	var buf bytes.Buffer
	buf.Write(serialized[:idx+1])
	for i := 0; i < 100; i++ {
		buf.WriteString(`"extra":"extra_value",`)
	}
	if len(rest) > 0 && rest[0] == '}' {
		// root was empty: drop the trailing comma before the closing brace.
		buf.Truncate(buf.Len() - 1)
	}
	buf.Write(rest)
	return r.Try(buf.Bytes())
}

// appendObjects concatenates two copies of the seed back to back — not
// wrapped in any container, exercising a parser's handling of trailing
// garbage after what looks like a complete document.
func (e *Engine) appendObjects(r *engine.Runner) error {
	payload := append(append([]byte(nil), e.seed...), e.seed...)
	return r.Try(payload)
}

// jsonStructuralBytes are the punctuation bytes that carry JSON's grammar;
// perturbing one of these is far more likely to desync a parser than
// perturbing a byte inside a string or number literal.
var jsonStructuralBytes = []byte{'\\', '\n', '"', ',', '/', ':', '[', ']', '{', '}'}

// bitShift locates every structural byte in the serialised seed, picks one
// at random, shifts a nearby byte left by a random bit count, and deploys
// the result once.
func (e *Engine) bitShift(r *engine.Runner) error {
	var positions []int
	for i, b := range e.seed {
		for _, s := range jsonStructuralBytes {
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
	offset := e.rng.Range(1, 10)
	idx := pos + offset
	if idx >= len(e.seed) {
		idx = len(e.seed) - 1
	}
	shift := uint(e.rng.Range(1, 7))

	buf := append([]byte(nil), e.seed...)
	buf[idx] = buf[idx] << shift
	return r.Try(buf)
}

// genericMutation applies one adaptive-selector mutation primitive to the
// raw seed bytes, tagging the selector with the "json" context so its
// textish/structured nudges apply.
func (e *Engine) genericMutation(r *engine.Runner) error {
	kind := e.sel.Pick(e.rng, "json")
	m := mutate.Apply(e.rng, e.sel, e.seed, kind)
	if len(m.Data) == 0 {
		return nil
	}
	return r.Try(m.Data)
}
