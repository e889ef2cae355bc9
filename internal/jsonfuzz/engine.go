// Package jsonfuzz implements the JSON fuzzing engine: deterministic
// structure-aware strategies run once each, then a randomised loop bounded
// by the iteration cap and wall-clock deadline (spec §4.G).
package jsonfuzz

import (
	"github.com/valyala/fastjson"

	"github.com/lz0104132490/forkfuzz/internal/engine"
	"github.com/lz0104132490/forkfuzz/internal/mutate"
	"github.com/lz0104132490/forkfuzz/internal/randutil"
)

// Engine runs the JSON strategies against one seed for the lifetime of a
// single fuzzing run.
type Engine struct {
	seed []byte
	rng  *randutil.LCG
	sel  *mutate.Selector
}

// New parses seed once (to fail fast on invalid JSON, per spec §4.G "refuse
// to proceed if parsing fails") and returns an Engine ready to run.
func New(seed []byte, rng *randutil.LCG, sel *mutate.Selector) (*Engine, error) {
	if _, err := fastjson.ParseBytes(seed); err != nil {
		return nil, err
	}
	cp := append([]byte(nil), seed...)
	return &Engine{seed: cp, rng: rng, sel: sel}, nil
}

// objEntry names one key/value pair inside the tree along with the object
// Value that owns it, so a strategy can Set/Del through the owner without
// holding a stale reference into a slice that Visit might reorder.
type objEntry struct {
	owner *fastjson.Value
	key   string
	val   *fastjson.Value
}

// collectEntries walks the tree (objects and arrays) and returns every
// object entry found, recursively — spec §4.G's deterministic strategies
// apply "for every node", not just the root's immediate keys.
func collectEntries(root *fastjson.Value) []objEntry {
	var out []objEntry
	var rec func(v *fastjson.Value)
	rec = func(v *fastjson.Value) {
		if v == nil {
			return
		}
		switch v.Type() {
		case fastjson.TypeObject:
			obj := v.GetObject()
			obj.Visit(func(k []byte, val *fastjson.Value) {
				out = append(out, objEntry{owner: v, key: string(k), val: val})
			})
			obj.Visit(func(k []byte, val *fastjson.Value) {
				rec(val)
			})
		case fastjson.TypeArray:
			for _, item := range v.GetArray() {
				rec(item)
			}
		}
	}
	rec(root)
	return out
}

// freshTree reparses the original seed, so every tree-level strategy starts
// from an unmodified tree; re-parsing a small seed is cheap and the old
// tree is simply garbage collected. Within one tree, the strategies still
// restore each entry after deploying it, so a test case differs from the
// seed in one entry only.
func (e *Engine) freshTree() (*fastjson.Value, error) {
	return fastjson.ParseBytes(e.seed)
}

// Run executes every deterministic strategy once in the fixed order from
// spec §4.G, then loops randomised strategies until the runner's budget is
// exhausted.
func (e *Engine) Run(r *engine.Runner) error {
	deterministic := []func(*engine.Runner) error{
		e.extraObjects,
		e.bufferOverflow,
		e.badNums,
		e.fmtStr,
		e.empty,
		e.extraEntries,
		e.appendObjects,
	}
	for _, strategy := range deterministic {
		if err := strategy(r); err != nil {
			continue // per-iteration failures are silently skipped, spec §7 kind 2
		}
	}

	randomised := []func(*engine.Runner) error{e.bitShift, e.genericMutation}
	for r.HasBudget() {
		pick := randomised[e.rng.Range(0, len(randomised)-1)]
		_ = pick(r) // errors are per-iteration skips
	}
	return nil
}
