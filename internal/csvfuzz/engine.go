package csvfuzz

import (
	"github.com/lz0104132490/forkfuzz/internal/engine"
	"github.com/lz0104132490/forkfuzz/internal/mutate"
	"github.com/lz0104132490/forkfuzz/internal/randutil"
)

// Engine runs the CSV strategies against one seed for the lifetime of a
// single fuzzing run.
type Engine struct {
	seed []byte
	rng  *randutil.LCG
	sel  *mutate.Selector
}

// New copies seed for later re-dumps; unlike jsonfuzz there is no parse
// failure to refuse here — the CSV parser in this package never errors,
// it simply treats anything it can't make sense of as one big field.
func New(seed []byte, rng *randutil.LCG, sel *mutate.Selector) *Engine {
	return &Engine{seed: append([]byte(nil), seed...), rng: rng, sel: sel}
}

// Run executes every deterministic strategy once in spec §4.H's fixed
// order, then loops randomised strategies until the runner's budget runs
// out.
func (e *Engine) Run(r *engine.Runner) error {
	c := Parse(e.seed)

	deterministic := []func(*engine.Runner, *Corpus) error{
		e.bufferOverflow,
		e.badNums,
		e.csvInjection,
		e.specialChars,
		e.emptyCells,
	}
	for _, strategy := range deterministic {
		_ = strategy(r, c) // per-iteration failures are silent skips, spec §7 kind 2
	}

	randomised := []func(*engine.Runner, *Corpus) error{
		e.bitFlip,
		e.addRows,
		e.addColumns,
		e.genericMutation,
	}
	for r.HasBudget() {
		pick := randomised[e.rng.Range(0, len(randomised)-1)]
		_ = pick(r, c)
	}
	return nil
}
