// Package engine holds the run-loop scaffolding shared by the JSON and CSV
// fuzzing engines: deploy one payload, classify the result, archive
// crashes/hangs, and track the iteration/time budget. Spec §9's design
// note on "tagged variants dispatched through a central run function"
// applies equally to both engines, so the central function lives here
// instead of being duplicated.
package engine

import (
	"syscall"

	"github.com/lz0104132490/forkfuzz/internal/archive"
	"github.com/lz0104132490/forkfuzz/internal/forkserver"
	"github.com/lz0104132490/forkfuzz/internal/randutil"
)

// Target deploys one payload and returns its wait status. Implemented by
// *forkserver.Driver (preferred) and *forkserver.Fallback (when the TEST
// handshake failed).
type Target interface {
	RunTestCase(payload []byte) (syscall.WaitStatus, error)
}

// Runner tracks the iteration/time budget for one engine run and owns the
// archiver calls so neither jsonfuzz nor csvfuzz has to re-implement the
// classification dance.
type Runner struct {
	Target   Target
	Archiver *archive.Archiver
	Binary   string
	MaxIters int
	Timeout  *randutil.Timeout

	// OnUpdate, when set, is called after every Try whose deploy returned
	// no error (a failed deploy skips it) — the hook the
	// optional TUI dashboard subscribes through to get live counts
	// without the engines knowing it exists.
	OnUpdate func(*Runner)

	iteration int
	crashes   int
	hangs     int
}

// HasBudget reports whether the outer loop may run another iteration.
func (r *Runner) HasBudget() bool {
	return r.iteration < r.MaxIters && !r.Timeout.Expired()
}

// Iteration returns the number of test cases deployed so far.
func (r *Runner) Iteration() int { return r.iteration }

// Crashes returns the number of fatal-signal outcomes seen so far.
func (r *Runner) Crashes() int { return r.crashes }

// Hangs returns the number of timeout outcomes seen so far.
func (r *Runner) Hangs() int { return r.hangs }

// Try deploys payload as one test case. A deploy-level error (memfd write
// failure, broken pipe) is a per-iteration mutation failure per spec §7
// kind 2: the caller skips the iteration silently, which here means
// returning the error for the caller to ignore rather than abort.
func (r *Runner) Try(payload []byte) error {
	r.iteration++
	status, err := r.Target.RunTestCase(payload)
	if err != nil {
		return err
	}
	switch outcome, sig := forkserver.Classify(status); outcome {
	case forkserver.OutcomeCrash:
		r.crashes++
		r.Archiver.SaveBad(r.Binary, payload, r.iteration, sig)
	case forkserver.OutcomeHang:
		r.hangs++
		r.Archiver.SaveHang(r.Binary, payload, r.iteration)
	}
	if r.OnUpdate != nil {
		r.OnUpdate(r)
	}
	return nil
}
