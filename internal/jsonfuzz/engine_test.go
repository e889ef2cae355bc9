package jsonfuzz

import (
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/lz0104132490/forkfuzz/internal/archive"
	"github.com/lz0104132490/forkfuzz/internal/engine"
	"github.com/lz0104132490/forkfuzz/internal/mutate"
	"github.com/lz0104132490/forkfuzz/internal/randutil"
)

// recordingTarget counts deployed test cases and returns a clean exit for
// every one of them, so tests can assert on iteration counts without
// forking a real process.
type recordingTarget struct {
	calls [][]byte
}

func (t *recordingTarget) RunTestCase(payload []byte) (syscall.WaitStatus, error) {
	cp := append([]byte(nil), payload...)
	t.calls = append(t.calls, cp)
	return 0, nil
}

func newTestRunner(target engine.Target, maxIters int) *engine.Runner {
	return &engine.Runner{
		Target:   target,
		Archiver: archive.New(nil),
		Binary:   "testbin",
		MaxIters: maxIters,
		Timeout:  randutil.NewTimeout(60),
	}
}

func TestNewRejectsInvalidJSON(t *testing.T) {
	rng := randutil.NewLCG(1)
	sel := mutate.NewSelector()
	if _, err := New([]byte("{not json"), rng, sel); err == nil {
		t.Fatal("expected parse error for invalid seed")
	}
}

func TestRunDeploysDeterministicStrategies(t *testing.T) {
	rng := randutil.NewLCG(1)
	sel := mutate.NewSelector()
	e, err := New([]byte(`{"name":"ok","count":1}`), rng, sel)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	target := &recordingTarget{}
	r := newTestRunner(target, 0) // no randomised budget, deterministic only

	if err := e.Run(r); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(target.calls) == 0 {
		t.Fatal("expected at least one deterministic test case")
	}
}

func TestRunRespectsIterationBudget(t *testing.T) {
	rng := randutil.NewLCG(7)
	sel := mutate.NewSelector()
	e, err := New([]byte(`{"a":1}`), rng, sel)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	target := &recordingTarget{}
	r := newTestRunner(target, 50)

	if err := e.Run(r); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Iteration() > 50 {
		t.Fatalf("iteration count %d exceeds budget 50", r.Iteration())
	}
}

// slowTarget delays every test case so that the wall-clock budget, not the
// iteration cap, is what ends a run.
type slowTarget struct{ delay time.Duration }

func (t slowTarget) RunTestCase(payload []byte) (syscall.WaitStatus, error) {
	time.Sleep(t.delay)
	return 0, nil
}

func TestRunRespectsDeadline(t *testing.T) {
	rng := randutil.NewLCG(3)
	sel := mutate.NewSelector()
	e, err := New([]byte(`{"a":1}`), rng, sel)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// A one-second budget with 5ms per test case: the deadline fires long
	// before the iteration cap can be reached.
	r := newTestRunner(slowTarget{delay: 5 * time.Millisecond}, 1_000_000)
	r.Timeout = randutil.NewTimeout(1)

	if err := e.Run(r); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !r.Timeout.Expired() {
		t.Fatal("Run returned before the wall-clock budget expired")
	}
	if r.Iteration() >= 1_000_000 {
		t.Fatalf("iteration cap reached (%d); the deadline did not end the run", r.Iteration())
	}
}

func TestExtraEntriesSkipsNonObjectRoot(t *testing.T) {
	rng := randutil.NewLCG(1)
	sel := mutate.NewSelector()
	e, err := New([]byte(`[1,2,3]`), rng, sel)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	target := &recordingTarget{}
	r := newTestRunner(target, 0)
	if err := e.extraEntries(r); err != nil {
		t.Fatalf("extraEntries: %v", err)
	}
	if len(target.calls) != 0 {
		t.Fatalf("expected no test case for array root, got %d", len(target.calls))
	}
}

func TestExtraEntriesProduces100IdenticalFields(t *testing.T) {
	rng := randutil.NewLCG(1)
	sel := mutate.NewSelector()
	e, err := New([]byte(`{"a":1}`), rng, sel)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	target := &recordingTarget{}
	r := newTestRunner(target, 0)
	if err := e.extraEntries(r); err != nil {
		t.Fatalf("extraEntries: %v", err)
	}
	if len(target.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(target.calls))
	}
	got := string(target.calls[0])
	want := strings.Count(got, `"extra":"extra_value"`)
	if want != 100 {
		t.Fatalf("expected 100 identical extra fields, got %d", want)
	}
}

func TestBufferOverflowProducesOverflowKey(t *testing.T) {
	rng := randutil.NewLCG(1)
	sel := mutate.NewSelector()
	e, err := New([]byte(`{"name":"ok"}`), rng, sel)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	target := &recordingTarget{}
	r := newTestRunner(target, 0)
	if err := e.bufferOverflow(r); err != nil {
		t.Fatalf("bufferOverflow: %v", err)
	}
	if len(target.calls) != 1 {
		t.Fatalf("expected 1 call for a single-key object, got %d", len(target.calls))
	}
	if got := string(target.calls[0]); len(got) < overflowKeyLen {
		t.Fatalf("expected payload to contain the 800-byte key, got %q", got)
	}
}

func TestBadNumsCoversBothTables(t *testing.T) {
	rng := randutil.NewLCG(1)
	sel := mutate.NewSelector()
	e, err := New([]byte(`{"n":1}`), rng, sel)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	target := &recordingTarget{}
	r := newTestRunner(target, 0)
	if err := e.badNums(r); err != nil {
		t.Fatalf("badNums: %v", err)
	}
	want := len(badNumInts) + len(badNumFloats)
	if len(target.calls) != want {
		t.Fatalf("expected %d calls (one per boundary value), got %d", want, len(target.calls))
	}
}
