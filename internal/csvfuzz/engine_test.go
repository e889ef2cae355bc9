package csvfuzz

import (
	"syscall"
	"testing"

	"github.com/lz0104132490/forkfuzz/internal/archive"
	"github.com/lz0104132490/forkfuzz/internal/engine"
	"github.com/lz0104132490/forkfuzz/internal/mutate"
	"github.com/lz0104132490/forkfuzz/internal/randutil"
)

type recordingTarget struct {
	calls [][]byte
}

func (t *recordingTarget) RunTestCase(payload []byte) (syscall.WaitStatus, error) {
	t.calls = append(t.calls, append([]byte(nil), payload...))
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

func TestRunDeploysDeterministicStrategies(t *testing.T) {
	rng := randutil.NewLCG(1)
	sel := mutate.NewSelector()
	e := New([]byte("a,b,c\n1,2,3\n"), rng, sel)
	target := &recordingTarget{}
	r := newTestRunner(target, 0)

	if err := e.Run(r); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(target.calls) == 0 {
		t.Fatal("expected at least one deterministic test case")
	}
}

func TestRunRespectsIterationBudget(t *testing.T) {
	rng := randutil.NewLCG(5)
	sel := mutate.NewSelector()
	e := New([]byte("a,b\n1,2\n"), rng, sel)
	target := &recordingTarget{}
	r := newTestRunner(target, 40)

	if err := e.Run(r); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Iteration() > 40 {
		t.Fatalf("iteration count %d exceeds budget 40", r.Iteration())
	}
}

func TestBadNumsVisitsEveryCellAndTable(t *testing.T) {
	rng := randutil.NewLCG(1)
	sel := mutate.NewSelector()
	e := New([]byte("a,b\n"), rng, sel)
	c := Parse(e.seed)
	target := &recordingTarget{}
	r := newTestRunner(target, 0)

	if err := e.badNums(r, c); err != nil {
		t.Fatalf("badNums: %v", err)
	}
	want := len(c.AllCells()) * (len(badNumInts) + len(badNumFloats))
	if len(target.calls) != want {
		t.Fatalf("expected %d calls, got %d", want, len(target.calls))
	}
}

func TestAddRowsAccumulatesAcrossCalls(t *testing.T) {
	rng := randutil.NewLCG(1)
	sel := mutate.NewSelector()
	e := New([]byte("a,b\n1,2\n"), rng, sel)
	c := Parse(e.seed)
	target := &recordingTarget{}
	r := newTestRunner(target, 0)

	if err := e.addRows(r, c); err != nil {
		t.Fatalf("addRows: %v", err)
	}
	if err := e.addRows(r, c); err != nil {
		t.Fatalf("addRows: %v", err)
	}
	if c.NRows() != 4 {
		t.Fatalf("expected rows to accumulate to 4, got %d", c.NRows())
	}
	c.Revert()
	if c.NRows() != 2 {
		t.Fatalf("expected revert to drop accumulated rows, got %d", c.NRows())
	}
}
