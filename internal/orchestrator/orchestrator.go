// Package orchestrator wires the detector, forkserver, and per-format
// fuzzing engines together into the single run a target binary and seed
// drive end to end (spec §4.I).
package orchestrator

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/lz0104132490/forkfuzz/internal/archive"
	"github.com/lz0104132490/forkfuzz/internal/csvfuzz"
	"github.com/lz0104132490/forkfuzz/internal/detect"
	"github.com/lz0104132490/forkfuzz/internal/engine"
	"github.com/lz0104132490/forkfuzz/internal/forkserver"
	"github.com/lz0104132490/forkfuzz/internal/fuzzconfig"
	"github.com/lz0104132490/forkfuzz/internal/jsonfuzz"
	"github.com/lz0104132490/forkfuzz/internal/mutate"
	"github.com/lz0104132490/forkfuzz/internal/output"
	"github.com/lz0104132490/forkfuzz/internal/randutil"
	"github.com/lz0104132490/forkfuzz/internal/tui"
)

// SharedObjectPath locates the built LD_PRELOAD interposer. It is a var,
// not a const, so cmd/forkfuzz and tests can point at a different build
// output without an environment variable round trip.
var SharedObjectPath = "./shared.so"

// Run executes one full fuzzing session against cfg: map the seed,
// detect its format, stand up the forkserver (or its fallback), dispatch to
// the matching engine, and report a summary. It always returns a non-nil
// error only for setup failures (spec §6 exit code 1); a successful run
// that produced zero crashes is not an error.
func Run(cfg fuzzconfig.Config, log *logrus.Logger) (output.Summary, error) {
	entry := log.WithField("binary", cfg.Binary)

	if err := randutil.RequireELF64(cfg.Binary); err != nil {
		return output.Summary{}, fmt.Errorf("orchestrator: %w", err)
	}

	seedFile, err := os.Open(cfg.SeedPath)
	if err != nil {
		return output.Summary{}, fmt.Errorf("orchestrator: open seed: %w", err)
	}
	defer seedFile.Close()

	st, err := seedFile.Stat()
	if err != nil {
		return output.Summary{}, fmt.Errorf("orchestrator: stat seed: %w", err)
	}

	var seed []byte
	if st.Size() > 0 {
		mapped, err := unix.Mmap(int(seedFile.Fd()), 0, int(st.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
		if err != nil {
			return output.Summary{}, fmt.Errorf("orchestrator: mmap seed: %w", err)
		}
		defer unix.Munmap(mapped)
		seed = mapped
	}

	format := detect.Detect(seed)
	entry = entry.WithField("format", format.String())
	entry.Info("[*] format detected")

	target, cleanup, err := startTarget(cfg, entry)
	if err != nil {
		return output.Summary{}, fmt.Errorf("orchestrator: %w", err)
	}
	defer cleanup()

	arch := archive.New(entry)
	budget := randutil.NewTimeout(cfg.TimeoutSecs)
	runner := &engine.Runner{
		Target:   target,
		Archiver: arch,
		Binary:   cfg.Binary,
		MaxIters: cfg.MaxIterations,
		Timeout:  budget,
	}

	rng := randutil.NewLCG(uint32(time.Now().UnixNano()))
	sel := mutate.NewSelector()

	runEngine := func() {
		switch format {
		case detect.JSON:
			jeng, err := jsonfuzz.New(seed, rng, sel)
			if err != nil {
				entry.WithError(err).Warn("[!] seed does not parse as JSON, skipping run")
				return
			}
			if err := jeng.Run(runner); err != nil {
				entry.WithError(err).Warn("[!] json engine returned an error")
			}
		case detect.CSV:
			ceng := csvfuzz.New(seed, rng, sel)
			if err := ceng.Run(runner); err != nil {
				entry.WithError(err).Warn("[!] csv engine returned an error")
			}
		default:
			entry.WithField("format", format.String()).
				Info("[*] no engine implemented for this format, skipping")
		}
	}

	if dashboardEnabled(format) {
		runDashboarded(runner, budget, cfg.MaxIterations, runEngine)
	} else {
		runEngine()
	}

	return output.Summary{
		Binary:     cfg.Binary,
		Seed:       cfg.SeedPath,
		Format:     format.String(),
		Iterations: runner.Iteration(),
		Crashes:    runner.Crashes(),
		Hangs:      runner.Hangs(),
		ElapsedSec: budget.Elapsed(),
	}, nil
}

// startTarget stands up the forkserver driver and falls back to per-case
// fork-exec when the startup TEST handshake fails, per spec §4.F point 4.
func startTarget(cfg fuzzconfig.Config, entry *logrus.Entry) (engine.Target, func(), error) {
	env := randutil.PreloadEnv(os.Environ(), SharedObjectPath)
	argv := []string{cfg.Binary}

	driver, err := forkserver.Start(cfg.Binary, argv, env, cfg.SeedPath, cfg.CaseTimeout)
	if err == nil {
		if testErr := driver.Test(); testErr == nil {
			return driver, func() { driver.Close() }, nil
		}
		entry.Warn("[!] forkserver TEST handshake failed, falling back to per-case fork/exec")
		driver.Close()
	} else {
		entry.WithError(err).Warn("[!] forkserver start failed, falling back to per-case fork/exec")
	}

	fb := &forkserver.Fallback{
		Binary:  cfg.Binary,
		Argv:    argv,
		Env:     env,
		Timeout: cfg.CaseTimeout,
	}
	return fb, func() {}, nil
}

// dashboardEnabled reports whether the live TUI should run: stdout must be
// a terminal, JSON/quiet output must be off, and the format must have an
// engine to actually drive progress.
func dashboardEnabled(format detect.Format) bool {
	if output.IsJSON() || output.IsQuiet() {
		return false
	}
	if format != detect.JSON && format != detect.CSV {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// runDashboarded runs the engine on its own goroutine while the calling
// goroutine drives the bubbletea dashboard to completion, wiring the
// runner's OnUpdate hook to a buffered channel so a slow terminal repaint
// never blocks the fuzzing loop.
func runDashboarded(runner *engine.Runner, budget *randutil.Timeout, maxIter int, runEngine func()) {
	updates := make(chan tui.StatsMsg, 32)
	done := make(chan struct{})

	runner.OnUpdate = func(r *engine.Runner) {
		snapshot := tui.StatsMsg{
			Iteration: r.Iteration(),
			MaxIter:   maxIter,
			Crashes:   r.Crashes(),
			Hangs:     r.Hangs(),
			Elapsed:   budget.Elapsed(),
		}
		select {
		case updates <- snapshot:
		default:
		}
	}

	go func() {
		runEngine()
		close(done)
	}()

	_ = tui.RunDashboard(updates, done, maxIter)
}
