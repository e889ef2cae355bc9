package forkserver

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Fallback runs one test case per fork-exec, passing the configured Env to
// every exec, for use when the TEST handshake fails and the forkserver is
// disabled (spec §4.F point 4). Grounded on the non-forkserver driver path
// in the reference fs.c, expressed with context-free timeout handling in
// the style of the teacher's exec package (process-group kill on
// deadline).
type Fallback struct {
	Binary  string
	Argv    []string
	Env     []string
	Timeout time.Duration
}

// RunTestCase satisfies the engine package's Target interface, deploying
// payload with the Fallback's configured per-case timeout.
func (f *Fallback) RunTestCase(payload []byte) (syscall.WaitStatus, error) {
	return f.Deploy(payload, f.Timeout)
}

// Deploy writes data to a fresh memfd, execs Binary with it dup'd onto
// stdin, and waits up to timeout. A timed-out child is killed and the
// TimeoutStatus sentinel is returned in its place, matching the forkserver
// path's hang signalling so callers share one classification function.
func (f *Fallback) Deploy(data []byte, timeout time.Duration) (syscall.WaitStatus, error) {
	fd, err := unix.MemfdCreate("fuzz-fallback", unix.MFD_CLOEXEC)
	if err != nil {
		return 0, fmt.Errorf("forkserver: fallback memfd_create: %w", err)
	}
	memfd := os.NewFile(uintptr(fd), "fuzz-fallback")
	defer memfd.Close()

	if _, err := memfd.Write(data); err != nil {
		return 0, fmt.Errorf("forkserver: fallback write payload: %w", err)
	}
	if _, err := memfd.Seek(0, 0); err != nil {
		return 0, fmt.Errorf("forkserver: fallback seek payload: %w", err)
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("forkserver: fallback open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	pid, err := syscall.ForkExec(f.Binary, f.Argv, &syscall.ProcAttr{
		Env:   f.Env,
		Files: []uintptr{memfd.Fd(), devNull.Fd(), devNull.Fd()},
		Sys:   &syscall.SysProcAttr{Setpgid: true},
	})
	if err != nil {
		return 0, fmt.Errorf("forkserver: fallback fork/exec: %w", err)
	}

	type result struct {
		status syscall.WaitStatus
		err    error
	}
	done := make(chan result, 1)
	go func() {
		var ws syscall.WaitStatus
		_, err := syscall.Wait4(pid, &ws, 0, nil)
		done <- result{ws, err}
	}()

	select {
	case r := <-done:
		return r.status, r.err
	case <-time.After(timeout):
		_ = syscall.Kill(-pid, syscall.SIGKILL)
		<-done // reap to avoid a zombie
		return syscall.WaitStatus(TimeoutStatus), nil
	}
}
