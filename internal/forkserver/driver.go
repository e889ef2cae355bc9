package forkserver

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// closedFD marks a Files[] slot that should not exist in the child, the
// convention syscall.ForkExec uses in place of a sentinel fd number.
const closedFD = ^uintptr(0)

// Driver owns the parent side of one forkserver child: the persistent
// payload memfd, the command/info pipes, and the child's PID. One Driver
// serves exactly one fuzzing engine run.
//
// why_not_global_memfd: the memfd is allocated once at Start and reused
// (truncate + rewind) for every test case instead of being recreated per
// iteration — recreating it would mean re-dup'ing a fresh descriptor onto
// the victim's fixed fd 200 on every single RUN, doubling the syscalls on
// the driver's only synchronous hot path for no benefit, since the content
// changes but the descriptor's identity never needs to.
type Driver struct {
	cmdW  *os.File // driver writes command bytes here
	infoR *os.File // driver reads PID/status/ACK here
	memfd *os.File // persistent payload memfd, dup'd to fd 200 in the child

	pid         int
	enabled     bool          // false once a TEST handshake fails; falls back per-iteration
	caseTimeout time.Duration // per-test-case deadline (spec §5 "Timeouts", §9 Design Note)
}

// Start allocates the payload memfd and the command/info pipes, forks the
// forkserver child running binary, and performs the initial handshake read. argv and env are passed to the child verbatim
// except that env is expected to already carry LD_PRELOAD/LD_BIND_NOW
// (see randutil.PreloadEnv). caseTimeout bounds each individual RUN
// exchange in Deploy, independent of the engine's outer wall-clock budget.
func Start(binary string, argv, env []string, seedPath string, caseTimeout time.Duration) (*Driver, error) {
	memfd, err := unix.MemfdCreate("fuzz", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("forkserver: memfd_create: %w", err)
	}
	memfdFile := os.NewFile(uintptr(memfd), "fuzz-payload")

	cmdR, cmdW, err := os.Pipe()
	if err != nil {
		memfdFile.Close()
		return nil, fmt.Errorf("forkserver: command pipe: %w", err)
	}
	infoR, infoW, err := os.Pipe()
	if err != nil {
		memfdFile.Close()
		cmdR.Close()
		cmdW.Close()
		return nil, fmt.Errorf("forkserver: info pipe: %w", err)
	}

	seedFile, err := os.Open(seedPath)
	if err != nil {
		return nil, fmt.Errorf("forkserver: open seed: %w", err)
	}
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("forkserver: open %s: %w", os.DevNull, err)
	}

	files := make([]uintptr, MemfdFD+1)
	for i := range files {
		files[i] = closedFD
	}
	files[0] = seedFile.Fd()
	files[1] = devNull.Fd()
	files[2] = devNull.Fd()
	files[CmdFD] = cmdR.Fd()
	files[InfoFD] = infoW.Fd()
	files[MemfdFD] = memfdFile.Fd()

	pid, err := syscall.ForkExec(binary, argv, &syscall.ProcAttr{
		Env:   env,
		Files: files,
		Sys:   &syscall.SysProcAttr{Setpgid: true},
	})

	// These copies live on in the child via dup2; the parent's originals
	// are no longer needed except cmdW/infoR/memfdFile, which the driver
	// keeps for the lifetime of the run.
	seedFile.Close()
	devNull.Close()
	cmdR.Close()
	infoW.Close()

	if err != nil {
		cmdW.Close()
		infoR.Close()
		memfdFile.Close()
		return nil, fmt.Errorf("forkserver: fork/exec %s: %w", binary, err)
	}

	d := &Driver{cmdW: cmdW, infoR: infoR, memfd: memfdFile, pid: pid, caseTimeout: caseTimeout}

	// Handshake: forkserver writes four zero bytes once it reaches its
	// constructor's loop entry.
	if _, err := readUint32LE(d.infoR); err != nil {
		d.Close()
		return nil, fmt.Errorf("forkserver: handshake: %w", err)
	}
	d.enabled = true
	return d, nil
}

// Enabled reports whether the forkserver handshake/TEST succeeded. When
// false, callers must fall back to a per-iteration fork-exec strategy
// (spec §4.F point 4).
func (d *Driver) Enabled() bool { return d.enabled }

// Test performs the startup TEST handshake: write 'T' plus three arbitrary
// bytes, expect "ACK" back. On failure it disables the forkserver and kills
// the child, matching spec §4.F's fallback policy.
func (d *Driver) Test() error {
	if _, err := d.cmdW.Write([]byte{CmdTest, 0, 0, 0}); err != nil {
		d.disable()
		return fmt.Errorf("forkserver: TEST write: %w", err)
	}
	ack, err := readExactly(d.infoR, 3)
	if err != nil || string(ack) != "ACK" {
		d.disable()
		return fmt.Errorf("forkserver: TEST handshake failed (ack=%q err=%v)", ack, err)
	}
	return nil
}

func (d *Driver) disable() {
	d.enabled = false
	if d.pid > 0 {
		_ = syscall.Kill(-d.pid, syscall.SIGKILL)
	}
}

// WritePayload truncates the memfd to zero, rewinds it, and writes data —
// the driver-side half of spec §4.F's per-iteration protocol.
func (d *Driver) WritePayload(data []byte) error {
	if err := d.memfd.Truncate(0); err != nil {
		return fmt.Errorf("forkserver: truncate memfd: %w", err)
	}
	if _, err := d.memfd.Seek(0, 0); err != nil {
		return fmt.Errorf("forkserver: seek memfd: %w", err)
	}
	if _, err := d.memfd.Write(data); err != nil {
		return fmt.Errorf("forkserver: write memfd: %w", err)
	}
	return nil
}

// Deploy issues RUN and reads back the child PID and wait status, per the
// strict ordering in spec §5: write 'R' → read PID (4 bytes) → read status
// (4 bytes). The status read is bounded by d.caseTimeout: a victim that
// never returns is killed directly and TimeoutStatus is returned in place
// of a real wait status, so a single hanging test case cannot block the
// engine forever (spec §5 "Timeouts", §9 Design Note). Returns the raw
// wait status for the caller to classify.
func (d *Driver) Deploy() (childPID int, status syscall.WaitStatus, err error) {
	if _, err = d.cmdW.Write([]byte{CmdRun}); err != nil {
		return 0, 0, fmt.Errorf("forkserver: RUN write: %w", err)
	}
	pid, err := readUint32LE(d.infoR)
	if err != nil {
		return 0, 0, fmt.Errorf("forkserver: read child pid: %w", err)
	}

	type result struct {
		raw uint32
		err error
	}
	done := make(chan result, 1)
	go func() {
		raw, err := readUint32LE(d.infoR)
		done <- result{raw, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return int(pid), 0, fmt.Errorf("forkserver: read wait status: %w", r.err)
		}
		return int(pid), syscall.WaitStatus(r.raw), nil
	case <-time.After(d.caseTimeout):
		_ = syscall.Kill(int(pid), syscall.SIGKILL)
		<-done // forkserver's waitpid unblocks once the kill lands; drain its status write
		return int(pid), syscall.WaitStatus(TimeoutStatus), nil
	}
}

// RunTestCase writes payload to the memfd and deploys it in one call,
// satisfying the engine package's Target interface.
func (d *Driver) RunTestCase(payload []byte) (syscall.WaitStatus, error) {
	if err := d.WritePayload(payload); err != nil {
		return 0, err
	}
	_, status, err := d.Deploy()
	return status, err
}

// Close issues QUIT, reaps the forkserver child, and releases all
// descriptors. Safe to call once; further iterations must not follow.
func (d *Driver) Close() error {
	if d.enabled {
		_, _ = d.cmdW.Write([]byte{CmdQuit})
	}
	if d.pid > 0 {
		var ws syscall.WaitStatus
		_, _ = syscall.Wait4(d.pid, &ws, 0, nil)
	}
	d.cmdW.Close()
	d.infoR.Close()
	return d.memfd.Close()
}
