package forkserver

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func TestFallbackDeployCleanExit(t *testing.T) {
	if _, err := os.Stat("/bin/true"); err != nil {
		t.Skip("/bin/true not present on this system")
	}
	f := &Fallback{Binary: "/bin/true", Argv: []string{"true"}, Env: os.Environ()}
	status, err := f.Deploy([]byte("irrelevant"), 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Exited() || status.ExitStatus() != 0 {
		t.Errorf("status = %v, want clean exit 0", status)
	}
}

func TestFallbackDeployTimeoutInjectsSentinel(t *testing.T) {
	if _, err := os.Stat("/bin/sleep"); err != nil {
		t.Skip("/bin/sleep not present on this system")
	}
	f := &Fallback{Binary: "/bin/sleep", Argv: []string{"sleep", "5"}, Env: os.Environ()}
	status, err := f.Deploy(nil, 200*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if uint32(status) != TimeoutStatus {
		t.Errorf("status = %#x, want TimeoutStatus sentinel", uint32(status))
	}
	outcome, _ := Classify(status)
	if outcome != OutcomeHang {
		t.Errorf("outcome = %v, want OutcomeHang", outcome)
	}
	_ = syscall.WaitStatus(status)
}
