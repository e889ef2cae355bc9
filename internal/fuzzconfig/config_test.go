package fuzzconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestResolveRequiresBinaryAndSeed(t *testing.T) {
	if _, err := Resolve("", "seed", 0, 0); err == nil {
		t.Fatal("expected error for missing binary")
	}
	bin := touch(t)
	if _, err := Resolve(bin, "", 0, 0); err == nil {
		t.Fatal("expected error for missing seed")
	}
}

func TestResolveDefaults(t *testing.T) {
	bin := touch(t)
	seed := touch(t)
	cfg, err := Resolve(bin, seed, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxIterations != defaultMaxIterations {
		t.Errorf("MaxIterations = %d, want %d", cfg.MaxIterations, defaultMaxIterations)
	}
	if cfg.TimeoutSecs != defaultTimeoutSecs {
		t.Errorf("TimeoutSecs = %d, want %d", cfg.TimeoutSecs, defaultTimeoutSecs)
	}
	if cfg.CaseTimeout != defaultCaseTimeout {
		t.Errorf("CaseTimeout = %v, want %v", cfg.CaseTimeout, defaultCaseTimeout)
	}
}

func TestResolveRejectsMissingFiles(t *testing.T) {
	if _, err := Resolve("/does/not/exist", "/also/missing", 1, 1); err == nil {
		t.Fatal("expected error for missing binary file")
	}
}
