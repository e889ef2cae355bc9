package randutil

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bin")
	if err := os.WriteFile(path, data, 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestELFClass64(t *testing.T) {
	ident := make([]byte, 16)
	ident[0], ident[1], ident[2], ident[3] = 0x7f, 'E', 'L', 'F'
	ident[4] = ELFCLASS64
	path := writeFile(t, ident)

	class, err := ELFClass(path)
	if err != nil {
		t.Fatal(err)
	}
	if class != ELFCLASS64 {
		t.Errorf("class = %d, want %d", class, ELFCLASS64)
	}
	if err := RequireELF64(path); err != nil {
		t.Errorf("RequireELF64: %v", err)
	}
}

func TestELFClassRejectsBadMagic(t *testing.T) {
	path := writeFile(t, []byte("not an elf at all!"))
	if _, err := ELFClass(path); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestRequireELF64Rejects32Bit(t *testing.T) {
	ident := make([]byte, 16)
	ident[0], ident[1], ident[2], ident[3] = 0x7f, 'E', 'L', 'F'
	ident[4] = 1 // ELFCLASS32
	path := writeFile(t, ident)
	if err := RequireELF64(path); err == nil {
		t.Fatal("expected error for 32-bit class")
	}
}
