package randutil

import (
	"errors"
	"fmt"
	"os"
)

const (
	elfMagic0 = 0x7f
	elfMagic1 = 'E'
	elfMagic2 = 'L'
	elfMagic3 = 'F'

	// ELFCLASS64 is the e_ident[EI_CLASS] value for a 64-bit object, per
	// <elf.h>. The driver refuses anything else.
	ELFCLASS64 = 2
)

var errNotELF = errors.New("randutil: not an ELF file")

// ELFClass opens path, reads the sixteen-byte e_ident array, verifies the
// magic, and returns e_ident[EI_CLASS] (offset 4). It does not validate
// anything beyond the magic and class byte — the target is an opaque
// collaborator, not a file format this package fully parses.
func ELFClass(path string) (byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("randutil: open binary: %w", err)
	}
	defer f.Close()

	var ident [16]byte
	n, err := f.Read(ident[:])
	if err != nil && n != len(ident) {
		return 0, fmt.Errorf("randutil: read ELF header: %w", err)
	}
	if n != len(ident) {
		return 0, errNotELF
	}
	if ident[0] != elfMagic0 || ident[1] != elfMagic1 || ident[2] != elfMagic2 || ident[3] != elfMagic3 {
		return 0, errNotELF
	}
	return ident[4], nil
}

// RequireELF64 returns an error unless path is a 64-bit ELF executable.
func RequireELF64(path string) error {
	class, err := ELFClass(path)
	if err != nil {
		return err
	}
	if class != ELFCLASS64 {
		return fmt.Errorf("randutil: %s is not a 64-bit ELF binary", path)
	}
	return nil
}
