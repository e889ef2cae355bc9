// Package forkserver implements the parent (driver) side of the forkserver
// protocol: a persistent preloaded victim process orchestrated over a fixed
// file-descriptor contract (spec §4.F, §5, §6).
package forkserver

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Fixed descriptor numbers inside the victim, per spec §6.
const (
	CmdFD   = 198
	InfoFD  = 199
	MemfdFD = 200
)

// Forkserver command bytes.
const (
	CmdRun  byte = 'R'
	CmdQuit byte = 'Q'
	CmdTest byte = 'T'
)

// TimeoutStatus is the sentinel wait status (0x7FFFFFFF) a per-case timeout
// kill injects in place of a real wait status, per spec §5/§9.
const TimeoutStatus uint32 = 0x7FFFFFFF

func writeUint32LE(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint32LE(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readExactly(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("forkserver: short read (want %d bytes): %w", n, err)
	}
	return buf, nil
}
