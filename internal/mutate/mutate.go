// Package mutate implements the seven generic byte-level mutation
// primitives and the adaptive, format-aware selector that picks among them.
package mutate

import "github.com/lz0104132490/forkfuzz/internal/randutil"

// Kind names one of the seven mutation primitives.
type Kind int

const (
	BitFlip Kind = iota
	ByteFlip
	ByteInsert
	ByteDelete
	SeqRepeat
	SeqDelete
	NumMutate
	numKinds
)

func (k Kind) String() string {
	switch k {
	case BitFlip:
		return "bit_flip"
	case ByteFlip:
		return "byte_flip"
	case ByteInsert:
		return "byte_insert"
	case ByteDelete:
		return "byte_delete"
	case SeqRepeat:
		return "seq_repeat"
	case SeqDelete:
		return "seq_delete"
	case NumMutate:
		return "num_mutate"
	default:
		return "unknown"
	}
}

// Mutation is the ephemeral result of applying a primitive: a fresh buffer,
// its length, and whether the mutation could be applied at all.
type Mutation struct {
	Data    []byte
	Success bool
}

func bitFlip(g *randutil.LCG, data []byte) Mutation {
	if len(data) == 0 {
		return Mutation{}
	}
	out := append([]byte(nil), data...)
	pos := g.Range(0, len(out)-1)
	bit := g.Range(0, 7)
	out[pos] ^= 1 << uint(bit)
	return Mutation{Data: out, Success: true}
}

func byteFlip(g *randutil.LCG, data []byte) Mutation {
	if len(data) == 0 {
		return Mutation{}
	}
	out := append([]byte(nil), data...)
	pos := g.Range(0, len(out)-1)
	out[pos] ^= 0xFF
	return Mutation{Data: out, Success: true}
}

func byteInsert(g *randutil.LCG, data []byte) Mutation {
	out := make([]byte, len(data)+1)
	pos := g.Range(0, len(data))
	b := byte(g.Range(0, 255))
	copy(out[:pos], data[:pos])
	out[pos] = b
	copy(out[pos+1:], data[pos:])
	return Mutation{Data: out, Success: true}
}

func byteDelete(g *randutil.LCG, data []byte) Mutation {
	if len(data) <= 1 {
		// Deleting the only byte would yield a zero-length output; spec
		// marks degenerate outputs as failed mutations.
		return Mutation{}
	}
	pos := g.Range(0, len(data)-1)
	out := make([]byte, len(data)-1)
	copy(out[:pos], data[:pos])
	copy(out[pos:], data[pos+1:])
	return Mutation{Data: out, Success: true}
}

func seqRepeat(g *randutil.LCG, data []byte) Mutation {
	if len(data) == 0 {
		return Mutation{}
	}
	maxLen := len(data)
	if maxLen > 16 {
		maxLen = 16
	}
	seqLen := g.Range(1, maxLen)
	pos := g.Range(0, len(data)-seqLen)
	repeat := g.Range(2, 8)

	out := make([]byte, len(data)+seqLen*(repeat-1))
	copy(out, data[:pos])
	for i := 0; i < repeat; i++ {
		copy(out[pos+seqLen*i:], data[pos:pos+seqLen])
	}
	copy(out[pos+seqLen*repeat:], data[pos+seqLen:])
	return Mutation{Data: out, Success: true}
}

func seqDelete(g *randutil.LCG, data []byte) Mutation {
	if len(data) == 0 {
		return Mutation{}
	}
	maxLen := len(data)
	if maxLen > 16 {
		maxLen = 16
	}
	seqLen := g.Range(1, maxLen)
	if seqLen > len(data) {
		seqLen = len(data)
	}
	if seqLen == len(data) {
		// Would delete everything; degenerate, mark failure.
		return Mutation{}
	}
	pos := g.Range(0, len(data)-seqLen)

	out := make([]byte, len(data)-seqLen)
	copy(out, data[:pos])
	copy(out[pos:], data[pos+seqLen:])
	return Mutation{Data: out, Success: true}
}

func numMutate(g *randutil.LCG, data []byte) Mutation {
	if len(data) < 4 {
		return Mutation{}
	}
	out := append([]byte(nil), data...)
	for i := 0; i < len(out)-1; i++ {
		if out[i] >= '0' && out[i] <= '9' {
			switch g.Range(0, 3) {
			case 0: // increment, wrap 9->0
				if out[i] < '9' {
					out[i]++
				} else {
					out[i] = '0'
				}
			case 1: // decrement, wrap 0->9
				if out[i] > '0' {
					out[i]--
				} else {
					out[i] = '9'
				}
			case 2:
				out[i] = '0'
			case 3:
				out[i] = '9'
			}
			return Mutation{Data: out, Success: true}
		}
	}
	return Mutation{}
}

// Apply runs one primitive against data and records the outcome against the
// selector's learning state for the cached format context.
func Apply(g *randutil.LCG, s *Selector, data []byte, kind Kind) Mutation {
	var m Mutation
	switch kind {
	case BitFlip:
		m = bitFlip(g, data)
	case ByteFlip:
		m = byteFlip(g, data)
	case ByteInsert:
		m = byteInsert(g, data)
	case ByteDelete:
		m = byteDelete(g, data)
	case SeqRepeat:
		m = seqRepeat(g, data)
	case SeqDelete:
		m = seqDelete(g, data)
	case NumMutate:
		m = numMutate(g, data)
	}
	s.adjust(kind, m.Success)
	return m
}
