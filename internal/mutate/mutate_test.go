package mutate

import (
	"testing"

	"github.com/lz0104132490/forkfuzz/internal/randutil"
)

func TestByteInsertDelta(t *testing.T) {
	g := randutil.NewLCG(1)
	s := NewSelector()
	m := Apply(g, s, []byte("hello"), ByteInsert)
	if !m.Success || len(m.Data) != 6 {
		t.Fatalf("ByteInsert: success=%v len=%d, want success len=6", m.Success, len(m.Data))
	}
}

func TestByteDeleteDelta(t *testing.T) {
	g := randutil.NewLCG(1)
	s := NewSelector()
	m := Apply(g, s, []byte("hello"), ByteDelete)
	if !m.Success || len(m.Data) != 4 {
		t.Fatalf("ByteDelete: success=%v len=%d, want success len=4", m.Success, len(m.Data))
	}
}

func TestByteDeleteDegenerateSingleByte(t *testing.T) {
	g := randutil.NewLCG(1)
	s := NewSelector()
	m := Apply(g, s, []byte("x"), ByteDelete)
	if m.Success {
		t.Fatalf("ByteDelete on single byte should fail (degenerate), got success with %q", m.Data)
	}
}

func TestBitFlipAndByteFlipPreserveLength(t *testing.T) {
	g := randutil.NewLCG(5)
	s := NewSelector()
	data := []byte("abcdef")
	if m := Apply(g, s, data, BitFlip); !m.Success || len(m.Data) != len(data) {
		t.Fatalf("BitFlip changed length: %d", len(m.Data))
	}
	if m := Apply(g, s, data, ByteFlip); !m.Success || len(m.Data) != len(data) {
		t.Fatalf("ByteFlip changed length: %d", len(m.Data))
	}
}

func TestSeqRepeatDelta(t *testing.T) {
	g := randutil.NewLCG(9)
	s := NewSelector()
	data := []byte("abcdefghij")
	m := Apply(g, s, data, SeqRepeat)
	if !m.Success {
		t.Fatal("SeqRepeat failed unexpectedly")
	}
	if len(m.Data) <= len(data) {
		t.Fatalf("SeqRepeat did not grow buffer: %d vs %d", len(m.Data), len(data))
	}
}

func TestSeqDeleteDelta(t *testing.T) {
	g := randutil.NewLCG(9)
	s := NewSelector()
	data := []byte("abcdefghij")
	m := Apply(g, s, data, SeqDelete)
	if !m.Success {
		t.Fatal("SeqDelete failed unexpectedly")
	}
	if len(m.Data) >= len(data) {
		t.Fatalf("SeqDelete did not shrink buffer: %d vs %d", len(m.Data), len(data))
	}
}

func TestNumMutateRequiresFourBytes(t *testing.T) {
	g := randutil.NewLCG(3)
	s := NewSelector()
	if m := Apply(g, s, []byte("1"), NumMutate); m.Success {
		t.Fatal("NumMutate should fail for size < 4")
	}
	m := Apply(g, s, []byte("n:1234"), NumMutate)
	if !m.Success {
		t.Fatal("NumMutate should succeed when a digit is present and size >= 4")
	}
}

func TestNumMutateNoDigitFails(t *testing.T) {
	g := randutil.NewLCG(3)
	s := NewSelector()
	m := Apply(g, s, []byte("no digits here"), NumMutate)
	if m.Success {
		t.Fatal("NumMutate should fail when there is no ASCII digit")
	}
}

func TestScoreClampBounds(t *testing.T) {
	g := randutil.NewLCG(2)
	s := NewSelector()
	for i := 0; i < 200; i++ {
		Apply(g, s, []byte("abcd1234"), BitFlip)
	}
	if s.Score(BitFlip) > 10.0 || s.Score(BitFlip) < 1.0 {
		t.Fatalf("score escaped [1,10]: %f", s.Score(BitFlip))
	}
}

func TestPickReturnsValidKind(t *testing.T) {
	g := randutil.NewLCG(11)
	s := NewSelector()
	for i := 0; i < 50; i++ {
		k := s.Pick(g, "json")
		if k < 0 || k >= numKinds {
			t.Fatalf("Pick returned out-of-range kind %d", k)
		}
	}
}
