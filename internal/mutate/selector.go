package mutate

import (
	"strings"

	"github.com/lz0104132490/forkfuzz/internal/randutil"
)

// Selector owns the per-primitive scores and the last format context,
// replacing mutate.c's module-level statics with an explicit object per
// spec §9's design note ("wrap in an explicit adaptive selector object").
type Selector struct {
	scores       [numKinds]float64
	lastFormat   string
	basePriority [numKinds]float64
}

// NewSelector returns a selector with the reference initial scores and
// priorities.
func NewSelector() *Selector {
	s := &Selector{
		scores: [numKinds]float64{
			BitFlip:    6.0,
			ByteFlip:   6.0,
			ByteInsert: 5.0,
			ByteDelete: 5.0,
			SeqRepeat:  5.0,
			SeqDelete:  5.0,
			NumMutate:  6.0,
		},
		basePriority: [numKinds]float64{
			BitFlip:    1.0,
			ByteFlip:   1.0,
			ByteInsert: 0.9,
			ByteDelete: 0.9,
			SeqRepeat:  0.8,
			SeqDelete:  0.8,
			NumMutate:  1.1,
		},
	}
	return s
}

func isTextish(ftype string) bool {
	if ftype == "" {
		return false
	}
	return strings.Contains(ftype, "json") || strings.Contains(ftype, "text") ||
		strings.Contains(ftype, "xml") || strings.Contains(ftype, "csv")
}

func isStructuredBinary(ftype string) bool {
	if ftype == "" {
		return false
	}
	return strings.Contains(ftype, "jpeg") || strings.Contains(ftype, "jpg") ||
		strings.Contains(ftype, "elf") || strings.Contains(ftype, "pdf")
}

func clamp(v float64) float64 {
	if v < 1.0 {
		return 1.0
	}
	if v > 10.0 {
		return 10.0
	}
	return v
}

// adjust applies the learning update for one mutate() call, using the
// selector's cached format context.
func (s *Selector) adjust(k Kind, success bool) {
	if success {
		s.scores[k] += 2.0
	} else {
		s.scores[k] -= 1.0
	}
	s.scores[k] = clamp(s.scores[k])

	switch {
	case isTextish(s.lastFormat):
		s.scores[NumMutate] += 0.2
		s.scores[SeqRepeat] += 0.1
		s.scores[SeqDelete] += 0.1
	case isStructuredBinary(s.lastFormat):
		s.scores[ByteInsert] += 0.15
		s.scores[ByteDelete] += 0.15
		s.scores[SeqRepeat] += 0.1
		s.scores[SeqDelete] += 0.1
		s.scores[BitFlip] += 0.05
		s.scores[ByteFlip] += 0.05
	default:
		s.scores[ByteInsert] += 0.1
		s.scores[ByteDelete] += 0.1
	}

	for i := range s.scores {
		s.scores[i] = clamp(s.scores[i])
	}
}

func formatBoost(ftype string) [numKinds]float64 {
	var boost [numKinds]float64
	for i := range boost {
		boost[i] = 1.0
	}
	switch {
	case isTextish(ftype):
		boost[NumMutate] = 1.6
		boost[SeqRepeat] = 1.3
		boost[SeqDelete] = 1.2
		boost[ByteInsert] = 1.1
		boost[ByteDelete] = 1.0
		boost[BitFlip] = 0.8
		boost[ByteFlip] = 0.9
	case isStructuredBinary(ftype):
		boost[BitFlip] = 1.05
		boost[ByteFlip] = 1.05
		boost[ByteInsert] = 1.2
		boost[ByteDelete] = 1.2
		boost[SeqRepeat] = 1.15
		boost[SeqDelete] = 1.1
		boost[NumMutate] = 0.8
	default:
		boost[BitFlip] = 0.9
		boost[ByteFlip] = 0.95
		boost[ByteInsert] = 1.1
		boost[ByteDelete] = 1.1
		boost[SeqRepeat] = 1.1
		boost[SeqDelete] = 1.05
		boost[NumMutate] = 1.0
	}
	return boost
}

// Pick samples one Kind via the roulette wheel w_i = score_i * priority_i *
// boost_i, floored at 0.1, proportional to a draw from g. ftype caches the
// format context for the next adjust() call.
func (s *Selector) Pick(g *randutil.LCG, ftype string) Kind {
	s.lastFormat = ftype
	boost := formatBoost(ftype)

	var weights [numKinds]float64
	total := 0.0
	for i := Kind(0); i < numKinds; i++ {
		w := s.scores[i] * s.basePriority[i] * boost[i]
		if w < 0.1 {
			w = 0.1
		}
		weights[i] = w
		total += w
	}

	// LCG.Next yields at most 32767, so the draw spans exactly that range.
	r := g.Range(0, 32767)
	target := total * float64(r) / 32767.0
	acc := 0.0
	pick := numKinds - 1
	for i := Kind(0); i < numKinds; i++ {
		acc += weights[i]
		if acc >= target {
			pick = i
			break
		}
	}
	return pick
}

// Score returns the current score for k (test/observability hook).
func (s *Selector) Score(k Kind) float64 { return s.scores[k] }
