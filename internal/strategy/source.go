package strategy

import (
	"fmt"

	"github.com/standardbeagle/chi32/pkg/chi32"
)

// Source walks a CHI32 stream according to a strategy. It is the only place
// generator position is kept; the core itself is stateless. A Source is not
// safe for concurrent use; Clone it to hand an independent copy to another
// goroutine.
type Source struct {
	kind     Kind
	seed     int64
	phase    int64
	selector int64
	index    int64
	produced uint64
}

// NewSource positions a source at the start of the stream described by
// kind, seed and phase.
func NewSource(kind Kind, seed, phase int64) *Source {
	s := &Source{kind: kind, seed: seed, phase: phase}
	s.Reset()
	return s
}

// Reset rewinds the source to its initial position.
func (s *Source) Reset() {
	switch s.kind {
	case Swapped:
		s.selector = s.phase
		s.index = s.seed
	default:
		s.selector = s.seed
		s.index = s.phase
	}
	s.produced = 0
}

// Next returns the value at the current position and advances.
func (s *Source) Next() uint32 {
	value := chi32.DeriveUint32At(s.selector, s.index)

	switch s.kind {
	case Sequential:
		s.index++
	case Swapped:
		s.selector--
	case Feedback:
		s.selector, s.index = FeedbackStep(s.selector, s.index, value)
	}

	s.produced++
	return value
}

// Fill writes len(dst) consecutive values into dst.
func (s *Source) Fill(dst []uint32) {
	for i := range dst {
		dst[i] = s.Next()
	}
}

// Clone returns an independent copy positioned where s is.
func (s *Source) Clone() *Source {
	c := *s
	return &c
}

// Kind returns the iteration strategy.
func (s *Source) Kind() Kind { return s.kind }

// Position returns the inputs that the next call to Next will use.
func (s *Source) Position() (selector, index int64) {
	return s.selector, s.index
}

// Produced returns how many values have been drawn since the last Reset.
func (s *Source) Produced() uint64 { return s.produced }

// Describe names the generator the way statistical suites print it.
func (s *Source) Describe() string {
	if s.kind == Swapped {
		return fmt.Sprintf("CHI32 (Strategy=%s, InitialSelector=0x%016X, FixedIndex=0x%016X)",
			s.kind, uint64(s.phase), uint64(s.seed))
	}
	return fmt.Sprintf("CHI32 (Strategy=%s, Seed=0x%016X, InitialPhase=0x%016X)",
		s.kind, uint64(s.seed), uint64(s.phase))
}

// FeedbackStep computes the next (selector, index) of the feedback strategy
// from the previous pair and the value it produced.
func FeedbackStep(selector, index int64, value uint32) (int64, int64) {
	prevSelector := uint64(selector)
	prevIndex := uint64(index)

	nextSelector := (prevSelector << 32) | (prevIndex >> 32)
	nextIndex := (prevIndex << 32) | uint64(value)

	return int64(nextSelector), int64(nextIndex)
}
