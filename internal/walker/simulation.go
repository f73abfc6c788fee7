// Package walker renders random-walk heatmaps: a walker steps one cell in a
// direction chosen by a generator, and the visit counts on a fixed grid expose
// directional bias that summary statistics can miss.
package walker

import (
	"context"
	"sync/atomic"
)

const (
	imageSizeBits = 9
	ImageSize     = 1 << imageSizeBits
	gridSizeBits  = imageSizeBits + 1
	gridSize      = 1 << gridSizeBits
	gridHalfSize  = gridSize / 2

	// cancelCheckMask sets how often the step loop polls for cancellation
	cancelCheckMask = 1<<20 - 1
)

// Simulation is one walker driven by one generator.
type Simulation struct {
	name       string
	steps      uint64
	scaleShift int
	gen        DirectionGenerator

	visits   []uint64
	x, y     int
	progress atomic.Uint64
}

// NewSimulation prepares a walk of steps moves. Positions are divided by
// 2^scaleShift before they are binned into the grid.
func NewSimulation(name string, gen DirectionGenerator, steps uint64, scaleShift int) *Simulation {
	return &Simulation{
		name:       name,
		steps:      steps,
		scaleShift: scaleShift,
		gen:        gen,
		visits:     make([]uint64, gridSize*gridSize),
	}
}

// Name returns the generator name.
func (s *Simulation) Name() string { return s.name }

// Steps returns the configured number of moves.
func (s *Simulation) Steps() uint64 { return s.steps }

// Progress returns how many moves have been made. Safe to call concurrently with Run.
func (s *Simulation) Progress() uint64 { return s.progress.Load() }

// Position returns the walker's unscaled coordinates.
func (s *Simulation) Position() (x, y int) { return s.x, s.y }

// Run advances the walk until every step is taken or ctx is done.
// A cancelled walk can be resumed by calling Run again.
func (s *Simulation) Run(ctx context.Context) error {
	step := s.progress.Load()
	for ; step < s.steps; step++ {
		if step&cancelCheckMask == 0 {
			s.progress.Store(step)
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		s.move(NextDirection(s.gen))

		gx := (s.x >> s.scaleShift) + gridHalfSize
		gy := (s.y >> s.scaleShift) + gridHalfSize
		if gx >= 0 && gx < gridSize && gy >= 0 && gy < gridSize {
			s.visits[gy<<gridSizeBits|gx]++
		}
	}
	s.progress.Store(step)
	return nil
}

// move applies a direction: 0 is +x, 1 is -x, 2 is +y, 3 is -y.
func (s *Simulation) move(dir int) {
	delta := 1 - (dir&1)<<1
	if dir&2 == 0 {
		s.x += delta
	} else {
		s.y += delta
	}
}

// visitsAt returns the visit count of grid cell (gx, gy).
func (s *Simulation) visitsAt(gx, gy int) uint64 {
	return s.visits[gy<<gridSizeBits|gx]
}
