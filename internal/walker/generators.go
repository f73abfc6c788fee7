package walker

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	chierrors "github.com/standardbeagle/chi32/internal/errors"
	"github.com/standardbeagle/chi32/internal/strategy"
)

// DefaultSeed seeds every generator unless the caller picks another.
const DefaultSeed uint64 = 0x88B66D918A3B2AD9

// DirectionGenerator is a 32-bit generator driving a walker. The top two
// bits of each value select one of four directions.
type DirectionGenerator interface {
	Next() uint32
}

// NextDirection returns a direction in [0, 4).
func NextDirection(g DirectionGenerator) int {
	return int(g.Next() >> 30)
}

// registry maps generator names to constructors taking the shared seed
var registry = map[string]func(seed uint64) DirectionGenerator{
	"chi32": func(seed uint64) DirectionGenerator {
		return strategy.NewSource(strategy.Sequential, int64(seed), 0)
	},
	"splitmix64":    func(seed uint64) DirectionGenerator { return &splitMix64{state: seed} },
	"pcg32":         func(seed uint64) DirectionGenerator { return newPCG32(seed) },
	"xoroshiro64ss": func(seed uint64) DirectionGenerator { return newXoroshiro64StarStar(uint32(seed)) },
	"lcg64":         func(seed uint64) DirectionGenerator { return &lcg64{state: seed} },
}

// GeneratorNames lists registered generators in sorted order.
func GeneratorNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewGenerator builds the named generator. Unknown names return an
// *errors.ArgumentError with the closest registered name.
func NewGenerator(name string, seed uint64) (DirectionGenerator, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if ctor, ok := registry[key]; ok {
		return ctor(seed), nil
	}

	names := GeneratorNames()
	msg := fmt.Sprintf("unknown generator (available: %s)", strings.Join(names, ", "))
	if suggestion := strategy.ClosestName(key, names); suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", suggestion)
	}
	return nil, chierrors.NewArgumentError("generator", name, fmt.Errorf("%s", msg))
}

// splitMix64 is Vigna's SplitMix64, truncated to the low 32 bits.
type splitMix64 struct {
	state uint64
}

func (g *splitMix64) Next() uint32 {
	g.state += 0x9E3779B97F4A7C15
	z := g.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return uint32(z ^ (z >> 31))
}

// pcg32 is O'Neill's PCG-XSH-RR with a seed-derived stream.
type pcg32 struct {
	state uint64
	inc   uint64
}

func newPCG32(seed uint64) *pcg32 {
	return &pcg32{state: seed, inc: seed<<1 | 1}
}

func (g *pcg32) Next() uint32 {
	old := g.state
	g.state = old*6364136223846793005 + g.inc
	xorShifted := uint32(((old >> 18) ^ old) >> 27)
	rot := int(old >> 59)
	return bits.RotateLeft32(xorShifted, -rot)
}

// xoroshiro64StarStar is Blackman and Vigna's xoroshiro64**.
type xoroshiro64StarStar struct {
	s0, s1 uint32
}

func newXoroshiro64StarStar(seed uint32) *xoroshiro64StarStar {
	return &xoroshiro64StarStar{s0: seed, s1: seed ^ 0x9E3779B9}
}

func (g *xoroshiro64StarStar) Next() uint32 {
	result := bits.RotateLeft32(g.s0*0x9E3779BB, 5) * 5
	t := g.s0 ^ g.s1
	g.s0 = bits.RotateLeft32(g.s0, 26) ^ t ^ (t << 9)
	g.s1 = bits.RotateLeft32(t, 13)
	return result
}

// lcg64 is a 64-bit LCG with Knuth's MMIX constants, returning the high half.
type lcg64 struct {
	state uint64
}

func (g *lcg64) Next() uint32 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return uint32(g.state >> 32)
}
