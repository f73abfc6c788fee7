// Package battery runs statistical test batteries against a CHI32 stream.
// Batteries mirror the structure of TestU01's SmallCrush and BigCrush at a
// smaller scale; every test reports a statistic and a right-tail p-value.
package battery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	chierrors "github.com/standardbeagle/chi32/internal/errors"
	"github.com/standardbeagle/chi32/internal/strategy"
)

// Generator yields successive 32-bit values.
type Generator interface {
	Next() uint32
}

// TestFunc draws samples values from gen and returns the test statistic and
// its p-value. Implementations must return ctx.Err() promptly once ctx is done.
type TestFunc func(ctx context.Context, gen Generator, samples int) (statistic, pValue float64, err error)

// Test is one entry in a battery.
type Test struct {
	Name    string
	Samples int
	Run     TestFunc
}

// Battery is a named, ordered list of tests.
type Battery struct {
	Name  string
	Tests []Test
}

// registry maps lower-case names and aliases to battery constructors
var registry = map[string]func() *Battery{
	"tiny":       Tiny,
	"smallcrush": SmallCrush,
	"small":      SmallCrush,
	"bigcrush":   BigCrush,
	"big":        BigCrush,
}

// Names returns the canonical battery names.
func Names() []string {
	return []string{"Tiny", "SmallCrush", "BigCrush"}
}

// Lookup resolves a battery name case-insensitively. Unknown names return a
// fatal *errors.ArgumentError carrying the closest known name.
func Lookup(name string) (*Battery, error) {
	if ctor, ok := registry[strings.ToLower(strings.TrimSpace(name))]; ok {
		return ctor(), nil
	}

	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msg := fmt.Sprintf("unknown battery (available: %s)", strings.Join(Names(), ", "))
	if suggestion := strategy.ClosestName(name, keys); suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", registry[suggestion]().Name)
	}
	return nil, chierrors.NewArgumentError("battery", name, fmt.Errorf("%s", msg))
}

// Tiny is a fast battery for smoke tests.
func Tiny() *Battery {
	return &Battery{
		Name: "Tiny",
		Tests: []Test{
			{Name: "Monobit", Samples: 1 << 14, Run: Monobit},
			{Name: "ByteFrequency", Samples: 1 << 14, Run: ByteFrequency},
			{Name: "Runs", Samples: 1 << 14, Run: Runs},
			{Name: "SerialPairs, w=4", Samples: 1 << 14, Run: SerialPairs(4)},
			{Name: "Gap, r=3", Samples: 1 << 15, Run: Gap(3, 16)},
			{Name: "BirthdaySpacings, m=512", Samples: 1 << 14, Run: BirthdaySpacings(512)},
		},
	}
}

// SmallCrush runs each test once on about a million values.
func SmallCrush() *Battery {
	return &Battery{
		Name: "SmallCrush",
		Tests: []Test{
			{Name: "Monobit", Samples: 1 << 20, Run: Monobit},
			{Name: "ByteFrequency", Samples: 1 << 20, Run: ByteFrequency},
			{Name: "Runs", Samples: 1 << 20, Run: Runs},
			{Name: "SerialPairs, w=8", Samples: 1 << 21, Run: SerialPairs(8)},
			{Name: "Gap, r=3", Samples: 1 << 20, Run: Gap(3, 24)},
			{Name: "Gap, r=6", Samples: 1 << 21, Run: Gap(6, 128)},
			{Name: "BirthdaySpacings, m=512", Samples: 1 << 20, Run: BirthdaySpacings(512)},
		},
	}
}

// BigCrush runs larger samples and repeats the byte-level tests.
func BigCrush() *Battery {
	return &Battery{
		Name: "BigCrush",
		Tests: []Test{
			{Name: "Monobit", Samples: 1 << 25, Run: Monobit},
			{Name: "ByteFrequency", Samples: 1 << 25, Run: ByteFrequency},
			{Name: "Runs", Samples: 1 << 25, Run: Runs},
			{Name: "SerialPairs, w=8", Samples: 1 << 24, Run: SerialPairs(8)},
			{Name: "SerialPairs, w=4", Samples: 1 << 22, Run: SerialPairs(4)},
			{Name: "Gap, r=3", Samples: 1 << 24, Run: Gap(3, 48)},
			{Name: "Gap, r=6", Samples: 1 << 24, Run: Gap(6, 256)},
			{Name: "Gap, r=9", Samples: 1 << 25, Run: Gap(9, 1024)},
			{Name: "BirthdaySpacings, m=512", Samples: 1 << 24, Run: BirthdaySpacings(512)},
			{Name: "BirthdaySpacings, m=1024", Samples: 1 << 25, Run: BirthdaySpacings(1024)},
		},
	}
}
