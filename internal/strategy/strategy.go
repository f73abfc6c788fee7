// Package strategy holds the iteration bookkeeping used by every CHI32
// harness: how a (selector, index) pair advances from one value to the next.
package strategy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hbollon/go-edlib"

	chierrors "github.com/standardbeagle/chi32/internal/errors"
)

// Kind identifies an iteration strategy. The numeric values are the strategy
// codes used in canonical metadata tables.
type Kind int

const (
	// Sequential keeps the selector fixed at the seed and increments the index.
	Sequential Kind = 0
	// Swapped keeps the index fixed at the seed and decrements the selector.
	Swapped Kind = 1
	// Feedback re-derives both inputs from the previous inputs and output.
	Feedback Kind = 2
)

// Names lists the strategy names in code order.
var Names = []string{"sequential", "swapped", "feedback"}

func (k Kind) String() string {
	if k.Valid() {
		return Names[k]
	}
	return "unknown"
}

// Valid reports whether k is one of the three known strategies.
func (k Kind) Valid() bool {
	return k >= Sequential && k <= Feedback
}

// ParseName resolves a strategy name case-insensitively. Unknown names return
// a *errors.StrategyError with the closest known name as a suggestion.
func ParseName(name string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i, n := range Names {
		if n == normalized {
			return Kind(i), nil
		}
	}
	return Sequential, chierrors.NewStrategyError(name, ClosestName(normalized, Names))
}

// FromCode converts a metadata strategy code.
func FromCode(code int) (Kind, error) {
	k := Kind(code)
	if !k.Valid() {
		return Sequential, fmt.Errorf("invalid strategy code %d (expected 0=sequential, 1=swapped, 2=feedback)", code)
	}
	return k, nil
}

// ClosestName returns the candidate nearest to input by Levenshtein distance,
// or "" when nothing is close enough to be a plausible typo.
func ClosestName(input string, candidates []string) string {
	if input == "" {
		return ""
	}

	best := ""
	bestDistance := 1000
	for _, c := range candidates {
		d := edlib.LevenshteinDistance(strings.ToLower(input), strings.ToLower(c))
		if d < bestDistance {
			bestDistance = d
			best = c
		}
	}

	limit := len(best) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDistance > limit {
		return ""
	}
	return best
}

// ParseSeed parses a 64-bit seed given as decimal or 0x-prefixed hex.
// Values above MaxInt64 are accepted and reinterpreted as signed.
func ParseSeed(s string) (int64, error) {
	return parseInt64(s, true)
}

// ParsePhase parses a 64-bit phase given as decimal or 0x-prefixed hex.
// Decimal input must fit a signed 64-bit integer; hex input is reinterpreted.
func ParsePhase(s string) (int64, error) {
	return parseInt64(s, false)
}

func parseInt64(s string, allowUnsignedDecimal bool) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty value")
	}

	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		digits := trimmed[2:]
		if digits == "" || len(digits) > 16 {
			return 0, fmt.Errorf("hex value %q must have 1 to 16 digits after 0x", trimmed)
		}
		v, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hex value %q", trimmed)
		}
		return int64(v), nil
	}

	if v, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return v, nil
	}
	if allowUnsignedDecimal {
		if v, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
			return int64(v), nil
		}
	}
	return 0, fmt.Errorf("invalid decimal value %q", trimmed)
}

// MarshalText renders the strategy by name in JSON reports.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid strategy %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts a strategy name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
