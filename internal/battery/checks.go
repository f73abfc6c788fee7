package battery

import (
	"context"
	"math"
	"math/bits"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

// cancelCheckInterval is how many draws pass between context checks
const cancelCheckInterval = 1 << 16

// birthdayDays is the number of distinct 24-bit birthdays
const birthdayDays = 1 << 24

func draw(ctx context.Context, gen Generator, n int, visit func(i int, v uint32)) error {
	for i := 0; i < n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		visit(i, gen.Next())
	}
	return nil
}

// chiSquare returns the Pearson statistic of observed against a uniform expectation
func chiSquare(observed []float64, expected []float64) float64 {
	var sum float64
	for i, o := range observed {
		d := o - expected[i]
		sum += d * d / expected[i]
	}
	return sum
}

// Monobit counts one bits over all samples. The statistic is the normal
// deviate of the count from half the bits.
func Monobit(ctx context.Context, gen Generator, samples int) (float64, float64, error) {
	var ones uint64
	err := draw(ctx, gen, samples, func(_ int, v uint32) {
		ones += uint64(bits.OnesCount32(v))
	})
	if err != nil {
		return 0, 0, err
	}

	total := float64(samples) * 32
	z := (float64(ones) - total/2) / math.Sqrt(total/4)
	return z, distuv.UnitNormal.Survival(z), nil
}

// ByteFrequency is a chi-square test over the 256 byte values, four bytes per sample.
func ByteFrequency(ctx context.Context, gen Generator, samples int) (float64, float64, error) {
	counts := make([]float64, 256)
	err := draw(ctx, gen, samples, func(_ int, v uint32) {
		counts[v&0xFF]++
		counts[(v>>8)&0xFF]++
		counts[(v>>16)&0xFF]++
		counts[v>>24]++
	})
	if err != nil {
		return 0, 0, err
	}

	expected := make([]float64, 256)
	for i := range expected {
		expected[i] = float64(samples) * 4 / 256
	}
	stat := chiSquare(counts, expected)
	return stat, distuv.ChiSquared{K: 255}.Survival(stat), nil
}

// Runs counts maximal runs of equal bits across the whole bit stream, least
// significant bit of each sample first.
func Runs(ctx context.Context, gen Generator, samples int) (float64, float64, error) {
	var ones, transitions uint64
	var prev uint32
	err := draw(ctx, gen, samples, func(i int, v uint32) {
		ones += uint64(bits.OnesCount32(v))
		transitions += uint64(bits.OnesCount32((v ^ (v >> 1)) & 0x7FFFFFFF))
		if i > 0 {
			transitions += uint64((prev >> 31) ^ (v & 1))
		}
		prev = v
	})
	if err != nil {
		return 0, 0, err
	}

	n := float64(samples) * 32
	pi := float64(ones) / n
	spread := pi * (1 - pi)
	if spread == 0 {
		return 0, 0, nil
	}

	// The run count has mean 2n*pi*(1-pi) and standard deviation 2*sqrt(n)*pi*(1-pi)
	runs := float64(transitions + 1)
	z := (runs - 2*n*spread) / (2 * math.Sqrt(n) * spread)
	return z, distuv.UnitNormal.Survival(z), nil
}

// SerialPairs builds a chi-square test over non-overlapping pairs of samples,
// each reduced to its top width bits.
func SerialPairs(width uint) TestFunc {
	return func(ctx context.Context, gen Generator, samples int) (float64, float64, error) {
		cells := 1 << (2 * width)
		counts := make([]float64, cells)
		var first uint32
		err := draw(ctx, gen, samples, func(i int, v uint32) {
			top := v >> (32 - width)
			if i%2 == 0 {
				first = top
				return
			}
			counts[first<<width|top]++
		})
		if err != nil {
			return 0, 0, err
		}

		expected := make([]float64, cells)
		for i := range expected {
			expected[i] = float64(samples/2) / float64(cells)
		}
		stat := chiSquare(counts, expected)
		return stat, distuv.ChiSquared{K: float64(cells - 1)}.Survival(stat), nil
	}
}

// Gap builds a gap test. A sample hits when its top r bits are all zero; the
// run lengths between hits are binned as 0..limit-1 and limit-or-longer.
func Gap(r uint, limit int) TestFunc {
	return func(ctx context.Context, gen Generator, samples int) (float64, float64, error) {
		counts := make([]float64, limit+1)
		gap := 0
		err := draw(ctx, gen, samples, func(_ int, v uint32) {
			if v>>(32-r) != 0 {
				gap++
				return
			}
			counts[min(gap, limit)]++
			gap = 0
		})
		if err != nil {
			return 0, 0, err
		}

		var gaps float64
		for _, c := range counts {
			gaps += c
		}
		if gaps == 0 {
			return 0, 0, nil
		}

		p := math.Ldexp(1, -int(r))
		expected := make([]float64, limit+1)
		for k := 0; k < limit; k++ {
			expected[k] = gaps * p * math.Pow(1-p, float64(k))
		}
		expected[limit] = gaps * math.Pow(1-p, float64(limit))

		stat := chiSquare(counts, expected)
		return stat, distuv.ChiSquared{K: float64(limit)}.Survival(stat), nil
	}
}

// BirthdaySpacings builds a birthday spacings test: each round takes m
// 24-bit birthdays, sorts them, and counts repeated spacings. The total is
// approximately Poisson with mean rounds*m^3/(4*2^24).
func BirthdaySpacings(m int) TestFunc {
	return func(ctx context.Context, gen Generator, samples int) (float64, float64, error) {
		rounds := samples / m
		birthdays := make([]uint32, m)
		spacings := make([]uint32, m)
		collisions := 0

		for round := 0; round < rounds; round++ {
			err := draw(ctx, gen, m, func(i int, v uint32) {
				birthdays[i] = v >> 8
			})
			if err != nil {
				return 0, 0, err
			}

			slices.Sort(birthdays)
			spacings[0] = birthdays[0]
			for j := 1; j < m; j++ {
				spacings[j] = birthdays[j] - birthdays[j-1]
			}
			slices.Sort(spacings)
			for j := 1; j < m; j++ {
				if spacings[j] == spacings[j-1] {
					collisions++
				}
			}
		}

		mf := float64(m)
		lambda := float64(rounds) * mf * mf * mf / (4 * birthdayDays)
		// P(X >= collisions)
		p := distuv.Poisson{Lambda: lambda}.Survival(float64(collisions) - 1)
		return float64(collisions), p, nil
	}
}
