package chi32

import (
	"math"
	"math/big"
	"math/bits"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference values cross-checked against the C reference header.
var goldenValues = []struct {
	selector int64
	index    int64
	state    uint64
	value    uint32
}{
	{0, 0, 0xa2ddda9caca96e84, 0x52dd0945},
	{1, 0, 0x74df268f5bc66818, 0xade3340c},
	{0, 1, 0xb7b62d1d930d0b1e, 0x5bdb168e},
	{-1, -1, 0x92b3632c46578a7a, 0xc46578a7},
	{42, 2147450880, 0xe97bdf7f1f99db58, 0x63a5ef7d},
	{-42, 32767, 0xdc2777ba5d679a4f, 0x9ddee975},
	{math.MinInt64, math.MaxInt64, 0x655583999bff0776, 0x2aac1ccc},
	{math.MaxInt64, math.MinInt64, 0x5cc4ba7361821e9a, 0xa697312e},
	{0x6A09E667F3BCC908, 0, 0x92c779e4e12b2813, 0x281392c7},
	{123456789, -987654321, 0x80f45ebee67c8683, 0x68380f45},
}

func TestDeriveValueAt_Golden(t *testing.T) {
	for _, tc := range goldenValues {
		assert.Equal(t, tc.state, uint64(ApplyCascadingHashInterleave(tc.selector, tc.index)),
			"combined state for (%d, %d)", tc.selector, tc.index)
		assert.Equal(t, tc.value, DeriveUint32At(tc.selector, tc.index),
			"value for (%d, %d)", tc.selector, tc.index)
		assert.Equal(t, int32(tc.value), DeriveValueAt(tc.selector, tc.index))
	}
}

func TestUpdateHashValue_Golden(t *testing.T) {
	tests := []struct {
		previous uint32
		value    uint32
		expected uint32
	}{
		{0, 0, 0x0900052d},
		{0, 1, 0xd3777aee},
		{0xffffffff, 0xffffffff, 0xbdb8bbb2},
		{0x12345678, 0x9abcdef0, 0x9a0a7276},
	}

	for _, tc := range tests {
		got := UpdateHashValue(int32(tc.previous), int32(tc.value))
		assert.Equal(t, tc.expected, uint32(got))
	}
}

func TestDeriveValueAt_Deterministic(t *testing.T) {
	for i := int64(-500); i < 500; i++ {
		first := DeriveValueAt(i*7919, i)
		second := DeriveValueAt(i*7919, i)
		require.Equal(t, first, second)
	}
}

func TestDeriveValueAt_Totality(t *testing.T) {
	extremes := []int64{math.MinInt64, math.MinInt64 + 1, -1, 0, 1, math.MaxInt64 - 1, math.MaxInt64}
	for _, s := range extremes {
		for _, i := range extremes {
			assert.NotPanics(t, func() { DeriveValueAt(s, i) })
		}
	}
}

func TestDeriveValueAt_SelectorsDiffer(t *testing.T) {
	assert.NotEqual(t, DeriveValueAt(0, 0), DeriveValueAt(1, 0))
}

func TestDeriveValueAt_ArgumentSensitivity(t *testing.T) {
	const samples = 20000
	var sameIndexStep, sameSelectorStep int
	for i := int64(0); i < samples; i++ {
		if DeriveValueAt(i, 1000) == DeriveValueAt(i+1, 1000) {
			sameIndexStep++
		}
		if DeriveValueAt(1000, i) == DeriveValueAt(1000, i+1) {
			sameSelectorStep++
		}
	}
	// Expected collisions for a uniform 32-bit output is ~0.
	assert.LessOrEqual(t, sameIndexStep, 1)
	assert.LessOrEqual(t, sameSelectorStep, 1)
}

func TestDeriveValueAt_SequentialScenario(t *testing.T) {
	const seed, phase = int64(42), int64(2147450880)
	expected := []uint32{0x63a5ef7d, 0x773b4d48, 0x1fc3b53c, 0x75b6dafd, 0x794c7825, 0xd5f1eff2}
	for i, want := range expected {
		assert.Equal(t, want, DeriveUint32At(seed, phase+int64(i)), "position %d", i)
	}
}

func TestExtractOffset_Bounded(t *testing.T) {
	states := []uint64{0, 1, math.MaxUint64, 1 << 63, 0x8000000080000000, 0xFFFFFFFF00000000}
	for i := int64(0); i < 4096; i++ {
		states = append(states, uint64(ApplyCascadingHashInterleave(i, -i)))
	}
	for _, s := range states {
		off := ExtractOffset(s)
		assert.GreaterOrEqual(t, off, 0)
		assert.LessOrEqual(t, off, 63)
	}
	// All ones: low ^ mid ^ high = 0xFFFFFFFF ^ 0xFFFFFFFF ^ 0x3F
	assert.Equal(t, 0x3F, ExtractOffset(math.MaxUint64))
	// The sign bit only lands in the high window, as bit 5.
	assert.Equal(t, 32, ExtractOffset(1<<63))
}

func TestUpdateHashValue_WrapsOnOverflow(t *testing.T) {
	mod32 := new(big.Int).Lsh(big.NewInt(1), 32)
	wrap := func(v *big.Int) uint32 { return uint32(new(big.Int).Mod(v, mod32).Uint64()) }
	mul := func(a, b uint32) uint32 {
		return wrap(new(big.Int).Mul(new(big.Int).SetUint64(uint64(a)), new(big.Int).SetUint64(uint64(b))))
	}
	add := func(a, b uint32) uint32 {
		return wrap(new(big.Int).Add(new(big.Int).SetUint64(uint64(a)), new(big.Int).SetUint64(uint64(b))))
	}

	reference := func(previous, value uint32) uint32 {
		h := previous ^ mixPrime1
		h = add(h, mixPrime2^bits.RotateLeft32(value, int(h&31)))
		h = mul(h, mixPrime3)
		h ^= h >> 15
		h = mul(h, mixPrime4)
		h ^= h >> 7
		h = add(h, h>>29)
		h = mul(h, mixPrime5)
		h ^= h >> 16
		return mul(h, mixPrime6)
	}

	inputs := []uint32{0, 1, 0x7fffffff, 0x80000000, 0xfffffffe, 0xffffffff, 0xdeadbeef}
	for _, p := range inputs {
		for _, v := range inputs {
			assert.Equal(t, reference(p, v), uint32(UpdateHashValue(int32(p), int32(v))))
		}
	}
}

func TestApplyCascadingHashInterleave_WrapsOnOverflow(t *testing.T) {
	mod64 := new(big.Int).Lsh(big.NewInt(1), 64)
	wrap := func(v *big.Int) uint64 { return new(big.Int).Mod(v, mod64).Uint64() }
	u := func(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

	for _, selector := range []int64{math.MaxInt64, math.MinInt64, -1} {
		for _, index := range []int64{math.MaxInt64, math.MinInt64, -1} {
			pa := uint64(selector)
			aa := wrap(new(big.Int).Mul(u(^pa), u(goldenRatioPrimeMultiplier)))
			ao := ^uint64(index) ^ (pa & aa)
			pp := wrap(new(big.Int).Add(u(pa), u(uint64(index))))
			ap := wrap(new(big.Int).Sub(u(aa), u(ao)))

			acc := uint64(uint32(UpdateHashValue(0, int32(uint32(ap)))))
			acc = uint64(uint32(UpdateHashValue(int32(uint32(acc)), int32(uint32(ap>>32))))) ^ wrap(new(big.Int).Lsh(u(acc), 16))
			acc = uint64(uint32(UpdateHashValue(int32(uint32(acc)), int32(uint32(pp>>32))))) ^ wrap(new(big.Int).Lsh(u(acc), 16))
			acc = uint64(uint32(UpdateHashValue(int32(uint32(acc)), int32(uint32(pp))))) ^ wrap(new(big.Int).Lsh(u(acc), 16)) ^ (acc >> 48)
			want := wrap(new(big.Int).Mul(u(acc), u(finalStepPrimeMultiplier)))

			assert.Equal(t, want, uint64(ApplyCascadingHashInterleave(selector, index)))
		}
	}
}

func TestDeriveValueAt_ConcurrentCallsAgree(t *testing.T) {
	const workers = 8
	expected := make([]int32, 256)
	for i := range expected {
		expected[i] = DeriveValueAt(int64(i), int64(-i))
	}

	var wg sync.WaitGroup
	errs := make(chan int, workers*len(expected))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range expected {
				if DeriveValueAt(int64(i), int64(-i)) != expected[i] {
					errs <- i
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	assert.Empty(t, errs)
}

func BenchmarkDeriveValueAt(b *testing.B) {
	var sink int32
	for i := 0; i < b.N; i++ {
		sink ^= DeriveValueAt(42, int64(i))
	}
	_ = sink
}

func BenchmarkUpdateHashValue(b *testing.B) {
	var h int32
	for i := 0; i < b.N; i++ {
		h = UpdateHashValue(h, int32(i))
	}
	_ = h
}
