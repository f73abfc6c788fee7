// Package chi32 implements CHI32 (Cascading Hash Interleave, 32-bit), a
// stateless, deterministic pseudo-random value generator keyed by a selector
// and an index.
//
// Every function in this package is a pure function of its arguments. All
// arithmetic is performed on unsigned words so overflow wraps silently; signed
// parameters and results are bit reinterpretations of those words.
package chi32

import "math/bits"

// HashMixer constants
const (
	mixPrime1 uint32 = 0x8addb2d1
	mixPrime2 uint32 = 0x8c723b45
	mixPrime3 uint32 = 0xfd923173
	mixPrime4 uint32 = 0x89a6aa0b
	mixPrime5 uint32 = 0x1f844cb7
	mixPrime6 uint32 = 0xfd2c1e9d

	mixShift1 = 15
	mixShift2 = 7
	mixShift3 = 29
	mixShift4 = 16
)

// CascadeInterleave constants
const (
	goldenRatioPrimeMultiplier uint64 = 0x9E3779B97F4A7C55
	finalStepPrimeMultiplier   uint64 = 0x72A4EB92D796ED93

	interleaveBitOffset = 16
	wrapAroundBitOffset = interleaveBitOffset * 3
)

// DeriveValueAt returns the 32-bit value at position index of the stream
// identified by selector. It is total over all int64 pairs.
func DeriveValueAt(selector, index int64) int32 {
	state := uint64(ApplyCascadingHashInterleave(selector, index))
	return int32(uint32(bits.RotateLeft64(state, ExtractOffset(state))))
}

// DeriveUint32At is DeriveValueAt with the result read as unsigned, which is
// how every consumer of the stream interprets it.
func DeriveUint32At(selector, index int64) uint32 {
	return uint32(DeriveValueAt(selector, index))
}

// ExtractOffset folds three overlapping windows of the combined state into a
// rotation amount in [0, 63].
func ExtractOffset(state uint64) int {
	low := uint32(state)
	mid := uint32(state >> 29)
	high := uint32(state >> 58)
	return int((low ^ mid ^ high) & 0x3F)
}

// ApplyCascadingHashInterleave couples selector and index into two pointers,
// then folds their 32-bit lanes through four UpdateHashValue rounds with
// 16-bit interleaving into a 64-bit state.
func ApplyCascadingHashInterleave(selector, index int64) int64 {
	primaryAnchor := uint64(selector)
	alternateAnchor := ^uint64(selector) * goldenRatioPrimeMultiplier
	anchorCouplingMask := primaryAnchor & alternateAnchor

	primaryOffset := uint64(index)
	alternateOffset := ^uint64(index) ^ anchorCouplingMask

	primaryPointer := primaryAnchor + primaryOffset
	alternatePointer := alternateAnchor - alternateOffset

	primaryLow := int32(uint32(primaryPointer))
	primaryHigh := int32(uint32(primaryPointer >> 32))
	alternateLow := int32(uint32(alternatePointer))
	alternateHigh := int32(uint32(alternatePointer >> 32))

	// The mixer only ever sees the low 32 bits of the accumulator.
	acc := uint64(uint32(UpdateHashValue(0, alternateLow)))
	acc = uint64(uint32(UpdateHashValue(int32(uint32(acc)), alternateHigh))) ^
		(acc << interleaveBitOffset)
	acc = uint64(uint32(UpdateHashValue(int32(uint32(acc)), primaryHigh))) ^
		(acc << interleaveBitOffset)
	acc = uint64(uint32(UpdateHashValue(int32(uint32(acc)), primaryLow))) ^
		(acc << interleaveBitOffset) ^
		(acc >> wrapAroundBitOffset)

	return int64(acc * finalStepPrimeMultiplier)
}

// UpdateHashValue runs one avalanche round mixing value into previousHash.
// Start a fresh chain with previousHash = 0.
func UpdateHashValue(previousHash, value int32) int32 {
	hash := uint32(previousHash)

	hash ^= mixPrime1
	hash += mixPrime2 ^ bits.RotateLeft32(uint32(value), int(hash&31))
	hash *= mixPrime3

	hash ^= hash >> mixShift1
	hash *= mixPrime4

	hash ^= hash >> mixShift2
	hash += hash >> mixShift3
	hash *= mixPrime5

	hash ^= hash >> mixShift4
	hash *= mixPrime6

	return int32(hash)
}
