// Package bitset is a growable set of small non-negative integers.
package bitset

import "math/bits"

// BitSet stores one bit per index in 64-bit blocks.
type BitSet struct {
	blocks []uint64
}

// New returns a set able to hold bitCapacity bits without growing.
func New(bitCapacity int) BitSet {
	return BitSet{blocks: make([]uint64, blockCount(bitCapacity))}
}

func blockCount(bitCount int) int {
	return (bitCount + 63) / 64
}

// Set turns bit i on, growing the set when needed.
func (b *BitSet) Set(i int) {
	block := i / 64
	if block >= len(b.blocks) {
		b.Grow(i + 1)
	}
	b.blocks[block] |= 1 << uint(i%64)
}

// Clear turns bit i off.
func (b *BitSet) Clear(i int) {
	block := i / 64
	if block >= len(b.blocks) {
		return
	}
	b.blocks[block] &^= 1 << uint(i%64)
}

// Get reports whether bit i is on.
func (b *BitSet) Get(i int) bool {
	block := i / 64
	if block >= len(b.blocks) {
		return false
	}
	return b.blocks[block]&(1<<uint(i%64)) != 0
}

// Grow makes room for bitCount bits, keeping existing bits.
func (b *BitSet) Grow(bitCount int) {
	n := blockCount(bitCount)
	if n <= len(b.blocks) {
		return
	}
	if n <= cap(b.blocks) {
		old := len(b.blocks)
		b.blocks = b.blocks[:n]
		clear(b.blocks[old:])
		return
	}
	blocks := make([]uint64, n, 2*n)
	copy(blocks, b.blocks)
	b.blocks = blocks
}

// SetBitCountAndClear resizes the set to bitCount bits, all off.
func (b *BitSet) SetBitCountAndClear(bitCount int) {
	n := blockCount(bitCount)
	if n > cap(b.blocks) {
		b.blocks = make([]uint64, n)
		return
	}
	b.blocks = b.blocks[:n]
	clear(b.blocks)
}

// InPlaceUnion ors other into b.
func (b *BitSet) InPlaceUnion(other *BitSet) {
	if len(other.blocks) > len(b.blocks) {
		b.Grow(64 * len(other.blocks))
	}
	for i, w := range other.blocks {
		b.blocks[i] |= w
	}
}

// Count is the number of bits turned on.
func (b *BitSet) Count() int {
	n := 0
	for _, w := range b.blocks {
		n += bits.OnesCount64(w)
	}
	return n
}

// ForEach calls fn with every index turned on, in increasing order.
func (b *BitSet) ForEach(fn func(i int)) {
	for k, w := range b.blocks {
		for w != 0 {
			ctz := bits.TrailingZeros64(w)
			fn(64*k + ctz)
			w &= w - 1
		}
	}
}
