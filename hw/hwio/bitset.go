package hwio

import "math/bits"

// Bitset is a fixed-size set of bits, used to track dirty cells and lines.
type Bitset struct {
	n    uint
	bits []uint64
}

func NewBitset(n int) *Bitset {
	return &Bitset{n: uint(n), bits: make([]uint64, (n+63)/64)}
}

func (b *Bitset) Len() int { return int(b.n) }

func (b *Bitset) Set(i uint) {
	b.bits[i/64] |= 1 << (i % 64)
}

func (b *Bitset) Clear(i uint) {
	b.bits[i/64] &^= 1 << (i % 64)
}

func (b *Bitset) Test(i uint) bool {
	return b.bits[i/64]&(1<<(i%64)) != 0
}

func (b *Bitset) Reset() {
	clear(b.bits)
}

func (b *Bitset) SetAll() {
	for i := range b.bits {
		b.bits[i] = ^uint64(0)
	}
	b.trim()
}

// trim clears the unused bits of the last word.
func (b *Bitset) trim() {
	if r := b.n % 64; r != 0 {
		b.bits[len(b.bits)-1] &= (1 << r) - 1
	}
}

// SetRange sets bits in [start, end).
func (b *Bitset) SetRange(start, end uint) {
	b.forRange(start, end, func(w *uint64, m uint64) { *w |= m })
}

// ClearRange clears bits in [start, end).
func (b *Bitset) ClearRange(start, end uint) {
	b.forRange(start, end, func(w *uint64, m uint64) { *w &^= m })
}

func (b *Bitset) forRange(start, end uint, op func(w *uint64, m uint64)) {
	if end > b.n {
		end = b.n
	}
	for start < end {
		wi := start / 64
		lo := start % 64
		hi := uint(64)
		if (wi+1)*64 > end {
			hi = end - wi*64
		}
		m := ^uint64(0) << lo
		if hi < 64 {
			m &= (1 << hi) - 1
		}
		op(&b.bits[wi], m)
		start = (wi + 1) * 64
	}
}

func (b *Bitset) Count() int {
	n := 0
	for _, w := range b.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

func (b *Bitset) Any() bool {
	for _, w := range b.bits {
		if w != 0 {
			return true
		}
	}
	return false
}

// NextSet returns the index of the first set bit at or after i, or -1.
func (b *Bitset) NextSet(i uint) int {
	if i >= b.n {
		return -1
	}
	wi := i / 64
	w := b.bits[wi] >> (i % 64)
	if w != 0 {
		return int(i) + bits.TrailingZeros64(w)
	}
	for wi++; wi < uint(len(b.bits)); wi++ {
		if b.bits[wi] != 0 {
			return int(wi*64) + bits.TrailingZeros64(b.bits[wi])
		}
	}
	return -1
}

// Words returns the underlying words, for snapshotting.
func (b *Bitset) Words() []uint64 { return b.bits }

func (b *Bitset) SetWords(w []uint64) {
	copy(b.bits, w)
	b.trim()
}
