// Package bitmap is a fixed-size bit set over row indices, used to mark rows
// a transform must keep or skip.
package bitmap

import "math/bits"

// Bitmap holds one bit per row in [0, Len()).
type Bitmap struct {
	words []uint64
	n     int
}

// New returns an empty bitmap for n rows. n <= 0 gives an empty set that
// ignores every Set.
func New(n int) *Bitmap {
	if n < 0 {
		n = 0
	}
	return &Bitmap{words: make([]uint64, (n+63)/64), n: n}
}

// Len is the number of addressable rows.
func (b *Bitmap) Len() int { return b.n }

// Set marks row i. Out-of-range rows are ignored.
func (b *Bitmap) Set(i int) {
	if i < 0 || i >= b.n {
		return
	}
	b.words[i/64] |= 1 << uint(i%64)
}

// Has reports whether row i is marked.
func (b *Bitmap) Has(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}
	return b.words[i/64]&(1<<uint(i%64)) != 0
}

// Count returns the number of marked rows.
func (b *Bitmap) Count() int {
	c := 0
	for _, w := range b.words {
		c += bits.OnesCount64(w)
	}
	return c
}
