package editor

const wordSize = 64

// bitset is a growable set of tile indices. Zero value is an empty set.
type bitset struct {
	words []uint64
}

// set sets the bit at index i.
func (b *bitset) set(i uint) {
	w := int(i / wordSize)
	if w >= len(b.words) {
		b.words = append(b.words, make([]uint64, w-len(b.words)+1)...)
	}
	b.words[w] |= 1 << (i % wordSize)
}

// reset clears all bits.
func (b *bitset) reset() {
	clear(b.words)
}

func (b *bitset) empty() bool {
	for _, w := range b.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// indices returns the set bits, in increasing order.
func (b *bitset) indices() []int {
	var idx []int
	for wi, w := range b.words {
		for bit := 0; w != 0; bit++ {
			if w&1 != 0 {
				idx = append(idx, wi*wordSize+bit)
			}
			w >>= 1
		}
	}
	return idx
}
