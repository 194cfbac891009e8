package searcher

// VisitedSet tracks visited ids using a bitset and a dirty list for fast reset.
type VisitedSet struct {
	bits  []uint64
	dirty []int
}

// NewVisitedSet creates a new visited set.
func NewVisitedSet(capacity int) *VisitedSet {
	return &VisitedSet{
		bits:  make([]uint64, (capacity+63)/64),
		dirty: make([]int, 0, 128),
	}
}

// Visit marks id as visited and reports whether it was new.
func (v *VisitedSet) Visit(id int) bool {
	wordIdx := id >> 6
	bitMask := uint64(1) << (uint(id) & 63)

	if wordIdx >= len(v.bits) {
		v.grow(wordIdx + 1)
	}
	if v.bits[wordIdx]&bitMask != 0 {
		return false
	}
	v.bits[wordIdx] |= bitMask
	v.dirty = append(v.dirty, id)
	return true
}

// Visited reports whether id has been visited.
func (v *VisitedSet) Visited(id int) bool {
	wordIdx := id >> 6
	if wordIdx >= len(v.bits) {
		return false
	}
	return v.bits[wordIdx]&(uint64(1)<<(uint(id)&63)) != 0
}

// Len returns the number of visited ids.
func (v *VisitedSet) Len() int { return len(v.dirty) }

// Reset clears the ids visited since the last reset.
func (v *VisitedSet) Reset() {
	for _, id := range v.dirty {
		v.bits[id>>6] &^= uint64(1) << (uint(id) & 63)
	}
	v.dirty = v.dirty[:0]
}

func (v *VisitedSet) grow(newLen int) {
	newBits := make([]uint64, max(len(v.bits)*2, newLen))
	copy(newBits, v.bits)
	v.bits = newBits
}
