package maps

import (
	"encoding/binary"
	"hash/fnv"
)

// defaultLoadFactor is the fraction of FaceMap.cap that triggers a rehash
// before the next insert, matching the original face-key map's threshold
// exactly. NewFaceMap uses it; NewFaceMapWithLoadFactor overrides it.
const defaultLoadFactor = 0.75

// FaceKey is a canonicalized triangle: three globalized vertex indices in
// ascending order, so the same triangle reached from either adjacent cell
// hashes identically.
type FaceKey [3]uint32

// Canonical returns the ascending-sorted form of a triangle's three vertex
// indices, the form every FaceMap lookup and insert uses.
func Canonical(a, b, c uint32) FaceKey {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return FaceKey{a, b, c}
}

// FaceMap counts how many cells share each canonical triangle face. A count
// of exactly one after all cells have been visited marks a boundary
// (shell) face. Counts saturate at 255 rather than wrapping, since no
// downstream consumer needs more than "more than one" distinguished from
// "exactly one".
type FaceMap struct {
	keys       []FaceKey
	values     []uint8 // 0 is the empty sentinel; a real count is never 0
	cap        int
	len        int
	loadFactor float64
}

// NewFaceMap returns a FaceMap with cap slots, using the default 0.75 load
// factor: it first rehashes once 0.75*cap distinct keys are stored.
func NewFaceMap(cap int) *FaceMap {
	return NewFaceMapWithLoadFactor(cap, defaultLoadFactor)
}

// NewFaceMapWithLoadFactor is NewFaceMap with an overridden rehash
// threshold, driven by Config.FaceMapLoadFactor.
func NewFaceMapWithLoadFactor(cap int, loadFactor float64) *FaceMap {
	if cap < 1 {
		cap = 1
	}
	if loadFactor <= 0 || loadFactor > 1 {
		loadFactor = defaultLoadFactor
	}
	return &FaceMap{
		keys:       make([]FaceKey, cap),
		values:     make([]uint8, cap),
		cap:        cap,
		loadFactor: loadFactor,
	}
}

func hashFaceKey(k FaceKey) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], k[0])
	binary.LittleEndian.PutUint32(buf[4:8], k[1])
	binary.LittleEndian.PutUint32(buf[8:12], k[2])
	h := fnv.New64a()
	h.Write(buf[:])
	return h.Sum64()
}

// Increment records one more occurrence of key, inserting it with count 1
// if it isn't already present. It rehashes to double capacity first if the
// load factor would otherwise be exceeded, exactly as the original
// face-key map does before every insert.
func (m *FaceMap) Increment(key FaceKey) {
	if float64(m.len)/float64(m.cap) >= m.loadFactor {
		m.rehash(m.cap * 2)
	}

	index := int(hashFaceKey(key) % uint64(m.cap))
	for m.values[index] != 0 {
		if m.keys[index] == key {
			if m.values[index] < 255 {
				m.values[index]++
			}
			return
		}
		index = (index + 1) % m.cap
	}
	m.keys[index] = key
	m.values[index] = 1
	m.len++
}

// Count returns the recorded occurrence count for key, or 0 if key was
// never inserted.
func (m *FaceMap) Count(key FaceKey) uint8 {
	index := int(hashFaceKey(key) % uint64(m.cap))
	for m.values[index] != 0 {
		if m.keys[index] == key {
			return m.values[index]
		}
		index = (index + 1) % m.cap
	}
	return 0
}

// Len returns the number of distinct keys recorded.
func (m *FaceMap) Len() int { return m.len }

// Each calls fn once per recorded key/count pair. Iteration order is not
// specified.
func (m *FaceMap) Each(fn func(key FaceKey, count uint8)) {
	for i, v := range m.values {
		if v != 0 {
			fn(m.keys[i], v)
		}
	}
}

func (m *FaceMap) rehash(newCap int) {
	oldKeys, oldValues, oldCap := m.keys, m.values, m.cap

	m.keys = make([]FaceKey, newCap)
	m.values = make([]uint8, newCap)
	m.cap = newCap
	m.len = 0

	for i := 0; i < oldCap; i++ {
		if oldValues[i] != 0 {
			m.insertRaw(oldKeys[i], oldValues[i])
		}
	}
}

// insertRaw inserts a key/value pair during rehash without re-checking the
// load factor (capacity was already sized by the caller).
func (m *FaceMap) insertRaw(key FaceKey, value uint8) {
	index := int(hashFaceKey(key) % uint64(m.cap))
	for m.values[index] != 0 {
		index = (index + 1) % m.cap
	}
	m.keys[index] = key
	m.values[index] = value
	m.len++
}

// NextPowerOfTwo returns the smallest power of two >= n, the sizing rule
// the shell extractor uses to pick a FaceMap's initial capacity from an
// expected triangle count.
func NextPowerOfTwo(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
