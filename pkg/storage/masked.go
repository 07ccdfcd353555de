package storage

import "github.com/loom-engine/loom/pkg/bitset"

// MaskedStorage pairs a Backend with the bitset that records which indices
// currently hold a value. It is what World registers one of per component
// type; Storage is the safe facade built on top of it.
type MaskedStorage[T any] struct {
	Mask    *bitset.BitSet
	Backend Backend[T]
}

// NewMaskedStorage wraps backend with a fresh, empty mask.
func NewMaskedStorage[T any](backend Backend[T]) *MaskedStorage[T] {
	return &MaskedStorage[T]{Mask: bitset.New(), Backend: backend}
}

// Get returns the value at id, or ok=false if id is absent.
func (m *MaskedStorage[T]) Get(id Index) (*T, bool) {
	if !m.Mask.Contains(id) {
		return nil, false
	}
	return m.Backend.Get(id), true
}

// Insert stores v at id, overwriting any previous value, and returns the
// previous value if there was one.
func (m *MaskedStorage[T]) Insert(id Index, v T) (old *T, hadOld bool) {
	if m.Mask.Contains(id) {
		prev := *m.Backend.Get(id)
		m.Backend.Insert(id, v)
		return &prev, true
	}
	m.Mask.Add(id)
	m.Backend.Insert(id, v)
	return nil, false
}

// Remove deletes the value at id, if present.
func (m *MaskedStorage[T]) Remove(id Index) (T, bool) {
	var zero T
	if !m.Mask.Remove(id) {
		return zero, false
	}
	return m.Backend.Remove(id), true
}

// Clear drops every stored value and empties the mask. Mirrors the
// teacher's component-dropping-on-clear semantics: the backend is asked to
// clean precisely the indices the mask still reports as present before the
// mask itself is reset.
func (m *MaskedStorage[T]) Clear() {
	mask := m.Mask
	m.Backend.Clean(func(id Index) bool { return mask.Contains(id) })
	m.Mask.Clear()
}

// Layer3, Layer2, Layer1 and Layer0 delegate to the mask so a
// *MaskedStorage satisfies bitset.Like directly.
func (m *MaskedStorage[T]) Layer3() uint64       { return m.Mask.Layer3() }
func (m *MaskedStorage[T]) Layer2(i int) uint64  { return m.Mask.Layer2(i) }
func (m *MaskedStorage[T]) Layer1(i int) uint64  { return m.Mask.Layer1(i) }
func (m *MaskedStorage[T]) Layer0(i int) uint64  { return m.Mask.Layer0(i) }
