// Package pairset tracks unordered pairs of non-negative ids.
package pairset

// Key packs a pair so that Key(a, b) == Key(b, a).
func Key(a, b int) uint64 {
	if a < b {
		return uint64(a)<<32 | uint64(uint32(b))
	}
	return uint64(b)<<32 | uint64(uint32(a))
}

// Unpack returns the smaller and the larger id of key.
func Unpack(key uint64) (int, int) {
	return int(key >> 32), int(uint32(key))
}

// Set is a set of pair keys.
type Set struct {
	items map[uint64]struct{}
}

// New returns a set sized for capacity keys.
func New(capacity int) *Set {
	return &Set{items: make(map[uint64]struct{}, capacity)}
}

// Add inserts key and reports whether it was already present.
func (s *Set) Add(key uint64) bool {
	if _, ok := s.items[key]; ok {
		return true
	}
	s.items[key] = struct{}{}
	return false
}

// Remove deletes key and reports whether it was present.
func (s *Set) Remove(key uint64) bool {
	if _, ok := s.items[key]; !ok {
		return false
	}
	delete(s.items, key)
	return true
}

// Contains reports whether key is present.
func (s *Set) Contains(key uint64) bool {
	_, ok := s.items[key]
	return ok
}

// Count is the number of keys.
func (s *Set) Count() int {
	return len(s.items)
}

// Clear removes every key.
func (s *Set) Clear() {
	clear(s.items)
}
