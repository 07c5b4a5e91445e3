package pairset

import "testing"

func TestKey(t *testing.T) {
	if Key(3, 7) != Key(7, 3) {
		t.Errorf("Expected key to ignore order")
	}
	if Key(3, 7) == Key(3, 8) {
		t.Errorf("Expected distinct pairs to have distinct keys")
	}
	a, b := Unpack(Key(9, 2))
	if a != 2 || b != 9 {
		t.Errorf("Expected (2, 9), got (%d, %d)", a, b)
	}
}

func TestSet(t *testing.T) {
	s := New(4)
	if s.Add(Key(1, 2)) {
		t.Errorf("Expected first add to report absent")
	}
	if !s.Add(Key(2, 1)) {
		t.Errorf("Expected reversed pair to be found")
	}
	if s.Count() != 1 {
		t.Errorf("Expected count 1, got %d", s.Count())
	}
	if !s.Contains(Key(1, 2)) {
		t.Errorf("Expected pair to be contained")
	}
	if !s.Remove(Key(1, 2)) || s.Remove(Key(1, 2)) {
		t.Errorf("Expected remove to succeed once")
	}
	s.Add(Key(4, 5))
	s.Clear()
	if s.Count() != 0 {
		t.Errorf("Expected empty set after clear")
	}
}
