package bitset

import (
	"slices"
	"testing"
)

func TestBitSet(t *testing.T) {
	t.Run("set get clear", func(t *testing.T) {
		b := New(10)
		b.Set(3)
		b.Set(9)
		if !b.Get(3) || !b.Get(9) || b.Get(4) {
			t.Errorf("Expected bits 3 and 9 only")
		}
		b.Clear(3)
		if b.Get(3) {
			t.Errorf("Expected bit 3 cleared")
		}
		if b.Get(1000) {
			t.Errorf("Expected out of range bit to read false")
		}
		b.Clear(1000)
	})

	t.Run("set grows", func(t *testing.T) {
		var b BitSet
		b.Set(200)
		if !b.Get(200) {
			t.Errorf("Expected bit 200 after growth")
		}
		if b.Count() != 1 {
			t.Errorf("Expected count 1, got %d", b.Count())
		}
	})

	t.Run("resize clears", func(t *testing.T) {
		b := New(128)
		b.Set(5)
		b.Set(100)
		b.SetBitCountAndClear(64)
		if b.Count() != 0 {
			t.Errorf("Expected empty set, got %d bits", b.Count())
		}
		b.SetBitCountAndClear(256)
		if b.Get(100) {
			t.Errorf("Expected stale bit to be cleared after regrow")
		}
	})

	t.Run("union and iteration", func(t *testing.T) {
		a := New(64)
		a.Set(1)
		a.Set(63)
		o := New(256)
		o.Set(2)
		o.Set(130)
		a.InPlaceUnion(&o)

		var got []int
		a.ForEach(func(i int) { got = append(got, i) })
		want := []int{1, 2, 63, 130}
		if !slices.Equal(got, want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})
}
