package idpool

import "testing"

func TestPool(t *testing.T) {
	t.Run("fresh ids are sequential", func(t *testing.T) {
		var p Pool
		for i := 0; i < 4; i++ {
			if id := p.Alloc(); id != i {
				t.Errorf("Expected id %d, got %d", i, id)
			}
		}
		if p.Count() != 4 || p.Capacity() != 4 {
			t.Errorf("Expected count 4 capacity 4, got %d %d", p.Count(), p.Capacity())
		}
	})

	t.Run("freed ids are recycled last in first out", func(t *testing.T) {
		var p Pool
		for i := 0; i < 4; i++ {
			p.Alloc()
		}
		p.Free(1)
		p.Free(3)

		if p.Count() != 2 {
			t.Errorf("Expected count 2, got %d", p.Count())
		}
		if id := p.Alloc(); id != 3 {
			t.Errorf("Expected recycled id 3, got %d", id)
		}
		if id := p.Alloc(); id != 1 {
			t.Errorf("Expected recycled id 1, got %d", id)
		}
		if id := p.Alloc(); id != 4 {
			t.Errorf("Expected fresh id 4, got %d", id)
		}
		if p.Capacity() != 5 {
			t.Errorf("Expected capacity 5, got %d", p.Capacity())
		}
	})

	t.Run("freeing an unknown id panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Errorf("Expected panic")
			}
		}()
		var p Pool
		p.Free(0)
	})
}
