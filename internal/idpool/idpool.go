// Package idpool hands out small integer ids and recycles freed ones.
package idpool

// Pool allocates ids from a free list before growing.
type Pool struct {
	free   []int
	nextID int
}

// Alloc returns a recycled id when one is available, otherwise a fresh one.
func (p *Pool) Alloc() int {
	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		return id
	}

	id := p.nextID
	p.nextID++
	return id
}

// Free returns id to the pool.
func (p *Pool) Free(id int) {
	if id < 0 || id >= p.nextID {
		panic("idpool: id out of range")
	}
	p.free = append(p.free, id)
}

// Count is the number of live ids.
func (p *Pool) Count() int {
	return p.nextID - len(p.free)
}

// Capacity is one past the highest id handed out so far.
func (p *Pool) Capacity() int {
	return p.nextID
}
