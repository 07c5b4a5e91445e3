package feather2d

// nullIndex marks an absent index in every internal list.
const nullIndex = -1

// BodyID is a generational handle on a body. The zero value is the null id.
type BodyID struct {
	world    *World
	index    int
	revision uint16
}

// ShapeID is a generational handle on a shape. The zero value is the null id.
type ShapeID struct {
	world    *World
	index    int
	revision uint16
}

// JointID is a generational handle on a joint. The zero value is the null id.
type JointID struct {
	world    *World
	index    int
	revision uint16
}

// ChainID is a generational handle on a chain. The zero value is the null id.
type ChainID struct {
	world    *World
	index    int
	revision uint16
}

func (id BodyID) IsNull() bool  { return id.world == nil }
func (id ShapeID) IsNull() bool { return id.world == nil }
func (id JointID) IsNull() bool { return id.world == nil }
func (id ChainID) IsNull() bool { return id.world == nil }

// Index is the slot of the body in its world. Slots are reused after
// destruction.
func (id BodyID) Index() int  { return id.index }
func (id ShapeID) Index() int { return id.index }
func (id JointID) Index() int { return id.index }
func (id ChainID) Index() int { return id.index }

func (id BodyID) World() *World  { return id.world }
func (id ShapeID) World() *World { return id.world }
func (id JointID) World() *World { return id.world }
func (id ChainID) World() *World { return id.world }

// IsValid reports whether the body still exists. A destroyed body whose slot
// was reused by a new body is not valid.
func (id BodyID) IsValid() bool {
	_, ok := id.world.bodyFromID(id)
	return ok
}

// IsValid reports whether the shape still exists.
func (id ShapeID) IsValid() bool {
	_, ok := id.world.shapeFromID(id)
	return ok
}

// IsValid reports whether the joint still exists.
func (id JointID) IsValid() bool {
	_, ok := id.world.jointFromID(id)
	return ok
}

// IsValid reports whether the chain still exists.
func (id ChainID) IsValid() bool {
	_, ok := id.world.chainFromID(id)
	return ok
}

func (w *World) bodyFromID(id BodyID) (*body, bool) {
	if w == nil || id.world != w || id.index < 0 || id.index >= len(w.bodies) {
		return nil, false
	}
	b := &w.bodies[id.index]
	if b.id == nullIndex || b.revision != id.revision {
		return nil, false
	}
	return b, true
}

func (w *World) shapeFromID(id ShapeID) (*shape, bool) {
	if w == nil || id.world != w || id.index < 0 || id.index >= len(w.shapes) {
		return nil, false
	}
	s := &w.shapes[id.index]
	if s.id == nullIndex || s.revision != id.revision {
		return nil, false
	}
	return s, true
}

func (w *World) jointFromID(id JointID) (*joint, bool) {
	if w == nil || id.world != w || id.index < 0 || id.index >= len(w.joints) {
		return nil, false
	}
	j := &w.joints[id.index]
	if j.id == nullIndex || j.revision != id.revision {
		return nil, false
	}
	return j, true
}

func (w *World) chainFromID(id ChainID) (*chain, bool) {
	if w == nil || id.world != w || id.index < 0 || id.index >= len(w.chains) {
		return nil, false
	}
	c := &w.chains[id.index]
	if c.id == nullIndex || c.revision != id.revision {
		return nil, false
	}
	return c, true
}

func (w *World) makeBodyID(b *body) BodyID {
	return BodyID{world: w, index: b.id, revision: b.revision}
}

func (w *World) makeShapeID(s *shape) ShapeID {
	return ShapeID{world: w, index: s.id, revision: s.revision}
}

func (w *World) makeJointID(j *joint) JointID {
	return JointID{world: w, index: j.id, revision: j.revision}
}

func (w *World) makeChainID(c *chain) ChainID {
	return ChainID{world: w, index: c.id, revision: c.revision}
}
