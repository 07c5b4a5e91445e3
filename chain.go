package feather2d

import (
	"fmt"

	"github.com/akmonengine/feather2d/geom"
)

// chain owns a run of chain segment shapes on one body.
type chain struct {
	id          int
	revision    uint16
	bodyID      int
	nextChainID int
	shapeIDs    []int
	friction    float64
	restitution float64
	isLoop      bool
}

func validateChainDef(def *ChainDef) error {
	n := len(def.Points)
	if def.IsLoop && n < 3 {
		return fmt.Errorf("%w: a loop needs 3 points, got %d", ErrInvalidGeometry, n)
	}
	if !def.IsLoop && n < 4 {
		return fmt.Errorf("%w: an open chain needs 4 points, got %d", ErrInvalidGeometry, n)
	}
	for i, p := range def.Points {
		if !geom.IsValidVec2(p) {
			return fmt.Errorf("%w: invalid point %d", ErrInvalidGeometry, i)
		}
	}
	for i := range n {
		next := def.Points[(i+1)%n]
		if (def.IsLoop || i < n-1) && geom.DistanceSquared(def.Points[i], next) <= geom.LinearSlop*geom.LinearSlop {
			return fmt.Errorf("%w: points %d and %d are too close", ErrInvalidGeometry, i, (i+1)%n)
		}
	}
	return nil
}

// CreateChain builds one-sided segments with ghost vertices along the
// points. Open chains skip the first and last points, which only smooth
// collision at the ends.
func (w *World) CreateChain(bodyID BodyID, def ChainDef) ChainID {
	id, err := w.TryCreateChain(bodyID, def)
	if err != nil {
		w.reject("CreateChain", err, "body", bodyID.index)
	}
	return id
}

// TryCreateChain is CreateChain reporting why the chain was not created.
func (w *World) TryCreateChain(bodyID BodyID, def ChainDef) (ChainID, error) {
	if err := w.mutable(); err != nil {
		return ChainID{}, err
	}
	b, ok := w.bodyFromID(bodyID)
	if !ok {
		return ChainID{}, ErrInvalidID
	}
	if err := validateChainDef(&def); err != nil {
		return ChainID{}, err
	}

	chainID := w.chainPool.Alloc()
	if chainID == len(w.chains) {
		w.chains = append(w.chains, chain{})
	}
	c := &w.chains[chainID]
	*c = chain{
		id:          chainID,
		revision:    c.revision + 1,
		bodyID:      b.id,
		nextChainID: b.headChainID,
		friction:    def.Friction,
		restitution: def.Restitution,
		isLoop:      def.IsLoop,
	}
	b.headChainID = chainID

	shapeDef := DefaultShapeDef()
	shapeDef.UserData = def.UserData
	shapeDef.Friction = def.Friction
	shapeDef.Restitution = def.Restitution
	shapeDef.Filter = def.Filter
	shapeDef.EnableContactEvents = false
	shapeDef.EnableHitEvents = false
	shapeDef.EnableSensorEvents = def.EnableSensorEvents

	transform := w.bodySim(b).transform
	points := def.Points
	n := len(points)

	addSegment := func(ghost1, p1, p2, ghost2 geom.Vec2) {
		geometry := geom.Geometry{Type: geom.ChainSegmentShape, ChainSegment: geom.ChainSegment{
			Ghost1:  ghost1,
			Segment: geom.Segment{Point1: p1, Point2: p2},
			Ghost2:  ghost2,
			ChainID: chainID,
		}}
		s := w.createShapeInternal(b, transform, &shapeDef, geometry)
		s.chainID = chainID
		c.shapeIDs = append(c.shapeIDs, s.id)
	}

	if def.IsLoop {
		prev := n - 1
		for i := 0; i < n-2; i++ {
			addSegment(points[prev], points[i], points[i+1], points[i+2])
			prev = i
		}
		addSegment(points[n-3], points[n-2], points[n-1], points[0])
		addSegment(points[n-2], points[n-1], points[0], points[1])
	} else {
		for i := 0; i < n-3; i++ {
			addSegment(points[i], points[i+1], points[i+2], points[i+3])
		}
	}

	return w.makeChainID(&w.chains[chainID]), nil
}

// freeChain releases the chain record. Its shapes are destroyed by the
// caller.
func (w *World) freeChain(c *chain) {
	w.chainPool.Free(c.id)
	c.id = nullIndex
	c.shapeIDs = nil
}

// DestroyChain removes a chain and all its segments.
func (w *World) DestroyChain(id ChainID) {
	if !w.unlocked("DestroyChain") {
		return
	}
	c, ok := w.chainFromID(id)
	if !ok {
		return
	}

	b := &w.bodies[c.bodyID]
	if b.headChainID == c.id {
		b.headChainID = c.nextChainID
	} else {
		prev := &w.chains[b.headChainID]
		for prev.nextChainID != c.id {
			prev = &w.chains[prev.nextChainID]
		}
		prev.nextChainID = c.nextChainID
	}

	for _, shapeID := range c.shapeIDs {
		w.destroyShapeInternal(&w.shapes[shapeID], b, true)
	}
	w.freeChain(c)
}

func (id ChainID) resolve() (*World, *chain) {
	c, ok := id.world.chainFromID(id)
	if !ok {
		return nil, nil
	}
	return id.world, c
}

func (id ChainID) Body() BodyID {
	w, c := id.resolve()
	if c == nil {
		return BodyID{}
	}
	return w.makeBodyID(&w.bodies[c.bodyID])
}

func (id ChainID) IsLoop() bool {
	_, c := id.resolve()
	return c != nil && c.isLoop
}

func (id ChainID) SegmentCount() int {
	_, c := id.resolve()
	if c == nil {
		return 0
	}
	return len(c.shapeIDs)
}

// Segments lists the chain segment shapes in point order.
func (id ChainID) Segments() []ShapeID {
	w, c := id.resolve()
	if c == nil {
		return nil
	}
	segments := make([]ShapeID, len(c.shapeIDs))
	for i, shapeID := range c.shapeIDs {
		segments[i] = w.makeShapeID(&w.shapes[shapeID])
	}
	return segments
}

func (id ChainID) Friction() float64 {
	_, c := id.resolve()
	if c == nil {
		return 0
	}
	return c.friction
}

// SetFriction applies to every segment of the chain.
func (id ChainID) SetFriction(friction float64) {
	w, c := id.resolve()
	if c == nil || !w.unlocked("SetFriction") || !geom.IsValid(friction) || friction < 0 {
		return
	}
	c.friction = friction
	for _, shapeID := range c.shapeIDs {
		w.shapes[shapeID].friction = friction
	}
}

func (id ChainID) Restitution() float64 {
	_, c := id.resolve()
	if c == nil {
		return 0
	}
	return c.restitution
}

func (id ChainID) SetRestitution(restitution float64) {
	w, c := id.resolve()
	if c == nil || !w.unlocked("SetRestitution") || !geom.IsValid(restitution) || restitution < 0 {
		return
	}
	c.restitution = restitution
	for _, shapeID := range c.shapeIDs {
		w.shapes[shapeID].restitution = restitution
	}
}
