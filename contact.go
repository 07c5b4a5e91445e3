package feather2d

import (
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/akmonengine/feather2d/internal/pairset"
	"github.com/akmonengine/feather2d/manifold"
)

type contactFlags uint8

const (
	contactTouching contactFlags = 1 << iota
	contactSensor
	contactSensorTouching
	contactEnableSensorEvents
	contactEnableContactEvents
)

// simFlags are written by the parallel collide pass and read back serially.
type simFlags uint8

const (
	simTouching simFlags = 1 << iota
	simDisjoint
	simStartedTouching
	simStoppedTouching
	simEnableHitEvent
)

// contactEdge links a contact into the contact list of one of its bodies.
// Keys are contactID<<1 | edge index.
type contactEdge struct {
	bodyID  int
	prevKey int
	nextKey int
}

// contact is the persistent record of a shape pair whose fat AABBs overlap.
type contact struct {
	setIndex   int
	colorIndex int
	localIndex int

	edges    [2]contactEdge
	shapeIDA int
	shapeIDB int

	islandPrev int
	islandNext int
	islandID   int

	id       int
	flags    contactFlags
	isMarked bool
}

// contactSim is the contact data owned by a solver set or a graph color.
type contactSim struct {
	contactID int

	// awake rows of the bodies, refreshed by the collide pass
	bodySimIndexA int
	bodySimIndexB int

	shapeIDA int
	shapeIDB int

	invMassA float64
	invIA    float64
	invMassB float64
	invIB    float64

	manifold     manifold.Manifold
	friction     float64
	restitution  float64
	tangentSpeed float64

	simFlags simFlags
	cache    gjk.SimplexCache
}

// createContact adds a non touching contact between two shapes. Pairs the
// manifold table does not support are ignored.
func (w *World) createContact(shapeA, shapeB *shape) {
	fn, flip := manifold.Lookup(shapeA.geometry.Type, shapeB.geometry.Type)
	if fn == nil {
		return
	}
	if flip {
		shapeA, shapeB = shapeB, shapeA
	}

	if w.broadPhase.pairSet.Add(pairset.Key(shapeA.id, shapeB.id)) {
		return
	}

	bodyA := &w.bodies[shapeA.bodyID]
	bodyB := &w.bodies[shapeB.bodyID]

	// non touching contacts of sleeping bodies wait in the disabled set
	setIndex := disabledSet
	if bodyA.setIndex == awakeSet || bodyB.setIndex == awakeSet {
		setIndex = awakeSet
	}
	set := &w.solverSets[setIndex]

	contactID := w.contactPool.Alloc()
	if contactID == len(w.contacts) {
		w.contacts = append(w.contacts, contact{})
	}

	c := &w.contacts[contactID]
	*c = contact{
		setIndex:   setIndex,
		colorIndex: nullIndex,
		localIndex: len(set.contactSims),
		shapeIDA:   shapeA.id,
		shapeIDB:   shapeB.id,
		islandPrev: nullIndex,
		islandNext: nullIndex,
		islandID:   nullIndex,
		id:         contactID,
	}

	if shapeA.isSensor || shapeB.isSensor {
		c.flags |= contactSensor
	}
	if shapeA.enableSensorEvents || shapeB.enableSensorEvents {
		c.flags |= contactEnableSensorEvents
	}
	if shapeA.enableContactEvents || shapeB.enableContactEvents {
		c.flags |= contactEnableContactEvents
	}

	for edgeIndex, b := range [2]*body{bodyA, bodyB} {
		key := contactID<<1 | edgeIndex
		c.edges[edgeIndex] = contactEdge{bodyID: b.id, prevKey: nullIndex, nextKey: b.headContactKey}
		if b.headContactKey != nullIndex {
			head := &w.contacts[b.headContactKey>>1]
			head.edges[b.headContactKey&1].prevKey = key
		}
		b.headContactKey = key
		b.contactCount++
	}

	sim := contactSim{
		contactID:     contactID,
		bodySimIndexA: nullIndex,
		bodySimIndexB: nullIndex,
		shapeIDA:      shapeA.id,
		shapeIDB:      shapeB.id,
		friction:      constraint.MixFriction(constraint.Material{Friction: shapeA.friction}, constraint.Material{Friction: shapeB.friction}),
		restitution:   constraint.MixRestitution(constraint.Material{Restitution: shapeA.restitution}, constraint.Material{Restitution: shapeB.restitution}),
	}
	if shapeA.enableHitEvents || shapeB.enableHitEvents {
		sim.simFlags |= simEnableHitEvent
	}
	set.contactSims = append(set.contactSims, sim)
}

// destroyContact removes a contact wherever it lives. A touching contact
// reports its end.
func (w *World) destroyContact(c *contact, wakeBodies bool) {
	w.broadPhase.pairSet.Remove(pairset.Key(c.shapeIDA, c.shapeIDB))

	if c.flags&contactTouching != 0 && c.flags&contactEnableContactEvents != 0 {
		w.events.contactEnded(ContactEndTouchEvent{
			ShapeIDA: w.makeShapeID(&w.shapes[c.shapeIDA]),
			ShapeIDB: w.makeShapeID(&w.shapes[c.shapeIDB]),
		}, w.locked)
	}
	if c.flags&contactSensorTouching != 0 && c.flags&contactEnableSensorEvents != 0 {
		w.emitSensorEnd(c)
	}

	for edgeIndex := range c.edges {
		edge := &c.edges[edgeIndex]
		b := &w.bodies[edge.bodyID]
		if edge.prevKey != nullIndex {
			w.contacts[edge.prevKey>>1].edges[edge.prevKey&1].nextKey = edge.nextKey
		}
		if edge.nextKey != nullIndex {
			w.contacts[edge.nextKey>>1].edges[edge.nextKey&1].prevKey = edge.prevKey
		}
		if b.headContactKey == c.id<<1|edgeIndex {
			b.headContactKey = edge.nextKey
		}
		b.contactCount--
	}

	if c.islandID != nullIndex {
		w.unlinkContact(c)
	}

	if c.colorIndex != nullIndex {
		w.removeContactFromGraph(c.edges[0].bodyID, c.edges[1].bodyID, c.colorIndex, c.localIndex)
	} else {
		w.removeContactSim(&w.solverSets[c.setIndex], c.localIndex)
	}

	w.contactPool.Free(c.id)
	c.id = nullIndex
	c.setIndex = nullIndex
	c.colorIndex = nullIndex
	c.localIndex = nullIndex

	if wakeBodies {
		w.wakeBody(&w.bodies[c.edges[0].bodyID])
		w.wakeBody(&w.bodies[c.edges[1].bodyID])
	}
}

// destroyBodyContacts destroys every contact of b.
func (w *World) destroyBodyContacts(b *body, wakeBodies bool) {
	key := b.headContactKey
	for key != nullIndex {
		c := &w.contacts[key>>1]
		key = c.edges[key&1].nextKey
		w.destroyContact(c, wakeBodies)
	}
}

// contactSim returns the data of c from the graph or from its set.
func (w *World) contactSim(c *contact) *contactSim {
	if c.colorIndex != nullIndex {
		return &w.graph.colors[c.colorIndex].contactSims[c.localIndex]
	}
	return &w.solverSets[c.setIndex].contactSims[c.localIndex]
}

// ContactData is a touching contact between two shapes.
type ContactData struct {
	ShapeIDA ShapeID
	ShapeIDB ShapeID
	Manifold manifold.Manifold
}

func (w *World) appendContactData(data []ContactData, c *contact) []ContactData {
	if c.flags&contactTouching == 0 {
		return data
	}
	sim := w.contactSim(c)
	if sim.manifold.PointCount == 0 {
		return data
	}
	return append(data, ContactData{
		ShapeIDA: w.makeShapeID(&w.shapes[c.shapeIDA]),
		ShapeIDB: w.makeShapeID(&w.shapes[c.shapeIDB]),
		Manifold: sim.manifold,
	})
}

// ContactData lists the touching contacts of the body.
func (id BodyID) ContactData() []ContactData {
	w, b := id.resolve()
	if b == nil {
		return nil
	}
	var data []ContactData
	for key := b.headContactKey; key != nullIndex; {
		c := &w.contacts[key>>1]
		data = w.appendContactData(data, c)
		key = c.edges[key&1].nextKey
	}
	return data
}

// ContactData lists the touching contacts of the shape.
func (id ShapeID) ContactData() []ContactData {
	w, s := id.resolve()
	if s == nil || s.isSensor {
		return nil
	}
	var data []ContactData
	for key := w.bodies[s.bodyID].headContactKey; key != nullIndex; {
		c := &w.contacts[key>>1]
		if c.shapeIDA == s.id || c.shapeIDB == s.id {
			data = w.appendContactData(data, c)
		}
		key = c.edges[key&1].nextKey
	}
	return data
}
