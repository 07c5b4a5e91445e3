package feather2d

import (
	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/akmonengine/feather2d/manifold"
)

// sensorSlop is the distance below which a sensor counts as overlapping.
const sensorSlop = 10 * geom.LinearSlop

// collide runs the narrow phase over every awake contact: touching ones from
// the constraint graph and non touching ones from the awake set. Workers
// only flag state changes; updateContacts applies them serially.
func (w *World) collide() {
	w.collideArray = w.collideArray[:0]
	for i := range w.graph.colors {
		color := &w.graph.colors[i]
		for j := range color.contactSims {
			w.collideArray = append(w.collideArray, &color.contactSims[j])
		}
	}
	awake := &w.solverSets[awakeSet]
	for i := range awake.contactSims {
		w.collideArray = append(w.collideArray, &awake.contactSims[i])
	}
	if len(w.collideArray) == 0 {
		return
	}

	contactCapacity := w.contactPool.Capacity()
	for i := range w.taskContexts {
		w.taskContexts[i].contactStateBitSet.SetBitCountAndClear(contactCapacity)
	}

	task(w.taskSystem, w.collideArray, 64, func(sim **contactSim, workerIndex int) {
		w.collideContact(*sim, &w.taskContexts[workerIndex])
	})

	w.updateContacts()
}

// collideContact updates one contact. It runs in parallel and only writes
// to the contact sim and the bit set of its worker.
func (w *World) collideContact(sim *contactSim, tc *taskContext) {
	shapeA := &w.shapes[sim.shapeIDA]
	shapeB := &w.shapes[sim.shapeIDB]

	if !shapeA.fatAABB.Overlaps(shapeB.fatAABB) {
		sim.simFlags |= simDisjoint
		sim.simFlags &^= simTouching
		tc.contactStateBitSet.Set(sim.contactID)
		return
	}

	wasTouching := sim.simFlags&simTouching != 0

	bodyA := &w.bodies[shapeA.bodyID]
	bodyB := &w.bodies[shapeB.bodyID]
	bodySimA := w.bodySim(bodyA)
	bodySimB := w.bodySim(bodyB)

	sim.bodySimIndexA = nullIndex
	if bodyA.setIndex == awakeSet {
		sim.bodySimIndexA = bodyA.localIndex
	}
	sim.invMassA, sim.invIA = bodySimA.invMass, bodySimA.invInertia

	sim.bodySimIndexB = nullIndex
	if bodyB.setIndex == awakeSet {
		sim.bodySimIndexB = bodyB.localIndex
	}
	sim.invMassB, sim.invIB = bodySimB.invMass, bodySimB.invInertia

	xfA, xfB := bodySimA.transform, bodySimB.transform
	centerOffsetA := geom.RotateVector(xfA.Q, bodySimA.localCenter)
	centerOffsetB := geom.RotateVector(xfB.Q, bodySimB.localCenter)

	touching := w.updateContact(sim, shapeA, xfA, centerOffsetA, shapeB, xfB, centerOffsetB)

	switch {
	case touching && !wasTouching:
		sim.simFlags |= simStartedTouching
		tc.contactStateBitSet.Set(sim.contactID)
	case !touching && wasTouching:
		sim.simFlags |= simStoppedTouching
		tc.contactStateBitSet.Set(sim.contactID)
	}
}

// updateContact refreshes the manifold of a contact and reports whether the
// shapes touch. Anchors are shifted to be relative to the centers of mass and
// impulses are carried over by matching point ids.
func (w *World) updateContact(sim *contactSim, shapeA *shape, xfA geom.Transform, centerOffsetA geom.Vec2,
	shapeB *shape, xfB geom.Transform, centerOffsetB geom.Vec2) bool {
	var touching bool

	if shapeA.isSensor || shapeB.isSensor {
		input := gjk.DistanceInput{
			ProxyA:     gjk.MakeShapeProxy(&shapeA.geometry),
			ProxyB:     gjk.MakeShapeProxy(&shapeB.geometry),
			TransformA: xfA,
			TransformB: xfB,
			UseRadii:   true,
		}
		var cache gjk.SimplexCache
		output := gjk.ShapeDistance(&cache, &input)
		touching = output.Distance < sensorSlop
	} else {
		oldManifold := sim.manifold
		sim.manifold = manifold.Collide(&shapeA.geometry, xfA, &shapeB.geometry, xfB, &sim.cache)

		pointCount := sim.manifold.PointCount
		touching = pointCount > 0

		for i := range pointCount {
			mp2 := &sim.manifold.Points[i]
			mp2.AnchorA = mp2.AnchorA.Sub(centerOffsetA)
			mp2.AnchorB = mp2.AnchorB.Sub(centerOffsetB)
			mp2.NormalImpulse = 0
			mp2.TangentImpulse = 0
			mp2.Persisted = false

			for j := range oldManifold.PointCount {
				mp1 := &oldManifold.Points[j]
				if mp1.ID == mp2.ID {
					mp2.NormalImpulse = mp1.NormalImpulse
					mp2.TangentImpulse = mp1.TangentImpulse
					mp2.Persisted = true
					break
				}
			}
		}
	}

	if touching {
		sim.simFlags |= simTouching
	} else {
		sim.simFlags &^= simTouching
	}
	return touching
}

// updateContacts applies the state changes flagged by the narrow phase in
// contact id order, so the result does not depend on the worker count.
func (w *World) updateContacts() {
	bits := &w.taskContexts[0].contactStateBitSet
	for i := 1; i < len(w.taskContexts); i++ {
		bits.InPlaceUnion(&w.taskContexts[i].contactStateBitSet)
	}

	awake := &w.solverSets[awakeSet]

	bits.ForEach(func(contactID int) {
		c := &w.contacts[contactID]
		w.assert(c.setIndex == awakeSet, "contact state change outside the awake set")

		colorIndex, localIndex := c.colorIndex, c.localIndex
		sim := w.contactSim(c)
		flags := c.flags
		simFlags := sim.simFlags

		switch {
		case simFlags&simDisjoint != 0:
			w.destroyContact(c, false)

		case simFlags&simStartedTouching != 0:
			w.assert(c.islandID == nullIndex, "contact started touching inside an island")
			sim.simFlags &^= simStartedTouching

			if flags&contactSensor != 0 {
				if flags&contactEnableSensorEvents != 0 {
					w.emitSensorBegin(c)
				}
				c.flags |= contactSensorTouching
				return
			}

			if flags&contactEnableContactEvents != 0 {
				w.events.contactBegin = append(w.events.contactBegin, ContactBeginTouchEvent{
					ShapeIDA: w.makeShapeID(&w.shapes[c.shapeIDA]),
					ShapeIDB: w.makeShapeID(&w.shapes[c.shapeIDB]),
					Manifold: sim.manifold,
				})
			}
			c.flags |= contactTouching

			// linking wakes the bodies, which may grow the awake set
			w.linkContact(c)
			sim = &awake.contactSims[localIndex]

			w.addContactToGraph(sim, c)
			w.removeContactSim(awake, localIndex)

		case simFlags&simStoppedTouching != 0:
			sim.simFlags &^= simStoppedTouching

			if flags&contactSensor != 0 {
				c.flags &^= contactSensorTouching
				if flags&contactEnableSensorEvents != 0 {
					w.emitSensorEnd(c)
				}
				return
			}

			c.flags &^= contactTouching
			if flags&contactEnableContactEvents != 0 {
				w.events.contactEnded(ContactEndTouchEvent{
					ShapeIDA: w.makeShapeID(&w.shapes[c.shapeIDA]),
					ShapeIDB: w.makeShapeID(&w.shapes[c.shapeIDB]),
				}, true)
			}

			w.unlinkContact(c)
			bodyIDA, bodyIDB := c.edges[0].bodyID, c.edges[1].bodyID

			c.setIndex = awakeSet
			c.colorIndex = nullIndex
			c.localIndex = len(awake.contactSims)
			awake.contactSims = append(awake.contactSims, *sim)

			w.removeContactFromGraph(bodyIDA, bodyIDB, colorIndex, localIndex)
		}
	})
}
