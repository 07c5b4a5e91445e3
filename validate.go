package feather2d

import (
	"fmt"

	"github.com/akmonengine/feather2d/internal/pairset"
)

// Validate checks the internal bookkeeping of the world: every object is
// listed once in its solver set, the graph colors never share a dynamic body
// and the islands hold what their members claim. It is meant for tests and
// returns the first inconsistency found.
func (w *World) Validate() error {
	checks := []func() error{
		w.validateSolverSets,
		w.validateBodies,
		w.validateContacts,
		w.validateGraph,
		w.validateIslands,
		w.validateBroadPhase,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) validateSolverSets() error {
	bodyCount, contactCount, jointCount, islandCount := 0, 0, 0, 0

	for setIndex := range w.solverSets {
		set := &w.solverSets[setIndex]
		if set.setIndex == nullIndex {
			continue
		}
		if set.setIndex != setIndex {
			return fmt.Errorf("solver set %d: stored index %d", setIndex, set.setIndex)
		}
		if setIndex == awakeSet {
			if len(set.bodyStates) != len(set.bodySims) {
				return fmt.Errorf("awake set: %d states for %d bodies", len(set.bodyStates), len(set.bodySims))
			}
		} else if len(set.bodyStates) != 0 {
			return fmt.Errorf("solver set %d: only the awake set has body states", setIndex)
		}

		for i := range set.bodySims {
			b := &w.bodies[set.bodySims[i].bodyID]
			if b.setIndex != setIndex || b.localIndex != i {
				return fmt.Errorf("body %d: expected set %d slot %d, got set %d slot %d", b.id, setIndex, i, b.setIndex, b.localIndex)
			}
		}
		for i := range set.contactSims {
			c := &w.contacts[set.contactSims[i].contactID]
			if c.setIndex != setIndex || c.colorIndex != nullIndex || c.localIndex != i {
				return fmt.Errorf("contact %d: expected set %d slot %d, got set %d slot %d", c.id, setIndex, i, c.setIndex, c.localIndex)
			}
		}
		for i := range set.jointSims {
			j := &w.joints[set.jointSims[i].jointID]
			if j.setIndex != setIndex || j.colorIndex != nullIndex || j.localIndex != i {
				return fmt.Errorf("joint %d: expected set %d slot %d, got set %d slot %d", j.id, setIndex, i, j.setIndex, j.localIndex)
			}
		}
		for i := range set.islandSims {
			isl := &w.islands[set.islandSims[i].islandID]
			if isl.setIndex != setIndex || isl.localIndex != i {
				return fmt.Errorf("island %d: expected set %d slot %d, got set %d slot %d", isl.id, setIndex, i, isl.setIndex, isl.localIndex)
			}
		}

		bodyCount += len(set.bodySims)
		contactCount += len(set.contactSims)
		jointCount += len(set.jointSims)
		islandCount += len(set.islandSims)

		if setIndex >= firstSleepingSet && len(set.islandSims) != 1 {
			return fmt.Errorf("sleeping set %d: expected one island, got %d", setIndex, len(set.islandSims))
		}
	}

	for i := range w.graph.colors {
		contactCount += len(w.graph.colors[i].contactSims)
		jointCount += len(w.graph.colors[i].jointSims)
	}

	switch {
	case bodyCount != w.bodyPool.Count():
		return fmt.Errorf("expected %d bodies in solver sets, got %d", w.bodyPool.Count(), bodyCount)
	case contactCount != w.contactPool.Count():
		return fmt.Errorf("expected %d contacts in solver sets and graph, got %d", w.contactPool.Count(), contactCount)
	case jointCount != w.jointPool.Count():
		return fmt.Errorf("expected %d joints in solver sets and graph, got %d", w.jointPool.Count(), jointCount)
	case islandCount != w.islandPool.Count():
		return fmt.Errorf("expected %d islands in solver sets, got %d", w.islandPool.Count(), islandCount)
	}
	return nil
}

func (w *World) validateBodies() error {
	for i := range w.bodies {
		b := &w.bodies[i]
		if b.id == nullIndex {
			continue
		}
		if b.id != i {
			return fmt.Errorf("body %d: stored id %d", i, b.id)
		}

		shapeCount := 0
		prevShapeID := nullIndex
		for shapeID := b.headShapeID; shapeID != nullIndex; shapeID = w.shapes[shapeID].nextShapeID {
			s := &w.shapes[shapeID]
			if s.id != shapeID || s.bodyID != b.id || s.prevShapeID != prevShapeID {
				return fmt.Errorf("body %d: broken shape list at shape %d", b.id, shapeID)
			}
			if b.setIndex == disabledSet && s.proxyKey != nullIndex {
				return fmt.Errorf("shape %d: disabled body keeps a proxy", shapeID)
			}
			if b.setIndex != disabledSet && s.proxyKey == nullIndex {
				return fmt.Errorf("shape %d: enabled body without proxy", shapeID)
			}
			prevShapeID = shapeID
			shapeCount++
		}
		if shapeCount != b.shapeCount {
			return fmt.Errorf("body %d: expected %d shapes, got %d", b.id, b.shapeCount, shapeCount)
		}

		contactCount := 0
		for key := b.headContactKey; key != nullIndex; key = w.contacts[key>>1].edges[key&1].nextKey {
			c := &w.contacts[key>>1]
			if c.id == nullIndex || c.edges[key&1].bodyID != b.id {
				return fmt.Errorf("body %d: broken contact list at contact %d", b.id, key>>1)
			}
			contactCount++
		}
		if contactCount != b.contactCount {
			return fmt.Errorf("body %d: expected %d contacts, got %d", b.id, b.contactCount, contactCount)
		}

		jointCount := 0
		for key := b.headJointKey; key != nullIndex; key = w.joints[key>>1].edges[key&1].nextKey {
			j := &w.joints[key>>1]
			if j.id == nullIndex || j.edges[key&1].bodyID != b.id {
				return fmt.Errorf("body %d: broken joint list at joint %d", b.id, key>>1)
			}
			jointCount++
		}
		if jointCount != b.jointCount {
			return fmt.Errorf("body %d: expected %d joints, got %d", b.id, b.jointCount, jointCount)
		}

		if b.setIndex >= awakeSet && b.typ != StaticBody && b.islandID == nullIndex {
			return fmt.Errorf("body %d: moving body without island", b.id)
		}
	}
	return nil
}

func (w *World) validateContacts() error {
	for i := range w.contacts {
		c := &w.contacts[i]
		if c.id == nullIndex {
			continue
		}

		touching := c.flags&contactTouching != 0
		sensor := c.flags&contactSensor != 0

		if !w.broadPhase.pairSet.Contains(pairset.Key(c.shapeIDA, c.shapeIDB)) {
			return fmt.Errorf("contact %d: missing from the pair set", c.id)
		}

		inGraph := c.colorIndex != nullIndex
		if inGraph {
			if c.setIndex != awakeSet || !touching || sensor {
				return fmt.Errorf("contact %d: only awake touching contacts are colored", c.id)
			}
			sim := &w.graph.colors[c.colorIndex].contactSims[c.localIndex]
			if sim.contactID != c.id {
				return fmt.Errorf("contact %d: color %d slot %d holds contact %d", c.id, c.colorIndex, c.localIndex, sim.contactID)
			}
		} else if c.setIndex == awakeSet && touching && !sensor {
			return fmt.Errorf("contact %d: awake touching contact outside the graph", c.id)
		}

		inIsland := c.islandID != nullIndex
		if inIsland != (touching && !sensor) {
			return fmt.Errorf("contact %d: island %d does not match touching %v sensor %v", c.id, c.islandID, touching, sensor)
		}
	}
	return nil
}

func (w *World) validateGraph() error {
	for colorIndex := range overflowIndex {
		color := &w.graph.colors[colorIndex]
		seen := make(map[int]int)
		claim := func(bodyID, constraintID int, what string) error {
			b := &w.bodies[bodyID]
			if b.setIndex == staticSet {
				return nil
			}
			if !color.bodySet.Get(bodyID) {
				return fmt.Errorf("color %d: %s %d uses body %d without its bit", colorIndex, what, constraintID, bodyID)
			}
			if other, ok := seen[bodyID]; ok {
				return fmt.Errorf("color %d: body %d shared by constraints %d and %d", colorIndex, bodyID, other, constraintID)
			}
			seen[bodyID] = constraintID
			return nil
		}

		for i := range color.contactSims {
			c := &w.contacts[color.contactSims[i].contactID]
			for _, edge := range c.edges {
				if err := claim(edge.bodyID, c.id, "contact"); err != nil {
					return err
				}
			}
		}
		for i := range color.jointSims {
			j := &w.joints[color.jointSims[i].jointID]
			if j.colorIndex != colorIndex || j.localIndex != i {
				return fmt.Errorf("joint %d: expected color %d slot %d, got color %d slot %d", j.id, colorIndex, i, j.colorIndex, j.localIndex)
			}
			for _, edge := range j.edges {
				if err := claim(edge.bodyID, j.id, "joint"); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (w *World) validateIslands() error {
	for i := range w.islands {
		isl := &w.islands[i]
		if isl.id == nullIndex {
			continue
		}

		bodyCount := 0
		prev := nullIndex
		for bodyID := isl.headBody; bodyID != nullIndex; bodyID = w.bodies[bodyID].islandNext {
			b := &w.bodies[bodyID]
			if b.islandID != isl.id || b.islandPrev != prev {
				return fmt.Errorf("island %d: broken body list at body %d", isl.id, bodyID)
			}
			if b.setIndex != isl.setIndex {
				return fmt.Errorf("island %d: body %d is in set %d, island in set %d", isl.id, bodyID, b.setIndex, isl.setIndex)
			}
			prev = bodyID
			bodyCount++
		}
		if bodyCount != isl.bodyCount || prev != isl.tailBody {
			return fmt.Errorf("island %d: expected %d bodies, got %d", isl.id, isl.bodyCount, bodyCount)
		}

		contactCount := 0
		prev = nullIndex
		for contactID := isl.headContact; contactID != nullIndex; contactID = w.contacts[contactID].islandNext {
			c := &w.contacts[contactID]
			if c.islandID != isl.id || c.islandPrev != prev {
				return fmt.Errorf("island %d: broken contact list at contact %d", isl.id, contactID)
			}
			prev = contactID
			contactCount++
		}
		if contactCount != isl.contactCount || prev != isl.tailContact {
			return fmt.Errorf("island %d: expected %d contacts, got %d", isl.id, isl.contactCount, contactCount)
		}

		jointCount := 0
		prev = nullIndex
		for jointID := isl.headJoint; jointID != nullIndex; jointID = w.joints[jointID].islandNext {
			j := &w.joints[jointID]
			if j.islandID != isl.id || j.islandPrev != prev {
				return fmt.Errorf("island %d: broken joint list at joint %d", isl.id, jointID)
			}
			prev = jointID
			jointCount++
		}
		if jointCount != isl.jointCount || prev != isl.tailJoint {
			return fmt.Errorf("island %d: expected %d joints, got %d", isl.id, isl.jointCount, jointCount)
		}
	}
	return nil
}

func (w *World) validateBroadPhase() error {
	for typ := range bodyTypeCount {
		if err := w.broadPhase.trees[typ].Validate(); err != nil {
			return fmt.Errorf("%v tree: %w", typ, err)
		}
	}

	for i := range w.shapes {
		s := &w.shapes[i]
		if s.id == nullIndex || s.proxyKey == nullIndex {
			continue
		}
		if !w.broadPhase.fatAABB(s.proxyKey).Contains(s.aabb) {
			return fmt.Errorf("shape %d: proxy does not contain the shape bounds", s.id)
		}
	}
	return nil
}
