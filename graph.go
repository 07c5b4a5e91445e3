package feather2d

import (
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/internal/bitset"
)

// graphColorCount is the number of colors solved in parallel. Constraints
// that find no free color go to the overflow color, solved serially.
const (
	graphColorCount = 12
	overflowIndex   = graphColorCount
)

// graphColor holds constraints that share no non static body, so each of
// them can be solved without synchronization.
type graphColor struct {
	// bodySet has a bit for every body used by the color, indexed by body id
	bodySet     bitset.BitSet
	contactSims []contactSim
	jointSims   []jointSim

	// built at the start of each solve
	contactConstraints []constraint.ContactConstraint
}

// constraintGraph owns every touching awake contact and every awake joint.
type constraintGraph struct {
	colors [graphColorCount + 1]graphColor
}

func newConstraintGraph(bodyCapacity int) constraintGraph {
	bodyCapacity = max(bodyCapacity, 8)

	var g constraintGraph
	for i := range overflowIndex {
		g.colors[i].bodySet = bitset.New(bodyCapacity)
		g.colors[i].bodySet.SetBitCountAndClear(bodyCapacity)
	}
	return g
}

// assignColor finds the first color free for the non static bodies of a
// constraint and marks them. Static bodies never use a bit. Contacts against
// static bodies skip color 0 to leave it for the dynamic pairs.
func (g *constraintGraph) assignColor(bodyIDA, bodyIDB int, staticA, staticB bool, firstStaticColor int) int {
	switch {
	case !staticA && !staticB:
		for i := range overflowIndex {
			color := &g.colors[i]
			if color.bodySet.Get(bodyIDA) || color.bodySet.Get(bodyIDB) {
				continue
			}
			color.bodySet.Set(bodyIDA)
			color.bodySet.Set(bodyIDB)
			return i
		}
	case !staticA:
		for i := firstStaticColor; i < overflowIndex; i++ {
			color := &g.colors[i]
			if color.bodySet.Get(bodyIDA) {
				continue
			}
			color.bodySet.Set(bodyIDA)
			return i
		}
	case !staticB:
		for i := firstStaticColor; i < overflowIndex; i++ {
			color := &g.colors[i]
			if color.bodySet.Get(bodyIDB) {
				continue
			}
			color.bodySet.Set(bodyIDB)
			return i
		}
	}
	return overflowIndex
}

// addContactToGraph copies a contact that started touching into a color and
// caches the awake rows and inverse masses of its bodies.
func (w *World) addContactToGraph(sim *contactSim, c *contact) {
	bodyIDA, bodyIDB := c.edges[0].bodyID, c.edges[1].bodyID
	bodyA, bodyB := &w.bodies[bodyIDA], &w.bodies[bodyIDB]
	staticA := bodyA.setIndex == staticSet
	staticB := bodyB.setIndex == staticSet
	w.assert(!staticA || !staticB, "contact between two static bodies")

	colorIndex := w.graph.assignColor(bodyIDA, bodyIDB, staticA, staticB, 1)
	color := &w.graph.colors[colorIndex]
	c.colorIndex = colorIndex
	c.localIndex = len(color.contactSims)
	color.contactSims = append(color.contactSims, *sim)

	newSim := &color.contactSims[c.localIndex]
	awake := &w.solverSets[awakeSet]
	if staticA {
		newSim.bodySimIndexA = nullIndex
		newSim.invMassA, newSim.invIA = 0, 0
	} else {
		w.assert(bodyA.setIndex == awakeSet, "graph contact on a body that is not awake")
		simA := &awake.bodySims[bodyA.localIndex]
		newSim.bodySimIndexA = bodyA.localIndex
		newSim.invMassA, newSim.invIA = simA.invMass, simA.invInertia
	}
	if staticB {
		newSim.bodySimIndexB = nullIndex
		newSim.invMassB, newSim.invIB = 0, 0
	} else {
		w.assert(bodyB.setIndex == awakeSet, "graph contact on a body that is not awake")
		simB := &awake.bodySims[bodyB.localIndex]
		newSim.bodySimIndexB = bodyB.localIndex
		newSim.invMassB, newSim.invIB = simB.invMass, simB.invInertia
	}
}

func (w *World) removeContactFromGraph(bodyIDA, bodyIDB, colorIndex, localIndex int) {
	color := &w.graph.colors[colorIndex]
	if colorIndex != overflowIndex {
		color.bodySet.Clear(bodyIDA)
		color.bodySet.Clear(bodyIDB)
	}

	var moved bool
	color.contactSims, moved = swapRemove(color.contactSims, localIndex)
	if moved {
		w.contacts[color.contactSims[localIndex].contactID].localIndex = localIndex
	}
}

// addJointToGraph colors an awake joint.
func (w *World) addJointToGraph(sim jointSim, j *joint) {
	bodyIDA, bodyIDB := j.edges[0].bodyID, j.edges[1].bodyID
	staticA := w.bodies[bodyIDA].setIndex == staticSet
	staticB := w.bodies[bodyIDB].setIndex == staticSet

	colorIndex := w.graph.assignColor(bodyIDA, bodyIDB, staticA, staticB, 0)
	color := &w.graph.colors[colorIndex]
	j.colorIndex = colorIndex
	j.localIndex = len(color.jointSims)
	color.jointSims = append(color.jointSims, sim)
}

func (w *World) removeJointFromGraph(bodyIDA, bodyIDB, colorIndex, localIndex int) {
	color := &w.graph.colors[colorIndex]
	if colorIndex != overflowIndex {
		color.bodySet.Clear(bodyIDA)
		color.bodySet.Clear(bodyIDB)
	}

	var moved bool
	color.jointSims, moved = swapRemove(color.jointSims, localIndex)
	if moved {
		w.joints[color.jointSims[localIndex].jointID].localIndex = localIndex
	}
}
