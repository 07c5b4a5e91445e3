package feather2d

import (
	"github.com/akmonengine/feather2d/constraint"
)

// Every body, contact, joint and island lives in exactly one solver set.
// The static, disabled and awake sets always exist; each sleeping island
// gets a set of its own.
const (
	staticSet = iota
	disabledSet
	awakeSet
	firstSleepingSet
)

// solverSet stores its members in contiguous slices. Only the awake set has
// body states. Touching awake contacts and awake joints live in the
// constraint graph instead of the awake set.
type solverSet struct {
	bodySims    []bodySim
	bodyStates  []constraint.BodyState
	contactSims []contactSim
	jointSims   []jointSim
	islandSims  []islandSim

	// setIndex is the id of the set, or nullIndex once the set is freed.
	setIndex int
}

// swapRemove removes s[i] by moving the last element into its slot. It
// reports whether an element was moved.
func swapRemove[T any](s []T, i int) ([]T, bool) {
	last := len(s) - 1
	moved := i != last
	if moved {
		s[i] = s[last]
	}
	var zero T
	s[last] = zero
	return s[:last], moved
}

func (w *World) createSolverSet() int {
	id := w.solverSetPool.Alloc()
	if id == len(w.solverSets) {
		w.solverSets = append(w.solverSets, solverSet{})
	}
	w.solverSets[id] = solverSet{setIndex: id}
	return id
}

func (w *World) destroySolverSet(id int) {
	w.solverSets[id] = solverSet{setIndex: nullIndex}
	w.solverSetPool.Free(id)
}

func (w *World) removeBodySim(set *solverSet, localIndex int) {
	var moved bool
	set.bodySims, moved = swapRemove(set.bodySims, localIndex)
	if set.setIndex == awakeSet {
		set.bodyStates, _ = swapRemove(set.bodyStates, localIndex)
	}
	if moved {
		w.bodies[set.bodySims[localIndex].bodyID].localIndex = localIndex
	}
}

func (w *World) removeContactSim(set *solverSet, localIndex int) {
	var moved bool
	set.contactSims, moved = swapRemove(set.contactSims, localIndex)
	if moved {
		w.contacts[set.contactSims[localIndex].contactID].localIndex = localIndex
	}
}

func (w *World) removeJointSim(set *solverSet, localIndex int) {
	var moved bool
	set.jointSims, moved = swapRemove(set.jointSims, localIndex)
	if moved {
		w.joints[set.jointSims[localIndex].jointID].localIndex = localIndex
	}
}

func (w *World) removeIslandSim(set *solverSet, localIndex int) {
	var moved bool
	set.islandSims, moved = swapRemove(set.islandSims, localIndex)
	if moved {
		w.islands[set.islandSims[localIndex].islandID].localIndex = localIndex
	}
}

// transferBody moves the row of b to another set. Bodies entering the awake
// set start at rest.
func (w *World) transferBody(targetIndex, sourceIndex int, b *body) {
	if targetIndex == sourceIndex {
		return
	}

	source := &w.solverSets[sourceIndex]
	target := &w.solverSets[targetIndex]

	sim := source.bodySims[b.localIndex]
	w.removeBodySim(source, b.localIndex)

	b.setIndex = targetIndex
	b.localIndex = len(target.bodySims)
	target.bodySims = append(target.bodySims, sim)
	if targetIndex == awakeSet {
		target.bodyStates = append(target.bodyStates, constraint.IdentityBodyState)
	}
}

// transferJoint moves j to another set. Awake joints are colored.
func (w *World) transferJoint(targetIndex, sourceIndex int, j *joint) {
	if targetIndex == sourceIndex {
		return
	}

	var sim jointSim
	if sourceIndex == awakeSet {
		sim = w.graph.colors[j.colorIndex].jointSims[j.localIndex]
		w.removeJointFromGraph(j.edges[0].bodyID, j.edges[1].bodyID, j.colorIndex, j.localIndex)
	} else {
		source := &w.solverSets[sourceIndex]
		sim = source.jointSims[j.localIndex]
		w.removeJointSim(source, j.localIndex)
	}

	if targetIndex == awakeSet {
		w.addJointToGraph(sim, j)
		j.setIndex = awakeSet
		return
	}

	target := &w.solverSets[targetIndex]
	j.setIndex = targetIndex
	j.colorIndex = nullIndex
	j.localIndex = len(target.jointSims)
	target.jointSims = append(target.jointSims, sim)
}

// wakeSolverSet moves a sleeping set back into the awake set and the
// constraint graph, then frees it.
func (w *World) wakeSolverSet(setIndex int) {
	if setIndex < firstSleepingSet {
		return
	}

	set := &w.solverSets[setIndex]
	awake := &w.solverSets[awakeSet]
	disabled := &w.solverSets[disabledSet]

	for i := range set.bodySims {
		sim := &set.bodySims[i]
		b := &w.bodies[sim.bodyID]
		b.setIndex = awakeSet
		b.localIndex = len(awake.bodySims)
		b.sleepTime = 0

		awake.bodySims = append(awake.bodySims, *sim)
		awake.bodyStates = append(awake.bodyStates, constraint.IdentityBodyState)

		// contacts that were parked in the disabled set while both bodies slept
		contactKey := b.headContactKey
		for contactKey != nullIndex {
			edgeIndex := contactKey & 1
			c := &w.contacts[contactKey>>1]
			contactKey = c.edges[edgeIndex].nextKey

			if c.setIndex != disabledSet {
				continue
			}

			localIndex := c.localIndex
			c.setIndex = awakeSet
			c.localIndex = len(awake.contactSims)
			awake.contactSims = append(awake.contactSims, disabled.contactSims[localIndex])
			w.removeContactSim(disabled, localIndex)
		}
	}

	for i := range set.contactSims {
		sim := &set.contactSims[i]
		c := &w.contacts[sim.contactID]
		w.addContactToGraph(sim, c)
		c.setIndex = awakeSet
	}

	for i := range set.jointSims {
		sim := &set.jointSims[i]
		j := &w.joints[sim.jointID]
		w.addJointToGraph(*sim, j)
		j.setIndex = awakeSet
	}

	for _, islandSrc := range set.islandSims {
		isl := &w.islands[islandSrc.islandID]
		isl.setIndex = awakeSet
		isl.localIndex = len(awake.islandSims)
		awake.islandSims = append(awake.islandSims, islandSrc)
	}

	w.logger.Debug("island woke", "set", setIndex, "bodies", len(set.bodySims))
	w.destroySolverSet(setIndex)
}

// trySleepIsland moves an awake island into a new sleeping set. Islands with
// pending constraint removals must be split first and are left awake.
func (w *World) trySleepIsland(islandID int) bool {
	if w.islands[islandID].constraintRemoveCount > 0 {
		return false
	}

	// allocating the set may grow the set slice
	sleepSetID := w.createSolverSet()
	sleepSet := &w.solverSets[sleepSetID]
	awake := &w.solverSets[awakeSet]
	disabled := &w.solverSets[disabledSet]
	isl := &w.islands[islandID]

	bodyID := isl.headBody
	for bodyID != nullIndex {
		b := &w.bodies[bodyID]

		if w.locked && b.bodyMoveIndex != nullIndex {
			w.events.bodyMoves[b.bodyMoveIndex].FellAsleep = true
		}

		awakeIndex := b.localIndex
		b.setIndex = sleepSetID
		b.localIndex = len(sleepSet.bodySims)
		sleepSet.bodySims = append(sleepSet.bodySims, awake.bodySims[awakeIndex])
		w.removeBodySim(awake, awakeIndex)

		// non touching contacts go to the disabled set once the other body
		// is not awake either, touching ones are moved with the island below
		contactKey := b.headContactKey
		for contactKey != nullIndex {
			edgeIndex := contactKey & 1
			c := &w.contacts[contactKey>>1]
			contactKey = c.edges[edgeIndex].nextKey

			if c.setIndex == disabledSet || c.colorIndex != nullIndex {
				continue
			}

			other := &w.bodies[c.edges[edgeIndex^1].bodyID]
			if other.setIndex == awakeSet {
				continue
			}

			localIndex := c.localIndex
			c.setIndex = disabledSet
			c.localIndex = len(disabled.contactSims)
			disabled.contactSims = append(disabled.contactSims, awake.contactSims[localIndex])
			w.removeContactSim(awake, localIndex)
		}

		bodyID = b.islandNext
	}

	contactID := isl.headContact
	for contactID != nullIndex {
		c := &w.contacts[contactID]
		colorIndex, localIndex := c.colorIndex, c.localIndex

		sleepSet.contactSims = append(sleepSet.contactSims, w.graph.colors[colorIndex].contactSims[localIndex])
		w.removeContactFromGraph(c.edges[0].bodyID, c.edges[1].bodyID, colorIndex, localIndex)

		c.setIndex = sleepSetID
		c.colorIndex = nullIndex
		c.localIndex = len(sleepSet.contactSims) - 1

		contactID = c.islandNext
	}

	jointID := isl.headJoint
	for jointID != nullIndex {
		j := &w.joints[jointID]
		colorIndex, localIndex := j.colorIndex, j.localIndex

		sleepSet.jointSims = append(sleepSet.jointSims, w.graph.colors[colorIndex].jointSims[localIndex])
		w.removeJointFromGraph(j.edges[0].bodyID, j.edges[1].bodyID, colorIndex, localIndex)

		j.setIndex = sleepSetID
		j.colorIndex = nullIndex
		j.localIndex = len(sleepSet.jointSims) - 1

		jointID = j.islandNext
	}

	w.removeIslandSim(awake, isl.localIndex)
	isl.setIndex = sleepSetID
	isl.localIndex = 0
	sleepSet.islandSims = append(sleepSet.islandSims, islandSim{islandID: islandID})

	w.logger.Debug("island fell asleep", "island", islandID, "bodies", isl.bodyCount)
	return true
}
