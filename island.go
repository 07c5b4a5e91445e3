package feather2d

// island is a persistent group of bodies connected by touching contacts and
// joints. Islands are merged eagerly when constraints are added and split
// lazily, one per step, once constraints were removed. Static bodies do not
// belong to islands.
type island struct {
	setIndex   int
	localIndex int
	id         int

	headBody  int
	tailBody  int
	bodyCount int

	headContact  int
	tailContact  int
	contactCount int

	headJoint  int
	tailJoint  int
	jointCount int

	// union-find parent, set while a merge is pending
	parentIsland int

	// constraints removed since the last split; a non zero count means the
	// island may be disconnected and cannot sleep as is
	constraintRemoveCount int
}

// islandSim is the row of an island in its solver set.
type islandSim struct {
	islandID int
}

func (w *World) createIsland(setIndex int) *island {
	islandID := w.islandPool.Alloc()
	if islandID == len(w.islands) {
		w.islands = append(w.islands, island{})
	}

	set := &w.solverSets[setIndex]
	isl := &w.islands[islandID]
	*isl = island{
		setIndex:     setIndex,
		localIndex:   len(set.islandSims),
		id:           islandID,
		headBody:     nullIndex,
		tailBody:     nullIndex,
		headContact:  nullIndex,
		tailContact:  nullIndex,
		headJoint:    nullIndex,
		tailJoint:    nullIndex,
		parentIsland: nullIndex,
	}
	set.islandSims = append(set.islandSims, islandSim{islandID: islandID})
	return isl
}

// destroyIsland frees an island whose lists were emptied or handed over.
func (w *World) destroyIsland(islandID int) {
	if w.splitIslandID == islandID {
		w.splitIslandID = nullIndex
	}

	isl := &w.islands[islandID]
	w.removeIslandSim(&w.solverSets[isl.setIndex], isl.localIndex)

	isl.id = nullIndex
	isl.setIndex = nullIndex
	isl.localIndex = nullIndex
	w.islandPool.Free(islandID)
}

func (w *World) createIslandForBody(setIndex int, b *body) {
	isl := w.createIsland(setIndex)
	b.islandID = isl.id
	isl.headBody = b.id
	isl.tailBody = b.id
	isl.bodyCount = 1
}

func (w *World) removeBodyFromIsland(b *body) {
	if b.islandID == nullIndex {
		return
	}

	isl := &w.islands[b.islandID]
	if b.islandPrev != nullIndex {
		w.bodies[b.islandPrev].islandNext = b.islandNext
	}
	if b.islandNext != nullIndex {
		w.bodies[b.islandNext].islandPrev = b.islandPrev
	}
	isl.bodyCount--

	if isl.headBody == b.id {
		isl.headBody = b.islandNext
		if isl.headBody == nullIndex {
			w.assert(isl.contactCount == 0 && isl.jointCount == 0, "empty island keeps constraints")
			w.destroyIsland(isl.id)
		}
	} else if isl.tailBody == b.id {
		isl.tailBody = b.islandPrev
	}

	b.islandID = nullIndex
	b.islandPrev = nullIndex
	b.islandNext = nullIndex
}

// rootIsland follows the parent links of islandID with path compression.
func (w *World) rootIsland(islandID int) int {
	if islandID == nullIndex {
		return nullIndex
	}
	root := islandID
	for w.islands[root].parentIsland != nullIndex {
		root = w.islands[root].parentIsland
	}
	for islandID != root {
		next := w.islands[islandID].parentIsland
		w.islands[islandID].parentIsland = root
		islandID = next
	}
	return root
}

// unionIslands makes the smaller root a child of the larger one and returns
// the island that receives the new constraint.
func (w *World) unionIslands(islandIDA, islandIDB int) int {
	rootA := w.rootIsland(islandIDA)
	rootB := w.rootIsland(islandIDB)

	switch {
	case rootA == nullIndex:
		return rootB
	case rootB == nullIndex, rootA == rootB:
		return rootA
	}

	if w.islands[rootB].bodyCount > w.islands[rootA].bodyCount {
		rootA, rootB = rootB, rootA
	}
	w.islands[rootB].parentIsland = rootA
	return rootA
}

func (w *World) addContactToIsland(islandID int, c *contact) {
	isl := &w.islands[islandID]
	if isl.headContact != nullIndex {
		c.islandNext = isl.headContact
		w.contacts[isl.headContact].islandPrev = c.id
	}
	isl.headContact = c.id
	if isl.tailContact == nullIndex {
		isl.tailContact = isl.headContact
	}
	isl.contactCount++
	c.islandID = islandID
}

// linkContact adds a contact that started touching to the island graph. It
// wakes the sleeping sets of both bodies, which may move contact data.
func (w *World) linkContact(c *contact) {
	w.assert(c.flags&contactTouching != 0, "linking a contact that is not touching")

	bodyA := &w.bodies[c.edges[0].bodyID]
	bodyB := &w.bodies[c.edges[1].bodyID]
	w.assert(bodyA.setIndex != disabledSet && bodyB.setIndex != disabledSet, "linking a disabled body")

	if bodyA.setIndex >= firstSleepingSet {
		w.wakeSolverSet(bodyA.setIndex)
	}
	if bodyB.setIndex >= firstSleepingSet {
		w.wakeSolverSet(bodyB.setIndex)
	}

	if bodyA.islandID == bodyB.islandID {
		w.addContactToIsland(bodyA.islandID, c)
		return
	}
	w.addContactToIsland(w.unionIslands(bodyA.islandID, bodyB.islandID), c)
}

// unlinkContact removes a contact from its island. The island keeps its
// bodies until it is split.
func (w *World) unlinkContact(c *contact) {
	isl := &w.islands[c.islandID]
	if c.islandPrev != nullIndex {
		w.contacts[c.islandPrev].islandNext = c.islandNext
	}
	if c.islandNext != nullIndex {
		w.contacts[c.islandNext].islandPrev = c.islandPrev
	}
	if isl.headContact == c.id {
		isl.headContact = c.islandNext
	}
	if isl.tailContact == c.id {
		isl.tailContact = c.islandPrev
	}
	isl.contactCount--
	isl.constraintRemoveCount++

	c.islandID = nullIndex
	c.islandPrev = nullIndex
	c.islandNext = nullIndex
}

func (w *World) addJointToIsland(islandID int, j *joint) {
	isl := &w.islands[islandID]
	if isl.headJoint != nullIndex {
		j.islandNext = isl.headJoint
		w.joints[isl.headJoint].islandPrev = j.id
	}
	isl.headJoint = j.id
	if isl.tailJoint == nullIndex {
		isl.tailJoint = isl.headJoint
	}
	isl.jointCount++
	j.islandID = islandID
}

// linkJoint adds a joint to the island graph. When one body is awake the
// other one is woken. Merging may be deferred while several joints are
// relinked.
func (w *World) linkJoint(j *joint, mergeIslands bool) {
	bodyA := &w.bodies[j.edges[0].bodyID]
	bodyB := &w.bodies[j.edges[1].bodyID]

	if bodyA.setIndex == awakeSet && bodyB.setIndex >= firstSleepingSet {
		w.wakeSolverSet(bodyB.setIndex)
	} else if bodyB.setIndex == awakeSet && bodyA.setIndex >= firstSleepingSet {
		w.wakeSolverSet(bodyA.setIndex)
	}

	if bodyA.islandID == nullIndex && bodyB.islandID == nullIndex {
		return
	}

	if bodyA.islandID == bodyB.islandID {
		w.addJointToIsland(bodyA.islandID, j)
	} else {
		w.addJointToIsland(w.unionIslands(bodyA.islandID, bodyB.islandID), j)
	}

	if mergeIslands {
		w.mergeAwakeIslands()
	}
}

func (w *World) unlinkJoint(j *joint) {
	if j.islandID == nullIndex {
		return
	}

	isl := &w.islands[j.islandID]
	if j.islandPrev != nullIndex {
		w.joints[j.islandPrev].islandNext = j.islandNext
	}
	if j.islandNext != nullIndex {
		w.joints[j.islandNext].islandPrev = j.islandPrev
	}
	if isl.headJoint == j.id {
		isl.headJoint = j.islandNext
	}
	if isl.tailJoint == j.id {
		isl.tailJoint = j.islandPrev
	}
	isl.jointCount--
	isl.constraintRemoveCount++

	j.islandID = nullIndex
	j.islandPrev = nullIndex
	j.islandNext = nullIndex
}

// mergeIsland appends the lists of isl to its root island.
func (w *World) mergeIsland(isl *island) {
	rootID := isl.parentIsland
	root := &w.islands[rootID]
	w.assert(root.parentIsland == nullIndex, "merging into an island that is not a root")

	for bodyID := isl.headBody; bodyID != nullIndex; bodyID = w.bodies[bodyID].islandNext {
		w.bodies[bodyID].islandID = rootID
	}
	for contactID := isl.headContact; contactID != nullIndex; contactID = w.contacts[contactID].islandNext {
		w.contacts[contactID].islandID = rootID
	}
	for jointID := isl.headJoint; jointID != nullIndex; jointID = w.joints[jointID].islandNext {
		w.joints[jointID].islandID = rootID
	}

	w.bodies[root.tailBody].islandNext = isl.headBody
	w.bodies[isl.headBody].islandPrev = root.tailBody
	root.tailBody = isl.tailBody
	root.bodyCount += isl.bodyCount

	if root.headContact == nullIndex {
		root.headContact = isl.headContact
		root.tailContact = isl.tailContact
		root.contactCount = isl.contactCount
	} else if isl.headContact != nullIndex {
		w.contacts[root.tailContact].islandNext = isl.headContact
		w.contacts[isl.headContact].islandPrev = root.tailContact
		root.tailContact = isl.tailContact
		root.contactCount += isl.contactCount
	}

	if root.headJoint == nullIndex {
		root.headJoint = isl.headJoint
		root.tailJoint = isl.tailJoint
		root.jointCount = isl.jointCount
	} else if isl.headJoint != nullIndex {
		w.joints[root.tailJoint].islandNext = isl.headJoint
		w.joints[isl.headJoint].islandPrev = root.tailJoint
		root.tailJoint = isl.tailJoint
		root.jointCount += isl.jointCount
	}

	root.constraintRemoveCount += isl.constraintRemoveCount
}

// mergeAwakeIslands merges every awake island into its root and frees the
// children.
func (w *World) mergeAwakeIslands() {
	awake := &w.solverSets[awakeSet]

	// point every child straight at its root first, so a child never merges
	// into a parent that was itself merged away
	for _, sim := range awake.islandSims {
		isl := &w.islands[sim.islandID]
		if isl.parentIsland != nullIndex {
			isl.parentIsland = w.rootIsland(sim.islandID)
		}
	}

	// reverse order since destroyIsland swap-removes from the awake set
	for i := len(awake.islandSims) - 1; i >= 0; i-- {
		islandID := awake.islandSims[i].islandID
		isl := &w.islands[islandID]
		if isl.parentIsland == nullIndex {
			continue
		}
		w.mergeIsland(isl)
		w.destroyIsland(islandID)
	}
}

// splitIsland rebuilds an awake island that lost constraints as one island
// per connected component, using a depth first search from every body.
func (w *World) splitIsland(baseID int) {
	base := &w.islands[baseID]
	setIndex := base.setIndex
	if setIndex != awakeSet || base.constraintRemoveCount == 0 {
		return
	}

	bodyIDs := make([]int, 0, base.bodyCount)
	for bodyID := base.headBody; bodyID != nullIndex; bodyID = w.bodies[bodyID].islandNext {
		w.bodies[bodyID].isMarked = false
		bodyIDs = append(bodyIDs, bodyID)
	}
	for contactID := base.headContact; contactID != nullIndex; contactID = w.contacts[contactID].islandNext {
		w.contacts[contactID].isMarked = false
	}
	for jointID := base.headJoint; jointID != nullIndex; jointID = w.joints[jointID].islandNext {
		w.joints[jointID].isMarked = false
	}

	w.destroyIsland(baseID)

	stack := make([]int, 0, len(bodyIDs))
	for _, seedID := range bodyIDs {
		seed := &w.bodies[seedID]
		if seed.isMarked {
			continue
		}

		stack = append(stack[:0], seedID)
		seed.isMarked = true

		isl := w.createIsland(setIndex)
		islandID := isl.id

		for len(stack) > 0 {
			bodyID := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			b := &w.bodies[bodyID]
			b.islandID = islandID
			if isl.tailBody != nullIndex {
				w.bodies[isl.tailBody].islandNext = bodyID
			}
			b.islandPrev = isl.tailBody
			b.islandNext = nullIndex
			isl.tailBody = bodyID
			if isl.headBody == nullIndex {
				isl.headBody = bodyID
			}
			isl.bodyCount++

			for contactKey := b.headContactKey; contactKey != nullIndex; {
				edgeIndex := contactKey & 1
				c := &w.contacts[contactKey>>1]
				contactKey = c.edges[edgeIndex].nextKey

				if c.isMarked || c.flags&contactSensor != 0 || c.flags&contactTouching == 0 {
					continue
				}
				c.isMarked = true

				other := &w.bodies[c.edges[edgeIndex^1].bodyID]
				if !other.isMarked && other.setIndex != staticSet {
					stack = append(stack, other.id)
					other.isMarked = true
				}

				c.islandID = islandID
				if isl.tailContact != nullIndex {
					w.contacts[isl.tailContact].islandNext = c.id
				}
				c.islandPrev = isl.tailContact
				c.islandNext = nullIndex
				isl.tailContact = c.id
				if isl.headContact == nullIndex {
					isl.headContact = c.id
				}
				isl.contactCount++
			}

			for jointKey := b.headJointKey; jointKey != nullIndex; {
				edgeIndex := jointKey & 1
				j := &w.joints[jointKey>>1]
				jointKey = j.edges[edgeIndex].nextKey

				if j.isMarked {
					continue
				}
				j.isMarked = true

				other := &w.bodies[j.edges[edgeIndex^1].bodyID]
				if other.setIndex == disabledSet {
					continue
				}
				if !other.isMarked && other.setIndex == awakeSet {
					stack = append(stack, other.id)
					other.isMarked = true
				}

				j.islandID = islandID
				if isl.tailJoint != nullIndex {
					w.joints[isl.tailJoint].islandNext = j.id
				}
				j.islandPrev = isl.tailJoint
				j.islandNext = nullIndex
				isl.tailJoint = j.id
				if isl.headJoint == nullIndex {
					isl.headJoint = j.id
				}
				isl.jointCount++
			}
		}
	}

	w.logger.Debug("island split", "island", baseID, "bodies", len(bodyIDs))
}
