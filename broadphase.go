package feather2d

import (
	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/internal/bitset"
	"github.com/akmonengine/feather2d/internal/pairset"
	"github.com/akmonengine/feather2d/tree"
)

// A proxy key packs the tree proxy id with the body type of its tree.
func proxyKeyOf(proxyID int, typ BodyType) int { return proxyID<<2 | int(typ) }
func proxyTypeOf(key int) BodyType           { return BodyType(key & 3) }
func proxyIDOf(key int) int                  { return key >> 2 }

type movePair struct {
	shapeIndexA int
	shapeIndexB int
}

// broadPhase keeps one tree per body type and the proxies moved since the
// last pair update. Pairs that already have a contact are in pairSet.
type broadPhase struct {
	trees [bodyTypeCount]*tree.DynamicTree

	moveSet     bitset.BitSet
	moveArray   []int
	moveResults [][]movePair

	pairSet *pairset.Set
}

func newBroadPhase() broadPhase {
	bp := broadPhase{
		moveSet: bitset.New(64),
		pairSet: pairset.New(32),
	}
	for i := range bp.trees {
		bp.trees[i] = tree.New()
	}
	return bp
}

func (bp *broadPhase) bufferMove(proxyKey int) {
	if bp.moveSet.Get(proxyKey) {
		return
	}
	bp.moveSet.Set(proxyKey)
	bp.moveArray = append(bp.moveArray, proxyKey)
}

func (bp *broadPhase) unBufferMove(proxyKey int) {
	if !bp.moveSet.Get(proxyKey) {
		return
	}
	bp.moveSet.Clear(proxyKey)
	for i, key := range bp.moveArray {
		if key == proxyKey {
			bp.moveArray, _ = swapRemove(bp.moveArray, i)
			return
		}
	}
}

// createProxy inserts a shape. Static proxies only look for pairs when
// forced, dynamic bodies find them when they move.
func (bp *broadPhase) createProxy(aabb geom.AABB, categoryBits uint64, shapeIndex int, typ BodyType, forcePairCreation bool) int {
	proxyID := bp.trees[typ].CreateProxy(aabb, categoryBits, shapeIndex)
	key := proxyKeyOf(proxyID, typ)
	if typ != StaticBody || forcePairCreation {
		bp.bufferMove(key)
	}
	return key
}

func (bp *broadPhase) destroyProxy(proxyKey int) {
	bp.unBufferMove(proxyKey)
	bp.trees[proxyTypeOf(proxyKey)].DestroyProxy(proxyIDOf(proxyKey))
}

func (bp *broadPhase) moveProxy(proxyKey int, aabb geom.AABB) {
	bp.trees[proxyTypeOf(proxyKey)].MoveProxy(proxyIDOf(proxyKey), aabb)
	bp.bufferMove(proxyKey)
}

func (bp *broadPhase) enlargeProxy(proxyKey int, aabb geom.AABB) {
	bp.trees[proxyTypeOf(proxyKey)].EnlargeProxy(proxyIDOf(proxyKey), aabb)
	bp.bufferMove(proxyKey)
}

func (bp *broadPhase) fatAABB(proxyKey int) geom.AABB {
	return bp.trees[proxyTypeOf(proxyKey)].FatAABB(proxyIDOf(proxyKey))
}

// rebuildTrees restores the movable trees after the enlargements of a step.
func (bp *broadPhase) rebuildTrees() {
	bp.trees[DynamicBody].Rebuild(false)
	bp.trees[KinematicBody].Rebuild(false)
}

// shouldBodiesCollide requires a dynamic body and no joint between the two
// bodies that disables collision. The shorter joint list is scanned.
func (w *World) shouldBodiesCollide(bodyA, bodyB *body) bool {
	if bodyA.typ != DynamicBody && bodyB.typ != DynamicBody {
		return false
	}

	jointKey, otherBodyID := bodyB.headJointKey, bodyA.id
	if bodyA.jointCount < bodyB.jointCount {
		jointKey, otherBodyID = bodyA.headJointKey, bodyB.id
	}

	for jointKey != nullIndex {
		edgeIndex := jointKey & 1
		j := &w.joints[jointKey>>1]
		if !j.collideConnected && j.edges[edgeIndex^1].bodyID == otherBodyID {
			return false
		}
		jointKey = j.edges[edgeIndex].nextKey
	}
	return true
}

// findPairs queries the trees with the fat AABB of one moved proxy. It only
// reads world state and runs in parallel.
func (w *World) findPairs(moveIndex int) []movePair {
	bp := &w.broadPhase
	pairs := bp.moveResults[moveIndex][:0]

	queryProxyKey := bp.moveArray[moveIndex]
	queryProxyType := proxyTypeOf(queryProxyKey)
	queryTree := bp.trees[queryProxyType]
	fatAABB := queryTree.FatAABB(proxyIDOf(queryProxyKey))
	queryShapeIndex := queryTree.UserData(proxyIDOf(queryProxyKey))

	var treeType BodyType
	callback := func(proxyID, shapeIndex int) bool {
		proxyKey := proxyKeyOf(proxyID, treeType)
		if proxyKey == queryProxyKey {
			return true
		}

		// when both proxies moved only one of them reports the pair
		if queryProxyType == DynamicBody {
			if treeType == DynamicBody && proxyKey < queryProxyKey && bp.moveSet.Get(proxyKey) {
				return true
			}
		} else if bp.moveSet.Get(proxyKey) {
			return true
		}

		if bp.pairSet.Contains(pairset.Key(shapeIndex, queryShapeIndex)) {
			return true
		}

		shapeIndexA, shapeIndexB := queryShapeIndex, shapeIndex
		if proxyKey < queryProxyKey {
			shapeIndexA, shapeIndexB = shapeIndex, queryShapeIndex
		}

		shapeA, shapeB := &w.shapes[shapeIndexA], &w.shapes[shapeIndexB]
		if !shouldShapesCollide(shapeA.filter, shapeB.filter) {
			return true
		}
		if shapeA.isSensor && shapeB.isSensor {
			return true
		}
		if shapeA.bodyID == shapeB.bodyID {
			return true
		}
		if !w.shouldBodiesCollide(&w.bodies[shapeA.bodyID], &w.bodies[shapeB.bodyID]) {
			return true
		}

		pairs = append(pairs, movePair{shapeIndexA: shapeIndexA, shapeIndexB: shapeIndexB})
		return true
	}

	// only dynamic proxies look into the kinematic and static trees
	if queryProxyType == DynamicBody {
		treeType = KinematicBody
		bp.trees[KinematicBody].Query(fatAABB, DefaultMaskBits, callback)
		treeType = StaticBody
		bp.trees[StaticBody].Query(fatAABB, DefaultMaskBits, callback)
	}
	treeType = DynamicBody
	bp.trees[DynamicBody].Query(fatAABB, DefaultMaskBits, callback)

	return pairs
}

// updateBroadPhasePairs creates a contact for every new overlapping pair
// touching a moved proxy. Queries run in parallel, contacts are created
// serially in move order so the result does not depend on the worker count.
func (w *World) updateBroadPhasePairs() {
	bp := &w.broadPhase
	moveCount := len(bp.moveArray)
	if moveCount == 0 {
		return
	}

	if cap(bp.moveResults) < moveCount {
		bp.moveResults = append(bp.moveResults[:cap(bp.moveResults)], make([][]movePair, moveCount-cap(bp.moveResults))...)
	}
	bp.moveResults = bp.moveResults[:moveCount]

	parallelFor(w.taskSystem, moveCount, 64, func(start, end, _ int) {
		for i := start; i < end; i++ {
			bp.moveResults[i] = w.findPairs(i)
		}
	})

	for _, pairs := range bp.moveResults {
		for _, pair := range pairs {
			w.createContact(&w.shapes[pair.shapeIndexA], &w.shapes[pair.shapeIndexB])
		}
	}

	for _, key := range bp.moveArray {
		bp.moveSet.Clear(key)
	}
	bp.moveArray = bp.moveArray[:0]
}

// RebuildStaticTree rebuilds the static tree from scratch, useful after
// adding or moving many static bodies.
func (w *World) RebuildStaticTree() {
	if !w.unlocked("RebuildStaticTree") {
		return
	}
	leafCount := w.broadPhase.trees[StaticBody].Rebuild(true)
	w.logger.Debug("static tree rebuilt", "leaves", leafCount)
}
