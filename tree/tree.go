// Package tree implements a dynamic AABB tree, the bounding volume
// hierarchy used by the broad phase.
//
// Leaves hold a proxy: a fat AABB, category bits and an integer of user
// data (the shape index). Internal nodes hold the union of their
// children. Insertion picks the sibling that minimizes the total
// perimeter of the tree (surface area heuristic, branch and bound) and
// rotates nodes on the way back up to keep the tree balanced. Rebuild
// discards internal nodes touched by enlargement and rebuilds them with
// a binned SAH partition.
//
// Node slots are recycled through a free list, so proxy ids are stable
// for the lifetime of a proxy and may be reused after DestroyProxy.
package tree

import (
	"fmt"
	"math"

	"github.com/akmonengine/feather2d/geom"
)

// NullNode is an absent node index.
const NullNode = -1

// DefaultCategoryBits matches every mask.
const DefaultCategoryBits = 1

const initialCapacity = 16

type node struct {
	aabb         geom.AABB
	categoryBits uint64

	// parent, or next free node when the slot is on the free list
	parent int
	child1 int
	child2 int

	userData int
	height   int

	allocated bool
	enlarged  bool
}

func (n *node) isLeaf() bool {
	return n.height == 0
}

// DynamicTree is a bounding volume hierarchy of fat AABBs.
type DynamicTree struct {
	nodes      []node
	root       int
	nodeCount  int
	proxyCount int
	freeList   int

	// scratch for Rebuild
	leafIndices []int
	leafBoxes   []geom.AABB
	leafCenters []geom.Vec2
}

// New creates an empty tree.
func New() *DynamicTree {
	t := &DynamicTree{root: NullNode}
	t.grow(initialCapacity)
	return t
}

// grow appends free nodes and links them into the free list.
func (t *DynamicTree) grow(capacity int) {
	start := len(t.nodes)
	if capacity <= start {
		return
	}
	t.nodes = append(t.nodes, make([]node, capacity-start)...)
	for i := start; i < capacity-1; i++ {
		t.nodes[i].parent = i + 1
	}
	t.nodes[capacity-1].parent = NullNode
	t.freeList = start
}

func (t *DynamicTree) allocateNode() int {
	if t.freeList == NullNode {
		t.grow(len(t.nodes) + len(t.nodes)/2 + 1)
	}

	index := t.freeList
	t.freeList = t.nodes[index].parent
	t.nodes[index] = node{
		parent:       NullNode,
		child1:       NullNode,
		child2:       NullNode,
		userData:     -1,
		categoryBits: DefaultCategoryBits,
		allocated:    true,
	}
	t.nodeCount++
	return index
}

func (t *DynamicTree) freeNode(index int) {
	t.nodes[index] = node{parent: t.freeList}
	t.freeList = index
	t.nodeCount--
}

// refit recomputes an internal node from its children.
func (t *DynamicTree) refit(index int) {
	n := &t.nodes[index]
	c1 := &t.nodes[n.child1]
	c2 := &t.nodes[n.child2]
	n.aabb = c1.aabb.Union(c2.aabb)
	n.categoryBits = c1.categoryBits | c2.categoryBits
	n.height = 1 + max(c1.height, c2.height)
	n.enlarged = c1.enlarged || c2.enlarged
}

// findBestSibling descends greedily from the root, bounding the cost of
// each subtree from below, and returns the node whose pairing with boxD
// adds the least perimeter to the tree.
func (t *DynamicTree) findBestSibling(boxD geom.AABB) int {
	centerD := boxD.Center()
	areaD := boxD.Perimeter()

	nodes := t.nodes
	rootIndex := t.root
	rootBox := nodes[rootIndex].aabb

	// area of the current node
	areaBase := rootBox.Perimeter()

	// area of the inflated node
	directCost := rootBox.Union(boxD).Perimeter()
	inheritedCost := 0.0

	bestSibling := rootIndex
	bestCost := directCost

	index := rootIndex
	for nodes[index].height > 0 {
		child1 := nodes[index].child1
		child2 := nodes[index].child2

		// cost of creating a new parent for this node and the new leaf
		cost := directCost + inheritedCost
		if cost < bestCost {
			bestSibling = index
			bestCost = cost
		}

		// inheritance cost seen by children
		inheritedCost += directCost - areaBase

		leaf1 := nodes[child1].isLeaf()
		leaf2 := nodes[child2].isLeaf()

		// cost of descending into child 1
		lowerCost1 := math.MaxFloat64
		box1 := nodes[child1].aabb
		directCost1 := box1.Union(boxD).Perimeter()
		area1 := 0.0
		if leaf1 {
			cost1 := directCost1 + inheritedCost
			if cost1 < bestCost {
				bestSibling = child1
				bestCost = cost1
			}
		} else {
			area1 = box1.Perimeter()

			// lower bound of inserting under child 1
			lowerCost1 = inheritedCost + directCost1 + min(areaD-area1, 0)
		}

		// cost of descending into child 2
		lowerCost2 := math.MaxFloat64
		box2 := nodes[child2].aabb
		directCost2 := box2.Union(boxD).Perimeter()
		area2 := 0.0
		if leaf2 {
			cost2 := directCost2 + inheritedCost
			if cost2 < bestCost {
				bestSibling = child2
				bestCost = cost2
			}
		} else {
			area2 = box2.Perimeter()
			lowerCost2 = inheritedCost + directCost2 + min(areaD-area2, 0)
		}

		if leaf1 && leaf2 {
			break
		}

		// can the cost possibly be decreased?
		if bestCost <= lowerCost1 && bestCost <= lowerCost2 {
			break
		}

		if lowerCost1 == lowerCost2 && !leaf1 {
			// Both children may fully contain D. Break the tie with the
			// distance between centers.
			lowerCost1 = geom.DistanceSquared(box1.Center(), centerD)
			lowerCost2 = geom.DistanceSquared(box2.Center(), centerD)
		}

		if lowerCost1 < lowerCost2 && !leaf1 {
			index = child1
			areaBase = area1
			directCost = directCost1
		} else {
			index = child2
			areaBase = area2
			directCost = directCost2
		}
	}

	return bestSibling
}

// swapNodes exchanges child x of a with grandchild y, where y is a child
// of p and p is the other child of a.
func (t *DynamicTree) swapNodes(a, x, p, y int) {
	nodeA := &t.nodes[a]
	if nodeA.child1 == x {
		nodeA.child1 = y
	} else {
		nodeA.child2 = y
	}

	nodeP := &t.nodes[p]
	if nodeP.child1 == y {
		nodeP.child1 = x
	} else {
		nodeP.child2 = x
	}

	t.nodes[x].parent = p
	t.nodes[y].parent = a

	t.refit(p)
	t.refit(a)
}

// rotateNodes performs the best of the four grandchild swaps under a
// when it lowers the perimeter of a's children.
func (t *DynamicTree) rotateNodes(a int) {
	nodeA := &t.nodes[a]
	if nodeA.height < 2 {
		return
	}

	b := nodeA.child1
	c := nodeA.child2
	nodeB := &t.nodes[b]
	nodeC := &t.nodes[c]

	if nodeB.isLeaf() {
		// B is a leaf and C is internal
		f := nodeC.child1
		g := nodeC.child2

		costBase := nodeC.aabb.Perimeter()
		// swapping B and F leaves C = B + G
		costBF := nodeB.aabb.Union(t.nodes[g].aabb).Perimeter()
		// swapping B and G leaves C = B + F
		costBG := nodeB.aabb.Union(t.nodes[f].aabb).Perimeter()

		if costBase < costBF && costBase < costBG {
			return
		}

		if costBF < costBG {
			t.swapNodes(a, b, c, f)
		} else {
			t.swapNodes(a, b, c, g)
		}
		return
	}

	if nodeC.isLeaf() {
		// C is a leaf and B is internal
		d := nodeB.child1
		e := nodeB.child2

		costBase := nodeB.aabb.Perimeter()
		// swapping C and D leaves B = C + E
		costCD := nodeC.aabb.Union(t.nodes[e].aabb).Perimeter()
		// swapping C and E leaves B = C + D
		costCE := nodeC.aabb.Union(t.nodes[d].aabb).Perimeter()

		if costBase < costCD && costBase < costCE {
			return
		}

		if costCD < costCE {
			t.swapNodes(a, c, b, d)
		} else {
			t.swapNodes(a, c, b, e)
		}
		return
	}

	d := nodeB.child1
	e := nodeB.child2
	f := nodeC.child1
	g := nodeC.child2

	areaB := nodeB.aabb.Perimeter()
	areaC := nodeC.aabb.Perimeter()
	bestCost := areaB + areaC

	type rotation struct{ x, p, y int }
	best := rotation{x: NullNode}

	candidates := [4]struct {
		cost float64
		rot  rotation
	}{
		{areaB + nodeB.aabb.Union(t.nodes[g].aabb).Perimeter(), rotation{b, c, f}},
		{areaB + nodeB.aabb.Union(t.nodes[f].aabb).Perimeter(), rotation{b, c, g}},
		{areaC + nodeC.aabb.Union(t.nodes[e].aabb).Perimeter(), rotation{c, b, d}},
		{areaC + nodeC.aabb.Union(t.nodes[d].aabb).Perimeter(), rotation{c, b, e}},
	}
	for _, candidate := range candidates {
		if candidate.cost < bestCost {
			bestCost = candidate.cost
			best = candidate.rot
		}
	}

	if best.x != NullNode {
		t.swapNodes(a, best.x, best.p, best.y)
	}
}

func (t *DynamicTree) insertLeaf(leaf int, shouldRotate bool) {
	if t.root == NullNode {
		t.root = leaf
		t.nodes[leaf].parent = NullNode
		return
	}

	// stage 1: find the best sibling for this node
	leafAABB := t.nodes[leaf].aabb
	sibling := t.findBestSibling(leafAABB)

	// stage 2: create a new parent for the leaf and sibling
	oldParent := t.nodes[sibling].parent
	newParent := t.allocateNode()

	np := &t.nodes[newParent]
	np.parent = oldParent
	np.aabb = leafAABB.Union(t.nodes[sibling].aabb)
	np.categoryBits = t.nodes[leaf].categoryBits | t.nodes[sibling].categoryBits
	np.height = t.nodes[sibling].height + 1
	np.child1 = sibling
	np.child2 = leaf

	if oldParent != NullNode {
		if t.nodes[oldParent].child1 == sibling {
			t.nodes[oldParent].child1 = newParent
		} else {
			t.nodes[oldParent].child2 = newParent
		}
	} else {
		t.root = newParent
	}
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent

	// stage 3: walk back up fixing heights and bounds
	index := t.nodes[leaf].parent
	for index != NullNode {
		t.refit(index)

		if shouldRotate {
			t.rotateNodes(index)
		}

		index = t.nodes[index].parent
	}
}

func (t *DynamicTree) removeLeaf(leaf int) {
	if leaf == t.root {
		t.root = NullNode
		return
	}

	parent := t.nodes[leaf].parent
	grandParent := t.nodes[parent].parent
	sibling := t.nodes[parent].child1
	if sibling == leaf {
		sibling = t.nodes[parent].child2
	}

	if grandParent == NullNode {
		t.root = sibling
		t.nodes[sibling].parent = NullNode
		t.freeNode(parent)
		return
	}

	// destroy parent and connect sibling to grandParent
	if t.nodes[grandParent].child1 == parent {
		t.nodes[grandParent].child1 = sibling
	} else {
		t.nodes[grandParent].child2 = sibling
	}
	t.nodes[sibling].parent = grandParent
	t.freeNode(parent)

	// adjust ancestor bounds, keeping enlargement marks for Rebuild
	for index := grandParent; index != NullNode; index = t.nodes[index].parent {
		n := &t.nodes[index]
		c1 := &t.nodes[n.child1]
		c2 := &t.nodes[n.child2]
		n.aabb = c1.aabb.Union(c2.aabb)
		n.categoryBits = c1.categoryBits | c2.categoryBits
		n.height = 1 + max(c1.height, c2.height)
	}
}

func mustBeValid(aabb geom.AABB) {
	if !aabb.IsValid() {
		panic(fmt.Sprintf("tree: invalid AABB %v", aabb))
	}
}

// CreateProxy inserts a leaf and returns its id. The AABB must be valid.
func (t *DynamicTree) CreateProxy(aabb geom.AABB, categoryBits uint64, userData int) int {
	mustBeValid(aabb)

	proxyID := t.allocateNode()
	n := &t.nodes[proxyID]
	n.aabb = aabb
	n.userData = userData
	n.categoryBits = categoryBits
	n.height = 0

	t.insertLeaf(proxyID, true)
	t.proxyCount++
	return proxyID
}

// DestroyProxy removes a leaf.
func (t *DynamicTree) DestroyProxy(proxyID int) {
	t.removeLeaf(proxyID)
	t.freeNode(proxyID)
	t.proxyCount--
}

// MoveProxy removes and reinserts a leaf with a new AABB.
func (t *DynamicTree) MoveProxy(proxyID int, aabb geom.AABB) {
	mustBeValid(aabb)

	t.removeLeaf(proxyID)
	t.nodes[proxyID].aabb = aabb
	t.insertLeaf(proxyID, false)
}

// EnlargeProxy grows a leaf and its ancestors in place. The new AABB must
// not be contained by the current one. Ancestors are marked enlarged so
// Rebuild can restore a good structure later.
func (t *DynamicTree) EnlargeProxy(proxyID int, aabb geom.AABB) {
	mustBeValid(aabb)

	nodes := t.nodes
	nodes[proxyID].aabb = aabb

	parentIndex := nodes[proxyID].parent
	for parentIndex != NullNode {
		changed := geom.EnlargeAABB(&nodes[parentIndex].aabb, aabb)
		nodes[parentIndex].enlarged = true
		parentIndex = nodes[parentIndex].parent

		if !changed {
			break
		}
	}

	for parentIndex != NullNode {
		if nodes[parentIndex].enlarged {
			// this ancestor was previously ascended and marked
			break
		}

		nodes[parentIndex].enlarged = true
		parentIndex = nodes[parentIndex].parent
	}
}

// SetCategoryBits changes the category of a leaf and its ancestors.
func (t *DynamicTree) SetCategoryBits(proxyID int, categoryBits uint64) {
	t.nodes[proxyID].categoryBits = categoryBits

	for index := t.nodes[proxyID].parent; index != NullNode; index = t.nodes[index].parent {
		n := &t.nodes[index]
		n.categoryBits = t.nodes[n.child1].categoryBits | t.nodes[n.child2].categoryBits
	}
}

// CategoryBits returns the category of a leaf.
func (t *DynamicTree) CategoryBits(proxyID int) uint64 {
	return t.nodes[proxyID].categoryBits
}

// UserData returns the user data of a leaf.
func (t *DynamicTree) UserData(proxyID int) int {
	return t.nodes[proxyID].userData
}

// FatAABB returns the stored AABB of a leaf.
func (t *DynamicTree) FatAABB(proxyID int) geom.AABB {
	return t.nodes[proxyID].aabb
}

// ProxyCount is the number of leaves.
func (t *DynamicTree) ProxyCount() int {
	return t.proxyCount
}

// Height is the height of the root, zero for an empty tree.
func (t *DynamicTree) Height() int {
	if t.root == NullNode {
		return 0
	}
	return t.nodes[t.root].height
}

// AreaRatio is the summed perimeter of internal nodes over the perimeter
// of the root, a quality metric for the tree.
func (t *DynamicTree) AreaRatio() float64 {
	if t.root == NullNode {
		return 0
	}

	rootArea := t.nodes[t.root].aabb.Perimeter()

	totalArea := 0.0
	for i := range t.nodes {
		n := &t.nodes[i]
		if !n.allocated || n.isLeaf() || i == t.root {
			continue
		}
		totalArea += n.aabb.Perimeter()
	}

	return totalArea / rootArea
}

// RootBounds is the AABB of the root.
func (t *DynamicTree) RootBounds() geom.AABB {
	if t.root == NullNode {
		return geom.AABB{}
	}
	return t.nodes[t.root].aabb
}

// ShiftOrigin translates every node by -newOrigin.
func (t *DynamicTree) ShiftOrigin(newOrigin geom.Vec2) {
	for i := range t.nodes {
		n := &t.nodes[i]
		if !n.allocated {
			continue
		}
		n.aabb.LowerBound = n.aabb.LowerBound.Sub(newOrigin)
		n.aabb.UpperBound = n.aabb.UpperBound.Sub(newOrigin)
	}
}
