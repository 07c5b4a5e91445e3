package tree

import (
	"fmt"
	"math"

	"github.com/akmonengine/feather2d/geom"
)

const binCount = 64

type treeBin struct {
	aabb  geom.AABB
	count int
}

type treePlane struct {
	leftAABB   geom.AABB
	rightAABB  geom.AABB
	leftCount  int
	rightCount int
}

// partitionSAH splits leaves with a binned surface area heuristic along
// the widest axis of their centers and returns the split index. The three
// slices are reordered together.
func partitionSAH(indices []int, boxes []geom.AABB, centers []geom.Vec2) int {
	count := len(indices)
	if count <= 2 {
		return count / 2
	}

	lower := centers[0]
	upper := centers[0]
	for i := 1; i < count; i++ {
		lower = geom.Min(lower, centers[i])
		upper = geom.Max(upper, centers[i])
	}

	d := upper.Sub(lower)
	axis := 0
	if d[1] > d[0] {
		axis = 1
	}

	// coincident centers
	if d[axis] <= 0 {
		return count / 2
	}

	binScale := binCount / d[axis]
	binIndex := func(c geom.Vec2) int {
		return geom.Clamp(int(binScale*(c[axis]-lower[axis])), 0, binCount-1)
	}

	var bins [binCount]treeBin
	for i := 0; i < count; i++ {
		b := binIndex(centers[i])
		if bins[b].count == 0 {
			bins[b].aabb = boxes[i]
		} else {
			bins[b].aabb = bins[b].aabb.Union(boxes[i])
		}
		bins[b].count++
	}

	var planes [binCount - 1]treePlane

	// left to right sweep
	count0, aabb0 := 0, geom.AABB{}
	for i := 0; i < binCount-1; i++ {
		if bins[i].count > 0 {
			if count0 == 0 {
				aabb0 = bins[i].aabb
			} else {
				aabb0 = aabb0.Union(bins[i].aabb)
			}
			count0 += bins[i].count
		}
		planes[i].leftCount = count0
		planes[i].leftAABB = aabb0
	}

	// right to left sweep
	count0, aabb0 = 0, geom.AABB{}
	for i := binCount - 1; i > 0; i-- {
		if bins[i].count > 0 {
			if count0 == 0 {
				aabb0 = bins[i].aabb
			} else {
				aabb0 = aabb0.Union(bins[i].aabb)
			}
			count0 += bins[i].count
		}
		planes[i-1].rightCount = count0
		planes[i-1].rightAABB = aabb0
	}

	bestCost := math.MaxFloat64
	bestPlane := 0
	for i := 0; i < binCount-1; i++ {
		p := &planes[i]
		if p.leftCount == 0 || p.rightCount == 0 {
			continue
		}
		cost := float64(p.leftCount)*p.leftAABB.Perimeter() + float64(p.rightCount)*p.rightAABB.Perimeter()
		if cost < bestCost {
			bestCost = cost
			bestPlane = i
		}
	}

	// partition node indices and boxes using the selected plane
	i1, i2 := 0, count
	for i1 < i2 {
		for i1 < i2 && binIndex(centers[i1]) <= bestPlane {
			i1++
		}
		for i1 < i2 && binIndex(centers[i2-1]) > bestPlane {
			i2--
		}
		if i1 < i2 {
			indices[i1], indices[i2-1] = indices[i2-1], indices[i1]
			boxes[i1], boxes[i2-1] = boxes[i2-1], boxes[i1]
			centers[i1], centers[i2-1] = centers[i2-1], centers[i1]
			i1++
			i2--
		}
	}

	if i1 > 0 && i1 < count {
		return i1
	}
	return count / 2
}

// buildTree builds a subtree over the given leaves and returns its root.
func (t *DynamicTree) buildTree(indices []int, boxes []geom.AABB, centers []geom.Vec2) int {
	if len(indices) == 1 {
		return indices[0]
	}

	split := partitionSAH(indices, boxes, centers)

	child1 := t.buildTree(indices[:split], boxes[:split], centers[:split])
	child2 := t.buildTree(indices[split:], boxes[split:], centers[split:])

	index := t.allocateNode()
	t.nodes[index].child1 = child1
	t.nodes[index].child2 = child2
	t.nodes[child1].parent = index
	t.nodes[child2].parent = index
	t.refit(index)
	return index
}

// Rebuild rebuilds the enlarged part of the tree, or the whole tree when
// fullBuild is set. Subtrees that were never enlarged are kept as they
// are. It returns the number of leaves that were sorted.
func (t *DynamicTree) Rebuild(fullBuild bool) int {
	if t.root == NullNode || t.nodes[t.root].isLeaf() {
		return 0
	}
	if !t.nodes[t.root].enlarged && !fullBuild {
		return 0
	}

	t.leafIndices = t.leafIndices[:0]
	t.leafBoxes = t.leafBoxes[:0]
	t.leafCenters = t.leafCenters[:0]

	var buffer [stackSize]int
	stack := append(buffer[:0], t.root)

	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[nodeIndex]
		if n.isLeaf() || (!n.enlarged && !fullBuild) {
			t.leafIndices = append(t.leafIndices, nodeIndex)
			t.leafBoxes = append(t.leafBoxes, n.aabb)
			t.leafCenters = append(t.leafCenters, n.aabb.Center())

			// detach
			n.parent = NullNode
			continue
		}

		stack = append(stack, n.child1, n.child2)
		t.freeNode(nodeIndex)
	}

	leafCount := len(t.leafIndices)
	t.root = t.buildTree(t.leafIndices, t.leafBoxes, t.leafCenters)
	t.nodes[t.root].parent = NullNode

	return leafCount
}

// Validate checks the structure, the heights, the bounds and the free
// list of the tree.
func (t *DynamicTree) Validate() error {
	if t.root == NullNode {
		if t.proxyCount != 0 {
			return fmt.Errorf("empty tree holds %d proxies", t.proxyCount)
		}
		return nil
	}

	if t.nodes[t.root].parent != NullNode {
		return fmt.Errorf("root %d has parent %d", t.root, t.nodes[t.root].parent)
	}

	leafCount := 0
	nodeCount := 0
	var walk func(index int) (int, error)
	walk = func(index int) (int, error) {
		n := &t.nodes[index]
		if !n.allocated {
			return 0, fmt.Errorf("node %d is reachable but free", index)
		}
		nodeCount++

		if n.isLeaf() {
			leafCount++
			if n.child1 != NullNode || n.child2 != NullNode {
				return 0, fmt.Errorf("leaf %d has children", index)
			}
			return 0, nil
		}

		for _, child := range [2]int{n.child1, n.child2} {
			if t.nodes[child].parent != index {
				return 0, fmt.Errorf("node %d has parent %d, expected %d", child, t.nodes[child].parent, index)
			}
			if !n.aabb.Contains(t.nodes[child].aabb) {
				return 0, fmt.Errorf("node %d does not contain child %d", index, child)
			}
		}

		if n.categoryBits != t.nodes[n.child1].categoryBits|t.nodes[n.child2].categoryBits {
			return 0, fmt.Errorf("node %d has stale category bits", index)
		}

		height1, err := walk(n.child1)
		if err != nil {
			return 0, err
		}
		height2, err := walk(n.child2)
		if err != nil {
			return 0, err
		}

		height := 1 + max(height1, height2)
		if n.height != height {
			return 0, fmt.Errorf("node %d has height %d, expected %d", index, n.height, height)
		}
		return height, nil
	}

	if _, err := walk(t.root); err != nil {
		return err
	}

	if leafCount != t.proxyCount {
		return fmt.Errorf("found %d leaves, expected %d", leafCount, t.proxyCount)
	}
	if nodeCount != t.nodeCount {
		return fmt.Errorf("found %d nodes, expected %d", nodeCount, t.nodeCount)
	}

	freeCount := 0
	for index := t.freeList; index != NullNode; index = t.nodes[index].parent {
		freeCount++
		if freeCount > len(t.nodes) {
			return fmt.Errorf("free list has a cycle")
		}
	}
	if freeCount+t.nodeCount != len(t.nodes) {
		return fmt.Errorf("free list holds %d nodes, expected %d", freeCount, len(t.nodes)-t.nodeCount)
	}

	return nil
}
