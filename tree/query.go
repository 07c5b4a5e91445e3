package tree

import (
	"math"

	"github.com/akmonengine/feather2d/geom"
)

const stackSize = 1024

// QueryFunc is called for each leaf overlapping a query. Returning false
// terminates the query.
type QueryFunc func(proxyID int, userData int) bool

// RayCastFunc is called for each leaf hit by the ray bounds. The return
// value clips the ray: 0 terminates, a value in (0, MaxFraction) shortens
// the ray, and anything else continues unchanged. Returning -1 ignores the
// proxy.
type RayCastFunc func(input geom.RayCastInput, proxyID int, userData int) float64

// ShapeCastFunc follows the RayCastFunc contract for shape casts.
type ShapeCastFunc func(input geom.ShapeCastInput, proxyID int, userData int) float64

// Query visits every leaf whose AABB overlaps aabb and whose category
// bits intersect maskBits.
func (t *DynamicTree) Query(aabb geom.AABB, maskBits uint64, callback QueryFunc) {
	if t.root == NullNode {
		return
	}

	var buffer [stackSize]int
	stack := append(buffer[:0], t.root)

	for len(stack) > 0 {
		nodeID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[nodeID]
		if !n.aabb.Overlaps(aabb) || n.categoryBits&maskBits == 0 {
			continue
		}

		if n.isLeaf() {
			if !callback(nodeID, n.userData) {
				return
			}
			continue
		}

		stack = append(stack, n.child1, n.child2)
	}
}

// RayCast visits leaves whose AABB intersects the ray. The callback
// decides the exact hit against the proxy geometry.
func (t *DynamicTree) RayCast(input geom.RayCastInput, maskBits uint64, callback RayCastFunc) {
	if t.root == NullNode {
		return
	}

	p1 := input.Origin
	d := input.Translation

	r := geom.Normalize(d)

	// v is perpendicular to the segment
	v := geom.CrossSV(1, r)
	absV := geom.Abs(v)

	maxFraction := input.MaxFraction
	p2 := geom.MulAdd(p1, maxFraction, d)

	// bounding box of the segment
	segmentAABB := geom.AABB{LowerBound: geom.Min(p1, p2), UpperBound: geom.Max(p1, p2)}

	var buffer [stackSize]int
	stack := append(buffer[:0], t.root)

	subInput := input

	for len(stack) > 0 {
		nodeID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[nodeID]
		if !n.aabb.Overlaps(segmentAABB) || n.categoryBits&maskBits == 0 {
			continue
		}

		// separating axis for segment: |dot(v, p1 - c)| > dot(|v|, h)
		c := n.aabb.Center()
		h := n.aabb.Extents()
		term1 := math.Abs(v.Dot(p1.Sub(c)))
		term2 := absV.Dot(h)
		if term2 < term1 {
			continue
		}

		if !n.isLeaf() {
			stack = append(stack, n.child1, n.child2)
			continue
		}

		subInput.MaxFraction = maxFraction

		value := callback(subInput, nodeID, n.userData)
		if value == 0 {
			// the client terminated the ray cast
			return
		}

		if 0 < value && value < maxFraction {
			maxFraction = value
			p2 = geom.MulAdd(p1, maxFraction, d)
			segmentAABB.LowerBound = geom.Min(p1, p2)
			segmentAABB.UpperBound = geom.Max(p1, p2)
		}
	}
}

// ShapeCast visits leaves whose AABB intersects the swept bounds of the
// shape.
func (t *DynamicTree) ShapeCast(input geom.ShapeCastInput, maskBits uint64, callback ShapeCastFunc) {
	if t.root == NullNode || input.Count == 0 {
		return
	}

	originAABB := geom.AABB{LowerBound: input.Points[0], UpperBound: input.Points[0]}
	for i := 1; i < input.Count; i++ {
		originAABB.LowerBound = geom.Min(originAABB.LowerBound, input.Points[i])
		originAABB.UpperBound = geom.Max(originAABB.UpperBound, input.Points[i])
	}
	originAABB = originAABB.Fatten(input.Radius)

	p1 := originAABB.Center()
	extension := originAABB.Extents()

	// v is perpendicular to the segment
	r := input.Translation
	v := geom.CrossSV(1, r)
	absV := geom.Abs(v)

	maxFraction := input.MaxFraction

	// total box of the cast
	sweptAABB := func(fraction float64) geom.AABB {
		shift := input.Translation.Mul(fraction)
		return geom.AABB{
			LowerBound: geom.Min(originAABB.LowerBound, originAABB.LowerBound.Add(shift)),
			UpperBound: geom.Max(originAABB.UpperBound, originAABB.UpperBound.Add(shift)),
		}
	}
	totalAABB := sweptAABB(maxFraction)

	var buffer [stackSize]int
	stack := append(buffer[:0], t.root)

	subInput := input

	for len(stack) > 0 {
		nodeID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[nodeID]
		if !n.aabb.Overlaps(totalAABB) || n.categoryBits&maskBits == 0 {
			continue
		}

		// separating axis for segment, with the shape extent added to the node
		c := n.aabb.Center()
		h := n.aabb.Extents().Add(extension)
		term1 := math.Abs(v.Dot(p1.Sub(c)))
		term2 := absV.Dot(h)
		if term2 < term1 {
			continue
		}

		if !n.isLeaf() {
			stack = append(stack, n.child1, n.child2)
			continue
		}

		subInput.MaxFraction = maxFraction

		value := callback(subInput, nodeID, n.userData)
		if value == 0 {
			return
		}

		if 0 < value && value < maxFraction {
			maxFraction = value
			totalAABB = sweptAABB(maxFraction)
		}
	}
}
