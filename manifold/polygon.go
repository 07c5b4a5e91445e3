package manifold

import (
	"math"

	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/gjk"
)

func nextIndex(i, count int) int {
	if i+1 < count {
		return i + 1
	}
	return 0
}

// findMaxSeparation returns the edge of poly1 with the largest separation
// from poly2. Both polygons must be in the same frame.
func findMaxSeparation(poly1, poly2 *geom.Polygon) (int, float64) {
	bestIndex := 0
	maxSeparation := -math.MaxFloat64
	for i := 0; i < poly1.Count; i++ {
		n := poly1.Normals[i]
		v1 := poly1.Vertices[i]

		// deepest point of poly2 for normal i
		si := math.MaxFloat64
		for j := 0; j < poly2.Count; j++ {
			sij := n.Dot(poly2.Vertices[j].Sub(v1))
			if sij < si {
				si = sij
			}
		}

		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}
	return bestIndex, maxSeparation
}

// clipPolygons clips the incident edge against the side planes of the
// reference edge. The reference polygon is polyB when flip is set.
//
// Points are placed halfway between the two rounded surfaces and
// expressed in the shared local frame.
func clipPolygons(polyA, polyB *geom.Polygon, edgeA, edgeB int, flip bool) Manifold {
	var manifold Manifold

	var poly1, poly2 *geom.Polygon
	var i11, i12, i21, i22 int
	if flip {
		poly1, poly2 = polyB, polyA
		i11, i12 = edgeB, nextIndex(edgeB, polyB.Count)
		i21, i22 = edgeA, nextIndex(edgeA, polyA.Count)
	} else {
		poly1, poly2 = polyA, polyB
		i11, i12 = edgeA, nextIndex(edgeA, polyA.Count)
		i21, i22 = edgeB, nextIndex(edgeB, polyB.Count)
	}

	normal := poly1.Normals[i11]

	// reference edge
	v11 := poly1.Vertices[i11]
	v12 := poly1.Vertices[i12]

	// incident edge
	v21 := poly2.Vertices[i21]
	v22 := poly2.Vertices[i22]

	tangent := geom.CrossSV(1, normal)

	lower1 := 0.0
	upper1 := v12.Sub(v11).Dot(tangent)

	// incident edge points opposite of tangent due to CCW winding
	upper2 := v21.Sub(v11).Dot(tangent)
	lower2 := v22.Sub(v11).Dot(tangent)

	vLower := v22
	if lower2 < lower1 && upper2-lower2 > epsilon {
		vLower = geom.Lerp(v22, v21, (lower1-lower2)/(upper2-lower2))
	}

	vUpper := v21
	if upper2 > upper1 && upper2-lower2 > epsilon {
		vUpper = geom.Lerp(v22, v21, (upper1-lower2)/(upper2-lower2))
	}

	separationLower := vLower.Sub(v11).Dot(normal)
	separationUpper := vUpper.Sub(v11).Dot(normal)

	// midpoint between the rounded surfaces
	vLower = geom.MulAdd(vLower, 0.5*(poly1.Radius-poly2.Radius-separationLower), normal)
	vUpper = geom.MulAdd(vUpper, 0.5*(poly1.Radius-poly2.Radius-separationUpper), normal)

	radius := poly1.Radius + poly2.Radius

	add := func(anchor Vec2, separation float64, id uint16) {
		if separation > geom.SpeculativeDistance {
			return
		}
		mp := &manifold.Points[manifold.PointCount]
		mp.AnchorA = anchor
		mp.Separation = separation
		mp.ID = id
		manifold.PointCount++
	}

	if !flip {
		manifold.Normal = normal
		add(vLower, separationLower-radius, MakeID(i11, i22))
		add(vUpper, separationUpper-radius, MakeID(i12, i21))
	} else {
		manifold.Normal = geom.Neg(normal)
		add(vUpper, separationUpper-radius, MakeID(i21, i12))
		add(vLower, separationLower-radius, MakeID(i22, i11))
	}

	return manifold
}

// CollidePolygons computes the manifold between two convex polygons, which
// may be rounded. Capsules and segments are handled as two-vertex polygons.
//
// Algorithm:
//  1. Shift A to its first vertex and move B into that frame
//  2. Find the edge of maximum separation on each polygon (SAT)
//  3. Pick the reference edge, preferring A unless B is clearly better
//  4. Separated polygons whose closest features are vertices get a single
//     point along the vertex-vertex axis
//  5. Otherwise clip the incident edge against the reference edge
func CollidePolygons(polygonA geom.Polygon, xfA geom.Transform, polygonB geom.Polygon, xfB geom.Transform) Manifold {
	origin := polygonA.Vertices[0]

	// shift polyA to the origin
	sfA := geom.Transform{P: xfA.P.Add(geom.RotateVector(xfA.Q, origin)), Q: xfA.Q}
	xf := geom.InvMulTransforms(sfA, xfB)

	localPolyA := polygonA
	for i := 0; i < localPolyA.Count; i++ {
		localPolyA.Vertices[i] = localPolyA.Vertices[i].Sub(origin)
	}

	// put polyB in polyA's frame to reduce round-off error
	var localPolyB geom.Polygon
	localPolyB.Count = polygonB.Count
	localPolyB.Radius = polygonB.Radius
	for i := 0; i < localPolyB.Count; i++ {
		localPolyB.Vertices[i] = geom.TransformPoint(xf, polygonB.Vertices[i])
		localPolyB.Normals[i] = geom.RotateVector(xf.Q, polygonB.Normals[i])
	}

	edgeA, separationA := findMaxSeparation(&localPolyA, &localPolyB)
	edgeB, separationB := findMaxSeparation(&localPolyB, &localPolyA)

	radius := localPolyA.Radius + localPolyB.Radius

	if separationA > geom.SpeculativeDistance+radius || separationB > geom.SpeculativeDistance+radius {
		return Manifold{}
	}

	// find the incident edge
	var flip bool
	if separationB > separationA+0.1*geom.LinearSlop {
		flip = true

		searchDirection := localPolyB.Normals[edgeB]

		// incident edge on polyA
		minDot := math.MaxFloat64
		edgeA = 0
		for i := 0; i < localPolyA.Count; i++ {
			dot := searchDirection.Dot(localPolyA.Normals[i])
			if dot < minDot {
				minDot = dot
				edgeA = i
			}
		}
	} else {
		flip = false

		searchDirection := localPolyA.Normals[edgeA]

		// incident edge on polyB
		minDot := math.MaxFloat64
		edgeB = 0
		for i := 0; i < localPolyB.Count; i++ {
			dot := searchDirection.Dot(localPolyB.Normals[i])
			if dot < minDot {
				minDot = dot
				edgeB = i
			}
		}
	}

	var manifold Manifold

	// slop ensures vertex-vertex normals can be safely normalized
	if max(separationA, separationB) > 0.1*geom.LinearSlop {
		i11 := edgeA
		i12 := nextIndex(edgeA, localPolyA.Count)
		i21 := edgeB
		i22 := nextIndex(edgeB, localPolyB.Count)

		v11 := localPolyA.Vertices[i11]
		v12 := localPolyA.Vertices[i12]
		v21 := localPolyB.Vertices[i21]
		v22 := localPolyB.Vertices[i22]

		result := gjk.SegmentDistance(v11, v12, v21, v22)

		vertexVertex := func(vA, vB Vec2, id uint16) Manifold {
			var m Manifold
			distance := math.Sqrt(result.DistanceSquared)
			if distance > geom.SpeculativeDistance+radius {
				return m
			}

			normal := geom.Normalize(vB.Sub(vA))
			c1 := geom.MulAdd(vA, localPolyA.Radius, normal)
			c2 := geom.MulAdd(vB, -localPolyB.Radius, normal)

			m.Normal = normal
			m.Points[0].AnchorA = geom.Lerp(c1, c2, 0.5)
			m.Points[0].Separation = distance - radius
			m.Points[0].ID = id
			m.PointCount = 1
			return m
		}

		switch {
		case result.Fraction1 == 0 && result.Fraction2 == 0:
			manifold = vertexVertex(v11, v21, MakeID(i11, i21))
		case result.Fraction1 == 0 && result.Fraction2 == 1:
			manifold = vertexVertex(v11, v22, MakeID(i11, i22))
		case result.Fraction1 == 1 && result.Fraction2 == 0:
			manifold = vertexVertex(v12, v21, MakeID(i12, i21))
		case result.Fraction1 == 1 && result.Fraction2 == 1:
			manifold = vertexVertex(v12, v22, MakeID(i12, i22))
		default:
			// edge region
			manifold = clipPolygons(&localPolyA, &localPolyB, edgeA, edgeB, flip)
		}
	} else {
		// polygons overlap
		manifold = clipPolygons(&localPolyA, &localPolyB, edgeA, edgeB, flip)
	}

	manifold.toWorld(xfA, xfB, origin)
	return manifold
}

// CollidePolygonAndCapsule treats the capsule as a rounded two-vertex
// polygon.
func CollidePolygonAndCapsule(polygonA geom.Polygon, xfA geom.Transform, capsuleB geom.Capsule, xfB geom.Transform) Manifold {
	polyB := geom.MakeCapsule(capsuleB.Center1, capsuleB.Center2, capsuleB.Radius)
	return CollidePolygons(polygonA, xfA, polyB, xfB)
}

// CollideSegmentAndPolygon treats the segment as a two-vertex polygon.
func CollideSegmentAndPolygon(segmentA geom.Segment, xfA geom.Transform, polygonB geom.Polygon, xfB geom.Transform) Manifold {
	polyA := geom.MakeCapsule(segmentA.Point1, segmentA.Point2, 0)
	return CollidePolygons(polyA, xfA, polygonB, xfB)
}
