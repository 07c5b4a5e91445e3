package manifold

import (
	"math"

	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/gjk"
)

// CollideChainSegmentAndCircle collides a one-sided chain segment with a
// circle. Only the right side of the segment collides, and the ghost
// vertices reject contacts that belong to a neighboring segment.
func CollideChainSegmentAndCircle(segmentA geom.ChainSegment, xfA geom.Transform, circleB geom.Circle, xfB geom.Transform) Manifold {
	var manifold Manifold

	xf := geom.InvMulTransforms(xfA, xfB)

	// circle in the frame of the segment
	pB := geom.TransformPoint(xf, circleB.Center)

	p1 := segmentA.Segment.Point1
	p2 := segmentA.Segment.Point2
	e := p2.Sub(p1)

	// normal points to the right
	offset := geom.RightPerp(e).Dot(pB.Sub(p1))
	if offset < 0 {
		return manifold
	}

	// barycentric coordinates
	u := e.Dot(p2.Sub(pB))
	v := e.Dot(pB.Sub(p1))

	var pA Vec2
	switch {
	case v <= 0:
		// behind point1, pB may be in the region of the previous segment
		prevEdge := p1.Sub(segmentA.Ghost1)
		uPrev := prevEdge.Dot(pB.Sub(p1))
		if uPrev <= 0 {
			return manifold
		}
		pA = p1

	case u <= 0:
		// ahead of point2, pB may be in the region of the next segment
		nextEdge := segmentA.Ghost2.Sub(p2)
		vNext := nextEdge.Dot(pB.Sub(p2))
		if vNext > 0 {
			return manifold
		}
		pA = p2

	default:
		ee := e.Dot(e)
		if ee > 0 {
			pA = p1.Mul(u).Add(p2.Mul(v)).Mul(1 / ee)
		} else {
			pA = p1
		}
	}

	distance, normal := contactNormal(pB.Sub(pA))

	radius := circleB.Radius
	separation := distance - radius
	if separation > geom.SpeculativeDistance {
		return manifold
	}

	cA := pA
	cB := geom.MulAdd(pB, -radius, normal)
	contact := geom.Lerp(cA, cB, 0.5)

	manifold.Normal = geom.RotateVector(xfA.Q, normal)
	manifold.addLocalPoint(xfA, xfB, contact, separation, 0)
	return manifold
}

// CollideChainSegmentAndCapsule treats the capsule as a rounded polygon.
func CollideChainSegmentAndCapsule(segmentA geom.ChainSegment, xfA geom.Transform, capsuleB geom.Capsule, xfB geom.Transform, cache *gjk.SimplexCache) Manifold {
	polyB := geom.MakeCapsule(capsuleB.Center1, capsuleB.Center2, capsuleB.Radius)
	return CollideChainSegmentAndPolygon(segmentA, xfA, polyB, xfB, cache)
}

type normalType int

const (
	normalSkip normalType = iota
	normalAdmit
	normalSnap
)

type chainSegmentParams struct {
	edge1   Vec2
	normal0 Vec2
	normal2 Vec2
	convex1 bool
	convex2 bool
}

// classifyNormal evaluates the Gauss map of the chain around this
// segment: a normal that belongs to a convex neighbor is skipped, a
// normal in a concave corner snaps to the segment normal.
func classifyNormal(params chainSegmentParams, normal Vec2) normalType {
	const sinTol = 0.01

	if normal.Dot(params.edge1) <= 0 {
		// normal points towards the segment tail
		if params.convex1 {
			if geom.Cross(normal, params.normal0) > sinTol {
				return normalSkip
			}
			return normalAdmit
		}
		return normalSnap
	}

	// normal points towards the segment head
	if params.convex2 {
		if geom.Cross(params.normal2, normal) > sinTol {
			return normalSkip
		}
		return normalAdmit
	}
	return normalSnap
}

// CollideChainSegmentAndPolygon collides a one-sided chain segment with a
// rounded polygon. The cache warm starts the distance query across steps.
//
// The polygon may straddle several segments of a chain. Collisions whose
// normal belongs to a convex neighbor are left to that neighbor, and
// normals inside concave corners snap to this segment's normal, so a
// sliding box does not catch on the internal vertices of a flat chain.
func CollideChainSegmentAndPolygon(segmentA geom.ChainSegment, xfA geom.Transform, polygonB geom.Polygon, xfB geom.Transform, cache *gjk.SimplexCache) Manifold {
	var manifold Manifold

	xf := geom.InvMulTransforms(xfA, xfB)

	centroidB := geom.TransformPoint(xf, polygonB.Centroid)
	radiusB := polygonB.Radius

	p1 := segmentA.Segment.Point1
	p2 := segmentA.Segment.Point2

	edge1 := geom.Normalize(p2.Sub(p1))

	params := chainSegmentParams{edge1: edge1}

	const convexTol = 0.01
	edge0 := geom.Normalize(p1.Sub(segmentA.Ghost1))
	params.normal0 = geom.RightPerp(edge0)
	params.convex1 = geom.Cross(edge0, edge1) >= convexTol

	edge2 := geom.Normalize(segmentA.Ghost2.Sub(p2))
	params.normal2 = geom.RightPerp(edge2)
	params.convex2 = geom.Cross(edge1, edge2) >= convexTol

	// normal points to the right
	normal1 := geom.RightPerp(edge1)
	behind1 := normal1.Dot(centroidB.Sub(p1)) < 0
	behind0 := true
	behind2 := true
	if params.convex1 {
		behind0 = params.normal0.Dot(centroidB.Sub(p1)) < 0
	}
	if params.convex2 {
		behind2 = params.normal2.Dot(centroidB.Sub(p2)) < 0
	}

	if behind1 && behind0 && behind2 {
		// one-sided collision
		return manifold
	}

	// polygonB in frameA
	count := polygonB.Count
	var vertices, normals [geom.MaxPolygonVertices]Vec2
	for i := 0; i < count; i++ {
		vertices[i] = geom.TransformPoint(xf, polygonB.Vertices[i])
		normals[i] = geom.RotateVector(xf.Q, polygonB.Normals[i])
	}

	// distance does not work correctly with partial polygons
	input := gjk.DistanceInput{
		ProxyA:     gjk.MakeProxy([]Vec2{p1, p2}, 0),
		ProxyB:     gjk.MakeProxy(vertices[:count], 0),
		TransformA: geom.TransformIdentity,
		TransformB: geom.TransformIdentity,
	}
	output := gjk.ShapeDistance(cache, &input)

	if output.Distance > radiusB+geom.SpeculativeDistance {
		return manifold
	}

	// snap concave normals for the partial polygon
	n0 := normal1
	if params.convex1 {
		n0 = params.normal0
	}
	n2 := normal1
	if params.convex2 {
		n2 = params.normal2
	}

	// index of the incident vertex on the polygon
	incidentIndex := -1
	incidentNormal := -1

	finish := func(m Manifold) Manifold {
		m.toWorld(xfA, xfB, geom.Zero)
		return m
	}

	if !behind1 && output.Distance > 0.1*geom.LinearSlop {
		// The closest features may be two vertices or an edge and a vertex
		// even when there should be two vertices.
		if cache.Count == 1 {
			// vertex-vertex collision
			pA := output.PointA
			pB := output.PointB

			normal := geom.Normalize(pB.Sub(pA))

			switch classifyNormal(params, normal) {
			case normalSkip:
				return manifold
			case normalAdmit:
				manifold.Normal = geom.RotateVector(xfA.Q, normal)
				manifold.addLocalPoint(xfA, xfB, pA, output.Distance-radiusB, MakeID(int(cache.IndexA[0]), int(cache.IndexB[0])))
				return manifold
			}

			// snap
			incidentIndex = int(cache.IndexB[0])
		} else {
			// vertex-edge collision
			ia1 := int(cache.IndexA[0])
			ia2 := int(cache.IndexA[1])
			ib1 := int(cache.IndexB[0])
			ib2 := int(cache.IndexB[1])

			if ia1 == ia2 {
				// one point on A, two on B

				// polygon normal most aligned with the closest points axis
				normalB := output.PointA.Sub(output.PointB)
				dot1 := normalB.Dot(normals[ib1])
				dot2 := normalB.Dot(normals[ib2])
				ib := ib2
				if dot1 > dot2 {
					ib = ib1
				}

				// use the accurate normal
				normalB = normals[ib]

				switch classifyNormal(params, geom.Neg(normalB)) {
				case normalSkip:
					return manifold
				case normalAdmit:
					// polygon edge associated with the normal
					ib1 = ib
					ib2 = nextIndex(ib, count)

					b1 := vertices[ib1]
					b2 := vertices[ib2]

					// incident segment vertex
					dot1 := normalB.Dot(p1.Sub(b1))
					dot2 := normalB.Dot(p2.Sub(b1))

					if dot1 < dot2 {
						if n0.Dot(normalB) < normal1.Dot(normalB) {
							// neighbor is incident
							return manifold
						}
					} else if n2.Dot(normalB) < normal1.Dot(normalB) {
						// neighbor is incident
						return manifold
					}

					manifold = clipSegments(b1, b2, p1, p2, normalB, radiusB, 0, MakeID(ib1, 1), MakeID(ib2, 0))
					manifold.Normal = geom.Neg(normalB)
					return finish(manifold)
				}

				// snap
				incidentNormal = ib
			} else {
				// incident polygon vertex
				dot1 := normal1.Dot(vertices[ib1].Sub(p1))
				dot2 := normal1.Dot(vertices[ib2].Sub(p2))
				incidentIndex = ib2
				if dot1 < dot2 {
					incidentIndex = ib1
				}
			}
		}
	} else {
		// SAT edge normal
		edgeSeparation := math.MaxFloat64

		for i := 0; i < count; i++ {
			s := normal1.Dot(vertices[i].Sub(p1))
			if s < edgeSeparation {
				edgeSeparation = s
				incidentIndex = i
			}
		}

		// check convex neighbors for edge separation
		if params.convex1 {
			s0 := math.MaxFloat64
			for i := 0; i < count; i++ {
				s0 = min(s0, params.normal0.Dot(vertices[i].Sub(p1)))
			}

			if s0 > edgeSeparation {
				edgeSeparation = s0

				// the neighbor owns the edge separation
				incidentIndex = -1
			}
		}

		if params.convex2 {
			s2 := math.MaxFloat64
			for i := 0; i < count; i++ {
				s2 = min(s2, params.normal2.Dot(vertices[i].Sub(p2)))
			}

			if s2 > edgeSeparation {
				edgeSeparation = s2
				incidentIndex = -1
			}
		}

		// SAT polygon normal
		polygonSeparation := -math.MaxFloat64
		referenceIndex := -1

		for i := 0; i < count; i++ {
			n := normals[i]

			if classifyNormal(params, geom.Neg(n)) != normalAdmit {
				continue
			}

			p := vertices[i]
			s := min(n.Dot(p2.Sub(p)), n.Dot(p1.Sub(p)))

			if s > polygonSeparation {
				polygonSeparation = s
				referenceIndex = i
			}
		}

		if polygonSeparation > edgeSeparation {
			ia1 := referenceIndex
			ia2 := nextIndex(ia1, count)
			a1 := vertices[ia1]
			a2 := vertices[ia2]

			n := normals[ia1]

			dot1 := n.Dot(p1.Sub(a1))
			dot2 := n.Dot(p2.Sub(a1))

			if dot1 < dot2 {
				if n0.Dot(n) < normal1.Dot(n) {
					// neighbor is incident
					return manifold
				}
			} else if n2.Dot(n) < normal1.Dot(n) {
				// neighbor is incident
				return manifold
			}

			manifold = clipSegments(a1, a2, p1, p2, n, radiusB, 0, MakeID(ia1, 1), MakeID(ia2, 0))
			manifold.Normal = geom.Neg(n)
			return finish(manifold)
		}

		if incidentIndex == -1 {
			// the neighboring segment is the separating axis
			return manifold
		}
	}

	// segment normal

	// incident polygon edge: adjacent to the deepest vertex and most
	// anti-parallel to the segment normal
	var b1, b2 Vec2
	var ib1, ib2 int

	if incidentNormal != -1 {
		ib1 = incidentNormal
		ib2 = nextIndex(ib1, count)
		b1 = vertices[ib1]
		b2 = vertices[ib2]
	} else {
		i2 := incidentIndex
		i1 := count - 1
		if i2 > 0 {
			i1 = i2 - 1
		}
		d1 := normal1.Dot(normals[i1])
		d2 := normal1.Dot(normals[i2])
		if d1 < d2 {
			ib1, ib2 = i1, i2
		} else {
			ib1, ib2 = i2, nextIndex(i2, count)
		}
		b1 = vertices[ib1]
		b2 = vertices[ib2]
	}

	manifold = clipSegments(p1, p2, b1, b2, normal1, 0, radiusB, MakeID(0, ib2), MakeID(1, ib1))
	return finish(manifold)
}
