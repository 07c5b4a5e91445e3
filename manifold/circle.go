package manifold

import (
	"math"

	"github.com/akmonengine/feather2d/geom"
)

// contactNormal normalizes d, falling back to the x-axis for coincident
// points.
func contactNormal(d Vec2) (float64, Vec2) {
	distance, normal := geom.GetLengthAndNormalize(d)
	if distance == 0 {
		normal = Vec2{1, 0}
	}
	return distance, normal
}

// CollideCircles computes the manifold of two circles.
func CollideCircles(circleA geom.Circle, xfA geom.Transform, circleB geom.Circle, xfB geom.Transform) Manifold {
	var manifold Manifold

	xf := geom.InvMulTransforms(xfA, xfB)

	pointA := circleA.Center
	pointB := geom.TransformPoint(xf, circleB.Center)

	distance, normal := contactNormal(pointB.Sub(pointA))

	radiusA := circleA.Radius
	radiusB := circleB.Radius

	separation := distance - radiusA - radiusB
	if separation > geom.SpeculativeDistance {
		return manifold
	}

	cA := geom.MulAdd(pointA, radiusA, normal)
	cB := geom.MulAdd(pointB, -radiusB, normal)
	contact := geom.Lerp(cA, cB, 0.5)

	manifold.Normal = geom.RotateVector(xfA.Q, normal)
	manifold.addLocalPoint(xfA, xfB, contact, separation, 0)
	return manifold
}

// CollideCapsuleAndCircle computes the manifold between a capsule and a
// circle.
func CollideCapsuleAndCircle(capsuleA geom.Capsule, xfA geom.Transform, circleB geom.Circle, xfB geom.Transform) Manifold {
	var manifold Manifold

	xf := geom.InvMulTransforms(xfA, xfB)

	// circle position in the frame of the capsule
	pB := geom.TransformPoint(xf, circleB.Center)

	// closest point on the capsule core
	p1 := capsuleA.Center1
	p2 := capsuleA.Center2

	e := p2.Sub(p1)

	var pA Vec2
	s1 := pB.Sub(p1).Dot(e)
	s2 := p2.Sub(pB).Dot(e)
	if s1 < 0 {
		pA = p1
	} else if s2 < 0 {
		pA = p2
	} else {
		s := s1 / e.Dot(e)
		pA = geom.MulAdd(p1, s, e)
	}

	distance, normal := contactNormal(pB.Sub(pA))

	radiusA := capsuleA.Radius
	radiusB := circleB.Radius
	separation := distance - radiusA - radiusB
	if separation > geom.SpeculativeDistance {
		return manifold
	}

	cA := geom.MulAdd(pA, radiusA, normal)
	cB := geom.MulAdd(pB, -radiusB, normal)
	contact := geom.Lerp(cA, cB, 0.5)

	manifold.Normal = geom.RotateVector(xfA.Q, normal)
	manifold.addLocalPoint(xfA, xfB, contact, separation, 0)
	return manifold
}

// CollidePolygonAndCircle computes the manifold between a polygon and a
// circle. The polygon may be rounded.
func CollidePolygonAndCircle(polygonA geom.Polygon, xfA geom.Transform, circleB geom.Circle, xfB geom.Transform) Manifold {
	var manifold Manifold
	const speculativeDistance = geom.SpeculativeDistance

	xf := geom.InvMulTransforms(xfA, xfB)

	// circle position in the frame of the polygon
	c := geom.TransformPoint(xf, circleB.Center)
	radiusA := polygonA.Radius
	radiusB := circleB.Radius
	radius := radiusA + radiusB

	// find the min separating edge
	normalIndex := 0
	separation := -math.MaxFloat64
	vertexCount := polygonA.Count
	vertices := polygonA.Vertices
	normals := polygonA.Normals

	for i := 0; i < vertexCount; i++ {
		s := normals[i].Dot(c.Sub(vertices[i]))
		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	if separation-radius > speculativeDistance {
		return manifold
	}

	// vertices of the reference edge
	vertIndex1 := normalIndex
	vertIndex2 := 0
	if vertIndex1+1 < vertexCount {
		vertIndex2 = vertIndex1 + 1
	}
	v1 := vertices[vertIndex1]
	v2 := vertices[vertIndex2]

	// compute barycentric coordinates
	u1 := c.Sub(v1).Dot(v2.Sub(v1))
	u2 := c.Sub(v2).Dot(v1.Sub(v2))

	if u1 < 0 && separation > epsilon {
		// circle center is closest to v1 and safely outside the polygon
		normal := geom.Normalize(c.Sub(v1))
		separation = c.Sub(v1).Dot(normal)
		if separation-radius > speculativeDistance {
			return manifold
		}

		cA := geom.MulAdd(v1, radiusA, normal)
		cB := geom.MulSub(c, radiusB, normal)
		contact := geom.Lerp(cA, cB, 0.5)

		manifold.Normal = geom.RotateVector(xfA.Q, normal)
		manifold.addLocalPoint(xfA, xfB, contact, cB.Sub(cA).Dot(normal), 0)
		return manifold
	}

	if u2 < 0 && separation > epsilon {
		// circle center is closest to v2 and safely outside the polygon
		normal := geom.Normalize(c.Sub(v2))
		separation = c.Sub(v2).Dot(normal)
		if separation-radius > speculativeDistance {
			return manifold
		}

		cA := geom.MulAdd(v2, radiusA, normal)
		cB := geom.MulSub(c, radiusB, normal)
		contact := geom.Lerp(cA, cB, 0.5)

		manifold.Normal = geom.RotateVector(xfA.Q, normal)
		manifold.addLocalPoint(xfA, xfB, contact, cB.Sub(cA).Dot(normal), 0)
		return manifold
	}

	// circle center is between v1 and v2, possibly inside the polygon
	normal := normals[normalIndex]

	// projection of the circle center onto the reference edge
	cA := geom.MulAdd(c, radiusA-c.Sub(v1).Dot(normal), normal)

	// deepest point on the circle with respect to the reference edge
	cB := geom.MulSub(c, radiusB, normal)

	contact := geom.Lerp(cA, cB, 0.5)

	manifold.Normal = geom.RotateVector(xfA.Q, normal)
	manifold.addLocalPoint(xfA, xfB, contact, separation-radius, 0)
	return manifold
}

// CollideSegmentAndCircle treats the segment as a capsule without radius.
func CollideSegmentAndCircle(segmentA geom.Segment, xfA geom.Transform, circleB geom.Circle, xfB geom.Transform) Manifold {
	capsuleA := geom.Capsule{Center1: segmentA.Point1, Center2: segmentA.Point2}
	return CollideCapsuleAndCircle(capsuleA, xfA, circleB, xfB)
}
