package manifold

import (
	"math"

	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/gjk"
)

// clipSegments computes two contact points between a reference segment
// a1-a2 and an incident segment b1-b2. The normal points from a to b and
// its left perpendicular runs from a1 to a2. The incident segment winds
// against the tangent, so b1 is ahead of b2.
func clipSegments(a1, a2, b1, b2, normal Vec2, ra, rb float64, id1, id2 uint16) Manifold {
	var manifold Manifold

	tangent := geom.LeftPerp(normal)

	// coordinates along the tangent relative to a1
	lower1 := 0.0
	upper1 := a2.Sub(a1).Dot(tangent)

	upper2 := b1.Sub(a1).Dot(tangent)
	lower2 := b2.Sub(a1).Dot(tangent)

	// segments must overlap along the tangent
	if upper2 < lower1 || upper1 < lower2 {
		return manifold
	}

	vLower := b2
	if lower2 < lower1 && upper2-lower2 > epsilon {
		vLower = geom.Lerp(b2, b1, (lower1-lower2)/(upper2-lower2))
	}

	vUpper := b1
	if upper2 > upper1 && upper2-lower2 > epsilon {
		vUpper = geom.Lerp(b2, b1, (upper1-lower2)/(upper2-lower2))
	}

	separationLower := vLower.Sub(a1).Dot(normal)
	separationUpper := vUpper.Sub(a1).Dot(normal)

	// midpoint between the rounded surfaces
	vLower = geom.MulAdd(vLower, 0.5*(ra-rb-separationLower), normal)
	vUpper = geom.MulAdd(vUpper, 0.5*(ra-rb-separationUpper), normal)

	radius := ra + rb

	manifold.Normal = normal
	manifold.Points[0].AnchorA = vLower
	manifold.Points[0].Separation = separationLower - radius
	manifold.Points[0].ID = id1

	manifold.Points[1].AnchorA = vUpper
	manifold.Points[1].Separation = separationUpper - radius
	manifold.Points[1].ID = id2
	manifold.PointCount = 2
	return manifold
}

// CollideCapsules computes the manifold between two capsules. Capsules
// whose cores overlap along each other's axis get two clipped points,
// otherwise a single point sits between the closest core points.
func CollideCapsules(capsuleA geom.Capsule, xfA geom.Transform, capsuleB geom.Capsule, xfB geom.Transform) Manifold {
	origin := capsuleA.Center1

	// shift capsuleA to the origin
	sfA := geom.Transform{P: xfA.P.Add(geom.RotateVector(xfA.Q, origin)), Q: xfA.Q}
	xf := geom.InvMulTransforms(sfA, xfB)

	p1 := geom.Zero
	q1 := capsuleA.Center2.Sub(origin)

	p2 := geom.TransformPoint(xf, capsuleB.Center1)
	q2 := geom.TransformPoint(xf, capsuleB.Center2)

	result := gjk.SegmentDistance(p1, q1, p2, q2)

	rA := capsuleA.Radius
	rB := capsuleB.Radius
	radius := rA + rB
	maxDistance := radius + geom.SpeculativeDistance
	if result.DistanceSquared > maxDistance*maxDistance {
		return Manifold{}
	}

	distance := math.Sqrt(result.DistanceSquared)

	length1, u1 := geom.GetLengthAndNormalize(q1.Sub(p1))
	length2, u2 := geom.GetLengthAndNormalize(q2.Sub(p2))

	// endpoint regions
	fp2 := p2.Sub(p1).Dot(u1)
	fq2 := q2.Sub(p1).Dot(u1)
	outsideA := (fp2 <= 0 && fq2 <= 0) || (fp2 >= length1 && fq2 >= length1)

	fp1 := p1.Sub(p2).Dot(u2)
	fq1 := q1.Sub(p2).Dot(u2)
	outsideB := (fp1 <= 0 && fq1 <= 0) || (fp1 >= length2 && fq1 >= length2)

	// side of A that faces B
	normal := geom.LeftPerp(u1)
	if distance > epsilon {
		if normal.Dot(result.Closest2.Sub(result.Closest1)) < 0 {
			normal = geom.Neg(normal)
		}
	} else if normal.Dot(geom.Lerp(p2, q2, 0.5)) < 0 {
		normal = geom.Neg(normal)
	}

	var manifold Manifold

	if !outsideA && !outsideB {
		tangent := geom.LeftPerp(normal)

		a1, a2 := p1, q1
		ia1, ia2 := 0, 1
		if q1.Sub(p1).Dot(tangent) < 0 {
			a1, a2 = q1, p1
			ia1, ia2 = 1, 0
		}

		b1, b2 := p2, q2
		ib1, ib2 := 0, 1
		if p2.Sub(a1).Dot(tangent) < q2.Sub(a1).Dot(tangent) {
			b1, b2 = q2, p2
			ib1, ib2 = 1, 0
		}

		clipped := clipSegments(a1, a2, b1, b2, normal, rA, rB, MakeID(ia1, ib2), MakeID(ia2, ib1))
		for i := 0; i < clipped.PointCount; i++ {
			if clipped.Points[i].Separation <= geom.SpeculativeDistance {
				manifold.Points[manifold.PointCount] = clipped.Points[i]
				manifold.PointCount++
			}
		}
		manifold.Normal = normal
	}

	if manifold.PointCount == 0 {
		// single point between the closest core points
		if distance > epsilon {
			normal = result.Closest2.Sub(result.Closest1).Mul(1 / distance)
		}

		cA := geom.MulAdd(result.Closest1, rA, normal)
		cB := geom.MulAdd(result.Closest2, -rB, normal)

		i1, i2 := 0, 0
		if result.Fraction1 > 0.5 {
			i1 = 1
		}
		if result.Fraction2 > 0.5 {
			i2 = 1
		}

		manifold.Normal = normal
		manifold.Points[0].AnchorA = geom.Lerp(cA, cB, 0.5)
		manifold.Points[0].Separation = distance - radius
		manifold.Points[0].ID = MakeID(i1, i2)
		manifold.PointCount = 1
	}

	manifold.toWorld(xfA, xfB, origin)
	return manifold
}

// CollideSegmentAndCapsule treats the segment as a capsule without radius.
func CollideSegmentAndCapsule(segmentA geom.Segment, xfA geom.Transform, capsuleB geom.Capsule, xfB geom.Transform) Manifold {
	capsuleA := geom.Capsule{Center1: segmentA.Point1, Center2: segmentA.Point2}
	return CollideCapsules(capsuleA, xfA, capsuleB, xfB)
}
