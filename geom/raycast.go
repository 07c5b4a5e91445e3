package geom

import "math"

// RayCastCircle casts a local ray against a circle. Rays starting inside
// the circle do not hit.
func RayCastCircle(input RayCastInput, shape Circle) CastOutput {
	var output CastOutput
	p := shape.Center

	// shift ray so circle center is the origin
	s := input.Origin.Sub(p)

	length, d := GetLengthAndNormalize(input.Translation)
	if length == 0 {
		return output
	}

	// closest point on the infinite ray to the center
	t := -s.Dot(d)
	c := MulAdd(s, t, d)

	cc := c.Dot(c)
	rr := shape.Radius * shape.Radius
	if cc > rr {
		return output
	}

	h := math.Sqrt(rr - cc)
	fraction := t - h

	if fraction < 0 || input.MaxFraction*length < fraction {
		return output
	}

	hitPoint := MulAdd(s, fraction, d)

	output.Fraction = fraction / length
	output.Normal = Normalize(hitPoint)
	output.Point = MulAdd(p, shape.Radius, output.Normal)
	output.Hit = true
	return output
}

// RayCastCapsule casts a local ray against a capsule.
func RayCastCapsule(input RayCastInput, shape Capsule) CastOutput {
	var output CastOutput

	v1 := shape.Center1
	v2 := shape.Center2
	e := v2.Sub(v1)

	capsuleLength, a := GetLengthAndNormalize(e)
	if capsuleLength < epsilon {
		return RayCastCircle(input, Circle{Center: v1, Radius: shape.Radius})
	}

	p1 := input.Origin
	d := input.Translation

	// ray from capsule start to ray start
	q := p1.Sub(v1)
	qa := q.Dot(a)

	// vector to ray start that is perpendicular to capsule axis
	qp := MulAdd(q, -qa, a)

	radius := shape.Radius

	// does the ray start within the infinite length capsule?
	if qp.Dot(qp) < radius*radius {
		if qa < 0 {
			return RayCastCircle(input, Circle{Center: v1, Radius: radius})
		}
		if qa > capsuleLength {
			return RayCastCircle(input, Circle{Center: v2, Radius: radius})
		}
		// ray starts inside capsule
		return output
	}

	// perpendicular to capsule axis, pointing right
	n := Vec2{a[1], -a[0]}

	rayLength, u := GetLengthAndNormalize(d)

	// Intersect ray with both sides of the infinite capsule:
	//   s1 * a - s2 * u = q -/+ radius * n
	// solved with Cramer's rule on [a -u].
	den := -a[0]*u[1] + u[0]*a[1]
	if -epsilon < den && den < epsilon {
		// ray is parallel to capsule and outside infinite length capsule
		return output
	}

	b1 := MulSub(q, radius, n)
	b2 := MulAdd(q, radius, n)

	invDen := 1.0 / den

	s21 := (a[0]*b1[1] - b1[0]*a[1]) * invDen
	s22 := (a[0]*b2[1] - b2[0]*a[1]) * invDen

	var s2 float64
	var b Vec2
	if s21 < s22 {
		s2 = s21
		b = b1
	} else {
		s2 = s22
		b = b2
		n = Neg(n)
	}

	if s2 < 0 || input.MaxFraction*rayLength < s2 {
		return output
	}

	// Cramer's rule [b -u]
	s1 := (-b[0]*u[1] + u[0]*b[1]) * invDen

	if s1 < 0 {
		return RayCastCircle(input, Circle{Center: v1, Radius: radius})
	} else if capsuleLength < s1 {
		return RayCastCircle(input, Circle{Center: v2, Radius: radius})
	}

	output.Fraction = s2 / rayLength
	output.Point = MulAdd(Lerp(v1, v2, s1/capsuleLength), radius, n)
	output.Normal = n
	output.Hit = true
	return output
}

// RayCastSegment casts a local ray against a segment. A one-sided segment
// only collides from its right side.
func RayCastSegment(input RayCastInput, shape Segment, oneSided bool) CastOutput {
	var output CastOutput

	if oneSided {
		offset := Cross(input.Origin.Sub(shape.Point1), shape.Point2.Sub(shape.Point1))
		if offset < 0 {
			return output
		}
	}

	p1 := input.Origin
	d := input.Translation

	v1 := shape.Point1
	v2 := shape.Point2
	e := v2.Sub(v1)

	length, eUnit := GetLengthAndNormalize(e)
	if length == 0 {
		return output
	}

	// normal points to the right, looking from v1 towards v2
	normal := RightPerp(eUnit)

	// dot(normal, p1 - v1) + t * dot(normal, d) = 0
	numerator := normal.Dot(v1.Sub(p1))
	denominator := normal.Dot(d)

	if denominator == 0 {
		// parallel
		return output
	}

	t := numerator / denominator
	if t < 0 || input.MaxFraction < t {
		return output
	}

	p := MulAdd(p1, t, d)

	s := p.Sub(v1).Dot(eUnit)
	if s < 0 || length < s {
		return output
	}

	if numerator > 0 {
		normal = Neg(normal)
	}

	output.Fraction = t
	output.Point = p
	output.Normal = normal
	output.Hit = true
	return output
}

// RayCastPolygon casts a local ray against a polygon without radius. Use
// gjk.RayCastPolygon for rounded polygons.
func RayCastPolygon(input RayCastInput, shape Polygon) CastOutput {
	var output CastOutput

	lower := 0.0
	upper := input.MaxFraction
	index := -1

	p1 := input.Origin
	d := input.Translation

	for i := 0; i < shape.Count; i++ {
		// dot(normal, p1 - v) + a * dot(normal, d) = 0
		numerator := shape.Normals[i].Dot(shape.Vertices[i].Sub(p1))
		denominator := shape.Normals[i].Dot(d)

		if denominator == 0 {
			if numerator < 0 {
				return output
			}
		} else {
			// The segment enters this half-space when denominator < 0 and
			// leaves it when denominator > 0.
			if denominator < 0 && numerator < lower*denominator {
				lower = numerator / denominator
				index = i
			} else if denominator > 0 && numerator < upper*denominator {
				upper = numerator / denominator
			}
		}

		if upper < lower {
			return output
		}
	}

	if index >= 0 {
		output.Fraction = lower
		output.Normal = shape.Normals[index]
		output.Point = MulAdd(p1, lower, d)
		output.Hit = true
	}
	return output
}
