package geom

import "math"

// Circle is a solid circle.
type Circle struct {
	Center Vec2
	Radius float64
}

// Capsule is two semicircles joined by a rectangle.
type Capsule struct {
	Center1 Vec2
	Center2 Vec2
	Radius  float64
}

// Polygon is a solid convex polygon with an optional rounding radius.
// Vertices are counter-clockwise. A polygon with two vertices is a capsule.
type Polygon struct {
	Vertices [MaxPolygonVertices]Vec2
	Normals  [MaxPolygonVertices]Vec2
	Centroid Vec2
	Radius   float64
	Count    int
}

// Segment is a line segment with two-sided collision.
type Segment struct {
	Point1 Vec2
	Point2 Vec2
}

// ChainSegment is a one-sided segment with ghost vertices that smooth
// collision across neighboring segments of a chain.
type ChainSegment struct {
	Ghost1  Vec2
	Segment Segment
	Ghost2  Vec2
	ChainID int
}

// MassData holds the mass properties computed from a shape.
type MassData struct {
	Mass              float64
	Center            Vec2
	RotationalInertia float64
}

// RayCastInput is a ray from Origin to Origin+Translation*MaxFraction.
type RayCastInput struct {
	Origin      Vec2
	Translation Vec2
	MaxFraction float64
}

// ShapeCastInput sweeps a convex point cloud with a radius along
// Translation.
type ShapeCastInput struct {
	Points      [MaxPolygonVertices]Vec2
	Count       int
	Radius      float64
	Translation Vec2
	MaxFraction float64
}

// CastOutput is the result of a ray or shape cast.
type CastOutput struct {
	Normal     Vec2
	Point      Vec2
	Fraction   float64
	Iterations int
	Hit        bool
}

// IsValidRay checks the ray input.
func IsValidRay(input RayCastInput) bool {
	return IsValidVec2(input.Origin) && IsValidVec2(input.Translation) &&
		IsValid(input.MaxFraction) && input.MaxFraction >= 0 && input.MaxFraction < HugeNumber
}

// ComputePolygonCentroid returns the area centroid of a convex polygon.
func ComputePolygonCentroid(vertices []Vec2) Vec2 {
	count := len(vertices)
	center := Vec2{}
	area := 0.0

	origin := vertices[0]
	const inv3 = 1.0 / 3.0

	for i := 1; i < count-1; i++ {
		e1 := vertices[i].Sub(origin)
		e2 := vertices[i+1].Sub(origin)
		a := 0.5 * Cross(e1, e2)

		center = MulAdd(center, a*inv3, e1.Add(e2))
		area += a
	}

	if area == 0 {
		return origin
	}
	invArea := 1.0 / area
	return center.Mul(invArea).Add(origin)
}

// MakePolygon builds a polygon from a convex hull. An empty hull yields a
// zero polygon.
func MakePolygon(hull Hull, radius float64) Polygon {
	if hull.Count < 3 {
		return Polygon{}
	}

	var shape Polygon
	shape.Count = hull.Count
	shape.Radius = radius

	for i := 0; i < shape.Count; i++ {
		shape.Vertices[i] = hull.Points[i]
	}

	for i := 0; i < shape.Count; i++ {
		i1 := i
		i2 := 0
		if i+1 < shape.Count {
			i2 = i + 1
		}
		edge := shape.Vertices[i2].Sub(shape.Vertices[i1])
		shape.Normals[i] = Normalize(CrossVS(edge, 1.0))
	}

	shape.Centroid = ComputePolygonCentroid(shape.Vertices[:shape.Count])
	return shape
}

// MakeOffsetPolygon builds a polygon from a hull placed with a transform.
func MakeOffsetPolygon(hull Hull, position Vec2, rotation Rot, radius float64) Polygon {
	xf := Transform{P: position, Q: rotation}
	moved := hull
	for i := 0; i < hull.Count; i++ {
		moved.Points[i] = TransformPoint(xf, hull.Points[i])
	}
	return MakePolygon(moved, radius)
}

// MakeSquare makes a square polygon with half width h.
func MakeSquare(h float64) Polygon {
	return MakeBox(h, h)
}

// MakeBox makes a box polygon centered on the origin.
func MakeBox(hx, hy float64) Polygon {
	var shape Polygon
	shape.Count = 4
	shape.Vertices[0] = Vec2{-hx, -hy}
	shape.Vertices[1] = Vec2{hx, -hy}
	shape.Vertices[2] = Vec2{hx, hy}
	shape.Vertices[3] = Vec2{-hx, hy}
	shape.Normals[0] = Vec2{0, -1}
	shape.Normals[1] = Vec2{1, 0}
	shape.Normals[2] = Vec2{0, 1}
	shape.Normals[3] = Vec2{-1, 0}
	return shape
}

// MakeRoundedBox makes a box with rounded corners. The extents exclude
// the radius.
func MakeRoundedBox(hx, hy, radius float64) Polygon {
	shape := MakeBox(hx, hy)
	shape.Radius = radius
	return shape
}

// MakeOffsetBox makes a box placed at center with the given rotation.
func MakeOffsetBox(hx, hy float64, center Vec2, rotation Rot) Polygon {
	xf := Transform{P: center, Q: rotation}

	shape := MakeBox(hx, hy)
	for i := 0; i < 4; i++ {
		shape.Vertices[i] = TransformPoint(xf, shape.Vertices[i])
		shape.Normals[i] = RotateVector(xf.Q, shape.Normals[i])
	}
	shape.Centroid = center
	return shape
}

// MakeCapsule makes a two-vertex polygon with a radius.
func MakeCapsule(p1, p2 Vec2, radius float64) Polygon {
	var shape Polygon
	shape.Vertices[0] = p1
	shape.Vertices[1] = p2
	shape.Centroid = Lerp(p1, p2, 0.5)

	axis := Normalize(p2.Sub(p1))
	normal := RightPerp(axis)

	shape.Normals[0] = normal
	shape.Normals[1] = Neg(normal)
	shape.Count = 2
	shape.Radius = radius
	return shape
}

// TransformPolygon moves every vertex and normal of a polygon.
func TransformPolygon(xf Transform, polygon Polygon) Polygon {
	p := polygon
	for i := 0; i < p.Count; i++ {
		p.Vertices[i] = TransformPoint(xf, p.Vertices[i])
		p.Normals[i] = RotateVector(xf.Q, p.Normals[i])
	}
	p.Centroid = TransformPoint(xf, p.Centroid)
	return p
}

// ComputeCircleMass returns the mass of a circle with the given density.
func ComputeCircleMass(shape Circle, density float64) MassData {
	rr := shape.Radius * shape.Radius
	mass := density * Pi * rr

	// inertia about the local origin
	return MassData{
		Mass:              mass,
		Center:            shape.Center,
		RotationalInertia: mass * (0.5*rr + shape.Center.Dot(shape.Center)),
	}
}

// ComputeCapsuleMass returns the mass of a capsule with the given density.
func ComputeCapsuleMass(shape Capsule, density float64) MassData {
	radius := shape.Radius
	rr := radius * radius
	p1 := shape.Center1
	p2 := shape.Center2
	length := p2.Sub(p1).Len()
	ll := length * length

	circleMass := density * (Pi * rr)
	boxMass := density * (2.0 * radius * length)

	mass := circleMass + boxMass
	center := Lerp(p1, p2, 0.5)

	// Each semicircle is offset by half the length. Parallel axis theorem is
	// applied twice: centroid to origin, then origin to the box end.
	lc := 4.0 * radius / (3.0 * Pi)
	h := 0.5 * length

	circleInertia := circleMass * (0.5*rr + h*h + 2.0*h*lc)
	boxInertia := boxMass * (4.0*rr + ll) / 12.0
	inertia := circleInertia + boxInertia
	inertia += mass * center.Dot(center)

	return MassData{Mass: mass, Center: center, RotationalInertia: inertia}
}

// ComputePolygonMass returns the mass of a polygon with the given density.
// Rounded polygons are approximated by pushing the vertices out.
func ComputePolygonMass(shape Polygon, density float64) MassData {
	if shape.Count == 1 {
		return ComputeCircleMass(Circle{Center: shape.Vertices[0], Radius: shape.Radius}, density)
	}
	if shape.Count == 2 {
		return ComputeCapsuleMass(Capsule{Center1: shape.Vertices[0], Center2: shape.Vertices[1], Radius: shape.Radius}, density)
	}

	var vertices [MaxPolygonVertices]Vec2
	count := shape.Count
	radius := shape.Radius

	if radius > 0 {
		const sqrt2 = 1.412
		for i := 0; i < count; i++ {
			j := i - 1
			if i == 0 {
				j = count - 1
			}
			n1 := shape.Normals[j]
			n2 := shape.Normals[i]

			mid := Normalize(n1.Add(n2))
			vertices[i] = MulAdd(shape.Vertices[i], sqrt2*radius, mid)
		}
	} else {
		copy(vertices[:count], shape.Vertices[:count])
	}

	center := Vec2{}
	area := 0.0
	rotationalInertia := 0.0

	// Reference point inside the polygon keeps the triangles well formed.
	r := vertices[0]
	const inv3 = 1.0 / 3.0

	for i := 1; i < count-1; i++ {
		e1 := vertices[i].Sub(r)
		e2 := vertices[i+1].Sub(r)

		d := Cross(e1, e2)
		triangleArea := 0.5 * d
		area += triangleArea

		center = MulAdd(center, triangleArea*inv3, e1.Add(e2))

		ex1, ey1 := e1[0], e1[1]
		ex2, ey2 := e2[0], e2[1]

		intx2 := ex1*ex1 + ex2*ex1 + ex2*ex2
		inty2 := ey1*ey1 + ey2*ey1 + ey2*ey2

		rotationalInertia += (0.25 * inv3 * d) * (intx2 + inty2)
	}

	var massData MassData
	massData.Mass = density * area

	if area > 0 {
		center = center.Mul(1.0 / area)
	}
	massData.Center = r.Add(center)

	// inertia relative to the reference point, shifted to the body origin
	massData.RotationalInertia = density * rotationalInertia
	massData.RotationalInertia += massData.Mass * (massData.Center.Dot(massData.Center) - center.Dot(center))

	return massData
}

// ComputeCircleAABB returns the world bounds of a circle.
func ComputeCircleAABB(shape Circle, xf Transform) AABB {
	p := TransformPoint(xf, shape.Center)
	r := shape.Radius
	return AABB{LowerBound: Vec2{p[0] - r, p[1] - r}, UpperBound: Vec2{p[0] + r, p[1] + r}}
}

// ComputeCapsuleAABB returns the world bounds of a capsule.
func ComputeCapsuleAABB(shape Capsule, xf Transform) AABB {
	v1 := TransformPoint(xf, shape.Center1)
	v2 := TransformPoint(xf, shape.Center2)
	r := Vec2{shape.Radius, shape.Radius}
	return AABB{LowerBound: Min(v1, v2).Sub(r), UpperBound: Max(v1, v2).Add(r)}
}

// ComputePolygonAABB returns the world bounds of a polygon.
func ComputePolygonAABB(shape Polygon, xf Transform) AABB {
	lower := TransformPoint(xf, shape.Vertices[0])
	upper := lower

	for i := 1; i < shape.Count; i++ {
		v := TransformPoint(xf, shape.Vertices[i])
		lower = Min(lower, v)
		upper = Max(upper, v)
	}

	r := Vec2{shape.Radius, shape.Radius}
	return AABB{LowerBound: lower.Sub(r), UpperBound: upper.Add(r)}
}

// ComputeSegmentAABB returns the world bounds of a segment.
func ComputeSegmentAABB(shape Segment, xf Transform) AABB {
	v1 := TransformPoint(xf, shape.Point1)
	v2 := TransformPoint(xf, shape.Point2)
	return AABB{LowerBound: Min(v1, v2), UpperBound: Max(v1, v2)}
}

// PointInCircle tests a local point against a circle.
func PointInCircle(point Vec2, shape Circle) bool {
	return DistanceSquared(point, shape.Center) <= shape.Radius*shape.Radius
}

// PointInCapsule tests a local point against a capsule.
func PointInCapsule(point Vec2, shape Capsule) bool {
	rr := shape.Radius * shape.Radius
	p1 := shape.Center1
	p2 := shape.Center2

	d := p2.Sub(p1)
	dd := d.Dot(d)
	if dd == 0 {
		return DistanceSquared(point, p1) <= rr
	}

	// closest point on the core segment
	t := Clamp(point.Sub(p1).Dot(d)/dd, 0, 1)
	c := MulAdd(p1, t, d)
	return DistanceSquared(point, c) <= rr
}

// PointInPolygon tests a local point against a polygon, including its radius.
func PointInPolygon(point Vec2, shape Polygon) bool {
	maxSeparation := -math.MaxFloat64
	for i := 0; i < shape.Count; i++ {
		s := shape.Normals[i].Dot(point.Sub(shape.Vertices[i]))
		maxSeparation = max(maxSeparation, s)
	}

	if maxSeparation <= 0 {
		return true
	}
	if shape.Radius == 0 {
		return false
	}

	rr := shape.Radius * shape.Radius
	for i := 0; i < shape.Count; i++ {
		j := i + 1
		if j == shape.Count {
			j = 0
		}
		if PointInCapsule(point, Capsule{Center1: shape.Vertices[i], Center2: shape.Vertices[j], Radius: shape.Radius}) {
			return true
		}
	}
	return shape.Count == 1 && DistanceSquared(point, shape.Vertices[0]) <= rr
}
