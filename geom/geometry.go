package geom

import "math"

// ShapeType tags the primitive held by a Geometry.
type ShapeType int

const (
	CircleShape ShapeType = iota
	CapsuleShape
	SegmentShape
	PolygonShape
	ChainSegmentShape
	ShapeTypeCount
)

func (t ShapeType) String() string {
	switch t {
	case CircleShape:
		return "circle"
	case CapsuleShape:
		return "capsule"
	case SegmentShape:
		return "segment"
	case PolygonShape:
		return "polygon"
	case ChainSegmentShape:
		return "chainSegment"
	}
	return "unknown"
}

// Geometry is a tagged union over the collision primitives. Only the field
// matching Type is meaningful.
type Geometry struct {
	Type         ShapeType
	Circle       Circle
	Capsule      Capsule
	Segment      Segment
	Polygon      Polygon
	ChainSegment ChainSegment
}

// ComputeAABB bounds the geometry placed at xf.
func (g *Geometry) ComputeAABB(xf Transform) AABB {
	switch g.Type {
	case CircleShape:
		return ComputeCircleAABB(g.Circle, xf)
	case CapsuleShape:
		return ComputeCapsuleAABB(g.Capsule, xf)
	case PolygonShape:
		return ComputePolygonAABB(g.Polygon, xf)
	case SegmentShape:
		return ComputeSegmentAABB(g.Segment, xf)
	case ChainSegmentShape:
		return ComputeSegmentAABB(g.ChainSegment.Segment, xf)
	}
	return AABB{LowerBound: xf.P, UpperBound: xf.P}
}

// ComputeMass returns the mass properties. Segments have no area and so
// no mass.
func (g *Geometry) ComputeMass(density float64) MassData {
	switch g.Type {
	case CircleShape:
		return ComputeCircleMass(g.Circle, density)
	case CapsuleShape:
		return ComputeCapsuleMass(g.Capsule, density)
	case PolygonShape:
		return ComputePolygonMass(g.Polygon, density)
	}
	return MassData{}
}

// Centroid is the local geometric center.
func (g *Geometry) Centroid() Vec2 {
	switch g.Type {
	case CapsuleShape:
		return Lerp(g.Capsule.Center1, g.Capsule.Center2, 0.5)
	case CircleShape:
		return g.Circle.Center
	case PolygonShape:
		return g.Polygon.Centroid
	case SegmentShape:
		return Lerp(g.Segment.Point1, g.Segment.Point2, 0.5)
	case ChainSegmentShape:
		return Lerp(g.ChainSegment.Segment.Point1, g.ChainSegment.Segment.Point2, 0.5)
	}
	return Zero
}

// Extent returns the minimum and maximum distance from localCenter to the
// geometry surface. Continuous collision uses the minimum extent to decide
// whether a body moved fast enough to need a sweep.
func (g *Geometry) Extent(localCenter Vec2) (minExtent, maxExtent float64) {
	switch g.Type {
	case CapsuleShape:
		radius := g.Capsule.Radius
		c1 := g.Capsule.Center1.Sub(localCenter)
		c2 := g.Capsule.Center2.Sub(localCenter)
		return radius, math.Sqrt(max(c1.Dot(c1), c2.Dot(c2))) + radius

	case CircleShape:
		radius := g.Circle.Radius
		return radius, g.Circle.Center.Sub(localCenter).Len() + radius

	case PolygonShape:
		poly := &g.Polygon
		minExtent = HugeNumber
		maxExtentSqr := 0.0
		for i := 0; i < poly.Count; i++ {
			v := poly.Vertices[i]
			planeOffset := poly.Normals[i].Dot(v.Sub(poly.Centroid))
			minExtent = min(minExtent, planeOffset)

			d := v.Sub(localCenter)
			maxExtentSqr = max(maxExtentSqr, d.Dot(d))
		}
		return minExtent + poly.Radius, math.Sqrt(maxExtentSqr) + poly.Radius

	case SegmentShape:
		c1 := g.Segment.Point1.Sub(localCenter)
		c2 := g.Segment.Point2.Sub(localCenter)
		return 0, math.Sqrt(max(c1.Dot(c1), c2.Dot(c2)))

	case ChainSegmentShape:
		c1 := g.ChainSegment.Segment.Point1.Sub(localCenter)
		c2 := g.ChainSegment.Segment.Point2.Sub(localCenter)
		return 0, math.Sqrt(max(c1.Dot(c1), c2.Dot(c2)))
	}
	return 0, 0
}

// TestPoint reports whether a local point is inside the geometry. Segments
// never contain points.
func (g *Geometry) TestPoint(localPoint Vec2) bool {
	switch g.Type {
	case CircleShape:
		return PointInCircle(localPoint, g.Circle)
	case CapsuleShape:
		return PointInCapsule(localPoint, g.Capsule)
	case PolygonShape:
		return PointInPolygon(localPoint, g.Polygon)
	}
	return false
}

// Points returns the convex core of the geometry and its radius, suitable
// for building a distance proxy.
func (g *Geometry) Points() ([]Vec2, float64) {
	switch g.Type {
	case CapsuleShape:
		return []Vec2{g.Capsule.Center1, g.Capsule.Center2}, g.Capsule.Radius
	case CircleShape:
		return []Vec2{g.Circle.Center}, g.Circle.Radius
	case PolygonShape:
		return g.Polygon.Vertices[:g.Polygon.Count], g.Polygon.Radius
	case SegmentShape:
		return []Vec2{g.Segment.Point1, g.Segment.Point2}, 0
	case ChainSegmentShape:
		return []Vec2{g.ChainSegment.Segment.Point1, g.ChainSegment.Segment.Point2}, 0
	}
	return nil, 0
}

// IsValid checks the geometry parameters.
func (g *Geometry) IsValid() bool {
	switch g.Type {
	case CircleShape:
		return IsValidVec2(g.Circle.Center) && IsValid(g.Circle.Radius) && g.Circle.Radius >= 0
	case CapsuleShape:
		c := g.Capsule
		return IsValidVec2(c.Center1) && IsValidVec2(c.Center2) && IsValid(c.Radius) && c.Radius >= 0 &&
			DistanceSquared(c.Center1, c.Center2) > LinearSlop*LinearSlop
	case PolygonShape:
		return g.Polygon.Count >= 3 && g.Polygon.Count <= MaxPolygonVertices && IsValid(g.Polygon.Radius) && g.Polygon.Radius >= 0
	case SegmentShape:
		s := g.Segment
		return IsValidVec2(s.Point1) && IsValidVec2(s.Point2) && DistanceSquared(s.Point1, s.Point2) > LinearSlop*LinearSlop
	case ChainSegmentShape:
		s := g.ChainSegment.Segment
		return IsValidVec2(s.Point1) && IsValidVec2(s.Point2)
	}
	return false
}

// RayCast casts a ray given in the local frame. Chain segments are hit only
// from their right side.
func (g *Geometry) RayCast(input RayCastInput) CastOutput {
	switch g.Type {
	case CapsuleShape:
		return RayCastCapsule(input, g.Capsule)
	case CircleShape:
		return RayCastCircle(input, g.Circle)
	case PolygonShape:
		return RayCastPolygon(input, g.Polygon)
	case SegmentShape:
		return RayCastSegment(input, g.Segment, false)
	case ChainSegmentShape:
		return RayCastSegment(input, g.ChainSegment.Segment, true)
	}
	return CastOutput{}
}

// ProjectedPerimeter is the length of the geometry projected on a local
// unit line.
func (g *Geometry) ProjectedPerimeter(line Vec2) float64 {
	switch g.Type {
	case CapsuleShape:
		axis := g.Capsule.Center2.Sub(g.Capsule.Center1)
		return math.Abs(axis.Dot(line)) + 2*g.Capsule.Radius
	case CircleShape:
		return 2 * g.Circle.Radius
	case PolygonShape:
		poly := &g.Polygon
		lower := poly.Vertices[0].Dot(line)
		upper := lower
		for i := 1; i < poly.Count; i++ {
			value := poly.Vertices[i].Dot(line)
			lower = min(lower, value)
			upper = max(upper, value)
		}
		return upper - lower + 2*poly.Radius
	case SegmentShape:
		return math.Abs(g.Segment.Point2.Sub(g.Segment.Point1).Dot(line))
	case ChainSegmentShape:
		s := g.ChainSegment.Segment
		return math.Abs(s.Point2.Sub(s.Point1).Dot(line))
	}
	return 0
}
