// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) closest point
// algorithm for 2D convex proxies, along with shape casting and time of
// impact by conservative advancement.
//
// GJK builds a simplex of one to three points in the Minkowski difference
// B - A and walks it toward the origin. In 2D it typically converges in a
// handful of support calls. A SimplexCache carries the final simplex
// indices from one query to the next so that consecutive frames start from
// the previous answer.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Ray Casting against General Convex Objects with
//     Application to Continuous Collision Detection" (2004)
package gjk

import (
	"github.com/akmonengine/feather2d/geom"
)

type Vec2 = geom.Vec2

const epsilon = 1.19209290e-7

// ShapeProxy is a convex point cloud with a radius. Every primitive maps to
// one: circles are one point, capsules and segments two points, polygons
// their vertices.
type ShapeProxy struct {
	Points [geom.MaxPolygonVertices]Vec2
	Count  int
	Radius float64
}

// MakeProxy builds a proxy from up to MaxPolygonVertices points.
func MakeProxy(vertices []Vec2, radius float64) ShapeProxy {
	count := min(len(vertices), geom.MaxPolygonVertices)
	var proxy ShapeProxy
	copy(proxy.Points[:count], vertices[:count])
	proxy.Count = count
	proxy.Radius = radius
	return proxy
}

// MakeOffsetProxy builds a proxy whose points are moved by a transform.
func MakeOffsetProxy(vertices []Vec2, radius float64, position geom.Vec2, rotation geom.Rot) ShapeProxy {
	count := min(len(vertices), geom.MaxPolygonVertices)
	xf := geom.Transform{P: position, Q: rotation}
	var proxy ShapeProxy
	for i := 0; i < count; i++ {
		proxy.Points[i] = geom.TransformPoint(xf, vertices[i])
	}
	proxy.Count = count
	proxy.Radius = radius
	return proxy
}

// MakeShapeProxy builds the proxy of a geometry in its local frame.
func MakeShapeProxy(g *geom.Geometry) ShapeProxy {
	points, radius := g.Points()
	return MakeProxy(points, radius)
}

// FindSupport returns the index of the point furthest along direction.
func (p *ShapeProxy) FindSupport(direction Vec2) int {
	bestIndex := 0
	bestValue := p.Points[0].Dot(direction)
	for i := 1; i < p.Count; i++ {
		value := p.Points[i].Dot(direction)
		if value > bestValue {
			bestIndex = i
			bestValue = value
		}
	}
	return bestIndex
}

// SimplexCache warm starts ShapeDistance. A zero cache is a cold start.
type SimplexCache struct {
	Count  int
	IndexA [3]uint8
	IndexB [3]uint8
}

// DistanceInput feeds ShapeDistance.
type DistanceInput struct {
	ProxyA     ShapeProxy
	ProxyB     ShapeProxy
	TransformA geom.Transform
	TransformB geom.Transform
	UseRadii   bool
}

// DistanceOutput holds the closest points and their distance.
type DistanceOutput struct {
	PointA       Vec2
	PointB       Vec2
	Normal       Vec2
	Distance     float64
	Iterations   int
	SimplexCount int
}

// SimplexVertex is a point of the simplex in B - A space.
type SimplexVertex struct {
	WA     Vec2    // support point in proxyA
	WB     Vec2    // support point in proxyB
	W      Vec2    // wB - wA
	A      float64 // barycentric coordinate for closest point
	IndexA int
	IndexB int
}

// Simplex has one to three vertices.
type Simplex struct {
	V     [3]SimplexVertex
	Count int
}

// SegmentDistanceResult holds the closest points between two segments.
type SegmentDistanceResult struct {
	Closest1        Vec2
	Closest2        Vec2
	Fraction1       float64
	Fraction2       float64
	DistanceSquared float64
}

// SegmentDistance computes the closest points between segments p1-q1 and
// p2-q2, handling degenerate segments.
func SegmentDistance(p1, q1, p2, q2 Vec2) SegmentDistanceResult {
	var result SegmentDistanceResult

	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	dd1 := d1.Dot(d1)
	dd2 := d2.Dot(d2)
	rd1 := r.Dot(d1)
	rd2 := r.Dot(d2)

	const epsSqr = epsilon * epsilon

	if dd1 < epsSqr || dd2 < epsSqr {
		if dd1 >= epsSqr {
			// segment 2 is degenerate
			result.Fraction1 = geom.Clamp(-rd1/dd1, 0, 1)
			result.Fraction2 = 0
		} else if dd2 >= epsSqr {
			// segment 1 is degenerate
			result.Fraction1 = 0
			result.Fraction2 = geom.Clamp(rd2/dd2, 0, 1)
		}
	} else {
		d12 := d1.Dot(d2)
		denom := dd1*dd2 - d12*d12

		// fraction on segment 1, zero when parallel
		f1 := 0.0
		if denom != 0 {
			f1 = geom.Clamp((d12*rd2-rd1*dd2)/denom, 0, 1)
		}

		// point on segment 2 closest to p1 + f1 * d1
		f2 := (d12*f1 + rd2) / dd2

		// clamping segment 2 requires a do over on segment 1
		if f2 < 0 {
			f2 = 0
			f1 = geom.Clamp(-rd1/dd1, 0, 1)
		} else if f2 > 1 {
			f2 = 1
			f1 = geom.Clamp((d12-rd1)/dd1, 0, 1)
		}

		result.Fraction1 = f1
		result.Fraction2 = f2
	}

	result.Closest1 = geom.MulAdd(p1, result.Fraction1, d1)
	result.Closest2 = geom.MulAdd(p2, result.Fraction2, d2)
	result.DistanceSquared = geom.DistanceSquared(result.Closest1, result.Closest2)
	return result
}

func makeSimplexFromCache(cache *SimplexCache, proxyA *ShapeProxy, xfA geom.Transform, proxyB *ShapeProxy, xfB geom.Transform) Simplex {
	var s Simplex

	// a stale cache may reference vertices that no longer exist
	count := cache.Count
	if count > 3 {
		count = 0
	}
	for i := 0; i < count; i++ {
		if int(cache.IndexA[i]) >= proxyA.Count || int(cache.IndexB[i]) >= proxyB.Count {
			count = 0
			break
		}
	}

	s.Count = count
	for i := 0; i < count; i++ {
		v := &s.V[i]
		v.IndexA = int(cache.IndexA[i])
		v.IndexB = int(cache.IndexB[i])
		v.WA = geom.TransformPoint(xfA, proxyA.Points[v.IndexA])
		v.WB = geom.TransformPoint(xfB, proxyB.Points[v.IndexB])
		v.W = v.WB.Sub(v.WA)

		// invalid
		v.A = -1.0
	}

	// cold start from the first vertices
	if s.Count == 0 {
		v := &s.V[0]
		v.IndexA = 0
		v.IndexB = 0
		v.WA = geom.TransformPoint(xfA, proxyA.Points[0])
		v.WB = geom.TransformPoint(xfB, proxyB.Points[0])
		v.W = v.WB.Sub(v.WA)
		v.A = 1.0
		s.Count = 1
	}

	return s
}

func makeSimplexCache(cache *SimplexCache, simplex *Simplex) {
	cache.Count = simplex.Count
	for i := 0; i < simplex.Count; i++ {
		cache.IndexA[i] = uint8(simplex.V[i].IndexA)
		cache.IndexB[i] = uint8(simplex.V[i].IndexB)
	}
}

func computeSimplexSearchDirection(simplex *Simplex) Vec2 {
	switch simplex.Count {
	case 1:
		return geom.Neg(simplex.V[0].W)
	case 2:
		e12 := simplex.V[1].W.Sub(simplex.V[0].W)
		sgn := geom.Cross(e12, geom.Neg(simplex.V[0].W))
		if sgn > 0 {
			// origin is left of e12
			return geom.LeftPerp(e12)
		}
		// origin is right of e12
		return geom.RightPerp(e12)
	default:
		return Vec2{}
	}
}

func computeSimplexClosestPoint(s *Simplex) Vec2 {
	switch s.Count {
	case 1:
		return s.V[0].W
	case 2:
		return s.V[0].W.Mul(s.V[0].A).Add(s.V[1].W.Mul(s.V[1].A))
	default:
		return Vec2{}
	}
}

func computeSimplexWitnessPoints(s *Simplex) (a, b Vec2) {
	switch s.Count {
	case 1:
		a = s.V[0].WA
		b = s.V[0].WB
	case 2:
		a = s.V[0].WA.Mul(s.V[0].A).Add(s.V[1].WA.Mul(s.V[1].A))
		b = s.V[0].WB.Mul(s.V[0].A).Add(s.V[1].WB.Mul(s.V[1].A))
	case 3:
		a = s.V[0].WA.Mul(s.V[0].A).Add(s.V[1].WA.Mul(s.V[1].A)).Add(s.V[2].WA.Mul(s.V[2].A))
		// the origin is inside the triangle so both witnesses coincide
		b = a
	}
	return a, b
}

// Solve a line segment using barycentric coordinates.
//
//	p = a1 * w1 + a2 * w2
//	a1 + a2 = 1
//
// The vector from the origin to the closest point on the line is
// perpendicular to the line: e12 = w2 - w1, dot(p, e) = 0.
func solveSimplex2(s *Simplex) {
	w1 := s.V[0].W
	w2 := s.V[1].W
	e12 := w2.Sub(w1)

	// w1 region
	d12_2 := -w1.Dot(e12)
	if d12_2 <= 0 {
		// a2 <= 0, so we clamp it to 0
		s.V[0].A = 1
		s.Count = 1
		return
	}

	// w2 region
	d12_1 := w2.Dot(e12)
	if d12_1 <= 0 {
		// a1 <= 0, so we clamp it to 0
		s.V[1].A = 1
		s.Count = 1
		s.V[0] = s.V[1]
		return
	}

	// must be in e12 region
	inv := 1.0 / (d12_1 + d12_2)
	s.V[0].A = d12_1 * inv
	s.V[1].A = d12_2 * inv
	s.Count = 2
}

func solveSimplex3(s *Simplex) {
	w1 := s.V[0].W
	w2 := s.V[1].W
	w3 := s.V[2].W

	// Edge12
	// [1      1     ][a1] = [1]
	// [w1.e12 w2.e12][a2] = [0]
	// a3 = 0
	e12 := w2.Sub(w1)
	w1e12 := w1.Dot(e12)
	w2e12 := w2.Dot(e12)
	d12_1 := w2e12
	d12_2 := -w1e12

	// Edge13
	e13 := w3.Sub(w1)
	w1e13 := w1.Dot(e13)
	w3e13 := w3.Dot(e13)
	d13_1 := w3e13
	d13_2 := -w1e13

	// Edge23
	e23 := w3.Sub(w2)
	w2e23 := w2.Dot(e23)
	w3e23 := w3.Dot(e23)
	d23_1 := w3e23
	d23_2 := -w2e23

	// Triangle123
	n123 := geom.Cross(e12, e13)

	d123_1 := n123 * geom.Cross(w2, w3)
	d123_2 := n123 * geom.Cross(w3, w1)
	d123_3 := n123 * geom.Cross(w1, w2)

	// w1 region
	if d12_2 <= 0 && d13_2 <= 0 {
		s.V[0].A = 1
		s.Count = 1
		return
	}

	// e12
	if d12_1 > 0 && d12_2 > 0 && d123_3 <= 0 {
		inv := 1.0 / (d12_1 + d12_2)
		s.V[0].A = d12_1 * inv
		s.V[1].A = d12_2 * inv
		s.Count = 2
		return
	}

	// e13
	if d13_1 > 0 && d13_2 > 0 && d123_2 <= 0 {
		inv := 1.0 / (d13_1 + d13_2)
		s.V[0].A = d13_1 * inv
		s.V[2].A = d13_2 * inv
		s.Count = 2
		s.V[1] = s.V[2]
		return
	}

	// w2 region
	if d12_1 <= 0 && d23_2 <= 0 {
		s.V[1].A = 1
		s.Count = 1
		s.V[0] = s.V[1]
		return
	}

	// w3 region
	if d13_1 <= 0 && d23_1 <= 0 {
		s.V[2].A = 1
		s.Count = 1
		s.V[0] = s.V[2]
		return
	}

	// e23
	if d23_1 > 0 && d23_2 > 0 && d123_1 <= 0 {
		inv := 1.0 / (d23_1 + d23_2)
		s.V[1].A = d23_1 * inv
		s.V[2].A = d23_2 * inv
		s.Count = 2
		s.V[0] = s.V[2]
		return
	}

	// must be in triangle123
	inv := 1.0 / (d123_1 + d123_2 + d123_3)
	s.V[0].A = d123_1 * inv
	s.V[1].A = d123_2 * inv
	s.V[2].A = d123_3 * inv
	s.Count = 3
}

const maxDistanceIterations = 20

// ShapeDistance computes the closest points between two proxies. The cache
// is read to warm start the simplex and written with the final simplex. A
// cold or stale cache falls back to the first vertices of each proxy.
//
// Overlapping proxies report a distance of zero.
func ShapeDistance(cache *SimplexCache, input *DistanceInput) DistanceOutput {
	var output DistanceOutput

	proxyA := &input.ProxyA
	proxyB := &input.ProxyB

	xfA := input.TransformA
	xfB := input.TransformB

	simplex := makeSimplexFromCache(cache, proxyA, xfA, proxyB, xfB)

	// vertices of the last simplex, used to detect cycling
	var saveA, saveB [3]int

	iter := 0
	overlapped := false
	for iter < maxDistanceIterations {
		saveCount := simplex.Count
		for i := 0; i < saveCount; i++ {
			saveA[i] = simplex.V[i].IndexA
			saveB[i] = simplex.V[i].IndexB
		}

		switch simplex.Count {
		case 2:
			solveSimplex2(&simplex)
		case 3:
			solveSimplex3(&simplex)
		}

		// three points means the origin is inside the triangle
		if simplex.Count == 3 {
			overlapped = true
			break
		}

		d := computeSimplexSearchDirection(&simplex)

		// ensure the search direction is numerically fit
		if d.Dot(d) < epsilon*epsilon {
			// The origin is probably contained by a line segment or
			// triangle, thus the shapes are overlapped.
			overlapped = true
			break
		}

		// support = support(b, d) - support(a, -d)
		vertex := &simplex.V[simplex.Count]
		vertex.IndexA = proxyA.FindSupport(geom.InvRotateVector(xfA.Q, geom.Neg(d)))
		vertex.WA = geom.TransformPoint(xfA, proxyA.Points[vertex.IndexA])
		vertex.IndexB = proxyB.FindSupport(geom.InvRotateVector(xfB.Q, d))
		vertex.WB = geom.TransformPoint(xfB, proxyB.Points[vertex.IndexB])
		vertex.W = vertex.WB.Sub(vertex.WA)

		// iteration count is equated to the number of support point calls
		iter++

		// a repeated support point is the main termination criteria
		duplicate := false
		for i := 0; i < saveCount; i++ {
			if vertex.IndexA == saveA[i] && vertex.IndexB == saveB[i] {
				duplicate = true
				break
			}
		}
		if duplicate {
			break
		}

		simplex.Count++
	}

	output.PointA, output.PointB = computeSimplexWitnessPoints(&simplex)
	output.Normal = geom.Normalize(output.PointB.Sub(output.PointA))
	output.Distance = geom.Distance(output.PointA, output.PointB)
	if overlapped {
		// witness points of an enclosing simplex only differ by round-off
		output.PointB = output.PointA
		output.Distance = 0
	}
	output.Iterations = iter
	output.SimplexCount = simplex.Count

	makeSimplexCache(cache, &simplex)

	if input.UseRadii {
		if output.Distance < epsilon {
			// shapes are too close to safely compute a normal
			p := geom.Lerp(output.PointA, output.PointB, 0.5)
			output.PointA = p
			output.PointB = p
			output.Distance = 0
		} else {
			// Keep closest points on perimeter even if overlapped, this way
			// the points move smoothly.
			rA := proxyA.Radius
			rB := proxyB.Radius
			output.Distance = max(0, output.Distance-rA-rB)
			normal := output.Normal
			output.PointA = geom.MulAdd(output.PointA, rA, normal)
			output.PointB = geom.MulSub(output.PointB, rB, normal)
		}
	}

	return output
}
