package gjk

import "github.com/akmonengine/feather2d/geom"

// ShapeCastPairInput sweeps proxy B along TranslationB against proxy A.
type ShapeCastPairInput struct {
	ProxyA       ShapeProxy
	ProxyB       ShapeProxy
	TransformA   geom.Transform
	TransformB   geom.Transform
	TranslationB Vec2
	MaxFraction  float64
}

const maxCastIterations = 20

// ShapeCast is a GJK ray cast of the Minkowski difference. Initially
// overlapping proxies do not report a hit.
func ShapeCast(input *ShapeCastPairInput) geom.CastOutput {
	var output geom.CastOutput
	output.Fraction = input.MaxFraction

	proxyA := input.ProxyA

	xfA := input.TransformA
	xfB := input.TransformB
	xf := geom.InvMulTransforms(xfA, xfB)

	// put proxyB in proxyA's frame to reduce round-off error
	var proxyB ShapeProxy
	proxyB.Count = input.ProxyB.Count
	proxyB.Radius = input.ProxyB.Radius
	for i := 0; i < proxyB.Count; i++ {
		proxyB.Points[i] = geom.TransformPoint(xf, input.ProxyB.Points[i])
	}

	radius := proxyA.Radius + proxyB.Radius

	r := geom.RotateVector(xf.Q, input.TranslationB)
	lambda := 0.0
	maxFraction := input.MaxFraction

	var simplex Simplex

	// support point in -r direction
	indexA := proxyA.FindSupport(geom.Neg(r))
	wA := proxyA.Points[indexA]
	indexB := proxyB.FindSupport(r)
	wB := proxyB.Points[indexB]
	v := wA.Sub(wB)

	// sigma is the target distance between proxies
	sigma := max(geom.LinearSlop, radius-geom.LinearSlop)

	const tolerance = 0.5 * geom.LinearSlop
	iteration := 0
	for iteration < maxCastIterations && v.Len() > sigma+tolerance {
		output.Iterations++

		// support in direction -v (A - B)
		indexA = proxyA.FindSupport(geom.Neg(v))
		wA = proxyA.Points[indexA]
		indexB = proxyB.FindSupport(v)
		wB = proxyB.Points[indexB]
		p := wA.Sub(wB)

		// -v is a normal at p, normalize to work with sigma
		v = geom.Normalize(v)

		// intersect ray with plane
		vp := v.Dot(p)
		vr := v.Dot(r)
		if vp-sigma > lambda*vr {
			if vr <= 0 {
				// miss
				return output
			}

			lambda = (vp - sigma) / vr
			if lambda > maxFraction {
				// too far
				return output
			}

			simplex.Count = 0
		}

		// Reverse simplex since it works with B - A. Shift by lambda * r
		// because we want the closest point to the current clip point. The
		// support point p is not shifted so the plane equation stays in
		// unshifted space.
		vertex := &simplex.V[simplex.Count]
		vertex.IndexA = indexB
		vertex.WA = geom.MulAdd(wB, lambda, r)
		vertex.IndexB = indexA
		vertex.WB = wA
		vertex.W = vertex.WB.Sub(vertex.WA)
		vertex.A = 1
		simplex.Count++

		switch simplex.Count {
		case 2:
			solveSimplex2(&simplex)
		case 3:
			solveSimplex3(&simplex)
		}

		// three points means the origin is in the triangle: overlap
		if simplex.Count == 3 {
			return output
		}

		v = computeSimplexClosestPoint(&simplex)

		iteration++
	}

	if iteration == 0 || lambda == 0 {
		// initial overlap
		return output
	}

	_, pointA := computeSimplexWitnessPoints(&simplex)

	n := geom.Normalize(geom.Neg(v))
	point := geom.MulAdd(pointA, proxyA.Radius, n)

	output.Point = geom.TransformPoint(xfA, point)
	output.Normal = geom.RotateVector(xfA.Q, n)
	output.Fraction = lambda
	output.Iterations = iteration
	output.Hit = true
	return output
}

// RayCastPolygon casts a local ray against a polygon, including rounded
// polygons which need a shape cast.
func RayCastPolygon(input geom.RayCastInput, shape geom.Polygon) geom.CastOutput {
	if shape.Radius == 0 {
		return geom.RayCastPolygon(input, shape)
	}

	castInput := ShapeCastPairInput{
		ProxyA:       MakeProxy(shape.Vertices[:shape.Count], shape.Radius),
		ProxyB:       MakeProxy([]Vec2{input.Origin}, 0),
		TransformA:   geom.TransformIdentity,
		TransformB:   geom.TransformIdentity,
		TranslationB: input.Translation,
		MaxFraction:  input.MaxFraction,
	}
	return ShapeCast(&castInput)
}
