package gjk

import (
	"math"

	"github.com/akmonengine/feather2d/geom"
)

// Sweep describes the motion of a body over a time step. Shapes are
// defined relative to the body origin, which may not coincide with the
// center of mass, so the local center is carried along.
type Sweep struct {
	LocalCenter Vec2
	C1, C2      Vec2
	Q1, Q2      geom.Rot
}

// GetSweepTransform interpolates the sweep at time in [0, 1].
func GetSweepTransform(sweep *Sweep, time float64) geom.Transform {
	var xf geom.Transform
	xf.P = sweep.C1.Mul(1 - time).Add(sweep.C2.Mul(time))

	q := geom.Rot{
		C: (1-time)*sweep.Q1.C + time*sweep.Q2.C,
		S: (1-time)*sweep.Q1.S + time*sweep.Q2.S,
	}
	xf.Q = geom.NormalizeRot(q)

	// shift to origin
	xf.P = xf.P.Sub(geom.RotateVector(xf.Q, sweep.LocalCenter))
	return xf
}

// TOIInput feeds TimeOfImpact.
type TOIInput struct {
	ProxyA ShapeProxy
	ProxyB ShapeProxy
	SweepA Sweep
	SweepB Sweep
	// MaxFraction defines the sweep interval [0, MaxFraction]
	MaxFraction float64
}

// TOIState is the outcome of TimeOfImpact.
type TOIState int

const (
	TOIStateUnknown TOIState = iota
	TOIStateFailed
	TOIStateOverlapped
	TOIStateHit
	TOIStateSeparated
)

func (s TOIState) String() string {
	switch s {
	case TOIStateFailed:
		return "failed"
	case TOIStateOverlapped:
		return "overlapped"
	case TOIStateHit:
		return "hit"
	case TOIStateSeparated:
		return "separated"
	}
	return "unknown"
}

// TOIOutput is the state and the impact time.
type TOIOutput struct {
	State    TOIState
	Fraction float64
}

type separationType int

const (
	separationPoints separationType = iota
	separationFaceA
	separationFaceB
)

type separationFunction struct {
	proxyA, proxyB *ShapeProxy
	sweepA, sweepB Sweep
	localPoint     Vec2
	axis           Vec2
	kind           separationType
}

func makeSeparationFunction(cache *SimplexCache, proxyA *ShapeProxy, sweepA *Sweep, proxyB *ShapeProxy, sweepB *Sweep, t1 float64) separationFunction {
	f := separationFunction{proxyA: proxyA, proxyB: proxyB, sweepA: *sweepA, sweepB: *sweepB}

	xfA := GetSweepTransform(sweepA, t1)
	xfB := GetSweepTransform(sweepB, t1)

	if cache.Count == 1 {
		f.kind = separationPoints
		pointA := geom.TransformPoint(xfA, proxyA.Points[cache.IndexA[0]])
		pointB := geom.TransformPoint(xfB, proxyB.Points[cache.IndexB[0]])
		f.axis = geom.Normalize(pointB.Sub(pointA))
		return f
	}

	if cache.IndexA[0] == cache.IndexA[1] {
		// two points on B and one on A
		f.kind = separationFaceB
		localPointB1 := proxyB.Points[cache.IndexB[0]]
		localPointB2 := proxyB.Points[cache.IndexB[1]]

		f.axis = geom.Normalize(geom.CrossVS(localPointB2.Sub(localPointB1), 1.0))
		normal := geom.RotateVector(xfB.Q, f.axis)

		f.localPoint = geom.Lerp(localPointB1, localPointB2, 0.5)
		pointB := geom.TransformPoint(xfB, f.localPoint)

		pointA := geom.TransformPoint(xfA, proxyA.Points[cache.IndexA[0]])

		if pointA.Sub(pointB).Dot(normal) < 0 {
			f.axis = geom.Neg(f.axis)
		}
		return f
	}

	// two points on A and one or two points on B
	f.kind = separationFaceA
	localPointA1 := proxyA.Points[cache.IndexA[0]]
	localPointA2 := proxyA.Points[cache.IndexA[1]]

	f.axis = geom.Normalize(geom.CrossVS(localPointA2.Sub(localPointA1), 1.0))
	normal := geom.RotateVector(xfA.Q, f.axis)

	f.localPoint = geom.Lerp(localPointA1, localPointA2, 0.5)
	pointA := geom.TransformPoint(xfA, f.localPoint)

	pointB := geom.TransformPoint(xfB, proxyB.Points[cache.IndexB[0]])

	if pointB.Sub(pointA).Dot(normal) < 0 {
		f.axis = geom.Neg(f.axis)
	}
	return f
}

func (f *separationFunction) findMinSeparation(t float64) (indexA, indexB int, separation float64) {
	xfA := GetSweepTransform(&f.sweepA, t)
	xfB := GetSweepTransform(&f.sweepB, t)

	switch f.kind {
	case separationPoints:
		axisA := geom.InvRotateVector(xfA.Q, f.axis)
		axisB := geom.InvRotateVector(xfB.Q, geom.Neg(f.axis))

		indexA = f.proxyA.FindSupport(axisA)
		indexB = f.proxyB.FindSupport(axisB)

		pointA := geom.TransformPoint(xfA, f.proxyA.Points[indexA])
		pointB := geom.TransformPoint(xfB, f.proxyB.Points[indexB])
		return indexA, indexB, pointB.Sub(pointA).Dot(f.axis)

	case separationFaceA:
		normal := geom.RotateVector(xfA.Q, f.axis)
		pointA := geom.TransformPoint(xfA, f.localPoint)

		axisB := geom.InvRotateVector(xfB.Q, geom.Neg(normal))

		indexB = f.proxyB.FindSupport(axisB)
		pointB := geom.TransformPoint(xfB, f.proxyB.Points[indexB])
		return -1, indexB, pointB.Sub(pointA).Dot(normal)

	default:
		normal := geom.RotateVector(xfB.Q, f.axis)
		pointB := geom.TransformPoint(xfB, f.localPoint)

		axisA := geom.InvRotateVector(xfA.Q, geom.Neg(normal))

		indexA = f.proxyA.FindSupport(axisA)
		pointA := geom.TransformPoint(xfA, f.proxyA.Points[indexA])
		return indexA, -1, pointA.Sub(pointB).Dot(normal)
	}
}

func (f *separationFunction) evaluate(indexA, indexB int, t float64) float64 {
	xfA := GetSweepTransform(&f.sweepA, t)
	xfB := GetSweepTransform(&f.sweepB, t)

	switch f.kind {
	case separationPoints:
		pointA := geom.TransformPoint(xfA, f.proxyA.Points[indexA])
		pointB := geom.TransformPoint(xfB, f.proxyB.Points[indexB])
		return pointB.Sub(pointA).Dot(f.axis)

	case separationFaceA:
		normal := geom.RotateVector(xfA.Q, f.axis)
		pointA := geom.TransformPoint(xfA, f.localPoint)
		pointB := geom.TransformPoint(xfB, f.proxyB.Points[indexB])
		return pointB.Sub(pointA).Dot(normal)

	default:
		normal := geom.RotateVector(xfB.Q, f.axis)
		pointB := geom.TransformPoint(xfB, f.localPoint)
		pointA := geom.TransformPoint(xfA, f.proxyA.Points[indexA])
		return pointA.Sub(pointB).Dot(normal)
	}
}

const (
	maxTOIIterations  = 20
	maxRootIterations = 50
)

// TimeOfImpact computes the upper bound on time before two shapes
// penetrate, by conservative advancement along separating axes found with
// GJK. Time is a fraction of the sweep interval [0, MaxFraction].
func TimeOfImpact(input *TOIInput) TOIOutput {
	output := TOIOutput{State: TOIStateUnknown, Fraction: input.MaxFraction}

	sweepA := input.SweepA
	sweepB := input.SweepB

	proxyA := &input.ProxyA
	proxyB := &input.ProxyB

	tMax := input.MaxFraction

	totalRadius := proxyA.Radius + proxyB.Radius
	target := max(geom.LinearSlop, totalRadius-geom.LinearSlop)
	const tolerance = 0.25 * geom.LinearSlop

	t1 := 0.0
	iter := 0

	var cache SimplexCache
	distanceInput := DistanceInput{ProxyA: input.ProxyA, ProxyB: input.ProxyB}

	// The outer loop progressively attempts to compute new separating axes.
	// This loop terminates when an axis is repeated (no progress is made).
	for {
		distanceInput.TransformA = GetSweepTransform(&sweepA, t1)
		distanceInput.TransformB = GetSweepTransform(&sweepB, t1)

		// the distance result also yields a separating axis
		distanceOutput := ShapeDistance(&cache, &distanceInput)

		// overlapped shapes give up on continuous collision
		if distanceOutput.Distance <= 0 {
			output.State = TOIStateOverlapped
			output.Fraction = 0
			break
		}

		if distanceOutput.Distance < target+tolerance {
			output.State = TOIStateHit
			output.Fraction = t1
			break
		}

		fcn := makeSeparationFunction(&cache, proxyA, &sweepA, proxyB, &sweepB, t1)

		// Compute the TOI on the separating axis by successively resolving
		// the deepest point. This loop is bounded by the number of vertices.
		done := false
		t2 := tMax
		pushBackIterations := 0
		for {
			// deepest point at t2
			indexA, indexB, s2 := fcn.findMinSeparation(t2)

			// final configuration separated
			if s2 > target+tolerance {
				output.State = TOIStateSeparated
				output.Fraction = tMax
				done = true
				break
			}

			// separation reached tolerance, advance the sweeps
			if s2 > target-tolerance {
				t1 = t2
				break
			}

			s1 := fcn.evaluate(indexA, indexB, t1)

			// initial overlap, the root finder may have run out of iterations
			if s1 < target-tolerance {
				output.State = TOIStateFailed
				output.Fraction = t1
				done = true
				break
			}

			// touching, t1 holds the TOI (could be 0.0)
			if s1 <= target+tolerance {
				output.State = TOIStateHit
				output.Fraction = t1
				done = true
				break
			}

			// 1D root of f(x) - target = 0
			rootIterationCount := 0
			a1, a2 := t1, t2
			for {
				// mix of the secant rule and bisection
				var t float64
				if rootIterationCount&1 == 1 {
					t = a1 + (target-s1)*(a2-a1)/(s2-s1)
				} else {
					t = 0.5 * (a1 + a2)
				}
				rootIterationCount++

				s := fcn.evaluate(indexA, indexB, t)

				if math.Abs(s-target) < tolerance {
					// t2 holds a tentative value for t1
					t2 = t
					break
				}

				// keep bracketing the root
				if s > target {
					a1 = t
					s1 = s
				} else {
					a2 = t
					s2 = s
				}

				if rootIterationCount == maxRootIterations {
					break
				}
			}

			pushBackIterations++
			if pushBackIterations == geom.MaxPolygonVertices {
				break
			}
		}

		iter++

		if done {
			break
		}

		if iter == maxTOIIterations {
			// root finder got stuck, semi-victory
			output.State = TOIStateFailed
			output.Fraction = t1
			break
		}
	}

	return output
}
