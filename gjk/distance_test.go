package gjk

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/geom"
)

func boxProxy(hx, hy float64) ShapeProxy {
	box := geom.MakeBox(hx, hy)
	return MakeProxy(box.Vertices[:box.Count], 0)
}

func pointProxy(radius float64) ShapeProxy {
	return MakeProxy([]Vec2{{0, 0}}, radius)
}

func at(x, y float64) geom.Transform {
	return geom.Transform{P: Vec2{x, y}, Q: geom.RotIdentity}
}

func TestShapeDistance(t *testing.T) {
	t.Run("separated boxes", func(t *testing.T) {
		input := DistanceInput{
			ProxyA:     boxProxy(1, 1),
			ProxyB:     boxProxy(1, 1),
			TransformA: at(0, 0),
			TransformB: at(4, 0.5),
		}
		var cache SimplexCache
		output := ShapeDistance(&cache, &input)

		if math.Abs(output.Distance-2) > 1e-9 {
			t.Errorf("Expected distance 2, got %v", output.Distance)
		}
		if math.Abs(output.Normal.X()-1) > 1e-9 {
			t.Errorf("Expected normal along +x, got %v", output.Normal)
		}
		if cache.Count == 0 {
			t.Errorf("Expected cache to be written")
		}
	})

	t.Run("circles with radii", func(t *testing.T) {
		input := DistanceInput{
			ProxyA:     pointProxy(1),
			ProxyB:     pointProxy(1),
			TransformA: at(0, 0),
			TransformB: at(3, 4),
			UseRadii:   true,
		}
		var cache SimplexCache
		output := ShapeDistance(&cache, &input)

		if math.Abs(output.Distance-3) > 1e-9 {
			t.Errorf("Expected distance 3, got %v", output.Distance)
		}
		if math.Abs(output.PointA.Len()-1) > 1e-9 {
			t.Errorf("Expected pointA on the surface of A, got %v", output.PointA)
		}
	})

	t.Run("overlapping boxes", func(t *testing.T) {
		input := DistanceInput{
			ProxyA:     boxProxy(1, 1),
			ProxyB:     boxProxy(1, 1),
			TransformA: at(0, 0),
			TransformB: at(1, 0.25),
		}
		var cache SimplexCache
		output := ShapeDistance(&cache, &input)

		if output.Distance != 0 {
			t.Errorf("Expected distance 0 for overlap, got %v", output.Distance)
		}
	})

	t.Run("overlap offsets report exactly zero", func(t *testing.T) {
		for _, x := range []float64{0.1, 0.2, 0.3, 0.5, 0.9} {
			input := DistanceInput{
				ProxyA:     boxProxy(0.5, 0.5),
				ProxyB:     boxProxy(0.5, 0.5),
				TransformA: at(0, 0),
				TransformB: at(x, 0),
			}
			var cache SimplexCache
			output := ShapeDistance(&cache, &input)

			if output.Distance != 0 {
				t.Errorf("Expected distance 0 at offset %v, got %v", x, output.Distance)
			}
			if output.PointA != output.PointB {
				t.Errorf("Expected matching witness points at offset %v, got %v and %v", x, output.PointA, output.PointB)
			}
		}
	})

	t.Run("rotated box against point", func(t *testing.T) {
		input := DistanceInput{
			ProxyA:     boxProxy(1, 1),
			ProxyB:     pointProxy(0),
			TransformA: geom.Transform{P: Vec2{0, 0}, Q: geom.MakeRot(0.25 * math.Pi)},
			TransformB: at(3, 0),
		}
		var cache SimplexCache
		output := ShapeDistance(&cache, &input)

		expected := 3 - math.Sqrt2
		if math.Abs(output.Distance-expected) > 1e-9 {
			t.Errorf("Expected distance %v, got %v", expected, output.Distance)
		}
	})

	t.Run("warm cache gives same answer", func(t *testing.T) {
		input := DistanceInput{
			ProxyA:     boxProxy(0.5, 2),
			ProxyB:     boxProxy(1, 0.5),
			TransformA: at(0, 0),
			TransformB: geom.Transform{P: Vec2{3, 1}, Q: geom.MakeRot(0.3)},
		}
		var cache SimplexCache
		cold := ShapeDistance(&cache, &input)
		warm := ShapeDistance(&cache, &input)

		if math.Abs(cold.Distance-warm.Distance) > 1e-9 {
			t.Errorf("Expected %v, got %v", cold.Distance, warm.Distance)
		}
		if warm.Iterations > cold.Iterations {
			t.Errorf("Expected warm start to take at most %d iterations, got %d", cold.Iterations, warm.Iterations)
		}
	})

	t.Run("stale cache falls back", func(t *testing.T) {
		input := DistanceInput{
			ProxyA:     pointProxy(0),
			ProxyB:     pointProxy(0),
			TransformA: at(0, 0),
			TransformB: at(2, 0),
		}
		cache := SimplexCache{Count: 2, IndexA: [3]uint8{5, 7}, IndexB: [3]uint8{3, 6}}
		output := ShapeDistance(&cache, &input)

		if math.Abs(output.Distance-2) > 1e-9 {
			t.Errorf("Expected distance 2, got %v", output.Distance)
		}
	})
}

// brute force distance between two convex polygons in the plane
func bruteForceDistance(a []Vec2, b []Vec2) float64 {
	best := math.MaxFloat64
	for i := range a {
		a1, a2 := a[i], a[(i+1)%len(a)]
		for j := range b {
			b1, b2 := b[j], b[(j+1)%len(b)]
			result := SegmentDistance(a1, a2, b1, b2)
			best = math.Min(best, math.Sqrt(result.DistanceSquared))
		}
	}
	return best
}

func TestShapeDistanceMatchesBruteForce(t *testing.T) {
	boxA := geom.MakeBox(1, 0.5)
	boxB := geom.MakeBox(0.3, 0.8)

	for i := 0; i < 16; i++ {
		angle := float64(i) * 0.4
		xfB := geom.Transform{P: Vec2{3 * math.Cos(angle), 3 * math.Sin(angle)}, Q: geom.MakeRot(angle * 1.7)}

		input := DistanceInput{
			ProxyA:     MakeProxy(boxA.Vertices[:4], 0),
			ProxyB:     MakeProxy(boxB.Vertices[:4], 0),
			TransformA: geom.TransformIdentity,
			TransformB: xfB,
		}
		var cache SimplexCache
		output := ShapeDistance(&cache, &input)

		worldB := make([]Vec2, 4)
		for k := 0; k < 4; k++ {
			worldB[k] = geom.TransformPoint(xfB, boxB.Vertices[k])
		}
		expected := bruteForceDistance(boxA.Vertices[:4], worldB)

		if math.Abs(output.Distance-expected) > 1e-6 {
			t.Errorf("angle %v: Expected distance %v, got %v", angle, expected, output.Distance)
		}
	}
}

func TestSegmentDistance(t *testing.T) {
	t.Run("crossing in projection", func(t *testing.T) {
		result := SegmentDistance(Vec2{-1, 0}, Vec2{1, 0}, Vec2{0, 1}, Vec2{0, 3})
		if math.Abs(result.DistanceSquared-1) > 1e-12 {
			t.Errorf("Expected squared distance 1, got %v", result.DistanceSquared)
		}
		if math.Abs(result.Fraction1-0.5) > 1e-12 || result.Fraction2 != 0 {
			t.Errorf("Expected fractions (0.5, 0), got (%v, %v)", result.Fraction1, result.Fraction2)
		}
	})

	t.Run("parallel", func(t *testing.T) {
		result := SegmentDistance(Vec2{0, 0}, Vec2{2, 0}, Vec2{1, 2}, Vec2{3, 2})
		if math.Abs(result.DistanceSquared-4) > 1e-12 {
			t.Errorf("Expected squared distance 4, got %v", result.DistanceSquared)
		}
	})

	t.Run("degenerate", func(t *testing.T) {
		result := SegmentDistance(Vec2{0, 0}, Vec2{0, 0}, Vec2{-1, 1}, Vec2{1, 1})
		if math.Abs(result.DistanceSquared-1) > 1e-12 {
			t.Errorf("Expected squared distance 1, got %v", result.DistanceSquared)
		}
		if math.Abs(result.Fraction2-0.5) > 1e-12 {
			t.Errorf("Expected fraction2 0.5, got %v", result.Fraction2)
		}
	})
}
