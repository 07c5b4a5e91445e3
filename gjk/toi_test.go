package gjk

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/geom"
)

func linearSweep(from, to Vec2) Sweep {
	return Sweep{C1: from, C2: to, Q1: geom.RotIdentity, Q2: geom.RotIdentity}
}

func TestShapeCast(t *testing.T) {
	t.Run("circle hits circle", func(t *testing.T) {
		input := ShapeCastPairInput{
			ProxyA:       pointProxy(0.5),
			ProxyB:       pointProxy(0.5),
			TransformA:   at(0, 0),
			TransformB:   at(-5, 0),
			TranslationB: Vec2{10, 0},
			MaxFraction:  1,
		}
		output := ShapeCast(&input)

		if !output.Hit {
			t.Fatalf("Expected a hit")
		}
		if math.Abs(output.Fraction-0.4) > 0.01 {
			t.Errorf("Expected fraction near 0.4, got %v", output.Fraction)
		}
		if output.Normal.X() > -0.99 {
			t.Errorf("Expected normal along -x, got %v", output.Normal)
		}
		if math.Abs(output.Point.X()+0.5) > 0.01 {
			t.Errorf("Expected point near x=-0.5, got %v", output.Point)
		}
	})

	t.Run("moving away misses", func(t *testing.T) {
		input := ShapeCastPairInput{
			ProxyA:       boxProxy(0.5, 0.5),
			ProxyB:       pointProxy(0.1),
			TransformA:   at(0, 0),
			TransformB:   at(-5, 0),
			TranslationB: Vec2{-10, 0},
			MaxFraction:  1,
		}
		if output := ShapeCast(&input); output.Hit {
			t.Errorf("Expected no hit, got fraction %v", output.Fraction)
		}
	})

	t.Run("too short misses", func(t *testing.T) {
		input := ShapeCastPairInput{
			ProxyA:       boxProxy(0.5, 0.5),
			ProxyB:       pointProxy(0.1),
			TransformA:   at(0, 0),
			TransformB:   at(-5, 0),
			TranslationB: Vec2{2, 0},
			MaxFraction:  1,
		}
		if output := ShapeCast(&input); output.Hit {
			t.Errorf("Expected no hit, got fraction %v", output.Fraction)
		}
	})

	t.Run("initial overlap does not hit", func(t *testing.T) {
		input := ShapeCastPairInput{
			ProxyA:       boxProxy(1, 1),
			ProxyB:       boxProxy(1, 1),
			TransformA:   at(0, 0),
			TransformB:   at(0.5, 0),
			TranslationB: Vec2{1, 0},
			MaxFraction:  1,
		}
		if output := ShapeCast(&input); output.Hit {
			t.Errorf("Expected no hit for initial overlap")
		}
	})
}

func TestRayCastRoundedPolygon(t *testing.T) {
	shape := geom.MakeRoundedBox(1, 1, 0.5)
	input := geom.RayCastInput{Origin: Vec2{-5, 0}, Translation: Vec2{10, 0}, MaxFraction: 1}

	output := RayCastPolygon(input, shape)
	if !output.Hit {
		t.Fatalf("Expected a hit")
	}
	// surface at x = -1.5
	if math.Abs(output.Fraction-0.35) > 0.01 {
		t.Errorf("Expected fraction near 0.35, got %v", output.Fraction)
	}
}

func TestGetSweepTransform(t *testing.T) {
	sweep := Sweep{
		LocalCenter: Vec2{1, 0},
		C1:          Vec2{0, 0},
		C2:          Vec2{4, 0},
		Q1:          geom.RotIdentity,
		Q2:          geom.RotIdentity,
	}
	xf := GetSweepTransform(&sweep, 0.5)

	if math.Abs(xf.P.X()-1) > 1e-12 || math.Abs(xf.P.Y()) > 1e-12 {
		t.Errorf("Expected origin at (1, 0), got %v", xf.P)
	}
}

func TestTimeOfImpact(t *testing.T) {
	t.Run("box sweeps into box", func(t *testing.T) {
		input := TOIInput{
			ProxyA:      boxProxy(0.5, 0.5),
			ProxyB:      boxProxy(0.5, 0.5),
			SweepA:      linearSweep(Vec2{0, 0}, Vec2{0, 0}),
			SweepB:      linearSweep(Vec2{-10, 0}, Vec2{10, 0}),
			MaxFraction: 1,
		}
		output := TimeOfImpact(&input)

		if output.State != TOIStateHit {
			t.Fatalf("Expected state hit, got %v", output.State)
		}
		if output.Fraction < 0.44 || output.Fraction > 0.451 {
			t.Errorf("Expected fraction near 0.45, got %v", output.Fraction)
		}
	})

	t.Run("bullet circle through thin wall", func(t *testing.T) {
		input := TOIInput{
			ProxyA:      boxProxy(0.05, 5),
			ProxyB:      pointProxy(0.1),
			SweepA:      linearSweep(Vec2{0, 0}, Vec2{0, 0}),
			SweepB:      linearSweep(Vec2{-2, 0}, Vec2{2, 0}),
			MaxFraction: 1,
		}
		output := TimeOfImpact(&input)

		if output.State != TOIStateHit {
			t.Fatalf("Expected state hit, got %v", output.State)
		}
		// contact when the circle center reaches x = -0.15
		if math.Abs(output.Fraction-0.4625) > 0.01 {
			t.Errorf("Expected fraction near 0.4625, got %v", output.Fraction)
		}
	})

	t.Run("passing by stays separated", func(t *testing.T) {
		input := TOIInput{
			ProxyA:      boxProxy(0.5, 0.5),
			ProxyB:      boxProxy(0.5, 0.5),
			SweepA:      linearSweep(Vec2{0, 0}, Vec2{0, 0}),
			SweepB:      linearSweep(Vec2{-10, 3}, Vec2{10, 3}),
			MaxFraction: 1,
		}
		output := TimeOfImpact(&input)

		if output.State != TOIStateSeparated {
			t.Errorf("Expected state separated, got %v", output.State)
		}
		if output.Fraction != 1 {
			t.Errorf("Expected fraction 1, got %v", output.Fraction)
		}
	})

	t.Run("initial overlap", func(t *testing.T) {
		for _, x := range []float64{0.1, 0.2, 0.3, 0.5, 0.9} {
			input := TOIInput{
				ProxyA:      boxProxy(0.5, 0.5),
				ProxyB:      boxProxy(0.5, 0.5),
				SweepA:      linearSweep(Vec2{0, 0}, Vec2{0, 0}),
				SweepB:      linearSweep(Vec2{x, 0}, Vec2{5, 0}),
				MaxFraction: 1,
			}
			output := TimeOfImpact(&input)

			if output.State != TOIStateOverlapped {
				t.Errorf("Expected state overlapped at offset %v, got %v", x, output.State)
			}
		}
	})
}
