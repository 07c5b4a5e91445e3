package geom

import (
	"math"
	"testing"
)

func TestRayCastCircle(t *testing.T) {
	input := RayCastInput{Origin: Vec2{-2, 0}, Translation: Vec2{4, 0}, MaxFraction: 1}
	out := RayCastCircle(input, Circle{Radius: 1})

	if !out.Hit {
		t.Fatalf("Expected hit")
	}
	if math.Abs(out.Fraction-0.25) > tolerance {
		t.Errorf("Expected fraction 0.25, got %v", out.Fraction)
	}
	if !nearVec(out.Point, Vec2{-1, 0}, 1e-9) {
		t.Errorf("Expected point (-1, 0), got %v", out.Point)
	}

	input.MaxFraction = 0.2
	if RayCastCircle(input, Circle{Radius: 1}).Hit {
		t.Errorf("Expected clipped ray to miss")
	}
}

func TestRayCastCapsule(t *testing.T) {
	capsule := Capsule{Center1: Vec2{-1, 0}, Center2: Vec2{1, 0}, Radius: 0.5}

	out := RayCastCapsule(RayCastInput{Origin: Vec2{0, 2}, Translation: Vec2{0, -4}, MaxFraction: 1}, capsule)
	if !out.Hit {
		t.Fatalf("Expected hit on the flat side")
	}
	if math.Abs(out.Point[1]-0.5) > 1e-9 || !nearVec(out.Normal, Vec2{0, 1}, 1e-9) {
		t.Errorf("Expected hit at y=0.5 with up normal, got %v %v", out.Point, out.Normal)
	}

	out = RayCastCapsule(RayCastInput{Origin: Vec2{-3, 0}, Translation: Vec2{4, 0}, MaxFraction: 1}, capsule)
	if !out.Hit || math.Abs(out.Point[0]+1.5) > 1e-9 {
		t.Errorf("Expected hit on the rounded end at x=-1.5, got %+v", out)
	}
}

func TestRayCastSegment_OneSided(t *testing.T) {
	seg := Segment{Point1: Vec2{-1, 0}, Point2: Vec2{1, 0}}

	// the solid side is to the right of p1->p2, which is -y
	fromBelow := RayCastInput{Origin: Vec2{0, -1}, Translation: Vec2{0, 2}, MaxFraction: 1}
	fromAbove := RayCastInput{Origin: Vec2{0, 1}, Translation: Vec2{0, -2}, MaxFraction: 1}

	if !RayCastSegment(fromBelow, seg, true).Hit {
		t.Errorf("Expected one-sided hit from the right side")
	}
	if RayCastSegment(fromAbove, seg, true).Hit {
		t.Errorf("Expected one-sided miss from the left side")
	}
	if !RayCastSegment(fromAbove, seg, false).Hit {
		t.Errorf("Expected two-sided hit")
	}
}

func TestRayCastPolygon(t *testing.T) {
	out := RayCastPolygon(RayCastInput{Origin: Vec2{0, 5}, Translation: Vec2{0, -10}, MaxFraction: 1}, MakeBox(1, 1))
	if !out.Hit {
		t.Fatalf("Expected hit")
	}
	if math.Abs(out.Fraction-0.4) > tolerance || out.Normal != (Vec2{0, 1}) {
		t.Errorf("Expected fraction 0.4 and up normal, got %v %v", out.Fraction, out.Normal)
	}

	inside := RayCastPolygon(RayCastInput{Origin: Vec2{0, 0}, Translation: Vec2{0, 10}, MaxFraction: 1}, MakeBox(1, 1))
	if inside.Hit {
		t.Errorf("Expected ray starting inside to miss")
	}
}
