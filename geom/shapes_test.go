package geom

import (
	"math"
	"testing"
)

const tolerance = 1e-9

// nearVec compares components with an absolute tolerance so that round-off
// around zero is accepted.
func nearVec(a, b Vec2, tol float64) bool {
	return math.Abs(a[0]-b[0]) <= tol && math.Abs(a[1]-b[1]) <= tol
}

func TestComputeCircleMass(t *testing.T) {
	md := ComputeCircleMass(Circle{Radius: 0.5}, 1.0)

	expectedMass := Pi * 0.25
	if math.Abs(md.Mass-expectedMass) > tolerance {
		t.Errorf("Expected mass %v, got %v", expectedMass, md.Mass)
	}
	expectedInertia := expectedMass * 0.5 * 0.25
	if math.Abs(md.RotationalInertia-expectedInertia) > tolerance {
		t.Errorf("Expected inertia %v, got %v", expectedInertia, md.RotationalInertia)
	}
}

func TestComputePolygonMass_Box(t *testing.T) {
	md := ComputePolygonMass(MakeBox(1, 2), 3.0)

	// 2 x 4 box of density 3
	if math.Abs(md.Mass-24) > tolerance {
		t.Errorf("Expected mass 24, got %v", md.Mass)
	}
	if md.Center.Len() > tolerance {
		t.Errorf("Expected centered mass, got %v", md.Center)
	}
	expectedInertia := 24.0 * (4 + 16) / 12.0
	if math.Abs(md.RotationalInertia-expectedInertia) > 1e-6 {
		t.Errorf("Expected inertia %v, got %v", expectedInertia, md.RotationalInertia)
	}
}

func TestComputePolygonMass_OffsetBox(t *testing.T) {
	md := ComputePolygonMass(MakeOffsetBox(1, 1, Vec2{2, 0}, RotIdentity), 1.0)

	if math.Abs(md.Mass-4) > tolerance {
		t.Errorf("Expected mass 4, got %v", md.Mass)
	}
	if !nearVec(md.Center, Vec2{2, 0}, 1e-9) {
		t.Errorf("Expected center (2, 0), got %v", md.Center)
	}
	// parallel axis: I = I_c + m d^2
	expectedInertia := 4.0*(4+4)/12.0 + 4*4
	if math.Abs(md.RotationalInertia-expectedInertia) > 1e-6 {
		t.Errorf("Expected inertia %v, got %v", expectedInertia, md.RotationalInertia)
	}
}

func TestComputeCapsuleMass_MatchesCircleWhenDegenerate(t *testing.T) {
	c := ComputeCapsuleMass(Capsule{Radius: 1}, 2)
	circle := ComputeCircleMass(Circle{Radius: 1}, 2)

	if math.Abs(c.Mass-circle.Mass) > tolerance {
		t.Errorf("Expected capsule mass %v, got %v", circle.Mass, c.Mass)
	}
}

func TestComputeAABBs(t *testing.T) {
	xf := Transform{P: Vec2{1, 2}, Q: MakeRot(0.5 * Pi)}

	t.Run("circle", func(t *testing.T) {
		aabb := ComputeCircleAABB(Circle{Center: Vec2{1, 0}, Radius: 0.5}, xf)
		expected := AABB{LowerBound: Vec2{0.5, 2.5}, UpperBound: Vec2{1.5, 3.5}}
		if !nearVec(aabb.LowerBound, expected.LowerBound, 1e-9) ||
			!nearVec(aabb.UpperBound, expected.UpperBound, 1e-9) {
			t.Errorf("Expected %v, got %v", expected, aabb)
		}
	})

	t.Run("polygon", func(t *testing.T) {
		aabb := ComputePolygonAABB(MakeBox(2, 1), xf)
		// rotated by 90 degrees the box becomes 1 x 2 half extents
		expected := AABB{LowerBound: Vec2{0, 0}, UpperBound: Vec2{2, 4}}
		if !nearVec(aabb.LowerBound, expected.LowerBound, 1e-9) ||
			!nearVec(aabb.UpperBound, expected.UpperBound, 1e-9) {
			t.Errorf("Expected %v, got %v", expected, aabb)
		}
	})
}

func TestPointInShapes(t *testing.T) {
	if !PointInCircle(Vec2{0.3, 0.3}, Circle{Radius: 0.5}) {
		t.Errorf("Expected point inside circle")
	}
	if PointInCircle(Vec2{0.5, 0.5}, Circle{Radius: 0.5}) {
		t.Errorf("Expected point outside circle")
	}
	if !PointInCapsule(Vec2{1, 0.4}, Capsule{Center1: Vec2{-1, 0}, Center2: Vec2{1, 0}, Radius: 0.5}) {
		t.Errorf("Expected point inside capsule")
	}
	if !PointInPolygon(Vec2{0.9, 0.9}, MakeBox(1, 1)) {
		t.Errorf("Expected point inside box")
	}
	if PointInPolygon(Vec2{1.05, 1.05}, MakeBox(1, 1)) {
		t.Errorf("Expected point outside square corner")
	}
	if !PointInPolygon(Vec2{1.05, 0}, MakeRoundedBox(1, 1, 0.1)) {
		t.Errorf("Expected point inside rounded box skin")
	}
}

func TestRotations(t *testing.T) {
	q := MakeRot(0.3)
	r := MakeRot(0.4)

	if math.Abs(MulRot(q, r).Angle()-0.7) > 1e-3 {
		t.Errorf("Expected composed angle 0.7, got %v", MulRot(q, r).Angle())
	}
	if math.Abs(RelativeAngle(r, q)-0.1) > 1e-3 {
		t.Errorf("Expected relative angle 0.1, got %v", RelativeAngle(r, q))
	}

	v := Vec2{1, 2}
	back := InvRotateVector(q, RotateVector(q, v))
	if !nearVec(back, v, 1e-12) {
		t.Errorf("Expected %v after round trip, got %v", v, back)
	}

	xf := Transform{P: Vec2{3, -1}, Q: q}
	p := InvTransformPoint(xf, TransformPoint(xf, v))
	if !nearVec(p, v, 1e-12) {
		t.Errorf("Expected %v after transform round trip, got %v", v, p)
	}

	if NormalizeRot(Rot{}) != RotIdentity {
		t.Errorf("Expected degenerate rotation to normalize to identity")
	}
	if Normalize(Vec2{}) != (Vec2{}) {
		t.Errorf("Expected zero vector to normalize to zero")
	}
}

func TestSolve22_Singular(t *testing.T) {
	x := Solve22(Mat22{1, 2, 2, 4}, Vec2{1, 1})
	if x != (Vec2{}) {
		t.Errorf("Expected zero solution for singular matrix, got %v", x)
	}

	x = Solve22(Mat22{2, 0, 0, 4}, Vec2{2, 2})
	if !nearVec(x, Vec2{1, 0.5}, 1e-12) {
		t.Errorf("Expected (1, 0.5), got %v", x)
	}
}

func TestUnwindAngle(t *testing.T) {
	if a := UnwindAngle(3 * Pi); math.Abs(math.Abs(a)-Pi) > 1e-9 {
		t.Errorf("Expected +/-pi, got %v", a)
	}
	if a := UnwindAngle(-2.5 * Pi); math.Abs(a+0.5*Pi) > 1e-9 {
		t.Errorf("Expected -pi/2, got %v", a)
	}
}
