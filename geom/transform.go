package geom

import "math"

// Rot is a rotation stored as cosine and sine of the angle.
type Rot struct {
	C, S float64
}

// RotIdentity is the zero rotation.
var RotIdentity = Rot{C: 1, S: 0}

// MakeRot builds a rotation from an angle in radians.
func MakeRot(radians float64) Rot {
	return Rot{C: math.Cos(radians), S: math.Sin(radians)}
}

// NormalizeRot rescales q to unit length. A degenerate rotation becomes the
// identity.
func NormalizeRot(q Rot) Rot {
	mag := math.Sqrt(q.S*q.S + q.C*q.C)
	if mag < epsilon {
		return RotIdentity
	}
	inv := 1.0 / mag
	return Rot{C: q.C * inv, S: q.S * inv}
}

// IntegrateRotation advances q by deltaAngle radians using a first-order
// update followed by normalization.
func IntegrateRotation(q Rot, deltaAngle float64) Rot {
	q2 := Rot{C: q.C - deltaAngle*q.S, S: q.S + deltaAngle*q.C}
	return NormalizeRot(q2)
}

// IsValid reports whether q is finite and normalized.
func (q Rot) IsValid() bool {
	if !IsValid(q.S) || !IsValid(q.C) {
		return false
	}
	return math.Abs(1.0-(q.S*q.S+q.C*q.C)) < 6e-4
}

// Angle returns the rotation angle in radians.
func (q Rot) Angle() float64 {
	return Atan2(q.S, q.C)
}

// XAxis returns the rotated x axis.
func (q Rot) XAxis() Vec2 {
	return Vec2{q.C, q.S}
}

// YAxis returns the rotated y axis.
func (q Rot) YAxis() Vec2 {
	return Vec2{-q.S, q.C}
}

// MulRot composes two rotations: q * r.
func MulRot(q, r Rot) Rot {
	return Rot{
		S: q.S*r.C + q.C*r.S,
		C: q.C*r.C - q.S*r.S,
	}
}

// InvMulRot returns transpose(q) * r.
func InvMulRot(q, r Rot) Rot {
	return Rot{
		S: q.C*r.S - q.S*r.C,
		C: q.C*r.C + q.S*r.S,
	}
}

// RelativeAngle returns the angle of b relative to a.
func RelativeAngle(b, a Rot) float64 {
	s := b.S*a.C - b.C*a.S
	c := b.C*a.C + b.S*a.S
	return Atan2(s, c)
}

// NLerp normalizes the linear interpolation of two rotations.
func NLerp(q1, q2 Rot, t float64) Rot {
	omt := 1 - t
	return NormalizeRot(Rot{C: omt*q1.C + t*q2.C, S: omt*q1.S + t*q2.S})
}

// ComputeAngularVelocity returns the angular velocity needed to rotate from
// q1 to q2 in time 1/inv_h.
func ComputeAngularVelocity(q1, q2 Rot, invH float64) float64 {
	return invH * (q2.S*q1.C - q2.C*q1.S)
}

// RotateVector rotates v by q.
func RotateVector(q Rot, v Vec2) Vec2 {
	return Vec2{q.C*v[0] - q.S*v[1], q.S*v[0] + q.C*v[1]}
}

// InvRotateVector rotates v by the inverse of q.
func InvRotateVector(q Rot, v Vec2) Vec2 {
	return Vec2{q.C*v[0] + q.S*v[1], -q.S*v[0] + q.C*v[1]}
}

// Transform is a rigid transform: translation P and rotation Q.
type Transform struct {
	P Vec2
	Q Rot
}

// TransformIdentity has no translation and no rotation.
var TransformIdentity = Transform{Q: RotIdentity}

// TransformPoint maps a local point into the frame of t.
func TransformPoint(t Transform, p Vec2) Vec2 {
	x := (t.Q.C*p[0] - t.Q.S*p[1]) + t.P[0]
	y := (t.Q.S*p[0] + t.Q.C*p[1]) + t.P[1]
	return Vec2{x, y}
}

// InvTransformPoint maps a point in the frame of t back to local space.
func InvTransformPoint(t Transform, p Vec2) Vec2 {
	vx := p[0] - t.P[0]
	vy := p[1] - t.P[1]
	return Vec2{t.Q.C*vx + t.Q.S*vy, -t.Q.S*vx + t.Q.C*vy}
}

// MulTransforms returns A * B.
func MulTransforms(a, b Transform) Transform {
	return Transform{
		Q: MulRot(a.Q, b.Q),
		P: RotateVector(a.Q, b.P).Add(a.P),
	}
}

// InvMulTransforms returns inv(A) * B.
func InvMulTransforms(a, b Transform) Transform {
	return Transform{
		Q: InvMulRot(a.Q, b.Q),
		P: InvRotateVector(a.Q, b.P.Sub(a.P)),
	}
}
