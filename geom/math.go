// Package geom holds the 2D math kernel and the collision primitives
// (circles, capsules, polygons and segments) used by the rest of the engine.
//
// Vectors are mgl64.Vec2 values. Rotations are stored as cosine/sine pairs so
// that integrating angular velocity never needs trigonometry.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// Vec2 is a 2D column vector.
type Vec2 = mgl64.Vec2

const (
	// Pi is used for angle wrapping.
	Pi = math.Pi

	// HugeNumber bounds world coordinates. AABBs beyond it are rejected.
	HugeNumber = 100000.0 * LengthUnitsPerMeter

	// LengthUnitsPerMeter scales every length tolerance in the engine.
	LengthUnitsPerMeter = 1.0

	// LinearSlop is the collision and constraint tolerance.
	LinearSlop = 0.005 * LengthUnitsPerMeter

	// SpeculativeDistance lets contacts be created before shapes touch.
	SpeculativeDistance = 4.0 * LinearSlop

	// AABBMargin fattens dynamic proxies so small moves do not touch the tree.
	AABBMargin = 0.1 * LengthUnitsPerMeter

	// PolygonRadius is the skin used by boxes made with rounded corners.
	PolygonRadius = 2.0 * LinearSlop

	// MaxPolygonVertices bounds polygon and proxy vertex counts.
	MaxPolygonVertices = 8

	epsilon = 1.19209290e-7
)

// Zero is the zero vector.
var Zero = Vec2{}

// IsValid reports whether x is a finite number.
func IsValid(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// IsValidVec2 reports whether both components are finite.
func IsValidVec2(v Vec2) bool {
	return IsValid(v[0]) && IsValid(v[1])
}

// Clamp restricts a to [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](a, lo, hi T) T {
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}

// V builds a vector.
func V(x, y float64) Vec2 {
	return Vec2{x, y}
}

// Cross is the 2D cross product (a scalar).
func Cross(a, b Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// CrossVS returns cross(v, s) = (s*v.y, -s*v.x).
func CrossVS(v Vec2, s float64) Vec2 {
	return Vec2{s * v[1], -s * v[0]}
}

// CrossSV returns cross(s, v) = (-s*v.y, s*v.x).
func CrossSV(s float64, v Vec2) Vec2 {
	return Vec2{-s * v[1], s * v[0]}
}

// LeftPerp rotates v counter-clockwise by 90 degrees.
func LeftPerp(v Vec2) Vec2 {
	return Vec2{-v[1], v[0]}
}

// RightPerp rotates v clockwise by 90 degrees.
func RightPerp(v Vec2) Vec2 {
	return Vec2{v[1], -v[0]}
}

// Neg returns -v.
func Neg(v Vec2) Vec2 {
	return Vec2{-v[0], -v[1]}
}

// MulAdd returns a + s*b.
func MulAdd(a Vec2, s float64, b Vec2) Vec2 {
	return Vec2{a[0] + s*b[0], a[1] + s*b[1]}
}

// MulSub returns a - s*b.
func MulSub(a Vec2, s float64, b Vec2) Vec2 {
	return Vec2{a[0] - s*b[0], a[1] - s*b[1]}
}

// Lerp interpolates between a and b.
func Lerp(a, b Vec2, t float64) Vec2 {
	return Vec2{(1-t)*a[0] + t*b[0], (1-t)*a[1] + t*b[1]}
}

// MulSV scales v component-wise by another vector.
func MulSV(a, b Vec2) Vec2 {
	return Vec2{a[0] * b[0], a[1] * b[1]}
}

// Abs returns the component-wise absolute value.
func Abs(v Vec2) Vec2 {
	return Vec2{math.Abs(v[0]), math.Abs(v[1])}
}

// Min returns the component-wise minimum.
func Min(a, b Vec2) Vec2 {
	return Vec2{min(a[0], b[0]), min(a[1], b[1])}
}

// Max returns the component-wise maximum.
func Max(a, b Vec2) Vec2 {
	return Vec2{max(a[0], b[0]), max(a[1], b[1])}
}

// Distance between two points.
func Distance(a, b Vec2) float64 {
	return b.Sub(a).Len()
}

// DistanceSquared between two points.
func DistanceSquared(a, b Vec2) float64 {
	return b.Sub(a).LenSqr()
}

// Normalize returns the unit vector of v, or the zero vector when v is
// too short to normalize.
func Normalize(v Vec2) Vec2 {
	length := v.Len()
	if length < epsilon {
		return Vec2{}
	}
	inv := 1.0 / length
	return Vec2{inv * v[0], inv * v[1]}
}

// GetLengthAndNormalize returns the length of v and its unit vector. A
// degenerate vector yields (0, zero).
func GetLengthAndNormalize(v Vec2) (float64, Vec2) {
	length := v.Len()
	if length < epsilon {
		return 0, Vec2{}
	}
	inv := 1.0 / length
	return length, Vec2{inv * v[0], inv * v[1]}
}

// IsNormalized reports whether v has unit length within tolerance.
func IsNormalized(v Vec2) bool {
	aa := v.Dot(v)
	return math.Abs(1.0-aa) < 10.0*epsilon
}

// Mat22 is a 2x2 matrix in column-major order.
type Mat22 = mgl64.Mat2

// Solve22 solves A * x = b. A singular matrix yields the zero vector.
func Solve22(a Mat22, b Vec2) Vec2 {
	a11, a21, a12, a22 := a[0], a[1], a[2], a[3]
	det := a11*a22 - a12*a21
	if det != 0 {
		det = 1.0 / det
	}
	return Vec2{det * (a22*b[0] - a12*b[1]), det * (a11*b[1] - a21*b[0])}
}

// GetInverse22 inverts A, returning the zero matrix when A is singular.
func GetInverse22(a Mat22) Mat22 {
	det := a.Det()
	if det != 0 {
		det = 1.0 / det
	}
	return Mat22{det * a[3], -det * a[1], -det * a[2], det * a[0]}
}

// Atan2 is a fast approximation of math.Atan2 with about 1e-4 error, good
// enough for joint angles and cheap enough for the solver.
func Atan2(y, x float64) float64 {
	ax := math.Abs(x)
	ay := math.Abs(y)
	mx := max(ay, ax)
	mn := min(ay, ax)
	a := mn / (mx + 1.17549435e-38)

	s := a * a
	c := s * a
	q := s * s
	r := 0.024840285*q + 0.18681418
	t := -0.094097948*q - 0.33213072
	r = r*s + t
	r = r*c + a

	if ay > ax {
		r = 1.57079637 - r
	}
	if x < 0 {
		r = 3.14159274 - r
	}
	if y < 0 {
		r = -r
	}
	return r
}

// UnwindAngle wraps an angle to [-pi, pi].
func UnwindAngle(radians float64) float64 {
	if radians >= -Pi && radians <= Pi {
		return radians
	}
	return math.Remainder(radians, 2*Pi)
}
