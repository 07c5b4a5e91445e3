// Package constraint holds the velocity-level solvers for contacts and joints.
//
// Every solver works on BodyState rows indexed by the awake solver set. A
// constraint touching a static or sleeping body stores NullIndex for that side
// and reads an identity state instead.
package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/geom"
)

// NullIndex marks a body side with no awake state row.
const NullIndex = -1

// Softness holds the coefficients of a soft constraint for one sub-step.
type Softness struct {
	BiasRate     float64
	MassScale    float64
	ImpulseScale float64
}

// MakeSoft turns a stiffness (hertz) and damping ratio into solver coefficients
// for the sub-step h. A zero hertz gives a rigid constraint with no bias.
func MakeSoft(hertz, zeta, h float64) Softness {
	if hertz == 0 {
		return Softness{BiasRate: 0, MassScale: 1, ImpulseScale: 0}
	}

	omega := 2 * geom.Pi * hertz
	a1 := 2*zeta + h*omega
	a2 := h * omega * a1
	a3 := 1 / (1 + a2)
	return Softness{BiasRate: omega / a1, MassScale: a2 * a3, ImpulseScale: a3}
}

// BodyState is the velocity row of an awake body. Positions are tracked as
// deltas from the start of the step to limit round-off far from the origin.
type BodyState struct {
	LinearVelocity  geom.Vec2
	AngularVelocity float64
	DeltaPosition   geom.Vec2
	DeltaRotation   geom.Rot
}

// IdentityBodyState is the state of a body that does not move this step.
var IdentityBodyState = BodyState{DeltaRotation: geom.RotIdentity}

// StepContext carries the per-step tuning shared by every constraint.
type StepContext struct {
	Dt, InvDt    float64
	H, InvH      float64
	SubStepCount int

	ContactSoftness Softness
	StaticSoftness  Softness
	JointSoftness   Softness

	RestitutionThreshold float64
	MaxPushVelocity      float64
	EnableWarmStarting   bool

	States []BodyState
}

// Tuning is the world configuration the step context is derived from.
type Tuning struct {
	ContactHertz         float64
	ContactDampingRatio  float64
	JointHertz           float64
	JointDampingRatio    float64
	ContactPushVelocity  float64
	RestitutionThreshold float64
	EnableWarmStarting   bool
}

// Configure computes the sub-step sizes and softness for a step of dt split in
// subStepCount sub-steps. Stiffness is capped relative to the sub-step rate so
// that large hertz values cannot make the solver unstable.
func (ctx *StepContext) Configure(dt float64, subStepCount int, tuning Tuning) {
	ctx.Dt = dt
	ctx.SubStepCount = max(1, subStepCount)
	if dt > 0 {
		ctx.InvDt = 1 / dt
		ctx.H = dt / float64(ctx.SubStepCount)
		ctx.InvH = float64(ctx.SubStepCount) * ctx.InvDt
	} else {
		ctx.InvDt = 0
		ctx.H = 0
		ctx.InvH = 0
	}

	subStepRate := float64(ctx.SubStepCount) * ctx.InvDt
	contactHertz := math.Min(tuning.ContactHertz, 0.25*subStepRate)
	jointHertz := math.Min(tuning.JointHertz, 0.125*subStepRate)

	ctx.ContactSoftness = MakeSoft(contactHertz, tuning.ContactDampingRatio, ctx.H)
	ctx.StaticSoftness = MakeSoft(2*contactHertz, tuning.ContactDampingRatio, ctx.H)
	ctx.JointSoftness = MakeSoft(2*jointHertz, tuning.JointDampingRatio, ctx.H)

	ctx.RestitutionThreshold = tuning.RestitutionThreshold
	ctx.MaxPushVelocity = tuning.ContactPushVelocity
	ctx.EnableWarmStarting = tuning.EnableWarmStarting
}

// state returns the awake row at index, or dummy for a body without one.
func (ctx *StepContext) state(index int, dummy *BodyState) *BodyState {
	if index == NullIndex {
		*dummy = IdentityBodyState
		return dummy
	}
	return &ctx.States[index]
}

// Material is the surface response of a shape.
type Material struct {
	Friction    float64
	Restitution float64
}

// MixFriction combines two friction coefficients with a geometric mean, so
// that a frictionless surface stays frictionless against anything.
func MixFriction(a, b Material) float64 {
	return math.Sqrt(a.Friction * b.Friction)
}

// MixRestitution keeps the bouncier of the two materials.
func MixRestitution(a, b Material) float64 {
	return math.Max(a.Restitution, b.Restitution)
}

// applyImpulse pushes P at rA on A and at rB on B in opposite directions.
func applyImpulse(vA *geom.Vec2, wA *float64, vB *geom.Vec2, wB *float64, mA, iA, mB, iB float64, rA, rB, P geom.Vec2) {
	*vA = geom.MulSub(*vA, mA, P)
	*wA -= iA * geom.Cross(rA, P)
	*vB = geom.MulAdd(*vB, mB, P)
	*wB += iB * geom.Cross(rB, P)
}

// pointMass is the 2x2 effective mass of a point to point constraint.
func pointMass(mA, iA, mB, iB float64, rA, rB geom.Vec2) geom.Mat22 {
	k11 := mA + mB + rA[1]*rA[1]*iA + rB[1]*rB[1]*iB
	k12 := -rA[1]*rA[0]*iA - rB[1]*rB[0]*iB
	k22 := mA + mB + rA[0]*rA[0]*iA + rB[0]*rB[0]*iB
	return geom.Mat22{k11, k12, k12, k22}
}

// limitCoefficients returns the bias and scales of one side of a limit with
// separation c. Positive separation is solved speculatively.
func limitCoefficients(c float64, useBias bool, ctx *StepContext) (bias, massScale, impulseScale float64) {
	if c > 0 {
		return c * ctx.InvH, 1, 0
	}
	if useBias {
		return ctx.JointSoftness.BiasRate * c, ctx.JointSoftness.MassScale, ctx.JointSoftness.ImpulseScale
	}
	return 0, 1, 0
}

func invOrZero(k float64) float64 {
	if k > 0 {
		return 1 / k
	}
	return 0
}
