package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/geom"
)

// Revolute pins two anchors together and lets the bodies rotate about them.
type Revolute struct {
	ReferenceAngle float64
	EnableSpring   bool
	Hertz          float64
	DampingRatio   float64
	EnableMotor    bool
	MotorSpeed     float64
	MaxMotorTorque float64
	EnableLimit    bool
	LowerAngle     float64
	UpperAngle     float64

	LinearImpulse geom.Vec2
	SpringImpulse float64
	MotorImpulse  float64
	LowerImpulse  float64
	UpperImpulse  float64

	deltaAngle     float64
	axialMass      float64
	springSoftness Softness
}

func (*Revolute) Type() JointType { return RevoluteJoint }

func (j *Revolute) ResetImpulses() {
	j.LinearImpulse = geom.Zero
	j.SpringImpulse = 0
	j.MotorImpulse = 0
	j.LowerImpulse = 0
	j.UpperImpulse = 0
}

func (j *Revolute) Prepare(base *JointSim, a, b *JointBody, ctx *StepContext) {
	j.deltaAngle = geom.UnwindAngle(geom.RelativeAngle(b.Transform.Q, a.Transform.Q) - j.ReferenceAngle)
	j.axialMass = invOrZero(base.InvIA + base.InvIB)
	j.springSoftness = MakeSoft(j.Hertz, j.DampingRatio, ctx.H)
}

func (j *Revolute) WarmStart(base *JointSim, ctx *StepContext) {
	var dummyA, dummyB BodyState
	f := base.frame(ctx, &dummyA, &dummyB)
	sA, sB := f.stateA, f.stateB

	axialImpulse := j.SpringImpulse + j.MotorImpulse + j.LowerImpulse - j.UpperImpulse

	sA.LinearVelocity = geom.MulSub(sA.LinearVelocity, base.InvMassA, j.LinearImpulse)
	sA.AngularVelocity -= base.InvIA * (geom.Cross(f.rA, j.LinearImpulse) + axialImpulse)
	sB.LinearVelocity = geom.MulAdd(sB.LinearVelocity, base.InvMassB, j.LinearImpulse)
	sB.AngularVelocity += base.InvIB * (geom.Cross(f.rB, j.LinearImpulse) + axialImpulse)
}

// Angle is the current joint angle relative to the reference angle.
func (j *Revolute) Angle(qA, qB geom.Rot) float64 {
	return geom.UnwindAngle(geom.RelativeAngle(qB, qA) - j.ReferenceAngle)
}

func (j *Revolute) Solve(base *JointSim, ctx *StepContext, useBias bool) {
	mA, iA, mB, iB := base.InvMassA, base.InvIA, base.InvMassB, base.InvIB

	var dummyA, dummyB BodyState
	f := base.frame(ctx, &dummyA, &dummyB)
	vA, wA := f.stateA.LinearVelocity, f.stateA.AngularVelocity
	vB, wB := f.stateB.LinearVelocity, f.stateB.AngularVelocity
	qA, qB := f.stateA.DeltaRotation, f.stateB.DeltaRotation

	fixedRotation := iA+iB == 0

	if j.EnableSpring && !fixedRotation {
		C := geom.RelativeAngle(qB, qA) + j.deltaAngle
		bias := j.springSoftness.BiasRate * C
		massScale := j.springSoftness.MassScale
		impulseScale := j.springSoftness.ImpulseScale

		impulse := -massScale*j.axialMass*(wB-wA+bias) - impulseScale*j.SpringImpulse
		j.SpringImpulse += impulse
		wA -= iA * impulse
		wB += iB * impulse
	}

	if j.EnableMotor && !fixedRotation {
		impulse := -j.axialMass * (wB - wA - j.MotorSpeed)
		oldImpulse := j.MotorImpulse
		maxImpulse := ctx.H * j.MaxMotorTorque
		j.MotorImpulse = geom.Clamp(oldImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = j.MotorImpulse - oldImpulse
		wA -= iA * impulse
		wB += iB * impulse
	}

	if j.EnableLimit && !fixedRotation {
		jointAngle := geom.UnwindAngle(geom.RelativeAngle(qB, qA) + j.deltaAngle)

		// lower
		{
			bias, massScale, impulseScale := limitCoefficients(jointAngle-j.LowerAngle, useBias, ctx)
			impulse := -j.axialMass*massScale*(wB-wA+bias) - impulseScale*j.LowerImpulse
			newImpulse := math.Max(j.LowerImpulse+impulse, 0)
			impulse = newImpulse - j.LowerImpulse
			j.LowerImpulse = newImpulse
			wA -= iA * impulse
			wB += iB * impulse
		}

		// upper, signs flipped to keep the impulse positive
		{
			bias, massScale, impulseScale := limitCoefficients(j.UpperAngle-jointAngle, useBias, ctx)
			impulse := -j.axialMass*massScale*(wA-wB+bias) - impulseScale*j.UpperImpulse
			newImpulse := math.Max(j.UpperImpulse+impulse, 0)
			impulse = newImpulse - j.UpperImpulse
			j.UpperImpulse = newImpulse
			wA += iA * impulse
			wB -= iB * impulse
		}
	}

	// point to point
	{
		rA := geom.RotateVector(qA, base.AnchorA)
		rB := geom.RotateVector(qB, base.AnchorB)
		Cdot := vB.Add(geom.CrossSV(wB, rB)).Sub(vA.Add(geom.CrossSV(wA, rA)))

		bias := geom.Zero
		massScale, impulseScale := 1.0, 0.0
		if useBias {
			dcA := f.stateA.DeltaPosition
			dcB := f.stateB.DeltaPosition
			separation := dcB.Sub(dcA).Add(rB.Sub(rA)).Add(base.DeltaCenter)
			bias = separation.Mul(ctx.JointSoftness.BiasRate)
			massScale = ctx.JointSoftness.MassScale
			impulseScale = ctx.JointSoftness.ImpulseScale
		}

		b := geom.Solve22(pointMass(mA, iA, mB, iB, rA, rB), Cdot.Add(bias))
		impulse := geom.Vec2{
			-massScale*b[0] - impulseScale*j.LinearImpulse[0],
			-massScale*b[1] - impulseScale*j.LinearImpulse[1],
		}
		j.LinearImpulse = j.LinearImpulse.Add(impulse)

		applyImpulse(&vA, &wA, &vB, &wB, mA, iA, mB, iB, rA, rB, impulse)
	}

	f.stateA.LinearVelocity, f.stateA.AngularVelocity = vA, wA
	f.stateB.LinearVelocity, f.stateB.AngularVelocity = vB, wB
}

func (j *Revolute) Reaction(base *JointSim, invDt float64) (geom.Vec2, float64) {
	torque := j.SpringImpulse + j.MotorImpulse + j.LowerImpulse - j.UpperImpulse
	return j.LinearImpulse.Mul(invDt), torque * invDt
}

// ClampLimits keeps the angle range ordered and within half a turn each way.
func (j *Revolute) ClampLimits() {
	lower := math.Min(j.LowerAngle, j.UpperAngle)
	upper := math.Max(j.LowerAngle, j.UpperAngle)
	j.LowerAngle = geom.Clamp(lower, -geom.Pi, geom.Pi)
	j.UpperAngle = geom.Clamp(upper, -geom.Pi, geom.Pi)
}
