package constraint

import (
	"github.com/akmonengine/feather2d/geom"
)

// Motor drives the pose of B relative to A toward an offset, with the force
// and torque it may use bounded.
type Motor struct {
	// LinearOffset is the target position of B's origin in A's frame.
	LinearOffset     geom.Vec2
	AngularOffset    float64
	MaxForce         float64
	MaxTorque        float64
	CorrectionFactor float64

	LinearImpulse  geom.Vec2
	AngularImpulse float64

	deltaAngle  float64
	angularMass float64
}

func (*Motor) Type() JointType { return MotorJoint }

func (j *Motor) ResetImpulses() {
	j.LinearImpulse = geom.Zero
	j.AngularImpulse = 0
}

func (j *Motor) Prepare(base *JointSim, a, b *JointBody, ctx *StepContext) {
	base.AnchorA = geom.RotateVector(a.Transform.Q, j.LinearOffset.Sub(a.LocalCenter))
	base.AnchorB = geom.RotateVector(b.Transform.Q, geom.Neg(b.LocalCenter))

	j.deltaAngle = geom.UnwindAngle(geom.RelativeAngle(b.Transform.Q, a.Transform.Q) - j.AngularOffset)
	j.angularMass = invOrZero(base.InvIA + base.InvIB)
}

func (j *Motor) WarmStart(base *JointSim, ctx *StepContext) {
	var dummyA, dummyB BodyState
	f := base.frame(ctx, &dummyA, &dummyB)
	sA, sB := f.stateA, f.stateB

	sA.LinearVelocity = geom.MulSub(sA.LinearVelocity, base.InvMassA, j.LinearImpulse)
	sA.AngularVelocity -= base.InvIA * (geom.Cross(f.rA, j.LinearImpulse) + j.AngularImpulse)
	sB.LinearVelocity = geom.MulAdd(sB.LinearVelocity, base.InvMassB, j.LinearImpulse)
	sB.AngularVelocity += base.InvIB * (geom.Cross(f.rB, j.LinearImpulse) + j.AngularImpulse)
}

func (j *Motor) Solve(base *JointSim, ctx *StepContext, useBias bool) {
	mA, iA, mB, iB := base.InvMassA, base.InvIA, base.InvMassB, base.InvIB

	var dummyA, dummyB BodyState
	f := base.frame(ctx, &dummyA, &dummyB)
	vA, wA := f.stateA.LinearVelocity, f.stateA.AngularVelocity
	vB, wB := f.stateB.LinearVelocity, f.stateB.AngularVelocity

	// angular
	{
		angularSeparation := geom.UnwindAngle(geom.RelativeAngle(f.stateB.DeltaRotation, f.stateA.DeltaRotation) + j.deltaAngle)
		angularBias := ctx.InvH * j.CorrectionFactor * angularSeparation

		impulse := -j.angularMass * (wB - wA + angularBias)
		oldImpulse := j.AngularImpulse
		maxImpulse := ctx.H * j.MaxTorque
		j.AngularImpulse = geom.Clamp(oldImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = j.AngularImpulse - oldImpulse

		wA -= iA * impulse
		wB += iB * impulse
	}

	// linear
	{
		rA, rB := f.rA, f.rB
		Cdot := vB.Add(geom.CrossSV(wB, rB)).Sub(vA.Add(geom.CrossSV(wA, rA)))
		linearBias := f.d.Mul(ctx.InvH * j.CorrectionFactor)

		b := geom.Solve22(pointMass(mA, iA, mB, iB, rA, rB), Cdot.Add(linearBias))
		impulse := geom.Neg(b)

		oldImpulse := j.LinearImpulse
		maxImpulse := ctx.H * j.MaxForce
		j.LinearImpulse = j.LinearImpulse.Add(impulse)
		if j.LinearImpulse.Dot(j.LinearImpulse) > maxImpulse*maxImpulse {
			j.LinearImpulse = geom.Normalize(j.LinearImpulse).Mul(maxImpulse)
		}
		impulse = j.LinearImpulse.Sub(oldImpulse)

		applyImpulse(&vA, &wA, &vB, &wB, mA, iA, mB, iB, rA, rB, impulse)
	}

	f.stateA.LinearVelocity, f.stateA.AngularVelocity = vA, wA
	f.stateB.LinearVelocity, f.stateB.AngularVelocity = vB, wB
}

func (j *Motor) Reaction(base *JointSim, invDt float64) (geom.Vec2, float64) {
	return j.LinearImpulse.Mul(invDt), j.AngularImpulse * invDt
}
