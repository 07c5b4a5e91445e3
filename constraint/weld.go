package constraint

import (
	"github.com/akmonengine/feather2d/geom"
)

// Weld glues two bodies together. A non zero hertz turns either part into a
// spring.
type Weld struct {
	ReferenceAngle      float64
	LinearHertz         float64
	LinearDampingRatio  float64
	AngularHertz        float64
	AngularDampingRatio float64

	LinearImpulse  geom.Vec2
	AngularImpulse float64

	deltaAngle      float64
	axialMass       float64
	linearSoftness  Softness
	angularSoftness Softness
}

func (*Weld) Type() JointType { return WeldJoint }

func (j *Weld) ResetImpulses() {
	j.LinearImpulse = geom.Zero
	j.AngularImpulse = 0
}

func (j *Weld) Prepare(base *JointSim, a, b *JointBody, ctx *StepContext) {
	j.deltaAngle = geom.UnwindAngle(geom.RelativeAngle(b.Transform.Q, a.Transform.Q) - j.ReferenceAngle)
	j.axialMass = invOrZero(base.InvIA + base.InvIB)

	j.linearSoftness = ctx.JointSoftness
	if j.LinearHertz != 0 {
		j.linearSoftness = MakeSoft(j.LinearHertz, j.LinearDampingRatio, ctx.H)
	}
	j.angularSoftness = ctx.JointSoftness
	if j.AngularHertz != 0 {
		j.angularSoftness = MakeSoft(j.AngularHertz, j.AngularDampingRatio, ctx.H)
	}
}

func (j *Weld) WarmStart(base *JointSim, ctx *StepContext) {
	var dummyA, dummyB BodyState
	f := base.frame(ctx, &dummyA, &dummyB)
	sA, sB := f.stateA, f.stateB

	sA.LinearVelocity = geom.MulSub(sA.LinearVelocity, base.InvMassA, j.LinearImpulse)
	sA.AngularVelocity -= base.InvIA * (geom.Cross(f.rA, j.LinearImpulse) + j.AngularImpulse)
	sB.LinearVelocity = geom.MulAdd(sB.LinearVelocity, base.InvMassB, j.LinearImpulse)
	sB.AngularVelocity += base.InvIB * (geom.Cross(f.rB, j.LinearImpulse) + j.AngularImpulse)
}

func (j *Weld) Solve(base *JointSim, ctx *StepContext, useBias bool) {
	mA, iA, mB, iB := base.InvMassA, base.InvIA, base.InvMassB, base.InvIB

	var dummyA, dummyB BodyState
	f := base.frame(ctx, &dummyA, &dummyB)
	vA, wA := f.stateA.LinearVelocity, f.stateA.AngularVelocity
	vB, wB := f.stateB.LinearVelocity, f.stateB.AngularVelocity

	// angular
	{
		bias, massScale, impulseScale := 0.0, 1.0, 0.0
		if useBias || j.AngularHertz > 0 {
			C := geom.RelativeAngle(f.stateB.DeltaRotation, f.stateA.DeltaRotation) + j.deltaAngle
			bias = j.angularSoftness.BiasRate * C
			massScale = j.angularSoftness.MassScale
			impulseScale = j.angularSoftness.ImpulseScale
		}

		impulse := -j.axialMass*massScale*(wB-wA+bias) - impulseScale*j.AngularImpulse
		j.AngularImpulse += impulse
		wA -= iA * impulse
		wB += iB * impulse
	}

	// linear
	{
		rA, rB := f.rA, f.rB

		bias := geom.Zero
		massScale, impulseScale := 1.0, 0.0
		if useBias || j.LinearHertz > 0 {
			bias = f.d.Mul(j.linearSoftness.BiasRate)
			massScale = j.linearSoftness.MassScale
			impulseScale = j.linearSoftness.ImpulseScale
		}

		Cdot := vB.Add(geom.CrossSV(wB, rB)).Sub(vA.Add(geom.CrossSV(wA, rA)))
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

func (j *Weld) Reaction(base *JointSim, invDt float64) (geom.Vec2, float64) {
	return j.LinearImpulse.Mul(invDt), j.AngularImpulse * invDt
}
