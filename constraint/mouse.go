package constraint

import (
	"github.com/akmonengine/feather2d/geom"
)

// Mouse pulls an anchor on B toward a world target with a soft spring. Body A
// only serves as a reference and is never moved.
type Mouse struct {
	Target       geom.Vec2
	Hertz        float64
	DampingRatio float64
	MaxForce     float64

	LinearImpulse  geom.Vec2
	AngularImpulse float64

	linearSoftness  Softness
	angularSoftness Softness
	linearMass      geom.Mat22
	// center of B minus the target when the step started
	deltaCenter geom.Vec2
}

func (*Mouse) Type() JointType { return MouseJoint }

func (j *Mouse) ResetImpulses() {
	j.LinearImpulse = geom.Zero
	j.AngularImpulse = 0
}

func (j *Mouse) Prepare(base *JointSim, a, b *JointBody, ctx *StepContext) {
	// A is a reference only
	base.IndexA = NullIndex
	base.InvMassA, base.InvIA = 0, 0

	j.linearSoftness = MakeSoft(j.Hertz, j.DampingRatio, ctx.H)
	// light rotational damping keeps a dragged body from spinning up
	const angularHertz = 0.5
	const angularDampingRatio = 0.1
	j.angularSoftness = MakeSoft(angularHertz, angularDampingRatio, ctx.H)

	rB := base.AnchorB
	mB, iB := base.InvMassB, base.InvIB
	k := geom.Mat22{
		mB + iB*rB[1]*rB[1], -iB * rB[0] * rB[1],
		-iB * rB[0] * rB[1], mB + iB*rB[0]*rB[0],
	}
	j.linearMass = geom.GetInverse22(k)
	j.deltaCenter = b.Center.Sub(j.Target)
}

func (j *Mouse) WarmStart(base *JointSim, ctx *StepContext) {
	var dummy BodyState
	stateB := ctx.state(base.IndexB, &dummy)
	rB := geom.RotateVector(stateB.DeltaRotation, base.AnchorB)

	stateB.LinearVelocity = geom.MulAdd(stateB.LinearVelocity, base.InvMassB, j.LinearImpulse)
	stateB.AngularVelocity += base.InvIB * (geom.Cross(rB, j.LinearImpulse) + j.AngularImpulse)
}

func (j *Mouse) Solve(base *JointSim, ctx *StepContext, useBias bool) {
	mB, iB := base.InvMassB, base.InvIB

	var dummy BodyState
	stateB := ctx.state(base.IndexB, &dummy)
	vB, wB := stateB.LinearVelocity, stateB.AngularVelocity

	// soft angular damping without bias
	{
		impulse := 0.0
		if iB > 0 {
			impulse = -wB / iB
		}
		impulse = j.angularSoftness.MassScale*impulse - j.angularSoftness.ImpulseScale*j.AngularImpulse
		j.AngularImpulse += impulse
		wB += iB * impulse
	}

	maxImpulse := j.MaxForce * ctx.H
	{
		rB := geom.RotateVector(stateB.DeltaRotation, base.AnchorB)
		Cdot := vB.Add(geom.CrossSV(wB, rB))

		separation := stateB.DeltaPosition.Add(rB).Add(j.deltaCenter)
		bias := separation.Mul(j.linearSoftness.BiasRate)
		massScale := j.linearSoftness.MassScale
		impulseScale := j.linearSoftness.ImpulseScale

		b := j.linearMass.Mul2x1(Cdot.Add(bias))
		impulse := geom.Vec2{
			-massScale*b[0] - impulseScale*j.LinearImpulse[0],
			-massScale*b[1] - impulseScale*j.LinearImpulse[1],
		}

		oldImpulse := j.LinearImpulse
		j.LinearImpulse = j.LinearImpulse.Add(impulse)
		if j.LinearImpulse.Len() > maxImpulse {
			j.LinearImpulse = geom.Normalize(j.LinearImpulse).Mul(maxImpulse)
		}
		impulse = j.LinearImpulse.Sub(oldImpulse)

		vB = geom.MulAdd(vB, mB, impulse)
		wB += iB * geom.Cross(rB, impulse)
	}

	stateB.LinearVelocity, stateB.AngularVelocity = vB, wB
}

func (j *Mouse) Reaction(base *JointSim, invDt float64) (geom.Vec2, float64) {
	return j.LinearImpulse.Mul(invDt), j.AngularImpulse * invDt
}
