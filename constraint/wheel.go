package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/geom"
)

// Wheel keeps B's anchor on a line fixed in A, with a suspension spring along
// the line and a motor driving B's rotation.
type Wheel struct {
	// LocalAxisA is a unit axis in A's frame.
	LocalAxisA       geom.Vec2
	EnableSpring     bool
	Hertz            float64
	DampingRatio     float64
	EnableLimit      bool
	LowerTranslation float64
	UpperTranslation float64
	EnableMotor      bool
	MaxMotorTorque   float64
	MotorSpeed       float64

	PerpImpulse   float64
	MotorImpulse  float64
	SpringImpulse float64
	LowerImpulse  float64
	UpperImpulse  float64

	axisA          geom.Vec2
	perpMass       float64
	motorMass      float64
	axialMass      float64
	springSoftness Softness
}

func (*Wheel) Type() JointType { return WheelJoint }

func (j *Wheel) ResetImpulses() {
	j.PerpImpulse = 0
	j.MotorImpulse = 0
	j.SpringImpulse = 0
	j.LowerImpulse = 0
	j.UpperImpulse = 0
}

func (j *Wheel) Prepare(base *JointSim, a, b *JointBody, ctx *StepContext) {
	mA, iA, mB, iB := base.InvMassA, base.InvIA, base.InvMassB, base.InvIB

	j.axisA = geom.RotateVector(a.Transform.Q, j.LocalAxisA)
	rA, rB := base.AnchorA, base.AnchorB
	d := base.DeltaCenter.Add(rB.Sub(rA))
	perpA := geom.LeftPerp(j.axisA)

	s1 := geom.Cross(d.Add(rA), perpA)
	s2 := geom.Cross(rB, perpA)
	j.perpMass = invOrZero(mA + mB + iA*s1*s1 + iB*s2*s2)

	a1 := geom.Cross(d.Add(rA), j.axisA)
	a2 := geom.Cross(rB, j.axisA)
	j.axialMass = invOrZero(mA + mB + iA*a1*a1 + iB*a2*a2)

	j.springSoftness = MakeSoft(j.Hertz, j.DampingRatio, ctx.H)
	j.motorMass = invOrZero(iA + iB)
}

func (j *Wheel) WarmStart(base *JointSim, ctx *StepContext) {
	var dummyA, dummyB BodyState
	f := base.frame(ctx, &dummyA, &dummyB)
	sA, sB := f.stateA, f.stateB

	axisA := geom.RotateVector(sA.DeltaRotation, j.axisA)
	perpA := geom.LeftPerp(axisA)
	a1 := geom.Cross(f.d.Add(f.rA), axisA)
	a2 := geom.Cross(f.rB, axisA)
	s1 := geom.Cross(f.d.Add(f.rA), perpA)
	s2 := geom.Cross(f.rB, perpA)

	axialImpulse := j.SpringImpulse + j.LowerImpulse - j.UpperImpulse
	P := axisA.Mul(axialImpulse).Add(perpA.Mul(j.PerpImpulse))
	LA := axialImpulse*a1 + j.PerpImpulse*s1 + j.MotorImpulse
	LB := axialImpulse*a2 + j.PerpImpulse*s2 + j.MotorImpulse

	applyAxial(&sA.LinearVelocity, &sA.AngularVelocity, &sB.LinearVelocity, &sB.AngularVelocity,
		base.InvMassA, base.InvIA, base.InvMassB, base.InvIB, P, LA, LB)
}

func (j *Wheel) Solve(base *JointSim, ctx *StepContext, useBias bool) {
	mA, iA, mB, iB := base.InvMassA, base.InvIA, base.InvMassB, base.InvIB

	var dummyA, dummyB BodyState
	f := base.frame(ctx, &dummyA, &dummyB)
	vA, wA := f.stateA.LinearVelocity, f.stateA.AngularVelocity
	vB, wB := f.stateB.LinearVelocity, f.stateB.AngularVelocity
	rA, rB, d := f.rA, f.rB, f.d

	fixedRotation := iA+iB == 0

	axisA := geom.RotateVector(f.stateA.DeltaRotation, j.axisA)
	translation := axisA.Dot(d)
	a1 := geom.Cross(d.Add(rA), axisA)
	a2 := geom.Cross(rB, axisA)

	axialVelocity := func() float64 {
		return axisA.Dot(vB.Sub(vA)) + a2*wB - a1*wA
	}
	applyAlongAxis := func(impulse float64) {
		applyAxial(&vA, &wA, &vB, &wB, mA, iA, mB, iB, axisA.Mul(impulse), impulse*a1, impulse*a2)
	}

	if j.EnableMotor && !fixedRotation {
		impulse := -j.motorMass * (wB - wA - j.MotorSpeed)
		oldImpulse := j.MotorImpulse
		maxImpulse := ctx.H * j.MaxMotorTorque
		j.MotorImpulse = geom.Clamp(oldImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = j.MotorImpulse - oldImpulse
		wA -= iA * impulse
		wB += iB * impulse
	}

	if j.EnableSpring {
		// a real spring, applied during relax too
		C := translation
		bias := j.springSoftness.BiasRate * C
		massScale := j.springSoftness.MassScale
		impulseScale := j.springSoftness.ImpulseScale

		impulse := -massScale*j.axialMass*(axialVelocity()+bias) - impulseScale*j.SpringImpulse
		j.SpringImpulse += impulse
		applyAlongAxis(impulse)
	}

	if j.EnableLimit {
		// lower
		{
			bias, massScale, impulseScale := limitCoefficients(translation-j.LowerTranslation, useBias, ctx)
			oldImpulse := j.LowerImpulse
			impulse := -j.axialMass*massScale*(axialVelocity()+bias) - impulseScale*oldImpulse
			j.LowerImpulse = math.Max(oldImpulse+impulse, 0)
			applyAlongAxis(j.LowerImpulse - oldImpulse)
		}

		// upper, signs flipped to keep the impulse positive
		{
			bias, massScale, impulseScale := limitCoefficients(j.UpperTranslation-translation, useBias, ctx)
			oldImpulse := j.UpperImpulse
			impulse := -j.axialMass*massScale*(-axialVelocity()+bias) - impulseScale*oldImpulse
			j.UpperImpulse = math.Max(oldImpulse+impulse, 0)
			applyAlongAxis(-(j.UpperImpulse - oldImpulse))
		}
	}

	// point to line
	{
		perpA := geom.LeftPerp(axisA)

		bias, massScale, impulseScale := 0.0, 1.0, 0.0
		if useBias {
			bias = ctx.JointSoftness.BiasRate * perpA.Dot(d)
			massScale = ctx.JointSoftness.MassScale
			impulseScale = ctx.JointSoftness.ImpulseScale
		}

		s1 := geom.Cross(d.Add(rA), perpA)
		s2 := geom.Cross(rB, perpA)
		Cdot := perpA.Dot(vB.Sub(vA)) + s2*wB - s1*wA

		impulse := -massScale*j.perpMass*(Cdot+bias) - impulseScale*j.PerpImpulse
		j.PerpImpulse += impulse
		applyAxial(&vA, &wA, &vB, &wB, mA, iA, mB, iB, perpA.Mul(impulse), impulse*s1, impulse*s2)
	}

	f.stateA.LinearVelocity, f.stateA.AngularVelocity = vA, wA
	f.stateB.LinearVelocity, f.stateB.AngularVelocity = vB, wB
}

func (j *Wheel) Reaction(base *JointSim, invDt float64) (geom.Vec2, float64) {
	perpA := geom.LeftPerp(j.axisA)
	axialImpulse := j.SpringImpulse + j.LowerImpulse - j.UpperImpulse
	force := perpA.Mul(j.PerpImpulse).Add(j.axisA.Mul(axialImpulse)).Mul(invDt)
	return force, j.MotorImpulse * invDt
}
