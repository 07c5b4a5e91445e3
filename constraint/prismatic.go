package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/geom"
)

// Prismatic lets B slide along an axis fixed in A, with no relative rotation.
type Prismatic struct {
	// LocalAxisA is a unit axis in A's frame.
	LocalAxisA       geom.Vec2
	ReferenceAngle   float64
	EnableSpring     bool
	Hertz            float64
	DampingRatio     float64
	EnableLimit      bool
	LowerTranslation float64
	UpperTranslation float64
	EnableMotor      bool
	MaxMotorForce    float64
	MotorSpeed       float64

	// Impulse holds the perpendicular and the angular accumulators.
	Impulse       geom.Vec2
	SpringImpulse float64
	MotorImpulse  float64
	LowerImpulse  float64
	UpperImpulse  float64

	axisA          geom.Vec2
	deltaAngle     float64
	axialMass      float64
	springSoftness Softness
}

func (*Prismatic) Type() JointType { return PrismaticJoint }

func (j *Prismatic) ResetImpulses() {
	j.Impulse = geom.Zero
	j.SpringImpulse = 0
	j.MotorImpulse = 0
	j.LowerImpulse = 0
	j.UpperImpulse = 0
}

func (j *Prismatic) Prepare(base *JointSim, a, b *JointBody, ctx *StepContext) {
	mA, iA, mB, iB := base.InvMassA, base.InvIA, base.InvMassB, base.InvIB

	j.axisA = geom.RotateVector(a.Transform.Q, j.LocalAxisA)
	j.deltaAngle = geom.RelativeAngle(b.Transform.Q, a.Transform.Q) - j.ReferenceAngle

	rA, rB := base.AnchorA, base.AnchorB
	d := base.DeltaCenter.Add(rB.Sub(rA))
	a1 := geom.Cross(d.Add(rA), j.axisA)
	a2 := geom.Cross(rB, j.axisA)
	j.axialMass = invOrZero(mA + mB + iA*a1*a1 + iB*a2*a2)
	j.springSoftness = MakeSoft(j.Hertz, j.DampingRatio, ctx.H)
}

func (j *Prismatic) WarmStart(base *JointSim, ctx *StepContext) {
	var dummyA, dummyB BodyState
	f := base.frame(ctx, &dummyA, &dummyB)
	sA, sB := f.stateA, f.stateB

	axisA := geom.RotateVector(sA.DeltaRotation, j.axisA)
	a1 := geom.Cross(f.d.Add(f.rA), axisA)
	a2 := geom.Cross(f.rB, axisA)
	axialImpulse := j.SpringImpulse + j.MotorImpulse + j.LowerImpulse - j.UpperImpulse

	perpA := geom.LeftPerp(axisA)
	s1 := geom.Cross(f.d.Add(f.rA), perpA)
	s2 := geom.Cross(f.rB, perpA)
	perpImpulse := j.Impulse[0]
	angleImpulse := j.Impulse[1]

	P := axisA.Mul(axialImpulse).Add(perpA.Mul(perpImpulse))
	LA := axialImpulse*a1 + perpImpulse*s1 + angleImpulse
	LB := axialImpulse*a2 + perpImpulse*s2 + angleImpulse

	applyAxial(&sA.LinearVelocity, &sA.AngularVelocity, &sB.LinearVelocity, &sB.AngularVelocity,
		base.InvMassA, base.InvIA, base.InvMassB, base.InvIB, P, LA, LB)
}

func (j *Prismatic) Solve(base *JointSim, ctx *StepContext, useBias bool) {
	mA, iA, mB, iB := base.InvMassA, base.InvIA, base.InvMassB, base.InvIB

	var dummyA, dummyB BodyState
	f := base.frame(ctx, &dummyA, &dummyB)
	vA, wA := f.stateA.LinearVelocity, f.stateA.AngularVelocity
	vB, wB := f.stateB.LinearVelocity, f.stateB.AngularVelocity
	qA, qB := f.stateA.DeltaRotation, f.stateB.DeltaRotation
	rA, rB, d := f.rA, f.rB, f.d

	axisA := geom.RotateVector(qA, j.axisA)
	translation := axisA.Dot(d)

	// torque arms of the axial force
	a1 := geom.Cross(d.Add(rA), axisA)
	a2 := geom.Cross(rB, axisA)

	axialVelocity := func() float64 {
		return axisA.Dot(vB.Sub(vA)) + a2*wB - a1*wA
	}
	applyAlongAxis := func(impulse float64) {
		applyAxial(&vA, &wA, &vB, &wB, mA, iA, mB, iB, axisA.Mul(impulse), impulse*a1, impulse*a2)
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

	if j.EnableMotor {
		impulse := j.axialMass * (j.MotorSpeed - axialVelocity())
		oldImpulse := j.MotorImpulse
		maxImpulse := ctx.H * j.MaxMotorForce
		j.MotorImpulse = geom.Clamp(oldImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = j.MotorImpulse - oldImpulse
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

	// perpendicular and angular constraints solved as a block
	{
		perpA := geom.LeftPerp(axisA)
		s1 := geom.Cross(d.Add(rA), perpA)
		s2 := geom.Cross(rB, perpA)

		Cdot := geom.Vec2{perpA.Dot(vB.Sub(vA)) + s2*wB - s1*wA, wB - wA}

		bias := geom.Zero
		massScale, impulseScale := 1.0, 0.0
		if useBias {
			C := geom.Vec2{perpA.Dot(d), geom.RelativeAngle(qB, qA) + j.deltaAngle}
			bias = C.Mul(ctx.JointSoftness.BiasRate)
			massScale = ctx.JointSoftness.MassScale
			impulseScale = ctx.JointSoftness.ImpulseScale
		}

		k11 := mA + mB + iA*s1*s1 + iB*s2*s2
		k12 := iA*s1 + iB*s2
		k22 := iA + iB
		if k22 == 0 {
			// fixed rotation
			k22 = 1
		}

		b := geom.Solve22(geom.Mat22{k11, k12, k12, k22}, Cdot.Add(bias))
		impulse := geom.Vec2{
			-massScale*b[0] - impulseScale*j.Impulse[0],
			-massScale*b[1] - impulseScale*j.Impulse[1],
		}
		j.Impulse = j.Impulse.Add(impulse)

		P := perpA.Mul(impulse[0])
		LA := impulse[0]*s1 + impulse[1]
		LB := impulse[0]*s2 + impulse[1]
		applyAxial(&vA, &wA, &vB, &wB, mA, iA, mB, iB, P, LA, LB)
	}

	f.stateA.LinearVelocity, f.stateA.AngularVelocity = vA, wA
	f.stateB.LinearVelocity, f.stateB.AngularVelocity = vB, wB
}

func (j *Prismatic) Reaction(base *JointSim, invDt float64) (geom.Vec2, float64) {
	axialImpulse := j.SpringImpulse + j.MotorImpulse + j.LowerImpulse - j.UpperImpulse
	perpA := geom.LeftPerp(j.axisA)
	force := perpA.Mul(j.Impulse[0]).Add(j.axisA.Mul(axialImpulse)).Mul(invDt)
	return force, j.Impulse[1] * invDt
}

// Translation is the current offset of B's anchor along the axis.
func (j *Prismatic) Translation(xfA, xfB geom.Transform, localAnchorA, localAnchorB geom.Vec2) float64 {
	pA := geom.TransformPoint(xfA, localAnchorA)
	pB := geom.TransformPoint(xfB, localAnchorB)
	axis := geom.RotateVector(xfA.Q, j.LocalAxisA)
	return pB.Sub(pA).Dot(axis)
}
