package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/geom"
)

// Distance keeps two anchors at a given length, optionally as a spring with
// a length range and a motor along the axis.
type Distance struct {
	Length        float64
	MinLength     float64
	MaxLength     float64
	EnableSpring  bool
	Hertz         float64
	DampingRatio  float64
	EnableLimit   bool
	EnableMotor   bool
	MotorSpeed    float64
	MaxMotorForce float64

	Impulse      float64
	LowerImpulse float64
	UpperImpulse float64
	MotorImpulse float64

	axialMass      float64
	springSoftness Softness
	axis           geom.Vec2
}

func (*Distance) Type() JointType { return DistanceJoint }

func (j *Distance) ResetImpulses() {
	j.Impulse = 0
	j.LowerImpulse = 0
	j.UpperImpulse = 0
	j.MotorImpulse = 0
}

func (j *Distance) Prepare(base *JointSim, a, b *JointBody, ctx *StepContext) {
	mA, iA, mB, iB := base.InvMassA, base.InvIA, base.InvMassB, base.InvIB
	rA, rB := base.AnchorA, base.AnchorB

	j.axis = geom.Normalize(base.DeltaCenter.Add(rB.Sub(rA)))
	crA := geom.Cross(rA, j.axis)
	crB := geom.Cross(rB, j.axis)
	j.axialMass = invOrZero(mA + mB + iA*crA*crA + iB*crB*crB)
	j.springSoftness = MakeSoft(j.Hertz, j.DampingRatio, ctx.H)
}

func (j *Distance) WarmStart(base *JointSim, ctx *StepContext) {
	var dummyA, dummyB BodyState
	f := base.frame(ctx, &dummyA, &dummyB)
	axis := geom.Normalize(f.d)

	axialImpulse := j.Impulse + j.LowerImpulse - j.UpperImpulse + j.MotorImpulse
	P := axis.Mul(axialImpulse)

	sA, sB := f.stateA, f.stateB
	applyImpulse(&sA.LinearVelocity, &sA.AngularVelocity, &sB.LinearVelocity, &sB.AngularVelocity,
		base.InvMassA, base.InvIA, base.InvMassB, base.InvIB, f.rA, f.rB, P)
}

func (j *Distance) Solve(base *JointSim, ctx *StepContext, useBias bool) {
	mA, iA, mB, iB := base.InvMassA, base.InvIA, base.InvMassB, base.InvIB

	var dummyA, dummyB BodyState
	f := base.frame(ctx, &dummyA, &dummyB)
	vA, wA := f.stateA.LinearVelocity, f.stateA.AngularVelocity
	vB, wB := f.stateB.LinearVelocity, f.stateB.AngularVelocity
	rA, rB := f.rA, f.rB

	length, axis := geom.GetLengthAndNormalize(f.d)
	j.axis = axis

	relativeVelocity := func() float64 {
		vr := vB.Add(geom.CrossSV(wB, rB)).Sub(vA.Add(geom.CrossSV(wA, rA)))
		return axis.Dot(vr)
	}

	if j.EnableMotor {
		impulse := j.axialMass * (j.MotorSpeed - relativeVelocity())
		oldImpulse := j.MotorImpulse
		maxImpulse := ctx.H * j.MaxMotorForce
		j.MotorImpulse = geom.Clamp(oldImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = j.MotorImpulse - oldImpulse
		applyImpulse(&vA, &wA, &vB, &wB, mA, iA, mB, iB, rA, rB, axis.Mul(impulse))
	}

	if j.EnableSpring && j.MinLength < j.MaxLength {
		if j.Hertz > 0 {
			C := length - j.Length
			bias := j.springSoftness.BiasRate * C
			massScale := j.springSoftness.MassScale
			impulseScale := j.springSoftness.ImpulseScale

			impulse := -massScale*j.axialMass*(relativeVelocity()+bias) - impulseScale*j.Impulse
			j.Impulse += impulse
			applyImpulse(&vA, &wA, &vB, &wB, mA, iA, mB, iB, rA, rB, axis.Mul(impulse))
		}
	} else {
		// rigid
		C := length - j.Length
		bias, massScale, impulseScale := 0.0, 1.0, 0.0
		if useBias {
			bias = ctx.JointSoftness.BiasRate * C
			massScale = ctx.JointSoftness.MassScale
			impulseScale = ctx.JointSoftness.ImpulseScale
		}

		impulse := -massScale*j.axialMass*(relativeVelocity()+bias) - impulseScale*j.Impulse
		j.Impulse += impulse
		applyImpulse(&vA, &wA, &vB, &wB, mA, iA, mB, iB, rA, rB, axis.Mul(impulse))
	}

	if j.EnableLimit && j.MinLength < j.MaxLength {
		// lower
		{
			bias, massScale, impulseScale := limitCoefficients(length-j.MinLength, useBias, ctx)
			impulse := -massScale*j.axialMass*(relativeVelocity()+bias) - impulseScale*j.LowerImpulse
			newImpulse := math.Max(0, j.LowerImpulse+impulse)
			impulse = newImpulse - j.LowerImpulse
			j.LowerImpulse = newImpulse
			applyImpulse(&vA, &wA, &vB, &wB, mA, iA, mB, iB, rA, rB, axis.Mul(impulse))
		}

		// upper, with flipped signs so the impulse stays positive
		{
			bias, massScale, impulseScale := limitCoefficients(j.MaxLength-length, useBias, ctx)
			impulse := -massScale*j.axialMass*(-relativeVelocity()+bias) - impulseScale*j.UpperImpulse
			newImpulse := math.Max(0, j.UpperImpulse+impulse)
			impulse = newImpulse - j.UpperImpulse
			j.UpperImpulse = newImpulse
			applyImpulse(&vA, &wA, &vB, &wB, mA, iA, mB, iB, rA, rB, axis.Mul(-impulse))
		}
	}

	f.stateA.LinearVelocity, f.stateA.AngularVelocity = vA, wA
	f.stateB.LinearVelocity, f.stateB.AngularVelocity = vB, wB
}

func (j *Distance) Reaction(base *JointSim, invDt float64) (geom.Vec2, float64) {
	impulse := j.Impulse + j.LowerImpulse - j.UpperImpulse + j.MotorImpulse
	return j.axis.Mul(impulse * invDt), 0
}

// ClampLengths keeps the lengths ordered and above the linear slop.
func (j *Distance) ClampLengths() {
	j.Length = geom.Clamp(j.Length, geom.LinearSlop, geom.HugeNumber)
	j.MinLength = geom.Clamp(j.MinLength, geom.LinearSlop, geom.HugeNumber)
	j.MaxLength = geom.Clamp(j.MaxLength, geom.LinearSlop, geom.HugeNumber)
	if j.MinLength > j.MaxLength {
		j.MinLength, j.MaxLength = j.MaxLength, j.MinLength
	}
}
