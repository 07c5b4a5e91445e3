package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/manifold"
)

// ContactPoint is the solver copy of a manifold point.
type ContactPoint struct {
	// anchors relative to each body's center of mass
	AnchorA, AnchorB geom.Vec2
	// separation with the anchor offset removed, so that the current
	// separation can be rebuilt from the body deltas alone
	BaseSeparation   float64
	RelativeVelocity float64
	NormalImpulse    float64
	TangentImpulse   float64
	MaxNormalImpulse float64
	NormalMass       float64
	TangentMass      float64
}

// ContactInput is what the world knows about a touching contact when the step
// starts. Manifold anchors must already be relative to the centers of mass.
type ContactInput struct {
	Manifold              *manifold.Manifold
	IndexA, IndexB        int
	InvMassA, InvIA       float64
	InvMassB, InvIB       float64
	Friction, Restitution float64
	TangentSpeed          float64
}

// ContactConstraint solves non-penetration and friction for one manifold.
type ContactConstraint struct {
	manifold        *manifold.Manifold
	IndexA, IndexB  int
	Points          [manifold.MaxPoints]ContactPoint
	Normal          geom.Vec2
	InvMassA, InvIA float64
	InvMassB, InvIB float64
	Friction        float64
	Restitution     float64
	TangentSpeed    float64
	Softness        Softness
	PointCount      int
}

// PrepareContact fills c from in. Contacts against a body without a state row
// use the stiffer static softness so that bodies are not pushed into the ground.
func PrepareContact(c *ContactConstraint, in *ContactInput, ctx *StepContext) {
	m := in.Manifold
	c.manifold = m
	c.IndexA = in.IndexA
	c.IndexB = in.IndexB
	c.Normal = m.Normal
	c.Friction = in.Friction
	c.Restitution = in.Restitution
	c.TangentSpeed = in.TangentSpeed
	c.PointCount = m.PointCount
	c.InvMassA, c.InvIA = in.InvMassA, in.InvIA
	c.InvMassB, c.InvIB = in.InvMassB, in.InvIB

	if in.IndexA == NullIndex || in.IndexB == NullIndex {
		c.Softness = ctx.StaticSoftness
	} else {
		c.Softness = ctx.ContactSoftness
	}

	warmStartScale := 0.0
	if ctx.EnableWarmStarting {
		warmStartScale = 1.0
	}

	var dummyA, dummyB BodyState
	stateA := ctx.state(in.IndexA, &dummyA)
	stateB := ctx.state(in.IndexB, &dummyB)
	vA, wA := stateA.LinearVelocity, stateA.AngularVelocity
	vB, wB := stateB.LinearVelocity, stateB.AngularVelocity

	mA, iA, mB, iB := c.InvMassA, c.InvIA, c.InvMassB, c.InvIB
	normal := c.Normal
	tangent := geom.RightPerp(normal)

	for j := 0; j < c.PointCount; j++ {
		mp := &m.Points[j]
		cp := &c.Points[j]

		cp.NormalImpulse = warmStartScale * mp.NormalImpulse
		cp.TangentImpulse = warmStartScale * mp.TangentImpulse
		cp.MaxNormalImpulse = 0

		rA := mp.AnchorA
		rB := mp.AnchorB
		cp.AnchorA = rA
		cp.AnchorB = rB
		cp.BaseSeparation = mp.Separation - rB.Sub(rA).Dot(normal)

		vrA := vA.Add(geom.CrossSV(wA, rA))
		vrB := vB.Add(geom.CrossSV(wB, rB))
		cp.RelativeVelocity = normal.Dot(vrB.Sub(vrA))

		rnA := geom.Cross(rA, normal)
		rnB := geom.Cross(rB, normal)
		cp.NormalMass = invOrZero(mA + mB + iA*rnA*rnA + iB*rnB*rnB)

		rtA := geom.Cross(rA, tangent)
		rtB := geom.Cross(rB, tangent)
		cp.TangentMass = invOrZero(mA + mB + iA*rtA*rtA + iB*rtB*rtB)
	}
}

// WarmStartContact applies the impulses carried over from the previous step.
func WarmStartContact(c *ContactConstraint, ctx *StepContext) {
	var dummyA, dummyB BodyState
	stateA := ctx.state(c.IndexA, &dummyA)
	stateB := ctx.state(c.IndexB, &dummyB)

	vA, wA := stateA.LinearVelocity, stateA.AngularVelocity
	vB, wB := stateB.LinearVelocity, stateB.AngularVelocity
	normal := c.Normal
	tangent := geom.RightPerp(normal)

	for j := 0; j < c.PointCount; j++ {
		cp := &c.Points[j]
		P := normal.Mul(cp.NormalImpulse).Add(tangent.Mul(cp.TangentImpulse))
		applyImpulse(&vA, &wA, &vB, &wB, c.InvMassA, c.InvIA, c.InvMassB, c.InvIB, cp.AnchorA, cp.AnchorB, P)
	}

	stateA.LinearVelocity, stateA.AngularVelocity = vA, wA
	stateB.LinearVelocity, stateB.AngularVelocity = vB, wB
}

// SolveContact runs one velocity iteration. With useBias the soft position
// correction is blended in; the relax pass calls it without.
func SolveContact(c *ContactConstraint, ctx *StepContext, useBias bool) {
	var dummyA, dummyB BodyState
	stateA := ctx.state(c.IndexA, &dummyA)
	stateB := ctx.state(c.IndexB, &dummyB)

	mA, iA, mB, iB := c.InvMassA, c.InvIA, c.InvMassB, c.InvIB
	vA, wA, dqA := stateA.LinearVelocity, stateA.AngularVelocity, stateA.DeltaRotation
	vB, wB, dqB := stateB.LinearVelocity, stateB.AngularVelocity, stateB.DeltaRotation

	dp := stateB.DeltaPosition.Sub(stateA.DeltaPosition)
	normal := c.Normal
	tangent := geom.RightPerp(normal)
	soft := c.Softness

	// ========== 1. Non-penetration ==========
	for j := 0; j < c.PointCount; j++ {
		cp := &c.Points[j]
		rA := cp.AnchorA
		rB := cp.AnchorB

		prA := geom.RotateVector(dqA, rA)
		prB := geom.RotateVector(dqB, rB)
		s := dp.Add(prB.Sub(prA)).Dot(normal) + cp.BaseSeparation

		velocityBias, massScale, impulseScale := 0.0, 1.0, 0.0
		if s > 0 {
			// speculative
			velocityBias = s * ctx.InvH
		} else if useBias {
			velocityBias = math.Max(soft.BiasRate*s, -ctx.MaxPushVelocity)
			massScale = soft.MassScale
			impulseScale = soft.ImpulseScale
		}

		vrA := vA.Add(geom.CrossSV(wA, rA))
		vrB := vB.Add(geom.CrossSV(wB, rB))
		vn := vrB.Sub(vrA).Dot(normal)

		impulse := -cp.NormalMass*massScale*(vn+velocityBias) - impulseScale*cp.NormalImpulse
		newImpulse := math.Max(cp.NormalImpulse+impulse, 0)
		impulse = newImpulse - cp.NormalImpulse
		cp.NormalImpulse = newImpulse
		cp.MaxNormalImpulse = math.Max(cp.MaxNormalImpulse, impulse)

		applyImpulse(&vA, &wA, &vB, &wB, mA, iA, mB, iB, rA, rB, normal.Mul(impulse))
	}

	// ========== 2. Friction ==========
	for j := 0; j < c.PointCount; j++ {
		cp := &c.Points[j]
		rA := cp.AnchorA
		rB := cp.AnchorB

		vrA := vA.Add(geom.CrossSV(wA, rA))
		vrB := vB.Add(geom.CrossSV(wB, rB))
		vt := vrB.Sub(vrA).Dot(tangent) - c.TangentSpeed

		impulse := -cp.TangentMass * vt
		maxFriction := c.Friction * cp.NormalImpulse
		newImpulse := geom.Clamp(cp.TangentImpulse+impulse, -maxFriction, maxFriction)
		impulse = newImpulse - cp.TangentImpulse
		cp.TangentImpulse = newImpulse

		applyImpulse(&vA, &wA, &vB, &wB, mA, iA, mB, iB, rA, rB, tangent.Mul(impulse))
	}

	stateA.LinearVelocity, stateA.AngularVelocity = vA, wA
	stateB.LinearVelocity, stateB.AngularVelocity = vB, wB
}

// ApplyContactRestitution adds bounce to points that were approaching faster
// than the restitution threshold and actually received an impulse.
func ApplyContactRestitution(c *ContactConstraint, ctx *StepContext) {
	if c.Restitution == 0 {
		return
	}

	var dummyA, dummyB BodyState
	stateA := ctx.state(c.IndexA, &dummyA)
	stateB := ctx.state(c.IndexB, &dummyB)

	mA, iA, mB, iB := c.InvMassA, c.InvIA, c.InvMassB, c.InvIB
	vA, wA := stateA.LinearVelocity, stateA.AngularVelocity
	vB, wB := stateB.LinearVelocity, stateB.AngularVelocity
	normal := c.Normal
	threshold := ctx.RestitutionThreshold

	for j := 0; j < c.PointCount; j++ {
		cp := &c.Points[j]

		// a zero max impulse means the point was speculative and never hit
		if cp.RelativeVelocity > -threshold || cp.MaxNormalImpulse == 0 {
			continue
		}

		rA := cp.AnchorA
		rB := cp.AnchorB
		vrA := vA.Add(geom.CrossSV(wA, rA))
		vrB := vB.Add(geom.CrossSV(wB, rB))
		vn := vrB.Sub(vrA).Dot(normal)

		impulse := -cp.NormalMass * (vn + c.Restitution*cp.RelativeVelocity)
		newImpulse := math.Max(cp.NormalImpulse+impulse, 0)
		impulse = newImpulse - cp.NormalImpulse
		cp.NormalImpulse = newImpulse
		cp.MaxNormalImpulse = math.Max(cp.MaxNormalImpulse, impulse)

		applyImpulse(&vA, &wA, &vB, &wB, mA, iA, mB, iB, rA, rB, normal.Mul(impulse))
	}

	stateA.LinearVelocity, stateA.AngularVelocity = vA, wA
	stateB.LinearVelocity, stateB.AngularVelocity = vB, wB
}

// StoreContactImpulses copies the accumulated impulses back to the manifold
// for warm starting and for contact events.
func StoreContactImpulses(c *ContactConstraint) {
	m := c.manifold
	if m == nil {
		return
	}
	for j := 0; j < c.PointCount; j++ {
		m.Points[j].NormalImpulse = c.Points[j].NormalImpulse
		m.Points[j].TangentImpulse = c.Points[j].TangentImpulse
		m.Points[j].MaxNormalImpulse = c.Points[j].MaxNormalImpulse
		m.Points[j].NormalVelocity = c.Points[j].RelativeVelocity
	}
}
