package constraint

import (
	"github.com/akmonengine/feather2d/geom"
)

type JointType int

const (
	DistanceJoint JointType = iota
	MotorJoint
	MouseJoint
	PrismaticJoint
	RevoluteJoint
	WeldJoint
	WheelJoint
)

func (t JointType) String() string {
	switch t {
	case DistanceJoint:
		return "distance"
	case MotorJoint:
		return "motor"
	case MouseJoint:
		return "mouse"
	case PrismaticJoint:
		return "prismatic"
	case RevoluteJoint:
		return "revolute"
	case WeldJoint:
		return "weld"
	case WheelJoint:
		return "wheel"
	}
	return "unknown"
}

// JointBody is the snapshot of one joint body taken when the step starts.
type JointBody struct {
	// Index is the awake state row, or NullIndex.
	Index       int
	InvMass     float64
	InvInertia  float64
	Transform   geom.Transform
	Center      geom.Vec2
	LocalCenter geom.Vec2
}

// JointSim is the part of a joint shared by every kind.
type JointSim struct {
	LocalOriginAnchorA geom.Vec2
	LocalOriginAnchorB geom.Vec2
	InvMassA, InvIA    float64
	InvMassB, InvIB    float64
	IndexA, IndexB     int

	// anchors relative to the centers of mass, in world orientation
	AnchorA, AnchorB geom.Vec2
	// center of B minus center of A when the step started
	DeltaCenter geom.Vec2

	Solver JointSolver
}

// JointSolver is implemented by each joint kind.
type JointSolver interface {
	Type() JointType
	Prepare(base *JointSim, a, b *JointBody, ctx *StepContext)
	WarmStart(base *JointSim, ctx *StepContext)
	Solve(base *JointSim, ctx *StepContext, useBias bool)
	// Reaction returns the constraint force and torque applied on B during the
	// last step, given the inverse step size.
	Reaction(base *JointSim, invDt float64) (geom.Vec2, float64)
	ResetImpulses()
}

// Type reports the kind of joint j solves.
func (j *JointSim) Type() JointType {
	return j.Solver.Type()
}

// PrepareJoint copies the body data into j and lets the kind prepare itself.
func PrepareJoint(j *JointSim, a, b *JointBody, ctx *StepContext) {
	j.InvMassA, j.InvIA = a.InvMass, a.InvInertia
	j.InvMassB, j.InvIB = b.InvMass, b.InvInertia
	j.IndexA = a.Index
	j.IndexB = b.Index

	j.AnchorA = geom.RotateVector(a.Transform.Q, j.LocalOriginAnchorA.Sub(a.LocalCenter))
	j.AnchorB = geom.RotateVector(b.Transform.Q, j.LocalOriginAnchorB.Sub(b.LocalCenter))
	j.DeltaCenter = b.Center.Sub(a.Center)

	j.Solver.Prepare(j, a, b, ctx)
	if !ctx.EnableWarmStarting {
		j.Solver.ResetImpulses()
	}
}

// WarmStartJoint applies the impulses of the previous step.
func WarmStartJoint(j *JointSim, ctx *StepContext) {
	j.Solver.WarmStart(j, ctx)
}

// SolveJoint runs one velocity iteration on j.
func SolveJoint(j *JointSim, ctx *StepContext, useBias bool) {
	j.Solver.Solve(j, ctx, useBias)
}

// jointFrame is the current geometry of a joint inside a sub-step.
type jointFrame struct {
	stateA, stateB *BodyState
	rA, rB         geom.Vec2
	// current vector from anchor A to anchor B
	d geom.Vec2
}

func (j *JointSim) frame(ctx *StepContext, dummyA, dummyB *BodyState) jointFrame {
	stateA := ctx.state(j.IndexA, dummyA)
	stateB := ctx.state(j.IndexB, dummyB)
	rA := geom.RotateVector(stateA.DeltaRotation, j.AnchorA)
	rB := geom.RotateVector(stateB.DeltaRotation, j.AnchorB)
	d := stateB.DeltaPosition.Sub(stateA.DeltaPosition).Add(j.DeltaCenter).Add(rB.Sub(rA))
	return jointFrame{stateA: stateA, stateB: stateB, rA: rA, rB: rB, d: d}
}

// applyAxial applies a linear impulse P together with separate angular
// impulses LA and LB, used by the axis based joints.
func applyAxial(vA *geom.Vec2, wA *float64, vB *geom.Vec2, wB *float64, mA, iA, mB, iB float64, P geom.Vec2, LA, LB float64) {
	*vA = geom.MulSub(*vA, mA, P)
	*wA -= iA * LA
	*vB = geom.MulAdd(*vB, mB, P)
	*wB += iB * LB
}
