package feather2d

import (
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/geom"
)

func (id JointID) resolve() (*World, *joint) {
	j, ok := id.world.jointFromID(id)
	if !ok {
		return nil, nil
	}
	return id.world, j
}

func (id JointID) mutable(op string) (*World, *joint) {
	w, j := id.resolve()
	if j == nil || !w.unlocked(op) {
		return nil, nil
	}
	return w, j
}

// jointSolver returns the kind specific state of a joint. A joint of another
// kind is rejected; a stale id yields the zero values.
func jointSolver[T constraint.JointSolver](id JointID, op string, mutate bool) (*World, *jointSim, T) {
	var zero T
	w, j := id.resolve()
	if j == nil {
		return nil, nil, zero
	}
	sim := w.jointSim(j)
	s, ok := sim.Solver.(T)
	if !ok {
		w.reject(op, ErrJointType, "joint", j.id, "type", j.typ.String())
		return nil, nil, zero
	}
	if mutate && !w.unlocked(op) {
		return nil, nil, zero
	}
	return w, sim, s
}

func (id JointID) Type() constraint.JointType {
	_, j := id.resolve()
	if j == nil {
		return constraint.JointType(-1)
	}
	return j.typ
}

func (id JointID) BodyA() BodyID {
	w, j := id.resolve()
	if j == nil {
		return BodyID{}
	}
	return w.makeBodyID(&w.bodies[j.edges[0].bodyID])
}

func (id JointID) BodyB() BodyID {
	w, j := id.resolve()
	if j == nil {
		return BodyID{}
	}
	return w.makeBodyID(&w.bodies[j.edges[1].bodyID])
}

// LocalAnchorA is the anchor on body A relative to its origin.
func (id JointID) LocalAnchorA() geom.Vec2 {
	w, j := id.resolve()
	if j == nil {
		return geom.Zero
	}
	return w.jointSim(j).LocalOriginAnchorA
}

func (id JointID) LocalAnchorB() geom.Vec2 {
	w, j := id.resolve()
	if j == nil {
		return geom.Zero
	}
	return w.jointSim(j).LocalOriginAnchorB
}

func (id JointID) CollideConnected() bool {
	_, j := id.resolve()
	return j != nil && j.collideConnected
}

// SetCollideConnected toggles collision between the joint bodies. Turning it
// on makes the broad phase look for pairs again on the next step.
func (id JointID) SetCollideConnected(flag bool) {
	w, j := id.mutable("SetCollideConnected")
	if j == nil || j.collideConnected == flag {
		return
	}
	j.collideConnected = flag

	bodyA := &w.bodies[j.edges[0].bodyID]
	bodyB := &w.bodies[j.edges[1].bodyID]
	if !flag {
		w.destroyContactsBetweenBodies(bodyA, bodyB)
		return
	}

	shapeID := bodyB.headShapeID
	if bodyA.shapeCount < bodyB.shapeCount {
		shapeID = bodyA.headShapeID
	}
	for ; shapeID != nullIndex; shapeID = w.shapes[shapeID].nextShapeID {
		if s := &w.shapes[shapeID]; s.proxyKey != nullIndex {
			w.broadPhase.bufferMove(s.proxyKey)
		}
	}
}

func (id JointID) UserData() any {
	_, j := id.resolve()
	if j == nil {
		return nil
	}
	return j.userData
}

func (id JointID) SetUserData(data any) {
	if _, j := id.resolve(); j != nil {
		j.userData = data
	}
}

// WakeBodies wakes both bodies of the joint.
func (id JointID) WakeBodies() {
	w, j := id.mutable("WakeBodies")
	if j == nil {
		return
	}
	w.wakeBody(&w.bodies[j.edges[0].bodyID])
	w.wakeBody(&w.bodies[j.edges[1].bodyID])
}

// ConstraintForce is the force applied on body B during the last step.
func (id JointID) ConstraintForce() geom.Vec2 {
	w, j := id.resolve()
	if j == nil {
		return geom.Zero
	}
	sim := w.jointSim(j)
	force, _ := sim.Solver.Reaction(&sim.JointSim, w.ctx.InvH)
	return force
}

// ConstraintTorque is the torque applied on body B during the last step.
func (id JointID) ConstraintTorque() float64 {
	w, j := id.resolve()
	if j == nil {
		return 0
	}
	sim := w.jointSim(j)
	_, torque := sim.Solver.Reaction(&sim.JointSim, w.ctx.InvH)
	return torque
}

// jointAnchors returns the world anchors of a joint.
func (w *World) jointAnchors(sim *jointSim) (geom.Vec2, geom.Vec2) {
	pA := geom.TransformPoint(w.bodyTransform(sim.bodyIDA), sim.LocalOriginAnchorA)
	pB := geom.TransformPoint(w.bodyTransform(sim.bodyIDB), sim.LocalOriginAnchorB)
	return pA, pB
}

// DistanceJoint exposes the settings of a distance joint.
type DistanceJoint struct{ JointID }

func (id JointID) Distance() DistanceJoint { return DistanceJoint{id} }

func (j DistanceJoint) get(op string) *constraint.Distance {
	_, _, s := jointSolver[*constraint.Distance](j.JointID, op, false)
	return s
}

func (j DistanceJoint) set(op string) *constraint.Distance {
	_, _, s := jointSolver[*constraint.Distance](j.JointID, op, true)
	return s
}

func (j DistanceJoint) Length() float64 {
	if s := j.get("Length"); s != nil {
		return s.Length
	}
	return 0
}

func (j DistanceJoint) SetLength(length float64) {
	if s := j.set("SetLength"); s != nil {
		s.Length = length
		s.ClampLengths()
		s.Impulse, s.LowerImpulse, s.UpperImpulse = 0, 0, 0
	}
}

// CurrentLength is the distance between the anchors now.
func (j DistanceJoint) CurrentLength() float64 {
	w, sim, _ := jointSolver[*constraint.Distance](j.JointID, "CurrentLength", false)
	if sim == nil {
		return 0
	}
	pA, pB := w.jointAnchors(sim)
	return geom.Distance(pA, pB)
}

func (j DistanceJoint) EnableSpring(flag bool) {
	if s := j.set("EnableSpring"); s != nil {
		s.EnableSpring = flag
	}
}

func (j DistanceJoint) IsSpringEnabled() bool {
	s := j.get("IsSpringEnabled")
	return s != nil && s.EnableSpring
}

func (j DistanceJoint) SpringHertz() float64 {
	if s := j.get("SpringHertz"); s != nil {
		return s.Hertz
	}
	return 0
}

func (j DistanceJoint) SetSpringHertz(hertz float64) {
	if s := j.set("SetSpringHertz"); s != nil {
		s.Hertz = hertz
	}
}

func (j DistanceJoint) SpringDampingRatio() float64 {
	if s := j.get("SpringDampingRatio"); s != nil {
		return s.DampingRatio
	}
	return 0
}

func (j DistanceJoint) SetSpringDampingRatio(ratio float64) {
	if s := j.set("SetSpringDampingRatio"); s != nil {
		s.DampingRatio = ratio
	}
}

// EnableLimit turns on the length range of a spring.
func (j DistanceJoint) EnableLimit(flag bool) {
	if s := j.set("EnableLimit"); s != nil {
		s.EnableLimit = flag
	}
}

func (j DistanceJoint) IsLimitEnabled() bool {
	s := j.get("IsLimitEnabled")
	return s != nil && s.EnableLimit
}

func (j DistanceJoint) SetLengthRange(minLength, maxLength float64) {
	if s := j.set("SetLengthRange"); s != nil {
		s.MinLength, s.MaxLength = minLength, maxLength
		s.ClampLengths()
		s.Impulse, s.LowerImpulse, s.UpperImpulse = 0, 0, 0
	}
}

func (j DistanceJoint) MinLength() float64 {
	if s := j.get("MinLength"); s != nil {
		return s.MinLength
	}
	return 0
}

func (j DistanceJoint) MaxLength() float64 {
	if s := j.get("MaxLength"); s != nil {
		return s.MaxLength
	}
	return 0
}

func (j DistanceJoint) EnableMotor(flag bool) {
	if s := j.set("EnableMotor"); s != nil && s.EnableMotor != flag {
		s.EnableMotor = flag
		s.MotorImpulse = 0
	}
}

func (j DistanceJoint) IsMotorEnabled() bool {
	s := j.get("IsMotorEnabled")
	return s != nil && s.EnableMotor
}

func (j DistanceJoint) MotorSpeed() float64 {
	if s := j.get("MotorSpeed"); s != nil {
		return s.MotorSpeed
	}
	return 0
}

func (j DistanceJoint) SetMotorSpeed(speed float64) {
	if s := j.set("SetMotorSpeed"); s != nil {
		s.MotorSpeed = speed
	}
}

func (j DistanceJoint) MaxMotorForce() float64 {
	if s := j.get("MaxMotorForce"); s != nil {
		return s.MaxMotorForce
	}
	return 0
}

func (j DistanceJoint) SetMaxMotorForce(force float64) {
	if s := j.set("SetMaxMotorForce"); s != nil {
		s.MaxMotorForce = force
	}
}

// MotorForce is the force applied by the motor during the last step.
func (j DistanceJoint) MotorForce() float64 {
	w, _, s := jointSolver[*constraint.Distance](j.JointID, "MotorForce", false)
	if s == nil {
		return 0
	}
	return s.MotorImpulse * w.ctx.InvH
}

// MotorJoint exposes the settings of a motor joint.
type MotorJoint struct{ JointID }

func (id JointID) Motor() MotorJoint { return MotorJoint{id} }

func (j MotorJoint) get(op string) *constraint.Motor {
	_, _, s := jointSolver[*constraint.Motor](j.JointID, op, false)
	return s
}

func (j MotorJoint) set(op string) *constraint.Motor {
	_, _, s := jointSolver[*constraint.Motor](j.JointID, op, true)
	return s
}

func (j MotorJoint) LinearOffset() geom.Vec2 {
	if s := j.get("LinearOffset"); s != nil {
		return s.LinearOffset
	}
	return geom.Zero
}

func (j MotorJoint) SetLinearOffset(offset geom.Vec2) {
	if s := j.set("SetLinearOffset"); s != nil {
		s.LinearOffset = offset
	}
}

func (j MotorJoint) AngularOffset() float64 {
	if s := j.get("AngularOffset"); s != nil {
		return s.AngularOffset
	}
	return 0
}

func (j MotorJoint) SetAngularOffset(offset float64) {
	if s := j.set("SetAngularOffset"); s != nil {
		s.AngularOffset = geom.Clamp(offset, -geom.Pi, geom.Pi)
	}
}

func (j MotorJoint) MaxForce() float64 {
	if s := j.get("MaxForce"); s != nil {
		return s.MaxForce
	}
	return 0
}

func (j MotorJoint) SetMaxForce(force float64) {
	if s := j.set("SetMaxForce"); s != nil {
		s.MaxForce = max(force, 0)
	}
}

func (j MotorJoint) MaxTorque() float64 {
	if s := j.get("MaxTorque"); s != nil {
		return s.MaxTorque
	}
	return 0
}

func (j MotorJoint) SetMaxTorque(torque float64) {
	if s := j.set("SetMaxTorque"); s != nil {
		s.MaxTorque = max(torque, 0)
	}
}

func (j MotorJoint) CorrectionFactor() float64 {
	if s := j.get("CorrectionFactor"); s != nil {
		return s.CorrectionFactor
	}
	return 0
}

func (j MotorJoint) SetCorrectionFactor(factor float64) {
	if s := j.set("SetCorrectionFactor"); s != nil {
		s.CorrectionFactor = geom.Clamp(factor, 0, 1)
	}
}

// MouseJoint exposes the settings of a mouse joint.
type MouseJoint struct{ JointID }

func (id JointID) Mouse() MouseJoint { return MouseJoint{id} }

func (j MouseJoint) get(op string) *constraint.Mouse {
	_, _, s := jointSolver[*constraint.Mouse](j.JointID, op, false)
	return s
}

func (j MouseJoint) set(op string) *constraint.Mouse {
	_, _, s := jointSolver[*constraint.Mouse](j.JointID, op, true)
	return s
}

func (j MouseJoint) Target() geom.Vec2 {
	if s := j.get("Target"); s != nil {
		return s.Target
	}
	return geom.Zero
}

// SetTarget moves the target. The body is not woken.
func (j MouseJoint) SetTarget(target geom.Vec2) {
	if s := j.set("SetTarget"); s != nil {
		s.Target = target
	}
}

func (j MouseJoint) SpringHertz() float64 {
	if s := j.get("SpringHertz"); s != nil {
		return s.Hertz
	}
	return 0
}

func (j MouseJoint) SetSpringHertz(hertz float64) {
	if s := j.set("SetSpringHertz"); s != nil {
		s.Hertz = hertz
	}
}

func (j MouseJoint) SpringDampingRatio() float64 {
	if s := j.get("SpringDampingRatio"); s != nil {
		return s.DampingRatio
	}
	return 0
}

func (j MouseJoint) SetSpringDampingRatio(ratio float64) {
	if s := j.set("SetSpringDampingRatio"); s != nil {
		s.DampingRatio = ratio
	}
}

func (j MouseJoint) MaxForce() float64 {
	if s := j.get("MaxForce"); s != nil {
		return s.MaxForce
	}
	return 0
}

func (j MouseJoint) SetMaxForce(force float64) {
	if s := j.set("SetMaxForce"); s != nil {
		s.MaxForce = max(force, 0)
	}
}

// PrismaticJoint exposes the settings of a prismatic joint.
type PrismaticJoint struct{ JointID }

func (id JointID) Prismatic() PrismaticJoint { return PrismaticJoint{id} }

func (j PrismaticJoint) get(op string) *constraint.Prismatic {
	_, _, s := jointSolver[*constraint.Prismatic](j.JointID, op, false)
	return s
}

func (j PrismaticJoint) set(op string) *constraint.Prismatic {
	_, _, s := jointSolver[*constraint.Prismatic](j.JointID, op, true)
	return s
}

func (j PrismaticJoint) EnableSpring(flag bool) {
	if s := j.set("EnableSpring"); s != nil && s.EnableSpring != flag {
		s.EnableSpring = flag
		s.SpringImpulse = 0
	}
}

func (j PrismaticJoint) IsSpringEnabled() bool {
	s := j.get("IsSpringEnabled")
	return s != nil && s.EnableSpring
}

func (j PrismaticJoint) SpringHertz() float64 {
	if s := j.get("SpringHertz"); s != nil {
		return s.Hertz
	}
	return 0
}

func (j PrismaticJoint) SetSpringHertz(hertz float64) {
	if s := j.set("SetSpringHertz"); s != nil {
		s.Hertz = hertz
	}
}

func (j PrismaticJoint) SpringDampingRatio() float64 {
	if s := j.get("SpringDampingRatio"); s != nil {
		return s.DampingRatio
	}
	return 0
}

func (j PrismaticJoint) SetSpringDampingRatio(ratio float64) {
	if s := j.set("SetSpringDampingRatio"); s != nil {
		s.DampingRatio = ratio
	}
}

func (j PrismaticJoint) EnableLimit(flag bool) {
	if s := j.set("EnableLimit"); s != nil && s.EnableLimit != flag {
		s.EnableLimit = flag
		s.LowerImpulse, s.UpperImpulse = 0, 0
	}
}

func (j PrismaticJoint) IsLimitEnabled() bool {
	s := j.get("IsLimitEnabled")
	return s != nil && s.EnableLimit
}

func (j PrismaticJoint) LowerLimit() float64 {
	if s := j.get("LowerLimit"); s != nil {
		return s.LowerTranslation
	}
	return 0
}

func (j PrismaticJoint) UpperLimit() float64 {
	if s := j.get("UpperLimit"); s != nil {
		return s.UpperTranslation
	}
	return 0
}

func (j PrismaticJoint) SetLimits(lower, upper float64) {
	if s := j.set("SetLimits"); s != nil {
		s.LowerTranslation, s.UpperTranslation = min(lower, upper), max(lower, upper)
		s.LowerImpulse, s.UpperImpulse = 0, 0
	}
}

func (j PrismaticJoint) EnableMotor(flag bool) {
	if s := j.set("EnableMotor"); s != nil && s.EnableMotor != flag {
		s.EnableMotor = flag
		s.MotorImpulse = 0
	}
}

func (j PrismaticJoint) IsMotorEnabled() bool {
	s := j.get("IsMotorEnabled")
	return s != nil && s.EnableMotor
}

func (j PrismaticJoint) MotorSpeed() float64 {
	if s := j.get("MotorSpeed"); s != nil {
		return s.MotorSpeed
	}
	return 0
}

func (j PrismaticJoint) SetMotorSpeed(speed float64) {
	if s := j.set("SetMotorSpeed"); s != nil {
		s.MotorSpeed = speed
	}
}

func (j PrismaticJoint) MaxMotorForce() float64 {
	if s := j.get("MaxMotorForce"); s != nil {
		return s.MaxMotorForce
	}
	return 0
}

func (j PrismaticJoint) SetMaxMotorForce(force float64) {
	if s := j.set("SetMaxMotorForce"); s != nil {
		s.MaxMotorForce = force
	}
}

func (j PrismaticJoint) MotorForce() float64 {
	w, _, s := jointSolver[*constraint.Prismatic](j.JointID, "MotorForce", false)
	if s == nil {
		return 0
	}
	return s.MotorImpulse * w.ctx.InvH
}

// Translation is the current offset of B's anchor along the axis.
func (j PrismaticJoint) Translation() float64 {
	w, sim, s := jointSolver[*constraint.Prismatic](j.JointID, "Translation", false)
	if s == nil {
		return 0
	}
	return s.Translation(w.bodyTransform(sim.bodyIDA), w.bodyTransform(sim.bodyIDB), sim.LocalOriginAnchorA, sim.LocalOriginAnchorB)
}

// RevoluteJoint exposes the settings of a revolute joint.
type RevoluteJoint struct{ JointID }

func (id JointID) Revolute() RevoluteJoint { return RevoluteJoint{id} }

func (j RevoluteJoint) get(op string) *constraint.Revolute {
	_, _, s := jointSolver[*constraint.Revolute](j.JointID, op, false)
	return s
}

func (j RevoluteJoint) set(op string) *constraint.Revolute {
	_, _, s := jointSolver[*constraint.Revolute](j.JointID, op, true)
	return s
}

func (j RevoluteJoint) EnableSpring(flag bool) {
	if s := j.set("EnableSpring"); s != nil && s.EnableSpring != flag {
		s.EnableSpring = flag
		s.SpringImpulse = 0
	}
}

func (j RevoluteJoint) IsSpringEnabled() bool {
	s := j.get("IsSpringEnabled")
	return s != nil && s.EnableSpring
}

func (j RevoluteJoint) SpringHertz() float64 {
	if s := j.get("SpringHertz"); s != nil {
		return s.Hertz
	}
	return 0
}

func (j RevoluteJoint) SetSpringHertz(hertz float64) {
	if s := j.set("SetSpringHertz"); s != nil {
		s.Hertz = hertz
	}
}

func (j RevoluteJoint) SpringDampingRatio() float64 {
	if s := j.get("SpringDampingRatio"); s != nil {
		return s.DampingRatio
	}
	return 0
}

func (j RevoluteJoint) SetSpringDampingRatio(ratio float64) {
	if s := j.set("SetSpringDampingRatio"); s != nil {
		s.DampingRatio = ratio
	}
}

// Angle is the current angle of B relative to A minus the reference angle.
func (j RevoluteJoint) Angle() float64 {
	w, sim, s := jointSolver[*constraint.Revolute](j.JointID, "Angle", false)
	if s == nil {
		return 0
	}
	return s.Angle(w.bodyTransform(sim.bodyIDA).Q, w.bodyTransform(sim.bodyIDB).Q)
}

func (j RevoluteJoint) EnableLimit(flag bool) {
	if s := j.set("EnableLimit"); s != nil && s.EnableLimit != flag {
		s.EnableLimit = flag
		s.LowerImpulse, s.UpperImpulse = 0, 0
	}
}

func (j RevoluteJoint) IsLimitEnabled() bool {
	s := j.get("IsLimitEnabled")
	return s != nil && s.EnableLimit
}

func (j RevoluteJoint) LowerLimit() float64 {
	if s := j.get("LowerLimit"); s != nil {
		return s.LowerAngle
	}
	return 0
}

func (j RevoluteJoint) UpperLimit() float64 {
	if s := j.get("UpperLimit"); s != nil {
		return s.UpperAngle
	}
	return 0
}

// SetLimits sets the angle range, clamped to half a turn each way.
func (j RevoluteJoint) SetLimits(lower, upper float64) {
	if s := j.set("SetLimits"); s != nil {
		s.LowerAngle, s.UpperAngle = lower, upper
		s.ClampLimits()
		s.LowerImpulse, s.UpperImpulse = 0, 0
	}
}

func (j RevoluteJoint) EnableMotor(flag bool) {
	if s := j.set("EnableMotor"); s != nil && s.EnableMotor != flag {
		s.EnableMotor = flag
		s.MotorImpulse = 0
	}
}

func (j RevoluteJoint) IsMotorEnabled() bool {
	s := j.get("IsMotorEnabled")
	return s != nil && s.EnableMotor
}

func (j RevoluteJoint) MotorSpeed() float64 {
	if s := j.get("MotorSpeed"); s != nil {
		return s.MotorSpeed
	}
	return 0
}

func (j RevoluteJoint) SetMotorSpeed(speed float64) {
	if s := j.set("SetMotorSpeed"); s != nil {
		s.MotorSpeed = speed
	}
}

func (j RevoluteJoint) MaxMotorTorque() float64 {
	if s := j.get("MaxMotorTorque"); s != nil {
		return s.MaxMotorTorque
	}
	return 0
}

func (j RevoluteJoint) SetMaxMotorTorque(torque float64) {
	if s := j.set("SetMaxMotorTorque"); s != nil {
		s.MaxMotorTorque = torque
	}
}

func (j RevoluteJoint) MotorTorque() float64 {
	w, _, s := jointSolver[*constraint.Revolute](j.JointID, "MotorTorque", false)
	if s == nil {
		return 0
	}
	return s.MotorImpulse * w.ctx.InvH
}

// WeldJoint exposes the settings of a weld joint.
type WeldJoint struct{ JointID }

func (id JointID) Weld() WeldJoint { return WeldJoint{id} }

func (j WeldJoint) get(op string) *constraint.Weld {
	_, _, s := jointSolver[*constraint.Weld](j.JointID, op, false)
	return s
}

func (j WeldJoint) set(op string) *constraint.Weld {
	_, _, s := jointSolver[*constraint.Weld](j.JointID, op, true)
	return s
}

func (j WeldJoint) ReferenceAngle() float64 {
	if s := j.get("ReferenceAngle"); s != nil {
		return s.ReferenceAngle
	}
	return 0
}

func (j WeldJoint) SetReferenceAngle(angle float64) {
	if s := j.set("SetReferenceAngle"); s != nil {
		s.ReferenceAngle = geom.Clamp(angle, -geom.Pi, geom.Pi)
	}
}

func (j WeldJoint) LinearHertz() float64 {
	if s := j.get("LinearHertz"); s != nil {
		return s.LinearHertz
	}
	return 0
}

func (j WeldJoint) SetLinearHertz(hertz float64) {
	if s := j.set("SetLinearHertz"); s != nil {
		s.LinearHertz = hertz
	}
}

func (j WeldJoint) LinearDampingRatio() float64 {
	if s := j.get("LinearDampingRatio"); s != nil {
		return s.LinearDampingRatio
	}
	return 0
}

func (j WeldJoint) SetLinearDampingRatio(ratio float64) {
	if s := j.set("SetLinearDampingRatio"); s != nil {
		s.LinearDampingRatio = ratio
	}
}

func (j WeldJoint) AngularHertz() float64 {
	if s := j.get("AngularHertz"); s != nil {
		return s.AngularHertz
	}
	return 0
}

func (j WeldJoint) SetAngularHertz(hertz float64) {
	if s := j.set("SetAngularHertz"); s != nil {
		s.AngularHertz = hertz
	}
}

func (j WeldJoint) AngularDampingRatio() float64 {
	if s := j.get("AngularDampingRatio"); s != nil {
		return s.AngularDampingRatio
	}
	return 0
}

func (j WeldJoint) SetAngularDampingRatio(ratio float64) {
	if s := j.set("SetAngularDampingRatio"); s != nil {
		s.AngularDampingRatio = ratio
	}
}

// WheelJoint exposes the settings of a wheel joint.
type WheelJoint struct{ JointID }

func (id JointID) Wheel() WheelJoint { return WheelJoint{id} }

func (j WheelJoint) get(op string) *constraint.Wheel {
	_, _, s := jointSolver[*constraint.Wheel](j.JointID, op, false)
	return s
}

func (j WheelJoint) set(op string) *constraint.Wheel {
	_, _, s := jointSolver[*constraint.Wheel](j.JointID, op, true)
	return s
}

func (j WheelJoint) EnableSpring(flag bool) {
	if s := j.set("EnableSpring"); s != nil && s.EnableSpring != flag {
		s.EnableSpring = flag
		s.SpringImpulse = 0
	}
}

func (j WheelJoint) IsSpringEnabled() bool {
	s := j.get("IsSpringEnabled")
	return s != nil && s.EnableSpring
}

func (j WheelJoint) SpringHertz() float64 {
	if s := j.get("SpringHertz"); s != nil {
		return s.Hertz
	}
	return 0
}

func (j WheelJoint) SetSpringHertz(hertz float64) {
	if s := j.set("SetSpringHertz"); s != nil {
		s.Hertz = hertz
	}
}

func (j WheelJoint) SpringDampingRatio() float64 {
	if s := j.get("SpringDampingRatio"); s != nil {
		return s.DampingRatio
	}
	return 0
}

func (j WheelJoint) SetSpringDampingRatio(ratio float64) {
	if s := j.set("SetSpringDampingRatio"); s != nil {
		s.DampingRatio = ratio
	}
}

func (j WheelJoint) EnableLimit(flag bool) {
	if s := j.set("EnableLimit"); s != nil && s.EnableLimit != flag {
		s.EnableLimit = flag
		s.LowerImpulse, s.UpperImpulse = 0, 0
	}
}

func (j WheelJoint) IsLimitEnabled() bool {
	s := j.get("IsLimitEnabled")
	return s != nil && s.EnableLimit
}

func (j WheelJoint) LowerLimit() float64 {
	if s := j.get("LowerLimit"); s != nil {
		return s.LowerTranslation
	}
	return 0
}

func (j WheelJoint) UpperLimit() float64 {
	if s := j.get("UpperLimit"); s != nil {
		return s.UpperTranslation
	}
	return 0
}

func (j WheelJoint) SetLimits(lower, upper float64) {
	if s := j.set("SetLimits"); s != nil {
		s.LowerTranslation, s.UpperTranslation = min(lower, upper), max(lower, upper)
		s.LowerImpulse, s.UpperImpulse = 0, 0
	}
}

func (j WheelJoint) EnableMotor(flag bool) {
	if s := j.set("EnableMotor"); s != nil && s.EnableMotor != flag {
		s.EnableMotor = flag
		s.MotorImpulse = 0
	}
}

func (j WheelJoint) IsMotorEnabled() bool {
	s := j.get("IsMotorEnabled")
	return s != nil && s.EnableMotor
}

func (j WheelJoint) MotorSpeed() float64 {
	if s := j.get("MotorSpeed"); s != nil {
		return s.MotorSpeed
	}
	return 0
}

func (j WheelJoint) SetMotorSpeed(speed float64) {
	if s := j.set("SetMotorSpeed"); s != nil {
		s.MotorSpeed = speed
	}
}

func (j WheelJoint) MaxMotorTorque() float64 {
	if s := j.get("MaxMotorTorque"); s != nil {
		return s.MaxMotorTorque
	}
	return 0
}

func (j WheelJoint) SetMaxMotorTorque(torque float64) {
	if s := j.set("SetMaxMotorTorque"); s != nil {
		s.MaxMotorTorque = torque
	}
}

func (j WheelJoint) MotorTorque() float64 {
	w, _, s := jointSolver[*constraint.Wheel](j.JointID, "MotorTorque", false)
	if s == nil {
		return 0
	}
	return s.MotorImpulse * w.ctx.InvH
}
