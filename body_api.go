package feather2d

import (
	"github.com/akmonengine/feather2d/geom"
)

// resolve returns the world and record of a live body. Stale ids resolve to
// nil and the caller does nothing.
func (id BodyID) resolve() (*World, *body) {
	b, ok := id.world.bodyFromID(id)
	if !ok {
		return nil, nil
	}
	return id.world, b
}

// mutable is resolve for operations that change the world structure.
func (id BodyID) mutable(op string) (*World, *body) {
	w, b := id.resolve()
	if b == nil || !w.unlocked(op) {
		return nil, nil
	}
	return w, b
}

func (id BodyID) Type() BodyType {
	_, b := id.resolve()
	if b == nil {
		return StaticBody
	}
	return b.typ
}

// SetType changes the body type. Contacts of the body are destroyed and
// rebuilt on the next step, attached bodies are woken.
func (id BodyID) SetType(typ BodyType) {
	w, b := id.mutable("SetType")
	if b == nil || b.typ == typ || typ < StaticBody || typ >= bodyTypeCount {
		return
	}

	originalType := b.typ
	if b.setIndex == disabledSet {
		b.typ = typ
		w.updateBodyMassData(b)
		return
	}

	w.destroyBodyContacts(b, false)
	w.wakeBody(b)

	for key := b.headJointKey; key != nullIndex; {
		j := &w.joints[key>>1]
		key = j.edges[key&1].nextKey
		if j.islandID != nullIndex {
			w.unlinkJoint(j)
		}
		// every attached body ends up awake or static
		w.wakeBody(&w.bodies[j.edges[0].bodyID])
		w.wakeBody(&w.bodies[j.edges[1].bodyID])
	}

	b.typ = typ

	switch {
	case originalType == StaticBody:
		w.transferBody(awakeSet, staticSet, b)
		w.createIslandForBody(awakeSet, b)

		for key := b.headJointKey; key != nullIndex; {
			j := &w.joints[key>>1]
			other := &w.bodies[j.edges[(key&1)^1].bodyID]
			key = j.edges[key&1].nextKey
			if j.setIndex != staticSet || other.setIndex == disabledSet {
				continue
			}
			w.transferJoint(awakeSet, staticSet, j)
		}

	case typ == StaticBody:
		w.transferBody(staticSet, awakeSet, b)
		w.removeBodyFromIsland(b)

		for key := b.headJointKey; key != nullIndex; {
			j := &w.joints[key>>1]
			other := &w.bodies[j.edges[(key&1)^1].bodyID]
			key = j.edges[key&1].nextKey
			if other.setIndex != staticSet || j.setIndex != awakeSet {
				continue
			}
			w.transferJoint(staticSet, awakeSet, j)
		}
	}

	for key := b.headJointKey; key != nullIndex; {
		j := &w.joints[key>>1]
		other := &w.bodies[j.edges[(key&1)^1].bodyID]
		key = j.edges[key&1].nextKey
		if other.setIndex == disabledSet || (other.typ == StaticBody && b.typ == StaticBody) {
			continue
		}
		w.linkJoint(j, false)
	}
	w.mergeAwakeIslands()

	transform := w.bodySim(b).transform
	for shapeID := b.headShapeID; shapeID != nullIndex; shapeID = w.shapes[shapeID].nextShapeID {
		s := &w.shapes[shapeID]
		w.destroyShapeProxy(s)
		w.createShapeProxy(s, typ, transform, true)
	}

	w.updateBodyMassData(b)
}

// Position is the world position of the body origin.
func (id BodyID) Position() geom.Vec2 {
	return id.Transform().P
}

func (id BodyID) Rotation() geom.Rot {
	return id.Transform().Q
}

func (id BodyID) Transform() geom.Transform {
	w, b := id.resolve()
	if b == nil {
		return geom.TransformIdentity
	}
	return w.bodySim(b).transform
}

// SetTransform teleports the body. Contacts are updated on the next step.
func (id BodyID) SetTransform(position geom.Vec2, rotation geom.Rot) {
	w, b := id.mutable("SetTransform")
	if b == nil {
		return
	}
	if !geom.IsValidVec2(position) || !rotation.IsValid() {
		w.reject("SetTransform", ErrInvalidTransform, "body", b.id)
		return
	}

	sim := w.bodySim(b)
	sim.transform = geom.Transform{P: position, Q: rotation}
	sim.center = geom.TransformPoint(sim.transform, sim.localCenter)
	sim.rotation0 = rotation
	sim.center0 = sim.center

	margin := geom.AABBMargin
	if b.setIndex == staticSet {
		margin = geom.SpeculativeDistance
	}

	for shapeID := b.headShapeID; shapeID != nullIndex; shapeID = w.shapes[shapeID].nextShapeID {
		s := &w.shapes[shapeID]
		aabb := s.geometry.ComputeAABB(sim.transform).Fatten(geom.SpeculativeDistance)
		s.aabb = aabb

		if !s.fatAABB.Contains(aabb) {
			s.fatAABB = aabb.Fatten(margin)
			if s.proxyKey != nullIndex {
				w.broadPhase.moveProxy(s.proxyKey, s.fatAABB)
			}
		}
	}
}

// LocalPoint converts a world point to the body frame.
func (id BodyID) LocalPoint(worldPoint geom.Vec2) geom.Vec2 {
	return geom.InvTransformPoint(id.Transform(), worldPoint)
}

func (id BodyID) WorldPoint(localPoint geom.Vec2) geom.Vec2 {
	return geom.TransformPoint(id.Transform(), localPoint)
}

func (id BodyID) LocalVector(worldVector geom.Vec2) geom.Vec2 {
	return geom.InvRotateVector(id.Rotation(), worldVector)
}

func (id BodyID) WorldVector(localVector geom.Vec2) geom.Vec2 {
	return geom.RotateVector(id.Rotation(), localVector)
}

func (id BodyID) WorldCenterOfMass() geom.Vec2 {
	w, b := id.resolve()
	if b == nil {
		return geom.Zero
	}
	return w.bodySim(b).center
}

func (id BodyID) LocalCenterOfMass() geom.Vec2 {
	w, b := id.resolve()
	if b == nil {
		return geom.Zero
	}
	return w.bodySim(b).localCenter
}

// LinearVelocity is the velocity of the center of mass. Bodies that are not
// awake have no velocity.
func (id BodyID) LinearVelocity() geom.Vec2 {
	w, b := id.resolve()
	if b == nil {
		return geom.Zero
	}
	if state := w.bodyState(b); state != nil {
		return state.LinearVelocity
	}
	return geom.Zero
}

func (id BodyID) AngularVelocity() float64 {
	w, b := id.resolve()
	if b == nil {
		return 0
	}
	if state := w.bodyState(b); state != nil {
		return state.AngularVelocity
	}
	return 0
}

// SetLinearVelocity wakes the body when v is not zero.
func (id BodyID) SetLinearVelocity(v geom.Vec2) {
	w, b := id.resolve()
	if b == nil || b.typ == StaticBody || !geom.IsValidVec2(v) {
		return
	}
	if v.Dot(v) > 0 {
		w.wakeBody(b)
	}
	if state := w.bodyState(b); state != nil {
		state.LinearVelocity = v
	}
}

func (id BodyID) SetAngularVelocity(omega float64) {
	w, b := id.resolve()
	if b == nil || b.typ == StaticBody || b.fixedRotation || !geom.IsValid(omega) {
		return
	}
	if omega != 0 {
		w.wakeBody(b)
	}
	if state := w.bodyState(b); state != nil {
		state.AngularVelocity = omega
	}
}

// LinearVelocityAt is the velocity of a world point attached to the body.
func (id BodyID) LinearVelocityAt(worldPoint geom.Vec2) geom.Vec2 {
	w, b := id.resolve()
	if b == nil {
		return geom.Zero
	}
	state := w.bodyState(b)
	if state == nil {
		return geom.Zero
	}
	r := worldPoint.Sub(w.bodySim(b).center)
	return state.LinearVelocity.Add(geom.CrossSV(state.AngularVelocity, r))
}

// ApplyForce accumulates a force at a world point until the end of the next
// step. Sleeping bodies ignore the force unless wake is set.
func (id BodyID) ApplyForce(force, point geom.Vec2, wake bool) {
	w, b := id.resolve()
	if b == nil || b.typ != DynamicBody {
		return
	}
	if wake {
		w.wakeBody(b)
	}
	if b.setIndex == awakeSet {
		sim := w.bodySim(b)
		sim.force = sim.force.Add(force)
		sim.torque += geom.Cross(point.Sub(sim.center), force)
	}
}

func (id BodyID) ApplyForceToCenter(force geom.Vec2, wake bool) {
	w, b := id.resolve()
	if b == nil || b.typ != DynamicBody {
		return
	}
	if wake {
		w.wakeBody(b)
	}
	if b.setIndex == awakeSet {
		sim := w.bodySim(b)
		sim.force = sim.force.Add(force)
	}
}

func (id BodyID) ApplyTorque(torque float64, wake bool) {
	w, b := id.resolve()
	if b == nil || b.typ != DynamicBody {
		return
	}
	if wake {
		w.wakeBody(b)
	}
	if b.setIndex == awakeSet {
		w.bodySim(b).torque += torque
	}
}

// ApplyLinearImpulse changes the velocity immediately.
func (id BodyID) ApplyLinearImpulse(impulse, point geom.Vec2, wake bool) {
	w, b := id.resolve()
	if b == nil || b.typ != DynamicBody {
		return
	}
	if wake {
		w.wakeBody(b)
	}
	if state := w.bodyState(b); state != nil {
		sim := w.bodySim(b)
		state.LinearVelocity = geom.MulAdd(state.LinearVelocity, sim.invMass, impulse)
		state.AngularVelocity += sim.invInertia * geom.Cross(point.Sub(sim.center), impulse)
	}
}

func (id BodyID) ApplyLinearImpulseToCenter(impulse geom.Vec2, wake bool) {
	w, b := id.resolve()
	if b == nil || b.typ != DynamicBody {
		return
	}
	if wake {
		w.wakeBody(b)
	}
	if state := w.bodyState(b); state != nil {
		state.LinearVelocity = geom.MulAdd(state.LinearVelocity, w.bodySim(b).invMass, impulse)
	}
}

func (id BodyID) ApplyAngularImpulse(impulse float64, wake bool) {
	w, b := id.resolve()
	if b == nil || b.typ != DynamicBody {
		return
	}
	if wake {
		w.wakeBody(b)
	}
	if state := w.bodyState(b); state != nil {
		state.AngularVelocity += w.bodySim(b).invInertia * impulse
	}
}

func (id BodyID) Mass() float64 {
	_, b := id.resolve()
	if b == nil {
		return 0
	}
	return b.mass
}

// RotationalInertia is about the center of mass.
func (id BodyID) RotationalInertia() float64 {
	_, b := id.resolve()
	if b == nil {
		return 0
	}
	return b.inertia
}

// MassData returns the mass, the local center of mass and the inertia about
// the center of mass.
func (id BodyID) MassData() geom.MassData {
	w, b := id.resolve()
	if b == nil {
		return geom.MassData{}
	}
	return geom.MassData{Mass: b.mass, Center: w.bodySim(b).localCenter, RotationalInertia: b.inertia}
}

// SetMassData overrides the mass computed from the shapes. The inertia is
// about the center of mass.
func (id BodyID) SetMassData(massData geom.MassData) {
	w, b := id.mutable("SetMassData")
	if b == nil {
		return
	}
	if !geom.IsValid(massData.Mass) || massData.Mass < 0 ||
		!geom.IsValid(massData.RotationalInertia) || massData.RotationalInertia < 0 ||
		!geom.IsValidVec2(massData.Center) {
		w.reject("SetMassData", ErrInvalidMass, "body", b.id)
		return
	}

	b.mass = massData.Mass
	b.inertia = massData.RotationalInertia

	sim := w.bodySim(b)
	sim.localCenter = massData.Center
	sim.center = geom.TransformPoint(sim.transform, massData.Center)
	sim.center0 = sim.center

	sim.invMass = 0
	if b.mass > 0 {
		sim.invMass = 1 / b.mass
	}
	sim.invInertia = 0
	if b.inertia > 0 {
		sim.invInertia = 1 / b.inertia
	}
}

// ApplyMassFromShapes recomputes the mass from the shape densities.
func (id BodyID) ApplyMassFromShapes() {
	w, b := id.mutable("ApplyMassFromShapes")
	if b == nil {
		return
	}
	w.updateBodyMassData(b)
}

func (id BodyID) LinearDamping() float64 {
	w, b := id.resolve()
	if b == nil {
		return 0
	}
	return w.bodySim(b).linearDamping
}

func (id BodyID) SetLinearDamping(damping float64) {
	w, b := id.mutable("SetLinearDamping")
	if b == nil || !geom.IsValid(damping) || damping < 0 {
		return
	}
	w.bodySim(b).linearDamping = damping
}

func (id BodyID) AngularDamping() float64 {
	w, b := id.resolve()
	if b == nil {
		return 0
	}
	return w.bodySim(b).angularDamping
}

func (id BodyID) SetAngularDamping(damping float64) {
	w, b := id.mutable("SetAngularDamping")
	if b == nil || !geom.IsValid(damping) || damping < 0 {
		return
	}
	w.bodySim(b).angularDamping = damping
}

func (id BodyID) GravityScale() float64 {
	w, b := id.resolve()
	if b == nil {
		return 0
	}
	return w.bodySim(b).gravityScale
}

func (id BodyID) SetGravityScale(scale float64) {
	w, b := id.mutable("SetGravityScale")
	if b == nil || !geom.IsValid(scale) {
		return
	}
	w.bodySim(b).gravityScale = scale
}

func (id BodyID) IsAwake() bool {
	_, b := id.resolve()
	return b != nil && b.setIndex == awakeSet
}

// SetAwake wakes the island of the body, or puts it to sleep. An island
// that lost constraints is split first.
func (id BodyID) SetAwake(flag bool) {
	w, b := id.mutable("SetAwake")
	if b == nil {
		return
	}
	if flag {
		w.wakeBody(b)
		return
	}
	if b.setIndex != awakeSet || b.islandID == nullIndex {
		return
	}
	if w.islands[b.islandID].constraintRemoveCount > 0 {
		w.splitIsland(b.islandID)
	}
	w.trySleepIsland(b.islandID)
}

func (id BodyID) IsSleepEnabled() bool {
	_, b := id.resolve()
	return b != nil && b.enableSleep
}

// EnableSleep lets the body fall asleep. Disabling it wakes the body.
func (id BodyID) EnableSleep(flag bool) {
	w, b := id.mutable("EnableSleep")
	if b == nil {
		return
	}
	b.enableSleep = flag
	if !flag {
		w.wakeBody(b)
	}
}

func (id BodyID) SleepThreshold() float64 {
	_, b := id.resolve()
	if b == nil {
		return 0
	}
	return b.sleepThreshold
}

func (id BodyID) SetSleepThreshold(threshold float64) {
	_, b := id.resolve()
	if b == nil || !geom.IsValid(threshold) || threshold < 0 {
		return
	}
	b.sleepThreshold = threshold
}

func (id BodyID) IsEnabled() bool {
	_, b := id.resolve()
	return b != nil && b.setIndex != disabledSet
}

// Disable removes the body from the simulation while keeping its shapes and
// joints. Its contacts are destroyed and touching bodies are woken.
func (id BodyID) Disable() {
	w, b := id.mutable("Disable")
	if b == nil || b.setIndex == disabledSet {
		return
	}

	w.wakeBody(b)
	w.destroyBodyContacts(b, true)
	w.removeBodyFromIsland(b)

	for shapeID := b.headShapeID; shapeID != nullIndex; shapeID = w.shapes[shapeID].nextShapeID {
		w.destroyShapeProxy(&w.shapes[shapeID])
	}

	w.transferBody(disabledSet, b.setIndex, b)

	for key := b.headJointKey; key != nullIndex; {
		j := &w.joints[key>>1]
		key = j.edges[key&1].nextKey
		if j.setIndex == disabledSet {
			continue
		}
		if j.islandID != nullIndex {
			w.unlinkJoint(j)
		}
		w.transferJoint(disabledSet, j.setIndex, j)
	}
}

// Enable returns a disabled body to the simulation. Bodies attached by
// joints are woken.
func (id BodyID) Enable() {
	w, b := id.mutable("Enable")
	if b == nil || b.setIndex != disabledSet {
		return
	}

	setID := awakeSet
	if b.typ == StaticBody {
		setID = staticSet
	}
	w.transferBody(setID, disabledSet, b)

	transform := w.bodySim(b).transform
	for shapeID := b.headShapeID; shapeID != nullIndex; shapeID = w.shapes[shapeID].nextShapeID {
		w.createShapeProxy(&w.shapes[shapeID], b.typ, transform, true)
	}

	if setID != staticSet {
		w.createIslandForBody(setID, b)
	}

	for key := b.headJointKey; key != nullIndex; {
		j := &w.joints[key>>1]
		other := &w.bodies[j.edges[(key&1)^1].bodyID]
		key = j.edges[key&1].nextKey
		if other.setIndex == disabledSet {
			continue
		}

		if setID == staticSet && other.setIndex == staticSet {
			w.transferJoint(staticSet, disabledSet, j)
			continue
		}

		w.wakeBody(other)
		w.transferJoint(awakeSet, disabledSet, j)
		w.linkJoint(j, false)
	}
	w.mergeAwakeIslands()
}

func (id BodyID) IsFixedRotation() bool {
	_, b := id.resolve()
	return b != nil && b.fixedRotation
}

// SetFixedRotation stops the body from rotating. The angular velocity is
// reset and the mass recomputed.
func (id BodyID) SetFixedRotation(flag bool) {
	w, b := id.mutable("SetFixedRotation")
	if b == nil || b.fixedRotation == flag {
		return
	}
	b.fixedRotation = flag
	if state := w.bodyState(b); state != nil {
		state.AngularVelocity = 0
	}
	w.updateBodyMassData(b)
}

func (id BodyID) IsBullet() bool {
	w, b := id.resolve()
	return b != nil && w.bodySim(b).isBullet
}

// SetBullet enables continuous collision against other dynamic bodies.
func (id BodyID) SetBullet(flag bool) {
	w, b := id.mutable("SetBullet")
	if b == nil {
		return
	}
	w.bodySim(b).isBullet = flag
}

// EnableHitEvents toggles hit events on every shape of the body.
func (id BodyID) EnableHitEvents(flag bool) {
	w, b := id.resolve()
	if b == nil {
		return
	}
	for shapeID := b.headShapeID; shapeID != nullIndex; shapeID = w.shapes[shapeID].nextShapeID {
		w.shapes[shapeID].enableHitEvents = flag
	}
}

func (id BodyID) UserData() any {
	_, b := id.resolve()
	if b == nil {
		return nil
	}
	return b.userData
}

func (id BodyID) SetUserData(data any) {
	_, b := id.resolve()
	if b != nil {
		b.userData = data
	}
}

func (id BodyID) ShapeCount() int {
	_, b := id.resolve()
	if b == nil {
		return 0
	}
	return b.shapeCount
}

// Shapes lists the shapes of the body, most recent first.
func (id BodyID) Shapes() []ShapeID {
	w, b := id.resolve()
	if b == nil {
		return nil
	}
	shapes := make([]ShapeID, 0, b.shapeCount)
	for shapeID := b.headShapeID; shapeID != nullIndex; shapeID = w.shapes[shapeID].nextShapeID {
		shapes = append(shapes, w.makeShapeID(&w.shapes[shapeID]))
	}
	return shapes
}

func (id BodyID) JointCount() int {
	_, b := id.resolve()
	if b == nil {
		return 0
	}
	return b.jointCount
}

// Joints lists the joints attached to the body.
func (id BodyID) Joints() []JointID {
	w, b := id.resolve()
	if b == nil {
		return nil
	}
	joints := make([]JointID, 0, b.jointCount)
	for key := b.headJointKey; key != nullIndex; {
		j := &w.joints[key>>1]
		joints = append(joints, w.makeJointID(j))
		key = j.edges[key&1].nextKey
	}
	return joints
}

// AABB bounds every shape of the body.
func (id BodyID) AABB() geom.AABB {
	w, b := id.resolve()
	if b == nil || b.headShapeID == nullIndex {
		return geom.AABB{}
	}
	aabb := w.shapes[b.headShapeID].aabb
	for shapeID := w.shapes[b.headShapeID].nextShapeID; shapeID != nullIndex; shapeID = w.shapes[shapeID].nextShapeID {
		aabb = aabb.Union(w.shapes[shapeID].aabb)
	}
	return aabb
}
