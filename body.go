package feather2d

import (
	"fmt"

	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/geom"
)

// body is the persistent record of a body. Its simulation data lives in the
// solver set given by setIndex at localIndex.
type body struct {
	userData any

	setIndex   int
	localIndex int

	// contact keys are contactID<<1 | edge index
	headContactKey int
	contactCount   int

	headShapeID int
	shapeCount  int
	headChainID int

	// joint keys are jointID<<1 | edge index
	headJointKey int
	jointCount   int

	islandID   int
	islandPrev int
	islandNext int

	// inertia is about the center of mass
	mass    float64
	inertia float64

	sleepThreshold float64
	sleepTime      float64

	// row of the move event written during the last step
	bodyMoveIndex int

	id       int
	revision uint16
	typ      BodyType

	enableSleep   bool
	fixedRotation bool
	isMarked      bool
}

// bodySim is the part of a body the solver reads and writes.
type bodySim struct {
	transform geom.Transform
	// world center of mass
	center geom.Vec2
	// transform and center at the start of the step, used by continuous
	// collision
	rotation0   geom.Rot
	center0     geom.Vec2
	localCenter geom.Vec2

	force  geom.Vec2
	torque float64

	invMass    float64
	invInertia float64

	minExtent float64
	maxExtent float64

	linearDamping  float64
	angularDamping float64
	gravityScale   float64

	bodyID int

	isFast      bool
	isBullet    bool
	enlargeAABB bool
}

func (w *World) bodySim(b *body) *bodySim {
	return &w.solverSets[b.setIndex].bodySims[b.localIndex]
}

// bodyState returns the velocity row of an awake body, nil otherwise.
func (w *World) bodyState(b *body) *constraint.BodyState {
	if b.setIndex != awakeSet {
		return nil
	}
	return &w.solverSets[awakeSet].bodyStates[b.localIndex]
}

func (w *World) bodyTransform(bodyID int) geom.Transform {
	return w.bodySim(&w.bodies[bodyID]).transform
}

// wakeBody wakes the sleeping set of b and reports whether it did.
func (w *World) wakeBody(b *body) bool {
	if b.setIndex >= firstSleepingSet {
		w.wakeSolverSet(b.setIndex)
		return true
	}
	return false
}

func validateBodyDef(def *BodyDef) error {
	switch {
	case def.Type < StaticBody || def.Type >= bodyTypeCount:
		return fmt.Errorf("invalid body type %d", def.Type)
	case !geom.IsValidVec2(def.Position):
		return fmt.Errorf("invalid position %v", def.Position)
	case !def.Rotation.IsValid():
		return fmt.Errorf("invalid rotation %v", def.Rotation)
	case !geom.IsValidVec2(def.LinearVelocity) || !geom.IsValid(def.AngularVelocity):
		return fmt.Errorf("invalid velocity")
	case !geom.IsValid(def.LinearDamping) || def.LinearDamping < 0:
		return fmt.Errorf("invalid linear damping %v", def.LinearDamping)
	case !geom.IsValid(def.AngularDamping) || def.AngularDamping < 0:
		return fmt.Errorf("invalid angular damping %v", def.AngularDamping)
	case !geom.IsValid(def.SleepThreshold) || def.SleepThreshold < 0:
		return fmt.Errorf("invalid sleep threshold %v", def.SleepThreshold)
	case !geom.IsValid(def.GravityScale):
		return fmt.Errorf("invalid gravity scale %v", def.GravityScale)
	}
	return nil
}

// CreateBody adds a body without shapes. It returns the null id when the
// world is locked or def is invalid.
func (w *World) CreateBody(def BodyDef) BodyID {
	id, err := w.TryCreateBody(def)
	if err != nil {
		w.reject("CreateBody", err)
	}
	return id
}

// TryCreateBody is CreateBody reporting why the body was not created.
func (w *World) TryCreateBody(def BodyDef) (BodyID, error) {
	if err := w.mutable(); err != nil {
		return BodyID{}, err
	}
	if err := validateBodyDef(&def); err != nil {
		return BodyID{}, err
	}

	isAwake := (def.IsAwake || !def.EnableSleep) && def.IsEnabled

	var setID int
	switch {
	case !def.IsEnabled:
		setID = disabledSet
	case def.Type == StaticBody:
		setID = staticSet
	case isAwake:
		setID = awakeSet
	default:
		// a sleeping body gets a set of its own
		setID = w.createSolverSet()
	}

	bodyID := w.bodyPool.Alloc()
	if bodyID == len(w.bodies) {
		w.bodies = append(w.bodies, body{})
	}

	set := &w.solverSets[setID]
	set.bodySims = append(set.bodySims, bodySim{
		transform:      geom.Transform{P: def.Position, Q: def.Rotation},
		center:         def.Position,
		rotation0:      def.Rotation,
		center0:        def.Position,
		minExtent:      geom.HugeNumber,
		linearDamping:  def.LinearDamping,
		angularDamping: def.AngularDamping,
		gravityScale:   def.GravityScale,
		bodyID:         bodyID,
		isBullet:       def.IsBullet,
	})
	if setID == awakeSet {
		state := constraint.IdentityBodyState
		state.LinearVelocity = def.LinearVelocity
		state.AngularVelocity = def.AngularVelocity
		set.bodyStates = append(set.bodyStates, state)
	}

	b := &w.bodies[bodyID]
	*b = body{
		userData:       def.UserData,
		setIndex:       setID,
		localIndex:     len(set.bodySims) - 1,
		headContactKey: nullIndex,
		headShapeID:    nullIndex,
		headChainID:    nullIndex,
		headJointKey:   nullIndex,
		islandID:       nullIndex,
		islandPrev:     nullIndex,
		islandNext:     nullIndex,
		sleepThreshold: def.SleepThreshold,
		bodyMoveIndex:  nullIndex,
		id:             bodyID,
		revision:       b.revision + 1,
		typ:            def.Type,
		enableSleep:    def.EnableSleep,
		fixedRotation:  def.FixedRotation,
	}

	if setID >= awakeSet {
		w.createIslandForBody(setID, b)
	}

	return w.makeBodyID(b), nil
}

// DestroyBody removes a body with its shapes, chains, joints and contacts.
// Bodies that were touching it are woken.
func (w *World) DestroyBody(id BodyID) {
	if err := w.TryDestroyBody(id); err != nil {
		w.reject("DestroyBody", err, "body", id.index)
	}
}

// TryDestroyBody is DestroyBody reporting why the body was not destroyed.
func (w *World) TryDestroyBody(id BodyID) error {
	if err := w.mutable(); err != nil {
		return err
	}
	b, ok := w.bodyFromID(id)
	if !ok {
		return ErrInvalidID
	}

	const wakeBodies = true

	jointKey := b.headJointKey
	for jointKey != nullIndex {
		j := &w.joints[jointKey>>1]
		jointKey = j.edges[jointKey&1].nextKey
		w.destroyJointInternal(j, wakeBodies)
	}

	w.destroyBodyContacts(b, wakeBodies)

	chainID := b.headChainID
	for chainID != nullIndex {
		c := &w.chains[chainID]
		chainID = c.nextChainID
		w.freeChain(c)
	}

	shapeID := b.headShapeID
	for shapeID != nullIndex {
		s := &w.shapes[shapeID]
		shapeID = s.nextShapeID
		w.destroyShapeProxy(s)
		w.freeShape(s)
	}

	w.removeBodyFromIsland(b)

	setIndex := b.setIndex
	set := &w.solverSets[setIndex]
	w.removeBodySim(set, b.localIndex)
	if setIndex >= firstSleepingSet && len(set.bodySims) == 0 {
		w.destroySolverSet(setIndex)
	}

	b.id = nullIndex
	b.setIndex = nullIndex
	b.userData = nil
	w.bodyPool.Free(id.index)
	return nil
}

// updateBodyMassData recomputes mass, center of mass and extents from the
// shapes of b.
func (w *World) updateBodyMassData(b *body) {
	sim := w.bodySim(b)

	b.mass = 0
	b.inertia = 0
	sim.invMass = 0
	sim.invInertia = 0
	sim.localCenter = geom.Zero
	sim.minExtent = geom.HugeNumber
	sim.maxExtent = 0

	if b.typ != DynamicBody {
		sim.center = sim.transform.P
		sim.center0 = sim.center

		// kinematic bodies need extents to fall asleep
		if b.typ == KinematicBody {
			for shapeID := b.headShapeID; shapeID != nullIndex; shapeID = w.shapes[shapeID].nextShapeID {
				minExtent, maxExtent := w.shapes[shapeID].geometry.Extent(geom.Zero)
				sim.minExtent = min(sim.minExtent, minExtent)
				sim.maxExtent = max(sim.maxExtent, maxExtent)
			}
		}
		return
	}

	rotationalInertia := 0.0
	localCenter := geom.Zero
	for shapeID := b.headShapeID; shapeID != nullIndex; shapeID = w.shapes[shapeID].nextShapeID {
		s := &w.shapes[shapeID]
		if s.density == 0 {
			continue
		}
		massData := s.geometry.ComputeMass(s.density)
		b.mass += massData.Mass
		localCenter = geom.MulAdd(localCenter, massData.Mass, massData.Center)
		rotationalInertia += massData.RotationalInertia
	}

	if b.mass > 0 {
		sim.invMass = 1 / b.mass
		localCenter = localCenter.Mul(sim.invMass)
	}

	if rotationalInertia > 0 && !b.fixedRotation {
		// shift to the center of mass
		rotationalInertia -= b.mass * localCenter.Dot(localCenter)
		b.inertia = rotationalInertia
		sim.invInertia = 1 / rotationalInertia
	}

	oldCenter := sim.center
	sim.localCenter = localCenter
	sim.center = geom.TransformPoint(sim.transform, localCenter)
	sim.center0 = sim.center

	// keep the velocity of the body origin
	if state := w.bodyState(b); state != nil {
		deltaLinear := geom.CrossSV(state.AngularVelocity, sim.center.Sub(oldCenter))
		state.LinearVelocity = state.LinearVelocity.Add(deltaLinear)
	}

	for shapeID := b.headShapeID; shapeID != nullIndex; shapeID = w.shapes[shapeID].nextShapeID {
		minExtent, maxExtent := w.shapes[shapeID].geometry.Extent(localCenter)
		sim.minExtent = min(sim.minExtent, minExtent)
		sim.maxExtent = max(sim.maxExtent, maxExtent)
	}
}
