package feather2d

import (
	"errors"

	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/geom"
)

// jointEdge links a joint into the joint list of one of its bodies. Keys are
// jointID<<1 | edge index.
type jointEdge struct {
	bodyID  int
	prevKey int
	nextKey int
}

// joint is the persistent record of a joint. Awake joints live in the
// constraint graph, the others in the solver set given by setIndex.
type joint struct {
	userData any

	setIndex   int
	colorIndex int
	localIndex int

	edges [2]jointEdge

	islandID   int
	islandPrev int
	islandNext int

	id       int
	revision uint16
	typ      constraint.JointType

	collideConnected bool
	isMarked         bool
}

// jointSim is the solver row of a joint.
type jointSim struct {
	constraint.JointSim

	jointID int
	bodyIDA int
	bodyIDB int
}

var errSameBody = errors.New("feather2d: joint bodies must differ")

// JointDef holds the settings shared by every joint kind.
type JointDef struct {
	BodyIDA BodyID
	BodyIDB BodyID
	// anchors relative to the body origins
	LocalAnchorA geom.Vec2
	LocalAnchorB geom.Vec2
	// CollideConnected lets the shapes of the two bodies collide.
	CollideConnected bool
	UserData         any
}

// JointDefinition is implemented by the definition of every joint kind.
type JointDefinition interface {
	base() *JointDef
	// solver builds the kind specific state and returns the local anchors
	// to use, given the current transforms of the bodies.
	solver(xfA, xfB geom.Transform) (constraint.JointSolver, geom.Vec2, geom.Vec2)
}

type DistanceJointDef struct {
	JointDef
	Length        float64
	MinLength     float64
	MaxLength     float64
	EnableSpring  bool
	Hertz         float64
	DampingRatio  float64
	EnableLimit   bool
	EnableMotor   bool
	MaxMotorForce float64
	MotorSpeed    float64
}

func DefaultDistanceJointDef() DistanceJointDef {
	return DistanceJointDef{Length: 1, MaxLength: geom.HugeNumber}
}

func (def *DistanceJointDef) base() *JointDef { return &def.JointDef }

func (def *DistanceJointDef) solver(_, _ geom.Transform) (constraint.JointSolver, geom.Vec2, geom.Vec2) {
	s := &constraint.Distance{
		Length:        def.Length,
		MinLength:     def.MinLength,
		MaxLength:     max(def.MinLength, def.MaxLength),
		EnableSpring:  def.EnableSpring,
		Hertz:         def.Hertz,
		DampingRatio:  def.DampingRatio,
		EnableLimit:   def.EnableLimit,
		EnableMotor:   def.EnableMotor,
		MaxMotorForce: def.MaxMotorForce,
		MotorSpeed:    def.MotorSpeed,
	}
	s.ClampLengths()
	return s, def.LocalAnchorA, def.LocalAnchorB
}

// MotorJointDef drives the offset of body B relative to body A. Local
// anchors are ignored.
type MotorJointDef struct {
	JointDef
	LinearOffset     geom.Vec2
	AngularOffset    float64
	MaxForce         float64
	MaxTorque        float64
	CorrectionFactor float64
}

func DefaultMotorJointDef() MotorJointDef {
	return MotorJointDef{MaxForce: 1, MaxTorque: 1, CorrectionFactor: 0.3}
}

func (def *MotorJointDef) base() *JointDef { return &def.JointDef }

func (def *MotorJointDef) solver(_, _ geom.Transform) (constraint.JointSolver, geom.Vec2, geom.Vec2) {
	return &constraint.Motor{
		LinearOffset:     def.LinearOffset,
		AngularOffset:    def.AngularOffset,
		MaxForce:         max(def.MaxForce, 0),
		MaxTorque:        max(def.MaxTorque, 0),
		CorrectionFactor: geom.Clamp(def.CorrectionFactor, 0, 1),
	}, geom.Zero, geom.Zero
}

// MouseJointDef pulls a point of body B toward a world target. Body A is
// only a reference, usually a static ground body.
type MouseJointDef struct {
	JointDef
	Target       geom.Vec2
	Hertz        float64
	DampingRatio float64
	MaxForce     float64
}

func DefaultMouseJointDef() MouseJointDef {
	return MouseJointDef{Hertz: 4, DampingRatio: 1, MaxForce: 1}
}

func (def *MouseJointDef) base() *JointDef { return &def.JointDef }

func (def *MouseJointDef) solver(xfA, xfB geom.Transform) (constraint.JointSolver, geom.Vec2, geom.Vec2) {
	return &constraint.Mouse{
		Target:       def.Target,
		Hertz:        def.Hertz,
		DampingRatio: def.DampingRatio,
		MaxForce:     def.MaxForce,
	}, geom.InvTransformPoint(xfA, def.Target), geom.InvTransformPoint(xfB, def.Target)
}

type PrismaticJointDef struct {
	JointDef
	// LocalAxisA is the translation axis in body A's frame.
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
}

func DefaultPrismaticJointDef() PrismaticJointDef {
	return PrismaticJointDef{LocalAxisA: geom.Vec2{1, 0}}
}

func (def *PrismaticJointDef) base() *JointDef { return &def.JointDef }

func (def *PrismaticJointDef) solver(_, _ geom.Transform) (constraint.JointSolver, geom.Vec2, geom.Vec2) {
	return &constraint.Prismatic{
		LocalAxisA:       geom.Normalize(def.LocalAxisA),
		ReferenceAngle:   def.ReferenceAngle,
		EnableSpring:     def.EnableSpring,
		Hertz:            def.Hertz,
		DampingRatio:     def.DampingRatio,
		EnableLimit:      def.EnableLimit,
		LowerTranslation: min(def.LowerTranslation, def.UpperTranslation),
		UpperTranslation: max(def.LowerTranslation, def.UpperTranslation),
		EnableMotor:      def.EnableMotor,
		MaxMotorForce:    def.MaxMotorForce,
		MotorSpeed:       def.MotorSpeed,
	}, def.LocalAnchorA, def.LocalAnchorB
}

type RevoluteJointDef struct {
	JointDef
	// ReferenceAngle is the angle of B relative to A at rest.
	ReferenceAngle float64
	EnableSpring   bool
	Hertz          float64
	DampingRatio   float64
	EnableLimit    bool
	LowerAngle     float64
	UpperAngle     float64
	EnableMotor    bool
	MaxMotorTorque float64
	MotorSpeed     float64
}

func DefaultRevoluteJointDef() RevoluteJointDef {
	return RevoluteJointDef{}
}

func (def *RevoluteJointDef) base() *JointDef { return &def.JointDef }

func (def *RevoluteJointDef) solver(_, _ geom.Transform) (constraint.JointSolver, geom.Vec2, geom.Vec2) {
	s := &constraint.Revolute{
		ReferenceAngle: geom.Clamp(def.ReferenceAngle, -geom.Pi, geom.Pi),
		EnableSpring:   def.EnableSpring,
		Hertz:          def.Hertz,
		DampingRatio:   def.DampingRatio,
		EnableLimit:    def.EnableLimit,
		LowerAngle:     def.LowerAngle,
		UpperAngle:     def.UpperAngle,
		EnableMotor:    def.EnableMotor,
		MaxMotorTorque: def.MaxMotorTorque,
		MotorSpeed:     def.MotorSpeed,
	}
	s.ClampLimits()
	return s, def.LocalAnchorA, def.LocalAnchorB
}

// WeldJointDef glues two bodies. Zero hertz makes the weld rigid.
type WeldJointDef struct {
	JointDef
	ReferenceAngle      float64
	LinearHertz         float64
	LinearDampingRatio  float64
	AngularHertz        float64
	AngularDampingRatio float64
}

func DefaultWeldJointDef() WeldJointDef {
	return WeldJointDef{}
}

func (def *WeldJointDef) base() *JointDef { return &def.JointDef }

func (def *WeldJointDef) solver(_, _ geom.Transform) (constraint.JointSolver, geom.Vec2, geom.Vec2) {
	return &constraint.Weld{
		ReferenceAngle:      def.ReferenceAngle,
		LinearHertz:         def.LinearHertz,
		LinearDampingRatio:  def.LinearDampingRatio,
		AngularHertz:        def.AngularHertz,
		AngularDampingRatio: def.AngularDampingRatio,
	}, def.LocalAnchorA, def.LocalAnchorB
}

// WheelJointDef is a suspension: a spring along LocalAxisA with free
// rotation of body B.
type WheelJointDef struct {
	JointDef
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
}

func DefaultWheelJointDef() WheelJointDef {
	return WheelJointDef{
		LocalAxisA:   geom.Vec2{0, 1},
		EnableSpring: true,
		Hertz:        1,
		DampingRatio: 0.7,
	}
}

func (def *WheelJointDef) base() *JointDef { return &def.JointDef }

func (def *WheelJointDef) solver(_, _ geom.Transform) (constraint.JointSolver, geom.Vec2, geom.Vec2) {
	return &constraint.Wheel{
		LocalAxisA:       geom.Normalize(def.LocalAxisA),
		EnableSpring:     def.EnableSpring,
		Hertz:            def.Hertz,
		DampingRatio:     def.DampingRatio,
		EnableLimit:      def.EnableLimit,
		LowerTranslation: min(def.LowerTranslation, def.UpperTranslation),
		UpperTranslation: max(def.LowerTranslation, def.UpperTranslation),
		EnableMotor:      def.EnableMotor,
		MaxMotorTorque:   def.MaxMotorTorque,
		MotorSpeed:       def.MotorSpeed,
	}, def.LocalAnchorA, def.LocalAnchorB
}

func (w *World) CreateDistanceJoint(def DistanceJointDef) JointID {
	return w.createJoint("CreateDistanceJoint", &def)
}

func (w *World) CreateMotorJoint(def MotorJointDef) JointID {
	return w.createJoint("CreateMotorJoint", &def)
}

func (w *World) CreateMouseJoint(def MouseJointDef) JointID {
	return w.createJoint("CreateMouseJoint", &def)
}

func (w *World) CreatePrismaticJoint(def PrismaticJointDef) JointID {
	return w.createJoint("CreatePrismaticJoint", &def)
}

func (w *World) CreateRevoluteJoint(def RevoluteJointDef) JointID {
	return w.createJoint("CreateRevoluteJoint", &def)
}

func (w *World) CreateWeldJoint(def WeldJointDef) JointID {
	return w.createJoint("CreateWeldJoint", &def)
}

func (w *World) CreateWheelJoint(def WheelJointDef) JointID {
	return w.createJoint("CreateWheelJoint", &def)
}

func (w *World) createJoint(op string, def JointDefinition) JointID {
	id, err := w.TryCreateJoint(def)
	if err != nil {
		w.reject(op, err)
	}
	return id
}

// TryCreateJoint creates a joint of the kind of def. Sleeping bodies are
// woken, so a new joint never links two sleeping islands.
func (w *World) TryCreateJoint(def JointDefinition) (JointID, error) {
	if err := w.mutable(); err != nil {
		return JointID{}, err
	}

	base := def.base()
	bodyA, okA := w.bodyFromID(base.BodyIDA)
	bodyB, okB := w.bodyFromID(base.BodyIDB)
	switch {
	case !okA || !okB:
		return JointID{}, ErrInvalidID
	case bodyA == bodyB:
		return JointID{}, errSameBody
	case !geom.IsValidVec2(base.LocalAnchorA) || !geom.IsValidVec2(base.LocalAnchorB):
		return JointID{}, ErrInvalidTransform
	}

	solver, localAnchorA, localAnchorB := def.solver(w.bodySim(bodyA).transform, w.bodySim(bodyB).transform)

	if bodyA.setIndex != disabledSet && bodyB.setIndex != disabledSet {
		w.wakeBody(bodyA)
		w.wakeBody(bodyB)
	}

	jointID := w.jointPool.Alloc()
	if jointID == len(w.joints) {
		w.joints = append(w.joints, joint{})
	}

	j := &w.joints[jointID]
	*j = joint{
		userData:         base.UserData,
		setIndex:         nullIndex,
		colorIndex:       nullIndex,
		localIndex:       nullIndex,
		islandID:         nullIndex,
		islandPrev:       nullIndex,
		islandNext:       nullIndex,
		id:               jointID,
		revision:         j.revision + 1,
		typ:              solver.Type(),
		collideConnected: base.CollideConnected,
	}

	for edgeIndex, b := range [2]*body{bodyA, bodyB} {
		key := jointID<<1 | edgeIndex
		j.edges[edgeIndex] = jointEdge{bodyID: b.id, prevKey: nullIndex, nextKey: b.headJointKey}
		if b.headJointKey != nullIndex {
			w.joints[b.headJointKey>>1].edges[b.headJointKey&1].prevKey = key
		}
		b.headJointKey = key
		b.jointCount++
	}

	sim := jointSim{
		JointSim: constraint.JointSim{
			LocalOriginAnchorA: localAnchorA,
			LocalOriginAnchorB: localAnchorB,
			IndexA:             constraint.NullIndex,
			IndexB:             constraint.NullIndex,
			Solver:             solver,
		},
		jointID: jointID,
		bodyIDA: bodyA.id,
		bodyIDB: bodyB.id,
	}

	var setIndex int
	switch {
	case bodyA.setIndex == disabledSet || bodyB.setIndex == disabledSet:
		setIndex = disabledSet
	case bodyA.setIndex == staticSet && bodyB.setIndex == staticSet:
		setIndex = staticSet
	default:
		setIndex = awakeSet
	}

	if setIndex == awakeSet {
		j.setIndex = awakeSet
		w.addJointToGraph(sim, j)
	} else {
		set := &w.solverSets[setIndex]
		j.setIndex = setIndex
		j.localIndex = len(set.jointSims)
		set.jointSims = append(set.jointSims, sim)
	}

	if j.setIndex > disabledSet {
		w.linkJoint(j, true)
	}

	if !j.collideConnected {
		w.destroyContactsBetweenBodies(bodyA, bodyB)
	}

	return w.makeJointID(j), nil
}

// destroyContactsBetweenBodies walks the shorter contact list. The bodies
// are not woken.
func (w *World) destroyContactsBetweenBodies(bodyA, bodyB *body) {
	contactKey, otherBodyID := bodyB.headContactKey, bodyA.id
	if bodyA.contactCount < bodyB.contactCount {
		contactKey, otherBodyID = bodyA.headContactKey, bodyB.id
	}

	for contactKey != nullIndex {
		edgeIndex := contactKey & 1
		c := &w.contacts[contactKey>>1]
		contactKey = c.edges[edgeIndex].nextKey
		if c.edges[edgeIndex^1].bodyID == otherBodyID {
			w.destroyContact(c, false)
		}
	}
}

func (w *World) jointSim(j *joint) *jointSim {
	if j.setIndex == awakeSet {
		return &w.graph.colors[j.colorIndex].jointSims[j.localIndex]
	}
	return &w.solverSets[j.setIndex].jointSims[j.localIndex]
}

func (w *World) destroyJointInternal(j *joint, wakeBodies bool) {
	for edgeIndex := range j.edges {
		edge := &j.edges[edgeIndex]
		b := &w.bodies[edge.bodyID]
		if edge.prevKey != nullIndex {
			w.joints[edge.prevKey>>1].edges[edge.prevKey&1].nextKey = edge.nextKey
		}
		if edge.nextKey != nullIndex {
			w.joints[edge.nextKey>>1].edges[edge.nextKey&1].prevKey = edge.prevKey
		}
		if b.headJointKey == j.id<<1|edgeIndex {
			b.headJointKey = edge.nextKey
		}
		b.jointCount--
	}

	if j.islandID != nullIndex {
		w.unlinkJoint(j)
	}

	if j.setIndex == awakeSet {
		w.removeJointFromGraph(j.edges[0].bodyID, j.edges[1].bodyID, j.colorIndex, j.localIndex)
	} else {
		w.removeJointSim(&w.solverSets[j.setIndex], j.localIndex)
	}

	w.jointPool.Free(j.id)
	j.id = nullIndex
	j.setIndex = nullIndex
	j.colorIndex = nullIndex
	j.localIndex = nullIndex
	j.userData = nil

	if wakeBodies {
		w.wakeBody(&w.bodies[j.edges[0].bodyID])
		w.wakeBody(&w.bodies[j.edges[1].bodyID])
	}
}

// DestroyJoint removes a joint and wakes its bodies.
func (w *World) DestroyJoint(id JointID) {
	if !w.unlocked("DestroyJoint") {
		return
	}
	j, ok := w.jointFromID(id)
	if !ok {
		return
	}
	w.destroyJointInternal(j, true)
}
