package feather2d

import (
	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/gjk"
)

// shape is a geometry attached to one body. Shapes of a body form a doubly
// linked list.
type shape struct {
	userData any

	id       int
	revision uint16
	bodyID   int
	chainID  int

	prevShapeID int
	nextShapeID int

	geometry    geom.Geometry
	density     float64
	friction    float64
	restitution float64
	filter      Filter

	// aabb is padded by the speculative distance, fatAABB is the proxy box
	aabb     geom.AABB
	fatAABB  geom.AABB
	proxyKey int

	isSensor            bool
	enableSensorEvents  bool
	enableContactEvents bool
	enableHitEvents     bool
	enlargedAABB        bool
}

func validateShapeDef(def *ShapeDef) error {
	switch {
	case !geom.IsValid(def.Density) || def.Density < 0:
		return ErrInvalidMass
	case !geom.IsValid(def.Friction) || def.Friction < 0:
		return ErrInvalidGeometry
	case !geom.IsValid(def.Restitution) || def.Restitution < 0:
		return ErrInvalidGeometry
	}
	return nil
}

// proxyMargin is the fat AABB padding of a proxy in the tree of typ.
// Static proxies move rarely and use a small margin.
func proxyMargin(typ BodyType) float64 {
	if typ == StaticBody {
		return geom.SpeculativeDistance
	}
	return geom.AABBMargin
}

func (w *World) updateShapeAABBs(s *shape, transform geom.Transform, proxyType BodyType) {
	s.aabb = s.geometry.ComputeAABB(transform).Fatten(geom.SpeculativeDistance)
	s.fatAABB = s.aabb.Fatten(proxyMargin(proxyType))
}

func (w *World) createShapeProxy(s *shape, proxyType BodyType, transform geom.Transform, forcePairCreation bool) {
	w.updateShapeAABBs(s, transform, proxyType)
	s.proxyKey = w.broadPhase.createProxy(s.fatAABB, s.filter.CategoryBits, s.id, proxyType, forcePairCreation)
}

func (w *World) destroyShapeProxy(s *shape) {
	if s.proxyKey != nullIndex {
		w.broadPhase.destroyProxy(s.proxyKey)
		s.proxyKey = nullIndex
	}
}

func (w *World) freeShape(s *shape) {
	w.shapePool.Free(s.id)
	s.id = nullIndex
	s.userData = nil
}

func (w *World) createShapeInternal(b *body, transform geom.Transform, def *ShapeDef, geometry geom.Geometry) *shape {
	shapeID := w.shapePool.Alloc()
	if shapeID == len(w.shapes) {
		w.shapes = append(w.shapes, shape{})
	}

	s := &w.shapes[shapeID]
	*s = shape{
		userData:            def.UserData,
		id:                  shapeID,
		revision:            s.revision + 1,
		bodyID:              b.id,
		chainID:             nullIndex,
		prevShapeID:         nullIndex,
		nextShapeID:         b.headShapeID,
		geometry:            geometry,
		density:             def.Density,
		friction:            def.Friction,
		restitution:         def.Restitution,
		filter:              def.Filter,
		proxyKey:            nullIndex,
		isSensor:            def.IsSensor,
		enableSensorEvents:  def.EnableSensorEvents,
		enableContactEvents: def.EnableContactEvents,
		enableHitEvents:     def.EnableHitEvents,
	}

	if b.setIndex != disabledSet {
		w.createShapeProxy(s, b.typ, transform, def.ForceContactCreation || def.IsSensor)
	} else {
		w.updateShapeAABBs(s, transform, b.typ)
	}

	if b.headShapeID != nullIndex {
		w.shapes[b.headShapeID].prevShapeID = shapeID
	}
	b.headShapeID = shapeID
	b.shapeCount++

	return s
}

// CreateShape attaches a geometry to a body. It returns the null id when the
// world is locked, the body is stale or the geometry is invalid.
func (w *World) CreateShape(bodyID BodyID, def ShapeDef, geometry geom.Geometry) ShapeID {
	id, err := w.TryCreateShape(bodyID, def, geometry)
	if err != nil {
		w.reject("CreateShape", err, "body", bodyID.index)
	}
	return id
}

// TryCreateShape is CreateShape reporting why the shape was not created.
func (w *World) TryCreateShape(bodyID BodyID, def ShapeDef, geometry geom.Geometry) (ShapeID, error) {
	if err := w.mutable(); err != nil {
		return ShapeID{}, err
	}
	b, ok := w.bodyFromID(bodyID)
	if !ok {
		return ShapeID{}, ErrInvalidID
	}
	if err := validateShapeDef(&def); err != nil {
		return ShapeID{}, err
	}
	// short capsules collide as circles
	if geometry.Type == geom.CapsuleShape {
		c := geometry.Capsule
		if geom.DistanceSquared(c.Center1, c.Center2) <= geom.LinearSlop*geom.LinearSlop {
			geometry = geom.Geometry{Type: geom.CircleShape, Circle: geom.Circle{
				Center: geom.Lerp(c.Center1, c.Center2, 0.5),
				Radius: c.Radius,
			}}
		}
	}
	if geometry.Type == geom.ChainSegmentShape || !geometry.IsValid() {
		return ShapeID{}, ErrInvalidGeometry
	}

	s := w.createShapeInternal(b, w.bodySim(b).transform, &def, geometry)
	if def.UpdateBodyMass {
		w.updateBodyMassData(b)
	}
	return w.makeShapeID(s), nil
}

func (w *World) CreateCircleShape(bodyID BodyID, def ShapeDef, circle geom.Circle) ShapeID {
	return w.CreateShape(bodyID, def, geom.Geometry{Type: geom.CircleShape, Circle: circle})
}

func (w *World) CreateCapsuleShape(bodyID BodyID, def ShapeDef, capsule geom.Capsule) ShapeID {
	if geom.DistanceSquared(capsule.Center1, capsule.Center2) <= geom.LinearSlop*geom.LinearSlop {
		return w.CreateCircleShape(bodyID, def, geom.Circle{
			Center: geom.Lerp(capsule.Center1, capsule.Center2, 0.5),
			Radius: capsule.Radius,
		})
	}
	return w.CreateShape(bodyID, def, geom.Geometry{Type: geom.CapsuleShape, Capsule: capsule})
}

func (w *World) CreatePolygonShape(bodyID BodyID, def ShapeDef, polygon geom.Polygon) ShapeID {
	return w.CreateShape(bodyID, def, geom.Geometry{Type: geom.PolygonShape, Polygon: polygon})
}

func (w *World) CreateSegmentShape(bodyID BodyID, def ShapeDef, segment geom.Segment) ShapeID {
	return w.CreateShape(bodyID, def, geom.Geometry{Type: geom.SegmentShape, Segment: segment})
}

// destroyShapeInternal unlinks s from its body and destroys its contacts.
func (w *World) destroyShapeInternal(s *shape, b *body, wakeBodies bool) {
	shapeID := s.id

	if s.prevShapeID != nullIndex {
		w.shapes[s.prevShapeID].nextShapeID = s.nextShapeID
	}
	if s.nextShapeID != nullIndex {
		w.shapes[s.nextShapeID].prevShapeID = s.prevShapeID
	}
	if shapeID == b.headShapeID {
		b.headShapeID = s.nextShapeID
	}
	b.shapeCount--

	w.destroyShapeProxy(s)
	w.destroyShapeContacts(b, shapeID, wakeBodies)
	w.freeShape(s)
}

// destroyShapeContacts destroys the contacts of b involving shapeID.
func (w *World) destroyShapeContacts(b *body, shapeID int, wakeBodies bool) {
	contactKey := b.headContactKey
	for contactKey != nullIndex {
		c := &w.contacts[contactKey>>1]
		contactKey = c.edges[contactKey&1].nextKey
		if c.shapeIDA == shapeID || c.shapeIDB == shapeID {
			w.destroyContact(c, wakeBodies)
		}
	}
}

// DestroyShape removes a shape. Chain segments are destroyed with their
// chain.
func (w *World) DestroyShape(id ShapeID, updateBodyMass bool) {
	if !w.unlocked("DestroyShape") {
		return
	}
	s, ok := w.shapeFromID(id)
	if !ok {
		return
	}
	if s.chainID != nullIndex {
		w.reject("DestroyShape", ErrInvalidGeometry, "shape", s.id, "reason", "chain segment")
		return
	}

	b := &w.bodies[s.bodyID]
	w.destroyShapeInternal(s, b, true)
	if updateBodyMass {
		w.updateBodyMassData(b)
	}
}

// resetProxy refreshes the broad-phase proxy of s after a geometry or filter
// change. Its contacts are destroyed and rebuilt on the next step.
func (w *World) resetProxy(s *shape, wakeBodies, destroyProxy bool) {
	b := &w.bodies[s.bodyID]
	w.destroyShapeContacts(b, s.id, wakeBodies)

	if b.setIndex == disabledSet {
		return
	}

	transform := w.bodySim(b).transform
	if s.proxyKey == nullIndex {
		w.createShapeProxy(s, b.typ, transform, true)
		return
	}

	proxyType := proxyTypeOf(s.proxyKey)
	w.updateShapeAABBs(s, transform, proxyType)
	if destroyProxy {
		w.broadPhase.destroyProxy(s.proxyKey)
		s.proxyKey = w.broadPhase.createProxy(s.fatAABB, s.filter.CategoryBits, s.id, proxyType, true)
	} else {
		w.broadPhase.moveProxy(s.proxyKey, s.fatAABB)
	}
}

func (id ShapeID) resolve() (*World, *shape) {
	s, ok := id.world.shapeFromID(id)
	if !ok {
		return nil, nil
	}
	return id.world, s
}

func (id ShapeID) mutable(op string) (*World, *shape) {
	w, s := id.resolve()
	if s == nil || !w.unlocked(op) {
		return nil, nil
	}
	return w, s
}

func (id ShapeID) Type() geom.ShapeType {
	_, s := id.resolve()
	if s == nil {
		return geom.ShapeTypeCount
	}
	return s.geometry.Type
}

func (id ShapeID) Body() BodyID {
	w, s := id.resolve()
	if s == nil {
		return BodyID{}
	}
	return w.makeBodyID(&w.bodies[s.bodyID])
}

// Chain is the parent chain of a chain segment, or the null id.
func (id ShapeID) Chain() ChainID {
	w, s := id.resolve()
	if s == nil || s.chainID == nullIndex {
		return ChainID{}
	}
	return w.makeChainID(&w.chains[s.chainID])
}

func (id ShapeID) IsSensor() bool {
	_, s := id.resolve()
	return s != nil && s.isSensor
}

func (id ShapeID) Density() float64 {
	_, s := id.resolve()
	if s == nil {
		return 0
	}
	return s.density
}

func (id ShapeID) SetDensity(density float64, updateBodyMass bool) {
	w, s := id.mutable("SetDensity")
	if s == nil || !geom.IsValid(density) || density < 0 || density == s.density {
		return
	}
	s.density = density
	if updateBodyMass {
		w.updateBodyMassData(&w.bodies[s.bodyID])
	}
}

func (id ShapeID) Friction() float64 {
	_, s := id.resolve()
	if s == nil {
		return 0
	}
	return s.friction
}

// SetFriction applies to contacts created after the call.
func (id ShapeID) SetFriction(friction float64) {
	_, s := id.mutable("SetFriction")
	if s == nil || !geom.IsValid(friction) || friction < 0 {
		return
	}
	s.friction = friction
}

func (id ShapeID) Restitution() float64 {
	_, s := id.resolve()
	if s == nil {
		return 0
	}
	return s.restitution
}

func (id ShapeID) SetRestitution(restitution float64) {
	_, s := id.mutable("SetRestitution")
	if s == nil || !geom.IsValid(restitution) || restitution < 0 {
		return
	}
	s.restitution = restitution
}

func (id ShapeID) Filter() Filter {
	_, s := id.resolve()
	if s == nil {
		return Filter{}
	}
	return s.filter
}

// SetFilter changes the collision filter. Contacts of the shape are rebuilt.
func (id ShapeID) SetFilter(filter Filter) {
	w, s := id.mutable("SetFilter")
	if s == nil || filter == s.filter {
		return
	}

	// the tree is sorted by category bits
	destroyProxy := filter.CategoryBits != s.filter.CategoryBits
	s.filter = filter
	w.resetProxy(s, true, destroyProxy)
}

func (id ShapeID) AreSensorEventsEnabled() bool {
	_, s := id.resolve()
	return s != nil && s.enableSensorEvents
}

func (id ShapeID) EnableSensorEvents(flag bool) {
	_, s := id.mutable("EnableSensorEvents")
	if s != nil {
		s.enableSensorEvents = flag
	}
}

func (id ShapeID) AreContactEventsEnabled() bool {
	_, s := id.resolve()
	return s != nil && s.enableContactEvents
}

func (id ShapeID) EnableContactEvents(flag bool) {
	_, s := id.mutable("EnableContactEvents")
	if s != nil {
		s.enableContactEvents = flag
	}
}

func (id ShapeID) AreHitEventsEnabled() bool {
	_, s := id.resolve()
	return s != nil && s.enableHitEvents
}

func (id ShapeID) EnableHitEvents(flag bool) {
	_, s := id.mutable("EnableHitEvents")
	if s != nil {
		s.enableHitEvents = flag
	}
}

func (id ShapeID) UserData() any {
	_, s := id.resolve()
	if s == nil {
		return nil
	}
	return s.userData
}

func (id ShapeID) SetUserData(data any) {
	_, s := id.resolve()
	if s != nil {
		s.userData = data
	}
}

// TestPoint reports whether a world point is inside the shape.
func (id ShapeID) TestPoint(point geom.Vec2) bool {
	w, s := id.resolve()
	if s == nil {
		return false
	}
	localPoint := geom.InvTransformPoint(w.bodyTransform(s.bodyID), point)
	return s.geometry.TestPoint(localPoint)
}

// RayCast casts a world ray against this shape only.
func (id ShapeID) RayCast(origin, translation geom.Vec2) geom.CastOutput {
	w, s := id.resolve()
	if s == nil {
		return geom.CastOutput{}
	}
	transform := w.bodyTransform(s.bodyID)
	input := geom.RayCastInput{
		Origin:      geom.InvTransformPoint(transform, origin),
		Translation: geom.InvRotateVector(transform.Q, translation),
		MaxFraction: 1,
	}
	if !geom.IsValidRay(input) {
		return geom.CastOutput{}
	}

	output := s.geometry.RayCast(input)
	if output.Hit {
		output.Point = geom.TransformPoint(transform, output.Point)
		output.Normal = geom.RotateVector(transform.Q, output.Normal)
	}
	return output
}

// ClosestPoint is the point of the shape closest to target.
func (id ShapeID) ClosestPoint(target geom.Vec2) geom.Vec2 {
	w, s := id.resolve()
	if s == nil {
		return geom.Zero
	}
	input := gjk.DistanceInput{
		ProxyA:     gjk.MakeShapeProxy(&s.geometry),
		ProxyB:     gjk.MakeProxy([]geom.Vec2{target}, 0),
		TransformA: w.bodyTransform(s.bodyID),
		TransformB: geom.TransformIdentity,
		UseRadii:   true,
	}
	var cache gjk.SimplexCache
	return gjk.ShapeDistance(&cache, &input).PointA
}

// AABB is the current bounding box, padded by the speculative distance.
func (id ShapeID) AABB() geom.AABB {
	_, s := id.resolve()
	if s == nil {
		return geom.AABB{}
	}
	return s.aabb
}

func (id ShapeID) MassData() geom.MassData {
	_, s := id.resolve()
	if s == nil {
		return geom.MassData{}
	}
	return s.geometry.ComputeMass(s.density)
}

func (id ShapeID) Geometry() geom.Geometry {
	_, s := id.resolve()
	if s == nil {
		return geom.Geometry{Type: geom.ShapeTypeCount}
	}
	return s.geometry
}

func (id ShapeID) Circle() geom.Circle {
	return id.Geometry().Circle
}

func (id ShapeID) Capsule() geom.Capsule {
	return id.Geometry().Capsule
}

func (id ShapeID) Polygon() geom.Polygon {
	return id.Geometry().Polygon
}

func (id ShapeID) Segment() geom.Segment {
	return id.Geometry().Segment
}

func (id ShapeID) ChainSegment() geom.ChainSegment {
	return id.Geometry().ChainSegment
}

// setGeometry swaps the geometry of a non chain shape. The body mass is not
// recomputed.
func (id ShapeID) setGeometry(op string, geometry geom.Geometry) {
	w, s := id.mutable(op)
	if s == nil {
		return
	}
	if s.chainID != nullIndex || !geometry.IsValid() {
		w.reject(op, ErrInvalidGeometry, "shape", s.id)
		return
	}
	s.geometry = geometry
	w.resetProxy(s, true, true)
}

func (id ShapeID) SetCircle(circle geom.Circle) {
	id.setGeometry("SetCircle", geom.Geometry{Type: geom.CircleShape, Circle: circle})
}

func (id ShapeID) SetCapsule(capsule geom.Capsule) {
	id.setGeometry("SetCapsule", geom.Geometry{Type: geom.CapsuleShape, Capsule: capsule})
}

func (id ShapeID) SetPolygon(polygon geom.Polygon) {
	id.setGeometry("SetPolygon", geom.Geometry{Type: geom.PolygonShape, Polygon: polygon})
}

func (id ShapeID) SetSegment(segment geom.Segment) {
	id.setGeometry("SetSegment", geom.Geometry{Type: geom.SegmentShape, Segment: segment})
}
