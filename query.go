package feather2d

import (
	"fmt"

	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/gjk"
)

// OverlapFunc is called for every shape found by an overlap query.
// Returning false ends the query.
type OverlapFunc func(id ShapeID) bool

// CastFunc is called for every shape hit by a cast. The returned value
// steers the cast: -1 ignores the shape, 0 ends the cast, the hit fraction
// clips the cast to this hit and 1 keeps going unchanged.
type CastFunc func(id ShapeID, point, normal geom.Vec2, fraction float64) float64

// RayResult is the closest hit of CastRayClosest.
type RayResult struct {
	ShapeID  ShapeID
	Point    geom.Vec2
	Normal   geom.Vec2
	Fraction float64
	Hit      bool
}

func (w *World) queryable(op string) bool {
	if w == nil {
		return false
	}
	if err := w.mutable(); err != nil {
		w.reject(op, err)
		return false
	}
	return true
}

// OverlapAABB visits the shapes whose bounding box overlaps aabb.
func (w *World) OverlapAABB(aabb geom.AABB, filter QueryFilter, fn OverlapFunc) {
	if !w.queryable("OverlapAABB") {
		return
	}
	if !aabb.IsValid() {
		w.reject("OverlapAABB", fmt.Errorf("invalid aabb %v", aabb))
		return
	}

	for typ := range bodyTypeCount {
		stop := false
		w.broadPhase.trees[typ].Query(aabb, filter.MaskBits, func(_ int, shapeID int) bool {
			s := &w.shapes[shapeID]
			if !shouldQueryShape(s, filter) {
				return true
			}
			if !fn(w.makeShapeID(s)) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

// OverlapPoint visits the shapes containing point.
func (w *World) OverlapPoint(point geom.Vec2, filter QueryFilter, fn OverlapFunc) {
	aabb := geom.AABB{LowerBound: point, UpperBound: point}
	w.OverlapAABB(aabb, filter, func(id ShapeID) bool {
		if !id.TestPoint(point) {
			return true
		}
		return fn(id)
	})
}

// OverlapShape visits the shapes overlapping geometry placed at transform.
func (w *World) OverlapShape(geometry geom.Geometry, transform geom.Transform, filter QueryFilter, fn OverlapFunc) {
	if !w.queryable("OverlapShape") {
		return
	}
	if !geometry.IsValid() {
		w.reject("OverlapShape", ErrInvalidGeometry)
		return
	}

	proxy := gjk.MakeShapeProxy(&geometry)
	aabb := geometry.ComputeAABB(transform)

	for typ := range bodyTypeCount {
		stop := false
		w.broadPhase.trees[typ].Query(aabb, filter.MaskBits, func(_ int, shapeID int) bool {
			s := &w.shapes[shapeID]
			if !shouldQueryShape(s, filter) {
				return true
			}

			input := gjk.DistanceInput{
				ProxyA:     gjk.MakeShapeProxy(&s.geometry),
				ProxyB:     proxy,
				TransformA: w.bodyTransform(s.bodyID),
				TransformB: transform,
				UseRadii:   true,
			}
			var cache gjk.SimplexCache
			if gjk.ShapeDistance(&cache, &input).Distance > 0 {
				return true
			}

			if !fn(w.makeShapeID(s)) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

func (w *World) OverlapCircle(circle geom.Circle, transform geom.Transform, filter QueryFilter, fn OverlapFunc) {
	w.OverlapShape(geom.Geometry{Type: geom.CircleShape, Circle: circle}, transform, filter, fn)
}

func (w *World) OverlapCapsule(capsule geom.Capsule, transform geom.Transform, filter QueryFilter, fn OverlapFunc) {
	w.OverlapShape(geom.Geometry{Type: geom.CapsuleShape, Capsule: capsule}, transform, filter, fn)
}

func (w *World) OverlapPolygon(polygon geom.Polygon, transform geom.Transform, filter QueryFilter, fn OverlapFunc) {
	w.OverlapShape(geom.Geometry{Type: geom.PolygonShape, Polygon: polygon}, transform, filter, fn)
}

// CastRay casts a ray from origin along translation. Sensor shapes are not
// hit. Trees are visited in body type order and a clipped ray stays clipped
// for the following trees.
func (w *World) CastRay(origin, translation geom.Vec2, filter QueryFilter, fn CastFunc) {
	if !w.queryable("CastRay") {
		return
	}
	input := geom.RayCastInput{Origin: origin, Translation: translation, MaxFraction: 1}
	if !geom.IsValidRay(input) {
		w.reject("CastRay", fmt.Errorf("invalid ray %v %v", origin, translation))
		return
	}

	fraction := input.MaxFraction
	for typ := range bodyTypeCount {
		w.broadPhase.trees[typ].RayCast(input, filter.MaskBits, func(in geom.RayCastInput, _ int, shapeID int) float64 {
			s := &w.shapes[shapeID]
			if s.isSensor || !shouldQueryShape(s, filter) {
				return in.MaxFraction
			}

			transform := w.bodyTransform(s.bodyID)
			local := geom.RayCastInput{
				Origin:      geom.InvTransformPoint(transform, in.Origin),
				Translation: geom.InvRotateVector(transform.Q, in.Translation),
				MaxFraction: in.MaxFraction,
			}
			output := s.geometry.RayCast(local)
			if !output.Hit {
				return in.MaxFraction
			}

			point := geom.TransformPoint(transform, output.Point)
			normal := geom.RotateVector(transform.Q, output.Normal)
			f := fn(w.makeShapeID(s), point, normal, output.Fraction)
			if 0 <= f && f <= 1 {
				fraction = f
			}
			return f
		})

		if fraction == 0 {
			return
		}
		input.MaxFraction = fraction
	}
}

// CastRayClosest returns the first shape hit by the ray.
func (w *World) CastRayClosest(origin, translation geom.Vec2, filter QueryFilter) RayResult {
	var result RayResult
	w.CastRay(origin, translation, filter, func(id ShapeID, point, normal geom.Vec2, fraction float64) float64 {
		result = RayResult{ShapeID: id, Point: point, Normal: normal, Fraction: fraction, Hit: true}
		return fraction
	})
	return result
}

// CastShape sweeps geometry placed at transform along translation.
func (w *World) CastShape(geometry geom.Geometry, transform geom.Transform, translation geom.Vec2, filter QueryFilter, fn CastFunc) {
	if !w.queryable("CastShape") {
		return
	}
	if !geometry.IsValid() || !geom.IsValidVec2(translation) {
		w.reject("CastShape", ErrInvalidGeometry)
		return
	}

	points, radius := geometry.Points()
	input := geom.ShapeCastInput{Radius: radius, Translation: translation, MaxFraction: 1}
	for i, p := range points {
		input.Points[i] = geom.TransformPoint(transform, p)
	}
	input.Count = len(points)

	fraction := input.MaxFraction
	for typ := range bodyTypeCount {
		w.broadPhase.trees[typ].ShapeCast(input, filter.MaskBits, func(in geom.ShapeCastInput, _ int, shapeID int) float64 {
			s := &w.shapes[shapeID]
			if s.isSensor || !shouldQueryShape(s, filter) {
				return in.MaxFraction
			}

			pair := gjk.ShapeCastPairInput{
				ProxyA:       gjk.MakeShapeProxy(&s.geometry),
				ProxyB:       gjk.MakeProxy(in.Points[:in.Count], in.Radius),
				TransformA:   w.bodyTransform(s.bodyID),
				TransformB:   geom.TransformIdentity,
				TranslationB: in.Translation,
				MaxFraction:  in.MaxFraction,
			}
			output := gjk.ShapeCast(&pair)
			if !output.Hit {
				return in.MaxFraction
			}

			f := fn(w.makeShapeID(s), output.Point, output.Normal, output.Fraction)
			if 0 <= f && f <= 1 {
				fraction = f
			}
			return f
		})

		if fraction == 0 {
			return
		}
		input.MaxFraction = fraction
	}
}

func (w *World) CastCircle(circle geom.Circle, transform geom.Transform, translation geom.Vec2, filter QueryFilter, fn CastFunc) {
	w.CastShape(geom.Geometry{Type: geom.CircleShape, Circle: circle}, transform, translation, filter, fn)
}

func (w *World) CastCapsule(capsule geom.Capsule, transform geom.Transform, translation geom.Vec2, filter QueryFilter, fn CastFunc) {
	w.CastShape(geom.Geometry{Type: geom.CapsuleShape, Capsule: capsule}, transform, translation, filter, fn)
}

func (w *World) CastPolygon(polygon geom.Polygon, transform geom.Transform, translation geom.Vec2, filter QueryFilter, fn CastFunc) {
	w.CastShape(geom.Geometry{Type: geom.PolygonShape, Polygon: polygon}, transform, translation, filter, fn)
}

// Explode applies an outward impulse to the dynamic shapes near
// def.Position. The impulse scales with the perimeter each shape exposes to
// the blast and fades linearly across the falloff distance.
func (w *World) Explode(def ExplosionDef) {
	if !w.unlocked("Explode") {
		return
	}
	if !geom.IsValidVec2(def.Position) || !geom.IsValid(def.Radius) || def.Radius < 0 ||
		!geom.IsValid(def.Falloff) || def.Falloff < 0 || !geom.IsValid(def.ImpulsePerLength) {
		w.reject("Explode", fmt.Errorf("invalid explosion %+v", def))
		return
	}

	reach := def.Radius + def.Falloff
	aabb := geom.AABB{
		LowerBound: def.Position.Sub(geom.V(reach, reach)),
		UpperBound: def.Position.Add(geom.V(reach, reach)),
	}

	w.broadPhase.trees[DynamicBody].Query(aabb, def.MaskBits, func(_ int, shapeID int) bool {
		s := &w.shapes[shapeID]
		b := &w.bodies[s.bodyID]
		transform := w.bodyTransform(b.id)

		input := gjk.DistanceInput{
			ProxyA:     gjk.MakeShapeProxy(&s.geometry),
			ProxyB:     gjk.MakeProxy([]geom.Vec2{def.Position}, 0),
			TransformA: transform,
			TransformB: geom.TransformIdentity,
			UseRadii:   true,
		}
		var cache gjk.SimplexCache
		output := gjk.ShapeDistance(&cache, &input)
		if output.Distance > reach {
			return true
		}

		w.wakeBody(b)
		if b.setIndex != awakeSet {
			return true
		}

		closest := output.PointA
		if output.Distance == 0 {
			closest = geom.TransformPoint(transform, s.geometry.Centroid())
		}

		direction := closest.Sub(def.Position)
		if direction.Dot(direction) > 1e-12 {
			direction = geom.Normalize(direction)
		} else {
			direction = geom.V(1, 0)
		}

		localLine := geom.InvRotateVector(transform.Q, geom.LeftPerp(direction))
		perimeter := s.geometry.ProjectedPerimeter(localLine)

		scale := 1.0
		if output.Distance > def.Radius && def.Falloff > 0 {
			scale = geom.Clamp((reach-output.Distance)/def.Falloff, 0, 1)
		}
		impulse := direction.Mul(def.ImpulsePerLength * perimeter * scale)

		awake := &w.solverSets[awakeSet]
		sim := &awake.bodySims[b.localIndex]
		state := &awake.bodyStates[b.localIndex]
		state.LinearVelocity = state.LinearVelocity.Add(impulse.Mul(sim.invMass))
		state.AngularVelocity += sim.invInertia * geom.Cross(closest.Sub(sim.center), impulse)
		return true
	})
}
