// Package manifold computes contact manifolds between pairs of convex
// primitives.
//
// A manifold holds up to two contact points sharing one normal that points
// from shape A to shape B. Points are speculative: a manifold is produced
// as soon as the shapes are closer than SpeculativeDistance, so separation
// may be positive. Every routine works in the local frame of shape A and
// converts to world space at the end, which keeps round-off small far from
// the origin.
//
// Each point carries a feature id built from the vertex or edge indices
// that generated it. The contact solver matches ids across steps to carry
// accumulated impulses forward (warm starting).
package manifold

import (
	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/gjk"
)

type Vec2 = geom.Vec2

// MaxPoints is the largest number of points in a 2D manifold.
const MaxPoints = 2

const epsilon = 1.19209290e-7

// NullFeature marks an absent feature in an id.
const NullFeature = 0xFF

// MakeID packs two feature indices into a contact id.
func MakeID(a, b int) uint16 {
	return uint16(uint8(a))<<8 | uint16(uint8(b))
}

// Point is a contact point. Anchors are relative to the body origins and
// expressed in world orientation.
type Point struct {
	// Point is the world location, the midpoint between the two surfaces.
	Point   Vec2
	AnchorA Vec2
	AnchorB Vec2

	// Separation is negative when penetrating.
	Separation float64

	// solver data carried across steps
	NormalImpulse    float64
	TangentImpulse   float64
	MaxNormalImpulse float64
	NormalVelocity   float64

	ID        uint16
	Persisted bool
}

// Manifold is the contact set between two shapes.
type Manifold struct {
	Points     [MaxPoints]Point
	Normal     Vec2
	PointCount int
}

// addLocalPoint appends a point expressed in the frame of shape A.
func (m *Manifold) addLocalPoint(xfA, xfB geom.Transform, local Vec2, separation float64, id uint16) {
	mp := &m.Points[m.PointCount]
	mp.AnchorA = geom.RotateVector(xfA.Q, local)
	mp.AnchorB = mp.AnchorA.Add(xfA.P.Sub(xfB.P))
	mp.Point = xfA.P.Add(mp.AnchorA)
	mp.Separation = separation
	mp.ID = id
	m.PointCount++
}

// toWorld converts a manifold whose anchors and normal are in the frame of
// shape A, shifted by origin.
func (m *Manifold) toWorld(xfA, xfB geom.Transform, origin Vec2) {
	m.Normal = geom.RotateVector(xfA.Q, m.Normal)
	for i := 0; i < m.PointCount; i++ {
		mp := &m.Points[i]
		mp.AnchorA = geom.RotateVector(xfA.Q, mp.AnchorA.Add(origin))
		mp.AnchorB = mp.AnchorA.Add(xfA.P.Sub(xfB.P))
		mp.Point = xfA.P.Add(mp.AnchorA)
	}
}

// Func computes the manifold of a shape pair. The cache is only used by
// chain segments against polygons.
type Func func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, cache *gjk.SimplexCache) Manifold

type register struct {
	fn      Func
	primary bool
}

var registers [geom.ShapeTypeCount][geom.ShapeTypeCount]register

func addType(fn Func, a, b geom.ShapeType) {
	registers[a][b] = register{fn: fn, primary: true}
	if a != b {
		registers[b][a] = register{fn: fn, primary: false}
	}
}

func init() {
	addType(func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, _ *gjk.SimplexCache) Manifold {
		return CollideCircles(a.Circle, xfA, b.Circle, xfB)
	}, geom.CircleShape, geom.CircleShape)

	addType(func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, _ *gjk.SimplexCache) Manifold {
		return CollideCapsuleAndCircle(a.Capsule, xfA, b.Circle, xfB)
	}, geom.CapsuleShape, geom.CircleShape)

	addType(func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, _ *gjk.SimplexCache) Manifold {
		return CollideCapsules(a.Capsule, xfA, b.Capsule, xfB)
	}, geom.CapsuleShape, geom.CapsuleShape)

	addType(func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, _ *gjk.SimplexCache) Manifold {
		return CollidePolygonAndCircle(a.Polygon, xfA, b.Circle, xfB)
	}, geom.PolygonShape, geom.CircleShape)

	addType(func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, _ *gjk.SimplexCache) Manifold {
		return CollidePolygonAndCapsule(a.Polygon, xfA, b.Capsule, xfB)
	}, geom.PolygonShape, geom.CapsuleShape)

	addType(func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, _ *gjk.SimplexCache) Manifold {
		return CollidePolygons(a.Polygon, xfA, b.Polygon, xfB)
	}, geom.PolygonShape, geom.PolygonShape)

	addType(func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, _ *gjk.SimplexCache) Manifold {
		return CollideSegmentAndCircle(a.Segment, xfA, b.Circle, xfB)
	}, geom.SegmentShape, geom.CircleShape)

	addType(func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, _ *gjk.SimplexCache) Manifold {
		return CollideSegmentAndCapsule(a.Segment, xfA, b.Capsule, xfB)
	}, geom.SegmentShape, geom.CapsuleShape)

	addType(func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, _ *gjk.SimplexCache) Manifold {
		return CollideSegmentAndPolygon(a.Segment, xfA, b.Polygon, xfB)
	}, geom.SegmentShape, geom.PolygonShape)

	addType(func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, _ *gjk.SimplexCache) Manifold {
		return CollideChainSegmentAndCircle(a.ChainSegment, xfA, b.Circle, xfB)
	}, geom.ChainSegmentShape, geom.CircleShape)

	addType(func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, cache *gjk.SimplexCache) Manifold {
		return CollideChainSegmentAndCapsule(a.ChainSegment, xfA, b.Capsule, xfB, cache)
	}, geom.ChainSegmentShape, geom.CapsuleShape)

	addType(func(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, cache *gjk.SimplexCache) Manifold {
		return CollideChainSegmentAndPolygon(a.ChainSegment, xfA, b.Polygon, xfB, cache)
	}, geom.ChainSegmentShape, geom.PolygonShape)
}

// Lookup returns the collide routine for a pair of shape types. When flip
// is true the routine expects the shapes in the opposite order, so the
// caller must create the contact with B as shape A. A nil routine means
// the pair never collides, for example segment against segment.
func Lookup(a, b geom.ShapeType) (fn Func, flip bool) {
	if a < 0 || a >= geom.ShapeTypeCount || b < 0 || b >= geom.ShapeTypeCount {
		return nil, false
	}
	r := registers[a][b]
	if r.fn == nil {
		return nil, false
	}
	return r.fn, !r.primary
}

// Collide dispatches on the geometry types. The pair must be in primary
// order as reported by Lookup.
func Collide(a *geom.Geometry, xfA geom.Transform, b *geom.Geometry, xfB geom.Transform, cache *gjk.SimplexCache) Manifold {
	fn, flip := Lookup(a.Type, b.Type)
	if fn == nil || flip {
		return Manifold{}
	}
	return fn(a, xfA, b, xfB, cache)
}
