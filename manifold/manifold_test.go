package manifold

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/gjk"
)

const tolerance = 1e-6

func at(x, y float64) geom.Transform {
	return geom.Transform{P: Vec2{x, y}, Q: geom.RotIdentity}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func circleGeometry(radius float64) geom.Geometry {
	return geom.Geometry{Type: geom.CircleShape, Circle: geom.Circle{Radius: radius}}
}

func boxGeometry(hx, hy float64) geom.Geometry {
	return geom.Geometry{Type: geom.PolygonShape, Polygon: geom.MakeBox(hx, hy)}
}

func groundChain() geom.ChainSegment {
	// right to left so the right side faces up
	return geom.ChainSegment{
		Ghost1:  Vec2{2, 0},
		Segment: geom.Segment{Point1: Vec2{1, 0}, Point2: Vec2{-1, 0}},
		Ghost2:  Vec2{-2, 0},
	}
}

func TestCollideCircles(t *testing.T) {
	t.Run("overlapping", func(t *testing.T) {
		m := CollideCircles(geom.Circle{Radius: 1}, at(0, 0), geom.Circle{Radius: 1}, at(1.5, 0))

		if m.PointCount != 1 {
			t.Fatalf("Expected 1 point, got %d", m.PointCount)
		}
		if !near(m.Normal.X(), 1) || !near(m.Normal.Y(), 0) {
			t.Errorf("Expected normal (1, 0), got %v", m.Normal)
		}
		if !near(m.Points[0].Separation, -0.5) {
			t.Errorf("Expected separation -0.5, got %v", m.Points[0].Separation)
		}
		if !near(m.Points[0].Point.X(), 0.75) {
			t.Errorf("Expected point x 0.75, got %v", m.Points[0].Point)
		}
		// anchors reference the same world point
		pA := m.Points[0].AnchorA
		pB := m.Points[0].AnchorB.Add(Vec2{1.5, 0})
		if !near(pA.X(), pB.X()) || !near(pA.Y(), pB.Y()) {
			t.Errorf("Expected anchors to agree, got %v and %v", pA, pB)
		}
	})

	t.Run("speculative", func(t *testing.T) {
		m := CollideCircles(geom.Circle{Radius: 1}, at(0, 0), geom.Circle{Radius: 1}, at(2.01, 0))
		if m.PointCount != 1 {
			t.Fatalf("Expected a speculative point, got %d", m.PointCount)
		}
		if m.Points[0].Separation <= 0 {
			t.Errorf("Expected positive separation, got %v", m.Points[0].Separation)
		}
	})

	t.Run("separated", func(t *testing.T) {
		m := CollideCircles(geom.Circle{Radius: 1}, at(0, 0), geom.Circle{Radius: 1}, at(3, 0))
		if m.PointCount != 0 {
			t.Errorf("Expected 0 points, got %d", m.PointCount)
		}
	})
}

func TestCollidePolygonAndCircle(t *testing.T) {
	t.Run("face region", func(t *testing.T) {
		m := CollidePolygonAndCircle(geom.MakeBox(1, 1), at(0, 0), geom.Circle{Radius: 0.5}, at(0, 1.4))

		if m.PointCount != 1 {
			t.Fatalf("Expected 1 point, got %d", m.PointCount)
		}
		if !near(m.Normal.Y(), 1) {
			t.Errorf("Expected normal (0, 1), got %v", m.Normal)
		}
		if !near(m.Points[0].Separation, -0.1) {
			t.Errorf("Expected separation -0.1, got %v", m.Points[0].Separation)
		}
	})

	t.Run("vertex region", func(t *testing.T) {
		m := CollidePolygonAndCircle(geom.MakeBox(1, 1), at(0, 0), geom.Circle{Radius: 0.5}, at(1.3, 1.3))

		if m.PointCount != 1 {
			t.Fatalf("Expected 1 point, got %d", m.PointCount)
		}
		expected := 0.3*math.Sqrt2 - 0.5
		if !near(m.Points[0].Separation, expected) {
			t.Errorf("Expected separation %v, got %v", expected, m.Points[0].Separation)
		}
		if !near(m.Normal.X(), math.Sqrt2/2) || !near(m.Normal.Y(), math.Sqrt2/2) {
			t.Errorf("Expected diagonal normal, got %v", m.Normal)
		}
	})
}

func TestCollidePolygons(t *testing.T) {
	t.Run("box resting on ground", func(t *testing.T) {
		m := CollidePolygons(geom.MakeBox(5, 0.5), at(0, 0), geom.MakeBox(0.5, 0.5), at(0, 0.99))

		if m.PointCount != 2 {
			t.Fatalf("Expected 2 points, got %d", m.PointCount)
		}
		if !near(m.Normal.X(), 0) || !near(m.Normal.Y(), 1) {
			t.Errorf("Expected normal (0, 1), got %v", m.Normal)
		}
		for i := 0; i < m.PointCount; i++ {
			mp := m.Points[i]
			if !near(mp.Separation, -0.01) {
				t.Errorf("Expected separation -0.01, got %v", mp.Separation)
			}
			if !near(mp.Point.Y(), 0.495) {
				t.Errorf("Expected point y 0.495, got %v", mp.Point)
			}
			if !near(math.Abs(mp.Point.X()), 0.5) {
				t.Errorf("Expected point x at a box corner, got %v", mp.Point)
			}
		}
		if m.Points[0].ID == m.Points[1].ID {
			t.Errorf("Expected distinct feature ids, got %v", m.Points[0].ID)
		}
	})

	t.Run("feature ids persist under small motion", func(t *testing.T) {
		m1 := CollidePolygons(geom.MakeBox(5, 0.5), at(0, 0), geom.MakeBox(0.5, 0.5), at(0, 0.99))
		m2 := CollidePolygons(geom.MakeBox(5, 0.5), at(0, 0), geom.MakeBox(0.5, 0.5), at(0.01, 0.985))

		if m1.PointCount != m2.PointCount {
			t.Fatalf("Expected same point count, got %d and %d", m1.PointCount, m2.PointCount)
		}
		for i := 0; i < m1.PointCount; i++ {
			if m1.Points[i].ID != m2.Points[i].ID {
				t.Errorf("Expected id %v, got %v", m1.Points[i].ID, m2.Points[i].ID)
			}
		}
	})

	t.Run("separated", func(t *testing.T) {
		m := CollidePolygons(geom.MakeBox(1, 1), at(0, 0), geom.MakeBox(1, 1), at(3, 0))
		if m.PointCount != 0 {
			t.Errorf("Expected 0 points, got %d", m.PointCount)
		}
	})

	t.Run("rounded corner to corner", func(t *testing.T) {
		boxA := geom.MakeRoundedBox(0.5, 0.5, 0.1)
		boxB := geom.MakeRoundedBox(0.5, 0.5, 0.1)
		m := CollidePolygons(boxA, at(0, 0), boxB, at(1.1, 1.1))

		if m.PointCount != 1 {
			t.Fatalf("Expected 1 point, got %d", m.PointCount)
		}
		expected := 0.1*math.Sqrt2 - 0.2
		if !near(m.Points[0].Separation, expected) {
			t.Errorf("Expected separation %v, got %v", expected, m.Points[0].Separation)
		}
	})
}

func TestCollideSymmetry(t *testing.T) {
	cases := []struct {
		name string
		a, b geom.Geometry
		xfA  geom.Transform
		xfB  geom.Transform
	}{
		{"circles", circleGeometry(1), circleGeometry(0.5), at(0, 0), at(0.7, 1)},
		{"boxes", boxGeometry(5, 0.5), boxGeometry(0.5, 0.5), at(0, 0), at(0, 0.99)},
		{"rotated boxes", boxGeometry(1, 1), boxGeometry(0.5, 0.5), at(0, 0), geom.Transform{P: Vec2{1.3, 0.2}, Q: geom.MakeRot(0.3)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			forward := Collide(&tc.a, tc.xfA, &tc.b, tc.xfB, &gjk.SimplexCache{})
			backward := Collide(&tc.b, tc.xfB, &tc.a, tc.xfA, &gjk.SimplexCache{})

			if forward.PointCount == 0 || forward.PointCount != backward.PointCount {
				t.Fatalf("Expected matching point counts, got %d and %d", forward.PointCount, backward.PointCount)
			}
			if !near(forward.Normal.X(), -backward.Normal.X()) || !near(forward.Normal.Y(), -backward.Normal.Y()) {
				t.Errorf("Expected opposite normals, got %v and %v", forward.Normal, backward.Normal)
			}

			minForward, minBackward := math.MaxFloat64, math.MaxFloat64
			for i := 0; i < forward.PointCount; i++ {
				minForward = min(minForward, forward.Points[i].Separation)
				minBackward = min(minBackward, backward.Points[i].Separation)
			}
			if math.Abs(minForward-minBackward) > 1e-3 {
				t.Errorf("Expected similar separations, got %v and %v", minForward, minBackward)
			}
		})
	}
}

func TestCollideCapsules(t *testing.T) {
	t.Run("parallel", func(t *testing.T) {
		capsule := geom.Capsule{Center1: Vec2{-1, 0}, Center2: Vec2{1, 0}, Radius: 0.25}
		m := CollideCapsules(capsule, at(0, 0), capsule, at(0, 0.4))

		if m.PointCount != 2 {
			t.Fatalf("Expected 2 points, got %d", m.PointCount)
		}
		if !near(m.Normal.Y(), 1) {
			t.Errorf("Expected normal (0, 1), got %v", m.Normal)
		}
		for i := 0; i < 2; i++ {
			if !near(m.Points[i].Separation, -0.1) {
				t.Errorf("Expected separation -0.1, got %v", m.Points[i].Separation)
			}
			if !near(m.Points[i].Point.Y(), 0.2) || !near(math.Abs(m.Points[i].Point.X()), 1) {
				t.Errorf("Expected point at (+-1, 0.2), got %v", m.Points[i].Point)
			}
		}
	})

	t.Run("end to end", func(t *testing.T) {
		capsule := geom.Capsule{Center1: Vec2{-1, 0}, Center2: Vec2{1, 0}, Radius: 0.25}
		m := CollideCapsules(capsule, at(0, 0), capsule, at(2.4, 0))

		if m.PointCount != 1 {
			t.Fatalf("Expected 1 point, got %d", m.PointCount)
		}
		if !near(m.Points[0].Separation, -0.1) {
			t.Errorf("Expected separation -0.1, got %v", m.Points[0].Separation)
		}
		if !near(m.Normal.X(), 1) {
			t.Errorf("Expected normal (1, 0), got %v", m.Normal)
		}
	})
}

func TestCollideChainSegment(t *testing.T) {
	t.Run("circle above collides", func(t *testing.T) {
		m := CollideChainSegmentAndCircle(groundChain(), at(0, 0), geom.Circle{Radius: 0.5}, at(0, 0.4))

		if m.PointCount != 1 {
			t.Fatalf("Expected 1 point, got %d", m.PointCount)
		}
		if !near(m.Normal.Y(), 1) {
			t.Errorf("Expected normal (0, 1), got %v", m.Normal)
		}
		if !near(m.Points[0].Separation, -0.1) {
			t.Errorf("Expected separation -0.1, got %v", m.Points[0].Separation)
		}
	})

	t.Run("circle below passes", func(t *testing.T) {
		m := CollideChainSegmentAndCircle(groundChain(), at(0, 0), geom.Circle{Radius: 0.5}, at(0, -0.4))
		if m.PointCount != 0 {
			t.Errorf("Expected one-sided collision to skip, got %d points", m.PointCount)
		}
	})

	t.Run("circle owned by next segment", func(t *testing.T) {
		m := CollideChainSegmentAndCircle(groundChain(), at(0, 0), geom.Circle{Radius: 0.5}, at(-1.2, 0.3))
		if m.PointCount != 0 {
			t.Errorf("Expected the neighbor to own the contact, got %d points", m.PointCount)
		}
	})

	t.Run("box rests on chain", func(t *testing.T) {
		var cache gjk.SimplexCache
		m := CollideChainSegmentAndPolygon(groundChain(), at(0, 0), geom.MakeBox(0.5, 0.5), at(0, 0.49), &cache)

		if m.PointCount != 2 {
			t.Fatalf("Expected 2 points, got %d", m.PointCount)
		}
		if !near(m.Normal.Y(), 1) {
			t.Errorf("Expected normal (0, 1), got %v", m.Normal)
		}
		for i := 0; i < 2; i++ {
			if !near(m.Points[i].Separation, -0.01) {
				t.Errorf("Expected separation -0.01, got %v", m.Points[i].Separation)
			}
		}
	})

	t.Run("box below chain passes", func(t *testing.T) {
		var cache gjk.SimplexCache
		m := CollideChainSegmentAndPolygon(groundChain(), at(0, 0), geom.MakeBox(0.5, 0.5), at(0, -0.45), &cache)
		if m.PointCount != 0 {
			t.Errorf("Expected one-sided collision to skip, got %d points", m.PointCount)
		}
	})
}

func TestLookup(t *testing.T) {
	if fn, flip := Lookup(geom.PolygonShape, geom.CircleShape); fn == nil || flip {
		t.Errorf("Expected primary polygon-circle routine")
	}
	if fn, flip := Lookup(geom.CircleShape, geom.PolygonShape); fn == nil || !flip {
		t.Errorf("Expected flipped circle-polygon routine")
	}
	if fn, _ := Lookup(geom.SegmentShape, geom.SegmentShape); fn != nil {
		t.Errorf("Expected segments not to collide with segments")
	}
	if fn, _ := Lookup(geom.ChainSegmentShape, geom.SegmentShape); fn != nil {
		t.Errorf("Expected chain segments not to collide with segments")
	}
}
