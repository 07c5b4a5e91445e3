package geom

import "testing"

func TestComputeHull(t *testing.T) {
	t.Run("square with interior point", func(t *testing.T) {
		points := []Vec2{{-1, -1}, {1, -1}, {0, 0}, {1, 1}, {-1, 1}}
		hull := ComputeHull(points)

		if hull.Count != 4 {
			t.Fatalf("Expected 4 hull points, got %d", hull.Count)
		}
		if !ValidateHull(hull) {
			t.Errorf("Expected a valid hull, got %v", hull.Points[:hull.Count])
		}
	})

	t.Run("collinear points are rejected", func(t *testing.T) {
		hull := ComputeHull([]Vec2{{0, 0}, {1, 0}, {2, 0}, {3, 0}})
		if hull.Count != 0 {
			t.Errorf("Expected empty hull, got %d points", hull.Count)
		}
	})

	t.Run("welded duplicates", func(t *testing.T) {
		hull := ComputeHull([]Vec2{{0, 0}, {0, 0}, {0.001, 0}})
		if hull.Count != 0 {
			t.Errorf("Expected empty hull, got %d points", hull.Count)
		}
	})

	t.Run("too many points", func(t *testing.T) {
		points := make([]Vec2, MaxPolygonVertices+1)
		if hull := ComputeHull(points); hull.Count != 0 {
			t.Errorf("Expected empty hull, got %d points", hull.Count)
		}
	})
}

func TestMakePolygon_NormalsPointOutward(t *testing.T) {
	hull := ComputeHull([]Vec2{{0, 0}, {2, 0}, {1, 2}})
	poly := MakePolygon(hull, 0)

	if poly.Count != 3 {
		t.Fatalf("Expected triangle, got %d vertices", poly.Count)
	}
	for i := 0; i < poly.Count; i++ {
		if poly.Normals[i].Dot(poly.Vertices[i].Sub(poly.Centroid)) <= 0 {
			t.Errorf("Expected normal %d to point away from centroid", i)
		}
		if !IsNormalized(poly.Normals[i]) {
			t.Errorf("Expected normal %d to be unit length", i)
		}
	}
}
