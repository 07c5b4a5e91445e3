package feather2d

import (
	"math"
	"math/rand"
	"testing"

	"github.com/akmonengine/feather2d/geom"
)

func TestGraph_AssignColor(t *testing.T) {
	g := newConstraintGraph(16)

	tests := []struct {
		name     string
		bodyA    int
		bodyB    int
		staticA  bool
		staticB  bool
		expected int
	}{
		{name: "first pair", bodyA: 0, bodyB: 1, expected: 0},
		{name: "disjoint pair shares the color", bodyA: 2, bodyB: 3, expected: 0},
		{name: "shared body moves on", bodyA: 1, bodyB: 2, expected: 1},
		{name: "static contacts skip color 0", bodyA: 4, bodyB: 5, staticB: true, expected: 1},
		{name: "static side uses no bit", bodyA: 6, bodyB: 5, staticB: true, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color := g.assignColor(tt.bodyA, tt.bodyB, tt.staticA, tt.staticB, 1)
			if color != tt.expected {
				t.Errorf("Expected color %d, got %d", tt.expected, color)
			}
		})
	}

	t.Run("overflow", func(t *testing.T) {
		g := newConstraintGraph(16)
		for i := range graphColorCount {
			if color := g.assignColor(0, i+1, false, false, 0); color != i {
				t.Fatalf("Expected color %d, got %d", i, color)
			}
		}
		if color := g.assignColor(0, 15, false, false, 0); color != overflowIndex {
			t.Errorf("Expected the overflow color, got %d", color)
		}
	})
}

// createPyramid stacks unit boxes on the ground, baseCount boxes wide.
func createPyramid(w *World, baseCount int) []BodyID {
	var boxes []BodyID
	for row := range baseCount {
		count := baseCount - row
		for i := range count {
			x := float64(i) - 0.5*float64(count-1)
			y := 0.5 + float64(row)
			boxes = append(boxes, createBox(w, geom.V(x, y), 0.5, 0.5))
		}
	}
	return boxes
}

func TestGraph_PyramidColoring(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	boxes := createPyramid(w, 10)
	top := boxes[len(boxes)-1]

	for step := range 90 {
		w.Step(testTimeStep, testSubStepCount)
		if err := w.Validate(); err != nil {
			t.Fatalf("Expected a consistent world at step %d, got %v", step, err)
		}
	}

	counters := w.Counters()
	if counters.ColorCounts[overflowIndex] != 0 {
		t.Errorf("Expected no overflow constraint, got %d", counters.ColorCounts[overflowIndex])
	}
	colored := 0
	for _, n := range counters.ColorCounts {
		colored += n
	}
	if colored == 0 && counters.AwakeBodyCount > 0 {
		t.Errorf("Expected the awake pyramid to be colored")
	}
	if y := top.Position().Y(); math.Abs(y-9.5) > 0.1 {
		t.Errorf("Expected the pyramid to stand, top at %v", y)
	}
	if counters.IslandCount != 1 {
		t.Errorf("Expected a single island, got %d", counters.IslandCount)
	}
}

func TestGraph_WorkerCounts(t *testing.T) {
	tests := []struct {
		name        string
		workerCount int
	}{
		{name: "single worker", workerCount: 1},
		{name: "four workers", workerCount: 4},
		{name: "more workers than blocks", workerCount: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t, workers(tt.workerCount))
			createGround(w)
			boxes := createPyramid(w, 6)

			stepWorld(t, w, 60)

			for _, b := range boxes {
				if b.Position().Y() < 0.45 {
					t.Errorf("Expected boxes above the ground, got %v", b.Position())
				}
			}
		})
	}
}

func TestGraph_RandomJointChurn(t *testing.T) {
	w := newTestWorld(t, noGravity)
	r := rand.New(rand.NewSource(7))

	anchor := createAnchor(w, geom.V(0, 0))
	bodies := []BodyID{anchor}
	for i := range 24 {
		bodies = append(bodies, createCircle(w, geom.V(float64(i%6)*3, float64(i/6)*3), 0.5))
	}

	var joints []JointID
	for op := range 400 {
		if len(joints) > 0 && r.Intn(3) == 0 {
			i := r.Intn(len(joints))
			w.DestroyJoint(joints[i])
			joints = append(joints[:i], joints[i+1:]...)
		} else {
			a, b := r.Intn(len(bodies)), r.Intn(len(bodies))
			if a == b {
				continue
			}
			def := DefaultDistanceJointDef()
			def.BodyIDA, def.BodyIDB = bodies[a], bodies[b]
			def.Length = 3
			joints = append(joints, w.CreateDistanceJoint(def))
		}

		if err := w.Validate(); err != nil {
			t.Fatalf("Expected a consistent graph after operation %d, got %v", op, err)
		}
		if op%50 == 0 {
			w.Step(testTimeStep, testSubStepCount)
		}
	}

	colored := 0
	for i := range w.graph.colors {
		colored += len(w.graph.colors[i].jointSims)
	}
	if colored != len(joints) && w.Counters().AwakeBodyCount == len(bodies)-1 {
		t.Errorf("Expected %d colored joints, got %d", len(joints), colored)
	}
}
