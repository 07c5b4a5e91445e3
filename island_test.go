package feather2d

import (
	"testing"

	"github.com/akmonengine/feather2d/geom"
)

func TestIsland_SplitAfterContactRemoved(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	bottom := createBox(w, geom.V(0, 0.5), 0.5, 0.5)
	top := createBox(w, geom.V(0, 1.5), 0.5, 0.5)

	stepWorld(t, w, 1)
	if n := w.Counters().IslandCount; n != 1 {
		t.Fatalf("Expected the stack to form 1 island, got %d", n)
	}

	top.SetTransform(geom.V(5, 1.5), geom.RotIdentity)
	stepWorld(t, w, 180)

	counters := w.Counters()
	if counters.IslandCount != 2 {
		t.Errorf("Expected the island split in 2, got %d", counters.IslandCount)
	}
	if bottom.IsAwake() || top.IsAwake() {
		t.Errorf("Expected both boxes asleep")
	}
	if counters.SleepingSetCount != 2 {
		t.Errorf("Expected 2 sleeping sets, got %d", counters.SleepingSetCount)
	}

	t.Run("waking one island leaves the other asleep", func(t *testing.T) {
		top.SetAwake(true)
		if !top.IsAwake() || bottom.IsAwake() {
			t.Errorf("Expected only the top box awake")
		}
	})
}

func TestIsland_SplitAfterJointRemoved(t *testing.T) {
	w := newTestWorld(t, noGravity)
	a := createBox(w, geom.V(0, 0), 0.5, 0.5)
	b := createBox(w, geom.V(3, 0), 0.5, 0.5)
	c := createBox(w, geom.V(6, 0), 0.5, 0.5)

	def := DefaultDistanceJointDef()
	def.Length = 3
	def.BodyIDA, def.BodyIDB = a, b
	ab := w.CreateDistanceJoint(def)
	def.BodyIDA, def.BodyIDB = b, c
	w.CreateDistanceJoint(def)

	if n := w.Counters().IslandCount; n != 1 {
		t.Fatalf("Expected the chain to form 1 island, got %d", n)
	}

	w.DestroyJoint(ab)
	stepWorld(t, w, 60)

	if n := w.Counters().IslandCount; n != 2 {
		t.Errorf("Expected 2 islands, got %d", n)
	}
	if a.IsAwake() || c.IsAwake() {
		t.Errorf("Expected the islands asleep")
	}
}

func TestIsland_StaticBodiesDoNotLink(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	createBox(w, geom.V(-3, 0.5), 0.5, 0.5)
	createBox(w, geom.V(3, 0.5), 0.5, 0.5)

	stepWorld(t, w, 1)

	counters := w.Counters()
	if counters.ContactCount != 2 {
		t.Fatalf("Expected 2 ground contacts, got %d", counters.ContactCount)
	}
	if counters.IslandCount != 2 {
		t.Errorf("Expected one island per box, got %d", counters.IslandCount)
	}
}

func TestIsland_SleepingBodyWokenByTouch(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	sleeper := createBox(w, geom.V(0, 0.5), 0.5, 0.5)
	stepWorld(t, w, 120)
	if sleeper.IsAwake() {
		t.Fatalf("Expected the box asleep")
	}

	createCircle(w, geom.V(0, 3), 0.5)
	for range 60 {
		w.Step(testTimeStep, testSubStepCount)
		if sleeper.IsAwake() {
			break
		}
	}

	if !sleeper.IsAwake() {
		t.Errorf("Expected the falling ball to wake the box")
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Expected a consistent world, got %v", err)
	}
}
