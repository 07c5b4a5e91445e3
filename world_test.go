package feather2d

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/akmonengine/feather2d/geom"
)

const (
	testTimeStep     = 1.0 / 60.0
	testSubStepCount = 4
)

// newTestWorld builds a world that panics on rejected operations and logs
// nowhere. Options adjust the definition before creation.
func newTestWorld(t *testing.T, options ...func(def *WorldDef)) *World {
	t.Helper()
	def := DefaultWorldDef()
	def.Debug = true
	def.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, option := range options {
		option(&def)
	}

	w, err := NewWorld(def)
	if err != nil {
		t.Fatalf("Expected a world, got error %v", err)
	}
	return w
}

func lenient(def *WorldDef) { def.Debug = false }

func noGravity(def *WorldDef) { def.Gravity = geom.Zero }

func workers(count int) func(def *WorldDef) {
	return func(def *WorldDef) { def.WorkerCount = count }
}

// createGround adds a static 40x2 box whose top face is at y = 0.
func createGround(w *World) BodyID {
	def := DefaultBodyDef()
	def.Position = geom.V(0, -1)
	ground := w.CreateBody(def)
	w.CreatePolygonShape(ground, DefaultShapeDef(), geom.MakeBox(20, 1))
	return ground
}

func createDynamicBody(w *World, position geom.Vec2) BodyID {
	def := DefaultBodyDef()
	def.Type = DynamicBody
	def.Position = position
	return w.CreateBody(def)
}

func createCircle(w *World, position geom.Vec2, radius float64) BodyID {
	b := createDynamicBody(w, position)
	w.CreateCircleShape(b, DefaultShapeDef(), geom.Circle{Radius: radius})
	return b
}

func createBox(w *World, position geom.Vec2, hx, hy float64) BodyID {
	b := createDynamicBody(w, position)
	w.CreatePolygonShape(b, DefaultShapeDef(), geom.MakeBox(hx, hy))
	return b
}

// stepWorld runs steps at 60 Hz and checks the bookkeeping afterwards.
func stepWorld(t *testing.T, w *World, steps int) {
	t.Helper()
	for range steps {
		w.Step(testTimeStep, testSubStepCount)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("Expected a consistent world after %d steps, got %v", steps, err)
	}
}

func TestNewWorld(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(def *WorldDef)
		wantErr bool
	}{
		{name: "default definition", modify: func(def *WorldDef) {}},
		{name: "zero gravity", modify: noGravity},
		{name: "nan gravity", modify: func(def *WorldDef) { def.Gravity = geom.V(math.NaN(), 0) }, wantErr: true},
		{name: "negative hit threshold", modify: func(def *WorldDef) { def.HitEventThreshold = -1 }, wantErr: true},
		{name: "negative contact hertz", modify: func(def *WorldDef) { def.ContactHertz = -1 }, wantErr: true},
		{name: "zero maximum speed", modify: func(def *WorldDef) { def.MaximumLinearSpeed = 0 }, wantErr: true},
		{name: "negative worker count", modify: func(def *WorldDef) { def.WorkerCount = -2 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := DefaultWorldDef()
			tt.modify(&def)
			w, err := NewWorld(def)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected an error, got a world")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected a world, got error %v", err)
			}
			if len(w.solverSets) != firstSleepingSet {
				t.Errorf("Expected %d solver sets, got %d", firstSleepingSet, len(w.solverSets))
			}
			if err := w.Validate(); err != nil {
				t.Errorf("Expected an empty world to validate, got %v", err)
			}
		})
	}
}

func TestWorld_FallingCircleComesToRest(t *testing.T) {
	w := newTestWorld(t)
	// 100x2 box whose top face is at y = 1
	ground := w.CreateBody(DefaultBodyDef())
	w.CreatePolygonShape(ground, DefaultShapeDef(), geom.MakeBox(50, 1))
	circle := createCircle(w, geom.V(0, 10), 0.5)

	stepWorld(t, w, 120)

	position := circle.Position()
	if math.Abs(position.Y()-1.5) > geom.LinearSlop {
		t.Errorf("Expected the circle to rest at y=1.5, got %v", position)
	}
	if math.Abs(position.X()) > 1e-6 {
		t.Errorf("Expected no lateral drift, got x=%v", position.X())
	}

	stepWorld(t, w, 120)

	if circle.IsAwake() {
		t.Errorf("Expected the resting circle to fall asleep")
	}
	counters := w.Counters()
	if counters.AwakeBodyCount != 0 {
		t.Errorf("Expected no awake body, got %d", counters.AwakeBodyCount)
	}
	if counters.SleepingSetCount != 1 {
		t.Errorf("Expected 1 sleeping set, got %d", counters.SleepingSetCount)
	}
}

func TestWorld_StackSleepsAsOneIsland(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)

	var boxes []BodyID
	for i := range 5 {
		boxes = append(boxes, createBox(w, geom.V(0, 0.5+1.0*float64(i)), 0.5, 0.5))
	}

	stepWorld(t, w, 300)

	counters := w.Counters()
	if counters.IslandCount != 1 {
		t.Errorf("Expected the stack to form 1 island, got %d", counters.IslandCount)
	}
	for i, box := range boxes {
		if box.IsAwake() {
			t.Errorf("Expected box %d asleep", i)
		}
		expected := 0.5 + float64(i)
		if math.Abs(box.Position().Y()-expected) > 0.05 {
			t.Errorf("Expected box %d at y=%v, got %v", i, expected, box.Position().Y())
		}
	}

	t.Run("waking one body wakes the island", func(t *testing.T) {
		boxes[4].SetAwake(true)
		for i, box := range boxes {
			if !box.IsAwake() {
				t.Errorf("Expected box %d awake", i)
			}
		}
		if err := w.Validate(); err != nil {
			t.Errorf("Expected a consistent world, got %v", err)
		}
	})
}

func TestWorld_ContinuousCollision(t *testing.T) {
	tests := []struct {
		name       string
		continuous bool
		bullet     bool
	}{
		{name: "fast body with continuous enabled", continuous: true},
		{name: "bullet with continuous disabled", continuous: false, bullet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t, noGravity, func(def *WorldDef) { def.EnableContinuous = tt.continuous })

			wallDef := DefaultBodyDef()
			wallDef.Position = geom.V(5, 0)
			wall := w.CreateBody(wallDef)
			w.CreatePolygonShape(wall, DefaultShapeDef(), geom.MakeBox(0.05, 2))

			def := DefaultBodyDef()
			def.Type = DynamicBody
			def.IsBullet = tt.bullet
			def.LinearVelocity = geom.V(270, 0)
			projectile := w.CreateBody(def)
			w.CreateCircleShape(projectile, DefaultShapeDef(), geom.Circle{Radius: 0.1})

			stepWorld(t, w, 30)

			if x := projectile.Position().X(); x > 5 {
				t.Errorf("Expected the projectile to stop before the wall, got x=%v", x)
			}
		})
	}

	t.Run("fast body tunnels without continuous", func(t *testing.T) {
		w := newTestWorld(t, noGravity, func(def *WorldDef) { def.EnableContinuous = false })

		wallDef := DefaultBodyDef()
		wallDef.Position = geom.V(5, 0)
		wall := w.CreateBody(wallDef)
		w.CreatePolygonShape(wall, DefaultShapeDef(), geom.MakeBox(0.05, 2))

		def := DefaultBodyDef()
		def.Type = DynamicBody
		def.LinearVelocity = geom.V(270, 0)
		projectile := w.CreateBody(def)
		w.CreateCircleShape(projectile, DefaultShapeDef(), geom.Circle{Radius: 0.1})

		stepWorld(t, w, 30)

		if x := projectile.Position().X(); x < 5 {
			t.Errorf("Expected the projectile to pass the wall, got x=%v", x)
		}
	})
}

func TestWorld_MaximumLinearSpeed(t *testing.T) {
	w := newTestWorld(t, noGravity, func(def *WorldDef) { def.MaximumLinearSpeed = 10 })
	b := createCircle(w, geom.Zero, 0.5)
	b.SetLinearVelocity(geom.V(100, 0))

	stepWorld(t, w, 1)

	if speed := b.LinearVelocity().Len(); speed > 10+1e-9 {
		t.Errorf("Expected speed clamped to 10, got %v", speed)
	}
}

func TestWorld_Locked(t *testing.T) {
	w := newTestWorld(t, lenient)
	ground := createGround(w)

	w.locked = true
	defer func() { w.locked = false }()

	if _, err := w.TryCreateBody(DefaultBodyDef()); !errors.Is(err, ErrWorldLocked) {
		t.Errorf("Expected ErrWorldLocked, got %v", err)
	}
	if id := w.CreateBody(DefaultBodyDef()); !id.IsNull() {
		t.Errorf("Expected a null id while locked, got %+v", id)
	}
	if err := w.TryDestroyBody(ground); !errors.Is(err, ErrWorldLocked) {
		t.Errorf("Expected ErrWorldLocked, got %v", err)
	}
	if !ground.IsValid() {
		t.Errorf("Expected the ground to survive a locked destroy")
	}

	w.SetGravity(geom.V(0, 1))
	if w.Gravity() != DefaultWorldDef().Gravity {
		t.Errorf("Expected gravity unchanged while locked, got %v", w.Gravity())
	}

	t.Run("debug worlds panic", func(t *testing.T) {
		strict := newTestWorld(t)
		strict.locked = true
		defer func() {
			strict.locked = false
			if recover() == nil {
				t.Errorf("Expected a panic")
			}
		}()
		strict.CreateBody(DefaultBodyDef())
	})
}

func TestWorld_EnableSleeping(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	circle := createCircle(w, geom.V(0, 0.5), 0.5)

	stepWorld(t, w, 90)
	if circle.IsAwake() {
		t.Fatalf("Expected the circle asleep")
	}

	w.EnableSleeping(false)
	if !circle.IsAwake() {
		t.Errorf("Expected disabling sleep to wake the circle")
	}

	stepWorld(t, w, 90)
	if !circle.IsAwake() {
		t.Errorf("Expected the circle to stay awake")
	}
}

func TestWorld_ZeroTimeStep(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	circle := createCircle(w, geom.V(0, 0.4), 0.5)

	w.Step(0, testSubStepCount)

	if circle.Position() != geom.V(0, 0.4) {
		t.Errorf("Expected no motion, got %v", circle.Position())
	}
	if w.Counters().ContactCount != 1 {
		t.Errorf("Expected the contact to be created, got %d", w.Counters().ContactCount)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Expected a consistent world, got %v", err)
	}
}

func TestWorld_Counters(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	a := createCircle(w, geom.V(-2, 0.5), 0.5)
	createCircle(w, geom.V(2, 0.5), 0.5)

	stepWorld(t, w, 1)

	counters := w.Counters()
	if counters.BodyCount != 3 {
		t.Errorf("Expected 3 bodies, got %d", counters.BodyCount)
	}
	if counters.ShapeCount != 3 {
		t.Errorf("Expected 3 shapes, got %d", counters.ShapeCount)
	}
	if counters.AwakeBodyCount != 2 {
		t.Errorf("Expected 2 awake bodies, got %d", counters.AwakeBodyCount)
	}
	if counters.ContactCount != 2 {
		t.Errorf("Expected 2 contacts, got %d", counters.ContactCount)
	}
	if counters.IslandCount != 2 {
		t.Errorf("Expected 2 islands, got %d", counters.IslandCount)
	}
	// both circles touch only the static ground, so they share color 1
	if counters.ColorCounts[1] != 2 {
		t.Errorf("Expected 2 constraints in color 1, got %v", counters.ColorCounts)
	}

	w.DestroyBody(a)
	counters = w.Counters()
	if counters.BodyCount != 2 || counters.ContactCount != 1 {
		t.Errorf("Expected 2 bodies and 1 contact after destroy, got %+v", counters)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Expected a consistent world, got %v", err)
	}
}

func TestWorld_Destroy(t *testing.T) {
	w := newTestWorld(t)
	ground := createGround(w)
	createCircle(w, geom.V(0, 2), 0.5)
	stepWorld(t, w, 10)

	w.Destroy()

	if ground.IsValid() {
		t.Errorf("Expected ids to be invalid after Destroy")
	}
	if w.Counters().BodyCount != 0 {
		t.Errorf("Expected no body, got %d", w.Counters().BodyCount)
	}
}

func TestWorld_UseAfterDestroy(t *testing.T) {
	w := newTestWorld(t, lenient)
	ground := createGround(w)
	createCircle(w, geom.V(0, 2), 0.5)
	stepWorld(t, w, 10)

	w.Destroy()

	tests := []struct {
		name string
		call func() error
	}{
		{"create body", func() error {
			_, err := w.TryCreateBody(DefaultBodyDef())
			return err
		}},
		{"create shape", func() error {
			_, err := w.TryCreateShape(ground, DefaultShapeDef(), geom.Geometry{Type: geom.CircleShape, Circle: geom.Circle{Radius: 1}})
			return err
		}},
		{"create joint", func() error {
			def := DefaultDistanceJointDef()
			def.BodyIDA, def.BodyIDB = ground, ground
			_, err := w.TryCreateJoint(&def)
			return err
		}},
		{"destroy body", func() error {
			return w.TryDestroyBody(ground)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrWorldDestroyed) {
				t.Errorf("Expected ErrWorldDestroyed, got %v", err)
			}
		})
	}

	t.Run("step is ignored", func(t *testing.T) {
		w.Step(testTimeStep, testSubStepCount)
		w.Destroy()
		result := w.CastRayClosest(geom.V(-5, 0.5), geom.V(20, 0), DefaultQueryFilter())
		if result.Hit {
			t.Errorf("Expected no hit, got %+v", result)
		}
		if id := w.CreateBody(DefaultBodyDef()); !id.IsNull() {
			t.Errorf("Expected a null id, got %+v", id)
		}
		if w.Counters().BodyCount != 0 {
			t.Errorf("Expected no body, got %d", w.Counters().BodyCount)
		}
	})

	t.Run("debug worlds panic", func(t *testing.T) {
		strict := newTestWorld(t)
		strict.Destroy()
		defer func() {
			if recover() == nil {
				t.Errorf("Expected a panic")
			}
		}()
		strict.Step(testTimeStep, testSubStepCount)
	})
}
