package feather2d

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/geom"
)

func TestBody_CreateAndDestroy(t *testing.T) {
	w := newTestWorld(t)
	b := createBox(w, geom.V(1, 2), 0.5, 0.5)

	if !b.IsValid() {
		t.Fatalf("Expected a valid body")
	}
	if b.Type() != DynamicBody {
		t.Errorf("Expected a dynamic body, got %v", b.Type())
	}
	if b.Position() != geom.V(1, 2) {
		t.Errorf("Expected position (1, 2), got %v", b.Position())
	}
	if b.ShapeCount() != 1 {
		t.Errorf("Expected 1 shape, got %d", b.ShapeCount())
	}

	w.DestroyBody(b)
	if b.IsValid() {
		t.Errorf("Expected the destroyed body to be invalid")
	}

	t.Run("reused slots reject old ids", func(t *testing.T) {
		reused := createBox(w, geom.V(0, 0), 0.5, 0.5)
		if reused.Index() != b.Index() {
			t.Fatalf("Expected slot %d to be reused, got %d", b.Index(), reused.Index())
		}
		if b.IsValid() {
			t.Errorf("Expected the old id to stay invalid")
		}
		if !reused.IsValid() {
			t.Errorf("Expected the new id to be valid")
		}
	})

	t.Run("stale ids read zero values", func(t *testing.T) {
		if b.Position() != geom.Zero || b.Mass() != 0 || b.IsAwake() || b.UserData() != nil {
			t.Errorf("Expected zero values from a stale id")
		}
		b.SetLinearVelocity(geom.V(1, 0))
		b.ApplyForceToCenter(geom.V(1, 0), true)
	})

	t.Run("null id", func(t *testing.T) {
		var null BodyID
		if !null.IsNull() || null.IsValid() {
			t.Errorf("Expected the zero id to be null and invalid")
		}
	})

	if err := w.Validate(); err != nil {
		t.Errorf("Expected a consistent world, got %v", err)
	}
}

func TestBody_InvalidDefinition(t *testing.T) {
	tests := []struct {
		name   string
		modify func(def *BodyDef)
	}{
		{name: "nan position", modify: func(def *BodyDef) { def.Position = geom.V(math.NaN(), 0) }},
		{name: "negative damping", modify: func(def *BodyDef) { def.LinearDamping = -1 }},
		{name: "unknown type", modify: func(def *BodyDef) { def.Type = bodyTypeCount }},
		{name: "denormal rotation", modify: func(def *BodyDef) { def.Rotation = geom.Rot{C: 2, S: 0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t, lenient)
			def := DefaultBodyDef()
			tt.modify(&def)
			if _, err := w.TryCreateBody(def); err == nil {
				t.Errorf("Expected an error")
			}
			if w.Counters().BodyCount != 0 {
				t.Errorf("Expected no body to be created")
			}
		})
	}
}

func TestBody_MassFromShapes(t *testing.T) {
	w := newTestWorld(t)

	t.Run("unit box", func(t *testing.T) {
		b := createBox(w, geom.Zero, 0.5, 0.5)
		if math.Abs(b.Mass()-1) > 1e-9 {
			t.Errorf("Expected mass 1, got %v", b.Mass())
		}
		// a unit square has inertia 1/6 about its center
		if math.Abs(b.RotationalInertia()-1.0/6.0) > 1e-9 {
			t.Errorf("Expected inertia 1/6, got %v", b.RotationalInertia())
		}
	})

	t.Run("unit circle", func(t *testing.T) {
		b := createCircle(w, geom.Zero, 1)
		if math.Abs(b.Mass()-math.Pi) > 1e-9 {
			t.Errorf("Expected mass pi, got %v", b.Mass())
		}
	})

	t.Run("offset shapes move the center", func(t *testing.T) {
		b := createDynamicBody(w, geom.Zero)
		w.CreateCircleShape(b, DefaultShapeDef(), geom.Circle{Center: geom.V(-1, 0), Radius: 0.5})
		w.CreateCircleShape(b, DefaultShapeDef(), geom.Circle{Center: geom.V(3, 0), Radius: 0.5})
		center := b.LocalCenterOfMass()
		if math.Abs(center.X()-1) > 1e-9 || math.Abs(center.Y()) > 1e-9 {
			t.Errorf("Expected center (1, 0), got %v", center)
		}
	})

	t.Run("static bodies have no mass", func(t *testing.T) {
		ground := createGround(w)
		if ground.Mass() != 0 {
			t.Errorf("Expected mass 0, got %v", ground.Mass())
		}
	})

	t.Run("override mass", func(t *testing.T) {
		b := createBox(w, geom.Zero, 0.5, 0.5)
		b.SetMassData(geom.MassData{Mass: 4, RotationalInertia: 2})
		if b.Mass() != 4 || b.RotationalInertia() != 2 {
			t.Errorf("Expected mass 4 and inertia 2, got %v %v", b.Mass(), b.RotationalInertia())
		}
		b.ApplyMassFromShapes()
		if math.Abs(b.Mass()-1) > 1e-9 {
			t.Errorf("Expected mass 1 after ApplyMassFromShapes, got %v", b.Mass())
		}
	})
}

func TestBody_Impulses(t *testing.T) {
	w := newTestWorld(t, noGravity)
	b := createBox(w, geom.Zero, 0.5, 0.5)

	b.ApplyLinearImpulseToCenter(geom.V(2, 0), true)
	if v := b.LinearVelocity(); math.Abs(v.X()-2) > 1e-9 || v.Y() != 0 {
		t.Errorf("Expected velocity (2, 0), got %v", v)
	}

	b.ApplyAngularImpulse(1.0/6.0, true)
	if av := b.AngularVelocity(); math.Abs(av-1) > 1e-9 {
		t.Errorf("Expected angular velocity 1, got %v", av)
	}

	stepWorld(t, w, 60)

	if x := b.Position().X(); math.Abs(x-2) > 1e-6 {
		t.Errorf("Expected x=2 after one second, got %v", x)
	}
}

func TestBody_Forces(t *testing.T) {
	w := newTestWorld(t, noGravity)
	b := createBox(w, geom.Zero, 0.5, 0.5)

	b.ApplyForceToCenter(geom.V(60, 0), true)
	stepWorld(t, w, 1)

	// a unit mass pushed by 60 N during 1/60 s
	if v := b.LinearVelocity().X(); math.Abs(v-1) > 1e-9 {
		t.Errorf("Expected velocity 1, got %v", v)
	}

	stepWorld(t, w, 1)
	if v := b.LinearVelocity().X(); math.Abs(v-1) > 1e-9 {
		t.Errorf("Expected forces to be cleared after a step, got velocity %v", v)
	}
}

func TestBody_GravityScaleAndDamping(t *testing.T) {
	w := newTestWorld(t)

	floating := createBox(w, geom.V(0, 10), 0.5, 0.5)
	floating.SetGravityScale(0)

	damped := createBox(w, geom.V(5, 10), 0.5, 0.5)
	damped.SetGravityScale(0)
	damped.SetLinearVelocity(geom.V(1, 0))
	damped.SetLinearDamping(1)

	stepWorld(t, w, 60)

	if floating.Position() != geom.V(0, 10) {
		t.Errorf("Expected the body to float, got %v", floating.Position())
	}
	if v := damped.LinearVelocity().X(); v >= 1 || v <= 0.3 {
		t.Errorf("Expected damping to slow the body, got %v", v)
	}
}

func TestBody_SetType(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)

	def := DefaultBodyDef()
	def.Position = geom.V(0, 3)
	b := w.CreateBody(def)
	w.CreatePolygonShape(b, DefaultShapeDef(), geom.MakeBox(0.5, 0.5))

	stepWorld(t, w, 30)
	if b.Position() != geom.V(0, 3) {
		t.Errorf("Expected the static body to stay, got %v", b.Position())
	}

	b.SetType(DynamicBody)
	if b.Type() != DynamicBody || math.Abs(b.Mass()-1) > 1e-9 {
		t.Errorf("Expected a dynamic body of mass 1, got %v mass %v", b.Type(), b.Mass())
	}

	stepWorld(t, w, 120)
	if y := b.Position().Y(); math.Abs(y-0.5) > 0.02 {
		t.Errorf("Expected the box to land at y=0.5, got %v", y)
	}

	b.SetType(KinematicBody)
	b.SetLinearVelocity(geom.V(0, 1))
	start := b.Position().Y()
	stepWorld(t, w, 60)
	if y := b.Position().Y(); math.Abs(y-start-1) > 1e-6 {
		t.Errorf("Expected the kinematic body to rise by 1, got %v", y-start)
	}
}

func TestBody_DisableEnable(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	b := createBox(w, geom.V(0, 0.5), 0.5, 0.5)

	stepWorld(t, w, 10)
	if w.Counters().ContactCount != 1 {
		t.Fatalf("Expected 1 contact, got %d", w.Counters().ContactCount)
	}

	b.Disable()
	if b.IsEnabled() {
		t.Errorf("Expected the body disabled")
	}
	if w.Counters().ContactCount != 0 {
		t.Errorf("Expected the contacts destroyed, got %d", w.Counters().ContactCount)
	}

	position := b.Position()
	stepWorld(t, w, 10)
	if b.Position() != position {
		t.Errorf("Expected a disabled body to stay, got %v", b.Position())
	}

	b.Enable()
	if !b.IsEnabled() || !b.IsAwake() {
		t.Errorf("Expected the body enabled and awake")
	}
	stepWorld(t, w, 10)
	if w.Counters().ContactCount != 1 {
		t.Errorf("Expected the contact back, got %d", w.Counters().ContactCount)
	}
}

func TestBody_SetTransform(t *testing.T) {
	w := newTestWorld(t)
	b := createBox(w, geom.Zero, 0.5, 0.5)

	b.SetTransform(geom.V(10, 5), geom.MakeRot(geom.Pi/2))

	if b.Position() != geom.V(10, 5) {
		t.Errorf("Expected position (10, 5), got %v", b.Position())
	}
	aabb := b.AABB()
	if !aabb.ContainsPoint(geom.V(10, 5)) || aabb.ContainsPoint(geom.Zero) {
		t.Errorf("Expected the bounds to follow the body, got %+v", aabb)
	}
	if p := b.WorldPoint(geom.V(1, 0)); math.Abs(p.X()-10) > 1e-9 || math.Abs(p.Y()-6) > 1e-9 {
		t.Errorf("Expected world point (10, 6), got %v", p)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Expected a consistent world, got %v", err)
	}
}

func TestBody_DestroyWakesTouchingBodies(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	bottom := createBox(w, geom.V(0, 0.5), 0.5, 0.5)
	top := createBox(w, geom.V(0, 1.5), 0.5, 0.5)

	stepWorld(t, w, 120)
	if top.IsAwake() {
		t.Fatalf("Expected the stack asleep")
	}

	w.DestroyBody(bottom)
	if !top.IsAwake() {
		t.Errorf("Expected destroying a body to wake its neighbors")
	}

	stepWorld(t, w, 120)
	if y := top.Position().Y(); math.Abs(y-0.5) > 0.02 {
		t.Errorf("Expected the top box to fall to y=0.5, got %v", y)
	}
}
