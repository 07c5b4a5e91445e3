package feather2d

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/geom"
)

// createAnchor creates a static body without shapes to pin joints on.
func createAnchor(w *World, position geom.Vec2) BodyID {
	def := DefaultBodyDef()
	def.Position = position
	return w.CreateBody(def)
}

func TestJoint_RevoluteMotor(t *testing.T) {
	w := newTestWorld(t, noGravity)
	anchor := createAnchor(w, geom.V(0, 5))
	wheel := createBox(w, geom.V(0, 5), 0.5, 0.5)

	def := DefaultRevoluteJointDef()
	def.BodyIDA, def.BodyIDB = anchor, wheel
	def.EnableMotor = true
	def.MotorSpeed = 2
	def.MaxMotorTorque = 1000
	j := w.CreateRevoluteJoint(def)

	if j.Type() != constraint.RevoluteJoint {
		t.Fatalf("Expected a revolute joint, got %v", j.Type())
	}

	stepWorld(t, w, 60)

	if av := wheel.AngularVelocity(); math.Abs(av-2) > 0.01 {
		t.Errorf("Expected angular velocity 2, got %v", av)
	}
	if p := wheel.Position(); p.Sub(geom.V(0, 5)).Len() > 1e-3 {
		t.Errorf("Expected the wheel to stay on its pivot, got %v", p)
	}
	if j.Revolute().MotorSpeed() != 2 {
		t.Errorf("Expected motor speed 2, got %v", j.Revolute().MotorSpeed())
	}

	t.Run("motor torque is bounded", func(t *testing.T) {
		j.Revolute().SetMaxMotorTorque(0)
		j.Revolute().SetMotorSpeed(-2)
		stepWorld(t, w, 10)
		if av := wheel.AngularVelocity(); math.Abs(av-2) > 0.01 {
			t.Errorf("Expected a torqueless motor to leave the spin alone, got %v", av)
		}
	})
}

func TestJoint_RevoluteLimit(t *testing.T) {
	w := newTestWorld(t)
	pivot := createAnchor(w, geom.V(0, 10))
	arm := createBox(w, geom.V(2, 10), 1, 0.1)

	def := DefaultRevoluteJointDef()
	def.BodyIDA, def.BodyIDB = pivot, arm
	def.LocalAnchorB = geom.V(-2, 0)
	def.EnableLimit = true
	def.LowerAngle = -0.25 * geom.Pi
	def.UpperAngle = 0.25 * geom.Pi
	j := w.CreateRevoluteJoint(def)

	for range 120 {
		w.Step(testTimeStep, testSubStepCount)
		if angle := j.Revolute().Angle(); angle < def.LowerAngle-0.05 {
			t.Fatalf("Expected the angle to stay above %v, got %v", def.LowerAngle, angle)
		}
	}

	if angle := j.Revolute().Angle(); math.Abs(angle-def.LowerAngle) > 0.05 {
		t.Errorf("Expected the arm to rest on its lower limit, got %v", angle)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Expected a consistent world, got %v", err)
	}
}

func TestJoint_RevoluteMotorAgainstLimit(t *testing.T) {
	w := newTestWorld(t, noGravity)
	left := createBox(w, geom.V(0, 5), 0.5, 0.25)
	right := createBox(w, geom.V(1, 5), 0.5, 0.25)

	def := DefaultRevoluteJointDef()
	def.BodyIDA, def.BodyIDB = left, right
	def.LocalAnchorA = geom.V(0.5, 0)
	def.LocalAnchorB = geom.V(-0.5, 0)
	def.EnableMotor = true
	def.MotorSpeed = 1
	def.MaxMotorTorque = 1000
	def.EnableLimit = true
	def.LowerAngle = -0.5
	def.UpperAngle = 0.5
	j := w.CreateRevoluteJoint(def)

	tests := []struct {
		steps    int
		expected float64
	}{
		{steps: 1, expected: 1.0 / 60.0},
		{steps: 16, expected: 16.0 / 60.0},
	}

	step := 0
	for _, tt := range tests {
		for ; step < tt.steps; step++ {
			w.Step(testTimeStep, testSubStepCount)
		}
		if angle := j.Revolute().Angle(); math.Abs(angle-tt.expected) > 0.01 {
			t.Errorf("Expected angle %v after %d steps, got %v", tt.expected, tt.steps, angle)
		}
	}

	for range 120 {
		w.Step(testTimeStep, testSubStepCount)
		if angle := j.Revolute().Angle(); angle > def.UpperAngle+0.01 {
			t.Fatalf("Expected the angle to stay below %v, got %v", def.UpperAngle, angle)
		}
	}

	if angle := j.Revolute().Angle(); math.Abs(angle-def.UpperAngle) > 0.01 {
		t.Errorf("Expected the motor to hold the upper limit, got %v", angle)
	}
	if relative := right.AngularVelocity() - left.AngularVelocity(); math.Abs(relative) > 0.01 {
		t.Errorf("Expected no relative spin at the limit, got %v", relative)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Expected a consistent world, got %v", err)
	}
}

func TestJoint_DistanceKeepsLength(t *testing.T) {
	w := newTestWorld(t)
	ceiling := createAnchor(w, geom.V(0, 10))
	bob := createCircle(w, geom.V(1, 8), 0.25)

	def := DefaultDistanceJointDef()
	def.BodyIDA, def.BodyIDB = ceiling, bob
	def.Length = 3
	j := w.CreateDistanceJoint(def)

	stepWorld(t, w, 120)

	if length := j.Distance().CurrentLength(); math.Abs(length-3) > 0.05 {
		t.Errorf("Expected length 3, got %v", length)
	}
	if length := j.Distance().Length(); length != 3 {
		t.Errorf("Expected rest length 3, got %v", length)
	}

	t.Run("spring stretches under load", func(t *testing.T) {
		j.Distance().EnableSpring(true)
		j.Distance().SetSpringHertz(1)
		j.Distance().SetSpringDampingRatio(1)
		j.Distance().EnableLimit(true)
		j.Distance().SetLengthRange(2, 4)
		bob.SetAwake(true)

		stepWorld(t, w, 240)

		length := j.Distance().CurrentLength()
		if length <= 3 || length > 4+0.02 {
			t.Errorf("Expected a stretched spring within its range, got %v", length)
		}
	})
}

func TestJoint_HangingForce(t *testing.T) {
	w := newTestWorld(t)
	ceiling := createAnchor(w, geom.V(0, 10))
	box := createBox(w, geom.V(0, 8), 0.5, 0.5)

	def := DefaultWeldJointDef()
	def.BodyIDA, def.BodyIDB = ceiling, box
	def.LocalAnchorA = geom.V(0, -2)
	j := w.CreateWeldJoint(def)

	stepWorld(t, w, 30)

	// the weld carries the weight of a unit mass box
	force := j.ConstraintForce()
	if math.Abs(force.X()) > 0.1 || math.Abs(math.Abs(force.Y())-10) > 0.1 {
		t.Errorf("Expected a force of magnitude 10 along y, got %v", force)
	}
	if p := box.Position(); p.Sub(geom.V(0, 8)).Len() > 0.01 {
		t.Errorf("Expected the box to hang in place, got %v", p)
	}
}

func TestJoint_Prismatic(t *testing.T) {
	w := newTestWorld(t)
	rail := createAnchor(w, geom.V(0, 5))
	slider := createBox(w, geom.V(0, 5), 0.25, 0.25)

	def := DefaultPrismaticJointDef()
	def.BodyIDA, def.BodyIDB = rail, slider
	def.LocalAxisA = geom.V(0, 1)
	def.EnableLimit = true
	def.LowerTranslation = -1
	def.UpperTranslation = 1
	j := w.CreatePrismaticJoint(def)

	stepWorld(t, w, 120)

	if tr := j.Prismatic().Translation(); math.Abs(tr+1) > 0.02 {
		t.Errorf("Expected the slider on its lower limit, got %v", tr)
	}
	if x := slider.Position().X(); math.Abs(x) > 1e-3 {
		t.Errorf("Expected the slider to stay on its axis, got x=%v", x)
	}
	if r := slider.Rotation(); math.Abs(r.S) > 1e-3 {
		t.Errorf("Expected the slider not to rotate, got %v", r)
	}
}

func TestJoint_MouseDragsBody(t *testing.T) {
	w := newTestWorld(t, noGravity)
	ground := createAnchor(w, geom.Zero)
	box := createBox(w, geom.V(0, 0), 0.5, 0.5)

	def := DefaultMouseJointDef()
	def.BodyIDA, def.BodyIDB = ground, box
	def.Target = geom.V(0, 0)
	def.MaxForce = 1000
	def.Hertz = 5
	j := w.CreateMouseJoint(def)

	j.Mouse().SetTarget(geom.V(3, 0))
	stepWorld(t, w, 180)

	if p := box.Position(); p.Sub(geom.V(3, 0)).Len() > 0.05 {
		t.Errorf("Expected the box dragged to (3, 0), got %v", p)
	}
}

func TestJoint_WrongKind(t *testing.T) {
	t.Run("lenient worlds read zero values", func(t *testing.T) {
		w := newTestWorld(t, lenient)
		a, b := createAnchor(w, geom.Zero), createCircle(w, geom.V(1, 0), 0.5)
		def := DefaultRevoluteJointDef()
		def.BodyIDA, def.BodyIDB = a, b
		j := w.CreateRevoluteJoint(def)

		if length := j.Distance().Length(); length != 0 {
			t.Errorf("Expected 0 from a mismatched accessor, got %v", length)
		}
		j.Wheel().SetMotorSpeed(3)
		if j.Revolute().MotorSpeed() != 0 {
			t.Errorf("Expected the revolute joint untouched")
		}
	})

	t.Run("debug worlds panic", func(t *testing.T) {
		w := newTestWorld(t)
		a, b := createAnchor(w, geom.Zero), createCircle(w, geom.V(1, 0), 0.5)
		def := DefaultRevoluteJointDef()
		def.BodyIDA, def.BodyIDB = a, b
		j := w.CreateRevoluteJoint(def)

		defer func() {
			if recover() == nil {
				t.Errorf("Expected a panic")
			}
		}()
		j.Prismatic().Translation()
	})
}

func TestJoint_InvalidDefinition(t *testing.T) {
	w := newTestWorld(t, lenient)
	a := createCircle(w, geom.Zero, 0.5)

	tests := []struct {
		name string
		def  RevoluteJointDef
	}{
		{name: "same body", def: RevoluteJointDef{JointDef: JointDef{BodyIDA: a, BodyIDB: a}}},
		{name: "null body", def: RevoluteJointDef{JointDef: JointDef{BodyIDA: a}}},
		{name: "nan anchor", def: RevoluteJointDef{JointDef: JointDef{BodyIDA: a, BodyIDB: createAnchor(w, geom.Zero), LocalAnchorA: geom.V(math.NaN(), 0)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := w.TryCreateJoint(&tt.def); err == nil {
				t.Errorf("Expected an error")
			}
		})
	}
	if w.Counters().JointCount != 0 {
		t.Errorf("Expected no joint, got %d", w.Counters().JointCount)
	}
}

func TestJoint_DestroyedWithBody(t *testing.T) {
	w := newTestWorld(t)
	a := createCircle(w, geom.V(0, 5), 0.5)
	b := createCircle(w, geom.V(2, 5), 0.5)

	def := DefaultDistanceJointDef()
	def.BodyIDA, def.BodyIDB = a, b
	def.Length = 2
	j := w.CreateDistanceJoint(def)

	if a.JointCount() != 1 || b.JointCount() != 1 {
		t.Fatalf("Expected both bodies to list the joint")
	}
	if w.Counters().IslandCount != 1 {
		t.Errorf("Expected the joint to merge the islands, got %d", w.Counters().IslandCount)
	}

	w.DestroyBody(a)

	if j.IsValid() {
		t.Errorf("Expected the joint destroyed with its body")
	}
	if b.JointCount() != 0 {
		t.Errorf("Expected no joint on the other body, got %d", b.JointCount())
	}
	stepWorld(t, w, 1)
}

func TestJoint_CollideConnected(t *testing.T) {
	tests := []struct {
		name             string
		collideConnected bool
		expectedContacts int
	}{
		{name: "connected bodies ignore each other", collideConnected: false, expectedContacts: 0},
		{name: "connected bodies collide", collideConnected: true, expectedContacts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t, noGravity)
			a := createBox(w, geom.V(0, 0), 0.5, 0.5)
			b := createBox(w, geom.V(0.75, 0), 0.5, 0.5)

			def := DefaultWeldJointDef()
			def.BodyIDA, def.BodyIDB = a, b
			def.LocalAnchorB = geom.V(-0.75, 0)
			def.CollideConnected = tt.collideConnected
			j := w.CreateWeldJoint(def)

			stepWorld(t, w, 2)
			if got := w.Counters().ContactCount; got != tt.expectedContacts {
				t.Errorf("Expected %d contacts, got %d", tt.expectedContacts, got)
			}
			if j.CollideConnected() != tt.collideConnected {
				t.Errorf("Expected CollideConnected %v", tt.collideConnected)
			}
		})
	}
}

func TestJoint_WakesSleepingBodies(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	sleeper := createBox(w, geom.V(0, 0.5), 0.5, 0.5)
	stepWorld(t, w, 120)
	if sleeper.IsAwake() {
		t.Fatalf("Expected the box asleep")
	}

	other := createBox(w, geom.V(3, 0.5), 0.5, 0.5)
	def := DefaultDistanceJointDef()
	def.BodyIDA, def.BodyIDB = sleeper, other
	def.Length = 3
	w.CreateDistanceJoint(def)

	if !sleeper.IsAwake() {
		t.Errorf("Expected the joint to wake the body")
	}
	stepWorld(t, w, 1)
	if got := w.Counters().IslandCount; got != 1 {
		t.Errorf("Expected a single island, got %d", got)
	}
}
