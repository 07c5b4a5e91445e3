package feather2d

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/geom"
)

type eventCapture struct {
	events []Event
}

func (ec *eventCapture) capture(event Event) {
	ec.events = append(ec.events, event)
}

func (ec *eventCapture) reset() {
	ec.events = ec.events[:0]
}

func (ec *eventCapture) count(eventType EventType) int {
	n := 0
	for _, e := range ec.events {
		if e.Type() == eventType {
			n++
		}
	}
	return n
}

// sameShapes reports whether a and b are the shapes x and y in any order.
func sameShapes(a, b, x, y ShapeID) bool {
	return (a == x && b == y) || (a == y && b == x)
}

// =============================================================================
// Subscribe and Listeners Tests
// =============================================================================

func TestEvents_Subscribe(t *testing.T) {
	events := newEvents()
	capture := &eventCapture{}

	events.Subscribe(CONTACT_BEGIN, capture.capture)

	if len(events.listeners[CONTACT_BEGIN]) != 1 {
		t.Errorf("Expected 1 listener for CONTACT_BEGIN, got %d", len(events.listeners[CONTACT_BEGIN]))
	}
}

func TestEvents_MultipleListeners(t *testing.T) {
	events := newEvents()
	capture1 := &eventCapture{}
	capture2 := &eventCapture{}
	captureOther := &eventCapture{}

	events.Subscribe(CONTACT_BEGIN, capture1.capture)
	events.Subscribe(CONTACT_BEGIN, capture2.capture)
	events.Subscribe(SENSOR_BEGIN, captureOther.capture)

	events.contactBegin = append(events.contactBegin, ContactBeginTouchEvent{})
	events.flush()

	if len(capture1.events) != 1 || len(capture2.events) != 1 {
		t.Errorf("Expected both listeners to receive the event, got %d and %d", len(capture1.events), len(capture2.events))
	}
	if len(captureOther.events) != 0 {
		t.Errorf("Expected no sensor event, got %d", len(captureOther.events))
	}
}

func TestEvents_FlushOrder(t *testing.T) {
	events := newEvents()
	capture := &eventCapture{}
	for _, eventType := range []EventType{SENSOR_BEGIN, SENSOR_END, CONTACT_BEGIN, CONTACT_END, CONTACT_HIT, BODY_MOVE} {
		events.Subscribe(eventType, capture.capture)
	}

	events.bodyMoves = append(events.bodyMoves, BodyMoveEvent{})
	events.contactHit = append(events.contactHit, ContactHitEvent{})
	events.contactEnd = append(events.contactEnd, ContactEndTouchEvent{})
	events.contactBegin = append(events.contactBegin, ContactBeginTouchEvent{})
	events.sensorEnd = append(events.sensorEnd, SensorEndTouchEvent{})
	events.sensorBegin = append(events.sensorBegin, SensorBeginTouchEvent{})
	events.flush()

	expected := []EventType{SENSOR_BEGIN, SENSOR_END, CONTACT_BEGIN, CONTACT_END, CONTACT_HIT, BODY_MOVE}
	if len(capture.events) != len(expected) {
		t.Fatalf("Expected %d events, got %d", len(expected), len(capture.events))
	}
	for i, e := range capture.events {
		if e.Type() != expected[i] {
			t.Errorf("Expected event %d to be %v, got %v", i, expected[i], e.Type())
		}
	}
}

func TestEvents_BeginStep(t *testing.T) {
	events := newEvents()
	events.contactBegin = append(events.contactBegin, ContactBeginTouchEvent{})
	events.contactEnded(ContactEndTouchEvent{}, false)
	events.sensorEnded(SensorEndTouchEvent{}, false)

	if len(events.contactEnd) != 0 || len(events.sensorEnd) != 0 {
		t.Errorf("Expected end events raised between steps to wait for the next step")
	}

	events.beginStep()

	if len(events.contactBegin) != 0 {
		t.Errorf("Expected the begin events of the last step cleared, got %d", len(events.contactBegin))
	}
	if len(events.contactEnd) != 1 || len(events.sensorEnd) != 1 {
		t.Errorf("Expected the pending end events moved in, got %d and %d", len(events.contactEnd), len(events.sensorEnd))
	}

	events.beginStep()
	if len(events.contactEnd) != 0 {
		t.Errorf("Expected pending end events reported once, got %d", len(events.contactEnd))
	}
}

// =============================================================================
// Contact Events Tests
// =============================================================================

func TestEvents_ContactBeginEnd(t *testing.T) {
	w := newTestWorld(t)
	ground := createGround(w)
	ball := createCircle(w, geom.V(0, 2), 0.5)
	groundShape, ballShape := ground.Shapes()[0], ball.Shapes()[0]

	capture := &eventCapture{}
	w.Subscribe(CONTACT_BEGIN, capture.capture)
	w.Subscribe(CONTACT_END, capture.capture)

	for range 60 {
		w.Step(testTimeStep, testSubStepCount)
		if capture.count(CONTACT_BEGIN) > 0 {
			break
		}
	}

	events := w.ContactEvents()
	if len(events.BeginEvents) != 1 {
		t.Fatalf("Expected 1 begin event, got %d", len(events.BeginEvents))
	}
	begin := events.BeginEvents[0]
	if !sameShapes(begin.ShapeIDA, begin.ShapeIDB, groundShape, ballShape) {
		t.Errorf("Expected the ground and the ball, got %v %v", begin.ShapeIDA, begin.ShapeIDB)
	}
	if begin.Manifold.PointCount == 0 {
		t.Errorf("Expected a touching manifold")
	}

	ball.SetTransform(geom.V(0, 10), geom.RotIdentity)
	stepWorld(t, w, 1)

	events = w.ContactEvents()
	if len(events.EndEvents) != 1 {
		t.Fatalf("Expected 1 end event, got %d", len(events.EndEvents))
	}
	if end := events.EndEvents[0]; !sameShapes(end.ShapeIDA, end.ShapeIDB, groundShape, ballShape) {
		t.Errorf("Expected the ground and the ball, got %v %v", end.ShapeIDA, end.ShapeIDB)
	}
	if capture.count(CONTACT_BEGIN) != 1 || capture.count(CONTACT_END) != 1 {
		t.Errorf("Expected the listeners to see 1 begin and 1 end, got %d and %d",
			capture.count(CONTACT_BEGIN), capture.count(CONTACT_END))
	}
}

func TestEvents_ContactEventsDisabled(t *testing.T) {
	w := newTestWorld(t)
	ground := createGround(w)
	ball := createCircle(w, geom.V(0, 0.5), 0.5)
	ground.Shapes()[0].EnableContactEvents(false)
	ball.Shapes()[0].EnableContactEvents(false)

	stepWorld(t, w, 1)

	if w.Counters().ContactCount != 1 {
		t.Fatalf("Expected 1 contact, got %d", w.Counters().ContactCount)
	}
	if n := len(w.ContactEvents().BeginEvents); n != 0 {
		t.Errorf("Expected no begin event, got %d", n)
	}
}

func TestEvents_DestroyedBodyEndsContact(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	ball := createCircle(w, geom.V(0, 0.5), 0.5)
	stepWorld(t, w, 1)

	w.DestroyBody(ball)
	if n := len(w.ContactEvents().EndEvents); n != 0 {
		t.Errorf("Expected the end event to wait for the next step, got %d", n)
	}

	stepWorld(t, w, 1)
	if n := len(w.ContactEvents().EndEvents); n != 1 {
		t.Errorf("Expected 1 end event, got %d", n)
	}
}

func TestEvents_ListenerMayModifyWorld(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	ball := createCircle(w, geom.V(0, 2), 0.5)

	destroyed := false
	w.Subscribe(CONTACT_BEGIN, func(event Event) {
		if w.IsLocked() {
			t.Errorf("Expected listeners to run on an unlocked world")
		}
		w.DestroyBody(ball)
		destroyed = true
	})

	stepWorld(t, w, 60)

	if !destroyed || ball.IsValid() {
		t.Errorf("Expected the listener to destroy the ball")
	}
}

func TestEvents_Hit(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)

	def := DefaultBodyDef()
	def.Type = DynamicBody
	def.Position = geom.V(0, 5)
	ball := w.CreateBody(def)
	shapeDef := DefaultShapeDef()
	shapeDef.EnableHitEvents = true
	w.CreateCircleShape(ball, shapeDef, geom.Circle{Radius: 0.5})

	var hits []ContactHitEvent
	for range 120 {
		w.Step(testTimeStep, testSubStepCount)
		hits = append(hits, w.ContactEvents().HitEvents...)
	}

	if len(hits) == 0 {
		t.Fatalf("Expected a hit event")
	}
	// falling 4.5 m gives about 9.5 m/s
	hit := hits[0]
	if hit.ApproachSpeed < 5 || hit.ApproachSpeed > 11 {
		t.Errorf("Expected an approach speed near 9.5, got %v", hit.ApproachSpeed)
	}
	if math.Abs(hit.Point.Y()) > 0.2 {
		t.Errorf("Expected the hit on the ground surface, got %v", hit.Point)
	}

	t.Run("slow contacts do not hit", func(t *testing.T) {
		w.SetHitEventThreshold(100)
		ball.SetTransform(geom.V(0, 5), geom.RotIdentity)
		ball.SetLinearVelocity(geom.Zero)
		for range 120 {
			w.Step(testTimeStep, testSubStepCount)
			if n := len(w.ContactEvents().HitEvents); n != 0 {
				t.Fatalf("Expected no hit event above the threshold, got %d", n)
			}
		}
	})
}

// =============================================================================
// Sensor Events Tests
// =============================================================================

func TestEvents_Sensor(t *testing.T) {
	w := newTestWorld(t)

	zoneDef := DefaultBodyDef()
	zoneDef.Position = geom.V(0, 5)
	zone := w.CreateBody(zoneDef)
	sensorDef := DefaultShapeDef()
	sensorDef.IsSensor = true
	sensor := w.CreatePolygonShape(zone, sensorDef, geom.MakeBox(2, 1))

	ball := createCircle(w, geom.V(0, 8), 0.25)
	visitor := ball.Shapes()[0]

	var begins []SensorBeginTouchEvent
	var ends []SensorEndTouchEvent
	for range 120 {
		w.Step(testTimeStep, testSubStepCount)
		begins = append(begins, w.SensorEvents().BeginEvents...)
		ends = append(ends, w.SensorEvents().EndEvents...)
	}

	if len(begins) != 1 || len(ends) != 1 {
		t.Fatalf("Expected 1 begin and 1 end, got %d and %d", len(begins), len(ends))
	}
	if begins[0].SensorShapeID != sensor || begins[0].VisitorShapeID != visitor {
		t.Errorf("Expected the sensor and the ball, got %+v", begins[0])
	}
	if ends[0].SensorShapeID != sensor || ends[0].VisitorShapeID != visitor {
		t.Errorf("Expected the sensor and the ball, got %+v", ends[0])
	}
	if ball.Position().Y() > 3 {
		t.Errorf("Expected the ball to fall through the sensor, got %v", ball.Position())
	}
	if !sensor.IsSensor() {
		t.Errorf("Expected a sensor shape")
	}
}

func TestEvents_SensorDoesNotCollide(t *testing.T) {
	w := newTestWorld(t)
	ground := createGround(w)
	ground.Shapes()[0].EnableSensorEvents(false)

	sensorDef := DefaultShapeDef()
	sensorDef.IsSensor = true
	sensorDef.EnableSensorEvents = false
	ball := createDynamicBody(w, geom.V(0, 0.4))
	w.CreateCircleShape(ball, sensorDef, geom.Circle{Radius: 0.5})

	stepWorld(t, w, 30)

	if n := len(w.SensorEvents().BeginEvents); n != 0 {
		t.Errorf("Expected no sensor event, got %d", n)
	}
	if y := ball.Position().Y(); y > 0 {
		t.Errorf("Expected a sensor body to fall through the ground, got %v", y)
	}
}

// =============================================================================
// Body Events Tests
// =============================================================================

func TestEvents_BodyMoves(t *testing.T) {
	w := newTestWorld(t)
	createGround(w)
	ball := createCircle(w, geom.V(0, 0.5), 0.5)
	ball.SetUserData("ball")
	createCircle(w, geom.V(3, 5), 0.5)

	stepWorld(t, w, 1)

	moves := w.BodyEvents()
	if len(moves) != 2 {
		t.Fatalf("Expected 2 move events, got %d", len(moves))
	}
	found := false
	for _, m := range moves {
		if m.BodyID == ball {
			found = true
			if m.UserData != "ball" {
				t.Errorf("Expected the user data, got %v", m.UserData)
			}
			if m.Transform != ball.Transform() {
				t.Errorf("Expected the transform of the body, got %+v", m.Transform)
			}
		}
	}
	if !found {
		t.Errorf("Expected a move event for the ball")
	}

	fellAsleep := false
	for range 120 {
		w.Step(testTimeStep, testSubStepCount)
		for _, m := range w.BodyEvents() {
			if m.BodyID == ball && m.FellAsleep {
				fellAsleep = true
			}
		}
	}
	if !fellAsleep {
		t.Errorf("Expected a move event reporting the ball fell asleep")
	}
}
