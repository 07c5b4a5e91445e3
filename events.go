package feather2d

import (
	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/manifold"
)

const (
	SENSOR_BEGIN EventType = iota
	SENSOR_END
	CONTACT_BEGIN
	CONTACT_END
	CONTACT_HIT
	BODY_MOVE
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// SensorBeginTouchEvent is sent when a shape starts overlapping a sensor.
type SensorBeginTouchEvent struct {
	SensorShapeID  ShapeID
	VisitorShapeID ShapeID
}

func (e SensorBeginTouchEvent) Type() EventType { return SENSOR_BEGIN }

// SensorEndTouchEvent is sent when a shape stops overlapping a sensor, or
// when one of the two shapes is destroyed. The ids may be stale.
type SensorEndTouchEvent struct {
	SensorShapeID  ShapeID
	VisitorShapeID ShapeID
}

func (e SensorEndTouchEvent) Type() EventType { return SENSOR_END }

type ContactBeginTouchEvent struct {
	ShapeIDA ShapeID
	ShapeIDB ShapeID
	Manifold manifold.Manifold
}

func (e ContactBeginTouchEvent) Type() EventType { return CONTACT_BEGIN }

// ContactEndTouchEvent ids may be stale when a shape was destroyed.
type ContactEndTouchEvent struct {
	ShapeIDA ShapeID
	ShapeIDB ShapeID
}

func (e ContactEndTouchEvent) Type() EventType { return CONTACT_END }

// ContactHitEvent reports the fastest approaching point of a contact whose
// approach speed exceeded the hit event threshold.
type ContactHitEvent struct {
	ShapeIDA      ShapeID
	ShapeIDB      ShapeID
	Point         geom.Vec2
	Normal        geom.Vec2
	ApproachSpeed float64
}

func (e ContactHitEvent) Type() EventType { return CONTACT_HIT }

// BodyMoveEvent is sent for every awake body at the end of a step.
type BodyMoveEvent struct {
	Transform  geom.Transform
	BodyID     BodyID
	UserData   any
	FellAsleep bool
}

func (e BodyMoveEvent) Type() EventType { return BODY_MOVE }

// SensorEvents are the sensor events of the last step.
type SensorEvents struct {
	BeginEvents []SensorBeginTouchEvent
	EndEvents   []SensorEndTouchEvent
}

// ContactEvents are the contact events of the last step.
type ContactEvents struct {
	BeginEvents []ContactBeginTouchEvent
	EndEvents   []ContactEndTouchEvent
	HitEvents   []ContactHitEvent
}

// EventListener - callback for events
type EventListener func(event Event)

// Events buffers the events of one step. The buffers stay readable until the
// next step starts.
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	sensorBegin  []SensorBeginTouchEvent
	sensorEnd    []SensorEndTouchEvent
	contactBegin []ContactBeginTouchEvent
	contactEnd   []ContactEndTouchEvent
	contactHit   []ContactHitEvent
	bodyMoves    []BodyMoveEvent

	// end events raised between steps, reported by the next step
	pendingSensorEnd  []SensorEndTouchEvent
	pendingContactEnd []ContactEndTouchEvent
}

func newEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// beginStep clears the buffers of the previous step and moves in the end
// events raised since.
func (e *Events) beginStep() {
	e.sensorBegin = e.sensorBegin[:0]
	e.contactBegin = e.contactBegin[:0]
	e.contactHit = e.contactHit[:0]
	e.bodyMoves = e.bodyMoves[:0]

	e.sensorEnd = append(e.sensorEnd[:0], e.pendingSensorEnd...)
	e.contactEnd = append(e.contactEnd[:0], e.pendingContactEnd...)
	e.pendingSensorEnd = e.pendingSensorEnd[:0]
	e.pendingContactEnd = e.pendingContactEnd[:0]
}

func (e *Events) contactEnded(event ContactEndTouchEvent, inStep bool) {
	if inStep {
		e.contactEnd = append(e.contactEnd, event)
		return
	}
	e.pendingContactEnd = append(e.pendingContactEnd, event)
}

func (e *Events) sensorEnded(event SensorEndTouchEvent, inStep bool) {
	if inStep {
		e.sensorEnd = append(e.sensorEnd, event)
		return
	}
	e.pendingSensorEnd = append(e.pendingSensorEnd, event)
}

// emitSensorEnd reports the end of a sensor overlap once per sensor shape of
// the contact.
func (w *World) emitSensorEnd(c *contact) {
	shapeA, shapeB := &w.shapes[c.shapeIDA], &w.shapes[c.shapeIDB]
	idA, idB := w.makeShapeID(shapeA), w.makeShapeID(shapeB)
	if shapeA.isSensor {
		w.events.sensorEnded(SensorEndTouchEvent{SensorShapeID: idA, VisitorShapeID: idB}, w.locked)
	}
	if shapeB.isSensor {
		w.events.sensorEnded(SensorEndTouchEvent{SensorShapeID: idB, VisitorShapeID: idA}, w.locked)
	}
}

func (w *World) emitSensorBegin(c *contact) {
	shapeA, shapeB := &w.shapes[c.shapeIDA], &w.shapes[c.shapeIDB]
	idA, idB := w.makeShapeID(shapeA), w.makeShapeID(shapeB)
	if shapeA.isSensor {
		w.events.sensorBegin = append(w.events.sensorBegin, SensorBeginTouchEvent{SensorShapeID: idA, VisitorShapeID: idB})
	}
	if shapeB.isSensor {
		w.events.sensorBegin = append(w.events.sensorBegin, SensorBeginTouchEvent{SensorShapeID: idB, VisitorShapeID: idA})
	}
}

func (e *Events) dispatch(event Event) {
	for _, listener := range e.listeners[event.Type()] {
		listener(event)
	}
}

// flush sends the events of the step to the listeners
func (e *Events) flush() {
	if len(e.listeners) == 0 {
		return
	}
	for _, event := range e.sensorBegin {
		e.dispatch(event)
	}
	for _, event := range e.sensorEnd {
		e.dispatch(event)
	}
	for _, event := range e.contactBegin {
		e.dispatch(event)
	}
	for _, event := range e.contactEnd {
		e.dispatch(event)
	}
	for _, event := range e.contactHit {
		e.dispatch(event)
	}
	for _, event := range e.bodyMoves {
		e.dispatch(event)
	}
}

// Subscribe registers a listener called after each Step for every event of
// the given type. Listeners may modify the world.
func (w *World) Subscribe(eventType EventType, listener EventListener) {
	w.events.Subscribe(eventType, listener)
}

// BodyEvents lists the awake bodies moved by the last step.
func (w *World) BodyEvents() []BodyMoveEvent {
	return w.events.bodyMoves
}

func (w *World) SensorEvents() SensorEvents {
	return SensorEvents{BeginEvents: w.events.sensorBegin, EndEvents: w.events.sensorEnd}
}

func (w *World) ContactEvents() ContactEvents {
	return ContactEvents{
		BeginEvents: w.events.contactBegin,
		EndEvents:   w.events.contactEnd,
		HitEvents:   w.events.contactHit,
	}
}
