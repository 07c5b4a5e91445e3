package scene

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/akmonengine/feather2d"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/geom"
)

func loadString(t *testing.T, doc string) *File {
	t.Helper()
	f, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Expected scene to load, got %v", err)
	}
	return f
}

// ============================================================================
// Load
// ============================================================================

func TestLoad_Defaults(t *testing.T) {
	f := loadString(t, "bodies:\n  - name: a\n    shapes:\n      - circle: {radius: 1}\n")

	worldDef := feather2d.DefaultWorldDef()
	if f.World.Gravity != Vec(worldDef.Gravity) {
		t.Errorf("Expected default gravity %v, got %v", worldDef.Gravity, f.World.Gravity)
	}
	if !f.World.EnableSleep || !f.World.EnableWarmStarting {
		t.Errorf("Expected default world flags to be kept")
	}

	if len(f.Bodies) != 1 {
		t.Fatalf("Expected 1 body, got %d", len(f.Bodies))
	}
	body := f.Bodies[0]
	if body.Type != "static" {
		t.Errorf("Expected static default type, got %q", body.Type)
	}
	if body.GravityScale != 1 || !body.IsEnabled || !body.IsAwake {
		t.Errorf("Expected body defaults, got %+v", body)
	}

	shapeDef := feather2d.DefaultShapeDef()
	shape := body.Shapes[0]
	if shape.Friction != shapeDef.Friction || shape.Density != shapeDef.Density {
		t.Errorf("Expected shape defaults, got friction %v density %v", shape.Friction, shape.Density)
	}
	if shape.Filter.MaskBits != feather2d.DefaultMaskBits {
		t.Errorf("Expected default mask bits, got %x", shape.Filter.MaskBits)
	}
}

func TestLoad_Overrides(t *testing.T) {
	f := loadString(t, `
world:
  gravity: [0, -20]
  enableSleep: false
bodies:
  - type: dynamic
    position: [1, 2]
    gravityScale: 0.5
    shapes:
      - box: {hx: 1, hy: 2}
        friction: 0.1
        filter: {categoryBits: 2, maskBits: 4}
`)

	if f.World.Gravity != (Vec{0, -20}) {
		t.Errorf("Expected gravity (0,-20), got %v", f.World.Gravity)
	}
	if f.World.EnableSleep {
		t.Errorf("Expected sleep to be disabled")
	}
	body := f.Bodies[0]
	if body.Position != (Vec{1, 2}) || body.GravityScale != 0.5 {
		t.Errorf("Expected position (1,2) and gravity scale 0.5, got %v and %v", body.Position, body.GravityScale)
	}
	shape := body.Shapes[0]
	if shape.Friction != 0.1 || shape.Filter.CategoryBits != 2 || shape.Filter.MaskBits != 4 {
		t.Errorf("Expected overridden shape settings, got %+v", shape)
	}
	if shape.Restitution != feather2d.DefaultShapeDef().Restitution {
		t.Errorf("Expected default restitution, got %v", shape.Restitution)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown top level key", "planets: []\n"},
		{"unknown world key", "world:\n  gravityy: [0, 1]\n"},
		{"unknown body key", "bodies:\n  - mass: 3\n"},
		{"unknown shape key", "bodies:\n  - shapes:\n      - circle: {radius: 1}\n        bounce: 1\n"},
		{"short vector", "world:\n  gravity: [1]\n"},
		{"not yaml", "world: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.doc)); err == nil {
				t.Errorf("Expected an error")
			}
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	f := loadString(t, "")
	if len(f.Bodies) != 0 || len(f.Joints) != 0 {
		t.Errorf("Expected an empty scene, got %d bodies and %d joints", len(f.Bodies), len(f.Joints))
	}
	if _, err := f.WorldDef(); err != nil {
		t.Errorf("Expected default world to validate, got %v", err)
	}
}

// ============================================================================
// Build
// ============================================================================

func TestBuild_File(t *testing.T) {
	f, err := LoadFile("testdata/pendulum.yaml")
	if err != nil {
		t.Fatalf("Expected scene to load, got %v", err)
	}
	s, err := f.Build(nil)
	if err != nil {
		t.Fatalf("Expected scene to build, got %v", err)
	}

	for _, name := range []string{"ground", "crate", "ball", "pivot"} {
		if id, ok := s.Bodies[name]; !ok || !id.IsValid() {
			t.Errorf("Expected body %q to exist", name)
		}
	}
	if id, ok := s.Joints["rope"]; !ok || !id.IsValid() {
		t.Fatalf("Expected joint rope to exist")
	}

	counters := s.World.Counters()
	if counters.BodyCount != 4 {
		t.Errorf("Expected 4 bodies, got %d", counters.BodyCount)
	}
	// ground box, 4 chain segments of the loop, crate and ball
	if counters.ShapeCount != 7 {
		t.Errorf("Expected 7 shapes, got %d", counters.ShapeCount)
	}

	if typ := s.Bodies["crate"].Type(); typ != feather2d.DynamicBody {
		t.Errorf("Expected crate to be dynamic, got %v", typ)
	}
	if typ := s.Joints["rope"].Type(); typ != constraint.RevoluteJoint {
		t.Errorf("Expected rope to be revolute, got %v", typ)
	}

	for range 60 {
		s.World.Step(1.0/60.0, 4)
	}

	crate := s.Bodies["crate"].Position()
	if math.Abs(crate.Y()-0.5) > 0.05 {
		t.Errorf("Expected crate to rest on the ground at 0.5, got %v", crate.Y())
	}

	ball := s.Bodies["ball"].Position()
	pivot := s.Bodies["pivot"].Position()
	if d := ball.Sub(pivot).Len(); math.Abs(d-2) > 0.05 {
		t.Errorf("Expected ball to hang 2 from the pivot, got %v", d)
	}
}

func TestBuild_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		shape    string
		expected geom.ShapeType
	}{
		{"circle", "circle: {radius: 0.5}", geom.CircleShape},
		{"capsule", "capsule: {center1: [-1, 0], center2: [1, 0], radius: 0.25}", geom.CapsuleShape},
		{"box", "box: {hx: 1, hy: 0.5, angle: 0.3}", geom.PolygonShape},
		{"rounded box", "box: {hx: 1, hy: 0.5, radius: 0.1}", geom.PolygonShape},
		{"polygon", "polygon: {points: [[0, 0], [1, 0], [0, 1]]}", geom.PolygonShape},
		{"segment", "segment: {point1: [0, 0], point2: [2, 0]}", geom.SegmentShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := loadString(t, "bodies:\n  - name: a\n    type: dynamic\n    shapes:\n      - "+tt.shape+"\n")
			s, err := f.Build(nil)
			if err != nil {
				t.Fatalf("Expected scene to build, got %v", err)
			}

			shapes := s.Bodies["a"].Shapes()
			if len(shapes) != 1 {
				t.Fatalf("Expected 1 shape, got %d", len(shapes))
			}
			if typ := shapes[0].Type(); typ != tt.expected {
				t.Errorf("Expected shape type %v, got %v", tt.expected, typ)
			}
		})
	}
}

func TestBuild_JointDefaults(t *testing.T) {
	f := loadString(t, `
bodies:
  - name: a
  - name: b
    type: dynamic
    position: [0, -1]
    shapes:
      - circle: {radius: 0.25}
joints:
  - name: wheel
    type: wheel
    bodyA: a
    bodyB: b
    motorSpeed: 3
`)
	s, err := f.Build(nil)
	if err != nil {
		t.Fatalf("Expected scene to build, got %v", err)
	}

	id := s.Joints["wheel"]
	defaults := feather2d.DefaultWheelJointDef()
	if hertz := id.Wheel().SpringHertz(); hertz != defaults.Hertz {
		t.Errorf("Expected default spring hertz %v, got %v", defaults.Hertz, hertz)
	}
	if speed := id.Wheel().MotorSpeed(); speed != 3 {
		t.Errorf("Expected motor speed 3, got %v", speed)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected error
	}{
		{
			name:     "unknown body type",
			doc:      "bodies:\n  - type: floating\n",
			expected: ErrUnknownBodyType,
		},
		{
			name:     "no geometry",
			doc:      "bodies:\n  - shapes:\n      - friction: 1\n",
			expected: ErrGeometry,
		},
		{
			name:     "two geometries",
			doc:      "bodies:\n  - shapes:\n      - circle: {radius: 1}\n        segment: {point1: [0, 0], point2: [1, 0]}\n",
			expected: ErrGeometry,
		},
		{
			name:     "unknown joint type",
			doc:      "bodies:\n  - name: a\n  - name: b\njoints:\n  - type: rope\n    bodyA: a\n    bodyB: b\n",
			expected: ErrUnknownJointType,
		},
		{
			name:     "unknown joint body",
			doc:      "bodies:\n  - name: a\njoints:\n  - type: weld\n    bodyA: a\n    bodyB: b\n",
			expected: ErrUnknownBody,
		},
		{
			name:     "degenerate polygon",
			doc:      "bodies:\n  - shapes:\n      - polygon: {points: [[0, 0], [1, 0], [2, 0]]}\n",
			expected: feather2d.ErrInvalidGeometry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := loadString(t, tt.doc)
			_, err := f.Build(nil)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}
