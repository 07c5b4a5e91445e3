// Package scene loads YAML scene descriptions into a world.
//
// A scene lists the world settings, the bodies with their shapes and chains,
// and the joints between named bodies. Settings left out of the file keep
// the values of the feather2d Default*Def constructors.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/akmonengine/feather2d"
	"github.com/akmonengine/feather2d/geom"
	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"
)

// Vec is a point or a vector written as a two element sequence.
type Vec [2]float64

type World struct {
	Gravity              Vec     `yaml:"gravity"`
	RestitutionThreshold float64 `yaml:"restitutionThreshold"`
	HitEventThreshold    float64 `yaml:"hitEventThreshold"`
	ContactHertz         float64 `yaml:"contactHertz"`
	ContactDampingRatio  float64 `yaml:"contactDampingRatio"`
	ContactPushVelocity  float64 `yaml:"contactPushVelocity"`
	JointHertz           float64 `yaml:"jointHertz"`
	JointDampingRatio    float64 `yaml:"jointDampingRatio"`
	MaximumLinearSpeed   float64 `yaml:"maximumLinearSpeed"`
	EnableSleep          bool    `yaml:"enableSleep"`
	EnableContinuous     bool    `yaml:"enableContinuous"`
	EnableWarmStarting   bool    `yaml:"enableWarmStarting"`
	WorkerCount          int     `yaml:"workerCount"`
}

type Filter struct {
	CategoryBits uint64 `yaml:"categoryBits"`
	MaskBits     uint64 `yaml:"maskBits"`
	GroupIndex   int    `yaml:"groupIndex"`
}

type Circle struct {
	Center Vec     `yaml:"center"`
	Radius float64 `yaml:"radius"`
}

type Capsule struct {
	Center1 Vec     `yaml:"center1"`
	Center2 Vec     `yaml:"center2"`
	Radius  float64 `yaml:"radius"`
}

type Box struct {
	HalfWidth  float64 `yaml:"hx"`
	HalfHeight float64 `yaml:"hy"`
	Center     Vec     `yaml:"center"`
	Angle      float64 `yaml:"angle"`
	Radius     float64 `yaml:"radius"`
}

type Polygon struct {
	Points []Vec   `yaml:"points"`
	Radius float64 `yaml:"radius"`
}

type Segment struct {
	Point1 Vec `yaml:"point1"`
	Point2 Vec `yaml:"point2"`
}

// Shape holds exactly one geometry.
type Shape struct {
	Circle  *Circle  `yaml:"circle" copier:"-"`
	Capsule *Capsule `yaml:"capsule" copier:"-"`
	Box     *Box     `yaml:"box" copier:"-"`
	Polygon *Polygon `yaml:"polygon" copier:"-"`
	Segment *Segment `yaml:"segment" copier:"-"`

	Friction            float64 `yaml:"friction"`
	Restitution         float64 `yaml:"restitution"`
	Density             float64 `yaml:"density"`
	Filter              Filter  `yaml:"filter"`
	IsSensor            bool    `yaml:"isSensor"`
	EnableSensorEvents  bool    `yaml:"enableSensorEvents"`
	EnableContactEvents bool    `yaml:"enableContactEvents"`
	EnableHitEvents     bool    `yaml:"enableHitEvents"`
}

type Chain struct {
	Points      []Vec   `yaml:"points" copier:"-"`
	IsLoop      bool    `yaml:"isLoop"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

type Body struct {
	Name            string  `yaml:"name" copier:"-"`
	Type            string  `yaml:"type" copier:"-"`
	Position        Vec     `yaml:"position"`
	Angle           float64 `yaml:"angle" copier:"-"`
	LinearVelocity  Vec     `yaml:"linearVelocity"`
	AngularVelocity float64 `yaml:"angularVelocity"`
	LinearDamping   float64 `yaml:"linearDamping"`
	AngularDamping  float64 `yaml:"angularDamping"`
	GravityScale    float64 `yaml:"gravityScale"`
	SleepThreshold  float64 `yaml:"sleepThreshold"`
	EnableSleep     bool    `yaml:"enableSleep"`
	IsAwake         bool    `yaml:"isAwake"`
	FixedRotation   bool    `yaml:"fixedRotation"`
	IsBullet        bool    `yaml:"isBullet"`
	IsEnabled       bool    `yaml:"isEnabled"`

	Shapes []Shape `yaml:"shapes" copier:"-"`
	Chains []Chain `yaml:"chains" copier:"-"`
}

// Joint carries the settings of every joint kind. Fields that do not apply
// to Type are ignored and zero values keep the defaults of the kind.
type Joint struct {
	Name  string `yaml:"name" copier:"-"`
	Type  string `yaml:"type" copier:"-"`
	BodyA string `yaml:"bodyA" copier:"-"`
	BodyB string `yaml:"bodyB" copier:"-"`

	LocalAnchorA     Vec  `yaml:"anchorA"`
	LocalAnchorB     Vec  `yaml:"anchorB"`
	LocalAxisA       Vec  `yaml:"axis"`
	Target           Vec  `yaml:"target"`
	LinearOffset     Vec  `yaml:"linearOffset"`
	CollideConnected bool `yaml:"collideConnected"`

	ReferenceAngle      float64 `yaml:"referenceAngle"`
	AngularOffset       float64 `yaml:"angularOffset"`
	Length              float64 `yaml:"length"`
	MinLength           float64 `yaml:"minLength"`
	MaxLength           float64 `yaml:"maxLength"`
	EnableSpring        bool    `yaml:"enableSpring"`
	Hertz               float64 `yaml:"hertz"`
	DampingRatio        float64 `yaml:"dampingRatio"`
	LinearHertz         float64 `yaml:"linearHertz"`
	LinearDampingRatio  float64 `yaml:"linearDampingRatio"`
	AngularHertz        float64 `yaml:"angularHertz"`
	AngularDampingRatio float64 `yaml:"angularDampingRatio"`
	EnableLimit         bool    `yaml:"enableLimit"`
	LowerAngle          float64 `yaml:"lowerAngle"`
	UpperAngle          float64 `yaml:"upperAngle"`
	LowerTranslation    float64 `yaml:"lowerTranslation"`
	UpperTranslation    float64 `yaml:"upperTranslation"`
	EnableMotor         bool    `yaml:"enableMotor"`
	MotorSpeed          float64 `yaml:"motorSpeed"`
	MaxMotorTorque      float64 `yaml:"maxMotorTorque"`
	MaxMotorForce       float64 `yaml:"maxMotorForce"`
	MaxForce            float64 `yaml:"maxForce"`
	MaxTorque           float64 `yaml:"maxTorque"`
	CorrectionFactor    float64 `yaml:"correctionFactor"`
}

// File is the root of a scene document.
type File struct {
	World  World   `yaml:"world"`
	Bodies []Body  `yaml:"bodies"`
	Joints []Joint `yaml:"joints"`
}

// Scene is a world built from a File. Bodies and joints are indexed by
// name; unnamed ones are only reachable through the world.
type Scene struct {
	World  *feather2d.World
	Bodies map[string]feather2d.BodyID
	Joints map[string]feather2d.JointID
}

var (
	ErrUnknownBodyType  = errors.New("scene: unknown body type")
	ErrUnknownJointType = errors.New("scene: unknown joint type")
	ErrUnknownBody      = errors.New("scene: unknown body")
	ErrGeometry         = errors.New("scene: a shape needs exactly one geometry")
)

// Load decodes a scene. Unknown keys are errors. Every setting missing from
// the document holds its default value.
func Load(r io.Reader) (*File, error) {
	f := &File{}
	if err := copier.Copy(&f.World, feather2d.DefaultWorldDef()); err != nil {
		return nil, fmt.Errorf("scene: world defaults: %w", err)
	}

	var raw struct {
		World  yaml.Node   `yaml:"world"`
		Bodies []yaml.Node `yaml:"bodies"`
		Joints []Joint     `yaml:"joints"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("scene: decode: %w", err)
	}

	if !raw.World.IsZero() {
		if err := decodeStrict(&raw.World, &f.World); err != nil {
			return nil, fmt.Errorf("scene: world: %w", err)
		}
	}

	for i := range raw.Bodies {
		body, err := decodeBody(&raw.Bodies[i])
		if err != nil {
			return nil, fmt.Errorf("scene: body %d: %w", i, err)
		}
		f.Bodies = append(f.Bodies, body)
	}
	f.Joints = raw.Joints
	return f, nil
}

// LoadFile decodes the scene stored at path.
func LoadFile(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	defer file.Close()
	return Load(file)
}

// decodeBody fills a body and its shapes on top of the default definitions
// so omitted keys keep their default values.
func decodeBody(node *yaml.Node) (Body, error) {
	var body Body
	if err := copier.Copy(&body, feather2d.DefaultBodyDef()); err != nil {
		return body, err
	}
	body.Type = feather2d.StaticBody.String()

	var raw struct {
		Shapes []yaml.Node `yaml:"shapes"`
		Chains []yaml.Node `yaml:"chains"`
	}
	if err := node.Decode(&raw); err != nil {
		return body, err
	}

	// shapes and chains are decoded on their own, on top of their defaults
	stripped := stripKeys(node, "shapes", "chains")
	if err := decodeStrict(stripped, &body); err != nil {
		return body, err
	}

	for i := range raw.Shapes {
		var shape Shape
		if err := copier.Copy(&shape, feather2d.DefaultShapeDef()); err != nil {
			return body, err
		}
		if err := decodeStrict(&raw.Shapes[i], &shape); err != nil {
			return body, fmt.Errorf("shape %d: %w", i, err)
		}
		body.Shapes = append(body.Shapes, shape)
	}

	for i := range raw.Chains {
		var chain Chain
		if err := copier.Copy(&chain, feather2d.DefaultChainDef()); err != nil {
			return body, err
		}
		if err := decodeStrict(&raw.Chains[i], &chain); err != nil {
			return body, fmt.Errorf("chain %d: %w", i, err)
		}
		body.Chains = append(body.Chains, chain)
	}
	return body, nil
}

// decodeStrict decodes node into out and fails on keys out does not have.
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// stripKeys returns a copy of a mapping node without the given keys.
func stripKeys(node *yaml.Node, keys ...string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return node
	}
	out := *node
	out.Content = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		skip := false
		for _, key := range keys {
			if node.Content[i].Value == key {
				skip = true
			}
		}
		if !skip {
			out.Content = append(out.Content, node.Content[i], node.Content[i+1])
		}
	}
	return &out
}

// WorldDef converts the world settings.
func (f *File) WorldDef() (feather2d.WorldDef, error) {
	def := feather2d.DefaultWorldDef()
	if err := copier.Copy(&def, &f.World); err != nil {
		return def, fmt.Errorf("scene: world: %w", err)
	}
	return def, def.Validate()
}

// Build creates the world described by the file.
func (f *File) Build(logger *slog.Logger) (*Scene, error) {
	def, err := f.WorldDef()
	if err != nil {
		return nil, err
	}
	def.Logger = logger

	w, err := feather2d.NewWorld(def)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	s := &Scene{
		World:  w,
		Bodies: make(map[string]feather2d.BodyID),
		Joints: make(map[string]feather2d.JointID),
	}

	for i := range f.Bodies {
		if err := s.createBody(&f.Bodies[i]); err != nil {
			w.Destroy()
			return nil, fmt.Errorf("scene: body %d %q: %w", i, f.Bodies[i].Name, err)
		}
	}
	for i := range f.Joints {
		if err := s.createJoint(&f.Joints[i]); err != nil {
			w.Destroy()
			return nil, fmt.Errorf("scene: joint %d %q: %w", i, f.Joints[i].Name, err)
		}
	}

	if logger != nil {
		counters := w.Counters()
		logger.Debug("scene built", "bodies", counters.BodyCount, "shapes", counters.ShapeCount, "joints", counters.JointCount)
	}
	return s, nil
}

func bodyType(name string) (feather2d.BodyType, error) {
	for _, typ := range []feather2d.BodyType{feather2d.StaticBody, feather2d.KinematicBody, feather2d.DynamicBody} {
		if typ.String() == name {
			return typ, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownBodyType, name)
}

func (s *Scene) createBody(spec *Body) error {
	def := feather2d.DefaultBodyDef()
	if err := copier.Copy(&def, spec); err != nil {
		return err
	}
	typ, err := bodyType(spec.Type)
	if err != nil {
		return err
	}
	def.Type = typ
	def.Rotation = geom.MakeRot(spec.Angle)

	id, err := s.World.TryCreateBody(def)
	if err != nil {
		return err
	}
	if spec.Name != "" {
		s.Bodies[spec.Name] = id
	}

	for i := range spec.Shapes {
		if err := s.createShape(id, &spec.Shapes[i]); err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
	}
	for i := range spec.Chains {
		chainDef := feather2d.DefaultChainDef()
		if err := copier.Copy(&chainDef, &spec.Chains[i]); err != nil {
			return err
		}
		chainDef.Points = points(spec.Chains[i].Points)
		if _, err := s.World.TryCreateChain(id, chainDef); err != nil {
			return fmt.Errorf("chain %d: %w", i, err)
		}
	}
	return nil
}

func (s *Scene) createShape(bodyID feather2d.BodyID, spec *Shape) error {
	geometry, err := spec.geometry()
	if err != nil {
		return err
	}
	def := feather2d.DefaultShapeDef()
	if err := copier.Copy(&def, spec); err != nil {
		return err
	}
	_, err = s.World.TryCreateShape(bodyID, def, geometry)
	return err
}

func (spec *Shape) geometry() (geom.Geometry, error) {
	var geometries []geom.Geometry
	if c := spec.Circle; c != nil {
		geometries = append(geometries, geom.Geometry{
			Type:   geom.CircleShape,
			Circle: geom.Circle{Center: geom.Vec2(c.Center), Radius: c.Radius},
		})
	}
	if c := spec.Capsule; c != nil {
		geometries = append(geometries, geom.Geometry{
			Type:    geom.CapsuleShape,
			Capsule: geom.Capsule{Center1: geom.Vec2(c.Center1), Center2: geom.Vec2(c.Center2), Radius: c.Radius},
		})
	}
	if b := spec.Box; b != nil {
		polygon := geom.MakeOffsetBox(b.HalfWidth, b.HalfHeight, geom.Vec2(b.Center), geom.MakeRot(b.Angle))
		polygon.Radius = b.Radius
		geometries = append(geometries, geom.Geometry{Type: geom.PolygonShape, Polygon: polygon})
	}
	if p := spec.Polygon; p != nil {
		polygon := geom.MakePolygon(geom.ComputeHull(points(p.Points)), p.Radius)
		geometries = append(geometries, geom.Geometry{Type: geom.PolygonShape, Polygon: polygon})
	}
	if seg := spec.Segment; seg != nil {
		geometries = append(geometries, geom.Geometry{
			Type:    geom.SegmentShape,
			Segment: geom.Segment{Point1: geom.Vec2(seg.Point1), Point2: geom.Vec2(seg.Point2)},
		})
	}

	if len(geometries) != 1 {
		return geom.Geometry{}, ErrGeometry
	}
	return geometries[0], nil
}

func points(vs []Vec) []geom.Vec2 {
	out := make([]geom.Vec2, len(vs))
	for i, v := range vs {
		out[i] = geom.Vec2(v)
	}
	return out
}

func (s *Scene) body(name string) (feather2d.BodyID, error) {
	id, ok := s.Bodies[name]
	if !ok {
		return feather2d.BodyID{}, fmt.Errorf("%w %q", ErrUnknownBody, name)
	}
	return id, nil
}

func (s *Scene) createJoint(spec *Joint) error {
	bodyA, err := s.body(spec.BodyA)
	if err != nil {
		return err
	}
	bodyB, err := s.body(spec.BodyB)
	if err != nil {
		return err
	}

	var def feather2d.JointDefinition
	switch spec.Type {
	case "distance":
		d := feather2d.DefaultDistanceJointDef()
		d.BodyIDA, d.BodyIDB = bodyA, bodyB
		def = &d
	case "motor":
		d := feather2d.DefaultMotorJointDef()
		d.BodyIDA, d.BodyIDB = bodyA, bodyB
		def = &d
	case "mouse":
		d := feather2d.DefaultMouseJointDef()
		d.BodyIDA, d.BodyIDB = bodyA, bodyB
		def = &d
	case "prismatic":
		d := feather2d.DefaultPrismaticJointDef()
		d.BodyIDA, d.BodyIDB = bodyA, bodyB
		def = &d
	case "revolute":
		d := feather2d.DefaultRevoluteJointDef()
		d.BodyIDA, d.BodyIDB = bodyA, bodyB
		def = &d
	case "weld":
		d := feather2d.DefaultWeldJointDef()
		d.BodyIDA, d.BodyIDB = bodyA, bodyB
		def = &d
	case "wheel":
		d := feather2d.DefaultWheelJointDef()
		d.BodyIDA, d.BodyIDB = bodyA, bodyB
		def = &d
	default:
		return fmt.Errorf("%w %q", ErrUnknownJointType, spec.Type)
	}

	// zero values keep the defaults of the kind
	if err := copier.CopyWithOption(def, spec, copier.Option{IgnoreEmpty: true}); err != nil {
		return err
	}
	id, err := s.World.TryCreateJoint(def)
	if err != nil {
		return err
	}
	if spec.Name != "" {
		s.Joints[spec.Name] = id
	}
	return nil
}
