package feather2d

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/akmonengine/feather2d/geom"
)

var (
	ErrWorldLocked    = errors.New("feather2d: world is locked")
	ErrWorldDestroyed = errors.New("feather2d: world is destroyed")
	ErrInvalidID      = errors.New("feather2d: invalid id")
	ErrJointType      = errors.New("feather2d: wrong joint type")

	ErrInvalidTransform = errors.New("feather2d: invalid transform")
	ErrInvalidMass      = errors.New("feather2d: invalid mass data")
	ErrInvalidGeometry  = errors.New("feather2d: invalid geometry")
)

// BodyType decides how a body moves.
type BodyType int

const (
	// StaticBody has zero velocity and is never moved by the solver.
	StaticBody BodyType = iota
	// KinematicBody moves with the velocity set by the user and is not
	// affected by forces or contacts.
	KinematicBody
	// DynamicBody is fully simulated.
	DynamicBody
	bodyTypeCount
)

func (t BodyType) String() string {
	switch t {
	case StaticBody:
		return "static"
	case KinematicBody:
		return "kinematic"
	case DynamicBody:
		return "dynamic"
	}
	return "unknown"
}

const (
	DefaultCategoryBits uint64 = 1
	DefaultMaskBits     uint64 = ^uint64(0)
)

// Filter decides which shapes collide. Shapes sharing a non zero group index
// always collide when the index is positive and never when it is negative;
// otherwise the category and mask bits must match both ways.
type Filter struct {
	CategoryBits uint64
	MaskBits     uint64
	GroupIndex   int
}

// QueryFilter selects the shapes visited by world queries.
type QueryFilter struct {
	CategoryBits uint64
	MaskBits     uint64
}

func DefaultFilter() Filter {
	return Filter{CategoryBits: DefaultCategoryBits, MaskBits: DefaultMaskBits}
}

func DefaultQueryFilter() QueryFilter {
	return QueryFilter{CategoryBits: DefaultCategoryBits, MaskBits: DefaultMaskBits}
}

func shouldShapesCollide(a, b Filter) bool {
	if a.GroupIndex == b.GroupIndex && a.GroupIndex != 0 {
		return a.GroupIndex > 0
	}
	return a.MaskBits&b.CategoryBits != 0 && a.CategoryBits&b.MaskBits != 0
}

func shouldQueryShape(s *shape, filter QueryFilter) bool {
	return s.filter.CategoryBits&filter.MaskBits != 0 && s.filter.MaskBits&filter.CategoryBits != 0
}

// WorldDef configures a new world.
type WorldDef struct {
	Gravity geom.Vec2
	// RestitutionThreshold is the approach speed below which contacts do
	// not bounce.
	RestitutionThreshold float64
	// HitEventThreshold is the approach speed that triggers hit events.
	HitEventThreshold float64
	ContactHertz        float64
	ContactDampingRatio float64
	// ContactPushVelocity caps the speed at which overlap is resolved.
	ContactPushVelocity float64
	JointHertz          float64
	JointDampingRatio   float64
	MaximumLinearSpeed  float64

	EnableSleep        bool
	EnableContinuous   bool
	EnableWarmStarting bool

	// WorkerCount is the number of workers the default task system uses.
	WorkerCount int
	// TaskSystem replaces the default goroutine based task system.
	TaskSystem TaskSystem

	Logger *slog.Logger
	// Debug turns precondition violations into panics.
	Debug bool
}

func DefaultWorldDef() WorldDef {
	return WorldDef{
		Gravity:              geom.Vec2{0, -10},
		RestitutionThreshold: 10 * geom.LengthUnitsPerMeter,
		HitEventThreshold:    1 * geom.LengthUnitsPerMeter,
		ContactHertz:         30,
		ContactDampingRatio:  10,
		ContactPushVelocity:  5 * geom.LengthUnitsPerMeter,
		JointHertz:           60,
		JointDampingRatio:    5,
		MaximumLinearSpeed:   400 * geom.LengthUnitsPerMeter,
		EnableSleep:          true,
		EnableContinuous:     true,
		EnableWarmStarting:   true,
		WorkerCount:          DEFAULT_WORKERS,
	}
}

// Validate reports the first inconsistent setting of the definition.
func (def *WorldDef) Validate() error {
	switch {
	case !geom.IsValidVec2(def.Gravity):
		return fmt.Errorf("feather2d: invalid gravity %v", def.Gravity)
	case def.RestitutionThreshold < 0:
		return fmt.Errorf("feather2d: negative restitution threshold %v", def.RestitutionThreshold)
	case def.HitEventThreshold < 0:
		return fmt.Errorf("feather2d: negative hit event threshold %v", def.HitEventThreshold)
	case def.ContactHertz < 0 || def.JointHertz < 0:
		return fmt.Errorf("feather2d: negative stiffness")
	case def.ContactDampingRatio < 0 || def.JointDampingRatio < 0:
		return fmt.Errorf("feather2d: negative damping ratio")
	case def.ContactPushVelocity < 0:
		return fmt.Errorf("feather2d: negative contact push velocity %v", def.ContactPushVelocity)
	case def.MaximumLinearSpeed <= 0:
		return fmt.Errorf("feather2d: maximum linear speed must be positive, got %v", def.MaximumLinearSpeed)
	case def.WorkerCount < 0:
		return fmt.Errorf("feather2d: negative worker count %d", def.WorkerCount)
	}
	return nil
}

// BodyDef configures a new body.
type BodyDef struct {
	Type            BodyType
	Position        geom.Vec2
	Rotation        geom.Rot
	LinearVelocity  geom.Vec2
	AngularVelocity float64
	LinearDamping   float64
	AngularDamping  float64
	GravityScale    float64
	// SleepThreshold is the speed below which the body may fall asleep.
	SleepThreshold float64
	UserData       any

	EnableSleep   bool
	IsAwake       bool
	FixedRotation bool
	// IsBullet enables continuous collision against dynamic bodies.
	IsBullet  bool
	IsEnabled bool
}

func DefaultBodyDef() BodyDef {
	return BodyDef{
		Type:           StaticBody,
		Rotation:       geom.RotIdentity,
		GravityScale:   1,
		SleepThreshold: 0.05 * geom.LengthUnitsPerMeter,
		EnableSleep:    true,
		IsAwake:        true,
		IsEnabled:      true,
	}
}

// ShapeDef configures a new shape.
type ShapeDef struct {
	UserData    any
	Friction    float64
	Restitution float64
	Density     float64
	Filter      Filter
	// IsSensor shapes detect overlap and never respond to collision.
	IsSensor            bool
	EnableSensorEvents  bool
	EnableContactEvents bool
	EnableHitEvents     bool
	// ForceContactCreation finds contacts for a static shape right away
	// instead of waiting for a dynamic body to move.
	ForceContactCreation bool
	// UpdateBodyMass recomputes the mass of the body from its shapes.
	UpdateBodyMass bool
}

func DefaultShapeDef() ShapeDef {
	return ShapeDef{
		Friction:            0.6,
		Restitution:         0.1,
		Density:             1,
		Filter:              DefaultFilter(),
		EnableSensorEvents:  true,
		EnableContactEvents: true,
		UpdateBodyMass:      true,
	}
}

// ChainDef configures a chain of one-sided segments. The chain collides on
// the right side of the points order, so a counter-clockwise loop collides
// on its outside.
type ChainDef struct {
	UserData    any
	Points      []geom.Vec2
	Friction    float64
	Restitution float64
	Filter      Filter
	// IsLoop closes the chain. A loop needs at least 3 points, an open chain
	// at least 4 since the end points are only ghost vertices.
	IsLoop             bool
	EnableSensorEvents bool
}

func DefaultChainDef() ChainDef {
	return ChainDef{
		Friction: 0.6,
		Filter:   DefaultFilter(),
	}
}

// ExplosionDef describes an impulse applied to nearby dynamic bodies.
type ExplosionDef struct {
	MaskBits uint64
	Position geom.Vec2
	Radius   float64
	// Falloff is the distance beyond Radius over which the impulse fades.
	Falloff float64
	// ImpulsePerLength scales with the projected perimeter of each shape.
	ImpulsePerLength float64
}

func DefaultExplosionDef() ExplosionDef {
	return ExplosionDef{MaskBits: DefaultMaskBits}
}
