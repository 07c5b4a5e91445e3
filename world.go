package feather2d

import (
	"fmt"
	"log/slog"

	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/internal/idpool"
)

const DEFAULT_WORKERS = 1

// World owns every body, shape, joint and contact of a simulation. A World
// is not safe for concurrent use: steps and mutations must be serialized by
// the caller.
type World struct {
	logger *slog.Logger
	debug  bool

	bodies      []body
	bodyPool    idpool.Pool
	shapes      []shape
	shapePool   idpool.Pool
	chains      []chain
	chainPool   idpool.Pool
	contacts    []contact
	contactPool idpool.Pool
	joints      []joint
	jointPool   idpool.Pool
	islands     []island
	islandPool  idpool.Pool

	solverSets    []solverSet
	solverSetPool idpool.Pool

	broadPhase broadPhase
	graph      constraintGraph

	taskSystem   TaskSystem
	workerCount  int
	taskContexts []taskContext

	events Events

	// island chosen at the end of the last step to be split at the start of
	// the next one
	splitIslandID int

	ctx          constraint.StepContext
	stepIndex    uint64
	locked       bool
	destroyed    bool
	collideArray []*contactSim
	solver       solverContext

	gravity              geom.Vec2
	hitEventThreshold    float64
	restitutionThreshold float64
	maxLinearSpeed       float64
	contactPushVelocity  float64
	contactHertz         float64
	contactDampingRatio  float64
	jointHertz           float64
	jointDampingRatio    float64

	enableSleep        bool
	enableContinuous   bool
	enableWarmStarting bool
}

// NewWorld creates a world from def. It fails when def does not validate.
func NewWorld(def WorldDef) (*World, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	w := &World{
		logger:               def.Logger,
		debug:                def.Debug,
		splitIslandID:        nullIndex,
		gravity:              def.Gravity,
		hitEventThreshold:    def.HitEventThreshold,
		restitutionThreshold: def.RestitutionThreshold,
		maxLinearSpeed:       def.MaximumLinearSpeed,
		contactPushVelocity:  def.ContactPushVelocity,
		contactHertz:         def.ContactHertz,
		contactDampingRatio:  def.ContactDampingRatio,
		jointHertz:           def.JointHertz,
		jointDampingRatio:    def.JointDampingRatio,
		enableSleep:          def.EnableSleep,
		enableContinuous:     def.EnableContinuous,
		enableWarmStarting:   def.EnableWarmStarting,
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	w.workerCount = max(DEFAULT_WORKERS, def.WorkerCount)
	w.taskSystem = def.TaskSystem
	if w.taskSystem == nil {
		w.taskSystem = &goroutineTasks{workers: w.workerCount}
	}
	w.taskContexts = make([]taskContext, w.workerCount)

	w.broadPhase = newBroadPhase()
	w.graph = newConstraintGraph(16)
	w.events = newEvents()

	// static, disabled and awake sets always exist
	for range firstSleepingSet {
		w.createSolverSet()
	}

	w.logger.Debug("world created", "workers", w.workerCount, "gravity", w.gravity)
	return w, nil
}

// Destroy releases every object of the world. Ids referencing it become
// invalid and later calls on the world are rejected.
func (w *World) Destroy() {
	if !w.unlocked("Destroy") {
		return
	}

	w.bodies, w.shapes, w.chains = nil, nil, nil
	w.contacts, w.joints, w.islands = nil, nil, nil
	w.bodyPool, w.shapePool, w.chainPool = idpool.Pool{}, idpool.Pool{}, idpool.Pool{}
	w.contactPool, w.jointPool, w.islandPool = idpool.Pool{}, idpool.Pool{}, idpool.Pool{}
	w.solverSets, w.solverSetPool = nil, idpool.Pool{}
	w.broadPhase = newBroadPhase()
	w.graph = newConstraintGraph(0)
	w.events = newEvents()
	w.collideArray = nil
	w.solver = solverContext{}
	w.destroyed = true
}

// reject reports a precondition violation. Debug worlds panic, others log and
// carry on.
func (w *World) reject(op string, err error, attrs ...any) {
	if w.debug {
		panic(fmt.Sprintf("feather2d: %s: %v", op, err))
	}
	w.logger.Warn("operation rejected", append([]any{"op", op, "error", err}, attrs...)...)
}

// assert panics in debug worlds when cond is false.
func (w *World) assert(cond bool, msg string) {
	if !cond && w.debug {
		panic("feather2d: " + msg)
	}
}

// mutable returns why the world cannot be changed, nil when it can.
func (w *World) mutable() error {
	switch {
	case w.destroyed:
		return ErrWorldDestroyed
	case w.locked:
		return ErrWorldLocked
	}
	return nil
}

// unlocked reports whether structural changes are allowed and rejects op
// otherwise.
func (w *World) unlocked(op string) bool {
	if err := w.mutable(); err != nil {
		w.reject(op, err)
		return false
	}
	return true
}

// IsLocked reports whether the world is inside Step.
func (w *World) IsLocked() bool {
	return w.locked
}

func (w *World) tuning() constraint.Tuning {
	return constraint.Tuning{
		ContactHertz:         w.contactHertz,
		ContactDampingRatio:  w.contactDampingRatio,
		JointHertz:           w.jointHertz,
		JointDampingRatio:    w.jointDampingRatio,
		ContactPushVelocity:  w.contactPushVelocity,
		RestitutionThreshold: w.restitutionThreshold,
		EnableWarmStarting:   w.enableWarmStarting,
	}
}

// Step advances the world by dt seconds split in subStepCount sub-steps.
// Events of the previous step are discarded.
func (w *World) Step(dt float64, subStepCount int) {
	if !w.unlocked("Step") {
		return
	}

	w.events.beginStep()
	w.stepIndex++
	w.locked = true

	// Phase 1: Collision pair finding - Broad phase
	w.updateBroadPhasePairs()

	w.ctx.Configure(dt, subStepCount, w.tuning())

	// Phase 2: Narrow phase, updates touching flags and contact events
	w.collide()

	// Phase 3: Solver, islands and sleep
	if dt > 0 {
		w.solve()
	}

	w.locked = false

	// Phase 4: Listeners
	w.events.flush()
}

// Gravity is the acceleration applied to every dynamic body.
func (w *World) Gravity() geom.Vec2 {
	return w.gravity
}

func (w *World) SetGravity(gravity geom.Vec2) {
	if !w.unlocked("SetGravity") {
		return
	}
	if !geom.IsValidVec2(gravity) {
		w.reject("SetGravity", fmt.Errorf("invalid gravity %v", gravity))
		return
	}
	w.gravity = gravity
}

// EnableSleeping turns sleeping on or off. Turning it off wakes every
// sleeping island.
func (w *World) EnableSleeping(flag bool) {
	if !w.unlocked("EnableSleeping") || flag == w.enableSleep {
		return
	}
	w.enableSleep = flag

	if !flag {
		for i := firstSleepingSet; i < len(w.solverSets); i++ {
			if w.solverSets[i].setIndex != nullIndex {
				w.wakeSolverSet(i)
			}
		}
	}
}

func (w *World) IsSleepingEnabled() bool {
	return w.enableSleep
}

// EnableContinuous turns continuous collision of non bullet bodies on or off.
func (w *World) EnableContinuous(flag bool) {
	if !w.unlocked("EnableContinuous") {
		return
	}
	w.enableContinuous = flag
}

func (w *World) IsContinuousEnabled() bool {
	return w.enableContinuous
}

func (w *World) EnableWarmStarting(flag bool) {
	if !w.unlocked("EnableWarmStarting") {
		return
	}
	w.enableWarmStarting = flag
}

func (w *World) IsWarmStartingEnabled() bool {
	return w.enableWarmStarting
}

// SetContactTuning changes the contact stiffness and the maximum speed at
// which overlap is resolved.
func (w *World) SetContactTuning(hertz, dampingRatio, pushVelocity float64) {
	if !w.unlocked("SetContactTuning") {
		return
	}
	w.contactHertz = geom.Clamp(hertz, 0, 1e6)
	w.contactDampingRatio = geom.Clamp(dampingRatio, 0, 1e6)
	w.contactPushVelocity = geom.Clamp(pushVelocity, 0, 1e6)
}

func (w *World) SetJointTuning(hertz, dampingRatio float64) {
	if !w.unlocked("SetJointTuning") {
		return
	}
	w.jointHertz = geom.Clamp(hertz, 0, 1e6)
	w.jointDampingRatio = geom.Clamp(dampingRatio, 0, 1e6)
}

func (w *World) SetRestitutionThreshold(value float64) {
	if !w.unlocked("SetRestitutionThreshold") {
		return
	}
	w.restitutionThreshold = geom.Clamp(value, 0, geom.HugeNumber)
}

func (w *World) SetHitEventThreshold(value float64) {
	if !w.unlocked("SetHitEventThreshold") {
		return
	}
	w.hitEventThreshold = geom.Clamp(value, 0, geom.HugeNumber)
}

func (w *World) SetMaximumLinearSpeed(value float64) {
	if !w.unlocked("SetMaximumLinearSpeed") {
		return
	}
	if value <= 0 || !geom.IsValid(value) {
		w.reject("SetMaximumLinearSpeed", fmt.Errorf("invalid speed %v", value))
		return
	}
	w.maxLinearSpeed = value
}

// Counters is a snapshot of the world population.
type Counters struct {
	BodyCount        int
	AwakeBodyCount   int
	ShapeCount       int
	ContactCount     int
	JointCount       int
	IslandCount      int
	AwakeIslandCount int
	SleepingSetCount int
	StaticTreeHeight int
	TreeHeight       int
	PairCount        int
	ColorCounts      [graphColorCount + 1]int
}

func (w *World) Counters() Counters {
	c := Counters{
		BodyCount:        w.bodyPool.Count(),
		ShapeCount:       w.shapePool.Count(),
		ContactCount:     w.contactPool.Count(),
		JointCount:       w.jointPool.Count(),
		IslandCount:      w.islandPool.Count(),
		SleepingSetCount: max(0, w.solverSetPool.Count()-firstSleepingSet),
		StaticTreeHeight: w.broadPhase.trees[StaticBody].Height(),
		TreeHeight:       max(w.broadPhase.trees[KinematicBody].Height(), w.broadPhase.trees[DynamicBody].Height()),
		PairCount:        w.broadPhase.pairSet.Count(),
	}
	if len(w.solverSets) > awakeSet {
		awake := &w.solverSets[awakeSet]
		c.AwakeBodyCount = len(awake.bodySims)
		c.AwakeIslandCount = len(awake.islandSims)
	}
	for i := range w.graph.colors {
		color := &w.graph.colors[i]
		c.ColorCounts[i] = len(color.contactSims) + len(color.jointSims)
	}
	return c
}
