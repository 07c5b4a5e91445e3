package feather2d

import (
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/akmonengine/feather2d/internal/bitset"
)

const (
	// timeToSleep is how long a body must rest before its island may sleep.
	timeToSleep = 0.5

	// maxRotation bounds the rotation of a body in one sub-step.
	maxRotation = 0.25 * geom.Pi

	// block sizes of the solver stages
	bodyBlockSize       = 64
	constraintBlockSize = 16
)

type stageKind uint8

const (
	stagePrepareJoints stageKind = iota
	stagePrepareContacts
	stageIntegrateVelocities
	stageWarmStart
	stageSolve
	stageIntegratePositions
	stageRelax
	stageRestitution
	stageStoreImpulses
)

func (k stageKind) String() string {
	switch k {
	case stagePrepareJoints:
		return "prepareJoints"
	case stagePrepareContacts:
		return "prepareContacts"
	case stageIntegrateVelocities:
		return "integrateVelocities"
	case stageWarmStart:
		return "warmStart"
	case stageSolve:
		return "solve"
	case stageIntegratePositions:
		return "integratePositions"
	case stageRelax:
		return "relax"
	case stageRestitution:
		return "restitution"
	case stageStoreImpulses:
		return "storeImpulses"
	}
	return "unknown"
}

// taskContext is the scratch space of one worker. Workers write only to
// their own context and the results are merged serially.
type taskContext struct {
	// contacts whose touching state changed during collide
	contactStateBitSet bitset.BitSet
	// awake bodies with at least one enlarged proxy
	enlargedSimBitSet bitset.BitSet
	// awake islands holding a body that is not ready to sleep
	awakeIslandBitSet bitset.BitSet

	// sleepiest island that needs splitting before it can sleep
	splitIslandID  int
	splitSleepTime float64
}

// contactRef pairs a colored contact with its solver constraint.
type contactRef struct {
	sim        *contactSim
	constraint *constraint.ContactConstraint
}

// solverContext holds the per step views over the constraint graph.
type solverContext struct {
	stages []solverStage

	joints   []*jointSim
	contacts []contactRef
	bullets  []int

	activeColors []int
}

// stage indices inside solverContext.stages
type stageLayout struct {
	integrateVelocities int
	warmStart           int
	solve               int
	integratePositions  int
	relax               int
	restitution         int
	storeImpulses       int
}

// solve advances the awake set: constraints are solved with sub-stepping
// over the colored graph, then bodies are finalized, fast bodies swept and
// quiet islands put to sleep.
func (w *World) solve() {
	w.mergeAwakeIslands()

	// the island picked by the last step is split before anything reads the
	// island lists
	if w.splitIslandID != nullIndex {
		w.splitIsland(w.splitIslandID)
		w.splitIslandID = nullIndex
	}

	awake := &w.solverSets[awakeSet]
	if len(awake.bodySims) == 0 {
		return
	}
	w.ctx.States = awake.bodyStates

	layout := w.buildStages()
	w.solveConstraints(layout)
	w.reportHitEvents()

	w.finalizeBodies()
	w.solveBullets()
	w.enlargeProxies()
	w.broadPhase.rebuildTrees()

	if w.enableSleep {
		w.sleepIslands()
	}
}

// buildStages gathers the constraints of the graph and splits every stage in
// blocks for the workers.
func (w *World) buildStages() stageLayout {
	s := &w.solver
	awake := &w.solverSets[awakeSet]
	workerCount := w.workerCount

	s.joints = s.joints[:0]
	s.contacts = s.contacts[:0]
	s.activeColors = s.activeColors[:0]

	for i := range w.graph.colors {
		color := &w.graph.colors[i]
		for j := range color.jointSims {
			s.joints = append(s.joints, &color.jointSims[j])
		}

		color.contactConstraints = resize(color.contactConstraints, len(color.contactSims))
		for j := range color.contactSims {
			s.contacts = append(s.contacts, contactRef{sim: &color.contactSims[j], constraint: &color.contactConstraints[j]})
		}

		if i != overflowIndex && (len(color.contactSims) > 0 || len(color.jointSims) > 0) {
			s.activeColors = append(s.activeColors, i)
		}
	}

	colorCount := len(s.activeColors)
	stageCount := 4 + 4*colorCount + 1
	if cap(s.stages) < stageCount {
		s.stages = make([]solverStage, stageCount)
	}
	s.stages = s.stages[:stageCount]

	index := 0
	addStage := func(kind stageKind, colorIndex int, blocks []solverBlock) int {
		stage := &s.stages[index]
		stage.kind = kind
		stage.colorIndex = colorIndex
		stage.blocks = blocks
		index++
		return index - 1
	}
	colorBlocks := func(stage *solverStage, colorIndex int) []solverBlock {
		color := &w.graph.colors[colorIndex]
		blocks := appendBlocks(stage.blocks[:0], len(color.jointSims), workerCount, constraintBlockSize, jointBlock)
		return appendBlocks(blocks, len(color.contactSims), workerCount, constraintBlockSize, contactBlock)
	}

	var layout stageLayout
	addStage(stagePrepareJoints, nullIndex, appendBlocks(s.stages[index].blocks[:0], len(s.joints), workerCount, constraintBlockSize, jointBlock))
	addStage(stagePrepareContacts, nullIndex, appendBlocks(s.stages[index].blocks[:0], len(s.contacts), workerCount, constraintBlockSize, contactBlock))
	layout.integrateVelocities = addStage(stageIntegrateVelocities, nullIndex, appendBlocks(s.stages[index].blocks[:0], len(awake.bodySims), workerCount, bodyBlockSize, bodyBlock))

	layout.warmStart = index
	for _, c := range s.activeColors {
		addStage(stageWarmStart, c, colorBlocks(&s.stages[index], c))
	}
	layout.solve = index
	for _, c := range s.activeColors {
		addStage(stageSolve, c, colorBlocks(&s.stages[index], c))
	}
	layout.integratePositions = addStage(stageIntegratePositions, nullIndex, appendBlocks(s.stages[index].blocks[:0], len(awake.bodySims), workerCount, bodyBlockSize, bodyBlock))
	layout.relax = index
	for _, c := range s.activeColors {
		addStage(stageRelax, c, colorBlocks(&s.stages[index], c))
	}
	layout.restitution = index
	for _, c := range s.activeColors {
		color := &w.graph.colors[c]
		addStage(stageRestitution, c, appendBlocks(s.stages[index].blocks[:0], len(color.contactSims), workerCount, constraintBlockSize, contactBlock))
	}
	layout.storeImpulses = addStage(stageStoreImpulses, nullIndex, appendBlocks(s.stages[index].blocks[:0], len(s.contacts), workerCount, constraintBlockSize, contactBlock))

	return layout
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

// solveConstraints runs the sub-stepping loop. Colors are solved one after
// the other with their blocks spread over the workers, the overflow
// constraints are solved serially after the colors.
func (w *World) solveConstraints(layout stageLayout) {
	s := &w.solver
	ts := w.taskSystem
	colorCount := len(s.activeColors)
	exec := w.executeBlock

	runStage := func(index int) {
		stage := &s.stages[index]
		stage.run(ts, exec)
		w.assert(stage.done(), "solver stage returned with unfinished blocks")
	}

	runStage(0)
	runStage(1)

	runColors := func(first int) {
		for i := range colorCount {
			runStage(first + i)
		}
	}

	for range w.ctx.SubStepCount {
		runStage(layout.integrateVelocities)

		if w.enableWarmStarting {
			runColors(layout.warmStart)
			w.warmStartOverflow()
		}

		runColors(layout.solve)
		w.solveOverflow(true)

		runStage(layout.integratePositions)

		runColors(layout.relax)
		w.solveOverflow(false)
	}

	runColors(layout.restitution)
	w.applyOverflowRestitution()

	runStage(layout.storeImpulses)
}

// executeBlock runs one block of a stage. Blocks of a color never share a
// body so they may run concurrently.
func (w *World) executeBlock(stage *solverStage, block *solverBlock, workerIndex int) {
	start, end := block.start, block.start+block.count
	ctx := &w.ctx

	switch stage.kind {
	case stagePrepareJoints:
		for _, sim := range w.solver.joints[start:end] {
			w.prepareJoint(sim)
		}

	case stagePrepareContacts:
		for _, ref := range w.solver.contacts[start:end] {
			prepareContact(ref.sim, ref.constraint, ctx)
		}

	case stageIntegrateVelocities:
		w.integrateVelocities(start, end)

	case stageIntegratePositions:
		integratePositions(ctx, start, end)

	case stageWarmStart, stageSolve, stageRelax:
		color := &w.graph.colors[stage.colorIndex]
		if block.kind == jointBlock {
			for i := start; i < end; i++ {
				j := &color.jointSims[i].JointSim
				switch stage.kind {
				case stageWarmStart:
					constraint.WarmStartJoint(j, ctx)
				case stageSolve:
					constraint.SolveJoint(j, ctx, true)
				default:
					constraint.SolveJoint(j, ctx, false)
				}
			}
			return
		}
		for i := start; i < end; i++ {
			c := &color.contactConstraints[i]
			switch stage.kind {
			case stageWarmStart:
				constraint.WarmStartContact(c, ctx)
			case stageSolve:
				constraint.SolveContact(c, ctx, true)
			default:
				constraint.SolveContact(c, ctx, false)
			}
		}

	case stageRestitution:
		color := &w.graph.colors[stage.colorIndex]
		for i := start; i < end; i++ {
			constraint.ApplyContactRestitution(&color.contactConstraints[i], ctx)
		}

	case stageStoreImpulses:
		for _, ref := range w.solver.contacts[start:end] {
			constraint.StoreContactImpulses(ref.constraint)
		}
	}
}

func prepareContact(sim *contactSim, c *constraint.ContactConstraint, ctx *constraint.StepContext) {
	constraint.PrepareContact(c, &constraint.ContactInput{
		Manifold:     &sim.manifold,
		IndexA:       sim.bodySimIndexA,
		IndexB:       sim.bodySimIndexB,
		InvMassA:     sim.invMassA,
		InvIA:        sim.invIA,
		InvMassB:     sim.invMassB,
		InvIB:        sim.invIB,
		Friction:     sim.friction,
		Restitution:  sim.restitution,
		TangentSpeed: sim.tangentSpeed,
	}, ctx)
}

func (w *World) jointBody(bodyID int) constraint.JointBody {
	b := &w.bodies[bodyID]
	sim := w.bodySim(b)
	index := constraint.NullIndex
	if b.setIndex == awakeSet {
		index = b.localIndex
	}
	return constraint.JointBody{
		Index:       index,
		InvMass:     sim.invMass,
		InvInertia:  sim.invInertia,
		Transform:   sim.transform,
		Center:      sim.center,
		LocalCenter: sim.localCenter,
	}
}

func (w *World) prepareJoint(sim *jointSim) {
	a := w.jointBody(sim.bodyIDA)
	b := w.jointBody(sim.bodyIDB)
	constraint.PrepareJoint(&sim.JointSim, &a, &b, &w.ctx)
}

func (w *World) warmStartOverflow() {
	color := &w.graph.colors[overflowIndex]
	for i := range color.jointSims {
		constraint.WarmStartJoint(&color.jointSims[i].JointSim, &w.ctx)
	}
	for i := range color.contactConstraints {
		constraint.WarmStartContact(&color.contactConstraints[i], &w.ctx)
	}
}

func (w *World) solveOverflow(useBias bool) {
	color := &w.graph.colors[overflowIndex]
	for i := range color.jointSims {
		constraint.SolveJoint(&color.jointSims[i].JointSim, &w.ctx, useBias)
	}
	for i := range color.contactConstraints {
		constraint.SolveContact(&color.contactConstraints[i], &w.ctx, useBias)
	}
}

func (w *World) applyOverflowRestitution() {
	color := &w.graph.colors[overflowIndex]
	for i := range color.contactConstraints {
		constraint.ApplyContactRestitution(&color.contactConstraints[i], &w.ctx)
	}
}

// integrateVelocities applies gravity, forces and damping, then clamps the
// speeds. Damping uses the Pade approximation of exp(-c*h).
func (w *World) integrateVelocities(start, end int) {
	awake := &w.solverSets[awakeSet]
	h := w.ctx.H
	gravity := w.gravity
	maxLinearSpeed := w.maxLinearSpeed
	maxAngularSpeed := maxRotation * w.ctx.InvDt

	for i := start; i < end; i++ {
		sim := &awake.bodySims[i]
		state := &awake.bodyStates[i]

		v := state.LinearVelocity
		av := state.AngularVelocity

		linearDamping := 1 / (1 + h*sim.linearDamping)
		angularDamping := 1 / (1 + h*sim.angularDamping)

		var dv geom.Vec2
		if sim.invMass > 0 {
			dv = sim.force.Mul(sim.invMass).Add(gravity.Mul(sim.gravityScale)).Mul(h)
		}
		dw := h * sim.invInertia * sim.torque

		v = dv.Add(v.Mul(linearDamping))
		av = dw + angularDamping*av

		if v.Dot(v) > maxLinearSpeed*maxLinearSpeed {
			v = v.Mul(maxLinearSpeed / v.Len())
		}
		if av*av > maxAngularSpeed*maxAngularSpeed {
			av *= maxAngularSpeed / abs(av)
		}

		state.LinearVelocity = v
		state.AngularVelocity = av
	}
}

func integratePositions(ctx *constraint.StepContext, start, end int) {
	h := ctx.H
	for i := start; i < end; i++ {
		state := &ctx.States[i]
		state.DeltaRotation = geom.IntegrateRotation(state.DeltaRotation, h*state.AngularVelocity)
		state.DeltaPosition = state.DeltaPosition.Add(state.LinearVelocity.Mul(h))
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// reportHitEvents reports the fastest approaching point of every touching
// contact with hit events enabled. Speculative points never hit.
func (w *World) reportHitEvents() {
	threshold := w.hitEventThreshold
	for i := range w.graph.colors {
		color := &w.graph.colors[i]
		for j := range color.contactSims {
			sim := &color.contactSims[j]
			if sim.simFlags&simEnableHitEvent == 0 {
				continue
			}

			event := ContactHitEvent{ApproachSpeed: threshold}
			hit := false
			for k := range sim.manifold.PointCount {
				mp := &sim.manifold.Points[k]
				approachSpeed := -mp.NormalVelocity
				if approachSpeed > event.ApproachSpeed && mp.MaxNormalImpulse > 0 {
					event.ApproachSpeed = approachSpeed
					event.Point = mp.Point
					hit = true
				}
			}
			if !hit {
				continue
			}

			event.Normal = sim.manifold.Normal
			event.ShapeIDA = w.makeShapeID(&w.shapes[sim.shapeIDA])
			event.ShapeIDB = w.makeShapeID(&w.shapes[sim.shapeIDB])
			w.events.contactHit = append(w.events.contactHit, event)
		}
	}
}

// finalizeBodies applies the sub-step deltas, writes the move events,
// updates the sleep timers and refreshes the shape bounds. Fast non bullet
// bodies are swept against static geometry right away; bullets wait until
// every other body is final.
func (w *World) finalizeBodies() {
	awake := &w.solverSets[awakeSet]
	bodyCount := len(awake.bodySims)
	islandCount := len(awake.islandSims)

	w.events.bodyMoves = resize(w.events.bodyMoves, bodyCount)
	for i := range w.taskContexts {
		tc := &w.taskContexts[i]
		tc.enlargedSimBitSet.SetBitCountAndClear(bodyCount)
		tc.awakeIslandBitSet.SetBitCountAndClear(islandCount)
		tc.splitIslandID = nullIndex
		tc.splitSleepTime = 0
	}

	parallelFor(w.taskSystem, bodyCount, bodyBlockSize, func(start, end, workerIndex int) {
		tc := &w.taskContexts[workerIndex]
		for i := start; i < end; i++ {
			w.finalizeBody(i, tc)
		}
	})
}

func (w *World) finalizeBody(simIndex int, tc *taskContext) {
	awake := &w.solverSets[awakeSet]
	sim := &awake.bodySims[simIndex]
	state := &awake.bodyStates[simIndex]
	dt := w.ctx.Dt

	v := state.LinearVelocity
	av := state.AngularVelocity

	sim.center = sim.center.Add(state.DeltaPosition)
	sim.transform.Q = geom.NormalizeRot(geom.MulRot(state.DeltaRotation, sim.transform.Q))

	// the farthest point of the body bounds its speed
	maxVelocity := v.Len() + abs(av)*sim.maxExtent

	// position correction may be what keeps a body moving
	maxDeltaPosition := state.DeltaPosition.Len() + abs(state.DeltaRotation.S)*sim.maxExtent
	const positionSleepFactor = 0.5
	sleepVelocity := max(maxVelocity, positionSleepFactor*w.ctx.InvDt*maxDeltaPosition)

	state.DeltaPosition = geom.Zero
	state.DeltaRotation = geom.RotIdentity

	sim.transform.P = sim.center.Sub(geom.RotateVector(sim.transform.Q, sim.localCenter))

	b := &w.bodies[sim.bodyID]
	b.bodyMoveIndex = simIndex
	w.events.bodyMoves[simIndex] = BodyMoveEvent{
		Transform: sim.transform,
		BodyID:    w.makeBodyID(b),
		UserData:  b.userData,
	}

	sim.force = geom.Zero
	sim.torque = 0
	sim.isFast = false

	if !w.enableSleep || !b.enableSleep || sleepVelocity > b.sleepThreshold {
		b.sleepTime = 0

		const safetyFactor = 0.5
		if b.typ == DynamicBody && (w.enableContinuous || sim.isBullet) && maxVelocity*dt > safetyFactor*sim.minExtent {
			sim.isFast = true
			if !sim.isBullet {
				w.solveContinuous(simIndex)
			}
		} else {
			sim.center0 = sim.center
			sim.rotation0 = sim.transform.Q
		}
	} else {
		sim.center0 = sim.center
		sim.rotation0 = sim.transform.Q
		b.sleepTime += dt
	}

	// one restless body keeps the whole island awake
	if b.islandID != nullIndex {
		isl := &w.islands[b.islandID]
		if b.sleepTime < timeToSleep {
			tc.awakeIslandBitSet.Set(isl.localIndex)
		} else if isl.constraintRemoveCount > 0 && b.sleepTime > tc.splitSleepTime {
			tc.splitIslandID = b.islandID
			tc.splitSleepTime = b.sleepTime
		}
	}

	enlargeAABB := false
	transform := sim.transform
	shapeID := b.headShapeID
	for shapeID != nullIndex {
		s := &w.shapes[shapeID]
		shapeID = s.nextShapeID

		if sim.isFast {
			// bounds were set by the sweep or will be by the bullet pass
			enlargeAABB = true
			continue
		}

		s.aabb = s.geometry.ComputeAABB(transform).Fatten(geom.SpeculativeDistance)
		if !s.fatAABB.Contains(s.aabb) {
			s.fatAABB = s.aabb.Fatten(geom.AABBMargin)
			s.enlargedAABB = true
			enlargeAABB = true
		}
	}

	if enlargeAABB {
		sim.enlargeAABB = true
		tc.enlargedSimBitSet.Set(simIndex)
	}
}

// continuousQuery sweeps the shapes of one fast body and keeps the earliest
// time of impact.
type continuousQuery struct {
	w         *World
	sim       *bodySim
	sweep     gjk.Sweep
	shape     *shape
	centroid1 geom.Vec2
	centroid2 geom.Vec2
	fraction  float64
}

func makeSweep(sim *bodySim) gjk.Sweep {
	return gjk.Sweep{
		LocalCenter: sim.localCenter,
		C1:          sim.center0,
		C2:          sim.center,
		Q1:          sim.rotation0,
		Q2:          sim.transform.Q,
	}
}

// solveContinuous moves a fast body back to its first time of impact
// against static shapes, and for bullets against non bullet bodies too.
func (w *World) solveContinuous(simIndex int) {
	awake := &w.solverSets[awakeSet]
	sim := &awake.bodySims[simIndex]
	b := &w.bodies[sim.bodyID]

	sweep := makeSweep(sim)
	xf1 := geom.Transform{Q: sweep.Q1, P: sweep.C1.Sub(geom.RotateVector(sweep.Q1, sweep.LocalCenter))}
	xf2 := geom.Transform{Q: sweep.Q2, P: sweep.C2.Sub(geom.RotateVector(sweep.Q2, sweep.LocalCenter))}

	query := continuousQuery{w: w, sim: sim, sweep: sweep, fraction: 1}
	trees := &w.broadPhase.trees

	shapeID := b.headShapeID
	for shapeID != nullIndex {
		s := &w.shapes[shapeID]
		shapeID = s.nextShapeID

		query.shape = s
		query.centroid1 = geom.TransformPoint(xf1, s.geometry.Centroid())
		query.centroid2 = geom.TransformPoint(xf2, s.geometry.Centroid())

		box1 := s.aabb
		box2 := s.geometry.ComputeAABB(xf2)
		box := box1.Union(box2)

		// kept when there is no impact
		s.aabb = box2

		if s.isSensor {
			continue
		}

		trees[StaticBody].Query(box, DefaultMaskBits, query.visit)
		if sim.isBullet {
			trees[KinematicBody].Query(box, DefaultMaskBits, query.visit)
			trees[DynamicBody].Query(box, DefaultMaskBits, query.visit)
		}
	}

	var transform geom.Transform
	if query.fraction < 1 {
		q := geom.NLerp(sweep.Q1, sweep.Q2, query.fraction)
		c := geom.Lerp(sweep.C1, sweep.C2, query.fraction)
		transform = geom.Transform{P: c.Sub(geom.RotateVector(q, sweep.LocalCenter)), Q: q}

		sim.transform = transform
		sim.center = c
		sim.rotation0 = q
		sim.center0 = c
	} else {
		sim.rotation0 = sim.transform.Q
		sim.center0 = sim.center
	}

	shapeID = b.headShapeID
	for shapeID != nullIndex {
		s := &w.shapes[shapeID]
		shapeID = s.nextShapeID

		if query.fraction < 1 {
			s.aabb = s.geometry.ComputeAABB(transform).Fatten(geom.SpeculativeDistance)
		}
		if !s.fatAABB.Contains(s.aabb) {
			s.fatAABB = s.aabb.Fatten(geom.AABBMargin)
			s.enlargedAABB = true
			sim.enlargeAABB = true
		}
	}
}

func (q *continuousQuery) visit(_ int, shapeID int) bool {
	w := q.w
	fast := q.shape
	if shapeID == fast.id {
		return true
	}

	s := &w.shapes[shapeID]
	if s.bodyID == fast.bodyID || s.isSensor || !shouldShapesCollide(fast.filter, s.filter) {
		return true
	}

	other := &w.bodies[s.bodyID]
	otherSim := w.bodySim(other)
	if otherSim.isBullet {
		return true
	}
	if !w.shouldBodiesCollide(&w.bodies[fast.bodyID], other) {
		return true
	}

	// a chain segment only stops bodies crossing it from the front
	if s.geometry.Type == geom.ChainSegmentShape {
		xf := otherSim.transform
		p1 := geom.TransformPoint(xf, s.geometry.ChainSegment.Segment.Point1)
		p2 := geom.TransformPoint(xf, s.geometry.ChainSegment.Segment.Point2)
		e := p2.Sub(p1)
		offset1 := geom.Cross(q.centroid1.Sub(p1), e)
		offset2 := geom.Cross(q.centroid2.Sub(p1), e)
		if offset1 < 0 || offset2 > 0 {
			return true
		}
	}

	input := gjk.TOIInput{
		ProxyA:      gjk.MakeShapeProxy(&s.geometry),
		ProxyB:      gjk.MakeShapeProxy(&fast.geometry),
		SweepA:      makeSweep(otherSim),
		SweepB:      q.sweep,
		MaxFraction: q.fraction,
	}

	output := gjk.TimeOfImpact(&input)
	if 0 < output.Fraction && output.Fraction < q.fraction {
		q.fraction = output.Fraction
		return true
	}

	if output.Fraction == 0 {
		// initially overlapping: retry with a small core around the centroid
		centroid := fast.geometry.Centroid()
		minExtent, _ := fast.geometry.Extent(centroid)
		input.ProxyB = gjk.MakeProxy([]geom.Vec2{centroid}, 0.25*minExtent)
		output = gjk.TimeOfImpact(&input)
		if 0 < output.Fraction && output.Fraction < q.fraction {
			q.fraction = output.Fraction
		}
	}
	return true
}

// solveBullets sweeps fast bullets once every other body is final. The
// bullet list is gathered in body order so the result does not depend on
// the worker count.
func (w *World) solveBullets() {
	awake := &w.solverSets[awakeSet]
	s := &w.solver
	s.bullets = s.bullets[:0]
	for i := range awake.bodySims {
		sim := &awake.bodySims[i]
		if sim.isBullet && sim.isFast {
			s.bullets = append(s.bullets, i)
		}
	}

	task(w.taskSystem, s.bullets, 4, func(simIndex *int, _ int) {
		w.solveContinuous(*simIndex)
	})
}

// enlargeProxies pushes the grown bounds to the broad phase in body order,
// which keeps the move buffer deterministic.
func (w *World) enlargeProxies() {
	enlarged := &w.taskContexts[0].enlargedSimBitSet
	for i := 1; i < len(w.taskContexts); i++ {
		enlarged.InPlaceUnion(&w.taskContexts[i].enlargedSimBitSet)
	}

	awake := &w.solverSets[awakeSet]
	enlarged.ForEach(func(simIndex int) {
		sim := &awake.bodySims[simIndex]
		if !sim.enlargeAABB {
			return
		}
		sim.enlargeAABB = false

		b := &w.bodies[sim.bodyID]
		shapeID := b.headShapeID
		for shapeID != nullIndex {
			s := &w.shapes[shapeID]
			shapeID = s.nextShapeID
			if !s.enlargedAABB {
				continue
			}
			w.broadPhase.enlargeProxy(s.proxyKey, s.fatAABB)
			s.enlargedAABB = false
		}
	})
}

// sleepIslands picks the island to split next step and puts to sleep every
// awake island whose bodies all rested long enough.
func (w *World) sleepIslands() {
	splitSleepTime := 0.0
	for i := range w.taskContexts {
		tc := &w.taskContexts[i]
		if tc.splitIslandID == nullIndex {
			continue
		}
		// ties go to the lowest island id
		if tc.splitSleepTime > splitSleepTime || (tc.splitSleepTime == splitSleepTime && tc.splitIslandID < w.splitIslandID) {
			w.splitIslandID = tc.splitIslandID
			splitSleepTime = tc.splitSleepTime
		}
	}

	awakeIslands := &w.taskContexts[0].awakeIslandBitSet
	for i := 1; i < len(w.taskContexts); i++ {
		awakeIslands.InPlaceUnion(&w.taskContexts[i].awakeIslandBitSet)
	}

	// reverse order since sleeping swaps the last island into the slot
	awake := &w.solverSets[awakeSet]
	for islandIndex := len(awake.islandSims) - 1; islandIndex >= 0; islandIndex-- {
		if awakeIslands.Get(islandIndex) {
			continue
		}
		islandID := awake.islandSims[islandIndex].islandID
		w.trySleepIsland(islandID)
		awake = &w.solverSets[awakeSet]
	}
}
