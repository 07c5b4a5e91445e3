package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/akmonengine/feather2d"
	"github.com/akmonengine/feather2d/geom"
	"github.com/akmonengine/feather2d/internal/scene"
)

// SetupScene creates a ground box and a tilted crate falling on it.
func SetupScene(logger *slog.Logger) (*feather2d.World, feather2d.BodyID, error) {
	def := feather2d.DefaultWorldDef()
	def.Logger = logger
	world, err := feather2d.NewWorld(def)
	if err != nil {
		return nil, feather2d.BodyID{}, err
	}

	ground := world.CreateBody(feather2d.DefaultBodyDef())
	world.CreatePolygonShape(ground, feather2d.DefaultShapeDef(), geom.MakeOffsetBox(20, 1, geom.Vec2{0, -1}, geom.RotIdentity))

	bodyDef := feather2d.DefaultBodyDef()
	bodyDef.Type = feather2d.DynamicBody
	bodyDef.Position = geom.Vec2{-5, 5}
	bodyDef.Rotation = geom.MakeRot(0.4)
	crate := world.CreateBody(bodyDef)

	shapeDef := feather2d.DefaultShapeDef()
	shapeDef.Restitution = 0.8
	shapeDef.EnableHitEvents = true
	world.CreatePolygonShape(crate, shapeDef, geom.MakeBox(1.5, 1.5))

	return world, crate, nil
}

func main() {
	scenePath := flag.String("scene", "", "YAML scene to simulate instead of the falling crate")
	steps := flag.Int("steps", 200, "number of steps")
	subSteps := flag.Int("substeps", 4, "sub-steps per step")
	verbose := flag.Bool("v", false, "log every body move")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var world *feather2d.World
	if *scenePath != "" {
		f, err := scene.LoadFile(*scenePath)
		if err != nil {
			logger.Error("load scene", "error", err)
			os.Exit(1)
		}
		s, err := f.Build(logger)
		if err != nil {
			logger.Error("build scene", "error", err)
			os.Exit(1)
		}
		world = s.World
	} else {
		w, crate, err := SetupScene(logger)
		if err != nil {
			logger.Error("setup scene", "error", err)
			os.Exit(1)
		}
		world = w
		logger.Info("initial state", "position", crate.Position(), "angle", crate.Rotation().Angle(), "gravity", world.Gravity())
	}

	step := 0
	world.Subscribe(feather2d.CONTACT_BEGIN, func(event feather2d.Event) {
		e := event.(feather2d.ContactBeginTouchEvent)
		logger.Info("contact begin", "step", step, "points", e.Manifold.PointCount, "normal", e.Manifold.Normal)
	})
	world.Subscribe(feather2d.CONTACT_HIT, func(event feather2d.Event) {
		e := event.(feather2d.ContactHitEvent)
		logger.Info("hit", "step", step, "point", e.Point, "speed", fmt.Sprintf("%.3f", e.ApproachSpeed))
	})
	world.Subscribe(feather2d.BODY_MOVE, func(event feather2d.Event) {
		e := event.(feather2d.BodyMoveEvent)
		if e.FellAsleep {
			logger.Info("body fell asleep", "step", step, "position", e.Transform.P)
		} else if *verbose {
			logger.Debug("body moved", "step", step, "position", e.Transform.P, "angle", e.Transform.Q.Angle())
		}
	})

	const dt float64 = 1.0 / 60.0
	for step = 0; step < *steps; step++ {
		world.Step(dt, *subSteps)
	}

	counters := world.Counters()
	logger.Info("done", "steps", *steps, "bodies", counters.BodyCount, "awake", counters.AwakeBodyCount, "contacts", counters.ContactCount)
}
