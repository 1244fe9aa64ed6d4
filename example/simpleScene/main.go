package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/akmonengine/collide"
	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/constraint"
	"github.com/akmonengine/collide/scene"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	scenePath  = flag.String("scene", "", "scene file (yaml), a plane and a tilted cube when empty")
	configPath = flag.String("config", "", "collision config file (yaml)")
	threads    = flag.Int("threads", 0, "worker threads, 0 keeps the config value")
	watch      = flag.Bool("watch", false, "run again whenever the scene or config file changes")
	verbose    = flag.Bool("v", false, "debug logging")
)

// SimpleDebugger prints what the pipeline found
type SimpleDebugger struct{}

func (d *SimpleDebugger) DebugPairs(system *collide.System) {
	bodies := system.Bodies()
	pairs := system.GetOverlappingPairs()
	fmt.Printf("Broad phase: %d pairs, region %v .. %v\n", len(pairs), system.GetBoundingBox().Min, system.GetBoundingBox().Max)
	for _, p := range pairs {
		fmt.Printf("   shapes %d, %d\n", p.A, p.B)
	}
	fmt.Printf("Bodies: %d\n", len(bodies))
}

func (d *SimpleDebugger) DebugManifolds(manifolds []constraint.ContactConstraint) {
	fmt.Printf("Narrow phase: %d manifolds\n", len(manifolds))
	for _, m := range manifolds {
		fmt.Printf("   %v <-> %v normal=%v points=%d deepest=%.6f\n",
			name(m.BodyA), name(m.BodyB), m.Normal, len(m.Points), m.Deepest())
	}
}

func (d *SimpleDebugger) DebugContacts(container *constraint.Container) {
	fmt.Printf("Contacts: %d\n", len(container.Contacts))
	for i, c := range container.Contacts {
		fmt.Printf("   %d: %v/%d <-> %v/%d point=%v penetration=%.6f\n",
			i, name(c.ModelA.Body), c.ShapeA, name(c.ModelB.Body), c.ShapeB, c.Point(), c.Penetration())
	}
	if len(container.ParticleContacts) > 0 {
		fmt.Printf("Particle contacts: %d\n", len(container.ParticleContacts))
		for _, c := range container.ParticleContacts {
			fmt.Printf("   particle %d <-> %v/%d depth=%.6f\n", c.Particle, name(c.Model.Body), c.Shape, c.Depth)
		}
	}
}

func name(body *actor.RigidBody) any {
	if body.Id != nil {
		return body.Id
	}
	return fmt.Sprintf("%p", body)
}

// defaultScene is a ground plane and a tilted cube touching it
func defaultScene() ([]*actor.Model, []mgl64.Vec3, float64) {
	plane := actor.NewRigidBody(actor.NewTransform(), actor.BodyTypeStatic)
	plane.Id = "ground"
	ground := actor.NewModel(plane).AddShape(&actor.Plane{Normal: mgl64.Vec3{0, 1, 0}}, actor.NewTransform())

	cube := actor.NewRigidBody(actor.Transform{
		Position: mgl64.Vec3{-5.0, 1.25, -5.0},
		Rotation: mgl64.QuatRotate(mgl64.DegToRad(20), mgl64.Vec3{0, 0, 1}),
	}, actor.BodyTypeDynamic)
	cube.Id = "cube"
	box := actor.NewModel(cube).AddBox(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{})

	return []*actor.Model{ground, box}, nil, 0
}

func load(logger *slog.Logger) (*collide.System, error) {
	config := collide.DefaultConfig()
	if *configPath != "" {
		loaded, err := collide.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if *threads > 0 {
		config.Threads = *threads
	}
	config.Logger = logger

	models, particles, radius := defaultScene()
	if *scenePath != "" {
		sc, err := scene.Load(*scenePath)
		if err != nil {
			return nil, err
		}
		if models, err = sc.Models(); err != nil {
			return nil, err
		}
		particles, radius = sc.ParticlePositions()
	}

	system, err := collide.NewSystem(config)
	if err != nil {
		return nil, err
	}
	for _, model := range models {
		if err := system.Add(model); err != nil {
			return nil, err
		}
	}
	system.SetParticles(particles, radius)

	system.Subscribe(collide.COLLISION_ENTER, func(event collide.Event) {
		e := event.(collide.CollisionEnterEvent)
		logger.Info("collision enter", "a", name(e.BodyA), "b", name(e.BodyB))
	})
	system.Subscribe(collide.TRIGGER_ENTER, func(event collide.Event) {
		e := event.(collide.TriggerEnterEvent)
		logger.Info("trigger enter", "a", name(e.BodyA), "b", name(e.BodyB))
	})

	return system, nil
}

func step(logger *slog.Logger, debugger *SimpleDebugger) error {
	system, err := load(logger)
	if err != nil {
		return err
	}

	system.Run()

	container := &constraint.Container{}
	system.ReportContacts(container)
	system.ReportParticleContacts(container)

	debugger.DebugPairs(system)
	debugger.DebugManifolds(system.Manifolds())
	debugger.DebugContacts(container)
	fmt.Printf("Timers: broad %.6fs narrow %.6fs (%d threads)\n",
		system.GetTimerCollisionBroad(), system.GetTimerCollisionNarrow(), system.NumThreads())
	return nil
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	debugger := &SimpleDebugger{}

	if err := step(logger, debugger); err != nil {
		logger.Error("run failed", "err", err)
		if !*watch {
			os.Exit(1)
		}
	}
	if !*watch {
		return
	}

	var files []string
	for _, f := range []string{*scenePath, *configPath} {
		if f != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		logger.Error("nothing to watch, pass -scene or -config")
		os.Exit(1)
	}

	watcher, err := scene.NewWatcher(files...)
	if err != nil {
		logger.Error("watch failed", "err", err)
		os.Exit(1)
	}
	defer watcher.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	logger.Info("watching", "files", files)
	for {
		select {
		case file, ok := <-watcher.Events:
			if !ok {
				return
			}
			logger.Info("reloading", "file", file)
			if err := step(logger, debugger); err != nil {
				logger.Error("run failed", "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", "err", err)
		case <-interrupt:
			return
		}
	}
}
