// Command sandbox runs a scene file headless and logs what happens in it.
//
//	sandbox run --scene scenes/drop.toml --ticks 600 --print-every 60
//	sandbox validate scenes/stack.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/akmonengine/xpbd"
	"github.com/akmonengine/xpbd/actor"
	"github.com/akmonengine/xpbd/scene"
	"github.com/akmonengine/xpbd/visual"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sandbox",
		Short:         "Run and check physics scenes",
		SilenceUsage:  true,
	}
	root.AddCommand(newRunCmd(), newValidateCmd())
	return root
}

type runOptions struct {
	scene      string
	ticks      int
	printEvery int
	logLevel   string
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Step a scene and log body states and collision events",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts.logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return run(logger, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.scene, "scene", "", "scene file (.toml, .yaml, .yml)")
	flags.IntVar(&opts.ticks, "ticks", 600, "number of ticks to simulate")
	flags.IntVar(&opts.printEvery, "print-every", 60, "log body states every n ticks, 0 disables")
	flags.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	_ = cmd.MarkFlagRequired("scene")

	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scene>...",
		Short: "Check that scene files load and build",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				s, err := scene.Load(path)
				if err == nil {
					_, _, err = s.Build()
				}
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d bodies, %d joints)\n", path, len(s.Bodies), len(s.Joints))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d scenes invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func run(logger *slog.Logger, opts runOptions) error {
	s, err := scene.Load(opts.scene)
	if err != nil {
		return err
	}
	world, bodies, err := s.Build()
	if err != nil {
		return err
	}

	names := make(map[actor.BodyID]string, len(bodies))
	for name, body := range bodies {
		names[body.ID] = name
	}
	subscribe(logger, world, names)

	registry := visual.NewRegistry()
	for _, body := range world.Bodies() {
		registry.Register(body)
	}
	if err := registry.Prepare(visual.NewCache()); err != nil {
		return err
	}

	dt := s.Dt()
	logger.Info("scene loaded",
		"path", opts.scene,
		"bodies", len(world.Bodies()),
		"joints", len(world.Constraints()),
		"dt", dt,
		"substeps", world.Substeps,
	)

	for tick := 1; tick <= opts.ticks; tick++ {
		world.Step(dt)

		if opts.printEvery > 0 && tick%opts.printEvery == 0 {
			logStates(logger, tick, names, world, registry)
		}
	}

	logStates(logger, opts.ticks, names, world, registry)
	return nil
}

func subscribe(logger *slog.Logger, world *xpbd.World, names map[actor.BodyID]string) {
	pair := func(a, b *actor.RigidBody) string {
		return names[a.ID] + "/" + names[b.ID]
	}

	world.Events.Subscribe(xpbd.COLLISION_ENTER, func(event xpbd.Event) {
		e := event.(xpbd.CollisionEnterEvent)
		logger.Info("collision", "event", event.Type(), "pair", pair(e.BodyA, e.BodyB))
	})
	world.Events.Subscribe(xpbd.COLLISION_STAY, func(event xpbd.Event) {
		e := event.(xpbd.CollisionStayEvent)
		logger.Debug("collision", "event", event.Type(), "pair", pair(e.BodyA, e.BodyB))
	})
	world.Events.Subscribe(xpbd.COLLISION_EXIT, func(event xpbd.Event) {
		e := event.(xpbd.CollisionExitEvent)
		logger.Info("collision", "event", event.Type(), "pair", pair(e.BodyA, e.BodyB))
	})
	world.Events.Subscribe(xpbd.ON_SLEEP, func(event xpbd.Event) {
		logger.Info("activity", "event", event.Type(), "body", names[event.(xpbd.SleepEvent).Body.ID])
	})
	world.Events.Subscribe(xpbd.ON_WAKE, func(event xpbd.Event) {
		logger.Info("activity", "event", event.Type(), "body", names[event.(xpbd.WakeEvent).Body.ID])
	})
}

func logStates(logger *slog.Logger, tick int, names map[actor.BodyID]string, world *xpbd.World, registry *visual.Registry) {
	instances := visual.DrawList(world, registry)
	logger.Info("tick", "n", tick, "instances", len(instances))

	ordered := make([]*actor.RigidBody, 0, len(world.Bodies()))
	for _, body := range world.Bodies() {
		if !body.Fixed {
			ordered = append(ordered, body)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		return strings.Compare(names[ordered[i].ID], names[ordered[j].ID]) < 0
	})

	for _, body := range ordered {
		p, v := body.Transform.Position, body.Velocity
		logger.Info("body",
			"name", names[body.ID],
			"position", fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X(), p.Y(), p.Z()),
			"velocity", fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X(), v.Y(), v.Z()),
			"active", body.Active,
		)
	}
}
