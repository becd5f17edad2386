// Package xpbd is a rigid body physics engine based on Extended Position
// Based Dynamics.
//
// A World owns rigid bodies and positional constraints. Each call to Step
// runs the broad phase once, then splits the tick into substeps that
// integrate, collect collision constraints, project positions, derive
// velocities and apply friction and restitution at the velocity level.
package xpbd

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/akmonengine/xpbd/actor"
	"github.com/akmonengine/xpbd/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const DEFAULT_WORKERS = 1

var (
	ErrNilBody       = errors.New("xpbd: nil body")
	ErrDuplicateBody = errors.New("xpbd: body already in world")
	ErrUnknownBody   = errors.New("xpbd: body not in world")
)

// Deactivation puts a body to sleep once its speeds stayed under the
// thresholds for Time seconds
type Deactivation struct {
	Enabled          bool
	Time             float64 // seconds
	LinearThreshold  float64 // m/s
	AngularThreshold float64 // rad/s
}

// Config holds the simulation parameters of a World
type Config struct {
	// Gravity acceleration (m/s², or N/kg)
	Gravity            mgl64.Vec3
	Substeps           int
	PositionIterations int
	CollisionsEnabled  bool
	// Workers integrating bodies and running the narrow phase, 1 runs inline
	Workers      int
	Deactivation Deactivation
}

func DefaultConfig() Config {
	return Config{
		Gravity:            mgl64.Vec3{0, -9.81, 0},
		Substeps:           10,
		PositionIterations: 1,
		CollisionsEnabled:  true,
		Workers:            DEFAULT_WORKERS,
		Deactivation: Deactivation{
			Enabled:          false,
			Time:             0.5,
			LinearThreshold:  0.05,
			AngularThreshold: 0.05,
		},
	}
}

type World struct {
	Config

	Events Events

	// List of all rigid bodies in the world, in insertion order
	bodies  []*actor.RigidBody
	byID    map[actor.BodyID]*actor.RigidBody
	joints  []constraint.Constraint
	pairs   []Pair
	solving []constraint.Constraint

	collisions []*constraint.CollisionConstraint
}

func NewWorld(config Config) *World {
	return &World{
		Config: config,
		Events: NewEvents(),
		byID:   make(map[actor.BodyID]*actor.RigidBody),
	}
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(body *actor.RigidBody) error {
	if body == nil {
		return ErrNilBody
	}
	if _, ok := w.byID[body.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBody, body.ID)
	}

	w.bodies = append(w.bodies, body)
	w.byID[body.ID] = body
	return nil
}

// RemoveBody removes a rigid body from the world, with every constraint attached to it
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := slices.Index(w.bodies, body)
	if k == -1 {
		return
	}

	w.bodies = slices.Delete(w.bodies, k, k+1)
	delete(w.byID, body.ID)

	w.joints = slices.DeleteFunc(w.joints, func(c constraint.Constraint) bool {
		a, b := c.Bodies()
		return a == body || b == body
	})

	w.Events.forget(body)
}

// Body returns the body with the given ID, or nil
func (w *World) Body(id actor.BodyID) *actor.RigidBody {
	return w.byID[id]
}

// Bodies returns the bodies in insertion order. The slice must not be modified.
func (w *World) Bodies() []*actor.RigidBody {
	return w.bodies
}

// AddConstraint registers a caller-owned constraint, solved in every substep
// together with the collision constraints
func (w *World) AddConstraint(c constraint.Constraint) error {
	a, b := c.Bodies()
	for _, body := range []*actor.RigidBody{a, b} {
		if body == nil || w.byID[body.ID] != body {
			return ErrUnknownBody
		}
	}

	w.joints = append(w.joints, c)
	return nil
}

// Constraints returns the caller-owned constraints
func (w *World) Constraints() []constraint.Constraint {
	return w.joints
}

// Step advances the simulation by dt seconds
func (w *World) Step(dt float64) {
	if !(dt > 0) || w.Substeps < 1 {
		slog.Warn("invalid step, skipped", "dt", dt, "substeps", w.Substeps)
		return
	}

	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	iterations := max(1, w.PositionIterations)
	h := dt / float64(w.Substeps)

	// Phase 1: Collision pair finding - Broad phase, reused by every substep
	w.pairs = w.pairs[:0]
	if w.CollisionsEnabled {
		w.pairs = BroadPhase(w.bodies, w.pairs)
	}

	for range w.Substeps {
		// Phase 2: Integrate without constraints
		w.integrate(h)

		// Phase 3: Collision pair finding - narrow phase, merged with the caller's constraints
		constraints := w.collectConstraints()

		// Phase 4: Solver
		for range iterations {
			for _, c := range constraints {
				c.SolvePosition(h)
			}
		}

		// Phase 5: Update Position & Velocity
		// Calculate final velocities and commit positions
		w.update(h)

		// Phase 6: Velocity
		for _, c := range constraints {
			c.SolveVelocity(h)
		}

		if w.Deactivation.Enabled {
			w.trySleep(h)
		}
	}

	for _, body := range w.bodies {
		body.ClearForces()
	}

	w.Events.processSleepEvents(w.bodies)
	w.Events.flush()
}

func (w *World) integrate(h float64) {
	task(w.Workers, w.bodies, func(_ int, body *actor.RigidBody) {
		body.Integrate(h, w.Gravity)
	})
}

// collectConstraints rebuilds the constraint list of a substep, with zeroed multipliers
func (w *World) collectConstraints() []constraint.Constraint {
	w.solving = w.solving[:0]

	if w.CollisionsEnabled {
		for _, c := range w.collectCollisions(w.pairs) {
			w.solving = append(w.solving, c)
		}
	}

	for _, c := range w.joints {
		c.ResetLambda()
		w.solving = append(w.solving, c)
	}

	return w.solving
}

func (w *World) update(h float64) {
	task(w.Workers, w.bodies, func(_ int, body *actor.RigidBody) {
		body.Update(h)
	})
}

// trySleep sets the body to sleep if its velocity is lower than the threshold, for a given duration
// this method is too simple to use a task, it slows down in multiple goroutines
func (w *World) trySleep(h float64) {
	d := w.Deactivation
	for _, body := range w.bodies {
		body.TrySleep(h, d.Time, d.LinearThreshold, d.AngularThreshold)
	}
}
