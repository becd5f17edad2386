package xpbd

import (
	"context"
	"log/slog"

	"github.com/akmonengine/xpbd/actor"
	"github.com/akmonengine/xpbd/constraint"
	"github.com/akmonengine/xpbd/epa"
	"github.com/akmonengine/xpbd/gjk"
	"github.com/akmonengine/xpbd/manifold"
)

// Collide runs the narrow phase between every collider of a and every collider of b.
// Colliders must have been updated to the bodies' current pose.
//
// Sphere pairs are solved analytically, any other pair goes through
// GJK, then EPA, then contact manifold generation. Failures of a collider
// pair are logged and the collider pair is skipped.
func Collide(a, b *actor.RigidBody) []manifold.Contact {
	var contacts []manifold.Contact
	var simplex gjk.Simplex

	for _, colliderA := range a.Colliders {
		for _, colliderB := range b.Colliders {
			result := collideColliders(colliderA, colliderB, &simplex)
			if result.err != nil {
				slog.Warn("narrow phase failed, collider pair skipped",
					"body_a", a.ID, "body_b", b.ID, "err", result.err)
				continue
			}
			if result.hit && len(result.contacts) == 0 {
				slog.Warn("empty contact manifold", "body_a", a.ID, "body_b", b.ID,
					"kind_a", colliderA.Kind(), "kind_b", colliderB.Kind())
				continue
			}
			contacts = append(contacts, result.contacts...)
		}
	}

	return contacts
}

type narrowResult struct {
	contacts []manifold.Contact
	hit      bool
	err      error
}

func collideColliders(a, b actor.Collider, simplex *gjk.Simplex) narrowResult {
	if sphereA, ok := a.(*actor.Sphere); ok {
		if sphereB, ok := b.(*actor.Sphere); ok {
			contact, _, hit := manifold.SphereSphere(sphereA, sphereB)
			if !hit {
				return narrowResult{}
			}
			return narrowResult{contacts: []manifold.Contact{contact}, hit: true}
		}
	}

	hit, err := gjk.GJK(a, b, simplex)
	if err != nil || !hit {
		return narrowResult{err: err}
	}

	normal, depth, err := epa.EPA(a, b, simplex)
	if err != nil {
		return narrowResult{err: err}
	}

	return narrowResult{contacts: manifold.Generate(a, b, normal, depth), hit: true}
}

// collectCollisions builds one collision constraint per contact of every pair
// holding at least one non-fixed active body. The result keeps the pair order.
func (w *World) collectCollisions(pairs []Pair) []*constraint.CollisionConstraint {
	task(w.Workers, w.bodies, func(_ int, body *actor.RigidBody) {
		body.UpdateColliders()
	})

	results := make([][]manifold.Contact, len(pairs))
	task(w.Workers, pairs, func(i int, pair Pair) {
		if !pair.BodyA.IsMovable() && !pair.BodyB.IsMovable() {
			return
		}
		results[i] = Collide(pair.BodyA, pair.BodyB)
	})

	w.collisions = w.collisions[:0]
	for i, pair := range pairs {
		if len(results[i]) == 0 {
			if !pair.BodyA.IsMovable() && !pair.BodyB.IsMovable() {
				// Not tested while asleep, still touching
				w.Events.keepCollision(pair.BodyA, pair.BodyB)
			}
			continue
		}

		w.matchActiveState(pair.BodyA, pair.BodyB)
		w.Events.recordCollision(pair.BodyA, pair.BodyB)

		for _, contact := range results[i] {
			w.collisions = append(w.collisions, constraint.NewCollisionConstraint(pair.BodyA, pair.BodyB, contact))
		}
	}

	return w.collisions
}

// matchActiveState wakes the inactive body of two touching non-fixed bodies
func (w *World) matchActiveState(a, b *actor.RigidBody) {
	if a.Fixed || b.Fixed || a.Active == b.Active {
		return
	}

	sleeping := a
	if a.Active {
		sleeping = b
	}
	// Expected when a moving body hits a sleeping one, otherwise a caller bug
	level := slog.LevelWarn
	if w.Deactivation.Enabled {
		level = slog.LevelDebug
	}
	slog.Log(context.Background(), level, "active state mismatch between touching bodies, waking",
		"body_a", a.ID, "body_b", b.ID, "woken", sleeping.ID)
	sleeping.Awake()
}
