package xpbd

import (
	"github.com/akmonengine/xpbd/actor"
)

// BroadPhaseMargin is added to the sum of the bounding radii, so that bodies
// about to touch during the tick's substeps are still paired
const BroadPhaseMargin = 0.1

// Pair represents a pair of rigid bodies that potentially collide
type Pair struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

// BroadPhase performs broad-phase collision detection using bounding sphere tests.
// It appends to pairs every unordered pair (i < j, in the order of bodies) whose
// bounding spheres are within BroadPhaseMargin of each other.
// This is an O(n²) brute-force approach suitable for small numbers of bodies.
//
// Pairs of two fixed bodies, or of two inactive bodies, are never emitted.
func BroadPhase(bodies []*actor.RigidBody, pairs []Pair) []Pair {
	for i, bodyA := range bodies {
		sphereA := bodyA.BoundingSphere()

		for _, bodyB := range bodies[i+1:] {
			if bodyA.Fixed && bodyB.Fixed {
				continue
			}
			if !bodyA.Active && !bodyB.Active {
				continue
			}

			if sphereA.Overlaps(bodyB.BoundingSphere(), BroadPhaseMargin) {
				pairs = append(pairs, Pair{BodyA: bodyA, BodyB: bodyB})
			}
		}
	}

	return pairs
}
