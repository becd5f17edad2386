package constraint

import (
	"log/slog"
	"math"

	"github.com/akmonengine/xpbd/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is float32 machine epsilon: corrections at or below it are skipped
const Epsilon = 1.1920929e-7

// deltaLambda computes the XPBD multiplier update of a positional correction
// of magnitude c along the unit direction n, applied at the world offsets rA
// and rB of the two bodies:
//
//	Δλ = (-c - α̃λ) / (w1 + w2 + α̃), α̃ = compliance / h²
//
// It reports false when the correction cannot be applied: both bodies fixed,
// or a non-finite generalized inverse mass from a degenerate inertia.
func deltaLambda(a, b *actor.RigidBody, rA, rB, n mgl64.Vec3, c, h, compliance, lambda float64) (float64, bool) {
	w := a.GeneralizedInverseMass(rA, n) + b.GeneralizedInverseMass(rB, n)
	if math.IsNaN(w) || math.IsInf(w, 0) {
		slog.Warn("non-finite generalized inverse mass, correction skipped", "body_a", a.ID, "body_b", b.ID)
		return 0, false
	}

	alphaTilde := compliance / (h * h)
	if w+alphaTilde <= 0 {
		return 0, false
	}

	return (-c - alphaTilde*lambda) / (w + alphaTilde), true
}

// applyCorrection applies the positional impulse Δλ·n to A and its opposite to B
func applyCorrection(a, b *actor.RigidBody, rA, rB, n mgl64.Vec3, deltaLambda float64) {
	impulse := n.Mul(deltaLambda)
	a.ApplyPositionImpulse(impulse, rA)
	b.ApplyPositionImpulse(impulse.Mul(-1), rB)
}

// worldOffsets rotates body-local offsets into world space
func worldOffsets(a, b *actor.RigidBody, localA, localB mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	return a.Transform.Rotation.Rotate(localA), b.Transform.Rotation.Rotate(localB)
}
