package constraint

import (
	"math"

	"github.com/akmonengine/xpbd/actor"
	"github.com/akmonengine/xpbd/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

// CollisionConstraint is a rigid non-penetration constraint at one contact,
// with Coulomb friction and restitution. It lives for a single substep.
type CollisionConstraint struct {
	BodyA       *actor.RigidBody
	BodyB       *actor.RigidBody
	LocalPointA mgl64.Vec3 // contact point in A's frame, relative to its origin
	LocalPointB mgl64.Vec3
	Normal      mgl64.Vec3 // from A toward B
	LambdaN     float64
	LambdaT     float64

	staticFriction  float64
	dynamicFriction float64
	restitution     float64
}

// NewCollisionConstraint captures a contact in both body frames
func NewCollisionConstraint(a, b *actor.RigidBody, contact manifold.Contact) *CollisionConstraint {
	return &CollisionConstraint{
		BodyA:           a,
		BodyB:           b,
		LocalPointA:     a.Transform.ToLocal(contact.PointA),
		LocalPointB:     b.Transform.ToLocal(contact.PointB),
		Normal:          contact.Normal,
		staticFriction:  ComputeStaticFriction(a.Material, b.Material),
		dynamicFriction: ComputeDynamicFriction(a.Material, b.Material),
		restitution:     ComputeRestitution(a.Material, b.Material),
	}
}

func (c *CollisionConstraint) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return c.BodyA, c.BodyB
}

func (c *CollisionConstraint) ResetLambda() {
	c.LambdaN = 0
	c.LambdaT = 0
}

// contactPoints returns the world offsets and world positions of the contact on both bodies
func (c *CollisionConstraint) contactPoints() (rA, rB, pA, pB mgl64.Vec3) {
	rA, rB = worldOffsets(c.BodyA, c.BodyB, c.LocalPointA, c.LocalPointB)
	pA = c.BodyA.Transform.Position.Add(rA)
	pB = c.BodyB.Transform.Position.Add(rB)
	return rA, rB, pA, pB
}

// SolvePosition resolves the penetration along the normal, then applies
// static friction while the tangential multiplier stays inside the friction cone
func (c *CollisionConstraint) SolvePosition(h float64) {
	bodyA, bodyB := c.BodyA, c.BodyB

	// ========== Normal ==========
	rA, rB, pA, pB := c.contactPoints()
	depth := pA.Sub(pB).Dot(c.Normal)
	if depth <= 0 {
		return
	}

	dl, ok := deltaLambda(bodyA, bodyB, rA, rB, c.Normal, depth, h, 0, c.LambdaN)
	if !ok {
		return
	}
	applyCorrection(bodyA, bodyB, rA, rB, c.Normal, dl)
	c.LambdaN += dl

	// ========== Static friction ==========
	rA, rB, pA, pB = c.contactPoints()
	prevA := bodyA.PreviousTransform.Position.Add(bodyA.PreviousTransform.Rotation.Rotate(c.LocalPointA))
	prevB := bodyB.PreviousTransform.Position.Add(bodyB.PreviousTransform.Rotation.Rotate(c.LocalPointB))

	// Relative motion of the contact points during this substep, tangential part
	deltaP := pA.Sub(prevA).Sub(pB.Sub(prevB))
	deltaPt := deltaP.Sub(c.Normal.Mul(deltaP.Dot(c.Normal)))

	slip := deltaPt.Len()
	if slip <= Epsilon {
		return
	}
	tangent := deltaPt.Mul(1.0 / slip)

	dlt, ok := deltaLambda(bodyA, bodyB, rA, rB, tangent, slip, h, 0, c.LambdaT)
	if !ok {
		return
	}

	// Multipliers are negative: this is |λt + Δλt| < μs·|λn|
	if c.staticFriction*c.LambdaN < c.LambdaT+dlt {
		applyCorrection(bodyA, bodyB, rA, rB, tangent, dlt)
		c.LambdaT += dlt
	}
}

// SolveVelocity applies dynamic friction and restitution as a single impulse.
// Contacts that received no normal correction this substep are skipped.
func (c *CollisionConstraint) SolveVelocity(h float64) {
	if c.LambdaN == 0 {
		return
	}

	bodyA, bodyB := c.BodyA, c.BodyB
	rA, rB, _, _ := c.contactPoints()

	// ========== Velocities ==========
	relativeVel := bodyA.PointVelocity(rA).Sub(bodyB.PointVelocity(rB))
	normalVel := relativeVel.Dot(c.Normal)
	tangentVel := relativeVel.Sub(c.Normal.Mul(normalVel))

	var deltaV mgl64.Vec3

	// ========== Dynamic friction ==========
	if tangentSpeed := tangentVel.Len(); tangentSpeed > Epsilon {
		friction := math.Min(c.dynamicFriction*math.Abs(c.LambdaN)/h, tangentSpeed)
		deltaV = deltaV.Sub(tangentVel.Mul(friction / tangentSpeed))
	}

	// ========== Restitution ==========
	relativeVelPrev := bodyA.PresolvePointVelocity(rA).Sub(bodyB.PresolvePointVelocity(rB))
	normalVelPrev := relativeVelPrev.Dot(c.Normal)
	targetVel := math.Min(-c.restitution*normalVelPrev, 0)
	deltaV = deltaV.Add(c.Normal.Mul(targetVel - normalVel))

	// ========== Impulse ==========
	length := deltaV.Len()
	if length <= Epsilon {
		return
	}
	direction := deltaV.Mul(1.0 / length)

	w := bodyA.GeneralizedInverseMass(rA, direction) + bodyB.GeneralizedInverseMass(rB, direction)
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return
	}

	impulse := deltaV.Mul(1.0 / w)
	bodyA.ApplyVelocityImpulse(impulse, rA)
	bodyB.ApplyVelocityImpulse(impulse.Mul(-1), rB)
}
