package constraint

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/xpbd/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidConstraint is returned for a positional constraint that cannot be solved
var ErrInvalidConstraint = errors.New("constraint: invalid constraint")

// PositionalConstraint keeps two anchor points, given in each body's local
// frame, at a target distance. Compliance 0 is a rigid attachment.
type PositionalConstraint struct {
	BodyA        *actor.RigidBody
	BodyB        *actor.RigidBody
	LocalAnchorA mgl64.Vec3
	LocalAnchorB mgl64.Vec3
	Distance     float64
	Compliance   float64
	Lambda       float64
}

// NewPositionalConstraint validates and creates a positional constraint
func NewPositionalConstraint(a, b *actor.RigidBody, anchorA, anchorB mgl64.Vec3, distance, compliance float64) (*PositionalConstraint, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: missing body", ErrInvalidConstraint)
	}
	if a == b {
		return nil, fmt.Errorf("%w: body %s is attached to itself", ErrInvalidConstraint, a.ID)
	}
	if distance < 0 || math.IsNaN(distance) {
		return nil, fmt.Errorf("%w: distance %v", ErrInvalidConstraint, distance)
	}
	if compliance < 0 || math.IsNaN(compliance) {
		return nil, fmt.Errorf("%w: compliance %v", ErrInvalidConstraint, compliance)
	}

	return &PositionalConstraint{
		BodyA:        a,
		BodyB:        b,
		LocalAnchorA: anchorA,
		LocalAnchorB: anchorB,
		Distance:     distance,
		Compliance:   compliance,
	}, nil
}

func (c *PositionalConstraint) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return c.BodyA, c.BodyB
}

func (c *PositionalConstraint) ResetLambda() {
	c.Lambda = 0
}

// SolvePosition drives C = |Δx| - Distance to zero, Δx being the separation
// of the world anchors
func (c *PositionalConstraint) SolvePosition(h float64) {
	rA, rB := worldOffsets(c.BodyA, c.BodyB, c.LocalAnchorA, c.LocalAnchorB)
	deltaX := c.BodyA.Transform.Position.Add(rA).Sub(c.BodyB.Transform.Position.Add(rB))

	length := deltaX.Len()
	if length <= Epsilon {
		return
	}
	n := deltaX.Mul(1.0 / length)

	dl, ok := deltaLambda(c.BodyA, c.BodyB, rA, rB, n, length-c.Distance, h, c.Compliance, c.Lambda)
	if !ok {
		return
	}

	applyCorrection(c.BodyA, c.BodyB, rA, rB, n, dl)
	c.Lambda += dl
}

// SolveVelocity is a no-op: positional constraints carry no damping
func (c *PositionalConstraint) SolveVelocity(h float64) {}
