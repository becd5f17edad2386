// Package constraint implements the XPBD constraints solved by the world:
// positional (attachment) constraints authored by the caller, and collision
// constraints generated from contacts each substep.
package constraint

import (
	"github.com/akmonengine/xpbd/actor"
)

// Constraint is solved once per position iteration and once in the velocity pass of every substep
type Constraint interface {
	SolvePosition(h float64)
	SolveVelocity(h float64)
	// ResetLambda zeroes the accumulated multipliers before a new substep
	ResetLambda()
	Bodies() (*actor.RigidBody, *actor.RigidBody)
}

// Compliance presets (inverse stiffness, m/N), from the material table of
// Müller et al. "Detailed Rigid Body Simulation with Extended Position Based Dynamics"
const (
	ConcreteCompliance = 0.04e-9
	WoodCompliance     = 0.16e-9
	LeatherCompliance  = 1.0e-8
	TendonCompliance   = 0.2e-7
	RubberCompliance   = 1.0e-6
	MuscleCompliance   = 0.2e-3
	FatCompliance      = 1.0e-3
)

// ComputeRestitution combines two restitution coefficients as their product
func ComputeRestitution(matA, matB actor.Material) float64 {
	return matA.Restitution * matB.Restitution
}

// ComputeStaticFriction averages the static friction coefficients
func ComputeStaticFriction(matA, matB actor.Material) float64 {
	return (matA.StaticFriction + matB.StaticFriction) / 2.0
}

// ComputeDynamicFriction averages the dynamic friction coefficients
func ComputeDynamicFriction(matA, matB actor.Material) float64 {
	return (matA.DynamicFriction + matB.DynamicFriction) / 2.0
}
