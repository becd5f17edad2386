// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA is run after GJK detects a collision to determine:
//   - Penetration depth (how far shapes overlap)
//   - Contact normal (direction to separate shapes)
//
// The algorithm expands a polytope (starting from GJK's final simplex) toward the origin
// in the Minkowski difference space, finding the closest face which gives us the
// Minimum Translation Vector (MTV) to separate the shapes. Contact points are then
// built from the normal by the manifold package.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/xpbd/actor"
	"github.com/akmonengine/xpbd/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxIterations limits polytope expansion to prevent infinite loops.
	// If this limit is reached, EPA returns ErrNoConvergence.
	MaxIterations = 100

	// ConvergenceTolerance is float32 machine epsilon. EPA has converged once
	// the support point along the closest face normal is no further than this
	// from the face plane.
	ConvergenceTolerance = 1.1920929e-7

	// PlaneTolerance is the signed distance under which a point counts as lying on a face plane
	PlaneTolerance = 1e-10

	// NormalSnapThreshold is used to clamp nearly-zero normal components to exactly zero.
	// This helps with numerical stability and axis-aligned collisions.
	NormalSnapThreshold = 1e-8

	// Small initial capacity for PolytopeBuilder - grows dynamically as needed
	polytopeInitialCapacity = 16
)

var (
	// ErrNoConvergence is returned when MaxIterations expansions did not reach the closest face
	ErrNoConvergence = errors.New("epa: no convergence")

	// ErrDegeneratePolytope is returned when a face cannot be oriented,
	// typically because the polytope vertices are coplanar
	ErrDegeneratePolytope = errors.New("epa: degenerate polytope")

	// ErrInvalidSimplex is returned when the input simplex is not a tetrahedron
	ErrInvalidSimplex = errors.New("epa: invalid simplex")
)

// EPA computes penetration depth and contact normal for overlapping convex colliders.
//
// Algorithm overview:
//  1. Start with simplex from GJK (tetrahedron containing origin)
//  2. Build initial polytope faces from simplex
//  3. Find face closest to origin
//  4. Get support point in face normal direction
//  5. If converged (new point doesn't improve distance) → done
//  6. Otherwise, expand polytope by adding support point
//  7. Repeat from step 3
//
// Parameters:
//   - a, b: The two colliders, already updated to their world pose
//   - simplex: Final simplex from GJK (4 points forming a tetrahedron)
//
// Returns the contact normal and penetration depth. The normal points from A toward B:
// translating B by depth·normal separates the colliders.
func EPA(a, b actor.Collider, simplex *gjk.Simplex) (mgl64.Vec3, float64, error) {
	if simplex.Count != 4 {
		return mgl64.Vec3{}, 0, fmt.Errorf("%w: %d points (expected 4)", ErrInvalidSimplex, simplex.Count)
	}

	// Get builder from pool
	builder := polytopeBuilderPool.Get().(*PolytopeBuilder)
	defer polytopeBuilderPool.Put(builder)
	builder.Reset()

	// Step 1: Build initial polytope faces from the tetrahedron simplex
	if err := builder.BuildInitialFaces(simplex); err != nil {
		return mgl64.Vec3{}, 0, err
	}

	// Step 2: Iteratively expand polytope toward origin
	for i := 0; i < MaxIterations; i++ {
		// Step 3: Find the face closest to the origin
		closestFace := builder.faces[builder.FindClosestFaceIndex()]

		// Step 4: Get support point in the direction of the closest face's normal
		support := gjk.MinkowskiSupport(a, b, closestFace.Normal)
		distance := support.Dot(closestFace.Normal)

		// Step 5: Check for convergence
		if distance-closestFace.Distance <= ConvergenceTolerance {
			return snapNormalToAxis(closestFace.Normal), closestFace.Distance, nil
		}

		// Step 6: Expand polytope by adding the new support point
		expanded, err := builder.AddPoint(support)
		if err != nil {
			return mgl64.Vec3{}, 0, err
		}
		if !expanded {
			// No face sees the support point: the closest face is already on the hull
			return snapNormalToAxis(closestFace.Normal), closestFace.Distance, nil
		}
	}

	return mgl64.Vec3{}, 0, fmt.Errorf("%w after %d iterations", ErrNoConvergence, MaxIterations)
}

// snapNormalToAxis clamps nearly-zero components of a normal vector to exactly zero.
//
// This improves numerical stability for axis-aligned collisions (box on ground)
// by preventing tiny floating-point errors from causing jitter in tangent directions.
//
// Components with absolute value < NormalSnapThreshold are set to 0, then the
// vector is renormalized.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	clamped := normal
	for i := range clamped {
		if math.Abs(clamped[i]) < NormalSnapThreshold {
			clamped[i] = 0
		}
	}

	length := clamped.Len()
	if length <= NormalSnapThreshold {
		// If all components were clamped to zero, return default
		return mgl64.Vec3{0, 1, 0}
	}

	return clamped.Mul(1.0 / length)
}
