// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for collision detection.
//
// GJK detects whether two convex colliders overlap by testing if their Minkowski difference
// contains the origin. The algorithm builds a simplex incrementally, converging toward
// the origin in typically 3-6 iterations.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"errors"

	"github.com/akmonengine/xpbd/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxIterations bounds the simplex refinement loop
	MaxIterations = 100

	// degenerateDirection is the squared length under which a search direction is treated as zero
	degenerateDirection = 1e-20
)

// ErrNoConvergence is returned when the simplex did not resolve within MaxIterations
var ErrNoConvergence = errors.New("gjk: no convergence")

// initialDirection is the first search direction
var initialDirection = mgl64.Vec3{0, 0, 1}

// Simplex represents a set of 1-4 points in the Minkowski difference space.
// Points[0] is always the most recently added point ("a"), older points follow.
// Size progression: 1 point → 2 points (line) → 3 points (triangle) → 4 points (tetrahedron)
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

// Push inserts p as the most recent point, shifting the others back
func (s *Simplex) Push(p mgl64.Vec3) {
	s.Points[3], s.Points[2], s.Points[1] = s.Points[2], s.Points[1], s.Points[0]
	s.Points[0] = p
	s.Count = min(s.Count+1, 4)
}

func (s *Simplex) set(points ...mgl64.Vec3) {
	copy(s.Points[:], points)
	s.Count = len(points)
}

// MinkowskiSupport computes a support point in the Minkowski difference (A - B).
//
// The Minkowski difference A - B is the set of all vectors (a - b) where a ∈ A and b ∈ B.
// For collision detection, we only need the extreme points (support points) in any direction.
//
// Returns:
//
//	Support point: furthestPoint(A, direction) - furthestPoint(B, -direction)
//
// Both colliders must have been updated to their current world pose.
func MinkowskiSupport(a, b actor.Collider, direction mgl64.Vec3) mgl64.Vec3 {
	supportA := a.Support(direction)
	supportB := b.Support(direction.Mul(-1))
	return supportA.Sub(supportB)
}

// GJK performs collision detection between two convex colliders.
//
// Algorithm overview:
//  1. First support point along +Z, then search toward the origin
//  2. If a new support point does not pass the origin → no collision
//  3. Otherwise push it and reduce the simplex to the feature closest to the origin
//  4. If a tetrahedron encloses the origin → collision
//
// Returns:
//   - bool: true if the colliders intersect, the simplex then holds the 4 points
//     of a tetrahedron enclosing the origin, which EPA uses as its initial polytope
//   - error: ErrNoConvergence after MaxIterations; the result is then false
//
// Colliders touching without penetration are reported as not intersecting.
func GJK(a, b actor.Collider, simplex *Simplex) (bool, error) {
	simplex.Reset()
	simplex.Push(MinkowskiSupport(a, b, initialDirection))

	// New direction towards the origin from this first point
	direction := simplex.Points[0].Mul(-1)

	for i := 0; i < MaxIterations; i++ {
		// The origin lies on the current simplex: contact without penetration
		if direction.LenSqr() < degenerateDirection {
			return false, nil
		}

		newPoint := MinkowskiSupport(a, b, direction)

		// The Minkowski difference does not reach past the origin along direction,
		// it cannot contain it
		if newPoint.Dot(direction) < 0 {
			return false, nil
		}

		simplex.Push(newPoint)

		if doSimplex(simplex, &direction) {
			return true, nil
		}
	}

	return false, ErrNoConvergence
}

// doSimplex determines which feature of the simplex (point, edge, face) is closest
// to the origin, keeps only the relevant points, and updates the search direction.
// Region boundaries are tested with >= 0, so on-boundary cases keep the larger feature.
//
// Returns true only for a tetrahedron containing the origin.
func doSimplex(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		line(simplex, direction)
	case 3:
		triangle(simplex, direction)
	case 4:
		return tetrahedron(simplex, direction)
	}
	return false
}

// line handles the 2 point simplex [a, b]
func line(simplex *Simplex, direction *mgl64.Vec3) {
	a, b := simplex.Points[0], simplex.Points[1]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.Dot(ao) >= 0 {
		*direction = towardOrigin(ab, ao)
		return
	}

	// Origin is behind A: keep A alone
	simplex.set(a)
	*direction = ao
}

// triangle handles the 3 point simplex [a, b, c]
func triangle(simplex *Simplex, direction *mgl64.Vec3) {
	a, b, c := simplex.Points[0], simplex.Points[1], simplex.Points[2]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	abc := ab.Cross(ac)
	if abc.LenSqr() < degenerateDirection {
		// Collinear points: keep the segment with the newest point
		simplex.set(a, b)
		line(simplex, direction)
		return
	}

	if abc.Cross(ac).Dot(ao) >= 0 {
		if ac.Dot(ao) >= 0 {
			// Region AC
			simplex.set(a, c)
			*direction = edgeDirection(ac, ao, abc)
			return
		}
		edgeOrPoint(simplex, direction, a, b, ao, abc)
		return
	}

	if ab.Cross(abc).Dot(ao) >= 0 {
		edgeOrPoint(simplex, direction, a, b, ao, abc)
		return
	}

	// Origin is above or below the triangle
	if abc.Dot(ao) >= 0 {
		*direction = abc
		return
	}

	// Below: swap b and c so the winding faces the origin
	simplex.set(a, c, b)
	*direction = abc.Mul(-1)
}

// edgeOrPoint reduces a triangle to edge AB or to point A
func edgeOrPoint(simplex *Simplex, direction *mgl64.Vec3, a, b, ao, normal mgl64.Vec3) {
	ab := b.Sub(a)
	if ab.Dot(ao) >= 0 {
		simplex.set(a, b)
		*direction = edgeDirection(ab, ao, normal)
		return
	}

	simplex.set(a)
	*direction = ao
}

// tetrahedron handles the 4 point simplex [a, b, c, d].
//
// The origin is known to lie on the inner side of BCD (the previous triangle),
// so only the three faces sharing A are tested. Face normals are oriented away
// from the opposite vertex.
func tetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	a, b, c, d := simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	faces := [3]struct {
		normal   mgl64.Vec3
		opposite mgl64.Vec3
		points   [3]mgl64.Vec3
	}{
		{ab.Cross(ac), ad, [3]mgl64.Vec3{a, b, c}},
		{ac.Cross(ad), ab, [3]mgl64.Vec3{a, c, d}},
		{ad.Cross(ab), ac, [3]mgl64.Vec3{a, d, b}},
	}

	for _, face := range faces {
		normal := face.normal
		if normal.Dot(face.opposite) > 0 {
			normal = normal.Mul(-1)
		}

		if normal.Dot(ao) >= 0 {
			simplex.set(face.points[0], face.points[1], face.points[2])
			triangle(simplex, direction)
			return false
		}
	}

	// The origin is inside the tetrahedron
	return true
}

// towardOrigin returns the direction perpendicular to edge pointing at the
// origin, or any perpendicular when the origin lies on the edge's line
func towardOrigin(edge, ao mgl64.Vec3) mgl64.Vec3 {
	direction := edge.Cross(ao).Cross(edge)
	if direction.LenSqr() >= degenerateDirection {
		return direction
	}

	axis := mgl64.Vec3{1, 0, 0}
	if perpendicular := edge.Cross(axis); perpendicular.LenSqr() >= degenerateDirection {
		return perpendicular
	}
	return edge.Cross(mgl64.Vec3{0, 1, 0})
}

// edgeDirection is towardOrigin for an edge of a triangle, falling back to
// the triangle normal when the origin lies on the edge's line
func edgeDirection(edge, ao, normal mgl64.Vec3) mgl64.Vec3 {
	direction := edge.Cross(ao).Cross(edge)
	if direction.LenSqr() >= degenerateDirection {
		return direction
	}
	return normal
}
