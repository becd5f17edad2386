// Package manifold builds world-space contact points for two overlapping colliders
// from a separating normal and penetration depth.
//
// Spheres produce a single analytic contact. Two convex hulls produce either a
// face contact (the incident face clipped against the reference face with
// Sutherland-Hodgman, 1 to N points) or an edge contact (closest points of two
// skew edges, 1 point).
package manifold

import (
	"log/slog"

	"github.com/akmonengine/xpbd/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Contact is a pair of world-space points, one on each collider, and the
// normal pointing from A toward B. dot(PointA - PointB, Normal) is the
// penetration at this contact and is positive while the colliders overlap.
type Contact struct {
	PointA mgl64.Vec3
	PointB mgl64.Vec3
	Normal mgl64.Vec3
}

// Penetration returns the signed depth of the contact along its normal
func (c Contact) Penetration() float64 {
	return c.PointA.Sub(c.PointB).Dot(c.Normal)
}

// SphereSphere tests two spheres analytically.
//
// Returns the contact, the penetration depth and true when the spheres overlap.
// Spheres with coincident centers have no usable normal and report false.
func SphereSphere(a, b *actor.Sphere) (Contact, float64, bool) {
	delta := b.WorldCenter().Sub(a.WorldCenter())
	distance := delta.Len()
	radii := a.Radius + b.Radius

	if distance >= radii {
		return Contact{}, 0, false
	}
	if distance < 1e-12 {
		slog.Debug("coincident sphere centers, no contact normal")
		return Contact{}, 0, false
	}

	normal := delta.Mul(1.0 / distance)
	penetration := radii - distance
	pointA := a.WorldCenter().Add(normal.Mul(a.Radius))

	return Contact{
		PointA: pointA,
		PointB: pointA.Sub(normal.Mul(penetration)),
		Normal: normal,
	}, penetration, true
}

// Generate creates the contact manifold of two colliders from the normal
// (from A toward B) and penetration depth computed by EPA.
//
// Special cases:
//   - Sphere-Any: single contact on the sphere surface
//   - Hull-Hull: face clipping or edge contact
//
// Both colliders must have been updated to their current world pose.
// The result may be empty when no clipped point lies behind the reference face.
func Generate(a, b actor.Collider, normal mgl64.Vec3, penetration float64) []Contact {
	if sphere, ok := a.(*actor.Sphere); ok {
		point := sphere.Support(normal)
		return []Contact{{
			PointA: point,
			PointB: point.Sub(normal.Mul(penetration)),
			Normal: normal,
		}}
	}

	if sphere, ok := b.(*actor.Sphere); ok {
		point := sphere.Support(normal.Mul(-1))
		return []Contact{{
			PointA: point.Add(normal.Mul(penetration)),
			PointB: point,
			Normal: normal,
		}}
	}

	hullA, okA := a.(*actor.ConvexHull)
	hullB, okB := b.(*actor.ConvexHull)
	if !okA || !okB {
		slog.Warn("unsupported collider pair", "kind_a", a.Kind(), "kind_b", b.Kind())
		return nil
	}

	return hullContacts(hullA, hullB, normal)
}

// hullContacts picks between a face contact and an edge contact
func hullContacts(a, b *actor.ConvexHull, normal mgl64.Vec3) []Contact {
	inverted := normal.Mul(-1)

	supportA := a.SupportIndex(normal)
	supportB := b.SupportIndex(inverted)

	faceA, alignmentA := bestFace(a, supportA, normal)
	faceB, alignmentB := bestFace(b, supportB, inverted)
	edges, edgeAlignment, found := bestEdges(a, b, supportA, supportB, normal)

	if found && alignmentA+AlignmentEpsilon < edgeAlignment && alignmentB+AlignmentEpsilon < edgeAlignment {
		contact, ok := edgeContact(a, b, edges, normal)
		if !ok {
			slog.Debug("parallel contact edges", "edge_a", []int{edges.a0, edges.a1}, "edge_b", []int{edges.b0, edges.b1})
			return nil
		}
		return []Contact{contact}
	}

	if alignmentA > alignmentB {
		return faceContacts(a, faceA, b, faceB, normal, true)
	}
	return faceContacts(b, faceB, a, faceA, normal, false)
}
