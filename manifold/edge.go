package manifold

import (
	"math"

	"github.com/akmonengine/xpbd/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// AlignmentEpsilon is the margin by which an edge pair must align better with
// the contact normal than both candidate faces to be used as an edge contact
const AlignmentEpsilon = 0.0001

// edgePair holds two hull edges as vertex indices, a0-a1 on hull A and b0-b1 on hull B
type edgePair struct {
	a0, a1 int
	b0, b1 int
}

// bestFace returns the face incident to the support vertex whose normal is the
// most aligned with direction, and that alignment
func bestFace(hull *actor.ConvexHull, support int, direction mgl64.Vec3) (int, float64) {
	best := -1
	bestDot := math.Inf(-1)
	for _, face := range hull.VertexFaces[support] {
		if dot := hull.WorldNormal(face).Dot(direction); dot > bestDot {
			best, bestDot = face, dot
		}
	}
	return best, bestDot
}

// bestEdges searches every pair of edges leaving the two support vertices for
// the one whose cross product, with either sign, is the most aligned with
// the normal. Parallel edge pairs are skipped.
func bestEdges(a, b *actor.ConvexHull, supportA, supportB int, normal mgl64.Vec3) (edgePair, float64, bool) {
	var best edgePair
	bestDot := math.Inf(-1)
	found := false

	vertexA := a.WorldVertex(supportA)
	vertexB := b.WorldVertex(supportB)

	for _, neighborA := range a.VertexNeighbors[supportA] {
		edgeA := vertexA.Sub(a.WorldVertex(neighborA))
		for _, neighborB := range b.VertexNeighbors[supportB] {
			edgeB := vertexB.Sub(b.WorldVertex(neighborB))

			cross := edgeA.Cross(edgeB)
			length := cross.Len()
			if length < 1e-12 {
				continue
			}

			dot := math.Abs(cross.Dot(normal) / length)
			if dot > bestDot {
				bestDot = dot
				best = edgePair{a0: supportA, a1: neighborA, b0: supportB, b1: neighborB}
				found = true
			}
		}
	}

	return best, bestDot, found
}

// edgeContact builds a single contact at the closest points of the two edge lines
func edgeContact(a, b *actor.ConvexHull, edges edgePair, normal mgl64.Vec3) (Contact, bool) {
	p1 := a.WorldVertex(edges.a0)
	d1 := a.WorldVertex(edges.a1).Sub(p1)
	p2 := b.WorldVertex(edges.b0)
	d2 := b.WorldVertex(edges.b1).Sub(p2)

	closest1, closest2, ok := closestPointsOnLines(p1, d1, p2, d2)
	if !ok {
		return Contact{}, false
	}

	return Contact{PointA: closest1, PointB: closest2, Normal: normal}, true
}

// closestPointsOnLines returns the closest points between the lines p1 + s·d1
// and p2 + t·d2 by solving the 2x2 system of the perpendicularity conditions.
// Parallel lines have no unique solution and report false.
func closestPointsOnLines(p1, d1, p2, d2 mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, bool) {
	w := p1.Sub(p2)
	a := d1.Dot(d1)
	b := d1.Dot(d2)
	c := d2.Dot(d2)
	d := d1.Dot(w)
	e := d2.Dot(w)

	denominator := a*c - b*b
	if denominator == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}

	s := (b*e - c*d) / denominator
	t := (a*e - b*d) / denominator

	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t)), true
}
