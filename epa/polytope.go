package epa

import (
	"fmt"
	"sync"

	"github.com/akmonengine/xpbd/gjk"
	"github.com/akmonengine/xpbd/internal/edgeset"
	"github.com/go-gl/mathgl/mgl64"
)

// Face is a triangle of the polytope. Indices are wound counter-clockwise
// seen from outside, so (v1-v0)×(v2-v0) points along Normal.
type Face struct {
	Indices  [3]int
	Normal   mgl64.Vec3 // Unit normal pointing away from the origin
	Distance float64    // Distance from the origin to the face plane
}

// PolytopeBuilder manages polytope expansion with reusable buffers.
type PolytopeBuilder struct {
	vertices []mgl64.Vec3
	faces    []Face

	// Faces kept during an expansion, swapped with faces afterwards
	scratch []Face

	// Horizon edges of the visible region
	horizon *edgeset.Set
}

// polytopeBuilderPool is the sync.Pool for PolytopeBuilder instances.
// This eliminates allocation of builder structures during EPA iterations.
var polytopeBuilderPool = sync.Pool{
	New: func() interface{} {
		return &PolytopeBuilder{
			vertices: make([]mgl64.Vec3, 0, polytopeInitialCapacity),
			faces:    make([]Face, 0, polytopeInitialCapacity),
			scratch:  make([]Face, 0, polytopeInitialCapacity),
			horizon:  edgeset.New(polytopeInitialCapacity),
		}
	},
}

// Reset prepares the builder for reuse by clearing all slices.
func (b *PolytopeBuilder) Reset() {
	b.vertices = b.vertices[:0]
	b.faces = b.faces[:0]
	b.scratch = b.scratch[:0]
	b.horizon.Reset()
}

// Vertices returns the polytope vertices
func (b *PolytopeBuilder) Vertices() []mgl64.Vec3 {
	return b.vertices
}

// Faces returns the current polytope faces
func (b *PolytopeBuilder) Faces() []Face {
	return b.faces
}

// BuildInitialFaces creates the initial polytope from a GJK tetrahedron simplex:
// faces ABC, ACD, ADB and BCD, each oriented away from the origin.
//
// A face whose plane passes through the origin is oriented so that the
// remaining vertices lie behind it. If they are coplanar with it too, the
// tetrahedron is flat and ErrDegeneratePolytope is returned.
func (b *PolytopeBuilder) BuildInitialFaces(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return fmt.Errorf("%w: %d points (expected 4)", ErrInvalidSimplex, simplex.Count)
	}

	b.vertices = append(b.vertices, simplex.Points[:4]...)

	candidates := [4][3]int{
		{0, 1, 2}, // ABC
		{0, 2, 3}, // ACD
		{0, 3, 1}, // ADB
		{1, 2, 3}, // BCD
	}

	for _, indices := range candidates {
		face, err := b.orientedFace(indices)
		if err != nil {
			return err
		}
		b.faces = append(b.faces, face)
	}

	return nil
}

// orientedFace builds a face from 3 vertex indices, flipping its winding
// when the normal points toward the origin
func (b *PolytopeBuilder) orientedFace(indices [3]int) (Face, error) {
	face, ok := b.newFace(indices[0], indices[1], indices[2])
	if !ok {
		return Face{}, fmt.Errorf("%w: zero area face %v", ErrDegeneratePolytope, indices)
	}

	switch {
	case face.Distance > PlaneTolerance:
		return face, nil
	case face.Distance < -PlaneTolerance:
		return face.flipped(), nil
	}

	// The origin lies on the face plane: the polytope is convex, so every other
	// vertex must be behind the face
	origin := b.vertices[indices[0]]
	for i, vertex := range b.vertices {
		if i == indices[0] || i == indices[1] || i == indices[2] {
			continue
		}
		side := face.Normal.Dot(vertex.Sub(origin))
		if side > PlaneTolerance {
			return face.flipped(), nil
		}
		if side < -PlaneTolerance {
			return face, nil
		}
	}

	return Face{}, fmt.Errorf("%w: coplanar vertices", ErrDegeneratePolytope)
}

// newFace builds the face (i, j, k) with the normal given by its winding.
// It reports false for a zero area triangle.
func (b *PolytopeBuilder) newFace(i, j, k int) (Face, bool) {
	v0, v1, v2 := b.vertices[i], b.vertices[j], b.vertices[k]
	normal := v1.Sub(v0).Cross(v2.Sub(v0))

	length := normal.Len()
	if length < 1e-12 {
		return Face{}, false
	}
	normal = normal.Mul(1.0 / length)

	return Face{
		Indices:  [3]int{i, j, k},
		Normal:   normal,
		Distance: normal.Dot(v0),
	}, true
}

func (f Face) flipped() Face {
	return Face{
		Indices:  [3]int{f.Indices[0], f.Indices[2], f.Indices[1]},
		Normal:   f.Normal.Mul(-1),
		Distance: -f.Distance,
	}
}

// FindClosestFaceIndex returns the index of the face closest to the origin.
// Returns -1 if no faces exist.
func (b *PolytopeBuilder) FindClosestFaceIndex() int {
	if len(b.faces) == 0 {
		return -1
	}

	closestIndex := 0
	minDistance := b.faces[0].Distance

	for i := 1; i < len(b.faces); i++ {
		if b.faces[i].Distance < minDistance {
			closestIndex = i
			minDistance = b.faces[i].Distance
		}
	}

	return closestIndex
}

// centroid returns the average of the face vertices
func (b *PolytopeBuilder) centroid(face Face) mgl64.Vec3 {
	sum := b.vertices[face.Indices[0]].Add(b.vertices[face.Indices[1]]).Add(b.vertices[face.Indices[2]])
	return sum.Mul(1.0 / 3.0)
}

// AddPoint expands the polytope by adding a support point.
// This is the main EPA expansion step that:
//  1. Removes the faces that see the support point, tested from their centroid
//  2. Toggles their edges into the horizon set, shared edges cancel out
//  3. Creates a new face from each horizon edge to the support point
//
// It reports false, leaving the polytope unchanged, when no face sees the point.
func (b *PolytopeBuilder) AddPoint(support mgl64.Vec3) (bool, error) {
	b.horizon.Reset()
	kept := b.scratch[:0]

	for _, face := range b.faces {
		if face.Normal.Dot(support.Sub(b.centroid(face))) <= 0 {
			kept = append(kept, face)
			continue
		}

		b.horizon.Toggle(edgeset.Edge{A: face.Indices[0], B: face.Indices[1]})
		b.horizon.Toggle(edgeset.Edge{A: face.Indices[1], B: face.Indices[2]})
		b.horizon.Toggle(edgeset.Edge{A: face.Indices[2], B: face.Indices[0]})
	}

	if len(kept) == len(b.faces) {
		return false, nil
	}
	if b.horizon.Len() == 0 {
		return false, fmt.Errorf("%w: support point sees every face", ErrDegeneratePolytope)
	}

	index := len(b.vertices)
	b.vertices = append(b.vertices, support)

	// Horizon edges keep the winding of the removed faces,
	// so the new faces are wound outward as well
	for _, edge := range b.horizon.Edges() {
		face, ok := b.newFace(edge.A, edge.B, index)
		if !ok {
			return false, fmt.Errorf("%w: zero area face on edge %v", ErrDegeneratePolytope, edge)
		}
		kept = append(kept, face)
	}

	b.faces, b.scratch = kept, b.faces[:0]

	return true, nil
}
