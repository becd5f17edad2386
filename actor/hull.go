package actor

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/akmonengine/xpbd/internal/edgeset"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidHull is returned when vertex/index lists do not describe a closed convex solid
var ErrInvalidHull = errors.New("invalid convex hull")

const (
	// coplanarTolerance merges triangles into a single polygon face
	coplanarTolerance = 1e-6
	degenerateArea    = 1e-12
)

// Face is a convex polygon of a hull, wound counter-clockwise around its outward normal
type Face struct {
	Vertices []int
	Normal   mgl64.Vec3
}

// ConvexHull is a convex polyhedron collider.
// Topology is built once by NewConvexHull and never mutated; only the
// world-space copies change on UpdateTransform.
type ConvexHull struct {
	Vertices []mgl64.Vec3 // body-local
	Faces    []Face

	VertexFaces     [][]int // vertex -> incident faces
	VertexNeighbors [][]int // vertex -> vertices joined by a face edge
	FaceNeighbors   [][]int // face -> faces sharing an edge

	worldVertices []mgl64.Vec3
	worldNormals  []mgl64.Vec3
	radius        float64
}

// NewConvexHull builds hull topology from a triangle list. Coplanar triangles
// are merged into polygon faces, and normals are oriented away from the
// hull's centroid whatever the winding of the input.
func NewConvexHull(vertices []mgl64.Vec3, indices []int) (*ConvexHull, error) {
	if len(vertices) < 4 {
		return nil, fmt.Errorf("%w: %d vertices (expected at least 4)", ErrInvalidHull, len(vertices))
	}
	if len(indices) < 12 || len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not a closed triangle list", ErrInvalidHull, len(indices))
	}
	for _, index := range indices {
		if index < 0 || index >= len(vertices) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidHull, index)
		}
	}

	var centroid mgl64.Vec3
	for _, v := range vertices {
		centroid = centroid.Add(v)
	}
	centroid = centroid.Mul(1.0 / float64(len(vertices)))

	type plane struct {
		normal   mgl64.Vec3
		offset   float64
		vertices []int
	}
	var planes []plane

	for i := 0; i < len(indices); i += 3 {
		tri := [3]int{indices[i], indices[i+1], indices[i+2]}
		a, b, c := vertices[tri[0]], vertices[tri[1]], vertices[tri[2]]

		normal := b.Sub(a).Cross(c.Sub(a))
		if normal.Len() < degenerateArea {
			continue
		}
		normal = normal.Normalize()

		triCenter := a.Add(b).Add(c).Mul(1.0 / 3.0)
		if normal.Dot(triCenter.Sub(centroid)) < 0 {
			normal = normal.Mul(-1)
		}
		offset := normal.Dot(a)

		k := slices.IndexFunc(planes, func(p plane) bool {
			return p.normal.Dot(normal) > 1-coplanarTolerance && math.Abs(p.offset-offset) < coplanarTolerance
		})
		if k == -1 {
			planes = append(planes, plane{normal: normal, offset: offset})
			k = len(planes) - 1
		}
		for _, index := range tri {
			if !slices.Contains(planes[k].vertices, index) {
				planes[k].vertices = append(planes[k].vertices, index)
			}
		}
	}

	if len(planes) < 4 {
		return nil, fmt.Errorf("%w: only %d distinct face planes", ErrInvalidHull, len(planes))
	}

	hull := &ConvexHull{
		Vertices:        slices.Clone(vertices),
		Faces:           make([]Face, len(planes)),
		VertexFaces:     make([][]int, len(vertices)),
		VertexNeighbors: make([][]int, len(vertices)),
		FaceNeighbors:   make([][]int, len(planes)),
		worldVertices:   make([]mgl64.Vec3, len(vertices)),
		worldNormals:    make([]mgl64.Vec3, len(planes)),
	}

	for f, p := range planes {
		hull.Faces[f] = Face{Vertices: windPolygon(vertices, p.vertices, p.normal), Normal: p.normal}
	}

	edges := edgeset.New(len(indices))
	edgeFaces := make(map[edgeset.Edge][]int, len(indices))
	for f, face := range hull.Faces {
		for i, v := range face.Vertices {
			hull.VertexFaces[v] = append(hull.VertexFaces[v], f)

			edge := edgeset.Edge{A: v, B: face.Vertices[(i+1)%len(face.Vertices)]}.Undirected()
			edges.Add(edge)
			edgeFaces[edge] = append(edgeFaces[edge], f)
		}
	}

	for _, edge := range edges.Edges() {
		hull.VertexNeighbors[edge.A] = append(hull.VertexNeighbors[edge.A], edge.B)
		hull.VertexNeighbors[edge.B] = append(hull.VertexNeighbors[edge.B], edge.A)

		faces := edgeFaces[edge]
		for _, f := range faces {
			for _, g := range faces {
				if f != g && !slices.Contains(hull.FaceNeighbors[f], g) {
					hull.FaceNeighbors[f] = append(hull.FaceNeighbors[f], g)
				}
			}
		}
	}

	for _, v := range vertices {
		hull.radius = math.Max(hull.radius, v.Len())
	}

	hull.UpdateTransform(NewTransform())

	return hull, nil
}

// windPolygon orders the vertices of a planar face counter-clockwise around normal
func windPolygon(vertices []mgl64.Vec3, polygon []int, normal mgl64.Vec3) []int {
	var center mgl64.Vec3
	for _, index := range polygon {
		center = center.Add(vertices[index])
	}
	center = center.Mul(1.0 / float64(len(polygon)))

	u, w := getTangentBasis(normal)
	angles := make(map[int]float64, len(polygon))
	for _, index := range polygon {
		d := vertices[index].Sub(center)
		angles[index] = math.Atan2(d.Dot(w), d.Dot(u))
	}

	ordered := slices.Clone(polygon)
	slices.SortFunc(ordered, func(a, b int) int {
		if c := cmp.Compare(angles[a], angles[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	return ordered
}

// BoxGeometry returns the vertex and triangle index lists of a box centered on the origin
func BoxGeometry(halfExtents mgl64.Vec3) ([]mgl64.Vec3, []int) {
	hx, hy, hz := halfExtents.X(), halfExtents.Y(), halfExtents.Z()

	vertices := []mgl64.Vec3{
		{-hx, -hy, -hz},
		{+hx, -hy, -hz},
		{-hx, +hy, -hz},
		{+hx, +hy, -hz},
		{-hx, -hy, +hz},
		{+hx, -hy, +hz},
		{-hx, +hy, +hz},
		{+hx, +hy, +hz},
	}

	indices := []int{
		1, 3, 7, 1, 7, 5, // +X
		0, 4, 6, 0, 6, 2, // -X
		2, 6, 7, 2, 7, 3, // +Y
		0, 1, 5, 0, 5, 4, // -Y
		4, 5, 7, 4, 7, 6, // +Z
		0, 2, 3, 0, 3, 1, // -Z
	}

	return vertices, indices
}

// NewBoxHull creates a box shaped convex hull
func NewBoxHull(halfExtents mgl64.Vec3) (*ConvexHull, error) {
	if halfExtents.X() <= 0 || halfExtents.Y() <= 0 || halfExtents.Z() <= 0 {
		return nil, fmt.Errorf("%w: half extents %v must be positive", ErrInvalidHull, halfExtents)
	}

	return NewConvexHull(BoxGeometry(halfExtents))
}

func (h *ConvexHull) Kind() ColliderKind {
	return ConvexHullKind
}

func (h *ConvexHull) UpdateTransform(transform Transform) {
	for i, v := range h.Vertices {
		h.worldVertices[i] = transform.ToWorld(v)
	}
	for i, face := range h.Faces {
		h.worldNormals[i] = transform.Rotation.Rotate(face.Normal)
	}
}

// SupportIndex returns the index of the transformed vertex farthest along direction
func (h *ConvexHull) SupportIndex(direction mgl64.Vec3) int {
	best := 0
	bestDot := math.Inf(-1)
	for i, v := range h.worldVertices {
		if dot := v.Dot(direction); dot > bestDot {
			best, bestDot = i, dot
		}
	}
	return best
}

func (h *ConvexHull) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return h.worldVertices[h.SupportIndex(direction)]
}

func (h *ConvexHull) BoundingRadius() float64 {
	return h.radius
}

// WorldVertex returns a transformed vertex
func (h *ConvexHull) WorldVertex(index int) mgl64.Vec3 {
	return h.worldVertices[index]
}

// WorldNormal returns a transformed face normal
func (h *ConvexHull) WorldNormal(face int) mgl64.Vec3 {
	return h.worldNormals[face]
}

// WorldPolygon returns the transformed vertices of a face, in winding order
func (h *ConvexHull) WorldPolygon(face int) []mgl64.Vec3 {
	polygon := make([]mgl64.Vec3, len(h.Faces[face].Vertices))
	for i, index := range h.Faces[face].Vertices {
		polygon[i] = h.worldVertices[index]
	}
	return polygon
}

// inertia lumps the collider mass evenly on the hull vertices
func (h *ConvexHull) inertia(mass float64) mgl64.Mat3 {
	var tensor mgl64.Mat3
	share := mass / float64(len(h.Vertices))
	for _, v := range h.Vertices {
		tensor = tensor.Add(pointMassInertia(share, v))
	}
	return tensor
}
