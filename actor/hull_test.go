package actor

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewBoxHull_Topology(t *testing.T) {
	hull, err := NewBoxHull(mgl64.Vec3{1, 2, 3})
	if err != nil {
		t.Fatalf("NewBoxHull() error = %v", err)
	}

	if len(hull.Vertices) != 8 {
		t.Errorf("Expected 8 vertices, got %d", len(hull.Vertices))
	}
	if len(hull.Faces) != 6 {
		t.Fatalf("Expected 6 merged faces, got %d", len(hull.Faces))
	}

	for f, face := range hull.Faces {
		if len(face.Vertices) != 4 {
			t.Errorf("Face %d: expected 4 vertices, got %d", f, len(face.Vertices))
		}
		if len(hull.FaceNeighbors[f]) != 4 {
			t.Errorf("Face %d: expected 4 neighbor faces, got %d", f, len(hull.FaceNeighbors[f]))
		}
		if slices.Contains(hull.FaceNeighbors[f], f) {
			t.Errorf("Face %d lists itself as a neighbor", f)
		}

		// Outward: the face plane has every vertex behind or on it
		offset := face.Normal.Dot(hull.Vertices[face.Vertices[0]])
		if offset <= 0 {
			t.Errorf("Face %d: normal %v does not point outward", f, face.Normal)
		}
		for _, v := range hull.Vertices {
			if face.Normal.Dot(v) > offset+1e-9 {
				t.Errorf("Face %d: vertex %v in front of the face", f, v)
			}
		}

		// Counter-clockwise around the normal
		a := hull.Vertices[face.Vertices[0]]
		b := hull.Vertices[face.Vertices[1]]
		c := hull.Vertices[face.Vertices[2]]
		if b.Sub(a).Cross(c.Sub(a)).Dot(face.Normal) <= 0 {
			t.Errorf("Face %d: polygon is not wound counter-clockwise", f)
		}
	}

	for v := range hull.Vertices {
		if len(hull.VertexFaces[v]) != 3 {
			t.Errorf("Vertex %d: expected 3 incident faces, got %d", v, len(hull.VertexFaces[v]))
		}
		if len(hull.VertexNeighbors[v]) != 3 {
			t.Errorf("Vertex %d: expected 3 neighbors, got %d", v, len(hull.VertexNeighbors[v]))
		}
	}

	// Vertex 0 is (-x,-y,-z): joined to the three vertices differing on one axis
	neighbors := slices.Clone(hull.VertexNeighbors[0])
	slices.Sort(neighbors)
	if !slices.Equal(neighbors, []int{1, 2, 4}) {
		t.Errorf("VertexNeighbors[0] = %v, want [1 2 4]", neighbors)
	}
}

func TestNewConvexHull_IgnoresInputWinding(t *testing.T) {
	vertices, indices := BoxGeometry(mgl64.Vec3{1, 1, 1})
	for i := 0; i < len(indices); i += 3 {
		indices[i+1], indices[i+2] = indices[i+2], indices[i+1]
	}

	hull, err := NewConvexHull(vertices, indices)
	if err != nil {
		t.Fatalf("NewConvexHull() error = %v", err)
	}

	for f, face := range hull.Faces {
		center := hull.Vertices[face.Vertices[0]]
		if face.Normal.Dot(center) <= 0 {
			t.Errorf("Face %d: normal %v points inward", f, face.Normal)
		}
	}
}

func TestNewConvexHull_Tetrahedron(t *testing.T) {
	vertices := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	indices := []int{0, 1, 2, 0, 1, 3, 0, 2, 3, 1, 2, 3}

	hull, err := NewConvexHull(vertices, indices)
	if err != nil {
		t.Fatalf("NewConvexHull() error = %v", err)
	}

	if len(hull.Faces) != 4 {
		t.Fatalf("Expected 4 faces, got %d", len(hull.Faces))
	}
	for f := range hull.Faces {
		if len(hull.FaceNeighbors[f]) != 3 {
			t.Errorf("Face %d: expected 3 neighbors, got %d", f, len(hull.FaceNeighbors[f]))
		}
	}
	for v := range hull.Vertices {
		if len(hull.VertexNeighbors[v]) != 3 {
			t.Errorf("Vertex %d: expected 3 neighbors, got %d", v, len(hull.VertexNeighbors[v]))
		}
	}

	diagonal := mgl64.Vec3{1, 1, 1}.Normalize()
	found := false
	for _, face := range hull.Faces {
		if vec3AlmostEqual(face.Normal, diagonal, 1e-9) {
			found = true
		}
	}
	if !found {
		t.Error("Expected the slanted face normal (1,1,1)/√3")
	}
}

func TestNewConvexHull_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		vertices []mgl64.Vec3
		indices  []int
	}{
		{
			name:     "too few vertices",
			vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			indices:  []int{0, 1, 2, 0, 2, 1, 0, 1, 2, 0, 2, 1},
		},
		{
			name:     "index out of range",
			vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			indices:  []int{0, 1, 2, 0, 1, 3, 0, 2, 3, 1, 2, 9},
		},
		{
			name:     "not a triangle list",
			vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			indices:  []int{0, 1, 2, 0},
		},
		{
			name:     "flat",
			vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
			indices:  []int{0, 1, 2, 1, 3, 2, 0, 2, 1, 1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConvexHull(tt.vertices, tt.indices)
			if !errors.Is(err, ErrInvalidHull) {
				t.Errorf("Expected ErrInvalidHull, got %v", err)
			}
		})
	}

	if _, err := NewBoxHull(mgl64.Vec3{1, -1, 1}); !errors.Is(err, ErrInvalidHull) {
		t.Errorf("Expected ErrInvalidHull for negative half extents, got %v", err)
	}
}

func TestConvexHull_UpdateTransformAndSupport(t *testing.T) {
	hull, _ := NewBoxHull(mgl64.Vec3{1, 1, 1})

	transform := NewTransform()
	transform.Position = mgl64.Vec3{10, 0, 0}
	transform.SetRotation(mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}))
	hull.UpdateTransform(transform)

	// Rotated 45° around Z, the +X extent is the corner at √2
	support := hull.Support(mgl64.Vec3{1, 0, 0})
	if !almostEqual(support.X(), 10+math.Sqrt2, 1e-9) {
		t.Errorf("Support(+X).X = %v, want %v", support.X(), 10+math.Sqrt2)
	}

	// Local geometry is untouched
	if hull.Vertices[7] != (mgl64.Vec3{1, 1, 1}) {
		t.Errorf("Local vertex changed to %v", hull.Vertices[7])
	}

	for f, face := range hull.Faces {
		want := transform.Rotation.Rotate(face.Normal)
		if !vec3AlmostEqual(hull.WorldNormal(f), want, 1e-12) {
			t.Errorf("WorldNormal(%d) = %v, want %v", f, hull.WorldNormal(f), want)
		}
		polygon := hull.WorldPolygon(f)
		if !vec3AlmostEqual(polygon[0], transform.ToWorld(hull.Vertices[face.Vertices[0]]), 1e-12) {
			t.Errorf("WorldPolygon(%d)[0] = %v, not transformed", f, polygon[0])
		}
	}
}

func TestConvexHull_Inertia(t *testing.T) {
	hull, _ := NewBoxHull(mgl64.Vec3{1, 1, 1})

	// One unit of mass on each corner: Ixx = Σ (y² + z²) = 8 * 2
	inertia := hull.inertia(8)
	for i := 0; i < 3; i++ {
		if !almostEqual(inertia.At(i, i), 16, 1e-9) {
			t.Errorf("inertia[%d,%d] = %v, want 16", i, i, inertia.At(i, i))
		}
	}
	if !almostEqual(inertia.At(0, 1), 0, 1e-9) {
		t.Errorf("inertia[0,1] = %v, want 0", inertia.At(0, 1))
	}
	if !almostEqual(hull.BoundingRadius(), math.Sqrt(3), 1e-12) {
		t.Errorf("BoundingRadius = %v, want √3", hull.BoundingRadius())
	}
}
