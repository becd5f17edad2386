// Package visual is the renderer-facing side of the simulation: a cache of
// CPU meshes shared by every collider of the same kind, and per-tick draw
// lists of float32 model matrices. Uploading and drawing is left to the
// renderer.
package visual

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/akmonengine/xpbd/actor"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrUnknownKind is returned for a collider kind without a mesh
var ErrUnknownKind = errors.New("visual: unknown collider kind")

// defaultSphereRings and defaultSphereSlices control sphere mesh resolution.
const (
	defaultSphereRings  = 16
	defaultSphereSlices = 16
)

// Mesh is an indexed triangle list in model space.
// The sphere mesh has radius 1, the hull mesh is the [-1, 1] cube; instances
// scale them to the collider.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32
}

// Cache maps collider kinds to meshes. Meshes are created on first use and
// shared by every instance of the kind.
type Cache struct {
	mu     sync.Mutex
	meshes map[actor.ColliderKind]*Mesh
}

func NewCache() *Cache {
	return &Cache{meshes: make(map[actor.ColliderKind]*Mesh)}
}

// Mesh returns the shared mesh of a kind, building it once
func (c *Cache) Mesh(kind actor.ColliderKind) (*Mesh, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mesh, ok := c.meshes[kind]; ok {
		return mesh, nil
	}

	var mesh *Mesh
	switch kind {
	case actor.SphereKind:
		mesh = sphereMesh(defaultSphereRings, defaultSphereSlices)
	case actor.ConvexHullKind:
		mesh = boxMesh()
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}

	c.meshes[kind] = mesh
	return mesh, nil
}

// Len returns the number of meshes built so far
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.meshes)
}

// sphereMesh builds a UV sphere of radius 1
func sphereMesh(rings, slices int) *Mesh {
	mesh := &Mesh{}

	for ring := 0; ring <= rings; ring++ {
		phi := math.Pi * float64(ring) / float64(rings)
		for slice := 0; slice <= slices; slice++ {
			theta := 2 * math.Pi * float64(slice) / float64(slices)
			p := mgl32.Vec3{
				float32(math.Sin(phi) * math.Cos(theta)),
				float32(math.Cos(phi)),
				float32(math.Sin(phi) * math.Sin(theta)),
			}
			mesh.Positions = append(mesh.Positions, p)
			mesh.Normals = append(mesh.Normals, p)
		}
	}

	stride := uint32(slices + 1)
	for ring := uint32(0); ring < uint32(rings); ring++ {
		for slice := uint32(0); slice < uint32(slices); slice++ {
			a := ring*stride + slice
			b := a + stride
			mesh.Indices = append(mesh.Indices, a, a+1, b, a+1, b+1, b)
		}
	}

	return mesh
}

// boxMesh builds the [-1, 1] cube from the box hull geometry, with one
// vertex per triangle corner so that faces are flat shaded
func boxMesh() *Mesh {
	vertices, indices := actor.BoxGeometry(mgl64.Vec3{1, 1, 1})
	mesh := &Mesh{}

	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := vertices[indices[i]], vertices[indices[i+1]], vertices[indices[i+2]]
		normal := b.Sub(a).Cross(c.Sub(a)).Normalize()

		for _, p := range []mgl64.Vec3{a, b, c} {
			mesh.Indices = append(mesh.Indices, uint32(len(mesh.Positions)))
			mesh.Positions = append(mesh.Positions, vec3To32(p))
			mesh.Normals = append(mesh.Normals, vec3To32(normal))
		}
	}

	return mesh
}

func vec3To32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func mat4To32(m mgl64.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}
