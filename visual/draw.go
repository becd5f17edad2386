package visual

import (
	"math"

	"github.com/akmonengine/xpbd"
	"github.com/akmonengine/xpbd/actor"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Instance is one collider to draw with the mesh of its kind
type Instance struct {
	BodyID actor.BodyID
	Kind   actor.ColliderKind
	Model  mgl32.Mat4
}

// Registry is the set of bodies the renderer draws, with the kinds of their colliders
type Registry struct {
	kinds map[actor.BodyID][]actor.ColliderKind
}

func NewRegistry() *Registry {
	return &Registry{kinds: make(map[actor.BodyID][]actor.ColliderKind)}
}

// Register records a body and the kind of each of its colliders
func (r *Registry) Register(body *actor.RigidBody) {
	kinds := make([]actor.ColliderKind, len(body.Colliders))
	for i, collider := range body.Colliders {
		kinds[i] = collider.Kind()
	}
	r.kinds[body.ID] = kinds
}

func (r *Registry) Unregister(id actor.BodyID) {
	delete(r.kinds, id)
}

// Kinds returns the collider kinds of a registered body
func (r *Registry) Kinds(id actor.BodyID) ([]actor.ColliderKind, bool) {
	kinds, ok := r.kinds[id]
	return kinds, ok
}

func (r *Registry) Len() int {
	return len(r.kinds)
}

// Prepare builds the meshes of every registered kind ahead of the first frame
func (r *Registry) Prepare(cache *Cache) error {
	for _, kinds := range r.kinds {
		for _, kind := range kinds {
			if _, err := cache.Mesh(kind); err != nil {
				return err
			}
		}
	}
	return nil
}

// DrawList returns one instance per collider of every registered body of the
// world, in the world's body order
func DrawList(world *xpbd.World, registry *Registry) []Instance {
	var instances []Instance

	for _, body := range world.Bodies() {
		if _, ok := registry.kinds[body.ID]; !ok {
			continue
		}

		bodyMatrix := body.WorldMatrix()
		for _, collider := range body.Colliders {
			instances = append(instances, Instance{
				BodyID: body.ID,
				Kind:   collider.Kind(),
				Model:  mat4To32(bodyMatrix.Mul4(colliderMatrix(collider))),
			})
		}
	}

	return instances
}

// colliderMatrix places the unit mesh of the collider's kind in body space
func colliderMatrix(collider actor.Collider) mgl64.Mat4 {
	switch c := collider.(type) {
	case *actor.Sphere:
		return mgl64.Translate3D(c.Center.X(), c.Center.Y(), c.Center.Z()).
			Mul4(mgl64.Scale3D(c.Radius, c.Radius, c.Radius))

	case *actor.ConvexHull:
		// Bounding box of the local vertices
		lower := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
		upper := lower.Mul(-1)
		for _, v := range c.Vertices {
			for i := range v {
				lower[i] = math.Min(lower[i], v[i])
				upper[i] = math.Max(upper[i], v[i])
			}
		}
		center := lower.Add(upper).Mul(0.5)
		half := upper.Sub(lower).Mul(0.5)
		return mgl64.Translate3D(center.X(), center.Y(), center.Z()).
			Mul4(mgl64.Scale3D(half.X(), half.Y(), half.Z()))
	}

	return mgl64.Ident4()
}
