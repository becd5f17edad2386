package visual

import (
	"sync"
	"testing"

	"github.com/akmonengine/xpbd"
	"github.com/akmonengine/xpbd/actor"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBody(t *testing.T, position mgl64.Vec3, colliders ...actor.Collider) *actor.RigidBody {
	t.Helper()

	transform := actor.NewTransform()
	transform.Position = position
	body, err := actor.NewRigidBody(actor.BodyConfig{
		Transform: transform,
		Mass:      1,
		Colliders: colliders,
	})
	require.NoError(t, err)
	return body
}

func TestCache_Mesh(t *testing.T) {
	cache := NewCache()

	sphere, err := cache.Mesh(actor.SphereKind)
	require.NoError(t, err)
	assert.Len(t, sphere.Positions, (defaultSphereRings+1)*(defaultSphereSlices+1))
	assert.Len(t, sphere.Indices, defaultSphereRings*defaultSphereSlices*6)
	for _, p := range sphere.Positions {
		assert.InDelta(t, 1.0, p.Len(), 1e-5)
	}

	box, err := cache.Mesh(actor.ConvexHullKind)
	require.NoError(t, err)
	assert.Len(t, box.Positions, 36)
	assert.Len(t, box.Normals, 36)

	again, err := cache.Mesh(actor.SphereKind)
	require.NoError(t, err)
	assert.Same(t, sphere, again)
	assert.Equal(t, 2, cache.Len())
}

func TestCache_UnknownKind(t *testing.T) {
	_, err := NewCache().Mesh(actor.ColliderKind(42))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestCache_Concurrent(t *testing.T) {
	cache := NewCache()
	meshes := make([]*Mesh, 8)

	var wg sync.WaitGroup
	for i := range meshes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			meshes[i], _ = cache.Mesh(actor.SphereKind)
		}(i)
	}
	wg.Wait()

	for _, mesh := range meshes {
		assert.Same(t, meshes[0], mesh)
	}
}

func TestBoxMesh_OutwardNormals(t *testing.T) {
	mesh := boxMesh()

	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		a := mesh.Positions[mesh.Indices[i]]
		b := mesh.Positions[mesh.Indices[i+1]]
		c := mesh.Positions[mesh.Indices[i+2]]
		centroid := a.Add(b).Add(c).Mul(1.0 / 3.0)

		normal := mesh.Normals[mesh.Indices[i]]
		assert.InDelta(t, 1.0, normal.Len(), 1e-6)
		assert.Greater(t, normal.Dot(centroid), float32(0), "triangle %d faces inward", i/3)
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	hull, err := actor.NewBoxHull(mgl64.Vec3{1, 1, 1})
	require.NoError(t, err)
	body := newBody(t, mgl64.Vec3{}, actor.NewSphere(1), hull)

	registry.Register(body)
	assert.Equal(t, 1, registry.Len())
	kinds, ok := registry.Kinds(body.ID)
	require.True(t, ok)
	assert.Equal(t, []actor.ColliderKind{actor.SphereKind, actor.ConvexHullKind}, kinds)

	cache := NewCache()
	require.NoError(t, registry.Prepare(cache))
	assert.Equal(t, 2, cache.Len())

	registry.Unregister(body.ID)
	assert.Equal(t, 0, registry.Len())
	_, ok = registry.Kinds(body.ID)
	assert.False(t, ok)
}

func TestDrawList(t *testing.T) {
	world := xpbd.NewWorld(xpbd.DefaultConfig())

	sphere := actor.NewSphere(2)
	sphere.Center = mgl64.Vec3{0, 1, 0}
	ball := newBody(t, mgl64.Vec3{5, 0, 0}, sphere)

	hull, err := actor.NewBoxHull(mgl64.Vec3{1, 2, 3})
	require.NoError(t, err)
	crate := newBody(t, mgl64.Vec3{0, 0, -4}, hull)

	hidden := newBody(t, mgl64.Vec3{}, actor.NewSphere(1))

	for _, body := range []*actor.RigidBody{ball, crate, hidden} {
		require.NoError(t, world.AddBody(body))
	}

	registry := NewRegistry()
	registry.Register(ball)
	registry.Register(crate)

	instances := DrawList(world, registry)
	require.Len(t, instances, 2)

	assert.Equal(t, ball.ID, instances[0].BodyID)
	assert.Equal(t, actor.SphereKind, instances[0].Kind)
	// The unit sphere's top maps to the top of the collider
	top := instances[0].Model.Mul4x1(mgl32.Vec4{0, 1, 0, 1}).Vec3()
	assert.True(t, top.ApproxEqualThreshold(mgl32.Vec3{5, 3, 0}, 1e-5), "top = %v", top)

	assert.Equal(t, crate.ID, instances[1].BodyID)
	assert.Equal(t, actor.ConvexHullKind, instances[1].Kind)
	corner := instances[1].Model.Mul4x1(mgl32.Vec4{1, 1, 1, 1}).Vec3()
	assert.True(t, corner.ApproxEqualThreshold(mgl32.Vec3{1, 2, -1}, 1e-5), "corner = %v", corner)
}

func TestDrawList_FollowsSimulation(t *testing.T) {
	world := xpbd.NewWorld(xpbd.DefaultConfig())
	ball := newBody(t, mgl64.Vec3{0, 10, 0}, actor.NewSphere(1))
	require.NoError(t, world.AddBody(ball))

	registry := NewRegistry()
	registry.Register(ball)

	before := DrawList(world, registry)[0].Model.Col(3).Y()
	world.Step(1.0 / 60.0)
	after := DrawList(world, registry)[0].Model.Col(3).Y()

	assert.Less(t, after, before)
	assert.InDelta(t, ball.Transform.Position.Y(), float64(after), 1e-5)
}
