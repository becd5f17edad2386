package scene

import (
	"fmt"

	"github.com/akmonengine/xpbd"
	"github.com/akmonengine/xpbd/actor"
	"github.com/akmonengine/xpbd/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

var compliancePresets = map[string]float64{
	"concrete": constraint.ConcreteCompliance,
	"wood":     constraint.WoodCompliance,
	"leather":  constraint.LeatherCompliance,
	"tendon":   constraint.TendonCompliance,
	"rubber":   constraint.RubberCompliance,
	"muscle":   constraint.MuscleCompliance,
	"fat":      constraint.FatCompliance,
}

// Config returns the world configuration of the scene over xpbd.DefaultConfig
func (s *Scene) Config() xpbd.Config {
	config := xpbd.DefaultConfig()
	w := s.World

	if w.Substeps > 0 {
		config.Substeps = w.Substeps
	}
	if w.PositionIterations > 0 {
		config.PositionIterations = w.PositionIterations
	}
	if w.Gravity != nil {
		config.Gravity = mgl64.Vec3(*w.Gravity)
	}
	if w.Collisions != nil {
		config.CollisionsEnabled = *w.Collisions
	}
	if w.Workers > 0 {
		config.Workers = w.Workers
	}
	if d := w.Deactivation; d != nil {
		config.Deactivation.Enabled = true
		if d.Time > 0 {
			config.Deactivation.Time = d.Time
		}
		if d.LinearThreshold > 0 {
			config.Deactivation.LinearThreshold = d.LinearThreshold
		}
		if d.AngularThreshold > 0 {
			config.Deactivation.AngularThreshold = d.AngularThreshold
		}
	}

	return config
}

// Build creates the world, its bodies and joints. Bodies are added in document
// order and returned by name.
func (s *Scene) Build() (*xpbd.World, map[string]*actor.RigidBody, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	world := xpbd.NewWorld(s.Config())
	bodies := make(map[string]*actor.RigidBody, len(s.Bodies))

	for _, b := range s.Bodies {
		body, err := b.build()
		if err != nil {
			return nil, nil, fmt.Errorf("scene: body %q: %w", b.Name, err)
		}
		if err := world.AddBody(body); err != nil {
			return nil, nil, fmt.Errorf("scene: body %q: %w", b.Name, err)
		}
		bodies[b.Name] = body
	}

	for i, j := range s.Joints {
		compliance := j.Compliance
		if j.Preset != "" {
			compliance = compliancePresets[j.Preset]
		}

		c, err := constraint.NewPositionalConstraint(bodies[j.BodyA], bodies[j.BodyB],
			mgl64.Vec3(j.AnchorA), mgl64.Vec3(j.AnchorB), j.Distance, compliance)
		if err != nil {
			return nil, nil, fmt.Errorf("scene: joint %d: %w", i, err)
		}
		if err := world.AddConstraint(c); err != nil {
			return nil, nil, fmt.Errorf("scene: joint %d: %w", i, err)
		}
	}

	return world, bodies, nil
}

func (b Body) build() (*actor.RigidBody, error) {
	colliders := make([]actor.Collider, 0, len(b.Colliders))
	for _, c := range b.Colliders {
		collider, err := c.build()
		if err != nil {
			return nil, err
		}
		colliders = append(colliders, collider)
	}

	transform := actor.NewTransform()
	transform.Position = mgl64.Vec3(b.Position)
	transform.SetRotation(mgl64.AnglesToQuat(
		mgl64.DegToRad(b.Rotation[0]),
		mgl64.DegToRad(b.Rotation[1]),
		mgl64.DegToRad(b.Rotation[2]),
		mgl64.XYZ,
	))
	if b.Scale != nil {
		transform.Scale = mgl64.Vec3(*b.Scale)
	}

	return actor.NewRigidBody(actor.BodyConfig{
		Transform: transform,
		Mass:      b.Mass,
		Fixed:     b.Fixed,
		Inactive:  b.Inactive,
		Colliders: colliders,
		Material: actor.Material{
			StaticFriction:  b.Material.StaticFriction,
			DynamicFriction: b.Material.DynamicFriction,
			Restitution:     b.Material.Restitution,
		},
		Velocity:        mgl64.Vec3(b.Velocity),
		AngularVelocity: mgl64.Vec3(b.AngularVelocity),
	})
}

func (c Collider) build() (actor.Collider, error) {
	center := mgl64.Vec3(c.Center)

	switch c.Kind {
	case "sphere":
		if !(c.Radius > 0) {
			return nil, fmt.Errorf("%w: sphere radius %v", ErrInvalidScene, c.Radius)
		}
		sphere := actor.NewSphere(c.Radius)
		sphere.Center = center
		return sphere, nil

	case "box":
		halfExtents := mgl64.Vec3(c.HalfExtents)
		if !(halfExtents.X() > 0 && halfExtents.Y() > 0 && halfExtents.Z() > 0) {
			return nil, fmt.Errorf("%w: half extents %v must be positive", actor.ErrInvalidHull, halfExtents)
		}
		vertices, indices := actor.BoxGeometry(halfExtents)
		return newHull(vertices, indices, center)

	case "hull":
		vertices := make([]mgl64.Vec3, len(c.Vertices))
		for i, v := range c.Vertices {
			vertices[i] = mgl64.Vec3(v)
		}
		return newHull(vertices, c.Indices, center)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
}

func newHull(vertices []mgl64.Vec3, indices []int, center mgl64.Vec3) (actor.Collider, error) {
	for i := range vertices {
		vertices[i] = vertices[i].Add(center)
	}

	hull, err := actor.NewConvexHull(vertices, indices)
	if err != nil {
		return nil, err
	}
	return hull, nil
}
