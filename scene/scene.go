// Package scene reads simulation setups from TOML or YAML documents and
// builds worlds from them.
//
// A document has a world section, a list of named bodies and a list of
// joints (positional constraints) between named bodies:
//
//	[world]
//	substeps = 10
//	gravity = [0, -9.81, 0]
//
//	[[bodies]]
//	name = "ground"
//	fixed = true
//	colliders = [{ kind = "sphere", radius = 5 }]
package scene

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidScene  = errors.New("scene: invalid scene")
	ErrUnknownBody   = errors.New("scene: unknown body")
	ErrUnknownKind   = errors.New("scene: unknown collider kind")
	ErrUnknownPreset = errors.New("scene: unknown compliance preset")
)

// DefaultDt is the tick duration used when the document gives none
const DefaultDt = 1.0 / 60.0

type Scene struct {
	World  World   `toml:"world" yaml:"world"`
	Bodies []Body  `toml:"bodies" yaml:"bodies"`
	Joints []Joint `toml:"joints" yaml:"joints"`
}

// World holds the simulation parameters. Zero values fall back to xpbd.DefaultConfig.
type World struct {
	Dt                 float64       `toml:"dt" yaml:"dt"`
	Substeps           int           `toml:"substeps" yaml:"substeps"`
	PositionIterations int           `toml:"position_iterations" yaml:"position_iterations"`
	Gravity            *[3]float64   `toml:"gravity" yaml:"gravity"`
	Collisions         *bool         `toml:"collisions" yaml:"collisions"`
	Workers            int           `toml:"workers" yaml:"workers"`
	Deactivation       *Deactivation `toml:"deactivation" yaml:"deactivation"`
}

type Deactivation struct {
	Time             float64 `toml:"time" yaml:"time"`
	LinearThreshold  float64 `toml:"linear_threshold" yaml:"linear_threshold"`
	AngularThreshold float64 `toml:"angular_threshold" yaml:"angular_threshold"`
}

type Body struct {
	Name string `toml:"name" yaml:"name"`

	Position [3]float64  `toml:"position" yaml:"position"`
	Rotation [3]float64  `toml:"rotation" yaml:"rotation"` // euler angles XYZ, degrees
	Scale    *[3]float64 `toml:"scale" yaml:"scale"`

	Mass     float64 `toml:"mass" yaml:"mass"`
	Fixed    bool    `toml:"fixed" yaml:"fixed"`
	Inactive bool    `toml:"inactive" yaml:"inactive"`

	Velocity        [3]float64 `toml:"velocity" yaml:"velocity"`
	AngularVelocity [3]float64 `toml:"angular_velocity" yaml:"angular_velocity"`

	Material  Material   `toml:"material" yaml:"material"`
	Colliders []Collider `toml:"colliders" yaml:"colliders"`
}

type Material struct {
	StaticFriction  float64 `toml:"static_friction" yaml:"static_friction"`
	DynamicFriction float64 `toml:"dynamic_friction" yaml:"dynamic_friction"`
	Restitution     float64 `toml:"restitution" yaml:"restitution"`
}

// Collider is one of:
//   - kind "sphere": radius, optional center
//   - kind "box": half_extents, optional center
//   - kind "hull": vertices and triangle indices
type Collider struct {
	Kind        string       `toml:"kind" yaml:"kind"`
	Center      [3]float64   `toml:"center" yaml:"center"`
	Radius      float64      `toml:"radius" yaml:"radius"`
	HalfExtents [3]float64   `toml:"half_extents" yaml:"half_extents"`
	Vertices    [][3]float64 `toml:"vertices" yaml:"vertices"`
	Indices     []int        `toml:"indices" yaml:"indices"`
}

// Joint keeps two anchors at a distance. Compliance is either a value or
// the name of a preset ("concrete", "wood", "leather", "tendon", "rubber",
// "muscle", "fat").
type Joint struct {
	BodyA      string     `toml:"body_a" yaml:"body_a"`
	BodyB      string     `toml:"body_b" yaml:"body_b"`
	AnchorA    [3]float64 `toml:"anchor_a" yaml:"anchor_a"`
	AnchorB    [3]float64 `toml:"anchor_b" yaml:"anchor_b"`
	Distance   float64    `toml:"distance" yaml:"distance"`
	Compliance float64    `toml:"compliance" yaml:"compliance"`
	Preset     string     `toml:"preset" yaml:"preset"`
}

// Dt returns the tick duration of the scene
func (s *Scene) Dt() float64 {
	if s.World.Dt > 0 {
		return s.World.Dt
	}
	return DefaultDt
}

// Validate checks the document structure: names, references and collider kinds.
// Physical values are checked when the world is built.
func (s *Scene) Validate() error {
	if s.World.Dt < 0 || math.IsNaN(s.World.Dt) {
		return fmt.Errorf("%w: dt %v", ErrInvalidScene, s.World.Dt)
	}
	if s.World.Substeps < 0 || s.World.PositionIterations < 0 || s.World.Workers < 0 {
		return fmt.Errorf("%w: negative substeps, iterations or workers", ErrInvalidScene)
	}

	names := make(map[string]bool, len(s.Bodies))
	for i, body := range s.Bodies {
		if body.Name == "" {
			return fmt.Errorf("%w: body %d has no name", ErrInvalidScene, i)
		}
		if names[body.Name] {
			return fmt.Errorf("%w: duplicate body name %q", ErrInvalidScene, body.Name)
		}
		names[body.Name] = true

		for _, collider := range body.Colliders {
			switch collider.Kind {
			case "sphere", "box", "hull":
			default:
				return fmt.Errorf("%w: %q on body %q", ErrUnknownKind, collider.Kind, body.Name)
			}
		}
	}

	for i, joint := range s.Joints {
		for _, name := range []string{joint.BodyA, joint.BodyB} {
			if !names[name] {
				return fmt.Errorf("%w: %q in joint %d", ErrUnknownBody, name, i)
			}
		}
		if joint.Preset != "" {
			if _, ok := compliancePresets[joint.Preset]; !ok {
				return fmt.Errorf("%w: %q in joint %d", ErrUnknownPreset, joint.Preset, i)
			}
		}
	}

	return nil
}
