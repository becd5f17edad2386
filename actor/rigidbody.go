package actor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

var (
	ErrInvalidCoefficient = errors.New("material coefficient outside [0, 1]")
	ErrInvalidMass        = errors.New("dynamic body mass must be positive and finite")
	ErrNoColliders        = errors.New("rigid body needs at least one collider")
	ErrSingularInertia    = errors.New("inertia tensor is not invertible")
)

// BodyID identifies a rigid body for constraints, events and renderer lookups
type BodyID = uuid.UUID

type Material struct {
	StaticFriction  float64 // 0.0 - 1.0
	DynamicFriction float64 // 0.0 - 1.0, expected <= StaticFriction
	Restitution     float64 // 0= no rebound, 1= perfect restitution
}

// Validate rejects coefficients outside [0, 1]
func (material Material) Validate() error {
	coefficients := []struct {
		name  string
		value float64
	}{
		{"static friction", material.StaticFriction},
		{"dynamic friction", material.DynamicFriction},
		{"restitution", material.Restitution},
	}
	for _, c := range coefficients {
		if !(c.value >= 0 && c.value <= 1) {
			return fmt.Errorf("%w: %s = %v", ErrInvalidCoefficient, c.name, c.value)
		}
	}
	return nil
}

// Force is a force applied at a point, both expressed in world orientation
// relative to the body origin
type Force struct {
	Position mgl64.Vec3
	Force    mgl64.Vec3
}

// BodyConfig describes a rigid body at creation time
type BodyConfig struct {
	ID        BodyID // generated when zero
	Transform Transform
	Mass      float64 // ignored for fixed bodies
	Fixed     bool
	// Inactive creates the body asleep
	Inactive  bool
	Colliders []Collider
	Material  Material

	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	ID BodyID

	// Spatial properties
	PreviousTransform Transform
	Transform         Transform

	// Linear motion
	PresolveVelocity mgl64.Vec3
	Velocity         mgl64.Vec3 // Linear velocity (m/s)

	// Angular motion
	PresolveAngularVelocity mgl64.Vec3
	AngularVelocity         mgl64.Vec3 // rad/s

	InverseMass         float64
	InertiaLocal        mgl64.Mat3 // body space
	InverseInertiaLocal mgl64.Mat3

	Colliders      []Collider
	BoundingRadius float64

	Material Material

	// Fixed bodies have infinite mass and are never moved by the solver
	Fixed bool
	// Active is false while the body is asleep
	Active     bool
	SleepTimer float64

	forces []Force
}

// NewRigidBody validates the configuration and derives mass properties.
// Inertia is computed once here from the colliders and never changes.
func NewRigidBody(config BodyConfig) (*RigidBody, error) {
	if len(config.Colliders) == 0 {
		return nil, ErrNoColliders
	}
	if err := config.Material.Validate(); err != nil {
		return nil, err
	}
	if config.Material.DynamicFriction > config.Material.StaticFriction {
		slog.Warn("dynamic friction exceeds static friction",
			"static", config.Material.StaticFriction,
			"dynamic", config.Material.DynamicFriction)
	}

	id := config.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	transform := config.Transform
	transform.SetRotation(transform.Rotation)
	if transform.Scale == (mgl64.Vec3{}) {
		transform.Scale = mgl64.Vec3{1, 1, 1}
	}

	rb := &RigidBody{
		ID:                id,
		PreviousTransform: transform,
		Transform:         transform,
		Colliders:         config.Colliders,
		Material:          config.Material,
		Fixed:             config.Fixed,
		Active:            !config.Inactive,
	}

	for _, collider := range rb.Colliders {
		rb.BoundingRadius = math.Max(rb.BoundingRadius, collider.BoundingRadius())
	}

	if !rb.Fixed {
		if !(config.Mass > 0) || math.IsInf(config.Mass, 0) {
			return nil, fmt.Errorf("%w: got %v", ErrInvalidMass, config.Mass)
		}

		rb.InverseMass = 1.0 / config.Mass
		rb.InertiaLocal = computeInertia(config.Mass, rb.Colliders)

		inverse, err := invertInertia(rb.InertiaLocal)
		if err != nil {
			return nil, err
		}
		rb.InverseInertiaLocal = inverse

		rb.Velocity = config.Velocity
		rb.AngularVelocity = config.AngularVelocity
	}

	rb.UpdateColliders()

	return rb, nil
}

// computeInertia splits the mass evenly between colliders
func computeInertia(mass float64, colliders []Collider) mgl64.Mat3 {
	share := mass / float64(len(colliders))

	var tensor mgl64.Mat3
	for _, collider := range colliders {
		tensor = tensor.Add(collider.inertia(share))
	}
	return tensor
}

func invertInertia(tensor mgl64.Mat3) (mgl64.Mat3, error) {
	det := tensor.Det()
	if math.Abs(det) < 1e-18 || math.IsNaN(det) || math.IsInf(det, 0) {
		return mgl64.Mat3{}, fmt.Errorf("%w: det = %v", ErrSingularInertia, det)
	}

	inverse := tensor.Inv()
	if !isFinite(inverse) {
		return mgl64.Mat3{}, fmt.Errorf("%w: inverse is not finite", ErrSingularInertia)
	}
	return inverse, nil
}

func isFinite(m mgl64.Mat3) bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Mass returns the body mass, +Inf for fixed bodies
func (rb *RigidBody) Mass() float64 {
	if rb.InverseMass == 0 {
		return math.Inf(1)
	}
	return 1.0 / rb.InverseMass
}

// IsMovable reports whether integration and constraint corrections apply to the body
func (rb *RigidBody) IsMovable() bool {
	return !rb.Fixed && rb.Active
}

// BoundingSphere returns the sphere enclosing every collider at the current pose
func (rb *RigidBody) BoundingSphere() BoundingSphere {
	return BoundingSphere{Center: rb.Transform.Position, Radius: rb.BoundingRadius}
}

// UpdateColliders refreshes the world-space geometry of every collider
func (rb *RigidBody) UpdateColliders() {
	for _, collider := range rb.Colliders {
		collider.UpdateTransform(rb.Transform)
	}
}

// TrySleep puts the body to sleep once its speeds stayed under the thresholds for timeThreshold seconds.
// It returns true when the body fell asleep during this call.
func (rb *RigidBody) TrySleep(dt, timeThreshold, linearThreshold, angularThreshold float64) bool {
	if !rb.IsMovable() {
		return false
	}

	if rb.Velocity.Len() < linearThreshold && rb.AngularVelocity.Len() < angularThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timeThreshold {
			rb.Sleep()
			return true
		}
	} else {
		rb.SleepTimer = 0.0
	}
	return false
}

func (rb *RigidBody) Sleep() {
	rb.Active = false
	rb.SleepTimer = 0.0

	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.Active = true
	rb.SleepTimer = 0.0
}

// Integrate advances the body by h without constraints (semi-implicit Euler).
// Recorded forces are kept so that every substep of a tick sees them.
func (rb *RigidBody) Integrate(h float64, gravity mgl64.Vec3) {
	rb.PreviousTransform.Position = rb.Transform.Position
	rb.PreviousTransform.Rotation = rb.Transform.Rotation
	rb.PreviousTransform.InverseRotation = rb.Transform.InverseRotation

	if !rb.IsMovable() {
		return
	}

	var force, torque mgl64.Vec3
	for _, f := range rb.forces {
		force = force.Add(f.Force)
		torque = torque.Add(f.Position.Cross(f.Force))
	}

	// Linear
	acceleration := gravity.Add(force.Mul(rb.InverseMass))
	rb.Velocity = rb.Velocity.Add(acceleration.Mul(h))
	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(h))

	// Angular, Euler's equation: ω += h * I⁻¹(τ - ω × (I ω))
	inertia := rb.GetInertiaWorld()
	inverseInertia := rb.GetInverseInertiaWorld()
	gyroscopic := rb.AngularVelocity.Cross(inertia.Mul3x1(rb.AngularVelocity))
	rb.AngularVelocity = rb.AngularVelocity.Add(inverseInertia.Mul3x1(torque.Sub(gyroscopic)).Mul(h))

	// q += h * 0.5 * (ω, 0) * q
	omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.SetRotation(rb.Transform.Rotation.Add(qDot.Scale(h)))
}

// Update derives velocities from the pose change of the substep
func (rb *RigidBody) Update(h float64) {
	if !rb.IsMovable() {
		return
	}

	rb.PresolveVelocity = rb.Velocity
	rb.PresolveAngularVelocity = rb.AngularVelocity

	rb.Velocity = rb.Transform.Position.Sub(rb.PreviousTransform.Position).Mul(1.0 / h)
	qDelta := rb.Transform.Rotation.Mul(rb.PreviousTransform.Rotation.Conjugate())
	if qDelta.W >= 0.0 {
		rb.AngularVelocity = qDelta.V.Mul(2.0 / h)
	} else {
		rb.AngularVelocity = qDelta.V.Mul(-2.0 / h)
	}
}

// AddForce records a force for the next tick. With isLocal, position and force
// are in body space; otherwise position is a world point and force a world vector.
func (rb *RigidBody) AddForce(position, force mgl64.Vec3, isLocal bool) {
	if rb.Fixed {
		return
	}
	rb.Awake()

	if isLocal {
		position = rb.Transform.Rotation.Rotate(position)
		force = rb.Transform.Rotation.Rotate(force)
	} else {
		position = position.Sub(rb.Transform.Position)
	}

	rb.forces = append(rb.forces, Force{Position: position, Force: force})
}

// Forces returns the forces recorded for the next tick
func (rb *RigidBody) Forces() []Force {
	return rb.forces
}

func (rb *RigidBody) ClearForces() {
	rb.forces = rb.forces[:0]
}

// ApplyPositionImpulse moves the body by a positional impulse p applied at offset r.
// Rotation follows q += 0.5 * (I⁻¹(r × p), 0) * q.
func (rb *RigidBody) ApplyPositionImpulse(p, r mgl64.Vec3) {
	if rb.Fixed {
		return
	}

	rb.Transform.Position = rb.Transform.Position.Add(p.Mul(rb.InverseMass))

	theta := rb.GetInverseInertiaWorld().Mul3x1(r.Cross(p))
	qDelta := mgl64.Quat{V: theta, W: 0}.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.SetRotation(rb.Transform.Rotation.Add(qDelta))
}

// ApplyVelocityImpulse changes linear and angular velocity by an impulse p applied at offset r
func (rb *RigidBody) ApplyVelocityImpulse(p, r mgl64.Vec3) {
	if rb.Fixed {
		return
	}

	rb.Velocity = rb.Velocity.Add(p.Mul(rb.InverseMass))
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.GetInverseInertiaWorld().Mul3x1(r.Cross(p)))
}

// GeneralizedInverseMass is invM + (r × n)·I⁻¹(r × n), 0 for fixed bodies
func (rb *RigidBody) GeneralizedInverseMass(r, n mgl64.Vec3) float64 {
	if rb.Fixed {
		return 0
	}

	rn := r.Cross(n)
	return rb.InverseMass + rn.Dot(rb.GetInverseInertiaWorld().Mul3x1(rn))
}

// PointVelocity returns the velocity of a point at offset r
func (rb *RigidBody) PointVelocity(r mgl64.Vec3) mgl64.Vec3 {
	return rb.Velocity.Add(rb.AngularVelocity.Cross(r))
}

// PresolvePointVelocity returns the velocity of a point at offset r before the substep's correction
func (rb *RigidBody) PresolvePointVelocity(r mgl64.Vec3) mgl64.Vec3 {
	return rb.PresolveVelocity.Add(rb.PresolveAngularVelocity.Cross(r))
}

// GetInertiaWorld returns the dynamic inertia R·I·Rᵀ
func (rb *RigidBody) GetInertiaWorld() mgl64.Mat3 {
	// I_world = R * I_local * R^T
	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InertiaLocal).Mul3(R.Transpose())
}

// GetInverseInertiaWorld returns R·I⁻¹·Rᵀ, zero for fixed bodies
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.Fixed {
		return mgl64.Mat3{}
	}

	// I_world^(-1) = R * I_local^(-1) * R^T
	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}

// WorldMatrix is the model matrix handed to the renderer
func (rb *RigidBody) WorldMatrix() mgl64.Mat4 {
	return rb.Transform.Matrix()
}
