package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ColliderKind identifies the concrete shape behind a Collider
type ColliderKind int

const (
	SphereKind ColliderKind = iota
	ConvexHullKind
)

func (k ColliderKind) String() string {
	switch k {
	case SphereKind:
		return "sphere"
	case ConvexHullKind:
		return "convex_hull"
	default:
		return "unknown"
	}
}

// Collider is the collision geometry owned by a rigid body.
// It is implemented by *Sphere and *ConvexHull only; callers switch on the
// concrete type (or on Kind) to reach shape specific data.
type Collider interface {
	Kind() ColliderKind
	// UpdateTransform recomputes the world-space geometry for the owning body's pose
	UpdateTransform(transform Transform)
	// Support returns the world-space point farthest along direction
	Support(direction mgl64.Vec3) mgl64.Vec3
	// BoundingRadius is the collider's extent around the body origin
	BoundingRadius() float64

	inertia(mass float64) mgl64.Mat3
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Center mgl64.Vec3 // body-local
	Radius float64

	worldCenter mgl64.Vec3
}

// NewSphere creates a sphere centered on the body origin
func NewSphere(radius float64) *Sphere {
	return &Sphere{Radius: radius}
}

func (s *Sphere) Kind() ColliderKind {
	return SphereKind
}

func (s *Sphere) UpdateTransform(transform Transform) {
	s.worldCenter = transform.ToWorld(s.Center)
}

// WorldCenter returns the center computed by the last UpdateTransform
func (s *Sphere) WorldCenter() mgl64.Vec3 {
	return s.worldCenter
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	length := direction.Len()
	if length < 1e-12 {
		return s.worldCenter
	}
	return s.worldCenter.Add(direction.Mul(s.Radius / length))
}

func (s *Sphere) BoundingRadius() float64 {
	return s.Center.Len() + s.Radius
}

func (s *Sphere) inertia(mass float64) mgl64.Mat3 {
	// Solid sphere: I = (2/5) * m * r², shifted to the body origin
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius

	return mgl64.Mat3{
		i, 0, 0,
		0, i, 0,
		0, 0, i,
	}.Add(pointMassInertia(mass, s.Center))
}

// pointMassInertia is the inertia of a point mass at r about the origin
func pointMassInertia(mass float64, r mgl64.Vec3) mgl64.Mat3 {
	x, y, z := r.X(), r.Y(), r.Z()

	return mgl64.Mat3{
		y*y + z*z, -x * y, -x * z,
		-x * y, x*x + z*z, -y * z,
		-x * z, -y * z, x*x + y*y,
	}.Mul(mass)
}

// getTangentBasis returns two unit vectors orthogonal to normal and to each other
func getTangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
