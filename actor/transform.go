package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a pose in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
	// Scale only affects the rendered model matrix, colliders are authored at scale.
	Scale mgl64.Vec3
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
		Scale:           mgl64.Vec3{1, 1, 1},
	}
}

// SetRotation stores a normalized rotation and its inverse
func (t *Transform) SetRotation(rotation mgl64.Quat) {
	t.Rotation = rotation.Normalize()
	t.InverseRotation = t.Rotation.Conjugate()
}

// ToWorld maps a body-local point to world space
func (t Transform) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Rotation.Rotate(local))
}

// ToLocal maps a world point to body-local space
func (t Transform) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(world.Sub(t.Position))
}

// Matrix composes translation, rotation and scale into a model matrix (T·R·S).
func (t Transform) Matrix() mgl64.Mat4 {
	scale := t.Scale
	if scale == (mgl64.Vec3{}) {
		scale = mgl64.Vec3{1, 1, 1}
	}

	translation := mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	return translation.Mul4(t.Rotation.Mat4()).Mul4(mgl64.Scale3D(scale.X(), scale.Y(), scale.Z()))
}
