package actor

import "github.com/go-gl/mathgl/mgl64"

// BoundingSphere bounds every collider of a body around its world position
type BoundingSphere struct {
	Center mgl64.Vec3
	Radius float64
}

// ContainsPoint checks if a point is inside the sphere
func (s BoundingSphere) ContainsPoint(point mgl64.Vec3) bool {
	return point.Sub(s.Center).LenSqr() <= s.Radius*s.Radius
}

// Overlaps checks if two spheres are within margin of each other
func (s BoundingSphere) Overlaps(other BoundingSphere, margin float64) bool {
	reach := s.Radius + other.Radius + margin
	return s.Center.Sub(other.Center).LenSqr() <= reach*reach
}
