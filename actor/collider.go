package actor

import "github.com/go-gl/mathgl/mgl64"

// Collider is a shape posed in world space.
// It is the convex support mapping consumed by GJK and EPA.
type Collider struct {
	Shape     Shape
	Transform Transform
	// Margin inflates the support mapping by a sphere of this radius
	Margin float64
}

// SupportWorld returns the world support point of the collider along direction
func (c Collider) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	localDirection := c.Transform.RotateToLocal(direction)
	point := c.Transform.Apply(c.Shape.Support(localDirection))

	if c.Margin > 0 {
		point = point.Add(safeNormalize(direction).Mul(c.Margin))
	}

	return point
}

// Center returns a point inside the collider
func (c Collider) Center() mgl64.Vec3 {
	if plane, ok := c.Shape.(*Plane); ok {
		return c.Transform.Apply(plane.localNormal().Mul(-plane.Distance - planeThickness*0.5))
	}
	return c.Transform.Position
}

// ContactFeature returns the world feature of the collider facing direction
func (c Collider) ContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	local := c.Shape.GetContactFeature(c.Transform.RotateToLocal(direction))
	for i := range local {
		local[i] = c.Transform.Apply(local[i])
	}
	return local
}
