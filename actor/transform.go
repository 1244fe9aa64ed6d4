package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform represents a position and orientation in 3D space.
// A zero Rotation is treated as the identity, other rotations are normalized on use.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}
}

// Mul composes t with a transform expressed in t's local frame.
func (t Transform) Mul(local Transform) Transform {
	t = t.normalized()
	local = local.normalized()

	return Transform{
		Position: t.Apply(local.Position),
		Rotation: t.Rotation.Mul(local.Rotation).Normalize(),
	}
}

// Apply transforms a local point to world space
func (t Transform) Apply(point mgl64.Vec3) mgl64.Vec3 {
	t = t.normalized()
	return t.Rotation.Rotate(point).Add(t.Position)
}

// Rotate rotates a local direction to world space
func (t Transform) Rotate(direction mgl64.Vec3) mgl64.Vec3 {
	return t.normalized().Rotation.Rotate(direction)
}

// ToLocal transforms a world point into the local frame
func (t Transform) ToLocal(point mgl64.Vec3) mgl64.Vec3 {
	t = t.normalized()
	return t.Rotation.Conjugate().Rotate(point.Sub(t.Position))
}

// RotateToLocal rotates a world direction into the local frame
func (t Transform) RotateToLocal(direction mgl64.Vec3) mgl64.Vec3 {
	return t.normalized().Rotation.Conjugate().Rotate(direction)
}

// Axes returns the local X, Y, Z axes expressed in world space
func (t Transform) Axes() [3]mgl64.Vec3 {
	m := t.normalized().Rotation.Mat4().Mat3()
	return [3]mgl64.Vec3{m.Col(0), m.Col(1), m.Col(2)}
}

func (t Transform) normalized() Transform {
	l := t.Rotation.Len()
	switch {
	case l < 1e-12 || math.IsNaN(l):
		t.Rotation = mgl64.QuatIdent()
	case math.Abs(l-1) > 1e-9:
		t.Rotation = t.Rotation.Scale(1 / l)
	}
	return t
}
