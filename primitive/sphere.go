package primitive

import (
	"math"

	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// SphereSphere tests two spheres
func SphereSphere(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	sa := a.Shape.(*actor.Sphere)
	sb := b.Shape.(*actor.Sphere)

	return sphereContact(a.Transform.Position, sa.Radius, b.Transform.Position, sb.Radius, envelope)
}

// SphereBox tests a sphere against an oriented box
func SphereBox(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	sphere := a.Shape.(*actor.Sphere)
	box := b.Shape.(*actor.Box)

	center := a.Transform.Position
	local := b.Transform.ToLocal(center)
	half := box.HalfExtents

	closest := local
	for i := 0; i < 3; i++ {
		closest[i] = clamp(closest[i], -half[i], half[i])
	}

	var (
		// from the box toward the sphere center, in box space
		localNormal mgl64.Vec3
		separation  float64
	)

	if closest != local {
		delta := local.Sub(closest)
		dist := delta.Len()
		separation = dist - sphere.Radius
		if separation > envelope {
			return mgl64.Vec3{}, nil
		}
		localNormal = delta.Mul(1 / dist)
	} else {
		// center inside: push out through the nearest face
		axis, sign, depth := 0, 1.0, half[0]-math.Abs(local[0])
		for i := 1; i < 3; i++ {
			if d := half[i] - math.Abs(local[i]); d < depth {
				axis, depth = i, d
			}
		}
		if local[axis] < 0 {
			sign = -1
		}

		closest[axis] = sign * half[axis]
		localNormal[axis] = sign
		separation = -depth - sphere.Radius
	}

	// sphere toward box
	normal := b.Transform.Rotate(localNormal).Mul(-1)
	pointA := center.Add(normal.Mul(sphere.Radius))
	pointB := b.Transform.Apply(closest)

	return normal, []constraint.ContactPoint{contactBetween(pointA, pointB, separation)}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
