package primitive

import (
	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/constraint"
	"github.com/akmonengine/collide/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

// Plane tests take the plane second. The returned normal points from the
// object into the plane, the opposite of the plane normal.

func worldPlane(c actor.Collider) (mgl64.Vec3, float64) {
	return c.Shape.(*actor.Plane).WorldPlane(c.Transform)
}

// planePoint measures point against the plane, inflated by radius. Returns
// false when the point lies farther than envelope above the plane.
func planePoint(point mgl64.Vec3, radius float64, normal mgl64.Vec3, d, envelope float64) (constraint.ContactPoint, bool) {
	surface := point.Sub(normal.Mul(radius))
	separation := surface.Dot(normal) + d
	if separation > envelope {
		return constraint.ContactPoint{}, false
	}

	return constraint.ContactPoint{
		Position:    surface.Sub(normal.Mul(separation * 0.5)),
		Penetration: -separation,
	}, true
}

// SpherePlane tests a sphere against a half-space
func SpherePlane(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	sphere := a.Shape.(*actor.Sphere)
	normal, d := worldPlane(b)

	point, ok := planePoint(a.Transform.Position, sphere.Radius, normal, d, envelope)
	if !ok {
		return mgl64.Vec3{}, nil
	}
	return normal.Mul(-1), []constraint.ContactPoint{point}
}

// BoxPlane tests the 8 corners of a box against a half-space
func BoxPlane(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	box := a.Shape.(*actor.Box)
	normal, d := worldPlane(b)

	var points []constraint.ContactPoint
	for _, v := range box.Vertices() {
		if point, ok := planePoint(a.Transform.Apply(v), 0, normal, d, envelope); ok {
			points = append(points, point)
		}
	}
	if len(points) == 0 {
		return mgl64.Vec3{}, nil
	}

	if len(points) > manifold.MaxPoints {
		points = manifold.ReduceTo4Points(points, normal)
	}
	return normal.Mul(-1), points
}

// CapsulePlane tests both end spheres of a capsule against a half-space
func CapsulePlane(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	capsule := a.Shape.(*actor.Capsule)
	normal, d := worldPlane(b)

	p, q := capsule.Segment(a.Transform)

	var points []constraint.ContactPoint
	for _, end := range [2]mgl64.Vec3{p, q} {
		if point, ok := planePoint(end, capsule.Radius, normal, d, envelope); ok {
			points = append(points, point)
		}
	}
	if len(points) == 0 {
		return mgl64.Vec3{}, nil
	}
	return normal.Mul(-1), points
}

// ConvexPlane tests any convex shape against a half-space using the contact
// feature facing the plane, and its deepest point when the feature misses it.
func ConvexPlane(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	normal, d := worldPlane(b)
	down := normal.Mul(-1)

	var points []constraint.ContactPoint
	for _, p := range a.ContactFeature(down) {
		if point, ok := planePoint(p, 0, normal, d, envelope); ok {
			points = append(points, point)
		}
	}

	deepest, ok := planePoint(a.SupportWorld(down), 0, normal, d, envelope)
	if !ok {
		return mgl64.Vec3{}, nil
	}
	if !reaches(points, deepest.Penetration) {
		points = append(points, deepest)
	}

	if len(points) > manifold.MaxPoints {
		points = manifold.ReduceTo4Points(points, normal)
	}
	return down, points
}

// reaches reports whether one of points is at least as deep as depth
func reaches(points []constraint.ContactPoint, depth float64) bool {
	for _, p := range points {
		if p.Penetration >= depth-1e-9 {
			return true
		}
	}
	return false
}
