package primitive

import (
	"math"

	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// SphereCylinder tests a sphere against a solid cylinder
func SphereCylinder(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	sphere := a.Shape.(*actor.Sphere)
	cylinder := b.Shape.(*actor.Cylinder)

	center := a.Transform.Position
	local := b.Transform.ToLocal(center)

	radialLen := math.Hypot(local.X(), local.Z())
	// unit radial direction, any direction on the axis
	radial := mgl64.Vec3{1, 0, 0}
	if radialLen > 1e-12 {
		radial = mgl64.Vec3{local.X() / radialLen, 0, local.Z() / radialLen}
	}

	closest := mgl64.Vec3{
		radial.X() * math.Min(radialLen, cylinder.Radius),
		clamp(local.Y(), -cylinder.HalfHeight, cylinder.HalfHeight),
		radial.Z() * math.Min(radialLen, cylinder.Radius),
	}

	var (
		localNormal mgl64.Vec3
		separation  float64
	)

	if delta := local.Sub(closest); delta.LenSqr() > 1e-24 {
		dist := delta.Len()
		separation = dist - sphere.Radius
		if separation > envelope {
			return mgl64.Vec3{}, nil
		}
		localNormal = delta.Mul(1 / dist)
	} else {
		// center inside: leave through the side or the nearest cap
		side := cylinder.Radius - radialLen
		top := cylinder.HalfHeight - local.Y()
		bottom := cylinder.HalfHeight + local.Y()

		switch {
		case side <= top && side <= bottom:
			closest = mgl64.Vec3{radial.X() * cylinder.Radius, local.Y(), radial.Z() * cylinder.Radius}
			localNormal = radial
			separation = -side - sphere.Radius
		case top <= bottom:
			closest[1] = cylinder.HalfHeight
			localNormal = mgl64.Vec3{0, 1, 0}
			separation = -top - sphere.Radius
		default:
			closest[1] = -cylinder.HalfHeight
			localNormal = mgl64.Vec3{0, -1, 0}
			separation = -bottom - sphere.Radius
		}
	}

	normal := b.Transform.Rotate(localNormal).Mul(-1)
	pointA := center.Add(normal.Mul(sphere.Radius))
	pointB := b.Transform.Apply(closest)

	return normal, []constraint.ContactPoint{contactBetween(pointA, pointB, separation)}
}

// SphereCapsule tests a sphere against a capsule
func SphereCapsule(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	sphere := a.Shape.(*actor.Sphere)
	capsule := b.Shape.(*actor.Capsule)

	p, q := capsule.Segment(b.Transform)
	closest := closestPointOnSegment(a.Transform.Position, p, q)

	return sphereContact(a.Transform.Position, sphere.Radius, closest, capsule.Radius, envelope)
}

// CapsuleCapsule tests two capsules. Parallel overlapping cores give two
// points at the ends of the shared interval.
func CapsuleCapsule(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	capA := a.Shape.(*actor.Capsule)
	capB := b.Shape.(*actor.Capsule)

	p1, q1 := capA.Segment(a.Transform)
	p2, q2 := capB.Segment(b.Transform)

	pointA, pointB := closestPointsSegments(p1, q1, p2, q2)
	normal, points := sphereContact(pointA, capA.Radius, pointB, capB.Radius, envelope)
	if len(points) == 0 {
		return normal, nil
	}

	if pair, ok := parallelContacts(p1, q1, p2, q2, capA.Radius, capB.Radius, envelope); ok {
		return normal, pair
	}
	return normal, points
}

// parallelContacts handles parallel cores overlapping along their length
func parallelContacts(p1, q1, p2, q2 mgl64.Vec3, ra, rb, envelope float64) ([]constraint.ContactPoint, bool) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	if d1.LenSqr() < 1e-18 || d2.LenSqr() < 1e-18 {
		return nil, false
	}

	axis := d1.Normalize()
	if axis.Cross(d2.Normalize()).LenSqr() > 1e-8 {
		return nil, false
	}

	// interval of b on a's axis
	t0 := p2.Sub(p1).Dot(axis)
	t1 := q2.Sub(p1).Dot(axis)
	lo := math.Max(0, math.Min(t0, t1))
	hi := math.Min(d1.Len(), math.Max(t0, t1))
	if hi-lo < 1e-6 {
		return nil, false
	}

	points := make([]constraint.ContactPoint, 0, 2)
	for _, t := range [2]float64{lo, hi} {
		onA := p1.Add(axis.Mul(t))
		onB := closestPointOnSegment(onA, p2, q2)
		_, contact := sphereContact(onA, ra, onB, rb, envelope)
		if len(contact) == 0 {
			return nil, false
		}
		points = append(points, contact[0])
	}
	return points, true
}
