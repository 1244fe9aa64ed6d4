// Package primitive implements the analytic contact tests between pairs of shapes.
//
// Every test takes the two posed shapes in a fixed order and returns the contact
// normal, pointing from the first shape toward the second, and the contact points.
// No points means the shapes are separated by more than the envelope.
package primitive

import (
	"math"

	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// Func is an analytic pair test
type Func func(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint)

// contactBetween builds a contact point from the surface point of each side.
// separation is negative when overlapping.
func contactBetween(pointA, pointB mgl64.Vec3, separation float64) constraint.ContactPoint {
	return constraint.ContactPoint{
		Position:    pointA.Add(pointB).Mul(0.5),
		Penetration: -separation,
	}
}

// sphereContact tests two spheres given by center and radius
func sphereContact(ca mgl64.Vec3, ra float64, cb mgl64.Vec3, rb float64, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	delta := cb.Sub(ca)
	dist := delta.Len()

	separation := dist - ra - rb
	if separation > envelope {
		return mgl64.Vec3{}, nil
	}

	normal := actor.FallbackNormal
	if dist > 1e-12 {
		normal = delta.Mul(1 / dist)
	}

	pointA := ca.Add(normal.Mul(ra))
	pointB := cb.Sub(normal.Mul(rb))

	return normal, []constraint.ContactPoint{contactBetween(pointA, pointB, separation)}
}

// closestPointOnSegment returns the point of [p, q] closest to point
func closestPointOnSegment(point, p, q mgl64.Vec3) mgl64.Vec3 {
	segment := q.Sub(p)
	lenSqr := segment.LenSqr()
	if lenSqr < 1e-18 {
		return p
	}
	t := clamp01(point.Sub(p).Dot(segment) / lenSqr)
	return p.Add(segment.Mul(t))
}

// closestPointsSegments returns the closest points of [p1, q1] and [p2, q2]
// (Ericson, Real-Time Collision Detection, 5.1.9).
func closestPointsSegments(p1, q1, p2, q2 mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.LenSqr()
	e := d2.LenSqr()
	f := d2.Dot(r)

	const epsilon = 1e-18
	var s, t float64

	switch {
	case a <= epsilon && e <= epsilon:
		return p1, p2
	case a <= epsilon:
		t = clamp01(f / e)
	default:
		c := d1.Dot(r)
		if e <= epsilon {
			s = clamp01(-c / a)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b

			if denom > epsilon {
				s = clamp01((b*f - c*e) / denom)
			}

			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = clamp01((b - c) / a)
			}
		}
	}

	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
