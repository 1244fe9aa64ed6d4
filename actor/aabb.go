package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Unbounded is the half extent used for shapes that are infinite along an axis.
// AABBs reaching it are excluded from the broad-phase bounding region.
const Unbounded = 1e10

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyAABB returns an inverted box, the identity for Union.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// AABBFromCenter builds a box from its center and half extents
func AABBFromCenter(center, halfExtents mgl64.Vec3) AABB {
	return AABB{
		Min: center.Sub(halfExtents),
		Max: center.Add(halfExtents),
	}
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Contains checks if other lies entirely inside a
func (a AABB) Contains(other AABB) bool {
	return a.ContainsPoint(other.Min) && a.ContainsPoint(other.Max)
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Union returns the smallest box containing both a and other
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a.Min[0], other.Min[0]), math.Min(a.Min[1], other.Min[1]), math.Min(a.Min[2], other.Min[2])},
		Max: mgl64.Vec3{math.Max(a.Max[0], other.Max[0]), math.Max(a.Max[1], other.Max[1]), math.Max(a.Max[2], other.Max[2])},
	}
}

// Inflate grows the box by margin on every side
func (a AABB) Inflate(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Extent returns the edge lengths of the box
func (a AABB) Extent() mgl64.Vec3 {
	return a.Max.Sub(a.Min)
}

// Center returns the middle point of the box
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// IsEmpty reports whether the box is inverted on any axis
func (a AABB) IsEmpty() bool {
	return a.Min[0] > a.Max[0] || a.Min[1] > a.Max[1] || a.Min[2] > a.Max[2]
}

// IsBounded reports whether every corner is finite and below Unbounded.
func (a AABB) IsBounded() bool {
	for i := 0; i < 3; i++ {
		if !(math.Abs(a.Min[i]) < Unbounded && math.Abs(a.Max[i]) < Unbounded) {
			return false
		}
	}
	return true
}

// IsFinite reports whether no coordinate is NaN or infinite
func (a AABB) IsFinite() bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(a.Min[i]) || math.IsNaN(a.Max[i]) || math.IsInf(a.Min[i], 0) || math.IsInf(a.Max[i], 0) {
			return false
		}
	}
	return true
}

// ClampExtent widens every axis thinner than minExtent around its center.
func (a AABB) ClampExtent(minExtent float64) AABB {
	for i := 0; i < 3; i++ {
		if a.Max[i]-a.Min[i] < minExtent {
			c := (a.Max[i] + a.Min[i]) * 0.5
			a.Min[i] = c - minExtent*0.5
			a.Max[i] = c + minExtent*0.5
		}
	}
	return a
}
