// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) boolean overlap test.
//
// GJK detects whether two convex shapes overlap by testing if their Minkowski difference
// contains the origin. It only needs a support mapping for each shape, which makes it the
// generic fallback of the narrow phase for shape pairs without an analytic test.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxIterations bounds the simplex refinement loop
	MaxIterations = 32

	degenerateEpsilon = 1e-10
)

// Convex is a convex volume described by its world support mapping.
type Convex interface {
	// SupportWorld returns the farthest point of the volume along direction
	SupportWorld(direction mgl64.Vec3) mgl64.Vec3
	// Center returns any point strictly inside the volume
	Center() mgl64.Vec3
}

// Simplex represents a set of 1-4 points in the Minkowski difference space.
// Size progression: 1 point → 2 points (line) → 3 points (triangle) → 4 points (tetrahedron)
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

func (s *Simplex) push(p mgl64.Vec3) {
	s.Points[s.Count] = p
	s.Count++
}

// set replaces the simplex content, oldest point first
func (s *Simplex) set(points ...mgl64.Vec3) {
	s.Count = copy(s.Points[:], points)
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport computes the support point of A - B along direction:
// furthestPoint(A, direction) - furthestPoint(B, -direction)
func MinkowskiSupport(a, b Convex, direction mgl64.Vec3) mgl64.Vec3 {
	return a.SupportWorld(direction).Sub(b.SupportWorld(direction.Mul(-1)))
}

// GJK reports whether two convex volumes overlap.
//
// On overlap the simplex holds the final (usually tetrahedral) simplex around the
// origin, which EPA uses as its initial polytope.
func GJK(a, b Convex, simplex *Simplex) bool {
	// Starting toward the other shape typically reduces iterations
	direction := b.Center().Sub(a.Center())
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.Reset()
	simplex.push(MinkowskiSupport(a, b, direction))

	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		// touching at a single point
		return true
	}

	for i := 0; i < MaxIterations; i++ {
		newPoint := MinkowskiSupport(a, b, direction)

		// the new point does not pass the origin: it cannot be enclosed
		if newPoint.Dot(direction) <= 0 {
			return false
		}

		simplex.push(newPoint)

		if containsOrigin(simplex, &direction) {
			return true
		}
	}

	return false
}

// containsOrigin reduces the simplex to its feature closest to the origin and
// updates the search direction. Only a tetrahedron (or a degenerate touching
// case) can contain the origin.
func containsOrigin(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	case 4:
		return tetrahedron(simplex, direction)
	}
	return false
}

// line handles a segment: a is the newest point.
func line(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[1]
	b := simplex.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-8 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		simplex.set(a)
		*direction = ao
		return false
	}

	if ab.Dot(ao) <= 0 {
		simplex.set(a)
		*direction = ao
		return false
	}

	abPerp := ab.Cross(ao).Cross(ab)
	if abPerp.LenSqr() < 1e-8 {
		// the origin lies on the segment
		return true
	}

	*direction = abPerp
	return false
}

// triangle handles a triangle: a is the newest point.
func triangle(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[2]
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	abc := ab.Cross(ac)

	// collinear points, keep the newest edge
	if abc.LenSqr() < degenerateEpsilon {
		simplex.set(b, a)
		return line(simplex, direction)
	}

	if ab.Cross(abc).Dot(ao) > 0 {
		simplex.set(b, a)
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}

	if abc.Cross(ac).Dot(ao) > 0 {
		simplex.set(c, a)
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	if abc.Dot(ao) > 0 {
		*direction = abc
	} else {
		// keep the winding so that the next search direction is "above"
		simplex.set(b, c, a)
		*direction = abc.Mul(-1)
	}

	return false
}

// tetrahedron checks the three faces touching the newest point a.
// The face opposite a was already tested when the triangle was built.
func tetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[3]
	b := simplex.Points[2]
	c := simplex.Points[1]
	d := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	// outward normals: pointing away from the fourth vertex
	abc := outward(ab.Cross(ac), ad)
	acd := outward(ac.Cross(ad), ab)
	adb := outward(ad.Cross(ab), ac)

	if abc.LenSqr() < degenerateEpsilon || acd.LenSqr() < degenerateEpsilon || adb.LenSqr() < degenerateEpsilon {
		simplex.set(c, b, a)
		return triangle(simplex, direction)
	}

	switch {
	case abc.Dot(ao) > 0:
		simplex.set(c, b, a)
		return triangle(simplex, direction)
	case acd.Dot(ao) > 0:
		simplex.set(d, c, a)
		return triangle(simplex, direction)
	case adb.Dot(ao) > 0:
		simplex.set(b, d, a)
		return triangle(simplex, direction)
	}

	return true
}

func outward(normal, toOpposite mgl64.Vec3) mgl64.Vec3 {
	if normal.Dot(toOpposite) > 0 {
		return normal.Mul(-1)
	}
	return normal
}
