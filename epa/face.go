package epa

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Face is a triangle of the expanding polytope
type Face struct {
	Points   [3]mgl64.Vec3
	Normal   mgl64.Vec3 // pointing out of the polytope
	Distance float64    // distance from the origin to the face plane
}

// newFace builds a face whose normal points away from interior, a point
// strictly inside the polytope.
func newFace(p0, p1, p2, interior mgl64.Vec3) Face {
	face := Face{Points: [3]mgl64.Vec3{p0, p1, p2}}

	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	length := normal.Len()
	if length < 1e-12 {
		// zero area: push it to the back of the queue
		face.Normal = mgl64.Vec3{0, 1, 0}
		face.Distance = math.MaxFloat64
		return face
	}
	normal = normal.Mul(1.0 / length)

	if normal.Dot(interior.Sub(p0)) > 0 {
		normal = normal.Mul(-1)
	}

	distance := p0.Dot(normal)
	if distance < 0 {
		// the origin sits on the face within rounding
		distance = 0
	}

	face.Normal = snapNormalToAxis(normal)
	face.Distance = distance

	return face
}

// sees reports whether point lies strictly in front of the face
func (f *Face) sees(point mgl64.Vec3) bool {
	return point.Sub(f.Points[0]).Dot(f.Normal) > visibilityEpsilon
}

// snapNormalToAxis clamps nearly-zero components of a normal to exactly zero
// and renormalizes it. Axis-aligned contacts (box on ground) then produce
// exact axis normals.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if math.Abs(normal[i]) < NormalSnapThreshold {
			normal[i] = 0
		}
	}

	length := normal.Len()
	if length < 1e-8 {
		return mgl64.Vec3{0, 1, 0}
	}

	return normal.Mul(1.0 / length)
}

func compareVec3(a, b mgl64.Vec3) int {
	for i := 0; i < 3; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}
