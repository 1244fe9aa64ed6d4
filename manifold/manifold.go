// Package manifold builds contact manifolds from the contact features of two posed shapes.
//
// Given a contact normal (from A toward B), the feature of each shape facing the other is
// taken (point, segment or polygon). The feature with the most points is the reference,
// the other is the incident feature. The incident feature is clipped against the side
// planes of the reference (Sutherland-Hodgman), then every clipped point is measured
// against the reference plane to get its own penetration depth.
package manifold

import (
	"math"

	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxPoints is the largest manifold handed to the solver
	MaxPoints = 4

	clipTolerance = 1e-6
)

// Generate returns the contact points of a and b for the given normal and depth.
// Points separated by more than envelope are dropped. The result is never empty:
// when clipping leaves nothing the deepest point of b is used with depth.
func Generate(a, b actor.Collider, normal mgl64.Vec3, depth, envelope float64) []constraint.ContactPoint {
	featureA := a.ContactFeature(normal)
	featureB := b.ContactFeature(normal.Mul(-1))

	// A single point on either side is the whole manifold
	if len(featureA) == 1 {
		return []constraint.ContactPoint{{Position: featureA[0].Sub(normal.Mul(depth * 0.5)), Penetration: depth}}
	}
	if len(featureB) == 1 {
		return []constraint.ContactPoint{{Position: featureB[0].Add(normal.Mul(depth * 0.5)), Penetration: depth}}
	}

	// A plane is always the reference, otherwise the richer feature is
	useB := len(featureB) > len(featureA)
	if isPlane(a) != isPlane(b) {
		useB = isPlane(b)
	}

	// The reference normal always points toward the incident shape
	reference, incident := featureA, featureB
	refNormal := normal
	refIsPlane := isPlane(a)
	if useB {
		reference, incident = featureB, featureA
		refNormal = normal.Mul(-1)
		refIsPlane = isPlane(b)
	}

	clipped := incident
	if !refIsPlane {
		clipped = ClipIncidentAgainstReference(incident, reference, refNormal)
	}

	planeNormal, planeOffset := referencePlane(reference, refNormal)

	points := make([]constraint.ContactPoint, 0, len(clipped))
	for _, p := range clipped {
		separation := p.Dot(planeNormal) - planeOffset
		if separation > envelope {
			continue
		}
		points = append(points, constraint.ContactPoint{
			// halfway between the incident point and its projection on the reference plane
			Position:    p.Sub(planeNormal.Mul(separation * 0.5)),
			Penetration: -separation,
		})
	}

	if len(points) == 0 {
		deepest := b.SupportWorld(normal.Mul(-1))
		return []constraint.ContactPoint{{Position: deepest.Add(normal.Mul(depth * 0.5)), Penetration: depth}}
	}

	if len(points) > MaxPoints {
		points = ReduceTo4Points(points, normal)
	}

	return points
}

func isPlane(c actor.Collider) bool {
	return c.Shape.Type() == actor.ShapeTypePlane
}

// referencePlane returns the plane (normal, offset) of the reference feature,
// oriented along refNormal. Degenerate polygons use refNormal through their
// most advanced point.
func referencePlane(reference []mgl64.Vec3, refNormal mgl64.Vec3) (mgl64.Vec3, float64) {
	if len(reference) >= 3 {
		n := polygonNormal(reference)
		if n.LenSqr() > 1e-18 {
			n = n.Normalize()
			if n.Dot(refNormal) < 0 {
				n = n.Mul(-1)
			}
			// a feature nearly perpendicular to the contact normal is not a usable face
			if n.Dot(refNormal) > 0.5 {
				return n, reference[0].Dot(n)
			}
		}
	}

	offset := -math.MaxFloat64
	for _, p := range reference {
		offset = math.Max(offset, p.Dot(refNormal))
	}
	return refNormal, offset
}

// polygonNormal is Newell's method, robust for nearly collinear first vertices
func polygonNormal(polygon []mgl64.Vec3) mgl64.Vec3 {
	var n mgl64.Vec3
	for i := range polygon {
		cur := polygon[i]
		next := polygon[(i+1)%len(polygon)]
		n[0] += (cur.Y() - next.Y()) * (cur.Z() + next.Z())
		n[1] += (cur.Z() - next.Z()) * (cur.X() + next.X())
		n[2] += (cur.X() - next.X()) * (cur.Y() + next.Y())
	}
	return n
}

// ClipIncidentAgainstReference clips the incident polygon against the side planes
// of the reference feature. A segment reference is clipped by the two planes
// through its end points.
func ClipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	switch {
	case len(reference) < 2:
		return incident
	case len(reference) == 2:
		edge := reference[1].Sub(reference[0])
		if edge.LenSqr() < 1e-18 {
			return incident
		}
		output := ClipPolygonAgainstPlane(incident, reference[0], edge)
		return ClipPolygonAgainstPlane(output, reference[1], edge.Mul(-1))
	}

	center := computeCenter(reference)
	output := incident

	for i := 0; i < len(reference); i++ {
		if len(output) == 0 {
			break
		}

		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		clipNormal := v2.Sub(v1).Cross(normal)
		if clipNormal.LenSqr() < 1e-18 {
			continue
		}
		clipNormal = clipNormal.Normalize()

		// inward, toward the center of the reference
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		output = ClipPolygonAgainstPlane(output, v1, clipNormal)
	}

	return output
}

// ClipPolygonAgainstPlane keeps the part of polygon on the positive side of the plane.
// Segments are handled as a degenerate polygon.
func ClipPolygonAgainstPlane(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	if len(polygon) == 0 {
		return polygon
	}

	if len(polygon) == 2 {
		return clipSegment(polygon[0], polygon[1], planePoint, planeNormal)
	}

	output := make([]mgl64.Vec3, 0, len(polygon)+1)
	for i := 0; i < len(polygon); i++ {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		if currentDist >= -clipTolerance {
			output = append(output, current)
			if nextDist < -clipTolerance {
				output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
			}
		} else if nextDist >= -clipTolerance {
			output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
		}
	}

	return output
}

func clipSegment(p1, p2, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	d1 := p1.Sub(planePoint).Dot(planeNormal)
	d2 := p2.Sub(planePoint).Dot(planeNormal)

	switch {
	case d1 >= -clipTolerance && d2 >= -clipTolerance:
		return []mgl64.Vec3{p1, p2}
	case d1 < -clipTolerance && d2 < -clipTolerance:
		return nil
	case d1 >= -clipTolerance:
		return []mgl64.Vec3{p1, lineIntersectPlane(p1, p2, planePoint, planeNormal)}
	default:
		return []mgl64.Vec3{lineIntersectPlane(p1, p2, planePoint, planeNormal), p2}
	}
}

// lineIntersectPlane calculates the intersection between a segment and a plane
func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	dist := p1.Sub(planePoint).Dot(planeNormal)
	denom := dir.Dot(planeNormal)

	if math.Abs(denom) < 1e-12 {
		return p1
	}

	t := -dist / denom
	t = math.Max(0, math.Min(1, t))

	return p1.Add(dir.Mul(t))
}

func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return mgl64.Vec3{0, 0, 0}
	}

	sum := mgl64.Vec3{0, 0, 0}
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}

// ReduceTo4Points keeps the deepest point, the point farthest from it, then the
// two points that maximize the manifold area. Ties go to the lowest index and
// the kept points stay in their input order.
func ReduceTo4Points(points []constraint.ContactPoint, normal mgl64.Vec3) []constraint.ContactPoint {
	if len(points) <= MaxPoints {
		return points
	}

	chosen := [MaxPoints]int{}

	chosen[0] = 0
	for i := range points {
		if points[i].Penetration > points[chosen[0]].Penetration {
			chosen[0] = i
		}
	}

	chosen[1] = argMax(points, func(p mgl64.Vec3) float64 {
		return p.Sub(points[chosen[0]].Position).LenSqr()
	})

	a, b := points[chosen[0]].Position, points[chosen[1]].Position
	// signed area along the normal, the fourth point goes on the other side
	area := func(p mgl64.Vec3) float64 {
		return b.Sub(a).Cross(p.Sub(a)).Dot(normal)
	}

	chosen[2] = argMax(points, func(p mgl64.Vec3) float64 { return math.Abs(area(p)) })
	sign := 1.0
	if area(points[chosen[2]].Position) > 0 {
		sign = -1.0
	}
	chosen[3] = argMax(points, func(p mgl64.Vec3) float64 { return sign * area(p) })

	keep := make([]bool, len(points))
	for _, idx := range chosen {
		keep[idx] = true
	}

	result := make([]constraint.ContactPoint, 0, MaxPoints)
	for i, k := range keep {
		if k {
			result = append(result, points[i])
		}
	}

	return result
}

func argMax(points []constraint.ContactPoint, score func(mgl64.Vec3) float64) int {
	best := 0
	bestScore := score(points[0].Position)
	for i := 1; i < len(points); i++ {
		if s := score(points[i].Position); s > bestScore {
			best = i
			bestScore = s
		}
	}
	return best
}
