package primitive

import (
	"math"

	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/constraint"
	"github.com/akmonengine/collide/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// an edge axis must beat the best face axis by this much, faces give better manifolds
	edgeAxisBias = 1e-6

	// cross products of nearly parallel edges are not tested
	parallelEpsilon = 1e-10
)

type axisKind int

const (
	axisFaceA axisKind = iota
	axisFaceB
	axisEdge
)

type separatingAxis struct {
	axis       mgl64.Vec3
	separation float64
	kind       axisKind
	indexA     int
	indexB     int
}

// orientedBox is a box in world space
type orientedBox struct {
	center mgl64.Vec3
	axes   [3]mgl64.Vec3
	half   mgl64.Vec3
	pose   actor.Transform
	shape  *actor.Box
}

func newOrientedBox(c actor.Collider) orientedBox {
	box := c.Shape.(*actor.Box)
	return orientedBox{
		center: c.Transform.Position,
		axes:   c.Transform.Axes(),
		half:   box.HalfExtents,
		pose:   c.Transform,
		shape:  box,
	}
}

// radius is the half length of the projection of the box on axis
func (b orientedBox) radius(axis mgl64.Vec3) float64 {
	return b.half[0]*math.Abs(b.axes[0].Dot(axis)) +
		b.half[1]*math.Abs(b.axes[1].Dot(axis)) +
		b.half[2]*math.Abs(b.axes[2].Dot(axis))
}

// face returns the world face whose outward normal is the most aligned with direction
func (b orientedBox) face(direction mgl64.Vec3) [4]mgl64.Vec3 {
	axis, best := 0, -1.0
	for i := 0; i < 3; i++ {
		if d := math.Abs(b.axes[i].Dot(direction)); d > best {
			axis, best = i, d
		}
	}

	sign := 1.0
	if b.axes[axis].Dot(direction) < 0 {
		sign = -1
	}

	face := b.shape.Face(axis, sign)
	for i := range face {
		face[i] = b.pose.Apply(face[i])
	}
	return face
}

// edge returns the edge parallel to axis index that is the furthest along direction
func (b orientedBox) edge(index int, direction mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	center := b.center
	for k := 0; k < 3; k++ {
		if k == index {
			continue
		}
		if b.axes[k].Dot(direction) < 0 {
			center = center.Sub(b.axes[k].Mul(b.half[k]))
		} else {
			center = center.Add(b.axes[k].Mul(b.half[k]))
		}
	}

	extent := b.axes[index].Mul(b.half[index])
	return center.Sub(extent), center.Add(extent)
}

// BoxBox tests two oriented boxes with the separating axis theorem over the
// 3 + 3 face axes and the 9 edge cross products. Face contacts clip the incident
// face against the reference face and return up to 4 points, edge contacts
// return the closest points of both edges.
func BoxBox(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	boxA := newOrientedBox(a)
	boxB := newOrientedBox(b)
	delta := boxB.center.Sub(boxA.center)

	best := separatingAxis{separation: -math.MaxFloat64}

	// test reports false when axis separates the boxes beyond the envelope
	test := func(axis mgl64.Vec3, kind axisKind, i, j int, bias float64) bool {
		separation := math.Abs(delta.Dot(axis)) - boxA.radius(axis) - boxB.radius(axis)
		if separation > envelope {
			return false
		}
		if separation > best.separation+bias {
			best = separatingAxis{axis: axis, separation: separation, kind: kind, indexA: i, indexB: j}
		}
		return true
	}

	for i := 0; i < 3; i++ {
		if !test(boxA.axes[i], axisFaceA, i, 0, 0) {
			return mgl64.Vec3{}, nil
		}
	}
	for i := 0; i < 3; i++ {
		if !test(boxB.axes[i], axisFaceB, 0, i, 0) {
			return mgl64.Vec3{}, nil
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			axis := boxA.axes[i].Cross(boxB.axes[j])
			if axis.LenSqr() < parallelEpsilon {
				continue
			}
			if !test(axis.Normalize(), axisEdge, i, j, edgeAxisBias) {
				return mgl64.Vec3{}, nil
			}
		}
	}

	normal := best.axis
	if delta.Dot(normal) < 0 {
		normal = normal.Mul(-1)
	}

	var points []constraint.ContactPoint
	switch best.kind {
	case axisFaceA:
		points = faceContact(boxA.face(normal), boxB.face(normal.Mul(-1)), normal, envelope)
	case axisFaceB:
		points = faceContact(boxB.face(normal.Mul(-1)), boxA.face(normal), normal.Mul(-1), envelope)
	case axisEdge:
		p1, q1 := boxA.edge(best.indexA, normal)
		p2, q2 := boxB.edge(best.indexB, normal.Mul(-1))
		pointA, pointB := closestPointsSegments(p1, q1, p2, q2)
		points = []constraint.ContactPoint{{
			Position:    pointA.Add(pointB).Mul(0.5),
			Penetration: -best.separation,
		}}
	}

	if len(points) == 0 {
		deepest := b.SupportWorld(normal.Mul(-1))
		points = []constraint.ContactPoint{{
			Position:    deepest.Sub(normal.Mul(best.separation * 0.5)),
			Penetration: -best.separation,
		}}
	}

	return normal, points
}

// faceContact clips the incident face against the reference face. refNormal is
// the outward normal of the reference face.
func faceContact(reference, incident [4]mgl64.Vec3, refNormal mgl64.Vec3, envelope float64) []constraint.ContactPoint {
	clipped := manifold.ClipIncidentAgainstReference(incident[:], reference[:], refNormal)
	offset := reference[0].Dot(refNormal)

	points := make([]constraint.ContactPoint, 0, len(clipped))
	for _, p := range clipped {
		separation := p.Dot(refNormal) - offset
		if separation > envelope {
			continue
		}
		points = append(points, constraint.ContactPoint{
			Position:    p.Sub(refNormal.Mul(separation * 0.5)),
			Penetration: -separation,
		})
	}

	if len(points) > manifold.MaxPoints {
		points = manifold.ReduceTo4Points(points, refNormal)
	}

	return points
}
