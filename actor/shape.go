package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

// The order of the shape types is the canonical order of the narrow-phase dispatch table.
const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePlane
	ShapeTypeCylinder
	ShapeTypeEllipsoid
	ShapeTypeCapsule
	ShapeTypeCompound

	// NumShapeTypes is the number of primitive kinds
	NumShapeTypes
)

var shapeTypeNames = [NumShapeTypes]string{
	ShapeTypeSphere:    "sphere",
	ShapeTypeBox:       "box",
	ShapeTypePlane:     "plane",
	ShapeTypeCylinder:  "cylinder",
	ShapeTypeEllipsoid: "ellipsoid",
	ShapeTypeCapsule:   "capsule",
	ShapeTypeCompound:  "compound",
}

func (t ShapeType) String() string {
	if t < 0 || t >= NumShapeTypes {
		return fmt.Sprintf("ShapeType(%d)", int(t))
	}
	return shapeTypeNames[t]
}

// ErrInvalidShape is returned when a shape has malformed (negative, NaN or infinite) parameters.
var ErrInvalidShape = errors.New("invalid shape")

// FallbackNormal is used whenever a contact normal cannot be derived from the geometry.
var FallbackNormal = mgl64.Vec3{1, 0, 0}

// Shape is the interface that all collision shapes must implement.
// Support and GetContactFeature work in the shape's local frame.
type Shape interface {
	Type() ShapeType
	// ComputeAABB calculates the world axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform) AABB
	Support(direction mgl64.Vec3) mgl64.Vec3
	GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3
	// Validate rejects malformed parameters. Zero sizes are degenerate but valid.
	Validate() error
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
}

func (b *Box) Type() ShapeType { return ShapeTypeBox }

func (b *Box) ComputeAABB(transform Transform) AABB {
	// |R| * h gives the world half extents of a rotated box
	m := transform.normalized().Rotation.Mat4().Mat3()

	var half mgl64.Vec3
	for i := 0; i < 3; i++ {
		half[i] = math.Abs(m.At(i, 0))*b.HalfExtents.X() +
			math.Abs(m.At(i, 1))*b.HalfExtents.Y() +
			math.Abs(m.At(i, 2))*b.HalfExtents.Z()
	}

	return AABBFromCenter(transform.Position, half)
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// Face returns the four vertices of the face with the given outward axis and sign,
// counter-clockwise seen from outside.
func (b *Box) Face(axis int, sign float64) [4]mgl64.Vec3 {
	hx := b.HalfExtents.X()
	hy := b.HalfExtents.Y()
	hz := b.HalfExtents.Z()

	switch {
	case axis == 0 && sign > 0:
		return [4]mgl64.Vec3{{hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}, {hx, -hy, hz}}
	case axis == 0:
		return [4]mgl64.Vec3{{-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}, {-hx, -hy, -hz}}
	case axis == 1 && sign > 0:
		return [4]mgl64.Vec3{{-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}
	case axis == 1:
		return [4]mgl64.Vec3{{-hx, -hy, hz}, {-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}}
	case sign > 0:
		return [4]mgl64.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}
	default:
		return [4]mgl64.Vec3{{-hx, hy, -hz}, {hx, hy, -hz}, {hx, -hy, -hz}, {-hx, -hy, -hz}}
	}
}

// GetContactFeature returns the face whose normal is the most aligned with direction
func (b *Box) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	axis, sign := 0, 1.0
	best := -math.MaxFloat64
	for i := 0; i < 3; i++ {
		if d := math.Abs(direction[i]); d > best {
			best = d
			axis = i
			if direction[i] < 0 {
				sign = -1
			} else {
				sign = 1
			}
		}
	}

	face := b.Face(axis, sign)
	return face[:]
}

// Vertices returns the 8 corners of the box in local space
func (b *Box) Vertices() [8]mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()
	return [8]mgl64.Vec3{
		{-hx, -hy, -hz},
		{+hx, -hy, -hz},
		{-hx, +hy, -hz},
		{+hx, +hy, -hz},
		{-hx, -hy, +hz},
		{+hx, -hy, +hz},
		{-hx, +hy, +hz},
		{+hx, +hy, +hz},
	}
}

func (b *Box) Validate() error {
	return validateVec(ShapeTypeBox, "half extents", b.HalfExtents)
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

func (s *Sphere) Type() ShapeType { return ShapeTypeSphere }

// ComputeAABB calculates the axis-aligned bounding box for the sphere
func (s *Sphere) ComputeAABB(transform Transform) AABB {
	// Sphere AABB is not affected by rotation, only by position
	return AABBFromCenter(transform.Position, mgl64.Vec3{s.Radius, s.Radius, s.Radius})
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return safeNormalize(direction).Mul(s.Radius)
}

func (s *Sphere) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{s.Support(direction)}
}

func (s *Sphere) Validate() error {
	return validateScalar(ShapeTypeSphere, "radius", s.Radius)
}

// Plane represents an infinite plane collision shape
// The plane is defined by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
// and Distance is the signed distance from the origin along the normal,
// both expressed in the owning body's frame.
// Everything behind the plane is solid.
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

const (
	planeThickness = 1.0
	// half size of the finite slab used when a plane goes through the generic path
	planeHalfSize = 1000.0
)

func (p *Plane) Type() ShapeType { return ShapeTypePlane }

// WorldPlane returns the world normal and the world plane constant d (n·x + d = 0).
func (p *Plane) WorldPlane(transform Transform) (mgl64.Vec3, float64) {
	normal := safeNormalize(transform.Rotate(p.Normal))
	point := transform.Apply(p.localNormal().Mul(-p.Distance))
	return normal, -normal.Dot(point)
}

func (p *Plane) localNormal() mgl64.Vec3 {
	return safeNormalize(p.Normal)
}

func (p *Plane) ComputeAABB(transform Transform) AABB {
	normal, d := p.WorldPlane(transform)
	planePoint := normal.Mul(-d)

	aabb := AABB{
		Min: mgl64.Vec3{-Unbounded, -Unbounded, -Unbounded},
		Max: mgl64.Vec3{Unbounded, Unbounded, Unbounded},
	}

	// Only an axis-aligned plane can be bounded along its normal
	for axis := 0; axis < 3; axis++ {
		if math.Abs(normal[axis]) < 1-1e-9 {
			continue
		}
		if normal[axis] > 0 {
			aabb.Min[axis] = planePoint[axis] - planeThickness
			aabb.Max[axis] = planePoint[axis]
		} else {
			aabb.Min[axis] = planePoint[axis]
			aabb.Max[axis] = planePoint[axis] + planeThickness
		}
	}

	return aabb
}

// Support treats the plane as a large slab of planeHalfSize, planeThickness deep.
func (p *Plane) Support(direction mgl64.Vec3) mgl64.Vec3 {
	normal := p.localNormal()
	tangent1, tangent2 := TangentBasis(normal)

	point := normal.Mul(-p.Distance)
	if direction.Dot(tangent1) < 0 {
		point = point.Sub(tangent1.Mul(planeHalfSize))
	} else {
		point = point.Add(tangent1.Mul(planeHalfSize))
	}
	if direction.Dot(tangent2) < 0 {
		point = point.Sub(tangent2.Mul(planeHalfSize))
	} else {
		point = point.Add(tangent2.Mul(planeHalfSize))
	}
	if direction.Dot(normal) < 0 {
		point = point.Sub(normal.Mul(planeThickness))
	}

	return point
}

func (p *Plane) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	// For a plane, return 4 points forming a large square
	// IN LOCAL SPACE (centered on the plane origin)
	normal := p.localNormal()
	tangent1, tangent2 := TangentBasis(normal)
	center := normal.Mul(-p.Distance)

	return []mgl64.Vec3{
		center.Add(tangent1.Mul(-planeHalfSize)).Add(tangent2.Mul(-planeHalfSize)),
		center.Add(tangent1.Mul(planeHalfSize)).Add(tangent2.Mul(-planeHalfSize)),
		center.Add(tangent1.Mul(planeHalfSize)).Add(tangent2.Mul(planeHalfSize)),
		center.Add(tangent1.Mul(-planeHalfSize)).Add(tangent2.Mul(planeHalfSize)),
	}
}

func (p *Plane) Validate() error {
	for i := 0; i < 3; i++ {
		if math.IsNaN(p.Normal[i]) || math.IsInf(p.Normal[i], 0) {
			return fmt.Errorf("%w: plane normal %v", ErrInvalidShape, p.Normal)
		}
	}
	if p.Normal.Len() < 1e-12 {
		return fmt.Errorf("%w: plane normal is zero", ErrInvalidShape)
	}
	if math.IsNaN(p.Distance) || math.IsInf(p.Distance, 0) {
		return fmt.Errorf("%w: plane distance %v", ErrInvalidShape, p.Distance)
	}
	return nil
}

// TangentBasis returns two unit vectors orthogonal to normal and to each other.
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}

func validateScalar(t ShapeType, name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s %s is %v", ErrInvalidShape, t, name, v)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s %s is negative (%v)", ErrInvalidShape, t, name, v)
	}
	return nil
}

func validateVec(t ShapeType, name string, v mgl64.Vec3) error {
	for i := 0; i < 3; i++ {
		if err := validateScalar(t, name, v[i]); err != nil {
			return err
		}
	}
	return nil
}

// safeNormalize returns FallbackNormal for zero or non-finite vectors.
func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-12 || math.IsNaN(l) || math.IsInf(l, 0) {
		return FallbackNormal
	}
	return v.Mul(1 / l)
}

// SafeNormalize normalizes v, falling back to FallbackNormal when v has no direction.
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	return safeNormalize(v)
}
