package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// capFeatureSegments is the number of rim points used to approximate a cylinder cap.
const capFeatureSegments = 8

// Cylinder is a solid cylinder whose axis is the local Y axis.
type Cylinder struct {
	Radius     float64
	HalfHeight float64
}

func (c *Cylinder) Type() ShapeType { return ShapeTypeCylinder }

func (c *Cylinder) ComputeAABB(transform Transform) AABB {
	axis := transform.Rotate(mgl64.Vec3{0, 1, 0})

	var half mgl64.Vec3
	for i := 0; i < 3; i++ {
		a := math.Abs(axis[i])
		half[i] = c.HalfHeight*a + c.Radius*math.Sqrt(math.Max(0, 1-a*a))
	}

	return AABBFromCenter(transform.Position, half)
}

func (c *Cylinder) Support(direction mgl64.Vec3) mgl64.Vec3 {
	var point mgl64.Vec3

	radial := math.Hypot(direction.X(), direction.Z())
	if radial > 1e-12 {
		point[0] = c.Radius * direction.X() / radial
		point[2] = c.Radius * direction.Z() / radial
	}
	if direction.Y() < 0 {
		point[1] = -c.HalfHeight
	} else {
		point[1] = c.HalfHeight
	}

	return point
}

// GetContactFeature returns a cap polygon when direction is close to the axis,
// the side segment otherwise.
func (c *Cylinder) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	dir := safeNormalize(direction)

	if math.Abs(dir.Y()) > 0.95 {
		y := c.HalfHeight
		if dir.Y() < 0 {
			y = -y
		}

		rim := make([]mgl64.Vec3, capFeatureSegments)
		for i := range rim {
			angle := 2 * math.Pi * float64(i) / capFeatureSegments
			rim[i] = mgl64.Vec3{c.Radius * math.Cos(angle), y, c.Radius * math.Sin(angle)}
		}
		return rim
	}

	side := c.Support(mgl64.Vec3{dir.X(), 0, dir.Z()})
	return []mgl64.Vec3{
		{side.X(), -c.HalfHeight, side.Z()},
		{side.X(), c.HalfHeight, side.Z()},
	}
}

func (c *Cylinder) Validate() error {
	if err := validateScalar(ShapeTypeCylinder, "radius", c.Radius); err != nil {
		return err
	}
	return validateScalar(ShapeTypeCylinder, "half height", c.HalfHeight)
}

// Ellipsoid is an axis-aligned (in local space) ellipsoid with the given semi-axes.
type Ellipsoid struct {
	Radii mgl64.Vec3
}

func (e *Ellipsoid) Type() ShapeType { return ShapeTypeEllipsoid }

func (e *Ellipsoid) ComputeAABB(transform Transform) AABB {
	m := transform.normalized().Rotation.Mat4().Mat3()

	var half mgl64.Vec3
	for i := 0; i < 3; i++ {
		x := m.At(i, 0) * e.Radii.X()
		y := m.At(i, 1) * e.Radii.Y()
		z := m.At(i, 2) * e.Radii.Z()
		half[i] = math.Sqrt(x*x + y*y + z*z)
	}

	return AABBFromCenter(transform.Position, half)
}

func (e *Ellipsoid) Support(direction mgl64.Vec3) mgl64.Vec3 {
	scaled := mgl64.Vec3{
		e.Radii.X() * direction.X(),
		e.Radii.Y() * direction.Y(),
		e.Radii.Z() * direction.Z(),
	}
	l := scaled.Len()
	if l < 1e-12 {
		return mgl64.Vec3{}
	}

	return mgl64.Vec3{
		e.Radii.X() * scaled.X() / l,
		e.Radii.Y() * scaled.Y() / l,
		e.Radii.Z() * scaled.Z() / l,
	}
}

func (e *Ellipsoid) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{e.Support(direction)}
}

func (e *Ellipsoid) Validate() error {
	return validateVec(ShapeTypeEllipsoid, "radii", e.Radii)
}

// Capsule is a segment along the local Y axis swept by a sphere.
type Capsule struct {
	Radius     float64
	HalfHeight float64
}

func (c *Capsule) Type() ShapeType { return ShapeTypeCapsule }

func (c *Capsule) ComputeAABB(transform Transform) AABB {
	axis := transform.Rotate(mgl64.Vec3{0, 1, 0})

	var half mgl64.Vec3
	for i := 0; i < 3; i++ {
		half[i] = c.HalfHeight*math.Abs(axis[i]) + c.Radius
	}

	return AABBFromCenter(transform.Position, half)
}

// Segment returns the world end points of the capsule core.
func (c *Capsule) Segment(transform Transform) (mgl64.Vec3, mgl64.Vec3) {
	return transform.Apply(mgl64.Vec3{0, -c.HalfHeight, 0}), transform.Apply(mgl64.Vec3{0, c.HalfHeight, 0})
}

func (c *Capsule) Support(direction mgl64.Vec3) mgl64.Vec3 {
	point := safeNormalize(direction).Mul(c.Radius)
	if direction.Y() < 0 {
		point[1] -= c.HalfHeight
	} else {
		point[1] += c.HalfHeight
	}
	return point
}

// GetContactFeature returns both rounded ends when direction is nearly
// perpendicular to the axis, a single point otherwise.
func (c *Capsule) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	dir := safeNormalize(direction)
	if math.Abs(dir.Y()) < 0.05 {
		offset := dir.Mul(c.Radius)
		return []mgl64.Vec3{
			offset.Add(mgl64.Vec3{0, -c.HalfHeight, 0}),
			offset.Add(mgl64.Vec3{0, c.HalfHeight, 0}),
		}
	}
	return []mgl64.Vec3{c.Support(direction)}
}

func (c *Capsule) Validate() error {
	if err := validateScalar(ShapeTypeCapsule, "radius", c.Radius); err != nil {
		return err
	}
	return validateScalar(ShapeTypeCapsule, "half height", c.HalfHeight)
}
