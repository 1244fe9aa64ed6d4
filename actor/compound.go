package actor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CompoundChild is a shape placed in its parent's frame
type CompoundChild struct {
	Shape  Shape
	Offset Transform
}

// Compound groups several shapes rigidly attached together.
// It is flattened into one slot per leaf shape when its model is registered,
// the narrow phase never sees a Compound.
type Compound struct {
	Children []CompoundChild
}

func (c *Compound) Type() ShapeType { return ShapeTypeCompound }

func (c *Compound) ComputeAABB(transform Transform) AABB {
	aabb := EmptyAABB()
	for _, child := range c.Children {
		aabb = aabb.Union(child.Shape.ComputeAABB(transform.Mul(child.Offset)))
	}
	if aabb.IsEmpty() {
		return AABBFromCenter(transform.Position, mgl64.Vec3{})
	}
	return aabb
}

// Support returns the farthest child support point along direction
func (c *Compound) Support(direction mgl64.Vec3) mgl64.Vec3 {
	var best mgl64.Vec3
	bestDot := -math.MaxFloat64

	for _, child := range c.Children {
		local := child.Offset.RotateToLocal(direction)
		point := child.Offset.Apply(child.Shape.Support(local))
		if d := point.Dot(direction); d > bestDot {
			bestDot = d
			best = point
		}
	}

	return best
}

func (c *Compound) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{c.Support(direction)}
}

func (c *Compound) Validate() error {
	if len(c.Children) == 0 {
		return fmt.Errorf("%w: compound has no children", ErrInvalidShape)
	}
	for i, child := range c.Children {
		if child.Shape == nil {
			return fmt.Errorf("%w: compound child %d is nil", ErrInvalidShape, i)
		}
		if err := child.Shape.Validate(); err != nil {
			return fmt.Errorf("compound child %d: %w", i, err)
		}
		if err := validateTransform(child.Offset); err != nil {
			return fmt.Errorf("compound child %d: %w", i, err)
		}
	}
	return nil
}

// Flatten returns the leaf shapes of c with their offsets composed with parent.
func (c *Compound) Flatten(parent Transform) []CompoundChild {
	leaves := make([]CompoundChild, 0, len(c.Children))
	for _, child := range c.Children {
		offset := parent.Mul(child.Offset)
		if nested, ok := child.Shape.(*Compound); ok {
			leaves = append(leaves, nested.Flatten(offset)...)
			continue
		}
		leaves = append(leaves, CompoundChild{Shape: child.Shape, Offset: offset})
	}
	return leaves
}

func validateTransform(t Transform) error {
	for i := 0; i < 3; i++ {
		if math.IsNaN(t.Position[i]) || math.IsInf(t.Position[i], 0) {
			return fmt.Errorf("%w: offset position %v", ErrInvalidShape, t.Position)
		}
	}
	q := t.Rotation
	for _, v := range [4]float64{q.W, q.V[0], q.V[1], q.V[2]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: offset rotation %v", ErrInvalidShape, q)
		}
	}
	return nil
}
