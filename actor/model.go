package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrNoBody is returned when a model is not attached to a rigid body
	ErrNoBody = errors.New("model has no body")
	// ErrInvalidFamily is returned for a collision group above MaxFamilyGroup
	ErrInvalidFamily = errors.New("invalid collision family")
)

// Family is a collision family: a group index (0..15) and the mask of
// groups it accepts collisions with.
type Family struct {
	Group uint8
	Mask  uint16
}

const (
	// MaxFamilyGroup is the highest valid family group
	MaxFamilyGroup = 15

	allFamilies uint16 = 0xFFFF
)

// DefaultFamily is group 0, colliding with every group
func DefaultFamily() Family {
	return Family{Group: 0, Mask: allFamilies}
}

// SetNoCollisionWith disables collisions with the given group
func (f *Family) SetNoCollisionWith(group uint8) {
	f.Mask &^= 1 << (group & MaxFamilyGroup)
}

// SetCollisionWith enables collisions with the given group
func (f *Family) SetCollisionWith(group uint8) {
	f.Mask |= 1 << (group & MaxFamilyGroup)
}

// Accepts reports whether f collides with the group of other
func (f Family) Accepts(other Family) bool {
	return f.Mask&(1<<(other.Group&MaxFamilyGroup)) != 0
}

// CanCollide reports whether both families accept each other
func CanCollide(a, b Family) bool {
	return a.Accepts(b) && b.Accepts(a)
}

// ShapeInstance is a shape attached to a model at a local offset
type ShapeInstance struct {
	Shape  Shape
	Offset Transform
}

// Model is the collision model of one rigid body: its shapes, material,
// family and collision envelope.
type Model struct {
	Body     *RigidBody
	Shapes   []ShapeInstance
	Material Material
	Family   Family

	// Envelope overrides the system default when positive
	Envelope float64
}

// NewModel creates a model for body with the default material and family
func NewModel(body *RigidBody) *Model {
	return &Model{
		Body:     body,
		Material: DefaultMaterial(),
		Family:   DefaultFamily(),
	}
}

// AddShape attaches shape at offset and returns the model for chaining
func (m *Model) AddShape(shape Shape, offset Transform) *Model {
	m.Shapes = append(m.Shapes, ShapeInstance{Shape: shape, Offset: offset})
	return m
}

// AddSphere attaches a sphere at the given local position
func (m *Model) AddSphere(radius float64, position mgl64.Vec3) *Model {
	return m.AddShape(&Sphere{Radius: radius}, Transform{Position: position, Rotation: mgl64.QuatIdent()})
}

// AddBox attaches a box at the given local position
func (m *Model) AddBox(halfExtents mgl64.Vec3, position mgl64.Vec3) *Model {
	return m.AddShape(&Box{HalfExtents: halfExtents}, Transform{Position: position, Rotation: mgl64.QuatIdent()})
}

// Validate checks the body and every shape of the model
func (m *Model) Validate() error {
	if m.Body == nil {
		return ErrNoBody
	}
	if m.Family.Group > MaxFamilyGroup {
		return fmt.Errorf("%w: group %d", ErrInvalidFamily, m.Family.Group)
	}
	for i, instance := range m.Shapes {
		if instance.Shape == nil {
			return fmt.Errorf("%w: shape %d is nil", ErrInvalidShape, i)
		}
		if err := instance.Shape.Validate(); err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
		if err := validateTransform(instance.Offset); err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
	}
	if math.IsNaN(m.Envelope) || math.IsInf(m.Envelope, 0) || m.Envelope < 0 {
		return fmt.Errorf("%w: model envelope %v", ErrInvalidShape, m.Envelope)
	}
	return nil
}

// Leaves returns every non-compound shape of the model with its offset
// relative to the body.
func (m *Model) Leaves() []ShapeInstance {
	leaves := make([]ShapeInstance, 0, len(m.Shapes))
	for _, instance := range m.Shapes {
		if compound, ok := instance.Shape.(*Compound); ok {
			for _, child := range compound.Flatten(instance.Offset) {
				leaves = append(leaves, ShapeInstance{Shape: child.Shape, Offset: child.Offset})
			}
			continue
		}
		leaves = append(leaves, instance)
	}
	return leaves
}
