package scene

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/akmonengine/collide/actor"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrUnknownShape    = errors.New("unknown shape kind")
	ErrUnknownBodyType = errors.New("unknown body type")
	ErrUnknownMaterial = errors.New("unknown compliance preset")
)

var compliancePresets = map[string]float64{
	"concrete": actor.CONCRETE_COMPLIANCE,
	"wood":     actor.WOOD_COMPLIANCE,
	"leather":  actor.LEATHER_COMPLIANCE,
	"tendon":   actor.TENDON_COMPLIANCE,
	"rubber":   actor.RUBBER_COMPLIANCE,
	"muscle":   actor.MUSCLE_COMPLIANCE,
	"fat":      actor.FAT_COMPLIANCE,
}

// Models builds one model per body, in file order. The body Id is its name.
func (s *Scene) Models() ([]*actor.Model, error) {
	models := make([]*actor.Model, 0, len(s.Bodies))
	for i, b := range s.Bodies {
		model, err := b.model()
		if err != nil {
			name := b.Name
			if name == "" {
				name = "#" + strconv.Itoa(i)
			}
			return nil, fmt.Errorf("scene: body %s: %w", name, err)
		}
		models = append(models, model)
	}
	return models, nil
}

// ParticlePositions returns the particle centers and their shared radius
func (s *Scene) ParticlePositions() ([]mgl64.Vec3, float64) {
	if s.Particles == nil {
		return nil, 0
	}
	positions := make([]mgl64.Vec3, len(s.Particles.Positions))
	for i, p := range s.Particles.Positions {
		positions[i] = mgl64.Vec3(p)
	}
	return positions, s.Particles.Radius
}

func (b Body) model() (*actor.Model, error) {
	var bodyType actor.BodyType
	switch strings.ToLower(b.Type) {
	case "", "dynamic":
		bodyType = actor.BodyTypeDynamic
	case "static":
		bodyType = actor.BodyTypeStatic
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBodyType, b.Type)
	}

	body := actor.NewRigidBody(transform(b.Position, b.Rotation), bodyType)
	body.Id = b.Name
	body.IsSleeping = b.Sleeping
	body.IsTrigger = b.Trigger

	model := actor.NewModel(body)
	model.Envelope = b.Envelope

	if b.Material != nil {
		material, err := b.Material.material()
		if err != nil {
			return nil, err
		}
		model.Material = material
	}
	if b.Family != nil {
		family, err := b.Family.family()
		if err != nil {
			return nil, err
		}
		model.Family = family
	}

	for i, s := range b.Shapes {
		shape, err := s.shape()
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		model.AddShape(shape, transform(s.Offset, s.Rotation))
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

func (s Shape) shape() (actor.Shape, error) {
	switch strings.ToLower(s.Kind) {
	case "sphere":
		return &actor.Sphere{Radius: s.Radius}, nil
	case "box":
		return &actor.Box{HalfExtents: mgl64.Vec3(s.HalfExtents)}, nil
	case "plane":
		return &actor.Plane{Normal: mgl64.Vec3(s.Normal), Distance: s.Distance}, nil
	case "cylinder":
		return &actor.Cylinder{Radius: s.Radius, HalfHeight: s.HalfHeight}, nil
	case "capsule":
		return &actor.Capsule{Radius: s.Radius, HalfHeight: s.HalfHeight}, nil
	case "ellipsoid":
		return &actor.Ellipsoid{Radii: mgl64.Vec3(s.Radii)}, nil
	case "compound":
		compound := &actor.Compound{Children: make([]actor.CompoundChild, 0, len(s.Children))}
		for i, c := range s.Children {
			child, err := c.shape()
			if err != nil {
				return nil, fmt.Errorf("child %d: %w", i, err)
			}
			compound.Children = append(compound.Children, actor.CompoundChild{
				Shape:  child,
				Offset: transform(c.Offset, c.Rotation),
			})
		}
		return compound, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, s.Kind)
	}
}

func (m Material) material() (actor.Material, error) {
	material := actor.DefaultMaterial()
	if m.Restitution != nil {
		material.Restitution = *m.Restitution
	}
	if m.StaticFriction != nil {
		material.StaticFriction = *m.StaticFriction
	}
	if m.DynamicFriction != nil {
		material.DynamicFriction = *m.DynamicFriction
	}

	if m.Compliance != "" {
		if preset, ok := compliancePresets[strings.ToLower(m.Compliance)]; ok {
			material.Compliance = preset
		} else {
			value, err := strconv.ParseFloat(m.Compliance, 64)
			if err != nil || value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
				return material, fmt.Errorf("%w: %q", ErrUnknownMaterial, m.Compliance)
			}
			material.Compliance = value
		}
	}
	return material, nil
}

func (f Family) family() (actor.Family, error) {
	family := actor.DefaultFamily()
	if f.Group > actor.MaxFamilyGroup {
		return family, fmt.Errorf("%w: group %d", actor.ErrInvalidFamily, f.Group)
	}
	family.Group = f.Group
	for _, g := range f.NoCollisionWith {
		if g > actor.MaxFamilyGroup {
			return family, fmt.Errorf("%w: no_collision_with %d", actor.ErrInvalidFamily, g)
		}
		family.SetNoCollisionWith(g)
	}
	return family, nil
}

func transform(position [3]float64, rotation *Rotation) actor.Transform {
	t := actor.Transform{Position: mgl64.Vec3(position), Rotation: mgl64.QuatIdent()}
	if rotation != nil && rotation.Angle != 0 {
		axis := mgl64.Vec3(rotation.Axis)
		if axis.Len() > 1e-12 {
			t.Rotation = mgl64.QuatRotate(mgl64.DegToRad(rotation.Angle), axis.Normalize())
		}
	}
	return t
}
