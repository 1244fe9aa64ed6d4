// Package scene loads YAML scene descriptions into collision models.
package scene

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scene is the root of a scene file
type Scene struct {
	Name      string     `yaml:"name"`
	Bodies    []Body     `yaml:"bodies"`
	Particles *Particles `yaml:"particles"`
}

type Body struct {
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"` // dynamic (default) or static
	Position [3]float64 `yaml:"position"`
	Rotation *Rotation  `yaml:"rotation"`
	Sleeping bool       `yaml:"sleeping"`
	Trigger  bool       `yaml:"trigger"`
	Envelope float64    `yaml:"envelope"`
	Material *Material  `yaml:"material"`
	Family   *Family    `yaml:"family"`
	Shapes   []Shape    `yaml:"shapes"`
}

// Rotation is an axis and an angle in degrees
type Rotation struct {
	Axis  [3]float64 `yaml:"axis"`
	Angle float64    `yaml:"angle"`
}

type Shape struct {
	Kind     string     `yaml:"kind"`
	Offset   [3]float64 `yaml:"offset"`
	Rotation *Rotation  `yaml:"rotation"`

	Radius      float64    `yaml:"radius"`
	HalfHeight  float64    `yaml:"half_height"`
	HalfExtents [3]float64 `yaml:"half_extents"`
	Radii       [3]float64 `yaml:"radii"`
	Normal      [3]float64 `yaml:"normal"`
	Distance    float64    `yaml:"distance"`

	Children []Shape `yaml:"children"`
}

type Material struct {
	Restitution     *float64 `yaml:"restitution"`
	StaticFriction  *float64 `yaml:"static_friction"`
	DynamicFriction *float64 `yaml:"dynamic_friction"`
	// Compliance is a number or the name of a preset such as "rubber"
	Compliance string `yaml:"compliance"`
}

type Family struct {
	Group           uint8   `yaml:"group"`
	NoCollisionWith []uint8 `yaml:"no_collision_with"`
}

type Particles struct {
	Radius    float64      `yaml:"radius"`
	Positions [][3]float64 `yaml:"positions"`
}

// Load reads and parses a scene file
func Load(filename string) (*Scene, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", filename, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", filename, err)
	}
	return s, nil
}

// Parse decodes a scene. Unknown keys are rejected to catch typos.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &s, nil
}
