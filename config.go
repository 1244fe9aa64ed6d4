package collide

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for malformed configuration values
var ErrInvalidConfig = errors.New("invalid collision config")

// Config holds the tuning of a collision System.
type Config struct {
	// Threads is the number of workers used by every phase
	Threads int `yaml:"threads"`

	// Envelope is the default collision envelope of a shape. Two shapes closer
	// than the sum of their envelopes already produce contacts.
	Envelope float64 `yaml:"envelope"`
	// Margin inflates the shapes handed to the generic convex test so that
	// touching shapes still overlap. It never shows in reported depths.
	Margin float64 `yaml:"margin"`
	// MinExtent is the smallest edge of a shape AABB
	MinExtent float64 `yaml:"min_extent"`

	// GridDensity is the number of broad-phase cells per shape
	GridDensity    float64 `yaml:"grid_density"`
	MaxCells       int     `yaml:"max_cells"`
	MaxBinsPerAxis int     `yaml:"max_bins_per_axis"`
	// SnapSize aligns the grid origin so that cell coordinates stay stable
	SnapSize float64 `yaml:"snap_size"`

	ActiveBox *ActiveBoxConfig `yaml:"active_box"`

	Logger *slog.Logger `yaml:"-"`
}

// ActiveBoxConfig enables the active box from a configuration file
type ActiveBoxConfig struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

func (b ActiveBoxConfig) bounds() (mgl64.Vec3, mgl64.Vec3) {
	return mgl64.Vec3(b.Min), mgl64.Vec3(b.Max)
}

// DefaultConfig returns a configuration suited to scenes of a few meters
func DefaultConfig() Config {
	return Config{
		Threads:        runtime.GOMAXPROCS(0),
		Envelope:       0.03,
		Margin:         0.01,
		MinExtent:      1e-4,
		GridDensity:    1,
		MaxCells:       1 << 20,
		MaxBinsPerAxis: 256,
		SnapSize:       1,
	}
}

// LoadConfig reads a YAML configuration. Missing keys keep their default value.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("collide: load %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("collide: unmarshal %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("collide: %s: %w", path, err)
	}

	return config, nil
}

// Validate checks every value of the configuration
func (c Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidThreadCount, c.Threads)
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"envelope", c.Envelope},
		{"margin", c.Margin},
	}
	for _, v := range nonNegative {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) || v.value < 0 {
			return fmt.Errorf("%w: %s is %v", ErrInvalidConfig, v.name, v.value)
		}
	}

	positive := []struct {
		name  string
		value float64
	}{
		{"min_extent", c.MinExtent},
		{"grid_density", c.GridDensity},
		{"snap_size", c.SnapSize},
	}
	for _, v := range positive {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) || v.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, v.name, v.value)
		}
	}

	if c.MaxCells < 1 {
		return fmt.Errorf("%w: max_cells must be positive, got %d", ErrInvalidConfig, c.MaxCells)
	}
	if c.MaxBinsPerAxis < 1 {
		return fmt.Errorf("%w: max_bins_per_axis must be positive, got %d", ErrInvalidConfig, c.MaxBinsPerAxis)
	}

	if c.ActiveBox != nil {
		for i := 0; i < 3; i++ {
			if !(c.ActiveBox.Min[i] <= c.ActiveBox.Max[i]) {
				return fmt.Errorf("%w: active box min %v above max %v", ErrInvalidConfig, c.ActiveBox.Min, c.ActiveBox.Max)
			}
		}
	}

	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
