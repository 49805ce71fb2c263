// Package deform imprints footprints into a heightfield.
//
// Each tick, for every foot, a ContactClassifier labels the cells around the
// foot as contact or contour, the PressureModel and CompressionVolumeModel
// turn the foot's load into a compression depth and a volume-conserving
// bump, ModulationWeights bias that bump toward the push direction, and the
// Scheduler moves the grid toward those targets over the material's contact
// time. When the window elapses or the foot lifts, the StabilizationRelaxer
// slumps the rim of the print toward its angle of repose.
package deform

import "fmt"

// Foot identifies one foot of a biped.
type Foot int

// Feet are processed in this order every tick.
const (
	Left Foot = iota
	Right
	FootCount
)

// String returns the foot name.
func (f Foot) String() string {
	switch f {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Foot(%d)", int(f))
	}
}

// Other returns the opposite foot.
func (f Foot) Other() Foot {
	if f == Left {
		return Right
	}
	return Left
}

// Ring labels used in a ContactWindow.
const (
	LabelFree    = 0
	LabelContact = 1
	LabelContour = 2 // first contour ring, receives the bump
)

// MaterialPreset describes how a terrain material responds to load.
type MaterialPreset struct {
	Name             string  `yaml:"name"`
	ElasticModulus   float64 `yaml:"elastic_modulus"` // Pa
	PoissonRatio     float64 `yaml:"poisson_ratio"`
	FilterIterations int     `yaml:"filter_iterations"`
	BumpEnabled      bool    `yaml:"bump_enabled"`
	ContactTime      float64 `yaml:"contact_time"` // seconds
}

// Validate reports presets the models cannot use.
func (p MaterialPreset) Validate() error {
	switch {
	case p.ElasticModulus <= 0:
		return fmt.Errorf("material %q: elastic_modulus must be positive, got %v", p.Name, p.ElasticModulus)
	case p.PoissonRatio < 0 || p.PoissonRatio > 0.5:
		return fmt.Errorf("material %q: poisson_ratio must be in [0, 0.5], got %v", p.Name, p.PoissonRatio)
	case p.FilterIterations < 0:
		return fmt.Errorf("material %q: filter_iterations must not be negative, got %d", p.Name, p.FilterIterations)
	case p.ContactTime <= 0:
		return fmt.Errorf("material %q: contact_time must be positive, got %v", p.Name, p.ContactTime)
	}
	return nil
}

// DefaultMaterials returns the built-in presets keyed by name.
func DefaultMaterials() map[string]MaterialPreset {
	return map[string]MaterialPreset{
		"snow": {
			Name:             "snow",
			ElasticModulus:   200000,
			PoissonRatio:     0.13,
			FilterIterations: 5,
			BumpEnabled:      false,
			ContactTime:      0.25,
		},
		"dry_sand": {
			Name:             "dry_sand",
			ElasticModulus:   600000,
			PoissonRatio:     0.3,
			FilterIterations: 10,
			BumpEnabled:      true,
			ContactTime:      0.2,
		},
		"mud": {
			Name:             "mud",
			ElasticModulus:   350000,
			PoissonRatio:     0.4,
			FilterIterations: 15,
			BumpEnabled:      true,
			ContactTime:      0.3,
		},
		"soil": {
			Name:             "soil",
			ElasticModulus:   1500000,
			PoissonRatio:     0.35,
			FilterIterations: 5,
			BumpEnabled:      true,
			ContactTime:      0.15,
		},
	}
}

// SimulationConfig holds the tunables shared by all components.
type SimulationConfig struct {
	// GridSize is the contact window half-width in cells.
	GridSize int `yaml:"grid_size"`
	// RayOffset is how far below the surface contact probes start.
	RayOffset float64 `yaml:"ray_offset"`
	// ContourRings is how many rings are labelled beyond contact.
	ContourRings int `yaml:"contour_rings"`
	// ColumnLength is the natural length L0 of the compressed column.
	ColumnLength float64 `yaml:"column_length"`
	// RestingAngle is the angle of repose in degrees.
	RestingAngle           float64 `yaml:"resting_angle"`
	StabilizationStep      float64 `yaml:"stabilization_step"`
	MaxStabilizationPasses int     `yaml:"max_stabilization_passes"`
	// ModulationMix blends orientation (1) and uniform (0) bump weights.
	ModulationMix     float64 `yaml:"modulation_mix"`
	ForceThreshold    float64 `yaml:"force_threshold"`
	ContactTimeOffset float64 `yaml:"contact_time_offset"`
	VegetationModulus float64 `yaml:"vegetation_modulus"`
}

// DefaultSimulationConfig returns the standard tunables.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		GridSize:               4,
		RayOffset:              0.05,
		ContourRings:           2,
		ColumnLength:           0.3,
		RestingAngle:           30,
		StabilizationStep:      0.0005,
		MaxStabilizationPasses: 200,
		ModulationMix:          0.5,
		ForceThreshold:         1.0,
		ContactTimeOffset:      0,
		VegetationModulus:      0,
	}
}

// Validate reports values no component can work with.
func (c SimulationConfig) Validate() error {
	switch {
	case c.GridSize < 1:
		return fmt.Errorf("grid_size must be at least 1, got %d", c.GridSize)
	case c.RayOffset <= 0:
		return fmt.Errorf("ray_offset must be positive, got %v", c.RayOffset)
	case c.ContourRings < 1:
		return fmt.Errorf("contour_rings must be at least 1, got %d", c.ContourRings)
	case c.ColumnLength <= 0:
		return fmt.Errorf("column_length must be positive, got %v", c.ColumnLength)
	case c.RestingAngle < 0 || c.RestingAngle > 90:
		return fmt.Errorf("resting_angle must be in [0, 90], got %v", c.RestingAngle)
	case c.StabilizationStep <= 0:
		return fmt.Errorf("stabilization_step must be positive, got %v", c.StabilizationStep)
	case c.MaxStabilizationPasses < 0:
		return fmt.Errorf("max_stabilization_passes must not be negative, got %d", c.MaxStabilizationPasses)
	case c.ModulationMix < 0 || c.ModulationMix > 1:
		return fmt.Errorf("modulation_mix must be in [0, 1], got %v", c.ModulationMix)
	case c.ForceThreshold < 0:
		return fmt.Errorf("force_threshold must not be negative, got %v", c.ForceThreshold)
	case c.VegetationModulus < 0:
		return fmt.Errorf("vegetation_modulus must not be negative, got %v", c.VegetationModulus)
	}
	return nil
}
