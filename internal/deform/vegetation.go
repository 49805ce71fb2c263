package deform

import m "github.com/Faultbox/imprint/pkg/math"

// VegetationGrid is a wrapped per-cell living ratio map.
type VegetationGrid struct {
	width  int
	depth  int
	ratios []float64
}

// NewVegetationGrid creates a grid with no vegetation.
func NewVegetationGrid(width, depth int) *VegetationGrid {
	if width <= 0 {
		width = 1
	}
	if depth <= 0 {
		depth = 1
	}
	return &VegetationGrid{width: width, depth: depth, ratios: make([]float64, width*depth)}
}

func (g *VegetationGrid) index(x, z int) int {
	x = (x%g.width + g.width) % g.width
	z = (z%g.depth + g.depth) % g.depth
	return z*g.width + x
}

// Set stores a ratio, clamped to [0, 1].
func (g *VegetationGrid) Set(x, z int, ratio float64) {
	g.ratios[g.index(x, z)] = m.Clamp(ratio, 0, 1)
}

// LivingRatio implements VegetationDensity.
func (g *VegetationGrid) LivingRatio(x, z int) float64 {
	return g.ratios[g.index(x, z)]
}
