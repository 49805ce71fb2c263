package deform

import (
	"math"

	m "github.com/Faultbox/imprint/pkg/math"
)

// ModulationWeights biases bump material toward the horizontal push
// direction of the foot.
type ModulationWeights struct {
	Mix            float64 // beta: 1 = orientation only, 0 = uniform only
	ForceThreshold float64
}

// NewModulationWeights reads beta and the force threshold from cfg.
func NewModulationWeights(cfg SimulationConfig) ModulationWeights {
	return ModulationWeights{Mix: cfg.ModulationMix, ForceThreshold: cfg.ForceThreshold}
}

// Weigh builds the bump records for the sample's contour cells. The cosine
// is taken between the pivot->cell vector and the horizontal force; forces
// with both components under the threshold give no orientation at all.
func (w ModulationWeights) Weigh(sample *FootContactSample, pivot m.Vec3, force m.Vec2) []Bump {
	n := len(sample.ContourCells)
	if n == 0 {
		return nil
	}

	directed := math.Abs(force.X) >= w.ForceThreshold || math.Abs(force.Y) >= w.ForceThreshold
	uniform := 1 / float64(n)

	bumps := make([]Bump, n)
	var sum float64
	for i, cell := range sample.ContourCells {
		pos := sample.ContourPositions[i]
		toCell := pos.XZ().Sub(pivot.XZ())
		b := Bump{
			Cell:          cell,
			Position:      pos,
			SqrDistance:   pos.Sub(pivot).Dot(pos.Sub(pivot)),
			UniformWeight: uniform,
		}
		if directed {
			angle := m.SignedAngle(toCell, force) * math.Pi / 180
			b.Cosine = m.Clamp(math.Cos(angle), 0, 1)
		}
		sum += b.Cosine
		bumps[i] = b
	}

	for i := range bumps {
		if sum > 0 {
			bumps[i].OrientationWeight = bumps[i].Cosine / sum
		}
		bumps[i].Weight = w.Mix*bumps[i].OrientationWeight + (1-w.Mix)*bumps[i].UniformWeight
	}
	return bumps
}
