package deform

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/imprint/internal/logger"
)

// StabilizationCell pairs a cell with a lower neighbour it may shed
// material onto.
type StabilizationCell struct {
	Center         int // grid index
	Neighbor       int // grid index
	CenterHeight   float64
	NeighborHeight float64
	Angle          float64 // degrees, clamped to [0, 90]
	HeightDiff     float64 // center - neighbor
	Weight         float64 // share of the center's transfer
}

// RelaxResult summarises one relaxation pass.
type RelaxResult struct {
	Moved    int // pairs that transferred material
	Stable   int // pairs within the resting angle
	Skipped  int // pairs whose transfer would invert the slope
	Deferred int // pairs held back because they share a cell with a skipped pair
}

// Settled reports whether every pair was within the resting angle.
func (r RelaxResult) Settled() bool {
	return r.Moved == 0 && r.Skipped == 0 && r.Deferred == 0
}

// StabilizationRelaxer slumps slopes steeper than the resting angle.
type StabilizationRelaxer struct {
	restingAngle float64
	step         float64
	log          *zap.Logger
}

// NewStabilizationRelaxer creates a relaxer from cfg. log may be nil.
func NewStabilizationRelaxer(cfg SimulationConfig, log *zap.Logger) *StabilizationRelaxer {
	return &StabilizationRelaxer{
		restingAngle: cfg.RestingAngle,
		step:         cfg.StabilizationStep,
		log:          logger.OrNop(log),
	}
}

// levelLabels returns the center and neighbour labels of a stabilization
// level. Level 1 slumps the first contour ring into the print; deeper
// levels slump ring k outward onto ring k+1.
func levelLabels(level int) (center, neighbor int) {
	if level <= 1 {
		return LabelContour, LabelContact
	}
	return level, level + 1
}

// BuildPairs collects the level's pairs from a frozen label mirror
// (grid index -> label). Only pairs whose center is currently higher than
// the neighbour are kept.
func (r *StabilizationRelaxer) BuildPairs(grid Heightfield, labels map[int]int, level int) []StabilizationCell {
	centerLabel, neighborLabel := levelLabels(level)

	centers := make([]int, 0, len(labels))
	for idx, l := range labels {
		if l == centerLabel {
			centers = append(centers, idx)
		}
	}
	sort.Ints(centers)

	var pairs []StabilizationCell
	for _, c := range centers {
		x, z := grid.Coords(c)
		for dz := -1; dz <= 1; dz++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dz == 0 {
					continue
				}
				n := grid.Index(x+dx, z+dz)
				if labels[n] != neighborLabel {
					continue
				}
				if grid.At(c)-grid.At(n) <= 0 {
					continue
				}
				pairs = append(pairs, StabilizationCell{Center: c, Neighbor: n})
			}
		}
	}

	r.Refresh(grid, pairs)
	return pairs
}

// Refresh recomputes heights, angles and transfer weights from the grid
// and sorts the pairs by center height, highest first.
func (r *StabilizationRelaxer) Refresh(grid Heightfield, pairs []StabilizationCell) {
	sums := make(map[int]float64)
	for i := range pairs {
		p := &pairs[i]
		p.CenterHeight = grid.At(p.Center)
		p.NeighborHeight = grid.At(p.Neighbor)
		p.HeightDiff = p.CenterHeight - p.NeighborHeight
		p.Angle = SlopeAngle(p.HeightDiff, grid.CellLength())
		if p.HeightDiff > 0 {
			sums[p.Center] += p.HeightDiff
		}
	}
	for i := range pairs {
		p := &pairs[i]
		p.Weight = 0
		if s := sums[p.Center]; s > 0 && p.HeightDiff > 0 {
			p.Weight = p.HeightDiff / s
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].CenterHeight != pairs[j].CenterHeight {
			return pairs[i].CenterHeight > pairs[j].CenterHeight
		}
		if pairs[i].Center != pairs[j].Center {
			return pairs[i].Center < pairs[j].Center
		}
		return pairs[i].Neighbor < pairs[j].Neighbor
	})
}

// SlopeAngle returns atan2(diff, run) in degrees, clamped to [0, 90].
func SlopeAngle(diff, run float64) float64 {
	angle := math.Atan2(diff, run) * 180 / math.Pi
	if angle < 0 {
		return 0
	}
	if angle > 90 {
		return 90
	}
	return angle
}

// Relax runs one pass over pairs. Transfers are staged in a scratch buffer
// and committed only where the center stays at or above its neighbour; a
// failing pair, and every moving pair sharing a cell with it, is left
// untouched this pass.
func (r *StabilizationRelaxer) Relax(grid Heightfield, pairs []StabilizationCell) RelaxResult {
	var res RelaxResult
	if len(pairs) == 0 {
		return res
	}
	r.Refresh(grid, pairs)

	scratch := make(map[int]float64, 2*len(pairs))
	staged := make(map[int]bool, 2*len(pairs))
	moving := make([]bool, len(pairs))

	for i, p := range pairs {
		if p.Angle > r.restingAngle {
			scratch[p.Center] = grid.At(p.Center) - r.step
			staged[p.Center] = true

			base := grid.At(p.Neighbor)
			if staged[p.Neighbor] {
				base = scratch[p.Neighbor]
			}
			scratch[p.Neighbor] = base + r.step*p.Weight
			staged[p.Neighbor] = true
			moving[i] = true
			continue
		}

		res.Stable++
		if !staged[p.Center] {
			scratch[p.Center] = grid.At(p.Center)
		}
		if !staged[p.Neighbor] {
			scratch[p.Neighbor] = grid.At(p.Neighbor)
		}
	}

	tainted := make(map[int]bool)
	failing := make([]bool, len(pairs))
	for i, p := range pairs {
		if !moving[i] {
			continue
		}
		if scratch[p.Center] < scratch[p.Neighbor] {
			failing[i] = true
			tainted[p.Center] = true
			tainted[p.Neighbor] = true
			res.Skipped++
			r.log.Warn("stabilization overshoot, skipping pair",
				zap.Int("center", p.Center),
				zap.Int("neighbor", p.Neighbor),
				zap.Float64("center_height", scratch[p.Center]),
				zap.Float64("neighbor_height", scratch[p.Neighbor]))
		}
	}

	for changed := len(tainted) > 0; changed; {
		changed = false
		for i, p := range pairs {
			if !moving[i] || failing[i] {
				continue
			}
			if tainted[p.Center] || tainted[p.Neighbor] {
				failing[i] = true
				tainted[p.Center] = true
				tainted[p.Neighbor] = true
				res.Deferred++
				changed = true
			}
		}
	}

	for i, p := range pairs {
		if !moving[i] || failing[i] {
			continue
		}
		grid.SetAt(p.Center, scratch[p.Center])
		grid.SetAt(p.Neighbor, scratch[p.Neighbor])
		res.Moved++
	}
	return res
}
