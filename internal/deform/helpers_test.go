package deform

import (
	"math"
	"testing"

	"github.com/Faultbox/imprint/internal/heightfield"
	m "github.com/Faultbox/imprint/pkg/math"
)

const eps = 1e-12

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func newGrid(t *testing.T, size int, cellLength float64) *heightfield.Store {
	t.Helper()
	s, err := heightfield.New("test", size, size, cellLength, 1, nil)
	if err != nil {
		t.Fatalf("heightfield.New: %v", err)
	}
	return s
}

// squareProbe hits every cell whose centre lies within radius cells
// (Chebyshev) of the given centre cell.
func squareProbe(grid *heightfield.Store, cx, cz, radius int) GroundProbe {
	return ProbeFunc(func(pos, dir m.Vec3, maxDistance float64, foot Foot) bool {
		x, z := grid.World2Grid(pos)
		dx, dz := x-cx, z-cz
		return dx >= -radius && dx <= radius && dz >= -radius && dz <= radius
	})
}

// cellSetProbe hits exactly the listed grid cells.
type cellSetProbe struct {
	grid  *heightfield.Store
	cells map[[2]int]bool
}

func (p *cellSetProbe) Probe(pos, dir m.Vec3, maxDistance float64, foot Foot) bool {
	x, z := p.grid.World2Grid(pos)
	return p.cells[[2]int{x, z}]
}
