package deform

import (
	"github.com/Faultbox/imprint/internal/heightfield"
	m "github.com/Faultbox/imprint/pkg/math"
)

// GroundProbe answers whether an upward probe from pos, travelling at most
// maxDistance along dir, intersects the volume of the given foot.
type GroundProbe interface {
	Probe(pos, dir m.Vec3, maxDistance float64, foot Foot) bool
}

// ProbeFunc adapts a function to GroundProbe.
type ProbeFunc func(pos, dir m.Vec3, maxDistance float64, foot Foot) bool

// Probe implements GroundProbe.
func (f ProbeFunc) Probe(pos, dir m.Vec3, maxDistance float64, foot Foot) bool {
	return f(pos, dir, maxDistance, foot)
}

// VegetationDensity reports the living vegetation ratio of a cell in [0, 1].
type VegetationDensity interface {
	LivingRatio(x, z int) float64
}

// ForceSample is the ground reaction force on one foot, already resolved to
// terrain-local axes.
type ForceSample struct {
	Vertical   float64 // magnitude, N
	Horizontal m.Vec2  // XZ components, N
}

// FootInput is everything the host supplies for one foot each tick.
type FootInput struct {
	Grounded   bool
	Anchor     m.Vec3 // ground-checker position
	HeelHeight float64
	ToeHeight  float64
	Force      ForceSample
}

// Pivot returns the anchor projected to the lower of heel and toe height.
func (in FootInput) Pivot() m.Vec3 {
	y := in.HeelHeight
	if in.ToeHeight < y {
		y = in.ToeHeight
	}
	return m.Vec3{X: in.Anchor.X, Y: y, Z: in.Anchor.Z}
}

// Heightfield is the grid the components read and mutate.
// *heightfield.Store satisfies it.
type Heightfield interface {
	Index(x, z int) int
	Coords(idx int) (x, z int)
	At(idx int) float64
	ReferenceAt(idx int) float64
	SetAt(idx int, h float64)
	Grid2World(x, z int) m.Vec3
	World2Grid(p m.Vec3) (x, z int)
	CellArea() float64
	CellLength() float64
	FilterRegion(x0, z0, x1, z1, iterations int)
}

var _ Heightfield = (*heightfield.Store)(nil)
