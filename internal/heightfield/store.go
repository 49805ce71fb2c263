// Package heightfield owns the terrain height grid that footprints deform.
//
// A Store keeps three views of the same width x depth grid: the current
// heights mutated live, a reference baseline captured at session start,
// and a filtered copy smoothed for consumers. All integer accessors wrap
// modulo the grid dimensions, so no access is ever out of range.
package heightfield

import (
	"errors"
	"fmt"
	"math"

	m "github.com/Faultbox/imprint/pkg/math"
)

// ErrNoBackend is returned by Save when the store has no backing storage.
var ErrNoBackend = errors.New("heightfield: no backend bound")

// Backend persists committed heights.
type Backend interface {
	Save(s *Store) error
}

// Store holds the heightfield grid. Heights are in world units.
type Store struct {
	name       string
	width      int // cells along X
	depth      int // cells along Z
	cellLength float64
	scale      float64
	origin     m.Vec3

	current   []float64
	reference []float64
	filtered  []float64

	backend Backend
}

// New creates a store. heights may be nil for a flat grid at height 0;
// otherwise it must hold width*depth values in row-major (z*width + x) order.
// The reference and filtered views start as copies of heights.
func New(name string, width, depth int, cellLength, scale float64, heights []float64) (*Store, error) {
	if width <= 0 || depth <= 0 {
		return nil, fmt.Errorf("heightfield: invalid dimensions %dx%d", width, depth)
	}
	if !(cellLength > 0) {
		return nil, fmt.Errorf("heightfield: invalid cell length %v", cellLength)
	}
	if heights != nil && len(heights) != width*depth {
		return nil, fmt.Errorf("heightfield: got %d heights for %dx%d grid", len(heights), width, depth)
	}
	if scale == 0 {
		scale = 1
	}

	s := &Store{
		name:       name,
		width:      width,
		depth:      depth,
		cellLength: cellLength,
		scale:      scale,
		current:    make([]float64, width*depth),
	}
	copy(s.current, heights)
	s.reference = append([]float64(nil), s.current...)
	s.filtered = append([]float64(nil), s.current...)
	return s, nil
}

// Name returns the terrain identity this store was created for.
func (s *Store) Name() string { return s.name }

// Width returns the number of cells along X.
func (s *Store) Width() int { return s.width }

// Depth returns the number of cells along Z.
func (s *Store) Depth() int { return s.depth }

// CellLength returns the side length of one cell in world units.
func (s *Store) CellLength() float64 { return s.cellLength }

// CellArea returns the horizontal area covered by one cell.
func (s *Store) CellArea() float64 { return s.cellLength * s.cellLength }

// Scale returns the factor between normalized file heights and world heights.
func (s *Store) Scale() float64 { return s.scale }

// Origin returns the world position of cell (0, 0).
func (s *Store) Origin() m.Vec3 { return s.origin }

// SetOrigin moves the grid in world space.
func (s *Store) SetOrigin(origin m.Vec3) { s.origin = origin }

// Bind attaches the backend used by Save.
func (s *Store) Bind(b Backend) { s.backend = b }

// Index returns the wrapped row-major index of (x, z).
func (s *Store) Index(x, z int) int {
	x = (x%s.width + s.width) % s.width
	z = (z%s.depth + s.depth) % s.depth
	return z*s.width + x
}

// Coords returns the cell coordinates of a row-major index.
func (s *Store) Coords(idx int) (x, z int) {
	idx = (idx%len(s.current) + len(s.current)) % len(s.current)
	return idx % s.width, idx / s.width
}

// Get returns the current height at (x, z).
func (s *Store) Get(x, z int) float64 { return s.current[s.Index(x, z)] }

// GetF truncates the coordinates and returns the current height.
func (s *Store) GetF(x, z float64) float64 { return s.Get(int(x), int(z)) }

// GetReference returns the baseline height at (x, z).
func (s *Store) GetReference(x, z int) float64 { return s.reference[s.Index(x, z)] }

// GetReferenceF truncates the coordinates and returns the baseline height.
func (s *Store) GetReferenceF(x, z float64) float64 { return s.GetReference(int(x), int(z)) }

// GetFiltered returns the filtered height at (x, z).
func (s *Store) GetFiltered(x, z int) float64 { return s.filtered[s.Index(x, z)] }

// GetFilteredF truncates the coordinates and returns the filtered height.
func (s *Store) GetFilteredF(x, z float64) float64 { return s.GetFiltered(int(x), int(z)) }

// Set writes the current height at (x, z).
func (s *Store) Set(x, z int, h float64) { s.current[s.Index(x, z)] = h }

// SetF truncates the coordinates and writes the current height.
func (s *Store) SetF(x, z, h float64) { s.Set(int(x), int(z), h) }

// At returns the current height at a row-major index.
func (s *Store) At(idx int) float64 { return s.current[idx] }

// ReferenceAt returns the baseline height at a row-major index.
func (s *Store) ReferenceAt(idx int) float64 { return s.reference[idx] }

// SetAt writes the current height at a row-major index.
func (s *Store) SetAt(idx int, h float64) { s.current[idx] = h }

// World2Grid converts a world position to the cell containing it.
// The result is not wrapped.
func (s *Store) World2Grid(p m.Vec3) (x, z int) {
	fx := (p.X - s.origin.X) / s.cellLength
	fz := (p.Z - s.origin.Z) / s.cellLength
	return int(math.Floor(fx)), int(math.Floor(fz))
}

// Grid2World returns the world position of the centre of cell (x, z),
// at its current height.
func (s *Store) Grid2World(x, z int) m.Vec3 {
	return m.Vec3{
		X: s.origin.X + (float64(x)+0.5)*s.cellLength,
		Y: s.origin.Y + s.Get(x, z),
		Z: s.origin.Z + (float64(z)+0.5)*s.cellLength,
	}
}

// HeightAt returns the world height at (x, z), bilinearly interpolated
// between the four surrounding cell centres. Lookups wrap like cell access.
func (s *Store) HeightAt(x, z float64) float64 {
	fx := (x-s.origin.X)/s.cellLength - 0.5
	fz := (z-s.origin.Z)/s.cellLength - 0.5
	cx, cz := math.Floor(fx), math.Floor(fz)
	tx, tz := fx-cx, fz-cz
	ix, iz := int(cx), int(cz)

	south := s.Get(ix, iz)*(1-tx) + s.Get(ix+1, iz)*tx
	north := s.Get(ix, iz+1)*(1-tx) + s.Get(ix+1, iz+1)*tx
	return s.origin.Y + south*(1-tz) + north*tz
}

// ResetReference captures the current heights as the new baseline.
func (s *Store) ResetReference() {
	copy(s.reference, s.current)
}

// Snapshot returns a copy of the current heights.
func (s *Store) Snapshot() []float64 {
	return append([]float64(nil), s.current...)
}

// Save commits the working heights to the bound backend.
func (s *Store) Save() error {
	if s.backend == nil {
		return ErrNoBackend
	}
	if err := s.backend.Save(s); err != nil {
		return fmt.Errorf("saving heightfield %s: %w", s.name, err)
	}
	return nil
}
