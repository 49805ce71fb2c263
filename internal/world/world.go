// Package world tracks the active terrain, the material it deforms as, and
// binds both to the footprint scheduler each tick.
package world

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/imprint/internal/heightfield"
	"github.com/Faultbox/imprint/internal/logger"
)

// TerrainExt is the file extension DirLoader appends to terrain names.
const TerrainExt = ".hmap"

// ErrUnknownTerrain is returned when a terrain cannot be resolved.
var ErrUnknownTerrain = errors.New("world: unknown terrain")

// Loader resolves a terrain name to a heightfield.
type Loader interface {
	Load(name string) (*heightfield.Store, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(name string) (*heightfield.Store, error)

// Load implements Loader.
func (f LoaderFunc) Load(name string) (*heightfield.Store, error) { return f(name) }

// DirLoader loads <Dir>/<name>.hmap.
type DirLoader struct {
	Dir string
}

// Load implements Loader.
func (l DirLoader) Load(name string) (*heightfield.Store, error) {
	return heightfield.Load(name, filepath.Join(l.Dir, name+TerrainExt))
}

// Manager manages the current terrain and terrain transitions.
type Manager struct {
	loader  Loader
	current *heightfield.Store
	loading bool
	log     *zap.Logger
}

// NewManager creates a manager loading terrains through loader.
// log may be nil.
func NewManager(loader Loader, log *zap.Logger) *Manager {
	return &Manager{loader: loader, log: logger.OrNop(log)}
}

// Current returns the active terrain, or nil before the first load.
func (m *Manager) Current() *heightfield.Store {
	return m.current
}

// IsLoading returns whether a terrain is currently loading.
func (m *Manager) IsLoading() bool {
	return m.loading
}

// LoadTerrain loads a terrain by name and makes it active.
func (m *Manager) LoadTerrain(name string) error {
	if m.loader == nil {
		return fmt.Errorf("loading terrain %s: %w", name, ErrUnknownTerrain)
	}
	m.loading = true
	defer func() { m.loading = false }()

	store, err := m.loader.Load(name)
	if err != nil {
		return fmt.Errorf("loading terrain %s: %w", name, err)
	}
	m.current = store
	m.log.Info("terrain loaded",
		zap.String("terrain", name),
		zap.Int("width", store.Width()),
		zap.Int("depth", store.Depth()),
		zap.Float64("cell_length", store.CellLength()))
	return nil
}

// Activate makes the named terrain active, loading it if it is not already.
// It reports whether the active terrain identity changed.
func (m *Manager) Activate(name string) (bool, error) {
	if m.current != nil && m.current.Name() == name {
		return false, nil
	}
	if err := m.LoadTerrain(name); err != nil {
		return false, err
	}
	return true, nil
}
