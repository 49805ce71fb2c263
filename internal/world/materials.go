package world

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Faultbox/imprint/internal/deform"
)

// ErrUnknownMaterial is returned when a material name has no preset.
var ErrUnknownMaterial = errors.New("world: unknown material")

// Materials selects the preset a terrain deforms as: a manual override
// when set, otherwise the terrain's mapped material, otherwise the fallback.
type Materials struct {
	presets   map[string]deform.MaterialPreset
	byTerrain map[string]string
	override  string
	fallback  string
}

// NewMaterials creates a selector. byTerrain maps terrain name to preset
// name; override, when non-empty, wins for every terrain.
func NewMaterials(presets map[string]deform.MaterialPreset, byTerrain map[string]string, override string) *Materials {
	return &Materials{presets: presets, byTerrain: byTerrain, override: override}
}

// SetOverride forces every terrain to the named preset. Empty clears it.
func (m *Materials) SetOverride(name string) error {
	if name != "" {
		if _, ok := m.presets[name]; !ok {
			return fmt.Errorf("material %q: %w", name, ErrUnknownMaterial)
		}
	}
	m.override = name
	return nil
}

// SetFallback names the preset used for terrains without a mapping.
// Empty makes unmapped terrains an error.
func (m *Materials) SetFallback(name string) error {
	if name != "" {
		if _, ok := m.presets[name]; !ok {
			return fmt.Errorf("material %q: %w", name, ErrUnknownMaterial)
		}
	}
	m.fallback = name
	return nil
}

// Resolve returns the preset for a terrain.
func (m *Materials) Resolve(terrain string) (deform.MaterialPreset, error) {
	name := m.override
	if name == "" {
		mapped, ok := m.byTerrain[terrain]
		if !ok {
			mapped = m.fallback
		}
		if mapped == "" {
			return deform.MaterialPreset{}, fmt.Errorf("terrain %q has no material: %w", terrain, ErrUnknownTerrain)
		}
		name = mapped
	}
	p, ok := m.presets[name]
	if !ok {
		return deform.MaterialPreset{}, fmt.Errorf("material %q: %w", name, ErrUnknownMaterial)
	}
	if p.Name == "" {
		p.Name = name
	}
	return p, nil
}

// Names returns the preset names in sorted order.
func (m *Materials) Names() []string {
	names := make([]string, 0, len(m.presets))
	for name := range m.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
