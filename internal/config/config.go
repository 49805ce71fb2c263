// Package config handles simulation configuration loading and management.
package config

import (
	"github.com/Faultbox/imprint/internal/deform"
	"github.com/Faultbox/imprint/internal/gait"
)

// Config holds all simulation settings.
type Config struct {
	Simulation deform.SimulationConfig          `yaml:"simulation"`
	Materials  map[string]deform.MaterialPreset `yaml:"materials"`
	Terrain    TerrainConfig                    `yaml:"terrain"`
	Walker     gait.Config                      `yaml:"walker"`
	Run        RunConfig                        `yaml:"run"`
	Logging    LoggingConfig                    `yaml:"logging"`
}

// TerrainConfig holds terrain file locations and material selection.
type TerrainConfig struct {
	Dir             string            `yaml:"dir"`              // directory of .hmap files
	Default         string            `yaml:"default"`          // terrain used when none is named
	Materials       map[string]string `yaml:"materials"`        // terrain name -> material preset
	DefaultMaterial string            `yaml:"default_material"` // preset for unmapped terrains
	Override        string            `yaml:"override"`         // forces one preset for every terrain
}

// RunConfig holds batch run settings.
type RunConfig struct {
	Ticks int     `yaml:"ticks"`
	Dt    float64 `yaml:"dt"` // seconds per tick
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Simulation: deform.DefaultSimulationConfig(),
		Materials:  deform.DefaultMaterials(),
		Terrain: TerrainConfig{
			Dir:             "terrain",
			Default:         "",
			Materials:       map[string]string{},
			DefaultMaterial: "soil",
			Override:        "",
		},
		Walker: gait.DefaultConfig(),
		Run: RunConfig{
			Ticks: 250,
			Dt:    0.02,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
