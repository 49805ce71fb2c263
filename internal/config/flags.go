package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagTerrain  = flag.String("terrain", "", "Terrain name to activate")
	flagMaterial = flag.String("material", "", "Force a material preset for every terrain")
	flagGridSize = flag.Int("grid-size", 0, "Contact window half-width in cells")
	flagTicks    = flag.Int("ticks", 0, "Number of simulation ticks to run")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagTerrain != "" {
		cfg.Terrain.Default = *flagTerrain
	}
	if *flagMaterial != "" {
		cfg.Terrain.Override = *flagMaterial
	}
	if *flagGridSize > 0 {
		cfg.Simulation.GridSize = *flagGridSize
	}
	if *flagTicks > 0 {
		cfg.Run.Ticks = *flagTicks
	}
}
