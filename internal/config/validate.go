package config

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var err error

	if e := c.Simulation.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("simulation: %w", e))
	}

	names := make([]string, 0, len(c.Materials))
	for name := range c.Materials {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := c.Materials[name]
		if p.Name == "" {
			p.Name = name
		}
		err = multierr.Append(err, p.Validate())
	}

	terrains := make([]string, 0, len(c.Terrain.Materials))
	for terrain := range c.Terrain.Materials {
		terrains = append(terrains, terrain)
	}
	sort.Strings(terrains)
	for _, terrain := range terrains {
		mat := c.Terrain.Materials[terrain]
		if _, ok := c.Materials[mat]; !ok {
			err = multierr.Append(err, fmt.Errorf("terrain %q: unknown material %q", terrain, mat))
		}
	}
	if d := c.Terrain.DefaultMaterial; d != "" {
		if _, ok := c.Materials[d]; !ok {
			err = multierr.Append(err, fmt.Errorf("terrain default_material: unknown material %q", d))
		}
	}
	if o := c.Terrain.Override; o != "" {
		if _, ok := c.Materials[o]; !ok {
			err = multierr.Append(err, fmt.Errorf("terrain override: unknown material %q", o))
		}
	}

	if c.Run.Ticks < 1 {
		err = multierr.Append(err, fmt.Errorf("run: ticks must be positive, got %d", c.Run.Ticks))
	}
	if c.Run.Dt <= 0 {
		err = multierr.Append(err, fmt.Errorf("run: dt must be positive, got %v", c.Run.Dt))
	}
	if c.Walker.Mass <= 0 {
		err = multierr.Append(err, fmt.Errorf("walker: mass must be positive, got %v", c.Walker.Mass))
	}
	if c.Walker.StepTime <= 0 {
		err = multierr.Append(err, fmt.Errorf("walker: step_time must be positive, got %v", c.Walker.StepTime))
	}
	return err
}
