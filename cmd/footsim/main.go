// footsim is a CLI for imprinting footprints into heightfield files.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/imprint/internal/config"
	"github.com/Faultbox/imprint/internal/deform"
	"github.com/Faultbox/imprint/internal/gait"
	"github.com/Faultbox/imprint/internal/heightfield"
	"github.com/Faultbox/imprint/internal/logger"
	"github.com/Faultbox/imprint/internal/world"
	"github.com/Faultbox/imprint/pkg/formats"
	m "github.com/Faultbox/imprint/pkg/math"
)

func main() {
	// Global flags come before the command
	config.ParseFlags()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		cmdInfo(args)
	case "flat":
		cmdFlat(args)
	case "walk":
		cmdWalk(args)
	case "materials":
		cmdMaterials(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`footsim - footprint deformation on heightfield terrain

Usage:
  footsim [global options] <command> [options]

Commands:
  info <file.hmap>                       Show heightfield information
  flat [options] <out.hmap>              Write a flat heightfield
  walk [options] [terrain|file] [out]    Walk a biped across a terrain and save the prints
  materials                              List material presets

Global options:
  --config <path>     Config file
  --debug             Debug logging
  --terrain <name>    Terrain used when walk gets none
  --material <name>   Force a material preset
  --grid-size <n>     Contact window half-width in cells
  --ticks <n>         Simulation ticks for walk

Examples:
  footsim flat -w 128 -d 128 -cell 0.05 beach.hmap
  footsim walk beach.hmap beach_walked.hmap
  footsim --material dry_sand walk beach.hmap beach_walked.hmap
  footsim info beach_walked.hmap`)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: footsim info <file.hmap>")
		os.Exit(1)
	}

	hm, err := formats.ParseHMapFile(args[0])
	if err != nil {
		fail(err)
	}
	lo, hi := hm.AltitudeRange()

	fmt.Printf("File:        %s\n", args[0])
	fmt.Printf("Version:     %s\n", hm.Version)
	fmt.Printf("Size:        %d x %d cells\n", hm.Width, hm.Depth)
	fmt.Printf("Cell length: %g\n", hm.CellLength)
	fmt.Printf("Extent:      %g x %g\n", float32(hm.Width)*hm.CellLength, float32(hm.Depth)*hm.CellLength)
	fmt.Printf("Scale:       %g\n", hm.Scale)
	fmt.Printf("Altitude:    %g .. %g\n", lo*hm.Scale, hi*hm.Scale)
}

func cmdFlat(args []string) {
	fs := flag.NewFlagSet("flat", flag.ExitOnError)
	width := fs.Int("w", 128, "Width in cells")
	depth := fs.Int("d", 128, "Depth in cells")
	cell := fs.Float64("cell", 0.05, "Cell side length")
	height := fs.Float64("height", 0, "Surface height")
	scale := fs.Float64("scale", 1, "Height scale")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: footsim flat [-w N] [-d N] [-cell L] [-height H] [-scale S] <out.hmap>")
		os.Exit(1)
	}

	heights := make([]float64, (*width)*(*depth))
	for i := range heights {
		heights[i] = *height
	}
	store, err := heightfield.New(stem(fs.Arg(0)), *width, *depth, *cell, *scale, heights)
	if err != nil {
		fail(err)
	}
	store.Bind(heightfield.FileBackend{Path: fs.Arg(0)})
	if err := store.Save(); err != nil {
		fail(err)
	}
	fmt.Printf("Wrote %s (%d x %d cells)\n", fs.Arg(0), *width, *depth)
}

func cmdMaterials(args []string) {
	cfg := loadConfig()
	mats := world.NewMaterials(cfg.Materials, cfg.Terrain.Materials, "")

	fmt.Printf("%-12s %12s %8s %7s %5s %8s\n", "NAME", "E (Pa)", "POISSON", "FILTER", "BUMP", "CONTACT")
	for _, name := range mats.Names() {
		p := cfg.Materials[name]
		fmt.Printf("%-12s %12.0f %8.2f %7d %5t %7.2fs\n",
			name, p.ElasticModulus, p.PoissonRatio, p.FilterIterations, p.BumpEnabled, p.ContactTime)
	}
}

func cmdWalk(args []string) {
	fs := flag.NewFlagSet("walk", flag.ExitOnError)
	vegetation := fs.Float64("vegetation", 0, "Uniform living vegetation ratio in [0, 1]")
	fs.Parse(args)

	cfg := loadConfig()
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	source := cfg.Terrain.Default
	if fs.NArg() > 0 {
		source = fs.Arg(0)
	}
	if source == "" {
		fmt.Fprintln(os.Stderr, "Usage: footsim walk [-vegetation R] [terrain|file.hmap] [out.hmap]")
		os.Exit(1)
	}
	out := fs.Arg(1)

	name, loader := terrainLoader(source, cfg.Terrain.Dir, out)
	mats := world.NewMaterials(cfg.Materials, cfg.Terrain.Materials, cfg.Terrain.Override)
	if err := mats.SetFallback(cfg.Terrain.DefaultMaterial); err != nil {
		fail(err)
	}
	manager := world.NewManager(loader, logger.Named("world"))
	if _, err := manager.Activate(name); err != nil {
		fail(err)
	}
	store := manager.Current()

	walkerCfg := cfg.Walker
	if len(walkerCfg.Waypoints) == 0 {
		start, goal := crossing(store)
		walkerCfg.Start = start
		walkerCfg.Waypoints = [][2]float64{goal}
		router := gait.NewRouter(store, walkerCfg.MaxSlope)
		from := m.Vec2{X: start[0], Y: start[1]}
		to := m.Vec2{X: goal[0], Y: goal[1]}
		if route, ok := router.Route(from, to); ok {
			walkerCfg.Waypoints = route
		} else {
			logger.Warn("no walkable route, walking straight", zap.String("terrain", name))
		}
	}
	walker := gait.NewWalker(walkerCfg, store)
	probe := gait.NewSoleProbe(walkerCfg, walker)

	session := world.NewSession(cfg.Simulation, manager, mats, probe, logger.Named("session"))
	if *vegetation > 0 {
		veg := deform.NewVegetationGrid(store.Width(), store.Depth())
		for z := 0; z < store.Depth(); z++ {
			for x := 0; x < store.Width(); x++ {
				veg.Set(x, z, *vegetation)
			}
		}
		session.SetVegetation(veg)
	}

	logger.Info("walking",
		zap.String("terrain", name),
		zap.Int("ticks", cfg.Run.Ticks),
		zap.Float64("dt", cfg.Run.Dt),
		zap.Int("waypoints", len(walkerCfg.Waypoints)))

	for i := 0; i < cfg.Run.Ticks; i++ {
		if err := session.Tick(name, cfg.Run.Dt, walker.Tick(cfg.Run.Dt)); err != nil {
			logger.Error("tick failed", zap.Int("tick", i), zap.Error(err))
			os.Exit(1)
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, h := range store.Snapshot() {
		lo = math.Min(lo, h)
		hi = math.Max(hi, h)
	}
	for f := deform.Foot(0); f < deform.FootCount; f++ {
		st := session.Scheduler().Status(f)
		logger.Info("foot",
			zap.Stringer("foot", f),
			zap.String("episode", st.Episode),
			zap.Stringer("phase", st.Phase),
			zap.Int("passes", st.Passes),
			zap.Bool("settled", st.Settled))
	}
	logger.Info("walk finished",
		zap.Float64("lowest", lo),
		zap.Float64("highest", hi),
		zap.Float64("x", walker.Position().X),
		zap.Float64("z", walker.Position().Y))

	if err := session.Save(); err != nil {
		logger.Error("failed to save terrain", zap.Error(err))
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// terrainLoader resolves source either as an .hmap path or as a terrain
// name under dir. Saves go to out when given, otherwise back to the source.
func terrainLoader(source, dir, out string) (string, world.Loader) {
	var base world.Loader = world.DirLoader{Dir: dir}
	name := source
	if strings.HasSuffix(source, world.TerrainExt) {
		name = stem(source)
		path := source
		base = world.LoaderFunc(func(n string) (*heightfield.Store, error) {
			return heightfield.Load(n, path)
		})
	}
	if out == "" {
		return name, base
	}
	return name, world.LoaderFunc(func(n string) (*heightfield.Store, error) {
		s, err := base.Load(n)
		if err != nil {
			return nil, err
		}
		s.Bind(heightfield.FileBackend{Path: out})
		return s, nil
	})
}

// crossing returns points at 10% and 90% of the terrain's width along its
// middle row.
func crossing(store *heightfield.Store) (start, goal [2]float64) {
	o := store.Origin()
	w := float64(store.Width()) * store.CellLength()
	z := o.Z + float64(store.Depth())*store.CellLength()/2
	return [2]float64{o.X + 0.1*w, z}, [2]float64{o.X + 0.9*w, z}
}

func stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
