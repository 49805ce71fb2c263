package deform

import (
	"testing"

	"github.com/Faultbox/imprint/internal/heightfield"
	m "github.com/Faultbox/imprint/pkg/math"
)

const tickDt = 0.02

func loamMaterial() MaterialPreset {
	return MaterialPreset{
		Name:             "loam",
		ElasticModulus:   500000,
		PoissonRatio:     0.4,
		FilterIterations: 2,
		BumpEnabled:      true,
		ContactTime:      0.2,
	}
}

// singleCellScene is a 9x9 grid of unit cells with the left foot touching
// only the centre cell.
func singleCellScene(t *testing.T) (*heightfield.Store, *Scheduler, [FootCount]FootInput) {
	t.Helper()
	grid := newGrid(t, 9, 1)
	cfg := DefaultSimulationConfig()
	cfg.GridSize = 1
	cfg.ModulationMix = 0.5

	probe := &cellSetProbe{grid: grid, cells: map[[2]int]bool{{4, 4}: true}}
	s := NewScheduler(cfg, grid, probe, loamMaterial(), nil)

	var inputs [FootCount]FootInput
	inputs[Left] = FootInput{
		Grounded: true,
		Anchor:   grid.Grid2World(4, 4),
		Force:    ForceSample{Vertical: 500, Horizontal: m.Vec2{X: 10}},
	}
	return grid, s, inputs
}

func TestScheduler_FirstTick(t *testing.T) {
	grid, s, inputs := singleCellScene(t)
	s.Tick(tickDt, inputs)

	st := s.Status(Left)
	if st.Phase != PhaseDeforming || !st.Grounded || st.Episode == "" {
		t.Fatalf("status = %+v", st)
	}
	if !approx(st.Target.CompressionDepth, 0.0003, 1e-15) {
		t.Errorf("depth = %v, want 0.0003", st.Target.CompressionDepth)
	}
	if !approx(grid.Get(4, 4), -0.00003, 1e-15) {
		t.Errorf("contact height = %v, want -0.00003", grid.Get(4, 4))
	}

	if st.Sample.ContourCount != 8 || len(st.Sample.Bumps) != 8 {
		t.Fatalf("contour = %d, bumps = %d", st.Sample.ContourCount, len(st.Sample.Bumps))
	}
	var sum float64
	for _, b := range st.Sample.Bumps {
		sum += b.Weight
		if !approx(grid.At(b.Cell), 0.0000045, 1e-15) {
			t.Errorf("bump cell %d = %v, want 0.0000045", b.Cell, grid.At(b.Cell))
		}
	}
	if !approx(sum, 1, 1e-12) {
		t.Errorf("bump weights sum to %v", sum)
	}

	if grid.Get(2, 2) != 0 || grid.Get(6, 4) != 0 {
		t.Error("cells outside the window changed")
	}
	if s.Status(Right).Episode != "" {
		t.Error("airborne foot should not start an episode")
	}
}

func TestScheduler_ConvergesWithoutOvershoot(t *testing.T) {
	grid, s, inputs := singleCellScene(t)
	const tol = 1e-15

	for i := 0; i < 9; i++ {
		s.Tick(tickDt, inputs)
		st := s.Status(Left)
		if st.Phase != PhaseDeforming {
			t.Fatalf("tick %d: phase %v, want deforming", i+1, st.Phase)
		}
		if h := grid.Get(4, 4); h < -st.Target.CompressionDepth-tol {
			t.Fatalf("tick %d: contact %v below floor", i+1, h)
		}
		n := float64(st.Target.ContourCount)
		for _, b := range st.Sample.Bumps {
			ceiling := b.Weight * st.Target.BumpHeight * n
			if h := grid.At(b.Cell); h > ceiling+tol {
				t.Fatalf("tick %d: bump %d = %v above %v", i+1, b.Cell, h, ceiling)
			}
		}
	}

	for i := 0; i < 3; i++ {
		s.Tick(tickDt, inputs)
	}
	if st := s.Status(Left); st.Phase != PhaseStabilizing {
		t.Errorf("phase after contact time = %v, want stabilizing", st.Phase)
	}
	if h := grid.Get(4, 4); h < -0.0003-tol {
		t.Errorf("contact %v below floor", h)
	}
}

func TestScheduler_LiftOff(t *testing.T) {
	_, s, inputs := singleCellScene(t)
	for i := 0; i < 3; i++ {
		s.Tick(tickDt, inputs)
	}
	first := s.Status(Left).Episode

	lifted := inputs
	lifted[Left].Grounded = false
	s.Tick(tickDt, lifted)

	st := s.Status(Left)
	if st.Grounded || st.Timer != 0 {
		t.Errorf("after lift: grounded=%v timer=%v", st.Grounded, st.Timer)
	}
	if st.Phase != PhaseStabilizing {
		t.Errorf("after lift: phase %v, want stabilizing", st.Phase)
	}
	if a := s.classifier.Tracker(Left).Contact(); a != 0 {
		t.Errorf("contact tracker = %v after lift", a)
	}

	s.Tick(tickDt, inputs)
	st = s.Status(Left)
	if st.Episode == first || st.Episode == "" {
		t.Errorf("touchdown reused episode %q", st.Episode)
	}
	if st.Phase != PhaseDeforming || !approx(st.Timer, tickDt, eps) {
		t.Errorf("after touchdown: phase %v timer %v", st.Phase, st.Timer)
	}
}

func TestScheduler_ZeroForceLeavesGrid(t *testing.T) {
	grid, s, inputs := singleCellScene(t)
	inputs[Left].Force = ForceSample{}
	for i := 0; i < 5; i++ {
		s.Tick(tickDt, inputs)
	}
	for i, h := range grid.Snapshot() {
		if h != 0 {
			t.Fatalf("cell %d = %v, want 0", i, h)
		}
	}
}

func TestScheduler_ResetOnTerrainChange(t *testing.T) {
	_, s, inputs := singleCellScene(t)
	for i := 0; i < 4; i++ {
		s.Tick(tickDt, inputs)
	}
	old := s.Status(Left).Episode

	next := newGrid(t, 9, 1)
	snow := DefaultMaterials()["snow"]
	s.Reset(next, snow)

	st := s.Status(Left)
	if st.Episode != "" || st.Timer != 0 || st.Phase != PhaseDeforming {
		t.Errorf("status after reset = %+v", st)
	}
	if s.Material().Name != "snow" {
		t.Errorf("material = %q", s.Material().Name)
	}

	s.Tick(tickDt, inputs)
	if ep := s.Status(Left).Episode; ep == "" || ep == old {
		t.Errorf("episode after reset = %q", ep)
	}
	if next.Get(4, 4) >= 0 {
		t.Error("new grid should receive the print")
	}
}

func TestScheduler_VegetationStiffensCells(t *testing.T) {
	grid := newGrid(t, 9, 1)
	cfg := DefaultSimulationConfig()
	cfg.GridSize = 1
	cfg.VegetationModulus = 500000

	probe := &cellSetProbe{grid: grid, cells: map[[2]int]bool{{4, 4}: true}}
	s := NewScheduler(cfg, grid, probe, loamMaterial(), nil)
	veg := NewVegetationGrid(9, 9)
	veg.Set(4, 4, 1)
	s.SetVegetation(veg)

	var inputs [FootCount]FootInput
	inputs[Left] = FootInput{
		Grounded: true,
		Anchor:   grid.Grid2World(4, 4),
		Force:    ForceSample{Vertical: 500},
	}
	s.Tick(tickDt, inputs)

	if !approx(grid.Get(4, 4), -0.000015, 1e-15) {
		t.Errorf("contact height = %v, want -0.000015", grid.Get(4, 4))
	}
	if d := s.Status(Left).Target.DepthAt(grid.Index(4, 4)); !approx(d, 0.00015, 1e-15) {
		t.Errorf("cell depth = %v, want 0.00015", d)
	}
}

func TestScheduler_SnowPrintSettles(t *testing.T) {
	grid := newGrid(t, 17, 0.01)
	cfg := DefaultSimulationConfig()
	snow := DefaultMaterials()["snow"]
	s := NewScheduler(cfg, grid, squareProbe(grid, 8, 8, 1), snow, nil)

	var inputs [FootCount]FootInput
	inputs[Left] = FootInput{
		Grounded: true,
		Anchor:   grid.Grid2World(8, 8),
		Force:    ForceSample{Vertical: 12},
	}

	for i := 0; i < 300 && !s.Status(Left).Settled; i++ {
		s.Tick(tickDt, inputs)
	}

	st := s.Status(Left)
	if !st.Settled {
		t.Fatalf("print never settled: %+v", st.Passes)
	}
	if st.Passes >= cfg.MaxStabilizationPasses {
		t.Errorf("settled only by the pass cap (%d)", st.Passes)
	}
	if len(st.Levels) == 0 || len(st.Levels[0]) == 0 {
		t.Fatal("no level 1 pairs")
	}
	for _, p := range st.Levels[0] {
		diff := grid.At(p.Center) - grid.At(p.Neighbor)
		if angle := SlopeAngle(diff, grid.CellLength()); angle > cfg.RestingAngle+1e-9 {
			t.Errorf("pair %d->%d left at %v degrees", p.Center, p.Neighbor, angle)
		}
	}
	if grid.Get(8, 8) >= 0 {
		t.Error("print centre should stay depressed")
	}
}

func TestScheduler_FilteredViewFollowsRelaxation(t *testing.T) {
	grid := newGrid(t, 17, 0.01)
	cfg := DefaultSimulationConfig()
	snow := DefaultMaterials()["snow"]
	s := NewScheduler(cfg, grid, squareProbe(grid, 8, 8, 1), snow, nil)

	var inputs [FootCount]FootInput
	inputs[Left] = FootInput{
		Grounded: true,
		Anchor:   grid.Grid2World(8, 8),
		Force:    ForceSample{Vertical: 12},
	}
	for i := 0; i < 300 && !s.Status(Left).Settled; i++ {
		s.Tick(tickDt, inputs)
	}
	if st := s.Status(Left); !st.Settled || st.Passes == 0 {
		t.Fatalf("print did not relax: settled=%v passes=%d", st.Settled, st.Passes)
	}

	lo, hi := 8-cfg.GridSize, 8+cfg.GridSize
	before := make(map[[2]int]float64)
	for z := lo; z <= hi; z++ {
		for x := lo; x <= hi; x++ {
			before[[2]int{x, z}] = grid.GetFiltered(x, z)
		}
	}
	grid.FilterRegion(lo, lo, hi, hi, snow.FilterIterations)
	for c, want := range before {
		if got := grid.GetFiltered(c[0], c[1]); !approx(got, want, 1e-12) {
			t.Errorf("filtered(%d,%d) = %v, fresh filter gives %v", c[0], c[1], want, got)
		}
	}
}
