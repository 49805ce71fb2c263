package deform

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/imprint/internal/logger"
)

// Phase is the per-foot state of the scheduler.
type Phase int

// Phases.
const (
	PhaseDeforming Phase = iota
	PhaseStabilizing
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseDeforming:
		return "deforming"
	case PhaseStabilizing:
		return "stabilizing"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// FootStatus is a read-only view of one foot's scheduler state.
type FootStatus struct {
	Episode  string
	Phase    Phase
	Timer    float64
	Grounded bool
	Sample   *FootContactSample
	Target   DeformationTarget
	Passes   int
	Settled  bool
	Levels   [][]StabilizationCell
}

type footState struct {
	episode  string
	phase    Phase
	timer    float64
	grounded bool
	labels   map[int]int // grid index -> lowest label seen this episode
	levels   [][]StabilizationCell
	passes   int
	settled  bool
	sample   *FootContactSample
	target   DeformationTarget
	region   [4]int // x0, z0, x1, z1 covered by this episode's windows
	touched  bool
}

// Scheduler advances every foot once per tick: converging the grid toward
// the foot's deformation target while the contact window is open, then
// relaxing the print's slopes.
type Scheduler struct {
	cfg        SimulationConfig
	material   MaterialPreset
	grid       Heightfield
	classifier *ContactClassifier
	pressure   PressureModel
	volume     *CompressionVolumeModel
	modulation ModulationWeights
	relaxer    *StabilizationRelaxer
	vegetation VegetationDensity
	feet       [FootCount]footState
	log        *zap.Logger
}

// NewScheduler wires the components for one terrain. log may be nil.
func NewScheduler(cfg SimulationConfig, grid Heightfield, probe GroundProbe, material MaterialPreset, log *zap.Logger) *Scheduler {
	log = logger.OrNop(log)
	return &Scheduler{
		cfg:        cfg,
		material:   material,
		grid:       grid,
		classifier: NewContactClassifier(cfg, probe),
		volume:     NewCompressionVolumeModel(cfg),
		modulation: NewModulationWeights(cfg),
		relaxer:    NewStabilizationRelaxer(cfg, log.Named("relaxer")),
		log:        log,
	}
}

// SetVegetation enables the vegetation-aware compression variant when the
// configured vegetation modulus is positive. nil disables it.
func (s *Scheduler) SetVegetation(v VegetationDensity) { s.vegetation = v }

// Material returns the active material preset.
func (s *Scheduler) Material() MaterialPreset { return s.material }

// Reset rebinds the scheduler to a new grid and material and starts every
// foot over in a fresh Deforming phase.
func (s *Scheduler) Reset(grid Heightfield, material MaterialPreset) {
	s.grid = grid
	s.material = material
	for f := Foot(0); f < FootCount; f++ {
		s.feet[f] = footState{}
		s.classifier.Reset(f)
		s.volume.Reset(f)
	}
}

// Status returns a snapshot of a foot's state.
func (s *Scheduler) Status(f Foot) FootStatus {
	st := &s.feet[f]
	return FootStatus{
		Episode:  st.episode,
		Phase:    st.phase,
		Timer:    st.timer,
		Grounded: st.grounded,
		Sample:   st.sample,
		Target:   st.target,
		Passes:   st.passes,
		Settled:  st.settled,
		Levels:   st.levels,
	}
}

// Tick advances both feet by dt seconds, left then right. Every write is
// applied before Tick returns.
func (s *Scheduler) Tick(dt float64, inputs [FootCount]FootInput) {
	for f := Foot(0); f < FootCount; f++ {
		s.tickFoot(f, inputs[f], dt)
	}
}

func (s *Scheduler) tickFoot(f Foot, in FootInput, dt float64) {
	st := &s.feet[f]

	if !in.Grounded {
		if st.grounded {
			s.liftOff(f)
		}
		if st.phase == PhaseStabilizing && !st.settled {
			s.stabilize(f)
		}
		return
	}

	if !st.grounded {
		s.touchDown(f)
	}

	st.timer += dt
	if st.phase == PhaseDeforming && st.timer > s.material.ContactTime+s.cfg.ContactTimeOffset {
		s.beginStabilizing(f)
	}

	switch {
	case st.phase == PhaseDeforming:
		s.deform(f, in, dt)
	case !st.settled:
		s.stabilize(f)
	}
}

func (s *Scheduler) touchDown(f Foot) {
	st := &s.feet[f]
	*st = footState{
		episode:  uuid.NewString(),
		phase:    PhaseDeforming,
		grounded: true,
		labels:   make(map[int]int),
	}
	s.classifier.Reset(f)
	s.volume.Reset(f)
	s.log.Debug("episode started", zap.Stringer("foot", f), zap.String("episode", st.episode))
}

// liftOff ends the contact episode. An episode still deforming hands its
// labels to stabilization so the print relaxes while the foot is airborne.
func (s *Scheduler) liftOff(f Foot) {
	st := &s.feet[f]
	s.log.Debug("foot lifted",
		zap.Stringer("foot", f),
		zap.String("episode", st.episode),
		zap.Float64("timer", st.timer))

	st.grounded = false
	st.timer = 0
	s.classifier.Reset(f)
	s.volume.Reset(f)
	if st.phase == PhaseDeforming && len(st.labels) > 0 {
		s.beginStabilizing(f)
	}
}

func (s *Scheduler) beginStabilizing(f Foot) {
	st := &s.feet[f]
	st.phase = PhaseStabilizing
	st.passes = 0
	st.settled = false
	st.levels = make([][]StabilizationCell, s.cfg.ContourRings)
	pairs := 0
	for level := 1; level <= s.cfg.ContourRings; level++ {
		st.levels[level-1] = s.relaxer.BuildPairs(s.grid, st.labels, level)
		pairs += len(st.levels[level-1])
	}
	s.log.Debug("stabilization started",
		zap.Stringer("foot", f),
		zap.String("episode", st.episode),
		zap.Int("pairs", pairs))
}

func (s *Scheduler) deform(f Foot, in FootInput, dt float64) {
	st := &s.feet[f]
	g := s.grid

	ax, az := g.World2Grid(in.Anchor)
	sample := s.classifier.Classify(g, f, ax, az)
	st.cover(ax-s.cfg.GridSize, az-s.cfg.GridSize, ax+s.cfg.GridSize, az+s.cfg.GridSize)
	st.sample = sample

	w := sample.Window
	side := w.Side()
	for j := 0; j < side; j++ {
		for i := 0; i < side; i++ {
			label := w.Label(i, j)
			if label == LabelFree {
				continue
			}
			idx := g.Index(w.Cell(i, j))
			if old, ok := st.labels[idx]; !ok || label < old {
				st.labels[idx] = label
			}
		}
	}

	pressure := s.pressure.Pressure(in.Force.Vertical, sample.ContactArea)
	if s.vegetation != nil && s.cfg.VegetationModulus > 0 {
		st.target = s.volume.VegetationTarget(f, pressure, sample, g, s.vegetation, s.material)
	} else {
		st.target = s.volume.Target(f, pressure, sample, g.CellArea(), s.material)
	}
	sample.Bumps = s.modulation.Weigh(sample, in.Pivot(), in.Force.Horizontal)

	s.applyCompression(sample, &st.target, dt)
	if s.material.BumpEnabled {
		s.applyBump(sample, &st.target, dt)
	}

	g.FilterRegion(ax-s.cfg.GridSize, az-s.cfg.GridSize, ax+s.cfg.GridSize, az+s.cfg.GridSize, s.material.FilterIterations)
}

// applyCompression lowers contact cells toward reference - depth by at most
// dt*depth/contactTime, holding once the floor is reached.
func (s *Scheduler) applyCompression(sample *FootContactSample, t *DeformationTarget, dt float64) {
	for _, cell := range sample.ContactCells {
		depth := t.DepthAt(cell)
		if depth <= 0 {
			continue
		}
		floor := s.grid.ReferenceAt(cell) - depth
		h := s.grid.At(cell)
		if h <= floor {
			continue
		}
		s.grid.SetAt(cell, math.Max(h-dt*depth/s.material.ContactTime, floor))
	}
}

// applyBump raises first-ring contour cells toward
// reference + weight*bumpHeight*contourCount.
func (s *Scheduler) applyBump(sample *FootContactSample, t *DeformationTarget, dt float64) {
	if t.BumpHeight <= 0 {
		return
	}
	step := dt * t.BumpStep
	for _, b := range sample.Bumps {
		ceiling := s.grid.ReferenceAt(b.Cell) + b.Weight*t.BumpHeight*float64(t.ContourCount)
		h := s.grid.At(b.Cell)
		if h >= ceiling {
			continue
		}
		s.grid.SetAt(b.Cell, math.Min(h+step, ceiling))
	}
}

func (s *Scheduler) stabilize(f Foot) {
	st := &s.feet[f]
	settled := true
	for _, pairs := range st.levels {
		if res := s.relaxer.Relax(s.grid, pairs); !res.Settled() {
			settled = false
		}
	}
	st.passes++
	if st.touched {
		r := st.region
		s.grid.FilterRegion(r[0], r[1], r[2], r[3], s.material.FilterIterations)
	}

	capped := s.cfg.MaxStabilizationPasses > 0 && st.passes >= s.cfg.MaxStabilizationPasses
	if settled || capped {
		st.settled = true
		s.log.Debug("stabilization finished",
			zap.Stringer("foot", f),
			zap.String("episode", st.episode),
			zap.Int("passes", st.passes),
			zap.Bool("capped", capped && !settled))
	}
}

// cover grows the episode region to include the given cell rectangle.
func (st *footState) cover(x0, z0, x1, z1 int) {
	if !st.touched {
		st.region = [4]int{x0, z0, x1, z1}
		st.touched = true
		return
	}
	st.region[0] = min(st.region[0], x0)
	st.region[1] = min(st.region[1], z0)
	st.region[2] = max(st.region[2], x1)
	st.region[3] = max(st.region[3], z1)
}
