package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/imprint/internal/deform"
	"github.com/Faultbox/imprint/internal/heightfield"
	"github.com/Faultbox/imprint/internal/logger"
)

// Session drives the footprint scheduler on whichever terrain is active.
// A change of terrain identity reinitialises the heightfield views and
// starts every foot over.
type Session struct {
	cfg        deform.SimulationConfig
	manager    *Manager
	materials  *Materials
	probe      deform.GroundProbe
	vegetation deform.VegetationDensity
	scheduler  *deform.Scheduler
	active     *heightfield.Store
	log        *zap.Logger
}

// NewSession creates a session. log may be nil.
func NewSession(cfg deform.SimulationConfig, manager *Manager, materials *Materials, probe deform.GroundProbe, log *zap.Logger) *Session {
	return &Session{
		cfg:       cfg,
		manager:   manager,
		materials: materials,
		probe:     probe,
		log:       logger.OrNop(log),
	}
}

// SetVegetation enables the vegetation-aware compression variant.
func (s *Session) SetVegetation(v deform.VegetationDensity) {
	s.vegetation = v
	if s.scheduler != nil {
		s.scheduler.SetVegetation(v)
	}
}

// Scheduler returns the scheduler, nil before the first tick.
func (s *Session) Scheduler() *deform.Scheduler { return s.scheduler }

// Terrain returns the heightfield being deformed, nil before the first tick.
func (s *Session) Terrain() *heightfield.Store { return s.active }

// Tick activates the named terrain and advances the scheduler by dt.
func (s *Session) Tick(terrain string, dt float64, inputs [deform.FootCount]deform.FootInput) error {
	if _, err := s.manager.Activate(terrain); err != nil {
		return err
	}
	if err := s.sync(); err != nil {
		return err
	}
	s.scheduler.Tick(dt, inputs)
	return nil
}

// sync rebinds the scheduler when the manager's terrain is not the one
// being deformed.
func (s *Session) sync() error {
	store := s.manager.Current()
	if store == nil {
		return ErrUnknownTerrain
	}
	if store == s.active {
		return nil
	}

	mat, err := s.materials.Resolve(store.Name())
	if err != nil {
		return fmt.Errorf("activating terrain %s: %w", store.Name(), err)
	}

	store.ResetReference()
	store.Filter(mat.FilterIterations)

	from := ""
	if s.active != nil {
		from = s.active.Name()
	}
	if s.scheduler == nil {
		s.scheduler = deform.NewScheduler(s.cfg, store, s.probe, mat, s.log.Named("scheduler"))
		s.scheduler.SetVegetation(s.vegetation)
	} else {
		s.scheduler.Reset(store, mat)
	}
	s.active = store

	s.log.Info("terrain changed",
		zap.String("from", from),
		zap.String("to", store.Name()),
		zap.String("material", mat.Name))
	return nil
}

// Save commits the active terrain to its backend.
func (s *Session) Save() error {
	if s.active == nil {
		return ErrUnknownTerrain
	}
	if err := s.active.Save(); err != nil {
		return err
	}
	s.log.Info("terrain saved", zap.String("terrain", s.active.Name()))
	return nil
}
