package gait

import (
	"github.com/Faultbox/imprint/internal/deform"
	m "github.com/Faultbox/imprint/pkg/math"
)

// SoleSource reports foot poses.
type SoleSource interface {
	Sole(f deform.Foot) Sole
}

// SoleProbe treats each foot as an elliptical slab and answers upward
// contact probes against it.
type SoleProbe struct {
	Source     SoleSource
	HalfLength float64 // along the heading
	HalfWidth  float64
	Thickness  float64 // slab height above the sole
	Sink       float64 // how far below its plant height the sole may press
}

// NewSoleProbe creates a probe sized from the walker config.
func NewSoleProbe(cfg Config, source SoleSource) *SoleProbe {
	return &SoleProbe{
		Source:     source,
		HalfLength: cfg.FootLength / 2,
		HalfWidth:  cfg.FootWidth / 2,
		Thickness:  0.05,
		Sink:       0.1,
	}
}

// Probe implements deform.GroundProbe. Only upward probes can hit.
func (p *SoleProbe) Probe(pos, dir m.Vec3, maxDistance float64, foot deform.Foot) bool {
	if dir.Y <= 0 || p.HalfLength <= 0 || p.HalfWidth <= 0 {
		return false
	}
	s := p.Source.Sole(foot)
	if !s.Grounded {
		return false
	}

	bottom := s.Center.Y - p.Sink
	top := s.Center.Y + p.Thickness
	if pos.Y > top || pos.Y+maxDistance < bottom {
		return false
	}

	local := pos.XZ().Sub(s.Center.XZ()).Rotate(-s.Yaw)
	u := local.X / p.HalfLength
	v := local.Y / p.HalfWidth
	return u*u+v*v <= 1
}

var _ deform.GroundProbe = (*SoleProbe)(nil)
