// Package gait provides a scripted biped that walks a waypoint path over a
// heightfield, supplying the per-foot pose and force samples the footprint
// scheduler consumes.
package gait

import (
	"math"

	"github.com/Faultbox/imprint/internal/deform"
	m "github.com/Faultbox/imprint/pkg/math"
)

// Gravity in m/s².
const Gravity = 9.81

// Ground is the terrain the walker plants its feet on.
type Ground interface {
	HeightAt(x, z float64) float64
}

// Config describes the walker's body and gait.
type Config struct {
	Mass          float64      `yaml:"mass"`           // kg
	Speed         float64      `yaml:"speed"`          // m/s
	StepTime      float64      `yaml:"step_time"`      // seconds per stance
	DoubleSupport float64      `yaml:"double_support"` // fraction of a step with both feet down
	StanceWidth   float64      `yaml:"stance_width"`   // lateral distance between feet
	PushAccel     float64      `yaml:"push_accel"`     // m/s² of push-off
	FootLength    float64      `yaml:"foot_length"`
	FootWidth     float64      `yaml:"foot_width"`
	MaxSlope      float64      `yaml:"max_slope"` // degrees, steepest cell a route may cross
	Start         [2]float64   `yaml:"start"`     // world X, Z
	Waypoints     [][2]float64 `yaml:"waypoints"` // world X, Z
}

// DefaultConfig returns a 70 kg adult walking at a gentle pace.
func DefaultConfig() Config {
	return Config{
		Mass:          70,
		Speed:         1.2,
		StepTime:      0.5,
		DoubleSupport: 0.2,
		StanceWidth:   0.2,
		PushAccel:     2,
		FootLength:    0.26,
		FootWidth:     0.1,
		MaxSlope:      35,
	}
}

// Sole is the pose of one foot.
type Sole struct {
	Center   m.Vec3
	Yaw      float64 // radians, heading in the XZ plane
	Grounded bool
}

// Walker follows waypoints one tick at a time, alternating stance feet.
type Walker struct {
	cfg    Config
	ground Ground

	position m.Vec2 // body XZ
	heading  float64

	path      []m.Vec2
	pathIndex int
	target    m.Vec2

	// Movement state
	IsFollowingPath bool
	hasDestination  bool

	stance    deform.Foot
	stepTimer float64
	soles     [deform.FootCount]Sole
}

// NewWalker creates a walker standing at cfg.Start with both feet planted.
func NewWalker(cfg Config, ground Ground) *Walker {
	w := &Walker{
		cfg:      cfg,
		ground:   ground,
		position: m.Vec2{X: cfg.Start[0], Y: cfg.Start[1]},
		stance:   deform.Left,
	}
	if len(cfg.Waypoints) > 0 {
		first := m.Vec2{X: cfg.Waypoints[0][0], Y: cfg.Waypoints[0][1]}
		if d := first.Sub(w.position); d.LengthSq() > 0 {
			w.heading = math.Atan2(d.Y, d.X)
		}
	}
	w.plant(deform.Left)
	w.plant(deform.Right)

	path := make([]m.Vec2, len(cfg.Waypoints))
	for i, p := range cfg.Waypoints {
		path[i] = m.Vec2{X: p[0], Y: p[1]}
	}
	w.MoveTo(path)
	return w
}

// MoveTo replaces the current path.
func (w *Walker) MoveTo(path []m.Vec2) {
	w.path = path
	w.pathIndex = 0
	w.hasDestination = false
	w.IsFollowingPath = len(path) > 0
	w.setNextWaypoint()
}

// ClearPath stops walking; the walker settles onto both feet.
func (w *Walker) ClearPath() {
	w.path = nil
	w.pathIndex = 0
	w.hasDestination = false
	w.IsFollowingPath = false
}

// Position returns the body position in the XZ plane.
func (w *Walker) Position() m.Vec2 { return w.position }

// Heading returns the walking direction in radians.
func (w *Walker) Heading() float64 { return w.heading }

// Stance returns the current stance foot.
func (w *Walker) Stance() deform.Foot { return w.stance }

// Sole returns a foot's pose. It makes *Walker a SoleSource.
func (w *Walker) Sole(f deform.Foot) Sole { return w.soles[f] }

// Tick advances the walker by dt seconds and returns the inputs for both
// feet.
func (w *Walker) Tick(dt float64) [deform.FootCount]deform.FootInput {
	if w.IsFollowingPath {
		w.advance(dt)
		w.stepTimer += dt
		if w.stepTimer >= w.cfg.StepTime {
			w.stepTimer -= w.cfg.StepTime
			w.stance = w.stance.Other()
			w.plant(w.stance)
		}
		swing := w.stance.Other()
		w.soles[swing].Grounded = w.stepTimer < w.cfg.DoubleSupport*w.cfg.StepTime
	} else {
		w.stepTimer = 0
		for f := range w.soles {
			w.soles[f].Grounded = true
		}
	}
	return w.inputs()
}

func (w *Walker) advance(dt float64) {
	remaining := w.cfg.Speed * dt
	for remaining > 0 && w.hasDestination {
		d := w.target.Sub(w.position)
		dist := d.Length()
		if dist > 0 {
			w.heading = math.Atan2(d.Y, d.X)
		}
		if dist > remaining {
			w.position = w.position.Add(d.Scale(remaining / dist))
			return
		}
		w.position = w.target
		remaining -= dist
		w.hasDestination = false
		w.setNextWaypoint()
	}
	if !w.hasDestination && w.pathIndex >= len(w.path) {
		w.IsFollowingPath = false
	}
}

func (w *Walker) setNextWaypoint() {
	if w.pathIndex >= len(w.path) {
		return
	}
	w.target = w.path[w.pathIndex]
	w.hasDestination = true
	w.pathIndex++
}

// plant puts a foot down beside the body, half a stride ahead, at the
// terrain height under it.
func (w *Walker) plant(f deform.Foot) {
	forward := m.Vec2{X: math.Cos(w.heading), Y: math.Sin(w.heading)}
	side := forward.Rotate(math.Pi / 2).Scale(w.cfg.StanceWidth / 2)
	if f == deform.Right {
		side = side.Scale(-1)
	}
	xz := w.position.Add(side)
	if w.IsFollowingPath {
		xz = xz.Add(forward.Scale(w.cfg.Speed * w.cfg.StepTime / 2))
	}

	y := 0.0
	if w.ground != nil {
		y = w.ground.HeightAt(xz.X, xz.Y)
	}
	w.soles[f] = Sole{
		Center:   m.Vec3{X: xz.X, Y: y, Z: xz.Y},
		Yaw:      w.heading,
		Grounded: true,
	}
}

// inputs splits body weight across grounded feet and pushes the stance
// foot backward along the heading while walking.
func (w *Walker) inputs() [deform.FootCount]deform.FootInput {
	var grounded int
	for _, s := range w.soles {
		if s.Grounded {
			grounded++
		}
	}

	var push m.Vec2
	if w.IsFollowingPath {
		forward := m.Vec2{X: math.Cos(w.heading), Y: math.Sin(w.heading)}
		push = forward.Scale(-w.cfg.Mass * w.cfg.PushAccel)
	}

	var out [deform.FootCount]deform.FootInput
	for f, s := range w.soles {
		in := deform.FootInput{
			Grounded:   s.Grounded,
			Anchor:     s.Center,
			HeelHeight: s.Center.Y,
			ToeHeight:  s.Center.Y,
		}
		if s.Grounded && grounded > 0 {
			share := 1 / float64(grounded)
			in.Force.Vertical = w.cfg.Mass * Gravity * share
			if deform.Foot(f) == w.stance {
				in.Force.Horizontal = push
			}
		}
		out[f] = in
	}
	return out
}
