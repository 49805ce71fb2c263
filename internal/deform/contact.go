package deform

import (
	m "github.com/Faultbox/imprint/pkg/math"
)

// ContactWindow is a square of cell labels centred on a foot's anchor cell.
// Labels: 0 free, 1 contact, k >= 2 the (k-1)th contour ring.
type ContactWindow struct {
	Foot    Foot
	AnchorX int
	AnchorZ int
	Size    int   // half-width; side is 2*Size+1
	Labels  []int // row-major, window z then x
}

// NewContactWindow allocates an all-free window.
func NewContactWindow(foot Foot, anchorX, anchorZ, size int) *ContactWindow {
	side := 2*size + 1
	return &ContactWindow{
		Foot:    foot,
		AnchorX: anchorX,
		AnchorZ: anchorZ,
		Size:    size,
		Labels:  make([]int, side*side),
	}
}

// Side returns the window side length in cells.
func (w *ContactWindow) Side() int { return 2*w.Size + 1 }

// Label returns the label at window coordinates (i, j).
func (w *ContactWindow) Label(i, j int) int { return w.Labels[j*w.Side()+i] }

// SetLabel sets the label at window coordinates (i, j).
func (w *ContactWindow) SetLabel(i, j, label int) { w.Labels[j*w.Side()+i] = label }

// Cell returns the unwrapped grid coordinates of window cell (i, j).
func (w *ContactWindow) Cell(i, j int) (x, z int) {
	return w.AnchorX + i - w.Size, w.AnchorZ + j - w.Size
}

// Count returns how many cells carry the label.
func (w *ContactWindow) Count(label int) int {
	n := 0
	for _, l := range w.Labels {
		if l == label {
			n++
		}
	}
	return n
}

// LabelRings rewrites every non-contact label in a side x side window as a
// contour ring. A cell whose Chebyshev distance to the nearest contact cell
// is d gets label d+1 when 1 <= d <= rings, and 0 otherwise. The result
// depends only on the set of contact cells.
func LabelRings(labels []int, side, rings int) {
	dist := make([]int, len(labels))
	queue := make([]int, 0, len(labels))
	for i, l := range labels {
		if l == LabelContact {
			dist[i] = 0
			queue = append(queue, i)
		} else {
			dist[i] = -1
		}
	}

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if dist[cur] >= rings {
			continue
		}
		ci, cj := cur%side, cur/side
		for dj := -1; dj <= 1; dj++ {
			for di := -1; di <= 1; di++ {
				ni, nj := ci+di, cj+dj
				if ni < 0 || nj < 0 || ni >= side || nj >= side {
					continue
				}
				n := nj*side + ni
				if dist[n] >= 0 {
					continue
				}
				dist[n] = dist[cur] + 1
				queue = append(queue, n)
			}
		}
	}

	for i := range labels {
		switch d := dist[i]; {
		case d == 0:
			labels[i] = LabelContact
		case d > 0 && d <= rings:
			labels[i] = d + 1
		default:
			labels[i] = LabelFree
		}
	}
}

// AreaTracker holds the running maximum contact and contour areas of one
// contact episode.
type AreaTracker struct {
	contact float64
	contour float64
}

// Observe folds in this frame's areas and returns the running maxima.
func (t *AreaTracker) Observe(contact, contour float64) (float64, float64) {
	if contact > t.contact {
		t.contact = contact
	}
	if contour > t.contour {
		t.contour = contour
	}
	return t.contact, t.contour
}

// Contact returns the running maximum contact area.
func (t *AreaTracker) Contact() float64 { return t.contact }

// Contour returns the running maximum contour area.
func (t *AreaTracker) Contour() float64 { return t.contour }

// Reset clears the tracker for a new episode.
func (t *AreaTracker) Reset() { *t = AreaTracker{} }

// Bump is a contour cell that receives part of the displaced volume.
type Bump struct {
	Cell              int // grid index
	Position          m.Vec3
	SqrDistance       float64 // to the foot pivot
	Cosine            float64 // clamped cosine to the push direction
	UniformWeight     float64
	OrientationWeight float64
	Weight            float64 // blended final weight
}

// FootContactSample aggregates one frame of classification for a foot.
type FootContactSample struct {
	Foot             Foot
	Window           *ContactWindow
	ContactCount     int
	ContactArea      float64 // running max within the episode
	ContactCells     []int
	ContactPositions []m.Vec3
	ContourCount     int
	ContourArea      float64 // running max within the episode
	ContourCells     []int
	ContourPositions []m.Vec3
	Bumps            []Bump
}

// ContactClassifier labels the cells under and around each foot.
type ContactClassifier struct {
	cfg      SimulationConfig
	probe    GroundProbe
	trackers [FootCount]AreaTracker
}

// NewContactClassifier creates a classifier querying probe for contact.
func NewContactClassifier(cfg SimulationConfig, probe GroundProbe) *ContactClassifier {
	return &ContactClassifier{cfg: cfg, probe: probe}
}

// Classify probes the window around (anchorX, anchorZ), labels its rings
// and returns the foot's sample with running-max areas.
func (c *ContactClassifier) Classify(grid Heightfield, foot Foot, anchorX, anchorZ int) *FootContactSample {
	w := NewContactWindow(foot, anchorX, anchorZ, c.cfg.GridSize)
	side := w.Side()

	for j := 0; j < side; j++ {
		for i := 0; i < side; i++ {
			x, z := w.Cell(i, j)
			pos := grid.Grid2World(x, z)
			pos.Y -= c.cfg.RayOffset
			if c.probe.Probe(pos, m.Up, 2*c.cfg.RayOffset, foot) {
				w.SetLabel(i, j, LabelContact)
			}
		}
	}

	LabelRings(w.Labels, side, c.cfg.ContourRings)

	sample := &FootContactSample{Foot: foot, Window: w}
	for j := 0; j < side; j++ {
		for i := 0; i < side; i++ {
			x, z := w.Cell(i, j)
			switch w.Label(i, j) {
			case LabelContact:
				sample.ContactCells = append(sample.ContactCells, grid.Index(x, z))
				sample.ContactPositions = append(sample.ContactPositions, grid.Grid2World(x, z))
			case LabelContour:
				sample.ContourCells = append(sample.ContourCells, grid.Index(x, z))
				sample.ContourPositions = append(sample.ContourPositions, grid.Grid2World(x, z))
			}
		}
	}
	sample.ContactCount = len(sample.ContactCells)
	sample.ContourCount = len(sample.ContourCells)

	area := grid.CellArea()
	sample.ContactArea, sample.ContourArea = c.trackers[foot].Observe(
		float64(sample.ContactCount)*area,
		float64(sample.ContourCount)*area,
	)
	return sample
}

// Tracker exposes the running-max areas of a foot.
func (c *ContactClassifier) Tracker(foot Foot) *AreaTracker { return &c.trackers[foot] }

// Reset clears a foot's running maxima for the next episode.
func (c *ContactClassifier) Reset(foot Foot) { c.trackers[foot].Reset() }
