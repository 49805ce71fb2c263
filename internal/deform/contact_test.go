package deform

import (
	"testing"

	m "github.com/Faultbox/imprint/pkg/math"
)

func TestLabelRings_SingleContact(t *testing.T) {
	side := 5
	labels := make([]int, side*side)
	labels[2*side+2] = LabelContact

	LabelRings(labels, side, 2)

	for j := 0; j < side; j++ {
		for i := 0; i < side; i++ {
			d := max(abs(i-2), abs(j-2))
			want := d + 1
			if got := labels[j*side+i]; got != want {
				t.Errorf("label(%d,%d) = %d, want %d", i, j, got, want)
			}
		}
	}
}

func TestLabelRings_LimitedRings(t *testing.T) {
	side := 5
	labels := make([]int, side*side)
	labels[2*side+2] = LabelContact

	LabelRings(labels, side, 1)

	if labels[0] != LabelFree {
		t.Errorf("corner should be free with one ring, got %d", labels[0])
	}
	if labels[1*side+1] != LabelContour {
		t.Errorf("adjacent cell should be first contour, got %d", labels[1*side+1])
	}
}

func TestLabelRings_NearestContactWins(t *testing.T) {
	side := 7
	labels := make([]int, side*side)
	labels[3*side+0] = LabelContact
	labels[3*side+6] = LabelContact

	LabelRings(labels, side, 2)

	// (3,3) is three cells from either contact: beyond two rings.
	if got := labels[3*side+3]; got != LabelFree {
		t.Errorf("middle cell = %d, want free", got)
	}
	if got := labels[3*side+2]; got != 3 {
		t.Errorf("(2,3) = %d, want 3", got)
	}
	if got := labels[3*side+5]; got != LabelContour {
		t.Errorf("(5,3) = %d, want 2", got)
	}
}

func TestLabelRings_Deterministic(t *testing.T) {
	side := 9
	a := make([]int, side*side)
	b := make([]int, side*side)
	for _, idx := range []int{10, 11, 30, 40, 41, 70} {
		a[idx] = LabelContact
	}
	// Same contact set, with stale ring labels left over.
	for i := range b {
		b[i] = (i % 3) * 2
		if b[i] == LabelContact {
			b[i] = 0
		}
	}
	for _, idx := range []int{10, 11, 30, 40, 41, 70} {
		b[idx] = LabelContact
	}

	LabelRings(a, side, 2)
	LabelRings(b, side, 2)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("labels differ at %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestClassify_CountsAndPositions(t *testing.T) {
	grid := newGrid(t, 16, 0.5)
	cfg := DefaultSimulationConfig()
	cfg.GridSize = 3
	c := NewContactClassifier(cfg, squareProbe(grid, 8, 8, 1))

	sample := c.Classify(grid, Left, 8, 8)

	if sample.ContactCount != 9 {
		t.Errorf("ContactCount = %d, want 9", sample.ContactCount)
	}
	if sample.ContourCount != 16 {
		t.Errorf("ContourCount = %d, want 16", sample.ContourCount)
	}
	if !approx(sample.ContactArea, 9*0.25, eps) {
		t.Errorf("ContactArea = %v, want %v", sample.ContactArea, 9*0.25)
	}
	if !approx(sample.ContourArea, 16*0.25, eps) {
		t.Errorf("ContourArea = %v, want %v", sample.ContourArea, 16*0.25)
	}
	if got := sample.Window.Count(3); got != 24 {
		t.Errorf("second ring count = %d, want 24", got)
	}
	for i, cell := range sample.ContactCells {
		x, z := grid.Coords(cell)
		if sample.ContactPositions[i] != grid.Grid2World(x, z) {
			t.Errorf("contact position %d mismatch", i)
		}
	}
}

func TestClassify_ProbeBelowSurface(t *testing.T) {
	grid := newGrid(t, 8, 1)
	grid.Set(4, 4, 2)
	cfg := DefaultSimulationConfig()
	cfg.GridSize = 1

	var got m.Vec3
	var dist float64
	probe := ProbeFunc(func(pos, dir m.Vec3, maxDistance float64, foot Foot) bool {
		x, z := grid.World2Grid(pos)
		if x == 4 && z == 4 {
			got, dist = pos, maxDistance
		}
		if dir != m.Up {
			t.Errorf("probe direction = %v, want up", dir)
		}
		return false
	})

	NewContactClassifier(cfg, probe).Classify(grid, Right, 4, 4)

	if !approx(got.Y, 2-cfg.RayOffset, eps) {
		t.Errorf("probe origin y = %v, want %v", got.Y, 2-cfg.RayOffset)
	}
	if dist <= cfg.RayOffset {
		t.Errorf("probe distance %v should reach past the surface", dist)
	}
}

func TestClassify_WrapsAtGridEdge(t *testing.T) {
	grid := newGrid(t, 8, 1)
	cfg := DefaultSimulationConfig()
	cfg.GridSize = 1
	probe := &cellSetProbe{grid: grid, cells: map[[2]int]bool{{0, 0}: true}}

	sample := NewContactClassifier(cfg, probe).Classify(grid, Left, 0, 0)

	if sample.ContactCount != 1 {
		t.Fatalf("ContactCount = %d, want 1", sample.ContactCount)
	}
	found := false
	for _, cell := range sample.ContourCells {
		if cell == grid.Index(7, 7) {
			found = true
		}
	}
	if !found {
		t.Error("contour should include the wrapped cell (7,7)")
	}
}

func TestClassify_RunningMaxArea(t *testing.T) {
	grid := newGrid(t, 16, 1)
	cfg := DefaultSimulationConfig()
	cfg.GridSize = 3
	probe := &cellSetProbe{grid: grid, cells: map[[2]int]bool{}}
	c := NewContactClassifier(cfg, probe)

	frames := [][][2]int{
		{{8, 8}},
		{{8, 8}, {9, 8}, {8, 9}},
		{{8, 8}},
		{{7, 8}, {8, 8}},
		{},
	}

	prev := 0.0
	for i, cells := range frames {
		probe.cells = map[[2]int]bool{}
		for _, cell := range cells {
			probe.cells[cell] = true
		}
		sample := c.Classify(grid, Left, 8, 8)
		if sample.ContactArea < prev {
			t.Errorf("frame %d: contact area decreased %v -> %v", i, prev, sample.ContactArea)
		}
		prev = sample.ContactArea
	}
	if prev != 3 {
		t.Errorf("final running max = %v, want 3", prev)
	}

	c.Reset(Left)
	if c.Tracker(Left).Contact() != 0 || c.Tracker(Left).Contour() != 0 {
		t.Error("Reset should clear the running maxima")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
