package gait

import (
	"testing"

	"github.com/Faultbox/imprint/internal/heightfield"
	m "github.com/Faultbox/imprint/pkg/math"
)

// ridgeTerrain builds a 9x9 unit grid with a wall at x=4 for the given rows.
func ridgeTerrain(t *testing.T, rows ...int) *heightfield.Store {
	t.Helper()
	s, err := heightfield.New("ridge", 9, 9, 1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, z := range rows {
		s.Set(4, z, 5)
	}
	return s
}

func TestRouter_FindPath_Flat(t *testing.T) {
	r := NewRouter(ridgeTerrain(t), 35)

	path := r.FindPath(0, 0, 8, 8)
	if path == nil {
		t.Fatal("expected path, got nil")
	}
	if len(path) != 9 {
		t.Errorf("expected a 9 cell diagonal, got %d cells", len(path))
	}
	if path[0] != [2]int{0, 0} || path[len(path)-1] != [2]int{8, 8} {
		t.Errorf("path endpoints = %v .. %v", path[0], path[len(path)-1])
	}
}

func TestRouter_FindPath_AroundRidge(t *testing.T) {
	r := NewRouter(ridgeTerrain(t, 0, 1, 2, 3, 4, 5), 35)

	path := r.FindPath(0, 4, 8, 4)
	if path == nil {
		t.Fatal("expected path around the ridge, got nil")
	}
	for _, p := range path {
		if p[0] >= 3 && p[0] <= 5 && p[1] <= 6 {
			t.Errorf("path crossed the ridge flank at %v", p)
		}
	}
}

func TestRouter_FindPath_NoPath(t *testing.T) {
	r := NewRouter(ridgeTerrain(t, 0, 1, 2, 3, 4, 5, 6, 7, 8), 35)
	if path := r.FindPath(0, 4, 8, 4); path != nil {
		t.Errorf("expected no path, got %v", path)
	}
}

func TestRouter_FindPath_SameStartGoal(t *testing.T) {
	r := NewRouter(ridgeTerrain(t), 35)
	if path := r.FindPath(2, 2, 2, 2); len(path) != 1 {
		t.Errorf("expected single cell path, got %v", path)
	}
}

func TestRouter_FindPath_Rejects(t *testing.T) {
	r := NewRouter(ridgeTerrain(t, 4), 35)

	if r.FindPath(-1, 0, 4, 4) != nil {
		t.Error("expected nil for out of bounds start")
	}
	if r.FindPath(0, 0, 10, 10) != nil {
		t.Error("expected nil for out of bounds goal")
	}
	if r.FindPath(0, 0, 4, 4) != nil {
		t.Error("expected nil for steep goal")
	}
}

func TestRouter_Walkable(t *testing.T) {
	r := NewRouter(ridgeTerrain(t, 4), 35)

	if r.Walkable(4, 4) || r.Walkable(3, 3) {
		t.Error("ridge and its flank should be too steep")
	}
	if !r.Walkable(0, 0) || !r.Walkable(4, 6) {
		t.Error("flat cells should be walkable")
	}
	if r.Walkable(-1, 0) {
		t.Error("out of bounds should not be walkable")
	}

	r.MaxSlope = 90
	if !r.Walkable(4, 4) {
		t.Error("any slope is walkable at 90 degrees")
	}
}

func TestRouter_Route(t *testing.T) {
	r := NewRouter(ridgeTerrain(t), 35)

	waypoints, ok := r.Route(m.Vec2{X: 0.5, Y: 0.5}, m.Vec2{X: 3.2, Y: 0.9})
	if !ok {
		t.Fatal("expected a route")
	}
	if len(waypoints) != 3 {
		t.Fatalf("expected 3 waypoints, got %v", waypoints)
	}
	if last := waypoints[len(waypoints)-1]; last != [2]float64{3.5, 0.5} {
		t.Errorf("last waypoint = %v, want goal cell centre", last)
	}

	if _, ok := r.Route(m.Vec2{X: 0.5, Y: 0.5}, m.Vec2{X: 20, Y: 0.5}); ok {
		t.Error("expected no route off the terrain")
	}
}
