package main

import (
	"path/filepath"
	"testing"

	"github.com/Faultbox/imprint/internal/heightfield"
)

func TestStem(t *testing.T) {
	tests := map[string]string{
		"beach.hmap":           "beach",
		"/maps/dunes.hmap":     "dunes",
		"meadow":               "meadow",
		"terrain/old.map.hmap": "old.map",
	}
	for in, want := range tests {
		if got := stem(in); got != want {
			t.Errorf("stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCrossing(t *testing.T) {
	store, err := heightfield.New("flat", 100, 40, 0.1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	start, goal := crossing(store)
	if start != [2]float64{1, 2} {
		t.Errorf("start = %v", start)
	}
	if goal != [2]float64{9, 2} {
		t.Errorf("goal = %v", goal)
	}
}

func TestTerrainLoader(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dunes.hmap")
	out := filepath.Join(dir, "walked.hmap")

	store, err := heightfield.New("dunes", 8, 8, 0.5, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	store.Bind(heightfield.FileBackend{Path: src})
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}

	// By file, saving elsewhere.
	name, loader := terrainLoader(src, "", out)
	if name != "dunes" {
		t.Errorf("name = %q", name)
	}
	s, err := loader.Load(name)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.Set(1, 1, -0.25)
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	written, err := heightfield.Load("walked", out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if written.Get(1, 1) != -0.25 {
		t.Errorf("saved height = %v", written.Get(1, 1))
	}

	// By name, from the terrain directory.
	name, loader = terrainLoader("dunes", dir, "")
	if _, err := loader.Load(name); err != nil {
		t.Errorf("loading by name: %v", err)
	}
}
