package heightfield

import (
	"fmt"

	"github.com/Faultbox/imprint/pkg/formats"
)

// FileBackend saves the store as an HMAP file.
type FileBackend struct {
	Path string
}

// Save implements Backend.
func (b FileBackend) Save(s *Store) error {
	return formats.WriteHMapFile(b.Path, s.ToHMap())
}

// FromHMap builds a store from a parsed heightfield file.
func FromHMap(name string, hm *formats.HMap) (*Store, error) {
	scale := float64(hm.Scale)
	if scale == 0 {
		scale = 1
	}
	heights := make([]float64, len(hm.Heights))
	for i, v := range hm.Heights {
		heights[i] = float64(v) * scale
	}
	return New(name, int(hm.Width), int(hm.Depth), float64(hm.CellLength), scale, heights)
}

// ToHMap converts the current heights into a heightfield file.
func (s *Store) ToHMap() *formats.HMap {
	hm := formats.NewHMap(uint32(s.width), uint32(s.depth), float32(s.cellLength), float32(s.scale))
	for i, h := range s.current {
		hm.Heights[i] = float32(h / s.scale)
	}
	return hm
}

// Load reads an HMAP file and binds a FileBackend writing back to the same path.
func Load(name, path string) (*Store, error) {
	hm, err := formats.ParseHMapFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading terrain %s: %w", name, err)
	}
	s, err := FromHMap(name, hm)
	if err != nil {
		return nil, err
	}
	s.Bind(FileBackend{Path: path})
	return s, nil
}
