package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// HMAP format errors.
var (
	ErrInvalidHMAPMagic       = errors.New("invalid HMAP magic: expected 'HMAP'")
	ErrUnsupportedHMAPVersion = errors.New("unsupported HMAP version")
	ErrTruncatedHMAPData      = errors.New("truncated HMAP data")
)

const (
	hmapMagic      = "HMAP"
	hmapHeaderSize = 4 + 2 + 4 + 4 + 4 + 4
	hmapMaxDim     = 8192
)

// HMapVersion represents the HMAP file version.
type HMapVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v HMapVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentHMapVersion is written by Encode.
var CurrentHMapVersion = HMapVersion{Major: 1, Minor: 0}

// HMap is a parsed heightfield file. Heights are normalized; multiply by
// Scale for world units.
type HMap struct {
	Version    HMapVersion
	Width      uint32
	Depth      uint32
	CellLength float32
	Scale      float32
	Heights    []float32 // row-major, z*Width + x
}

// NewHMap allocates a flat heightfield of the given size.
func NewHMap(width, depth uint32, cellLength, scale float32) *HMap {
	return &HMap{
		Version:    CurrentHMapVersion,
		Width:      width,
		Depth:      depth,
		CellLength: cellLength,
		Scale:      scale,
		Heights:    make([]float32, int(width)*int(depth)),
	}
}

// GetHeight returns the normalized height at (x, z).
// The second result is false when the coordinates are out of bounds.
func (h *HMap) GetHeight(x, z int) (float32, bool) {
	if x < 0 || z < 0 || x >= int(h.Width) || z >= int(h.Depth) {
		return 0, false
	}
	return h.Heights[z*int(h.Width)+x], true
}

// ParseHMap parses an HMAP file from raw bytes.
func ParseHMap(data []byte) (*HMap, error) {
	if len(data) < hmapHeaderSize {
		return nil, ErrTruncatedHMAPData
	}

	if string(data[0:4]) != hmapMagic {
		return nil, ErrInvalidHMAPMagic
	}

	// Version is stored as [minor, major]
	version := HMapVersion{
		Major: data[5],
		Minor: data[4],
	}
	if version.Major != 1 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedHMAPVersion, version)
	}

	r := bytes.NewReader(data[6:])

	var header struct {
		Width      uint32
		Depth      uint32
		CellLength float32
		Scale      float32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedHMAPData)
	}

	if header.Width == 0 || header.Depth == 0 || header.Width > hmapMaxDim || header.Depth > hmapMaxDim {
		return nil, fmt.Errorf("invalid HMAP dimensions: %dx%d", header.Width, header.Depth)
	}
	if !(header.CellLength > 0) {
		return nil, fmt.Errorf("invalid HMAP cell length: %v", header.CellLength)
	}

	count := int(header.Width) * int(header.Depth)
	if r.Len() < count*4 {
		return nil, fmt.Errorf("%w: expected %d heights, have %d bytes", ErrTruncatedHMAPData, count, r.Len())
	}

	hm := &HMap{
		Version:    version,
		Width:      header.Width,
		Depth:      header.Depth,
		CellLength: header.CellLength,
		Scale:      header.Scale,
		Heights:    make([]float32, count),
	}
	if err := binary.Read(r, binary.LittleEndian, hm.Heights); err != nil {
		return nil, fmt.Errorf("%w: reading heights", ErrTruncatedHMAPData)
	}

	return hm, nil
}

// ParseHMapFile parses an HMAP file from disk.
func ParseHMapFile(path string) (*HMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading HMAP file: %w", err)
	}
	return ParseHMap(data)
}

// Encode serializes the heightfield into HMAP bytes.
func (h *HMap) Encode() ([]byte, error) {
	if len(h.Heights) != int(h.Width)*int(h.Depth) {
		return nil, fmt.Errorf("HMAP has %d heights for %dx%d cells", len(h.Heights), h.Width, h.Depth)
	}

	buf := new(bytes.Buffer)
	buf.Grow(hmapHeaderSize + len(h.Heights)*4)
	buf.WriteString(hmapMagic)
	buf.WriteByte(CurrentHMapVersion.Minor)
	buf.WriteByte(CurrentHMapVersion.Major)

	fields := []any{h.Width, h.Depth, h.CellLength, h.Scale, h.Heights}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("encoding HMAP: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// WriteHMapFile encodes the heightfield and writes it to path, creating the
// parent directory if needed.
func WriteHMapFile(path string, h *HMap) error {
	data, err := h.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// AltitudeRange returns the minimum and maximum normalized height.
func (h *HMap) AltitudeRange() (min, max float32) {
	if len(h.Heights) == 0 {
		return 0, 0
	}

	min, max = h.Heights[0], h.Heights[0]
	for _, v := range h.Heights {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
