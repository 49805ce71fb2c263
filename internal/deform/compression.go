package deform

import "math"

// DeformationTarget is the full deformation a foot drives toward during an
// episode, plus the per-tick increments derived from it.
type DeformationTarget struct {
	Pressure          float64
	CompressionDepth  float64 // non-negative shortening
	OriginalVolume    float64
	CompressedVolume  float64
	PoissonVolume     float64
	NetBumpVolume     float64
	BumpVolumePerCell float64
	BumpHeight        float64
	ContourCount      int

	CompressionStep float64 // per tick
	BumpStep        float64 // per tick

	// CellDepths holds per-contact-cell depths for the vegetation variant,
	// keyed by grid index. Nil when the modulus is uniform.
	CellDepths map[int]float64
}

// DepthAt returns the compression depth for a contact cell.
func (t DeformationTarget) DepthAt(cell int) float64 {
	if d, ok := t.CellDepths[cell]; ok {
		return d
	}
	return t.CompressionDepth
}

// episodeVolume is the per-foot state the model carries across an episode.
type episodeVolume struct {
	originalVolume float64
	maxDepth       float64
	captured       bool
}

// CompressionVolumeModel turns pressure into a compression depth and a
// volume-conserving bump height.
type CompressionVolumeModel struct {
	columnLength      float64
	vegetationModulus float64
	episodes          [FootCount]episodeVolume
}

// NewCompressionVolumeModel creates a model for the given column length.
func NewCompressionVolumeModel(cfg SimulationConfig) *CompressionVolumeModel {
	return &CompressionVolumeModel{
		columnLength:      cfg.ColumnLength,
		vegetationModulus: cfg.VegetationModulus,
	}
}

// CompressionDepth is the Hookean shortening P*L0/E, never negative.
func CompressionDepth(pressure, columnLength, modulus float64) float64 {
	if modulus <= 0 || pressure <= 0 {
		return 0
	}
	strain := -pressure / modulus
	return math.Abs(strain) * columnLength
}

// BumpVolumes computes the volume bookkeeping for one foot. originalVolume
// is the episode's captured A*L0.
func BumpVolumes(area, columnLength, depth, poisson, originalVolume float64) (compressed, poissonVol, net float64) {
	compressed = area * (columnLength - depth)
	if columnLength > 0 {
		poissonVol = (1 - 2*poisson) * (depth / columnLength) * originalVolume
	}
	net = (originalVolume - compressed) + poissonVol
	return compressed, poissonVol, net
}

// Target computes the foot's deformation target for this tick. The
// compression depth is held at its running maximum within the episode.
func (c *CompressionVolumeModel) Target(foot Foot, pressure float64, sample *FootContactSample, cellArea float64, mat MaterialPreset) DeformationTarget {
	ep := &c.episodes[foot]
	if !ep.captured && sample.ContactArea > 0 {
		ep.originalVolume = sample.ContactArea * c.columnLength
		ep.captured = true
	}

	depth := CompressionDepth(pressure, c.columnLength, mat.ElasticModulus)
	if depth > ep.maxDepth {
		ep.maxDepth = depth
	}
	return c.finish(pressure, ep.maxDepth, ep.originalVolume, sample, cellArea, mat)
}

// VegetationTarget computes the target with a per-cell modulus
// E_ground + E_vegetation*livingRatio. It always recomputes; the depth is
// not held across ticks.
func (c *CompressionVolumeModel) VegetationTarget(foot Foot, pressure float64, sample *FootContactSample, grid Heightfield, veg VegetationDensity, mat MaterialPreset) DeformationTarget {
	ep := &c.episodes[foot]
	if !ep.captured && sample.ContactArea > 0 {
		ep.originalVolume = sample.ContactArea * c.columnLength
		ep.captured = true
	}

	depths := make(map[int]float64, len(sample.ContactCells))
	var sum float64
	for _, cell := range sample.ContactCells {
		x, z := grid.Coords(cell)
		modulus := mat.ElasticModulus + c.vegetationModulus*veg.LivingRatio(x, z)
		d := CompressionDepth(pressure, c.columnLength, modulus)
		depths[cell] = d
		sum += d
	}
	var mean float64
	if len(depths) > 0 {
		mean = sum / float64(len(depths))
	}

	t := c.finish(pressure, mean, ep.originalVolume, sample, grid.CellArea(), mat)
	t.CellDepths = depths
	return t
}

func (c *CompressionVolumeModel) finish(pressure, depth, originalVolume float64, sample *FootContactSample, cellArea float64, mat MaterialPreset) DeformationTarget {
	t := DeformationTarget{
		Pressure:         pressure,
		CompressionDepth: depth,
		OriginalVolume:   originalVolume,
		ContourCount:     sample.ContourCount,
	}
	t.CompressedVolume, t.PoissonVolume, t.NetBumpVolume = BumpVolumes(
		sample.ContactArea, c.columnLength, depth, mat.PoissonRatio, originalVolume)

	// A growing print can make the bookkeeping negative; never dig with a bump.
	if t.NetBumpVolume < 0 {
		t.NetBumpVolume = 0
	}
	if sample.ContourCount > 0 {
		t.BumpVolumePerCell = t.NetBumpVolume / float64(sample.ContourCount)
	}
	if cellArea > 0 {
		t.BumpHeight = t.BumpVolumePerCell / cellArea
	}
	if mat.ContactTime > 0 {
		t.CompressionStep = t.CompressionDepth / mat.ContactTime
		t.BumpStep = t.BumpHeight / mat.ContactTime
	}
	return t
}

// Reset clears a foot's episode state.
func (c *CompressionVolumeModel) Reset(foot Foot) { c.episodes[foot] = episodeVolume{} }
