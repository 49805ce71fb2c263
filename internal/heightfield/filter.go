package heightfield

// Filter rebuilds the whole filtered view from the current heights.
func (s *Store) Filter(iterations int) {
	s.FilterRegion(0, 0, s.width-1, s.depth-1, iterations)
}

// FilterRegion rebuilds the filtered view for cells in [x0,x1] x [z0,z1]
// (inclusive, wrapped) by neighbour averaging: the cell counts twice, each
// of its 8 neighbours once. Zero iterations copies current heights as-is.
func (s *Store) FilterRegion(x0, z0, x1, z1, iterations int) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if z1 < z0 {
		z0, z1 = z1, z0
	}
	w := x1 - x0 + 1
	d := z1 - z0 + 1
	if w > s.width {
		w = s.width
	}
	if d > s.depth {
		d = s.depth
	}

	// Work on a bordered copy so the region's edge cells see live neighbours.
	bw, bd := w+2, d+2
	buf := make([]float64, bw*bd)
	for j := 0; j < bd; j++ {
		for i := 0; i < bw; i++ {
			buf[j*bw+i] = s.Get(x0+i-1, z0+j-1)
		}
	}

	next := make([]float64, len(buf))
	for iter := 0; iter < iterations; iter++ {
		copy(next, buf)
		for j := 1; j <= d; j++ {
			for i := 1; i <= w; i++ {
				sum := buf[j*bw+i] * 2
				for dj := -1; dj <= 1; dj++ {
					for di := -1; di <= 1; di++ {
						if di == 0 && dj == 0 {
							continue
						}
						sum += buf[(j+dj)*bw+i+di]
					}
				}
				next[j*bw+i] = sum / 10
			}
		}
		buf, next = next, buf
	}

	for j := 1; j <= d; j++ {
		for i := 1; i <= w; i++ {
			s.filtered[s.Index(x0+i-1, z0+j-1)] = buf[j*bw+i]
		}
	}
}
