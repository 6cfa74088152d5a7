package dngopcodes

import "math"

// gainGrid is one plane of a gain map, w columns by h rows, row-major.
type gainGrid struct {
	w, h int
	v    []float32
}

func (g gainGrid) at(x, y int) float64 {
	return float64(g.v[y*g.w+x])
}

// deinterleaveGains splits plane-interleaved gains into planes grids of
// w x h: element i belongs to grid i%planes.
func deinterleaveGains(gains []float32, w, h, planes int) []gainGrid {
	grids := make([]gainGrid, planes)
	for p := range grids {
		grids[p] = gainGrid{w: w, h: h, v: make([]float32, w*h)}
	}
	for i, v := range gains {
		p := i % planes
		grids[p].v[i/planes] = v
	}
	return grids
}

// interpolate samples the grid at (x, y) bilinearly. Coordinates must lie in
// [0, w-1] x [0, h-1]. At the far edge the cell is taken one step back so that
// it keeps a non-zero area; an axis with a single point is constant along it.
func (g gainGrid) interpolate(x, y float64) float64 {
	if g.w == 1 && g.h == 1 {
		return g.at(0, 0)
	}
	if g.w == 1 {
		return g.interpolate1D(y, g.h, func(i int) float64 { return g.at(0, i) })
	}
	if g.h == 1 {
		return g.interpolate1D(x, g.w, func(i int) float64 { return g.at(i, 0) })
	}

	x1 := int(math.Floor(x))
	y1 := int(math.Floor(y))
	x2 := min(g.w-1, x1+1)
	y2 := min(g.h-1, y1+1)
	if x2 == x1 {
		x1--
	}
	if y2 == y1 {
		y1--
	}

	q11 := g.at(x1, y1)
	q21 := g.at(x2, y1)
	q12 := g.at(x1, y2)
	q22 := g.at(x2, y2)

	wd := float64((x2 - x1) * (y2 - y1))
	w11 := (float64(x2) - x) * (float64(y2) - y) / wd
	w12 := (float64(x2) - x) * (y - float64(y1)) / wd
	w21 := (x - float64(x1)) * (float64(y2) - y) / wd
	w22 := (x - float64(x1)) * (y - float64(y1)) / wd
	return w11*q11 + w12*q12 + w21*q21 + w22*q22
}

func (g gainGrid) interpolate1D(t float64, n int, at func(i int) float64) float64 {
	i1 := int(math.Floor(t))
	i2 := min(n-1, i1+1)
	if i2 == i1 {
		i1--
	}
	return (float64(i2)-t)*at(i1) + (t-float64(i1))*at(i2)
}
