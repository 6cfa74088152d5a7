package dngopcodes

import "math"

// opticalCenter converts a normalized center to pixel coordinates and
// returns the normalization radius m: the Euclidean norm of the largest
// per-axis offsets from the center to the image corners.
func opticalCenter(img *Image, ncx, ncy float64) (cx, cy, m float64) {
	x0, y0 := 0.0, 0.0
	x1, y1 := float64(img.width-1), float64(img.height-1)
	cx = x0 + ncx*(x1-x0)
	cy = y0 + ncy*(y1-y0)
	mx := math.Max(math.Abs(x0-cx), math.Abs(x1-cx))
	my := math.Max(math.Abs(y0-cy), math.Abs(y1-cy))
	m = math.Sqrt(mx*mx + my*my)
	if m == 0 {
		// Single pixel image centered on itself.
		m = 1
	}
	return cx, cy, m
}

// applyFixVignetteRadial multiplies color channels by
// 1 + k0 r^2 + k1 r^4 + k2 r^6 + k3 r^8 + k4 r^10.
func applyFixVignetteRadial(img *Image, op *FixVignetteRadial, workers int) {
	cx, cy, m := opticalCenter(img, op.CenterX, op.CenterY)
	maxV := img.Max()
	parallelFor(img.height, workers, func(start, end int) {
		for y := start; y < end; y++ {
			dy := float64(y) - cy
			for x := 0; x < img.width; x++ {
				dx := float64(x) - cx
				r := math.Sqrt(dx*dx+dy*dy) / m
				r2 := r * r
				r4 := r2 * r2
				r6 := r4 * r2
				r8 := r4 * r4
				r10 := r8 * r2
				g := 1 + op.K0*r2 + op.K1*r4 + op.K2*r6 + op.K3*r8 + op.K4*r10
				for c := 0; c < img.ColorChannels(); c++ {
					v := img.Channel(x, y, c)
					img.SetChannel(x, y, c, clampSample(float64(v)*g, maxV))
				}
			}
		}
	})
}
