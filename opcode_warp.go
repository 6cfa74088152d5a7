package dngopcodes

import (
	"fmt"
	"math"
)

// applyWarpRectilinear resamples the image through the inverse lens model:
// each destination pixel is fetched from the source position the radial and
// tangential polynomials map it to (nearest neighbor). Destination pixels
// whose source falls outside the image are opaque black. The result is built
// in a new buffer and swapped in once complete.
func applyWarpRectilinear(img *Image, op *WarpRectilinear, workers int) error {
	if op.Planes != 1 {
		return fmt.Errorf("warp with %d planes: %w", op.Planes, ErrUnsupportedFeature)
	}
	if len(op.Coefficients) < warpCoefficientsPerPlane {
		return fmt.Errorf("warp with %d coefficients: %w", len(op.Coefficients), ErrUnsupportedFeature)
	}
	r0, r1, r2, r3 := op.Coefficients[0], op.Coefficients[1], op.Coefficients[2], op.Coefficients[3]
	t0, t1 := op.Coefficients[4], op.Coefficients[5]
	cx, cy, m := opticalCenter(img, op.CenterX, op.CenterY)

	ch := img.format.Channels()
	w, h := img.width, img.height
	src := img.pix
	dst := img.newStore(Pixel{0, 0, 0, img.Max()})

	parallelFor(h, workers, func(start, end int) {
		for y := start; y < end; y++ {
			dy := (float64(y) - cy) / m
			for x := 0; x < w; x++ {
				dx := (float64(x) - cx) / m
				rr := dx*dx + dy*dy
				f := r0 + r1*rr + r2*rr*rr + r3*rr*rr*rr
				dxt := t0*(2*dx*dy) + t1*(rr+2*dx*dx)
				dyt := t1*(2*dx*dy) + t0*(rr+2*dy*dy)
				xs := math.RoundToEven(cx + m*(f*dx+dxt))
				ys := math.RoundToEven(cy + m*(f*dy+dyt))
				// Negated so that NaN coordinates are skipped as well.
				if !(xs >= 0 && ys >= 0 && xs < float64(w) && ys < float64(h)) {
					continue
				}
				si := (int(ys)*w + int(xs)) * ch
				di := (y*w + x) * ch
				copy(dst[di:di+ch], src[si:si+ch])
			}
		}
	})
	return img.ReplacePixels(dst)
}
