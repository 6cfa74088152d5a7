package dngopcodes

import (
	"fmt"
	"math"
)

// applyGainMap multiplies color channels from op.Plane on by a bilinearly
// interpolated gain.
//
// With strict set, only pixels inside [Left, Right] x [Top, Bottom] are
// affected. Otherwise the legacy test (x in [Left, Right] and y >= Top) or
// y <= Bottom is used, which in practice covers the whole vertical extent.
// Pixels outside the tested area are left unchanged.
func applyGainMap(img *Image, op *GainMap, strict bool, workers int) error {
	if op.MapPointsV == 0 || op.MapPointsH == 0 || op.MapPlanes == 0 {
		return fmt.Errorf("empty %dx%dx%d gain map: %w", op.MapPointsV, op.MapPointsH, op.MapPlanes, ErrUnsupportedFeature)
	}
	pointsV, pointsH, mapPlanes := int(op.MapPointsV), int(op.MapPointsH), int(op.MapPlanes)
	if len(op.MapGains) != pointsV*pointsH*mapPlanes {
		return fmt.Errorf("%d gains for %dx%dx%d map: %w", len(op.MapGains), pointsV, pointsH, mapPlanes, ErrMalformedOpcode)
	}
	// Gains interleave MapPlanes values per grid point, not Planes.
	grids := deinterleaveGains(op.MapGains, pointsH, pointsV, mapPlanes)

	top, left := int64(op.Top), int64(op.Left)
	bottom, right := int64(op.Bottom), int64(op.Right)
	inside := func(x, y int64) bool {
		if strict {
			return x >= left && x <= right && y >= top && y <= bottom
		}
		return (x >= left && x <= right && y >= top) || y <= bottom
	}

	firstPlane := int(op.Plane)
	colors := img.ColorChannels()
	maxV := img.Max()
	w, h := img.width, img.height

	parallelFor(h, workers, func(start, end int) {
		for y := start; y < end; y++ {
			yMap := mapCoordinate(y, h, op.MapOriginV, op.MapSpacingV, pointsV)
			for x := 0; x < w; x++ {
				if !inside(int64(x), int64(y)) {
					continue
				}
				xMap := mapCoordinate(x, w, op.MapOriginH, op.MapSpacingH, pointsH)
				for c := firstPlane; c < colors; c++ {
					// Map planes are relative to Plane; the last map plane
					// covers any remaining image planes.
					grid := grids[min(c-firstPlane, mapPlanes-1)]
					gain := grid.interpolate(xMap, yMap)
					v := img.Channel(x, y, c)
					img.SetChannel(x, y, c, clampSample(float64(v)*gain, maxV))
				}
			}
		}
	})
	return nil
}

// mapCoordinate converts pixel index i of n into gain map grid space,
// clamped to [0, points-1].
func mapCoordinate(i, n int, origin, spacing float64, points int) float64 {
	rel := 0.0
	if n > 1 {
		rel = float64(i) / float64(n-1)
	}
	v := 0.0
	if spacing != 0 {
		v = (rel - origin) / spacing
	}
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, float64(points-1))
}
