package dngopcodes

import "math"

// decodeGamma linearizes color channels: v' = (v/max)^gamma * max.
func decodeGamma(img *Image, gamma float64, workers int) {
	applyPower(img, gamma, workers)
}

// encodeGamma is the inverse of decodeGamma: v' = (v/max)^(1/gamma) * max.
func encodeGamma(img *Image, gamma float64, workers int) {
	applyPower(img, 1/gamma, workers)
}

// applyPower maps color samples through a LUT; samples above Max are
// treated as Max.
func applyPower(img *Image, exp float64, workers int) {
	top := img.Max()
	maxV := float64(top)
	lut := make([]uint16, int(top)+1)
	for v := range lut {
		lut[v] = clampSample(math.Pow(float64(v)/maxV, exp)*maxV, top)
	}
	ch := img.format.Channels()
	alpha := -1
	if img.HasAlpha() {
		alpha = ChannelA
	}
	parallelFor(img.height, workers, func(start, end int) {
		for y := start; y < end; y++ {
			row := img.row(y)
			for i := range row {
				if i%ch == alpha {
					continue
				}
				row[i] = lut[min(row[i], top)]
			}
		}
	})
}

// clampSample rounds half to even and clamps to [0, maxV].
func clampSample(v float64, maxV uint16) uint16 {
	v = math.RoundToEven(v)
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= float64(maxV) {
		return maxV
	}
	return uint16(v)
}
