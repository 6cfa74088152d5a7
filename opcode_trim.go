package dngopcodes

// applyTrimBounds masks, rather than crops, everything outside the trim
// rectangle. Pixels on the rectangle edges are masked too; the image keeps
// its dimensions.
func applyTrimBounds(img *Image, op *TrimBounds, workers int) {
	top, left := int64(op.Top), int64(op.Left)
	bottom, right := int64(op.Bottom), int64(op.Right)
	ch := img.format.Channels()
	parallelFor(img.height, workers, func(start, end int) {
		for y := start; y < end; y++ {
			row := img.row(y)
			yy := int64(y)
			for x := 0; x < img.width; x++ {
				xx := int64(x)
				if xx <= left || xx >= right || yy <= top || yy >= bottom {
					clear(row[x*ch : (x+1)*ch])
				}
			}
		}
	})
}
