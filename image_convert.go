package dngopcodes

import (
	"image"
	"image/color"
)

// FromImage converts a decoded bitmap into an Image of the given format.
// Samples are taken non-premultiplied.
func FromImage(src image.Image, format Format) (*Image, error) {
	b := src.Bounds()
	out, err := NewImage(b.Dx(), b.Dy(), format)
	if err != nil {
		return nil, err
	}
	shift := 0
	if format.Depth() == 8 {
		shift = 8
	}
	parallelFor(out.height, 0, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < out.width; x++ {
				c := color.NRGBA64Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
				out.SetPixel(x, y, Pixel{c.R >> shift, c.G >> shift, c.B >> shift, c.A >> shift})
			}
		}
	})
	return out, nil
}

// ToImage converts the Image into a standard library bitmap: *image.NRGBA for
// 8-bit formats and *image.NRGBA64 for 16-bit formats.
func (m *Image) ToImage() image.Image {
	r := image.Rect(0, 0, m.width, m.height)
	if m.format.Depth() == 8 {
		out := image.NewNRGBA(r)
		parallelFor(m.height, 0, func(start, end int) {
			for y := start; y < end; y++ {
				row := out.Pix[y*out.Stride:]
				for x := 0; x < m.width; x++ {
					p := m.Pixel(x, y)
					off := x * 4
					row[off+0] = uint8(p[ChannelR])
					row[off+1] = uint8(p[ChannelG])
					row[off+2] = uint8(p[ChannelB])
					row[off+3] = uint8(p[ChannelA])
				}
			}
		})
		return out
	}
	out := image.NewNRGBA64(r)
	parallelFor(m.height, 0, func(start, end int) {
		for y := start; y < end; y++ {
			row := out.Pix[y*out.Stride:]
			for x := 0; x < m.width; x++ {
				p := m.Pixel(x, y)
				off := x * 8
				for c := 0; c < 4; c++ {
					row[off+2*c] = uint8(p[c] >> 8)
					row[off+2*c+1] = uint8(p[c])
				}
			}
		}
	})
	return out
}

// isDeepImage reports whether src carries more than 8 bits per sample.
func isDeepImage(src image.Image) bool {
	switch src.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		return true
	default:
		return false
	}
}
