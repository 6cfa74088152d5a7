package dngopcodes

import (
	"fmt"
)

// Format describes pixel layout and depth of an Image.
type Format int

const (
	// FormatRGBA16 stores R, G, B, A samples scaled to [0, 65535].
	FormatRGBA16 Format = iota
	// FormatBGRA8 stores B, G, R, A samples in [0, 255].
	FormatBGRA8
	// FormatRGB16 stores R, G, B samples scaled to [0, 65535].
	FormatRGB16
	// FormatRGB8 stores R, G, B samples in [0, 255].
	FormatRGB8
)

func (f Format) String() string {
	switch f {
	case FormatRGBA16:
		return "RGBA16"
	case FormatBGRA8:
		return "BGRA8"
	case FormatRGB16:
		return "RGB16"
	case FormatRGB8:
		return "RGB8"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Channels returns the number of samples per pixel.
func (f Format) Channels() int {
	if f == FormatRGB16 || f == FormatRGB8 {
		return 3
	}
	return 4
}

// Depth returns bits per sample.
func (f Format) Depth() int {
	if f == FormatBGRA8 || f == FormatRGB8 {
		return 8
	}
	return 16
}

// Max returns the largest sample value.
func (f Format) Max() uint16 {
	if f.Depth() == 8 {
		return 0xFF
	}
	return 0xFFFF
}

func (f Format) valid() bool {
	return f >= FormatRGBA16 && f <= FormatRGB8
}

// Logical channel indexes used by Pixel, Channel and SetChannel.
const (
	ChannelR = 0
	ChannelG = 1
	ChannelB = 2
	ChannelA = 3
)

// offset maps a logical channel to its storage position within a pixel.
func (f Format) offset(c int) int {
	if f == FormatBGRA8 && c < ChannelA {
		return ChannelB - c
	}
	return c
}

// Pixel holds logical R, G, B, A samples. A is the format maximum for
// formats without alpha.
type Pixel [4]uint16

// Image is a mutable pixel grid. Samples of all depths are stored as uint16.
type Image struct {
	width  int
	height int
	format Format
	pix    []uint16
}

// NewImage allocates a zeroed image.
func NewImage(width, height int, format Format) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", width, height, ErrInvalidImage)
	}
	if !format.valid() {
		return nil, fmt.Errorf("%v: %w", format, ErrInvalidImage)
	}
	return &Image{
		width:  width,
		height: height,
		format: format,
		pix:    make([]uint16, width*height*format.Channels()),
	}, nil
}

// Width returns the image width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the image height in pixels.
func (m *Image) Height() int { return m.height }

// Format returns the pixel format.
func (m *Image) Format() Format { return m.format }

// Max returns the largest sample value of the image format.
func (m *Image) Max() uint16 { return m.format.Max() }

// ColorChannels returns the number of color (non-alpha) channels.
func (m *Image) ColorChannels() int { return 3 }

// HasAlpha reports whether the format stores an alpha channel.
func (m *Image) HasAlpha() bool { return m.format.Channels() == 4 }

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	c := *m
	c.pix = append([]uint16(nil), m.pix...)
	return &c
}

func (m *Image) index(x, y int) int {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		panic(fmt.Sprintf("dngopcodes: pixel (%d,%d) out of bounds %dx%d", x, y, m.width, m.height))
	}
	return (y*m.width + x) * m.format.Channels()
}

// Channel returns logical channel c of the pixel at (x, y).
func (m *Image) Channel(x, y, c int) uint16 {
	if c == ChannelA && !m.HasAlpha() {
		return m.Max()
	}
	return m.pix[m.index(x, y)+m.format.offset(c)]
}

// SetChannel sets logical channel c of the pixel at (x, y).
// Setting alpha on a format without alpha is a no-op.
func (m *Image) SetChannel(x, y, c int, v uint16) {
	if c == ChannelA && !m.HasAlpha() {
		return
	}
	m.pix[m.index(x, y)+m.format.offset(c)] = v
}

// Pixel returns the logical samples of the pixel at (x, y).
func (m *Image) Pixel(x, y int) Pixel {
	i := m.index(x, y)
	f := m.format
	p := Pixel{
		m.pix[i+f.offset(ChannelR)],
		m.pix[i+f.offset(ChannelG)],
		m.pix[i+f.offset(ChannelB)],
		f.Max(),
	}
	if m.HasAlpha() {
		p[ChannelA] = m.pix[i+ChannelA]
	}
	return p
}

// SetPixel stores logical samples into the pixel at (x, y).
func (m *Image) SetPixel(x, y int, p Pixel) {
	i := m.index(x, y)
	f := m.format
	m.pix[i+f.offset(ChannelR)] = p[ChannelR]
	m.pix[i+f.offset(ChannelG)] = p[ChannelG]
	m.pix[i+f.offset(ChannelB)] = p[ChannelB]
	if m.HasAlpha() {
		m.pix[i+ChannelA] = p[ChannelA]
	}
}

// ReplacePixels swaps the backing store for pix, which must hold exactly
// Width*Height*Channels samples in storage order. The image takes ownership.
func (m *Image) ReplacePixels(pix []uint16) error {
	if len(pix) != len(m.pix) {
		return fmt.Errorf("replace %d samples with %d: %w", len(m.pix), len(pix), ErrInvalidImage)
	}
	m.pix = pix
	return nil
}

// row returns the storage samples of row y.
func (m *Image) row(y int) []uint16 {
	stride := m.width * m.format.Channels()
	return m.pix[y*stride : (y+1)*stride]
}

// newStore allocates a buffer with every pixel set to p.
func (m *Image) newStore(p Pixel) []uint16 {
	pix := make([]uint16, len(m.pix))
	ch := m.format.Channels()
	var px [4]uint16
	for c := 0; c < ch; c++ {
		px[m.format.offset(c)] = p[c]
	}
	for i := 0; i < len(pix); i += ch {
		copy(pix[i:i+ch], px[:ch])
	}
	return pix
}
