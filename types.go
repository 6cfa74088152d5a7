package dngopcodes

// OpcodeHeader is the fixed 16-byte prefix of every serialized opcode.
type OpcodeHeader struct {
	ID      OpcodeID    `json:"id"`
	Version DNGVersion  `json:"version"`
	Flags   OpcodeFlags `json:"flags"`
	// ByteCount is the payload length, excluding the header.
	// Encode recomputes it from the payload fields.
	ByteCount uint32 `json:"byte_count"`
}

// Header returns the opcode header.
func (h *OpcodeHeader) Header() OpcodeHeader { return *h }

func (h *OpcodeHeader) header() *OpcodeHeader { return h }

// Opcode is one decoded opcode.
// Implementations are *WarpRectilinear, *FixVignetteRadial, *TrimBounds,
// *GainMap and *Unknown.
type Opcode interface {
	Header() OpcodeHeader
	// Fields lists the editable parameters of the opcode.
	Fields() []Field

	header() *OpcodeHeader
}

// OpcodeList is an ordered opcode sequence; opcodes apply in list order.
type OpcodeList []Opcode

// WarpRectilinear corrects radial and tangential lens distortion.
type WarpRectilinear struct {
	OpcodeHeader
	Planes uint32 `json:"planes"`
	// Coefficients holds r0, r1, r2, r3, t0, t1 for each plane.
	Coefficients []float64 `json:"coefficients"`
	CenterX      float64   `json:"center_x"`
	CenterY      float64   `json:"center_y"`
}

// FixVignetteRadial applies a radially symmetric gain.
type FixVignetteRadial struct {
	OpcodeHeader
	K0      float64 `json:"k0"`
	K1      float64 `json:"k1"`
	K2      float64 `json:"k2"`
	K3      float64 `json:"k3"`
	K4      float64 `json:"k4"`
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
}

// TrimBounds masks everything outside a rectangle.
type TrimBounds struct {
	OpcodeHeader
	Top    uint32 `json:"top"`
	Left   uint32 `json:"left"`
	Bottom uint32 `json:"bottom"`
	Right  uint32 `json:"right"`
}

// GainMap multiplies an area and plane range of an image by an interpolated gain grid.
type GainMap struct {
	OpcodeHeader
	Top         uint32  `json:"top"`
	Left        uint32  `json:"left"`
	Bottom      uint32  `json:"bottom"`
	Right       uint32  `json:"right"`
	Plane       uint32  `json:"plane"`
	Planes      uint32  `json:"planes"`
	RowPitch    uint32  `json:"row_pitch"`
	ColPitch    uint32  `json:"col_pitch"`
	MapPointsV  uint32  `json:"map_points_v"`
	MapPointsH  uint32  `json:"map_points_h"`
	MapSpacingV float64 `json:"map_spacing_v"`
	MapSpacingH float64 `json:"map_spacing_h"`
	MapOriginV  float64 `json:"map_origin_v"`
	MapOriginH  float64 `json:"map_origin_h"`
	MapPlanes   uint32  `json:"map_planes"`
	// MapGains is plane-interleaved, MapPointsV*MapPointsH*MapPlanes long.
	MapGains []float32 `json:"map_gains"`
}

// Unknown keeps the payload of an opcode kind without a decoder, or of a
// known kind whose payload did not match its layout.
type Unknown struct {
	OpcodeHeader
	Payload []byte `json:"payload"`
}

// NewWarpRectilinear creates a single-plane warp with default header values.
func NewWarpRectilinear(coefficients [6]float64, cx, cy float64) *WarpRectilinear {
	op := &WarpRectilinear{
		OpcodeHeader: newHeader(OpcodeWarpRectilinear),
		Planes:       1,
		Coefficients: coefficients[:],
		CenterX:      cx,
		CenterY:      cy,
	}
	op.ByteCount = PayloadSize(op)
	return op
}

// NewFixVignetteRadial creates a vignette correction with default header values.
func NewFixVignetteRadial(k [5]float64, cx, cy float64) *FixVignetteRadial {
	op := &FixVignetteRadial{
		OpcodeHeader: newHeader(OpcodeFixVignetteRadial),
		K0:           k[0],
		K1:           k[1],
		K2:           k[2],
		K3:           k[3],
		K4:           k[4],
		CenterX:      cx,
		CenterY:      cy,
	}
	op.ByteCount = PayloadSize(op)
	return op
}

// NewTrimBounds creates a trim with default header values.
func NewTrimBounds(top, left, bottom, right uint32) *TrimBounds {
	op := &TrimBounds{
		OpcodeHeader: newHeader(OpcodeTrimBounds),
		Top:          top,
		Left:         left,
		Bottom:       bottom,
		Right:        right,
	}
	op.ByteCount = PayloadSize(op)
	return op
}

// NewGainMap creates a gain map covering the given rectangle with a grid of
// pointsV x pointsH x mapPlanes unit gains spread evenly over the image.
func NewGainMap(top, left, bottom, right, pointsV, pointsH, mapPlanes uint32) *GainMap {
	op := &GainMap{
		OpcodeHeader: newHeader(OpcodeGainMap),
		Top:          top,
		Left:         left,
		Bottom:       bottom,
		Right:        right,
		Planes:       mapPlanes,
		RowPitch:     1,
		ColPitch:     1,
		MapPointsV:   pointsV,
		MapPointsH:   pointsH,
		MapSpacingV:  gridSpacing(pointsV),
		MapSpacingH:  gridSpacing(pointsH),
		MapPlanes:    mapPlanes,
		MapGains:     make([]float32, int(pointsV)*int(pointsH)*int(mapPlanes)),
	}
	for i := range op.MapGains {
		op.MapGains[i] = 1
	}
	op.ByteCount = PayloadSize(op)
	return op
}

// NewOpcode creates an opcode of a supported kind with neutral parameters.
func NewOpcode(id OpcodeID) (Opcode, error) {
	switch id {
	case OpcodeWarpRectilinear:
		return NewWarpRectilinear([6]float64{1, 0, 0, 0, 0, 0}, 0.5, 0.5), nil
	case OpcodeFixVignetteRadial:
		return NewFixVignetteRadial([5]float64{}, 0.5, 0.5), nil
	case OpcodeTrimBounds:
		return NewTrimBounds(0, 0, 0, 0), nil
	case OpcodeGainMap:
		return NewGainMap(0, 0, 0, 0, 2, 2, 1), nil
	default:
		return nil, &OpcodeError{Index: -1, ID: id, Err: ErrUnsupportedFeature}
	}
}

func newHeader(id OpcodeID) OpcodeHeader {
	return OpcodeHeader{ID: id, Version: defaultVersion, Flags: defaultCreatedFlags}
}

func gridSpacing(points uint32) float64 {
	if points < 2 {
		return 1
	}
	return 1 / float64(points-1)
}

// PayloadSize returns the serialized payload length of op as Encode writes it.
func PayloadSize(op Opcode) uint32 {
	switch o := op.(type) {
	case *WarpRectilinear:
		return uint32(warpRectilinearFixedSize + 8*len(o.Coefficients))
	case *FixVignetteRadial:
		return fixVignetteRadialPayloadSize
	case *TrimBounds:
		return trimBoundsPayloadSize
	case *GainMap:
		return uint32(gainMapFixedSize + 4*len(o.MapGains))
	case *Unknown:
		return uint32(len(o.Payload))
	default:
		return 0
	}
}

// kindID returns the opcode id implied by the variant type.
func kindID(op Opcode) OpcodeID {
	switch op.(type) {
	case *WarpRectilinear:
		return OpcodeWarpRectilinear
	case *FixVignetteRadial:
		return OpcodeFixVignetteRadial
	case *TrimBounds:
		return OpcodeTrimBounds
	case *GainMap:
		return OpcodeGainMap
	default:
		return op.Header().ID
	}
}
