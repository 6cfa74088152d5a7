package dngopcodes

import "fmt"

// OpcodeID identifies an opcode kind.
type OpcodeID uint32

const (
	OpcodeWarpRectilinear      OpcodeID = 1
	OpcodeWarpFisheye          OpcodeID = 2
	OpcodeFixVignetteRadial    OpcodeID = 3
	OpcodeFixBadPixelsConstant OpcodeID = 4
	OpcodeFixBadPixelsList     OpcodeID = 5
	OpcodeTrimBounds           OpcodeID = 6
	OpcodeMapTable             OpcodeID = 7
	OpcodeMapPolynomial        OpcodeID = 8
	OpcodeGainMap              OpcodeID = 9
	OpcodeDeltaPerRow          OpcodeID = 10
	OpcodeDeltaPerColumn       OpcodeID = 11
	OpcodeScalePerRow          OpcodeID = 12
	OpcodeScalePerColumn       OpcodeID = 13
	OpcodeWarpRectilinear2     OpcodeID = 14
)

var opcodeNames = map[OpcodeID]string{
	OpcodeWarpRectilinear:      "WarpRectilinear",
	OpcodeWarpFisheye:          "WarpFisheye",
	OpcodeFixVignetteRadial:    "FixVignetteRadial",
	OpcodeFixBadPixelsConstant: "FixBadPixelsConstant",
	OpcodeFixBadPixelsList:     "FixBadPixelsList",
	OpcodeTrimBounds:           "TrimBounds",
	OpcodeMapTable:             "MapTable",
	OpcodeMapPolynomial:        "MapPolynomial",
	OpcodeGainMap:              "GainMap",
	OpcodeDeltaPerRow:          "DeltaPerRow",
	OpcodeDeltaPerColumn:       "DeltaPerColumn",
	OpcodeScalePerRow:          "ScalePerRow",
	OpcodeScalePerColumn:       "ScalePerColumn",
	OpcodeWarpRectilinear2:     "WarpRectilinear2",
}

func (id OpcodeID) String() string {
	if name, ok := opcodeNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", uint32(id))
}

// Description returns a short human readable description of the opcode kind.
func (id OpcodeID) Description() string {
	switch id {
	case OpcodeWarpRectilinear:
		return "Correct radial and tangential distortions and lateral chromatic aberration for rectilinear lenses"
	case OpcodeFixVignetteRadial:
		return "Correct vignetting with a radially-symmetric gain function"
	case OpcodeTrimBounds:
		return "Trims the image to the specified rectangle"
	case OpcodeGainMap:
		return "Multiplies a specified area and plane range of an image by a gain map"
	default:
		return ""
	}
}

// ParseOpcodeID resolves an opcode kind by name.
func ParseOpcodeID(name string) (OpcodeID, error) {
	for id, n := range opcodeNames {
		if n == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown opcode %q", name)
}

// OpcodeFlags is the opcode header flag set.
type OpcodeFlags uint32

const (
	// FlagOptional marks an opcode a reader may skip if it cannot apply it.
	FlagOptional OpcodeFlags = 1
	// FlagOptionalPreview marks an opcode that may be skipped for previews.
	FlagOptionalPreview OpcodeFlags = 2
)

// Optional reports whether FlagOptional is set.
func (f OpcodeFlags) Optional() bool { return f&FlagOptional != 0 }

// OptionalPreview reports whether FlagOptionalPreview is set.
func (f OpcodeFlags) OptionalPreview() bool { return f&FlagOptionalPreview != 0 }

// DNGVersion is a packed a.b.c.d version number.
type DNGVersion uint32

const (
	DNGVersion1_3 DNGVersion = 0x01030000
	DNGVersion1_4 DNGVersion = 0x01040000
	DNGVersion1_5 DNGVersion = 0x01050000
	DNGVersion1_6 DNGVersion = 0x01060000
	DNGVersion1_7 DNGVersion = 0x01070000
)

func (v DNGVersion) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

const opcodeHeaderSize = 16

const (
	trimBoundsPayloadSize        = 4 * 4
	fixVignetteRadialPayloadSize = 7 * 8
	// planes and center x/y; each plane adds 6 doubles.
	warpRectilinearFixedSize = 4 + 2*8
	warpCoefficientsPerPlane = 6
	gainMapFixedSize         = 10*4 + 4*8 + 4
)

const (
	defaultGamma        = 2.2
	defaultOpcodeList   = 3
	defaultVersion      = DNGVersion1_3
	defaultCreatedFlags = FlagOptionalPreview
)
