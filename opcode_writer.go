package dngopcodes

import (
	"errors"
	"fmt"

	"github.com/vearutop/dngopcodes/internal/bigendian"
)

// Encode serializes an opcode list.
// Payload byte counts are recomputed from the opcode fields; the stored
// ByteCount is ignored. The opcode id of a known variant is implied by its
// type, version and flags are written as stored.
func Encode(list OpcodeList) ([]byte, error) {
	size := 4
	for i, op := range list {
		if op == nil {
			return nil, &OpcodeError{Index: i, Err: errors.New("nil opcode")}
		}
		if err := validateLayout(op); err != nil {
			return nil, &OpcodeError{Index: i, ID: kindID(op), Err: err}
		}
		size += opcodeHeaderSize + int(PayloadSize(op))
	}

	w := bigendian.NewWriter(size)
	w.PutUint32(uint32(len(list)))
	for _, op := range list {
		writeOpcode(w, op)
	}
	return w.Bytes(), nil
}

func validateLayout(op Opcode) error {
	switch o := op.(type) {
	case *WarpRectilinear:
		if want := uint64(o.Planes) * warpCoefficientsPerPlane; uint64(len(o.Coefficients)) != want {
			return fmt.Errorf("%d coefficients for %d planes, want %d: %w", len(o.Coefficients), o.Planes, want, ErrMalformedOpcode)
		}
	case *GainMap:
		want := uint64(o.MapPointsV) * uint64(o.MapPointsH) * uint64(o.MapPlanes)
		if uint64(len(o.MapGains)) != want {
			return fmt.Errorf("%d map gains for %dx%dx%d grid: %w", len(o.MapGains), o.MapPointsV, o.MapPointsH, o.MapPlanes, ErrMalformedOpcode)
		}
	case *FixVignetteRadial, *TrimBounds, *Unknown:
	default:
		return fmt.Errorf("unsupported opcode type %T", op)
	}
	return nil
}

func writeOpcodeHeader(w *bigendian.Writer, h OpcodeHeader) {
	w.PutUint32(uint32(h.ID))
	w.PutUint32(uint32(h.Version))
	w.PutUint32(uint32(h.Flags))
	w.PutUint32(h.ByteCount)
}

func writeOpcode(w *bigendian.Writer, op Opcode) {
	h := op.Header()
	h.ID = kindID(op)
	h.ByteCount = PayloadSize(op)
	writeOpcodeHeader(w, h)

	switch o := op.(type) {
	case *WarpRectilinear:
		w.PutUint32(o.Planes)
		for _, c := range o.Coefficients {
			w.PutFloat64(c)
		}
		w.PutFloat64(o.CenterX)
		w.PutFloat64(o.CenterY)
	case *FixVignetteRadial:
		for _, v := range []float64{o.K0, o.K1, o.K2, o.K3, o.K4, o.CenterX, o.CenterY} {
			w.PutFloat64(v)
		}
	case *TrimBounds:
		for _, v := range []uint32{o.Top, o.Left, o.Bottom, o.Right} {
			w.PutUint32(v)
		}
	case *GainMap:
		for _, v := range []uint32{
			o.Top, o.Left, o.Bottom, o.Right,
			o.Plane, o.Planes, o.RowPitch, o.ColPitch,
			o.MapPointsV, o.MapPointsH,
		} {
			w.PutUint32(v)
		}
		for _, v := range []float64{o.MapSpacingV, o.MapSpacingH, o.MapOriginV, o.MapOriginH} {
			w.PutFloat64(v)
		}
		w.PutUint32(o.MapPlanes)
		for _, g := range o.MapGains {
			w.PutFloat32(g)
		}
	case *Unknown:
		w.PutBytes(o.Payload)
	}
}
