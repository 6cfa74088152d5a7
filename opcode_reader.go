package dngopcodes

import (
	"fmt"
	"log/slog"

	"github.com/vearutop/dngopcodes/internal/bigendian"
)

// DecodeOptions controls opcode list decoding.
type DecodeOptions struct {
	// OnWarning receives recoverable problems, such as a known opcode whose
	// payload does not match its layout and was kept as Unknown.
	OnWarning func(err error)
	// Logger receives warnings and per-opcode debug records, discarded if nil.
	Logger *slog.Logger
}

// Decode parses a serialized opcode list.
// It returns either the complete list or an error; a truncated buffer
// yields an error wrapping ErrTruncatedInput and no list.
func Decode(data []byte, opts ...func(o *DecodeOptions)) (OpcodeList, error) {
	opt := DecodeOptions{}
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}
	logger := loggerOrDiscard(opt.Logger)
	warn := func(err error) {
		logger.Warn("opcode list", "error", err)
		if opt.OnWarning != nil {
			opt.OnWarning(err)
		}
	}

	r := bigendian.NewReader(data)
	count, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read opcode count: %w", err)
	}
	if uint64(count)*opcodeHeaderSize > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%d opcodes declared, %d bytes left: %w", count, r.Remaining(), ErrTruncatedInput)
	}

	list := make(OpcodeList, 0, count)
	for i := 0; i < int(count); i++ {
		op, malformed, err := readOpcode(r)
		if err != nil {
			return nil, fmt.Errorf("opcode %d: %w", i, err)
		}
		if malformed != nil {
			warn(&OpcodeError{Index: i, ID: op.Header().ID, Err: malformed})
		}
		logger.Debug("decoded opcode", "index", i, "id", op.Header().ID, "bytes", op.Header().ByteCount)
		list = append(list, op)
	}
	if r.Remaining() > 0 {
		warn(fmt.Errorf("%d trailing bytes after %d opcodes", r.Remaining(), count))
	}
	return list, nil
}

func readOpcodeHeader(r *bigendian.Reader) (OpcodeHeader, error) {
	var (
		h   OpcodeHeader
		v   uint32
		err error
	)
	if v, err = r.Uint32(); err != nil {
		return h, err
	}
	h.ID = OpcodeID(v)
	if v, err = r.Uint32(); err != nil {
		return h, err
	}
	h.Version = DNGVersion(v)
	if v, err = r.Uint32(); err != nil {
		return h, err
	}
	h.Flags = OpcodeFlags(v)
	if h.ByteCount, err = r.Uint32(); err != nil {
		return h, err
	}
	return h, nil
}

// readOpcode consumes one header and exactly ByteCount payload bytes.
// A known kind with an inconsistent payload is returned as *Unknown together
// with the layout error.
func readOpcode(r *bigendian.Reader) (op Opcode, malformed error, err error) {
	offset := r.Offset()
	h, err := readOpcodeHeader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read header at offset %d: %w", offset, err)
	}
	if uint64(h.ByteCount) > uint64(r.Remaining()) {
		return nil, nil, fmt.Errorf("%s declares %d payload bytes at offset %d, %d left: %w",
			h.ID, h.ByteCount, r.Offset(), r.Remaining(), ErrTruncatedInput)
	}
	payload, err := r.Bytes(int(h.ByteCount))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s payload: %w", h.ID, err)
	}

	switch h.ID {
	case OpcodeWarpRectilinear:
		op, err = decodeWarpRectilinear(h, payload)
	case OpcodeFixVignetteRadial:
		op, err = decodeFixVignetteRadial(h, payload)
	case OpcodeTrimBounds:
		op, err = decodeTrimBounds(h, payload)
	case OpcodeGainMap:
		op, err = decodeGainMap(h, payload)
	default:
		return &Unknown{OpcodeHeader: h, Payload: payload}, nil, nil
	}
	if err != nil {
		return &Unknown{OpcodeHeader: h, Payload: payload}, err, nil
	}
	return op, nil, nil
}

func payloadSizeMismatch(h OpcodeHeader, want uint64) error {
	return fmt.Errorf("%d payload bytes declared, layout needs %d: %w", h.ByteCount, want, ErrMalformedOpcode)
}

func decodeWarpRectilinear(h OpcodeHeader, payload []byte) (*WarpRectilinear, error) {
	if len(payload) < warpRectilinearFixedSize {
		return nil, payloadSizeMismatch(h, warpRectilinearFixedSize)
	}
	r := bigendian.NewReader(payload)
	op := &WarpRectilinear{OpcodeHeader: h}
	op.Planes, _ = r.Uint32()
	n := uint64(op.Planes) * warpCoefficientsPerPlane
	if want := warpRectilinearFixedSize + 8*n; want != uint64(len(payload)) {
		return nil, payloadSizeMismatch(h, want)
	}
	op.Coefficients = make([]float64, n)
	for i := range op.Coefficients {
		op.Coefficients[i], _ = r.Float64()
	}
	op.CenterX, _ = r.Float64()
	op.CenterY, _ = r.Float64()
	return op, nil
}

func decodeFixVignetteRadial(h OpcodeHeader, payload []byte) (*FixVignetteRadial, error) {
	if len(payload) != fixVignetteRadialPayloadSize {
		return nil, payloadSizeMismatch(h, fixVignetteRadialPayloadSize)
	}
	r := bigendian.NewReader(payload)
	op := &FixVignetteRadial{OpcodeHeader: h}
	for _, p := range []*float64{&op.K0, &op.K1, &op.K2, &op.K3, &op.K4, &op.CenterX, &op.CenterY} {
		*p, _ = r.Float64()
	}
	return op, nil
}

func decodeTrimBounds(h OpcodeHeader, payload []byte) (*TrimBounds, error) {
	if len(payload) != trimBoundsPayloadSize {
		return nil, payloadSizeMismatch(h, trimBoundsPayloadSize)
	}
	r := bigendian.NewReader(payload)
	op := &TrimBounds{OpcodeHeader: h}
	for _, p := range []*uint32{&op.Top, &op.Left, &op.Bottom, &op.Right} {
		*p, _ = r.Uint32()
	}
	return op, nil
}

func decodeGainMap(h OpcodeHeader, payload []byte) (*GainMap, error) {
	if len(payload) < gainMapFixedSize {
		return nil, payloadSizeMismatch(h, gainMapFixedSize)
	}
	r := bigendian.NewReader(payload)
	op := &GainMap{OpcodeHeader: h}
	for _, p := range []*uint32{
		&op.Top, &op.Left, &op.Bottom, &op.Right,
		&op.Plane, &op.Planes, &op.RowPitch, &op.ColPitch,
		&op.MapPointsV, &op.MapPointsH,
	} {
		*p, _ = r.Uint32()
	}
	for _, p := range []*float64{&op.MapSpacingV, &op.MapSpacingH, &op.MapOriginV, &op.MapOriginH} {
		*p, _ = r.Float64()
	}
	op.MapPlanes, _ = r.Uint32()

	limit := uint64(len(payload)-gainMapFixedSize) / 4
	n := uint64(op.MapPointsV) * uint64(op.MapPointsH)
	if n > limit {
		return nil, payloadSizeMismatch(h, gainMapFixedSize+4*n)
	}
	n *= uint64(op.MapPlanes)
	if want := gainMapFixedSize + 4*n; want != uint64(len(payload)) {
		return nil, payloadSizeMismatch(h, want)
	}
	op.MapGains = make([]float32, n)
	for i := range op.MapGains {
		op.MapGains[i], _ = r.Float32()
	}
	return op, nil
}
