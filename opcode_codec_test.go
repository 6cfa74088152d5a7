package dngopcodes

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"
)

func sampleList() OpcodeList {
	warp := NewWarpRectilinear([6]float64{1, -0.01, 0.002, 0, 0.0001, -0.0002}, 0.5, 0.48)
	vig := NewFixVignetteRadial([5]float64{0.3, -0.1, 0.02, 0, 0}, 0.51, 0.49)
	vig.Flags = FlagOptional
	trim := NewTrimBounds(2, 3, 98, 97)
	gm := NewGainMap(0, 0, 99, 99, 2, 3, 1)
	for i := range gm.MapGains {
		gm.MapGains[i] = 1 + float32(i)/8
	}
	return OpcodeList{warp, vig, trim, gm}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	list := sampleList()
	data, err := Encode(list)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(data, func(o *DecodeOptions) {
		o.OnWarning = func(err error) { t.Fatalf("unexpected warning: %v", err) }
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, list) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, list)
	}

	again, err := Encode(got)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Fatalf("re-encoded bytes differ")
	}
}

func TestEncodeSingleOpcodes(t *testing.T) {
	for _, op := range sampleList() {
		data, err := Encode(OpcodeList{op})
		if err != nil {
			t.Fatalf("encode %s: %v", op.Header().ID, err)
		}
		if want := 4 + opcodeHeaderSize + int(PayloadSize(op)); len(data) != want {
			t.Fatalf("%s: got %d bytes, want %d", op.Header().ID, len(data), want)
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("decode %s: %v", op.Header().ID, err)
		}
		if len(got) != 1 || !reflect.DeepEqual(got[0], op) {
			t.Fatalf("%s: round trip mismatch: %#v", op.Header().ID, got)
		}
	}
}

func TestEncodeEmptyList(t *testing.T) {
	data, err := Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(data, []byte{0, 0, 0, 0}) {
		t.Fatalf("unexpected bytes: %x", data)
	}
	list, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}

func TestEncodeTrimBoundsLayout(t *testing.T) {
	op := NewTrimBounds(1, 2, 3, 4)
	data, err := Encode(OpcodeList{op})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{
		0, 0, 0, 1, // count
		0, 0, 0, 6, // id
		1, 3, 0, 0, // version
		0, 0, 0, 2, // flags
		0, 0, 0, 16, // byte count
		0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4,
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("unexpected layout:\n got %x\nwant %x", data, want)
	}
}

func TestEncodeRecomputesByteCount(t *testing.T) {
	op := NewWarpRectilinear([6]float64{1}, 0.5, 0.5)
	op.ByteCount = 3
	data, err := Encode(OpcodeList{op})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if v := binary.BigEndian.Uint32(data[8:]); v != uint32(DNGVersion1_3) {
		t.Fatalf("unexpected version: %x", v)
	}
	if n := binary.BigEndian.Uint32(data[16:]); n != 4+6*8+16 {
		t.Fatalf("unexpected byte count: %d", n)
	}
}

func TestEncodeLayoutErrors(t *testing.T) {
	warp := NewWarpRectilinear([6]float64{1}, 0.5, 0.5)
	warp.Planes = 2

	gm := NewGainMap(0, 0, 1, 1, 2, 2, 1)
	gm.MapGains = gm.MapGains[:3]

	for _, list := range []OpcodeList{{warp}, {NewTrimBounds(0, 0, 1, 1), gm}} {
		_, err := Encode(list)
		if !errors.Is(err, ErrMalformedOpcode) {
			t.Fatalf("expected ErrMalformedOpcode, got %v", err)
		}
		var oe *OpcodeError
		if !errors.As(err, &oe) || oe.Index != len(list)-1 {
			t.Fatalf("expected OpcodeError at %d, got %v", len(list)-1, err)
		}
	}

	if _, err := Encode(OpcodeList{nil}); err == nil {
		t.Fatalf("expected error for nil opcode")
	}
}

func TestDecodeUnknownOpcodeIsLossless(t *testing.T) {
	unknown := &Unknown{
		OpcodeHeader: OpcodeHeader{ID: OpcodeMapPolynomial, Version: DNGVersion1_4, Flags: FlagOptional, ByteCount: 5},
		Payload:      []byte{9, 8, 7, 6, 5},
	}
	list := OpcodeList{NewTrimBounds(1, 1, 9, 9), unknown, NewFixVignetteRadial([5]float64{0.1}, 0.5, 0.5)}

	data, err := Encode(list)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 opcodes, got %d", len(got))
	}
	if _, ok := got[2].(*FixVignetteRadial); !ok {
		t.Fatalf("opcode after unknown misaligned: %T", got[2])
	}
	u, ok := got[1].(*Unknown)
	if !ok {
		t.Fatalf("expected *Unknown, got %T", got[1])
	}
	if !reflect.DeepEqual(u, unknown) {
		t.Fatalf("unknown mismatch: %#v", u)
	}

	again, err := Encode(got)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Fatalf("unknown payload not preserved")
	}
}

func TestZeroVersionRoundTrip(t *testing.T) {
	var data []byte
	data = binary.BigEndian.AppendUint32(data, 2)
	data = binary.BigEndian.AppendUint32(data, 200)
	data = binary.BigEndian.AppendUint32(data, 0) // version
	data = binary.BigEndian.AppendUint32(data, 0)
	data = binary.BigEndian.AppendUint32(data, 4)
	data = append(data, 1, 2, 3, 4)
	data = binary.BigEndian.AppendUint32(data, uint32(OpcodeTrimBounds))
	data = binary.BigEndian.AppendUint32(data, 0) // version
	data = binary.BigEndian.AppendUint32(data, 0)
	data = binary.BigEndian.AppendUint32(data, trimBoundsPayloadSize)
	data = append(data, make([]byte, trimBoundsPayloadSize)...)

	list, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list[0].Header().Version != 0 || list[1].Header().Version != 0 {
		t.Fatalf("unexpected versions: %v %v", list[0].Header().Version, list[1].Header().Version)
	}
	again, err := Encode(list)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Fatalf("zero version not preserved:\n got %x\nwant %x", again, data)
	}

	trim := &TrimBounds{Top: 1, Left: 2, Bottom: 3, Right: 4}
	data, err = Encode(OpcodeList{trim})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	trim.ID, trim.ByteCount = OpcodeTrimBounds, trimBoundsPayloadSize
	if !reflect.DeepEqual(got[0], trim) {
		t.Fatalf("round trip mismatch: %#v", got[0])
	}
}

func TestDecodeTruncated(t *testing.T) {
	data, err := Encode(sampleList())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, n := range []int{0, 3, 4, 10, 20, len(data) - 1} {
		list, err := Decode(data[:n])
		if !errors.Is(err, ErrTruncatedInput) {
			t.Fatalf("len %d: expected ErrTruncatedInput, got %v", n, err)
		}
		if list != nil {
			t.Fatalf("len %d: expected no list", n)
		}
	}

	// A count far larger than the buffer must fail before allocating.
	huge := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	if _, err := Decode(huge); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}
}

func TestDecodeMalformedKnownOpcode(t *testing.T) {
	w := encodeRaw(t, OpcodeTrimBounds, 12, make([]byte, 12))
	var warnings []error
	list, err := Decode(w, func(o *DecodeOptions) {
		o.OnWarning = func(err error) { warnings = append(warnings, err) }
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 opcode, got %d", len(list))
	}
	u, ok := list[0].(*Unknown)
	if !ok {
		t.Fatalf("expected *Unknown, got %T", list[0])
	}
	if u.ID != OpcodeTrimBounds || len(u.Payload) != 12 {
		t.Fatalf("unexpected unknown: %+v", u)
	}
	if len(warnings) != 1 || !errors.Is(warnings[0], ErrMalformedOpcode) {
		t.Fatalf("expected one malformed warning, got %v", warnings)
	}

	// Unknown keeps the original id on re-encode.
	again, err := Encode(list)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(again, w) {
		t.Fatalf("malformed opcode not preserved")
	}
}

func TestDecodeGainMapCountOverflow(t *testing.T) {
	payload := make([]byte, gainMapFixedSize)
	binary.BigEndian.PutUint32(payload[32:], math.MaxUint32) // map points v
	binary.BigEndian.PutUint32(payload[36:], math.MaxUint32) // map points h
	binary.BigEndian.PutUint32(payload[gainMapFixedSize-4:], 1)

	list, err := Decode(encodeRaw(t, OpcodeGainMap, uint32(len(payload)), payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := list[0].(*Unknown); !ok {
		t.Fatalf("expected *Unknown, got %T", list[0])
	}
}

func TestDecodeTrailingBytesWarn(t *testing.T) {
	data, err := Encode(OpcodeList{NewTrimBounds(0, 0, 1, 1)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var warned bool
	list, err := Decode(append(data, 0, 0), func(o *DecodeOptions) {
		o.OnWarning = func(error) { warned = true }
	})
	if err != nil || len(list) != 1 {
		t.Fatalf("decode: %v %d", err, len(list))
	}
	if !warned {
		t.Fatalf("expected trailing bytes warning")
	}
}

func encodeRaw(t *testing.T, id OpcodeID, byteCount uint32, payload []byte) []byte {
	t.Helper()
	var b []byte
	b = binary.BigEndian.AppendUint32(b, 1)
	b = binary.BigEndian.AppendUint32(b, uint32(id))
	b = binary.BigEndian.AppendUint32(b, uint32(DNGVersion1_3))
	b = binary.BigEndian.AppendUint32(b, 0)
	b = binary.BigEndian.AppendUint32(b, byteCount)
	return append(b, payload...)
}
