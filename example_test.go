package dngopcodes_test

import (
	"context"
	"fmt"

	"github.com/vearutop/dngopcodes"
)

func ExampleDecode() {
	data, err := dngopcodes.Encode(dngopcodes.OpcodeList{
		dngopcodes.NewTrimBounds(8, 8, 1016, 760),
		dngopcodes.NewFixVignetteRadial([5]float64{0.4, -0.1, 0, 0, 0}, 0.5, 0.5),
	})
	if err != nil {
		return
	}

	list, err := dngopcodes.Decode(data)
	if err != nil {
		return
	}
	for i, op := range list {
		h := op.Header()
		fmt.Println(i, h.ID, h.ByteCount)
	}

	// Output:
	// 0 TrimBounds 16
	// 1 FixVignetteRadial 56
}

func ExampleApplyAll() {
	img, err := dngopcodes.NewImage(64, 48, dngopcodes.FormatRGBA16)
	if err != nil {
		return
	}
	list := dngopcodes.OpcodeList{
		dngopcodes.NewWarpRectilinear([6]float64{1, 0.01, 0, 0, 0, 0}, 0.5, 0.5),
		dngopcodes.NewTrimBounds(2, 2, 46, 62),
	}

	res, err := dngopcodes.ApplyAll(context.Background(), img, list, func(o *dngopcodes.ApplyOptions) {
		o.DecodeGamma = true
		o.EncodeGamma = true
	})
	if err != nil {
		return
	}
	fmt.Println(res.Applied, res.Err())

	// Output:
	// [0 1] <nil>
}

func ExampleSetField() {
	op, err := dngopcodes.NewOpcode(dngopcodes.OpcodeFixVignetteRadial)
	if err != nil {
		return
	}
	if err := dngopcodes.SetField(op, "k0", "0.75"); err != nil {
		return
	}
	for _, f := range op.Fields()[:2] {
		fmt.Println(f.Name, f.String())
	}

	// Output:
	// k0 0.75
	// k1 0
}
