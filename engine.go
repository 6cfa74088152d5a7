package dngopcodes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ApplyOptions controls ApplyAll.
type ApplyOptions struct {
	// Enabled selects opcodes by list position. Nil enables all; otherwise
	// its length must match the list.
	Enabled []bool
	// DecodeGamma linearizes the image before the first opcode.
	DecodeGamma bool
	// EncodeGamma re-applies gamma after the last opcode.
	EncodeGamma bool
	// Gamma is the power-law exponent, 2.2 if zero.
	Gamma float64
	// StrictGainMapBounds limits GainMap to its full rectangle instead of the
	// legacy test that leaves the vertical extent unconstrained.
	StrictGainMapBounds bool
	// Workers bounds row parallelism, GOMAXPROCS if zero.
	Workers int
	// Logger receives per-opcode debug timings and skip reports, discarded if nil.
	Logger *slog.Logger
	// OnOpcode is called after each applied opcode.
	OnOpcode func(index int, op Opcode, elapsed time.Duration)
}

// ApplyResult is the outcome of ApplyAll.
type ApplyResult struct {
	Image *Image
	// Applied lists the indexes of opcodes that took effect.
	Applied []int
	// Warnings holds skipped optional or unknown opcodes.
	Warnings []error
	// Failures holds non-optional opcodes that could not be applied.
	Failures []error
}

// Err joins Failures, nil if every required opcode was applied.
func (r *ApplyResult) Err() error {
	return errors.Join(r.Failures...)
}

// ApplyAll runs the enabled opcodes in list order on a copy of src,
// optionally bracketed by gamma decode and encode. src is never modified.
//
// An opcode that cannot be applied does not stop the list: it is reported in
// ApplyResult.Warnings when FlagOptional is set, in ApplyResult.Failures
// otherwise. The returned error is limited to invalid arguments and context
// cancellation, which is checked between opcodes.
func ApplyAll(ctx context.Context, src *Image, list OpcodeList, opts ...func(o *ApplyOptions)) (*ApplyResult, error) {
	if src == nil {
		return nil, fmt.Errorf("nil image: %w", ErrInvalidImage)
	}
	opt := ApplyOptions{Gamma: defaultGamma}
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}
	if opt.Gamma <= 0 {
		return nil, fmt.Errorf("invalid gamma %v", opt.Gamma)
	}
	if opt.Enabled != nil && len(opt.Enabled) != len(list) {
		return nil, fmt.Errorf("enabled mask has %d entries for %d opcodes", len(opt.Enabled), len(list))
	}
	logger := loggerOrDiscard(opt.Logger)

	res := &ApplyResult{Image: src.Clone()}
	img := res.Image
	started := time.Now()

	if opt.DecodeGamma {
		t := time.Now()
		decodeGamma(img, opt.Gamma, opt.Workers)
		logger.Debug("gamma decoded", "elapsed", time.Since(t))
	}

	for i, op := range list {
		if opt.Enabled != nil && !opt.Enabled[i] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if op == nil {
			return nil, &OpcodeError{Index: i, Err: errors.New("nil opcode")}
		}

		t := time.Now()
		err := applyOpcode(img, op, &opt)
		elapsed := time.Since(t)
		h := op.Header()

		if err != nil {
			oe := &OpcodeError{Index: i, ID: h.ID, Err: err}
			if _, unknown := op.(*Unknown); unknown || h.Flags.Optional() {
				logger.Info("opcode skipped", "index", i, "id", h.ID, "error", err)
				res.Warnings = append(res.Warnings, oe)
			} else {
				logger.Warn("opcode failed", "index", i, "id", h.ID, "error", err)
				res.Failures = append(res.Failures, oe)
			}
			continue
		}

		logger.Debug("opcode applied", "index", i, "id", h.ID, "elapsed", elapsed)
		res.Applied = append(res.Applied, i)
		if opt.OnOpcode != nil {
			opt.OnOpcode(i, op, elapsed)
		}
	}

	if opt.EncodeGamma {
		t := time.Now()
		encodeGamma(img, opt.Gamma, opt.Workers)
		logger.Debug("gamma encoded", "elapsed", time.Since(t))
	}
	logger.Debug("opcodes applied", "count", len(res.Applied), "elapsed", time.Since(started))

	return res, nil
}

// Apply runs the enabled opcodes on a copy of src without gamma processing.
// Opcodes that cannot be applied are skipped. The image is returned even when
// required opcodes failed; the error then joins those failures. Use ApplyAll
// to tell skipped optional opcodes apart.
func Apply(src *Image, list OpcodeList, enabled []bool) (*Image, error) {
	res, err := ApplyAll(context.Background(), src, list, func(o *ApplyOptions) {
		o.Enabled = enabled
	})
	if err != nil {
		return nil, err
	}
	return res.Image, res.Err()
}

func applyOpcode(img *Image, op Opcode, opt *ApplyOptions) error {
	switch o := op.(type) {
	case *TrimBounds:
		applyTrimBounds(img, o, opt.Workers)
		return nil
	case *FixVignetteRadial:
		applyFixVignetteRadial(img, o, opt.Workers)
		return nil
	case *WarpRectilinear:
		return applyWarpRectilinear(img, o, opt.Workers)
	case *GainMap:
		return applyGainMap(img, o, opt.StrictGainMapBounds, opt.Workers)
	default:
		return fmt.Errorf("%s is not implemented: %w", op.Header().ID, ErrUnsupportedFeature)
	}
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
