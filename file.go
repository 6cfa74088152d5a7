package dngopcodes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder.
	"image/png"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
	"golang.org/x/image/tiff"
)

// ReadOpcodeListFile decodes a binary opcode list file.
func ReadOpcodeListFile(path string, opts ...func(o *DecodeOptions)) (OpcodeList, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return Decode(data, opts...)
}

// WriteOpcodeListFile encodes list into a binary opcode list file.
func WriteOpcodeListFile(path string, list OpcodeList) error {
	data, err := Encode(list)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Clean(path), data, 0o644)
}

// ReadBundleFile reads and validates a JSON bundle.
func ReadBundleFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// WriteBundleFile writes b as indented JSON.
func WriteBundleFile(path string, b *Bundle) error {
	payload, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Clean(path), payload, 0o644)
}

// DecodeImageFile decodes a PNG, JPEG, TIFF or WebP file into an Image.
// Bitmaps with more than 8 bits per sample are loaded as FormatRGBA16, others
// as FormatBGRA8. deep reports which one was chosen.
func DecodeImageFile(path string) (img *Image, deep bool, err error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", path, err)
	}
	deep = isDeepImage(src)
	format := FormatBGRA8
	if deep {
		format = FormatRGBA16
	}
	img, err = FromImage(src, format)
	return img, deep, err
}

// EncodeTIFF encodes img as a deflate-compressed TIFF, 16 bits per sample
// for 16-bit formats.
func EncodeTIFF(img *Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img.ToImage(), &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Preview returns a PNG of img fitted into maxWidth x maxHeight.
func Preview(img *Image, maxWidth, maxHeight uint) ([]byte, error) {
	if maxWidth == 0 || maxHeight == 0 {
		return nil, fmt.Errorf("invalid preview size %dx%d", maxWidth, maxHeight)
	}
	thumb := resize.Thumbnail(maxWidth, maxHeight, img.ToImage(), resize.Lanczos3)
	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ApplyFileOptions controls ApplyOpcodesFile.
type ApplyFileOptions struct {
	Apply []func(o *ApplyOptions)
	// AutoEncodeGamma enables gamma encoding for inputs with more than 8 bits
	// per sample, overriding ApplyOptions.EncodeGamma.
	AutoEncodeGamma bool
	PreviewOut      string
	PreviewWidth    uint
	PreviewHeight   uint
}

// ApplyOpcodesFile applies list to the image at inPath and writes a TIFF to
// outPath, plus a PNG preview if PreviewOut is set.
func ApplyOpcodesFile(ctx context.Context, inPath, outPath string, list OpcodeList, opts ...func(o *ApplyFileOptions)) (*ApplyResult, error) {
	opt := ApplyFileOptions{PreviewWidth: 800, PreviewHeight: 600}
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}

	src, deep, err := DecodeImageFile(inPath)
	if err != nil {
		return nil, err
	}
	applyOpts := opt.Apply
	if opt.AutoEncodeGamma {
		applyOpts = append(append([]func(o *ApplyOptions){}, applyOpts...), func(o *ApplyOptions) {
			o.EncodeGamma = deep
		})
	}
	res, err := ApplyAll(ctx, src, list, applyOpts...)
	if err != nil {
		return nil, err
	}

	out, err := EncodeTIFF(res.Image)
	if err != nil {
		return nil, fmt.Errorf("encode tiff: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(outPath), out, 0o644); err != nil {
		return nil, err
	}
	if opt.PreviewOut != "" {
		preview, err := Preview(res.Image, opt.PreviewWidth, opt.PreviewHeight)
		if err != nil {
			return nil, fmt.Errorf("preview: %w", err)
		}
		if err := os.WriteFile(filepath.Clean(opt.PreviewOut), preview, 0o644); err != nil {
			return nil, fmt.Errorf("write preview: %w", err)
		}
	}
	return res, nil
}
