package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/vearutop/dngopcodes"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 2
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch args[0] {
	case "dump":
		err = runDump(args[1:], os.Stdout)
	case "export":
		err = runExport(args[1:])
	case "import":
		err = runImport(args[1:])
	case "set":
		err = runSet(args[1:])
	case "add":
		err = runAdd(args[1:])
	case "apply":
		err = runApply(ctx, args[1:])
	default:
		usage()
		return 2
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: dngopcodes <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  dump   -in list.bin [-fields] [-v]")
	fmt.Fprintln(os.Stderr, "  export -in list.bin -out list.json [-list 3]")
	fmt.Fprintln(os.Stderr, "  import -in list.json -out list.bin [-list 0]")
	fmt.Fprintln(os.Stderr, "  set    -in list.bin -index 0 -field k0 -value 0.5 [-out edited.bin]")
	fmt.Fprintln(os.Stderr, "  add    -in list.bin -kind TrimBounds [-out edited.bin]")
	fmt.Fprintln(os.Stderr, "  apply  -image in.png -opcodes list.bin|list.json -out out.tiff [-decode-gamma=true] [-encode-gamma auto|true|false]")
	fmt.Fprintln(os.Stderr, "         [-strict-gainmap] [-disable 0,2] [-preview-out p.png -pw 800 -ph 600] [-v]")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runDump(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	inPath := fs.String("in", "", "binary opcode list")
	fields := fs.Bool("fields", false, "print opcode parameters")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" {
		return errors.New("missing required arguments")
	}
	list, err := dngopcodes.ReadOpcodeListFile(*inPath, func(o *dngopcodes.DecodeOptions) {
		o.Logger = newLogger(*verbose)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d opcodes\n", len(list))
	for i, op := range list {
		h := op.Header()
		fmt.Fprintf(out, "%d: %s version=%s flags=%d bytes=%d\n", i, h.ID, h.Version, h.Flags, h.ByteCount)
		if !*fields {
			continue
		}
		for _, f := range op.Fields() {
			fmt.Fprintf(out, "    %s = %s\n", f.Name, f.String())
		}
	}
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	inPath := fs.String("in", "", "binary opcode list")
	outPath := fs.String("out", "", "json bundle output")
	listIndex := fs.Int("list", 3, "opcode list number recorded in the bundle")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outPath == "" {
		return errors.New("missing required arguments")
	}
	list, err := dngopcodes.ReadOpcodeListFile(*inPath, func(o *dngopcodes.DecodeOptions) {
		o.Logger = newLogger(false)
	})
	if err != nil {
		return err
	}
	return dngopcodes.WriteBundleFile(*outPath, dngopcodes.BuildBundle(list, *listIndex))
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	inPath := fs.String("in", "", "json bundle")
	outPath := fs.String("out", "", "binary opcode list output")
	listIndex := fs.Int("list", 0, "opcode list number to extract, 0 for all")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outPath == "" {
		return errors.New("missing required arguments")
	}
	b, err := dngopcodes.ReadBundleFile(*inPath)
	if err != nil {
		return err
	}
	return dngopcodes.WriteOpcodeListFile(*outPath, b.OpcodeList(*listIndex))
}

func runSet(args []string) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	inPath := fs.String("in", "", "binary opcode list")
	outPath := fs.String("out", "", "output, defaults to -in")
	index := fs.Int("index", -1, "opcode index")
	field := fs.String("field", "", "parameter name, e.g. k0 or coefficients[1]")
	value := fs.String("value", "", "new value")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *field == "" || *value == "" {
		return errors.New("missing required arguments")
	}
	list, err := dngopcodes.ReadOpcodeListFile(*inPath)
	if err != nil {
		return err
	}
	if *index < 0 || *index >= len(list) {
		return fmt.Errorf("index %d out of range [0, %d)", *index, len(list))
	}
	if err := dngopcodes.SetField(list[*index], *field, *value); err != nil {
		return err
	}
	return dngopcodes.WriteOpcodeListFile(outputPath(*inPath, *outPath), list)
}

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	inPath := fs.String("in", "", "binary opcode list, created if missing")
	outPath := fs.String("out", "", "output, defaults to -in")
	kind := fs.String("kind", "", "opcode kind: WarpRectilinear, FixVignetteRadial, TrimBounds, GainMap")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *kind == "" {
		return errors.New("missing required arguments")
	}
	id, err := dngopcodes.ParseOpcodeID(*kind)
	if err != nil {
		return err
	}
	op, err := dngopcodes.NewOpcode(id)
	if err != nil {
		return err
	}
	var list dngopcodes.OpcodeList
	if _, err := os.Stat(filepath.Clean(*inPath)); err == nil {
		if list, err = dngopcodes.ReadOpcodeListFile(*inPath); err != nil {
			return err
		}
	}
	list = append(list, op)
	return dngopcodes.WriteOpcodeListFile(outputPath(*inPath, *outPath), list)
}

func runApply(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	imagePath := fs.String("image", "", "input image (png, jpeg, tiff, webp)")
	opcodesPath := fs.String("opcodes", "", "binary opcode list or json bundle")
	outPath := fs.String("out", "", "output TIFF")
	listIndex := fs.Int("list", 0, "bundle opcode list number, 0 for all")
	decodeGamma := fs.Bool("decode-gamma", true, "linearize before applying opcodes")
	encodeGamma := fs.String("encode-gamma", "auto", "re-apply gamma after opcodes: auto, true or false")
	gamma := fs.Float64("gamma", 2.2, "gamma exponent")
	strict := fs.Bool("strict-gainmap", false, "limit GainMap to its full rectangle")
	disable := fs.String("disable", "", "comma separated opcode indexes to skip")
	previewOut := fs.String("preview-out", "", "write PNG preview")
	pw := fs.Uint("pw", 800, "preview max width")
	ph := fs.Uint("ph", 600, "preview max height")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *imagePath == "" || *opcodesPath == "" || *outPath == "" {
		return errors.New("missing required arguments")
	}
	logger := newLogger(*verbose)

	var (
		list    dngopcodes.OpcodeList
		enabled []bool
	)
	if strings.EqualFold(filepath.Ext(*opcodesPath), ".json") {
		b, err := dngopcodes.ReadBundleFile(*opcodesPath)
		if err != nil {
			return err
		}
		list, enabled = b.OpcodeList(*listIndex), b.EnabledMask(*listIndex)
	} else {
		var err error
		list, err = dngopcodes.ReadOpcodeListFile(*opcodesPath, func(o *dngopcodes.DecodeOptions) {
			o.Logger = logger
		})
		if err != nil {
			return err
		}
	}
	enabled, err := disableIndexes(enabled, len(list), *disable)
	if err != nil {
		return err
	}

	res, err := dngopcodes.ApplyOpcodesFile(ctx, *imagePath, *outPath, list, func(o *dngopcodes.ApplyFileOptions) {
		o.AutoEncodeGamma = *encodeGamma == "auto"
		o.PreviewOut = *previewOut
		o.PreviewWidth = *pw
		o.PreviewHeight = *ph
		o.Apply = append(o.Apply, func(o *dngopcodes.ApplyOptions) {
			o.Enabled = enabled
			o.DecodeGamma = *decodeGamma
			o.EncodeGamma = *encodeGamma == "true"
			o.Gamma = *gamma
			o.StrictGainMapBounds = *strict
			o.Logger = logger
			o.OnOpcode = func(index int, op dngopcodes.Opcode, elapsed time.Duration) {
				logger.Info("applied", "index", index, "id", op.Header().ID, "elapsed", elapsed)
			}
		})
	})
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		logger.Warn("skipped", "error", w)
	}
	return res.Err()
}

// disableIndexes clears the listed positions in the enabled mask, creating
// an all-enabled mask of length n when none was given.
func disableIndexes(enabled []bool, n int, list string) ([]bool, error) {
	if list == "" {
		return enabled, nil
	}
	if enabled == nil {
		enabled = make([]bool, n)
		for i := range enabled {
			enabled[i] = true
		}
	}
	for _, s := range strings.Split(list, ",") {
		var i int
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &i); err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", s, err)
		}
		if i < 0 || i >= n {
			return nil, fmt.Errorf("index %d out of range [0, %d)", i, n)
		}
		enabled[i] = false
	}
	return enabled, nil
}

func outputPath(in, out string) string {
	if out != "" {
		return out
	}
	return in
}
