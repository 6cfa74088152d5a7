// Package dngopcodes reads, writes and previews DNG opcode lists.
//
// An opcode list is the big-endian binary blob stored in the OpcodeList1..3
// tags of a DNG file. Decode turns it into an OpcodeList of typed opcodes,
// Encode turns it back into bytes, recomputing payload sizes and keeping the
// payload of unsupported opcode kinds verbatim. ApplyAll runs the supported
// opcodes (WarpRectilinear, FixVignetteRadial, TrimBounds, GainMap) on an
// in-memory Image, row-parallel, optionally bracketed by gamma decode/encode.
//
// Extracting the opcode blob from a DNG container is left to external tools.
package dngopcodes
