package dngopcodes

import (
	"encoding/json"
	"errors"
	"fmt"
)

const bundleFormat = "dngopcodes-1"

// Bundle is an editable JSON form of one or more opcode lists.
// Unknown payloads are base64-encoded.
type Bundle struct {
	Format  string        `json:"format"`
	Entries []BundleEntry `json:"opcodes"`
}

// BundleEntry is one opcode with the list it belongs to (1, 2 or 3 for
// OpcodeList1..3) and its enabled state.
type BundleEntry struct {
	List    int    `json:"list"`
	Enabled bool   `json:"enabled"`
	Kind    string `json:"kind"`
	Opcode  Opcode `json:"-"`
}

type bundleEntryJSON struct {
	List    int             `json:"list"`
	Enabled bool            `json:"enabled"`
	Kind    string          `json:"kind"`
	Params  json.RawMessage `json:"params"`
}

// MarshalJSON writes the opcode parameters under "params".
func (e BundleEntry) MarshalJSON() ([]byte, error) {
	if e.Opcode == nil {
		return nil, errors.New("bundle entry without opcode")
	}
	params, err := json.Marshal(e.Opcode)
	if err != nil {
		return nil, err
	}
	return json.Marshal(bundleEntryJSON{
		List:    e.List,
		Enabled: e.Enabled,
		Kind:    bundleKind(e.Opcode),
		Params:  params,
	})
}

// UnmarshalJSON restores the opcode variant named by "kind".
func (e *BundleEntry) UnmarshalJSON(data []byte) error {
	var raw bundleEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var op Opcode
	switch raw.Kind {
	case OpcodeWarpRectilinear.String():
		op = &WarpRectilinear{}
	case OpcodeFixVignetteRadial.String():
		op = &FixVignetteRadial{}
	case OpcodeTrimBounds.String():
		op = &TrimBounds{}
	case OpcodeGainMap.String():
		op = &GainMap{}
	case "Unknown":
		op = &Unknown{}
	default:
		return fmt.Errorf("unsupported opcode kind %q", raw.Kind)
	}
	if err := json.Unmarshal(raw.Params, op); err != nil {
		return fmt.Errorf("%s params: %w", raw.Kind, err)
	}
	if _, unknown := op.(*Unknown); !unknown {
		op.header().ID = kindID(op)
	}
	e.List, e.Enabled, e.Kind, e.Opcode = raw.List, raw.Enabled, raw.Kind, op
	return nil
}

func bundleKind(op Opcode) string {
	if _, ok := op.(*Unknown); ok {
		return "Unknown"
	}
	return kindID(op).String()
}

// BuildBundle wraps list into a bundle, all entries enabled and assigned to
// the given opcode list number (OpcodeList3 if zero).
func BuildBundle(list OpcodeList, listIndex int) *Bundle {
	if listIndex == 0 {
		listIndex = defaultOpcodeList
	}
	b := &Bundle{Format: bundleFormat, Entries: make([]BundleEntry, 0, len(list))}
	for _, op := range list {
		b.Entries = append(b.Entries, BundleEntry{List: listIndex, Enabled: true, Kind: bundleKind(op), Opcode: op})
	}
	return b
}

// Validate ensures the bundle can be turned into an opcode list.
func (b *Bundle) Validate() error {
	if b == nil {
		return errors.New("bundle is nil")
	}
	if b.Format == "" {
		return errors.New("bundle missing format")
	}
	if b.Format != bundleFormat {
		return fmt.Errorf("unsupported bundle format %q", b.Format)
	}
	for i, e := range b.Entries {
		if e.Opcode == nil {
			return fmt.Errorf("bundle entry %d has no opcode", i)
		}
		if err := validateLayout(e.Opcode); err != nil {
			return &OpcodeError{Index: i, ID: kindID(e.Opcode), Err: err}
		}
	}
	return nil
}

// OpcodeList returns the opcodes of list listIndex in order, with byte
// counts recomputed. Zero selects every entry.
func (b *Bundle) OpcodeList(listIndex int) OpcodeList {
	var list OpcodeList
	for _, e := range b.selected(listIndex) {
		e.Opcode.header().ByteCount = PayloadSize(e.Opcode)
		list = append(list, e.Opcode)
	}
	return list
}

// EnabledMask returns the enabled flags matching OpcodeList(listIndex).
func (b *Bundle) EnabledMask(listIndex int) []bool {
	var mask []bool
	for _, e := range b.selected(listIndex) {
		mask = append(mask, e.Enabled)
	}
	return mask
}

func (b *Bundle) selected(listIndex int) []BundleEntry {
	var out []BundleEntry
	for _, e := range b.Entries {
		if listIndex == 0 || e.List == listIndex {
			out = append(out, e)
		}
	}
	return out
}
