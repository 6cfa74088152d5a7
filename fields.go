package dngopcodes

import (
	"fmt"
	"strconv"
)

// FieldType is the storage type of an opcode parameter.
type FieldType int

const (
	FieldUint32 FieldType = iota
	FieldFloat32
	FieldFloat64
)

func (t FieldType) String() string {
	switch t {
	case FieldUint32:
		return "uint32"
	case FieldFloat32:
		return "float32"
	case FieldFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

// Field is an editable opcode parameter bound to the opcode it came from.
// Array parameters are listed element by element with Name "name[i]".
type Field struct {
	Name string
	Type FieldType
	// Index is the element index for array parameters and -1 otherwise.
	Index int

	u32 *uint32
	f32 *float32
	f64 *float64
}

func u32Field(name string, p *uint32) Field {
	return Field{Name: name, Type: FieldUint32, Index: -1, u32: p}
}

func f64Field(name string, p *float64) Field {
	return Field{Name: name, Type: FieldFloat64, Index: -1, f64: p}
}

func f32Elem(name string, i int, p *float32) Field {
	return Field{Name: fmt.Sprintf("%s[%d]", name, i), Type: FieldFloat32, Index: i, f32: p}
}

func f64Elem(name string, i int, p *float64) Field {
	return Field{Name: fmt.Sprintf("%s[%d]", name, i), Type: FieldFloat64, Index: i, f64: p}
}

// Float returns the current value as float64.
func (f Field) Float() float64 {
	switch f.Type {
	case FieldUint32:
		return float64(*f.u32)
	case FieldFloat32:
		return float64(*f.f32)
	default:
		return *f.f64
	}
}

// String formats the current value.
func (f Field) String() string {
	switch f.Type {
	case FieldUint32:
		return strconv.FormatUint(uint64(*f.u32), 10)
	case FieldFloat32:
		return strconv.FormatFloat(float64(*f.f32), 'g', -1, 32)
	default:
		return strconv.FormatFloat(*f.f64, 'g', -1, 64)
	}
}

// Set parses s according to the field type and stores it into the opcode.
func (f Field) Set(s string) error {
	switch f.Type {
	case FieldUint32:
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return fmt.Errorf("set %s: %w", f.Name, err)
		}
		*f.u32 = uint32(v)
	case FieldFloat32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fmt.Errorf("set %s: %w", f.Name, err)
		}
		*f.f32 = float32(v)
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("set %s: %w", f.Name, err)
		}
		*f.f64 = v
	}
	return nil
}

// Fields lists planes, coefficients[i], cx and cy.
func (o *WarpRectilinear) Fields() []Field {
	fields := make([]Field, 0, 3+len(o.Coefficients))
	fields = append(fields, u32Field("planes", &o.Planes))
	for i := range o.Coefficients {
		fields = append(fields, f64Elem("coefficients", i, &o.Coefficients[i]))
	}
	return append(fields, f64Field("cx", &o.CenterX), f64Field("cy", &o.CenterY))
}

// Fields lists k0..k4, cx and cy.
func (o *FixVignetteRadial) Fields() []Field {
	return []Field{
		f64Field("k0", &o.K0),
		f64Field("k1", &o.K1),
		f64Field("k2", &o.K2),
		f64Field("k3", &o.K3),
		f64Field("k4", &o.K4),
		f64Field("cx", &o.CenterX),
		f64Field("cy", &o.CenterY),
	}
}

func (o *TrimBounds) Fields() []Field {
	return []Field{
		u32Field("top", &o.Top),
		u32Field("left", &o.Left),
		u32Field("bottom", &o.Bottom),
		u32Field("right", &o.Right),
	}
}

func (o *GainMap) Fields() []Field {
	fields := []Field{
		u32Field("top", &o.Top),
		u32Field("left", &o.Left),
		u32Field("bottom", &o.Bottom),
		u32Field("right", &o.Right),
		u32Field("plane", &o.Plane),
		u32Field("planes", &o.Planes),
		u32Field("rowPitch", &o.RowPitch),
		u32Field("colPitch", &o.ColPitch),
		u32Field("mapPointsV", &o.MapPointsV),
		u32Field("mapPointsH", &o.MapPointsH),
		f64Field("mapSpacingV", &o.MapSpacingV),
		f64Field("mapSpacingH", &o.MapSpacingH),
		f64Field("mapOriginV", &o.MapOriginV),
		f64Field("mapOriginH", &o.MapOriginH),
		u32Field("mapPlanes", &o.MapPlanes),
	}
	for i := range o.MapGains {
		fields = append(fields, f32Elem("mapGains", i, &o.MapGains[i]))
	}
	return fields
}

// Fields is empty: an unknown payload has no known layout.
func (o *Unknown) Fields() []Field { return nil }

// SetField assigns value to the parameter called name.
func SetField(op Opcode, name, value string) error {
	for _, f := range op.Fields() {
		if f.Name == name {
			return f.Set(value)
		}
	}
	return fmt.Errorf("%s has no field %q", op.Header().ID, name)
}
