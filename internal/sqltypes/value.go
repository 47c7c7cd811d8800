package sqltypes

import (
	"fmt"
	"hash/maphash"
	"sort"
)

// Bool3 is boolean value under three-valued logic (spec.md §4.4):
// True, False, or Unknown (NULL).
type Bool3 int

const (
	Unknown Bool3 = iota
	True
	False
)

// FromBool lifts a Go bool into three-valued logic.
func FromBool(b bool) Bool3 {
	if b {
		return True
	}
	return False
}

// And implements three-valued AND.
func (b Bool3) And(o Bool3) Bool3 {
	if b == False || o == False {
		return False
	}
	if b == Unknown || o == Unknown {
		return Unknown
	}
	return True
}

// Or implements three-valued OR.
func (b Bool3) Or(o Bool3) Bool3 {
	if b == True || o == True {
		return True
	}
	if b == Unknown || o == Unknown {
		return Unknown
	}
	return False
}

// Not implements three-valued NOT.
func (b Bool3) Not() Bool3 {
	switch b {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

// Value is the tagged variant aligned with DataType, plus Null
// (spec.md §3). Only the field matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Bool   bool
	I32    int32
	I64    int64
	F32    float32
	F64    float64
	Dec    float64 // Decimal is carried as float64 with Type.Precision/Scale for display
	Str    string
	Bytes  []byte
	TS     int64 // since-epoch count at the DataType's Unit
	Arr    []Value
	Struct map[string]Value
	Fields []string // Struct field order, parallel lookup key for Struct
}

// Null is the Null value (the zero Kind is Null).
var Null = Value{}

// IsNull reports whether v is the NULL value.
func (v Value) IsNull() bool { return v.Kind == NullKind }

// NewBool, NewInt32, ... construct tagged Values.
func NewBool(b bool) Value        { return Value{Kind: Boolean, Bool: b} }
func NewInt32(i int32) Value      { return Value{Kind: Int32, I32: i} }
func NewInt64(i int64) Value      { return Value{Kind: Int64, I64: i} }
func NewFloat32(f float32) Value  { return Value{Kind: Float32, F32: f} }
func NewFloat64(f float64) Value  { return Value{Kind: Float64, F64: f} }
func NewDecimal(f float64) Value  { return Value{Kind: Decimal, Dec: f} }
func NewString(s string) Value    { return Value{Kind: String, Str: s} }
func NewBytes(b []byte) Value     { return Value{Kind: Bytes, Bytes: b} }
func NewTimestamp(ts int64) Value { return Value{Kind: Timestamp, TS: ts} }
func NewArray(vs []Value) Value   { return Value{Kind: Array, Arr: vs} }

// NewStruct builds a Struct value from ordered (name, value) fields.
func NewStruct(names []string, values []Value) Value {
	m := make(map[string]Value, len(names))
	for i, n := range names {
		m[n] = values[i]
	}
	return Value{Kind: Struct, Struct: m, Fields: append([]string(nil), names...)}
}

// AsFloat64 coerces any numeric Value to float64; ok is false for
// non-numeric or NULL values.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case Int32:
		return float64(v.I32), true
	case Int64:
		return float64(v.I64), true
	case Float32:
		return float64(v.F32), true
	case Float64:
		return v.F64, true
	case Decimal:
		return v.Dec, true
	default:
		return 0, false
	}
}

// AsInt64 coerces any numeric Value to int64, truncating floats
// toward zero; ok is false for non-numeric or NULL values.
func (v Value) AsInt64() (int64, bool) {
	switch v.Kind {
	case Int32:
		return int64(v.I32), true
	case Int64:
		return v.I64, true
	case Float32:
		return int64(v.F32), true
	case Float64:
		return int64(v.F64), true
	case Decimal:
		return int64(v.Dec), true
	default:
		return 0, false
	}
}

// String renders v the way cast(e as string) does (spec.md §4.5:
// "*→String uses canonical printed form").
func (v Value) String() string {
	switch v.Kind {
	case NullKind:
		return ""
	case Boolean:
		return fmt.Sprintf("%v", v.Bool)
	case Int32:
		return fmt.Sprintf("%d", v.I32)
	case Int64:
		return fmt.Sprintf("%d", v.I64)
	case Float32:
		return trimFloat(float64(v.F32))
	case Float64, Decimal:
		f := v.F64
		if v.Kind == Decimal {
			f = v.Dec
		}
		return trimFloat(f)
	case String:
		return v.Str
	case Bytes:
		return string(v.Bytes)
	case Timestamp:
		return fmt.Sprintf("%d", v.TS)
	case Array:
		s := "["
		for i, e := range v.Arr {
			if i > 0 {
				s += ","
			}
			s += e.String()
		}
		return s + "]"
	case Struct:
		s := "{"
		for i, name := range v.Fields {
			if i > 0 {
				s += ","
			}
			s += name + ":" + v.Struct[name].String()
		}
		return s + "}"
	default:
		return ""
	}
}

func trimFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}

// Equal reports whether two non-NULL values are equal: NULL never
// equals anything, including another NULL, under this method. The
// evaluator's "<=>" settles the NULL cases itself before calling it;
// group keys compare by HashKey instead.
func (v Value) Equal(o Value) bool {
	if v.IsNull() || o.IsNull() {
		return false
	}
	if v.Kind != o.Kind && v.isNumeric() && o.isNumeric() {
		af, _ := v.AsFloat64()
		bf, _ := o.AsFloat64()
		return af == bf
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Boolean:
		return v.Bool == o.Bool
	case Int32:
		return v.I32 == o.I32
	case Int64:
		return v.I64 == o.I64
	case Float32:
		return v.F32 == o.F32
	case Float64:
		return v.F64 == o.F64
	case Decimal:
		return v.Dec == o.Dec
	case String:
		return v.Str == o.Str
	case Bytes:
		return string(v.Bytes) == string(o.Bytes)
	case Timestamp:
		return v.TS == o.TS
	default:
		return v.String() == o.String()
	}
}

func (v Value) isNumeric() bool {
	switch v.Kind {
	case Int32, Int64, Float32, Float64, Decimal:
		return true
	}
	return false
}

// HashKey produces a stable hash of v for use as (part of) an
// aggregation group key: NULL hashes to a fixed sentinel so NULLs
// compare equal within keys (spec.md §4.4).
func (v Value) HashKey(seed maphash.Seed) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	if v.IsNull() {
		h.WriteByte(0xFF)
		return h.Sum64()
	}
	h.WriteByte(byte(v.Kind))
	h.WriteString(v.String())
	return h.Sum64()
}

// SortedArrayKeys returns a deterministic ordering key for building a
// distinct-preserving collect_set, keyed by HashKey's string basis
// (the accumulator itself preserves first-seen order; this helper is
// only used where a stable secondary sort is needed, e.g. tests).
func SortedArrayKeys(vs []Value) []string {
	keys := make([]string, len(vs))
	for i, v := range vs {
		keys[i] = v.String()
	}
	sort.Strings(keys)
	return keys
}
