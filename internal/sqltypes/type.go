// Package sqltypes is the row-batch data model shared by every stage
// of the engine: DataType, Value, Schema, and RowBatch (spec.md §3).
package sqltypes

import "fmt"

// Kind identifies the tagged variant of a DataType.
type Kind int

const (
	NullKind Kind = iota
	Boolean
	Int32
	Int64
	Float32
	Float64
	Decimal
	String
	Bytes
	Timestamp
	Array
	Struct
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case Boolean:
		return "boolean"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Decimal:
		return "decimal"
	case String:
		return "string"
	case Bytes:
		return "bytes"
	case Timestamp:
		return "timestamp"
	case Array:
		return "array"
	case Struct:
		return "struct"
	default:
		return "unknown"
	}
}

// TimeUnit is the resolution a Timestamp counts since the Unix epoch.
type TimeUnit int

const (
	Seconds TimeUnit = iota
	Millis
	Micros
	Nanos
)

// Field is one named member of a Struct DataType.
type Field struct {
	Name string
	Type DataType
}

// DataType is the tagged variant over the engine's value types
// (spec.md §3). Every DataType carries a nullability flag; the zero
// value (Nullable: false) is used for synthesized non-null
// intermediates such as group keys.
type DataType struct {
	Kind      Kind
	Precision int // Decimal(p, s)
	Scale     int // Decimal(p, s)
	Unit      TimeUnit
	Elem      *DataType // Array element type
	Fields    []Field   // Struct fields, in order
	Nullable  bool
}

func (t DataType) String() string {
	switch t.Kind {
	case Decimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case Array:
		return fmt.Sprintf("array<%s>", t.Elem.String())
	case Struct:
		s := "struct<"
		for i, f := range t.Fields {
			if i > 0 {
				s += ","
			}
			s += f.Name + ":" + f.Type.String()
		}
		return s + ">"
	default:
		return t.Kind.String()
	}
}

// IsNumeric reports whether t is one of the fixed- or
// floating-point numeric kinds.
func (t DataType) IsNumeric() bool {
	switch t.Kind {
	case Int32, Int64, Float32, Float64, Decimal:
		return true
	}
	return false
}

// IsInteger reports whether t is a fixed-width integer kind.
func (t DataType) IsInteger() bool {
	return t.Kind == Int32 || t.Kind == Int64
}

// IsFloat reports whether t is a floating-point kind.
func (t DataType) IsFloat() bool {
	return t.Kind == Float32 || t.Kind == Float64
}

// numericRank orders numeric kinds from narrowest to widest for
// promotion in arithmetic (spec.md §4.3 "promote to common type").
func numericRank(k Kind) int {
	switch k {
	case Int32:
		return 0
	case Int64:
		return 1
	case Float32:
		return 2
	case Float64:
		return 3
	case Decimal:
		return 4
	default:
		return -1
	}
}

// WidestNumeric returns the common numeric type two operands promote
// to for arithmetic (spec.md §4.2, §4.3).
func WidestNumeric(a, b DataType) DataType {
	ra, rb := numericRank(a.Kind), numericRank(b.Kind)
	if ra < 0 {
		return b
	}
	if rb < 0 {
		return a
	}
	if ra >= rb {
		return a
	}
	return b
}

var (
	TypeNull      = DataType{Kind: NullKind, Nullable: true}
	TypeBoolean   = DataType{Kind: Boolean, Nullable: true}
	TypeInt32     = DataType{Kind: Int32, Nullable: true}
	TypeInt64     = DataType{Kind: Int64, Nullable: true}
	TypeFloat32   = DataType{Kind: Float32, Nullable: true}
	TypeFloat64   = DataType{Kind: Float64, Nullable: true}
	TypeString    = DataType{Kind: String, Nullable: true}
	TypeBytes     = DataType{Kind: Bytes, Nullable: true}
	TypeTimestamp = DataType{Kind: Timestamp, Unit: Micros, Nullable: true}
)

// ArrayOf builds an Array(elem) DataType.
func ArrayOf(elem DataType) DataType {
	e := elem
	return DataType{Kind: Array, Elem: &e, Nullable: true}
}

// StructOf builds a Struct(fields) DataType.
func StructOf(fields ...Field) DataType {
	return DataType{Kind: Struct, Fields: fields, Nullable: true}
}
