package sqltypes

import (
	"github.com/retl-io/retl/ast"
	"github.com/retl-io/retl/internal/errs"
)

// FromASTNode converts a parsed data-type node (as produced by
// parser.ParseDataType / parser.ParseSchemaString) into the engine's
// DataType. Shared by CAST target-type binding and schema-string
// resolution, so the two stay in lockstep.
func FromASTNode(n *ast.DataTypeNode) (DataType, error) {
	switch n.Kind {
	case ast.TypeBoolean:
		return TypeBoolean, nil
	case ast.TypeInt32:
		return TypeInt32, nil
	case ast.TypeInt64:
		return TypeInt64, nil
	case ast.TypeFloat32:
		return TypeFloat32, nil
	case ast.TypeFloat64:
		return TypeFloat64, nil
	case ast.TypeDecimal:
		return DataType{Kind: Decimal, Precision: n.Precision, Scale: n.Scale, Nullable: true}, nil
	case ast.TypeString:
		return TypeString, nil
	case ast.TypeBytes:
		return TypeBytes, nil
	case ast.TypeTimestamp:
		unit := Micros
		switch n.Unit {
		case "sec":
			unit = Seconds
		case "milli":
			unit = Millis
		case "nano":
			unit = Nanos
		}
		return DataType{Kind: Timestamp, Unit: unit, Nullable: true}, nil
	case ast.TypeArray:
		elem, err := FromASTNode(n.Elem)
		if err != nil {
			return DataType{}, err
		}
		return ArrayOf(elem), nil
	case ast.TypeStruct:
		fields := make([]Field, len(n.Fields))
		for i, f := range n.Fields {
			ft, err := FromASTNode(f.Type)
			if err != nil {
				return DataType{}, err
			}
			fields[i] = Field{Name: f.Name, Type: ft}
		}
		return StructOf(fields...), nil
	default:
		return TypeNull, errs.NewBindError(errs.InvalidSchemaString, "unsupported data type")
	}
}
