package codec

import (
	"fmt"

	"github.com/retl-io/retl/internal/sqltypes"
)

// toNative converts a Value to the nearest native Go representation
// used by the generic-interface codecs (JSON, msgpack, protobuf's
// structpb path): numbers as int32/int64/float32/float64 by their
// kind, strings as string, bytes
// as []byte, arrays/structs as []interface{}/map[string]interface{}.
func toNative(v sqltypes.Value) interface{} {
	switch v.Kind {
	case sqltypes.NullKind:
		return nil
	case sqltypes.Boolean:
		return v.Bool
	case sqltypes.Int32:
		return v.I32
	case sqltypes.Int64:
		return v.I64
	case sqltypes.Float32:
		return v.F32
	case sqltypes.Float64:
		return v.F64
	case sqltypes.Decimal:
		return v.Dec
	case sqltypes.String:
		return v.Str
	case sqltypes.Bytes:
		return v.Bytes
	case sqltypes.Timestamp:
		return v.TS
	case sqltypes.Array:
		out := make([]interface{}, len(v.Arr))
		for i, e := range v.Arr {
			out[i] = toNative(e)
		}
		return out
	case sqltypes.Struct:
		out := make(map[string]interface{}, len(v.Fields))
		for _, name := range v.Fields {
			out[name] = toNative(v.Struct[name])
		}
		return out
	default:
		return nil
	}
}

// fromNative converts a decoded native Go value back into a Value
// typed according to typ, the way from_json/cast coerce untyped
// decoded input onto a known schema column.
func fromNative(raw interface{}, typ sqltypes.DataType) (sqltypes.Value, error) {
	if raw == nil {
		return sqltypes.Null, nil
	}
	switch typ.Kind {
	case sqltypes.Boolean:
		b, ok := raw.(bool)
		if !ok {
			return sqltypes.Null, fmt.Errorf("codec: expected bool, got %T", raw)
		}
		return sqltypes.NewBool(b), nil
	case sqltypes.Int32:
		n, err := toInt64(raw)
		if err != nil {
			return sqltypes.Null, err
		}
		return sqltypes.NewInt32(int32(n)), nil
	case sqltypes.Int64:
		n, err := toInt64(raw)
		if err != nil {
			return sqltypes.Null, err
		}
		return sqltypes.NewInt64(n), nil
	case sqltypes.Float32:
		f, err := toFloat64(raw)
		if err != nil {
			return sqltypes.Null, err
		}
		return sqltypes.NewFloat32(float32(f)), nil
	case sqltypes.Float64:
		f, err := toFloat64(raw)
		if err != nil {
			return sqltypes.Null, err
		}
		return sqltypes.NewFloat64(f), nil
	case sqltypes.Decimal:
		f, err := toFloat64(raw)
		if err != nil {
			return sqltypes.Null, err
		}
		return sqltypes.NewDecimal(f), nil
	case sqltypes.String:
		return sqltypes.NewString(fmt.Sprintf("%v", raw)), nil
	case sqltypes.Bytes:
		switch b := raw.(type) {
		case []byte:
			return sqltypes.NewBytes(b), nil
		case string:
			return sqltypes.NewBytes([]byte(b)), nil
		default:
			return sqltypes.Null, fmt.Errorf("codec: expected bytes, got %T", raw)
		}
	case sqltypes.Timestamp:
		n, err := toInt64(raw)
		if err != nil {
			return sqltypes.Null, err
		}
		return sqltypes.NewTimestamp(n), nil
	case sqltypes.Array:
		elems, ok := raw.([]interface{})
		if !ok {
			return sqltypes.Null, fmt.Errorf("codec: expected array, got %T", raw)
		}
		vals := make([]sqltypes.Value, len(elems))
		for i, e := range elems {
			ev, err := fromNative(e, *typ.Elem)
			if err != nil {
				return sqltypes.Null, err
			}
			vals[i] = ev
		}
		return sqltypes.NewArray(vals), nil
	case sqltypes.Struct:
		m, ok := raw.(map[string]interface{})
		if !ok {
			return sqltypes.Null, fmt.Errorf("codec: expected struct, got %T", raw)
		}
		names := make([]string, len(typ.Fields))
		vals := make([]sqltypes.Value, len(typ.Fields))
		for i, f := range typ.Fields {
			fv, err := fromNative(m[f.Name], f.Type)
			if err != nil {
				return sqltypes.Null, err
			}
			names[i] = f.Name
			vals[i] = fv
		}
		return sqltypes.NewStruct(names, vals), nil
	default:
		return sqltypes.Null, fmt.Errorf("codec: unsupported target type %s", typ)
	}
}

// ValueFromYAML converts a value decoded by gopkg.in/yaml.v2 (whose
// untyped maps come back as map[interface{}]interface{}, unlike
// encoding/json's map[string]interface{}) into a Value typed
// according to typ. Used by the scheduler to type literal "inline"
// source rows configured directly in pipeline YAML.
func ValueFromYAML(raw interface{}, typ sqltypes.DataType) (sqltypes.Value, error) {
	return fromNative(normalizeYAML(raw), typ)
}

func normalizeYAML(raw interface{}) interface{} {
	switch v := raw.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[fmt.Sprintf("%v", key)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = normalizeYAML(e)
		}
		return out
	default:
		return v
	}
}

func toInt64(raw interface{}) (int64, error) {
	switch n := raw.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("codec: expected number, got %T", raw)
	}
}

func toFloat64(raw interface{}) (float64, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("codec: expected number, got %T", raw)
	}
}
