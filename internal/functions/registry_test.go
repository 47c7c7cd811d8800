package functions

import (
	"testing"

	"github.com/retl-io/retl/internal/sqltypes"
)

func call(t *testing.T, r *Registry, name string, args ...sqltypes.Value) sqltypes.Value {
	t.Helper()
	spec, ok := r.LookupScalar(name)
	if !ok {
		t.Fatalf("no such scalar %s", name)
	}
	v, err := spec.Handler(&Context{Now: 1700000000}, args)
	if err != nil {
		t.Fatalf("%s(...): %v", name, err)
	}
	return v
}

func TestScalarStringFunctions(t *testing.T) {
	r := NewRegistry()
	if v := call(t, r, "upper", sqltypes.NewString("abc")); v.Str != "ABC" {
		t.Errorf("upper: got %q", v.Str)
	}
	if v := call(t, r, "substr", sqltypes.NewString("hello"), sqltypes.NewInt32(2), sqltypes.NewInt32(3)); v.Str != "ell" {
		t.Errorf("substr(hello,2,3): got %q", v.Str)
	}
	if v := call(t, r, "substr", sqltypes.NewString("hello"), sqltypes.NewInt32(-3)); v.Str != "llo" {
		t.Errorf("substr(hello,-3): got %q", v.Str)
	}
	if v := call(t, r, "concat_ws", sqltypes.NewString(","), sqltypes.NewString("a"), sqltypes.NewString("b")); v.Str != "a,b" {
		t.Errorf("concat_ws: got %q", v.Str)
	}
}

func TestScalarNullHandling(t *testing.T) {
	r := NewRegistry()
	if v := call(t, r, "nvl", sqltypes.Null, sqltypes.NewInt32(5)); v.I32 != 5 {
		t.Errorf("nvl: got %#v", v)
	}
	if v := call(t, r, "coalesce", sqltypes.Null, sqltypes.Null, sqltypes.NewString("z")); v.Str != "z" {
		t.Errorf("coalesce: got %#v", v)
	}
}

func TestScalarSplitPartZero(t *testing.T) {
	r := NewRegistry()
	v := call(t, r, "split_part", sqltypes.NewString("a/b/c"), sqltypes.NewString("/"), sqltypes.NewInt32(0))
	if v.Str != "a/b/c" {
		t.Errorf("split_part(...,0): got %q, want whole string per Open Question 1", v.Str)
	}
}

func TestScalarRound(t *testing.T) {
	r := NewRegistry()
	if v := call(t, r, "round", sqltypes.NewFloat64(2.5)); v.F64 != 2 {
		t.Errorf("round(2.5): got %v, want banker's rounding to 2", v.F64)
	}
	if v := call(t, r, "round", sqltypes.NewFloat64(3.5)); v.F64 != 4 {
		t.Errorf("round(3.5): got %v, want banker's rounding to 4", v.F64)
	}
}

func TestScalarAESRoundTrip(t *testing.T) {
	r := NewRegistry()
	key := sqltypes.NewString("secret-key")
	plain := sqltypes.NewString("hello world")
	enc := call(t, r, "aes_encrypt", plain, key)
	dec := call(t, r, "aes_decrypt", enc, key)
	if string(dec.Bytes) != "hello world" {
		t.Errorf("aes round trip: got %q", string(dec.Bytes))
	}
}

func TestAggregateAvg(t *testing.T) {
	r := NewRegistry()
	spec, ok := r.LookupAgg("avg")
	if !ok {
		t.Fatal("no avg aggregate")
	}
	acc := spec.NewAcc([]sqltypes.DataType{sqltypes.TypeInt64})
	for _, n := range []int64{1, 2, 3} {
		if err := acc.Update([]sqltypes.Value{sqltypes.NewInt64(n)}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	got := acc.Finalize()
	f, ok := got.AsFloat64()
	if !ok || f != 2 {
		t.Errorf("avg(1,2,3): got %#v", got)
	}
}

func TestAggregateCountStar(t *testing.T) {
	r := NewRegistry()
	spec, ok := r.LookupAgg("count")
	if !ok {
		t.Fatal("no count aggregate")
	}
	acc := spec.NewAcc(nil)
	for i := 0; i < 3; i++ {
		if err := acc.Update(nil); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if got := acc.Finalize(); got.I64 != 3 {
		t.Errorf("count(*): got %#v", got)
	}
}

func TestAggregateSumAllNullIsNull(t *testing.T) {
	r := NewRegistry()
	spec, _ := r.LookupAgg("sum")
	acc := spec.NewAcc([]sqltypes.DataType{sqltypes.TypeInt64})
	if err := acc.Update([]sqltypes.Value{sqltypes.Null}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := acc.Finalize(); !got.IsNull() {
		t.Errorf("sum of all-NULL group: got %#v, want NULL", got)
	}
}

func TestAggregateCollectSetAllNullIsEmptyArray(t *testing.T) {
	r := NewRegistry()
	spec, ok := r.LookupAgg("collect_set")
	if !ok {
		t.Fatal("no collect_set aggregate")
	}
	acc := spec.NewAcc([]sqltypes.DataType{sqltypes.TypeString})
	for i := 0; i < 3; i++ {
		if err := acc.Update([]sqltypes.Value{sqltypes.Null}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	got := acc.Finalize()
	if got.IsNull() || got.Kind != sqltypes.Array {
		t.Fatalf("collect_set of all-NULL group: got %#v, want empty array", got)
	}
	if len(got.Arr) != 0 {
		t.Errorf("collect_set of all-NULL group: got %d elements, want 0", len(got.Arr))
	}
}

func TestAggregateCollectList(t *testing.T) {
	r := NewRegistry()
	spec, ok := r.LookupAgg("collect_list")
	if !ok {
		t.Fatal("no collect_list aggregate")
	}
	acc := spec.NewAcc([]sqltypes.DataType{sqltypes.TypeInt32})
	for _, n := range []int32{1, 2, 2} {
		if err := acc.Update([]sqltypes.Value{sqltypes.NewInt32(n)}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	got := acc.Finalize()
	if len(got.Arr) != 3 {
		t.Errorf("collect_list(1,2,2): got %d elements, want 3 (duplicates kept)", len(got.Arr))
	}
}

func TestAggregateMinMaxFirstLast(t *testing.T) {
	r := NewRegistry()
	vals := []sqltypes.Value{sqltypes.NewInt32(5), sqltypes.NewInt32(1), sqltypes.NewInt32(3)}

	minSpec, _ := r.LookupAgg("min")
	minAcc := minSpec.NewAcc([]sqltypes.DataType{sqltypes.TypeInt32})
	for _, v := range vals {
		if err := minAcc.Update([]sqltypes.Value{v}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if got := minAcc.Finalize(); got.I32 != 1 {
		t.Errorf("min(5,1,3): got %#v, want 1", got)
	}

	maxSpec, _ := r.LookupAgg("max")
	maxAcc := maxSpec.NewAcc([]sqltypes.DataType{sqltypes.TypeInt32})
	for _, v := range vals {
		if err := maxAcc.Update([]sqltypes.Value{v}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if got := maxAcc.Finalize(); got.I32 != 5 {
		t.Errorf("max(5,1,3): got %#v, want 5", got)
	}

	firstSpec, _ := r.LookupAgg("first")
	firstAcc := firstSpec.NewAcc([]sqltypes.DataType{sqltypes.TypeInt32})
	for _, v := range vals {
		if err := firstAcc.Update([]sqltypes.Value{v}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if got := firstAcc.Finalize(); got.I32 != 5 {
		t.Errorf("first(5,1,3): got %#v, want 5", got)
	}

	lastSpec, _ := r.LookupAgg("last")
	lastAcc := lastSpec.NewAcc([]sqltypes.DataType{sqltypes.TypeInt32})
	for _, v := range vals {
		if err := lastAcc.Update([]sqltypes.Value{v}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if got := lastAcc.Finalize(); got.I32 != 3 {
		t.Errorf("last(5,1,3): got %#v, want 3", got)
	}
}

func TestScalarRegexpReplaceAndExtract(t *testing.T) {
	r := NewRegistry()
	v := call(t, r, "regexp_replace", sqltypes.NewString("hello world"), sqltypes.NewString("o"), sqltypes.NewString("0"))
	if v.Str != "hell0 w0rld" {
		t.Errorf("regexp_replace: got %q", v.Str)
	}
	e := call(t, r, "regexp_extract", sqltypes.NewString("abc123def"), sqltypes.NewString(`(\d+)`), sqltypes.NewInt32(1))
	if e.Str != "123" {
		t.Errorf("regexp_extract: got %q", e.Str)
	}
}

func TestScalarToUnixTimestampAndTimestamp(t *testing.T) {
	r := NewRegistry()
	ts := call(t, r, "timestamp", sqltypes.NewString("2024-01-01T00:00:00Z"))
	if ts.IsNull() || ts.Kind != sqltypes.Timestamp {
		t.Fatalf("timestamp('2024-01-01T00:00:00Z'): got %#v", ts)
	}
	back := call(t, r, "to_unix_timestamp", ts)
	if back.IsNull() || back.I64 != 1704067200 {
		t.Errorf("to_unix_timestamp(timestamp(...)): got %#v, want 1704067200", back)
	}
}

func TestScalarUnixTimestampZeroArgUsesNow(t *testing.T) {
	r := NewRegistry()
	spec, ok := r.LookupScalar("unix_timestamp")
	if !ok {
		t.Fatal("no unix_timestamp scalar")
	}
	v, err := spec.Handler(&Context{Now: 1700000000}, nil)
	if err != nil {
		t.Fatalf("unix_timestamp(): %v", err)
	}
	if v.I64 != 1700000000 {
		t.Errorf("unix_timestamp(): got %#v, want 1700000000", v)
	}
}

func TestScalarBinSignedAndUnsigned(t *testing.T) {
	r := NewRegistry()
	if v := call(t, r, "bin", sqltypes.NewInt64(5)); v.Str != "101" {
		t.Errorf("bin(5): got %q", v.Str)
	}
	if v := call(t, r, "bin", sqltypes.NewInt64(-5), sqltypes.NewBool(true)); v.Str != "-101" {
		t.Errorf("bin(-5, signed): got %q", v.Str)
	}
}

func TestScalarFromJSONAndEncodeJSON(t *testing.T) {
	r := NewRegistry()
	v := call(t, r, "from_json", sqltypes.NewString(`{"n":7,"s":"x"}`), sqltypes.NewString("struct<n:int,s:string>"))
	if v.IsNull() || v.Kind != sqltypes.Struct {
		t.Fatalf("from_json: got %#v", v)
	}
	if v.Struct["n"].I32 != 7 || v.Struct["s"].Str != "x" {
		t.Errorf("from_json fields: got %#v", v.Struct)
	}

	encoded := call(t, r, "encode_json", v)
	if encoded.IsNull() || encoded.Str == "" {
		t.Errorf("encode_json: got %#v", encoded)
	}
}
