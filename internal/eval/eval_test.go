package eval

import (
	"regexp"
	"testing"

	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/plan"
	"github.com/retl-io/retl/internal/sqltypes"
)

func mustRow(t *testing.T, expr plan.Expr, row []sqltypes.Value, fctx *functions.Context) sqltypes.Value {
	t.Helper()
	v, err := Row(expr, row, fctx)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	return v
}

func TestEvalCase(t *testing.T) {
	fctx := &functions.Context{Now: 1700000000}
	col := &plan.ColumnRef{Index: 0, Typ: sqltypes.TypeInt32}
	expr := &plan.Case{
		Whens: []plan.WhenClause{
			{
				Cond: &plan.Binary{Op: "=", Left: col, Right: &plan.Literal{Value: sqltypes.NewInt32(1)}},
				Then: &plan.Literal{Value: sqltypes.NewString("one")},
			},
			{
				Cond: &plan.Binary{Op: "=", Left: col, Right: &plan.Literal{Value: sqltypes.NewInt32(2)}},
				Then: &plan.Literal{Value: sqltypes.NewString("two")},
			},
		},
		Else: &plan.Literal{Value: sqltypes.NewString("other")},
		Typ:  sqltypes.TypeString,
	}
	if v := mustRow(t, expr, []sqltypes.Value{sqltypes.NewInt32(2)}, fctx); v.Str != "two" {
		t.Errorf("case 2: got %q", v.Str)
	}
	if v := mustRow(t, expr, []sqltypes.Value{sqltypes.NewInt32(9)}, fctx); v.Str != "other" {
		t.Errorf("case else: got %q", v.Str)
	}
	if v := mustRow(t, expr, []sqltypes.Value{sqltypes.Null}, fctx); v.Str != "other" {
		t.Errorf("case on NULL operand falls to else: got %q", v.Str)
	}
}

func TestEvalCastStringToNumeric(t *testing.T) {
	fctx := &functions.Context{}
	cast := &plan.Cast{Operand: &plan.Literal{Value: sqltypes.NewString("42")}, Typ: sqltypes.TypeInt64}
	v := mustRow(t, cast, nil, fctx)
	if v.IsNull() || v.I64 != 42 {
		t.Errorf("cast '42' as bigint: got %#v, want 42", v)
	}

	castFloat := &plan.Cast{Operand: &plan.Literal{Value: sqltypes.NewString("3.5")}, Typ: sqltypes.TypeFloat64}
	vf := mustRow(t, castFloat, nil, fctx)
	if vf.IsNull() || vf.F64 != 3.5 {
		t.Errorf("cast '3.5' as double: got %#v, want 3.5", vf)
	}

	castBad := &plan.Cast{Operand: &plan.Literal{Value: sqltypes.NewString("not a number")}, Typ: sqltypes.TypeInt32}
	vb := mustRow(t, castBad, nil, fctx)
	if !vb.IsNull() {
		t.Errorf("cast non-numeric string as int: got %#v, want NULL", vb)
	}
}

func TestEvalIn(t *testing.T) {
	fctx := &functions.Context{}
	expr := &plan.In{
		Operand: &plan.Literal{Value: sqltypes.NewInt32(2)},
		List: []plan.Expr{
			&plan.Literal{Value: sqltypes.NewInt32(1)},
			&plan.Literal{Value: sqltypes.NewInt32(2)},
			&plan.Literal{Value: sqltypes.NewInt32(3)},
		},
	}
	if v := mustRow(t, expr, nil, fctx); v.IsNull() || !v.Bool {
		t.Errorf("2 in (1,2,3): got %#v, want true", v)
	}

	notIn := &plan.In{
		Operand: &plan.Literal{Value: sqltypes.NewInt32(9)},
		List: []plan.Expr{
			&plan.Literal{Value: sqltypes.NewInt32(1)},
			&plan.Literal{Value: sqltypes.Null},
		},
	}
	if v := mustRow(t, notIn, nil, fctx); !v.IsNull() {
		t.Errorf("9 in (1,NULL): got %#v, want NULL (no match, but NULL present)", v)
	}
}

func TestEvalBetween(t *testing.T) {
	fctx := &functions.Context{}
	expr := &plan.Between{
		Operand: &plan.Literal{Value: sqltypes.NewInt32(5)},
		Low:     &plan.Literal{Value: sqltypes.NewInt32(1)},
		High:    &plan.Literal{Value: sqltypes.NewInt32(10)},
	}
	if v := mustRow(t, expr, nil, fctx); v.IsNull() || !v.Bool {
		t.Errorf("5 between 1 and 10: got %#v, want true", v)
	}

	notBetween := &plan.Between{
		Operand: &plan.Literal{Value: sqltypes.NewInt32(15)},
		Low:     &plan.Literal{Value: sqltypes.NewInt32(1)},
		High:    &plan.Literal{Value: sqltypes.NewInt32(10)},
		Not:     true,
	}
	if v := mustRow(t, notBetween, nil, fctx); v.IsNull() || !v.Bool {
		t.Errorf("15 not between 1 and 10: got %#v, want true", v)
	}
}

func TestEvalLikeAndRlike(t *testing.T) {
	fctx := &functions.Context{}
	like := &plan.Like{
		Operand: &plan.Literal{Value: sqltypes.NewString("hello world")},
		Pattern: &plan.Literal{Value: sqltypes.NewString("hello%")},
	}
	if v := mustRow(t, like, nil, fctx); v.IsNull() || !v.Bool {
		t.Errorf("'hello world' like 'hello%%': got %#v, want true", v)
	}

	re := regexp.MustCompile(`^\d+$`)
	rlike := &plan.Regexp{
		Operand:  &plan.Literal{Value: sqltypes.NewString("12345")},
		Compiled: re,
	}
	if v := mustRow(t, rlike, nil, fctx); v.IsNull() || !v.Bool {
		t.Errorf("'12345' rlike '^\\d+$': got %#v, want true", v)
	}

	rlikeNoMatch := &plan.Regexp{
		Operand:  &plan.Literal{Value: sqltypes.NewString("abc")},
		Compiled: re,
		Not:      true,
	}
	if v := mustRow(t, rlikeNoMatch, nil, fctx); v.IsNull() || !v.Bool {
		t.Errorf("'abc' not rlike '^\\d+$': got %#v, want true", v)
	}
}

func TestEvalFuncCallJSONFunctions(t *testing.T) {
	r := functions.NewRegistry()
	fctx := &functions.Context{}

	fromJSON, ok := r.LookupScalar("from_json")
	if !ok {
		t.Fatal("no from_json scalar")
	}
	call := &plan.FuncCall{
		Name: "from_json",
		Args: []plan.Expr{
			&plan.Literal{Value: sqltypes.NewString(`{"a":1,"b":"x"}`)},
			&plan.Literal{Value: sqltypes.NewString("struct<a:int,b:string>")},
		},
		Handler: fromJSON.Handler,
		Typ:     sqltypes.TypeNull,
	}
	v := mustRow(t, call, nil, fctx)
	if v.IsNull() || v.Kind != sqltypes.Struct {
		t.Fatalf("from_json: got %#v, want struct", v)
	}
	if v.Struct["a"].I32 != 1 || v.Struct["b"].Str != "x" {
		t.Errorf("from_json fields: got %#v", v.Struct)
	}

	encodeJSON, ok := r.LookupScalar("encode_json")
	if !ok {
		t.Fatal("no encode_json scalar")
	}
	roundTrip := &plan.FuncCall{
		Name:    "encode_json",
		Args:    []plan.Expr{&plan.Literal{Value: v}},
		Handler: encodeJSON.Handler,
		Typ:     sqltypes.TypeString,
	}
	out := mustRow(t, roundTrip, nil, fctx)
	if out.IsNull() || out.Str == "" {
		t.Errorf("encode_json: got %#v", out)
	}
}

func TestEvalFuncCallDateTimeFunctions(t *testing.T) {
	r := functions.NewRegistry()
	fctx := &functions.Context{Now: 1700000000}

	uts, ok := r.LookupScalar("unix_timestamp")
	if !ok {
		t.Fatal("no unix_timestamp scalar")
	}
	zeroArg := &plan.FuncCall{Name: "unix_timestamp", Args: nil, Handler: uts.Handler, Typ: sqltypes.TypeInt64}
	v := mustRow(t, zeroArg, nil, fctx)
	if v.IsNull() || v.I64 != 1700000000 {
		t.Errorf("unix_timestamp(): got %#v, want 1700000000", v)
	}

	dateFloor, ok := r.LookupScalar("date_floor")
	if !ok {
		t.Fatal("no date_floor scalar")
	}
	call := &plan.FuncCall{
		Name: "date_floor",
		Args: []plan.Expr{
			&plan.Literal{Value: sqltypes.NewTimestamp(90_000_000)}, // 90 seconds in micros
			&plan.Literal{Value: sqltypes.NewString("1 minute")},
		},
		Handler: dateFloor.Handler,
		Typ:     sqltypes.TypeTimestamp,
	}
	floored := mustRow(t, call, nil, fctx)
	if floored.IsNull() || floored.TS != 60_000_000 {
		t.Errorf("date_floor(90s, 1 minute): got %#v, want 60_000_000", floored)
	}
}

func TestEvalFuncCallBin(t *testing.T) {
	r := functions.NewRegistry()
	fctx := &functions.Context{}
	bin, ok := r.LookupScalar("bin")
	if !ok {
		t.Fatal("no bin scalar")
	}
	call := &plan.FuncCall{
		Name:    "bin",
		Args:    []plan.Expr{&plan.Literal{Value: sqltypes.NewInt64(13)}},
		Handler: bin.Handler,
		Typ:     sqltypes.TypeString,
	}
	v := mustRow(t, call, nil, fctx)
	if v.Str != "1101" {
		t.Errorf("bin(13): got %q, want 1101", v.Str)
	}
}
