// Package eval is the vectorized expression evaluator (spec.md §4.3):
// it walks a bound plan.Expr tree row by row, implementing
// three-valued boolean logic, numeric promotion, and the null-
// tolerant EvalError→NULL policy from spec.md §7.
package eval

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/retl-io/retl/internal/errs"
	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/plan"
	"github.com/retl-io/retl/internal/sqltypes"
)

// Row evaluates expr against row, using fctx for function invocation
// state (current now(), etc). An *errs.EvalError is swallowed into
// NULL at the point it's raised; any other error is fatal and
// propagates to the caller (spec.md §7 RuntimeError).
func Row(expr plan.Expr, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	v, err := eval(expr, row, fctx)
	if err != nil {
		if _, ok := err.(*errs.EvalError); ok {
			return sqltypes.Null, nil
		}
		return sqltypes.Null, err
	}
	return v, nil
}

func eval(expr plan.Expr, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	switch e := expr.(type) {
	case *plan.ColumnRef:
		return row[e.Index], nil
	case *plan.Literal:
		return e.Value, nil
	case *plan.Unary:
		return evalUnary(e, row, fctx)
	case *plan.Binary:
		return evalBinary(e, row, fctx)
	case *plan.Cast:
		v, err := evalCast(e, row, fctx)
		if _, ok := err.(*errs.EvalError); ok {
			return sqltypes.Null, nil
		}
		return v, err
	case *plan.Case:
		return evalCase(e, row, fctx)
	case *plan.FuncCall:
		v, err := evalFuncCall(e, row, fctx)
		if _, ok := err.(*errs.EvalError); ok {
			return sqltypes.Null, nil
		}
		return v, err
	case *plan.Like:
		return evalLike(e, row, fctx)
	case *plan.Regexp:
		return evalRegexp(e, row, fctx)
	case *plan.Between:
		return evalBetween(e, row, fctx)
	case *plan.In:
		return evalIn(e, row, fctx)
	case *plan.IsNullExpr:
		return evalIsNull(e, row, fctx)
	case *plan.Subscript:
		return evalSubscript(e, row, fctx)
	case *plan.FieldAccess:
		return evalFieldAccess(e, row, fctx)
	case *plan.AggRef:
		return row[e.Index], nil
	default:
		return sqltypes.Null, errs.NewRuntimeError("eval: unhandled expr node %T", expr)
	}
}

func boolOf(v sqltypes.Value) sqltypes.Bool3 {
	if v.IsNull() {
		return sqltypes.Unknown
	}
	return sqltypes.FromBool(v.Bool)
}

func bool3Value(b sqltypes.Bool3) sqltypes.Value {
	switch b {
	case sqltypes.True:
		return sqltypes.NewBool(true)
	case sqltypes.False:
		return sqltypes.NewBool(false)
	default:
		return sqltypes.Null
	}
}

func evalUnary(e *plan.Unary, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	v, err := eval(e.Operand, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	switch e.Op {
	case "not":
		return bool3Value(boolOf(v).Not()), nil
	case "-":
		if v.IsNull() {
			return sqltypes.Null, nil
		}
		switch v.Kind {
		case sqltypes.Int32:
			return sqltypes.NewInt32(-v.I32), nil
		case sqltypes.Int64:
			return sqltypes.NewInt64(-v.I64), nil
		case sqltypes.Float32:
			return sqltypes.NewFloat32(-v.F32), nil
		default:
			f, _ := v.AsFloat64()
			return sqltypes.NewFloat64(-f), nil
		}
	case "+":
		return v, nil
	case "~":
		if v.IsNull() {
			return sqltypes.Null, nil
		}
		i, _ := v.AsInt64()
		return sqltypes.NewInt64(^i), nil
	default:
		return sqltypes.Null, errs.NewRuntimeError("eval: unknown unary op %q", e.Op)
	}
}

func evalBinary(e *plan.Binary, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	switch e.Op {
	case "and":
		l, err := eval(e.Left, row, fctx)
		if err != nil {
			return sqltypes.Null, err
		}
		if boolOf(l) == sqltypes.False {
			return sqltypes.NewBool(false), nil
		}
		r, err := eval(e.Right, row, fctx)
		if err != nil {
			return sqltypes.Null, err
		}
		return bool3Value(boolOf(l).And(boolOf(r))), nil
	case "or":
		l, err := eval(e.Left, row, fctx)
		if err != nil {
			return sqltypes.Null, err
		}
		if boolOf(l) == sqltypes.True {
			return sqltypes.NewBool(true), nil
		}
		r, err := eval(e.Right, row, fctx)
		if err != nil {
			return sqltypes.Null, err
		}
		return bool3Value(boolOf(l).Or(boolOf(r))), nil
	}

	l, err := eval(e.Left, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	r, err := eval(e.Right, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}

	switch e.Op {
	case "=", "==", "<>", "!=", "<", "<=", ">", ">=":
		return evalComparison(e.Op, l, r), nil
	case "<=>":
		if l.IsNull() && r.IsNull() {
			return sqltypes.NewBool(true), nil
		}
		if l.IsNull() || r.IsNull() {
			return sqltypes.NewBool(false), nil
		}
		return sqltypes.NewBool(l.Equal(r)), nil
	case "+", "-", "*", "/", "%":
		return evalArith(e.Op, l, r)
	case "||":
		if l.IsNull() || r.IsNull() {
			return sqltypes.Null, nil
		}
		return sqltypes.NewString(l.String() + r.String()), nil
	case "&", "|", "^", "<<", ">>", ">>>":
		return evalBitwise(e.Op, l, r)
	default:
		return sqltypes.Null, errs.NewRuntimeError("eval: unknown binary op %q", e.Op)
	}
}

func evalComparison(op string, l, r sqltypes.Value) sqltypes.Value {
	if l.IsNull() || r.IsNull() {
		return sqltypes.Null
	}
	cmp := compareValues(l, r)
	var result bool
	switch op {
	case "=", "==":
		result = cmp == 0
	case "<>", "!=":
		result = cmp != 0
	case "<":
		result = cmp < 0
	case "<=":
		result = cmp <= 0
	case ">":
		result = cmp > 0
	case ">=":
		result = cmp >= 0
	}
	return sqltypes.NewBool(result)
}

func compareValues(l, r sqltypes.Value) int {
	if l.Kind == sqltypes.String && r.Kind == sqltypes.String {
		switch {
		case l.Str < r.Str:
			return -1
		case l.Str > r.Str:
			return 1
		default:
			return 0
		}
	}
	lf, _ := l.AsFloat64()
	rf, _ := r.AsFloat64()
	if l.Kind == sqltypes.Timestamp {
		lf = float64(l.TS)
	}
	if r.Kind == sqltypes.Timestamp {
		rf = float64(r.TS)
	}
	switch {
	case lf < rf:
		return -1
	case lf > rf:
		return 1
	default:
		return 0
	}
}

func evalArith(op string, l, r sqltypes.Value) (sqltypes.Value, error) {
	if l.IsNull() || r.IsNull() {
		return sqltypes.Null, nil
	}
	widest := sqltypes.WidestNumeric(l.Type(), r.Type())
	if widest.IsInteger() && (op == "+" || op == "-" || op == "*" || op == "/" || op == "%") {
		li, _ := l.AsInt64()
		ri, _ := r.AsInt64()
		switch op {
		case "+":
			return sqltypes.NewInt64(li + ri), nil
		case "-":
			return sqltypes.NewInt64(li - ri), nil
		case "*":
			return sqltypes.NewInt64(li * ri), nil
		case "/":
			if ri == 0 {
				return sqltypes.Null, nil
			}
			return sqltypes.NewInt64(li / ri), nil
		case "%":
			if ri == 0 {
				return sqltypes.Null, nil
			}
			return sqltypes.NewInt64(li % ri), nil
		}
	}
	lf, _ := l.AsFloat64()
	rf, _ := r.AsFloat64()
	switch op {
	case "+":
		return sqltypes.NewFloat64(lf + rf), nil
	case "-":
		return sqltypes.NewFloat64(lf - rf), nil
	case "*":
		return sqltypes.NewFloat64(lf * rf), nil
	case "/":
		if rf == 0 {
			return sqltypes.Null, nil
		}
		return sqltypes.NewFloat64(lf / rf), nil
	case "%":
		if rf == 0 {
			return sqltypes.Null, nil
		}
		return sqltypes.NewFloat64(math.Mod(lf, rf)), nil
	}
	return sqltypes.Null, errs.NewRuntimeError("eval: unreachable arith op %q", op)
}

func evalBitwise(op string, l, r sqltypes.Value) (sqltypes.Value, error) {
	if l.IsNull() || r.IsNull() {
		return sqltypes.Null, nil
	}
	li, _ := l.AsInt64()
	ri, _ := r.AsInt64()
	switch op {
	case "&":
		return sqltypes.NewInt64(li & ri), nil
	case "|":
		return sqltypes.NewInt64(li | ri), nil
	case "^":
		return sqltypes.NewInt64(li ^ ri), nil
	case "<<":
		return sqltypes.NewInt64(li << uint(ri)), nil
	case ">>":
		return sqltypes.NewInt64(li >> uint(ri)), nil
	case ">>>":
		return sqltypes.NewInt64(int64(uint64(li) >> uint(ri))), nil
	}
	return sqltypes.Null, errs.NewRuntimeError("eval: unreachable bitwise op %q", op)
}

func evalCast(e *plan.Cast, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	v, err := eval(e.Operand, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	if v.IsNull() {
		return sqltypes.Null, nil
	}
	return castValue(v, e.Typ)
}

func castValue(v sqltypes.Value, to sqltypes.DataType) (sqltypes.Value, error) {
	switch to.Kind {
	case sqltypes.String:
		return sqltypes.NewString(v.String()), nil
	case sqltypes.Int32:
		i, ok := castInt64(v)
		if !ok {
			return sqltypes.Null, errs.NewEvalError(errs.OverflowOnCast, "cannot cast %s to int", v.Kind)
		}
		if i > math.MaxInt32 || i < math.MinInt32 {
			return sqltypes.Null, errs.NewEvalError(errs.OverflowOnCast, "int32 overflow casting %d", i)
		}
		return sqltypes.NewInt32(int32(i)), nil
	case sqltypes.Int64:
		i, ok := castInt64(v)
		if !ok {
			return sqltypes.Null, errs.NewEvalError(errs.OverflowOnCast, "cannot cast %s to bigint", v.Kind)
		}
		return sqltypes.NewInt64(i), nil
	case sqltypes.Float32:
		f, ok := castFloat64(v)
		if !ok {
			return sqltypes.Null, errs.NewEvalError(errs.OverflowOnCast, "cannot cast %s to float", v.Kind)
		}
		return sqltypes.NewFloat32(float32(f)), nil
	case sqltypes.Float64:
		f, ok := castFloat64(v)
		if !ok {
			return sqltypes.Null, errs.NewEvalError(errs.OverflowOnCast, "cannot cast %s to double", v.Kind)
		}
		return sqltypes.NewFloat64(f), nil
	case sqltypes.Boolean:
		if v.Kind == sqltypes.Boolean {
			return v, nil
		}
		return sqltypes.NewBool(strings.EqualFold(v.String(), "true") || v.String() == "1"), nil
	case sqltypes.Timestamp:
		if v.Kind == sqltypes.Timestamp {
			return v, nil
		}
		i, ok := castInt64(v)
		if !ok {
			return sqltypes.Null, errs.NewEvalError(errs.OverflowOnCast, "cannot cast %s to timestamp", v.Kind)
		}
		return sqltypes.NewTimestamp(i), nil
	case sqltypes.Bytes:
		return sqltypes.NewBytes([]byte(v.String())), nil
	default:
		return v, nil
	}
}

// castInt64 coerces v to int64 for CAST, attempting strict string
// parsing for a String source (spec.md §4.5: "string→numeric uses
// strict parsing, failure → NULL") instead of rejecting it outright.
func castInt64(v sqltypes.Value) (int64, bool) {
	if v.Kind == sqltypes.String {
		i, err := cast.ToInt64E(v.Str)
		return i, err == nil
	}
	return v.AsInt64()
}

// castFloat64 is castInt64's float64 counterpart.
func castFloat64(v sqltypes.Value) (float64, bool) {
	if v.Kind == sqltypes.String {
		f, err := cast.ToFloat64E(v.Str)
		return f, err == nil
	}
	return v.AsFloat64()
}

func evalCase(e *plan.Case, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	for _, w := range e.Whens {
		cond, err := eval(w.Cond, row, fctx)
		if err != nil {
			return sqltypes.Null, err
		}
		if boolOf(cond) == sqltypes.True {
			return eval(w.Then, row, fctx)
		}
	}
	if e.Else == nil {
		return sqltypes.Null, nil
	}
	return eval(e.Else, row, fctx)
}

func evalFuncCall(e *plan.FuncCall, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	args := make([]sqltypes.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := eval(a, row, fctx)
		if err != nil {
			return sqltypes.Null, err
		}
		args[i] = v
	}
	return e.Handler(fctx, args)
}

func evalLike(e *plan.Like, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	operand, err := eval(e.Operand, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	pattern, err := eval(e.Pattern, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	if operand.IsNull() || pattern.IsNull() {
		return sqltypes.Null, nil
	}
	s, p := operand.String(), pattern.String()
	if e.CaseInsensitive {
		s, p = strings.ToLower(s), strings.ToLower(p)
	}
	matched, err := likeMatch(s, p)
	if err != nil {
		return sqltypes.Null, err
	}
	if e.Not {
		matched = !matched
	}
	return sqltypes.NewBool(matched), nil
}

// likeMatch implements SQL LIKE: '%' matches any run of characters,
// '_' matches exactly one, '\\' escapes the following character
// (spec.md §4.3).
func likeMatch(s, pattern string) (bool, error) {
	sr, pr := []rune(s), []rune(pattern)
	return likeMatchRunes(sr, pr), nil
}

func likeMatchRunes(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	switch p[0] {
	case '%':
		for i := 0; i <= len(s); i++ {
			if likeMatchRunes(s[i:], p[1:]) {
				return true
			}
		}
		return false
	case '_':
		if len(s) == 0 {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	case '\\':
		if len(p) < 2 || len(s) == 0 || s[0] != p[1] {
			return false
		}
		return likeMatchRunes(s[1:], p[2:])
	default:
		if len(s) == 0 || s[0] != p[0] {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	}
}

func evalRegexp(e *plan.Regexp, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	v, err := eval(e.Operand, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	if v.IsNull() {
		return sqltypes.Null, nil
	}
	matched := e.Compiled.MatchString(v.String())
	if e.Not {
		matched = !matched
	}
	return sqltypes.NewBool(matched), nil
}

func evalBetween(e *plan.Between, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	v, err := eval(e.Operand, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	lo, err := eval(e.Low, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	hi, err := eval(e.High, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	if v.IsNull() || lo.IsNull() || hi.IsNull() {
		return sqltypes.Null, nil
	}
	in := compareValues(v, lo) >= 0 && compareValues(v, hi) <= 0
	if e.Not {
		in = !in
	}
	return sqltypes.NewBool(in), nil
}

func evalIn(e *plan.In, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	v, err := eval(e.Operand, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	if v.IsNull() {
		return sqltypes.Null, nil
	}
	sawNull := false
	for _, item := range e.List {
		iv, err := eval(item, row, fctx)
		if err != nil {
			return sqltypes.Null, err
		}
		if iv.IsNull() {
			sawNull = true
			continue
		}
		if compareValues(v, iv) == 0 {
			return sqltypes.NewBool(!e.Not), nil
		}
	}
	if sawNull {
		return sqltypes.Null, nil
	}
	return sqltypes.NewBool(e.Not), nil
}

func evalIsNull(e *plan.IsNullExpr, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	v, err := eval(e.Operand, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	isNull := v.IsNull()
	if e.Not {
		isNull = !isNull
	}
	return sqltypes.NewBool(isNull), nil
}

func evalSubscript(e *plan.Subscript, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	v, err := eval(e.Operand, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	idx, err := eval(e.Index, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	if v.IsNull() || idx.IsNull() || v.Kind != sqltypes.Array {
		return sqltypes.Null, nil
	}
	i, _ := idx.AsInt64()
	pos := int(i) - 1
	if pos < 0 || pos >= len(v.Arr) {
		return sqltypes.Null, nil
	}
	return v.Arr[pos], nil
}

func evalFieldAccess(e *plan.FieldAccess, row []sqltypes.Value, fctx *functions.Context) (sqltypes.Value, error) {
	v, err := eval(e.Operand, row, fctx)
	if err != nil {
		return sqltypes.Null, err
	}
	if v.IsNull() || v.Kind != sqltypes.Struct {
		return sqltypes.Null, nil
	}
	fv, ok := v.Struct[e.Field]
	if !ok {
		return sqltypes.Null, nil
	}
	return fv, nil
}
