package functions

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/pbkdf2"

	"github.com/retl-io/retl/internal/errs"
	"github.com/retl-io/retl/internal/sqltypes"
	"github.com/retl-io/retl/parser"
)

// aesSalt is fixed rather than random so aes_encrypt/aes_decrypt stay
// pure functions of (plaintext, key) within one pipeline run — a
// random per-call salt would make every ciphertext undecryptable by
// the matching aes_decrypt call.
var aesSalt = []byte("retl-transform-aes-key-salt")

func fixedReturn(t sqltypes.DataType) func([]sqltypes.DataType) sqltypes.DataType {
	return func([]sqltypes.DataType) sqltypes.DataType { return t }
}

func registerScalars(r *Registry) {
	// Null handling.
	r.addScalar(&Scalar{
		Name: "nvl",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: func(a []sqltypes.DataType) sqltypes.DataType { return a[1] }},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if !args[0].IsNull() {
				return args[0], nil
			}
			return args[1], nil
		},
	})
	r.addScalar(&Scalar{
		Name: "coalesce",
		Sig:  Signature{MinArgs: 1, MaxArgs: -1, ReturnOf: func(a []sqltypes.DataType) sqltypes.DataType { return a[0] }},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			for _, a := range args {
				if !a.IsNull() {
					return a, nil
				}
			}
			return sqltypes.Null, nil
		},
	})
	r.addScalar(&Scalar{
		Name: "greatest",
		Sig:  Signature{MinArgs: 1, MaxArgs: -1, ReturnOf: func(a []sqltypes.DataType) sqltypes.DataType { return a[0] }},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) { return pickExtreme(args, true) },
	})
	r.addScalar(&Scalar{
		Name: "least",
		Sig:  Signature{MinArgs: 1, MaxArgs: -1, ReturnOf: func(a []sqltypes.DataType) sqltypes.DataType { return a[0] }},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) { return pickExtreme(args, false) },
	})

	// Strings.
	r.addScalar(&Scalar{
		Name: "length",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeInt64)},
		Handler: unaryStr(func(s string) sqltypes.Value { return sqltypes.NewInt64(int64(len(s))) }),
	})
	r.addScalar(&Scalar{
		Name: "trim",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: unaryStr(func(s string) sqltypes.Value { return sqltypes.NewString(strings.TrimSpace(s)) }),
	})
	r.addScalar(&Scalar{
		Name: "lower",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: unaryStr(func(s string) sqltypes.Value { return sqltypes.NewString(strings.ToLower(s)) }),
	})
	r.addScalar(&Scalar{
		Name: "upper",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: unaryStr(func(s string) sqltypes.Value { return sqltypes.NewString(strings.ToUpper(s)) }),
	})
	r.addScalar(&Scalar{
		Name: "substr",
		Sig:  Signature{MinArgs: 2, MaxArgs: 3, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			s := cast.ToString(args[0].String())
			start, _ := args[1].AsInt64()
			runes := []rune(s)
			idx := int(start) - 1
			if start < 0 {
				idx = len(runes) + int(start)
			}
			if idx < 0 {
				idx = 0
			}
			if idx >= len(runes) {
				return sqltypes.NewString(""), nil
			}
			end := len(runes)
			if len(args) == 3 {
				n, _ := args[2].AsInt64()
				end = idx + int(n)
				if end > len(runes) {
					end = len(runes)
				}
			}
			if end < idx {
				end = idx
			}
			return sqltypes.NewString(string(runes[idx:end])), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "concat",
		Sig:  Signature{MinArgs: 1, MaxArgs: -1, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			var b strings.Builder
			for _, a := range args {
				b.WriteString(a.String())
			}
			return sqltypes.NewString(b.String()), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "concat_ws",
		Sig:  Signature{MinArgs: 2, MaxArgs: -1, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			sep := args[0].String()
			parts := make([]string, 0, len(args)-1)
			for _, a := range args[1:] {
				if !a.IsNull() {
					parts = append(parts, a.String())
				}
			}
			return sqltypes.NewString(strings.Join(parts, sep)), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "split",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.ArrayOf(sqltypes.TypeString))},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			parts := strings.Split(args[0].String(), args[1].String())
			vs := make([]sqltypes.Value, len(parts))
			for i, p := range parts {
				vs[i] = sqltypes.NewString(p)
			}
			return sqltypes.NewArray(vs), nil
		},
	})
	r.addScalar(&Scalar{
		// split_part(s, sep, n): 1-based; n == 0 returns the whole
		// string (Open Question in spec.md §10, decided in DESIGN.md).
		Name: "split_part",
		Sig:  Signature{MinArgs: 3, MaxArgs: 3, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			s, sep := args[0].String(), args[1].String()
			n, _ := args[2].AsInt64()
			if n == 0 {
				return sqltypes.NewString(s), nil
			}
			parts := strings.Split(s, sep)
			idx := int(n) - 1
			if n < 0 {
				idx = len(parts) + int(n)
			}
			if idx < 0 || idx >= len(parts) {
				return sqltypes.Null, nil
			}
			return sqltypes.NewString(parts[idx]), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "replace",
		Sig:  Signature{MinArgs: 3, MaxArgs: 3, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			return sqltypes.NewString(strings.ReplaceAll(args[0].String(), args[1].String(), args[2].String())), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "regexp_replace",
		Sig:  Signature{MinArgs: 3, MaxArgs: 3, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			re, err := regexp.Compile(args[1].String())
			if err != nil {
				return sqltypes.Null, errs.NewEvalError(errs.RegexError, "regexp_replace: %v", err)
			}
			return sqltypes.NewString(re.ReplaceAllString(args[0].String(), args[2].String())), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "regexp_extract",
		Sig:  Signature{MinArgs: 3, MaxArgs: 3, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			re, err := regexp.Compile(args[1].String())
			if err != nil {
				return sqltypes.Null, errs.NewEvalError(errs.RegexError, "regexp_extract: %v", err)
			}
			group, _ := args[2].AsInt64()
			m := re.FindStringSubmatch(args[0].String())
			if m == nil || group < 0 || int(group) >= len(m) {
				return sqltypes.Null, nil
			}
			return sqltypes.NewString(m[group]), nil
		},
	})

	// JSON, via gjson (spec.md domain stack: "path-addressed JSON
	// extraction without full unmarshal").
	registerJSONScalars(r)

	// Date/time.
	r.addScalar(&Scalar{
		Name: "current_timestamp",
		Sig:  Signature{MinArgs: 0, MaxArgs: 0, ReturnOf: fixedReturn(sqltypes.TypeTimestamp)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			return sqltypes.NewTimestamp(ctx.Now * 1e6), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "now",
		Sig:  Signature{MinArgs: 0, MaxArgs: 0, ReturnOf: fixedReturn(sqltypes.TypeTimestamp)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			return sqltypes.NewTimestamp(ctx.Now * 1e6), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "from_unixtime",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeTimestamp)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			secs, _ := args[0].AsInt64()
			return sqltypes.NewTimestamp(secs * 1e6), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "from_unixtime_millis",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeTimestamp)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			ms, _ := args[0].AsInt64()
			return sqltypes.NewTimestamp(ms * 1e3), nil
		},
	})
	r.addScalar(&Scalar{
		// unix_timestamp() with no args returns the invocation's
		// captured wall-clock reading; unix_timestamp(ts) extracts
		// seconds from a bound Timestamp (spec.md §4.5).
		Name: "unix_timestamp",
		Sig:  Signature{MinArgs: 0, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeInt64)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if len(args) == 0 {
				return sqltypes.NewInt64(ctx.Now), nil
			}
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			return sqltypes.NewInt64(args[0].TS / 1e6), nil
		},
	})
	r.addScalar(&Scalar{
		// to_unix_timestamp accepts either a bound Timestamp or a
		// parseable string (spec.md §4.5: "to_unix_timestamp(s | ts)").
		Name: "to_unix_timestamp",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeInt64)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			if args[0].Kind == sqltypes.Timestamp {
				return sqltypes.NewInt64(args[0].TS / 1e6), nil
			}
			t, err := cast.ToTimeE(args[0].String())
			if err != nil {
				return sqltypes.Null, errs.NewEvalError(errs.OverflowOnCast, "to_unix_timestamp: %v", err)
			}
			return sqltypes.NewInt64(t.Unix()), nil
		},
	})
	r.addScalar(&Scalar{
		// timestamp parses a string into a Timestamp, the function-call
		// spelling of CAST(s AS timestamp) (spec.md §4.5).
		Name: "timestamp",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeTimestamp)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			if args[0].Kind == sqltypes.Timestamp {
				return args[0], nil
			}
			t, err := cast.ToTimeE(args[0].String())
			if err != nil {
				return sqltypes.Null, errs.NewEvalError(errs.OverflowOnCast, "timestamp: %v", err)
			}
			return sqltypes.NewTimestamp(t.UnixMicro()), nil
		},
	})
	r.addScalar(&Scalar{
		// date_floor(ts, "N unit") truncates to the nearest fixed-size
		// multiple-of-N boundary (second/minute/hour/day), unlike
		// date_trunc's single-unit calendar truncation (spec.md §4.5).
		Name: "date_floor",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeTimestamp)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			step, err := dateFloorStepMicros(args[1].String())
			if err != nil {
				return sqltypes.Null, errs.NewEvalError(errs.PatternMatchError, "date_floor: %v", err)
			}
			return sqltypes.NewTimestamp((args[0].TS / step) * step), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "date_trunc",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeTimestamp)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			unit := strings.ToLower(args[0].String())
			t := time.UnixMicro(args[1].TS).UTC()
			var trunc time.Time
			switch unit {
			case "second":
				trunc = t.Truncate(time.Second)
			case "minute":
				trunc = t.Truncate(time.Minute)
			case "hour":
				trunc = t.Truncate(time.Hour)
			case "day":
				trunc = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			case "month":
				trunc = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
			case "year":
				trunc = time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
			default:
				return sqltypes.Null, errs.NewEvalError(errs.PatternMatchError, "unknown date_trunc unit %q", unit)
			}
			return sqltypes.NewTimestamp(trunc.UnixMicro()), nil
		},
	})

	// Numeric.
	r.addScalar(&Scalar{
		Name: "pow",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeFloat64)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			base, _ := args[0].AsFloat64()
			exp, _ := args[1].AsFloat64()
			return sqltypes.NewFloat64(math.Pow(base, exp)), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "round",
		Sig:  Signature{MinArgs: 1, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeFloat64)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			f, _ := args[0].AsFloat64()
			places := 0
			if len(args) == 2 {
				n, _ := args[1].AsInt64()
				places = int(n)
			}
			scale := math.Pow(10, float64(places))
			return sqltypes.NewFloat64(math.RoundToEven(f*scale) / scale), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "floor",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeFloat64)},
		Handler: unaryFloat(math.Floor),
	})
	r.addScalar(&Scalar{
		Name: "ceil",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeFloat64)},
		Handler: unaryFloat(math.Ceil),
	})
	r.addScalar(&Scalar{
		Name: "abs",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: func(a []sqltypes.DataType) sqltypes.DataType { return a[0] }},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			switch args[0].Kind {
			case sqltypes.Int32:
				v := args[0].I32
				if v < 0 {
					v = -v
				}
				return sqltypes.NewInt32(v), nil
			case sqltypes.Int64:
				v := args[0].I64
				if v < 0 {
					v = -v
				}
				return sqltypes.NewInt64(v), nil
			default:
				f, _ := args[0].AsFloat64()
				return sqltypes.NewFloat64(math.Abs(f)), nil
			}
		},
	})
	r.addScalar(&Scalar{
		Name: "mod",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeInt64)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			a, _ := args[0].AsInt64()
			b, _ := args[1].AsInt64()
			if b == 0 {
				return sqltypes.Null, nil
			}
			return sqltypes.NewInt64(a % b), nil
		},
	})
	r.addScalar(&Scalar{
		// bin renders x's base-2 digits; signed=false (the default)
		// renders the raw two's-complement bit pattern for a negative
		// x, signed=true renders a "-" sign plus the magnitude.
		Name: "bin",
		Sig:  Signature{MinArgs: 1, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			n, _ := args[0].AsInt64()
			signed := len(args) == 2 && !args[1].IsNull() && args[1].Bool
			if signed && n < 0 {
				return sqltypes.NewString("-" + strconv.FormatUint(uint64(-n), 2)), nil
			}
			return sqltypes.NewString(strconv.FormatUint(uint64(n), 2)), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "hex",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			if args[0].Kind == sqltypes.Bytes {
				return sqltypes.NewString(strings.ToUpper(hex.EncodeToString(args[0].Bytes))), nil
			}
			n, _ := args[0].AsInt64()
			return sqltypes.NewString(strings.ToUpper(strconv.FormatInt(n, 16))), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "unhex",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeBytes)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			b, err := hex.DecodeString(args[0].String())
			if err != nil {
				return sqltypes.Null, errs.NewEvalError(errs.DecodeError, "unhex: %v", err)
			}
			return sqltypes.NewBytes(b), nil
		},
	})

	// Encoding / crypto, via golang.org/x/crypto (spec.md domain
	// stack: "field-level at-rest encryption for sinks").
	r.addScalar(&Scalar{
		Name: "to_base64",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			return sqltypes.NewString(base64.StdEncoding.EncodeToString(bytesOf(args[0]))), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "from_base64",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeBytes)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			b, err := base64.StdEncoding.DecodeString(args[0].String())
			if err != nil {
				return sqltypes.Null, errs.NewEvalError(errs.DecodeError, "from_base64: %v", err)
			}
			return sqltypes.NewBytes(b), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "aes_encrypt",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeBytes)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			out, err := aesEncryptCBC(bytesOf(args[0]), keyBytes(args[1]))
			if err != nil {
				return sqltypes.Null, errs.NewEvalError(errs.DecodeError, "aes_encrypt: %v", err)
			}
			return sqltypes.NewBytes(out), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "aes_decrypt",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeBytes)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			out, err := aesDecryptCBC(bytesOf(args[0]), keyBytes(args[1]))
			if err != nil {
				return sqltypes.Null, errs.NewEvalError(errs.DecodeError, "aes_decrypt: %v", err)
			}
			return sqltypes.NewBytes(out), nil
		},
	})

	// Cast-family convenience wrappers (spec.md §4.5); CastExpr itself
	// is evaluated directly by the evaluator, these cover the
	// function-call spelling used by some dialects.
	r.addScalar(&Scalar{
		Name: "string",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			return sqltypes.NewString(args[0].String()), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "int",
		Sig:  Signature{MinArgs: 1, MaxArgs: 1, ReturnOf: fixedReturn(sqltypes.TypeInt32)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			n, err := cast.ToInt32E(ValueToCastable(args[0]))
			if err != nil {
				return sqltypes.Null, errs.NewEvalError(errs.OverflowOnCast, "int: %v", err)
			}
			return sqltypes.NewInt32(n), nil
		},
	})
}

func unaryStr(f func(string) sqltypes.Value) Handler {
	return func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
		if args[0].IsNull() {
			return sqltypes.Null, nil
		}
		return f(args[0].String()), nil
	}
}

func unaryFloat(f func(float64) float64) Handler {
	return func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
		if args[0].IsNull() {
			return sqltypes.Null, nil
		}
		v, _ := args[0].AsFloat64()
		return sqltypes.NewFloat64(f(v)), nil
	}
}

func anyNull(args []sqltypes.Value) bool {
	for _, a := range args {
		if a.IsNull() {
			return true
		}
	}
	return false
}

func pickExtreme(args []sqltypes.Value, greatest bool) (sqltypes.Value, error) {
	best := sqltypes.Null
	for _, a := range args {
		if a.IsNull() {
			continue
		}
		if best.IsNull() {
			best = a
			continue
		}
		bf, _ := best.AsFloat64()
		af, _ := a.AsFloat64()
		if (greatest && af > bf) || (!greatest && af < bf) {
			best = a
		}
	}
	return best, nil
}

func bytesOf(v sqltypes.Value) []byte {
	if v.Kind == sqltypes.Bytes {
		return v.Bytes
	}
	return []byte(v.String())
}

// keyBytes derives a 16-byte AES-128 key from the supplied key value
// via PBKDF2-HMAC-SHA256, so aes_encrypt/aes_decrypt accept an
// arbitrary-length passphrase rather than requiring an exact 16-byte
// value.
func keyBytes(v sqltypes.Value) []byte {
	return pbkdf2.Key(bytesOf(v), aesSalt, 4096, 16, sha256.New)
}

// ValueToCastable converts v to the native Go value spf13/cast's
// ToXxxE coercions expect (numbers/bool as-is, everything else as its
// canonical string form).
func ValueToCastable(v sqltypes.Value) interface{} {
	switch v.Kind {
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
	case sqltypes.Boolean:
		return v.Bool
	default:
		return v.String()
	}
}

func aesEncryptCBC(plain, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	padded := pkcs7Pad(plain, block.BlockSize())
	iv := make([]byte, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

func aesDecryptCBC(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("ciphertext is not a multiple of the block size")
	}
	iv := make([]byte, block.BlockSize())
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out)
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	padLen := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+padLen)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("empty buffer")
	}
	padLen := int(b[len(b)-1])
	if padLen <= 0 || padLen > len(b) {
		return nil, fmt.Errorf("invalid padding")
	}
	return b[:len(b)-padLen], nil
}

func registerJSONScalars(r *Registry) {
	get := func(ctx *Context, args []sqltypes.Value) (gjson.Result, bool) {
		if anyNull(args) {
			return gjson.Result{}, false
		}
		res := gjson.Get(args[0].String(), args[1].String())
		return res, res.Exists()
	}
	r.addScalar(&Scalar{
		Name: "get_json_object",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			res, ok := get(ctx, args)
			if !ok {
				return sqltypes.Null, nil
			}
			return sqltypes.NewString(res.String()), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "get_json_int",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeInt64)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			res, ok := get(ctx, args)
			if !ok {
				return sqltypes.Null, nil
			}
			return sqltypes.NewInt64(res.Int()), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "get_json_long",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeInt64)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			res, ok := get(ctx, args)
			if !ok {
				return sqltypes.Null, nil
			}
			return sqltypes.NewInt64(res.Int()), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "get_json_double",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeFloat64)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			res, ok := get(ctx, args)
			if !ok {
				return sqltypes.Null, nil
			}
			return sqltypes.NewFloat64(res.Float()), nil
		},
	})
	r.addScalar(&Scalar{
		Name: "get_json_bool",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeBoolean)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			res, ok := get(ctx, args)
			if !ok {
				return sqltypes.Null, nil
			}
			return sqltypes.NewBool(res.Bool()), nil
		},
	})
	r.addScalar(&Scalar{
		// from_json(s, schema_string) decodes a JSON document into the
		// Struct shape schema_string describes; the binder resolves
		// the concrete return type from a literal schema_string
		// (bindFuncCall in internal/binder/expr.go), and the handler
		// re-resolves it per row since Handler isn't told the bound
		// type. Any parse or shape mismatch yields NULL for the whole
		// result (spec.md §9 Open Question decision), never a partial
		// struct.
		Name: "from_json",
		Sig:  Signature{MinArgs: 2, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeNull)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if anyNull(args) {
				return sqltypes.Null, nil
			}
			node, err := parser.ParseSchemaString(args[1].String())
			if err != nil {
				return sqltypes.Null, nil
			}
			dt, err := sqltypes.FromASTNode(node)
			if err != nil {
				return sqltypes.Null, nil
			}
			if !gjson.Valid(args[0].String()) {
				return sqltypes.Null, nil
			}
			v, ok := jsonToValue(gjson.Parse(args[0].String()), dt)
			if !ok {
				return sqltypes.Null, nil
			}
			return v, nil
		},
	})
	r.addScalar(&Scalar{
		// encode_json(v, pretty?) is from_json's inverse: it never
		// fails on a well-formed Value, so errors here only reflect a
		// broken json.Marshal invariant, not bad input.
		Name: "encode_json",
		Sig:  Signature{MinArgs: 1, MaxArgs: 2, ReturnOf: fixedReturn(sqltypes.TypeString)},
		Handler: func(ctx *Context, args []sqltypes.Value) (sqltypes.Value, error) {
			if args[0].IsNull() {
				return sqltypes.Null, nil
			}
			pretty := len(args) == 2 && !args[1].IsNull() && args[1].Bool
			native := valueToJSONNative(args[0])
			var (
				b   []byte
				err error
			)
			if pretty {
				b, err = json.MarshalIndent(native, "", "  ")
			} else {
				b, err = json.Marshal(native)
			}
			if err != nil {
				return sqltypes.Null, errs.NewEvalError(errs.DecodeError, "encode_json: %v", err)
			}
			return sqltypes.NewString(string(b)), nil
		},
	})
}

// jsonToValue decodes a gjson.Result into a Value shaped by dt,
// recursing into Array elements and Struct fields. It reports false on
// any shape mismatch so the caller can fail the whole from_json call to
// NULL rather than return a partially-decoded struct.
func jsonToValue(res gjson.Result, dt sqltypes.DataType) (sqltypes.Value, bool) {
	if !res.Exists() || res.Type == gjson.Null {
		return sqltypes.Null, true
	}
	switch dt.Kind {
	case sqltypes.Boolean:
		return sqltypes.NewBool(res.Bool()), true
	case sqltypes.Int32:
		return sqltypes.NewInt32(int32(res.Int())), true
	case sqltypes.Int64:
		return sqltypes.NewInt64(res.Int()), true
	case sqltypes.Float32:
		return sqltypes.NewFloat32(float32(res.Float())), true
	case sqltypes.Float64, sqltypes.Decimal:
		return sqltypes.NewFloat64(res.Float()), true
	case sqltypes.String:
		return sqltypes.NewString(res.String()), true
	case sqltypes.Bytes:
		return sqltypes.NewBytes([]byte(res.String())), true
	case sqltypes.Timestamp:
		return sqltypes.NewTimestamp(res.Int()), true
	case sqltypes.Array:
		var (
			vs []sqltypes.Value
			ok = true
		)
		res.ForEach(func(_, elem gjson.Result) bool {
			v, elemOK := jsonToValue(elem, *dt.Elem)
			if !elemOK {
				ok = false
				return false
			}
			vs = append(vs, v)
			return true
		})
		if !ok {
			return sqltypes.Value{}, false
		}
		return sqltypes.NewArray(vs), true
	case sqltypes.Struct:
		names := make([]string, len(dt.Fields))
		vals := make([]sqltypes.Value, len(dt.Fields))
		for i, f := range dt.Fields {
			fv, ok := jsonToValue(res.Get(f.Name), f.Type)
			if !ok {
				return sqltypes.Value{}, false
			}
			names[i] = f.Name
			vals[i] = fv
		}
		return sqltypes.NewStruct(names, vals), true
	default:
		return sqltypes.Value{}, false
	}
}

// valueToJSONNative converts v into the native Go value encoding/json
// marshals the way encode_json's caller expects (arrays/structs
// recurse; everything else is its own Go representation).
func valueToJSONNative(v sqltypes.Value) interface{} {
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
		return string(v.Bytes)
	case sqltypes.Timestamp:
		return v.TS
	case sqltypes.Array:
		out := make([]interface{}, len(v.Arr))
		for i, e := range v.Arr {
			out[i] = valueToJSONNative(e)
		}
		return out
	case sqltypes.Struct:
		out := make(map[string]interface{}, len(v.Fields))
		for _, name := range v.Fields {
			out[name] = valueToJSONNative(v.Struct[name])
		}
		return out
	default:
		return nil
	}
}

// dateFloorStepMicros parses date_floor's "N unit" step spec (N
// optional, defaulting to 1) into a microsecond step. Only
// fixed-duration units are supported — month/year have no constant
// length, so date_trunc (calendar truncation) covers those instead.
func dateFloorStepMicros(spec string) (int64, error) {
	fields := strings.Fields(spec)
	n, unit := int64(1), spec
	switch len(fields) {
	case 1:
		unit = fields[0]
	case 2:
		parsed, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid step %q", fields[0])
		}
		n, unit = parsed, fields[1]
	default:
		return 0, fmt.Errorf("invalid date_floor unit %q", spec)
	}
	var base int64
	switch strings.ToLower(strings.TrimSuffix(strings.ToLower(unit), "s")) {
	case "second", "sec":
		base = int64(time.Second / time.Microsecond)
	case "minute", "min":
		base = int64(time.Minute / time.Microsecond)
	case "hour":
		base = int64(time.Hour / time.Microsecond)
	case "day":
		base = int64(24 * time.Hour / time.Microsecond)
	default:
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
	return n * base, nil
}
