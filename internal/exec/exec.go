// Package exec implements the physical operators over a bound
// plan.Node tree (spec.md §4.2): Project, Filter, LateralView,
// Aggregate, each consuming one input RowBatch and producing one
// output RowBatch. Operators hold no cross-batch state — every Run
// call is self-contained, matching the façade's "stateless per batch"
// contract (spec.md §5).
package exec

import (
	"hash/maphash"
	"strings"

	"github.com/retl-io/retl/internal/errs"
	"github.com/retl-io/retl/internal/eval"
	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/plan"
	"github.com/retl-io/retl/internal/sqltypes"
)

// RunWithInput executes node, treating any *plan.Source leaf
// reachable from it as input. This is the entry point the transform
// façade calls once per incoming batch.
func RunWithInput(node plan.Node, input sqltypes.RowBatch, fctx *functions.Context) (sqltypes.RowBatch, error) {
	return runNode(node, input, fctx)
}

func runNode(node plan.Node, input sqltypes.RowBatch, fctx *functions.Context) (sqltypes.RowBatch, error) {
	switch n := node.(type) {
	case *plan.Source:
		return input, nil
	case *plan.Project:
		in, err := runNode(n.Input, input, fctx)
		if err != nil {
			return sqltypes.RowBatch{}, err
		}
		return runProject(n, in, fctx)
	case *plan.Filter:
		in, err := runNode(n.Input, input, fctx)
		if err != nil {
			return sqltypes.RowBatch{}, err
		}
		return runFilter(n, in, fctx)
	case *plan.LateralView:
		in, err := runNode(n.Input, input, fctx)
		if err != nil {
			return sqltypes.RowBatch{}, err
		}
		return runLateralView(n, in, fctx)
	case *plan.Aggregate:
		in, err := runNode(n.Input, input, fctx)
		if err != nil {
			return sqltypes.RowBatch{}, err
		}
		return runAggregate(n, in, fctx)
	default:
		return sqltypes.RowBatch{}, errs.NewRuntimeError("exec: unhandled plan node %T", node)
	}
}

func runProject(n *plan.Project, in sqltypes.RowBatch, fctx *functions.Context) (sqltypes.RowBatch, error) {
	rows := make([][]sqltypes.Value, 0, in.NumRows())
	for _, row := range in.Rows {
		out := make([]sqltypes.Value, len(n.Exprs))
		for i, ne := range n.Exprs {
			v, err := eval.Row(ne.Expr, row, fctx)
			if err != nil {
				return sqltypes.RowBatch{}, err
			}
			out[i] = v
		}
		rows = append(rows, out)
	}
	return sqltypes.NewRowBatch(n.Schema, rows)
}

func runFilter(n *plan.Filter, in sqltypes.RowBatch, fctx *functions.Context) (sqltypes.RowBatch, error) {
	rows := make([][]sqltypes.Value, 0, in.NumRows())
	for _, row := range in.Rows {
		v, err := eval.Row(n.Predicate, row, fctx)
		if err != nil {
			return sqltypes.RowBatch{}, err
		}
		if !v.IsNull() && v.Bool {
			rows = append(rows, row)
		}
	}
	return sqltypes.NewRowBatch(n.Input.OutputSchema(), rows)
}

func runLateralView(n *plan.LateralView, in sqltypes.RowBatch, fctx *functions.Context) (sqltypes.RowBatch, error) {
	rows := make([][]sqltypes.Value, 0, in.NumRows())
	numGenCols := len(n.Generator.OutputCols)
	for _, row := range in.Rows {
		args := make([]sqltypes.Value, len(n.Generator.Args))
		for i, a := range n.Generator.Args {
			v, err := eval.Row(a, row, fctx)
			if err != nil {
				return sqltypes.RowBatch{}, err
			}
			args[i] = v
		}
		genRows, err := runGenerator(n.Generator.Name, args)
		if err != nil {
			return sqltypes.RowBatch{}, err
		}
		if len(genRows) == 0 {
			if !n.Outer {
				continue
			}
			padded := make([]sqltypes.Value, numGenCols)
			genRows = [][]sqltypes.Value{padded}
		}
		for _, gr := range genRows {
			out := make([]sqltypes.Value, 0, len(row)+len(gr))
			out = append(out, row...)
			out = append(out, gr...)
			rows = append(rows, out)
		}
	}
	return sqltypes.NewRowBatch(n.Schema, rows)
}

// runGenerator dispatches the built-in LATERAL VIEW generators
// (spec.md §4.2): explode unrolls an array into one row per element;
// path_file_unroll splits a delimited path into (directory, leaf)
// pairs, one row per path segment boundary.
func runGenerator(name string, args []sqltypes.Value) ([][]sqltypes.Value, error) {
	switch strings.ToLower(name) {
	case "explode":
		if len(args) != 1 || args[0].IsNull() || args[0].Kind != sqltypes.Array {
			return nil, nil
		}
		rows := make([][]sqltypes.Value, len(args[0].Arr))
		for i, v := range args[0].Arr {
			rows[i] = []sqltypes.Value{v}
		}
		return rows, nil
	case "path_file_unroll":
		if len(args) < 1 || args[0].IsNull() {
			return nil, nil
		}
		path := args[0].String()
		sep := "/"
		if len(args) >= 2 && !args[1].IsNull() {
			sep = args[1].String()
		}
		parts := strings.Split(strings.Trim(path, sep), sep)
		rows := make([][]sqltypes.Value, 0, len(parts))
		for i := range parts {
			dir := sep + strings.Join(parts[:i], sep)
			leaf := parts[i]
			rows = append(rows, []sqltypes.Value{sqltypes.NewString(dir), sqltypes.NewString(leaf)})
		}
		return rows, nil
	default:
		return nil, errs.NewRuntimeError("exec: unknown generator %q", name)
	}
}

func runAggregate(n *plan.Aggregate, in sqltypes.RowBatch, fctx *functions.Context) (sqltypes.RowBatch, error) {
	seed := maphash.MakeSeed()
	type groupState struct {
		keyVals []sqltypes.Value
		accs    []functions.Accumulator
	}
	groups := make(map[uint64]*groupState)
	order := make([]uint64, 0)

	for _, row := range in.Rows {
		keyVals := make([]sqltypes.Value, len(n.GroupExprs))
		var h maphash.Hash
		h.SetSeed(seed)
		for i, ge := range n.GroupExprs {
			v, err := eval.Row(ge, row, fctx)
			if err != nil {
				return sqltypes.RowBatch{}, err
			}
			keyVals[i] = v
			hv := v.HashKey(seed)
			var buf [8]byte
			for j := 0; j < 8; j++ {
				buf[j] = byte(hv >> (8 * j))
			}
			h.Write(buf[:])
		}
		key := h.Sum64()

		gs, ok := groups[key]
		if !ok {
			gs = &groupState{keyVals: keyVals, accs: make([]functions.Accumulator, len(n.Aggs))}
			for i, agg := range n.Aggs {
				gs.accs[i] = agg.NewAcc(agg.ArgTyps)
			}
			groups[key] = gs
			order = append(order, key)
		}

		for i, agg := range n.Aggs {
			args := make([]sqltypes.Value, len(agg.Args))
			for j, a := range agg.Args {
				v, err := eval.Row(a, row, fctx)
				if err != nil {
					return sqltypes.RowBatch{}, err
				}
				args[j] = v
			}
			if err := gs.accs[i].Update(args); err != nil {
				return sqltypes.RowBatch{}, err
			}
		}
	}

	rows := make([][]sqltypes.Value, 0, len(order))
	for _, key := range order {
		gs := groups[key]
		out := make([]sqltypes.Value, 0, len(gs.keyVals)+len(gs.accs))
		out = append(out, gs.keyVals...)
		for _, acc := range gs.accs {
			out = append(out, acc.Finalize())
		}
		rows = append(rows, out)
	}
	return sqltypes.NewRowBatch(n.Schema, rows)
}
