package binder

import (
	"github.com/retl-io/retl/internal/eval"
	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/plan"
)

// nonDeterministic lists scalar functions constant folding must never
// touch even though their argument list is empty, since their result
// legitimately varies per invocation (spec.md §9).
var nonDeterministic = map[string]bool{
	"now":               true,
	"current_timestamp": true,
	"unix_timestamp":    true,
}

// isConstant reports whether e's value is fixed at bind time: no
// column or aggregate reference anywhere in its subtree, and (for a
// function call) a deterministic function.
func isConstant(e plan.Expr) bool {
	switch n := e.(type) {
	case *plan.Literal:
		return true
	case *plan.ColumnRef, *plan.AggRef:
		return false
	case *plan.Unary:
		return isConstant(n.Operand)
	case *plan.Binary:
		return isConstant(n.Left) && isConstant(n.Right)
	case *plan.Cast:
		return isConstant(n.Operand)
	case *plan.FuncCall:
		if nonDeterministic[n.Name] {
			return false
		}
		for _, a := range n.Args {
			if !isConstant(a) {
				return false
			}
		}
		return true
	case *plan.Case:
		for _, w := range n.Whens {
			if !isConstant(w.Cond) || !isConstant(w.Then) {
				return false
			}
		}
		if n.Else != nil && !isConstant(n.Else) {
			return false
		}
		return true
	case *plan.Like:
		return isConstant(n.Operand) && isConstant(n.Pattern)
	case *plan.Regexp:
		return isConstant(n.Operand)
	case *plan.Between:
		return isConstant(n.Operand) && isConstant(n.Low) && isConstant(n.High)
	case *plan.In:
		if !isConstant(n.Operand) {
			return false
		}
		for _, item := range n.List {
			if !isConstant(item) {
				return false
			}
		}
		return true
	case *plan.IsNullExpr:
		return isConstant(n.Operand)
	case *plan.Subscript:
		return isConstant(n.Operand) && isConstant(n.Index)
	case *plan.FieldAccess:
		return isConstant(n.Operand)
	default:
		return false
	}
}

// foldConstant evaluates e once at bind time if it is provably
// constant, replacing it with a Literal (spec.md §9 "pure scalar
// expressions with literal arguments are evaluated once at bind
// time"). Non-constant expressions, and expressions that are already
// literals, are returned unchanged.
func foldConstant(e plan.Expr) plan.Expr {
	if _, already := e.(*plan.Literal); already {
		return e
	}
	if !isConstant(e) {
		return e
	}
	v, err := eval.Row(e, nil, &functions.Context{})
	if err != nil {
		return e
	}
	return &plan.Literal{Value: v, Typ: e.Type()}
}
