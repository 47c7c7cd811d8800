package binder

import (
	"github.com/retl-io/retl/ast"
	"github.com/retl-io/retl/format"
	"github.com/retl-io/retl/internal/errs"
	"github.com/retl-io/retl/internal/plan"
	"github.com/retl-io/retl/internal/sqltypes"
	"github.com/retl-io/retl/token"
	"github.com/retl-io/retl/visitor"
)

// aggPlanner binds one grouped select list: every select-item
// expression either matches a GROUP BY expression verbatim, is (or
// contains) an aggregate function call, or is a pure constant —
// anything else is a NonGroupedColumn error (spec.md §4.4, §7).
type aggPlanner struct {
	b         *binder
	sc        *scope
	groupAst  []ast.Expr
	groupPlan []plan.Expr
	aggs      []plan.AggCall
}

func canonicalEqual(a, b ast.Expr) bool {
	return format.CanonicalName(a) == format.CanonicalName(b)
}

func (p *aggPlanner) groupIndex(e ast.Expr) int {
	for i, ge := range p.groupAst {
		if canonicalEqual(e, ge) {
			return i
		}
	}
	return -1
}

// bind binds one select-item expression in aggregate mode.
func (p *aggPlanner) bind(e ast.Expr) (plan.Expr, error) {
	if idx := p.groupIndex(e); idx >= 0 {
		return &plan.AggRef{Index: idx, Typ: p.groupPlan[idx].Type()}, nil
	}

	switch n := e.(type) {
	case *ast.Literal:
		return bindLiteral(n)
	case *ast.StarExpr:
		return nil, errs.NewBindError(errs.NonGroupedColumn, "* is not valid in a grouped select list")
	case *ast.ColumnRef:
		return nil, errs.NewBindError(errs.NonGroupedColumn, "column %q must appear in GROUP BY or inside an aggregate function", n.Name())
	case *ast.FuncCall:
		if p.b.reg.IsAggregateName(n.Name) {
			return p.bindAggregateCall(n)
		}
		args := make([]plan.Expr, len(n.Args))
		argTypes := make([]sqltypes.DataType, len(n.Args))
		for i, a := range n.Args {
			ae, err := p.bind(a)
			if err != nil {
				return nil, err
			}
			args[i] = ae
			argTypes[i] = ae.Type()
		}
		spec, ok := p.b.reg.LookupScalar(n.Name)
		if !ok {
			return nil, errs.NewBindError(errs.UnknownFunction, "unknown function %s", n.Name)
		}
		if !spec.Sig.CheckArity(len(args)) {
			return nil, errs.NewBindError(errs.ArityMismatch, "function %s called with %d arguments", n.Name, len(args))
		}
		return foldConstant(&plan.FuncCall{Name: n.Name, Args: args, Handler: spec.Handler, Typ: spec.Sig.ReturnOf(argTypes)}), nil
	case *ast.UnaryExpr:
		operand, err := p.bind(n.Operand)
		if err != nil {
			return nil, err
		}
		return buildUnary(n.Op, operand)
	case *ast.BinaryExpr:
		l, err := p.bind(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := p.bind(n.Right)
		if err != nil {
			return nil, err
		}
		return buildBinary(n.Op, l, r)
	case *ast.ParenExpr:
		return p.bind(n.Expr)
	case *ast.CastExpr:
		operand, err := p.bind(n.Expr)
		if err != nil {
			return nil, err
		}
		return buildCast(operand, n.Type)
	case *ast.CaseExpr:
		return p.bindCase(n)
	case *ast.InExpr:
		operand, err := p.bind(n.Expr)
		if err != nil {
			return nil, err
		}
		list := make([]plan.Expr, len(n.List))
		for i, item := range n.List {
			le, err := p.bind(item)
			if err != nil {
				return nil, err
			}
			list[i] = le
		}
		return &plan.In{Operand: operand, List: list, Not: n.Not}, nil
	case *ast.BetweenExpr:
		operand, err := p.bind(n.Expr)
		if err != nil {
			return nil, err
		}
		low, err := p.bind(n.Low)
		if err != nil {
			return nil, err
		}
		high, err := p.bind(n.High)
		if err != nil {
			return nil, err
		}
		return &plan.Between{Operand: operand, Low: low, High: high, Not: n.Not}, nil
	case *ast.LikeExpr:
		operand, err := p.bind(n.Expr)
		if err != nil {
			return nil, err
		}
		pattern, err := p.bind(n.Pattern)
		if err != nil {
			return nil, err
		}
		return &plan.Like{Operand: operand, Pattern: pattern, Not: n.Not}, nil
	case *ast.RegexpExpr:
		operand, err := p.bind(n.Expr)
		if err != nil {
			return nil, err
		}
		return buildRegexp(operand, n.Pattern, n.Not)
	case *ast.IsNullExpr:
		operand, err := p.bind(n.Expr)
		if err != nil {
			return nil, err
		}
		return &plan.IsNullExpr{Operand: operand, Not: n.Not}, nil
	case *ast.SubscriptExpr:
		operand, err := p.bind(n.Expr)
		if err != nil {
			return nil, err
		}
		index, err := p.bind(n.Index)
		if err != nil {
			return nil, err
		}
		return buildSubscript(operand, index)
	case *ast.FieldAccessExpr:
		operand, err := p.bind(n.Expr)
		if err != nil {
			return nil, err
		}
		return buildFieldAccess(operand, n.Field)
	default:
		return nil, errs.NewRuntimeError("binder: unhandled expr node %T", e)
	}
}

func (p *aggPlanner) bindCase(n *ast.CaseExpr) (plan.Expr, error) {
	var operand plan.Expr
	if n.Operand != nil {
		var err error
		operand, err = p.bind(n.Operand)
		if err != nil {
			return nil, err
		}
	}
	whens := make([]plan.WhenClause, len(n.Whens))
	var resultType sqltypes.DataType
	for i, w := range n.Whens {
		var cond plan.Expr
		var err error
		if operand != nil {
			val, err2 := p.bind(w.Cond)
			if err2 != nil {
				return nil, err2
			}
			cond, err = buildBinary(token.EQ, operand, val)
		} else {
			cond, err = p.bind(w.Cond)
		}
		if err != nil {
			return nil, err
		}
		then, err := p.bind(w.Result)
		if err != nil {
			return nil, err
		}
		whens[i] = plan.WhenClause{Cond: cond, Then: then}
		if i == 0 {
			resultType = then.Type()
		} else {
			resultType = sqltypes.WidestNumeric(resultType, then.Type())
		}
	}
	var elseExpr plan.Expr
	if n.Else != nil {
		var err error
		elseExpr, err = p.bind(n.Else)
		if err != nil {
			return nil, err
		}
		resultType = sqltypes.WidestNumeric(resultType, elseExpr.Type())
	}
	return &plan.Case{Whens: whens, Else: elseExpr, Typ: resultType}, nil
}

// bindAggregateCall binds one aggregate function invocation, appends
// its AggCall to p.aggs, and returns an AggRef pointing at the
// finalized slot the Aggregate operator will produce for it. Aggregate
// arguments are bound with the ordinary (non-aggregate-aware) scalar
// binder since nesting an aggregate inside another is illegal
// (spec.md §9 IllegalAggregate).
func (p *aggPlanner) bindAggregateCall(n *ast.FuncCall) (plan.Expr, error) {
	spec, ok := p.b.reg.LookupAgg(n.Name)
	if !ok {
		return nil, errs.NewBindError(errs.UnknownFunction, "unknown aggregate function %s", n.Name)
	}
	var args []plan.Expr
	var argTypes []sqltypes.DataType
	if n.Star {
		// count(*): no arguments, Update is told to count every row.
	} else {
		if !spec.Sig.CheckArity(len(n.Args)) {
			return nil, errs.NewBindError(errs.ArityMismatch, "aggregate %s called with %d arguments", n.Name, len(n.Args))
		}
		args = make([]plan.Expr, len(n.Args))
		argTypes = make([]sqltypes.DataType, len(n.Args))
		for i, a := range n.Args {
			if containsAggregateCall(a, p.b.reg) {
				return nil, errs.NewBindError(errs.IllegalAggregate, "aggregate functions cannot be nested")
			}
			ae, err := p.b.bindScalar(a, p.sc)
			if err != nil {
				return nil, err
			}
			args[i] = ae
			argTypes[i] = ae.Type()
		}
	}
	typ := spec.Sig.ReturnOf(argTypes)
	call := plan.AggCall{Name: n.Name, Args: args, NewAcc: spec.NewAcc, ArgTyps: argTypes, Typ: typ}
	p.aggs = append(p.aggs, call)
	return &plan.AggRef{Index: len(p.groupPlan) + len(p.aggs) - 1, Typ: typ}, nil
}

func containsAggregateCall(e ast.Expr, reg interface{ IsAggregateName(string) bool }) bool {
	found := false
	visitor.Inspect(e, func(n ast.Node) bool {
		if found {
			return false
		}
		if fc, ok := n.(*ast.FuncCall); ok && reg.IsAggregateName(fc.Name) {
			found = true
			return false
		}
		return true
	})
	return found
}
