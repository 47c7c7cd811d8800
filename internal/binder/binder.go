// Package binder is the semantic analyzer (spec.md §4.2): it resolves
// identifiers and function names against the schema in scope, assigns
// and checks types, desugars the simple CASE form, precompiles regular
// expressions, folds constant subexpressions, and decides the
// aggregation shape of a query, producing a bound plan.Node tree that
// internal/exec can run directly against any number of input batches.
package binder

import (
	"strings"

	"github.com/retl-io/retl/ast"
	"github.com/retl-io/retl/format"
	"github.com/retl-io/retl/internal/errs"
	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/plan"
	"github.com/retl-io/retl/internal/sqltypes"
	"github.com/retl-io/retl/visitor"
)

// Bind compiles query against inputSchema into a physical plan,
// raising a BindError (or RuntimeError for an internal inconsistency)
// once, at plan-build time, rather than per row (spec.md §7).
func Bind(query *ast.Query, inputSchema sqltypes.Schema, reg *functions.Registry) (plan.Node, error) {
	b := &binder{reg: reg}

	var node plan.Node = &plan.Source{Schema: inputSchema}
	sc := newScope()

	relationLabel := ""
	switch from := query.From.(type) {
	case nil:
	case *ast.TableRef:
		relationLabel = from.Alias
		if relationLabel == "" {
			relationLabel = from.Name
		}
	case *ast.SubqueryRef:
		return nil, errs.NewBindError(errs.UnsupportedFeature, "subquery sources are not executable by this single-stream engine")
	default:
		return nil, errs.NewRuntimeError("binder: unhandled table expr %T", query.From)
	}
	if relationLabel != "" {
		sc.addFromSchema(inputSchema, relationLabel)
	} else {
		sc.addFromSchema(inputSchema)
	}

	if query.Lateral != nil {
		var err error
		node, sc, err = bindLateralView(b, query.Lateral, node, sc)
		if err != nil {
			return nil, err
		}
	}

	if query.Where != nil {
		pred, err := b.bindScalar(query.Where, sc)
		if err != nil {
			return nil, err
		}
		if pred.Type().Kind != sqltypes.Boolean && pred.Type().Kind != sqltypes.NullKind {
			return nil, errs.NewBindError(errs.ArgumentTypeMismatch, "WHERE requires a boolean expression, got %s", pred.Type())
		}
		node = &plan.Filter{Predicate: pred, Input: node}
	}

	isAgg := len(query.GroupBy) > 0 || selectListHasAggregate(query.Select, reg)
	if !isAgg {
		return bindProject(b, query.Select, node, sc)
	}
	return bindAggregate(b, query, node, sc)
}

func selectListHasAggregate(items []*ast.SelectItem, reg *functions.Registry) bool {
	for _, item := range items {
		found := false
		visitor.Inspect(item.Expr, func(n ast.Node) bool {
			if found {
				return false
			}
			if fc, ok := n.(*ast.FuncCall); ok && reg.IsAggregateName(fc.Name) {
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

func bindLateralView(b *binder, lv *ast.LateralView, input plan.Node, sc *scope) (plan.Node, *scope, error) {
	gen := lv.Generator
	args := make([]plan.Expr, len(gen.Args))
	argTypes := make([]sqltypes.DataType, len(gen.Args))
	for i, a := range gen.Args {
		ae, err := b.bindScalar(a, sc)
		if err != nil {
			return nil, nil, err
		}
		args[i] = ae
		argTypes[i] = ae.Type()
	}

	var outCols []sqltypes.Column
	switch strings.ToLower(gen.Name) {
	case "explode":
		if len(argTypes) != 1 || argTypes[0].Kind != sqltypes.Array {
			return nil, nil, errs.NewBindError(errs.ArgumentTypeMismatch, "explode requires a single array argument")
		}
		if len(lv.Columns) != 1 {
			return nil, nil, errs.NewBindError(errs.ArityMismatch, "explode produces exactly one column, got %d names", len(lv.Columns))
		}
		outCols = []sqltypes.Column{{Name: lv.Columns[0], Type: *argTypes[0].Elem}}
	case "path_file_unroll":
		if len(argTypes) < 1 || len(argTypes) > 2 {
			return nil, nil, errs.NewBindError(errs.ArityMismatch, "path_file_unroll takes 1 or 2 arguments")
		}
		if len(lv.Columns) != 2 {
			return nil, nil, errs.NewBindError(errs.ArityMismatch, "path_file_unroll produces exactly two columns, got %d names", len(lv.Columns))
		}
		outCols = []sqltypes.Column{
			{Name: lv.Columns[0], Type: sqltypes.TypeString},
			{Name: lv.Columns[1], Type: sqltypes.TypeString},
		}
	default:
		return nil, nil, errs.NewBindError(errs.UnknownFunction, "unknown LATERAL VIEW generator %s", gen.Name)
	}

	baseSchema := input.OutputSchema()
	extendedSchema, err := baseSchema.Append(outCols...)
	if err != nil {
		return nil, nil, errs.NewBindError(errs.AmbiguousColumn, "%v", err)
	}

	newScope2 := newScope()
	newScope2.cols = append(newScope2.cols, sc.cols...)
	for _, c := range outCols {
		newScope2.add(c.Name, c.Type, lv.ViewAlias)
	}

	node := &plan.LateralView{
		Generator: plan.Generator{Name: strings.ToLower(gen.Name), Args: args, OutputCols: outCols},
		Alias:     lv.ViewAlias,
		Outer:     lv.Outer,
		Input:     input,
		Schema:    extendedSchema,
	}
	return node, newScope2, nil
}

func bindProject(b *binder, items []*ast.SelectItem, input plan.Node, sc *scope) (plan.Node, error) {
	var named []plan.NamedExpr
	for _, item := range items {
		if star, ok := item.Expr.(*ast.StarExpr); ok {
			for _, c := range sc.expandStar(star.Qualifier) {
				named = append(named, plan.NamedExpr{Name: c.Name, Expr: &plan.ColumnRef{Index: c.Index, Typ: c.Type, Name: c.Name}})
			}
			continue
		}
		bound, err := b.bindScalar(item.Expr, sc)
		if err != nil {
			return nil, err
		}
		name := item.Alias
		if name == "" {
			name = format.CanonicalName(item.Expr)
		}
		named = append(named, plan.NamedExpr{Name: name, Expr: bound})
	}
	cols := make([]sqltypes.Column, len(named))
	for i, ne := range named {
		cols[i] = sqltypes.Column{Name: ne.Name, Type: ne.Expr.Type()}
	}
	schema, err := sqltypes.NewSchema(cols...)
	if err != nil {
		return nil, errs.NewBindError(errs.AmbiguousColumn, "%v", err)
	}
	return &plan.Project{Exprs: named, Input: input, Schema: schema}, nil
}

func bindAggregate(b *binder, query *ast.Query, input plan.Node, sc *scope) (plan.Node, error) {
	groupAst := query.GroupBy
	groupPlan := make([]plan.Expr, len(groupAst))
	groupNames := make([]string, len(groupAst))
	for i, ge := range groupAst {
		bound, err := b.bindScalar(ge, sc)
		if err != nil {
			return nil, err
		}
		groupPlan[i] = bound
		groupNames[i] = format.CanonicalName(ge)
	}

	planner := &aggPlanner{b: b, sc: sc, groupAst: groupAst, groupPlan: groupPlan}

	type boundItem struct {
		name string
		expr plan.Expr
	}
	var items []boundItem
	for _, item := range query.Select {
		if _, ok := item.Expr.(*ast.StarExpr); ok {
			return nil, errs.NewBindError(errs.NonGroupedColumn, "* is not valid in a grouped select list")
		}
		bound, err := planner.bind(item.Expr)
		if err != nil {
			return nil, err
		}
		name := item.Alias
		if name == "" {
			name = format.CanonicalName(item.Expr)
		}
		items = append(items, boundItem{name: name, expr: bound})
	}

	aggCols := make([]sqltypes.Column, len(groupPlan)+len(planner.aggs))
	for i, ge := range groupPlan {
		aggCols[i] = sqltypes.Column{Name: groupNames[i], Type: ge.Type()}
	}
	for i, ac := range planner.aggs {
		aggCols[len(groupPlan)+i] = sqltypes.Column{Name: ac.Name, Type: ac.Typ}
	}
	aggSchema, err := sqltypes.NewSchema(aggCols...)
	if err != nil {
		return nil, errs.NewBindError(errs.AmbiguousColumn, "%v", err)
	}

	aggNode := &plan.Aggregate{
		GroupExprs: groupPlan,
		GroupNames: groupNames,
		Aggs:       planner.aggs,
		Input:      input,
		Schema:     aggSchema,
	}

	named := make([]plan.NamedExpr, len(items))
	projCols := make([]sqltypes.Column, len(items))
	for i, it := range items {
		named[i] = plan.NamedExpr{Name: it.name, Expr: it.expr}
		projCols[i] = sqltypes.Column{Name: it.name, Type: it.expr.Type()}
	}
	projSchema, err := sqltypes.NewSchema(projCols...)
	if err != nil {
		return nil, errs.NewBindError(errs.AmbiguousColumn, "%v", err)
	}
	return &plan.Project{Exprs: named, Input: aggNode, Schema: projSchema}, nil
}
