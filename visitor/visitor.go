// Package visitor provides AST traversal, which the binder uses to
// find aggregate function calls in select-list expressions.
package visitor

import "github.com/retl-io/retl/ast"

// Visitor is the interface for AST traversal.
type Visitor interface {
	Visit(node ast.Node) Visitor
}

// Walk traverses an AST in depth-first order, the way go/ast.Walk
// does: v.Visit(node) is called first, and if it returns a non-nil
// visitor, Walk recurses into node's children with that visitor.
func Walk(v Visitor, node ast.Node) {
	if node == nil {
		return
	}
	if v = v.Visit(node); v == nil {
		return
	}
	walkChildren(v, node)
}

func walkChildren(v Visitor, node ast.Node) {
	switch n := node.(type) {
	case *ast.Query:
		for _, item := range n.Select {
			Walk(v, item)
		}
		if n.From != nil {
			Walk(v, n.From)
		}
		if n.Lateral != nil {
			Walk(v, n.Lateral)
		}
		if n.Where != nil {
			Walk(v, n.Where)
		}
		for _, expr := range n.GroupBy {
			Walk(v, expr)
		}
	case *ast.SelectItem:
		Walk(v, n.Expr)
	case *ast.SubqueryRef:
		Walk(v, n.Query)
	case *ast.LateralView:
		Walk(v, n.Generator)
	case *ast.BinaryExpr:
		Walk(v, n.Left)
		Walk(v, n.Right)
	case *ast.UnaryExpr:
		Walk(v, n.Operand)
	case *ast.ParenExpr:
		Walk(v, n.Expr)
	case *ast.FuncCall:
		for _, arg := range n.Args {
			Walk(v, arg)
		}
	case *ast.CastExpr:
		Walk(v, n.Expr)
	case *ast.CaseExpr:
		if n.Operand != nil {
			Walk(v, n.Operand)
		}
		for _, w := range n.Whens {
			Walk(v, w.Cond)
			Walk(v, w.Result)
		}
		if n.Else != nil {
			Walk(v, n.Else)
		}
	case *ast.InExpr:
		Walk(v, n.Expr)
		for _, e := range n.List {
			Walk(v, e)
		}
	case *ast.BetweenExpr:
		Walk(v, n.Expr)
		Walk(v, n.Low)
		Walk(v, n.High)
	case *ast.LikeExpr:
		Walk(v, n.Expr)
		Walk(v, n.Pattern)
	case *ast.RegexpExpr:
		Walk(v, n.Expr)
		Walk(v, n.Pattern)
	case *ast.IsNullExpr:
		Walk(v, n.Expr)
	case *ast.SubscriptExpr:
		Walk(v, n.Expr)
		Walk(v, n.Index)
	case *ast.FieldAccessExpr:
		Walk(v, n.Expr)
	case *ast.ColumnRef, *ast.Literal, *ast.StarExpr, *ast.TableRef:
		// leaves
	}
}

// Inspect is a convenience wrapper around Walk for a plain function,
// mirroring go/ast.Inspect: f is called for every node, and returning
// false skips that node's children.
func Inspect(node ast.Node, f func(ast.Node) bool) {
	Walk(inspector(f), node)
}

type inspector func(ast.Node) bool

func (f inspector) Visit(node ast.Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}
