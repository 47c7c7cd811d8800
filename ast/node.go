// Package ast defines the abstract syntax tree produced by the parser:
// a Query rooted at a select list, an optional FROM, an optional
// LATERAL VIEW, an optional WHERE, and an optional GROUP BY, plus the
// expression tree shared by all of those clauses.
package ast

import "github.com/retl-io/retl/token"

// Node is the base interface for all AST nodes.
type Node interface {
	Pos() token.Pos
	End() token.Pos
}

// Expr represents an expression.
type Expr interface {
	Node
	exprNode()
}

// TableExpr represents a FROM-clause table reference.
type TableExpr interface {
	Node
	tableExprNode()
}
