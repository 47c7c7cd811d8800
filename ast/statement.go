package ast

import "github.com/retl-io/retl/token"

// Query is the parser's output: "queryPrimary = selectClause
// fromClause? lateralView? whereClause? aggregationClause?"
// (spec.md §4.1).
type Query struct {
	StartPos token.Pos
	EndPos   token.Pos
	Select   []*SelectItem
	From     TableExpr // nil if the query has no FROM (e.g. "select 1+1")
	Lateral  *LateralView
	Where    Expr
	GroupBy  []Expr
}

func (q *Query) Pos() token.Pos { return q.StartPos }
func (q *Query) End() token.Pos { return q.EndPos }
