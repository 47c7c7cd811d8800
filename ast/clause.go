package ast

import "github.com/retl-io/retl/token"

// TableRef is a FROM-clause table name with an optional alias.
type TableRef struct {
	StartPos token.Pos
	EndPos   token.Pos
	Name     string
	Alias    string
}

func (*TableRef) tableExprNode()   {}
func (t *TableRef) Pos() token.Pos { return t.StartPos }
func (t *TableRef) End() token.Pos { return t.EndPos }

// SubqueryRef is a FROM-clause parenthesized subquery with an optional
// alias.
type SubqueryRef struct {
	StartPos token.Pos
	EndPos   token.Pos
	Query    *Query
	Alias    string
}

func (*SubqueryRef) tableExprNode()   {}
func (s *SubqueryRef) Pos() token.Pos { return s.StartPos }
func (s *SubqueryRef) End() token.Pos { return s.EndPos }

// SelectItem is one entry of the select list: an expression with an
// optional explicit alias (spec.md §4.1 "named expressions").
type SelectItem struct {
	StartPos token.Pos
	EndPos   token.Pos
	Expr     Expr
	Alias    string // "" if no AS clause was given
}

func (s *SelectItem) Pos() token.Pos { return s.StartPos }
func (s *SelectItem) End() token.Pos { return s.EndPos }

// LateralView represents "LATERAL VIEW [OUTER] generator(args) alias AS
// col1 [, col2 ...]" (spec.md §4.1).
type LateralView struct {
	StartPos  token.Pos
	EndPos    token.Pos
	Outer     bool
	Generator *FuncCall
	ViewAlias string
	Columns   []string
}

func (l *LateralView) Pos() token.Pos { return l.StartPos }
func (l *LateralView) End() token.Pos { return l.EndPos }
