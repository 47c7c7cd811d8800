package ast

import "github.com/retl-io/retl/token"

// ColumnRef represents a (possibly qualified) column reference, e.g.
// "id" or "t.id".
type ColumnRef struct {
	StartPos token.Pos
	EndPos   token.Pos
	Parts    []string // e.g. ["t", "id"] or just ["id"]
}

func (*ColumnRef) exprNode()        {}
func (c *ColumnRef) Pos() token.Pos { return c.StartPos }
func (c *ColumnRef) End() token.Pos { return c.EndPos }

// Name returns the column name (last part).
func (c *ColumnRef) Name() string { return c.Parts[len(c.Parts)-1] }

// Qualifier returns the relation qualifier ("" if unqualified).
func (c *ColumnRef) Qualifier() string {
	if len(c.Parts) < 2 {
		return ""
	}
	return c.Parts[len(c.Parts)-2]
}

// LiteralKind identifies the lexical kind of a Literal, which in turn
// drives the default numeric width the binder assigns it (spec.md §4.1:
// integer defaults to i32, L suffix to i64, decimal defaults to f64, F
// suffix to f32, D suffix to f64).
type LiteralKind int

const (
	LiteralNull LiteralKind = iota
	LiteralInt32
	LiteralInt64
	LiteralFloat32
	LiteralFloat64
	LiteralString
	LiteralBool
)

// Literal represents a literal value with its original source text.
type Literal struct {
	StartPos token.Pos
	EndPos   token.Pos
	Kind     LiteralKind
	Text     string // numeric text without suffix, or the string/bool value
}

func (*Literal) exprNode()        {}
func (l *Literal) Pos() token.Pos { return l.StartPos }
func (l *Literal) End() token.Pos { return l.EndPos }

// StarExpr represents * or qualifier.* in a select list, and bare *
// inside COUNT(*).
type StarExpr struct {
	StartPos  token.Pos
	EndPos    token.Pos
	Qualifier string // "" for bare *
}

func (*StarExpr) exprNode()        {}
func (s *StarExpr) Pos() token.Pos { return s.StartPos }
func (s *StarExpr) End() token.Pos { return s.EndPos }

// BinaryExpr represents a binary operator application.
type BinaryExpr struct {
	StartPos token.Pos
	EndPos   token.Pos
	Op       token.Token
	Left     Expr
	Right    Expr
}

func (*BinaryExpr) exprNode()        {}
func (b *BinaryExpr) Pos() token.Pos { return b.StartPos }
func (b *BinaryExpr) End() token.Pos { return b.EndPos }

// UnaryExpr represents a prefix operator application: -, +, ~, NOT.
type UnaryExpr struct {
	StartPos token.Pos
	EndPos   token.Pos
	Op       token.Token
	Operand  Expr
}

func (*UnaryExpr) exprNode()        {}
func (u *UnaryExpr) Pos() token.Pos { return u.StartPos }
func (u *UnaryExpr) End() token.Pos { return u.EndPos }

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	StartPos token.Pos
	EndPos   token.Pos
	Expr     Expr
}

func (*ParenExpr) exprNode()        {}
func (p *ParenExpr) Pos() token.Pos { return p.StartPos }
func (p *ParenExpr) End() token.Pos { return p.EndPos }

// FuncCall represents a function call, including aggregates.
type FuncCall struct {
	StartPos token.Pos
	EndPos   token.Pos
	Name     string
	Star     bool // COUNT(*)
	Args     []Expr
}

func (*FuncCall) exprNode()        {}
func (f *FuncCall) Pos() token.Pos { return f.StartPos }
func (f *FuncCall) End() token.Pos { return f.EndPos }

// CastExpr represents CAST(expr AS type).
type CastExpr struct {
	StartPos token.Pos
	EndPos   token.Pos
	Expr     Expr
	Type     *DataTypeNode
}

func (*CastExpr) exprNode()        {}
func (c *CastExpr) Pos() token.Pos { return c.StartPos }
func (c *CastExpr) End() token.Pos { return c.EndPos }

// When represents one WHEN cond THEN result arm of a CASE.
type When struct {
	Cond   Expr
	Result Expr
}

// CaseExpr represents both the simple and searched forms of CASE.
// Operand is nil for the searched form.
type CaseExpr struct {
	StartPos token.Pos
	EndPos   token.Pos
	Operand  Expr
	Whens    []*When
	Else     Expr
}

func (*CaseExpr) exprNode()        {}
func (c *CaseExpr) Pos() token.Pos { return c.StartPos }
func (c *CaseExpr) End() token.Pos { return c.EndPos }

// InExpr represents [NOT] IN (list).
type InExpr struct {
	StartPos token.Pos
	EndPos   token.Pos
	Expr     Expr
	Not      bool
	List     []Expr
}

func (*InExpr) exprNode()        {}
func (i *InExpr) Pos() token.Pos { return i.StartPos }
func (i *InExpr) End() token.Pos { return i.EndPos }

// BetweenExpr represents [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	StartPos token.Pos
	EndPos   token.Pos
	Expr     Expr
	Not      bool
	Low      Expr
	High     Expr
}

func (*BetweenExpr) exprNode()        {}
func (b *BetweenExpr) Pos() token.Pos { return b.StartPos }
func (b *BetweenExpr) End() token.Pos { return b.EndPos }

// LikeExpr represents [NOT] LIKE pattern.
type LikeExpr struct {
	StartPos token.Pos
	EndPos   token.Pos
	Expr     Expr
	Pattern  Expr
	Not      bool
}

func (*LikeExpr) exprNode()        {}
func (l *LikeExpr) Pos() token.Pos { return l.StartPos }
func (l *LikeExpr) End() token.Pos { return l.EndPos }

// RegexpExpr represents [NOT] RLIKE/REGEXP pattern.
type RegexpExpr struct {
	StartPos token.Pos
	EndPos   token.Pos
	Expr     Expr
	Pattern  Expr
	Not      bool
}

func (*RegexpExpr) exprNode()        {}
func (r *RegexpExpr) Pos() token.Pos { return r.StartPos }
func (r *RegexpExpr) End() token.Pos { return r.EndPos }

// IsNullExpr represents IS [NOT] NULL.
type IsNullExpr struct {
	StartPos token.Pos
	EndPos   token.Pos
	Expr     Expr
	Not      bool
}

func (*IsNullExpr) exprNode()        {}
func (i *IsNullExpr) Pos() token.Pos { return i.StartPos }
func (i *IsNullExpr) End() token.Pos { return i.EndPos }

// SubscriptExpr represents a 1-based array subscript e[index].
type SubscriptExpr struct {
	StartPos token.Pos
	EndPos   token.Pos
	Expr     Expr
	Index    Expr
}

func (*SubscriptExpr) exprNode()        {}
func (s *SubscriptExpr) Pos() token.Pos { return s.StartPos }
func (s *SubscriptExpr) End() token.Pos { return s.EndPos }

// FieldAccessExpr represents struct field dereference e.field applied
// to a non-column-reference atomic (a bare column's dotted parts are
// folded into ColumnRef.Parts instead).
type FieldAccessExpr struct {
	StartPos token.Pos
	EndPos   token.Pos
	Expr     Expr
	Field    string
}

func (*FieldAccessExpr) exprNode()        {}
func (f *FieldAccessExpr) Pos() token.Pos { return f.StartPos }
func (f *FieldAccessExpr) End() token.Pos { return f.EndPos }

// DataTypeKind enumerates the primitive and composite type shapes the
// schema-string and CAST grammars can produce.
type DataTypeKind int

const (
	TypeNull DataTypeKind = iota
	TypeBoolean
	TypeInt32
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeDecimal
	TypeString
	TypeBytes
	TypeTimestamp
	TypeArray
	TypeStruct
)

// StructField is one named member of a Struct data type.
type StructField struct {
	Name string
	Type *DataTypeNode
}

// DataTypeNode is the parsed form of a data type, produced by the CAST
// grammar, the schema-string grammar, and the ClickHouse column-type
// grammar (spec.md §6).
type DataTypeNode struct {
	Kind      DataTypeKind
	Precision int    // Decimal(p, s)
	Scale     int    // Decimal(p, s)
	Unit      string // Timestamp unit: sec|milli|micro|nano
	Elem      *DataTypeNode
	Fields    []StructField
	Nullable  bool // NOT NULL was absent
}
