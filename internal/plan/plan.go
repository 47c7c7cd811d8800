// Package plan defines the bound (post-binder) logical plan shape:
// typed expression trees and the four physical-operator node kinds
// named in spec.md §4.2 — Project, Filter, LateralView, Aggregate —
// layered over a Source leaf carrying the input schema.
//
// Plan trees are built exactly once per query by internal/binder and
// are read-only thereafter; internal/exec walks them per batch.
package plan

import (
	"regexp"

	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/sqltypes"
)

// Expr is a bound (typed, resolved) scalar expression node.
type Expr interface {
	Type() sqltypes.DataType
}

// ColumnRef resolves to a fixed input-row position.
type ColumnRef struct {
	Index int
	Typ   sqltypes.DataType
	Name  string // for diagnostics and canonical naming only
}

func (e *ColumnRef) Type() sqltypes.DataType { return e.Typ }

// Literal is a constant value, either written directly in the query
// or produced by bind-time constant folding (spec.md §9).
type Literal struct {
	Value sqltypes.Value
	Typ   sqltypes.DataType
}

func (e *Literal) Type() sqltypes.DataType { return e.Typ }

// Unary is a prefix operator: "-", "+", "~", "not".
type Unary struct {
	Op      string
	Operand Expr
	Typ     sqltypes.DataType
}

func (e *Unary) Type() sqltypes.DataType { return e.Typ }

// Binary covers arithmetic, bitwise, shift, comparison, and logical
// two-operand operators.
type Binary struct {
	Op          string
	Left, Right Expr
	Typ         sqltypes.DataType
}

func (e *Binary) Type() sqltypes.DataType { return e.Typ }

// Cast converts Operand to Typ (spec.md §4.5's coercion table).
type Cast struct {
	Operand Expr
	Typ     sqltypes.DataType
}

func (e *Cast) Type() sqltypes.DataType { return e.Typ }

// WhenClause is one WHEN/THEN arm of a Case.
type WhenClause struct {
	Cond Expr // already ANDed with Case.Operand = Cond equality for the simple form
	Then Expr
}

// Case is CASE [operand] WHEN cond THEN then ... [ELSE else] END,
// already desugared to the searched form: the binder rewrites the
// simple form's WHEN values into Operand = value conditions so exec
// only ever evaluates boolean Cond arms.
type Case struct {
	Whens []WhenClause
	Else  Expr // nil means ELSE NULL
	Typ   sqltypes.DataType
}

func (e *Case) Type() sqltypes.DataType { return e.Typ }

// FuncCall is a resolved, arity-checked scalar function invocation.
type FuncCall struct {
	Name    string
	Args    []Expr
	Handler functions.Handler
	Typ     sqltypes.DataType
}

func (e *FuncCall) Type() sqltypes.DataType { return e.Typ }

// Like is LIKE/ILIKE with NULL propagation; Not inverts the result
// after NULL handling (spec.md §4.3).
type Like struct {
	Operand, Pattern Expr
	CaseInsensitive  bool
	Not              bool
}

func (e *Like) Type() sqltypes.DataType { return sqltypes.TypeBoolean }

// Regexp is RLIKE/REGEXP; Compiled is precompiled at bind time so a
// malformed pattern surfaces as BindError.InvalidRegex rather than a
// per-row failure (spec.md §9).
type Regexp struct {
	Operand  Expr
	Compiled *regexp.Regexp
	Not      bool
}

func (e *Regexp) Type() sqltypes.DataType { return sqltypes.TypeBoolean }

// Between is [NOT] BETWEEN Low AND High.
type Between struct {
	Operand, Low, High Expr
	Not                bool
}

func (e *Between) Type() sqltypes.DataType { return sqltypes.TypeBoolean }

// In is [NOT] IN (List...).
type In struct {
	Operand Expr
	List    []Expr
	Not     bool
}

func (e *In) Type() sqltypes.DataType { return sqltypes.TypeBoolean }

// IsNullExpr is IS [NOT] NULL; this is the one predicate that never
// itself yields Unknown.
type IsNullExpr struct {
	Operand Expr
	Not     bool
}

func (e *IsNullExpr) Type() sqltypes.DataType { return sqltypes.TypeBoolean }

// Subscript is 1-based array indexing, e[i]; out-of-range yields NULL
// rather than an error (spec.md §4.3).
type Subscript struct {
	Operand, Index Expr
	Typ            sqltypes.DataType
}

func (e *Subscript) Type() sqltypes.DataType { return e.Typ }

// FieldAccess is struct member dereference, e.field.
type FieldAccess struct {
	Operand Expr
	Field   string
	Typ     sqltypes.DataType
}

func (e *FieldAccess) Type() sqltypes.DataType { return e.Typ }

// AggRef refers, by position, into the row an Aggregate operator has
// already finalized — used by a residual Project expression sitting
// over an Aggregate, e.g. sum(x)/count(1) where sum and count are two
// separate accumulator slots finalized first.
type AggRef struct {
	Index int
	Typ   sqltypes.DataType
}

func (e *AggRef) Type() sqltypes.DataType { return e.Typ }

// NamedExpr pairs a bound expression with its output column name
// (explicit alias or the canonical-name rendering, spec.md §6).
type NamedExpr struct {
	Name string
	Expr Expr
}

// Node is a bound physical-plan operator.
type Node interface {
	OutputSchema() sqltypes.Schema
}

// Source is the plan leaf: the input RowBatch's schema, unmodified.
type Source struct {
	Schema sqltypes.Schema
}

func (n *Source) OutputSchema() sqltypes.Schema { return n.Schema }

// Project evaluates Exprs against each input row (spec.md §4.2).
type Project struct {
	Exprs  []NamedExpr
	Input  Node
	Schema sqltypes.Schema
}

func (n *Project) OutputSchema() sqltypes.Schema { return n.Schema }

// Filter drops rows whose Predicate is not True (False or Unknown are
// both dropped, spec.md §4.4).
type Filter struct {
	Predicate Expr
	Input     Node
}

func (n *Filter) OutputSchema() sqltypes.Schema { return n.Input.OutputSchema() }

// Generator is a bound LATERAL VIEW generator invocation.
type Generator struct {
	Name string
	Args []Expr
	// OutputCols is the generator's own output schema (e.g. one column
	// for explode, two for path_file_unroll).
	OutputCols []sqltypes.Column
}

// LateralView unrolls Generator once per input row, cross-joining its
// output columns onto the row; Outer pads with NULLs instead of
// dropping the row when the generator produces zero rows (spec.md §4.2).
type LateralView struct {
	Generator Generator
	Alias     string
	Outer     bool
	Input     Node
	Schema    sqltypes.Schema
}

func (n *LateralView) OutputSchema() sqltypes.Schema { return n.Schema }

// AggCall is one resolved aggregate call: the accumulator factory
// plus its (already-bound) argument expressions.
type AggCall struct {
	Name    string
	Args    []Expr
	NewAcc  func(argTypes []sqltypes.DataType) functions.Accumulator
	ArgTyps []sqltypes.DataType
	Typ     sqltypes.DataType
}

// Aggregate hash-groups input rows by GroupExprs and finalizes one
// accumulator per AggCalls entry per group (spec.md §4.4); it is
// always the last physical operator over its input — single batch,
// no windowing.
type Aggregate struct {
	GroupExprs []Expr
	GroupNames []string
	Aggs       []AggCall
	Input      Node
	Schema     sqltypes.Schema
}

func (n *Aggregate) OutputSchema() sqltypes.Schema { return n.Schema }
