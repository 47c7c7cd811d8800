package binder

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/retl-io/retl/ast"
	"github.com/retl-io/retl/internal/errs"
	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/plan"
	"github.com/retl-io/retl/internal/sqltypes"
	"github.com/retl-io/retl/token"
)

// binder holds the shared, read-only state for one Bind call:
// the function registry and the pre-aggregate scope. Aggregate-mode
// state (group expressions, collected AggCalls) lives on an
// aggPlanner rather than here, so a binder is reusable
// across every clause of a query.
type binder struct {
	reg *functions.Registry
}

// bindScalar binds e against sc, disallowing aggregate function calls
// entirely. This is the only expression binder used for WHERE,
// LATERAL VIEW generator arguments, GROUP BY expressions, and
// aggregate-function argument lists (spec.md §9 "no nested
// aggregates").
func (b *binder) bindScalar(e ast.Expr, sc *scope) (plan.Expr, error) {
	switch n := e.(type) {
	case *ast.ColumnRef:
		return b.resolveColumnRef(n, sc)
	case *ast.Literal:
		return bindLiteral(n)
	case *ast.StarExpr:
		return nil, errs.NewBindError(errs.UnresolvedColumn, "* is only valid in a select list")
	case *ast.UnaryExpr:
		operand, err := b.bindScalar(n.Operand, sc)
		if err != nil {
			return nil, err
		}
		return buildUnary(n.Op, operand)
	case *ast.BinaryExpr:
		l, err := b.bindScalar(n.Left, sc)
		if err != nil {
			return nil, err
		}
		r, err := b.bindScalar(n.Right, sc)
		if err != nil {
			return nil, err
		}
		return buildBinary(n.Op, l, r)
	case *ast.ParenExpr:
		return b.bindScalar(n.Expr, sc)
	case *ast.CastExpr:
		operand, err := b.bindScalar(n.Expr, sc)
		if err != nil {
			return nil, err
		}
		return buildCast(operand, n.Type)
	case *ast.CaseExpr:
		return b.bindCase(n, sc)
	case *ast.FuncCall:
		if b.reg.IsAggregateName(n.Name) {
			return nil, errs.NewBindError(errs.IllegalAggregate, "aggregate function %s is not allowed here", n.Name)
		}
		return b.bindFuncCall(n, sc)
	case *ast.InExpr:
		operand, err := b.bindScalar(n.Expr, sc)
		if err != nil {
			return nil, err
		}
		list := make([]plan.Expr, len(n.List))
		for i, item := range n.List {
			le, err := b.bindScalar(item, sc)
			if err != nil {
				return nil, err
			}
			list[i] = le
		}
		return &plan.In{Operand: operand, List: list, Not: n.Not}, nil
	case *ast.BetweenExpr:
		operand, err := b.bindScalar(n.Expr, sc)
		if err != nil {
			return nil, err
		}
		low, err := b.bindScalar(n.Low, sc)
		if err != nil {
			return nil, err
		}
		high, err := b.bindScalar(n.High, sc)
		if err != nil {
			return nil, err
		}
		return &plan.Between{Operand: operand, Low: low, High: high, Not: n.Not}, nil
	case *ast.LikeExpr:
		operand, err := b.bindScalar(n.Expr, sc)
		if err != nil {
			return nil, err
		}
		pattern, err := b.bindScalar(n.Pattern, sc)
		if err != nil {
			return nil, err
		}
		return &plan.Like{Operand: operand, Pattern: pattern, Not: n.Not}, nil
	case *ast.RegexpExpr:
		operand, err := b.bindScalar(n.Expr, sc)
		if err != nil {
			return nil, err
		}
		return buildRegexp(operand, n.Pattern, n.Not)
	case *ast.IsNullExpr:
		operand, err := b.bindScalar(n.Expr, sc)
		if err != nil {
			return nil, err
		}
		return &plan.IsNullExpr{Operand: operand, Not: n.Not}, nil
	case *ast.SubscriptExpr:
		operand, err := b.bindScalar(n.Expr, sc)
		if err != nil {
			return nil, err
		}
		index, err := b.bindScalar(n.Index, sc)
		if err != nil {
			return nil, err
		}
		return buildSubscript(operand, index)
	case *ast.FieldAccessExpr:
		operand, err := b.bindScalar(n.Expr, sc)
		if err != nil {
			return nil, err
		}
		return buildFieldAccess(operand, n.Field)
	default:
		return nil, errs.NewRuntimeError("binder: unhandled expr node %T", e)
	}
}

func (b *binder) resolveColumnRef(n *ast.ColumnRef, sc *scope) (plan.Expr, error) {
	parts := n.Parts
	if len(parts) == 1 {
		matches := sc.byName(parts[0])
		if len(matches) == 0 {
			return nil, errs.NewBindError(errs.UnresolvedColumn, "unresolved column %q", parts[0])
		}
		if len(matches) > 1 {
			return nil, errs.NewBindError(errs.AmbiguousColumn, "column %q is ambiguous", parts[0])
		}
		c := matches[0]
		return &plan.ColumnRef{Index: c.Index, Typ: c.Type, Name: c.Name}, nil
	}

	matches := sc.byQualifiedName(parts[0], parts[1])
	var base plan.Expr
	var rest []string
	if len(matches) == 1 {
		c := matches[0]
		base = &plan.ColumnRef{Index: c.Index, Typ: c.Type, Name: c.Name}
		rest = parts[2:]
	} else if len(matches) > 1 {
		return nil, errs.NewBindError(errs.AmbiguousColumn, "column %s.%s is ambiguous", parts[0], parts[1])
	} else {
		single := sc.byName(parts[0])
		if len(single) == 0 {
			return nil, errs.NewBindError(errs.UnresolvedColumn, "unresolved column %q", parts[0])
		}
		if len(single) > 1 {
			return nil, errs.NewBindError(errs.AmbiguousColumn, "column %q is ambiguous", parts[0])
		}
		c := single[0]
		base = &plan.ColumnRef{Index: c.Index, Typ: c.Type, Name: c.Name}
		rest = parts[1:]
	}
	var err error
	for _, field := range rest {
		base, err = buildFieldAccess(base, field)
		if err != nil {
			return nil, err
		}
	}
	return base, nil
}

func bindLiteral(n *ast.Literal) (plan.Expr, error) {
	switch n.Kind {
	case ast.LiteralNull:
		return &plan.Literal{Value: sqltypes.Null, Typ: sqltypes.TypeNull}, nil
	case ast.LiteralBool:
		return &plan.Literal{Value: sqltypes.NewBool(n.Text == "true"), Typ: sqltypes.TypeBoolean}, nil
	case ast.LiteralString:
		return &plan.Literal{Value: sqltypes.NewString(n.Text), Typ: sqltypes.TypeString}, nil
	case ast.LiteralInt32:
		i, err := strconv.ParseInt(n.Text, 10, 32)
		if err != nil {
			return nil, errs.NewRuntimeError("binder: invalid int literal %q: %v", n.Text, err)
		}
		return &plan.Literal{Value: sqltypes.NewInt32(int32(i)), Typ: sqltypes.TypeInt32}, nil
	case ast.LiteralInt64:
		i, err := strconv.ParseInt(n.Text, 10, 64)
		if err != nil {
			return nil, errs.NewRuntimeError("binder: invalid bigint literal %q: %v", n.Text, err)
		}
		return &plan.Literal{Value: sqltypes.NewInt64(i), Typ: sqltypes.TypeInt64}, nil
	case ast.LiteralFloat32:
		f, err := strconv.ParseFloat(n.Text, 32)
		if err != nil {
			return nil, errs.NewRuntimeError("binder: invalid float literal %q: %v", n.Text, err)
		}
		return &plan.Literal{Value: sqltypes.NewFloat32(float32(f)), Typ: sqltypes.TypeFloat32}, nil
	case ast.LiteralFloat64:
		f, err := strconv.ParseFloat(n.Text, 64)
		if err != nil {
			return nil, errs.NewRuntimeError("binder: invalid double literal %q: %v", n.Text, err)
		}
		return &plan.Literal{Value: sqltypes.NewFloat64(f), Typ: sqltypes.TypeFloat64}, nil
	default:
		return nil, errs.NewRuntimeError("binder: unhandled literal kind %v", n.Kind)
	}
}

func opText(op token.Token) string {
	switch op {
	case token.EQ:
		return "="
	case token.NEQ:
		return "<>"
	case token.LT:
		return "<"
	case token.LTE:
		return "<="
	case token.GT:
		return ">"
	case token.GTE:
		return ">="
	case token.NULLSAFE:
		return "<=>"
	case token.PLUS:
		return "+"
	case token.MINUS:
		return "-"
	case token.ASTERISK:
		return "*"
	case token.SLASH:
		return "/"
	case token.PERCENT:
		return "%"
	case token.CONCAT:
		return "||"
	case token.BITAND:
		return "&"
	case token.BITOR:
		return "|"
	case token.BITXOR:
		return "^"
	case token.BITNOT:
		return "~"
	case token.LSHIFT:
		return "<<"
	case token.RSHIFT:
		return ">>"
	case token.URSHIFT:
		return ">>>"
	case token.AND:
		return "and"
	case token.OR:
		return "or"
	case token.NOT:
		return "not"
	default:
		return op.String()
	}
}

func buildUnary(op token.Token, operand plan.Expr) (plan.Expr, error) {
	text := opText(op)
	typ := operand.Type()
	switch text {
	case "not":
		typ = sqltypes.TypeBoolean
	case "~":
		typ = sqltypes.TypeInt64
	case "-", "+":
		if !typ.IsNumeric() && typ.Kind != sqltypes.NullKind {
			return nil, errs.NewBindError(errs.ArgumentTypeMismatch, "unary %s requires a numeric operand, got %s", text, typ)
		}
	}
	return foldConstant(&plan.Unary{Op: text, Operand: operand, Typ: typ}), nil
}

func buildBinary(op token.Token, l, r plan.Expr) (plan.Expr, error) {
	text := opText(op)
	switch text {
	case "and", "or":
		return foldConstant(&plan.Binary{Op: text, Left: l, Right: r, Typ: sqltypes.TypeBoolean}), nil
	case "=", "<>", "<", "<=", ">", ">=", "<=>":
		return foldConstant(&plan.Binary{Op: text, Left: l, Right: r, Typ: sqltypes.TypeBoolean}), nil
	case "+", "-", "*", "/", "%":
		lt, rt := l.Type(), r.Type()
		if !(lt.IsNumeric() || lt.Kind == sqltypes.NullKind) || !(rt.IsNumeric() || rt.Kind == sqltypes.NullKind) {
			return nil, errs.NewBindError(errs.ArgumentTypeMismatch, "arithmetic %s requires numeric operands, got %s and %s", text, lt, rt)
		}
		return foldConstant(&plan.Binary{Op: text, Left: l, Right: r, Typ: sqltypes.WidestNumeric(lt, rt)}), nil
	case "||":
		return foldConstant(&plan.Binary{Op: text, Left: l, Right: r, Typ: sqltypes.TypeString}), nil
	case "&", "|", "^", "<<", ">>", ">>>":
		return foldConstant(&plan.Binary{Op: text, Left: l, Right: r, Typ: sqltypes.TypeInt64}), nil
	default:
		return nil, errs.NewRuntimeError("binder: unhandled binary op %q", text)
	}
}

func buildCast(operand plan.Expr, typeNode *ast.DataTypeNode) (plan.Expr, error) {
	typ, err := dataTypeFromAST(typeNode)
	if err != nil {
		return nil, err
	}
	return foldConstant(&plan.Cast{Operand: operand, Typ: typ}), nil
}

// dataTypeFromAST delegates to sqltypes.FromASTNode, which both CAST
// binding and schema-string resolution (schemastring.go) share.
func dataTypeFromAST(n *ast.DataTypeNode) (sqltypes.DataType, error) {
	return sqltypes.FromASTNode(n)
}

func (b *binder) bindCase(n *ast.CaseExpr, sc *scope) (plan.Expr, error) {
	var operand plan.Expr
	if n.Operand != nil {
		var err error
		operand, err = b.bindScalar(n.Operand, sc)
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
			// Simple CASE: WHEN value desugars to operand = value.
			val, err2 := b.bindScalar(w.Cond, sc)
			if err2 != nil {
				return nil, err2
			}
			cond, err = buildBinary(token.EQ, operand, val)
		} else {
			cond, err = b.bindScalar(w.Cond, sc)
		}
		if err != nil {
			return nil, err
		}
		then, err := b.bindScalar(w.Result, sc)
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
		elseExpr, err = b.bindScalar(n.Else, sc)
		if err != nil {
			return nil, err
		}
		resultType = sqltypes.WidestNumeric(resultType, elseExpr.Type())
	}
	return &plan.Case{Whens: whens, Else: elseExpr, Typ: resultType}, nil
}

func (b *binder) bindFuncCall(n *ast.FuncCall, sc *scope) (plan.Expr, error) {
	if n.Star {
		return nil, errs.NewBindError(errs.IllegalAggregate, "%s(*) is only valid in an aggregated select list", n.Name)
	}
	spec, ok := b.reg.LookupScalar(n.Name)
	if !ok {
		return nil, errs.NewBindError(errs.UnknownFunction, "unknown function %s", n.Name)
	}
	if !spec.Sig.CheckArity(len(n.Args)) {
		return nil, errs.NewBindError(errs.ArityMismatch, "function %s called with %d arguments", n.Name, len(n.Args))
	}
	args := make([]plan.Expr, len(n.Args))
	argTypes := make([]sqltypes.DataType, len(n.Args))
	for i, a := range n.Args {
		ae, err := b.bindScalar(a, sc)
		if err != nil {
			return nil, err
		}
		args[i] = ae
		argTypes[i] = ae.Type()
	}
	name := strings.ToLower(n.Name)

	// A literal regexp_replace/regexp_extract pattern is validated at
	// bind time, same as RLIKE (buildRegexp below): an invalid pattern
	// built from a non-constant expression still only surfaces as an
	// eval-time RegexError→NULL (spec.md §9 Open Question decision).
	if name == "regexp_replace" || name == "regexp_extract" {
		if lit, ok := args[1].(*plan.Literal); ok && lit.Value.Kind == sqltypes.String {
			if _, err := regexp.Compile(lit.Value.Str); err != nil {
				return nil, errs.NewBindError(errs.InvalidRegex, "invalid regular expression %q: %v", lit.Value.Str, err)
			}
		}
	}

	typ := spec.Sig.ReturnOf(argTypes)
	// from_json's result type depends on its schema-string argument's
	// literal value, not its static type, so it's resolved here rather
	// than through Signature.ReturnOf: a non-constant schema argument
	// falls back to the registry's generic (untyped NULL) return.
	if name == "from_json" {
		if lit, ok := args[1].(*plan.Literal); ok && lit.Value.Kind == sqltypes.String {
			dt, err := ResolveSchemaType(lit.Value.Str)
			if err != nil {
				return nil, err
			}
			typ = dt
		}
	}

	node := &plan.FuncCall{Name: name, Args: args, Handler: spec.Handler, Typ: typ}
	return foldConstant(node), nil
}

func buildRegexp(operand plan.Expr, patternNode ast.Expr, not bool) (plan.Expr, error) {
	lit, ok := patternNode.(*ast.Literal)
	if !ok || lit.Kind != ast.LiteralString {
		return nil, errs.NewBindError(errs.InvalidRegex, "RLIKE/REGEXP pattern must be a string literal")
	}
	re, err := regexp.Compile(lit.Text)
	if err != nil {
		return nil, errs.NewBindError(errs.InvalidRegex, "invalid regular expression %q: %v", lit.Text, err)
	}
	return &plan.Regexp{Operand: operand, Compiled: re, Not: not}, nil
}

func buildSubscript(operand, index plan.Expr) (plan.Expr, error) {
	if operand.Type().Kind != sqltypes.Array && operand.Type().Kind != sqltypes.NullKind {
		return nil, errs.NewBindError(errs.ArgumentTypeMismatch, "subscript requires an array operand, got %s", operand.Type())
	}
	typ := sqltypes.TypeNull
	if operand.Type().Elem != nil {
		typ = *operand.Type().Elem
	}
	return &plan.Subscript{Operand: operand, Index: index, Typ: typ}, nil
}

func buildFieldAccess(operand plan.Expr, field string) (plan.Expr, error) {
	if operand.Type().Kind != sqltypes.Struct && operand.Type().Kind != sqltypes.NullKind {
		return nil, errs.NewBindError(errs.ArgumentTypeMismatch, "field access requires a struct operand, got %s", operand.Type())
	}
	typ := sqltypes.TypeNull
	for _, f := range operand.Type().Fields {
		if f.Name == field {
			typ = f.Type
			break
		}
	}
	return &plan.FieldAccess{Operand: operand, Field: field, Typ: typ}, nil
}
