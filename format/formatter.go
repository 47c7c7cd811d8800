// Package format renders parsed (unbound) AST expressions to the canonical
// name strings used for output columns that have no explicit alias
// (spec.md §6): operators render infix with spaces, function calls
// render "name(arg, ...)", "*" expands by name, and a bare column
// reference renders to its original identifier.
package format

import (
	"bytes"
	"strconv"

	"github.com/retl-io/retl/ast"
)

// CanonicalName renders expr the way the binder names an unaliased
// output column.
func CanonicalName(expr ast.Expr) string {
	f := &formatter{}
	f.write(expr)
	return f.buf.String()
}

type formatter struct {
	buf bytes.Buffer
}

func (f *formatter) write(expr ast.Expr) {
	switch n := expr.(type) {
	case *ast.ColumnRef:
		f.buf.WriteString(n.Name())
	case *ast.Literal:
		f.writeLiteral(n)
	case *ast.StarExpr:
		if n.Qualifier != "" {
			f.buf.WriteString(n.Qualifier)
			f.buf.WriteByte('.')
		}
		f.buf.WriteByte('*')
	case *ast.BinaryExpr:
		f.write(n.Left)
		f.buf.WriteByte(' ')
		f.buf.WriteString(n.Op.String())
		f.buf.WriteByte(' ')
		f.write(n.Right)
	case *ast.UnaryExpr:
		f.buf.WriteString(n.Op.String())
		f.write(n.Operand)
	case *ast.ParenExpr:
		f.buf.WriteByte('(')
		f.write(n.Expr)
		f.buf.WriteByte(')')
	case *ast.FuncCall:
		f.buf.WriteString(n.Name)
		f.buf.WriteByte('(')
		if n.Star {
			f.buf.WriteByte('*')
		}
		for i, arg := range n.Args {
			if i > 0 {
				f.buf.WriteString(", ")
			}
			f.write(arg)
		}
		f.buf.WriteByte(')')
	case *ast.CastExpr:
		f.buf.WriteString("cast(")
		f.write(n.Expr)
		f.buf.WriteString(" as ")
		f.buf.WriteString(typeName(n.Type))
		f.buf.WriteByte(')')
	case *ast.CaseExpr:
		f.buf.WriteString("case")
		if n.Operand != nil {
			f.buf.WriteByte(' ')
			f.write(n.Operand)
		}
		for _, w := range n.Whens {
			f.buf.WriteString(" when ")
			f.write(w.Cond)
			f.buf.WriteString(" then ")
			f.write(w.Result)
		}
		if n.Else != nil {
			f.buf.WriteString(" else ")
			f.write(n.Else)
		}
		f.buf.WriteString(" end")
	case *ast.InExpr:
		f.write(n.Expr)
		if n.Not {
			f.buf.WriteString(" not")
		}
		f.buf.WriteString(" in (")
		for i, e := range n.List {
			if i > 0 {
				f.buf.WriteString(", ")
			}
			f.write(e)
		}
		f.buf.WriteByte(')')
	case *ast.BetweenExpr:
		f.write(n.Expr)
		if n.Not {
			f.buf.WriteString(" not")
		}
		f.buf.WriteString(" between ")
		f.write(n.Low)
		f.buf.WriteString(" and ")
		f.write(n.High)
	case *ast.LikeExpr:
		f.write(n.Expr)
		if n.Not {
			f.buf.WriteString(" not")
		}
		f.buf.WriteString(" like ")
		f.write(n.Pattern)
	case *ast.RegexpExpr:
		f.write(n.Expr)
		if n.Not {
			f.buf.WriteString(" not")
		}
		f.buf.WriteString(" rlike ")
		f.write(n.Pattern)
	case *ast.IsNullExpr:
		f.write(n.Expr)
		f.buf.WriteString(" is ")
		if n.Not {
			f.buf.WriteString("not ")
		}
		f.buf.WriteString("null")
	case *ast.SubscriptExpr:
		f.write(n.Expr)
		f.buf.WriteByte('[')
		f.write(n.Index)
		f.buf.WriteByte(']')
	case *ast.FieldAccessExpr:
		f.write(n.Expr)
		f.buf.WriteByte('.')
		f.buf.WriteString(n.Field)
	}
}

func (f *formatter) writeLiteral(lit *ast.Literal) {
	switch lit.Kind {
	case ast.LiteralNull:
		f.buf.WriteString("null")
	case ast.LiteralString:
		f.buf.WriteByte('\'')
		f.buf.WriteString(lit.Text)
		f.buf.WriteByte('\'')
	default:
		f.buf.WriteString(lit.Text)
	}
}

func typeName(dt *ast.DataTypeNode) string {
	if dt == nil {
		return ""
	}
	switch dt.Kind {
	case ast.TypeInt32:
		return "int"
	case ast.TypeInt64:
		return "bigint"
	case ast.TypeFloat32:
		return "float"
	case ast.TypeFloat64:
		return "double"
	case ast.TypeDecimal:
		return "decimal(" + strconv.Itoa(dt.Precision) + "," + strconv.Itoa(dt.Scale) + ")"
	case ast.TypeString:
		return "string"
	case ast.TypeBytes:
		return "bytes"
	case ast.TypeBoolean:
		return "boolean"
	case ast.TypeTimestamp:
		return "timestamp"
	case ast.TypeArray:
		return "array<" + typeName(dt.Elem) + ">"
	case ast.TypeStruct:
		s := "struct<"
		for i, fld := range dt.Fields {
			if i > 0 {
				s += ", "
			}
			s += fld.Name + ":" + typeName(fld.Type)
		}
		return s + ">"
	default:
		return "null"
	}
}
