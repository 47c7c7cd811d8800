package parser

import (
	"testing"

	"github.com/retl-io/retl/ast"
)

func mustParse(t *testing.T, sql string) *ast.Query {
	t.Helper()
	q, err := ParseQuery(sql)
	if err != nil {
		t.Fatalf("ParseQuery(%q): %v", sql, err)
	}
	return q
}

func TestParseSimpleSelect(t *testing.T) {
	q := mustParse(t, "select a, b as bee from tbl where a > 1")
	if len(q.Select) != 2 {
		t.Fatalf("got %d select items", len(q.Select))
	}
	if q.Select[0].Alias != "" {
		t.Errorf("expected no alias for first item, got %q", q.Select[0].Alias)
	}
	if q.Select[1].Alias != "bee" {
		t.Errorf("expected alias bee, got %q", q.Select[1].Alias)
	}
	tbl, ok := q.From.(*ast.TableRef)
	if !ok || tbl.Name != "tbl" {
		t.Fatalf("got From = %#v", q.From)
	}
	if q.Where == nil {
		t.Fatal("expected WHERE clause")
	}
}

func TestParseStarAndQualifiedStar(t *testing.T) {
	q := mustParse(t, "select *, t.* from tbl t")
	if _, ok := q.Select[0].Expr.(*ast.StarExpr); !ok {
		t.Fatalf("got %#v", q.Select[0].Expr)
	}
	star, ok := q.Select[1].Expr.(*ast.StarExpr)
	if !ok || star.Qualifier != "t" {
		t.Fatalf("got %#v", q.Select[1].Expr)
	}
	tbl := q.From.(*ast.TableRef)
	if tbl.Alias != "t" {
		t.Fatalf("got alias %q", tbl.Alias)
	}
}

func TestParsePrecedence(t *testing.T) {
	q := mustParse(t, "select 1 + 2 * 3")
	bin, ok := q.Select[0].Expr.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("got %#v", q.Select[0].Expr)
	}
	if _, ok := bin.Right.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected 2*3 to bind tighter, got %#v", bin)
	}
}

func TestParseLogicalAndComparison(t *testing.T) {
	q := mustParse(t, "select 1 from tbl where a = 1 and b <=> null or c is not null")
	if q.Where == nil {
		t.Fatal("expected WHERE")
	}
	or, ok := q.Where.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("got %#v", q.Where)
	}
	if _, ok := or.Right.(*ast.IsNullExpr); !ok {
		t.Fatalf("got right = %#v", or.Right)
	}
}

func TestParseBetweenLikeIn(t *testing.T) {
	q := mustParse(t, "select 1 from tbl where a between 1 and 10 and b not like 'x%' and c in (1, 2, 3)")
	// Left-associative: (a between 1 and 10 and b not like 'x%') and c in (...)
	top, ok := q.Where.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("got %#v", q.Where)
	}
	if _, ok := top.Right.(*ast.InExpr); !ok {
		t.Fatalf("got right = %#v", top.Right)
	}
	inner, ok := top.Left.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("got left = %#v", top.Left)
	}
	if _, ok := inner.Left.(*ast.BetweenExpr); !ok {
		t.Fatalf("got inner left = %#v", inner.Left)
	}
	if like, ok := inner.Right.(*ast.LikeExpr); !ok || !like.Not {
		t.Fatalf("got inner right = %#v", inner.Right)
	}
}

func TestParseCaseExpr(t *testing.T) {
	q := mustParse(t, "select case when a > 1 then 'big' else 'small' end from tbl")
	c, ok := q.Select[0].Expr.(*ast.CaseExpr)
	if !ok {
		t.Fatalf("got %#v", q.Select[0].Expr)
	}
	if c.Operand != nil {
		t.Errorf("expected searched CASE, got operand %#v", c.Operand)
	}
	if len(c.Whens) != 1 || c.Else == nil {
		t.Fatalf("got %#v", c)
	}
}

func TestParseCast(t *testing.T) {
	q := mustParse(t, "select cast(a as bigint) from tbl")
	c, ok := q.Select[0].Expr.(*ast.CastExpr)
	if !ok {
		t.Fatalf("got %#v", q.Select[0].Expr)
	}
	if c.Type.Kind != ast.TypeInt64 {
		t.Fatalf("got kind %v", c.Type.Kind)
	}
}

func TestParseFuncCallAndCountStar(t *testing.T) {
	q := mustParse(t, "select count(*), upper(a) from tbl")
	count, ok := q.Select[0].Expr.(*ast.FuncCall)
	if !ok || !count.Star {
		t.Fatalf("got %#v", q.Select[0].Expr)
	}
	upper, ok := q.Select[1].Expr.(*ast.FuncCall)
	if !ok || upper.Name != "upper" || len(upper.Args) != 1 {
		t.Fatalf("got %#v", q.Select[1].Expr)
	}
}

func TestParseLateralView(t *testing.T) {
	q := mustParse(t, "select a, v from tbl lateral view outer explode(arr) tv as v where a > 0")
	if q.Lateral == nil {
		t.Fatal("expected LateralView")
	}
	if !q.Lateral.Outer {
		t.Error("expected OUTER")
	}
	if q.Lateral.Generator.Name != "explode" {
		t.Errorf("got generator %q", q.Lateral.Generator.Name)
	}
	if q.Lateral.ViewAlias != "tv" || len(q.Lateral.Columns) != 1 || q.Lateral.Columns[0] != "v" {
		t.Fatalf("got %#v", q.Lateral)
	}
}

func TestParseGroupBy(t *testing.T) {
	q := mustParse(t, "select a, sum(b) from tbl group by a")
	if len(q.GroupBy) != 1 {
		t.Fatalf("got %d group by exprs", len(q.GroupBy))
	}
}

func TestParseSubscriptAndFieldAccess(t *testing.T) {
	q := mustParse(t, "select arr[1], s.field from tbl")
	if _, ok := q.Select[0].Expr.(*ast.SubscriptExpr); !ok {
		t.Fatalf("got %#v", q.Select[0].Expr)
	}
	col, ok := q.Select[1].Expr.(*ast.ColumnRef)
	if !ok || col.Name() != "field" || col.Qualifier() != "s" {
		t.Fatalf("got %#v", q.Select[1].Expr)
	}
}

func TestParseSubquery(t *testing.T) {
	q := mustParse(t, "select a from (select a from inner_tbl) as sub")
	sub, ok := q.From.(*ast.SubqueryRef)
	if !ok || sub.Alias != "sub" {
		t.Fatalf("got %#v", q.From)
	}
	if sub.Query == nil || len(sub.Query.Select) != 1 {
		t.Fatalf("got %#v", sub.Query)
	}
}

func TestParseErrorOnEmptySelectList(t *testing.T) {
	_, err := ParseQuery("select from")
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseSchemaStringForms(t *testing.T) {
	dt, err := ParseSchemaString("struct<a:int,b:string>")
	if err != nil {
		t.Fatalf("ParseSchemaString: %v", err)
	}
	if dt.Kind != ast.TypeStruct || len(dt.Fields) != 2 {
		t.Fatalf("got %#v", dt)
	}

	dt2, err := ParseSchemaString("a int not null, b string")
	if err != nil {
		t.Fatalf("ParseSchemaString: %v", err)
	}
	if len(dt2.Fields) != 2 || dt2.Fields[0].Type.Nullable {
		t.Fatalf("got %#v", dt2)
	}
}

func TestParseClickHouseTypes(t *testing.T) {
	dt, err := ParseClickHouseType("Nullable(Array(Int64))")
	if err != nil {
		t.Fatalf("ParseClickHouseType: %v", err)
	}
	if !dt.Nullable || dt.Kind != ast.TypeArray || dt.Elem.Kind != ast.TypeInt64 {
		t.Fatalf("got %#v", dt)
	}
}
