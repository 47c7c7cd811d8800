package binder

import (
	"testing"

	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/plan"
	"github.com/retl-io/retl/internal/sqltypes"
	"github.com/retl-io/retl/parser"
)

func mustBind(t *testing.T, sql string, schema sqltypes.Schema) (plan.Node, error) {
	t.Helper()
	q, err := parser.ParseQuery(sql)
	if err != nil {
		t.Fatalf("ParseQuery(%q): %v", sql, err)
	}
	return Bind(q, schema, functions.NewRegistry())
}

func testSchema(t *testing.T) sqltypes.Schema {
	t.Helper()
	s, err := sqltypes.NewSchema(
		sqltypes.Column{Name: "a", Type: sqltypes.TypeInt32},
		sqltypes.Column{Name: "b", Type: sqltypes.TypeString},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

func TestBindUnresolvedColumn(t *testing.T) {
	_, err := mustBind(t, "select c from t", testSchema(t))
	if err == nil {
		t.Fatal("expected an unresolved-column error")
	}
}

func TestBindUnknownFunction(t *testing.T) {
	_, err := mustBind(t, "select nope(a) from t", testSchema(t))
	if err == nil {
		t.Fatal("expected an unknown-function error")
	}
}

func TestBindArityMismatch(t *testing.T) {
	_, err := mustBind(t, "select upper(a, b) from t", testSchema(t))
	if err == nil {
		t.Fatal("expected an arity-mismatch error")
	}
}

func TestBindIllegalNestedAggregate(t *testing.T) {
	_, err := mustBind(t, "select sum(count(a)) from t group by b", testSchema(t))
	if err == nil {
		t.Fatal("expected an illegal-aggregate error for nested aggregates")
	}
}

func TestBindNonGroupedColumn(t *testing.T) {
	_, err := mustBind(t, "select a, sum(a) from t group by b", testSchema(t))
	if err == nil {
		t.Fatal("expected a non-grouped-column error")
	}
}

func TestBindGroupByPassesCanonicalMatch(t *testing.T) {
	_, err := mustBind(t, "select a, sum(a) from t group by a", testSchema(t))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
}

func TestBindWhereRejectsNonBoolean(t *testing.T) {
	_, err := mustBind(t, "select a from t where a", testSchema(t))
	if err == nil {
		t.Fatal("expected WHERE with a non-boolean expression to be rejected")
	}
}

func TestBindCaseExprWidensNumericType(t *testing.T) {
	node, err := mustBind(t, "select case when a > 0 then a else 1.5 end as x from t", testSchema(t))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	schema := node.OutputSchema()
	if schema.Len() != 1 || schema.Columns[0].Type.Kind != sqltypes.Float64 {
		t.Errorf("expected widened float64 result column, got %#v", schema.Columns)
	}
}
