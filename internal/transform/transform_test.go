package transform

import (
	"testing"

	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/sqltypes"
)

func mustSchema(t *testing.T, cols ...sqltypes.Column) sqltypes.Schema {
	t.Helper()
	s, err := sqltypes.NewSchema(cols...)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

func TestQuerySelectFilter(t *testing.T) {
	schema := mustSchema(t,
		sqltypes.Column{Name: "a", Type: sqltypes.TypeInt32},
		sqltypes.Column{Name: "b", Type: sqltypes.TypeString},
	)
	reg := functions.NewRegistry()
	q, err := NewQuery("select a, upper(b) as ub from t where a > 1", schema, reg)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	batch, err := sqltypes.NewRowBatch(schema, [][]sqltypes.Value{
		{sqltypes.NewInt32(1), sqltypes.NewString("x")},
		{sqltypes.NewInt32(2), sqltypes.NewString("y")},
		{sqltypes.NewInt32(3), sqltypes.NewString("z")},
	})
	if err != nil {
		t.Fatalf("NewRowBatch: %v", err)
	}
	out, err := q.Run(batch, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("got %d rows, want 2", out.NumRows())
	}
	if out.Rows[0][0].I32 != 2 || out.Rows[0][1].Str != "Y" {
		t.Errorf("got row 0 = %#v", out.Rows[0])
	}
	if out.Rows[1][0].I32 != 3 || out.Rows[1][1].Str != "Z" {
		t.Errorf("got row 1 = %#v", out.Rows[1])
	}
}

func TestQueryNullPropagation(t *testing.T) {
	schema := mustSchema(t, sqltypes.Column{Name: "a", Type: sqltypes.TypeInt32})
	reg := functions.NewRegistry()
	q, err := NewQuery("select a / 0 as div_zero, a = null as eq_null from t", schema, reg)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	batch, _ := sqltypes.NewRowBatch(schema, [][]sqltypes.Value{{sqltypes.NewInt32(5)}})
	out, err := q.Run(batch, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Rows[0][0].IsNull() {
		t.Errorf("expected division by zero to yield NULL, got %#v", out.Rows[0][0])
	}
	if !out.Rows[0][1].IsNull() {
		t.Errorf("expected comparison to NULL to yield NULL, got %#v", out.Rows[0][1])
	}
}

func TestTaskAggregateGroupBy(t *testing.T) {
	schema := mustSchema(t,
		sqltypes.Column{Name: "k", Type: sqltypes.TypeString},
		sqltypes.Column{Name: "v", Type: sqltypes.TypeInt64},
	)
	reg := functions.NewRegistry()
	agg, err := NewTaskAggregate("select k, sum(v) as total, count(*) as n from t group by k", schema, reg)
	if err != nil {
		t.Fatalf("NewTaskAggregate: %v", err)
	}
	batch, _ := sqltypes.NewRowBatch(schema, [][]sqltypes.Value{
		{sqltypes.NewString("a"), sqltypes.NewInt64(1)},
		{sqltypes.NewString("b"), sqltypes.NewInt64(2)},
		{sqltypes.NewString("a"), sqltypes.NewInt64(3)},
	})
	out, err := agg.Run(batch, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("got %d groups, want 2", out.NumRows())
	}
	byKey := map[string][2]int64{}
	for _, row := range out.Rows {
		byKey[row[0].Str] = [2]int64{row[1].I64, row[2].I64}
	}
	if byKey["a"] != [2]int64{4, 2} {
		t.Errorf("group a: got %v, want sum=4 count=2", byKey["a"])
	}
	if byKey["b"] != [2]int64{2, 1} {
		t.Errorf("group b: got %v, want sum=2 count=1", byKey["b"])
	}
}

func TestTaskAggregateRejectsNonAggregatingQuery(t *testing.T) {
	schema := mustSchema(t, sqltypes.Column{Name: "a", Type: sqltypes.TypeInt32})
	reg := functions.NewRegistry()
	if _, err := NewTaskAggregate("select a from t", schema, reg); err == nil {
		t.Fatal("expected an error for a non-aggregating task_aggregate query")
	}
}

func TestQueryLateralViewExplode(t *testing.T) {
	schema := mustSchema(t,
		sqltypes.Column{Name: "id", Type: sqltypes.TypeInt32},
		sqltypes.Column{Name: "tags", Type: sqltypes.ArrayOf(sqltypes.TypeString)},
	)
	reg := functions.NewRegistry()
	q, err := NewQuery(
		"select id, tag from t lateral view explode(tags) tv as tag",
		schema, reg,
	)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	batch, _ := sqltypes.NewRowBatch(schema, [][]sqltypes.Value{
		{sqltypes.NewInt32(1), sqltypes.NewArray([]sqltypes.Value{sqltypes.NewString("x"), sqltypes.NewString("y")})},
		{sqltypes.NewInt32(2), sqltypes.NewArray(nil)},
	})
	out, err := q.Run(batch, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("got %d rows, want 2 (id=2's empty array drops, non-outer)", out.NumRows())
	}
	if out.Rows[0][1].Str != "x" || out.Rows[1][1].Str != "y" {
		t.Errorf("got rows %#v", out.Rows)
	}
}

func TestNewTaskAggregateRejectsNonGroupedColumn(t *testing.T) {
	schema := mustSchema(t,
		sqltypes.Column{Name: "k", Type: sqltypes.TypeString},
		sqltypes.Column{Name: "v", Type: sqltypes.TypeInt64},
	)
	reg := functions.NewRegistry()
	if _, err := NewTaskAggregate("select k, v, sum(v) from t group by k", schema, reg); err == nil {
		t.Fatal("expected NonGroupedColumn error for ungrouped column v")
	}
}
