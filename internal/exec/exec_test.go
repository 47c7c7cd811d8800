package exec

import (
	"testing"

	"github.com/retl-io/retl/internal/functions"
	"github.com/retl-io/retl/internal/plan"
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

func TestLateralViewOuterPadsNulls(t *testing.T) {
	inSchema := mustSchema(t,
		sqltypes.Column{Name: "id", Type: sqltypes.TypeInt32},
		sqltypes.Column{Name: "tags", Type: sqltypes.ArrayOf(sqltypes.TypeString)},
	)
	rows := [][]sqltypes.Value{
		{sqltypes.NewInt32(1), sqltypes.NewArray([]sqltypes.Value{sqltypes.NewString("a"), sqltypes.NewString("b")})},
		{sqltypes.NewInt32(2), sqltypes.NewArray(nil)},
	}
	in, err := sqltypes.NewRowBatch(inSchema, rows)
	if err != nil {
		t.Fatalf("NewRowBatch: %v", err)
	}

	outSchema := mustSchema(t,
		sqltypes.Column{Name: "id", Type: sqltypes.TypeInt32},
		sqltypes.Column{Name: "tags", Type: sqltypes.ArrayOf(sqltypes.TypeString)},
		sqltypes.Column{Name: "tag", Type: sqltypes.TypeString},
	)
	lv := &plan.LateralView{
		Generator: plan.Generator{
			Name:       "explode",
			Args:       []plan.Expr{&plan.ColumnRef{Index: 1, Typ: sqltypes.ArrayOf(sqltypes.TypeString)}},
			OutputCols: []sqltypes.Column{{Name: "tag", Type: sqltypes.TypeString}},
		},
		Alias:  "t",
		Outer:  true,
		Input:  &plan.Source{Schema: inSchema},
		Schema: outSchema,
	}

	fctx := &functions.Context{}
	out, err := RunWithInput(lv, in, fctx)
	if err != nil {
		t.Fatalf("RunWithInput: %v", err)
	}
	if out.NumRows() != 3 {
		t.Fatalf("got %d rows, want 3 (2 exploded + 1 padded)", out.NumRows())
	}
	last := out.Rows[2]
	if last[0].I32 != 2 {
		t.Errorf("padded row id: got %#v, want 2", last[0])
	}
	if !last[2].IsNull() {
		t.Errorf("padded row tag: got %#v, want NULL", last[2])
	}
}

func TestLateralViewInnerDropsEmptyGenerator(t *testing.T) {
	inSchema := mustSchema(t,
		sqltypes.Column{Name: "id", Type: sqltypes.TypeInt32},
		sqltypes.Column{Name: "tags", Type: sqltypes.ArrayOf(sqltypes.TypeString)},
	)
	rows := [][]sqltypes.Value{
		{sqltypes.NewInt32(1), sqltypes.NewArray(nil)},
	}
	in, err := sqltypes.NewRowBatch(inSchema, rows)
	if err != nil {
		t.Fatalf("NewRowBatch: %v", err)
	}
	outSchema := mustSchema(t,
		sqltypes.Column{Name: "id", Type: sqltypes.TypeInt32},
		sqltypes.Column{Name: "tags", Type: sqltypes.ArrayOf(sqltypes.TypeString)},
		sqltypes.Column{Name: "tag", Type: sqltypes.TypeString},
	)
	lv := &plan.LateralView{
		Generator: plan.Generator{
			Name:       "explode",
			Args:       []plan.Expr{&plan.ColumnRef{Index: 1, Typ: sqltypes.ArrayOf(sqltypes.TypeString)}},
			OutputCols: []sqltypes.Column{{Name: "tag", Type: sqltypes.TypeString}},
		},
		Alias:  "t",
		Outer:  false,
		Input:  &plan.Source{Schema: inSchema},
		Schema: outSchema,
	}
	fctx := &functions.Context{}
	out, err := RunWithInput(lv, in, fctx)
	if err != nil {
		t.Fatalf("RunWithInput: %v", err)
	}
	if out.NumRows() != 0 {
		t.Errorf("non-outer lateral view over empty array: got %d rows, want 0", out.NumRows())
	}
}

func TestFilterDropsFalseAndUnknown(t *testing.T) {
	inSchema := mustSchema(t, sqltypes.Column{Name: "v", Type: sqltypes.TypeBoolean})
	rows := [][]sqltypes.Value{
		{sqltypes.NewBool(true)},
		{sqltypes.NewBool(false)},
		{sqltypes.Null},
	}
	in, err := sqltypes.NewRowBatch(inSchema, rows)
	if err != nil {
		t.Fatalf("NewRowBatch: %v", err)
	}
	f := &plan.Filter{
		Predicate: &plan.ColumnRef{Index: 0, Typ: sqltypes.TypeBoolean},
		Input:     &plan.Source{Schema: inSchema},
	}
	fctx := &functions.Context{}
	out, err := RunWithInput(f, in, fctx)
	if err != nil {
		t.Fatalf("RunWithInput: %v", err)
	}
	if out.NumRows() != 1 {
		t.Errorf("filter true/false/unknown: got %d rows, want 1", out.NumRows())
	}
}
