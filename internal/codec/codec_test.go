package codec

import (
	"testing"

	"github.com/retl-io/retl/internal/sqltypes"
)

func testSchema(t *testing.T) sqltypes.Schema {
	t.Helper()
	s, err := sqltypes.NewSchema(
		sqltypes.Column{Name: "id", Type: sqltypes.TypeInt32},
		sqltypes.Column{Name: "name", Type: sqltypes.TypeString},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

func testBatch(t *testing.T, schema sqltypes.Schema) sqltypes.RowBatch {
	t.Helper()
	b, err := sqltypes.NewRowBatch(schema, [][]sqltypes.Value{
		{sqltypes.NewInt32(1), sqltypes.NewString("a")},
		{sqltypes.NewInt32(2), sqltypes.Null},
	})
	if err != nil {
		t.Fatalf("NewRowBatch: %v", err)
	}
	return b
}

func TestJSONRoundTrip(t *testing.T) {
	schema := testSchema(t)
	data, err := JSON{}.Encode(testBatch(t, schema))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := JSON{}.Decode(data, schema)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("got %d rows, want 2", out.NumRows())
	}
	if out.Rows[0][0].I32 != 1 || out.Rows[0][1].Str != "a" {
		t.Errorf("row 0: got %#v", out.Rows[0])
	}
	if !out.Rows[1][1].IsNull() {
		t.Errorf("row 1 name: expected NULL, got %#v", out.Rows[1][1])
	}
}

func TestCSVRoundTrip(t *testing.T) {
	schema := testSchema(t)
	data, err := CSV{}.Encode(testBatch(t, schema))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := CSV{}.Decode(data, schema)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("got %d rows, want 2", out.NumRows())
	}
	if out.Rows[0][0].I32 != 1 || out.Rows[0][1].Str != "a" {
		t.Errorf("row 0: got %#v", out.Rows[0])
	}
	if !out.Rows[1][1].IsNull() {
		t.Errorf("row 1 name: expected NULL for empty CSV field, got %#v", out.Rows[1][1])
	}
}

func TestRawRequiresSingleBytesColumn(t *testing.T) {
	schema, err := sqltypes.NewSchema(sqltypes.Column{Name: "payload", Type: sqltypes.TypeBytes})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	batch, err := sqltypes.NewRowBatch(schema, [][]sqltypes.Value{{sqltypes.NewBytes([]byte("hello"))}})
	if err != nil {
		t.Fatalf("NewRowBatch: %v", err)
	}
	data, err := Raw{}.Encode(batch)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q, want \"hello\"", data)
	}
	out, err := Raw{}.Decode(data, schema)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.NumRows() != 1 || string(out.Rows[0][0].Bytes) != "hello" {
		t.Errorf("got %#v", out.Rows)
	}
}

func TestByNameDispatch(t *testing.T) {
	for _, name := range []string{"json", "", "csv", "raw", "msgpack", "protobuf"} {
		if _, ok := ByName(name); !ok {
			t.Errorf("ByName(%q): expected a codec, got none", name)
		}
	}
	if _, ok := ByName("nope"); ok {
		t.Error("ByName(\"nope\"): expected no codec")
	}
}
