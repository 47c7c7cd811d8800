package connector

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/retl-io/retl/internal/sqltypes"
)

func testSchema(t *testing.T) sqltypes.Schema {
	t.Helper()
	s, err := sqltypes.NewSchema(sqltypes.Column{Name: "id", Type: sqltypes.TypeInt32})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

func TestInlineSourceServesOnceThenEOF(t *testing.T) {
	schema := testSchema(t)
	src, err := NewInlineSource(schema, [][]sqltypes.Value{{sqltypes.NewInt32(1)}, {sqltypes.NewInt32(2)}})
	if err != nil {
		t.Fatalf("NewInlineSource: %v", err)
	}
	ctx := context.Background()
	batch, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if batch.NumRows() != 2 {
		t.Fatalf("got %d rows, want 2", batch.NumRows())
	}
	if _, err := src.Next(ctx); err != io.EOF {
		t.Errorf("second Next: got %v, want io.EOF", err)
	}
}

func TestPrintSinkWritesEachRow(t *testing.T) {
	schema := testSchema(t)
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	sink := NewPrintSink(logger, "out")
	batch, err := sqltypes.NewRowBatch(schema, [][]sqltypes.Value{{sqltypes.NewInt32(1)}, {sqltypes.NewInt32(2)}})
	if err != nil {
		t.Fatalf("NewRowBatch: %v", err)
	}
	if err := sink.Write(context.Background(), batch); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "out: {id=1}") || !strings.Contains(out, "out: {id=2}") {
		t.Errorf("got output:\n%s", out)
	}
}

func TestConfigAccessors(t *testing.T) {
	cfg := Config{"host": "localhost", "topics": []interface{}{"a", "b"}, "batch_size": 10}
	if got := cfg.str("host", "x"); got != "localhost" {
		t.Errorf("str: got %q", got)
	}
	if got := cfg.str("missing", "fallback"); got != "fallback" {
		t.Errorf("str default: got %q", got)
	}
	if got := cfg.intVal("batch_size", 1); got != 10 {
		t.Errorf("intVal: got %d", got)
	}
	if got := cfg.strSlice("topics"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("strSlice: got %#v", got)
	}
}
