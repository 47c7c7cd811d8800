package connector

import (
	"context"
	"log"

	"github.com/retl-io/retl/internal/sqltypes"
)

// PrintSink writes every row to a standard library *log.Logger, one
// line per row — the "print" kind used for local debugging pipelines
// (spec.md §6).
type PrintSink struct {
	log    *log.Logger
	prefix string
}

// NewPrintSink builds a PrintSink labelled prefix (typically the sink
// edge's configured name).
func NewPrintSink(logger *log.Logger, prefix string) *PrintSink {
	return &PrintSink{log: logger, prefix: prefix}
}

func (s *PrintSink) Open(ctx context.Context) error { return nil }

func (s *PrintSink) Write(ctx context.Context, batch sqltypes.RowBatch) error {
	for _, row := range batch.Rows {
		s.log.Printf("%s: %s", s.prefix, rowString(batch.Schema, row))
	}
	return nil
}

func (s *PrintSink) Close() error { return nil }

func rowString(schema sqltypes.Schema, row []sqltypes.Value) string {
	out := "{"
	for i, col := range schema.Columns {
		if i > 0 {
			out += ", "
		}
		out += col.Name + "=" + row[i].String()
	}
	return out + "}"
}
