package connector

import (
	"context"
	"io"

	"github.com/retl-io/retl/internal/sqltypes"
)

// InlineSource replays a fixed set of literal rows exactly once, then
// reports io.EOF — the "inline" kind spec.md §6 uses for fixtures and
// worked examples with no external I/O at all.
type InlineSource struct {
	schema sqltypes.Schema
	batch  sqltypes.RowBatch
	served bool
}

// NewInlineSource builds an InlineSource over rows matching schema.
func NewInlineSource(schema sqltypes.Schema, rows [][]sqltypes.Value) (*InlineSource, error) {
	batch, err := sqltypes.NewRowBatch(schema, rows)
	if err != nil {
		return nil, err
	}
	return &InlineSource{schema: schema, batch: batch}, nil
}

func (s *InlineSource) Open(ctx context.Context) error { return nil }

func (s *InlineSource) Next(ctx context.Context) (sqltypes.RowBatch, error) {
	if s.served {
		return sqltypes.RowBatch{}, io.EOF
	}
	s.served = true
	return s.batch, nil
}

func (s *InlineSource) Close() error { return nil }
