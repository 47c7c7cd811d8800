package codec

import (
	"fmt"

	"github.com/retl-io/retl/internal/sqltypes"
)

// Raw is the passthrough codec for a single-column bytes schema: one
// payload becomes one row with one Bytes value and vice versa. It is
// the codec a UDP source/sink uses when the wire format itself is
// opaque to the engine (spec.md §6 domain stack, "raw").
type Raw struct{}

func (Raw) Encode(batch sqltypes.RowBatch) ([]byte, error) {
	if batch.Schema.Len() != 1 || batch.Schema.Columns[0].Type.Kind != sqltypes.Bytes {
		return nil, fmt.Errorf("codec/raw: requires a single bytes column, got schema %v", batch.Schema.Columns)
	}
	if len(batch.Rows) != 1 {
		return nil, fmt.Errorf("codec/raw: encodes exactly one row per payload, got %d", len(batch.Rows))
	}
	return batch.Rows[0][0].Bytes, nil
}

func (Raw) Decode(data []byte, schema sqltypes.Schema) (sqltypes.RowBatch, error) {
	if schema.Len() != 1 || schema.Columns[0].Type.Kind != sqltypes.Bytes {
		return sqltypes.RowBatch{}, fmt.Errorf("codec/raw: requires a single bytes column, got schema %v", schema.Columns)
	}
	return sqltypes.NewRowBatch(schema, [][]sqltypes.Value{{sqltypes.NewBytes(data)}})
}
