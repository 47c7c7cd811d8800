package codec

import (
	"fmt"

	"github.com/retl-io/retl/internal/sqltypes"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Protobuf encodes/decodes a RowBatch through structpb's dynamic
// Struct/Value wire format rather than per-schema generated message
// types, since schemas here are defined at runtime by the pipeline
// config rather than compiled .proto files (spec.md §6 domain stack).
type Protobuf struct{}

func (Protobuf) Encode(batch sqltypes.RowBatch) ([]byte, error) {
	docs := make([]interface{}, len(batch.Rows))
	for i, row := range batch.Rows {
		doc := make(map[string]interface{}, len(batch.Schema.Columns))
		for j, col := range batch.Schema.Columns {
			doc[col.Name] = toNative(row[j])
		}
		docs[i] = doc
	}
	list, err := structpb.NewList(docs)
	if err != nil {
		return nil, fmt.Errorf("codec/protobuf: %w", err)
	}
	data, err := proto.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("codec/protobuf: %w", err)
	}
	return data, nil
}

func (Protobuf) Decode(data []byte, schema sqltypes.Schema) (sqltypes.RowBatch, error) {
	var list structpb.ListValue
	if err := proto.Unmarshal(data, &list); err != nil {
		return sqltypes.RowBatch{}, fmt.Errorf("codec/protobuf: %w", err)
	}
	docs := list.AsSlice()
	rows := make([][]sqltypes.Value, len(docs))
	for i, raw := range docs {
		doc, ok := raw.(map[string]interface{})
		if !ok {
			return sqltypes.RowBatch{}, fmt.Errorf("codec/protobuf: expected struct element, got %T", raw)
		}
		row := make([]sqltypes.Value, schema.Len())
		for j, col := range schema.Columns {
			v, err := fromNative(doc[col.Name], col.Type)
			if err != nil {
				return sqltypes.RowBatch{}, fmt.Errorf("codec/protobuf: column %s: %w", col.Name, err)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return sqltypes.NewRowBatch(schema, rows)
}
