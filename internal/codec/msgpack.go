package codec

import (
	"fmt"

	"github.com/retl-io/retl/internal/sqltypes"
	msgpack "gopkg.in/vmihailenco/msgpack.v2"
)

// Msgpack encodes/decodes a RowBatch as a msgpack array of maps, the
// same shape JSON uses but with msgpack's compact binary framing —
// the format Kafka-fed pipelines favor over JSON for throughput
// (spec.md §6 domain stack, "msgpack").
type Msgpack struct{}

func (Msgpack) Encode(batch sqltypes.RowBatch) ([]byte, error) {
	docs := make([]map[string]interface{}, len(batch.Rows))
	for i, row := range batch.Rows {
		doc := make(map[string]interface{}, len(batch.Schema.Columns))
		for j, col := range batch.Schema.Columns {
			doc[col.Name] = toNative(row[j])
		}
		docs[i] = doc
	}
	data, err := msgpack.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("codec/msgpack: %w", err)
	}
	return data, nil
}

func (Msgpack) Decode(data []byte, schema sqltypes.Schema) (sqltypes.RowBatch, error) {
	var docs []map[string]interface{}
	if err := msgpack.Unmarshal(data, &docs); err != nil {
		return sqltypes.RowBatch{}, fmt.Errorf("codec/msgpack: %w", err)
	}
	rows := make([][]sqltypes.Value, len(docs))
	for i, doc := range docs {
		row := make([]sqltypes.Value, schema.Len())
		for j, col := range schema.Columns {
			v, err := fromNative(doc[col.Name], col.Type)
			if err != nil {
				return sqltypes.RowBatch{}, fmt.Errorf("codec/msgpack: column %s: %w", col.Name, err)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return sqltypes.NewRowBatch(schema, rows)
}
