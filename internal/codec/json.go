package codec

import (
	"encoding/json"
	"fmt"

	"github.com/retl-io/retl/internal/sqltypes"
)

// JSON encodes/decodes a RowBatch as a JSON array of objects, one per
// row, keyed by column name.
type JSON struct{}

func (JSON) Encode(batch sqltypes.RowBatch) ([]byte, error) {
	docs := make([]map[string]interface{}, len(batch.Rows))
	for i, row := range batch.Rows {
		doc := make(map[string]interface{}, len(batch.Schema.Columns))
		for j, col := range batch.Schema.Columns {
			doc[col.Name] = toNative(row[j])
		}
		docs[i] = doc
	}
	return json.Marshal(docs)
}

func (JSON) Decode(data []byte, schema sqltypes.Schema) (sqltypes.RowBatch, error) {
	var docs []map[string]interface{}
	if err := json.Unmarshal(data, &docs); err != nil {
		return sqltypes.RowBatch{}, fmt.Errorf("codec/json: %w", err)
	}
	rows := make([][]sqltypes.Value, len(docs))
	for i, doc := range docs {
		row := make([]sqltypes.Value, schema.Len())
		for j, col := range schema.Columns {
			v, err := fromNative(doc[col.Name], col.Type)
			if err != nil {
				return sqltypes.RowBatch{}, fmt.Errorf("codec/json: column %s: %w", col.Name, err)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return sqltypes.NewRowBatch(schema, rows)
}
