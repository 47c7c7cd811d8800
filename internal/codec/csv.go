package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/retl-io/retl/internal/sqltypes"
)

// CSV encodes/decodes a RowBatch as comma-separated text using each
// Value's canonical printed form (sqltypes.Value.String), with a
// header row of column names.
type CSV struct{}

func (CSV) Encode(batch sqltypes.RowBatch) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := make([]string, len(batch.Schema.Columns))
	for i, c := range batch.Schema.Columns {
		header[i] = c.Name
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("codec/csv: %w", err)
	}
	for _, row := range batch.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			if v.IsNull() {
				rec[i] = ""
			} else {
				rec[i] = v.String()
			}
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("codec/csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("codec/csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (CSV) Decode(data []byte, schema sqltypes.Schema) (sqltypes.RowBatch, error) {
	r := csv.NewReader(bytes.NewReader(data))
	header, err := r.Read()
	if err == io.EOF {
		return sqltypes.NewRowBatch(schema, nil)
	}
	if err != nil {
		return sqltypes.RowBatch{}, fmt.Errorf("codec/csv: %w", err)
	}
	colIdx := make([]int, len(header))
	for i, name := range header {
		colIdx[i] = schema.IndexOf(name)
	}
	var rows [][]sqltypes.Value
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sqltypes.RowBatch{}, fmt.Errorf("codec/csv: %w", err)
		}
		row := make([]sqltypes.Value, schema.Len())
		for i, raw := range rec {
			idx := colIdx[i]
			if idx < 0 {
				continue
			}
			if raw == "" {
				row[idx] = sqltypes.Null
				continue
			}
			v, err := csvFieldValue(raw, schema.Columns[idx].Type)
			if err != nil {
				return sqltypes.RowBatch{}, fmt.Errorf("codec/csv: column %s: %w", schema.Columns[idx].Name, err)
			}
			row[idx] = v
		}
		rows = append(rows, row)
	}
	return sqltypes.NewRowBatch(schema, rows)
}

func csvFieldValue(raw string, typ sqltypes.DataType) (sqltypes.Value, error) {
	switch typ.Kind {
	case sqltypes.String:
		return sqltypes.NewString(raw), nil
	case sqltypes.Bytes:
		return sqltypes.NewBytes([]byte(raw)), nil
	case sqltypes.Boolean:
		return sqltypes.NewBool(raw == "true" || raw == "1"), nil
	case sqltypes.Int32:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return sqltypes.Null, err
		}
		return sqltypes.NewInt32(int32(n)), nil
	case sqltypes.Int64, sqltypes.Timestamp:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return sqltypes.Null, err
		}
		if typ.Kind == sqltypes.Timestamp {
			return sqltypes.NewTimestamp(n), nil
		}
		return sqltypes.NewInt64(n), nil
	case sqltypes.Float32:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return sqltypes.Null, err
		}
		return sqltypes.NewFloat32(float32(f)), nil
	case sqltypes.Float64, sqltypes.Decimal:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return sqltypes.Null, err
		}
		if typ.Kind == sqltypes.Decimal {
			return sqltypes.NewDecimal(f), nil
		}
		return sqltypes.NewFloat64(f), nil
	default:
		return sqltypes.Null, fmt.Errorf("csv does not support column type %s", typ)
	}
}
