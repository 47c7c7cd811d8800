package connector

import (
	"context"
	"io"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/retl-io/retl/internal/sqltypes"
)

// FakerSource synthesizes RowBatches of a given schema using
// gofakeit, one batch of BatchSize rows per Next call, for NumBatches
// calls total — the "faker" kind spec.md §6 names for load-testing and
// demo pipelines with no real upstream system.
type FakerSource struct {
	schema     sqltypes.Schema
	batchSize  int
	numBatches int
	emitted    int
}

// NewFakerSource builds a FakerSource that will emit numBatches
// batches of batchSize rows each, shaped by schema.
func NewFakerSource(schema sqltypes.Schema, batchSize, numBatches int) *FakerSource {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &FakerSource{schema: schema, batchSize: batchSize, numBatches: numBatches}
}

func (s *FakerSource) Open(ctx context.Context) error { return nil }

func (s *FakerSource) Next(ctx context.Context) (sqltypes.RowBatch, error) {
	if s.numBatches > 0 && s.emitted >= s.numBatches {
		return sqltypes.RowBatch{}, io.EOF
	}
	rows := make([][]sqltypes.Value, s.batchSize)
	for i := range rows {
		row := make([]sqltypes.Value, s.schema.Len())
		for j, col := range s.schema.Columns {
			row[j] = fakeValue(col.Type)
		}
		rows[i] = row
	}
	s.emitted++
	return sqltypes.NewRowBatch(s.schema, rows)
}

func (s *FakerSource) Close() error { return nil }

func fakeValue(typ sqltypes.DataType) sqltypes.Value {
	switch typ.Kind {
	case sqltypes.Boolean:
		return sqltypes.NewBool(gofakeit.Bool())
	case sqltypes.Int32:
		return sqltypes.NewInt32(int32(gofakeit.Number(0, 1<<20)))
	case sqltypes.Int64:
		return sqltypes.NewInt64(int64(gofakeit.Number(0, 1<<30)))
	case sqltypes.Float32:
		return sqltypes.NewFloat32(float32(gofakeit.Float64Range(0, 1000)))
	case sqltypes.Float64, sqltypes.Decimal:
		f := gofakeit.Float64Range(0, 1000)
		if typ.Kind == sqltypes.Decimal {
			return sqltypes.NewDecimal(f)
		}
		return sqltypes.NewFloat64(f)
	case sqltypes.String:
		return sqltypes.NewString(gofakeit.Word())
	case sqltypes.Bytes:
		return sqltypes.NewBytes([]byte(gofakeit.UUID()))
	case sqltypes.Timestamp:
		return sqltypes.NewTimestamp(gofakeit.Date().Unix())
	case sqltypes.Array:
		n := gofakeit.Number(0, 3)
		vals := make([]sqltypes.Value, n)
		for i := range vals {
			vals[i] = fakeValue(*typ.Elem)
		}
		return sqltypes.NewArray(vals)
	case sqltypes.Struct:
		names := make([]string, len(typ.Fields))
		vals := make([]sqltypes.Value, len(typ.Fields))
		for i, f := range typ.Fields {
			names[i] = f.Name
			vals[i] = fakeValue(f.Type)
		}
		return sqltypes.NewStruct(names, vals)
	default:
		return sqltypes.Null
	}
}
