package connector

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/retl-io/retl/internal/sqltypes"
)

var errEOF = io.EOF

// sqlSource is the shared database/sql Source implementation behind
// the postgres and mysql connectors: it runs one query once, and
// streams its result set out in fixed-size batches.
type sqlSource struct {
	driver    string
	dsn       string
	query     string
	batchSize int
	schema    sqltypes.Schema

	db   *sql.DB
	rows *sql.Rows
	done bool
}

func newSQLSource(driver, dsn, query string, batchSize int, schema sqltypes.Schema) *sqlSource {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &sqlSource{driver: driver, dsn: dsn, query: query, batchSize: batchSize, schema: schema}
}

func (s *sqlSource) Open(ctx context.Context) error {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return fmt.Errorf("connector/%s: open: %w", s.driver, err)
	}
	rows, err := db.QueryContext(ctx, s.query)
	if err != nil {
		db.Close()
		return fmt.Errorf("connector/%s: query: %w", s.driver, err)
	}
	s.db = db
	s.rows = rows
	return nil
}

func (s *sqlSource) Next(ctx context.Context) (sqltypes.RowBatch, error) {
	if s.done {
		return sqltypes.RowBatch{}, errEOF
	}
	n := s.schema.Len()
	scanTargets := make([]interface{}, n)
	var out [][]sqltypes.Value
	for len(out) < s.batchSize {
		if !s.rows.Next() {
			s.done = true
			break
		}
		dest := make([]sql.NullString, n)
		for i := range dest {
			scanTargets[i] = &dest[i]
		}
		if err := s.rows.Scan(scanTargets...); err != nil {
			return sqltypes.RowBatch{}, fmt.Errorf("connector/%s: scan: %w", s.driver, err)
		}
		row := make([]sqltypes.Value, n)
		for i, col := range s.schema.Columns {
			if !dest[i].Valid {
				row[i] = sqltypes.Null
				continue
			}
			v, err := sqlFieldValue(dest[i].String, col.Type)
			if err != nil {
				return sqltypes.RowBatch{}, fmt.Errorf("connector/%s: column %s: %w", s.driver, col.Name, err)
			}
			row[i] = v
		}
		out = append(out, row)
	}
	if err := s.rows.Err(); err != nil {
		return sqltypes.RowBatch{}, fmt.Errorf("connector/%s: %w", s.driver, err)
	}
	if len(out) == 0 {
		return sqltypes.RowBatch{}, errEOF
	}
	return sqltypes.NewRowBatch(s.schema, out)
}

func (s *sqlSource) Close() error {
	var err error
	if s.rows != nil {
		err = s.rows.Close()
	}
	if s.db != nil {
		if cerr := s.db.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// sqlSink is the shared database/sql Sink implementation behind the
// postgres and mysql connectors: it inserts every row of a batch
// into table, one parameterized INSERT statement per row.
type sqlSink struct {
	driver string
	dsn    string
	table  string
	schema sqltypes.Schema

	db   *sql.DB
	stmt *sql.Stmt
}

func newSQLSink(driver, dsn, table string, schema sqltypes.Schema) *sqlSink {
	return &sqlSink{driver: driver, dsn: dsn, table: table, schema: schema}
}

func (s *sqlSink) Open(ctx context.Context) error {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return fmt.Errorf("connector/%s: open: %w", s.driver, err)
	}
	names := make([]string, s.schema.Len())
	placeholders := make([]string, s.schema.Len())
	for i, c := range s.schema.Columns {
		names[i] = c.Name
		placeholders[i] = placeholderFor(s.driver, i+1)
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.table, strings.Join(names, ", "), strings.Join(placeholders, ", "))
	stmt, err := db.PrepareContext(ctx, insertSQL)
	if err != nil {
		db.Close()
		return fmt.Errorf("connector/%s: prepare: %w", s.driver, err)
	}
	s.db = db
	s.stmt = stmt
	return nil
}

func (s *sqlSink) Write(ctx context.Context, batch sqltypes.RowBatch) error {
	for _, row := range batch.Rows {
		args := make([]interface{}, len(row))
		for i, v := range row {
			args[i] = sqlArg(v)
		}
		if _, err := s.stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("connector/%s: insert: %w", s.driver, err)
		}
	}
	return nil
}

func (s *sqlSink) Close() error {
	var err error
	if s.stmt != nil {
		err = s.stmt.Close()
	}
	if s.db != nil {
		if cerr := s.db.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func placeholderFor(driver string, pos int) string {
	if driver == "postgres" {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func sqlArg(v sqltypes.Value) interface{} {
	if v.IsNull() {
		return nil
	}
	switch v.Kind {
	case sqltypes.Boolean:
		return v.Bool
	case sqltypes.Int32:
		return v.I32
	case sqltypes.Int64:
		return v.I64
	case sqltypes.Float32:
		return float64(v.F32)
	case sqltypes.Float64, sqltypes.Decimal:
		if v.Kind == sqltypes.Decimal {
			return v.Dec
		}
		return v.F64
	case sqltypes.Bytes:
		return v.Bytes
	case sqltypes.Timestamp:
		return v.TS
	default:
		return v.String()
	}
}

func sqlFieldValue(raw string, typ sqltypes.DataType) (sqltypes.Value, error) {
	switch typ.Kind {
	case sqltypes.String:
		return sqltypes.NewString(raw), nil
	case sqltypes.Bytes:
		return sqltypes.NewBytes([]byte(raw)), nil
	case sqltypes.Boolean:
		return sqltypes.NewBool(raw == "true" || raw == "t" || raw == "1"), nil
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
		return sqltypes.Null, fmt.Errorf("sql source does not support column type %s", typ)
	}
}
