package connector

import (
	_ "github.com/lib/pq"

	"github.com/retl-io/retl/internal/sqltypes"
)

// NewPostgresSource builds a Source that runs query against a
// Postgres database at dsn, streaming the result set out batchSize
// rows at a time, typed by schema. Driver registration is via the
// blank-imported github.com/lib/pq.
func NewPostgresSource(dsn, query string, batchSize int, schema sqltypes.Schema) Source {
	return newSQLSource("postgres", dsn, query, batchSize, schema)
}

// NewPostgresSink builds a Sink that inserts every row of a batch into
// table in a Postgres database at dsn.
func NewPostgresSink(dsn, table string, schema sqltypes.Schema) Sink {
	return newSQLSink("postgres", dsn, table, schema)
}
