package connector

import (
	_ "github.com/go-sql-driver/mysql"

	"github.com/retl-io/retl/internal/sqltypes"
)

// NewMySQLSource builds a Source that runs query against a MySQL
// database at dsn, streaming the result set out batchSize rows at a
// time, typed by schema. Driver registration is via the
// blank-imported github.com/go-sql-driver/mysql.
func NewMySQLSource(dsn, query string, batchSize int, schema sqltypes.Schema) Source {
	return newSQLSource("mysql", dsn, query, batchSize, schema)
}

// NewMySQLSink builds a Sink that inserts every row of a batch into
// table in a MySQL database at dsn.
func NewMySQLSink(dsn, table string, schema sqltypes.Schema) Sink {
	return newSQLSink("mysql", dsn, table, schema)
}
