package connector

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/retl-io/retl/internal/sqltypes"
)

// ClickHouseSink batch-inserts rows via clickhouse-go's native batch
// API, the sink-only connector spec.md §6's example pipelines name for
// ClickHouse.
type ClickHouseSink struct {
	addr     string
	database string
	username string
	password string
	table    string
	schema   sqltypes.Schema

	conn driver.Conn
}

// NewClickHouseSink builds a ClickHouseSink targeting one node at
// addr ("host:port").
func NewClickHouseSink(addr, database, username, password, table string, schema sqltypes.Schema) *ClickHouseSink {
	return &ClickHouseSink{addr: addr, database: database, username: username, password: password, table: table, schema: schema}
}

func (s *ClickHouseSink) Open(ctx context.Context) error {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{s.addr},
		Auth: clickhouse.Auth{
			Database: s.database,
			Username: s.username,
			Password: s.password,
		},
	})
	if err != nil {
		return fmt.Errorf("connector/clickhouse: open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("connector/clickhouse: ping: %w", err)
	}
	s.conn = conn
	return nil
}

func (s *ClickHouseSink) Write(ctx context.Context, batch sqltypes.RowBatch) error {
	chBatch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", s.table))
	if err != nil {
		return fmt.Errorf("connector/clickhouse: prepare batch: %w", err)
	}
	for _, row := range batch.Rows {
		args := make([]interface{}, len(row))
		for i, v := range row {
			args[i] = sqlArg(v)
		}
		if err := chBatch.Append(args...); err != nil {
			return fmt.Errorf("connector/clickhouse: append: %w", err)
		}
	}
	if err := chBatch.Send(); err != nil {
		return fmt.Errorf("connector/clickhouse: send: %w", err)
	}
	return nil
}

func (s *ClickHouseSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
