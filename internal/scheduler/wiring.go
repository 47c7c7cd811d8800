package scheduler

import (
	"fmt"
	"log"
	"os"

	"github.com/retl-io/retl/internal/codec"
	"github.com/retl-io/retl/internal/config"
	"github.com/retl-io/retl/internal/connector"
	"github.com/retl-io/retl/internal/sqltypes"
)

func resolveCodec(name string) (codec.Codec, error) {
	c, ok := codec.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", name)
	}
	return c, nil
}

// buildSource resolves one SourceConfig into a connector.Source per
// its Kind, the way a real scheduler turns declarative YAML edges
// into running I/O (SPEC_FULL.md domain stack, "Connectors").
func buildSource(cfg config.SourceConfig, schema sqltypes.Schema) (connector.Source, error) {
	with := connector.Config(cfg.With)
	switch cfg.Kind {
	case "inline":
		rows, err := inlineRows(with, schema)
		if err != nil {
			return nil, err
		}
		return connector.NewInlineSource(schema, rows)
	case "faker":
		return connector.NewFakerSource(schema, with.intVal("batch_size", 10), with.intVal("num_batches", 1)), nil
	case "kafka":
		dec, err := resolveCodec(cfg.Codec)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
		}
		brokers := with.strSlice("brokers")
		return connector.NewKafkaSource(brokers, with.str("topic", ""), with.str("group", cfg.Name), schema, dec), nil
	case "postgres":
		return connector.NewPostgresSource(with.str("dsn", ""), with.str("query", ""), with.intVal("batch_size", 1000), schema), nil
	case "mysql":
		return connector.NewMySQLSource(with.str("dsn", ""), with.str("query", ""), with.intVal("batch_size", 1000), schema), nil
	case "udp":
		dec, err := resolveCodec(cfg.Codec)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
		}
		return connector.NewUDPSource(with.str("addr", ""), schema, dec), nil
	default:
		return nil, fmt.Errorf("source %s: unknown kind %q", cfg.Name, cfg.Kind)
	}
}

// buildSink resolves one SinkConfig into a connector.Sink per its
// Kind.
func buildSink(cfg config.SinkConfig, schema sqltypes.Schema) (connector.Sink, error) {
	with := connector.Config(cfg.With)
	switch cfg.Kind {
	case "print":
		return connector.NewPrintSink(log.New(os.Stderr, "", log.LstdFlags), cfg.Name), nil
	case "kafka":
		enc, err := resolveCodec(cfg.Codec)
		if err != nil {
			return nil, fmt.Errorf("sink %s: %w", cfg.Name, err)
		}
		brokers := with.strSlice("brokers")
		return connector.NewKafkaSink(brokers, with.str("topic", ""), enc), nil
	case "postgres":
		return connector.NewPostgresSink(with.str("dsn", ""), with.str("table", ""), schema), nil
	case "mysql":
		return connector.NewMySQLSink(with.str("dsn", ""), with.str("table", ""), schema), nil
	case "clickhouse":
		return connector.NewClickHouseSink(
			with.str("addr", ""),
			with.str("database", "default"),
			with.str("username", "default"),
			with.str("password", ""),
			with.str("table", ""),
			schema,
		), nil
	case "udp":
		enc, err := resolveCodec(cfg.Codec)
		if err != nil {
			return nil, fmt.Errorf("sink %s: %w", cfg.Name, err)
		}
		return connector.NewUDPSink(with.str("addr", ""), enc), nil
	default:
		return nil, fmt.Errorf("sink %s: unknown kind %q", cfg.Name, cfg.Kind)
	}
}

// inlineRows decodes the "with.rows" config entry (itself decoded
// from YAML as []interface{} of map[string]interface{}) against
// schema, reusing the same native-value coercion JSON uses.
func inlineRows(with connector.Config, schema sqltypes.Schema) ([][]sqltypes.Value, error) {
	raw, _ := with["rows"].([]interface{})
	rows := make([][]sqltypes.Value, len(raw))
	for i, r := range raw {
		row := make([]sqltypes.Value, schema.Len())
		for j, col := range schema.Columns {
			var fieldRaw interface{}
			if doc, ok := r.(map[interface{}]interface{}); ok {
				fieldRaw = doc[col.Name]
			}
			v, err := codec.ValueFromYAML(fieldRaw, col.Type)
			if err != nil {
				return nil, fmt.Errorf("inline source: row %d column %s: %w", i, col.Name, err)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return rows, nil
}
