// Package connector declares the Source/Sink boundary the core never
// depends on (spec.md §1) and ships a starter set of adapters for the
// external systems named in spec.md §6's example pipelines.
package connector

import (
	"context"

	"github.com/retl-io/retl/internal/sqltypes"
)

// Source produces a sequence of RowBatches. Next returns io.EOF once
// the source is exhausted (a finite source, e.g. inline rows) or runs
// until ctx is cancelled (an unbounded source, e.g. Kafka).
type Source interface {
	Open(ctx context.Context) error
	Next(ctx context.Context) (sqltypes.RowBatch, error)
	Close() error
}

// Sink consumes RowBatches, one at a time, in the order Write is
// called.
type Sink interface {
	Open(ctx context.Context) error
	Write(ctx context.Context, batch sqltypes.RowBatch) error
	Close() error
}

// Config is the connector-specific settings block a pipeline YAML
// attaches under a source/sink's "with" key; each adapter interprets
// its own subset of keys and ignores the rest.
type Config map[string]interface{}

func (c Config) str(key, def string) string {
	if v, ok := c[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func (c Config) strSlice(key string) []string {
	v, ok := c[key]
	if !ok {
		return nil
	}
	switch vs := v.(type) {
	case []string:
		return vs
	case []interface{}:
		out := make([]string, 0, len(vs))
		for _, e := range vs {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func (c Config) intVal(key string, def int) int {
	if v, ok := c[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		}
	}
	return def
}
