// Package codec declares the wire-level (de)serialization boundary
// connectors sit on top of (spec.md §6, SPEC_FULL.md domain stack):
// an Encoder turns one RowBatch into bytes for a sink to ship, a
// Decoder turns bytes received from a source back into a RowBatch
// against a known schema.
package codec

import "github.com/retl-io/retl/internal/sqltypes"

// Encoder serializes a RowBatch as a single payload.
type Encoder interface {
	Encode(batch sqltypes.RowBatch) ([]byte, error)
}

// Decoder deserializes a payload against a known schema. schema
// drives field typing since the wire format itself (JSON, msgpack,
// CSV, ...) rarely carries enough type information on its own.
type Decoder interface {
	Decode(data []byte, schema sqltypes.Schema) (sqltypes.RowBatch, error)
}

// Codec bundles an Encoder and Decoder for the same wire format.
type Codec interface {
	Encoder
	Decoder
}

// ByName returns the built-in Codec registered under name
// ("json", "csv", "raw", "msgpack", "protobuf"), or false if name is
// not recognized.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json", "":
		return JSON{}, true
	case "csv":
		return CSV{}, true
	case "raw":
		return Raw{}, true
	case "msgpack":
		return Msgpack{}, true
	case "protobuf":
		return Protobuf{}, true
	default:
		return nil, false
	}
}
