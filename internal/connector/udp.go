package connector

import (
	"context"
	"fmt"
	"net"

	"github.com/retl-io/retl/internal/codec"
	"github.com/retl-io/retl/internal/sqltypes"
)

// UDPSource reads one datagram per Next call and decodes it with the
// configured Decoder. No ecosystem library improves on the standard
// library's net.ListenUDP for raw datagram sockets (spec.md §6 domain
// stack, "udp").
type UDPSource struct {
	addr    string
	schema  sqltypes.Schema
	decoder codec.Decoder
	conn    *net.UDPConn
	buf     []byte
}

// NewUDPSource builds a UDPSource bound to addr ("host:port"),
// decoding each datagram with decoder against schema.
func NewUDPSource(addr string, schema sqltypes.Schema, decoder codec.Decoder) *UDPSource {
	return &UDPSource{addr: addr, schema: schema, decoder: decoder, buf: make([]byte, 65536)}
}

func (s *UDPSource) Open(ctx context.Context) error {
	laddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return fmt.Errorf("connector/udp: resolving %s: %w", s.addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return fmt.Errorf("connector/udp: listening on %s: %w", s.addr, err)
	}
	s.conn = conn
	return nil
}

func (s *UDPSource) Next(ctx context.Context) (sqltypes.RowBatch, error) {
	if dl, ok := ctx.Deadline(); ok {
		s.conn.SetReadDeadline(dl)
	}
	n, _, err := s.conn.ReadFromUDP(s.buf)
	if err != nil {
		return sqltypes.RowBatch{}, fmt.Errorf("connector/udp: read: %w", err)
	}
	return s.decoder.Decode(s.buf[:n], s.schema)
}

func (s *UDPSource) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// UDPSink encodes each batch with the configured Encoder and sends it
// as a single datagram.
type UDPSink struct {
	addr    string
	encoder codec.Encoder
	conn    *net.UDPConn
}

// NewUDPSink builds a UDPSink targeting addr ("host:port").
func NewUDPSink(addr string, encoder codec.Encoder) *UDPSink {
	return &UDPSink{addr: addr, encoder: encoder}
}

func (s *UDPSink) Open(ctx context.Context) error {
	raddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return fmt.Errorf("connector/udp: resolving %s: %w", s.addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return fmt.Errorf("connector/udp: dialing %s: %w", s.addr, err)
	}
	s.conn = conn
	return nil
}

func (s *UDPSink) Write(ctx context.Context, batch sqltypes.RowBatch) error {
	data, err := s.encoder.Encode(batch)
	if err != nil {
		return fmt.Errorf("connector/udp: encoding: %w", err)
	}
	_, err = s.conn.Write(data)
	if err != nil {
		return fmt.Errorf("connector/udp: write: %w", err)
	}
	return nil
}

func (s *UDPSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
