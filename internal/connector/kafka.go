package connector

import (
	"context"
	"fmt"

	kafka "github.com/segmentio/kafka-go"

	"github.com/retl-io/retl/internal/codec"
	"github.com/retl-io/retl/internal/sqltypes"
)

// KafkaSource reads one message per Next call from a consumer group
// and decodes its value with the configured Decoder. One message
// decodes to one RowBatch — batching across messages is a transform
// or scheduler concern, not the connector's.
type KafkaSource struct {
	reader  *kafka.Reader
	schema  sqltypes.Schema
	decoder codec.Decoder

	brokers []string
	topic   string
	group   string
}

// NewKafkaSource builds a KafkaSource; Open dials the brokers.
func NewKafkaSource(brokers []string, topic, group string, schema sqltypes.Schema, decoder codec.Decoder) *KafkaSource {
	return &KafkaSource{brokers: brokers, topic: topic, group: group, schema: schema, decoder: decoder}
}

func (s *KafkaSource) Open(ctx context.Context) error {
	s.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers: s.brokers,
		Topic:   s.topic,
		GroupID: s.group,
	})
	return nil
}

func (s *KafkaSource) Next(ctx context.Context) (sqltypes.RowBatch, error) {
	msg, err := s.reader.ReadMessage(ctx)
	if err != nil {
		return sqltypes.RowBatch{}, fmt.Errorf("connector/kafka: read: %w", err)
	}
	return s.decoder.Decode(msg.Value, s.schema)
}

func (s *KafkaSource) Close() error {
	if s.reader == nil {
		return nil
	}
	return s.reader.Close()
}

// KafkaSink encodes each batch with the configured Encoder and
// publishes it as a single message.
type KafkaSink struct {
	writer  *kafka.Writer
	encoder codec.Encoder

	brokers []string
	topic   string
}

// NewKafkaSink builds a KafkaSink; Open dials the brokers.
func NewKafkaSink(brokers []string, topic string, encoder codec.Encoder) *KafkaSink {
	return &KafkaSink{brokers: brokers, topic: topic, encoder: encoder}
}

func (s *KafkaSink) Open(ctx context.Context) error {
	s.writer = &kafka.Writer{
		Addr:     kafka.TCP(s.brokers...),
		Topic:    s.topic,
		Balancer: &kafka.LeastBytes{},
	}
	return nil
}

func (s *KafkaSink) Write(ctx context.Context, batch sqltypes.RowBatch) error {
	data, err := s.encoder.Encode(batch)
	if err != nil {
		return fmt.Errorf("connector/kafka: encoding: %w", err)
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{Value: data}); err != nil {
		return fmt.Errorf("connector/kafka: write: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
