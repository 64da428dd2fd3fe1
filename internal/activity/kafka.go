package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// KafkaSink publishes every change as a JSON message keyed by document ID.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewSaramaConfig returns a producer configuration that waits for all
// in-sync replicas.
func NewSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "subdash"
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond
	return cfg
}

// NewKafkaSink connects a synchronous producer to brokers.
func NewKafkaSink(brokers []string, topic string, logger zerolog.Logger) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka sink: at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka sink: topic is required")
	}

	producer, err := sarama.NewSyncProducer(brokers, NewSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaSinkWithProducer(producer, topic, logger), nil
}

// NewKafkaSinkWithProducer wraps an existing producer.
func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string, logger zerolog.Logger) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		topic:    topic,
		logger:   logger.With().Str("component", "kafka_sink").Logger(),
	}
}

// Deliver implements Sink.
func (k *KafkaSink) Deliver(ctx context.Context, change Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(string(change.Collection) + ":" + change.ID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("collection"), Value: []byte(change.Collection)},
			{Key: []byte("action"), Value: []byte(change.Action)},
		},
		Timestamp: change.At,
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send change to kafka: %w", err)
	}

	k.logger.Debug().
		Str("collection", string(change.Collection)).
		Str("action", string(change.Action)).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("change forwarded")
	return nil
}

// Close closes the producer.
func (k *KafkaSink) Close() error {
	return k.producer.Close()
}
