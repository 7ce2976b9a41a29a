package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/swanjin/go2/internal/config"
	"github.com/swanjin/go2/internal/logging"
	"github.com/swanjin/go2/pkg/models"
)

// Producer publishes CDR samples to one Kafka topic
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logging.Logger
}

// NewProducer connects a synchronous producer to the brokers
func NewProducer(cfg config.KafkaConfig, topic string, logger *logging.Logger) (*Producer, error) {
	saramaCfg := newSaramaConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Return.Successes = true

	sp, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewProducerWith(sp, topic, logger), nil
}

// NewProducerWith wraps an existing SyncProducer
func NewProducerWith(sp sarama.SyncProducer, topic string, logger *logging.Logger) *Producer {
	return &Producer{
		producer: sp,
		topic:    topic,
		logger:   logger.Named("kafka").WithField("topic", topic),
	}
}

// Publish sends one sample keyed by its id
func (p *Producer) Publish(ctx context.Context, d models.Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(d.ID),
		Value: sarama.ByteEncoder(d.Data),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderTypeName), Value: []byte(d.TypeName)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send sample to %s: %w", p.topic, err)
	}

	p.logger.Debug("Sample sent", "sampleId", d.ID, "partition", partition, "offset", offset)
	return nil
}

// Close flushes and closes the producer
func (p *Producer) Close() error {
	return p.producer.Close()
}
