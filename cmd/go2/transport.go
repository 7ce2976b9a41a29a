package main

import (
	"context"
	"fmt"

	"github.com/swanjin/go2/internal/config"
	"github.com/swanjin/go2/internal/kafka"
	"github.com/swanjin/go2/internal/logging"
	"github.com/swanjin/go2/internal/nats"
	"github.com/swanjin/go2/internal/service"
	"github.com/swanjin/go2/pkg/models"
)

type publisher interface {
	service.Publisher
	Close() error
}

// newPublisher connects the configured transport for sending
func newPublisher(cfg *config.Config, logger *logging.Logger) (publisher, error) {
	switch cfg.Transport {
	case config.TransportKafka:
		return kafka.NewProducer(cfg.Kafka, cfg.KafkaTopic(), logger)
	case config.TransportNATS:
		return nats.NewClient(cfg.NATS, cfg.Topic.Name, logger)
	default:
		return nil, fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}
}

// consume blocks, feeding samples from the configured transport to handler
// until ctx is cancelled.
func consume(ctx context.Context, cfg *config.Config, handler func(models.Delivery) error, logger *logging.Logger) error {
	switch cfg.Transport {
	case config.TransportKafka:
		consumer, err := kafka.NewConsumer(cfg.Kafka, cfg.KafkaTopic(), handler, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()
		return consumer.Start(ctx)

	case config.TransportNATS:
		client, err := nats.NewClient(cfg.NATS, cfg.Topic.Name, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		return client.Subscribe(ctx, handler)

	default:
		return fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}
}
