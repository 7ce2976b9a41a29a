package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/swanjin/go2/internal/config"
	"github.com/swanjin/go2/internal/logging"
	"github.com/swanjin/go2/pkg/models"
)

// HeaderTypeName carries the registered type name of the sample in the record
const HeaderTypeName = "dds-type"

// TransportName labels samples that arrived over Kafka
const TransportName = "kafka"

// MessageHandler processes one delivered sample.
// Returns error if processing fails and the offset should not be committed.
type MessageHandler func(models.Delivery) error

// Consumer reads CDR samples of one topic through a consumer group
type Consumer struct {
	client  sarama.ConsumerGroup
	topics  []string
	handler *ConsumerGroupHandler
	logger  *logging.Logger
}

// ConsumerGroupHandler implements sarama.ConsumerGroupHandler
type ConsumerGroupHandler struct {
	handler    MessageHandler
	logger     *logging.Logger
	mu         sync.Mutex
	errorCount map[string]int // failures per topic-partition-offset
	maxRetries int
}

// NewConsumerGroupHandler creates the per-session handler used by Consumer
func NewConsumerGroupHandler(handler MessageHandler, maxRetries int, logger *logging.Logger) *ConsumerGroupHandler {
	return &ConsumerGroupHandler{
		handler:    handler,
		logger:     logger,
		errorCount: make(map[string]int),
		maxRetries: maxRetries,
	}
}

func newSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	return cfg
}

// NewConsumer creates a consumer group client for topic
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler, logger *logging.Logger) (*Consumer, error) {
	saramaCfg := newSaramaConfig()
	saramaCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	// Start from the earliest offset so samples published before the first join are not missed
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaCfg.Consumer.Offsets.AutoCommit.Enable = true
	saramaCfg.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second

	client, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	logger = logger.Named("kafka").WithFields(map[string]interface{}{
		"topic":         topic,
		"consumerGroup": cfg.ConsumerGroup,
	})

	return &Consumer{
		client:  client,
		topics:  []string{topic},
		handler: NewConsumerGroupHandler(handler, cfg.MaxRetries, logger),
		logger:  logger,
	}, nil
}

// Start consumes until ctx is cancelled, rejoining the group after every rebalance
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer")

	for {
		if err := c.client.Consume(ctx, c.topics, c.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) || ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Error from consumer", "error", err)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}

		if ctx.Err() != nil {
			c.logger.Info("Context cancelled, stopping consumer")
			return nil
		}
	}
}

// Close closes the consumer connection
func (c *Consumer) Close() error {
	c.logger.Info("Closing Kafka consumer")
	return c.client.Close()
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (h *ConsumerGroupHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.logger.Debug("Consumer group session started", "memberId", session.MemberID(), "generation", session.GenerationID())
	// Reset error counts on rebalance
	h.mu.Lock()
	h.errorCount = make(map[string]int)
	h.mu.Unlock()
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.logger.Debug("Consumer group session ended")
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages()
func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	// NOTE: Do not move the code below to a goroutine.
	// The `ConsumeClaim` itself is called within a goroutine.
	for message := range claim.Messages() {
		h.handleMessage(session, message)
	}
	return nil
}

func (h *ConsumerGroupHandler) handleMessage(session sarama.ConsumerGroupSession, message *sarama.ConsumerMessage) {
	msgKey := fmt.Sprintf("%s-%d-%d", message.Topic, message.Partition, message.Offset)
	logger := h.logger.WithFields(map[string]interface{}{
		"partition": message.Partition,
		"offset":    message.Offset,
		"key":       string(message.Key),
	})

	if err := h.handler(DeliveryFromMessage(message)); err != nil {
		h.mu.Lock()
		h.errorCount[msgKey]++
		retryCount := h.errorCount[msgKey]
		h.mu.Unlock()

		if retryCount <= h.maxRetries {
			logger.Warn("Error processing sample", "attempt", retryCount, "maxRetries", h.maxRetries, "error", err)
			// Not marked: redelivered once the session ends
			return
		}

		logger.Error("Max retries reached for sample, skipping", "error", err)
		session.MarkMessage(message, "")
		h.mu.Lock()
		delete(h.errorCount, msgKey)
		h.mu.Unlock()
		return
	}

	logger.Debug("Sample processed and marked")
	session.MarkMessage(message, "")

	h.mu.Lock()
	delete(h.errorCount, msgKey)
	h.mu.Unlock()
}

// DeliveryFromMessage extracts the sample carried by a Kafka record
func DeliveryFromMessage(message *sarama.ConsumerMessage) models.Delivery {
	d := models.Delivery{
		ID:        string(message.Key),
		Data:      message.Value,
		Transport: TransportName,
	}
	for _, h := range message.Headers {
		if h != nil && string(h.Key) == HeaderTypeName {
			d.TypeName = string(h.Value)
		}
	}
	return d
}
