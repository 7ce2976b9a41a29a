package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swanjin/go2/internal/logging"
	"github.com/swanjin/go2/internal/metrics"
	"github.com/swanjin/go2/internal/storage"
	"github.com/swanjin/go2/pkg/cdr"
	"github.com/swanjin/go2/pkg/helloworlddata"
	"github.com/swanjin/go2/pkg/models"
	"github.com/swanjin/go2/pkg/topic"
)

// Publisher hands serialized samples to a transport
type Publisher interface {
	Publish(ctx context.Context, delivery models.Delivery) error
}

// Options configures a Service
type Options struct {
	Topic     string
	TypeName  string
	Encoding  cdr.Encoding
	Transport string
	Publisher Publisher
	Metrics   *metrics.Metrics
}

// Service moves HelloWorldData::Msg samples between the transports and storage
type Service struct {
	store      storage.Repository
	logger     *logging.Logger
	metrics    *metrics.Metrics
	publisher  Publisher
	descriptor topic.Descriptor
	topic      string
	encoding   cdr.Encoding
	transport  string
}

// NewService creates a service bound to one topic and its registered type
func NewService(store storage.Repository, logger *logging.Logger, opts Options) (*Service, error) {
	if opts.TypeName == "" {
		opts.TypeName = helloworlddata.TypeName
	}
	descriptor, err := topic.Lookup(opts.TypeName)
	if err != nil {
		return nil, err
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	return &Service{
		store:      store,
		logger:     logger.WithFields(map[string]interface{}{"topic": opts.Topic, "type": opts.TypeName}),
		metrics:    opts.Metrics,
		publisher:  opts.Publisher,
		descriptor: descriptor,
		topic:      opts.Topic,
		encoding:   opts.Encoding,
		transport:  opts.Transport,
	}, nil
}

// ProcessSample decodes a delivered sample and stores it.
// Returns error only if processing fails, so the transport knows not to acknowledge it.
func (s *Service) ProcessSample(delivery models.Delivery) error {
	msgLogger := s.logger.WithFields(map[string]interface{}{
		"sampleId": delivery.ID,
		"size":     len(delivery.Data),
	})
	msgLogger.Debug("Sample received")

	startTime := time.Now()

	if delivery.TypeName != "" && delivery.TypeName != s.descriptor.TypeName {
		s.metrics.Failed(s.topic, "decode")
		msgLogger.Error("Sample type mismatch", "got", delivery.TypeName)
		return fmt.Errorf("sample type %q does not match topic type %q", delivery.TypeName, s.descriptor.TypeName)
	}

	enc, _, err := cdr.ParseHeader(delivery.Data)
	if err != nil {
		s.metrics.Failed(s.topic, "decode")
		msgLogger.Error("Failed to parse encapsulation header", "error", err)
		return fmt.Errorf("failed to parse sample header: %w", err)
	}

	decoded, err := s.descriptor.Decode(delivery.Data)
	if err != nil {
		s.metrics.Failed(s.topic, "decode")
		msgLogger.Error("Failed to decode sample", "error", err)
		return fmt.Errorf("failed to decode sample: %w", err)
	}
	msg, ok := decoded.(*helloworlddata.Msg)
	if !ok {
		s.metrics.Failed(s.topic, "decode")
		return fmt.Errorf("decoded sample has unexpected type %T", decoded)
	}

	id := delivery.ID
	if id == "" {
		id = uuid.NewString()
		msgLogger = msgLogger.WithField("sampleId", id)
		msgLogger.Debug("Assigned id to sample")
	} else if err := models.ValidateID(id); err != nil {
		s.metrics.Failed(s.topic, "validate")
		msgLogger.Error("Rejected sample id", "error", err)
		return fmt.Errorf("invalid sample id %q: %w", id, err)
	}

	transport := delivery.Transport
	if transport == "" {
		transport = s.transport
	}

	sample := models.NewSample(id, *msg, models.Metadata{
		Topic:     s.topic,
		TypeName:  s.descriptor.TypeName,
		Encoding:  enc.String(),
		Transport: transport,
		Size:      len(delivery.Data),
	})
	sample.Timestamp = time.Now()

	if err := s.store.SaveSample(sample); err != nil {
		s.metrics.Failed(s.topic, "store")
		msgLogger.Error("Failed to store sample", "error", err)
		return fmt.Errorf("failed to store sample: %w", err)
	}

	s.metrics.Received(s.topic, transport, len(delivery.Data))
	msgLogger.Info("Sample processed successfully",
		"userID", msg.UserID(),
		"encoding", enc.String(),
		"processingTimeMs", time.Since(startTime).Milliseconds())

	return nil
}

// PublishMsg serializes msg and hands it to the publisher, returning the sample id
func (s *Service) PublishMsg(ctx context.Context, msg helloworlddata.Msg) (string, error) {
	if s.publisher == nil {
		return "", fmt.Errorf("service has no publisher")
	}

	data, err := s.descriptor.Encode(msg, s.encoding)
	if err != nil {
		s.metrics.Failed(s.topic, "encode")
		return "", fmt.Errorf("failed to encode sample: %w", err)
	}

	delivery := models.Delivery{
		ID:        uuid.NewString(),
		TypeName:  s.descriptor.TypeName,
		Data:      data,
		Transport: s.transport,
	}
	if err := s.publisher.Publish(ctx, delivery); err != nil {
		s.metrics.Failed(s.topic, "publish")
		s.logger.Error("Failed to publish sample", "sampleId", delivery.ID, "error", err)
		return "", fmt.Errorf("failed to publish sample: %w", err)
	}

	s.metrics.Published(s.topic, s.transport, len(data))
	s.logger.Debug("Sample published", "sampleId", delivery.ID, "userID", msg.UserID(), "size", len(data))
	return delivery.ID, nil
}

// Recent returns the newest stored samples of the topic
func (s *Service) Recent(limit int) ([]*models.Sample, error) {
	samples, err := s.store.ListSamples(s.topic, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}
	return samples, nil
}
