//go:build integration

package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcKafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/swanjin/go2/internal/config"
	"github.com/swanjin/go2/internal/logging"
	"github.com/swanjin/go2/internal/service"
	"github.com/swanjin/go2/internal/storage"
	"github.com/swanjin/go2/pkg/cdr"
	"github.com/swanjin/go2/pkg/helloworlddata"
)

const (
	testTopic    = "dds.HelloWorldData_Msg"
	testGroup    = "test-consumer-group"
	sampleCount  = 10
	waitTimeout  = 90 * time.Second
	ddsTopicName = "HelloWorldData_Msg"
)

// TestPublishSubscribeE2E publishes Msg samples through Kafka and checks that
// the subscriber side decodes and stores every one of them.
func TestPublishSubscribeE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	logger, err := logging.NewDevelopmentLogger()
	require.NoError(t, err)
	defer logger.Sync()

	kafkaContainer, err := tcKafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tcKafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "Failed to start Kafka container")
	defer func() {
		if err := kafkaContainer.Terminate(context.Background()); err != nil {
			logger.Error("Failed to terminate kafka container", "error", err)
		}
	}()

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	createTopic(t, brokers)

	kafkaCfg := config.KafkaConfig{
		Brokers:       brokers,
		ConsumerGroup: testGroup,
		MaxRetries:    3,
	}

	store := storage.NewFileStorage(t.TempDir())

	producer, err := NewProducer(kafkaCfg, testTopic, logger)
	require.NoError(t, err)
	defer producer.Close()

	pub, err := service.NewService(store, logger, service.Options{
		Topic:     ddsTopicName,
		Encoding:  cdr.EncodingCDRLE,
		Transport: TransportName,
		Publisher: producer,
	})
	require.NoError(t, err)

	ids := make(map[string]int64, sampleCount)
	for i := int64(0); i < sampleCount; i++ {
		id, err := pub.PublishMsg(ctx, helloworlddata.NewMsg(i, "Hello World"))
		require.NoError(t, err)
		ids[id] = i
	}

	consumer, err := NewConsumer(kafkaCfg, testTopic, pub.ProcessSample, logger)
	require.NoError(t, err)

	consumeCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- consumer.Start(consumeCtx) }()
	defer func() {
		stop()
		<-done
		consumer.Close()
	}()

	require.Eventually(t, func() bool {
		recent, err := store.ListSamples(ddsTopicName, 0)
		return err == nil && len(recent) == sampleCount
	}, waitTimeout, 500*time.Millisecond, "samples were not all stored")

	for id, userID := range ids {
		sample, err := store.GetSample(id)
		require.NoError(t, err)
		assert.Equal(t, helloworlddata.NewMsg(userID, "Hello World"), sample.Msg())
		assert.Equal(t, "CDR_LE", sample.Metadata.Encoding)
	}
}

func createTopic(t *testing.T, brokers []string) {
	t.Helper()

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	admin, err := sarama.NewClusterAdmin(brokers, cfg)
	require.NoError(t, err, "Failed to create Kafka admin client")
	defer admin.Close()

	err = admin.CreateTopic(testTopic, &sarama.TopicDetail{
		NumPartitions:     3,
		ReplicationFactor: 1,
	}, false)
	if err != nil && !errors.Is(err, sarama.ErrTopicAlreadyExists) {
		require.NoError(t, err, "Failed to create test topic")
	}
}
