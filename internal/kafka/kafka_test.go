package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swanjin/go2/internal/logging"
	"github.com/swanjin/go2/pkg/cdr"
	"github.com/swanjin/go2/pkg/helloworlddata"
	"github.com/swanjin/go2/pkg/models"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	marked []int64
}

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

func (s *fakeSession) MemberID() string    { return "member-1" }
func (s *fakeSession) GenerationID() int32 { return 1 }

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func claimOf(msgs ...*sarama.ConsumerMessage) *fakeClaim {
	ch := make(chan *sarama.ConsumerMessage, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	close(ch)
	return &fakeClaim{messages: ch}
}

func record(offset int64, key string, value []byte) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Topic:     "dds.HelloWorldData_Msg",
		Partition: 0,
		Offset:    offset,
		Key:       []byte(key),
		Value:     value,
		Headers: []*sarama.RecordHeader{
			{Key: []byte(HeaderTypeName), Value: []byte(helloworlddata.TypeName)},
		},
	}
}

func TestDeliveryFromMessage(t *testing.T) {
	d := DeliveryFromMessage(record(4, "sample-1", []byte{0x00, 0x01}))
	assert.Equal(t, models.Delivery{
		ID:        "sample-1",
		TypeName:  helloworlddata.TypeName,
		Data:      []byte{0x00, 0x01},
		Transport: TransportName,
	}, d)
}

func TestConsumeClaim_MarksProcessed(t *testing.T) {
	var seen []string
	h := NewConsumerGroupHandler(func(d models.Delivery) error {
		seen = append(seen, d.ID)
		return nil
	}, 3, logging.NewNop())

	session := &fakeSession{}
	require.NoError(t, h.Setup(session))
	require.NoError(t, h.ConsumeClaim(session, claimOf(record(0, "a", nil), record(1, "b", nil))))
	require.NoError(t, h.Cleanup(session))

	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []int64{0, 1}, session.marked)
}

func TestConsumeClaim_RetriesThenSkips(t *testing.T) {
	h := NewConsumerGroupHandler(func(models.Delivery) error {
		return errors.New("cannot decode")
	}, 2, logging.NewNop())

	session := &fakeSession{}
	msg := record(7, "bad", []byte{0xff})

	// Two attempts within the retry budget leave the offset unmarked
	require.NoError(t, h.ConsumeClaim(session, claimOf(msg, msg)))
	assert.Empty(t, session.marked)

	// The third failure exceeds the budget and the record is skipped
	require.NoError(t, h.ConsumeClaim(session, claimOf(msg)))
	assert.Equal(t, []int64{7}, session.marked)
	assert.Empty(t, h.errorCount)
}

func TestSetup_ResetsErrorCounts(t *testing.T) {
	h := NewConsumerGroupHandler(func(models.Delivery) error {
		return errors.New("fail")
	}, 5, logging.NewNop())

	session := &fakeSession{}
	require.NoError(t, h.ConsumeClaim(session, claimOf(record(1, "x", nil))))
	assert.Len(t, h.errorCount, 1)

	require.NoError(t, h.Setup(session))
	assert.Empty(t, h.errorCount)
}

func TestProducer_Publish(t *testing.T) {
	data, err := helloworlddata.Marshal(helloworlddata.NewMsg(1, "Hello World"), cdr.EncodingCDRLE)
	require.NoError(t, err)

	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got helloworlddata.Msg
		if err := helloworlddata.Unmarshal(val, &got); err != nil {
			return err
		}
		if !got.Equal(helloworlddata.NewMsg(1, "Hello World")) {
			return errors.New("unexpected sample " + got.String())
		}
		return nil
	})
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerWith(sp, "dds.HelloWorldData_Msg", logging.NewNop())
	d := models.Delivery{ID: "id-1", TypeName: helloworlddata.TypeName, Data: data}

	require.NoError(t, p.Publish(context.Background(), d))
	assert.ErrorIs(t, p.Publish(context.Background(), d), sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestProducer_PublishCancelled(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	p := NewProducerWith(sp, "dds.HelloWorldData_Msg", logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, models.Delivery{ID: "x"}), context.Canceled)
	require.NoError(t, p.Close())
}
