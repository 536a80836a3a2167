package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/YouSangSon/docstore-service/internal/domain/model"
	"github.com/YouSangSon/docstore-service/internal/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserEvent() *model.UserEvent {
	user := model.NewUser("Ada", "Lovelace")
	user.SetID("u1")
	return model.NewUserEvent(model.EventUserCreated, user)
}

func TestPublishUserEvent(t *testing.T) {
	mock := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var decoded map[string]interface{}
		if err := json.Unmarshal(val, &decoded); err != nil {
			return err
		}
		if decoded["event_type"] != "user.created" || decoded["user_id"] != "u1" {
			return errors.New("unexpected payload")
		}
		if _, ok := decoded["data"].(map[string]interface{}); !ok {
			return errors.New("missing data")
		}
		return nil
	})

	producer := NewProducerWithClient(mock, "user-events")
	require.NoError(t, producer.PublishUserEvent(context.Background(), newUserEvent()))
	require.NoError(t, producer.Close())
}

func TestPublishUserEventFailure(t *testing.T) {
	mock := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := NewProducerWithClient(mock, "user-events")
	err := producer.PublishUserEvent(context.Background(), newUserEvent())
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())
}

func TestPublishUserEventBreakerOpens(t *testing.T) {
	mock := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	for i := 0; i < 5; i++ {
		mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}

	producer := NewProducerWithClient(mock, "user-events")
	for i := 0; i < 5; i++ {
		_ = producer.PublishUserEvent(context.Background(), newUserEvent())
	}

	// 열린 뒤에는 브로커로 보내지 않음
	err := producer.PublishUserEvent(context.Background(), newUserEvent())
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	require.NoError(t, producer.Close())
}

func TestCompressionCodec(t *testing.T) {
	codec, err := compressionCodec("snappy")
	require.NoError(t, err)
	assert.Equal(t, sarama.CompressionSnappy, codec)

	_, err = compressionCodec("brotli")
	assert.Error(t, err)
}

func TestNewSaramaConfig(t *testing.T) {
	cfg, err := newSaramaConfig(&ProducerConfig{
		ClientID:     "docstore-service",
		Version:      "3.6.0",
		RequiredAcks: sarama.WaitForAll,
		Compression:  "gzip",
		MaxRetries:   3,
	})
	require.NoError(t, err)
	assert.True(t, cfg.Producer.Return.Successes)
	assert.Equal(t, sarama.V3_6_0_0, cfg.Version)
	assert.Equal(t, sarama.CompressionGZIP, cfg.Producer.Compression)

	_, err = newSaramaConfig(&ProducerConfig{Version: "not-a-version"})
	assert.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	var publisher NoopPublisher
	assert.NoError(t, publisher.PublishUserEvent(context.Background(), newUserEvent()))
	assert.NoError(t, publisher.Close())
}
