package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/YouSangSon/docstore-service/internal/domain/model"
	"github.com/YouSangSon/docstore-service/internal/pkg/circuitbreaker"
	"github.com/YouSangSon/docstore-service/internal/pkg/logger"
	"github.com/YouSangSon/docstore-service/internal/pkg/metrics"
	"go.uber.org/zap"
)

// ProducerConfig는 프로듀서 설정입니다
type ProducerConfig struct {
	Brokers          []string
	ClientID         string
	Version          string
	Topic            string
	RequiredAcks     sarama.RequiredAcks
	Compression      string
	Timeout          time.Duration
	MaxRetries       int
	RetryBackoff     time.Duration
	EnableIdempotent bool
}

// Producer는 사용자 변경 이벤트를 Kafka로 발행합니다
// 브로커 장애가 이어지면 circuit breaker가 열려 발행을 건너뜁니다
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	breaker  *circuitbreaker.Breaker
	metrics  *metrics.Metrics
}

// NewProducer는 새로운 동기 프로듀서를 생성합니다
func NewProducer(cfg *ProducerConfig) (*Producer, error) {
	config, err := newSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}

	logger.Info(context.Background(), "kafka producer initialized",
		logger.Field("brokers", cfg.Brokers),
		logger.Field("client_id", cfg.ClientID),
		logger.Field("topic", cfg.Topic),
	)

	return NewProducerWithClient(producer, cfg.Topic), nil
}

// NewProducerWithClient는 이미 생성된 SyncProducer로 Producer를 만듭니다
func NewProducerWithClient(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{
		producer: producer,
		topic:    topic,
		breaker: circuitbreaker.New("kafka-producer", circuitbreaker.Config{
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				logger.Warn(context.Background(), "circuit breaker state changed",
					logger.Field("breaker", name),
					logger.Field("from", from.String()),
					logger.Field("to", to.String()),
				)
			},
		}),
		metrics: metrics.GetMetrics(),
	}
}

func newSaramaConfig(cfg *ProducerConfig) (*sarama.Config, error) {
	config := sarama.NewConfig()
	config.ClientID = cfg.ClientID
	config.Producer.RequiredAcks = cfg.RequiredAcks
	config.Producer.Retry.Max = cfg.MaxRetries
	config.Producer.Retry.Backoff = cfg.RetryBackoff
	config.Producer.Idempotent = cfg.EnableIdempotent
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	if cfg.Timeout > 0 {
		config.Producer.Timeout = cfg.Timeout
	}
	if cfg.EnableIdempotent {
		config.Net.MaxOpenRequests = 1
	}

	codec, err := compressionCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}
	config.Producer.Compression = codec

	config.Version = sarama.V3_6_0_0
	if cfg.Version != "" {
		version, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return nil, fmt.Errorf("invalid kafka version %q: %w", cfg.Version, err)
		}
		config.Version = version
	}

	return config, nil
}

func compressionCodec(name string) (sarama.CompressionCodec, error) {
	switch name {
	case "", "none":
		return sarama.CompressionNone, nil
	case "gzip":
		return sarama.CompressionGZIP, nil
	case "snappy":
		return sarama.CompressionSnappy, nil
	case "lz4":
		return sarama.CompressionLZ4, nil
	case "zstd":
		return sarama.CompressionZSTD, nil
	default:
		return sarama.CompressionNone, fmt.Errorf("unsupported compression: %s", name)
	}
}

// PublishUserEvent는 사용자 ID를 키로 이벤트를 발행합니다
func (p *Producer) PublishUserEvent(ctx context.Context, event *model.UserEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error(ctx, "failed to marshal event",
			logger.Field("event_type", event.EventType),
			zap.Error(err),
		)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(event.UserID),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: event.Timestamp,
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.EventType)},
			{Key: []byte("event_id"), Value: []byte(event.EventID)},
		},
	}

	var partition int32
	var offset int64
	err = p.breaker.Do(func() error {
		var sendErr error
		partition, offset, sendErr = p.producer.SendMessage(msg)
		return sendErr
	})
	if err != nil {
		p.metrics.RecordEventPublished(string(event.EventType), "error")
		logger.Error(ctx, "failed to send event",
			logger.Field("topic", p.topic),
			logger.UserID(event.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send event: %w", err)
	}

	p.metrics.RecordEventPublished(string(event.EventType), "success")
	logger.Debug(ctx, "event published successfully",
		logger.Field("topic", p.topic),
		logger.Field("event_type", event.EventType),
		logger.Field("partition", partition),
		logger.Field("offset", offset),
	)

	return nil
}

// Close는 프로듀서를 종료합니다
func (p *Producer) Close() error {
	return p.producer.Close()
}

// NoopPublisher는 Kafka가 비활성화된 경우 사용하는 발행기입니다
type NoopPublisher struct{}

// PublishUserEvent는 아무것도 하지 않습니다
func (NoopPublisher) PublishUserEvent(ctx context.Context, event *model.UserEvent) error {
	logger.Debug(ctx, "event publishing disabled", logger.Field("event_type", event.EventType))
	return nil
}

// Close는 아무것도 하지 않습니다
func (NoopPublisher) Close() error {
	return nil
}
