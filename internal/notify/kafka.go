package notify

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/postdeck/postdeck/internal/config"
	"github.com/postdeck/postdeck/internal/logger/adapter/stdlogger"
)

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes messages to kafka. With a configured topic every message goes there
// and carries its outbox topic as a header, otherwise the outbox topic is the kafka topic.
type KafkaPublisher struct {
	writer Writer
	topic  string
}

// NewKafkaPublisher creates a publisher writing to the configured brokers.
func NewKafkaPublisher(cfg config.Kafka) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: cfg.Topic == "",
		Logger:                 stdlogger.NewLevel(zerolog.DebugLevel, "kafka"),
		ErrorLogger:            stdlogger.NewLevel(zerolog.ErrorLevel, "kafka"),
	}

	return NewKafkaPublisherWithWriter(w, cfg.Topic)
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	km := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Payload,
		Time:  msg.CreatedAt,
		Headers: []kafka.Header{
			{Key: "message-id", Value: []byte(msg.ID)},
			{Key: "topic", Value: []byte(msg.Topic)},
		},
	}

	// kafka.Writer rejects messages naming a topic when the writer has one
	if p.topic == "" {
		km.Topic = msg.Topic
	}

	if err := p.writer.WriteMessages(ctx, km); err != nil {
		return errors.Wrapf(err, "kafka write of %s failed", msg.ID)
	}

	return nil
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewPublisher returns the publisher selected in the configuration.
func NewPublisher(cfg config.Notify) (Publisher, error) {
	switch cfg.Publisher {
	case "", "log":
		return LogPublisher{}, nil
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka), nil
	default:
		return nil, errors.Wrap(config.ErrUnknownPublisher, cfg.Publisher)
	}
}
