package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Message is an outbox message handed to a Publisher.
type Message struct {
	ID        string
	Topic     string
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

// Publisher delivers messages to their consumers.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// LogPublisher writes messages to the log. It is the default when no broker is configured.
type LogPublisher struct{}

// Publish implements Publisher.
func (LogPublisher) Publish(_ context.Context, msg Message) error {
	log.Info().
		Str("message_id", msg.ID).
		Str("topic", msg.Topic).
		Str("key", msg.Key).
		RawJSON("payload", msg.Payload).
		Msg("notification")

	return nil
}

// Close implements Publisher.
func (LogPublisher) Close() error {
	return nil
}
