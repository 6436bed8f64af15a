package notify

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/db/models"
)

const maxErrorLen = 1024

// Dispatcher publishes undelivered outbox messages.
type Dispatcher struct {
	db          *gorm.DB
	publisher   Publisher
	batchSize   int
	maxAttempts int
	now         func() time.Time
}

// NewDispatcher creates a dispatcher handling up to batchSize messages per run.
// Messages failing maxAttempts times are left in the outbox and no longer retried.
func NewDispatcher(db *gorm.DB, publisher Publisher, batchSize, maxAttempts int) *Dispatcher {
	return &Dispatcher{
		db:          db,
		publisher:   publisher,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Result counts the outcome of one dispatch run.
type Result struct {
	Published int
	Failed    int
}

// DispatchPending publishes one batch of undelivered messages, oldest first.
// A failed message records its error and does not stop the batch.
func (d *Dispatcher) DispatchPending(ctx context.Context) (Result, error) {
	var (
		res  Result
		msgs []models.OutboxMessage
	)

	db := d.db.WithContext(ctx)

	err := db.Where("dispatched_at IS NULL AND attempts < ?", d.maxAttempts).
		Order("created_at, id").
		Limit(d.batchSize).
		Find(&msgs).Error
	if err != nil {
		return res, errors.Wrap(err, "failed to load outbox")
	}

	for i := range msgs {
		m := &msgs[i]

		pubErr := d.publisher.Publish(ctx, Message{
			ID:        m.ID,
			Topic:     m.Topic,
			Key:       m.Key,
			Payload:   m.Payload,
			CreatedAt: m.CreatedAt,
		})
		if pubErr != nil {
			res.Failed++
			dispatched.WithLabelValues("error").Inc()

			log.Warn().Err(pubErr).Str("message_id", m.ID).Str("topic", m.Topic).Int("attempt", m.Attempts+1).
				Msg("failed to publish notification")

			msgErr := pubErr.Error()
			if len(msgErr) > maxErrorLen {
				msgErr = msgErr[:maxErrorLen]
			}

			if err = db.Model(m).UpdateColumns(map[string]any{
				"attempts":   gorm.Expr("attempts + 1"),
				"last_error": msgErr,
			}).Error; err != nil {
				log.Error().Err(err).Str("message_id", m.ID).Msg("failed to record publish failure")
			}

			continue
		}

		res.Published++
		dispatched.WithLabelValues("ok").Inc()

		if err = db.Model(m).UpdateColumn("dispatched_at", d.now()).Error; err != nil {
			// the message will be published again on the next run
			log.Error().Err(err).Str("message_id", m.ID).Msg("failed to mark notification dispatched")
		}
	}

	var pending int64
	if err = db.Model(&models.OutboxMessage{}).
		Where("dispatched_at IS NULL AND attempts < ?", d.maxAttempts).
		Count(&pending).Error; err == nil {
		backlog.Set(float64(pending))
	}

	return res, nil
}

// Run is the cron entry point. It logs instead of returning errors.
func (d *Dispatcher) Run() {
	res, err := d.DispatchPending(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("outbox dispatch failed")
		return
	}

	if res.Published > 0 || res.Failed > 0 {
		log.Debug().Int("published", res.Published).Int("failed", res.Failed).Msg("outbox dispatched")
	}
}

// Close closes the publisher.
func (d *Dispatcher) Close() error {
	return d.publisher.Close()
}
