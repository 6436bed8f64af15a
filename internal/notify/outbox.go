package notify

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/db/models"
)

// Topics written by the approval engine.
const (
	TopicAssignmentCreated = "approval.assignment.created"
	TopicInstanceApproved  = "approval.instance.approved"
	TopicInstanceRejected  = "approval.instance.rejected"
)

// Enqueue stores a message in the caller's transaction. Key groups related messages,
// kafka uses it for partitioning.
func Enqueue(tx *gorm.DB, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s payload", topic)
	}

	msg := models.OutboxMessage{
		ID:      uuid.NewString(),
		Topic:   topic,
		Key:     key,
		Payload: data,
	}

	if err = tx.Create(&msg).Error; err != nil {
		return errors.Wrapf(err, "failed to enqueue %s", topic)
	}

	return nil
}
