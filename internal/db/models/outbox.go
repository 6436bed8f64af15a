package models

import "time"

// OutboxMessage is a notification written in the same transaction as the state change it reports.
// A dispatcher publishes undelivered messages later.
type OutboxMessage struct {
	ID      string `gorm:"primaryKey;size:36"`
	Topic   string `gorm:"size:100;not null;index"`
	Key     string `gorm:"column:msg_key;size:100"`
	Payload []byte
	// Attempts counts failed publish attempts.
	Attempts  int    `gorm:"not null;default:0"`
	LastError string `gorm:"size:1024"`
	// DispatchedAt is nil until the message was published.
	DispatchedAt *time.Time `gorm:"index"`
	CreatedAt    time.Time
}

// TableName specifies the database table name for the OutboxMessage model.
func (OutboxMessage) TableName() string {
	return "outbox_messages"
}
