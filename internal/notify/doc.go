// Package notify implements the notification outbox.
//
// State changes write OutboxMessage rows with Enqueue inside their own transaction.
// The Dispatcher later publishes undelivered rows one by one; a failing message
// records the error and the batch carries on. Delivery is at least once.
package notify
