package queue

import (
	"context"
)

// MessageInterface is a delivered job awaiting acknowledgement
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue publishes and delivers jobs
type JobQueue interface {
	// Enqueue publishes a job
	Enqueue(ctx context.Context, job *Job) error

	// Consume delivers messages until ctx is cancelled. Prefetch bounds the
	// number of unacknowledged messages held by this consumer.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}
