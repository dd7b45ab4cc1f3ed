package messaging

import (
	"context"

	"github.com/feral-file/drips-indexer/internal/domain"
)

// Publisher defines the interface for writing to the durable job queue
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// Enqueue publishes a job for a log. The broker drops duplicates of the same natural key
	// within its deduplication window, so repeated enqueues of one log are cheap.
	Enqueue(ctx context.Context, event *domain.DripsEvent) error
	// DeadLetter publishes a job that exhausted its retries or cannot be processed
	DeadLetter(ctx context.Context, letter *DeadLetter) error
	// Close closes the connection
	Close()
}
