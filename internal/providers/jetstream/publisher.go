package jetstream

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/messaging"
)

type publisher struct {
	nc   adapter.NatsConn
	js   adapter.JetStream
	json adapter.JSON
}

// NewPublisher connects to NATS, makes sure the stream exists and returns a publisher
func NewPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	nc, js, err := Connect(cfg, natsJS)
	if err != nil {
		return nil, err
	}

	if err := EnsureStream(ctx, js, cfg); err != nil {
		nc.Close()
		return nil, err
	}

	return NewPublisherFromConn(nc, js, jsonAdapter), nil
}

// NewPublisherFromConn returns a publisher on an existing connection, so a process can share one
// connection between consuming and dead-lettering. Close closes the shared connection.
func NewPublisherFromConn(nc adapter.NatsConn, js adapter.JetStream, jsonAdapter adapter.JSON) messaging.Publisher {
	return &publisher{
		nc:   nc,
		js:   js,
		json: jsonAdapter,
	}
}

// Enqueue publishes a job, using the log's natural key as the message id
func (p *publisher) Enqueue(ctx context.Context, event *domain.DripsEvent) error {
	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := messaging.JobSubject(event.Signature)
	ack, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(messaging.MsgID(event)))
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	logger.DebugCtx(ctx, "Enqueued job",
		zap.String("subject", subject),
		zap.String("naturalKey", event.NaturalKey().String()),
		zap.Uint64("sequence", ack.Sequence),
		zap.Bool("duplicate", ack.Duplicate))
	return nil
}

// DeadLetter publishes a dead letter envelope
func (p *publisher) DeadLetter(ctx context.Context, letter *messaging.DeadLetter) error {
	data, err := p.json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	subject := messaging.DeadLetterSubject(letter.Subject)
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(letter.ID)); err != nil {
		return fmt.Errorf("failed to publish dead letter: %w", err)
	}

	logger.WarnCtx(ctx, "Job dead-lettered",
		zap.String("subject", subject),
		zap.String("id", letter.ID),
		zap.String("reason", letter.Reason))
	return nil
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}
