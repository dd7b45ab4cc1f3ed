package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/handlers"
	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/messaging"
)

const (
	DEFAULT_POOL_SIZE     = 8
	DEFAULT_QUEUE_SIZE    = 64
	DEFAULT_NAK_DELAY     = 5 * time.Second
	DEFAULT_NAK_MAX_DELAY = 5 * time.Minute

	DEFAULT_DEAD_LETTER_RETRIES     = 3
	DEFAULT_DEAD_LETTER_RETRY_DELAY = 500 * time.Millisecond
)

// Config holds the configuration for the job worker
type Config struct {
	StreamName   string
	ConsumerName string
	// AckWait is how long a delivered job may run before the broker redelivers it
	AckWait time.Duration
	// MaxDeliver is the number of deliveries after which a failing job is dead-lettered
	MaxDeliver  int
	PoolSize    int
	QueueSize   int
	NakDelay    time.Duration
	NakMaxDelay time.Duration
	// DeadLetterRetries is how many times a failed dead letter publish is retried in place
	DeadLetterRetries    int
	DeadLetterRetryDelay time.Duration
}

// Worker consumes jobs from the durable queue and dispatches them
type Worker interface {
	// Run consumes until ctx is cancelled
	Run(ctx context.Context) error
}

type worker struct {
	js         adapter.JetStream
	dispatcher handlers.Dispatcher
	publisher  messaging.Publisher
	json       adapter.JSON
	clock      adapter.Clock
	config     Config
}

// NewWorker creates a new job worker
func NewWorker(
	cfg Config,
	js adapter.JetStream,
	dispatcher handlers.Dispatcher,
	publisher messaging.Publisher,
	jsonAdapter adapter.JSON,
	clock adapter.Clock,
) Worker {
	if cfg.PoolSize == 0 {
		cfg.PoolSize = DEFAULT_POOL_SIZE
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = DEFAULT_QUEUE_SIZE
	}
	if cfg.NakDelay == 0 {
		cfg.NakDelay = DEFAULT_NAK_DELAY
	}
	if cfg.NakMaxDelay == 0 {
		cfg.NakMaxDelay = DEFAULT_NAK_MAX_DELAY
	}
	if cfg.DeadLetterRetries == 0 {
		cfg.DeadLetterRetries = DEFAULT_DEAD_LETTER_RETRIES
	}
	if cfg.DeadLetterRetryDelay == 0 {
		cfg.DeadLetterRetryDelay = DEFAULT_DEAD_LETTER_RETRY_DELAY
	}

	return &worker{
		js:         js,
		dispatcher: dispatcher,
		publisher:  publisher,
		json:       jsonAdapter,
		clock:      clock,
		config:     cfg,
	}
}

// Run creates the durable consumer and feeds delivered jobs to a worker pool
func (w *worker) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting job worker",
		zap.String("stream", w.config.StreamName),
		zap.String("consumer", w.config.ConsumerName))

	consumer, err := w.js.CreateOrUpdateConsumer(ctx, w.config.StreamName, jetstream.ConsumerConfig{
		Durable:       w.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       w.config.AckWait,
		MaxDeliver:    w.config.MaxDeliver,
		FilterSubject: messaging.JobSubjectPrefix + ".>",
	})
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.InfoCtx(ctx, "Consumer created/retrieved",
		zap.String("consumer", consumerInfo.Name),
		zap.Uint64("pending", consumerInfo.NumPending))

	pool := pond.NewPool(
		w.config.PoolSize,
		pond.WithQueueSize(w.config.QueueSize),
		pond.WithContext(ctx),
	)
	defer func() {
		pool.StopAndWait()
		logger.InfoCtx(ctx, "Worker pool shutdown complete",
			zap.Uint64("submitted", pool.SubmittedTasks()),
			zap.Uint64("completed", pool.CompletedTasks()),
			zap.Uint64("failed", pool.FailedTasks()))
	}()

	sub, err := consumer.Consume(func(msg adapter.Message) {
		// blocks while the pool queue is full, which stops pulling more jobs
		pool.Submit(func() {
			w.handleMessage(ctx, msg)
		})
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.InfoCtx(ctx, "Started consuming jobs",
		zap.Int("workers", w.config.PoolSize),
		zap.Int("queue_size", w.config.QueueSize))

	select {
	case <-ctx.Done():
		logger.InfoCtx(ctx, "Shutting down job worker")
		return ctx.Err()
	case <-sub.Closed():
		return errors.New("consumer subscription closed")
	}
}

// handleMessage dispatches one job and settles it: ack on success, dead-letter when the
// error is fatal or deliveries are exhausted, otherwise nak with an increasing delay
func (w *worker) handleMessage(ctx context.Context, msg adapter.Message) {
	numDelivered := uint64(1)
	if metadata, err := msg.Metadata(); err == nil {
		numDelivered = metadata.NumDelivered
	} else {
		logger.WarnCtx(ctx, "Failed to read message metadata", zap.Error(err))
	}

	var event domain.DripsEvent
	if err := w.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "Failed to unmarshal job"),
			zap.String("subject", msg.Subject()))
		if err := msg.TermWithReason("unparseable job payload"); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	ctx = logger.WithFields(ctx,
		zap.String("subject", msg.Subject()),
		zap.Uint64("delivery", numDelivered))

	err := w.dispatcher.Dispatch(ctx, &event)
	if err == nil {
		if err := msg.Ack(); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Failed to ACK message"))
		}
		return
	}

	if domain.IsFatal(err) || (w.config.MaxDeliver > 0 && numDelivered >= uint64(w.config.MaxDeliver)) { //nolint:gosec,G115
		logger.ErrorCtx(ctx, err, zap.String("message", "Job failed permanently"))
		w.deadLetter(ctx, msg, err, numDelivered)
		return
	}

	delay := w.nakDelay(numDelivered)
	if domain.IsReferential(err) {
		logger.InfoCtx(ctx, "Job waits for its creating event", zap.Error(err), zap.Duration("delay", delay))
	} else {
		logger.WarnCtx(ctx, "Job failed, retrying", zap.Error(err), zap.Duration("delay", delay))
	}
	if err := msg.NakWithDelay(delay); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to NAK message"))
	}
}

// deadLetter publishes the job to the dead letter subject, retrying with backoff, then terminates it.
// If publishing keeps failing the job is nak'ed while the broker still redelivers it. After the
// last delivery it is left unacknowledged and its payload is logged.
func (w *worker) deadLetter(ctx context.Context, msg adapter.Message, cause error, numDelivered uint64) {
	letter := messaging.NewDeadLetter(msg.Subject(), msg.Data(), cause, numDelivered, w.clock.Now())

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.config.DeadLetterRetryDelay
	b.MaxElapsedTime = 0
	retry := backoff.WithContext(backoff.WithMaxRetries(b, uint64(w.config.DeadLetterRetries)), ctx) //nolint:gosec,G115

	err := backoff.Retry(func() error {
		return w.publisher.DeadLetter(ctx, letter)
	}, retry)
	if err != nil {
		if w.deliveriesLeft(numDelivered) {
			logger.ErrorCtx(ctx, err, zap.String("message", "Failed to dead-letter job, redelivering"))
			if err := msg.NakWithDelay(w.config.NakMaxDelay); err != nil {
				logger.ErrorCtx(ctx, err, zap.String("message", "Failed to NAK message"))
			}
			return
		}

		logger.ErrorCtx(ctx, err,
			zap.String("message", "Failed to dead-letter job after its last delivery"),
			zap.String("reason", cause.Error()),
			zap.ByteString("payload", msg.Data()))
		return
	}

	if err := msg.TermWithReason(cause.Error()); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to terminate message"))
	}
}

// deliveriesLeft reports whether the broker will deliver the job again after a nak
func (w *worker) deliveriesLeft(numDelivered uint64) bool {
	return w.config.MaxDeliver <= 0 || numDelivered < uint64(w.config.MaxDeliver) //nolint:gosec,G115
}

// nakDelay grows exponentially with the delivery count, capped at NakMaxDelay
func (w *worker) nakDelay(numDelivered uint64) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.config.NakDelay
	b.MaxInterval = w.config.NakMaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := uint64(1); i < numDelivered && delay < w.config.NakMaxDelay; i++ {
		delay = b.NextBackOff()
	}
	return delay
}
