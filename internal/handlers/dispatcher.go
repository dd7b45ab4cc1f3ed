package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/audit"
	"github.com/feral-file/drips-indexer/internal/block"
	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/metadata"
	"github.com/feral-file/drips-indexer/internal/splits"
	"github.com/feral-file/drips-indexer/internal/store"
)

// Dispatcher applies queued logs to the relational mirror
//
//go:generate mockgen -source=dispatcher.go -destination=../mocks/dispatcher.go -package=mocks -mock_names=Dispatcher=MockDispatcher
type Dispatcher interface {
	// Dispatch applies one log in a single transaction. Applying the same log again is a no-op.
	Dispatch(ctx context.Context, event *domain.DripsEvent) error
}

// Config holds the settings handlers need besides their dependencies
type Config struct {
	// VisibilityThresholdBlock is the block after which only minted drip lists are visible
	VisibilityThresholdBlock uint64
}

type dispatcher struct {
	store     store.Store
	blocks    block.Timestamper
	tokens    TokenIDCalculator
	fetcher   metadata.Fetcher
	validator splits.Validator
	clock     adapter.Clock
	json      adapter.JSON
	config    Config
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(
	st store.Store,
	blocks block.Timestamper,
	tokens TokenIDCalculator,
	fetcher metadata.Fetcher,
	validator splits.Validator,
	clock adapter.Clock,
	jsonAdapter adapter.JSON,
	cfg Config,
) Dispatcher {
	return &dispatcher{
		store:     st,
		blocks:    blocks,
		tokens:    tokens,
		fetcher:   fetcher,
		validator: validator,
		clock:     clock,
		json:      jsonAdapter,
		config:    cfg,
	}
}

// Dispatch resolves the handler of the event's signature and runs it in a transaction.
// The audit trail is journaled before commit and logged once the transaction ended.
func (d *dispatcher) Dispatch(ctx context.Context, event *domain.DripsEvent) error {
	h, err := d.handlerFor(event.Signature)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("signature", string(event.Signature)))
		return err
	}

	if len(event.Log.Topics) == 0 || event.Log.Topics[0] != event.Signature.Topic() {
		return fmt.Errorf("%w: topic0 does not match %s", domain.ErrInvariantViolation, event.Signature)
	}

	requestID := uuid.NewString()
	ctx = logger.WithFields(ctx,
		zap.String("request_id", requestID),
		zap.String("event", event.Signature.Name()),
		zap.String("natural_key", event.NaturalKey().String()),
		zap.Stringer("ordering_key", event.OrderingKey()))

	if event.Log.Removed {
		logger.WarnCtx(ctx, "Ignoring log removed by a reorg")
		return nil
	}

	blockTime, err := d.blocks.BlockTimestamp(ctx, event.Log.BlockNumber)
	if err != nil {
		return fmt.Errorf("failed to get block timestamp: %w", err)
	}

	trail := audit.New(requestID, d.clock, d.json)
	err = d.store.Transaction(ctx, func(tx store.Tx) error {
		// the transaction may be retried from scratch
		trail.Reset()

		req := &request{
			event:     event,
			tx:        tx,
			audit:     trail,
			blockTime: blockTime,
		}
		if err := h.handle(ctx, req); err != nil {
			return err
		}

		changes, err := trail.Changes()
		if err != nil {
			return err
		}
		return tx.CreateChanges(ctx, changes)
	})
	trail.Flush(ctx, err)

	if err != nil {
		return fmt.Errorf("failed to handle %s: %w", event.Signature.Name(), err)
	}
	return nil
}
