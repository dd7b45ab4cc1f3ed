package subscription

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/messaging"
	"github.com/feral-file/drips-indexer/internal/providers/ethereum"
	"github.com/feral-file/drips-indexer/internal/store"
)

const (
	DEFAULT_RESUBSCRIBE_INTERVAL = 5 * time.Minute
	DEFAULT_RETRY_DELAY          = 5 * time.Second
	DEFAULT_CURSOR_SAVE_FREQ     = uint64(10)
	DEFAULT_CURSOR_SAVE_DELAY    = 30 * time.Second
	DEFAULT_LOG_BUFFER           = 64
)

// Config holds the configuration for the subscription manager
type Config struct {
	ChainID    domain.Chain
	StartBlock uint64
	// Contracts maps each Drips contract to its deployed address
	Contracts map[domain.Contract]common.Address

	ResubscribeInterval time.Duration
	RetryDelay          time.Duration
	CursorSaveFreq      uint64        // Save catch-up progress every N blocks
	CursorSaveDelay     time.Duration // Or every N seconds
	LogBuffer           int
}

// Manager keeps one live log subscription per registered event signature and enqueues every log
type Manager interface {
	// Run subscribes and re-arms the subscriptions until ctx is cancelled
	Run(ctx context.Context) error
}

// cursorState tracks catch-up progress. Live deliveries never move it: a log enqueued
// by one subscription says nothing about the blocks another subscription may have missed.
type cursorState struct {
	highest uint64
	saved   uint64
	savedAt time.Time
}

type manager struct {
	client    ethereum.Client
	publisher messaging.Publisher
	cursors   store.CursorStore
	clock     adapter.Clock
	config    Config

	mu     sync.Mutex
	cursor cursorState
}

// NewManager creates a new subscription manager
func NewManager(
	client ethereum.Client,
	publisher messaging.Publisher,
	cursors store.CursorStore,
	clock adapter.Clock,
	cfg Config,
) Manager {
	if cfg.ResubscribeInterval <= 0 {
		cfg.ResubscribeInterval = DEFAULT_RESUBSCRIBE_INTERVAL
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DEFAULT_RETRY_DELAY
	}
	if cfg.CursorSaveFreq == 0 {
		cfg.CursorSaveFreq = DEFAULT_CURSOR_SAVE_FREQ
	}
	if cfg.CursorSaveDelay <= 0 {
		cfg.CursorSaveDelay = DEFAULT_CURSOR_SAVE_DELAY
	}
	if cfg.LogBuffer <= 0 {
		cfg.LogBuffer = DEFAULT_LOG_BUFFER
	}

	return &manager{
		client:    client,
		publisher: publisher,
		cursors:   cursors,
		clock:     clock,
		config:    cfg,
	}
}

// Run arms the subscriptions, then re-arms them every ResubscribeInterval.
// A failed cycle is retried after RetryDelay. Run only returns when ctx is done.
func (m *manager) Run(ctx context.Context) error {
	for _, sig := range domain.AllSignatures() {
		if (m.config.Contracts[sig.Contract()] == common.Address{}) {
			return fmt.Errorf("no address configured for contract %s", sig.Contract())
		}
	}

	logger.InfoCtx(ctx, "Starting subscription manager",
		zap.String("chain", string(m.config.ChainID)),
		zap.Int("signatures", len(domain.AllSignatures())),
		zap.Duration("resubscribeInterval", m.config.ResubscribeInterval))

	for {
		err := m.cycle(ctx)
		if ctx.Err() != nil {
			logger.InfoCtx(ctx, "Subscription manager stopped")
			return ctx.Err()
		}
		if err == nil {
			continue
		}

		logger.ErrorCtx(ctx, err,
			zap.String("message", "Subscription cycle failed, retrying"),
			zap.Duration("retryDelay", m.config.RetryDelay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.clock.After(m.config.RetryDelay):
		}
	}
}

// cycle catches up from the cursor to the head, subscribes every signature and waits.
// All subscriptions have exited when it returns. Logs delivered live are read again by
// the next cycle's catch-up, so a subscription that dies silently loses nothing.
func (m *manager) cycle(ctx context.Context) error {
	head, err := m.client.LatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest block: %w", err)
	}

	from, err := m.resumeBlock(ctx, head)
	if err != nil {
		return err
	}

	if err := m.catchUp(ctx, from, head); err != nil {
		return err
	}

	subCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, len(domain.AllSignatures()))
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	for _, sig := range domain.AllSignatures() {
		if err := m.subscribe(subCtx, sig, &wg, errCh); err != nil {
			return err
		}
	}

	logger.InfoCtx(ctx, "Subscriptions armed",
		zap.String("chain", string(m.config.ChainID)),
		zap.Uint64("head", head))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	case <-m.clock.After(m.config.ResubscribeInterval):
		logger.InfoCtx(ctx, "Re-arming subscriptions")
		return nil
	}
}

// resumeBlock returns the first block to replay. The cursor block itself is replayed because
// other logs of that block may not have been enqueued when it was saved.
func (m *manager) resumeBlock(ctx context.Context, head uint64) (uint64, error) {
	saved, err := m.cursors.GetBlockCursor(ctx, string(m.config.ChainID))
	if err != nil {
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}

	m.mu.Lock()
	m.cursor = cursorState{highest: saved, saved: saved, savedAt: m.clock.Now()}
	m.mu.Unlock()

	switch {
	case saved > 0:
		logger.InfoCtx(ctx, "Resuming from block cursor", zap.Uint64("block", saved))
		return saved, nil
	case m.config.StartBlock > 0:
		logger.InfoCtx(ctx, "Starting from configured block", zap.Uint64("block", m.config.StartBlock))
		return m.config.StartBlock, nil
	default:
		logger.InfoCtx(ctx, "Starting from latest block", zap.Uint64("block", head))
		return head, nil
	}
}

// catchUp enqueues every log between from and head in chain order
func (m *manager) catchUp(ctx context.Context, from, head uint64) error {
	if from > head {
		return nil
	}

	query := geth.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(head),
		Addresses: m.addresses(),
		Topics:    [][]common.Hash{m.topics()},
	}
	logs, err := m.client.FilterLogs(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to filter logs from %d to %d: %w", from, head, err)
	}

	slices.SortStableFunc(logs, func(a, b types.Log) int {
		return domain.OrderingKey{BlockNumber: a.BlockNumber, LogIndex: a.Index}.
			Compare(domain.OrderingKey{BlockNumber: b.BlockNumber, LogIndex: b.Index})
	})

	for _, l := range logs {
		if err := m.enqueue(ctx, l); err != nil {
			return err
		}
		// the cursor block is replayed on resume, so its remaining logs are not lost
		m.advanceCursor(ctx, l.BlockNumber, false)
	}
	m.advanceCursor(ctx, head, true)

	logger.InfoCtx(ctx, "Caught up",
		zap.Uint64("from", from),
		zap.Uint64("to", head),
		zap.Int("logs", len(logs)))
	return nil
}

// subscribe opens the live subscription of one signature and pumps its logs into the queue
func (m *manager) subscribe(ctx context.Context, sig domain.EventSignature, wg *sync.WaitGroup, errCh chan<- error) error {
	logs := make(chan types.Log, m.config.LogBuffer)
	query := geth.FilterQuery{
		Addresses: []common.Address{m.config.Contracts[sig.Contract()]},
		Topics:    [][]common.Hash{{sig.Topic()}},
	}

	sub, err := m.client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrSubscriptionFailed, sig.Name(), err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sub.Unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				if err == nil {
					err = errors.New("subscription closed")
				}
				errCh <- fmt.Errorf("%w: %s: %w", domain.ErrSubscriptionFailed, sig.Name(), err)
				return
			case l := <-logs:
				if err := m.enqueue(ctx, l); err != nil {
					errCh <- err
					return
				}
			}
		}
	}()

	return nil
}

// enqueue publishes a job for a log. No domain work happens here.
func (m *manager) enqueue(ctx context.Context, l types.Log) error {
	if l.Removed {
		logger.WarnCtx(ctx, "Skipping removed log",
			zap.String("txHash", l.TxHash.Hex()),
			zap.Uint("logIndex", l.Index),
			zap.Uint64("block", l.BlockNumber))
		return nil
	}

	event, err := domain.NewDripsEvent(l)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("txHash", l.TxHash.Hex()), zap.Uint("logIndex", l.Index))
		return nil
	}

	if err := m.publisher.Enqueue(ctx, event); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", event.NaturalKey(), err)
	}
	return nil
}

// advanceCursor records catch-up progress up to block and saves it every N blocks or N seconds.
// Only the catch-up calls it, every block below it has been read by FilterLogs.
func (m *manager) advanceCursor(ctx context.Context, block uint64, force bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if block > m.cursor.highest {
		m.cursor.highest = block
	}
	if m.cursor.highest <= m.cursor.saved {
		return
	}

	shouldSave := force ||
		m.cursor.highest-m.cursor.saved >= m.config.CursorSaveFreq ||
		m.clock.Since(m.cursor.savedAt) >= m.config.CursorSaveDelay
	if !shouldSave {
		return
	}

	if err := m.cursors.SetBlockCursor(ctx, string(m.config.ChainID), m.cursor.highest); err != nil {
		logger.WarnCtx(ctx, "Failed to save block cursor", zap.Error(err), zap.Uint64("block", m.cursor.highest))
		return
	}
	m.cursor.saved = m.cursor.highest
	m.cursor.savedAt = m.clock.Now()
}

func (m *manager) addresses() []common.Address {
	seen := make(map[common.Address]bool)
	var addresses []common.Address
	for _, sig := range domain.AllSignatures() {
		address := m.config.Contracts[sig.Contract()]
		if !seen[address] {
			seen[address] = true
			addresses = append(addresses, address)
		}
	}
	return addresses
}

func (m *manager) topics() []common.Hash {
	topics := make([]common.Hash, 0, len(domain.AllSignatures()))
	for _, sig := range domain.AllSignatures() {
		topics = append(topics, sig.Topic())
	}
	return topics
}
