package block

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/logger"
)

const DEFAULT_MAX_ENTRIES = 4096

// Timestamper returns the timestamp of a block
type Timestamper interface {
	BlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Config holds configuration for the timestamp cache
type Config struct {
	// TTL is how long to cache block timestamps.
	// Block timestamps are immutable once confirmed, so 0 caches forever.
	TTL time.Duration

	// MaxEntries bounds the cache. When full, the lowest blocks are evicted first.
	MaxEntries int
}

type cachedTimestamp struct {
	Timestamp time.Time
	CachedAt  time.Time
}

// timestampCache reduces RPC calls for logs of the same block, which are usually processed together
type timestampCache struct {
	source Timestamper
	config Config
	clock  adapter.Clock

	mu      sync.RWMutex
	entries map[uint64]cachedTimestamp
}

// NewTimestampCache creates a Timestamper that caches the timestamps returned by source
func NewTimestampCache(source Timestamper, config Config, clock adapter.Clock) Timestamper {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DEFAULT_MAX_ENTRIES
	}

	return &timestampCache{
		source:  source,
		config:  config,
		clock:   clock,
		entries: make(map[uint64]cachedTimestamp),
	}
}

// BlockTimestamp returns the timestamp for a given block number, using cache if valid
func (c *timestampCache) BlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	c.mu.RLock()
	cached, ok := c.entries[blockNumber]
	c.mu.RUnlock()

	now := c.clock.Now()

	if ok && (c.config.TTL == 0 || now.Sub(cached.CachedAt) < c.config.TTL) {
		logger.DebugCtx(ctx, "Using cached block timestamp",
			zap.Uint64("block_number", blockNumber),
			zap.Time("timestamp", cached.Timestamp))
		return cached.Timestamp, nil
	}

	timestamp, err := c.source.BlockTimestamp(ctx, blockNumber)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch block timestamp for block %d: %w", blockNumber, err)
	}

	c.mu.Lock()
	c.entries[blockNumber] = cachedTimestamp{
		Timestamp: timestamp,
		CachedAt:  now,
	}
	c.evict()
	c.mu.Unlock()

	return timestamp, nil
}

// evict drops the lowest blocks down to half of MaxEntries once the cache is over capacity.
// Must be called with mu held.
func (c *timestampCache) evict() {
	if len(c.entries) <= c.config.MaxEntries {
		return
	}

	blocks := make([]uint64, 0, len(c.entries))
	for n := range c.entries {
		blocks = append(blocks, n)
	}
	slices.Sort(blocks)

	for _, n := range blocks[:len(blocks)-c.config.MaxEntries/2] {
		delete(c.entries, n)
	}
}
