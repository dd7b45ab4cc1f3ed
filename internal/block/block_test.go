package block_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/drips-indexer/internal/block"
	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/mocks"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testTimestampCacheMocks contains all the mocks needed for testing the timestamp cache
type testTimestampCacheMocks struct {
	ctrl   *gomock.Controller
	source *mocks.MockEthereumClient
	clock  *mocks.MockClock
	cache  block.Timestamper
}

// setupTest creates all the mocks and the timestamp cache for testing
func setupTest(t *testing.T, cfg block.Config) *testTimestampCacheMocks {
	ctrl := gomock.NewController(t)

	tm := &testTimestampCacheMocks{
		ctrl:   ctrl,
		source: mocks.NewMockEthereumClient(ctrl),
		clock:  mocks.NewMockClock(ctrl),
	}
	tm.cache = block.NewTimestampCache(tm.source, cfg, tm.clock)
	return tm
}

func TestTimestampCache_FirstFetch(t *testing.T) {
	tm := setupTest(t, block.Config{})

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	blockTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	tm.source.EXPECT().BlockTimestamp(ctx, uint64(1000)).Return(blockTime, nil)

	timestamp, err := tm.cache.BlockTimestamp(ctx, 1000)

	assert.NoError(t, err)
	assert.Equal(t, blockTime, timestamp)
}

func TestTimestampCache_UsesCache_WithZeroTTL(t *testing.T) {
	tm := setupTest(t, block.Config{})

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	blockTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	// First fetch - cache miss
	tm.clock.EXPECT().Now().Return(now)
	tm.source.EXPECT().BlockTimestamp(ctx, uint64(1000)).Return(blockTime, nil)

	timestamp1, err := tm.cache.BlockTimestamp(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, blockTime, timestamp1)

	// Second fetch - should use cache (TTL is 0, meaning cache forever)
	tm.clock.EXPECT().Now().Return(now.Add(24 * time.Hour))

	timestamp2, err := tm.cache.BlockTimestamp(ctx, 1000)

	assert.NoError(t, err)
	assert.Equal(t, blockTime, timestamp2)
}

func TestTimestampCache_RefreshesCache_AfterTTL(t *testing.T) {
	tm := setupTest(t, block.Config{TTL: 30 * time.Second})

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	blockTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	tm.source.EXPECT().BlockTimestamp(ctx, uint64(1000)).Return(blockTime, nil)

	_, err := tm.cache.BlockTimestamp(ctx, 1000)
	require.NoError(t, err)

	// Within TTL - cached
	tm.clock.EXPECT().Now().Return(now.Add(10 * time.Second))
	_, err = tm.cache.BlockTimestamp(ctx, 1000)
	require.NoError(t, err)

	// Beyond TTL - fetched again
	tm.clock.EXPECT().Now().Return(now.Add(35 * time.Second))
	tm.source.EXPECT().BlockTimestamp(ctx, uint64(1000)).Return(blockTime, nil)

	timestamp, err := tm.cache.BlockTimestamp(ctx, 1000)

	assert.NoError(t, err)
	assert.Equal(t, blockTime, timestamp)
}

func TestTimestampCache_ReturnsError_WhenFetchFails(t *testing.T) {
	tm := setupTest(t, block.Config{})

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	blockTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now).Times(2)
	gomock.InOrder(
		tm.source.EXPECT().BlockTimestamp(ctx, uint64(1000)).Return(time.Time{}, errors.New("header not found")),
		tm.source.EXPECT().BlockTimestamp(ctx, uint64(1000)).Return(blockTime, nil),
	)

	_, err := tm.cache.BlockTimestamp(ctx, 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header not found")

	// failures are not cached
	timestamp, err := tm.cache.BlockTimestamp(ctx, 1000)
	assert.NoError(t, err)
	assert.Equal(t, blockTime, timestamp)
}

func TestTimestampCache_EvictsLowestBlocks(t *testing.T) {
	tm := setupTest(t, block.Config{MaxEntries: 4})

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tm.clock.EXPECT().Now().Return(now).AnyTimes()

	blockTime := func(n uint64) time.Time {
		return now.Add(time.Duration(n) * 12 * time.Second)
	}

	// blocks 1..5 fill the cache past capacity, evicting down to blocks 4 and 5
	for n := uint64(1); n <= 5; n++ {
		tm.source.EXPECT().BlockTimestamp(ctx, n).Return(blockTime(n), nil)
		_, err := tm.cache.BlockTimestamp(ctx, n)
		require.NoError(t, err)
	}

	// still cached
	timestamp, err := tm.cache.BlockTimestamp(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, blockTime(5), timestamp)

	// evicted, fetched again
	tm.source.EXPECT().BlockTimestamp(ctx, uint64(1)).Return(blockTime(1), nil)
	timestamp, err = tm.cache.BlockTimestamp(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, blockTime(1), timestamp)
}

func TestTimestampCache_MultipleBlocks(t *testing.T) {
	tm := setupTest(t, block.Config{})

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	blockTime1 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	blockTime2 := time.Date(2024, 1, 1, 12, 0, 12, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now).Times(4)
	tm.source.EXPECT().BlockTimestamp(ctx, uint64(1000)).Return(blockTime1, nil)
	tm.source.EXPECT().BlockTimestamp(ctx, uint64(1001)).Return(blockTime2, nil)

	timestamp1, err := tm.cache.BlockTimestamp(ctx, 1000)
	require.NoError(t, err)
	timestamp2, err := tm.cache.BlockTimestamp(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, blockTime1, timestamp1)
	assert.Equal(t, blockTime2, timestamp2)

	// both served from cache
	timestamp1Again, err := tm.cache.BlockTimestamp(ctx, 1000)
	require.NoError(t, err)
	timestamp2Again, err := tm.cache.BlockTimestamp(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, blockTime1, timestamp1Again)
	assert.Equal(t, blockTime2, timestamp2Again)
}

func TestTimestampCache_ConcurrentAccess(t *testing.T) {
	tm := setupTest(t, block.Config{})

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	blockTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	// AnyTimes allows concurrent misses before the first fetch is cached
	tm.source.EXPECT().BlockTimestamp(ctx, uint64(1000)).Return(blockTime, nil).AnyTimes()
	tm.clock.EXPECT().Now().Return(now).AnyTimes()

	done := make(chan bool, 10)
	for range 10 {
		go func() {
			timestamp, err := tm.cache.BlockTimestamp(ctx, 1000)
			assert.NoError(t, err)
			assert.Equal(t, blockTime, timestamp)
			done <- true
		}()
	}

	for range 10 {
		<-done
	}
}
