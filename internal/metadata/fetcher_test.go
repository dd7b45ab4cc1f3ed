package metadata_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/metadata"
	"github.com/feral-file/drips-indexer/internal/mocks"
)

const (
	testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	testURL = "https://ipfs.io/ipfs/" + testCID
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type testFetcherMocks struct {
	resolver *mocks.MockURIResolver
	http     *mocks.MockHTTPClient
	cache    *mocks.MockRedisClient
	fetcher  metadata.Fetcher
}

func setupTestFetcher(t *testing.T, withCache bool) *testFetcherMocks {
	ctrl := gomock.NewController(t)
	tm := &testFetcherMocks{
		resolver: mocks.NewMockURIResolver(ctrl),
		http:     mocks.NewMockHTTPClient(ctrl),
	}

	var cache adapter.RedisClient
	if withCache {
		tm.cache = mocks.NewMockRedisClient(ctrl)
		cache = tm.cache
	}
	tm.fetcher = metadata.NewFetcher(tm.resolver, tm.http, cache, adapter.NewJSON(), metadata.Config{CacheTTL: time.Hour})
	return tm
}

func TestFetcher_FetchProjectMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("cache miss fetches and stores", func(t *testing.T) {
		tm := setupTestFetcher(t, true)
		tm.cache.EXPECT().Get(gomock.Any(), "drips:metadata:"+testCID).Return(nil, adapter.ErrCacheMiss)
		tm.resolver.EXPECT().Resolve(gomock.Any(), testCID).Return(testURL, nil)
		tm.http.EXPECT().GetBytes(gomock.Any(), testURL).Return([]byte(projectV2), nil)
		tm.cache.EXPECT().Set(gomock.Any(), "drips:metadata:"+testCID, []byte(projectV2), time.Hour).Return(nil)

		m, err := tm.fetcher.FetchProjectMetadata(ctx, testCID)
		require.NoError(t, err)
		assert.Equal(t, "v2", m.Version)
	})

	t.Run("cache hit skips the gateway", func(t *testing.T) {
		tm := setupTestFetcher(t, true)
		tm.cache.EXPECT().Get(gomock.Any(), "drips:metadata:"+testCID).Return([]byte(projectV1), nil)

		m, err := tm.fetcher.FetchProjectMetadata(ctx, "ipfs://"+testCID)
		require.NoError(t, err)
		assert.Equal(t, "v1", m.Version)
	})

	t.Run("cache failure falls back to the gateway", func(t *testing.T) {
		tm := setupTestFetcher(t, true)
		tm.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
		tm.resolver.EXPECT().Resolve(gomock.Any(), testCID).Return(testURL, nil)
		tm.http.EXPECT().GetBytes(gomock.Any(), testURL).Return([]byte(projectV2), nil)
		tm.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

		_, err := tm.fetcher.FetchProjectMetadata(ctx, testCID)
		require.NoError(t, err)
	})

	t.Run("no cache", func(t *testing.T) {
		tm := setupTestFetcher(t, false)
		tm.resolver.EXPECT().Resolve(gomock.Any(), testCID).Return(testURL, nil)
		tm.http.EXPECT().GetBytes(gomock.Any(), testURL).Return([]byte(projectV2), nil)

		_, err := tm.fetcher.FetchProjectMetadata(ctx, testCID)
		require.NoError(t, err)
	})

	t.Run("gateway failure is not a validation failure", func(t *testing.T) {
		tm := setupTestFetcher(t, false)
		tm.resolver.EXPECT().Resolve(gomock.Any(), testCID).Return("", errors.New("no working IPFS gateway found"))

		_, err := tm.fetcher.FetchProjectMetadata(ctx, testCID)
		require.Error(t, err)
		assert.NotErrorIs(t, err, metadata.ErrInvalidMetadata)
	})

	t.Run("non json content is invalid and not cached", func(t *testing.T) {
		tm := setupTestFetcher(t, true)
		tm.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, adapter.ErrCacheMiss)
		tm.resolver.EXPECT().Resolve(gomock.Any(), testCID).Return(testURL, nil)
		tm.http.EXPECT().GetBytes(gomock.Any(), testURL).Return([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, nil)

		_, err := tm.fetcher.FetchProjectMetadata(ctx, testCID)
		assert.ErrorIs(t, err, metadata.ErrInvalidMetadata)
	})

	t.Run("oversized content is invalid", func(t *testing.T) {
		tm := setupTestFetcher(t, false)
		tm.resolver.EXPECT().Resolve(gomock.Any(), testCID).Return(testURL, nil)
		tm.http.EXPECT().GetBytes(gomock.Any(), testURL).Return(nil, adapter.ErrResponseTooLarge)

		_, err := tm.fetcher.FetchProjectMetadata(ctx, testCID)
		assert.ErrorIs(t, err, metadata.ErrInvalidMetadata)
	})

	t.Run("empty hash is invalid", func(t *testing.T) {
		tm := setupTestFetcher(t, false)

		_, err := tm.fetcher.FetchProjectMetadata(ctx, "")
		assert.ErrorIs(t, err, metadata.ErrInvalidMetadata)
	})
}

func TestFetcher_FetchDripListMetadata(t *testing.T) {
	tm := setupTestFetcher(t, false)
	tm.resolver.EXPECT().Resolve(gomock.Any(), testCID).Return(testURL, nil)
	tm.http.EXPECT().GetBytes(gomock.Any(), testURL).Return([]byte(dripListV2), nil)

	m, err := tm.fetcher.FetchDripListMetadata(context.Background(), testCID)
	require.NoError(t, err)
	assert.Equal(t, "v2", m.Version)
	assert.Len(t, m.Receivers, 2)
}
