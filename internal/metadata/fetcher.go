package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/uri"
)

const cacheKeyPrefix = "drips:metadata:"

// Fetcher retrieves and parses account metadata documents stored on IPFS
//
//go:generate mockgen -source=fetcher.go -destination=../mocks/metadata_fetcher.go -package=mocks -mock_names=Fetcher=MockMetadataFetcher
type Fetcher interface {
	// FetchProjectMetadata fetches a RepoDriver metadata document.
	// A document that matches no schema version yields ErrInvalidMetadata.
	FetchProjectMetadata(ctx context.Context, ipfsHash string) (*ProjectMetadata, error)

	// FetchDripListMetadata fetches an NftDriver drip list metadata document.
	// A document that matches no schema version yields ErrInvalidMetadata.
	FetchDripListMetadata(ctx context.Context, ipfsHash string) (*DripListMetadata, error)
}

// Config holds configuration for the metadata fetcher
type Config struct {
	// CacheTTL is how long raw documents are cached, zero meaning forever
	CacheTTL time.Duration
}

type fetcher struct {
	resolver   uri.Resolver
	httpClient adapter.HTTPClient
	cache      adapter.RedisClient
	json       adapter.JSON
	config     Config
}

// NewFetcher creates a metadata fetcher. cache may be nil to disable caching.
func NewFetcher(resolver uri.Resolver, httpClient adapter.HTTPClient, cache adapter.RedisClient, json adapter.JSON, config Config) Fetcher {
	return &fetcher{
		resolver:   resolver,
		httpClient: httpClient,
		cache:      cache,
		json:       json,
		config:     config,
	}
}

func (f *fetcher) FetchProjectMetadata(ctx context.Context, ipfsHash string) (*ProjectMetadata, error) {
	data, err := f.fetchRaw(ctx, ipfsHash)
	if err != nil {
		return nil, err
	}
	return ParseProjectMetadata(f.json, data)
}

func (f *fetcher) FetchDripListMetadata(ctx context.Context, ipfsHash string) (*DripListMetadata, error) {
	data, err := f.fetchRaw(ctx, ipfsHash)
	if err != nil {
		return nil, err
	}
	return ParseDripListMetadata(f.json, data)
}

// fetchRaw returns the document bytes, from the cache when possible.
// IPFS content is immutable so a cached document never goes stale.
func (f *fetcher) fetchRaw(ctx context.Context, ipfsHash string) ([]byte, error) {
	cid, err := uri.CID(ipfsHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}

	key := cacheKeyPrefix + cid
	if f.cache != nil {
		data, err := f.cache.Get(ctx, key)
		switch {
		case err == nil:
			logger.DebugCtx(ctx, "Metadata cache hit", zap.String("cid", cid))
			return data, nil
		case !errors.Is(err, adapter.ErrCacheMiss):
			logger.WarnCtx(ctx, "Failed to read metadata cache", zap.String("cid", cid), zap.Error(err))
		}
	}

	url, err := f.resolver.Resolve(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve metadata %s: %w", cid, err)
	}

	data, err := f.httpClient.GetBytes(ctx, url)
	if err != nil {
		if errors.Is(err, adapter.ErrResponseTooLarge) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
		}
		return nil, fmt.Errorf("failed to fetch metadata from %s: %w", url, err)
	}

	if mtype := mimetype.Detect(data); !mtype.Is("application/json") {
		return nil, fmt.Errorf("%w: unexpected content type %s", ErrInvalidMetadata, mtype.String())
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, data, f.config.CacheTTL); err != nil {
			logger.WarnCtx(ctx, "Failed to write metadata cache", zap.String("cid", cid), zap.Error(err))
		}
	}

	return data, nil
}
