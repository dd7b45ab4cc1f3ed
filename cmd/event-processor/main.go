package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/block"
	"github.com/feral-file/drips-indexer/internal/config"
	"github.com/feral-file/drips-indexer/internal/handlers"
	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/metadata"
	"github.com/feral-file/drips-indexer/internal/providers/ethereum"
	"github.com/feral-file/drips-indexer/internal/providers/jetstream"
	"github.com/feral-file/drips-indexer/internal/ratelimit"
	"github.com/feral-file/drips-indexer/internal/splits"
	"github.com/feral-file/drips-indexer/internal/store"
	"github.com/feral-file/drips-indexer/internal/uri"
	"github.com/feral-file/drips-indexer/internal/worker"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadEventProcessorConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "event-processor",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Event Processor")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()

	// Initialize ethereum client, used for block timestamps, on-chain splits hashes and drip list token ids
	ethDialer := adapter.NewEthClientDialer()
	adapterEthClient, err := ethDialer.Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err), zap.String("rpc_url", cfg.Ethereum.RPCURL))
	}
	ethereumClient := ethereum.NewClient(ethereum.Config{
		ChainID:          cfg.Ethereum.ChainID,
		DripsAddress:     common.HexToAddress(cfg.Ethereum.DripsAddress),
		NftDriverAddress: common.HexToAddress(cfg.Ethereum.NftDriverAddress),
	}, adapterEthClient)
	defer ethereumClient.Close()
	if err := ethereumClient.VerifyChain(ctx); err != nil {
		logger.FatalCtx(ctx, "Ethereum node chain mismatch", zap.Error(err), zap.String("chain_id", string(cfg.Ethereum.ChainID)))
	}

	// Logs of one block share a timestamp, cache it across jobs
	blockTimestamps := block.NewTimestampCache(ethereumClient, block.Config{
		MaxEntries: block.DEFAULT_MAX_ENTRIES,
	}, clockAdapter)

	// Initialize the optional metadata cache
	var cache adapter.RedisClient
	if cfg.Redis.Addr != "" {
		cache = adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := cache.Ping(ctx); err != nil {
			logger.FatalCtx(ctx, "Failed to connect to Redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr))
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("Failed to close Redis connection", zap.Error(err))
			}
		}()
		logger.InfoCtx(ctx, "Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize metadata fetcher
	httpClient := ratelimit.NewHTTPClient(
		adapter.NewHTTPClient(cfg.Metadata.HTTPTimeout, cfg.Metadata.MaxBodyBytes),
		ratelimit.Config{
			RequestsPerSecond: cfg.Metadata.RequestsPerSecond,
			Burst:             cfg.Metadata.Burst,
		},
	)
	uriResolver := uri.NewResolver(httpClient, &uri.Config{
		IPFSGateways: cfg.URI.IPFSGateways,
	})
	fetcher := metadata.NewFetcher(uriResolver, httpClient, cache, jsonAdapter, metadata.Config{
		CacheTTL: cfg.Redis.TTL,
	})

	// Initialize dispatcher
	dispatcher := handlers.NewDispatcher(
		dataStore,
		blockTimestamps,
		ethereumClient,
		fetcher,
		splits.NewValidator(ethereumClient),
		clockAdapter,
		jsonAdapter,
		handlers.Config{
			VisibilityThresholdBlock: cfg.Drips.VisibilityThresholdBlockNumber,
		},
	)

	// Connect to NATS, the same connection consumes jobs and publishes dead letters
	natsCfg := jetstream.Config{
		URL:             cfg.NATS.URL,
		StreamName:      cfg.NATS.StreamName,
		MaxReconnects:   cfg.NATS.MaxReconnects,
		ReconnectWait:   cfg.NATS.ReconnectWait,
		ConnectionName:  cfg.NATS.ConnectionName,
		DuplicateWindow: cfg.NATS.DuplicateWindow,
	}
	nc, js, err := jetstream.Connect(natsCfg, natsJS)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	if err := jetstream.EnsureStream(ctx, js, natsCfg); err != nil {
		nc.Close()
		logger.FatalCtx(ctx, "Failed to ensure NATS stream", zap.Error(err), zap.String("stream", cfg.NATS.StreamName))
	}
	publisher := jetstream.NewPublisherFromConn(nc, js, jsonAdapter)
	defer publisher.Close()
	logger.InfoCtx(ctx, "Connected to NATS JetStream")

	jobWorker := worker.NewWorker(
		worker.Config{
			StreamName:   cfg.NATS.StreamName,
			ConsumerName: cfg.NATS.ConsumerName,
			AckWait:      cfg.NATS.AckWait,
			MaxDeliver:   cfg.NATS.MaxDeliver,
			PoolSize:     cfg.Worker.WorkerPoolSize,
			QueueSize:    cfg.Worker.WorkerQueueSize,
			NakDelay:     cfg.Worker.NakDelay,
			NakMaxDelay:  cfg.Worker.NakMaxDelay,
		},
		js,
		dispatcher,
		publisher,
		jsonAdapter,
		clockAdapter,
	)

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for worker errors
	errCh := make(chan error, 1)
	doneCh := make(chan struct{})

	// Start the worker
	go func() {
		defer close(doneCh)
		if err := jobWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "worker"))
		cancel()
	}

	// In-flight jobs finish or roll back, unacked jobs are redelivered
	select {
	case <-doneCh:
	case <-time.After(30 * time.Second):
		logger.Warn("Timed out waiting for in-flight jobs")
	}

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Event Processor stopped")
}
