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
	"github.com/feral-file/drips-indexer/internal/config"
	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/providers/ethereum"
	"github.com/feral-file/drips-indexer/internal/providers/jetstream"
	"github.com/feral-file/drips-indexer/internal/store"
	"github.com/feral-file/drips-indexer/internal/subscription"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadEventSubscriberConfig(*configFile, *envPath)
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
			"service": "event-subscriber",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Event Subscriber")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize cursor store
	cursorStore := store.NewCursorStore(db)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()

	// Initialize ethereum client over websocket, required for log subscriptions
	ethDialer := adapter.NewEthClientDialer()
	adapterEthClient, err := ethDialer.Dial(ctx, cfg.Ethereum.WebSocketURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum WebSocket", zap.Error(err), zap.String("websocket_url", cfg.Ethereum.WebSocketURL))
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
	logger.InfoCtx(ctx, "Connected to Ethereum WebSocket")

	// Initialize NATS publisher
	natsPublisher, err := jetstream.NewPublisher(
		ctx,
		jetstream.Config{
			URL:             cfg.NATS.URL,
			StreamName:      cfg.NATS.StreamName,
			MaxReconnects:   cfg.NATS.MaxReconnects,
			ReconnectWait:   cfg.NATS.ReconnectWait,
			ConnectionName:  cfg.NATS.ConnectionName,
			DuplicateWindow: cfg.NATS.DuplicateWindow,
		}, natsJS, jsonAdapter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer natsPublisher.Close()
	logger.InfoCtx(ctx, "Connected to NATS JetStream")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	manager := subscription.NewManager(
		ethereumClient,
		natsPublisher,
		cursorStore,
		clockAdapter,
		subscription.Config{
			ChainID:    cfg.Ethereum.ChainID,
			StartBlock: cfg.Ethereum.StartBlock,
			Contracts: map[domain.Contract]common.Address{
				domain.ContractDrips:      common.HexToAddress(cfg.Ethereum.DripsAddress),
				domain.ContractRepoDriver: common.HexToAddress(cfg.Ethereum.RepoDriverAddress),
				domain.ContractNftDriver:  common.HexToAddress(cfg.Ethereum.NftDriverAddress),
			},
			ResubscribeInterval: cfg.Subscription.ResubscribeInterval,
			RetryDelay:          cfg.Subscription.RetryDelay,
			CursorSaveFreq:      cfg.Subscription.CursorSaveFreq,
			CursorSaveDelay:     cfg.Subscription.CursorSaveDelay,
		},
	)

	// Channel for manager errors
	errCh := make(chan error, 1)
	doneCh := make(chan struct{})

	// Start the subscription manager
	go func() {
		defer close(doneCh)
		if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "subscription"))
		cancel()
	}

	// Wait for subscriptions to exit before closing the connections
	select {
	case <-doneCh:
	case <-time.After(10 * time.Second):
		logger.Warn("Timed out waiting for subscriptions to exit")
	}

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Event Subscriber stopped")
}
