package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/logger"
)

// maxFilterStep is the widest block range requested in one eth_getLogs call
const maxFilterStep = uint64(100_000)

// Client is the subset of the Ethereum node the indexer talks to
//
//go:generate mockgen -source=client.go -destination=../../mocks/ethereum_client.go -package=mocks -mock_names=Client=MockEthereumClient
type Client interface {
	// SubscribeFilterLogs subscribes to live logs matching query
	SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// FilterLogs retrieves historical logs matching query, splitting the block range as needed
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	// LatestBlock returns the current head block number
	LatestBlock(ctx context.Context) (uint64, error)

	// BlockTimestamp returns the timestamp of a block
	BlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)

	// VerifyChain fails when the node serves another chain than the configured one
	VerifyChain(ctx context.Context) error

	// SplitsHash returns the splits hash Drips stores for an account as of a block
	SplitsHash(ctx context.Context, accountID domain.AccountID, blockNumber uint64) (common.Hash, error)

	// CalcTokenIDWithSalt returns the NftDriver token id minted by minter with salt as of a block
	CalcTokenIDWithSalt(ctx context.Context, minter common.Address, salt uint64, blockNumber uint64) (*big.Int, error)

	// Close closes the connection
	Close()
}

// Config holds the Ethereum connection settings
type Config struct {
	ChainID          domain.Chain
	DripsAddress     common.Address
	NftDriverAddress common.Address
}

type ethereumClient struct {
	config Config
	client adapter.EthClient
}

func NewClient(config Config, client adapter.EthClient) Client {
	return &ethereumClient{config: config, client: client}
}

// SubscribeFilterLogs subscribes to filter logs
func (c *ethereumClient) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return c.client.SubscribeFilterLogs(ctx, query, ch)
}

// FilterLogs retrieves logs in ranges of at most maxFilterStep blocks, halving the range
// whenever the node refuses a request for returning too many results
func (c *ethereumClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	if query.BlockHash != nil {
		return c.client.FilterLogs(ctx, query)
	}

	var from uint64
	if query.FromBlock != nil {
		from = query.FromBlock.Uint64()
	}

	var to uint64
	if query.ToBlock != nil {
		to = query.ToBlock.Uint64()
	} else {
		latest, err := c.LatestBlock(ctx)
		if err != nil {
			return nil, err
		}
		to = latest
	}

	var allLogs []types.Log
	step := maxFilterStep
	for from <= to {
		end := from + step - 1
		if end > to {
			end = to
		}

		rangeQuery := query
		rangeQuery.FromBlock = new(big.Int).SetUint64(from)
		rangeQuery.ToBlock = new(big.Int).SetUint64(end)

		logs, err := c.client.FilterLogs(ctx, rangeQuery)
		if err != nil {
			if !isTooManyResultsError(err) || step == 1 {
				return nil, fmt.Errorf("failed to get logs for range %d-%d: %w", from, end, err)
			}

			step /= 2
			logger.WarnCtx(ctx, "Too many results, reducing step size",
				zap.Uint64("oldStepSize", step*2),
				zap.Uint64("newStepSize", step),
				zap.Uint64("fromBlock", from),
				zap.Uint64("toBlock", end))
			continue
		}

		allLogs = append(allLogs, logs...)
		from = end + 1
	}

	return allLogs, nil
}

// isTooManyResultsError checks if the error is related to too many results
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum")
}

// LatestBlock returns the current head block number
func (c *ethereumClient) LatestBlock(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}

// BlockTimestamp returns the timestamp of a block
func (c *ethereumClient) BlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	header, err := c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get block %d: %w", blockNumber, err)
	}
	return time.Unix(int64(header.Time), 0).UTC(), nil //nolint:gosec,G115
}

// VerifyChain compares the node's chain id with the configured CAIP-2 chain
func (c *ethereumClient) VerifyChain(ctx context.Context) error {
	id, err := c.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	if !id.IsUint64() {
		return fmt.Errorf("unexpected chain id %s", id)
	}

	if served := domain.ChainFromID(id.Uint64()); served != c.config.ChainID {
		return fmt.Errorf("node serves %s, configured for %s", served, c.config.ChainID)
	}
	return nil
}

// SplitsHash calls Drips.splitsHash(accountId) at the given block
func (c *ethereumClient) SplitsHash(ctx context.Context, accountID domain.AccountID, blockNumber uint64) (common.Hash, error) {
	id, err := accountID.Big()
	if err != nil {
		return common.Hash{}, err
	}

	data, err := dripsABI.Pack("splitsHash", id)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack data: %w", err)
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.config.DripsAddress,
		Data: data,
	}, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to call contract: %w", err)
	}

	var hash [32]byte
	if err := dripsABI.UnpackIntoInterface(&hash, "splitsHash", result); err != nil {
		return common.Hash{}, fmt.Errorf("failed to unpack result: %w", err)
	}

	return common.Hash(hash), nil
}

// CalcTokenIDWithSalt calls NftDriver.calcTokenIdWithSalt(minter, salt) at the given block
func (c *ethereumClient) CalcTokenIDWithSalt(ctx context.Context, minter common.Address, salt uint64, blockNumber uint64) (*big.Int, error) {
	data, err := dripsABI.Pack("calcTokenIdWithSalt", minter, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to pack data: %w", err)
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.config.NftDriverAddress,
		Data: data,
	}, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return nil, fmt.Errorf("failed to call contract: %w", err)
	}

	out, err := dripsABI.Unpack("calcTokenIdWithSalt", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack result: %w", err)
	}
	tokenID, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected calcTokenIdWithSalt result %T", out[0])
	}
	return tokenID, nil
}

// Close closes the connection
func (c *ethereumClient) Close() {
	if c.client == nil {
		return
	}

	c.client.Close()
	logger.Info("Ethereum connection closed")
}
