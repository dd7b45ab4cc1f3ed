package splits

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/logger"
)

//go:generate mockgen -source=validator.go -destination=../mocks/splits.go -package=mocks -mock_names=HashReader=MockSplitsHashReader,Validator=MockSplitsValidator

// HashReader reads the splits hash the Drips contract stores for an account
type HashReader interface {
	// SplitsHash returns the on-chain splits hash of the account as of the given block
	SplitsHash(ctx context.Context, accountID domain.AccountID, blockNumber uint64) (common.Hash, error)
}

// Result is the outcome of validating declared receivers against the chain
type Result struct {
	// Valid is true when the canonical receivers hash to the on-chain value
	Valid bool
	// Receivers is the canonical receiver list
	Receivers []domain.SplitReceiver
	// LocalHash is the hash of Receivers, zero when they could not be encoded
	LocalHash common.Hash
	// OnChainHash is the hash stored in the Drips contract
	OnChainHash common.Hash
	// Reason explains an invalid result
	Reason string
}

// Validator checks declared splits against the Drips contract
type Validator interface {
	// Validate canonicalizes receivers and compares their hash with the on-chain splits hash.
	// A mismatch is reported through Result, errors are reserved for failures to reach the chain.
	Validate(ctx context.Context, accountID domain.AccountID, receivers []domain.SplitReceiver, blockNumber uint64) (*Result, error)
}

type validator struct {
	reader HashReader
}

// NewValidator creates a new splits validator
func NewValidator(reader HashReader) Validator {
	return &validator{reader: reader}
}

// Validate canonicalizes receivers and compares their hash with the on-chain splits hash
func (v *validator) Validate(ctx context.Context, accountID domain.AccountID, receivers []domain.SplitReceiver, blockNumber uint64) (*Result, error) {
	result := &Result{Receivers: Canonicalize(receivers)}

	onChain, err := v.reader.SplitsHash(ctx, accountID, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to read on-chain splits hash: %w", err)
	}
	result.OnChainHash = onChain

	local, err := Hash(result.Receivers)
	if err != nil {
		if errors.Is(err, ErrInvalidReceiver) {
			result.Reason = err.Error()
			return result, nil
		}
		return nil, err
	}
	result.LocalHash = local

	if local != onChain {
		result.Reason = fmt.Sprintf("splits hash mismatch: local %s, on-chain %s", local.Hex(), onChain.Hex())
		logger.WarnCtx(ctx, "Splits do not match on-chain configuration",
			zap.String("accountID", accountID.String()),
			zap.Uint64("blockNumber", blockNumber),
			zap.String("localHash", local.Hex()),
			zap.String("onChainHash", onChain.Hex()))
		return result, nil
	}

	result.Valid = true
	return result, nil
}
