package splits

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/feral-file/drips-indexer/internal/domain"
)

// ErrInvalidReceiver is returned when a receiver cannot be represented on-chain
var ErrInvalidReceiver = errors.New("invalid splits receiver")

// splitsReceiver mirrors the Solidity struct SplitsReceiver{uint256 accountId; uint32 weight}.
// Field names must match the ABI component names in camel case.
type splitsReceiver struct {
	AccountId *big.Int
	Weight    uint32
}

var receiversArgs abi.Arguments

func init() {
	receiversType, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "accountId", Type: "uint256"},
		{Name: "weight", Type: "uint32"},
	})
	if err != nil {
		panic(fmt.Sprintf("failed to build splits receivers abi type: %v", err))
	}
	receiversArgs = abi.Arguments{{Type: receiversType}}
}

// Canonicalize drops receivers with a non-positive weight, removes exact (accountId, weight)
// duplicates and sorts the rest ascending by account id.
// The input slice is not modified.
func Canonicalize(receivers []domain.SplitReceiver) []domain.SplitReceiver {
	type pair struct {
		id     domain.AccountID
		weight int64
	}
	seen := make(map[pair]struct{}, len(receivers))
	out := make([]domain.SplitReceiver, 0, len(receivers))
	for _, r := range receivers {
		if r.Weight <= 0 {
			continue
		}
		p := pair{id: r.AccountID, weight: r.Weight}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].AccountID.Compare(out[j].AccountID); c != 0 {
			return c < 0
		}
		return out[i].Weight < out[j].Weight
	})
	return out
}

// Hash computes keccak256(abi.encode(receivers)) exactly as the Drips contract does.
// Receivers must already be canonical. An empty list hashes to the zero hash.
func Hash(receivers []domain.SplitReceiver) (common.Hash, error) {
	if len(receivers) == 0 {
		return common.Hash{}, nil
	}

	encoded := make([]splitsReceiver, 0, len(receivers))
	for _, r := range receivers {
		id, err := r.AccountID.Big()
		if err != nil {
			return common.Hash{}, fmt.Errorf("%w: %w", ErrInvalidReceiver, err)
		}
		if r.Weight <= 0 || r.Weight > math.MaxUint32 {
			return common.Hash{}, fmt.Errorf("%w: weight %d out of range", ErrInvalidReceiver, r.Weight)
		}
		encoded = append(encoded, splitsReceiver{AccountId: id, Weight: uint32(r.Weight)})
	}

	data, err := receiversArgs.Pack(encoded)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to abi encode splits receivers: %w", err)
	}
	return crypto.Keccak256Hash(data), nil
}
