package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// EventSignature is the canonical Solidity signature of a log this indexer understands
type EventSignature string

const (
	SignatureOwnerUpdateRequested   EventSignature = "OwnerUpdateRequested(uint256,uint8,bytes)"
	SignatureOwnerUpdated           EventSignature = "OwnerUpdated(uint256,address)"
	SignatureAccountMetadataEmitted EventSignature = "AccountMetadataEmitted(uint256,bytes32,bytes)"
	SignatureTransfer               EventSignature = "Transfer(address,address,uint256)"
	SignatureGiven                  EventSignature = "Given(uint256,uint256,address,uint128)"
)

// Contract identifies which Drips deployment emits an event
type Contract string

const (
	ContractDrips      Contract = "drips"
	ContractRepoDriver Contract = "repo_driver"
	ContractNftDriver  Contract = "nft_driver"
)

// AllSignatures returns every registered signature in registration order
func AllSignatures() []EventSignature {
	return []EventSignature{
		SignatureOwnerUpdateRequested,
		SignatureOwnerUpdated,
		SignatureAccountMetadataEmitted,
		SignatureTransfer,
		SignatureGiven,
	}
}

// IsValid reports whether s is one of the registered signatures
func (s EventSignature) IsValid() bool {
	switch s {
	case SignatureOwnerUpdateRequested,
		SignatureOwnerUpdated,
		SignatureAccountMetadataEmitted,
		SignatureTransfer,
		SignatureGiven:
		return true
	}
	return false
}

// Name returns the event name without its argument list, e.g. "Transfer"
func (s EventSignature) Name() string {
	if i := strings.IndexByte(string(s), '('); i >= 0 {
		return string(s)[:i]
	}
	return string(s)
}

// Topic returns the keccak256 hash used as topic0 of the log
func (s EventSignature) Topic() common.Hash {
	return crypto.Keccak256Hash([]byte(s))
}

// Contract returns the contract that emits the event
func (s EventSignature) Contract() Contract {
	switch s {
	case SignatureOwnerUpdateRequested, SignatureOwnerUpdated:
		return ContractRepoDriver
	case SignatureTransfer:
		return ContractNftDriver
	default:
		return ContractDrips
	}
}

// ParseEventSignature validates a raw signature string against the registry
func ParseEventSignature(raw string) (EventSignature, error) {
	s := EventSignature(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownEventSignature, raw)
	}
	return s, nil
}

// SignatureFromTopic resolves topic0 of a log to a registered signature
func SignatureFromTopic(topic common.Hash) (EventSignature, error) {
	for _, s := range AllSignatures() {
		if s.Topic() == topic {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: topic %s", ErrUnknownEventSignature, topic.Hex())
}

// OrderingKey is the position of a log in the chain's global total order
type OrderingKey struct {
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint   `json:"log_index"`
}

// Compare returns -1, 0 or 1, ordering by block number first and log index second
func (k OrderingKey) Compare(other OrderingKey) int {
	switch {
	case k.BlockNumber < other.BlockNumber:
		return -1
	case k.BlockNumber > other.BlockNumber:
		return 1
	case k.LogIndex < other.LogIndex:
		return -1
	case k.LogIndex > other.LogIndex:
		return 1
	}
	return 0
}

// After reports whether k is strictly later than other. Equal keys are not after each other.
func (k OrderingKey) After(other OrderingKey) bool {
	return k.Compare(other) > 0
}

func (k OrderingKey) String() string {
	return fmt.Sprintf("%d:%d", k.BlockNumber, k.LogIndex)
}

// NaturalKey identifies a single log for deduplication
type NaturalKey struct {
	TransactionHash string `json:"transaction_hash"`
	LogIndex        uint   `json:"log_index"`
}

func (k NaturalKey) String() string {
	return fmt.Sprintf("%s-%d", k.TransactionHash, k.LogIndex)
}

// DripsEvent is the job payload carried through the queue: a registered signature and the raw log
type DripsEvent struct {
	Signature EventSignature `json:"signature"`
	Log       types.Log      `json:"log"`
}

// NewDripsEvent builds a job for a raw log, resolving the signature from topic0
func NewDripsEvent(log types.Log) (*DripsEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("%w: log without topics", ErrUnknownEventSignature)
	}
	sig, err := SignatureFromTopic(log.Topics[0])
	if err != nil {
		return nil, err
	}
	return &DripsEvent{Signature: sig, Log: log}, nil
}

// OrderingKey returns the ordering key of the underlying log
func (e *DripsEvent) OrderingKey() OrderingKey {
	return OrderingKey{BlockNumber: e.Log.BlockNumber, LogIndex: e.Log.Index}
}

// NaturalKey returns the deduplication key of the underlying log
func (e *DripsEvent) NaturalKey() NaturalKey {
	return NaturalKey{TransactionHash: e.Log.TxHash.Hex(), LogIndex: e.Log.Index}
}
