package ethereum

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/feral-file/drips-indexer/internal/domain"
)

// dripsABIJSON covers the events the indexer consumes from Drips, RepoDriver and NftDriver,
// plus the Drips splitsHash and NftDriver calcTokenIdWithSalt views
const dripsABIJSON = `[
  {"type":"event","name":"OwnerUpdateRequested","anonymous":false,"inputs":[
    {"name":"accountId","type":"uint256","indexed":true},
    {"name":"forge","type":"uint8","indexed":false},
    {"name":"name","type":"bytes","indexed":false}]},
  {"type":"event","name":"OwnerUpdated","anonymous":false,"inputs":[
    {"name":"accountId","type":"uint256","indexed":true},
    {"name":"owner","type":"address","indexed":false}]},
  {"type":"event","name":"AccountMetadataEmitted","anonymous":false,"inputs":[
    {"name":"accountId","type":"uint256","indexed":true},
    {"name":"key","type":"bytes32","indexed":true},
    {"name":"value","type":"bytes","indexed":false}]},
  {"type":"event","name":"Transfer","anonymous":false,"inputs":[
    {"name":"from","type":"address","indexed":true},
    {"name":"to","type":"address","indexed":true},
    {"name":"tokenId","type":"uint256","indexed":true}]},
  {"type":"event","name":"Given","anonymous":false,"inputs":[
    {"name":"accountId","type":"uint256","indexed":true},
    {"name":"receiver","type":"uint256","indexed":true},
    {"name":"erc20","type":"address","indexed":true},
    {"name":"amt","type":"uint128","indexed":false}]},
  {"type":"function","name":"splitsHash","stateMutability":"view","inputs":[
    {"name":"accountId","type":"uint256"}],"outputs":[
    {"name":"currSplitsHash","type":"bytes32"}]},
  {"type":"function","name":"calcTokenIdWithSalt","stateMutability":"view","inputs":[
    {"name":"minter","type":"address"},
    {"name":"salt","type":"uint64"}],"outputs":[
    {"name":"tokenId","type":"uint256"}]}
]`

var dripsABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(dripsABIJSON))
	if err != nil {
		panic(fmt.Sprintf("failed to parse drips abi: %v", err))
	}
	dripsABI = parsed

	// Every registered signature must have a matching ABI event
	for _, sig := range domain.AllSignatures() {
		ev, ok := dripsABI.Events[sig.Name()]
		if !ok || ev.ID != sig.Topic() {
			panic(fmt.Sprintf("abi event mismatch for %s", sig))
		}
	}
}

// Decoded log structs use abigen field names, which abi.ParseTopics resolves indexed arguments by.

// OwnerUpdateRequested is a decoded RepoDriver OwnerUpdateRequested log
type OwnerUpdateRequested struct {
	AccountId *big.Int
	Forge     uint8
	Name      []byte
}

// OwnerUpdated is a decoded RepoDriver OwnerUpdated log
type OwnerUpdated struct {
	AccountId *big.Int
	Owner     common.Address
}

// AccountMetadataEmitted is a decoded Drips AccountMetadataEmitted log
type AccountMetadataEmitted struct {
	AccountId *big.Int
	Key       [32]byte
	Value     []byte
}

// KeyString returns the metadata key with the bytes32 right padding removed
func (e *AccountMetadataEmitted) KeyString() string {
	return string(bytes.TrimRight(e.Key[:], "\x00"))
}

// Transfer is a decoded NftDriver (ERC721) Transfer log
type Transfer struct {
	From    common.Address
	To      common.Address
	TokenId *big.Int
}

// Given is a decoded Drips Given log
type Given struct {
	AccountId *big.Int
	Receiver  *big.Int
	Erc20     common.Address
	Amt       *big.Int
}

// DecodeOwnerUpdateRequested decodes an OwnerUpdateRequested log
func DecodeOwnerUpdateRequested(log types.Log) (*OwnerUpdateRequested, error) {
	var out OwnerUpdateRequested
	if err := unpackLog(&out, domain.SignatureOwnerUpdateRequested, log); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecodeOwnerUpdated decodes an OwnerUpdated log
func DecodeOwnerUpdated(log types.Log) (*OwnerUpdated, error) {
	var out OwnerUpdated
	if err := unpackLog(&out, domain.SignatureOwnerUpdated, log); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecodeAccountMetadataEmitted decodes an AccountMetadataEmitted log
func DecodeAccountMetadataEmitted(log types.Log) (*AccountMetadataEmitted, error) {
	var out AccountMetadataEmitted
	if err := unpackLog(&out, domain.SignatureAccountMetadataEmitted, log); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecodeTransfer decodes a Transfer log
func DecodeTransfer(log types.Log) (*Transfer, error) {
	var out Transfer
	if err := unpackLog(&out, domain.SignatureTransfer, log); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecodeGiven decodes a Given log
func DecodeGiven(log types.Log) (*Given, error) {
	var out Given
	if err := unpackLog(&out, domain.SignatureGiven, log); err != nil {
		return nil, err
	}
	return &out, nil
}

// unpackLog fills out from the log data and its indexed topics.
// A log that does not match the event layout is an invariant violation.
func unpackLog(out interface{}, sig domain.EventSignature, log types.Log) error {
	event := dripsABI.Events[sig.Name()]
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return fmt.Errorf("%w: log is not a %s event", domain.ErrInvariantViolation, sig.Name())
	}

	if len(log.Data) > 0 {
		if err := dripsABI.UnpackIntoInterface(out, event.Name, log.Data); err != nil {
			return fmt.Errorf("%w: failed to unpack %s data: %v", domain.ErrInvariantViolation, event.Name, err)
		}
	}

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(log.Topics)-1 != len(indexed) {
		return fmt.Errorf("%w: %s expects %d indexed topics, got %d", domain.ErrInvariantViolation, event.Name, len(indexed), len(log.Topics)-1)
	}
	if err := abi.ParseTopics(out, indexed, log.Topics[1:]); err != nil {
		return fmt.Errorf("%w: failed to parse %s topics: %v", domain.ErrInvariantViolation, event.Name, err)
	}
	return nil
}
