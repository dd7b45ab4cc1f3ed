package ethereum

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/drips-indexer/internal/domain"
)

func packData(t *testing.T, event string, args ...interface{}) []byte {
	t.Helper()
	data, err := dripsABI.Events[event].Inputs.NonIndexed().Pack(args...)
	require.NoError(t, err)
	return data
}

func uintTopic(v int64) common.Hash {
	return common.BigToHash(big.NewInt(v))
}

func TestDecodeOwnerUpdateRequested(t *testing.T) {
	log := types.Log{
		Topics: []common.Hash{domain.SignatureOwnerUpdateRequested.Topic(), uintTopic(42)},
		Data:   packData(t, "OwnerUpdateRequested", uint8(1), []byte("drips-network/app")),
	}

	ev, err := DecodeOwnerUpdateRequested(log)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), ev.AccountId)
	assert.Equal(t, uint8(1), ev.Forge)
	assert.Equal(t, "drips-network/app", string(ev.Name))
}

func TestDecodeOwnerUpdateRequested_KeepsRawName(t *testing.T) {
	log := types.Log{
		Topics: []common.Hash{domain.SignatureOwnerUpdateRequested.Topic(), uintTopic(42)},
		Data:   packData(t, "OwnerUpdateRequested", uint8(0), []byte{0xff, 0xfe}),
	}

	// invalid utf-8 is left to the handler, which stores a sanitized name
	ev, err := DecodeOwnerUpdateRequested(log)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xfe}, ev.Name)
}

func TestDecodeOwnerUpdated(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	log := types.Log{
		Topics: []common.Hash{domain.SignatureOwnerUpdated.Topic(), uintTopic(7)},
		Data:   packData(t, "OwnerUpdated", owner),
	}

	ev, err := DecodeOwnerUpdated(log)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), ev.AccountId)
	assert.Equal(t, owner, ev.Owner)
}

func TestDecodeAccountMetadataEmitted(t *testing.T) {
	var key common.Hash
	copy(key[:], "ipfs")
	log := types.Log{
		Topics: []common.Hash{domain.SignatureAccountMetadataEmitted.Topic(), uintTopic(9), key},
		Data:   packData(t, "AccountMetadataEmitted", []byte("QmHash")),
	}

	ev, err := DecodeAccountMetadataEmitted(log)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(9), ev.AccountId)
	assert.Equal(t, "ipfs", ev.KeyString())
	assert.Equal(t, "QmHash", string(ev.Value))
}

func TestDecodeTransfer(t *testing.T) {
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	log := types.Log{
		Topics: []common.Hash{
			domain.SignatureTransfer.Topic(),
			common.BytesToHash(common.Address{}.Bytes()),
			common.BytesToHash(to.Bytes()),
			uintTopic(1234),
		},
	}

	ev, err := DecodeTransfer(log)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, ev.From)
	assert.Equal(t, to, ev.To)
	assert.Equal(t, big.NewInt(1234), ev.TokenId)
}

func TestDecodeGiven(t *testing.T) {
	erc20 := common.HexToAddress("0x3333333333333333333333333333333333333333")
	log := types.Log{
		Topics: []common.Hash{
			domain.SignatureGiven.Topic(),
			uintTopic(1),
			uintTopic(2),
			common.BytesToHash(erc20.Bytes()),
		},
		Data: packData(t, "Given", big.NewInt(500)),
	}

	ev, err := DecodeGiven(log)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), ev.AccountId)
	assert.Equal(t, big.NewInt(2), ev.Receiver)
	assert.Equal(t, erc20, ev.Erc20)
	assert.Equal(t, big.NewInt(500), ev.Amt)
}

func TestDecode_Mismatch(t *testing.T) {
	t.Run("wrong topic", func(t *testing.T) {
		_, err := DecodeTransfer(types.Log{Topics: []common.Hash{domain.SignatureGiven.Topic()}})
		assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	})

	t.Run("no topics", func(t *testing.T) {
		_, err := DecodeOwnerUpdated(types.Log{})
		assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	})

	t.Run("missing indexed topic", func(t *testing.T) {
		_, err := DecodeTransfer(types.Log{Topics: []common.Hash{domain.SignatureTransfer.Topic(), {}}})
		assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	})

	t.Run("truncated data", func(t *testing.T) {
		_, err := DecodeOwnerUpdated(types.Log{
			Topics: []common.Hash{domain.SignatureOwnerUpdated.Topic(), uintTopic(1)},
			Data:   []byte{0x01},
		})
		assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	})
}
