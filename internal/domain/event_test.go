package domain

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderingKeyCompare(t *testing.T) {
	tests := []struct {
		name     string
		a        OrderingKey
		b        OrderingKey
		expected int
	}{
		{
			name:     "equal keys",
			a:        OrderingKey{BlockNumber: 10, LogIndex: 3},
			b:        OrderingKey{BlockNumber: 10, LogIndex: 3},
			expected: 0,
		},
		{
			name:     "block number dominates log index",
			a:        OrderingKey{BlockNumber: 11, LogIndex: 0},
			b:        OrderingKey{BlockNumber: 10, LogIndex: 99},
			expected: 1,
		},
		{
			name:     "same block lower log index",
			a:        OrderingKey{BlockNumber: 10, LogIndex: 1},
			b:        OrderingKey{BlockNumber: 10, LogIndex: 2},
			expected: -1,
		},
		{
			name:     "earlier block",
			a:        OrderingKey{BlockNumber: 9, LogIndex: 50},
			b:        OrderingKey{BlockNumber: 10, LogIndex: 0},
			expected: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.expected, tt.b.Compare(tt.a))
		})
	}
}

func TestOrderingKeyAfterTieIsNotNewer(t *testing.T) {
	k := OrderingKey{BlockNumber: 5, LogIndex: 1}
	assert.False(t, k.After(k))
	assert.True(t, OrderingKey{BlockNumber: 5, LogIndex: 2}.After(k))
}

func TestEventSignatureTopicAndName(t *testing.T) {
	assert.Equal(t,
		common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"),
		SignatureTransfer.Topic())
	assert.Equal(t, "Transfer", SignatureTransfer.Name())
	assert.Equal(t, "OwnerUpdateRequested", SignatureOwnerUpdateRequested.Name())
	assert.Equal(t, ContractNftDriver, SignatureTransfer.Contract())
	assert.Equal(t, ContractRepoDriver, SignatureOwnerUpdated.Contract())
	assert.Equal(t, ContractDrips, SignatureAccountMetadataEmitted.Contract())
}

func TestParseEventSignature(t *testing.T) {
	for _, s := range AllSignatures() {
		parsed, err := ParseEventSignature(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseEventSignature("StreamsSet(uint256,address,bytes32,bytes32,uint128,uint32)")
	assert.ErrorIs(t, err, ErrUnknownEventSignature)
	assert.True(t, IsFatal(err))
}

func TestNewDripsEvent(t *testing.T) {
	t.Run("resolves signature from topic0", func(t *testing.T) {
		log := types.Log{
			Topics:      []common.Hash{SignatureOwnerUpdated.Topic(), common.BigToHash(common.Big1)},
			TxHash:      common.HexToHash("0xabc"),
			BlockNumber: 100,
			Index:       4,
		}
		evt, err := NewDripsEvent(log)
		require.NoError(t, err)
		assert.Equal(t, SignatureOwnerUpdated, evt.Signature)
		assert.Equal(t, OrderingKey{BlockNumber: 100, LogIndex: 4}, evt.OrderingKey())
		assert.Equal(t, NaturalKey{TransactionHash: log.TxHash.Hex(), LogIndex: 4}, evt.NaturalKey())
	})

	t.Run("unknown topic is fatal", func(t *testing.T) {
		_, err := NewDripsEvent(types.Log{Topics: []common.Hash{common.HexToHash("0x01")}})
		assert.ErrorIs(t, err, ErrUnknownEventSignature)
	})

	t.Run("no topics", func(t *testing.T) {
		_, err := NewDripsEvent(types.Log{})
		assert.ErrorIs(t, err, ErrUnknownEventSignature)
	})
}

func TestDripsEventJSONRoundTripKeepsLog(t *testing.T) {
	evt := DripsEvent{
		Signature: SignatureTransfer,
		Log: types.Log{
			Address:     common.HexToAddress("0xcf9c49B0962EDb01Cdaa5326299ba85D72405258"),
			Topics:      []common.Hash{SignatureTransfer.Topic()},
			Data:        []byte{},
			TxHash:      common.HexToHash("0xdead"),
			BlockNumber: 42,
			Index:       7,
		},
	}
	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded DripsEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, evt.NaturalKey(), decoded.NaturalKey())
	assert.Equal(t, evt.OrderingKey(), decoded.OrderingKey())
	assert.Equal(t, evt.Log.Address, decoded.Log.Address)
}
