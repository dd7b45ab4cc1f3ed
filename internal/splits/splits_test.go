package splits_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/splits"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    []domain.SplitReceiver
		expected []domain.SplitReceiver
	}{
		{
			name: "dedup and sort",
			input: []domain.SplitReceiver{
				{AccountID: "5", Weight: 500000},
				{AccountID: "5", Weight: 500000},
				{AccountID: "3", Weight: 1},
			},
			expected: []domain.SplitReceiver{
				{AccountID: "3", Weight: 1},
				{AccountID: "5", Weight: 500000},
			},
		},
		{
			name: "non-positive weights are dropped",
			input: []domain.SplitReceiver{
				{AccountID: "7", Weight: 0},
				{AccountID: "2", Weight: -10},
				{AccountID: "9", Weight: 10},
			},
			expected: []domain.SplitReceiver{
				{AccountID: "9", Weight: 10},
			},
		},
		{
			name: "numeric not lexical ordering",
			input: []domain.SplitReceiver{
				{AccountID: "100", Weight: 1},
				{AccountID: "20", Weight: 1},
				{AccountID: "3", Weight: 1},
			},
			expected: []domain.SplitReceiver{
				{AccountID: "3", Weight: 1},
				{AccountID: "20", Weight: 1},
				{AccountID: "100", Weight: 1},
			},
		},
		{
			name: "same target with different weights is kept",
			input: []domain.SplitReceiver{
				{AccountID: "4", Weight: 20},
				{AccountID: "4", Weight: 10},
			},
			expected: []domain.SplitReceiver{
				{AccountID: "4", Weight: 10},
				{AccountID: "4", Weight: 20},
			},
		},
		{
			name:     "empty",
			input:    nil,
			expected: []domain.SplitReceiver{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splits.Canonicalize(tt.input))
		})
	}
}

func TestCanonicalizeDoesNotMutateInput(t *testing.T) {
	input := []domain.SplitReceiver{{AccountID: "5", Weight: 1}, {AccountID: "3", Weight: 1}}
	_ = splits.Canonicalize(input)
	assert.Equal(t, domain.AccountID("5"), input[0].AccountID)
}

func TestHashEmptyIsZero(t *testing.T) {
	h, err := splits.Hash(nil)
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, h)
}

// word left-pads v into a 32 byte ABI word
func word(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func TestHashMatchesABIEncoding(t *testing.T) {
	receivers := []domain.SplitReceiver{
		{AccountID: "3", Weight: 1},
		{AccountID: "5", Weight: 500000},
	}

	var expected []byte
	expected = append(expected, word(big.NewInt(32))...)
	expected = append(expected, word(big.NewInt(2))...)
	expected = append(expected, word(big.NewInt(3))...)
	expected = append(expected, word(big.NewInt(1))...)
	expected = append(expected, word(big.NewInt(5))...)
	expected = append(expected, word(big.NewInt(500000))...)

	h, err := splits.Hash(receivers)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256Hash(expected), h)
}

func TestHashIsOrderSensitive(t *testing.T) {
	a, err := splits.Hash([]domain.SplitReceiver{{AccountID: "3", Weight: 1}, {AccountID: "5", Weight: 2}})
	require.NoError(t, err)
	b, err := splits.Hash([]domain.SplitReceiver{{AccountID: "5", Weight: 2}, {AccountID: "3", Weight: 1}})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashRejectsOutOfRangeWeight(t *testing.T) {
	_, err := splits.Hash([]domain.SplitReceiver{{AccountID: "3", Weight: 1 << 33}})
	assert.ErrorIs(t, err, splits.ErrInvalidReceiver)

	_, err = splits.Hash([]domain.SplitReceiver{{AccountID: "x", Weight: 1}})
	assert.ErrorIs(t, err, splits.ErrInvalidReceiver)
}
