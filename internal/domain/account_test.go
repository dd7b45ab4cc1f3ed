package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountWithDriver(driver Driver, low int64) AccountID {
	id := new(big.Int).Lsh(big.NewInt(int64(driver)), driverIDOffset)
	return NewAccountID(id.Add(id, big.NewInt(low)))
}

func TestAccountIDDriver(t *testing.T) {
	tests := []struct {
		name     string
		id       AccountID
		expected Driver
	}{
		{name: "address driver", id: AddressAccountID(common.HexToAddress("0x1234")), expected: DriverAddress},
		{name: "nft driver", id: accountWithDriver(DriverNft, 77), expected: DriverNft},
		{name: "immutable splits driver", id: accountWithDriver(DriverImmutableSplits, 1), expected: DriverImmutableSplits},
		{name: "repo driver", id: accountWithDriver(DriverRepo, 123456), expected: DriverRepo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.id.Driver()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestAddressAccountID(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	assert.Equal(t, AccountID("255"), AddressAccountID(addr))
}

func TestParseAccountID(t *testing.T) {
	_, err := ParseAccountID("not-a-number")
	assert.ErrorIs(t, err, ErrInvalidAccountID)

	_, err = ParseAccountID("-1")
	assert.ErrorIs(t, err, ErrInvalidAccountID)

	tooBig := new(big.Int).Lsh(big.NewInt(1), 256).String()
	_, err = ParseAccountID(tooBig)
	assert.ErrorIs(t, err, ErrInvalidAccountID)

	id, err := ParseAccountID("0042")
	require.NoError(t, err)
	assert.Equal(t, AccountID("42"), id)
}

func TestAccountIDCompareIsNumeric(t *testing.T) {
	assert.Equal(t, -1, AccountID("9").Compare(AccountID("10")))
	assert.Equal(t, 1, AccountID("100").Compare(AccountID("99")))
	assert.Equal(t, 0, AccountID("5").Compare(AccountID("5")))
}
