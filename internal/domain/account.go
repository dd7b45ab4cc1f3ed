package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Driver is the id of the Drips driver that owns an account, stored in the top 32 bits of the account id
type Driver uint32

const (
	DriverAddress         Driver = 0
	DriverNft             Driver = 1
	DriverImmutableSplits Driver = 2
	DriverRepo            Driver = 3
)

func (d Driver) String() string {
	switch d {
	case DriverAddress:
		return "address"
	case DriverNft:
		return "nft"
	case DriverImmutableSplits:
		return "immutable_splits"
	case DriverRepo:
		return "repo"
	}
	return fmt.Sprintf("unknown(%d)", uint32(d))
}

const driverIDOffset = 224

// maxAccountID is 2^256 - 1
var maxAccountID = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// AccountID is a Drips uint256 account identifier rendered as a decimal string
type AccountID string

// NewAccountID renders a uint256 as an AccountID
func NewAccountID(id *big.Int) AccountID {
	return AccountID(id.String())
}

// ParseAccountID validates a decimal account id
func ParseAccountID(raw string) (AccountID, error) {
	id, ok := new(big.Int).SetString(raw, 10)
	if !ok || id.Sign() < 0 || id.Cmp(maxAccountID) > 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountID, raw)
	}
	return AccountID(id.String()), nil
}

// AddressAccountID returns the AddressDriver account id of an address, which is the address as uint160
func AddressAccountID(addr common.Address) AccountID {
	return NewAccountID(new(big.Int).SetBytes(addr.Bytes()))
}

// Big returns the account id as an integer
func (a AccountID) Big() (*big.Int, error) {
	id, ok := new(big.Int).SetString(string(a), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAccountID, string(a))
	}
	return id, nil
}

// Driver extracts the driver id from the top 32 bits
func (a AccountID) Driver() (Driver, error) {
	id, err := a.Big()
	if err != nil {
		return 0, err
	}
	return Driver(new(big.Int).Rsh(id, driverIDOffset).Uint64()), nil
}

// Compare orders account ids numerically
func (a AccountID) Compare(other AccountID) int {
	x, errX := a.Big()
	y, errY := other.Big()
	if errX != nil || errY != nil {
		// fall back to length-then-lexical which matches numeric order for canonical decimals
		if len(a) != len(other) {
			if len(a) < len(other) {
				return -1
			}
			return 1
		}
		switch {
		case a < other:
			return -1
		case a > other:
			return 1
		}
		return 0
	}
	return x.Cmp(y)
}

func (a AccountID) String() string {
	return string(a)
}
