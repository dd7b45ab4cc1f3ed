package domain

import (
	"encoding/binary"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroAddress is the canonical mint/burn address
var ZeroAddress = common.Address{}

const nftSaltBits = 64

var nftSaltMask = new(big.Int).SetUint64(^uint64(0))

// IsMint reports whether a transfer originates from the zero address
func IsMint(from common.Address) bool {
	return from == ZeroAddress
}

// IsDripListVisible applies the visibility threshold rule to a transfer.
// Up to and including the threshold block every list is visible; after it only mints are.
func IsDripListVisible(blockNumber, thresholdBlock uint64, from common.Address) bool {
	if blockNumber > thresholdBlock {
		return IsMint(from)
	}
	return true
}

// NftTokenMinter extracts the minter address from bits 64..223 of an NftDriver token id
func NftTokenMinter(tokenID *big.Int) common.Address {
	return common.BigToAddress(new(big.Int).Rsh(tokenID, nftSaltBits))
}

// NftTokenSalt extracts the salt from the low 64 bits of an NftDriver token id
func NftTokenSalt(tokenID *big.Int) uint64 {
	return new(big.Int).And(tokenID, nftSaltMask).Uint64()
}

// DripListSalt is the salt the Drips app mints the index-th drip list of minter with:
// the low 64 bits of keccak256 over the checksummed address followed by the decimal index.
func DripListSalt(minter common.Address, index uint64) uint64 {
	hash := crypto.Keccak256([]byte(minter.Hex() + strconv.FormatUint(index, 10)))
	return binary.BigEndian.Uint64(hash[len(hash)-8:])
}
