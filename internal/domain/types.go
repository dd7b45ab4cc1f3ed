package domain

import "fmt"

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
)

// IsValidChain checks if a chain is valid
func IsValidChain(chain Chain) bool {
	return chain == ChainEthereumMainnet ||
		chain == ChainEthereumSepolia
}

// ChainFromID builds the CAIP-2 identifier of an EVM chain id
func ChainFromID(chainID uint64) Chain {
	return Chain(fmt.Sprintf("eip155:%d", chainID))
}
