package domain

const (
	// Gateway constants
	DEFAULT_IPFS_GATEWAY = "https://ipfs.io"

	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// METADATA_KEY_IPFS is the AccountMetadataEmitted key the Drips app uses for IPFS metadata
	METADATA_KEY_IPFS = "ipfs"
)
