package schema

import (
	"time"

	"gorm.io/datatypes"
)

// DripList represents the drip_lists table - an NftDriver token curating a list of splits
type DripList struct {
	// ID is the NftDriver token id
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Name and Description come from the drip list metadata
	Name        *string `gorm:"column:name;type:text"`
	Description *string `gorm:"column:description;type:text"`
	// Creator is the recipient of the mint
	Creator string `gorm:"column:creator;not null;type:text"`
	// OwnerAddress is the recipient of the newest transfer
	OwnerAddress string `gorm:"column:owner_address;not null;type:text"`
	// PreviousOwnerAddress is the sender of the newest transfer
	PreviousOwnerAddress string `gorm:"column:previous_owner_address;not null;type:text"`
	// OwnerAccountID is the AddressDriver account id of OwnerAddress
	OwnerAccountID string `gorm:"column:owner_account_id;not null;type:text"`
	// IsVisible is computed from the newest transfer and the visibility threshold block
	IsVisible bool `gorm:"column:is_visible;not null"`
	// IsValid is false when the latest metadata did not match the on-chain splits
	IsValid bool `gorm:"column:is_valid;not null;default:true"`
	// SplitsJSON is the canonical splits declared by the latest applied metadata
	SplitsJSON datatypes.JSON `gorm:"column:splits_json;type:jsonb"`
	// LastMetadataIpfsHash is the IPFS hash of the latest applied metadata
	LastMetadataIpfsHash *string   `gorm:"column:last_metadata_ipfs_hash;type:text"`
	CreatedAt            time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt            time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the DripList model
func (DripList) TableName() string {
	return "drip_lists"
}
