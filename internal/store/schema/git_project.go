package schema

import (
	"time"

	"gorm.io/datatypes"
)

// GitProject represents the git_projects table - a RepoDriver account backed by a source-code repository
type GitProject struct {
	// ID is the RepoDriver account id
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Name is the "owner/repo" name of the repository
	Name string `gorm:"column:name;not null;type:text"`
	// Forge is the source-code host (GitHub, GitLab)
	Forge string `gorm:"column:forge;not null;type:text"`
	// OwnerName is the repository owner part of Name
	OwnerName string `gorm:"column:owner_name;not null;type:text"`
	// RepoName is the repository part of Name
	RepoName string `gorm:"column:repo_name;not null;type:text"`
	// URL is the canonical web URL of the repository
	URL string `gorm:"column:url;not null;type:text"`
	// OwnerAddress is the confirmed owner, nil until an OwnerUpdated event is applied
	OwnerAddress *string `gorm:"column:owner_address;type:text"`
	// OwnerAccountID is the AddressDriver account id of OwnerAddress
	OwnerAccountID *string `gorm:"column:owner_account_id;type:text"`
	// VerificationStatus is derived from the project's events, never set directly
	VerificationStatus string `gorm:"column:verification_status;not null;type:text"`
	// IsValid is false when the latest metadata did not match the on-chain splits
	IsValid bool `gorm:"column:is_valid;not null;default:true"`
	// SplitsJSON is the canonical splits declared by the latest applied metadata
	SplitsJSON datatypes.JSON `gorm:"column:splits_json;type:jsonb"`
	// Emoji, Color and Description come from the project metadata
	Emoji       *string `gorm:"column:emoji;type:text"`
	Color       *string `gorm:"column:color;type:text"`
	Description *string `gorm:"column:description;type:text"`
	// LastMetadataIpfsHash is the IPFS hash of the latest applied metadata
	LastMetadataIpfsHash *string   `gorm:"column:last_metadata_ipfs_hash;type:text"`
	CreatedAt            time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt            time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the GitProject model
func (GitProject) TableName() string {
	return "git_projects"
}

// HasValidMetadata reports whether metadata matching the on-chain splits has been applied
func (p *GitProject) HasValidMetadata() bool {
	return p.IsValid && p.LastMetadataIpfsHash != nil
}
