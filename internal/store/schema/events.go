package schema

import (
	"time"

	"gorm.io/datatypes"
)

// EventRecord is implemented by every raw event table model
type EventRecord interface {
	TableName() string
	// Base returns the columns shared by all raw event tables
	Base() *EventLog
}

// EventLog holds the columns every raw event table shares.
// (transaction_hash, log_index) is the natural key; (block_number, log_index) is the ordering key.
type EventLog struct {
	// TransactionHash is the hash of the transaction that emitted the log
	TransactionHash string `gorm:"column:transaction_hash;primaryKey;type:text"`
	// LogIndex is the position of the log within its block
	LogIndex uint `gorm:"column:log_index;primaryKey;type:integer"`
	// BlockNumber is the block the log was included in
	BlockNumber uint64 `gorm:"column:block_number;not null;type:bigint"`
	// BlockTimestamp is the timestamp of the block
	BlockTimestamp time.Time `gorm:"column:block_timestamp;not null;type:timestamptz"`
	// RawEvent is the raw log as received from the node
	RawEvent datatypes.JSON `gorm:"column:raw_event;type:jsonb"`
	// CreatedAt is when the record was first stored
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// Base returns the shared event columns
func (e *EventLog) Base() *EventLog {
	return e
}

// OwnerUpdateRequestedEvent is a RepoDriver OwnerUpdateRequested(uint256,uint8,bytes) log
type OwnerUpdateRequestedEvent struct {
	EventLog `gorm:"embedded"`
	// AccountID is the RepoDriver account id of the project
	AccountID string `gorm:"column:account_id;not null;type:text"`
	// Forge is the source-code host of the project
	Forge string `gorm:"column:forge;not null;type:text"`
	// Name is the "owner/repo" name of the project
	Name string `gorm:"column:name;not null;type:text"`
}

// TableName specifies the table name for the OwnerUpdateRequestedEvent model
func (OwnerUpdateRequestedEvent) TableName() string {
	return "owner_update_requested_events"
}

// OwnerUpdatedEvent is a RepoDriver OwnerUpdated(uint256,address) log
type OwnerUpdatedEvent struct {
	EventLog `gorm:"embedded"`
	AccountID string `gorm:"column:account_id;not null;type:text"`
	// Owner is the address confirmed as the project owner
	Owner string `gorm:"column:owner;not null;type:text"`
}

// TableName specifies the table name for the OwnerUpdatedEvent model
func (OwnerUpdatedEvent) TableName() string {
	return "owner_updated_events"
}

// AccountMetadataEmittedEvent is a Drips AccountMetadataEmitted(uint256,bytes32,bytes) log
type AccountMetadataEmittedEvent struct {
	EventLog  `gorm:"embedded"`
	AccountID string `gorm:"column:account_id;not null;type:text"`
	// Key is the metadata key with trailing zero bytes removed
	Key string `gorm:"column:key;not null;type:text"`
	// Value is the metadata value decoded as UTF-8
	Value string `gorm:"column:value;not null;type:text"`
}

// TableName specifies the table name for the AccountMetadataEmittedEvent model
func (AccountMetadataEmittedEvent) TableName() string {
	return "account_metadata_emitted_events"
}

// TransferEvent is an NftDriver Transfer(address,address,uint256) log
type TransferEvent struct {
	EventLog `gorm:"embedded"`
	// TokenID is the NftDriver token id, which is also the drip list id
	TokenID string `gorm:"column:token_id;not null;type:text"`
	From    string `gorm:"column:from;not null;type:text"`
	To      string `gorm:"column:to;not null;type:text"`
}

// TableName specifies the table name for the TransferEvent model
func (TransferEvent) TableName() string {
	return "transfer_events"
}

// GivenEvent is a Drips Given(uint256,uint256,address,uint128) log
type GivenEvent struct {
	EventLog  `gorm:"embedded"`
	AccountID string `gorm:"column:account_id;not null;type:text"`
	Receiver  string `gorm:"column:receiver;not null;type:text"`
	Erc20     string `gorm:"column:erc20;not null;type:text"`
	// Amt is the given amount as a decimal string
	Amt string `gorm:"column:amt;not null;type:numeric(39,0)"`
}

// TableName specifies the table name for the GivenEvent model
func (GivenEvent) TableName() string {
	return "given_events"
}
