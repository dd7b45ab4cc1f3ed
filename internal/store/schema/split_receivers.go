package schema

import "time"

// SplitFunder holds the funder side of a split receiver edge. Exactly one column is set.
type SplitFunder struct {
	// FunderProjectID is set when a git project splits to the fundee
	FunderProjectID *string `gorm:"column:funder_project_id;type:text;index"`
	// FunderDripListID is set when a drip list splits to the fundee
	FunderDripListID *string `gorm:"column:funder_drip_list_id;type:text;index"`
}

// AddressDriverSplitReceiver is an edge from a funder to a plain address account
type AddressDriverSplitReceiver struct {
	ID          int64 `gorm:"column:id;primaryKey;autoIncrement"`
	SplitFunder `gorm:"embedded"`
	// FundeeAccountID is the AddressDriver account id of the receiver
	FundeeAccountID string `gorm:"column:fundee_account_id;not null;type:text"`
	// FundeeAccountAddress is the address behind FundeeAccountID
	FundeeAccountAddress string `gorm:"column:fundee_account_address;not null;type:text"`
	Weight               int64  `gorm:"column:weight;not null"`
	// Type is ProjectMaintainer, ProjectDependency or DripListDependency
	Type      string    `gorm:"column:type;not null;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the AddressDriverSplitReceiver model
func (AddressDriverSplitReceiver) TableName() string {
	return "address_driver_split_receivers"
}

// RepoDriverSplitReceiver is an edge from a funder to a git project
type RepoDriverSplitReceiver struct {
	ID          int64 `gorm:"column:id;primaryKey;autoIncrement"`
	SplitFunder `gorm:"embedded"`
	// FundeeProjectID references git_projects.id
	FundeeProjectID string    `gorm:"column:fundee_project_id;not null;type:text;index"`
	Weight          int64     `gorm:"column:weight;not null"`
	Type            string    `gorm:"column:type;not null;type:text"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	FundeeProject GitProject `gorm:"foreignKey:FundeeProjectID"`
}

// TableName specifies the table name for the RepoDriverSplitReceiver model
func (RepoDriverSplitReceiver) TableName() string {
	return "repo_driver_split_receivers"
}

// DripListSplitReceiver is an edge from a funder to a drip list
type DripListSplitReceiver struct {
	ID          int64 `gorm:"column:id;primaryKey;autoIncrement"`
	SplitFunder `gorm:"embedded"`
	// FundeeDripListID is the NftDriver token id of the receiving drip list
	FundeeDripListID string    `gorm:"column:fundee_drip_list_id;not null;type:text;index"`
	Weight           int64     `gorm:"column:weight;not null"`
	Type             string    `gorm:"column:type;not null;type:text"`
	CreatedAt        time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the DripListSplitReceiver model
func (DripListSplitReceiver) TableName() string {
	return "drip_list_split_receivers"
}
