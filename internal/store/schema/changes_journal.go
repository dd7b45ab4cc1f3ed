package schema

import (
	"time"

	"gorm.io/datatypes"
)

// SubjectType represents the type of entity that was changed
type SubjectType string

const (
	// SubjectTypeEvent indicates a raw event was recorded
	SubjectTypeEvent SubjectType = "event"
	// SubjectTypeGitProject indicates a git project was created or updated
	SubjectTypeGitProject SubjectType = "git_project"
	// SubjectTypeDripList indicates a drip list was created or updated
	SubjectTypeDripList SubjectType = "drip_list"
	// SubjectTypeSplits indicates the split receivers of a funder were rebuilt
	SubjectTypeSplits SubjectType = "splits"
)

// ChangesJournal represents the changes_journal table - audit log of every mutation made by the pipeline
type ChangesJournal struct {
	// Cursor is an auto-incrementing sequence number for efficient pagination and ordering
	Cursor int64 `gorm:"column:\"cursor\";primaryKey;autoIncrement"`
	// RequestID identifies the unit of work that made the change
	RequestID string `gorm:"column:request_id;not null;type:text;index"`
	// SubjectType identifies what kind of entity changed
	SubjectType SubjectType `gorm:"column:subject_type;not null;type:text"`
	// SubjectID is the identifier of the changed entity
	SubjectID string `gorm:"column:subject_id;not null;type:text"`
	// ChangedAt is the timestamp when the change occurred
	ChangedAt time.Time `gorm:"column:changed_at;not null;default:now();type:timestamptz"`
	// Meta holds the action and the changed fields as canonical JSON
	Meta datatypes.JSON `gorm:"column:meta;type:jsonb"`
}

// TableName specifies the table name for the ChangesJournal model
func (ChangesJournal) TableName() string {
	return "changes_journal"
}
