package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/store/schema"
)

// pgTx implements Tx on top of an open gorm transaction
type pgTx struct {
	db *gorm.DB
}

var lockForUpdate = clause.Locking{Strength: "UPDATE"}

// orderingRow is the ordering key projection of a raw event row
type orderingRow struct {
	BlockNumber uint64 `gorm:"column:block_number"`
	LogIndex    uint   `gorm:"column:log_index"`
}

// RecordIfNew inserts the raw event unless its natural key exists, then locks the stored row
func (t *pgTx) RecordIfNew(ctx context.Context, record schema.EventRecord) (bool, error) {
	base := record.Base()
	txHash, logIndex := base.TransactionHash, base.LogIndex

	result := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_hash"}, {Name: "log_index"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record %s: %w", record.TableName(), result.Error)
	}
	created := result.RowsAffected == 1

	err := t.db.WithContext(ctx).
		Clauses(lockForUpdate).
		Where("transaction_hash = ? AND log_index = ?", txHash, logIndex).
		Take(record).Error
	if err != nil {
		return false, fmt.Errorf("failed to lock %s: %w", record.TableName(), err)
	}

	return created, nil
}

// IsNewest reports whether record is strictly later than every other event of its kind in scope
func (t *pgTx) IsNewest(ctx context.Context, record schema.EventRecord, scope Scope) (bool, error) {
	base := record.Base()

	var rows []orderingRow
	err := t.db.WithContext(ctx).
		Table(record.TableName()).
		Select("block_number", "log_index").
		Where(map[string]interface{}(scope)).
		Where("NOT (transaction_hash = ? AND log_index = ?)", base.TransactionHash, base.LogIndex).
		Order("block_number DESC").
		Order("log_index DESC").
		Limit(1).
		Clauses(lockForUpdate).
		Scan(&rows).Error
	if err != nil {
		return false, fmt.Errorf("failed to get latest %s: %w", record.TableName(), err)
	}
	if len(rows) == 0 {
		return true, nil
	}

	candidate := domain.OrderingKey{BlockNumber: base.BlockNumber, LogIndex: base.LogIndex}
	latest := domain.OrderingKey{BlockNumber: rows[0].BlockNumber, LogIndex: rows[0].LogIndex}
	return candidate.After(latest), nil
}

// LatestEventKey returns the greatest ordering key of the events of model's kind in scope
func (t *pgTx) LatestEventKey(ctx context.Context, model schema.EventRecord, scope Scope) (*domain.OrderingKey, error) {
	var rows []orderingRow
	err := t.db.WithContext(ctx).
		Table(model.TableName()).
		Select("block_number", "log_index").
		Where(map[string]interface{}(scope)).
		Order("block_number DESC").
		Order("log_index DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get latest %s: %w", model.TableName(), err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &domain.OrderingKey{BlockNumber: rows[0].BlockNumber, LogIndex: rows[0].LogIndex}, nil
}

// CountTransfersTo counts the recorded transfers whose recipient is address
func (t *pgTx) CountTransfersTo(ctx context.Context, address string) (uint64, error) {
	var count int64
	err := t.db.WithContext(ctx).
		Model(&schema.TransferEvent{}).
		Where(`"to" = ?`, address).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count transfers: %w", err)
	}
	return uint64(count), nil //nolint:gosec,G115
}

// FindOrCreateGitProject inserts project unless a row with its id exists, then locks the row
func (t *pgTx) FindOrCreateGitProject(ctx context.Context, project *schema.GitProject) (bool, error) {
	result := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(project)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create git project: %w", result.Error)
	}

	if err := t.db.WithContext(ctx).Clauses(lockForUpdate).Where("id = ?", project.ID).Take(project).Error; err != nil {
		return false, fmt.Errorf("failed to lock git project: %w", err)
	}
	return result.RowsAffected == 1, nil
}

// LockGitProject locks and returns a git project
func (t *pgTx) LockGitProject(ctx context.Context, id string) (*schema.GitProject, error) {
	var project schema.GitProject
	err := t.db.WithContext(ctx).Clauses(lockForUpdate).Where("id = ?", id).Take(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotFound, id)
		}
		return nil, fmt.Errorf("failed to lock git project: %w", err)
	}
	return &project, nil
}

// UpdateGitProject applies column updates to a git project
func (t *pgTx) UpdateGitProject(ctx context.Context, id string, updates map[string]interface{}) error {
	result := t.db.WithContext(ctx).Model(&schema.GitProject{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update git project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProjectNotFound, id)
	}
	return nil
}

// FindOrCreateDripList inserts list unless a row with its id exists, then locks the row
func (t *pgTx) FindOrCreateDripList(ctx context.Context, list *schema.DripList) (bool, error) {
	result := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(list)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create drip list: %w", result.Error)
	}

	if err := t.db.WithContext(ctx).Clauses(lockForUpdate).Where("id = ?", list.ID).Take(list).Error; err != nil {
		return false, fmt.Errorf("failed to lock drip list: %w", err)
	}
	return result.RowsAffected == 1, nil
}

// LockDripList locks and returns a drip list
func (t *pgTx) LockDripList(ctx context.Context, id string) (*schema.DripList, error) {
	var list schema.DripList
	err := t.db.WithContext(ctx).Clauses(lockForUpdate).Where("id = ?", id).Take(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDripListNotFound, id)
		}
		return nil, fmt.Errorf("failed to lock drip list: %w", err)
	}
	return &list, nil
}

// UpdateDripList applies column updates to a drip list
func (t *pgTx) UpdateDripList(ctx context.Context, id string, updates map[string]interface{}) error {
	result := t.db.WithContext(ctx).Model(&schema.DripList{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update drip list: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDripListNotFound, id)
	}
	return nil
}

// ReplaceSplitReceivers deletes every outgoing receiver of funder and inserts receivers
func (t *pgTx) ReplaceSplitReceivers(ctx context.Context, funder Funder, receivers *SplitReceivers) error {
	column, err := funderColumn(funder.Kind)
	if err != nil {
		return err
	}

	db := t.db.WithContext(ctx)
	for _, model := range []interface{}{
		&schema.AddressDriverSplitReceiver{},
		&schema.RepoDriverSplitReceiver{},
		&schema.DripListSplitReceiver{},
	} {
		if err := db.Where(column+" = ?", funder.ID).Delete(model).Error; err != nil {
			return fmt.Errorf("failed to delete split receivers: %w", err)
		}
	}

	if receivers == nil {
		return nil
	}

	owner := funderOf(funder)
	for i := range receivers.Addresses {
		receivers.Addresses[i].SplitFunder = owner
	}
	for i := range receivers.Projects {
		receivers.Projects[i].SplitFunder = owner
	}
	for i := range receivers.DripLists {
		receivers.DripLists[i].SplitFunder = owner
	}

	if len(receivers.Addresses) > 0 {
		if err := db.Create(&receivers.Addresses).Error; err != nil {
			return fmt.Errorf("failed to create address split receivers: %w", err)
		}
	}
	if len(receivers.Projects) > 0 {
		if err := db.Omit(clause.Associations).Create(&receivers.Projects).Error; err != nil {
			return fmt.Errorf("failed to create project split receivers: %w", err)
		}
	}
	if len(receivers.DripLists) > 0 {
		if err := db.Create(&receivers.DripLists).Error; err != nil {
			return fmt.Errorf("failed to create drip list split receivers: %w", err)
		}
	}
	return nil
}

// CreateChanges appends entries to the changes journal
func (t *pgTx) CreateChanges(ctx context.Context, entries []schema.ChangesJournal) error {
	if len(entries) == 0 {
		return nil
	}
	if err := t.db.WithContext(ctx).Create(&entries).Error; err != nil {
		return fmt.Errorf("failed to create change journal: %w", err)
	}
	return nil
}

func funderOf(funder Funder) schema.SplitFunder {
	id := funder.ID
	if funder.Kind == FunderProject {
		return schema.SplitFunder{FunderProjectID: &id}
	}
	return schema.SplitFunder{FunderDripListID: &id}
}
