package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/store/schema"
)

const (
	// pgSerializationFailure is SQLSTATE 40001
	pgSerializationFailure = "40001"
	// pgDeadlockDetected is SQLSTATE 40P01
	pgDeadlockDetected = "40P01"
)

type pgStore struct {
	db          *gorm.DB
	retryPolicy func() backoff.BackOff
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{
		db: db,
		retryPolicy: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = time.Second
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
	}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// If any of the pool settings are 0, defaults from NormalizeConnectionPoolSettings are used.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Every worker holds one connection for the whole unit of work, so MaxOpenConns
// should be at least the worker pool size.
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// IsTransientError reports whether err is a serialization failure or deadlock that may succeed on retry
func IsTransientError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}

// Transaction runs fn inside a single database transaction, retrying transient conflicts
func (s *pgStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&pgTx{db: tx})
		})
		if err == nil {
			return nil
		}
		if IsTransientError(err) {
			logger.WarnCtx(ctx, "Transient database conflict, retrying transaction",
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(operation, backoff.WithContext(s.retryPolicy(), ctx))
}

// GetGitProject retrieves a git project by its RepoDriver account id
func (s *pgStore) GetGitProject(ctx context.Context, id string) (*schema.GitProject, error) {
	var project schema.GitProject
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get git project: %w", err)
	}
	return &project, nil
}

// GetDripList retrieves a drip list by its token id
func (s *pgStore) GetDripList(ctx context.Context, id string) (*schema.DripList, error) {
	var list schema.DripList
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDripListNotFound
		}
		return nil, fmt.Errorf("failed to get drip list: %w", err)
	}
	return &list, nil
}

// GetSplitReceivers retrieves every outgoing split receiver of a funder
func (s *pgStore) GetSplitReceivers(ctx context.Context, funder Funder) (*SplitReceivers, error) {
	column, err := funderColumn(funder.Kind)
	if err != nil {
		return nil, err
	}

	var receivers SplitReceivers
	db := s.db.WithContext(ctx)
	if err := db.Where(column+" = ?", funder.ID).Order("id").Find(&receivers.Addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to get address split receivers: %w", err)
	}
	if err := db.Where(column+" = ?", funder.ID).Order("id").Find(&receivers.Projects).Error; err != nil {
		return nil, fmt.Errorf("failed to get project split receivers: %w", err)
	}
	if err := db.Where(column+" = ?", funder.ID).Order("id").Find(&receivers.DripLists).Error; err != nil {
		return nil, fmt.Errorf("failed to get drip list split receivers: %w", err)
	}
	return &receivers, nil
}

// GetChangesByRequestID retrieves the journal entries written by one unit of work
func (s *pgStore) GetChangesByRequestID(ctx context.Context, requestID string) ([]schema.ChangesJournal, error) {
	var entries []schema.ChangesJournal
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("\"cursor\"").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get changes: %w", err)
	}
	return entries, nil
}

// GetBlockCursor retrieves the last enqueued block number for a chain
func (s *pgStore) GetBlockCursor(ctx context.Context, chain string) (uint64, error) {
	return NewCursorStore(s.db).GetBlockCursor(ctx, chain)
}

// SetBlockCursor stores the last enqueued block number for a chain
func (s *pgStore) SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error {
	return NewCursorStore(s.db).SetBlockCursor(ctx, chain, blockNumber)
}

func funderColumn(kind FunderKind) (string, error) {
	switch kind {
	case FunderProject:
		return "funder_project_id", nil
	case FunderDripList:
		return "funder_drip_list_id", nil
	}
	return "", fmt.Errorf("%w: unknown funder kind %q", domain.ErrInvariantViolation, kind)
}
