package store

import (
	"context"

	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/store/schema"
)

//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore,Tx=MockTx

// Scope is the identity-scoping where clause of an aggregate, e.g. {"account_id": "123"}
type Scope map[string]interface{}

// FunderKind identifies which side of the funder relation a split receiver hangs off
type FunderKind string

const (
	FunderProject  FunderKind = "project"
	FunderDripList FunderKind = "drip_list"
)

// Funder identifies the aggregate that owns a set of outgoing split receivers
type Funder struct {
	Kind FunderKind
	ID   string
}

// SplitReceivers is the full set of outgoing edges of one funder
type SplitReceivers struct {
	Addresses []schema.AddressDriverSplitReceiver
	Projects  []schema.RepoDriverSplitReceiver
	DripLists []schema.DripListSplitReceiver
}

// Len returns the total number of receivers
func (r *SplitReceivers) Len() int {
	return len(r.Addresses) + len(r.Projects) + len(r.DripLists)
}

// Store defines the interface for database operations
type Store interface {
	// Transaction runs fn inside a single database transaction. Serialization failures and
	// deadlocks are retried with backoff, so fn must be safe to run more than once.
	Transaction(ctx context.Context, fn func(tx Tx) error) error

	// GetGitProject retrieves a git project by its RepoDriver account id
	GetGitProject(ctx context.Context, id string) (*schema.GitProject, error)
	// GetDripList retrieves a drip list by its token id
	GetDripList(ctx context.Context, id string) (*schema.DripList, error)
	// GetSplitReceivers retrieves every outgoing split receiver of a funder
	GetSplitReceivers(ctx context.Context, funder Funder) (*SplitReceivers, error)
	// GetChangesByRequestID retrieves the journal entries written by one unit of work
	GetChangesByRequestID(ctx context.Context, requestID string) ([]schema.ChangesJournal, error)

	// GetBlockCursor retrieves the last enqueued block number for a chain
	GetBlockCursor(ctx context.Context, chain string) (uint64, error)
	// SetBlockCursor stores the last enqueued block number for a chain
	SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error
}

// Tx is the set of operations available inside Store.Transaction.
// Every read that feeds a decision takes a row lock held until commit.
type Tx interface {
	// RecordIfNew inserts the raw event unless its natural key exists, then locks the stored row.
	// It reports whether this call created the row. record is overwritten with the stored values.
	RecordIfNew(ctx context.Context, record schema.EventRecord) (bool, error)
	// IsNewest reports whether record is strictly later than every other event of the same kind
	// in scope. The current latest row is locked. Equal ordering keys are not newer.
	IsNewest(ctx context.Context, record schema.EventRecord, scope Scope) (bool, error)
	// LatestEventKey returns the greatest ordering key of the events of model's kind in scope, nil if none
	LatestEventKey(ctx context.Context, model schema.EventRecord, scope Scope) (*domain.OrderingKey, error)
	// CountTransfersTo counts the recorded NftDriver transfers received by address
	CountTransfersTo(ctx context.Context, address string) (uint64, error)

	// FindOrCreateGitProject inserts project unless a row with its id exists, then locks the row.
	// It reports whether this call created the row. project is overwritten with the stored values.
	FindOrCreateGitProject(ctx context.Context, project *schema.GitProject) (bool, error)
	// LockGitProject locks and returns a git project, domain.ErrProjectNotFound if absent
	LockGitProject(ctx context.Context, id string) (*schema.GitProject, error)
	// UpdateGitProject applies column updates to a git project
	UpdateGitProject(ctx context.Context, id string, updates map[string]interface{}) error

	// FindOrCreateDripList inserts list unless a row with its id exists, then locks the row
	FindOrCreateDripList(ctx context.Context, list *schema.DripList) (bool, error)
	// LockDripList locks and returns a drip list, domain.ErrDripListNotFound if absent
	LockDripList(ctx context.Context, id string) (*schema.DripList, error)
	// UpdateDripList applies column updates to a drip list
	UpdateDripList(ctx context.Context, id string, updates map[string]interface{}) error

	// ReplaceSplitReceivers deletes every outgoing receiver of funder and inserts receivers
	ReplaceSplitReceivers(ctx context.Context, funder Funder, receivers *SplitReceivers) error

	// CreateChanges appends entries to the changes journal
	CreateChanges(ctx context.Context, entries []schema.ChangesJournal) error
}
