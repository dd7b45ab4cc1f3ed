package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/drips-indexer/internal/audit"
	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/store"
	"github.com/feral-file/drips-indexer/internal/store/schema"
)

const skipAlreadyProcessed = "already processed"

// eventHandler applies one kind of log inside the dispatcher's transaction
type eventHandler interface {
	handle(ctx context.Context, req *request) error
}

// request is the state of one unit of work
type request struct {
	event     *domain.DripsEvent
	tx        store.Tx
	audit     *audit.Log
	blockTime time.Time
}

// eventLog builds the columns shared by every raw event row
func (r *request) eventLog() (schema.EventLog, error) {
	raw, err := json.Marshal(r.event.Log)
	if err != nil {
		return schema.EventLog{}, err
	}

	return schema.EventLog{
		TransactionHash: r.event.Log.TxHash.Hex(),
		LogIndex:        r.event.Log.Index,
		BlockNumber:     r.event.Log.BlockNumber,
		BlockTimestamp:  r.blockTime,
		RawEvent:        datatypes.JSON(raw),
	}, nil
}

// record stores the raw event and reports whether this is its first application
func (r *request) record(ctx context.Context, record schema.EventRecord) (bool, error) {
	created, err := r.tx.RecordIfNew(ctx, record)
	if err != nil {
		return false, err
	}

	naturalKey := r.event.NaturalKey().String()
	if created {
		r.audit.Recorded(record.TableName(), naturalKey)
	} else {
		r.audit.Duplicate(record.TableName(), naturalKey)
	}
	return created, nil
}

// isNewest gates a mutation of subject on the record being the latest event of its kind in scope
func (r *request) isNewest(ctx context.Context, record schema.EventRecord, scope store.Scope, subjectType schema.SubjectType, subjectID string) (bool, error) {
	newest, err := r.tx.IsNewest(ctx, record, scope)
	if err != nil {
		return false, err
	}
	r.audit.Ordering(subjectType, subjectID, newest, r.event.OrderingKey())
	return newest, nil
}

// projectStatus derives the verification status of a project from its recorded events
func projectStatus(ctx context.Context, tx store.Tx, projectID string, hasValidMetadata bool) (domain.ProjectVerificationStatus, error) {
	scope := store.Scope{"account_id": projectID}

	latestRequest, err := tx.LatestEventKey(ctx, &schema.OwnerUpdateRequestedEvent{}, scope)
	if err != nil {
		return "", err
	}
	latestConfirmation, err := tx.LatestEventKey(ctx, &schema.OwnerUpdatedEvent{}, scope)
	if err != nil {
		return "", err
	}

	return domain.DeriveProjectStatus(domain.ProjectStatusInput{
		LatestRequest:      latestRequest,
		LatestConfirmation: latestConfirmation,
		HasValidMetadata:   hasValidMetadata,
	}), nil
}

// sanitizeText makes chain-provided bytes storable in a text column
func sanitizeText(b []byte) string {
	return strings.ReplaceAll(strings.ToValidUTF8(string(b), "�"), "\x00", "")
}
