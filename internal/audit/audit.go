// Package audit accumulates a structured trace of one unit of work.
//
// A Log is created per job. Handlers append entries as they take decisions;
// mutation entries are written to the changes journal inside the same transaction,
// and the whole trace is emitted as one log line once the unit of work ends.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/datatypes"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/store/schema"
)

// Action is the kind of decision an entry records
type Action string

const (
	ActionRecorded   Action = "recorded"
	ActionDuplicate  Action = "duplicate"
	ActionCreated    Action = "created"
	ActionFound      Action = "found"
	ActionNewest     Action = "newest"
	ActionStale      Action = "stale"
	ActionUpdated    Action = "updated"
	ActionReplaced   Action = "replaced"
	ActionSkipped    Action = "skipped"
	ActionValidated  Action = "validated"
	ActionInvalidate Action = "invalidated"
	ActionUnparsed   Action = "unparsed"
)

// mutates reports whether entries with this action describe a change to persisted state
func (a Action) mutates() bool {
	switch a {
	case ActionRecorded, ActionCreated, ActionUpdated, ActionReplaced, ActionInvalidate:
		return true
	}
	return false
}

// Entry is one decision taken while handling a job
type Entry struct {
	Action      Action                 `json:"action"`
	SubjectType schema.SubjectType     `json:"subject_type,omitempty"`
	SubjectID   string                 `json:"subject_id,omitempty"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
	At          time.Time              `json:"-"`
}

// Log accumulates entries for one request. It is not safe for concurrent use.
type Log struct {
	requestID string
	clock     adapter.Clock
	json      adapter.JSON
	entries   []Entry
}

// New creates an empty audit log for a request
func New(requestID string, clock adapter.Clock, json adapter.JSON) *Log {
	return &Log{requestID: requestID, clock: clock, json: json}
}

// RequestID returns the id of the request being traced
func (l *Log) RequestID() string {
	return l.requestID
}

// Entries returns a copy of the accumulated entries
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Reset drops all entries, used when a unit of work is retried from scratch
func (l *Log) Reset() {
	l.entries = l.entries[:0]
}

func (l *Log) append(e Entry) {
	e.At = l.clock.Now()
	l.entries = append(l.entries, e)
}

// Recorded notes that a raw event was stored for the first time
func (l *Log) Recorded(table, naturalKey string) {
	l.append(Entry{Action: ActionRecorded, SubjectType: schema.SubjectTypeEvent, SubjectID: naturalKey, Fields: map[string]interface{}{"table": table}})
}

// Duplicate notes that a raw event had already been stored
func (l *Log) Duplicate(table, naturalKey string) {
	l.append(Entry{Action: ActionDuplicate, SubjectType: schema.SubjectTypeEvent, SubjectID: naturalKey, Fields: map[string]interface{}{"table": table}})
}

// FoundOrCreated notes the outcome of a find-or-create on an aggregate
func (l *Log) FoundOrCreated(subjectType schema.SubjectType, id string, created bool, fields map[string]interface{}) {
	action := ActionFound
	if created {
		action = ActionCreated
	} else {
		fields = nil
	}
	l.append(Entry{Action: action, SubjectType: subjectType, SubjectID: id, Fields: fields})
}

// Ordering notes the outcome of an is-newest check
func (l *Log) Ordering(subjectType schema.SubjectType, id string, newest bool, key fmt.Stringer) {
	action := ActionStale
	if newest {
		action = ActionNewest
	}
	l.append(Entry{Action: action, SubjectType: subjectType, SubjectID: id, Fields: map[string]interface{}{"ordering_key": key.String()}})
}

// Updated notes the fields changed on an aggregate
func (l *Log) Updated(subjectType schema.SubjectType, id string, fields map[string]interface{}) {
	l.append(Entry{Action: ActionUpdated, SubjectType: subjectType, SubjectID: id, Fields: fields})
}

// Replaced notes that the split receivers of a funder were rebuilt
func (l *Log) Replaced(id string, count int) {
	l.append(Entry{Action: ActionReplaced, SubjectType: schema.SubjectTypeSplits, SubjectID: id, Fields: map[string]interface{}{"receivers": count}})
}

// Skipped notes that no further work was done and why
func (l *Log) Skipped(reason string) {
	l.append(Entry{Action: ActionSkipped, Reason: reason})
}

// Validated notes the outcome of a split integrity check
func (l *Log) Validated(subjectType schema.SubjectType, id string, valid bool, reason string) {
	action := ActionValidated
	if !valid {
		action = ActionInvalidate
	}
	l.append(Entry{Action: action, SubjectType: subjectType, SubjectID: id, Reason: reason})
}

// Unparsed notes a field of an event that could not be interpreted and was stored as is
func (l *Log) Unparsed(subjectType schema.SubjectType, id, field, reason string) {
	l.append(Entry{Action: ActionUnparsed, SubjectType: subjectType, SubjectID: id, Fields: map[string]interface{}{"field": field}, Reason: reason})
}

// Changes converts the mutation entries to changes journal rows
func (l *Log) Changes() ([]schema.ChangesJournal, error) {
	var changes []schema.ChangesJournal
	for _, e := range l.entries {
		if !e.Action.mutates() {
			continue
		}
		meta, err := l.json.MarshalCanonical(e)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal change meta: %w", err)
		}
		changes = append(changes, schema.ChangesJournal{
			RequestID:   l.requestID,
			SubjectType: e.SubjectType,
			SubjectID:   e.SubjectID,
			ChangedAt:   e.At,
			Meta:        datatypes.JSON(meta),
		})
	}
	return changes, nil
}

// MarshalLogArray implements zapcore.ArrayMarshaler
func (l *Log) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for i := range l.entries {
		if err := enc.AppendObject(entryMarshaler(l.entries[i])); err != nil {
			return err
		}
	}
	return nil
}

type entryMarshaler Entry

func (e entryMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("action", string(e.Action))
	if e.SubjectType != "" {
		enc.AddString("subject_type", string(e.SubjectType))
	}
	if e.SubjectID != "" {
		enc.AddString("subject_id", e.SubjectID)
	}
	if e.Reason != "" {
		enc.AddString("reason", e.Reason)
	}
	if len(e.Fields) > 0 {
		return enc.AddReflected("fields", e.Fields)
	}
	return nil
}

// Flush emits the whole trace as one log line. It is called once the unit of work ended,
// at debug level on success and warn level on failure.
func (l *Log) Flush(ctx context.Context, err error) {
	fields := []zap.Field{
		zap.String("request_id", l.requestID),
		zap.Array("trace", l),
	}
	if err != nil {
		logger.WarnCtx(ctx, "Unit of work failed", append(fields, zap.Error(err))...)
		return
	}
	logger.DebugCtx(ctx, "Unit of work committed", fields...)
}
