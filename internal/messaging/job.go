package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/feral-file/drips-indexer/internal/domain"
)

const (
	// JobSubjectPrefix prefixes the subject of every job, e.g. jobs.drips.Transfer
	JobSubjectPrefix = "jobs.drips"
	// DeadLetterSubjectPrefix prefixes the subject of every dead letter
	DeadLetterSubjectPrefix = "deadletter.drips"
)

// JobSubject returns the subject jobs of the given signature are published to
func JobSubject(sig domain.EventSignature) string {
	return fmt.Sprintf("%s.%s", JobSubjectPrefix, sig.Name())
}

// DeadLetterSubject returns the dead letter subject matching a job subject
func DeadLetterSubject(jobSubject string) string {
	if name, ok := strings.CutPrefix(jobSubject, JobSubjectPrefix+"."); ok {
		return fmt.Sprintf("%s.%s", DeadLetterSubjectPrefix, name)
	}
	return fmt.Sprintf("%s.unknown", DeadLetterSubjectPrefix)
}

// MsgID is the broker deduplication id of a job, the natural key of its log
func MsgID(event *domain.DripsEvent) string {
	return event.NaturalKey().String()
}

// DeadLetter is the envelope published for a job that will not be retried
type DeadLetter struct {
	// ID is a ulid, sortable by failure time
	ID string `json:"id"`
	// Reason is the error that caused the job to be dead-lettered
	Reason string `json:"reason"`
	// Subject is the subject the job was consumed from
	Subject string `json:"subject"`
	// Payload is the original job payload
	Payload json.RawMessage `json:"payload"`
	// NumDelivered is how many times the job was delivered
	NumDelivered uint64    `json:"num_delivered"`
	FailedAt     time.Time `json:"failed_at"`
}

// NewDeadLetter builds a dead letter envelope for a failed job
func NewDeadLetter(subject string, payload []byte, reason error, numDelivered uint64, failedAt time.Time) *DeadLetter {
	// keep the original bytes only when they are valid JSON, otherwise quote them
	raw := json.RawMessage(payload)
	if !json.Valid(payload) {
		quoted, _ := json.Marshal(string(payload))
		raw = quoted
	}

	msg := ""
	if reason != nil {
		msg = reason.Error()
	}

	return &DeadLetter{
		ID:           ulid.MustNewDefault(failedAt).String(),
		Reason:       msg,
		Subject:      subject,
		Payload:      raw,
		NumDelivered: numDelivered,
		FailedAt:     failedAt,
	}
}
