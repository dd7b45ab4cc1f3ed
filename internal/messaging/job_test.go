package messaging_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/messaging"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "jobs.drips.Transfer", messaging.JobSubject(domain.SignatureTransfer))
	assert.Equal(t, "jobs.drips.AccountMetadataEmitted", messaging.JobSubject(domain.SignatureAccountMetadataEmitted))
	assert.Equal(t, "deadletter.drips.Transfer", messaging.DeadLetterSubject("jobs.drips.Transfer"))
	assert.Equal(t, "deadletter.drips.unknown", messaging.DeadLetterSubject("events.other"))
}

func TestMsgID(t *testing.T) {
	event := &domain.DripsEvent{
		Signature: domain.SignatureGiven,
		Log: types.Log{
			TxHash: common.HexToHash("0x01"),
			Index:  3,
		},
	}
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000001-3", messaging.MsgID(event))
}

func TestNewDeadLetter(t *testing.T) {
	failedAt := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("json payload is kept", func(t *testing.T) {
		letter := messaging.NewDeadLetter("jobs.drips.Transfer", []byte(`{"a":1}`), errors.New("boom"), 5, failedAt)

		id, err := ulid.ParseStrict(letter.ID)
		require.NoError(t, err)
		assert.Equal(t, ulid.Timestamp(failedAt), id.Time())
		assert.Equal(t, "boom", letter.Reason)
		assert.Equal(t, uint64(5), letter.NumDelivered)
		assert.JSONEq(t, `{"a":1}`, string(letter.Payload))
	})

	t.Run("invalid payload is quoted", func(t *testing.T) {
		letter := messaging.NewDeadLetter("jobs.drips.Transfer", []byte("not json"), nil, 1, failedAt)

		data, err := json.Marshal(letter)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"payload":"not json"`)
		assert.Empty(t, letter.Reason)
	})
}
