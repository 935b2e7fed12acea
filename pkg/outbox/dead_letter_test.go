package outbox

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/db/dbtest"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
)

func TestDeadLetterInsertTruncatesError(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewDeadLetterRepository(db)

	msg := strings.Repeat("x", maxLastErrorLen+50)
	entry := models.OutboxDeadLetter{
		EventID:       uuid.New(),
		EventType:     enums.EventSellerOrdersCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		Reason:        string(enums.OutboxDLQReasonMaxAttempts),
		ErrorMessage:  &msg,
		AttemptCount:  10,
		FailedAt:      time.Now().UTC(),
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.InsertTx(tx, entry)
	}))

	var stored models.OutboxDeadLetter
	require.NoError(t, db.Where("event_id = ?", entry.EventID).First(&stored).Error)
	require.NotNil(t, stored.ErrorMessage)
	assert.Len(t, *stored.ErrorMessage, maxLastErrorLen)
	assert.Equal(t, 10, stored.AttemptCount)

	require.Error(t, repo.InsertTx(nil, entry))
}
