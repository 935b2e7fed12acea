package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/JoeyLyman/yaycsa/pkg/db/dbtest"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	"github.com/JoeyLyman/yaycsa/pkg/outbox/payloads"
)

func TestEmitWritesEnvelope(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	offerID := uuid.New()
	userID := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, payloads.OfferStatusChangedEvent{
			OfferID:        offerID,
			PreviousStatus: enums.OfferStatusDraft,
			Status:         enums.OfferStatusActive,
		}, &ActorRef{UserID: &userID, Role: "seller"})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventOfferStatusChanged, rows[0].EventType)
	assert.Equal(t, enums.AggregateOffer, rows[0].AggregateType)
	assert.Equal(t, offerID, rows[0].AggregateID)
	assert.Nil(t, rows[0].PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.Equal(t, enums.EventOfferStatusChanged, envelope.EventType)
	assert.True(t, envelope.OccurredAt.Equal(at))
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, userID, *envelope.Actor.UserID)

	var data payloads.OfferStatusChangedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, enums.OfferStatusActive, data.Status)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)

	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, payloads.SellerOrdersCreatedEvent{AggregateOrderID: uuid.New()}, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitRejects(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)
	ctx := context.Background()

	require.ErrorIs(t, svc.Emit(ctx, nil, payloads.SellerOrdersCreatedEvent{AggregateOrderID: uuid.New()}, nil), errNoTx)
	require.Error(t, svc.Emit(ctx, db, nil, nil))
	require.Error(t, svc.Emit(ctx, db, payloads.SellerOrdersCreatedEvent{}, nil), "aggregate id is required")
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)

	first := models.OutboxEvent{EventType: enums.EventSellerOrdersCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventSellerOrdersCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, repo.Insert(db, first))
	require.NoError(t, repo.Insert(db, second))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublishedTx(db, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(db, rows[1].ID, errors.New("unavailable")))

	rows, err = repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].AttemptCount)
	require.NotNil(t, rows[0].LastError)
	assert.Equal(t, "unavailable", *rows[0].LastError)

	require.NoError(t, repo.MarkTerminalTx(db, rows[0].ID, errors.New("gave up"), 3))
	rows, err = repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
