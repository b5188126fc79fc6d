package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"driftchat/internal/domain/message"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessage(t *testing.T, msgs *fakeMsgRepo, deleteAt time.Time, mediaURL string) uuid.UUID {
	t.Helper()
	m := &message.Message{
		ID:             uuid.New(),
		ConversationID: uuid.New(),
		SenderID:       uuid.New(),
		Content:        "payload",
		Type:           message.TypeText,
		DeleteAt:       deleteAt,
		CreatedAt:      time.Now(),
	}
	if mediaURL != "" {
		m.Type = message.TypeImage
		m.MediaURL = sql.NullString{String: mediaURL, Valid: true}
	}
	require.NoError(t, msgs.Create(context.Background(), m))
	return m.ID
}

func TestSweepOnceDeletesExpiredMessages(t *testing.T) {
	msgs := newFakeMsgRepo()
	media := newFakeMedia()
	sweeper := NewSweeper(msgs, media, testLogger(), 0)

	expired := seedMessage(t, msgs, time.Now().Add(-time.Hour), "")
	fresh := seedMessage(t, msgs, time.Now().Add(24*time.Hour), "")

	deleted, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.False(t, msgs.has(expired))
	assert.True(t, msgs.has(fresh), "messages inside their retention window stay")
}

func TestSweepOnceReclaimsMediaBeforeRow(t *testing.T) {
	msgs := newFakeMsgRepo()
	media := newFakeMedia()
	sweeper := NewSweeper(msgs, media, testLogger(), 0)

	id := seedMessage(t, msgs, time.Now().Add(-time.Hour), "https://cdn.example.com/x.png")

	deleted, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.False(t, msgs.has(id))
	assert.Equal(t, []string{"https://cdn.example.com/x.png"}, media.deletedURLs())
}

func TestSweepOnceSkipsRowOnMediaFailure(t *testing.T) {
	msgs := newFakeMsgRepo()
	media := newFakeMedia()
	media.fail["https://cdn.example.com/stuck.png"] = true
	sweeper := NewSweeper(msgs, media, testLogger(), 0)

	stuck := seedMessage(t, msgs, time.Now().Add(-time.Hour), "https://cdn.example.com/stuck.png")
	plain := seedMessage(t, msgs, time.Now().Add(-time.Hour), "")

	deleted, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	// The row with undeletable media stays for the next sweep pass.
	assert.True(t, msgs.has(stuck))
	assert.False(t, msgs.has(plain))
}

func TestSweepOnceEmpty(t *testing.T) {
	msgs := newFakeMsgRepo()
	sweeper := NewSweeper(msgs, newFakeMedia(), testLogger(), 0)

	deleted, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestSweeperStartStop(t *testing.T) {
	msgs := newFakeMsgRepo()
	sweeper := NewSweeper(msgs, newFakeMedia(), testLogger(), time.Hour)

	sweeper.Start()
	sweeper.Stop()
}
