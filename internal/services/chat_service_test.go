package services

import (
	"context"
	"testing"
	"time"

	"driftchat/internal/domain/message"
	"driftchat/internal/events"
	"driftchat/internal/match"
	drift_errors "driftchat/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	registry *match.Registry
	convs    *fakeConvRepo
	msgs     *fakeMsgRepo
	notifier *fakeNotifier
	svc      *ChatService
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		registry: match.NewRegistry(),
		convs:    newFakeConvRepo(),
		msgs:     newFakeMsgRepo(),
		notifier: newFakeNotifier(),
	}
	f.svc = NewChatService(f.convs, f.msgs, f.registry, f.notifier, 0)
	return f
}

func TestSendMessageAppliesPrivateRetention(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()
	conv, err := f.convs.GetOrCreateDirect(ctx, alice, bob)
	require.NoError(t, err)

	before := time.Now()
	m, err := f.svc.SendMessage(ctx, alice, conv.ID, "hello", "")
	require.NoError(t, err)

	assert.Equal(t, message.TypeText, m.Type)
	assert.True(t, m.DeleteAt.After(before.Add(89*24*time.Hour)),
		"private messages keep the 90-day window")
	assert.True(t, f.msgs.has(m.ID))
}

func TestSendMessageForwardsToOnlineRecipient(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()
	conv, err := f.convs.GetOrCreateDirect(ctx, alice, bob)
	require.NoError(t, err)

	require.Empty(t, f.registry.Register(bob, "cb"))

	m, err := f.svc.SendMessage(ctx, alice, conv.ID, "hi bob", "")
	require.NoError(t, err)

	e, ok := f.notifier.last("cb")
	require.True(t, ok)
	require.Equal(t, events.OutPrivateMessage, e.Event)
	p, ok := e.Payload.(events.PrivateMessagePayload)
	require.True(t, ok)
	assert.Equal(t, conv.ID, p.ConversationID)
	assert.Equal(t, "hi bob", p.Message)
	assert.Equal(t, alice, p.SenderID)
	assert.True(t, f.msgs.has(m.ID))
}

func TestSendMessagePersistsWhenRecipientOffline(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()
	conv, err := f.convs.GetOrCreateDirect(ctx, alice, bob)
	require.NoError(t, err)

	m, err := f.svc.SendMessage(ctx, alice, conv.ID, "read it later", "")
	require.NoError(t, err)
	assert.True(t, f.msgs.has(m.ID))
	assert.Empty(t, f.notifier.sent)
}

func TestSendMessageStoresMediaURL(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()
	conv, err := f.convs.GetOrCreateDirect(ctx, alice, bob)
	require.NoError(t, err)

	m, err := f.svc.SendMessage(ctx, alice, conv.ID, "https://cdn.example.com/pic.png", message.TypeImage)
	require.NoError(t, err)
	assert.True(t, m.HasMedia())
	assert.Equal(t, "https://cdn.example.com/pic.png", m.MediaURL.String)
}

func TestSendMessageRejectsRandomConversation(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()
	conv, err := f.convs.GetOrCreateRandom(ctx, alice, bob)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, alice, conv.ID, "nope", "")
	assert.ErrorIs(t, err, drift_errors.ErrInvalidInput)
}

func TestSendMessageRequiresParticipant(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	conv, err := f.convs.GetOrCreateDirect(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, uuid.New(), conv.ID, "intruder", "")
	assert.ErrorIs(t, err, drift_errors.ErrForbidden)

	_, err = f.svc.SendMessage(ctx, uuid.New(), uuid.New(), "ghost", "")
	assert.ErrorIs(t, err, drift_errors.ErrNotFound)
}
