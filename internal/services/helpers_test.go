package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"driftchat/internal/domain/conversation"
	"driftchat/internal/domain/friendrequest"
	"driftchat/internal/domain/message"
	"driftchat/internal/domain/user"
	drift_errors "driftchat/pkg/errors"
	"driftchat/pkg/logger"

	"github.com/google/uuid"
)

func testLogger() *logger.Logger {
	return logger.New(logger.DevelopmentMode)
}

type sentEvent struct {
	ConnID  string
	Event   string
	Payload interface{}
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentEvent
	failFor map[string]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: make(map[string]bool)}
}

func (n *fakeNotifier) Send(connID string, event string, payload interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[connID] {
		return errors.New("delivery failed")
	}
	n.sent = append(n.sent, sentEvent{ConnID: connID, Event: event, Payload: payload})
	return nil
}

func (n *fakeNotifier) eventsFor(connID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, e := range n.sent {
		if e.ConnID == connID {
			out = append(out, e.Event)
		}
	}
	return out
}

func (n *fakeNotifier) count(connID, event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.sent {
		if e.ConnID == connID && e.Event == event {
			c++
		}
	}
	return c
}

func (n *fakeNotifier) last(connID string) (sentEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].ConnID == connID {
			return n.sent[i], true
		}
	}
	return sentEvent{}, false
}

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]user.User
	settings map[uuid.UUID]user.UserSettings
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    make(map[uuid.UUID]user.User),
		settings: make(map[uuid.UUID]user.UserSettings),
	}
}

func (r *fakeUserRepo) add(username string) user.User {
	u := user.User{ID: uuid.New(), Username: username, Email: username + "@example.com", DisplayName: username}
	r.mu.Lock()
	r.users[u.ID] = u
	r.mu.Unlock()
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, drift_errors.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, drift_errors.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, drift_errors.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return drift_errors.ErrNotFound
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) EnsureSettings(ctx context.Context, userID uuid.UUID) (user.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.settings[userID]; ok {
		return s, nil
	}
	s := user.UserSettings{UserID: userID, AllowRandomChat: true, ShowOnlineStatus: true, NotifyOnRequest: true}
	r.settings[userID] = s
	return s, nil
}

type fakeBlockRepo struct {
	mu     sync.Mutex
	blocks map[[2]uuid.UUID]bool
}

func newFakeBlockRepo() *fakeBlockRepo {
	return &fakeBlockRepo{blocks: make(map[[2]uuid.UUID]bool)}
}

func (r *fakeBlockRepo) Create(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]uuid.UUID{blockerID, blockedID}
	if r.blocks[key] {
		return drift_errors.ErrAlreadyExists
	}
	r.blocks[key] = true
	return nil
}

func (r *fakeBlockRepo) Delete(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]uuid.UUID{blockerID, blockedID}
	if !r.blocks[key] {
		return drift_errors.ErrNotFound
	}
	delete(r.blocks, key)
	return nil
}

func (r *fakeBlockRepo) IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blocks[[2]uuid.UUID{a, b}] || r.blocks[[2]uuid.UUID{b, a}], nil
}

type fakeConvRepo struct {
	mu    sync.Mutex
	convs map[uuid.UUID]conversation.Conversation
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{convs: make(map[uuid.UUID]conversation.Conversation)}
}

func (r *fakeConvRepo) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return conversation.Conversation{}, drift_errors.ErrNotFound
	}
	return c, nil
}

func (r *fakeConvRepo) findLocked(a, b uuid.UUID, random bool) (conversation.Conversation, bool) {
	pa, pb := conversation.NormalizePair(a, b)
	for _, c := range r.convs {
		if c.ParticipantA == pa && c.ParticipantB == pb && c.IsRandomChat == random {
			return c, true
		}
	}
	return conversation.Conversation{}, false
}

func (r *fakeConvRepo) GetOrCreateRandom(ctx context.Context, a, b uuid.UUID) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.findLocked(a, b, true); ok {
		if !c.IsActive {
			c.IsActive = true
			r.convs[c.ID] = c
		}
		return c, nil
	}
	pa, pb := conversation.NormalizePair(a, b)
	c := conversation.Conversation{
		ID:           uuid.New(),
		ParticipantA: pa,
		ParticipantB: pb,
		IsRandomChat: true,
		IsActive:     true,
		MatchedAt:    sql.NullTime{Time: time.Now(), Valid: true},
	}
	r.convs[c.ID] = c
	return c, nil
}

func (r *fakeConvRepo) FindRandomByUsers(ctx context.Context, a, b uuid.UUID) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.findLocked(a, b, true); ok {
		return c, nil
	}
	return conversation.Conversation{}, drift_errors.ErrNotFound
}

func (r *fakeConvRepo) GetOrCreateDirect(ctx context.Context, a, b uuid.UUID) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.findLocked(a, b, false); ok {
		return c, nil
	}
	pa, pb := conversation.NormalizePair(a, b)
	c := conversation.Conversation{
		ID:           uuid.New(),
		ParticipantA: pa,
		ParticipantB: pb,
		IsRandomChat: false,
		IsActive:     true,
	}
	r.convs[c.ID] = c
	return c, nil
}

func (r *fakeConvRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return drift_errors.ErrNotFound
	}
	c.IsActive = false
	r.convs[id] = c
	return nil
}

func (r *fakeConvRepo) ListPrivate(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	return nil, nil
}

type fakeMsgRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]message.Message
}

func newFakeMsgRepo() *fakeMsgRepo {
	return &fakeMsgRepo{messages: make(map[uuid.UUID]message.Message)}
}

func (r *fakeMsgRepo) Create(ctx context.Context, m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.ID] = *m
	return nil
}

func (r *fakeMsgRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []message.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMsgRepo) ListWithMediaByConversation(ctx context.Context, conversationID uuid.UUID) ([]message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []message.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.HasMedia() {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMsgRepo) DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.messages {
		if m.ConversationID == conversationID {
			delete(r.messages, id)
		}
	}
	return nil
}

func (r *fakeMsgRepo) ListExpired(ctx context.Context, before time.Time, limit int) ([]message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []message.Message
	for _, m := range r.messages {
		if m.DeleteAt.Before(before) || m.DeleteAt.Equal(before) {
			out = append(out, m)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeMsgRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[id]; !ok {
		return drift_errors.ErrNotFound
	}
	delete(r.messages, id)
	return nil
}

func (r *fakeMsgRepo) has(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.messages[id]
	return ok
}

type fakeFrRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]friendrequest.FriendRequest
}

func newFakeFrRepo() *fakeFrRepo {
	return &fakeFrRepo{requests: make(map[uuid.UUID]friendrequest.FriendRequest)}
}

func (r *fakeFrRepo) findLocked(a, b uuid.UUID) (friendrequest.FriendRequest, bool) {
	for _, fr := range r.requests {
		if (fr.FromID == a && fr.ToID == b) || (fr.FromID == b && fr.ToID == a) {
			return fr, true
		}
	}
	return friendrequest.FriendRequest{}, false
}

func (r *fakeFrRepo) FindByPair(ctx context.Context, a, b uuid.UUID) (friendrequest.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fr, ok := r.findLocked(a, b); ok {
		return fr, nil
	}
	return friendrequest.FriendRequest{}, drift_errors.ErrNotFound
}

func (r *fakeFrRepo) FindPendingByPair(ctx context.Context, a, b uuid.UUID) (friendrequest.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fr, ok := r.findLocked(a, b); ok && fr.Status == friendrequest.StatusPending {
		return fr, nil
	}
	return friendrequest.FriendRequest{}, drift_errors.ErrNotFound
}

func (r *fakeFrRepo) Save(ctx context.Context, fr *friendrequest.FriendRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.findLocked(fr.FromID, fr.ToID); ok {
		fr.ID = existing.ID
	} else if fr.ID == uuid.Nil {
		fr.ID = uuid.New()
	}
	r.requests[fr.ID] = *fr
	return nil
}

func (r *fakeFrRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status friendrequest.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fr, ok := r.requests[id]
	if !ok {
		return drift_errors.ErrNotFound
	}
	fr.Status = status
	r.requests[id] = fr
	return nil
}

func (r *fakeFrRepo) countForPair(a, b uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := 0
	for _, fr := range r.requests {
		if (fr.FromID == a && fr.ToID == b) || (fr.FromID == b && fr.ToID == a) {
			c++
		}
	}
	return c
}

type fakeMedia struct {
	mu      sync.Mutex
	deleted []string
	fail    map[string]bool
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{fail: make(map[string]bool)}
}

func (m *fakeMedia) DeleteByURL(ctx context.Context, mediaURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[mediaURL] {
		return errors.New("media deletion failed")
	}
	m.deleted = append(m.deleted, mediaURL)
	return nil
}

func (m *fakeMedia) deletedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.deleted))
	copy(out, m.deleted)
	return out
}
