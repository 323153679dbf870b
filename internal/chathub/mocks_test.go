package chathub_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"tawk/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SaveUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockStorage) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SetPresence(ctx context.Context, userID string, online bool) error {
	return m.Called(ctx, userID, online).Error(0)
}

func (m *MockStorage) GetOnlineUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) ListVerifiedUsers(ctx context.Context, excludeID string) ([]models.User, error) {
	args := m.Called(ctx, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) ListNonFriends(ctx context.Context, userID string) ([]models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) ListFriends(ctx context.Context, userID string) ([]models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) CreateFriendRequest(ctx context.Context, senderID, recipientID string) (*models.FriendRequest, error) {
	args := m.Called(ctx, senderID, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FriendRequest), args.Error(1)
}

func (m *MockStorage) AcceptFriendRequest(ctx context.Context, requestID, actorID string) (*models.FriendRequest, error) {
	args := m.Called(ctx, requestID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FriendRequest), args.Error(1)
}

func (m *MockStorage) ListFriendRequests(ctx context.Context, recipientID string) ([]models.FriendRequest, error) {
	args := m.Called(ctx, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FriendRequest), args.Error(1)
}

func (m *MockStorage) GetOrCreateConversation(ctx context.Context, userA, userB string) (*models.Conversation, bool, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Conversation), args.Bool(1), args.Error(2)
}

func (m *MockStorage) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockStorage) AppendMessage(ctx context.Context, msg *models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockStorage) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) ListConversationsForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConversationSummary), args.Error(1)
}

func (m *MockStorage) CreateCall(ctx context.Context, call *models.CallSession) error {
	return m.Called(ctx, call).Error(0)
}

func (m *MockStorage) GetCallByID(ctx context.Context, callID string) (*models.CallSession, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CallSession), args.Error(1)
}

func (m *MockStorage) TransitionCall(ctx context.Context, kind models.CallKind, actorID, peerID string, sig models.CallSignal) (*models.CallSession, error) {
	args := m.Called(ctx, kind, actorID, peerID, sig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CallSession), args.Error(1)
}

func (m *MockStorage) ExpireRingingCalls(ctx context.Context, startedBefore time.Time) ([]models.CallSession, error) {
	args := m.Called(ctx, startedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CallSession), args.Error(1)
}

func (m *MockStorage) PublishEvent(ctx context.Context, env models.Envelope) error {
	return m.Called(ctx, env).Error(0)
}

func (m *MockStorage) SubscribeEvents(ctx context.Context) *redis.PubSub {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*redis.PubSub)
}

// MockClient records every event the hub sends to it.
type MockClient struct {
	userID string
	events chan models.Event

	mu     sync.Mutex
	closed bool
}

func newMockClient(userID string) *MockClient {
	return &MockClient{
		userID: userID,
		events: make(chan models.Event, 64),
	}
}

func (c *MockClient) GetUserID() string { return c.userID }

func (c *MockClient) Send(ev models.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

func (c *MockClient) Run() {}

func (c *MockClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// expect waits for the next event and requires it to be named name.
func (c *MockClient) expect(t *testing.T, name string) models.Event {
	t.Helper()
	select {
	case ev := <-c.events:
		require.Equal(t, name, ev.Name, "unexpected event for %s", c.userID)
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("%s: timed out waiting for %s", c.userID, name)
		return models.Event{}
	}
}

func (c *MockClient) expectNothing(t *testing.T) {
	t.Helper()
	select {
	case ev := <-c.events:
		t.Fatalf("%s: unexpected event %s %s", c.userID, ev.Name, string(ev.Data))
	case <-time.After(50 * time.Millisecond):
	}
}

func decode[T any](t *testing.T, ev models.Event) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(ev.Data, &out))
	return out
}

// MockNotifier records offline notifications.
type MockNotifier struct {
	mock.Mock
}

func (n *MockNotifier) FriendRequest(ctx context.Context, recipient, sender *models.User) {
	n.Called(recipient.ID, sender.ID)
}

func (n *MockNotifier) MissedCall(ctx context.Context, callee, caller *models.User, kind models.CallKind) {
	n.Called(callee.ID, caller.ID, kind)
}
