package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tawk/backend/internal/auth"
	"tawk/backend/internal/localization"
	"tawk/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func (f *fakeSender) messages() []tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), f.sent...)
}

// MockLinkStorage is a mock implementation of the LinkStorage interface.
type MockLinkStorage struct {
	mock.Mock
}

func (m *MockLinkStorage) LinkTelegramChat(ctx context.Context, userID string, chatID int64) error {
	return m.Called(userID, chatID).Error(0)
}

func (m *MockLinkStorage) UnlinkTelegramChat(ctx context.Context, chatID int64) error {
	return m.Called(chatID).Error(0)
}

func testLocalizer(t *testing.T) *localization.Localizer {
	t.Helper()
	l, err := localization.Default()
	require.NoError(t, err)
	return l
}

func chatID(id int64) *int64 { return &id }

func TestNotifier_OnlyOfflineLinkedUsers(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, testLocalizer(t), nil)
	bob := &models.User{ID: "bob", FirstName: "Bob", LastName: "Stone"}

	n.FriendRequest(context.Background(), &models.User{ID: "a", Status: models.StatusOnline, TelegramChatID: chatID(1), Language: "en"}, bob)
	n.FriendRequest(context.Background(), &models.User{ID: "b", Status: models.StatusOffline, Language: "en"}, bob)
	n.FriendRequest(context.Background(), &models.User{ID: "c", Status: models.StatusOffline, TelegramChatID: chatID(3), Language: "en"}, bob)
	n.Wait()

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, tgbotapi.NewMessage(3, "Bob Stone sent you a friend request on Tawk."), sent[0])
}

func TestNotifier_MissedCallLocalized(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, testLocalizer(t), nil)
	callee := &models.User{ID: "a", Status: models.StatusOffline, TelegramChatID: chatID(9), Language: "uk"}
	caller := &models.User{ID: "b", FirstName: "Bob"}

	n.MissedCall(context.Background(), callee, caller, models.CallVideo)
	n.Wait()

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, tgbotapi.NewMessage(9, "Пропущений відео дзвінок від Bob."), sent[0])
}

func TestNotifier_SendFailureIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	n := NewNotifier(sender, testLocalizer(t), nil)
	callee := &models.User{ID: "a", Status: models.StatusOffline, TelegramChatID: chatID(9)}

	assert.NotPanics(t, func() {
		n.MissedCall(context.Background(), callee, &models.User{FirstName: "Bob"}, models.CallAudio)
		n.Wait()
	})
}

func command(text string, chat int64, lang string) *tgbotapi.Update {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return &tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: cmdLen},
			},
			From: &tgbotapi.User{ID: chat, LanguageCode: lang},
			Chat: tgbotapi.Chat{ID: chat},
		},
	}
}

func TestHandleCommand_StartLinksChat(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	token, err := tokens.Issue("user-uuid")
	require.NoError(t, err)

	store := new(MockLinkStorage)
	store.On("LinkTelegramChat", "user-uuid", int64(12345)).Return(nil)
	sender := &fakeSender{}
	l := testLocalizer(t)

	HandleCommand(context.Background(), command("/start "+token, 12345, "en"), store, tokens, l, sender, zap.NewNop())

	store.AssertExpectations(t)
	require.Len(t, sender.messages(), 1)
	assert.Equal(t, tgbotapi.NewMessage(12345, l.GetString("en", "link_ok")), sender.messages()[0])
}

func TestHandleCommand_StartRejectsBadToken(t *testing.T) {
	store := new(MockLinkStorage)
	sender := &fakeSender{}
	l := testLocalizer(t)

	HandleCommand(context.Background(), command("/start forged", 12345, "uk-UA"), store, auth.NewTokens("secret", time.Hour), l, sender, zap.NewNop())

	store.AssertNotCalled(t, "LinkTelegramChat", mock.Anything, mock.Anything)
	require.Len(t, sender.messages(), 1)
	assert.Equal(t, tgbotapi.NewMessage(12345, l.GetString("uk", "link_failed")), sender.messages()[0])
}

func TestHandleCommand_StartWithoutToken(t *testing.T) {
	sender := &fakeSender{}
	l := testLocalizer(t)

	HandleCommand(context.Background(), command("/start", 1, ""), new(MockLinkStorage), auth.NewTokens("secret", time.Hour), l, sender, zap.NewNop())

	require.Len(t, sender.messages(), 1)
	assert.Equal(t, tgbotapi.NewMessage(1, l.GetString("en", "link_usage")), sender.messages()[0])
}

func TestHandleCommand_StopUnlinks(t *testing.T) {
	store := new(MockLinkStorage)
	store.On("UnlinkTelegramChat", int64(77)).Return(nil)
	sender := &fakeSender{}
	l := testLocalizer(t)

	HandleCommand(context.Background(), command("/stop", 77, "en"), store, auth.NewTokens("secret", time.Hour), l, sender, zap.NewNop())

	store.AssertExpectations(t)
	assert.Equal(t, tgbotapi.NewMessage(77, l.GetString("en", "unlink_ok")), sender.messages()[0])
}

func TestHandleCommand_IgnoresOtherUpdates(t *testing.T) {
	sender := &fakeSender{}
	l := testLocalizer(t)
	tokens := auth.NewTokens("secret", time.Hour)

	HandleCommand(context.Background(), &tgbotapi.Update{}, new(MockLinkStorage), tokens, l, sender, zap.NewNop())
	HandleCommand(context.Background(), command("/help", 1, "en"), new(MockLinkStorage), tokens, l, sender, zap.NewNop())
	plain := &tgbotapi.Update{Message: &tgbotapi.Message{Text: "hello", Chat: tgbotapi.Chat{ID: 1}}}
	HandleCommand(context.Background(), plain, new(MockLinkStorage), tokens, l, sender, zap.NewNop())

	assert.Empty(t, sender.messages())
}
