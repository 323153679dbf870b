// Package telegram delivers offline notifications through the Telegram Bot
// API and lets users link a chat to their account.
package telegram

import (
	"context"
	"sync"

	"tawk/backend/internal/localization"
	"tawk/backend/internal/logging"
	"tawk/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI used to push messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier tells offline users about friend requests and missed calls.
// Sends happen in the background; Wait blocks until they are done.
type Notifier struct {
	bot       Sender
	localizer *localization.Localizer
	log       *zap.Logger
	wg        sync.WaitGroup
}

func NewNotifier(bot Sender, localizer *localization.Localizer, log *zap.Logger) *Notifier {
	return &Notifier{
		bot:       bot,
		localizer: localizer,
		log:       logging.OrNop(log).With(zap.String("component", "telegram")),
	}
}

func (n *Notifier) FriendRequest(ctx context.Context, recipient, sender *models.User) {
	if !reachable(recipient) {
		return
	}
	text := n.localizer.Format(recipient.Language, "friend_request", sender.DisplayName())
	n.dispatch(*recipient.TelegramChatID, text)
}

func (n *Notifier) MissedCall(ctx context.Context, callee, caller *models.User, kind models.CallKind) {
	if !reachable(callee) {
		return
	}
	kindName := n.localizer.GetString(callee.Language, "call_kind_"+string(kind))
	text := n.localizer.Format(callee.Language, "missed_call", kindName, caller.DisplayName())
	n.dispatch(*callee.TelegramChatID, text)
}

// Wait blocks until every queued message has been sent or has failed.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(chatID int64, text string) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			n.log.Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}()
}

// reachable reports whether u is offline and has a linked chat.
func reachable(u *models.User) bool {
	return u != nil && u.Status == models.StatusOffline && u.TelegramChatID != nil
}
