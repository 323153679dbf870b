package telegram

import (
	"context"
	"strings"

	"tawk/backend/internal/auth"
	"tawk/backend/internal/localization"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// HandleCommand processes /start <token> and /stop. /start links the chat to
// the user the token was issued for; /stop unlinks it. Other updates are ignored.
func HandleCommand(ctx context.Context, update *tgbotapi.Update, s LinkStorage, tokens auth.Verifier, l *localization.Localizer, bot Sender, log *zap.Logger) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID
	lang := languageOf(msg.From)

	var key string
	switch msg.Command() {
	case "start":
		token := strings.TrimSpace(msg.CommandArguments())
		if token == "" {
			key = "link_usage"
			break
		}
		userID, err := tokens.Verify(token)
		if err != nil {
			key = "link_failed"
			break
		}
		if err := s.LinkTelegramChat(ctx, userID, chatID); err != nil {
			log.Warn("link telegram chat", zap.String("user_id", userID), zap.Error(err))
			key = "link_failed"
			break
		}
		key = "link_ok"

	case "stop":
		if err := s.UnlinkTelegramChat(ctx, chatID); err != nil {
			log.Warn("unlink telegram chat", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
		key = "unlink_ok"

	default:
		return
	}

	if _, err := bot.Send(tgbotapi.NewMessage(chatID, l.GetString(lang, key))); err != nil {
		log.Warn("telegram reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func languageOf(u *tgbotapi.User) string {
	if u != nil && strings.HasPrefix(u.LanguageCode, "uk") {
		return "uk"
	}
	return localization.DefaultLanguage
}
