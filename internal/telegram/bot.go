package telegram

import (
	"context"
	"fmt"

	"tawk/backend/internal/auth"
	"tawk/backend/internal/localization"
	"tawk/backend/internal/logging"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// LinkStorage defines the storage methods required by the link commands.
type LinkStorage interface {
	LinkTelegramChat(ctx context.Context, userID string, chatID int64) error
	UnlinkTelegramChat(ctx context.Context, chatID int64) error
}

// BotService receives Telegram updates and serves the /start and /stop commands.
type BotService struct {
	BotAPI    *tgbotapi.BotAPI
	Storage   LinkStorage
	Tokens    auth.Verifier
	Localizer *localization.Localizer

	log *zap.Logger
}

// NewBotAPI authorizes against the Bot API with token.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram authorize: %w", err)
	}
	bot.Debug = false
	return bot, nil
}

func NewBotService(bot *tgbotapi.BotAPI, s LinkStorage, tokens auth.Verifier, localizer *localization.Localizer, log *zap.Logger) *BotService {
	return &BotService{
		BotAPI:    bot,
		Storage:   s,
		Tokens:    tokens,
		Localizer: localizer,
		log:       logging.OrNop(log).With(zap.String("component", "telegram")),
	}
}

// Run polls for updates until ctx is cancelled.
func (s *BotService) Run(ctx context.Context) {
	s.log.Info("telegram bot started", zap.String("account", s.BotAPI.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.BotAPI.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			HandleCommand(ctx, &update, s.Storage, s.Tokens, s.Localizer, s.BotAPI, s.log)
		}
	}
}
