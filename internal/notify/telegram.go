package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"cradle/internal/metrics"
)

// TelegramGateway delivers notifications to a fixed household chat.
type TelegramGateway struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zerolog.Logger
}

// NewTelegramGateway creates a gateway using the bot token and the chat
// all notifications go to.
func NewTelegramGateway(token string, chatID int64, logger *zerolog.Logger) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramGateway{bot: bot, chatID: chatID, logger: logger}, nil
}

// Notify sends the message in the background.
func (g *TelegramGateway) Notify(sender, message string) {
	go func() {
		msg := tgbotapi.NewMessage(g.chatID, fmt.Sprintf("%s: %s", sender, message))
		if _, err := g.bot.Send(msg); err != nil {
			metrics.IncNotificationFailed("telegram")
			g.logger.Error().Err(err).Str("sender", sender).Msg("telegram send failed")
			return
		}
		metrics.IncNotificationSent("telegram")
		g.logger.Debug().Str("sender", sender).Msg("telegram notification sent")
	}()
}
