package services

import (
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"studiorit/internal/logging"
)

type TelegramService struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramService authenticates the bot token against the Bot API.
func NewTelegramService(botToken string) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	logging.Logger.Infof("[tg][init][ok] bot=%s", bot.Self.UserName)
	return &TelegramService{bot: bot}, nil
}

func (t *TelegramService) SendMessage(chatID int64, subject, body string) error {
	if t == nil || t.bot == nil || chatID == 0 {
		logging.Logger.Debugf("[tg][skip] bot or chatID empty chatID=%d", chatID)
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(subject), html.EscapeString(body)))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	logging.Logger.Debugf("[tg][send][ok] chatID=%d", chatID)
	return nil
}

// Reply sends plain text, used for bot conversations.
func (t *TelegramService) Reply(chatID int64, text string) error {
	if t == nil || t.bot == nil || chatID == 0 {
		return nil
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram reply failed: %w", err)
	}
	return nil
}
