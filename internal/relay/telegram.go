package relay

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Relay mirrors notification summaries to an out-of-band operator channel.
// Every send is best-effort: failures are reported as false and logged, and
// callers must never treat a false as a reason to roll back or retry.
type Relay interface {
	SendText(chatID string, text string) bool
	SendToOpsChannel(text string) bool
}

// TelegramClient delivers relay messages through a Telegram bot. When the bot
// token or the admin chat ID is missing the client stays in a degraded mode
// where every send returns false without touching the network, so the rest of
// the service starts and runs normally.
type TelegramClient struct {
	bot         *tgbotapi.BotAPI
	adminChatID string
}

// NewTelegramClient builds the relay client from environment-driven settings.
// It never fails: a missing or rejected token only degrades the client.
func NewTelegramClient(botToken, adminChatID string) *TelegramClient {
	client := &TelegramClient{adminChatID: adminChatID}

	if botToken == "" {
		logrus.Warn("Telegram bot token not configured, relay disabled")
		return client
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		logrus.WithError(err).Error("Failed to initialize Telegram bot, relay disabled")
		return client
	}
	client.bot = bot

	logrus.WithField("bot", bot.Self.UserName).Info("Telegram relay initialized")
	return client
}

// SendText sends an HTML-formatted message to a chat.
func (c *TelegramClient) SendText(chatID string, text string) bool {
	if c.bot == nil {
		logrus.Warn("Telegram bot not initialized, dropping relay message")
		return false
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		logrus.WithField("chat_id", chatID).WithError(err).Error("Invalid Telegram chat ID")
		return false
	}

	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := c.bot.Send(msg); err != nil {
		logrus.WithField("chat_id", chatID).WithError(err).Error("Failed to send Telegram message")
		return false
	}
	return true
}

// SendToOpsChannel sends a message to the pre-configured admin chat.
func (c *TelegramClient) SendToOpsChannel(text string) bool {
	if c.adminChatID == "" {
		logrus.Warn("Telegram admin chat ID not configured, dropping relay message")
		return false
	}
	return c.SendText(c.adminChatID, text)
}
