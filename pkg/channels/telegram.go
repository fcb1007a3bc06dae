package channels

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/pibot-ai/pibot/pkg/bus"
	"github.com/pibot-ai/pibot/pkg/config"
	"github.com/pibot-ai/pibot/pkg/logger"
)

// TelegramChannel bridges Telegram's push-based delivery into the mailbox.
// Topic ids map to Telegram forum message threads.
type TelegramChannel struct {
	*BaseChannel
	bot    *telego.Bot
	config config.TelegramConfig
	cancel context.CancelFunc
}

func NewTelegramChannel(cfg config.TelegramConfig, mailbox *bus.Mailbox, mb *bus.MessageBus) (*TelegramChannel, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}

	bot, err := telego.NewBot(cfg.Token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramChannel{
		BaseChannel: NewBaseChannel("telegram", cfg.AllowFrom, mailbox, mb),
		bot:         bot,
		config:      cfg,
	}, nil
}

func (c *TelegramChannel) Start(ctx context.Context) error {
	logger.InfoC("telegram", "Starting Telegram bot")

	pollCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	botUser, err := c.bot.GetMe(pollCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to verify telegram credential: %w", err)
	}

	updates, err := c.bot.UpdatesViaLongPolling(pollCtx, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start telegram long polling: %w", err)
	}

	c.SetRunning(true)

	logger.InfoCF("telegram", "Telegram bot connected", map[string]any{
		"username": botUser.Username,
		"user_id":  botUser.ID,
	})

	go func() {
		for update := range updates {
			c.handleUpdate(update)
		}
	}()

	return nil
}

func (c *TelegramChannel) Stop(ctx context.Context) error {
	logger.InfoC("telegram", "Stopping Telegram bot")
	c.SetRunning(false)
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *TelegramChannel) handleUpdate(update telego.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	senderID := strconv.FormatInt(msg.From.ID, 10)
	senderLabel := msg.From.FirstName
	if senderLabel == "" {
		senderLabel = msg.From.Username
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	topicID := ""
	if msg.MessageThreadID != 0 {
		topicID = strconv.Itoa(msg.MessageThreadID)
	}

	logger.DebugCF("telegram", "Received message", map[string]any{
		"sender_id": senderID,
		"chat_id":   chatID,
		"topic_id":  topicID,
	})

	c.HandleMessage(senderID, senderLabel, chatID, topicID, msg.Text, strconv.Itoa(msg.MessageID))
}

// Send delivers content to the given chat and optional topic. The platform's
// assigned message id is returned on success.
func (c *TelegramChannel) Send(ctx context.Context, chatID, topicID, content string) (string, error) {
	if !c.IsRunning() {
		return "", ErrNotRunning
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return "", &DeliveryError{Channel: "telegram", Detail: fmt.Sprintf("invalid chat id %q", chatID), Err: err}
	}

	params := tu.Message(tu.ID(id), content)
	if topicID != "" {
		threadID, err := strconv.Atoi(topicID)
		if err != nil {
			return "", &DeliveryError{Channel: "telegram", Detail: fmt.Sprintf("invalid topic id %q", topicID), Err: err}
		}
		params.MessageThreadID = threadID
	}

	sent, err := c.bot.SendMessage(ctx, params)
	if err != nil {
		return "", &DeliveryError{Channel: "telegram", Detail: err.Error(), Err: err}
	}

	return strconv.Itoa(sent.MessageID), nil
}
