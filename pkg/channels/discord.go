package channels

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/pibot-ai/pibot/pkg/bus"
	"github.com/pibot-ai/pibot/pkg/config"
	"github.com/pibot-ai/pibot/pkg/logger"
)

const discordSendTimeout = 10 * time.Second

// DiscordChannel bridges Discord text channels into the mailbox. Discord has
// no forum-topic concept here; messages always use the default
// sub-conversation (empty topic id).
type DiscordChannel struct {
	*BaseChannel
	session *discordgo.Session
	config  config.DiscordConfig
}

func NewDiscordChannel(cfg config.DiscordConfig, mailbox *bus.Mailbox, mb *bus.MessageBus) (*DiscordChannel, error) {
	if cfg.Token == "" {
		return nil, errors.New("discord token is empty")
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return &DiscordChannel{
		BaseChannel: NewBaseChannel("discord", cfg.AllowFrom, mailbox, mb),
		session:     session,
		config:      cfg,
	}, nil
}

func (c *DiscordChannel) Start(ctx context.Context) error {
	logger.InfoC("discord", "Starting Discord bot")

	c.session.AddHandler(c.handleMessage)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	c.SetRunning(true)

	botUser, err := c.session.User("@me")
	if err != nil {
		return fmt.Errorf("failed to get bot user: %w", err)
	}
	logger.InfoCF("discord", "Discord bot connected", map[string]any{
		"username": botUser.Username,
		"user_id":  botUser.ID,
	})

	return nil
}

func (c *DiscordChannel) Stop(ctx context.Context) error {
	logger.InfoC("discord", "Stopping Discord bot")
	c.SetRunning(false)

	if err := c.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (c *DiscordChannel) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Author == nil {
		return
	}
	if m.Author.ID == s.State.User.ID {
		return
	}
	if m.Content == "" {
		return
	}

	logger.DebugCF("discord", "Received message", map[string]any{
		"sender_id":  m.Author.ID,
		"channel_id": m.ChannelID,
	})

	c.HandleMessage(m.Author.ID, m.Author.Username, m.ChannelID, "", m.Content, m.ID)
}

func (c *DiscordChannel) Send(ctx context.Context, chatID, topicID, content string) (string, error) {
	if !c.IsRunning() {
		return "", ErrNotRunning
	}
	if chatID == "" {
		return "", &DeliveryError{Channel: "discord", Detail: "channel id is empty"}
	}

	sendCtx, cancel := context.WithTimeout(ctx, discordSendTimeout)
	defer cancel()

	type result struct {
		msg *discordgo.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := c.session.ChannelMessageSend(chatID, content)
		done <- result{msg: msg, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", &DeliveryError{Channel: "discord", Detail: res.err.Error(), Err: res.err}
		}
		return res.msg.ID, nil
	case <-sendCtx.Done():
		return "", &DeliveryError{Channel: "discord", Detail: "send message timeout", Err: sendCtx.Err()}
	}
}
