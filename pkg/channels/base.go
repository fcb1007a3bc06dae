package channels

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pibot-ai/pibot/pkg/bus"
)

// ErrNotRunning is returned by Send when the channel has not been started
// or failed to initialize.
var ErrNotRunning = errors.New("channel not running")

// DeliveryError wraps a platform-level send failure with the platform's
// error detail. It is surfaced to the caller verbatim and never retried.
type DeliveryError struct {
	Channel string
	Detail  string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %s", e.Channel, e.Detail)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Channel bridges one external messaging platform into the relay: inbound
// pushes are captured into the mailbox and bus, outbound sends are performed
// on behalf of the gateway.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Send delivers content to (chatID, topicID) and returns the
	// platform-assigned message id. topicID may be empty for the default
	// sub-conversation. Platform failures are reported as *DeliveryError.
	Send(ctx context.Context, chatID, topicID, content string) (string, error)
	IsRunning() bool
	IsAllowed(senderID string) bool
}

type BaseChannel struct {
	name      string
	allowList []string
	running   atomic.Bool
	mailbox   *bus.Mailbox
	bus       *bus.MessageBus
}

func NewBaseChannel(name string, allowList []string, mailbox *bus.Mailbox, mb *bus.MessageBus) *BaseChannel {
	return &BaseChannel{
		name:      name,
		allowList: allowList,
		mailbox:   mailbox,
		bus:       mb,
	}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *BaseChannel) SetRunning(running bool) {
	c.running.Store(running)
}

func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowList) == 0 {
		return true
	}
	for _, allowed := range c.allowList {
		if senderID == allowed || senderID == strings.TrimPrefix(allowed, "@") {
			return true
		}
	}
	return false
}

// HandleMessage captures one inbound platform message: it is enqueued into
// the mailbox for client polling and published on the bus for the auto-reply
// responder. Capture itself has no externally visible side effect.
func (c *BaseChannel) HandleMessage(senderID, senderLabel, chatID, topicID, content, messageID string) {
	if !c.IsAllowed(senderID) {
		return
	}

	msg := bus.Message{
		Direction:         bus.DirectionInbound,
		Channel:           c.name,
		ChatID:            chatID,
		TopicID:           topicID,
		Sender:            senderLabel,
		Content:           content,
		PlatformMessageID: messageID,
		CreatedAt:         time.Now().UTC(),
	}

	c.mailbox.Enqueue(msg)
	c.bus.PublishInbound(msg)
}
