package relayclient

import (
	"context"
	"time"

	"github.com/pibot-ai/pibot/pkg/bus"
	"github.com/pibot-ai/pibot/pkg/logger"
)

// Poller periodically drains the gateway mailbox and hands matching echo
// messages to a handler. It holds one conversation address; drained messages
// addressed elsewhere are discarded, which every mailbox consumer accepts as
// the cost of the drain-on-read contract.
type Poller struct {
	client   *Client
	chatID   string
	topicID  string
	interval time.Duration
	handler  func(bus.Message)
}

func NewPoller(client *Client, chatID, topicID string, interval time.Duration, handler func(bus.Message)) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{
		client:   client,
		chatID:   chatID,
		topicID:  topicID,
		interval: interval,
		handler:  handler,
	}
}

// Run polls until ctx is cancelled. Cancellation between drains stops the
// loop before the next request; a drain already in flight finishes first.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	batch, err := p.client.Drain(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.WarnCF("relayclient", "Drain failed", map[string]any{
			"error": err.Error(),
		})
		return
	}

	for _, msg := range p.filter(batch) {
		p.handler(msg)
	}
}

// filter keeps echo messages addressed to this poller's conversation.
func (p *Poller) filter(batch []bus.Message) []bus.Message {
	var out []bus.Message
	for _, msg := range batch {
		if msg.Direction != bus.DirectionEcho {
			continue
		}
		if !msg.MatchesAddress(p.chatID, p.topicID) {
			continue
		}
		out = append(out, msg)
	}
	return out
}
