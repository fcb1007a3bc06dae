// Event bridge — wires the message bus into the WebSocket hub. Inbound
// platform messages fan out to connected WebSocket clients via a bus tap,
// without stealing from the responder's consumer.
package api

import (
	"context"
	"unicode/utf8"

	"github.com/pibot-ai/pibot/pkg/bus"
	"github.com/pibot-ai/pibot/pkg/logger"
)

// EventBridge connects the message bus to the WebSocket hub for live updates.
type EventBridge struct {
	bus *bus.MessageBus
	hub *WSHub
}

func NewEventBridge(mb *bus.MessageBus, hub *WSHub) *EventBridge {
	return &EventBridge{bus: mb, hub: hub}
}

// Run forwards bus events until ctx is cancelled. Call it in a goroutine.
func (eb *EventBridge) Run(ctx context.Context) {
	logger.InfoC("events", "Event bridge started")

	tap := eb.bus.SubscribeTap("event-bridge")

	for {
		select {
		case <-ctx.Done():
			logger.InfoC("events", "Event bridge stopped")
			return
		case msg, ok := <-tap:
			if !ok {
				return
			}
			eb.hub.Broadcast("message.inbound", map[string]any{
				"channel":  msg.Channel,
				"chat_id":  msg.ChatID,
				"topic_id": msg.TopicID,
				"from":     msg.Sender,
				"content":  truncate(msg.Content, 200),
			})
		}
	}
}

// BroadcastSystemEvent is a convenience for direct broadcast (bypass bus).
func (eb *EventBridge) BroadcastSystemEvent(eventType string, data map[string]any) {
	eb.hub.Broadcast(eventType, data)
}

// truncate shortens s to at most maxLen runes. Cutting on a rune boundary
// keeps the payload valid UTF-8 for multibyte content.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "…"
}
