package bus

import (
	"context"
	"sync"
)

// Subscriber is a named tap on the inbound stream. Multiple subscribers can
// independently observe the same published messages (fan-out).
type Subscriber struct {
	Name string
	ch   chan Message
}

// MessageBus carries inbound platform messages from channel adapters to the
// auto-reply responder. Channels are the producers, the responder is the
// primary consumer; taps receive copies for observability (websocket bridge).
type MessageBus struct {
	inbound   chan Message
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	taps      []*Subscriber
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound: make(chan Message, 100),
	}
}

// SubscribeTap creates a named subscriber that receives copies of all
// inbound messages. The returned channel is buffered; slow consumers drop.
func (mb *MessageBus) SubscribeTap(name string) <-chan Message {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	sub := &Subscriber{Name: name, ch: make(chan Message, 64)}
	mb.taps = append(mb.taps, sub)
	return sub.ch
}

func (mb *MessageBus) fanOut(msg Message) {
	for _, sub := range mb.taps {
		select {
		case sub.ch <- msg:
		default: // non-blocking — drop if subscriber is slow
		}
	}
}

// PublishInbound holds the read lock through the send so Close cannot close
// the channel underneath a publisher. Sends are non-blocking, so holding the
// lock never stalls.
func (mb *MessageBus) PublishInbound(msg Message) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}
	mb.fanOut(msg)

	select {
	case mb.inbound <- msg:
	default:
		// Channel full — drop oldest and retry
		select {
		case <-mb.inbound:
		default:
		}
		select {
		case mb.inbound <- msg:
		default:
		}
	}
}

func (mb *MessageBus) ConsumeInbound(ctx context.Context) (Message, bool) {
	select {
	case msg := <-mb.inbound:
		return msg, true
	case <-ctx.Done():
		return Message{}, false
	}
}

func (mb *MessageBus) Close() {
	mb.closeOnce.Do(func() {
		mb.mu.Lock()
		defer mb.mu.Unlock()
		mb.closed = true
		for _, sub := range mb.taps {
			close(sub.ch)
		}
		close(mb.inbound)
	})
}
