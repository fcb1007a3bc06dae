package channels

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pibot-ai/pibot/pkg/bus"
)

func newTestBase(allowList []string) (*BaseChannel, *bus.Mailbox, *bus.MessageBus) {
	mailbox := bus.NewMailbox()
	mb := bus.NewMessageBus()
	return NewBaseChannel("test", allowList, mailbox, mb), mailbox, mb
}

func TestBaseChannelIsAllowed(t *testing.T) {
	tests := []struct {
		name      string
		allowList []string
		senderID  string
		want      bool
	}{
		{"empty list allows everyone", nil, "12345", true},
		{"listed id", []string{"12345"}, "12345", true},
		{"unlisted id", []string{"12345"}, "67890", false},
		{"at-prefixed username", []string{"@alice"}, "alice", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, _, _ := newTestBase(tt.allowList)
			assert.Equal(t, tt.want, ch.IsAllowed(tt.senderID))
		})
	}
}

func TestHandleMessageEnqueuesAndPublishes(t *testing.T) {
	ch, mailbox, mb := newTestBase(nil)
	defer mb.Close()

	ch.HandleMessage("99", "Alice", "42", "", "hello", "555")

	batch := mailbox.DrainAll()
	require.Len(t, batch, 1)
	assert.Equal(t, bus.DirectionInbound, batch[0].Direction)
	assert.Equal(t, "42", batch[0].ChatID)
	assert.Empty(t, batch[0].TopicID)
	assert.Equal(t, "Alice", batch[0].Sender)
	assert.Equal(t, "hello", batch[0].Content)
	assert.Equal(t, "555", batch[0].PlatformMessageID)
	assert.False(t, batch[0].CreatedAt.IsZero())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := mb.ConsumeInbound(ctx)
	require.True(t, ok)
	assert.Equal(t, "hello", msg.Content)
}

func TestHandleMessageRejectedSenderIsDropped(t *testing.T) {
	ch, mailbox, mb := newTestBase([]string{"1"})
	defer mb.Close()

	ch.HandleMessage("2", "Mallory", "42", "", "hi", "1")

	assert.Zero(t, mailbox.Len())
}

func TestDeliveryErrorUnwrap(t *testing.T) {
	inner := assert.AnError
	err := &DeliveryError{Channel: "telegram", Detail: "chat not found", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Contains(t, err.Error(), "telegram")
}
