package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBusPublishConsume(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	mb.PublishInbound(testMessage("42", "", "hello"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, ok := mb.ConsumeInbound(ctx)
	require.True(t, ok)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "42", msg.ChatID)
}

func TestMessageBusConsumeStopsOnContextCancel(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := mb.ConsumeInbound(ctx)
	assert.False(t, ok)
}

func TestMessageBusTapReceivesCopy(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	tap := mb.SubscribeTap("test")
	mb.PublishInbound(testMessage("42", "t1", "observed"))

	select {
	case msg := <-tap:
		assert.Equal(t, "observed", msg.Content)
		assert.Equal(t, "t1", msg.TopicID)
	case <-time.After(time.Second):
		t.Fatal("tap did not receive message")
	}

	// Primary consumer still sees the message.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := mb.ConsumeInbound(ctx)
	require.True(t, ok)
	assert.Equal(t, "observed", msg.Content)
}

func TestMessageBusPublishAfterCloseIsNoop(t *testing.T) {
	mb := NewMessageBus()
	mb.Close()

	assert.NotPanics(t, func() {
		mb.PublishInbound(testMessage("42", "", "late"))
	})
}

func TestMessageBusPublishRacingCloseDoesNotPanic(t *testing.T) {
	mb := NewMessageBus()

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 200; j++ {
				mb.PublishInbound(testMessage("42", "", "racing"))
			}
		}()
	}

	close(start)
	mb.Close()
	wg.Wait()
}
