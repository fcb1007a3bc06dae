package bus

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(chatID, topicID, content string) Message {
	return Message{
		Direction: DirectionInbound,
		Channel:   "telegram",
		ChatID:    chatID,
		TopicID:   topicID,
		Sender:    "tester",
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func TestMailboxDrainReturnsInsertionOrder(t *testing.T) {
	mb := NewMailbox()

	for i := 0; i < 5; i++ {
		mb.Enqueue(testMessage("42", "", fmt.Sprintf("msg-%d", i)))
	}

	require.Equal(t, 5, mb.Len())

	batch := mb.DrainAll()
	require.Len(t, batch, 5)
	for i, msg := range batch {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), msg.Content)
	}
}

func TestMailboxEmptyDrainIsIdempotent(t *testing.T) {
	mb := NewMailbox()
	mb.Enqueue(testMessage("42", "", "hello"))

	first := mb.DrainAll()
	require.Len(t, first, 1)

	second := mb.DrainAll()
	assert.Empty(t, second)
	assert.Zero(t, mb.Len())
}

// Every enqueued message must be returned by exactly one drain, regardless of
// how enqueues and drains interleave.
func TestMailboxConcurrentDrainNeverLosesOrDuplicates(t *testing.T) {
	const producers = 8
	const perProducer = 200
	const drainers = 4

	mb := NewMailbox()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				mb.Enqueue(testMessage("42", "", fmt.Sprintf("p%d-%d", p, i)))
			}
		}(p)
	}

	var batchMu sync.Mutex
	var drained []Message
	stop := make(chan struct{})

	var dwg sync.WaitGroup
	for d := 0; d < drainers; d++ {
		dwg.Add(1)
		go func() {
			defer dwg.Done()
			for {
				batch := mb.DrainAll()
				if len(batch) > 0 {
					batchMu.Lock()
					drained = append(drained, batch...)
					batchMu.Unlock()
				}
				select {
				case <-stop:
					return
				default:
				}
			}
		}()
	}

	wg.Wait()
	close(stop)
	dwg.Wait()

	// Pick up anything enqueued after the drainers observed the stop signal.
	drained = append(drained, mb.DrainAll()...)

	require.Len(t, drained, producers*perProducer)

	seen := make(map[string]int, len(drained))
	for _, msg := range drained {
		seen[msg.Content]++
	}
	for content, count := range seen {
		assert.Equal(t, 1, count, "message %s delivered %d times", content, count)
	}
}

func TestMailboxDrainPreservesPerProducerOrder(t *testing.T) {
	mb := NewMailbox()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			mb.Enqueue(testMessage("7", "", fmt.Sprintf("%03d", i)))
		}
	}()

	var all []Message
	<-done
	all = append(all, mb.DrainAll()...)

	require.Len(t, all, 100)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Content, all[i].Content, "insertion order broken at %d", i)
	}
}

func TestDirectionIsValid(t *testing.T) {
	assert.True(t, DirectionInbound.IsValid())
	assert.True(t, DirectionEcho.IsValid())
	assert.False(t, Direction("outbound").IsValid())
	assert.False(t, Direction("").IsValid())
}

func TestMessageMatchesAddress(t *testing.T) {
	tests := []struct {
		name         string
		msg          Message
		chatID       string
		topicID      string
		want         bool
	}{
		{"same chat no topic", testMessage("A", "", "x"), "A", "", true},
		{"same chat different topic", testMessage("A", "t1", "x"), "A", "", false},
		{"held topic message without", testMessage("A", "", "x"), "A", "t1", false},
		{"different chat", testMessage("B", "", "x"), "A", "", false},
		{"chat and topic match", testMessage("A", "t1", "x"), "A", "t1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.MatchesAddress(tt.chatID, tt.topicID))
		})
	}
}
