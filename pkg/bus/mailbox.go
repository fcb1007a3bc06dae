package bus

import "sync"

// Mailbox decouples the asynchronous arrival of platform messages from the
// relay client's pull-based polling. It is append-only and drain-on-read:
// a drain returns every queued message and atomically empties the queue, so
// each enqueued message is returned by exactly one drain.
//
// The mutex makes enqueue/drain atomic with respect to each other: a message
// enqueued during a drain lands in either that batch or the next one, never
// both and never neither.
type Mailbox struct {
	mu   sync.Mutex
	msgs []Message
}

func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Enqueue appends msg to the queue. It always succeeds; the queue is bounded
// only by process memory.
func (m *Mailbox) Enqueue(msg Message) {
	m.mu.Lock()
	m.msgs = append(m.msgs, msg)
	m.mu.Unlock()
}

// DrainAll returns all queued messages in insertion order and clears the
// queue. There is no retry buffer: a batch lost after a drain is gone.
func (m *Mailbox) DrainAll() []Message {
	m.mu.Lock()
	batch := m.msgs
	m.msgs = nil
	m.mu.Unlock()
	return batch
}

// Len reports the number of currently queued messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}
