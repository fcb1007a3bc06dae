package bus

import "time"

// Direction tags which way a relay message travelled.
type Direction string

const (
	// DirectionInbound marks a message received from the platform.
	DirectionInbound Direction = "inbound"
	// DirectionEcho marks a generated reply that was delivered to the
	// platform and is logged so the originating client can display it.
	DirectionEcho Direction = "outbound-echo"
)

func (d Direction) IsValid() bool {
	switch d {
	case DirectionInbound, DirectionEcho:
		return true
	}
	return false
}

// Message is one element of the relay mailbox. Immutable once enqueued.
//
// TopicID is the platform's sub-conversation (thread) identifier. An empty
// TopicID means the default sub-conversation and is a distinct key from any
// concrete topic value; Telegram thread ids are positive integers, so the
// empty string never collides with a real topic.
type Message struct {
	Direction         Direction `json:"direction"`
	Channel           string    `json:"channel"`
	ChatID            string    `json:"chatId"`
	TopicID           string    `json:"topicId,omitempty"`
	Sender            string    `json:"from"`
	Content           string    `json:"content"`
	PlatformMessageID string    `json:"messageId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// MatchesAddress reports whether the message belongs to the conversation
// identified by (chatID, topicID). No topic only matches no topic.
func (m Message) MatchesAddress(chatID, topicID string) bool {
	return m.ChatID == chatID && m.TopicID == topicID
}
