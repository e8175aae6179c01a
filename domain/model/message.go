package model

type MessageType string

const (
	MessageTypeMessage MessageType = "message"
	MessageTypeSystem  MessageType = "system"
)

// Message is a chat entry as stored in the room log. Token identifies the
// author and must only ever be returned to that author.
type Message struct {
	ID        string      `json:"id"`
	Sender    string      `json:"sender"`
	Text      string      `json:"text"`
	Timestamp int64       `json:"timestamp"`
	RoomID    string      `json:"roomId"`
	Type      MessageType `json:"type"`
	Token     string      `json:"token,omitempty"`
}

func (m Message) IsSystem() bool {
	return m.Type == MessageTypeSystem
}

// Public returns a copy safe to broadcast to every participant.
func (m Message) Public() Message {
	m.Token = ""
	return m
}

// StoredMessage pairs a decoded message with the exact value it was stored
// under, which is what removal by value must match.
type StoredMessage struct {
	Message
	Raw string `json:"-"`
}
