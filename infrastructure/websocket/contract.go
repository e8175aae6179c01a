package websocket

// WSMessage is the envelope pushed to every listener of a room.
type WSMessage struct {
	Event     string `json:"event"`
	RoomID    string `json:"roomId"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// Events after which the server closes the socket.
var terminalEvents = map[string]bool{
	"chat.destroy": true,
}

func (m *WSMessage) IsTerminal() bool {
	return terminalEvents[m.Event]
}
