package events

import (
	"encoding/json"
	"strings"
)

const channelPrefix = "realtime:"

// Event is the wire form of a realtime notification on a room channel.
type Event struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	RoomID    string          `json:"roomId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func Channel(roomID string) string {
	return channelPrefix + roomID
}

func roomFromChannel(channel string) (string, bool) {
	return strings.CutPrefix(channel, channelPrefix)
}
