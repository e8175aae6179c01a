package model

import (
	"slices"
	"time"
)

const (
	// MaxParticipants is the hard cap on tokens a room will ever hold.
	MaxParticipants = 2

	DefaultRoomTTL   = 600 * time.Second
	DefaultInviteTTL = 300 * time.Second
)

type Room struct {
	ID        string    `json:"id"`
	Connected []string  `json:"connected"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r Room) IsMember(token string) bool {
	if token == "" {
		return false
	}
	return slices.Contains(r.Connected, token)
}

func (r Room) IsFull() bool {
	return len(r.Connected) >= MaxParticipants
}
