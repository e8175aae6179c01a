package model

// Realtime event names published on a room's channel.
const (
	EventMessage = "chat.message"
	EventDelete  = "chat.delete"
	EventDestroy = "chat.destroy"
)

type DestroyPayload struct {
	IsDestroyed bool   `json:"isDestroyed"`
	Reason      string `json:"reason,omitempty"`
}

type DeletePayload struct {
	IDs []string `json:"ids"`
}
