package message

import "github.com/hilthontt/burnchat/domain/model"

type SendMessageRequest struct {
	Sender string `json:"sender" binding:"max=100"`
	Text   string `json:"text" binding:"required,max=50"`
	Type   string `json:"type" binding:"omitempty,oneof=message system"`
}

// RoomTokenRequest carries credentials in the body for endpoints that are
// called outside the cookie flow.
type RoomTokenRequest struct {
	RoomID string `json:"roomId" binding:"required"`
	Token  string `json:"token" binding:"required"`
}

type SystemMessageRequest struct {
	RoomID string `json:"roomId" binding:"required"`
	Token  string `json:"token" binding:"required"`
	Sender string `json:"sender" binding:"max=100"`
	Text   string `json:"text" binding:"required,max=50"`
}

type MessagesResponse struct {
	Messages []model.Message `json:"messages"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
	Deleted int  `json:"deleted"`
}
