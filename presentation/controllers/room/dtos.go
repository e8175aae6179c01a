package room

type RestoreRoomRequest struct {
	RoomID string `json:"roomId" binding:"required"`
	Token  string `json:"token" binding:"required"`
}

type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

type EnterRoomResponse struct {
	RoomID string `json:"roomId"`
	Token  string `json:"token"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type InviteResponse struct {
	Code string `json:"code"`
}

type TTLResponse struct {
	TTL int64 `json:"ttl"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
