package model

// Invite is a single-use admission code. The code itself is the storage key,
// so it is not part of the stored payload.
type Invite struct {
	Code      string `json:"-"`
	RoomID    string `json:"roomId"`
	CreatedBy string `json:"createdBy"`
}
