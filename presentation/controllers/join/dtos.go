package join

type RedeemInviteRequest struct {
	Code string `uri:"code" binding:"required,invitecode"`
}

type AdmissionResponse struct {
	RoomID string `json:"roomId"`
	Token  string `json:"token"`
}

type InvitePreviewResponse struct {
	Code  string `json:"code"`
	Valid bool   `json:"valid"`
	Full  bool   `json:"full"`
	TTL   int64  `json:"ttl"`
}
