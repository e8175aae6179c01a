package repository

const roomIndexKey = "rooms"

func metaKey(roomID string) string {
	return "meta:" + roomID
}

func messagesKey(roomID string) string {
	return "messages:" + roomID
}

func inviteKey(code string) string {
	return "invite:" + code
}

func inviteSetKey(roomID string) string {
	return "invites:" + roomID
}

// legacyKey is the bare room id, kept alive alongside the log for older
// clients and removed together with the room.
func legacyKey(roomID string) string {
	return roomID
}
