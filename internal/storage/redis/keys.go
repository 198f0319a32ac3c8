package redis

import "github.com/tokenrace/tokenrace/internal/model"

// Key prefixes for all stored entities
const (
	userKeyPrefix       = "user:"
	emailIndexKeyPrefix = "user_email:"
	roomKeyPrefix       = "room:"
	statusIndexPrefix   = "rooms_status:"
)

func userKey(id model.UserID) string {
	return userKeyPrefix + string(id)
}

func emailIndexKey(email string) string {
	return emailIndexKeyPrefix + email
}

func roomKey(id model.RoomID) string {
	return roomKeyPrefix + string(id)
}

func statusIndexKey(status model.RoomStatus) string {
	return statusIndexPrefix + string(status)
}
