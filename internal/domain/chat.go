package domain

// ChatMessage is the shape of an accepted message as produced to the
// message event feed.
type ChatMessage struct {
	MessageID string `json:"message_id"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}
