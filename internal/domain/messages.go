package domain

import "time"

// WebSocket command types from client.
const (
	CmdJoin     = "join"
	CmdLeave    = "leave"
	CmdMessage  = "message"
	CmdTyping   = "typing"
	CmdReaction = "reaction"
	CmdPing     = "ping"
)

// WebSocket event types to client.
const (
	EventMessage    = "message"
	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"
	EventTyping     = "typing"
	EventReaction   = "reaction"
	EventMessageAck = "message_ack"
	EventPong       = "pong"
	EventError      = "error"
)

// Error kinds reported to the originating connection.
const (
	ErrKindInvalidIdentifier = "InvalidIdentifier"
	ErrKindMessageTooLarge   = "MessageTooLarge"
	ErrKindRateLimitExceeded = "RateLimitExceeded"
	ErrKindForbidden         = "Forbidden"
	ErrKindNotFound          = "NotFound"
	ErrKindMalformedCommand  = "MalformedCommand"

	// Never sent to clients; used as the error kind on server-side logs
	// when a durable write fails after the broadcast already went out.
	ErrKindPersistenceFailure = "PersistenceFailure"
)

// BaseCommand is decoded first to discriminate the frame type.
type BaseCommand struct {
	Type string `json:"type"`
}

// Client -> Server commands

type JoinCommand struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type LeaveCommand struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type MessageCommand struct {
	Type    string `json:"type"`
	RoomID  string `json:"room_id"`
	Content string `json:"content"`
	TempID  string `json:"temp_id,omitempty"`
}

type TypingCommand struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

type ReactionCommand struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
	Add       bool   `json:"add"`
}

// Server -> Client events

// Event is the outbound envelope. Events are immutable once constructed and
// broadcast by value.
type Event struct {
	MessageType string `json:"message_type"`
	Data        any    `json:"data"`
	Timestamp   int64  `json:"timestamp"`
	MessageID   string `json:"message_id,omitempty"`
}

type MessagePayload struct {
	ID               string `json:"id"`
	RoomID           string `json:"room_id"`
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name"`
	UserProfileImage string `json:"user_profile_image,omitempty"`
	Content          string `json:"content"`
	Timestamp        int64  `json:"timestamp"`
}

type UserJoinedPayload struct {
	RoomID           string `json:"room_id"`
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name"`
	UserProfileImage string `json:"user_profile_image,omitempty"`
}

type UserLeftPayload struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

type TypingPayload struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	IsTyping bool   `json:"is_typing"`
}

type ReactionPayload struct {
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Emoji     string `json:"emoji"`
	Add       bool   `json:"add"`
}

type AckPayload struct {
	TempID    string `json:"temp_id"`
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
}

type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewEvent constructs an outbound event stamped with the current time.
func NewEvent(messageType string, data any) Event {
	return Event{
		MessageType: messageType,
		Data:        data,
		Timestamp:   time.Now().Unix(),
	}
}

// NewErrorEvent constructs a typed error event for the originating connection.
func NewErrorEvent(kind, message string) Event {
	return NewEvent(EventError, ErrorPayload{Kind: kind, Message: message})
}
