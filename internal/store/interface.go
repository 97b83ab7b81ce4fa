package store

import (
	"context"
	"errors"
)

var ErrMessageNotFound = errors.New("message not found")

// Repository is the synchronous durable-store contract.
type Repository interface {
	InsertMessage(ctx context.Context, m *MessageRecord) error
	InsertReaction(ctx context.Context, r *ReactionRecord) error
	DeleteReaction(ctx context.Context, messageID, userID, emoji string) error
	GetMessageRoom(ctx context.Context, messageID string) (string, error)
	IsRoomMember(ctx context.Context, roomID, userID string) (bool, error)
	ListMessages(ctx context.Context, roomID string, limit, offset int) ([]MessageRecord, error)
	ListReactions(ctx context.Context, messageIDs []string) ([]ReactionRecord, error)
}

// Gateway is what the hub consumes. Writes are fire-and-forget: they are
// queued for a background worker and never block the caller; failures are
// logged, never reported back, and never retract a broadcast. The two reads
// are ordinary blocking calls and must not be made while holding hub state.
type Gateway interface {
	PersistMessage(m *MessageRecord)
	PersistReaction(r *ReactionRecord)
	RetractReaction(messageID, userID, emoji string)
	ResolveMessageRoom(ctx context.Context, messageID string) (string, error)
	IsRoomMember(ctx context.Context, roomID, userID string) (bool, error)
}
