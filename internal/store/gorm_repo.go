package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/togisoft/t-force/internal/log"
)

// GormChatRepository implements Repository using GORM.
type GormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a new GORM-based chat repository.
func NewGormChatRepository(db *gorm.DB) *GormChatRepository {
	return &GormChatRepository{db: db}
}

// InsertMessage persists one chat message.
func (r *GormChatRepository) InsertMessage(ctx context.Context, m *MessageRecord) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Create(m)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldMessageID, m.ID).Msg("failed to insert message")
		return result.Error
	}
	l.Debug().Str(log.FieldMessageID, m.ID).Str(log.FieldRoomID, m.RoomID).Msg("message persisted")
	return nil
}

// InsertReaction persists one reaction. Re-adding an existing
// (message, user, emoji) triple is a no-op, not an error.
func (r *GormChatRepository) InsertReaction(ctx context.Context, rec *ReactionRecord) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}, {Name: "emoji"}},
			DoNothing: true,
		}).
		Create(rec)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldMessageID, rec.MessageID).Msg("failed to insert reaction")
		return result.Error
	}
	return nil
}

// DeleteReaction removes a reaction. Absence is not an error.
func (r *GormChatRepository) DeleteReaction(ctx context.Context, messageID, userID, emoji string) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&ReactionRecord{})
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldMessageID, messageID).Msg("failed to delete reaction")
		return result.Error
	}
	if result.RowsAffected == 0 {
		l.Debug().Str(log.FieldMessageID, messageID).Str(log.FieldUserID, userID).Msg("no reaction to remove")
	}
	return nil
}

// GetMessageRoom resolves a message to the room it belongs to.
func (r *GormChatRepository) GetMessageRoom(ctx context.Context, messageID string) (string, error) {
	var m MessageRecord
	result := r.db.WithContext(ctx).Select("room_id").First(&m, "id = ?", messageID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", ErrMessageNotFound
		}
		l := log.Ctx(ctx)
		l.Error().Err(result.Error).Str(log.FieldMessageID, messageID).Msg("failed to resolve message room")
		return "", result.Error
	}
	return m.RoomID, nil
}

// IsRoomMember checks the durable membership table.
func (r *GormChatRepository) IsRoomMember(ctx context.Context, roomID, userID string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&MembershipRecord{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count)
	if result.Error != nil {
		l := log.Ctx(ctx)
		l.Error().Err(result.Error).Str(log.FieldRoomID, roomID).Str(log.FieldUserID, userID).Msg("failed to check room membership")
		return false, result.Error
	}
	return count > 0, nil
}

// ListMessages returns room messages in chronological order.
func (r *GormChatRepository) ListMessages(ctx context.Context, roomID string, limit, offset int) ([]MessageRecord, error) {
	if limit < 1 {
		limit = 200
	}

	var records []MessageRecord
	result := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&records)
	if result.Error != nil {
		l := log.Ctx(ctx)
		l.Error().Err(result.Error).Str(log.FieldRoomID, roomID).Msg("failed to list messages")
		return nil, result.Error
	}
	return records, nil
}

// ListReactions returns the flat reaction log for a batch of messages.
func (r *GormChatRepository) ListReactions(ctx context.Context, messageIDs []string) ([]ReactionRecord, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}

	var records []ReactionRecord
	result := r.db.WithContext(ctx).
		Where("message_id IN ?", messageIDs).
		Order("created_at ASC").
		Find(&records)
	if result.Error != nil {
		l := log.Ctx(ctx)
		l.Error().Err(result.Error).Msg("failed to list reactions")
		return nil, result.Error
	}
	return records, nil
}
