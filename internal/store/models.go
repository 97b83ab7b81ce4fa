package store

import "time"

// MessageRecord is the durable row for an accepted chat message. The sender
// name and avatar are denormalized so history reads do not depend on the
// user service.
type MessageRecord struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID           string    `gorm:"type:uuid;index" json:"room_id"`
	UserID           string    `gorm:"type:uuid;index" json:"user_id"`
	UserName         string    `json:"user_name"`
	UserProfileImage string    `json:"user_profile_image,omitempty"`
	Content          string    `json:"content"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (MessageRecord) TableName() string { return "chat_messages" }

// ReactionRecord is one (message, user, emoji) reaction. The unique index
// makes re-adding the same reaction a no-op at the database level.
type ReactionRecord struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID        string    `gorm:"type:uuid;uniqueIndex:idx_message_reactions_unique;index" json:"message_id"`
	UserID           string    `gorm:"type:uuid;uniqueIndex:idx_message_reactions_unique" json:"user_id"`
	Emoji            string    `gorm:"uniqueIndex:idx_message_reactions_unique" json:"emoji"`
	UserName         string    `json:"user_name"`
	UserProfileImage string    `json:"user_profile_image,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (ReactionRecord) TableName() string { return "message_reactions" }

// MembershipRecord mirrors the durable room membership table owned by the
// room management surface. The hub only reads it, to authorize reactions
// against something sturdier than the transient subscriber set.
type MembershipRecord struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID    string    `gorm:"type:uuid;uniqueIndex:idx_room_memberships_unique" json:"room_id"`
	UserID    string    `gorm:"type:uuid;uniqueIndex:idx_room_memberships_unique" json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (MembershipRecord) TableName() string { return "room_memberships" }
