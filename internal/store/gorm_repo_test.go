package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *GormChatRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&MessageRecord{}, &ReactionRecord{}, &MembershipRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewGormChatRepository(db)
}

func testMessage(roomID, content string, at time.Time) *MessageRecord {
	return &MessageRecord{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		UserID:    uuid.New().String(),
		UserName:  "alice",
		Content:   content,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestGetMessageRoom(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	roomID := uuid.New().String()

	m := testMessage(roomID, "hello", time.Now())
	if err := repo.InsertMessage(ctx, m); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.GetMessageRoom(ctx, m.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != roomID {
		t.Fatalf("room = %s, want %s", got, roomID)
	}

	_, err = repo.GetMessageRoom(ctx, uuid.New().String())
	if !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("unknown message error = %v, want ErrMessageNotFound", err)
	}
}

func TestInsertReactionIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	messageID := uuid.New().String()
	userID := uuid.New().String()

	rec := func() *ReactionRecord {
		return &ReactionRecord{
			ID:        uuid.New().String(),
			MessageID: messageID,
			UserID:    userID,
			Emoji:     "👍",
			UserName:  "alice",
			CreatedAt: time.Now(),
		}
	}

	if err := repo.InsertReaction(ctx, rec()); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := repo.InsertReaction(ctx, rec()); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}

	rows, err := repo.ListReactions(ctx, []string{messageID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("stored %d reactions, want 1", len(rows))
	}
}

func TestDeleteReaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	messageID := uuid.New().String()
	userID := uuid.New().String()

	rec := &ReactionRecord{
		ID:        uuid.New().String(),
		MessageID: messageID,
		UserID:    userID,
		Emoji:     "🔥",
		CreatedAt: time.Now(),
	}
	if err := repo.InsertReaction(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := repo.DeleteReaction(ctx, messageID, userID, "🔥"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rows, err := repo.ListReactions(ctx, []string{messageID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("%d reactions remain after delete", len(rows))
	}

	// Deleting an absent reaction is fine.
	if err := repo.DeleteReaction(ctx, messageID, userID, "🔥"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestIsRoomMember(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	roomID := uuid.New().String()
	userID := uuid.New().String()

	member, err := repo.IsRoomMember(ctx, roomID, userID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if member {
		t.Fatal("unknown user reported as member")
	}

	if err := repo.db.Create(&MembershipRecord{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		UserID:    userID,
		Role:      "member",
		CreatedAt: time.Now(),
	}).Error; err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	member, err = repo.IsRoomMember(ctx, roomID, userID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !member {
		t.Fatal("seeded member not found")
	}
}

func TestListMessagesOrderedAndPaged(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	roomID := uuid.New().String()
	base := time.Now().Add(-time.Hour)

	// Insert out of order; listing must come back chronological.
	for _, i := range []int{2, 0, 3, 1} {
		m := testMessage(roomID, []string{"m0", "m1", "m2", "m3"}[i], base.Add(time.Duration(i)*time.Minute))
		if err := repo.InsertMessage(ctx, m); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := repo.InsertMessage(ctx, testMessage(uuid.New().String(), "other room", base)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	page, err := repo.ListMessages(ctx, roomID, 2, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page has %d messages, want 2", len(page))
	}
	if page[0].Content != "m1" || page[1].Content != "m2" {
		t.Fatalf("page contents = %s, %s, want m1, m2", page[0].Content, page[1].Content)
	}
}
