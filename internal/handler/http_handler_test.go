package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/togisoft/t-force/internal/auth"
	"github.com/togisoft/t-force/internal/domain"
	"github.com/togisoft/t-force/internal/store"
)

type historyFixture struct {
	router   *gin.Engine
	repo     *store.GormChatRepository
	db       *gorm.DB
	verifier *auth.Verifier
}

func newHistoryFixture(t *testing.T) *historyFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&store.MessageRecord{}, &store.ReactionRecord{}, &store.MembershipRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := store.NewGormChatRepository(db)
	verifier := auth.NewVerifier("test-secret")

	router := gin.New()
	NewHTTPHandler(repo, verifier).RegisterRoutes(router)

	return &historyFixture{router: router, repo: repo, db: db, verifier: verifier}
}

func (f *historyFixture) tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := f.verifier.GenerateToken(domain.Identity{UserID: userID, Name: "alice"}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func (f *historyFixture) addMember(t *testing.T, roomID, userID string) {
	t.Helper()
	err := f.db.Create(&store.MembershipRecord{
		ID:     uuid.New().String(),
		RoomID: roomID,
		UserID: userID,
		Role:   "member",
	}).Error
	if err != nil {
		t.Fatalf("seed membership: %v", err)
	}
}

func (f *historyFixture) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestListRoomMessagesRequiresAuth(t *testing.T) {
	f := newHistoryFixture(t)
	roomID := uuid.New().String()

	w := f.get(t, "/api/v1/rooms/"+roomID+"/messages", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestListRoomMessagesForbiddenForNonMember(t *testing.T) {
	f := newHistoryFixture(t)
	roomID := uuid.New().String()
	token := f.tokenFor(t, uuid.New().String())

	w := f.get(t, "/api/v1/rooms/"+roomID+"/messages", token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestListRoomMessagesRejectsBadRoomID(t *testing.T) {
	f := newHistoryFixture(t)
	token := f.tokenFor(t, uuid.New().String())

	w := f.get(t, "/api/v1/rooms/not-a-uuid/messages", token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListRoomMessagesWithReactions(t *testing.T) {
	f := newHistoryFixture(t)
	roomID := uuid.New().String()
	userID := uuid.New().String()
	f.addMember(t, roomID, userID)
	token := f.tokenFor(t, userID)

	base := time.Now().Add(-time.Hour)
	first := &store.MessageRecord{
		ID: uuid.New().String(), RoomID: roomID, UserID: userID,
		UserName: "alice", Content: "hello", CreatedAt: base, UpdatedAt: base,
	}
	second := &store.MessageRecord{
		ID: uuid.New().String(), RoomID: roomID, UserID: userID,
		UserName: "alice", Content: "again", CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute),
	}
	for _, m := range []*store.MessageRecord{first, second} {
		if err := f.db.Create(m).Error; err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}
	for _, u := range []string{"u1", "u2"} {
		err := f.db.Create(&store.ReactionRecord{
			ID: uuid.New().String(), MessageID: first.ID, UserID: u,
			Emoji: "👍", UserName: u, CreatedAt: base,
		}).Error
		if err != nil {
			t.Fatalf("seed reaction: %v", err)
		}
	}

	w := f.get(t, "/api/v1/rooms/"+roomID+"/messages", token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Messages []struct {
				ID        string `json:"id"`
				Content   string `json:"content"`
				Reactions []struct {
					Emoji string `json:"emoji"`
					Count int    `json:"count"`
				} `json:"reactions"`
			} `json:"messages"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success {
		t.Fatal("response not successful")
	}
	msgs := body.Data.Messages
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "hello" || msgs[1].Content != "again" {
		t.Fatalf("messages out of order: %s, %s", msgs[0].Content, msgs[1].Content)
	}
	if len(msgs[0].Reactions) != 1 || msgs[0].Reactions[0].Count != 2 {
		t.Fatalf("first message reactions = %+v", msgs[0].Reactions)
	}
	if len(msgs[1].Reactions) != 0 {
		t.Fatalf("second message reactions = %+v", msgs[1].Reactions)
	}
}
