package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/togisoft/t-force/internal/auth"
	"github.com/togisoft/t-force/internal/log"
	"github.com/togisoft/t-force/internal/reaction"
	"github.com/togisoft/t-force/internal/response"
	"github.com/togisoft/t-force/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// HTTPHandler serves the durable message history with aggregated reactions.
type HTTPHandler struct {
	repo     store.Repository
	verifier *auth.Verifier
}

func NewHTTPHandler(repo store.Repository, verifier *auth.Verifier) *HTTPHandler {
	return &HTTPHandler{repo: repo, verifier: verifier}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		api.GET("/rooms/:room_id/messages", h.ListRoomMessages)
	}
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// MessageView is one history message with its reactions folded in.
type MessageView struct {
	store.MessageRecord
	Reactions []reaction.Group `json:"reactions"`
}

// ListRoomMessages returns a page of the room's message history, oldest
// first. Callers must be durable members of the room.
func (h *HTTPHandler) ListRoomMessages(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	token := auth.ExtractToken(c.GetHeader("Authorization"), c.Query("token"))
	identity, err := h.verifier.Verify(token)
	if err != nil {
		response.Unauthorized(c, "invalid or missing token")
		return
	}

	roomID := c.Param("room_id")
	if _, err := uuid.Parse(roomID); err != nil {
		response.BadRequest(c, "invalid room id")
		return
	}

	limit := intQuery(c, "limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	member, err := h.repo.IsRoomMember(ctx, roomID, identity.UserID)
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to verify room membership")
		response.InternalError(c, "failed to verify membership")
		return
	}
	if !member {
		response.Forbidden(c, "not a member of this room")
		return
	}

	messages, err := h.repo.ListMessages(ctx, roomID, limit, offset)
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to list messages")
		response.InternalError(c, "failed to load messages")
		return
	}

	views := make([]MessageView, 0, len(messages))
	if len(messages) > 0 {
		ids := make([]string, len(messages))
		for i, m := range messages {
			ids[i] = m.ID
		}

		rows, err := h.repo.ListReactions(ctx, ids)
		if err != nil {
			l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to list reactions")
			response.InternalError(c, "failed to load reactions")
			return
		}

		groups := reaction.Aggregate(rows)
		for _, m := range messages {
			g := groups[m.ID]
			if g == nil {
				g = []reaction.Group{}
			}
			views = append(views, MessageView{MessageRecord: m, Reactions: g})
		}
	}

	response.Success(c, gin.H{
		"room_id":  roomID,
		"messages": views,
		"limit":    limit,
		"offset":   offset,
	})
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
