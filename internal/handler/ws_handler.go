package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/togisoft/t-force/internal/auth"
	"github.com/togisoft/t-force/internal/config"
	"github.com/togisoft/t-force/internal/domain"
	"github.com/togisoft/t-force/internal/hub"
	"github.com/togisoft/t-force/internal/log"
	"github.com/togisoft/t-force/internal/presence"
	"github.com/togisoft/t-force/internal/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler authenticates and upgrades websocket connections and decodes
// inbound frames into hub operations.
type WSHandler struct {
	hub      *hub.Hub
	verifier *auth.Verifier
	presence *presence.RedisPresence // optional
	wsCfg    config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, verifier *auth.Verifier, p *presence.RedisPresence, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:      h,
		verifier: verifier,
		presence: p,
		wsCfg:    wsCfg,
	}
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/chat/ws", h.HandleWebSocket)
}

// HandleWebSocket verifies the caller's token before upgrading; an
// unauthenticated request is rejected with plain HTTP, never upgraded.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	token := auth.ExtractToken(c.GetHeader("Authorization"), c.Query("token"))
	identity, err := h.verifier.Verify(token)
	if err != nil {
		l.Warn().Err(err).Msg("websocket auth failed")
		response.Unauthorized(c, "invalid or missing token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), identity, h.hub, conn, h.wsCfg)

	h.hub.Register(client)
	h.markOnline(identity.UserID)

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleFrame)
		h.markOffline(identity.UserID)
	}()
}

// handleFrame decodes one inbound frame and routes it. Malformed frames are
// answered with an error event and dropped; the connection stays open.
func (h *WSHandler) handleFrame(client *hub.Client, frame []byte) {
	var base domain.BaseCommand
	if err := json.Unmarshal(frame, &base); err != nil {
		h.rejectFrame(client, err)
		return
	}

	switch base.Type {
	case domain.CmdJoin:
		var cmd domain.JoinCommand
		if err := json.Unmarshal(frame, &cmd); err != nil {
			h.rejectFrame(client, err)
			return
		}
		h.hub.Join(client, cmd.RoomID)

	case domain.CmdLeave:
		var cmd domain.LeaveCommand
		if err := json.Unmarshal(frame, &cmd); err != nil {
			h.rejectFrame(client, err)
			return
		}
		h.hub.Leave(client, cmd.RoomID)

	case domain.CmdMessage:
		var cmd domain.MessageCommand
		if err := json.Unmarshal(frame, &cmd); err != nil {
			h.rejectFrame(client, err)
			return
		}
		h.hub.SendMessage(client, cmd.RoomID, cmd.Content, cmd.TempID)

	case domain.CmdTyping:
		var cmd domain.TypingCommand
		if err := json.Unmarshal(frame, &cmd); err != nil {
			h.rejectFrame(client, err)
			return
		}
		h.hub.Typing(client, cmd.RoomID, cmd.IsTyping)

	case domain.CmdReaction:
		var cmd domain.ReactionCommand
		if err := json.Unmarshal(frame, &cmd); err != nil {
			h.rejectFrame(client, err)
			return
		}
		h.hub.React(client, cmd.MessageID, cmd.Emoji, cmd.Add)

	case domain.CmdPing:
		h.hub.Ping(client)

	default:
		client.SendEvent(domain.NewErrorEvent(domain.ErrKindMalformedCommand, "unknown command type"))
	}
}

func (h *WSHandler) rejectFrame(client *hub.Client, err error) {
	l := log.L()
	l.Warn().Err(err).Str(log.FieldConnID, client.ID).Msg("dropping malformed frame")
	client.SendEvent(domain.NewErrorEvent(domain.ErrKindMalformedCommand, "could not decode command"))
}

func (h *WSHandler) markOnline(userID string) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.presence.MarkOnline(ctx, userID); err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to mark user online")
	}
}

func (h *WSHandler) markOffline(userID string) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.presence.MarkOffline(ctx, userID); err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to mark user offline")
	}
}
