package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/togisoft/t-force/internal/audit"
	"github.com/togisoft/t-force/internal/config"
	"github.com/togisoft/t-force/internal/domain"
	"github.com/togisoft/t-force/internal/kafka"
	"github.com/togisoft/t-force/internal/log"
	"github.com/togisoft/t-force/internal/store"
)

const lookupTimeout = 5 * time.Second

// Hub is the in-process broadcast orchestrator. It owns the connection
// registry, the room membership index, the per-room history buffers and the
// rate limiter, all serialized behind one mutex. No I/O happens under that
// mutex: persistence is enqueued on the gateway's command queue, and the
// store reads a reaction needs run on their own goroutine which re-enters
// the lock only to broadcast.
type Hub struct {
	registry *Registry
	rooms    *RoomIndex
	history  *History
	limiter  *RateLimiter

	gateway store.Gateway
	feed    kafka.MessageProducer // optional, nil disables the event feed

	cfg config.HubConfig
	mu  sync.Mutex
}

func New(cfg config.HubConfig, gateway store.Gateway, feed kafka.MessageProducer) *Hub {
	return &Hub{
		registry: newRegistry(),
		rooms:    newRoomIndex(),
		history:  newHistory(cfg.HistorySize),
		limiter:  NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
		gateway:  gateway,
		feed:     feed,
		cfg:      cfg,
	}
}

// Register adds a freshly authenticated connection to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.registry.register(c)
	total := h.registry.len()
	h.mu.Unlock()

	l := log.L()
	l.Info().Str(log.FieldConnID, c.ID).Str(log.FieldUserID, c.Identity.UserID).Int("connections", total).Msg("client registered")
	audit.Log(context.Background(), audit.ActionConnect, c.Identity.UserID, "client connected")
}

// Disconnect removes the connection from every room it joined, broadcasting
// user_left to each, then unregisters it. Safe to call more than once.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	left := h.rooms.cleanup(c)
	for _, roomID := range left {
		h.broadcastLocked(roomID, h.userLeftEvent(roomID, c), nil)
	}
	h.registry.unregister(c.ID)
	h.mu.Unlock()

	c.closeSend()

	if len(left) > 0 {
		l := log.L()
		l.Info().Str(log.FieldConnID, c.ID).Str(log.FieldUserID, c.Identity.UserID).Int("rooms", len(left)).Msg("client disconnected")
	}
	audit.Log(context.Background(), audit.ActionDisconnect, c.Identity.UserID, "client disconnected")
}

// Join subscribes the connection to a room. Joining a room the connection
// is already in succeeds silently: no duplicate user_joined, no replay.
// New joiners get the room history backfilled before anything else.
func (h *Hub) Join(c *Client, roomID string) {
	if _, err := uuid.Parse(roomID); err != nil {
		c.SendEvent(domain.NewErrorEvent(domain.ErrKindInvalidIdentifier, "invalid room id"))
		return
	}

	h.mu.Lock()
	if !h.rooms.join(roomID, c) {
		h.mu.Unlock()
		l := log.L()
		l.Debug().Str(log.FieldUserID, c.Identity.UserID).Str(log.FieldRoomID, roomID).Msg("already in room")
		return
	}

	for _, evt := range h.history.replay(roomID) {
		c.SendEvent(evt)
	}

	joined := domain.NewEvent(domain.EventUserJoined, domain.UserJoinedPayload{
		RoomID:           roomID,
		UserID:           c.Identity.UserID,
		UserName:         c.Identity.Name,
		UserProfileImage: c.Identity.ProfileImage,
	})
	h.broadcastLocked(roomID, joined, c)
	h.mu.Unlock()

	audit.LogWithDetail(context.Background(), audit.ActionJoinRoom, c.Identity.UserID, roomID, "joined room")
}

// Leave unsubscribes the connection from a room. Leaving a room the
// connection never joined is not an error.
func (h *Hub) Leave(c *Client, roomID string) {
	h.mu.Lock()
	if h.rooms.leave(roomID, c) {
		h.broadcastLocked(roomID, h.userLeftEvent(roomID, c), nil)
	}
	h.mu.Unlock()

	audit.LogWithDetail(context.Background(), audit.ActionLeaveRoom, c.Identity.UserID, roomID, "left room")
}

// SendMessage validates, broadcasts and schedules persistence for one chat
// message. Broadcast happens first; the durable write is fire-and-forget.
func (h *Hub) SendMessage(c *Client, roomID, content, tempID string) {
	if len(content) > h.cfg.MaxMessageSize {
		c.SendEvent(domain.NewErrorEvent(domain.ErrKindMessageTooLarge, "message exceeds size limit"))
		return
	}
	if _, err := uuid.Parse(roomID); err != nil {
		c.SendEvent(domain.NewErrorEvent(domain.ErrKindInvalidIdentifier, "invalid room id"))
		return
	}

	h.mu.Lock()
	if !h.limiter.Allow(c.Identity.UserID) {
		h.mu.Unlock()
		c.SendEvent(domain.NewErrorEvent(domain.ErrKindRateLimitExceeded, "too many messages, slow down"))
		return
	}

	messageID := uuid.New().String()
	now := time.Now()
	evt := domain.Event{
		MessageType: domain.EventMessage,
		Data: domain.MessagePayload{
			ID:               messageID,
			RoomID:           roomID,
			UserID:           c.Identity.UserID,
			UserName:         c.Identity.Name,
			UserProfileImage: c.Identity.ProfileImage,
			Content:          content,
			Timestamp:        now.Unix(),
		},
		Timestamp: now.Unix(),
		MessageID: messageID,
	}

	h.history.append(roomID, evt)
	// The sender receives its own message too, so every subscriber sees the
	// same stream.
	h.broadcastLocked(roomID, evt, nil)
	h.mu.Unlock()

	if tempID != "" {
		ack := domain.NewEvent(domain.EventMessageAck, domain.AckPayload{
			TempID:    tempID,
			MessageID: messageID,
			Success:   true,
		})
		c.SendEvent(ack)
	}

	h.gateway.PersistMessage(&store.MessageRecord{
		ID:               messageID,
		RoomID:           roomID,
		UserID:           c.Identity.UserID,
		UserName:         c.Identity.Name,
		UserProfileImage: c.Identity.ProfileImage,
		Content:          content,
		CreatedAt:        now,
		UpdatedAt:        now,
	})

	if h.feed != nil {
		feedCtx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		err := h.feed.ProduceMessage(feedCtx, &domain.ChatMessage{
			MessageID: messageID,
			RoomID:    roomID,
			UserID:    c.Identity.UserID,
			UserName:  c.Identity.Name,
			Content:   content,
			Timestamp: now.Unix(),
		})
		cancel()
		if err != nil {
			l := log.L()
			l.Error().Err(err).Str(log.FieldMessageID, messageID).Msg("failed to produce message to feed")
		}
	}

	audit.LogWithDetail(context.Background(), audit.ActionSend, c.Identity.UserID, roomID, "message sent")
}

// Typing broadcasts a typing indicator to everyone in the room except the
// sender. Ephemeral: no history, no rate limit.
func (h *Hub) Typing(c *Client, roomID string, isTyping bool) {
	evt := domain.NewEvent(domain.EventTyping, domain.TypingPayload{
		RoomID:   roomID,
		UserID:   c.Identity.UserID,
		UserName: c.Identity.Name,
		IsTyping: isTyping,
	})

	h.mu.Lock()
	h.broadcastLocked(roomID, evt, c)
	h.mu.Unlock()
}

// React resolves the message to its room through the persistence gateway,
// authorizes the caller against the durable membership table, records the
// reaction and broadcasts it. The store lookups run off the hub lock; the
// continuation re-enters it only to broadcast.
func (h *Hub) React(c *Client, messageID, emoji string, add bool) {
	if _, err := uuid.Parse(messageID); err != nil {
		c.SendEvent(domain.NewErrorEvent(domain.ErrKindInvalidIdentifier, "invalid message id"))
		return
	}

	go h.reactResolved(c, messageID, emoji, add)
}

func (h *Hub) reactResolved(c *Client, messageID, emoji string, add bool) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	l := log.L()

	roomID, err := h.gateway.ResolveMessageRoom(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrMessageNotFound) {
			c.SendEvent(domain.NewErrorEvent(domain.ErrKindNotFound, "unknown message"))
			return
		}
		l.Error().Err(err).Str(log.FieldMessageID, messageID).Msg("failed to resolve message room")
		return
	}

	member, err := h.gateway.IsRoomMember(ctx, roomID, c.Identity.UserID)
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to verify room membership")
		return
	}
	if !member {
		c.SendEvent(domain.NewErrorEvent(domain.ErrKindForbidden, "not a member of this room"))
		return
	}

	if add {
		h.gateway.PersistReaction(&store.ReactionRecord{
			ID:               uuid.New().String(),
			MessageID:        messageID,
			UserID:           c.Identity.UserID,
			Emoji:            emoji,
			UserName:         c.Identity.Name,
			UserProfileImage: c.Identity.ProfileImage,
			CreatedAt:        time.Now(),
		})
	} else {
		h.gateway.RetractReaction(messageID, c.Identity.UserID, emoji)
	}

	evt := domain.NewEvent(domain.EventReaction, domain.ReactionPayload{
		MessageID: messageID,
		UserID:    c.Identity.UserID,
		UserName:  c.Identity.Name,
		Emoji:     emoji,
		Add:       add,
	})

	h.mu.Lock()
	h.broadcastLocked(roomID, evt, nil)
	h.mu.Unlock()

	audit.LogWithDetail(context.Background(), audit.ActionReaction, c.Identity.UserID, messageID, "reaction updated")
}

// Ping refreshes the connection's liveness timestamp. No broadcast.
func (h *Hub) Ping(c *Client) {
	c.Touch()
}

// RunSweeper periodically closes connections that have gone silent and
// sends pong to the live ones. Blocks until the context is cancelled.
func (h *Hub) RunSweeper(ctx context.Context) error {
	ticker := time.NewTicker(h.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			h.sweep()
		}
	}
}

func (h *Hub) sweep() {
	h.mu.Lock()
	clients := h.registry.all()
	h.mu.Unlock()

	now := time.Now().Unix()
	timeout := int64(h.cfg.LivenessTimeout / time.Second)

	for _, c := range clients {
		if now-c.LastSeen() > timeout {
			l := log.L()
			l.Info().Str(log.FieldConnID, c.ID).Str(log.FieldUserID, c.Identity.UserID).Msg("closing stale connection")
			audit.Log(context.Background(), audit.ActionStaleClose, c.Identity.UserID, "connection closed by liveness sweep")
			if c.Conn != nil {
				c.Conn.Close()
			}
			h.Disconnect(c)
			continue
		}
		c.SendEvent(domain.NewEvent(domain.EventPong, struct{}{}))
	}
}

// broadcastLocked delivers one event to every subscriber of the room,
// optionally excluding a client. Callers must hold the hub mutex. The event
// is marshaled once; delivery is a non-blocking enqueue per recipient.
func (h *Hub) broadcastLocked(roomID string, evt domain.Event, exclude *Client) {
	members := h.rooms.members(roomID)
	if len(members) == 0 {
		return
	}

	data, err := json.Marshal(evt)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to marshal broadcast event")
		return
	}

	for _, m := range members {
		if m == exclude {
			continue
		}
		m.enqueue(data)
	}
}

func (h *Hub) userLeftEvent(roomID string, c *Client) domain.Event {
	return domain.NewEvent(domain.EventUserLeft, domain.UserLeftPayload{
		RoomID:   roomID,
		UserID:   c.Identity.UserID,
		UserName: c.Identity.Name,
	})
}
