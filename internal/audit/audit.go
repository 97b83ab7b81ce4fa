package audit

import (
	"context"

	"github.com/togisoft/t-force/internal/log"
)

// Audit actions for the messaging hub.
const (
	ActionConnect    = "chat.connect"
	ActionDisconnect = "chat.disconnect"
	ActionJoinRoom   = "chat.join_room"
	ActionLeaveRoom  = "chat.leave_room"
	ActionSend       = "chat.send_message"
	ActionReaction   = "chat.reaction"
	ActionStaleClose = "chat.stale_close"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
