package kafka

import (
	"context"

	"github.com/togisoft/t-force/internal/domain"
)

// MessageProducer feeds accepted chat messages to downstream consumers
// (search indexing, notifications, archival). Best-effort: a produce
// failure never affects delivery to connected clients.
type MessageProducer interface {
	ProduceMessage(ctx context.Context, msg *domain.ChatMessage) error
	Close() error
}
