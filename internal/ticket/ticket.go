package ticket

import (
	"context"
	"log/slog"
)

// DefaultTopic is used whenever a conversation has no topic-tagged
// message or the lookup fails.
const DefaultTopic = "unspecified"

type TopicStore interface {
	LatestTopic(ctx context.Context, chatID int64) (string, error)
}

// Resolver looks up the active support topic of a conversation. Lookup
// failures degrade to DefaultTopic; the topic is context, never gating.
type Resolver struct {
	store  TopicStore
	logger *slog.Logger
}

func NewResolver(store TopicStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, chatID int64) string {
	topic, err := r.store.LatestTopic(ctx, chatID)
	if err != nil {
		r.logger.Warn("topic lookup failed", "chat_id", chatID, "err", err)
		return DefaultTopic
	}
	if topic == "" {
		return DefaultTopic
	}
	return topic
}
