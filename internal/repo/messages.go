package repo

import (
	"context"

	"github.com/anderka/support-relay/internal/model"
)

// MessageStore is the persistence boundary for the relay queue. Datastore
// failures propagate as errors; callers treat them as a whole-fetch abort,
// never as a per-message condition.
type MessageStore interface {
	// FetchPendingOutbound returns undelivered operator messages in
	// ascending creation-time order, at most limit rows. It never
	// mutates the rows it returns.
	FetchPendingOutbound(ctx context.Context, limit int) ([]model.Message, error)

	// MarkDelivered sets the delivered flag. Idempotent: marking an
	// already-delivered message is a no-op.
	MarkDelivered(ctx context.Context, id int64) error

	// LatestTopic returns the most recent topic label seen in the
	// conversation, or "" when none exists.
	LatestTopic(ctx context.Context, chatID int64) (string, error)

	Insert(ctx context.Context, m *model.Message) error
	ListDelivered(ctx context.Context, limit, offset int) ([]model.Message, error)
	CountPending(ctx context.Context) (int64, error)
}
