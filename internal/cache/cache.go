package cache

import (
	"context"
	"time"
)

// ReceiptCache records delivery outcomes for inspection. Drops are a
// distinct event class, never conflated with confirmed deliveries.
type ReceiptCache interface {
	StoreDelivered(ctx context.Context, internalID int64, remoteMessageID int, deliveredAt time.Time) error
	StoreDropped(ctx context.Context, internalID int64, reason string, droppedAt time.Time) error
}
