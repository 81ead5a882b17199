package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type deliveredValue struct {
	RemoteMessageID int       `json:"remoteMessageId"`
	DeliveredAt     time.Time `json:"deliveredAt"`
}

type droppedValue struct {
	Reason    string    `json:"reason"`
	DroppedAt time.Time `json:"droppedAt"`
}

func (c *RedisCache) StoreDelivered(ctx context.Context, internalID int64, remoteMessageID int, deliveredAt time.Time) error {
	key := fmt.Sprintf("delivered:%d", internalID)
	val := deliveredValue{
		RemoteMessageID: remoteMessageID,
		DeliveredAt:     deliveredAt.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

func (c *RedisCache) StoreDropped(ctx context.Context, internalID int64, reason string, droppedAt time.Time) error {
	key := fmt.Sprintf("dropped:%d", internalID)
	val := droppedValue{
		Reason:    reason,
		DroppedAt: droppedAt.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
