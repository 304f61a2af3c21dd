package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trustylads/internal/domain"
)

// RedisJournal appends orders to a per-user Redis list. Used instead of the
// file journal on hosts without a persistent volume.
type RedisJournal struct {
	client *redis.Client
}

func NewRedisJournal(addr string) *RedisJournal {
	return &RedisJournal{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

var _ OrderJournal = (*RedisJournal)(nil)

func (r *RedisJournal) Append(ctx context.Context, o domain.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	return r.client.RPush(ctx, r.key(o.UserID), payload).Err()
}

func (r *RedisJournal) key(userID int64) string {
	return fmt.Sprintf("trustylads:orders:%d", userID)
}
