// Package resettoken stores single-use, time-bounded password reset
// tokens keyed to a user.
package resettoken

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
)

const keyPrefix = "fleetpool:reset-token:"

// Redis is the production token store. Redis owns the expiry: SET with TTL
// on save, GETDEL on consume so a token can never be redeemed twice.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Save(ctx context.Context, token string, userID id.UserID, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+token, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

func (s *Redis) Consume(ctx context.Context, token string) (id.UserID, error) {
	raw, err := s.client.GetDel(ctx, keyPrefix+token).Result()
	if err == redis.Nil {
		return id.UserID{}, sentinel.ErrNotFound
	}
	if err != nil {
		return id.UserID{}, fmt.Errorf("consume reset token: %w", err)
	}
	userID, err := id.ParseUserID(raw)
	if err != nil {
		return id.UserID{}, fmt.Errorf("consume reset token: malformed user id: %w", err)
	}
	return userID, nil
}
