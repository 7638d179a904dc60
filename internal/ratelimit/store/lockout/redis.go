package lockout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetpool/internal/ratelimit/models"
	"fleetpool/pkg/platform/sentinel"
)

const keyPrefix = "fleetpool:login-lockout:"

// Redis is the production lockout store. Redis owns the record lifetime:
// SET with TTL, so stale failure counts vanish on their own.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Get(ctx context.Context, identifier string) (*models.Lockout, error) {
	raw, err := s.client.Get(ctx, keyPrefix+identifier).Bytes()
	if err == redis.Nil {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lockout record: %w", err)
	}
	var record models.Lockout
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("get lockout record: malformed payload: %w", err)
	}
	return &record, nil
}

func (s *Redis) Save(ctx context.Context, record *models.Lockout, ttl time.Duration) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("save lockout record: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+record.Identifier, raw, ttl).Err(); err != nil {
		return fmt.Errorf("save lockout record: %w", err)
	}
	return nil
}

func (s *Redis) Delete(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, keyPrefix+identifier).Err(); err != nil {
		return fmt.Errorf("delete lockout record: %w", err)
	}
	return nil
}
