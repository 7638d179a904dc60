//go:build integration

package resettoken_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fleetpool/internal/users/store/resettoken"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
	"fleetpool/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
	store *resettoken.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = resettoken.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisStoreSuite) TestConsumeIsSingleUse() {
	userID := id.NewUserID()
	s.Require().NoError(s.store.Save(s.ctx, "token-1", userID, time.Minute))

	got, err := s.store.Consume(s.ctx, "token-1")
	s.Require().NoError(err)
	s.Equal(userID, got)

	_, err = s.store.Consume(s.ctx, "token-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestUnknownTokenIsNotFound() {
	_, err := s.store.Consume(s.ctx, "never-saved")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestRedisOwnsExpiry() {
	userID := id.NewUserID()
	s.Require().NoError(s.store.Save(s.ctx, "token-2", userID, 50*time.Millisecond))

	time.Sleep(100 * time.Millisecond)

	_, err := s.store.Consume(s.ctx, "token-2")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestTokensAreIndependent() {
	first, second := id.NewUserID(), id.NewUserID()
	s.Require().NoError(s.store.Save(s.ctx, "token-a", first, time.Minute))
	s.Require().NoError(s.store.Save(s.ctx, "token-b", second, time.Minute))

	got, err := s.store.Consume(s.ctx, "token-a")
	s.Require().NoError(err)
	s.Equal(first, got)

	got, err = s.store.Consume(s.ctx, "token-b")
	s.Require().NoError(err)
	s.Equal(second, got)
}
