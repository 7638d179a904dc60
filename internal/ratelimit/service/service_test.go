package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fleetpool/internal/ratelimit/models"
	"fleetpool/internal/ratelimit/store/lockout"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/requestcontext"
)

// =============================================================================
// Login Throttle Test Suite
// =============================================================================
// Justification for unit tests:
// - The threshold, window reset, and lock expiry arithmetic all hinge on
//   the request clock; a pinned clock makes each transition exact.
// - The fail-open path on store errors is deliberate and easy to break.
// =============================================================================

type LockoutSuite struct {
	suite.Suite
	service *Service
	now     time.Time
}

func TestLockoutSuite(t *testing.T) {
	suite.Run(t, new(LockoutSuite))
}

func (s *LockoutSuite) SetupTest() {
	s.service = New(lockout.NewInMemory(),
		WithLimits(3, 10*time.Minute, 15*time.Minute))
	s.now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func (s *LockoutSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *LockoutSuite) fail(identifier string) {
	s.Require().NoError(s.service.RecordFailure(s.ctx(), identifier))
}

func (s *LockoutSuite) TestLocksAtThreshold() {
	const identifier = "alice@corp.example"

	s.fail(identifier)
	s.fail(identifier)
	s.NoError(s.service.Check(s.ctx(), identifier), "two failures stay under the threshold")

	s.fail(identifier)
	err := s.service.Check(s.ctx(), identifier)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))

	retryAfter, ok := dErrors.Load(err, "retry_after_s")
	s.Require().True(ok)
	s.Equal(15*60, retryAfter)
}

func (s *LockoutSuite) TestLockExpires() {
	const identifier = "alice@corp.example"
	for i := 0; i < 3; i++ {
		s.fail(identifier)
	}
	s.Error(s.service.Check(s.ctx(), identifier))

	s.now = s.now.Add(15*time.Minute + time.Second)
	s.NoError(s.service.Check(s.ctx(), identifier))
}

func (s *LockoutSuite) TestWindowResetsCounter() {
	const identifier = "alice@corp.example"
	s.fail(identifier)
	s.fail(identifier)

	// The window lapses; the next failure starts a fresh count.
	s.now = s.now.Add(11 * time.Minute)
	s.fail(identifier)
	s.NoError(s.service.Check(s.ctx(), identifier))
}

func (s *LockoutSuite) TestClearWipesHistory() {
	const identifier = "alice@corp.example"
	s.fail(identifier)
	s.fail(identifier)
	s.Require().NoError(s.service.Clear(s.ctx(), identifier))

	s.fail(identifier)
	s.fail(identifier)
	s.NoError(s.service.Check(s.ctx(), identifier), "cleared failures do not count")
}

func (s *LockoutSuite) TestIdentifiersAreIndependent() {
	for i := 0; i < 3; i++ {
		s.fail("alice@corp.example")
	}
	s.Error(s.service.Check(s.ctx(), "alice@corp.example"))
	s.NoError(s.service.Check(s.ctx(), "bob@corp.example"))
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (*models.Lockout, error) {
	return nil, errors.New("redis: connection refused")
}

func (failingStore) Save(context.Context, *models.Lockout, time.Duration) error {
	return errors.New("redis: connection refused")
}

func (failingStore) Delete(context.Context, string) error {
	return errors.New("redis: connection refused")
}

func (s *LockoutSuite) TestCheckFailsOpenOnStoreError() {
	service := New(failingStore{})
	s.NoError(service.Check(s.ctx(), "alice@corp.example"),
		"a broken store must not lock everyone out of login")
}
