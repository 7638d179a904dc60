// Package service implements the login throttle: repeated authentication
// failures for one identifier hard-lock it for a cooldown period, blunting
// online password guessing.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fleetpool/internal/ratelimit/models"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/platform/sentinel"
	"fleetpool/pkg/requestcontext"
)

// Store persists lockout records. Implementations return
// sentinel.ErrNotFound for identifiers with no record.
type Store interface {
	Get(ctx context.Context, identifier string) (*models.Lockout, error)
	Save(ctx context.Context, record *models.Lockout, ttl time.Duration) error
	Delete(ctx context.Context, identifier string) error
}

const (
	defaultMaxFailures  = 5
	defaultWindow       = 10 * time.Minute
	defaultLockDuration = 15 * time.Minute
)

// Service evaluates and maintains per-identifier lockout state. The store
// TTL is window+lockDuration so a record always outlives both phases.
type Service struct {
	store        Store
	maxFailures  int
	window       time.Duration
	lockDuration time.Duration
	logger       *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithLimits overrides the failure threshold, counting window, and lock
// duration.
func WithLimits(maxFailures int, window, lockDuration time.Duration) Option {
	return func(s *Service) {
		s.maxFailures = maxFailures
		s.window = window
		s.lockDuration = lockDuration
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		maxFailures:  defaultMaxFailures,
		window:       defaultWindow,
		lockDuration: defaultLockDuration,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check fails with rate_limited while the identifier is hard-locked. A
// store failure is logged and allowed through: the throttle protects the
// password check, it must never take login down with it.
func (s *Service) Check(ctx context.Context, identifier string) error {
	record, err := s.store.Get(ctx, identifier)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "lockout store read failed, allowing login attempt", "error", err)
		}
		return nil
	}

	now := requestcontext.Now(ctx)
	if !record.IsLockedAt(now) {
		return nil
	}

	retryAfter := record.RetryAfterAt(now)
	s.logger.WarnContext(ctx, "login attempt while locked out",
		"identifier", identifier, "retry_after_s", retryAfter)
	return dErrors.Add(dErrors.New(dErrors.CodeRateLimited,
		"too many failed login attempts, try again later"),
		"retry_after_s", retryAfter)
}

// RecordFailure counts one failed authentication. Crossing the threshold
// within the window locks the identifier for the lock duration.
func (s *Service) RecordFailure(ctx context.Context, identifier string) error {
	now := requestcontext.Now(ctx)

	record, err := s.store.Get(ctx, identifier)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load lockout record")
		}
		record = &models.Lockout{Identifier: identifier, WindowStart: now}
	}
	if record.WindowExpiredAt(now, s.window) {
		record.Failures = 0
		record.WindowStart = now
	}

	record.Failures++
	if record.Failures >= s.maxFailures {
		record.LockedUntil = now.Add(s.lockDuration)
		s.logger.WarnContext(ctx, "identifier locked out",
			"identifier", identifier,
			"failures", record.Failures,
			"locked_until", record.LockedUntil)
	}

	if err := s.store.Save(ctx, record, s.window+s.lockDuration); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save lockout record")
	}
	return nil
}

// Clear wipes the identifier's failure history after a successful login.
func (s *Service) Clear(ctx context.Context, identifier string) error {
	if err := s.store.Delete(ctx, identifier); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear lockout record")
	}
	return nil
}
