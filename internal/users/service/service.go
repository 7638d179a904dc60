package service

import (
	"context"
	"log/slog"
	"time"

	usermetrics "fleetpool/internal/users/metrics"
	"fleetpool/internal/users/models"
	id "fleetpool/pkg/domain"
)

// UserStore persists employee accounts. Implementations enforce email
// uniqueness with sentinel.ErrConflict.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// ResetTokenStore holds single-use password reset tokens with a TTL.
// Consume removes the token; a second call for the same token returns
// sentinel.ErrNotFound.
type ResetTokenStore interface {
	Save(ctx context.Context, token string, userID id.UserID, ttl time.Duration) error
	Consume(ctx context.Context, token string) (id.UserID, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, email string) (string, error)
}

// ResetMailer delivers the password reset token to the user. Failures are
// surfaced: a reset request whose email never arrives is useless.
type ResetMailer interface {
	PasswordReset(ctx context.Context, user *models.User, token string) error
}

// LoginThrottle rejects authentication attempts for identifiers with too
// many recent failures. Optional; without one every attempt is allowed.
type LoginThrottle interface {
	Check(ctx context.Context, identifier string) error
	RecordFailure(ctx context.Context, identifier string) error
	Clear(ctx context.Context, identifier string) error
}

// Service manages employee accounts and authentication.
type Service struct {
	store    UserStore
	tokens   ResetTokenStore
	issuer   TokenIssuer
	mailer   ResetMailer
	throttle LoginThrottle
	resetTTL time.Duration
	logger   *slog.Logger
	metrics  *usermetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *usermetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLoginThrottle enables the failed-login lockout on Authenticate.
func WithLoginThrottle(throttle LoginThrottle) Option {
	return func(s *Service) {
		s.throttle = throttle
	}
}

// WithResetTTL overrides how long a password reset token stays valid.
func WithResetTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.resetTTL = ttl
	}
}

// New constructs a Service.
func New(store UserStore, tokens ResetTokenStore, issuer TokenIssuer, mailer ResetMailer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		tokens:   tokens,
		issuer:   issuer,
		mailer:   mailer,
		resetTTL: 30 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
