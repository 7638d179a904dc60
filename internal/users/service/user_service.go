package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fleetpool/internal/users/models"
	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/email"
	"fleetpool/pkg/platform/sentinel"
	"fleetpool/pkg/requestcontext"
)

const minPasswordLength = 8

// RegisterInput carries the fields of a new account. Empty names are
// derived from the email's local part.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateProfileInput is a partial update: nil fields keep their current
// values.
type UpdateProfileInput struct {
	Email     *string
	FirstName *string
	LastName  *string
}

// Register creates an employee account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if len(input.Password) < minPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	firstName, lastName := input.FirstName, input.LastName
	if firstName == "" && lastName == "" {
		firstName, lastName = email.DeriveNameFromEmail(input.Email)
	}

	now := requestcontext.Now(ctx)
	user, err := models.NewUser(id.NewUserID(), input.Email, firstName, lastName, string(hash), now)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	if s.metrics != nil {
		s.metrics.Registered.Inc()
	}
	return user, nil
}

// Authenticate verifies credentials and issues an access token. Unknown
// emails and wrong passwords fail identically. With a login throttle
// configured, locked identifiers are refused before the password check and
// a successful login wipes the failure history.
func (s *Service) Authenticate(ctx context.Context, emailAddr, password string) (string, *models.User, error) {
	identifier := strings.ToLower(strings.TrimSpace(emailAddr))
	if s.throttle != nil {
		if err := s.throttle.Check(ctx, identifier); err != nil {
			return "", nil, err
		}
	}

	user, err := s.store.FindByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil, s.failLogin(ctx, identifier)
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, s.failLogin(ctx, identifier)
	}

	token, err := s.issuer.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	if s.throttle != nil {
		if err := s.throttle.Clear(ctx, identifier); err != nil {
			s.logger.WarnContext(ctx, "failed to clear login throttle", "error", err)
		}
	}
	return token, user, nil
}

func (s *Service) failLogin(ctx context.Context, identifier string) error {
	s.logger.WarnContext(ctx, "login failed", "email", identifier)
	if s.metrics != nil {
		s.metrics.LoginFailures.Inc()
	}
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, identifier); err != nil {
			s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
		}
	}
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

// GetProfile returns the user's account.
func (s *Service) GetProfile(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "user %s not found", userID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return user, nil
}

// UpdateProfile applies a partial update to the caller's account.
func (s *Service) UpdateProfile(ctx context.Context, userID id.UserID, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	// re-validate the overlaid shape
	validated, err := models.NewUser(user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return nil, err
	}
	validated.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, validated); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
	}
	return validated, nil
}

// RequestPasswordReset issues a single-use reset token and mails it to the
// account. Unknown emails succeed silently so the endpoint cannot be used
// to probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	user, err := s.store.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	token := uuid.NewString()
	if err := s.tokens.Save(ctx, token, user.ID, s.resetTTL); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store reset token")
	}
	if err := s.mailer.PasswordReset(ctx, user, token); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to send reset email")
	}

	s.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID)
	if s.metrics != nil {
		s.metrics.ResetsRequested.Inc()
	}
	return nil
}

// ResetPassword redeems a reset token and sets the new password. Tokens
// are single-use; expired or already-used tokens are rejected.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}

	userID, err := s.tokens.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid or expired reset token")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to redeem reset token")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, user); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}
	s.logger.InfoContext(ctx, "password reset completed", "user_id", userID)
	return nil
}
