package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fleetpool/internal/jwttoken"
	ratelimitservice "fleetpool/internal/ratelimit/service"
	"fleetpool/internal/ratelimit/store/lockout"
	"fleetpool/internal/users/models"
	"fleetpool/internal/users/store/resettoken"
	userstore "fleetpool/internal/users/store/user"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/requestcontext"
)

// =============================================================================
// User Service Test Suite
// =============================================================================

type captureMailer struct {
	lastUser  *models.User
	lastToken string
	sent      int
}

func (m *captureMailer) PasswordReset(_ context.Context, user *models.User, token string) error {
	m.lastUser = user
	m.lastToken = token
	m.sent++
	return nil
}

// emailRecordingStore remembers the email each FindByEmail call received.
type emailRecordingStore struct {
	*userstore.InMemory
	lastLookup string
}

func (r *emailRecordingStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.lastLookup = email
	return r.InMemory.FindByEmail(ctx, email)
}

type UserServiceSuite struct {
	suite.Suite
	store   *userstore.InMemory
	tokens  *resettoken.InMemory
	mailer  *captureMailer
	service *Service

	ctx context.Context
	now time.Time
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.store = userstore.NewInMemory()
	s.tokens = resettoken.NewInMemory()
	s.mailer = &captureMailer{}
	issuer := jwttoken.New("test-signing-key", "fleetpool-test", time.Hour)
	s.service = New(s.store, s.tokens, issuer, s.mailer)

	s.now = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *UserServiceSuite) register(email, password string) *models.User {
	user, err := s.service.Register(s.ctx, RegisterInput{Email: email, Password: password})
	s.Require().NoError(err)
	return user
}

// =============================================================================
// Registration Tests
// =============================================================================

func (s *UserServiceSuite) TestRegister() {
	s.Run("derives names from the email local part", func() {
		user := s.register("marie.lefevre@corp.example", "s3cret-passw0rd")
		s.Equal("Marie", user.FirstName)
		s.Equal("Lefevre", user.LastName)
		s.Equal("marie.lefevre@corp.example", user.Email)
		s.NotEqual("s3cret-passw0rd", user.PasswordHash)
	})

	s.Run("explicit names win over derivation", func() {
		user, err := s.service.Register(s.ctx, RegisterInput{
			Email: "p.martin@corp.example", Password: "s3cret-passw0rd",
			FirstName: "Paul", LastName: "Martin",
		})
		s.NoError(err)
		s.Equal("Paul", user.FirstName)
	})

	s.Run("duplicate email conflicts case-insensitively", func() {
		_, err := s.service.Register(s.ctx, RegisterInput{
			Email: "MARIE.LEFEVRE@corp.example", Password: "s3cret-passw0rd",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("short passwords are rejected", func() {
		_, err := s.service.Register(s.ctx, RegisterInput{Email: "a@b.example", Password: "short"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("malformed emails are rejected", func() {
		_, err := s.service.Register(s.ctx, RegisterInput{Email: "not-an-email", Password: "s3cret-passw0rd"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Authentication Tests
// =============================================================================

func (s *UserServiceSuite) TestAuthenticate() {
	user := s.register("jean.dupont@corp.example", "s3cret-passw0rd")

	s.Run("valid credentials issue a token", func() {
		token, authenticated, err := s.service.Authenticate(s.ctx, "jean.dupont@corp.example", "s3cret-passw0rd")
		s.NoError(err)
		s.NotEmpty(token)
		s.Equal(user.ID, authenticated.ID)
	})

	s.Run("wrong password and unknown email fail identically", func() {
		_, _, badPassword := s.service.Authenticate(s.ctx, "jean.dupont@corp.example", "wrong-password")
		_, _, unknownUser := s.service.Authenticate(s.ctx, "nobody@corp.example", "s3cret-passw0rd")

		s.True(dErrors.HasCode(badPassword, dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(unknownUser, dErrors.CodeUnauthorized))
		s.Equal(badPassword.Error(), unknownUser.Error())
	})
}

// =============================================================================
// Profile Tests
// =============================================================================

func (s *UserServiceSuite) TestUpdateProfile() {
	user := s.register("claire.bernard@corp.example", "s3cret-passw0rd")

	s.Run("partial overlay keeps unsupplied fields", func() {
		firstName := "Claire-Marie"
		updated, err := s.service.UpdateProfile(s.ctx, user.ID, UpdateProfileInput{FirstName: &firstName})
		s.NoError(err)
		s.Equal("Claire-Marie", updated.FirstName)
		s.Equal(user.Email, updated.Email)
	})

	s.Run("cannot take another account's email", func() {
		s.register("other@corp.example", "s3cret-passw0rd")
		taken := "other@corp.example"
		_, err := s.service.UpdateProfile(s.ctx, user.ID, UpdateProfileInput{Email: &taken})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// =============================================================================
// Password Reset Tests
// =============================================================================

func (s *UserServiceSuite) TestPasswordReset() {
	user := s.register("luc.moreau@corp.example", "0ld-passw0rd")

	s.Run("request mails a token for a known account", func() {
		s.NoError(s.service.RequestPasswordReset(s.ctx, "luc.moreau@corp.example"))
		s.Equal(1, s.mailer.sent)
		s.Equal(user.ID, s.mailer.lastUser.ID)
		s.NotEmpty(s.mailer.lastToken)
	})

	s.Run("unknown email succeeds silently without mail", func() {
		s.NoError(s.service.RequestPasswordReset(s.ctx, "ghost@corp.example"))
		s.Equal(1, s.mailer.sent)
	})

	s.Run("token resets the password exactly once", func() {
		token := s.mailer.lastToken
		s.NoError(s.service.ResetPassword(s.ctx, token, "n3w-passw0rd!"))

		_, _, err := s.service.Authenticate(s.ctx, "luc.moreau@corp.example", "n3w-passw0rd!")
		s.NoError(err)
		_, _, err = s.service.Authenticate(s.ctx, "luc.moreau@corp.example", "0ld-passw0rd")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		err = s.service.ResetPassword(s.ctx, token, "an0ther-passw0rd")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "tokens are single-use")
	})

	s.Run("garbage tokens are rejected", func() {
		err := s.service.ResetPassword(s.ctx, "no-such-token", "n3w-passw0rd!")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// =============================================================================
// Login Throttle Tests
// =============================================================================

func (s *UserServiceSuite) TestLoginThrottle() {
	throttle := ratelimitservice.New(lockout.NewInMemory(),
		ratelimitservice.WithLimits(3, 10*time.Minute, 15*time.Minute))
	issuer := jwttoken.New("test-signing-key", "fleetpool-test", time.Hour)
	store := &emailRecordingStore{InMemory: s.store}
	s.service = New(store, s.tokens, issuer, s.mailer, WithLoginThrottle(throttle))

	s.register("jean.dupont@corp.example", "s3cret-passw0rd")

	s.Run("repeated failures lock the account out", func() {
		for i := 0; i < 3; i++ {
			_, _, err := s.service.Authenticate(s.ctx, "jean.dupont@corp.example", "wrong-password")
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		}

		_, _, err := s.service.Authenticate(s.ctx, "jean.dupont@corp.example", "s3cret-passw0rd")
		s.True(dErrors.HasCode(err, dErrors.CodeRateLimited),
			"even the right password is refused while locked")
	})

	s.Run("lock expires and success clears the history", func() {
		later := requestcontext.WithTime(context.Background(), s.now.Add(16*time.Minute))

		token, _, err := s.service.Authenticate(later, "jean.dupont@corp.example", "s3cret-passw0rd")
		s.Require().NoError(err)
		s.NotEmpty(token)

		_, _, err = s.service.Authenticate(later, "jean.dupont@corp.example", "wrong-password")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized),
			"the failure count restarted from zero")
	})

	s.Run("case and whitespace variations share one lockout", func() {
		s.register("paul.martin@corp.example", "s3cret-passw0rd")
		for _, spelling := range []string{
			"Paul.Martin@corp.example",
			"PAUL.MARTIN@CORP.EXAMPLE",
			" paul.martin@corp.example ",
		} {
			_, _, err := s.service.Authenticate(s.ctx, spelling, "wrong-password")
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized),
				"a known account with a wrong password reads as unauthorized, not not-found")
			s.Equal("paul.martin@corp.example", store.lastLookup,
				"the lookup and the lockout must key on the same normalized identifier")
		}

		_, _, err := s.service.Authenticate(s.ctx, "paul.martin@corp.example", "s3cret-passw0rd")
		s.True(dErrors.HasCode(err, dErrors.CodeRateLimited),
			"the three spellings count against the same identifier")
	})

	s.Run("other identifiers are unaffected", func() {
		s.register("marie.lefevre@corp.example", "s3cret-passw0rd")
		for i := 0; i < 3; i++ {
			s.service.Authenticate(s.ctx, "jean.dupont@corp.example", "wrong-password")
		}
		_, _, err := s.service.Authenticate(s.ctx, "marie.lefevre@corp.example", "s3cret-passw0rd")
		s.NoError(err)
	})
}
