package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	carpoolmodels "fleetpool/internal/carpool/models"
	usermodels "fleetpool/internal/users/models"
	id "fleetpool/pkg/domain"
)

// UserReader resolves a recipient's address and name.
type UserReader interface {
	FindByID(ctx context.Context, userID id.UserID) (*usermodels.User, error)
}

// Service composes and delivers the messages the other modules need sent.
// It satisfies both the users module's ResetMailer and the carpool module's
// Notifier.
type Service struct {
	mailer Mailer
	users  UserReader
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(mailer Mailer, users UserReader, opts ...Option) *Service {
	s := &Service{
		mailer: mailer,
		users:  users,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PasswordReset mails the single-use reset token to the account.
func (s *Service) PasswordReset(ctx context.Context, user *usermodels.User, token string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"A password reset was requested for your account. Use this token to choose a new password:\n\n"+
			"    %s\n\n"+
			"The token is valid for a limited time and can be used only once. "+
			"If you did not request a reset, you can ignore this message.\n",
		user.FullName(), token)

	if err := s.mailer.Send(ctx, user.Email, "Password reset", body); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password reset mail sent", "user_id", user.ID)
	return nil
}

// ListingCancelled tells a passenger that a trip they held a seat on was
// cancelled by its organizer.
func (s *Service) ListingCancelled(ctx context.Context, passengerID id.UserID, listing *carpoolmodels.Listing) error {
	passenger, err := s.users.FindByID(ctx, passengerID)
	if err != nil {
		return fmt.Errorf("resolve passenger %s: %w", passengerID, err)
	}

	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"The carpool from %s to %s departing %s was cancelled by its organizer. "+
			"Your seat registration has been removed.\n",
		passenger.FullName(),
		listing.DepartureAddress.City,
		listing.ArrivalAddress.City,
		listing.Departure.Format(time.RFC1123))

	if err := s.mailer.Send(ctx, passenger.Email, "Carpool cancelled", body); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "cancellation mail sent", "user_id", passengerID, "listing_id", listing.ID)
	return nil
}
