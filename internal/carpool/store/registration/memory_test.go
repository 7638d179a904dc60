package registration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fleetpool/internal/carpool/models"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/sentinel"
)

type RegistrationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *RegistrationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
}

func TestRegistrationStoreSuite(t *testing.T) {
	suite.Run(t, new(RegistrationStoreSuite))
}

func (s *RegistrationStoreSuite) register(listing id.ListingID, passenger id.UserID) *models.Registration {
	registration := models.NewRegistration(id.NewRegistrationID(), listing, passenger, s.now)
	s.Require().NoError(s.store.Create(s.ctx, registration))
	return registration
}

// TestPairUniqueness verifies the (listing, passenger) uniqueness rule.
func (s *RegistrationStoreSuite) TestPairUniqueness() {
	listing := id.NewListingID()
	passenger := id.NewUserID()
	s.register(listing, passenger)

	s.Run("same pair conflicts", func() {
		duplicate := models.NewRegistration(id.NewRegistrationID(), listing, passenger, s.now)
		s.ErrorIs(s.store.Create(s.ctx, duplicate), sentinel.ErrConflict)
	})

	s.Run("same passenger on another listing is fine", func() {
		s.register(id.NewListingID(), passenger)
	})

	s.Run("pair is released on delete", func() {
		registration, err := s.store.FindByListingAndPassenger(s.ctx, listing, passenger)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Delete(s.ctx, registration.ID))
		s.register(listing, passenger)
	})
}

// TestCountsAndListings verifies the reads the seat ledger depends on.
func (s *RegistrationStoreSuite) TestCountsAndListings() {
	listing := id.NewListingID()
	first := id.NewUserID()
	s.register(listing, first)
	s.register(listing, id.NewUserID())
	s.register(id.NewListingID(), first)

	count, err := s.store.CountByListing(s.ctx, listing)
	s.Require().NoError(err)
	s.Equal(2, count)

	byListing, err := s.store.ListByListing(s.ctx, listing)
	s.Require().NoError(err)
	s.Len(byListing, 2)

	byPassenger, err := s.store.ListByPassenger(s.ctx, first)
	s.Require().NoError(err)
	s.Len(byPassenger, 2)
}

// TestCascadeDelete verifies DeleteByListing removes a listing's
// registrations and nothing else.
func (s *RegistrationStoreSuite) TestCascadeDelete() {
	doomed := id.NewListingID()
	survivor := id.NewListingID()
	passenger := id.NewUserID()
	s.register(doomed, passenger)
	s.register(doomed, id.NewUserID())
	s.register(survivor, passenger)

	s.Require().NoError(s.store.DeleteByListing(s.ctx, doomed))

	count, err := s.store.CountByListing(s.ctx, doomed)
	s.Require().NoError(err)
	s.Equal(0, count)

	_, err = s.store.FindByListingAndPassenger(s.ctx, survivor, passenger)
	s.Require().NoError(err)

	// the doomed listing's pairs are free again
	s.register(doomed, passenger)
}
