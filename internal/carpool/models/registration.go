package models

import (
	"time"

	id "fleetpool/pkg/domain"
)

// Registration is one passenger's seat on a listing. At most one
// registration may exist per (listing, passenger) pair; the store enforces
// the uniqueness.
type Registration struct {
	ID          id.RegistrationID `json:"id"`
	ListingID   id.ListingID      `json:"listing_id"`
	PassengerID id.UserID         `json:"passenger_id"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewRegistration constructs a seat registration.
func NewRegistration(registrationID id.RegistrationID, listingID id.ListingID, passengerID id.UserID, now time.Time) *Registration {
	return &Registration{
		ID:          registrationID,
		ListingID:   listingID,
		PassengerID: passengerID,
		CreatedAt:   now,
	}
}
