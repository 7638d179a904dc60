package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fleetpool/pkg/domain-errors"
)

// TestParseID_Invariants validates the shared parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs".
func TestParseID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseVehicleID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseReservationID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseListingID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, ListingID(valid), id)
	})
}

// TestTypeDistinction documents that the compiler enforces aggregate
// boundaries. If these types ever become aliases, the commented assignments
// would compile and the invariant is broken.
func TestTypeDistinction(t *testing.T) {
	userID := UserID(uuid.New())
	vehicleID := VehicleID(uuid.New())

	// var _ UserID = vehicleID        // compile error
	// var _ ReservationID = userID    // compile error

	assert.NotEqual(t, uuid.UUID(userID), uuid.UUID(vehicleID))
}

func TestIsNil(t *testing.T) {
	assert.True(t, UserID{}.IsNil())
	assert.True(t, VehicleID(uuid.Nil).IsNil())
	assert.False(t, NewReservationID().IsNil())
	assert.False(t, NewRegistrationID().IsNil())
}
