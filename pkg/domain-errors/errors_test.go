package domainerrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("finds code on the error itself", func(t *testing.T) {
		err := New(CodeUserDoubleBooked, "overlapping reservation")
		assert.True(t, HasCode(err, CodeUserDoubleBooked))
		assert.False(t, HasCode(err, CodeVehicleUnavailable))
	})

	t.Run("finds code through wrapping", func(t *testing.T) {
		cause := New(CodeNotFound, "vehicle missing")
		err := Wrap(cause, CodeInternal, "load vehicle")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeNotFound))
	})

	t.Run("false for plain errors", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("cause stays reachable", func(t *testing.T) {
		cause := errors.New("driver error")
		err := Wrap(cause, CodeInternal, "save reservation")
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "save reservation")
	})
}

func TestDetails(t *testing.T) {
	t.Run("round-trips structured details", func(t *testing.T) {
		err := New(CodeCarpoolConflict, "vehicle in use by carpool listings")
		err = Add(err, "conflicts", []string{"a", "b"})

		value, ok := Load(err, "conflicts")
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, value)
	})

	t.Run("missing key", func(t *testing.T) {
		_, ok := Load(New(CodeConflict, "x"), "conflicts")
		assert.False(t, ok)
	})

	t.Run("no-op on plain errors", func(t *testing.T) {
		plain := errors.New("boom")
		assert.Equal(t, plain, Add(plain, "k", "v"))
	})
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidTimeRange, http.StatusBadRequest},
		{CodeNoVehicleSpecified, http.StatusBadRequest},
		{CodeRouteUnavailable, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeNotOwner, http.StatusForbidden},
		{CodeNotOrganizer, http.StatusForbidden},
		{CodeOrganizerCannotRegister, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeNoRegistration, http.StatusNotFound},
		{CodeVehicleUnavailable, http.StatusConflict},
		{CodeUserDoubleBooked, http.StatusConflict},
		{CodeSeatsAlreadyTaken, http.StatusConflict},
		{CodeNoSeatsAvailable, http.StatusConflict},
		{CodeAlreadyRegistered, http.StatusConflict},
		{CodeCarpoolConflict, http.StatusConflict},
		{CodeVehicleNotAvailable, http.StatusConflict},
		{CodeNoVehicleFound, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToHTTPStatus(tt.code), string(tt.code))
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNoSeatsAvailable, CodeOf(New(CodeNoSeatsAvailable, "full")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}
