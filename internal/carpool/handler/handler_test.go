package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"fleetpool/internal/carpool/models"
	"fleetpool/internal/carpool/service"
	"fleetpool/internal/carpool/store/listing"
	"fleetpool/internal/carpool/store/registration"
	"fleetpool/internal/jwttoken"
	vehmodels "fleetpool/internal/vehicles/models"
	"fleetpool/internal/vehicles/store/fleetvehicle"
	"fleetpool/internal/vehicles/store/personalvehicle"
	id "fleetpool/pkg/domain"
	"fleetpool/pkg/platform/middleware/requesttime"
)

// =============================================================================
// Carpool Handler Test Suite
// =============================================================================
// Justification for unit tests:
// - The wire-level concerns live here: the bearer token resolving to the
//   organizer or passenger, and the partial update distinguishing a null
//   fleet_vehicle_id (clear) from an absent one (keep).
// =============================================================================

type stubPlanner struct{}

func (stubPlanner) ComputeRoute(context.Context, models.Address, models.Address) (service.Route, error) {
	return service.Route{DistanceKm: 42, DurationMinutes: 50}, nil
}

type silentNotifier struct {
	notified []id.UserID
}

func (n *silentNotifier) ListingCancelled(_ context.Context, passengerID id.UserID, _ *models.Listing) error {
	n.notified = append(n.notified, passengerID)
	return nil
}

type CarpoolHandlerSuite struct {
	suite.Suite
	router   chi.Router
	jwt      *jwttoken.Service
	personal *personalvehicle.InMemory
	notifier *silentNotifier

	organizer      id.UserID
	organizerToken string
	passenger      id.UserID
	passengerToken string
	vehicle        *vehmodels.FleetVehicle
}

func TestCarpoolHandlerSuite(t *testing.T) {
	suite.Run(t, new(CarpoolHandlerSuite))
}

func (s *CarpoolHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.jwt = jwttoken.New("test-signing-key", "fleetpool-test", time.Hour)

	fleet := fleetvehicle.NewInMemory()
	s.personal = personalvehicle.NewInMemory()
	s.notifier = &silentNotifier{}

	var err error
	s.vehicle, err = vehmodels.NewFleetVehicle(id.NewVehicleID(), "AB-123-CD", "Renault", "Kangoo", 5)
	s.Require().NoError(err)
	s.Require().NoError(fleet.Create(context.Background(), s.vehicle))

	carpool := service.New(listing.NewInMemory(), registration.NewInMemory(), fleet, s.personal, stubPlanner{}, s.notifier,
		service.WithLogger(logger))

	s.organizer = id.NewUserID()
	s.organizerToken = s.token(s.organizer, "organizer@corp.example")
	s.passenger = id.NewUserID()
	s.passengerToken = s.token(s.passenger, "passenger@corp.example")

	s.router = chi.NewRouter()
	s.router.Use(requesttime.Middleware)
	New(carpool, s.jwt, logger).Register(s.router)
}

func (s *CarpoolHandlerSuite) token(userID id.UserID, email string) string {
	token, err := s.jwt.GenerateAccessToken(userID, email)
	s.Require().NoError(err)
	return token
}

func (s *CarpoolHandlerSuite) do(method, path, token string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *CarpoolHandlerSuite) createListing() id.ListingID {
	departure := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	body := []byte(fmt.Sprintf(`{
		"departure": %q,
		"departure_address": {"number":"10","street":"Rue de la Paix","postal_code":"75002","city":"Paris"},
		"arrival_address": {"street":"Place Bellecour","postal_code":"69002","city":"Lyon"},
		"fleet_vehicle_id": %q
	}`, departure, s.vehicle.ID))

	rec := s.do(http.MethodPost, "/carpools", s.organizerToken, body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID id.ListingID `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	return created.ID
}

func (s *CarpoolHandlerSuite) TestCreateAndGet() {
	listingID := s.createListing()

	rec := s.do(http.MethodGet, "/carpools/"+listingID.String(), s.passengerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var summary struct {
		Listing struct {
			DistanceKm      int `json:"distance_km"`
			DurationMinutes int `json:"duration_minutes"`
		} `json:"listing"`
		TotalSeats    int `json:"total_seats"`
		OccupiedSeats int `json:"occupied_seats"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &summary))
	s.Equal(42, summary.Listing.DistanceKm, "route enrichment filled the distance")
	s.Equal(50, summary.Listing.DurationMinutes)
	s.Equal(4, summary.TotalSeats, "five seats minus the organizer's")
	s.Equal(0, summary.OccupiedSeats)
}

func (s *CarpoolHandlerSuite) TestSeatRegistration() {
	listingID := s.createListing()
	registerPath := "/carpools/" + listingID.String() + "/register"

	s.Run("organizer cannot take a seat", func() {
		rec := s.do(http.MethodPost, registerPath, s.organizerToken, nil)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("passenger registers once", func() {
		rec := s.do(http.MethodPost, registerPath, s.passengerToken, nil)
		s.Equal(http.StatusCreated, rec.Code, rec.Body.String())

		rec = s.do(http.MethodPost, registerPath, s.passengerToken, nil)
		s.Equal(http.StatusConflict, rec.Code, "double registration is refused")
	})

	s.Run("participants lists the passenger", func() {
		rec := s.do(http.MethodGet, "/carpools/"+listingID.String()+"/participants", s.organizerToken, nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var participants []struct {
			PassengerID id.UserID `json:"passenger_id"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &participants))
		s.Require().Len(participants, 1)
		s.Equal(s.passenger, participants[0].PassengerID)
	})

	s.Run("unregister frees the seat", func() {
		rec := s.do(http.MethodDelete, registerPath, s.passengerToken, nil)
		s.Equal(http.StatusNoContent, rec.Code)

		rec = s.do(http.MethodDelete, registerPath, s.passengerToken, nil)
		s.Equal(http.StatusNotFound, rec.Code, "no registration to remove")
	})
}

func (s *CarpoolHandlerSuite) TestUpdateFleetVehicleField() {
	listingID := s.createListing()
	path := "/carpools/" + listingID.String()

	s.Run("absent field keeps the vehicle", func() {
		rec := s.do(http.MethodPut, path, s.organizerToken, []byte(`{"distance_km": 100}`))
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

		var updated struct {
			DistanceKm     int           `json:"distance_km"`
			FleetVehicleID *id.VehicleID `json:"fleet_vehicle_id"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &updated))
		s.Equal(100, updated.DistanceKm)
		s.Require().NotNil(updated.FleetVehicleID)
		s.Equal(s.vehicle.ID, *updated.FleetVehicleID)
	})

	s.Run("explicit null requires a personal vehicle", func() {
		rec := s.do(http.MethodPut, path, s.organizerToken, []byte(`{"fleet_vehicle_id": null}`))
		s.Equal(http.StatusBadRequest, rec.Code, "organizer owns no personal vehicle yet")

		car, err := vehmodels.NewPersonalVehicle(id.NewVehicleID(), s.organizer, "EF-456-GH", "Peugeot", "208", 4)
		s.Require().NoError(err)
		s.Require().NoError(s.personal.Create(context.Background(), car))

		rec = s.do(http.MethodPut, path, s.organizerToken, []byte(`{"fleet_vehicle_id": null}`))
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

		var updated struct {
			FleetVehicleID *id.VehicleID `json:"fleet_vehicle_id"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &updated))
		s.Nil(updated.FleetVehicleID, "listing reverted to the personal vehicle")
	})

	s.Run("only the organizer may update", func() {
		rec := s.do(http.MethodPut, path, s.passengerToken, []byte(`{"distance_km": 1}`))
		s.Equal(http.StatusForbidden, rec.Code)
	})
}

func (s *CarpoolHandlerSuite) TestDeleteNotifiesPassengers() {
	listingID := s.createListing()
	path := "/carpools/" + listingID.String()

	rec := s.do(http.MethodPost, path+"/register", s.passengerToken, nil)
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.Run("passenger cannot delete", func() {
		rec := s.do(http.MethodDelete, path, s.passengerToken, nil)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("organizer deletes and the passenger is told", func() {
		rec := s.do(http.MethodDelete, path, s.organizerToken, nil)
		s.Require().Equal(http.StatusNoContent, rec.Code)
		s.Equal([]id.UserID{s.passenger}, s.notifier.notified)

		rec = s.do(http.MethodGet, path, s.organizerToken, nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}
