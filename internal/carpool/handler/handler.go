// Package handler exposes the carpool endpoints: listings, the seat
// ledger, and participant queries.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetpool/internal/carpool/models"
	"fleetpool/internal/carpool/service"
	"fleetpool/internal/platform/middleware"
	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/platform/httputil"
	"fleetpool/pkg/requestcontext"
)

// Service is the slice of the carpool service this handler needs.
type Service interface {
	CreateListing(ctx context.Context, userID id.UserID, input service.CreateListingInput) (*models.Listing, error)
	GetListing(ctx context.Context, listingID id.ListingID) (*models.SeatSummary, error)
	ListListings(ctx context.Context) ([]*models.SeatSummary, error)
	ListByPassenger(ctx context.Context, userID id.UserID) ([]*models.Listing, error)
	ListParticipants(ctx context.Context, listingID id.ListingID) ([]*models.Registration, error)
	UpdateListing(ctx context.Context, userID id.UserID, listingID id.ListingID, input service.UpdateListingInput) (*models.Listing, error)
	DeleteListing(ctx context.Context, userID id.UserID, listingID id.ListingID) error
	Register(ctx context.Context, userID id.UserID, listingID id.ListingID) (*models.Registration, error)
	Unregister(ctx context.Context, userID id.UserID, listingID id.ListingID) error
}

type Handler struct {
	service   Service
	validator middleware.JWTValidator
	logger    *slog.Logger
}

func New(service Service, validator middleware.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// Register mounts the routes behind authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.Route("/carpools", func(r chi.Router) {
			r.Get("/", h.handleList)
			r.Post("/", h.handleCreate)
			r.Get("/mine", h.handleListMine)
			r.Get("/{listingID}", h.handleGet)
			r.Put("/{listingID}", h.handleUpdate)
			r.Delete("/{listingID}", h.handleDelete)
			r.Get("/{listingID}/participants", h.handleParticipants)
			r.Post("/{listingID}/register", h.handleRegisterSeat)
			r.Delete("/{listingID}/register", h.handleUnregisterSeat)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[createListingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	listing, err := h.service.CreateListing(ctx, requestcontext.UserID(ctx), service.CreateListingInput{
		Departure:        req.Departure,
		DurationMinutes:  req.DurationMinutes,
		DistanceKm:       req.DistanceKm,
		DepartureAddress: req.DepartureAddress,
		ArrivalAddress:   req.ArrivalAddress,
		FleetVehicleID:   req.FleetVehicleID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "listing creation failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, listing)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListListings(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listings, err := h.service.ListByPassenger(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listings)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	listingID, err := id.ParseListingID(chi.URLParam(r, "listingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.service.GetListing(r.Context(), listingID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleParticipants(w http.ResponseWriter, r *http.Request) {
	listingID, err := id.ParseListingID(chi.URLParam(r, "listingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	participants, err := h.service.ListParticipants(r.Context(), listingID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, participants)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	listingID, err := id.ParseListingID(chi.URLParam(r, "listingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[updateListingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	input, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	listing, err := h.service.UpdateListing(ctx, requestcontext.UserID(ctx), listingID, input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listingID, err := id.ParseListingID(chi.URLParam(r, "listingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteListing(ctx, requestcontext.UserID(ctx), listingID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRegisterSeat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	listingID, err := id.ParseListingID(chi.URLParam(r, "listingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	registration, err := h.service.Register(ctx, requestcontext.UserID(ctx), listingID)
	if err != nil {
		h.logger.WarnContext(ctx, "seat registration rejected",
			"request_id", requestID,
			"listing_id", listingID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, registration)
}

func (h *Handler) handleUnregisterSeat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listingID, err := id.ParseListingID(chi.URLParam(r, "listingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Unregister(ctx, requestcontext.UserID(ctx), listingID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// Wire types
// -----------------------------------------------------------------------------

type createListingRequest struct {
	Departure        time.Time      `json:"departure"`
	DurationMinutes  int            `json:"duration_minutes"`
	DistanceKm       int            `json:"distance_km"`
	DepartureAddress models.Address `json:"departure_address"`
	ArrivalAddress   models.Address `json:"arrival_address"`
	FleetVehicleID   *id.VehicleID  `json:"fleet_vehicle_id"`
}

func (r *createListingRequest) Validate() error {
	if r.Departure.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "departure is required")
	}
	return nil
}

// updateListingRequest keeps fleet_vehicle_id as raw JSON: an explicit null
// clears the fleet vehicle (revert to personal-vehicle-backed), while an
// absent field keeps the current one.
type updateListingRequest struct {
	Departure        *time.Time      `json:"departure"`
	DurationMinutes  *int            `json:"duration_minutes"`
	DistanceKm       *int            `json:"distance_km"`
	DepartureAddress *models.Address `json:"departure_address"`
	ArrivalAddress   *models.Address `json:"arrival_address"`
	FleetVehicleID   json.RawMessage `json:"fleet_vehicle_id"`
}

var jsonNull = []byte("null")

func (r *updateListingRequest) toInput() (service.UpdateListingInput, error) {
	input := service.UpdateListingInput{
		Departure:        r.Departure,
		DurationMinutes:  r.DurationMinutes,
		DistanceKm:       r.DistanceKm,
		DepartureAddress: r.DepartureAddress,
		ArrivalAddress:   r.ArrivalAddress,
	}

	switch {
	case len(r.FleetVehicleID) == 0:
		// field absent: keep the current vehicle
	case bytes.Equal(bytes.TrimSpace(r.FleetVehicleID), jsonNull):
		input.ClearFleetVehicle = true
	default:
		var vehicleID id.VehicleID
		if err := json.Unmarshal(r.FleetVehicleID, &vehicleID); err != nil {
			return input, dErrors.New(dErrors.CodeInvalidInput, "fleet_vehicle_id must be a UUID or null")
		}
		input.FleetVehicleID = &vehicleID
	}
	return input, nil
}
