// Package handler exposes the vehicle inventory: fleet administration,
// availability search, and the caller's personal vehicle.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetpool/internal/platform/middleware"
	"fleetpool/internal/vehicles/models"
	"fleetpool/internal/vehicles/service"
	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/platform/httputil"
	"fleetpool/pkg/requestcontext"
)

// Service is the slice of the vehicles service this handler needs.
type Service interface {
	CreateFleetVehicle(ctx context.Context, input service.CreateFleetVehicleInput) (*models.FleetVehicle, error)
	GetFleetVehicle(ctx context.Context, vehicleID id.VehicleID) (*models.FleetVehicle, error)
	ListFleetVehicles(ctx context.Context) ([]*models.FleetVehicle, error)
	ListFleetVehiclesByStatus(ctx context.Context, status models.VehicleStatus) ([]*models.FleetVehicle, error)
	UpdateFleetVehicle(ctx context.Context, vehicleID id.VehicleID, input service.UpdateFleetVehicleInput) (*models.FleetVehicle, error)
	ChangeFleetVehicleStatus(ctx context.Context, vehicleID id.VehicleID, status models.VehicleStatus) (*models.FleetVehicle, error)
	DeleteFleetVehicle(ctx context.Context, vehicleID id.VehicleID) error
	FindAvailable(ctx context.Context, start, end time.Time) ([]*models.FleetVehicle, error)

	DeclarePersonalVehicle(ctx context.Context, ownerID id.UserID, input service.CreatePersonalVehicleInput) (*models.PersonalVehicle, error)
	GetPersonalVehicle(ctx context.Context, ownerID id.UserID) (*models.PersonalVehicle, error)
	UpdatePersonalVehicle(ctx context.Context, ownerID id.UserID, input service.UpdateFleetVehicleInput) (*models.PersonalVehicle, error)
	RemovePersonalVehicle(ctx context.Context, ownerID id.UserID) error
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

// Register mounts the routes. Everything requires authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.Route("/fleet-vehicles", func(r chi.Router) {
			r.Get("/", h.handleListFleet)
			r.Post("/", h.handleCreateFleet)
			r.Get("/available", h.handleFindAvailable)
			r.Get("/{vehicleID}", h.handleGetFleet)
			r.Put("/{vehicleID}", h.handleUpdateFleet)
			r.Put("/{vehicleID}/status", h.handleChangeStatus)
			r.Delete("/{vehicleID}", h.handleDeleteFleet)
		})

		r.Route("/me/vehicle", func(r chi.Router) {
			r.Get("/", h.handleGetPersonal)
			r.Post("/", h.handleDeclarePersonal)
			r.Put("/", h.handleUpdatePersonal)
			r.Delete("/", h.handleRemovePersonal)
		})
	})
}

func (h *Handler) handleListFleet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		vehicles []*models.FleetVehicle
		err      error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		vehicles, err = h.service.ListFleetVehiclesByStatus(ctx, models.VehicleStatus(status))
	} else {
		vehicles, err = h.service.ListFleetVehicles(ctx)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, vehicles)
}

func (h *Handler) handleFindAvailable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, err := parseTimeParam(r, "start")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	vehicles, err := h.service.FindAvailable(ctx, start, end)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, vehicles)
}

func (h *Handler) handleGetFleet(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := id.ParseVehicleID(chi.URLParam(r, "vehicleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	vehicle, err := h.service.GetFleetVehicle(r.Context(), vehicleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, vehicle)
}

func (h *Handler) handleCreateFleet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[fleetVehicleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	vehicle, err := h.service.CreateFleetVehicle(ctx, service.CreateFleetVehicleInput{
		Plate:        req.Plate,
		Make:         req.Make,
		Model:        req.Model,
		Seats:        req.Seats,
		CO2GPerKm:    req.CO2GPerKm,
		Motorization: req.Motorization,
		Category:     req.Category,
		PhotoURL:     req.PhotoURL,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "fleet vehicle creation failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, vehicle)
}

func (h *Handler) handleUpdateFleet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	vehicleID, err := id.ParseVehicleID(chi.URLParam(r, "vehicleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[updateVehicleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	vehicle, err := h.service.UpdateFleetVehicle(ctx, vehicleID, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, vehicle)
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	vehicleID, err := id.ParseVehicleID(chi.URLParam(r, "vehicleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[changeStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	vehicle, err := h.service.ChangeFleetVehicleStatus(ctx, vehicleID, req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, vehicle)
}

func (h *Handler) handleDeleteFleet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vehicleID, err := id.ParseVehicleID(chi.URLParam(r, "vehicleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteFleetVehicle(ctx, vehicleID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetPersonal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vehicle, err := h.service.GetPersonalVehicle(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, vehicle)
}

func (h *Handler) handleDeclarePersonal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[fleetVehicleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	vehicle, err := h.service.DeclarePersonalVehicle(ctx, requestcontext.UserID(ctx), service.CreatePersonalVehicleInput{
		Plate:        req.Plate,
		Make:         req.Make,
		Model:        req.Model,
		Seats:        req.Seats,
		CO2GPerKm:    req.CO2GPerKm,
		Motorization: req.Motorization,
		Category:     req.Category,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, vehicle)
}

func (h *Handler) handleUpdatePersonal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[updateVehicleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	vehicle, err := h.service.UpdatePersonalVehicle(ctx, requestcontext.UserID(ctx), req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, vehicle)
}

func (h *Handler) handleRemovePersonal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.RemovePersonalVehicle(ctx, requestcontext.UserID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// Wire types
// -----------------------------------------------------------------------------

type fleetVehicleRequest struct {
	Plate        string              `json:"plate"`
	Make         string              `json:"make"`
	Model        string              `json:"model"`
	Seats        int                 `json:"seats"`
	CO2GPerKm    *int                `json:"co2_g_per_km"`
	Motorization models.Motorization `json:"motorization"`
	Category     models.Category     `json:"category"`
	PhotoURL     string              `json:"photo_url"`
}

type updateVehicleRequest struct {
	Plate     *string `json:"plate"`
	Make      *string `json:"make"`
	Model     *string `json:"model"`
	Seats     *int    `json:"seats"`
	CO2GPerKm *int    `json:"co2_g_per_km"`
	PhotoURL  *string `json:"photo_url"`
}

func (r *updateVehicleRequest) toInput() service.UpdateFleetVehicleInput {
	return service.UpdateFleetVehicleInput{
		Plate:     r.Plate,
		Make:      r.Make,
		Model:     r.Model,
		Seats:     r.Seats,
		CO2GPerKm: r.CO2GPerKm,
		PhotoURL:  r.PhotoURL,
	}
}

type changeStatusRequest struct {
	Status models.VehicleStatus `json:"status"`
}

func (r *changeStatusRequest) Validate() error {
	if !r.Status.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown vehicle status %q", r.Status)
	}
	return nil
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput, "%s query parameter is required", name)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput, "%s must be RFC 3339", name)
	}
	return t, nil
}
