// Package handler exposes the fleet reservation endpoints. Every route
// operates on the authenticated caller's bookings.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetpool/internal/platform/middleware"
	"fleetpool/internal/reservations/models"
	"fleetpool/internal/reservations/service"
	id "fleetpool/pkg/domain"
	dErrors "fleetpool/pkg/domain-errors"
	"fleetpool/pkg/platform/httputil"
	"fleetpool/pkg/requestcontext"
)

// Service is the slice of the reservations service this handler needs.
type Service interface {
	Create(ctx context.Context, userID id.UserID, input service.CreateInput) (*models.Reservation, error)
	Get(ctx context.Context, userID id.UserID, reservationID id.ReservationID) (*models.Reservation, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Reservation, error)
	ListByVehicle(ctx context.Context, vehicleID id.VehicleID) ([]*models.Reservation, error)
	FindByUserCovering(ctx context.Context, userID id.UserID, start time.Time, durationMinutes int) (*models.Reservation, error)
	Update(ctx context.Context, userID id.UserID, reservationID id.ReservationID, input service.UpdateInput) (*models.Reservation, error)
	Delete(ctx context.Context, userID id.UserID, reservationID id.ReservationID) error
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

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", h.handleListMine)
			r.Post("/", h.handleCreate)
			r.Get("/covering", h.handleFindCovering)
			r.Get("/vehicle/{vehicleID}", h.handleListByVehicle)
			r.Get("/{reservationID}", h.handleGet)
			r.Put("/{reservationID}", h.handleUpdate)
			r.Delete("/{reservationID}", h.handleDelete)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[createRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reservation, err := h.service.Create(ctx, requestcontext.UserID(ctx), service.CreateInput{
		VehicleID: req.VehicleID,
		Start:     req.Start,
		End:       req.End,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "reservation rejected",
			"request_id", requestID,
			"vehicle_id", req.VehicleID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, reservation)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reservationID, err := id.ParseReservationID(chi.URLParam(r, "reservationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reservation, err := h.service.Get(ctx, requestcontext.UserID(ctx), reservationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reservations, err := h.service.ListByUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reservations)
}

func (h *Handler) handleListByVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vehicleID, err := id.ParseVehicleID(chi.URLParam(r, "vehicleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reservations, err := h.service.ListByVehicle(ctx, vehicleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reservations)
}

// handleFindCovering answers "which fleet vehicle do I hold over this
// period": GET /reservations/covering?start=...&duration_minutes=...
func (h *Handler) handleFindCovering(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "start must be RFC 3339"))
		return
	}
	durationMinutes, err := strconv.Atoi(r.URL.Query().Get("duration_minutes"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "duration_minutes must be an integer"))
		return
	}

	reservation, err := h.service.FindByUserCovering(ctx, requestcontext.UserID(ctx), start, durationMinutes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	reservationID, err := id.ParseReservationID(chi.URLParam(r, "reservationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[updateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reservation, err := h.service.Update(ctx, requestcontext.UserID(ctx), reservationID, service.UpdateInput{
		VehicleID: req.VehicleID,
		Start:     req.Start,
		End:       req.End,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	reservationID, err := id.ParseReservationID(chi.URLParam(r, "reservationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, requestcontext.UserID(ctx), reservationID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeCarpoolConflict) {
			h.logger.WarnContext(ctx, "reservation deletion blocked by carpool listings",
				"request_id", requestID,
				"reservation_id", reservationID,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// Wire types
// -----------------------------------------------------------------------------

type createRequest struct {
	VehicleID id.VehicleID `json:"vehicle_id"`
	Start     time.Time    `json:"start"`
	End       time.Time    `json:"end"`
}

func (r *createRequest) Validate() error {
	if r.VehicleID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "vehicle_id is required")
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "start and end are required")
	}
	return nil
}

type updateRequest struct {
	VehicleID *id.VehicleID `json:"vehicle_id"`
	Start     *time.Time    `json:"start"`
	End       *time.Time    `json:"end"`
}
