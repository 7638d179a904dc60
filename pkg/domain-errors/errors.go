// Package domainerrors provides coded errors for the booking domain.
//
// Services return these so callers (HTTP handlers, tests) can branch on the
// semantic category without string matching. Stores do NOT use this package;
// they return pkg/platform/sentinel errors and services translate.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the semantic category of a domain error. Every validation rule the
// engine enforces surfaces as exactly one of these.
type Code string

const (
	// Ambient categories.
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeRateLimited  Code = "rate_limited"
	CodeInternal     Code = "internal"

	// Booking-consistency categories.
	CodeInvalidTimeRange        Code = "invalid_time_range"
	CodeVehicleNotAvailable     Code = "vehicle_not_available"
	CodeVehicleUnavailable      Code = "vehicle_unavailable"
	CodeUserDoubleBooked        Code = "user_double_booked"
	CodeNotOwner                Code = "not_owner"
	CodeNotOrganizer            Code = "not_organizer"
	CodeSeatsAlreadyTaken       Code = "seats_already_taken"
	CodeNoSeatsAvailable        Code = "no_seats_available"
	CodeAlreadyRegistered       Code = "already_registered"
	CodeOrganizerCannotRegister Code = "organizer_cannot_register"
	CodeNoRegistration          Code = "no_registration"
	CodeCarpoolConflict         Code = "carpool_conflict"
	CodeNoVehicleSpecified      Code = "no_vehicle_specified"
	CodeNoVehicleFound          Code = "no_vehicle_found"
	CodeRouteUnavailable        Code = "route_unavailable"
)

// Error is a domain error with a semantic code and optional structured
// details (e.g. the list of conflicting listings on a carpool conflict).
type Error struct {
	Code    Code
	Message string
	Details map[string]any

	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// New builds a domain error with the given code.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, keeping the cause
// reachable through errors.Is / errors.Unwrap.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, wrapped: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var dErr *Error
	for errors.As(err, &dErr) {
		if dErr.Code == code {
			return true
		}
		err = dErr.wrapped
	}
	return false
}

// CodeOf returns the outermost domain code of err, or CodeInternal for
// non-domain errors.
func CodeOf(err error) Code {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return CodeInternal
}

// Add attaches a structured detail to a domain error and returns it. On
// non-domain errors it is a no-op passthrough.
func Add(err error, key string, value any) error {
	var dErr *Error
	if !errors.As(err, &dErr) {
		return err
	}
	if dErr.Details == nil {
		dErr.Details = make(map[string]any)
	}
	dErr.Details[key] = value
	return err
}

// Load retrieves a structured detail from a domain error.
func Load(err error, key string) (any, bool) {
	var dErr *Error
	if !errors.As(err, &dErr) || dErr.Details == nil {
		return nil, false
	}
	value, ok := dErr.Details[key]
	return value, ok
}

// ToHTTPStatus maps a code to the HTTP status the transport layer writes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidation, CodeInvalidTimeRange, CodeNoVehicleSpecified, CodeRouteUnavailable:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeNotOwner, CodeNotOrganizer, CodeOrganizerCannotRegister:
		return http.StatusForbidden
	case CodeNotFound, CodeNoRegistration:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeConflict, CodeVehicleNotAvailable, CodeVehicleUnavailable, CodeUserDoubleBooked,
		CodeSeatsAlreadyTaken, CodeNoSeatsAvailable, CodeAlreadyRegistered, CodeCarpoolConflict:
		return http.StatusConflict
	case CodeNoVehicleFound:
		// Data-integrity fault, not a user mistake.
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
