package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campushub/campushub-core/internal/api/respond"
	"github.com/campushub/campushub-core/internal/booking"
	"github.com/campushub/campushub-core/internal/timeslot"
)

type bookingRequest struct {
	ResourceID string `json:"resource_id"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

type bookingResponse struct {
	ID         string `json:"id"`
	ResourceID string `json:"resource_id"`
	OwnerID    string `json:"owner_id"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

func toResponse(r booking.Reservation) bookingResponse {
	return bookingResponse{
		ID:         r.ID,
		ResourceID: r.ResourceID,
		OwnerID:    r.OwnerID,
		Date:       r.Date,
		Start:      timeslot.FormatMinutes(r.StartMinute),
		End:        timeslot.FormatMinutes(r.EndMinute),
	}
}

// parseCandidate validates the wire request into a reservation candidate.
func parseCandidate(req bookingRequest, ownerID string) (booking.Reservation, string) {
	if req.ResourceID == "" {
		return booking.Reservation{}, "resource_id is required"
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return booking.Reservation{}, "date must be YYYY-MM-DD"
	}
	start, err := timeslot.ToMinutes(req.Start)
	if err != nil {
		return booking.Reservation{}, err.Error()
	}
	end, err := timeslot.ToMinutes(req.End)
	if err != nil {
		return booking.Reservation{}, err.Error()
	}
	return booking.Reservation{
		ResourceID:  req.ResourceID,
		OwnerID:     ownerID,
		Date:        req.Date,
		StartMinute: start,
		EndMinute:   end,
	}, ""
}

// CreateBooking reserves a slot for the authenticated user. A conflicting
// slot is a normal outcome (409), retryable by the user with another time.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := h.verifier.IdentityFromRequest(r)
	if err != nil {
		respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Valid bearer token required")
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return
	}
	candidate, problem := parseCandidate(req, id.UserID)
	if problem != "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", problem)
		return
	}

	newID, err := h.bookings.Create(r.Context(), candidate)
	switch {
	case errors.Is(err, booking.ErrInvalidInterval):
		respond.WriteError(w, http.StatusBadRequest, "INVALID_INTERVAL", "start must be before end")
		return
	case errors.Is(err, booking.ErrSlotTaken):
		respond.WriteError(w, http.StatusConflict, "SLOT_TAKEN", "The requested time slot is unavailable")
		return
	case err != nil:
		h.logger.Error("Create booking failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Could not create booking, try again")
		return
	}

	candidate.ID = newID
	respond.WriteJSONObject(w, http.StatusCreated, toResponse(candidate))
}

// ListBookings returns the reservations for one resource and day.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	resourceID := r.URL.Query().Get("resource")
	date := r.URL.Query().Get("date")
	if resourceID == "" || date == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "resource and date query params are required")
		return
	}

	reservations, err := h.bookings.ListDay(r.Context(), resourceID, date)
	if err != nil {
		h.logger.Error("List bookings failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Could not list bookings")
		return
	}

	out := make([]bookingResponse, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, toResponse(res))
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"resource_id": resourceID,
		"date":        date,
		"bookings":    out,
	})
}

// CheckAvailability answers whether a slot is free. Advisory only — the
// create path re-checks under its own serialization.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	candidate, problem := parseCandidate(bookingRequest{
		ResourceID: q.Get("resource"),
		Date:       q.Get("date"),
		Start:      q.Get("start"),
		End:        q.Get("end"),
	}, "")
	if problem != "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", problem)
		return
	}

	available, err := h.bookings.CheckAvailability(r.Context(), candidate)
	if errors.Is(err, booking.ErrInvalidInterval) {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_INTERVAL", "start must be before end")
		return
	}
	if err != nil {
		h.logger.Error("Availability check failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Could not check availability")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"available": available,
	})
}

// DeleteBooking cancels a reservation by id.
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	if _, err := h.verifier.IdentityFromRequest(r); err != nil {
		respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Valid bearer token required")
		return
	}

	id := chi.URLParam(r, "bookingID")
	err := h.bookings.Cancel(r.Context(), id)
	if errors.Is(err, booking.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No such booking")
		return
	}
	if err != nil {
		h.logger.Error("Delete booking failed", "id", id, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Could not delete booking")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
