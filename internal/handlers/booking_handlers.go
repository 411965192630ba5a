package handlers

import (
	"net/http"
	"strings"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
)

// ListMyBookings lists the caller's bookings as a renter
func (h *Handlers) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingService.ListMine(r.Context(), currentUser(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// ListBookingRequests lists bookings on the caller's properties
func (h *Handlers) ListBookingRequests(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingService.ListRequests(r.Context(), currentUser(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookingRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	booking, replayed, err := h.bookingService.Create(r.Context(), currentUser(r), &req, key)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, booking)
}

// UpdateBooking edits the dates of the caller's booking. A booking the caller
// does not own yields a null body.
func (h *Handlers) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var patch domain.BookingPatch
	if err := h.decodeJSON(w, r, &patch); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	booking, err := h.bookingService.Update(r.Context(), currentUser(r), id, &patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req domain.StatusUpdateRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	booking, err := h.bookingService.UpdateStatus(r.Context(), currentUser(r), id, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handlers) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.bookingService.Delete(r.Context(), currentUser(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Booking deleted"})
}
