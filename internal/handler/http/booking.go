package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tusharag6/homestead-api/internal/service"
	"github.com/tusharag6/homestead-api/pkg/httputil"
)

// dateLayouts are the accepted formats for booking dates.
var dateLayouts = []string{time.RFC3339, time.DateOnly}

// BookingHandler handles HTTP requests for booking endpoints. Every route
// runs behind Authenticate.
type BookingHandler struct {
	service *service.BookingService
	logger  *slog.Logger
}

// NewBookingHandler creates a new booking HTTP handler.
func NewBookingHandler(svc *service.BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ReserveRequest is the JSON request body for reserving a listing.
type ReserveRequest struct {
	ListingID      string   `json:"listingId" validate:"required"`
	NumberOfGuests int      `json:"numberOfGuests" validate:"required,gte=1"`
	NumberOfDays   int      `json:"numberOfDays" validate:"required,gte=1"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	Price          *float64 `json:"price" validate:"omitempty,gte=0"`
}

// --- Handlers ---

// Reserve handles POST /api/v1/bookings/reserve
func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ReserveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	start, ok := parseDate(w, "startDate", req.StartDate)
	if !ok {
		return
	}
	end, ok := parseDate(w, "endDate", req.EndDate)
	if !ok {
		return
	}

	booking, err := h.service.Reserve(r.Context(), userID, service.ReserveInput{
		ListingID:      req.ListingID,
		NumberOfGuests: req.NumberOfGuests,
		NumberOfDays:   req.NumberOfDays,
		StartDate:      start,
		EndDate:        end,
		Price:          req.Price,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, booking, "Booking successfully created.")
}

// ListMine handles GET /api/v1/bookings/user
func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	bookings, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, bookings, "Bookings successfully retrieved.")
}

// Get handles GET /api/v1/bookings/{id}
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	booking, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, booking, "Booking fetched.")
}

// parseDate parses an optional date field, writing a 400 on bad input.
func parseDate(w http.ResponseWriter, field, raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, true
		}
	}
	httputil.WriteFailure(w, http.StatusBadRequest, "INVALID_INPUT", field+" must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	return nil, false
}
