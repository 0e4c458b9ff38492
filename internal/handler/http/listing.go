package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tusharag6/homestead-api/internal/service"
	"github.com/tusharag6/homestead-api/pkg/httputil"
	"github.com/tusharag6/homestead-api/pkg/pagination"
)

const msgDataFetched = "Data fetching successful"

// ListingHandler handles HTTP requests for listing endpoints.
type ListingHandler struct {
	service *service.ListingService
	logger  *slog.Logger
}

// NewListingHandler creates a new listing HTTP handler.
func NewListingHandler(svc *service.ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		service: svc,
		logger:  logger,
	}
}

// List handles GET /api/v1/listings?page=&limit=
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.List(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, res, msgDataFetched)
}

// Get handles GET /api/v1/listings/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, listing, msgDataFetched)
}
