package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/photocard/photocard-api/internal/middleware"
	"github.com/photocard/photocard-api/internal/pkg/logger"
	"github.com/photocard/photocard-api/internal/pkg/response"
)

// Handler handles notification HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /notifications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 0 {
			response.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = v
	}

	result, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, result)
}

// Detail handles GET /notifications/{id}
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	result, err := h.service.Detail(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, result)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "Notification not found")
	case errors.Is(err, ErrInvalidInput):
		response.BadRequest(w, "Invalid request")
	default:
		logger.LogError(r.Context(), err, "notification request failed")
		response.InternalError(w)
	}
}

// Routes returns notification router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Get("/{id}", h.Detail)

	return r
}
