package listing

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/photocard/photocard-api/internal/middleware"
	"github.com/photocard/photocard-api/internal/pkg/logger"
	"github.com/photocard/photocard-api/internal/pkg/pagination"
	"github.com/photocard/photocard-api/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /listings
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	result, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.Created(w, result)
}

// List handles GET /listings
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	c, err := pagination.ParseCursor(r)
	if err != nil {
		response.BadRequest(w, "limit and cursor must be integers")
		return
	}

	q := r.URL.Query()
	page, err := h.service.List(r.Context(), ListQuery{
		Limit:  c.Limit,
		Cursor: c.Cursor,
		Status: q.Get("status"),
		Grade:  q.Get("grade"),
		Genre:  q.Get("genre"),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, page)
}

// Get handles GET /listings/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}
	result, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, result)
}

// Update handles PATCH /listings/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	result, err := h.service.Update(r.Context(), id, middleware.GetUserID(r.Context()), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, result)
}

// Cancel handles POST /listings/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}
	result, err := h.service.Cancel(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, result)
}

func listingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid listing ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	var qerr *QuantityError

	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid listing input", verr.Fields)
	case errors.As(err, &qerr):
		response.ErrorWithDetails(w, http.StatusConflict, "INSUFFICIENT_QUANTITY", "Not enough unlisted cards", map[string]string{
			"requested": strconv.Itoa(qerr.Requested),
			"available": strconv.Itoa(qerr.Available),
		})
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "Listing not found")
	case errors.Is(err, ErrUserCardNotFound):
		response.NotFound(w, "User card not found")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "Only the seller can change this listing")
	case errors.Is(err, ErrNotActive):
		response.Error(w, http.StatusConflict, "LISTING_NOT_ACTIVE", "Listing is no longer active")
	default:
		logger.LogError(r.Context(), err, "listing request failed")
		response.InternalError(w)
	}
}

// Routes returns listing router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
		r.Post("/{id}/cancel", h.Cancel)
	})

	return r
}
