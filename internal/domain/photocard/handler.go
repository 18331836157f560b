package photocard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/photocard/photocard-api/internal/middleware"
	"github.com/photocard/photocard-api/internal/pkg/logger"
	"github.com/photocard/photocard-api/internal/pkg/pagination"
	"github.com/photocard/photocard-api/internal/pkg/response"
	"github.com/photocard/photocard-api/internal/pkg/validator"
)

// Handler handles photo card HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates photo card handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// PresignImage handles POST /photocards/images
func (h *Handler) PresignImage(w http.ResponseWriter, r *http.Request) {
	var req ImageUploadRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.PresignImage(r.Context(), middleware.GetUserID(r.Context()), req.ContentType)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.Created(w, result)
}

// Create handles POST /photocards
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

// List handles GET /photocards
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	c, err := pagination.ParseCursor(r)
	if err != nil {
		response.BadRequest(w, "limit and cursor must be integers")
		return
	}

	page, err := h.service.List(r.Context(), c.Limit, c.Cursor)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, page)
}

// Get handles GET /photocards/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := cardID(w, r)
	if !ok {
		return
	}
	card, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, card)
}

// Update handles PATCH /photocards/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := cardID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	card, err := h.service.Update(r.Context(), id, middleware.GetUserID(r.Context()), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, card)
}

// Gallery handles GET /gallery
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.service.Gallery(r.Context(), middleware.GetUserID(r.Context()), GalleryQuery{
		Page:   pagination.ParseOffset(r, DefaultGalleryPageSize, MaxGalleryPageSize),
		Search: q.Get("search"),
		Grade:  q.Get("grade"),
		Genre:  q.Get("genre"),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, result)
}

func cardID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid photo card ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	var limitErr *MonthlyLimitError

	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid photo card input", verr.Fields)
	case errors.As(err, &limitErr):
		response.ErrorWithDetails(w, http.StatusTooManyRequests, "MONTHLY_LIMIT_EXCEEDED", "Monthly photo card limit reached", map[string]string{
			"limit": strconv.Itoa(limitErr.Limit),
			"used":  strconv.Itoa(limitErr.Used),
		})
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "Photo card not found")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "Only the creator can change this card")
	case errors.Is(err, ErrImageNotFound):
		response.Error(w, http.StatusBadRequest, "IMAGE_NOT_FOUND", "Upload the image before creating the card")
	case errors.Is(err, ErrStorageDisabled):
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_DISABLED", "Image uploads are not available")
	case errors.Is(err, ErrInvalidInput):
		response.Unauthorized(w, "Authentication required")
	default:
		logger.LogError(r.Context(), err, "photo card request failed")
		response.InternalError(w)
	}
}

// Routes returns photo card router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Post("/images", h.PresignImage)
		r.Patch("/{id}", h.Update)
	})

	return r
}

// GalleryRoutes returns the caller's gallery router
func (h *Handler) GalleryRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.Gallery)
	return r
}
