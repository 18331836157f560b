package point

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

type balanceResponse struct {
	UserID int64 `json:"user_id"`
	Points int64 `json:"points"`
}

type drawRequest struct {
	UserID int64 `json:"user_id"`
}

// GetBalance handles GET /points/users/{userId}/balance and /points/me/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetUser(w, r)
	if !ok {
		return
	}

	points, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, balanceResponse{UserID: userID, Points: points})
}

// GetHistory handles GET /points/users/{userId}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	req, ok := pageRequest(w, r)
	if !ok {
		return
	}

	page, err := h.service.GetHistory(r.Context(), userID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, page)
}

// ListBoxDraws handles GET /points/users/{userId}/box-draws
func (h *Handler) ListBoxDraws(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	req, ok := pageRequest(w, r)
	if !ok {
		return
	}

	page, err := h.service.ListBoxDraws(r.Context(), userID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, page)
}

// Draw handles POST /points/box-draw. The body is optional; a user_id in it
// must match the token.
func (h *Handler) Draw(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	if callerID == 0 {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req drawRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, response.ErrEmptyBody) {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.UserID != 0 && req.UserID != callerID {
		response.Forbidden(w, "Cannot draw for another user")
		return
	}

	result, err := h.service.Draw(r.Context(), callerID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Created(w, result)
}

// targetUser resolves {userId} (or the caller on /me routes); only the owner may read.
func (h *Handler) targetUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	callerID := middleware.GetUserID(r.Context())
	if callerID == 0 {
		response.Unauthorized(w, "Authentication required")
		return 0, false
	}

	raw := chi.URLParam(r, "userId")
	if raw == "" {
		return callerID, true
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		response.BadRequest(w, "userId must be a positive integer")
		return 0, false
	}
	if userID != callerID {
		response.Forbidden(w, "Cannot access another user's points")
		return 0, false
	}
	return userID, true
}

func pageRequest(w http.ResponseWriter, r *http.Request) (PageRequest, bool) {
	c, err := pagination.ParseCursor(r)
	if err != nil {
		response.BadRequest(w, "limit and cursor must be integers")
		return PageRequest{}, false
	}
	return PageRequest{Limit: c.Limit, Cursor: c.Cursor}, true
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var cooldown *CooldownError
	switch {
	case errors.As(err, &cooldown):
		remaining := strconv.FormatInt(cooldown.RemainingTotalSeconds, 10)
		response.RetryLater(w, cooldown.RemainingTotalSeconds, "DRAW_COOLDOWN", cooldown.Message(), map[string]string{
			"remaining_total_seconds": remaining,
		})
	case errors.Is(err, ErrInvalidInput):
		response.BadRequest(w, "Invalid userId, limit or cursor")
	case errors.Is(err, ErrUserNotFound):
		response.NotFound(w, "User not found")
	default:
		logger.LogError(r.Context(), err, "point request failed", "path", r.URL.Path)
		response.InternalError(w)
	}
}

// Routes mounts under /points
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/box-draw", h.Draw)

	r.Route("/users/{userId}", func(r chi.Router) {
		r.Get("/balance", h.GetBalance)
		r.Get("/history", h.GetHistory)
		r.Get("/box-draws", h.ListBoxDraws)
	})

	r.Route("/me", func(r chi.Router) {
		r.Get("/balance", h.GetBalance)
		r.Get("/history", h.GetHistory)
		r.Get("/box-draws", h.ListBoxDraws)
	})

	return r
}
