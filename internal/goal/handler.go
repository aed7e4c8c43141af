package goal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/saulo-duarte/goal-tracker/internal/auth"
	"github.com/saulo-duarte/goal-tracker/internal/config"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var dto CreateGoalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		config.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal, err := h.service.Create(r.Context(), userID, dto)
	if err != nil {
		h.fail(w, r, err, "Failed to create goal")
		return
	}

	config.JSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"goal":    goal,
	})
}

func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	owner, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	goals, err := h.service.ListByUser(r.Context(), userID, owner)
	if err != nil {
		h.fail(w, r, err, "Failed to list goals")
		return
	}

	config.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"goals":   goals,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	goal, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		h.fail(w, r, err, "Failed to load goal")
		return
	}

	config.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"goal":    goal,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var dto UpdateGoalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil || dto.ID == 0 {
		config.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal, err := h.service.Update(r.Context(), userID, dto)
	if err != nil {
		h.fail(w, r, err, "Failed to update goal")
		return
	}

	config.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"goal":    goal,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.fail(w, r, err, "Failed to delete goal")
		return
	}

	config.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Goal deleted successfully",
	})
}

func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	owner, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	suggestions, err := h.service.Suggestions(r.Context(), userID, owner)
	if err != nil {
		h.fail(w, r, err, "Error getting suggestions")
		return
	}

	config.JSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"suggestions": suggestions,
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidCategory):
		config.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrGoalNotFound):
		config.Fail(w, http.StatusNotFound, "Goal not found")
	case errors.Is(err, ErrForbidden):
		config.Fail(w, http.StatusForbidden, "Not authorized")
	default:
		config.WithContext(r.Context()).WithError(err).Error(msg)
		config.Fail(w, http.StatusInternalServerError, msg)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		config.WithContext(r.Context()).Warn("User not authenticated")
		config.Fail(w, http.StatusUnauthorized, "Not authenticated")
		return 0, false
	}
	return userID, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		config.Fail(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}
