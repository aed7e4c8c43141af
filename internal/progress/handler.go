package progress

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/saulo-duarte/goal-tracker/internal/auth"
	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/saulo-duarte/goal-tracker/internal/goal"
)

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) AddUpdate(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, goalID, ok := identify(w, r)
	if !ok {
		return
	}

	var dto AddUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		config.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update, err := h.service.Add(r.Context(), userID, goalID, dto.UpdateText)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingText):
			config.Fail(w, http.StatusBadRequest, "Update text required")
		case errors.Is(err, goal.ErrGoalNotFound):
			config.Fail(w, http.StatusNotFound, "Goal not found")
		default:
			log.WithError(err).Error("Progress update failed")
			config.Fail(w, http.StatusInternalServerError, "Progress update failed")
		}
		return
	}

	config.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"update":  update,
	})
}

func (h *Handler) ListUpdates(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, goalID, ok := identify(w, r)
	if !ok {
		return
	}

	updates, err := h.service.List(r.Context(), userID, goalID)
	if err != nil {
		if errors.Is(err, goal.ErrGoalNotFound) {
			config.Fail(w, http.StatusNotFound, "Goal not found")
			return
		}
		log.WithError(err).Error("Failed to list progress updates")
		config.Fail(w, http.StatusInternalServerError, "Error fetching progress updates")
		return
	}

	config.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"updates": updates,
	})
}

func identify(w http.ResponseWriter, r *http.Request) (userID, goalID int64, ok bool) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		config.Fail(w, http.StatusUnauthorized, "Not authenticated")
		return 0, 0, false
	}
	goalID, err = strconv.ParseInt(chi.URLParam(r, "goalID"), 10, 64)
	if err != nil || goalID <= 0 {
		config.Fail(w, http.StatusBadRequest, "Invalid goal id")
		return 0, 0, false
	}
	return userID, goalID, true
}
