package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/saulo-duarte/goal-tracker/internal/auth"
	"github.com/saulo-duarte/goal-tracker/internal/config"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		config.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.service.Register(r.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			config.Fail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUsernameTaken):
			config.Fail(w, http.StatusBadRequest, "Username already exists")
		case errors.Is(err, ErrEmailTaken):
			config.Fail(w, http.StatusBadRequest, "Email already exists")
		default:
			log.WithError(err).Error("Failed to register user")
			config.Fail(w, http.StatusInternalServerError, "Database error during registration")
		}
		return
	}

	config.JSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Registration successful",
		"user":    u,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		config.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Login(r.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			config.Fail(w, http.StatusBadRequest, "Missing username or password")
		case errors.Is(err, ErrInvalidCredentials):
			config.Fail(w, http.StatusUnauthorized, "Incorrect username or password")
		default:
			log.WithError(err).Error("Login failed")
			config.Fail(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	auth.SetCookie(w, resp.Token)
	config.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		config.Fail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	u, err := h.service.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			config.Fail(w, http.StatusNotFound, "User not found")
			return
		}
		log.WithError(err).Error("Failed to load user")
		config.Fail(w, http.StatusInternalServerError, "Error fetching user details")
		return
	}

	config.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    u,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		config.Fail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var dto UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		config.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.service.Update(r.Context(), userID, dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			config.Fail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUsernameTaken):
			config.Fail(w, http.StatusBadRequest, "Username already taken")
		case errors.Is(err, ErrEmailTaken):
			config.Fail(w, http.StatusBadRequest, "Email already taken")
		case errors.Is(err, ErrUserNotFound):
			config.Fail(w, http.StatusNotFound, "User not found")
		default:
			log.WithError(err).Error("Failed to update user")
			config.Fail(w, http.StatusInternalServerError, "Error updating user")
		}
		return
	}

	config.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User updated successfully",
		"user":    u,
	})
}

// Delete removes the account, revokes the token that asked for it and clears
// the cookie.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	claims, err := auth.GetUserClaimsFromContext(r.Context())
	if err != nil {
		config.Fail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		config.Fail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			config.Fail(w, http.StatusNotFound, "User not found")
			return
		}
		log.WithError(err).Error("Failed to delete user")
		config.Fail(w, http.StatusInternalServerError, "Error deleting user")
		return
	}

	auth.Revoke(claims)
	auth.ClearCookie(w)
	config.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User deleted successfully",
	})
}
