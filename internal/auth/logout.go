package auth

import (
	"net/http"

	"github.com/saulo-duarte/goal-tracker/internal/config"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Logout revokes whatever valid token the request carries and clears the
// cookie. It succeeds even without a token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	if tokenStr, err := TokenFromRequest(r); err == nil {
		if claims, err := ValidateJWT(tokenStr); err == nil {
			Revoke(claims)
			log.WithField("user_id", claims.UserID).Info("Token revoked")
		}
	}

	ClearCookie(w)
	config.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}
