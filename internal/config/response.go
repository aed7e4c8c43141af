package config

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		Logger.WithError(err).Error("Failed to encode response")
	}
}

// Fail writes the failure envelope shared by every endpoint.
func Fail(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, map[string]interface{}{
		"success": false,
		"detail":  detail,
	})
}
