package middlewares

import (
	"net/http"

	"github.com/saulo-duarte/goal-tracker/internal/config"
)

// CorsMiddleware allows the browser clients configured in ALLOWED_ORIGIN to
// call the API with credentials.
func CorsMiddleware(next http.Handler) http.Handler {
	allowed := config.GetEnv("ALLOWED_ORIGIN", "http://localhost:3000")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed == "*" || origin == allowed) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
