package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/saulo-duarte/goal-tracker/internal/middlewares"
)

func newCors(t *testing.T, allowed string) (http.Handler, *bool) {
	t.Helper()
	t.Setenv("ALLOWED_ORIGIN", allowed)
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	return middlewares.CorsMiddleware(next), &reached
}

func TestCorsPreflight(t *testing.T) {
	h, reached := newCors(t, "https://goals.example.com")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/goals", nil)
	req.Header.Set("Origin", "https://goals.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if *reached {
		t.Errorf("preflight should not reach the next handler")
	}
	want := map[string]string{
		"Access-Control-Allow-Origin":      "https://goals.example.com",
		"Access-Control-Allow-Credentials": "true",
		"Access-Control-Allow-Methods":     "GET, POST, PUT, DELETE, OPTIONS",
		"Access-Control-Allow-Headers":     "Authorization, Content-Type",
		"Vary":                             "Origin",
	}
	for name, value := range want {
		if got := rec.Header().Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
}

func TestCorsOrigins(t *testing.T) {
	tests := []struct {
		name    string
		allowed string
		origin  string
		want    string
	}{
		{"Allowed", "https://goals.example.com", "https://goals.example.com", "https://goals.example.com"},
		{"Foreign", "https://goals.example.com", "https://evil.example.com", ""},
		{"Wildcard", "*", "https://any.example.com", "https://any.example.com"},
		{"NoOrigin", "*", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, reached := newCors(t, tt.allowed)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/goals", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if !*reached || rec.Code != http.StatusOK {
				t.Fatalf("request should pass through, got %d", rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCorsDefaultOrigin(t *testing.T) {
	h, _ := newCors(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("Allow-Origin = %q, want the local dev origin", got)
	}
}
