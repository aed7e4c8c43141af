package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/saulo-duarte/goal-tracker/internal/config"
)

const CookieName = "jwt"

type contextKey struct{}

var ErrNoClaims = errors.New("no user claims in context")

// AuthMiddleware accepts a bearer token or the jwt cookie.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := config.WithContext(r.Context())

		tokenStr, err := TokenFromRequest(r)
		if err != nil {
			config.Fail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claims, err := ValidateJWT(tokenStr)
		if err != nil {
			log.WithError(err).Debug("Rejected token")
			config.Fail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), nil
		}
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", ErrNoToken
}

func GetUserClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	if !ok || claims == nil {
		return nil, ErrNoClaims
	}
	return claims, nil
}

// UserIDFromContext returns the numeric id of the authenticated user.
func UserIDFromContext(ctx context.Context) (int64, error) {
	claims, err := GetUserClaimsFromContext(ctx)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return 0, ErrNoClaims
	}
	return id, nil
}

func SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   config.GetEnv("COOKIE_SECURE", "") == "true",
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.GetEnv("COOKIE_SECURE", "") == "true",
		SameSite: http.SameSiteLaxMode,
	})
}
