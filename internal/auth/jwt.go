package auth

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/saulo-duarte/goal-tracker/internal/config"
)

var (
	ErrTokenRevoked = errors.New("token has been revoked")
	ErrNoToken      = errors.New("no token in request")
)

const defaultTokenTTL = 24 * time.Hour

var (
	jwtSecret []byte
	tokenTTL  = defaultTokenTTL
	revoked   = newDenylist()
)

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Init reads JWT_SECRET and TOKEN_TTL. A server without a signing secret
// cannot run, so a missing secret panics.
func Init() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET environment variable not set")
	}
	jwtSecret = []byte(secret)
	tokenTTL = config.GetDurationEnv("TOKEN_TTL", defaultTokenTTL)
}

func TokenTTL() time.Duration {
	return tokenTTL
}

func GenerateJWT(userID, username string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id", jwt.ErrTokenInvalidClaims)
	}
	if revoked.contains(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke denies the token id until it would have expired anyway.
func Revoke(claims *Claims) {
	if claims == nil || claims.ID == "" {
		return
	}
	expires := time.Now().Add(tokenTTL)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	revoked.add(claims.ID, expires)
}

type denylist struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func newDenylist() *denylist {
	return &denylist{ids: make(map[string]time.Time)}
}

func (d *denylist) add(id string, expires time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	for k, exp := range d.ids {
		if exp.Before(now) {
			delete(d.ids, k)
		}
	}
	d.ids[id] = expires
}

func (d *denylist) contains(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.ids[id]
	return ok
}
