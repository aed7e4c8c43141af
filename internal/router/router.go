package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"github.com/saulo-duarte/goal-tracker/internal/auth"
	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/saulo-duarte/goal-tracker/internal/goal"
	"github.com/saulo-duarte/goal-tracker/internal/middlewares"
	"github.com/saulo-duarte/goal-tracker/internal/progress"
	"github.com/saulo-duarte/goal-tracker/internal/user"
)

const APIPrefix = "/api/v1"

type RouterConfig struct {
	UserHandler     *user.Handler
	GoalHandler     *goal.Handler
	ProgressHandler *progress.Handler
	DB              *gorm.DB
}

func New(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CorsMiddleware)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Get("/health", health(cfg.DB))
		r.Mount("/auth", user.Routes(cfg.UserHandler))

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware)

			r.Mount("/goals", goal.Routes(cfg.GoalHandler))
			r.Mount("/progress", progress.Routes(cfg.ProgressHandler))
		})
	})
	return r
}

func health(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "connected"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil {
			status, code = err.Error(), http.StatusServiceUnavailable
		} else if err := sqlDB.PingContext(r.Context()); err != nil {
			status, code = err.Error(), http.StatusServiceUnavailable
		}

		healthy := "healthy"
		if code != http.StatusOK {
			healthy = "unhealthy"
		}
		config.JSON(w, code, map[string]interface{}{
			"status": healthy,
			"services": map[string]string{
				"database": status,
				"api":      "running",
			},
		})
	}
}
