package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/comate/comate/internal/api/handler"
	"github.com/comate/comate/internal/api/middleware"
	"github.com/comate/comate/internal/api/response"
	"github.com/comate/comate/internal/services/auth"
	"github.com/comate/comate/internal/services/catalog"
	"github.com/comate/comate/internal/services/lifecycle"
	"github.com/comate/comate/internal/services/matching"
	"github.com/comate/comate/internal/services/registration"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	Registration *registration.Service
	Lifecycle    *lifecycle.Service
	Matching     *matching.Service
	Catalog      *catalog.Service
	AdminGuard   *auth.Guard
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	userHandler := handler.NewUserHandler(cfg.Registration, cfg.Lifecycle)
	matchHandler := handler.NewMatchHandler(cfg.Matching, cfg.Catalog)

	// Create middleware
	adminMiddleware := middleware.AdminOnly(cfg.AdminGuard)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware; logging wraps recovery so panics are logged as 500s
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// Public read-only routes
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/stats", matchHandler.Stats).Methods(http.MethodGet)
	api.HandleFunc("/questions", matchHandler.Questions).Methods(http.MethodGet)

	// User routes
	api.HandleFunc("/users", userHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", userHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", userHandler.Leave).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id}/status", userHandler.Status).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/verify", userHandler.Verify).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/leave", userHandler.Leave).Methods(http.MethodPost)

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminMiddleware)
	admin.HandleFunc("/batch-match", matchHandler.BatchMatch).Methods(http.MethodPost)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
