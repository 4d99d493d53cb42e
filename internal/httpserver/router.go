// filepath: internal/httpserver/router.go
package httpserver

import (
	"net/http"

	"backuphub/internal/api/handlers"
	"backuphub/internal/models"
	"backuphub/internal/services/auth"

	"github.com/gorilla/mux"
)

// SetupRouter configures the main router and its permission sub-routers.
func SetupRouter(h *handlers.Handlers, am *auth.Middleware) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Public Endpoints
	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	// Token-authenticated API Routes
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(am.AuthMiddleware)

	addRepositoryRoutes(apiRouter, h, am)
	addCronRoutes(apiRouter, h, am)
	addAccountRoutes(apiRouter, h, am)

	return r
}

// addRepositoryRoutes configures routes related to repository management.
func addRepositoryRoutes(r *mux.Router, h *handlers.Handlers, am *auth.Middleware) {
	readRouter := r.PathPrefix("").Subrouter()
	readRouter.Use(am.PermissionMiddleware(models.PermRead))
	readRouter.HandleFunc("/repositories", h.ListRepositories).Methods("GET")
	readRouter.HandleFunc("/repositories/{name}", h.GetRepository).Methods("GET")

	createRouter := r.PathPrefix("").Subrouter()
	createRouter.Use(am.PermissionMiddleware(models.PermCreate))
	createRouter.HandleFunc("/repositories", h.CreateRepository).Methods("POST")

	updateRouter := r.PathPrefix("").Subrouter()
	updateRouter.Use(am.PermissionMiddleware(models.PermUpdate))
	updateRouter.HandleFunc("/repositories/{name}", h.UpdateRepository).Methods("PATCH")
	updateRouter.HandleFunc("/repositories/{name}/compact", h.CompactRepository).Methods("POST")

	deleteRouter := r.PathPrefix("").Subrouter()
	deleteRouter.Use(am.PermissionMiddleware(models.PermDelete))
	deleteRouter.HandleFunc("/repositories/{name}", h.DeleteRepository).Methods("DELETE")
}

// addCronRoutes exposes the reconciliation cycles to an external scheduler.
func addCronRoutes(r *mux.Router, h *handlers.Handlers, am *auth.Middleware) {
	cronRouter := r.PathPrefix("/cron").Subrouter()
	cronRouter.Use(am.PermissionMiddleware(models.PermUpdate))
	cronRouter.HandleFunc("/status", h.TriggerStatus).Methods("POST")
	cronRouter.HandleFunc("/storage", h.TriggerStorage).Methods("POST")
}

// addAccountRoutes configures the token owner's own settings.
func addAccountRoutes(r *mux.Router, h *handlers.Handlers, am *auth.Middleware) {
	readRouter := r.PathPrefix("").Subrouter()
	readRouter.Use(am.PermissionMiddleware(models.PermRead))
	readRouter.HandleFunc("/account/notifications", h.GetNotifications).Methods("GET")

	updateRouter := r.PathPrefix("").Subrouter()
	updateRouter.Use(am.PermissionMiddleware(models.PermUpdate))
	updateRouter.HandleFunc("/account/notifications", h.UpdateNotifications).Methods("PUT")
}
